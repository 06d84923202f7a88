// internal/orchestrator/watchdog.go
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tazjel/baloot-ai-sub002/internal/game"
	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

// WatchdogPass scans one room for flagged-but-unjudged plays and, when a
// provable one exists and an automated seat on the wronged team is
// available, drives a full challenge against it. The per-room watch lock
// makes the pass single-flight: concurrent triggers for the same room
// collapse into one. Returns whether a challenge was driven.
func (rc *RoomContext) WatchdogPass(ctx context.Context, roomID uuid.UUID) bool {
	if !rc.Store.TryAcquireWatch(roomID) {
		return false
	}
	defer rc.Store.ReleaseWatch(roomID)

	g, ok := rc.Store.GetGame(roomID)
	if !ok {
		return false
	}

	g.Mu.Lock()
	crime, proof, offender, found := findProvableCrime(g)
	if !found || g.IsLocked || (g.Phase != game.PhasePlaying && g.Phase != game.PhaseFinished) {
		g.Mu.Unlock()
		return false
	}
	reporter, ok := botAccuser(g, offender)
	if !ok {
		g.Mu.Unlock()
		return false
	}

	log := rc.Logger.WithFields(logrus.Fields{
		"room": g.ID, "reporter": reporter, "offender": offender,
		"crime": crime, "proof": proof,
	})

	steps := []game.Result{
		g.TriggerQayd(reporter),
		g.QaydMenu(reporter, game.QaydMenuReport),
		g.QaydViolation(reporter, game.ViolationRenege),
		g.QaydCrimeCard(reporter, crime),
		g.QaydProofCard(reporter, proof),
	}
	for _, res := range steps {
		if !res.Success {
			// Unwind rather than leave the room wedged mid-challenge.
			log.Warnf("watchdog challenge aborted: %s", res.Error)
			if g.Qayd.Active() {
				g.CancelQayd(reporter)
			}
			rc.AfterMutation(ctx, g)
			g.Mu.Unlock()
			return false
		}
	}
	rc.AfterMutation(ctx, g)
	g.Mu.Unlock()

	// Hold the verdict on screen before confirming.
	if rc.DisplayDelay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(rc.DisplayDelay):
		}
	}

	g.Mu.Lock()
	verdict, res := g.ConfirmQayd(reporter)
	if !res.Success {
		// A human resolved the challenge during the display window.
		g.Mu.Unlock()
		return false
	}
	log.WithFields(logrus.Fields{
		"proven": verdict.Proven, "penalty": verdict.Penalty, "loser": verdict.LosingTeam,
	}).Info("watchdog challenge adjudicated")
	rc.AfterMutation(ctx, g)
	g.Mu.Unlock()
	return true
}

// findProvableCrime walks completed tricks for an illegal-flagged play that
// has not been judged yet and that a later play by the same seat can prove.
// Unprovable flags are left for human accusers.
func findProvableCrime(g *game.Game) (crime, proof game.CardRef, offender models.Seat, ok bool) {
	judged := map[string]bool{}
	if g.Qayd != nil {
		for _, sig := range g.Qayd.Judged {
			judged[sig] = true
		}
	}
	for ti, trick := range g.RoundHistory {
		led := trick.LedSuit()
		for pos, tc := range trick.Cards {
			if pos == 0 || !tc.Illegal {
				continue
			}
			c := game.CardRef{Trick: ti, Pos: pos}
			if judged[c.Signature()] || tc.Card.Suit == led {
				continue
			}
			if p, found := findProof(g, ti, tc.Seat, led); found {
				return c, p, tc.Seat, true
			}
		}
	}
	return game.CardRef{}, game.CardRef{}, 0, false
}

// findProof looks for a later play where the offender produced the suit it
// failed to follow, including the in-progress trick on the table.
func findProof(g *game.Game, crimeTrick int, offender models.Seat, led models.Suit) (game.CardRef, bool) {
	for ti := crimeTrick + 1; ti < len(g.RoundHistory); ti++ {
		for pos, tc := range g.RoundHistory[ti].Cards {
			if tc.Seat == offender && tc.Card.Suit == led {
				return game.CardRef{Trick: ti, Pos: pos}, true
			}
		}
	}
	for pos, tc := range g.TableCards {
		if tc.Seat == offender && tc.Card.Suit == led {
			return game.CardRef{Trick: len(g.RoundHistory), Pos: pos}, true
		}
	}
	return game.CardRef{}, false
}

// botAccuser picks an automated seat on the team wronged by the offender.
func botAccuser(g *game.Game, offender models.Seat) (models.Seat, bool) {
	wronged := models.TeamOf(offender).Opponent()
	for seat := models.Seat(0); seat < 4; seat++ {
		p := g.Players[seat]
		if p != nil && p.IsBot && models.TeamOf(seat) == wronged {
			return seat, true
		}
	}
	return 0, false
}
