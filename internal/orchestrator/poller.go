// internal/orchestrator/poller.go
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tazjel/baloot-ai-sub002/internal/game"
)

// challengeTimeout bounds how long a challenge may sit idle before the
// poller resolves it on the reporter's behalf.
const challengeTimeout = 45 * time.Second

// RunTimerLoop polls every registered room for expired countdowns until the
// context is cancelled. Expiry applies the same default action a missing
// player would get, so no room ever waits forever on one seat.
func (rc *RoomContext) RunTimerLoop(ctx context.Context) {
	ticker := time.NewTicker(rc.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range rc.Store.ListIDs() {
				if rc.PollOnce(ctx, id) {
					go rc.RunBotTurns(ctx, id)
				}
			}
		}
	}
}

// PollOnce checks a single room's countdown and applies the
// phase-appropriate default action if it has expired. Returns whether the
// room mutated.
func (rc *RoomContext) PollOnce(ctx context.Context, roomID uuid.UUID) bool {
	g, ok := rc.Store.GetGame(roomID)
	if !ok {
		return false
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase == game.PhaseChallenge {
		return rc.expireChallenge(ctx, g)
	}
	if g.Phase == game.PhaseFinished {
		return rc.advanceFinished(ctx, g)
	}
	if g.Phase == game.PhaseGameOver {
		rc.reapFinishedRoom(ctx, g)
		return false
	}
	if g.Timer == nil || !g.Timer.Expired() {
		return false
	}

	seat := g.CurrentSeat()
	var mutated, roundDone bool
	switch g.Phase {
	case game.PhaseBidding:
		if g.Bidding != nil && g.Bidding.GablakOpen {
			mutated = g.ExpireGablak().Success
		} else {
			mutated = g.ProcessBid(seat, game.BidPass, "").Success
		}
	case game.PhaseDoubling:
		// Silence from both opponents closes the window.
		g.BeginPlay()
		mutated = g.Phase == game.PhasePlaying
	case game.PhaseVariant, game.PhasePlaying:
		mutated, roundDone = rc.applyDefault(g, seat)
	}

	if mutated {
		rc.Logger.WithField("room", g.ID).WithField("phase", g.Phase).
			Debug("turn timer expired, default action applied")
		if roundDone {
			rc.ArchiveRound(ctx, g)
		}
		rc.AfterMutation(ctx, g)
	}
	return mutated
}

// expireChallenge resolves a challenge the reporter has abandoned. Staleness
// is measured from the challenge open instant; the turn timer may already be
// stopped when a challenge is raised from a finished round. A reached verdict
// is confirmed, anything earlier is cancelled.
func (rc *RoomContext) expireChallenge(ctx context.Context, g *game.Game) bool {
	if g.Qayd == nil || g.Qayd.StartedAt == 0 {
		return false
	}
	openFor := time.Duration(time.Now().UnixMilli()-g.Qayd.StartedAt) * time.Millisecond
	if openFor < challengeTimeout {
		return false
	}

	reporter := g.Qayd.Reporter
	var ok bool
	if g.Qayd.State == game.QaydResult {
		_, res := g.ConfirmQayd(reporter)
		ok = res.Success
	} else {
		ok = g.CancelQayd(reporter).Success
	}
	if ok {
		rc.Logger.WithField("room", g.ID).Info("stale challenge auto-resolved")
		rc.AfterMutation(ctx, g)
	}
	return ok
}

// reapFinishedRoom tears a GAMEOVER room down once the final score has been
// shown for the display window: the snapshot is deleted and the room leaves
// the registry.
func (rc *RoomContext) reapFinishedRoom(ctx context.Context, g *game.Game) {
	if g.Timer == nil {
		return
	}
	if !g.Timer.Running {
		g.Timer.Start(rc.DisplayDelay)
		return
	}
	if !g.Timer.Expired() {
		return
	}
	if rc.Cache != nil {
		if err := rc.Cache.DeleteSnapshot(ctx, g.ID); err != nil {
			rc.Logger.WithField("room", g.ID).Warnf("snapshot delete failed: %v", err)
		}
	}
	rc.Store.DeleteGame(g.ID)
	rc.Logger.WithField("room", g.ID).Info("room reaped after match end")
}

// advanceFinished starts the next round once the score screen has been
// shown for the display window.
func (rc *RoomContext) advanceFinished(ctx context.Context, g *game.Game) bool {
	if g.Timer == nil {
		return false
	}
	if !g.Timer.Running {
		g.Timer.Start(rc.DisplayDelay)
		return false
	}
	if !g.Timer.Expired() {
		return false
	}
	if !g.NextRound().Success {
		g.Timer.Stop()
		return false
	}
	rc.AfterMutation(ctx, g)
	return true
}
