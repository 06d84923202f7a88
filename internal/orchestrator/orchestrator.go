// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tazjel/baloot-ai-sub002/internal/cache"
	"github.com/tazjel/baloot-ai-sub002/internal/game"
	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

// RoomContext owns the shared handles every orchestration entry point
// needs: the room registry, the snapshot store, the move provider and the
// broadcast hook. It is passed explicitly; there are no process-wide
// mutable globals.
type RoomContext struct {
	Store    *game.GameStore
	Cache    *cache.Store // nil disables external persistence (tests)
	Provider MoveProvider
	Logger   *logrus.Logger

	// Broadcast pushes the room state to its subscribers after every
	// successful mutation. Set by the handler layer.
	Broadcast func(g *game.Game)

	// BotDelay throttles consecutive automated actions so humans can follow.
	BotDelay time.Duration

	// DisplayDelay is how long verdicts and round results stay on screen
	// before the flow continues.
	DisplayDelay time.Duration

	// PollInterval is the timer poller cadence.
	PollInterval time.Duration

	// MaxBotSteps hard-caps one bot-loop invocation as a runaway safety net.
	MaxBotSteps int
}

// NewRoomContext builds a context with the standard pacing defaults.
func NewRoomContext(store *game.GameStore, cacheStore *cache.Store, provider MoveProvider, logger *logrus.Logger) *RoomContext {
	if provider == nil {
		provider = FallbackProvider{}
	}
	return &RoomContext{
		Store:        store,
		Cache:        cacheStore,
		Provider:     provider,
		Logger:       logger,
		BotDelay:     800 * time.Millisecond,
		DisplayDelay: 4 * time.Second,
		PollInterval: 500 * time.Millisecond,
		MaxBotSteps:  64,
	}
}

// AfterMutation persists the aggregate snapshot and broadcasts it. Failures
// here degrade: persistence errors are logged, never propagated into the
// game flow. Assumes the game lock is held.
func (rc *RoomContext) AfterMutation(ctx context.Context, g *game.Game) {
	if rc.Cache != nil {
		data, err := game.EncodeSnapshot(g)
		if err != nil {
			rc.Logger.WithField("room", g.ID).Warnf("snapshot encode failed: %v", err)
		} else if err := rc.Cache.SaveSnapshot(ctx, g.ID, data); err != nil {
			rc.Logger.WithField("room", g.ID).Warnf("snapshot save failed: %v", err)
		}
	}
	if rc.Broadcast != nil {
		rc.Broadcast(g)
	}
}

// ArchiveRound ships a finished round to the durable archive queue.
func (rc *RoomContext) ArchiveRound(ctx context.Context, g *game.Game) {
	if rc.Cache == nil || g.LastRound == nil {
		return
	}
	if err := rc.Cache.PublishRoundRecord(ctx, *g.LastRound); err != nil {
		rc.Logger.WithField("room", g.ID).Warnf("round archive publish failed: %v", err)
	}
}

// decide asks the provider for a move, degrading to the fallback provider
// on error or panic so one room's provider failure never crashes the
// shared process.
func (rc *RoomContext) decide(ctx context.Context, g *game.Game, seat models.Seat) models.Move {
	state := g.ClientStateFor(seat)
	move, err := rc.safeDecide(ctx, state, seat)
	if err != nil {
		rc.Logger.WithFields(logrus.Fields{"room": g.ID, "seat": seat}).
			Warnf("move provider failed, using default: %v", err)
		move, _ = FallbackProvider{}.Decide(ctx, state, seat)
	}
	return move
}

func (rc *RoomContext) safeDecide(ctx context.Context, state game.ClientState, seat models.Seat) (move models.Move, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &providerPanic{val: r}
		}
	}()
	return rc.Provider.Decide(ctx, state, seat)
}

type providerPanic struct{ val interface{} }

func (p *providerPanic) Error() string { return "move provider panicked" }

// RunBotTurns drives automated seats until a human is up or the phase is no
// longer an active-turn phase. A bounded step counter replaces unbounded
// self-rescheduling; MaxBotSteps is the runaway safety net.
func (rc *RoomContext) RunBotTurns(ctx context.Context, roomID uuid.UUID) {
	g, ok := rc.Store.GetGame(roomID)
	if !ok {
		return
	}
	for step := 0; step < rc.MaxBotSteps; step++ {
		if ctx.Err() != nil {
			return
		}
		g.Mu.Lock()
		acted := rc.stepOneBot(ctx, g)
		g.Mu.Unlock()
		if !acted {
			return
		}
		if rc.BotDelay > 0 {
			time.Sleep(rc.BotDelay)
		}
	}
	rc.Logger.WithField("room", roomID).Warn("bot loop hit step cap, yielding")
}

// stepOneBot performs at most one automated action. Returns false when the
// loop should exit (human's turn, inactive phase, locked room). Assumes the
// game lock is held.
func (rc *RoomContext) stepOneBot(ctx context.Context, g *game.Game) bool {
	if g.IsLocked {
		return false
	}
	switch g.Phase {
	case game.PhaseBidding:
		if g.Bidding != nil && g.Bidding.GablakOpen {
			// The grace window belongs to the timer poller.
			return false
		}
	case game.PhaseDoubling:
		return rc.stepDoubling(ctx, g)
	case game.PhaseVariant, game.PhasePlaying:
	default:
		return false
	}

	seat := g.CurrentSeat()
	p := g.Players[seat]
	if p == nil || !p.IsBot {
		return false
	}

	// Bots declare melds before their first-trick play.
	if g.Phase == game.PhasePlaying && len(g.RoundHistory) == 0 {
		g.DeclareProjects(seat)
		g.DeclareBaloot(seat)
	}

	move := rc.decide(ctx, g, seat)
	mutated, roundDone := rc.ApplyMove(g, seat, move)
	if !mutated {
		// The provider proposed an invalid move; fall back to the default
		// action so the room cannot wedge.
		mutated, roundDone = rc.applyDefault(g, seat)
	}
	if mutated {
		if roundDone {
			rc.ArchiveRound(ctx, g)
		}
		rc.AfterMutation(ctx, g)
	}
	return mutated
}

// stepDoubling lets every automated opposing seat resolve its doubling
// option. Returns false once only humans remain undecided.
func (rc *RoomContext) stepDoubling(ctx context.Context, g *game.Game) bool {
	oppTeam := g.Contract.BiddingTeam().Opponent()
	for seat := models.Seat(0); seat < 4; seat++ {
		if models.TeamOf(seat) != oppTeam || g.DoubleDeclines[seat] {
			continue
		}
		p := g.Players[seat]
		if p == nil || !p.IsBot {
			continue
		}
		move := rc.decide(ctx, g, seat)
		var res game.Result
		switch move.Action {
		case ActionDouble:
			res = g.ProcessBid(seat, game.BidDouble, "").Result
			if res.Success {
				// A double consumes the option.
				res = g.DeclineDouble(seat)
			}
		default:
			res = g.DeclineDouble(seat)
		}
		if res.Success {
			rc.AfterMutation(ctx, g)
			return true
		}
	}
	return false
}

// ApplyMove routes a provider move into the engine. Returns whether the
// game mutated and whether the move completed the round.
func (rc *RoomContext) ApplyMove(g *game.Game, seat models.Seat, move models.Move) (bool, bool) {
	switch move.Action {
	case ActionPass:
		return g.ProcessBid(seat, game.BidPass, "").Success, false
	case ActionSun:
		return g.ProcessBid(seat, game.BidSun, "").Success, false
	case ActionAshkal:
		return g.ProcessBid(seat, game.BidAshkal, "").Success, false
	case ActionHokum:
		return g.ProcessBid(seat, game.BidHokum, move.Suit).Success, false
	case ActionKawesh:
		return g.ProcessBid(seat, game.BidKawesh, "").Success, false
	case ActionDouble:
		return g.ProcessBid(seat, game.BidDouble, "").Success, false
	case ActionGahwa:
		return g.ProcessBid(seat, game.BidGahwa, "").Success, false
	case ActionDecline:
		return g.DeclineDouble(seat).Success, false
	case ActionVariant:
		return g.SelectVariant(seat, move.Suit).Success, false
	case ActionPlay:
		p := g.Players[seat]
		if p == nil || move.CardIndex < 0 || move.CardIndex >= len(p.Hand) {
			return false, false
		}
		res := g.PlayCard(seat, p.Hand[move.CardIndex])
		return res.Success, res.RoundComplete
	case ActionQayd:
		return rc.applyAccusation(g, seat, move.Accusation), false
	default:
		return false, false
	}
}

// applyAccusation drives one complete provider-initiated challenge: trigger,
// menu, violation, crime and proof selection, then immediate confirmation.
// Any failed step unwinds the challenge so the room is never left locked.
func (rc *RoomContext) applyAccusation(g *game.Game, seat models.Seat, acc *models.Accusation) bool {
	if acc == nil {
		return false
	}
	steps := []game.Result{
		g.TriggerQayd(seat),
		g.QaydMenu(seat, game.QaydMenuReport),
		g.QaydViolation(seat, game.ViolationRenege),
		g.QaydCrimeCard(seat, game.CardRef{Trick: acc.CrimeTrick, Pos: acc.CrimePos}),
		g.QaydProofCard(seat, game.CardRef{Trick: acc.ProofTrick, Pos: acc.ProofPos}),
	}
	for _, res := range steps {
		if !res.Success {
			if g.Qayd.Active() {
				g.CancelQayd(seat)
			}
			return false
		}
	}
	_, res := g.ConfirmQayd(seat)
	return res.Success
}

// applyDefault performs the same action a timed-out human would get:
// auto-pass in bidding, first legal card in play.
func (rc *RoomContext) applyDefault(g *game.Game, seat models.Seat) (bool, bool) {
	switch g.Phase {
	case game.PhaseBidding:
		return g.ProcessBid(seat, game.BidPass, "").Success, false
	case game.PhaseDoubling:
		return g.DeclineDouble(seat).Success, false
	case game.PhaseVariant:
		move, _ := FallbackProvider{}.Decide(context.Background(), g.ClientStateFor(seat), seat)
		return g.SelectVariant(seat, move.Suit).Success, false
	case game.PhasePlaying:
		card, ok := g.FirstLegalCard(seat)
		if !ok {
			return false, false
		}
		res := g.PlayCard(seat, card)
		return res.Success, res.RoundComplete
	default:
		return false, false
	}
}
