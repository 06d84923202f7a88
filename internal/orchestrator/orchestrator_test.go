// internal/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazjel/baloot-ai-sub002/internal/game"
	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

// funcProvider adapts a closure into a MoveProvider.
type funcProvider func(ctx context.Context, state game.ClientState, seat models.Seat) (models.Move, error)

func (f funcProvider) Decide(ctx context.Context, state game.ClientState, seat models.Seat) (models.Move, error) {
	return f(ctx, state, seat)
}

// testRoomContext builds a context with no persistence and no pacing delays.
func testRoomContext(provider MoveProvider) *RoomContext {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	rc := NewRoomContext(game.NewGameStore(), nil, provider, logger)
	rc.BotDelay = 0
	rc.DisplayDelay = 0
	return rc
}

// newRoom starts a match with humans on the given seats, bots elsewhere, and
// registers it with the store.
func newRoom(t *testing.T, rc *RoomContext, seed int64, humanSeats ...models.Seat) *game.Game {
	t.Helper()
	g := game.NewGame(uuid.New(), models.DefaultRoomRules())
	g.SetRand(rand.New(rand.NewSource(seed)))
	for _, seat := range humanSeats {
		require.True(t, g.AddPlayer(uuid.New(), seat, false).Success)
	}
	require.True(t, g.StartMatch().Success)
	rc.Store.AddGame(g)
	return g
}

// expireTurnTimer backdates the running countdown so the poller sees it as
// elapsed.
func expireTurnTimer(g *game.Game) {
	now := time.Now().UnixMilli()
	g.Timer.StartedAt = now - 60_000
	g.Timer.Deadline = now - 1_000
	g.Timer.Running = true
	g.Timer.PausedAt = 0
}

func TestRunBotTurnsStopsAtHumanSeat(t *testing.T) {
	rc := testRoomContext(nil)
	g := newRoom(t, rc, 1, 0) // human on seat 0, dealer 0, first speaker 1

	rc.RunBotTurns(context.Background(), g.ID)

	assert.Equal(t, game.PhaseBidding, g.Phase)
	assert.Equal(t, models.Seat(0), g.Bidding.Turn)
	assert.Equal(t, 3, g.Bidding.TurnsTaken)
}

func TestRunBotTurnsStepCapOnEndlessRedeals(t *testing.T) {
	// All-bot room with the pass-only fallback provider: every cycle ends in
	// a redeal, so only the step cap stops the loop.
	rc := testRoomContext(nil)
	rc.MaxBotSteps = 24
	g := newRoom(t, rc, 2)

	rc.RunBotTurns(context.Background(), g.ID)

	assert.Equal(t, game.PhaseBidding, g.Phase)
	assert.Greater(t, g.RoundNumber, 1)
}

func TestRunBotTurnsStopsWhileGablakOpen(t *testing.T) {
	bid := funcProvider(func(_ context.Context, state game.ClientState, seat models.Seat) (models.Move, error) {
		if state.Phase == game.PhaseBidding && seat == state.CurrentSeat {
			if seat == 1 {
				return models.Move{Action: ActionSun}, nil
			}
		}
		return FallbackProvider{}.Decide(context.Background(), state, seat)
	})
	rc := testRoomContext(bid)
	g := newRoom(t, rc, 3)

	rc.RunBotTurns(context.Background(), g.ID)

	// The grace window belongs to the timer poller, not the bot loop.
	assert.Equal(t, game.PhaseBidding, g.Phase)
	assert.True(t, g.Bidding.GablakOpen)
	require.NotNil(t, g.Bidding.Tentative)
	assert.Equal(t, models.ContractSun, g.Bidding.Tentative.Type)
}

func TestBotsCompleteRoundAfterGablakExpiry(t *testing.T) {
	bid := funcProvider(func(_ context.Context, state game.ClientState, seat models.Seat) (models.Move, error) {
		if state.Phase == game.PhaseBidding && seat == state.CurrentSeat && seat == 1 {
			return models.Move{Action: ActionSun}, nil
		}
		return FallbackProvider{}.Decide(context.Background(), state, seat)
	})
	rc := testRoomContext(bid)
	g := newRoom(t, rc, 4)
	ctx := context.Background()

	rc.RunBotTurns(ctx, g.ID)
	require.True(t, g.Bidding.GablakOpen)

	g.Mu.Lock()
	expireTurnTimer(g)
	g.Mu.Unlock()
	require.True(t, rc.PollOnce(ctx, g.ID))
	assert.Equal(t, game.PhaseDoubling, g.Phase)

	rc.RunBotTurns(ctx, g.ID)

	assert.Equal(t, game.PhaseFinished, g.Phase)
	require.NotNil(t, g.LastRound)
	assert.Len(t, g.LastRound.Tricks, 8)
	// Bots declare their dealt melds, so the pot is at least the meldless 26.
	total := g.MatchScores[models.TeamUs] + g.MatchScores[models.TeamThem]
	assert.GreaterOrEqual(t, total, 26)
}

func TestProviderPanicDegradesToDefault(t *testing.T) {
	boom := funcProvider(func(context.Context, game.ClientState, models.Seat) (models.Move, error) {
		panic("provider crashed")
	})
	rc := testRoomContext(boom)
	g := newRoom(t, rc, 5, 0)

	assert.NotPanics(t, func() {
		rc.RunBotTurns(context.Background(), g.ID)
	})
	// Every bot fell back to a pass; the human is now up.
	assert.Equal(t, models.Seat(0), g.Bidding.Turn)
	assert.Equal(t, 3, g.Bidding.TurnsTaken)
}

func TestInvalidProviderMoveFallsBack(t *testing.T) {
	bad := funcProvider(func(context.Context, game.ClientState, models.Seat) (models.Move, error) {
		return models.Move{Action: ActionPlay, CardIndex: 99}, nil
	})
	rc := testRoomContext(bad)
	g := newRoom(t, rc, 6, 0)

	rc.RunBotTurns(context.Background(), g.ID)

	assert.Equal(t, models.Seat(0), g.Bidding.Turn)
	assert.Equal(t, 3, g.Bidding.TurnsTaken)
}

func TestPollOnceExpiresTurnTimer(t *testing.T) {
	rc := testRoomContext(nil)
	g := newRoom(t, rc, 7, 0, 1, 2, 3)
	ctx := context.Background()

	require.False(t, rc.PollOnce(ctx, g.ID), "fresh timer must not expire")

	g.Mu.Lock()
	expireTurnTimer(g)
	g.Mu.Unlock()

	require.True(t, rc.PollOnce(ctx, g.ID))
	assert.Equal(t, 1, g.Bidding.TurnsTaken) // auto-pass applied
	assert.False(t, g.Timer.Expired())       // countdown restarted for the next seat
}

func TestPollOnceClosesDoublingWindow(t *testing.T) {
	rc := testRoomContext(nil)
	g := newRoom(t, rc, 8, 0, 1, 2, 3)
	ctx := context.Background()

	// Finalize a sun contract by hand: first speaker bids, others pass.
	g.Mu.Lock()
	require.True(t, g.ProcessBid(g.Bidding.Turn, game.BidSun, "").Success)
	for i := 0; i < 3; i++ {
		require.True(t, g.ProcessBid(g.Bidding.Turn, game.BidPass, "").Success)
	}
	require.True(t, g.ExpireGablak().Success)
	require.Equal(t, game.PhaseDoubling, g.Phase)
	expireTurnTimer(g)
	g.Mu.Unlock()

	require.True(t, rc.PollOnce(ctx, g.ID))
	assert.Equal(t, game.PhasePlaying, g.Phase)
	for seat := models.Seat(0); seat < 4; seat++ {
		assert.Len(t, g.Players[seat].Hand, 8)
	}
}

func TestPollOnceAdvancesFinishedRound(t *testing.T) {
	rc := testRoomContext(nil)
	g := newRoom(t, rc, 9, 0, 1, 2, 3)
	ctx := context.Background()

	g.Mu.Lock()
	g.Phase = game.PhaseFinished
	g.Timer.Stop()
	round := g.RoundNumber
	g.Mu.Unlock()

	// First pass arms the display countdown; with a zero display delay the
	// second pass rolls into the next round.
	require.False(t, rc.PollOnce(ctx, g.ID))
	assert.True(t, g.Timer.Running)

	require.True(t, rc.PollOnce(ctx, g.ID))
	assert.Equal(t, game.PhaseBidding, g.Phase)
	assert.Equal(t, round+1, g.RoundNumber)
}

func TestPollOnceVariantDefaultAvoidsFloorSuit(t *testing.T) {
	rc := testRoomContext(nil)
	g := newRoom(t, rc, 11, 0, 1, 2, 3)
	ctx := context.Background()

	floor, err := models.ParseCard("7S")
	require.NoError(t, err)

	// Force a suitless round-2 hokum contract over a spades floor card, the
	// worst case for the default trump pick.
	g.Mu.Lock()
	g.FloorCard = floor
	g.Bidding.FloorCard = floor
	g.Bidding.Round = 2
	g.Bidding.Finalized = true
	g.Bidding.Contract = &models.Contract{Type: models.ContractHokum, Bidder: 1}
	g.Contract = *g.Bidding.Contract
	g.Phase = game.PhaseVariant
	expireTurnTimer(g)
	g.Mu.Unlock()

	require.True(t, rc.PollOnce(ctx, g.ID))
	assert.Equal(t, game.PhaseDoubling, g.Phase)
	require.NotEmpty(t, g.Contract.Trump)
	assert.NotEqual(t, models.Spades, g.Contract.Trump)
}

func TestPollOnceResolvesAbandonedChallenge(t *testing.T) {
	rc := testRoomContext(nil)
	g := newRoom(t, rc, 12, 0, 1, 2, 3)
	ctx := context.Background()

	// A challenge raised after round end finds the turn timer already
	// stopped; the poller must still be able to reap it.
	g.Mu.Lock()
	g.Phase = game.PhaseFinished
	g.Timer.Stop()
	require.True(t, g.TriggerQayd(0).Success)
	require.Equal(t, game.PhaseChallenge, g.Phase)
	g.Mu.Unlock()

	// A fresh challenge is left alone.
	require.False(t, rc.PollOnce(ctx, g.ID))
	assert.Equal(t, game.PhaseChallenge, g.Phase)

	g.Mu.Lock()
	g.Qayd.StartedAt = time.Now().UnixMilli() - 60_000
	g.Mu.Unlock()

	require.True(t, rc.PollOnce(ctx, g.ID))
	assert.Equal(t, game.PhaseFinished, g.Phase)
	assert.False(t, g.IsLocked)
	assert.Equal(t, game.QaydIdle, g.Qayd.State)
}

func TestPollOnceReapsGameOverRoom(t *testing.T) {
	rc := testRoomContext(nil)
	g := newRoom(t, rc, 10, 0, 1, 2, 3)
	ctx := context.Background()

	g.Mu.Lock()
	g.Phase = game.PhaseGameOver
	g.Timer.Stop()
	g.Mu.Unlock()

	// First pass arms the linger window; the second removes the room.
	require.False(t, rc.PollOnce(ctx, g.ID))
	_, ok := rc.Store.GetGame(g.ID)
	assert.True(t, ok)

	require.False(t, rc.PollOnce(ctx, g.ID))
	_, ok = rc.Store.GetGame(g.ID)
	assert.False(t, ok)
}
