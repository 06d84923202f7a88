// internal/orchestrator/provider.go
package orchestrator

import (
	"context"

	"github.com/tazjel/baloot-ai-sub002/internal/game"
	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

// Move actions understood by the orchestrator. Providers emit these; how
// the decision was produced is opaque.
const (
	ActionPass    = "pass"
	ActionSun     = "sun"
	ActionHokum   = "hokum"
	ActionAshkal  = "ashkal"
	ActionKawesh  = "kawesh"
	ActionDouble  = "double"
	ActionGahwa   = "gahwa"
	ActionDecline = "decline"
	ActionVariant = "variant"
	ActionPlay    = "play"
	ActionQayd    = "qayd"
)

// MoveProvider decides one seat's next move from the full game-state
// snapshot. Implementations may call out to anything; the orchestrator only
// sees the returned Move, and any error or panic degrades to the default
// action for the phase.
type MoveProvider interface {
	Decide(ctx context.Context, state game.ClientState, seat models.Seat) (models.Move, error)
}

// FallbackProvider is the deterministic provider used when no external
// decision service is configured, and the reference for degraded defaults:
// pass in bidding, decline doubles, first legal card in play.
type FallbackProvider struct{}

// Decide implements MoveProvider.
func (FallbackProvider) Decide(_ context.Context, state game.ClientState, seat models.Seat) (models.Move, error) {
	switch state.Phase {
	case game.PhaseBidding:
		return models.Move{Action: ActionPass}, nil
	case game.PhaseDoubling:
		return models.Move{Action: ActionDecline}, nil
	case game.PhaseVariant:
		return models.Move{Action: ActionVariant, Suit: firstNonFloorSuit(state)}, nil
	case game.PhasePlaying:
		return models.Move{Action: ActionPlay, CardIndex: firstLegalIndex(state, seat)}, nil
	default:
		return models.Move{Action: ActionPass}, nil
	}
}

func firstNonFloorSuit(state game.ClientState) models.Suit {
	floor := models.Suit("")
	if state.FloorCard != nil {
		floor = state.FloorCard.Suit
	}
	for _, s := range models.Suits {
		if s != floor {
			return s
		}
	}
	return models.Spades
}

// firstLegalIndex picks the lowest hand index that follows the led suit,
// falling back to index 0 when void.
func firstLegalIndex(state game.ClientState, seat models.Seat) int {
	var hand []models.Card
	for _, p := range state.Players {
		if p.Seat == seat {
			hand = p.Hand
			break
		}
	}
	if len(hand) == 0 || len(state.TableCards) == 0 {
		return 0
	}
	led := state.TableCards[0].Card.Suit
	for i, c := range hand {
		if c.Suit == led {
			return i
		}
	}
	return 0
}
