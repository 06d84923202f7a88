// internal/game/bidding.go
package game

import (
	"fmt"

	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

// Bid actions accepted by ProcessBid.
const (
	BidPass   = "PASS"
	BidSun    = "SUN"
	BidHokum  = "HOKUM"
	BidAshkal = "ASHKAL"
	BidKawesh = "KAWESH"
	BidDouble = "DOUBLE"
	BidGahwa  = "GAHWA"
)

// BidResult outcomes.
const (
	BidActionRedeal    = "REDEAL"
	BidActionContinue  = "CONTINUE"
	BidActionFinalized = "FINALIZED"
)

// BidResult is the structured outcome of one bidding operation.
type BidResult struct {
	Result
	Action   string           `json:"action,omitempty"`
	Contract *models.Contract `json:"contract,omitempty"`

	// RotateDealer is set on REDEAL when the dealer seat advances
	// (kawesh called after a contract existed).
	RotateDealer bool `json:"rotate_dealer,omitempty"`
}

func bidOk(action string) BidResult {
	return BidResult{Result: Ok(), Action: action}
}

func bidFail(code, reason string) BidResult {
	return BidResult{Result: Fail(code, reason)}
}

// bidPriority orders contract types for escalation: a tentative bid can only
// be replaced by a strictly higher-priority one.
var bidPriority = map[models.ContractType]int{
	models.ContractHokum:  1,
	models.ContractAshkal: 2,
	models.ContractSun:    3,
}

// BiddingEngine sequences the bid/pass/escalation dialogue among the four
// seats, starting left of the dealer, and finalizes the contract. All state
// is exported so the engine survives a snapshot/reload between calls.
type BiddingEngine struct {
	Dealer    models.Seat `json:"dealer"`
	Turn      models.Seat `json:"turn"`
	Round     int         `json:"round"` // 1 or 2
	FloorCard models.Card `json:"floor_card"`

	// TurnsTaken counts seats that have spoken in the current round's cycle.
	TurnsTaken int `json:"turns_taken"`

	Tentative *models.Contract `json:"tentative,omitempty"`

	// GablakOpen marks the grace window after the speaking cycle ends with a
	// tentative bid; the bid can still be escalated until the window expires.
	GablakOpen bool `json:"gablak_open"`

	Finalized bool             `json:"finalized"`
	Contract  *models.Contract `json:"contract,omitempty"`

	Rules models.RoomRules `json:"rules"`
}

// NewBiddingEngine starts a fresh negotiation. The floor card is the dealt
// card whose suit is the only HOKUM bid available in round 1.
func NewBiddingEngine(dealer models.Seat, floorCard models.Card, rules models.RoomRules) *BiddingEngine {
	return &BiddingEngine{
		Dealer:    dealer,
		Turn:      dealer.Next(),
		Round:     1,
		FloorCard: floorCard,
		Rules:     rules,
	}
}

// ProcessBid handles one seat's bidding action. The caller supplies the
// seat's current hand for the hand-constraint checks (kawesh). Errors never
// advance the turn.
func (be *BiddingEngine) ProcessBid(seat models.Seat, action string, suit models.Suit, hand []models.Card) BidResult {
	if be.Finalized && action != BidDouble && action != BidGahwa && action != BidKawesh {
		return bidFail(CodeWrongPhase, "bidding already finalized")
	}

	switch action {
	case BidKawesh:
		return be.processKawesh(seat, hand)
	case BidDouble, BidGahwa:
		return be.processDouble(seat, action)
	}

	if be.GablakOpen {
		return be.processGablakBid(seat, action, suit)
	}
	if seat != be.Turn {
		return bidFail(CodeWrongTurn, fmt.Sprintf("seat %d cannot bid on seat %d's turn", seat, be.Turn))
	}

	switch action {
	case BidPass:
		return be.advanceCycle()
	case BidSun, BidHokum, BidAshkal:
		res := be.placeBid(seat, action, suit)
		if !res.Success {
			return res
		}
		return be.advanceCycle()
	default:
		return bidFail(CodeInvalidAction, fmt.Sprintf("unknown bid action %q", action))
	}
}

// placeBid validates and records a tentative contract for the seat.
func (be *BiddingEngine) placeBid(seat models.Seat, action string, suit models.Suit) BidResult {
	var c models.Contract
	switch action {
	case BidSun:
		c = models.Contract{Type: models.ContractSun, Bidder: seat, DoublingLevel: models.DoubleNone}
	case BidAshkal:
		if be.Round != 1 {
			return bidFail(CodeInvalidAction, "ashkal is only available in the first bidding round")
		}
		if be.FloorCard.Rank == models.Ace {
			return bidFail(CodeAshkalOnAce, "ashkal cannot be called on an ace floor card")
		}
		c = models.Contract{Type: models.ContractAshkal, Bidder: seat, DoublingLevel: models.DoubleNone}
	case BidHokum:
		if be.Round == 1 {
			if suit != "" && suit != be.FloorCard.Suit {
				return bidFail(CodeInvalidSuit, "round 1 hokum must take the floor suit")
			}
			c = models.Contract{Type: models.ContractHokum, Bidder: seat, Trump: be.FloorCard.Suit, DoublingLevel: models.DoubleNone}
		} else {
			if suit == be.FloorCard.Suit {
				return bidFail(CodeInvalidSuit, "round 2 hokum cannot take the floor suit")
			}
			// Suit may be empty here; the bidder then fixes the trump during
			// variant selection before play begins.
			c = models.Contract{Type: models.ContractHokum, Bidder: seat, Trump: suit, DoublingLevel: models.DoubleNone}
		}
	}

	if be.Tentative != nil && bidPriority[c.Type] <= bidPriority[be.Tentative.Type] {
		return bidFail(CodeInvalidAction,
			fmt.Sprintf("%s does not outrank the standing %s bid", c.Type, be.Tentative.Type))
	}
	be.Tentative = &c
	return bidOk(BidActionContinue)
}

// advanceCycle moves the turn forward and handles end-of-cycle transitions:
// open the gablak window when a tentative bid stands, fall through to round
// 2 after an all-pass first cycle, and redeal after an all-pass second one.
func (be *BiddingEngine) advanceCycle() BidResult {
	be.TurnsTaken++
	be.Turn = be.Turn.Next()
	if be.TurnsTaken < 4 {
		return bidOk(BidActionContinue)
	}

	// Full cycle complete.
	if be.Tentative != nil {
		be.GablakOpen = true
		return bidOk(BidActionContinue)
	}
	if be.Round == 1 {
		be.Round = 2
		be.TurnsTaken = 0
		be.Turn = be.Dealer.Next()
		return bidOk(BidActionContinue)
	}
	// All-pass in round 2: automatic redeal, same dealer.
	return bidOk(BidActionRedeal)
}

// processGablakBid handles escalation attempts during the grace window.
func (be *BiddingEngine) processGablakBid(seat models.Seat, action string, suit models.Suit) BidResult {
	switch action {
	case BidSun, BidHokum, BidAshkal:
		res := be.placeBid(seat, action, suit)
		if !res.Success {
			return res
		}
		// Window stays open for the remainder of its deadline.
		return bidOk(BidActionContinue)
	case BidPass:
		return bidOk(BidActionContinue)
	default:
		return bidFail(CodeInvalidAction, fmt.Sprintf("unknown bid action %q", action))
	}
}

// ExpireGablak finalizes the tentative bid once the grace window has run
// out. Driven by the timer poller, never by clients.
func (be *BiddingEngine) ExpireGablak() BidResult {
	if !be.GablakOpen || be.Tentative == nil {
		return bidFail(CodeGablakClosed, "no gablak window is open")
	}
	be.GablakOpen = false
	be.Finalized = true
	be.Contract = be.Tentative
	be.Tentative = nil
	return BidResult{Result: Ok(), Action: BidActionFinalized, Contract: be.Contract}
}

// processKawesh validates a forced-redeal call: the hand must hold no
// point-bearing cards. Before any contract exists the same dealer redeals;
// afterwards the dealer seat rotates.
func (be *BiddingEngine) processKawesh(seat models.Seat, hand []models.Card) BidResult {
	for _, c := range hand {
		if c.IsPointCard() {
			return bidFail(CodeKaweshWithPoints,
				fmt.Sprintf("kawesh rejected: hand holds point card %s", c.Key()))
		}
	}
	contractExists := be.Tentative != nil || be.Contract != nil
	res := bidOk(BidActionRedeal)
	res.RotateDealer = contractExists
	return res
}

// processDouble escalates the doubling level. Only opposing-team seats may
// double, and never past the configured cap; GAHWA (all-in) is available
// once the cap is reached.
func (be *BiddingEngine) processDouble(seat models.Seat, action string) BidResult {
	contract := be.Contract
	if contract == nil {
		contract = be.Tentative
	}
	if contract == nil {
		return bidFail(CodeIneligibleDouble, "no contract to double")
	}
	if models.TeamOf(seat) == contract.BiddingTeam() {
		return bidFail(CodeIneligibleDouble, "only the opposing team may double")
	}

	if action == BidGahwa {
		if contract.DoublingLevel < be.Rules.MaxDoublingLevel {
			return bidFail(CodeIneligibleDouble, "gahwa requires the doubling cap to be reached first")
		}
		contract.DoublingLevel = models.DoubleGahwa
		return BidResult{Result: Ok(), Action: BidActionContinue, Contract: contract}
	}

	if contract.DoublingLevel >= be.Rules.MaxDoublingLevel {
		return bidFail(CodeDoubleCapReached,
			fmt.Sprintf("doubling is capped at %dx", be.Rules.MaxDoublingLevel))
	}
	contract.DoublingLevel++
	return BidResult{Result: Ok(), Action: BidActionContinue, Contract: contract}
}

// SelectVariant fixes the trump suit for a round-2 HOKUM contract that was
// bid without one. Only the bidder may choose, and never the floor suit.
func (be *BiddingEngine) SelectVariant(seat models.Seat, suit models.Suit) BidResult {
	if !be.Finalized || be.Contract == nil {
		return bidFail(CodeWrongPhase, "no finalized contract")
	}
	if be.Contract.Type != models.ContractHokum || be.Contract.Trump != "" {
		return bidFail(CodeInvalidAction, "contract does not need a trump selection")
	}
	if seat != be.Contract.Bidder {
		return bidFail(CodeWrongTurn, "only the bidder selects the trump suit")
	}
	if suit == "" || suit == be.FloorCard.Suit {
		return bidFail(CodeInvalidSuit, "trump cannot be empty or the floor suit")
	}
	be.Contract.Trump = suit
	return BidResult{Result: Ok(), Action: BidActionFinalized, Contract: be.Contract}
}

// NeedsVariant reports whether the finalized contract still needs a trump
// suit chosen.
func (be *BiddingEngine) NeedsVariant() bool {
	return be.Finalized && be.Contract != nil &&
		be.Contract.Type == models.ContractHokum && be.Contract.Trump == ""
}
