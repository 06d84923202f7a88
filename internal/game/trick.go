// internal/game/trick.go
package game

import "github.com/tazjel/baloot-ai-sub002/internal/models"

// TableCard is one entry of the in-progress trick.
type TableCard struct {
	Card models.Card `json:"card"`
	Seat models.Seat `json:"seat"`

	// Illegal marks a play that violated suit-following at the time it was
	// made. Under permissive legality the play stands but the flag feeds the
	// watchdog and qayd adjudication.
	Illegal bool `json:"illegal,omitempty"`
}

// Trick is a completed trick in round history.
type Trick struct {
	Cards  []TableCard `json:"cards"`
	Winner models.Seat `json:"winner"`
	Points int         `json:"points"`
}

// LedSuit returns the suit of the first card in the trick. Only valid when
// the trick is non-empty.
func (t Trick) LedSuit() models.Suit {
	return t.Cards[0].Card.Suit
}

// TrickManager checks play legality and resolves trick winners for one
// round's contract.
type TrickManager struct {
	contract models.Contract
	rules    models.RoomRules
}

// NewTrickManager builds a manager for the given contract and room rules.
func NewTrickManager(contract models.Contract, rules models.RoomRules) *TrickManager {
	return &TrickManager{contract: contract, rules: rules}
}

// IsValidMove reports whether seat playing card from hand onto table follows
// the suit rules. The reason code is empty for legal plays.
func (tm *TrickManager) IsValidMove(seat models.Seat, card models.Card, hand []models.Card, table []TableCard) (bool, string) {
	if len(table) == 0 {
		// Leading any held card is legal.
		return true, ""
	}

	led := table[0].Card.Suit
	holdsLed := false
	for _, c := range hand {
		if c.Suit == led {
			holdsLed = true
			break
		}
	}
	if holdsLed {
		if card.Suit != led {
			return false, CodeIllegalCard
		}
		return true, ""
	}

	// Void in the led suit. Under HOKUM with trump forcing, a void player
	// holding trump must play it unless a teammate currently wins the trick.
	if !tm.contract.IsSunScoring() && tm.rules.TrumpForcing && card.Suit != tm.contract.Trump {
		holdsTrump := false
		for _, c := range hand {
			if c.Suit == tm.contract.Trump {
				holdsTrump = true
				break
			}
		}
		if holdsTrump {
			winner, _ := tm.CurrentWinner(table)
			if models.TeamOf(winner) != models.TeamOf(seat) {
				return false, CodeIllegalCard
			}
		}
	}
	return true, ""
}

// CurrentWinner returns the seat currently winning the (possibly partial)
// trick and the index of the winning entry. Only valid for non-empty tables.
func (tm *TrickManager) CurrentWinner(table []TableCard) (models.Seat, int) {
	led := table[0].Card.Suit
	isHokum := !tm.contract.IsSunScoring()

	best := 0
	for i := 1; i < len(table); i++ {
		bc := table[best].Card
		cc := table[i].Card
		if isHokum {
			bTrump := bc.Suit == tm.contract.Trump
			cTrump := cc.Suit == tm.contract.Trump
			switch {
			case cTrump && !bTrump:
				best = i
				continue
			case !cTrump && bTrump:
				continue
			case cTrump && bTrump:
				if CardStrength(cc, tm.contract) > CardStrength(bc, tm.contract) {
					best = i
				}
				continue
			}
		}
		// No trump involvement: only led-suit cards can win.
		if cc.Suit == led && bc.Suit == led &&
			CardStrength(cc, tm.contract) > CardStrength(bc, tm.contract) {
			best = i
		}
	}
	return table[best].Seat, best
}

// Resolve commits a full 4-card table into a Trick: determines the winner
// and tallies the raw card points.
func (tm *TrickManager) Resolve(table []TableCard) Trick {
	winner, _ := tm.CurrentWinner(table)
	pts := 0
	for _, tc := range table {
		pts += CardPoints(tc.Card, tm.contract)
	}
	cards := make([]TableCard, len(table))
	copy(cards, table)
	return Trick{Cards: cards, Winner: winner, Points: pts}
}
