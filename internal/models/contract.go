// internal/models/contract.go
package models

// ContractType is the mode the round will be played in. ASHKAL is a bid-time
// variant: the caller plays SUN on behalf of their partner, and the round is
// scored as SUN.
type ContractType string

const (
	ContractSun    ContractType = "SUN"
	ContractHokum  ContractType = "HOKUM"
	ContractAshkal ContractType = "ASHKAL"
)

// Doubling levels. Levels 2-4 multiply the round result; DoubleGahwa is the
// "all-in" level where, combined with kaboot, the round awards an instant
// match-winning score instead of a numeric multiplier.
const (
	DoubleNone  = 1
	DoubleTwo   = 2
	DoubleThree = 3
	DoubleFour  = 4
	DoubleGahwa = 100
)

// Contract is the finalized outcome of bidding for one round.
type Contract struct {
	Type   ContractType `json:"type"`
	Bidder Seat         `json:"bidder"`

	// Trump is only meaningful for HOKUM contracts.
	Trump Suit `json:"trump,omitempty"`

	// DoublingLevel is 1 when undoubled, 2-4 for doubles, or DoubleGahwa.
	DoublingLevel int `json:"doubling_level"`
}

// IsSunScoring reports whether the round scores with the SUN tables. ASHKAL
// plays and scores exactly like SUN.
func (c Contract) IsSunScoring() bool {
	return c.Type == ContractSun || c.Type == ContractAshkal
}

// Multiplier returns the numeric score multiplier for the doubling level.
// Gahwa has no numeric multiplier; callers must special-case it.
func (c Contract) Multiplier() int {
	if c.DoublingLevel >= DoubleGahwa {
		return DoubleFour
	}
	if c.DoublingLevel < DoubleNone {
		return DoubleNone
	}
	return c.DoublingLevel
}

// BiddingTeam returns the team that owns the contract. For ASHKAL the
// partner plays the hand, but the bidder's team owns the contract either way.
func (c Contract) BiddingTeam() Team {
	return TeamOf(c.Bidder)
}
