// internal/game/cards.go
package game

import "github.com/tazjel/baloot-ai-sub002/internal/models"

// Fixed totals for a full round, in abnat (raw points) and in game points.
// Raw card points per suit sum to 30 under SUN; the trump suit under HOKUM
// carries 62. With the 10-abnat last-trick bonus a full round is worth 130
// raw under SUN (26 game points) and 162 under HOKUM (16 game points).
const (
	LastTrickBonus = 10

	RawTotalSun   = 130
	RawTotalHokum = 162

	GameTotalSun   = 26
	GameTotalHokum = 16

	SunDenominator   = 5
	HokumDenominator = 10
)

// Kaboot flat bonuses, ignoring the doubling multiplier.
const (
	KabootSun   = 44
	KabootHokum = 25
)

// sunOrder ranks cards under SUN and for non-trump suits under HOKUM.
// Higher is stronger.
var sunOrder = map[models.Rank]int{
	models.Seven: 0,
	models.Eight: 1,
	models.Nine:  2,
	models.Jack:  3,
	models.Queen: 4,
	models.King:  5,
	models.Ten:   6,
	models.Ace:   7,
}

// hokumTrumpOrder ranks cards of the trump suit under HOKUM.
var hokumTrumpOrder = map[models.Rank]int{
	models.Seven: 0,
	models.Eight: 1,
	models.Queen: 2,
	models.King:  3,
	models.Ten:   4,
	models.Ace:   5,
	models.Nine:  6,
	models.Jack:  7,
}

// sunPoints is the abnat value per rank under SUN scoring.
var sunPoints = map[models.Rank]int{
	models.Ace:   11,
	models.Ten:   10,
	models.King:  4,
	models.Queen: 3,
	models.Jack:  2,
}

// hokumTrumpPoints is the abnat value per rank for the trump suit.
var hokumTrumpPoints = map[models.Rank]int{
	models.Jack:  20,
	models.Nine:  14,
	models.Ace:   11,
	models.Ten:   10,
	models.King:  4,
	models.Queen: 3,
}

// CardPoints returns the abnat value of a card under the given contract.
func CardPoints(c models.Card, contract models.Contract) int {
	if contract.IsSunScoring() {
		return sunPoints[c.Rank]
	}
	if c.Suit == contract.Trump {
		return hokumTrumpPoints[c.Rank]
	}
	return sunPoints[c.Rank]
}

// CardStrength returns the in-suit strength of a card under the given
// contract. Strengths are only comparable between cards of the same suit;
// trump-vs-plain precedence is the trick resolver's concern.
func CardStrength(c models.Card, contract models.Contract) int {
	if !contract.IsSunScoring() && c.Suit == contract.Trump {
		return hokumTrumpOrder[c.Rank]
	}
	return sunOrder[c.Rank]
}
