// internal/game/cards_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

// mustCard parses a canonical key or fails the test.
func mustCard(t *testing.T, key string) models.Card {
	t.Helper()
	c, err := models.ParseCard(key)
	require.NoError(t, err)
	return c
}

func sunContract(bidder models.Seat) models.Contract {
	return models.Contract{Type: models.ContractSun, Bidder: bidder, DoublingLevel: models.DoubleNone}
}

func hokumContract(bidder models.Seat, trump models.Suit) models.Contract {
	return models.Contract{Type: models.ContractHokum, Bidder: bidder, Trump: trump, DoublingLevel: models.DoubleNone}
}

// TestSunDeckTotal verifies the deck's card points sum to the fixed SUN
// total minus the last-trick bonus.
func TestSunDeckTotal(t *testing.T) {
	total := 0
	for _, c := range models.NewDeck() {
		total += CardPoints(c, sunContract(0))
	}
	assert.Equal(t, RawTotalSun-LastTrickBonus, total)
}

// TestHokumDeckTotal does the same for HOKUM: one trump suit at 62 plus
// three plain suits at 30.
func TestHokumDeckTotal(t *testing.T) {
	total := 0
	for _, c := range models.NewDeck() {
		total += CardPoints(c, hokumContract(0, models.Hearts))
	}
	assert.Equal(t, RawTotalHokum-LastTrickBonus, total)
}

// TestSunStrengthOrder checks A > 10 > K > Q > J > 9 > 8 > 7.
func TestSunStrengthOrder(t *testing.T) {
	keys := []string{"7S", "8S", "9S", "JS", "QS", "KS", "TS", "AS"}
	for i := 1; i < len(keys); i++ {
		lo := CardStrength(mustCard(t, keys[i-1]), sunContract(0))
		hi := CardStrength(mustCard(t, keys[i]), sunContract(0))
		assert.Greater(t, hi, lo, "%s should beat %s under SUN", keys[i], keys[i-1])
	}
}

// TestHokumTrumpStrengthOrder checks J > 9 > A > 10 > K > Q > 8 > 7 in the
// trump suit, while plain suits keep the SUN order.
func TestHokumTrumpStrengthOrder(t *testing.T) {
	contract := hokumContract(0, models.Spades)

	trumpKeys := []string{"7S", "8S", "QS", "KS", "TS", "AS", "9S", "JS"}
	for i := 1; i < len(trumpKeys); i++ {
		lo := CardStrength(mustCard(t, trumpKeys[i-1]), contract)
		hi := CardStrength(mustCard(t, trumpKeys[i]), contract)
		assert.Greater(t, hi, lo, "%s should beat %s in trumps", trumpKeys[i], trumpKeys[i-1])
	}

	// Off-trump suits are unaffected: the nine stays weak.
	assert.Greater(t,
		CardStrength(mustCard(t, "TH"), contract),
		CardStrength(mustCard(t, "9H"), contract))
}

// TestHokumTrumpJackValue pins the headline abnat values.
func TestHokumTrumpJackValue(t *testing.T) {
	contract := hokumContract(0, models.Clubs)
	assert.Equal(t, 20, CardPoints(mustCard(t, "JC"), contract))
	assert.Equal(t, 14, CardPoints(mustCard(t, "9C"), contract))
	assert.Equal(t, 2, CardPoints(mustCard(t, "JH"), contract))
	assert.Equal(t, 0, CardPoints(mustCard(t, "9H"), contract))
}
