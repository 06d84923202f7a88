// internal/models/card_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCardRoundTrip(t *testing.T) {
	for _, c := range NewDeck() {
		parsed, err := ParseCard(c.Key())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestParseCardRejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "A", "ASX", "2S", "AX", "as"} {
		_, err := ParseCard(key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestNewDeckComposition(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, 32)

	seen := map[string]bool{}
	perSuit := map[Suit]int{}
	for _, c := range deck {
		assert.False(t, seen[c.Key()], "duplicate %s", c.Key())
		seen[c.Key()] = true
		perSuit[c.Suit]++
	}
	for _, s := range Suits {
		assert.Equal(t, 8, perSuit[s])
	}
}

func TestIsPointCard(t *testing.T) {
	points := 0
	for _, c := range NewDeck() {
		if c.IsPointCard() {
			points++
		}
	}
	// A, K, Q, J, T of each suit.
	assert.Equal(t, 20, points)

	sevenOfSpades := Card{Suit: Spades, Rank: Seven}
	assert.False(t, sevenOfSpades.IsPointCard())
}

func TestSeatHelpers(t *testing.T) {
	assert.Equal(t, Seat(2), Seat(0).Partner())
	assert.Equal(t, Seat(1), Seat(3).Partner())
	assert.Equal(t, Seat(0), Seat(3).Next())

	assert.Equal(t, TeamUs, TeamOf(0))
	assert.Equal(t, TeamUs, TeamOf(2))
	assert.Equal(t, TeamThem, TeamOf(1))
	assert.Equal(t, TeamUs, TeamThem.Opponent())
}
