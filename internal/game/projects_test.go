// internal/game/projects_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

func handOf(t *testing.T, keys ...string) []models.Card {
	t.Helper()
	out := make([]models.Card, 0, len(keys))
	for _, k := range keys {
		out = append(out, mustCard(t, k))
	}
	return out
}

func declByType(decls []Declaration, typ ProjectType) *Declaration {
	for i := range decls {
		if decls[i].Type == typ {
			return &decls[i]
		}
	}
	return nil
}

// TestDetectSequences covers the three sequence tiers.
func TestDetectSequences(t *testing.T) {
	hand := handOf(t, "7S", "8S", "9S", "TH", "JH", "QH", "KH", "AD")
	decls := DetectProjects(0, hand, sunContract(0))

	sira := declByType(decls, ProjectSira)
	require.NotNil(t, sira)
	assert.Equal(t, models.Spades, sira.Suit)
	assert.Equal(t, models.Nine, sira.TopRank)
	assert.Equal(t, 20, sira.Abnat)

	fifty := declByType(decls, ProjectFifty)
	require.NotNil(t, fifty)
	assert.Equal(t, models.Hearts, fifty.Suit)
	assert.Equal(t, models.King, fifty.TopRank)
	assert.Equal(t, 50, fifty.Abnat)
}

// TestDetectLongSequence: five or more in a row is a HUNDRED.
func TestDetectLongSequence(t *testing.T) {
	hand := handOf(t, "9C", "TC", "JC", "QC", "KC", "7H", "8D", "AS")
	decls := DetectProjects(2, hand, sunContract(0))

	hundred := declByType(decls, ProjectHundred)
	require.NotNil(t, hundred)
	assert.Equal(t, models.King, hundred.TopRank)
	assert.Equal(t, 100, hundred.Abnat)
	assert.Len(t, hundred.Cards, 5)
}

// TestDetectFourOfAKind: quads of face cards score 100; sevens and eights
// never form a project.
func TestDetectFourOfAKind(t *testing.T) {
	hand := handOf(t, "JS", "JH", "JD", "JC", "7S", "7H", "7D", "7C")
	decls := DetectProjects(1, hand, hokumContract(1, models.Spades))

	require.Len(t, decls, 1)
	assert.Equal(t, ProjectHundred, decls[0].Type)
	assert.Equal(t, models.Jack, decls[0].TopRank)
}

// TestFourAcesUnderSun: the ace quad upgrades to FOUR_HUNDRED only under
// SUN scoring.
func TestFourAcesUnderSun(t *testing.T) {
	hand := handOf(t, "AS", "AH", "AD", "AC", "7S", "8H", "9D", "TC")

	sunDecls := DetectProjects(0, hand, sunContract(0))
	require.NotNil(t, declByType(sunDecls, ProjectFourHundred))

	hokumDecls := DetectProjects(0, hand, hokumContract(0, models.Spades))
	assert.Nil(t, declByType(hokumDecls, ProjectFourHundred))
	assert.NotNil(t, declByType(hokumDecls, ProjectHundred))
}

// TestResolveWinnerTakesAll: the stronger team's melds all validate and the
// other team's are discarded.
func TestResolveWinnerTakesAll(t *testing.T) {
	pm := NewProjectManager()

	// Seat 0 (us): a sira. Seat 1 (them): a fifty plus a sira.
	usSira := DetectProjects(0, handOf(t, "7S", "8S", "9S"), sunContract(0))
	require.Len(t, usSira, 1)
	require.Equal(t, ProjectSira, usSira[0].Type)

	themDecls := DetectProjects(1, handOf(t, "TH", "JH", "QH", "KH", "7D", "8D", "9D"), sunContract(0))
	require.Len(t, themDecls, 2)

	require.True(t, pm.Declare(usSira[0]).Success)
	for _, d := range themDecls {
		require.True(t, pm.Declare(d).Success)
	}

	validated := pm.Resolve(3)
	assert.Equal(t, 0, validated[models.TeamUs])
	assert.Equal(t, 70, validated[models.TeamThem]) // fifty + sira, both validated

	// Idempotent: a second resolve returns the cached result.
	assert.Equal(t, validated, pm.Resolve(3))
	assert.False(t, pm.Declare(usSira[0]).Success)
}

// TestResolveTieBreaks: equal tiers compare top cards, then seat distance
// from the dealer.
func TestResolveTieBreaks(t *testing.T) {
	pm := NewProjectManager()
	lowSira := DetectProjects(0, handOf(t, "7S", "8S", "9S"), sunContract(0))[0]
	highSira := DetectProjects(1, handOf(t, "JH", "QH", "KH"), sunContract(0))[0]
	require.True(t, pm.Declare(lowSira).Success)
	require.True(t, pm.Declare(highSira).Success)

	validated := pm.Resolve(0)
	assert.Equal(t, 20, validated[models.TeamThem])
	assert.Equal(t, 0, validated[models.TeamUs])

	// Identical melds: the seat closer to the dealer's left wins.
	pm = NewProjectManager()
	a := DetectProjects(2, handOf(t, "7S", "8S", "9S"), sunContract(0))[0]
	b := DetectProjects(3, handOf(t, "7H", "8H", "9H"), sunContract(0))[0]
	require.True(t, pm.Declare(a).Success)
	require.True(t, pm.Declare(b).Success)

	validated = pm.Resolve(2) // seat 2 sits at distance 0 from the dealer, seat 3 at 1
	assert.Equal(t, 20, validated[models.TeamUs])
	assert.Equal(t, 0, validated[models.TeamThem])
}

// TestDeclareBaloot: requires a trump contract and both trump honors,
// counting cards already played this round.
func TestDeclareBaloot(t *testing.T) {
	pm := NewProjectManager()
	contract := hokumContract(0, models.Hearts)

	res := pm.DeclareBaloot(0, handOf(t, "KH", "QH"), nil, sunContract(0))
	assert.False(t, res.Success)
	assert.Equal(t, CodeInvalidAction, res.Code)

	res = pm.DeclareBaloot(0, handOf(t, "KH", "7S"), nil, contract)
	assert.False(t, res.Success)
	assert.Equal(t, CodeInvalidCard, res.Code)

	res = pm.DeclareBaloot(0, handOf(t, "KH"), handOf(t, "QH"), contract)
	assert.True(t, res.Success)
	assert.Equal(t, 1, pm.Baloots[models.TeamUs])

	// A resent declaration is accepted but never banks a second bonus.
	res = pm.DeclareBaloot(0, handOf(t, "KH"), handOf(t, "QH"), contract)
	assert.True(t, res.Success)
	assert.Equal(t, 1, pm.Baloots[models.TeamUs])

	// The partner's own trump honors still count.
	res = pm.DeclareBaloot(2, handOf(t, "KH", "QH"), nil, contract)
	assert.True(t, res.Success)
	assert.Equal(t, 2, pm.Baloots[models.TeamUs])
}
