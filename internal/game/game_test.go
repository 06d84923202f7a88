// internal/game/game_test.go
package game

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

// newSeededMatch builds a started match with one human on seat 0 and bots
// filling the rest, using a fixed shuffle seed.
func newSeededMatch(t *testing.T, seed int64) *Game {
	t.Helper()
	g := NewGame(uuid.New(), models.DefaultRoomRules())
	g.SetRand(rand.New(rand.NewSource(seed)))
	require.True(t, g.AddPlayer(uuid.New(), 0, false).Success)
	require.True(t, g.StartMatch().Success)
	return g
}

// driveToContract has the first speaker place the given bid, everyone else
// pass, and expires the gablak window.
func driveToContract(t *testing.T, g *Game, action string, suit models.Suit) models.Seat {
	t.Helper()
	bidder := g.Bidding.Turn
	require.True(t, g.ProcessBid(bidder, action, suit).Success)
	for i := 0; i < 3; i++ {
		require.True(t, g.ProcessBid(g.Bidding.Turn, BidPass, "").Success)
	}
	require.True(t, g.Bidding.GablakOpen)
	res := g.ExpireGablak()
	require.True(t, res.Success)
	require.Equal(t, BidActionFinalized, res.Action)
	return bidder
}

// declineAllDoubles passes both opposing seats through the doubling window.
func declineAllDoubles(t *testing.T, g *Game) {
	t.Helper()
	require.Equal(t, PhaseDoubling, g.Phase)
	opp := g.Contract.BiddingTeam().Opponent()
	for seat := models.Seat(0); seat < 4; seat++ {
		if models.TeamOf(seat) == opp {
			require.True(t, g.DeclineDouble(seat).Success)
		}
	}
	require.Equal(t, PhasePlaying, g.Phase)
}

// playOutRound plays every remaining trick with the lowest legal card.
func playOutRound(t *testing.T, g *Game) {
	t.Helper()
	for g.Phase == PhasePlaying {
		card, ok := g.FirstLegalCard(g.Turn)
		require.True(t, ok)
		require.True(t, g.PlayCard(g.Turn, card).Success)
	}
}

func TestStartMatchFillsBots(t *testing.T) {
	g := newSeededMatch(t, 1)

	assert.Equal(t, PhaseBidding, g.Phase)
	assert.Equal(t, 1, g.RoundNumber)
	assert.False(t, g.Players[0].IsBot)
	for seat := models.Seat(1); seat < 4; seat++ {
		require.NotNil(t, g.Players[seat])
		assert.True(t, g.Players[seat].IsBot)
	}
	for seat := models.Seat(0); seat < 4; seat++ {
		assert.Len(t, g.Players[seat].Hand, 5)
	}
	assert.NotEmpty(t, g.FloorCard.Key())
	// 32 cards, 20 dealt, one on the floor.
	assert.Len(t, g.PendingDeck, 11)
	assert.Equal(t, g.Dealer.Next(), g.Bidding.Turn)
}

func TestStartMatchRequiresFullTableWithoutBots(t *testing.T) {
	rules := models.DefaultRoomRules()
	rules.FillWithBots = false
	g := NewGame(uuid.New(), rules)
	require.True(t, g.AddPlayer(uuid.New(), 0, false).Success)

	res := g.StartMatch()
	require.False(t, res.Success)
	assert.Equal(t, CodeInvalidAction, res.Code)
	assert.Equal(t, PhaseWaiting, g.Phase)
}

func TestAddPlayerGuards(t *testing.T) {
	g := NewGame(uuid.New(), models.DefaultRoomRules())
	require.True(t, g.AddPlayer(uuid.New(), 2, false).Success)

	assert.Equal(t, CodeInvalidAction, g.AddPlayer(uuid.New(), 2, false).Code)
	assert.Equal(t, CodeInvalidAction, g.AddPlayer(uuid.New(), 4, false).Code)

	g.Phase = PhaseBidding
	assert.Equal(t, CodeWrongPhase, g.AddPlayer(uuid.New(), 1, false).Code)
}

func TestFullRoundSunFlow(t *testing.T) {
	g := newSeededMatch(t, 7)
	dealer := g.Dealer
	floor := g.FloorCard

	bidder := driveToContract(t, g, BidSun, "")
	assert.Equal(t, models.ContractSun, g.Contract.Type)
	assert.Equal(t, bidder, g.Contract.Bidder)

	declineAllDoubles(t, g)

	// The bidder picked up the floor card; every hand completes to 8.
	assert.True(t, g.Players[bidder].HasCard(floor))
	for seat := models.Seat(0); seat < 4; seat++ {
		assert.Len(t, g.Players[seat].Hand, 8)
	}
	assert.Empty(t, g.PendingDeck)
	assert.Equal(t, dealer.Next(), g.Turn)

	playOutRound(t, g)

	require.Equal(t, PhaseFinished, g.Phase)
	require.Len(t, g.RoundHistory, 8)
	for seat := models.Seat(0); seat < 4; seat++ {
		assert.Empty(t, g.Players[seat].Hand)
	}
	require.NotNil(t, g.LastRound)
	assert.Equal(t, 1, g.LastRound.RoundNumber)
	assert.Len(t, g.LastRound.Tricks, 8)

	// Without melds the pot is 26 game points, or the kaboot flat 44.
	total := g.MatchScores[models.TeamUs] + g.MatchScores[models.TeamThem]
	assert.True(t, total == 26 || total == 44, "unexpected pot %d", total)

	require.True(t, g.NextRound().Success)
	assert.Equal(t, PhaseBidding, g.Phase)
	assert.Equal(t, dealer.Next(), g.Dealer)
	assert.Equal(t, 2, g.RoundNumber)
	assert.Len(t, g.LastRound.InitialHands[0], 8) // record survives the redeal
	for seat := models.Seat(0); seat < 4; seat++ {
		assert.Len(t, g.Players[seat].Hand, 5)
	}
}

func TestAshkalFloorGoesToPartner(t *testing.T) {
	// Pick a seed whose floor card is not an ace, since ashkal is barred there.
	var g *Game
	for seed := int64(1); ; seed++ {
		g = newSeededMatch(t, seed)
		if g.FloorCard.Rank != models.Ace {
			break
		}
	}

	bidder := driveToContract(t, g, BidAshkal, "")
	declineAllDoubles(t, g)

	partner := bidder.Partner()
	assert.True(t, g.Players[partner].HasCard(g.FloorCard))
	assert.False(t, g.Players[bidder].HasCard(g.FloorCard))
	assert.Len(t, g.Players[partner].Hand, 8)
	assert.Len(t, g.Players[bidder].Hand, 8)
}

func TestVariantSelectionFlow(t *testing.T) {
	g := newSeededMatch(t, 3)

	// All-pass round 1 drops into round 2, where hokum may be bid suitless.
	for i := 0; i < 4; i++ {
		require.True(t, g.ProcessBid(g.Bidding.Turn, BidPass, "").Success)
	}
	require.Equal(t, 2, g.Bidding.Round)

	bidder := driveToContract(t, g, BidHokum, "")
	require.Equal(t, PhaseVariant, g.Phase)
	assert.Equal(t, bidder, g.CurrentSeat())

	var trump models.Suit
	for _, s := range []models.Suit{models.Spades, models.Hearts, models.Diamonds, models.Clubs} {
		if s != g.FloorCard.Suit {
			trump = s
			break
		}
	}
	res := g.SelectVariant(bidder, trump)
	require.True(t, res.Success)
	assert.Equal(t, trump, g.Contract.Trump)
	assert.Equal(t, PhaseDoubling, g.Phase)
}

func TestAllPassBothRoundsRedeals(t *testing.T) {
	g := newSeededMatch(t, 5)
	dealer := g.Dealer

	for i := 0; i < 7; i++ {
		require.True(t, g.ProcessBid(g.Bidding.Turn, BidPass, "").Success)
	}
	res := g.ProcessBid(g.Bidding.Turn, BidPass, "")
	require.True(t, res.Success)
	require.Equal(t, BidActionRedeal, res.Action)

	assert.Equal(t, dealer, g.Dealer)
	assert.Equal(t, 2, g.RoundNumber)
	assert.Equal(t, PhaseBidding, g.Phase)
	assert.Equal(t, 1, g.Bidding.Round)
	for seat := models.Seat(0); seat < 4; seat++ {
		assert.Len(t, g.Players[seat].Hand, 5)
	}
}

// midPlayGame hand-builds a game one card into a trick, so legality handling
// can be pinned without depending on a shuffle.
func midPlayGame(t *testing.T, strict bool) *Game {
	t.Helper()
	rules := models.DefaultRoomRules()
	rules.StrictLegality = strict
	g := NewGame(uuid.New(), rules)
	for seat := models.Seat(0); seat < 4; seat++ {
		require.True(t, g.AddPlayer(uuid.New(), seat, seat != 0).Success)
	}
	g.Phase = PhasePlaying
	g.Contract = sunContract(0)
	g.Projects = NewProjectManager()
	g.Turn = 0
	g.Players[0].Hand = handOf(t, "AS", "KH")
	g.Players[1].Hand = handOf(t, "7S", "QD") // holds the led suit
	g.Players[2].Hand = handOf(t, "8S", "9C")
	g.Players[3].Hand = handOf(t, "TS", "JH")
	return g
}

func TestPlayCardStrictLegalityRejects(t *testing.T) {
	g := midPlayGame(t, true)
	require.True(t, g.PlayCard(0, mustCard(t, "AS")).Success)

	res := g.PlayCard(1, mustCard(t, "QD"))
	require.False(t, res.Success)
	assert.Equal(t, CodeIllegalCard, res.Code)
	assert.Len(t, g.Players[1].Hand, 2) // rejected play keeps the hand intact
	assert.Equal(t, models.Seat(1), g.Turn)

	require.True(t, g.PlayCard(1, mustCard(t, "7S")).Success)
	assert.Equal(t, models.Seat(2), g.Turn)
}

func TestPlayCardPermissiveFlagsIllegal(t *testing.T) {
	g := midPlayGame(t, false)
	require.True(t, g.PlayCard(0, mustCard(t, "AS")).Success)

	res := g.PlayCard(1, mustCard(t, "QD"))
	require.True(t, res.Success)
	assert.True(t, res.Illegal)
	assert.True(t, g.TableCards[1].Illegal)
	assert.Len(t, g.Players[1].Hand, 1)
}

func TestPlayCardTurnAndHandGuards(t *testing.T) {
	g := midPlayGame(t, false)

	assert.Equal(t, CodeWrongTurn, g.PlayCard(1, mustCard(t, "7S")).Code)
	assert.Equal(t, CodeInvalidCard, g.PlayCard(0, mustCard(t, "7D")).Code)

	g.IsLocked = true
	assert.Equal(t, CodeGameLocked, g.PlayCard(0, mustCard(t, "AS")).Code)
}
