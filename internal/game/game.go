// internal/game/game.go
package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

// Phase is the top-level state of a room's game.
type Phase string

const (
	PhaseWaiting   Phase = "WAITING"
	PhaseBidding   Phase = "BIDDING"
	PhaseDoubling  Phase = "DOUBLING"
	PhaseVariant   Phase = "VARIANT_SELECTION"
	PhasePlaying   Phase = "PLAYING"
	PhaseChallenge Phase = "CHALLENGE"
	PhaseFinished  Phase = "FINISHED"
	PhaseGameOver  Phase = "GAMEOVER"
)

// PlayResult is the structured outcome of a card play.
type PlayResult struct {
	Result
	Illegal       bool        `json:"illegal,omitempty"`
	TrickComplete bool        `json:"trick_complete,omitempty"`
	TrickWinner   models.Seat `json:"trick_winner,omitempty"`
	RoundComplete bool        `json:"round_complete,omitempty"`
}

// Game is the per-room aggregate: the single unit of consistency. It is
// read-modify-written as a whole through the snapshot store, so every field
// that matters is exported and JSON-serializable; nothing depends on
// in-memory-only state.
type Game struct {
	ID    uuid.UUID        `json:"id"`
	Rules models.RoomRules `json:"rules"`

	Phase  Phase       `json:"phase"`
	Dealer models.Seat `json:"dealer"`

	// Turn is the seat to act during PLAYING; bidding turn order lives in
	// the bidding engine.
	Turn models.Seat `json:"turn"`

	Players [4]*models.Player `json:"players"`

	Bidding  *BiddingEngine  `json:"bidding,omitempty"`
	Contract models.Contract `json:"contract"`

	TableCards   []TableCard     `json:"table_cards"`
	RoundHistory []Trick         `json:"round_history"`
	Projects     *ProjectManager `json:"projects,omitempty"`
	Qayd         *QaydEngine     `json:"qayd"`

	// InitialHands snapshots the 8-card deal per seat, for meld detection
	// and the round archive.
	InitialHands map[models.Seat][]models.Card `json:"initial_hands,omitempty"`

	// PendingDeck holds the undealt remainder between the 5-card bidding
	// deal and the post-contract completion deal.
	PendingDeck []models.Card `json:"pending_deck,omitempty"`
	FloorCard   models.Card   `json:"floor_card"`

	// DoubleDeclines tracks opposing seats that passed on doubling; play
	// begins once both have declined or the doubling timer expires.
	DoubleDeclines map[models.Seat]bool `json:"double_declines,omitempty"`

	RoundNumber int                 `json:"round_number"`
	MatchScores map[models.Team]int `json:"match_scores"`
	LastRound   *models.RoundRecord `json:"last_round,omitempty"`

	// IsLocked suspends ordinary turn actions while a challenge is active.
	IsLocked bool `json:"is_locked"`

	Timer *TimerManager `json:"timer"`

	// SchemaVersion guards snapshot evolution; see snapshot.go.
	SchemaVersion int `json:"schema_version"`

	Mu sync.Mutex `json:"-"`

	// rng is injectable for deterministic deals in tests.
	rng *rand.Rand
}

// NewGame builds an empty room game in WAITING.
func NewGame(id uuid.UUID, rules models.RoomRules) *Game {
	return &Game{
		ID:            id,
		Rules:         rules,
		Phase:         PhaseWaiting,
		Qayd:          NewQaydEngine(),
		MatchScores:   map[models.Team]int{},
		Timer:         &TimerManager{},
		SchemaVersion: SnapshotSchemaVersion,
	}
}

// SetRand overrides the shuffle source, for deterministic tests.
func (g *Game) SetRand(r *rand.Rand) {
	g.rng = r
}

func (g *Game) shuffler() *rand.Rand {
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g.rng
}

// AddPlayer seats a player. Only valid before the match starts.
func (g *Game) AddPlayer(userID uuid.UUID, seat models.Seat, isBot bool) Result {
	if g.Phase != PhaseWaiting {
		return Fail(CodeWrongPhase, "players can only join before the match starts")
	}
	if seat < 0 || seat > 3 {
		return Fail(CodeInvalidAction, fmt.Sprintf("invalid seat %d", seat))
	}
	if g.Players[seat] != nil {
		return Fail(CodeInvalidAction, fmt.Sprintf("seat %d is taken", seat))
	}
	g.Players[seat] = &models.Player{
		UserID:    userID,
		Seat:      seat,
		IsBot:     isBot,
		Connected: true,
	}
	return Ok()
}

// StartMatch fills empty seats with bots when the rules allow and deals the
// first round.
func (g *Game) StartMatch() Result {
	if g.Phase != PhaseWaiting {
		return Fail(CodeWrongPhase, "match already started")
	}
	for seat := models.Seat(0); seat < 4; seat++ {
		if g.Players[seat] == nil {
			if !g.Rules.FillWithBots {
				return Fail(CodeInvalidAction, fmt.Sprintf("seat %d is empty", seat))
			}
			g.Players[seat] = &models.Player{
				UserID:    uuid.New(),
				Seat:      seat,
				IsBot:     true,
				Connected: true,
			}
		}
	}
	g.RoundNumber = 0
	g.startRound()
	return Ok()
}

// startRound resets round-scoped state, shuffles, deals 5 cards per seat
// plus the floor card, and opens bidding.
func (g *Game) startRound() {
	g.RoundNumber++
	g.TableCards = nil
	g.RoundHistory = nil
	g.Projects = NewProjectManager()
	// Judged-crime signatures are trick-relative, so they expire with the deal.
	g.Qayd = NewQaydEngine()
	g.InitialHands = map[models.Seat][]models.Card{}
	g.DoubleDeclines = map[models.Seat]bool{}
	g.IsLocked = false

	deck := models.NewDeck()
	r := g.shuffler()
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	for seat := models.Seat(0); seat < 4; seat++ {
		g.Players[seat].Hand = append([]models.Card(nil), deck[:5]...)
		g.Players[seat].Captured = nil
		deck = deck[5:]
	}
	g.FloorCard = deck[0]
	g.PendingDeck = deck[1:]

	g.Bidding = NewBiddingEngine(g.Dealer, g.FloorCard, g.Rules)
	g.Phase = PhaseBidding
	g.startTurnTimer()
}

// completeDeal hands out the rest of the deck once a contract exists: the
// contract owner takes the floor card plus two, everyone else takes three.
func (g *Game) completeDeal() {
	taker := g.Contract.Bidder
	if g.Contract.Type == models.ContractAshkal {
		taker = g.Contract.Bidder.Partner()
	}
	deck := g.PendingDeck
	for seat := models.Seat(0); seat < 4; seat++ {
		p := g.Players[seat]
		if seat == taker {
			p.Hand = append(p.Hand, g.FloorCard)
			p.Hand = append(p.Hand, deck[:2]...)
			deck = deck[2:]
		} else {
			p.Hand = append(p.Hand, deck[:3]...)
			deck = deck[3:]
		}
	}
	g.PendingDeck = nil
	for seat := models.Seat(0); seat < 4; seat++ {
		g.InitialHands[seat] = append([]models.Card(nil), g.Players[seat].Hand...)
	}
}

// CurrentSeat returns the seat expected to act in the current phase.
func (g *Game) CurrentSeat() models.Seat {
	switch g.Phase {
	case PhaseBidding:
		return g.Bidding.Turn
	case PhaseVariant:
		return g.Contract.Bidder
	case PhaseChallenge:
		return g.Qayd.Reporter
	default:
		return g.Turn
	}
}

// ProcessBid routes a bidding-phase action through the bidding engine and
// applies the game-level consequences (redeal, phase transitions).
func (g *Game) ProcessBid(seat models.Seat, action string, suit models.Suit) BidResult {
	if g.IsLocked {
		return bidFail(CodeGameLocked, "room is locked by an active challenge")
	}
	switch g.Phase {
	case PhaseBidding:
	case PhaseDoubling:
		if action != BidDouble && action != BidGahwa && action != BidKawesh {
			return bidFail(CodeWrongPhase, "only doubling actions are available now")
		}
	default:
		return bidFail(CodeWrongPhase, fmt.Sprintf("no bidding in phase %s", g.Phase))
	}

	res := g.Bidding.ProcessBid(seat, action, suit, g.Players[seat].Hand)
	if !res.Success {
		return res
	}

	switch res.Action {
	case BidActionRedeal:
		if res.RotateDealer {
			g.Dealer = g.Dealer.Next()
		}
		g.startRound()
	case BidActionFinalized:
		g.finalizeContract(*res.Contract)
	default:
		g.startTurnTimer()
	}
	return res
}

// ExpireGablak finalizes the tentative bid when the grace window runs out.
// Driven by the timer poller.
func (g *Game) ExpireGablak() BidResult {
	if g.Phase != PhaseBidding {
		return bidFail(CodeWrongPhase, "no gablak window outside bidding")
	}
	res := g.Bidding.ExpireGablak()
	if !res.Success {
		return res
	}
	g.finalizeContract(*res.Contract)
	return res
}

// finalizeContract moves from bidding into variant selection or doubling.
func (g *Game) finalizeContract(c models.Contract) {
	g.Contract = c
	if g.Bidding.NeedsVariant() {
		g.Phase = PhaseVariant
		g.startTurnTimer()
		return
	}
	g.enterDoubling()
}

func (g *Game) enterDoubling() {
	g.Phase = PhaseDoubling
	g.DoubleDeclines = map[models.Seat]bool{}
	g.startTurnTimer()
}

// SelectVariant fixes the trump suit for a suitless round-2 HOKUM contract.
func (g *Game) SelectVariant(seat models.Seat, suit models.Suit) BidResult {
	if g.Phase != PhaseVariant {
		return bidFail(CodeWrongPhase, "no variant selection pending")
	}
	res := g.Bidding.SelectVariant(seat, suit)
	if !res.Success {
		return res
	}
	g.Contract = *res.Contract
	g.enterDoubling()
	return res
}

// DeclineDouble records an opposing seat passing on its doubling chance.
// Play begins once both opponents have declined.
func (g *Game) DeclineDouble(seat models.Seat) Result {
	if g.Phase != PhaseDoubling {
		return Fail(CodeWrongPhase, "no doubling window is open")
	}
	if models.TeamOf(seat) == g.Contract.BiddingTeam() {
		return Fail(CodeIneligibleDouble, "only the opposing team holds a doubling option")
	}
	g.DoubleDeclines[seat] = true
	if len(g.DoubleDeclines) >= 2 {
		g.BeginPlay()
	}
	return Ok()
}

// BeginPlay closes the doubling window and starts trick play. Also invoked
// by the timer poller when the window expires.
func (g *Game) BeginPlay() {
	if g.Phase != PhaseDoubling {
		return
	}
	// The doubling level may have moved since finalization.
	if g.Bidding.Contract != nil {
		g.Contract = *g.Bidding.Contract
	}
	g.completeDeal()
	g.Phase = PhasePlaying
	g.Turn = g.Dealer.Next()
	g.startTurnTimer()
}

func (g *Game) trickManager() *TrickManager {
	return NewTrickManager(g.Contract, g.Rules)
}

// PlayCard plays one card for the seat. Illegal plays are rejected under
// strict legality, otherwise accepted and flagged for forensic detection.
func (g *Game) PlayCard(seat models.Seat, card models.Card) PlayResult {
	if g.IsLocked {
		return PlayResult{Result: Fail(CodeGameLocked, "room is locked by an active challenge")}
	}
	if g.Phase != PhasePlaying {
		return PlayResult{Result: Fail(CodeWrongPhase, fmt.Sprintf("no play in phase %s", g.Phase))}
	}
	if seat != g.Turn {
		return PlayResult{Result: Fail(CodeWrongTurn, fmt.Sprintf("seat %d cannot play on seat %d's turn", seat, g.Turn))}
	}
	p := g.Players[seat]
	if !p.HasCard(card) {
		return PlayResult{Result: Fail(CodeInvalidCard, fmt.Sprintf("seat %d does not hold %s", seat, card.Key()))}
	}

	tm := g.trickManager()
	legal, reason := tm.IsValidMove(seat, card, p.Hand, g.TableCards)
	if !legal && g.Rules.StrictLegality {
		return PlayResult{Result: Fail(reason, fmt.Sprintf("%s does not follow the led suit", card.Key()))}
	}

	p.RemoveCard(card)
	g.TableCards = append(g.TableCards, TableCard{Card: card, Seat: seat, Illegal: !legal})

	res := PlayResult{Result: Ok(), Illegal: !legal}
	if len(g.TableCards) < 4 {
		g.Turn = g.Turn.Next()
		g.startTurnTimer()
		return res
	}

	// Fourth card: commit the trick.
	trick := tm.Resolve(g.TableCards)
	g.RoundHistory = append(g.RoundHistory, trick)
	winner := g.Players[trick.Winner]
	for _, tc := range trick.Cards {
		winner.Captured = append(winner.Captured, tc.Card)
	}
	g.TableCards = nil
	g.Turn = trick.Winner
	res.TrickComplete = true
	res.TrickWinner = trick.Winner

	// Meld declarations close when the first trick does.
	if len(g.RoundHistory) == 1 {
		g.Projects.Resolve(g.Dealer)
	}

	if len(g.RoundHistory) == 8 {
		res.RoundComplete = true
		g.endRound()
		return res
	}
	g.startTurnTimer()
	return res
}

// DeclareProjects scans the seat's dealt hand and registers every meld it
// contains. Only available during the first trick.
func (g *Game) DeclareProjects(seat models.Seat) Result {
	if g.Phase != PhasePlaying || len(g.RoundHistory) > 0 {
		return Fail(CodeWrongPhase, "projects are declared during the first trick only")
	}
	for _, d := range DetectProjects(seat, g.InitialHands[seat], g.Contract) {
		if res := g.Projects.Declare(d); !res.Success {
			return res
		}
	}
	return Ok()
}

// DeclareBaloot registers the trump king+queen declaration for the seat.
func (g *Game) DeclareBaloot(seat models.Seat) Result {
	if g.Phase != PhasePlaying {
		return Fail(CodeWrongPhase, "baloot is declared during play")
	}
	var played []models.Card
	for _, tc := range g.TableCards {
		if tc.Seat == seat {
			played = append(played, tc.Card)
		}
	}
	for _, tr := range g.RoundHistory {
		for _, tc := range tr.Cards {
			if tc.Seat == seat {
				played = append(played, tc.Card)
			}
		}
	}
	return g.Projects.DeclareBaloot(seat, g.Players[seat].Hand, played, g.Contract)
}

// endRound scores the finished round, applies match scores and leaves the
// game in FINISHED or GAMEOVER.
func (g *Game) endRound() {
	se := NewScoringEngine(g.Rules)
	tally := RoundTally{
		Contract:     g.Contract,
		History:      g.RoundHistory,
		ProjectAbnat: g.Projects.Resolve(g.Dealer),
		BalootCount:  g.Projects.Baloots,
	}
	bd := se.ScoreRound(tally)
	g.MatchScores[models.TeamUs] += bd.FinalUs
	g.MatchScores[models.TeamThem] += bd.FinalThem

	g.LastRound = g.buildRoundRecord(bd)
	g.Timer.Stop()
	if g.matchOver() {
		g.Phase = PhaseGameOver
		return
	}
	g.Phase = PhaseFinished
}

func (g *Game) matchOver() bool {
	return g.MatchScores[models.TeamUs] >= g.Rules.MatchTarget ||
		g.MatchScores[models.TeamThem] >= g.Rules.MatchTarget
}

func (g *Game) buildRoundRecord(bd models.ScoreBreakdown) *models.RoundRecord {
	tricks := make([]models.TrickRecord, 0, len(g.RoundHistory))
	for _, tr := range g.RoundHistory {
		rec := models.TrickRecord{Winner: tr.Winner, Points: tr.Points}
		for _, tc := range tr.Cards {
			rec.Cards = append(rec.Cards, tc.Card)
			rec.Seats = append(rec.Seats, tc.Seat)
		}
		tricks = append(tricks, rec)
	}
	hands := map[models.Seat][]models.Card{}
	for seat, h := range g.InitialHands {
		hands[seat] = append([]models.Card(nil), h...)
	}
	return &models.RoundRecord{
		RoomID:       g.ID,
		RoundNumber:  g.RoundNumber,
		Contract:     g.Contract,
		Breakdown:    bd,
		Tricks:       tricks,
		Dealer:       g.Dealer,
		InitialHands: hands,
		Timestamp:    time.Now().UnixMilli(),
	}
}

// NextRound advances the dealer and deals again. Only valid from FINISHED.
func (g *Game) NextRound() Result {
	if g.Phase != PhaseFinished {
		return Fail(CodeWrongPhase, fmt.Sprintf("cannot start a round from %s", g.Phase))
	}
	g.Dealer = g.Dealer.Next()
	g.startRound()
	return Ok()
}

// --- Challenge (qayd) entry points ---

// TriggerQayd opens a forensic challenge: locks the room, saves the current
// phase and pauses the turn timer.
func (g *Game) TriggerQayd(seat models.Seat) Result {
	if g.IsLocked {
		return Fail(CodeGameLocked, "room is already locked")
	}
	if g.Phase != PhasePlaying && g.Phase != PhaseFinished {
		return Fail(CodeWrongPhase, fmt.Sprintf("no challenge from phase %s", g.Phase))
	}
	if res := g.Qayd.Trigger(seat, g.Phase); !res.Success {
		return res
	}
	g.IsLocked = true
	g.Phase = PhaseChallenge
	g.Timer.Pause()
	return Ok()
}

// QaydMenu advances the challenge main menu.
func (g *Game) QaydMenu(seat models.Seat, option string) Result {
	prev := g.Qayd.PrevPhase
	res := g.Qayd.SelectMenuOption(seat, option)
	if res.Success && !g.Qayd.Active() {
		// EXIT behaves like a cancel.
		g.unlockAfterQayd(prev)
	}
	return res
}

// QaydViolation selects the violation kind.
func (g *Game) QaydViolation(seat models.Seat, violation string) Result {
	return g.Qayd.SelectViolation(seat, violation)
}

// QaydCrimeCard selects the accused card.
func (g *Game) QaydCrimeCard(seat models.Seat, ref CardRef) Result {
	return g.Qayd.SelectCrimeCard(seat, ref, g.RoundHistory, g.TableCards)
}

// QaydProofCard selects the proof card and adjudicates.
func (g *Game) QaydProofCard(seat models.Seat, ref CardRef) Result {
	return g.Qayd.SelectProofCard(seat, ref, g.RoundHistory, g.TableCards,
		g.Contract, g.declaredAbnat())
}

func (g *Game) declaredAbnat() int {
	total := 0
	for _, decls := range g.Projects.Declarations {
		for _, d := range decls {
			total += d.Abnat
		}
	}
	return total
}

// ConfirmQayd applies the verdict penalty to match scores exactly like a
// round-ending script: the winning team banks the penalty, the match-end
// threshold is checked and the room unlocks. NextRound rotates the dealer
// and deals again when the match continues.
func (g *Game) ConfirmQayd(seat models.Seat) (*QaydVerdict, Result) {
	v, res := g.Qayd.Confirm(seat)
	if !res.Success {
		return nil, res
	}
	winner := v.LosingTeam.Opponent()
	g.MatchScores[winner] += v.Penalty

	g.IsLocked = false
	g.Timer.Stop()
	if g.matchOver() {
		g.Phase = PhaseGameOver
		return v, Ok()
	}
	g.Phase = PhaseFinished
	return v, Ok()
}

// CancelQayd abandons the challenge and restores the phase saved at trigger
// time, not unconditionally PLAYING: a round that had already finished
// stays finished.
func (g *Game) CancelQayd(seat models.Seat) Result {
	prev := g.Qayd.PrevPhase
	res := g.Qayd.Cancel(seat)
	if !res.Success {
		return res
	}
	g.IsLocked = false
	g.Phase = prev
	g.Timer.Resume()
	return res
}

func (g *Game) unlockAfterQayd(prev Phase) {
	g.IsLocked = false
	g.Phase = prev
	g.Timer.Resume()
}

// FirstLegalCard returns the lowest-index card the seat can legally play,
// used as the timeout and degraded-provider default.
func (g *Game) FirstLegalCard(seat models.Seat) (models.Card, bool) {
	p := g.Players[seat]
	if p == nil || len(p.Hand) == 0 {
		return models.Card{}, false
	}
	tm := g.trickManager()
	for _, c := range p.Hand {
		if legal, _ := tm.IsValidMove(seat, c, p.Hand, g.TableCards); legal {
			return c, true
		}
	}
	return p.Hand[0], true
}

// startTurnTimer restarts the countdown for the phase's acting seat.
func (g *Game) startTurnTimer() {
	if g.Rules.TurnTimerSec <= 0 {
		return
	}
	d := time.Duration(g.Rules.TurnTimerSec) * time.Second
	if g.Phase == PhaseBidding && g.Bidding != nil && g.Bidding.GablakOpen {
		d = time.Duration(g.Rules.GablakWindowSec) * time.Second
	}
	g.Timer.Start(d)
}
