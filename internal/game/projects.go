// internal/game/projects.go
package game

import (
	"sort"

	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

// ProjectType identifies a bonus meld tier.
type ProjectType string

const (
	ProjectSira        ProjectType = "SIRA"         // 3-card same-suit sequence, 20 abnat
	ProjectFifty       ProjectType = "FIFTY"        // 4-card sequence, 50 abnat
	ProjectHundred     ProjectType = "HUNDRED"      // 5+ sequence or four-of-a-kind, 100 abnat
	ProjectFourHundred ProjectType = "FOUR_HUNDRED" // four aces under SUN, 400 abnat
)

// projectTier orders meld types for winner-takes-all comparison.
var projectTier = map[ProjectType]int{
	ProjectSira:        1,
	ProjectFifty:       2,
	ProjectHundred:     3,
	ProjectFourHundred: 4,
}

// projectAbnat is the flat abnat bonus per meld type.
var projectAbnat = map[ProjectType]int{
	ProjectSira:        20,
	ProjectFifty:       50,
	ProjectHundred:     100,
	ProjectFourHundred: 400,
}

// seqOrder is the natural rank order used for sequence detection and
// top-card tie-breaks. Distinct from the trick strength orders.
var seqOrder = map[models.Rank]int{
	models.Seven: 0,
	models.Eight: 1,
	models.Nine:  2,
	models.Ten:   3,
	models.Jack:  4,
	models.Queen: 5,
	models.King:  6,
	models.Ace:   7,
}

// Declaration is one detected or declared meld.
type Declaration struct {
	Seat    models.Seat   `json:"seat"`
	Type    ProjectType   `json:"type"`
	Abnat   int           `json:"abnat"`
	Cards   []models.Card `json:"cards"`
	TopRank models.Rank   `json:"top_rank"`

	// Suit is set for sequences only.
	Suit models.Suit `json:"suit,omitempty"`
}

// sameDeclaration reports whether two declarations describe the same meld
// (type, top rank, suit and exact card set).
func sameDeclaration(a, b Declaration) bool {
	if a.Type != b.Type || a.TopRank != b.TopRank || a.Suit != b.Suit || len(a.Cards) != len(b.Cards) {
		return false
	}
	set := make(map[string]bool, len(a.Cards))
	for _, c := range a.Cards {
		set[c.Key()] = true
	}
	for _, c := range b.Cards {
		if !set[c.Key()] {
			return false
		}
	}
	return true
}

// DetectProjects scans a hand for every meld it contains: four-of-a-kind of
// A/K/Q/J/10 (four aces under SUN score as FOUR_HUNDRED) and same-suit
// sequences of length 3, 4 and 5+.
func DetectProjects(seat models.Seat, hand []models.Card, contract models.Contract) []Declaration {
	var out []Declaration

	byRank := map[models.Rank][]models.Card{}
	bySuit := map[models.Suit][]models.Card{}
	for _, c := range hand {
		byRank[c.Rank] = append(byRank[c.Rank], c)
		bySuit[c.Suit] = append(bySuit[c.Suit], c)
	}

	for _, r := range []models.Rank{models.Ace, models.King, models.Queen, models.Jack, models.Ten} {
		cards := byRank[r]
		if len(cards) != 4 {
			continue
		}
		typ := ProjectHundred
		if r == models.Ace && contract.IsSunScoring() {
			typ = ProjectFourHundred
		}
		out = append(out, Declaration{
			Seat:    seat,
			Type:    typ,
			Abnat:   projectAbnat[typ],
			Cards:   append([]models.Card(nil), cards...),
			TopRank: r,
		})
	}

	for _, s := range models.Suits {
		cards := bySuit[s]
		if len(cards) < 3 {
			continue
		}
		sort.Slice(cards, func(i, j int) bool {
			return seqOrder[cards[i].Rank] < seqOrder[cards[j].Rank]
		})
		run := []models.Card{cards[0]}
		flush := func() {
			if len(run) >= 3 {
				typ := ProjectSira
				switch {
				case len(run) >= 5:
					typ = ProjectHundred
				case len(run) == 4:
					typ = ProjectFifty
				}
				out = append(out, Declaration{
					Seat:    seat,
					Type:    typ,
					Abnat:   projectAbnat[typ],
					Cards:   append([]models.Card(nil), run...),
					TopRank: run[len(run)-1].Rank,
					Suit:    s,
				})
			}
		}
		for i := 1; i < len(cards); i++ {
			if seqOrder[cards[i].Rank] == seqOrder[run[len(run)-1].Rank]+1 {
				run = append(run, cards[i])
				continue
			}
			flush()
			run = []models.Card{cards[i]}
		}
		flush()
	}
	return out
}

// ProjectManager collects first-trick declarations and resolves the
// winner-takes-all comparison between the two teams.
type ProjectManager struct {
	Declarations map[models.Seat][]Declaration `json:"declarations"`

	// Baloots counts trump K+Q declarations per team. Independent of the
	// project comparison and immune to it.
	Baloots map[models.Team]int `json:"baloots"`

	// BalootBy marks seats whose baloot is already banked, so a resent
	// declaration cannot count twice.
	BalootBy map[models.Seat]bool `json:"baloot_by"`

	Resolved  bool                `json:"resolved"`
	Validated map[models.Team]int `json:"validated"`
}

// NewProjectManager returns an empty manager.
func NewProjectManager() *ProjectManager {
	return &ProjectManager{
		Declarations: map[models.Seat][]Declaration{},
		Baloots:      map[models.Team]int{},
		BalootBy:     map[models.Seat]bool{},
		Validated:    map[models.Team]int{},
	}
}

// Declare registers a meld for a seat. Re-declaring an already-registered
// meld is a no-op.
func (pm *ProjectManager) Declare(d Declaration) Result {
	if pm.Resolved {
		return Fail(CodeWrongPhase, "projects already resolved for this round")
	}
	for _, existing := range pm.Declarations[d.Seat] {
		if sameDeclaration(existing, d) {
			return Ok()
		}
	}
	pm.Declarations[d.Seat] = append(pm.Declarations[d.Seat], d)
	return Ok()
}

// DeclareBaloot registers a trump K+Q declaration for a seat. The hand must
// actually hold both cards. Re-declaring is a no-op.
func (pm *ProjectManager) DeclareBaloot(seat models.Seat, hand []models.Card, played []models.Card, contract models.Contract) Result {
	if contract.IsSunScoring() {
		return Fail(CodeInvalidAction, "baloot requires a trump suit")
	}
	if pm.BalootBy[seat] {
		return Ok()
	}
	holds := func(r models.Rank) bool {
		for _, c := range hand {
			if c.Rank == r && c.Suit == contract.Trump {
				return true
			}
		}
		for _, c := range played {
			if c.Rank == r && c.Suit == contract.Trump {
				return true
			}
		}
		return false
	}
	if !holds(models.King) || !holds(models.Queen) {
		return Fail(CodeInvalidCard, "baloot requires the king and queen of trumps")
	}
	pm.BalootBy[seat] = true
	pm.Baloots[models.TeamOf(seat)]++
	return Ok()
}

// better reports whether a beats b under the comparison rules: tier, then
// top card, then seat distance from the dealer (closer wins).
func better(a, b Declaration, dealer models.Seat) bool {
	if projectTier[a.Type] != projectTier[b.Type] {
		return projectTier[a.Type] > projectTier[b.Type]
	}
	if seqOrder[a.TopRank] != seqOrder[b.TopRank] {
		return seqOrder[a.TopRank] > seqOrder[b.TopRank]
	}
	distA := (int(a.Seat) - int(dealer) + 4) % 4
	distB := (int(b.Seat) - int(dealer) + 4) % 4
	return distA < distB
}

// Resolve compares each team's best meld and validates every meld of the
// stronger team; the other team's melds are discarded entirely. Idempotent:
// a second call returns the stored result.
func (pm *ProjectManager) Resolve(dealer models.Seat) map[models.Team]int {
	if pm.Resolved {
		return pm.Validated
	}
	pm.Resolved = true

	var best *Declaration
	for _, decls := range pm.Declarations {
		for i := range decls {
			d := decls[i]
			if best == nil || better(d, *best, dealer) {
				best = &d
			}
		}
	}
	if best == nil {
		return pm.Validated
	}

	winner := models.TeamOf(best.Seat)
	total := 0
	for seat, decls := range pm.Declarations {
		if models.TeamOf(seat) != winner {
			continue
		}
		for _, d := range decls {
			total += d.Abnat
		}
	}
	pm.Validated[winner] = total
	return pm.Validated
}
