// internal/game/scoring.go
package game

import "github.com/tazjel/baloot-ai-sub002/internal/models"

// ScoringEngine converts a finished round into final game points.
type ScoringEngine struct {
	rules models.RoomRules
}

// NewScoringEngine builds a scoring engine for the room's rules.
func NewScoringEngine(rules models.RoomRules) *ScoringEngine {
	return &ScoringEngine{rules: rules}
}

// ConvertSunAbnat rounds raw SUN abnat to game points with the floor-to-even
// rule: divide by 5; an odd quotient with a nonzero remainder rounds up, an
// even quotient never does. For any split of a full round's 130 abnat the
// two teams' results sum to exactly 26.
func ConvertSunAbnat(raw int) int {
	q := raw / SunDenominator
	r := raw % SunDenominator
	if q%2 == 1 && r > 0 {
		q++
	}
	return q
}

// ConvertHokumAbnat rounds raw HOKUM abnat to game points: divide by 10,
// round up when the remainder exceeds half the denominator. Used alone for
// meld conversion; trick points go through RoundHokumPair.
func ConvertHokumAbnat(raw int) int {
	q := raw / HokumDenominator
	if raw%HokumDenominator > HokumDenominator/2 {
		q++
	}
	return q
}

// RoundHokumPair rounds the two teams' raw totals together. Each side rounds
// by the simple >50%-remainder rule; independent rounding can overshoot or
// undershoot the fixed total of 16 by exactly 1, so the excess or deficit is
// moved to or from whichever side had the larger remainder.
func RoundHokumPair(rawUs, rawThem int) (int, int) {
	us := ConvertHokumAbnat(rawUs)
	them := ConvertHokumAbnat(rawThem)

	diff := us + them - GameTotalHokum
	if diff == 0 {
		return us, them
	}
	remUs := rawUs % HokumDenominator
	remThem := rawThem % HokumDenominator
	if diff > 0 {
		// Overshoot: the larger remainder forfeits the extra point.
		if remUs >= remThem {
			us -= diff
		} else {
			them -= diff
		}
	} else {
		// Undershoot: the larger remainder picks up the missing point.
		if remUs >= remThem {
			us -= diff
		} else {
			them -= diff
		}
	}
	return us, them
}

// ConvertMeldAbnat converts declared project abnat to game points using the
// mode's rounding family.
func ConvertMeldAbnat(raw int, contract models.Contract) int {
	if contract.IsSunScoring() {
		return ConvertSunAbnat(raw)
	}
	return ConvertHokumAbnat(raw)
}

// RoundTally is the raw material the scoring engine consumes: trick history
// plus the resolved declarations for the round.
type RoundTally struct {
	Contract models.Contract

	History []Trick

	// ProjectAbnat is the validated meld abnat per team after winner-takes-all
	// resolution. The losing team's entry is zero.
	ProjectAbnat map[models.Team]int

	// BalootCount is the number of trump K+Q declarations per team.
	BalootCount map[models.Team]int
}

// ScoreRound applies the full scoring pipeline: raw tally, mode rounding,
// meld conversion, kaboot, khasara, doubling, then the doubling-immune
// baloot bonus.
func (se *ScoringEngine) ScoreRound(t RoundTally) models.ScoreBreakdown {
	bd := models.ScoreBreakdown{}

	rawByTeam := map[models.Team]int{}
	tricksByTeam := map[models.Team]int{}
	for _, tr := range t.History {
		team := models.TeamOf(tr.Winner)
		rawByTeam[team] += tr.Points
		tricksByTeam[team]++
	}
	if len(t.History) > 0 {
		last := t.History[len(t.History)-1]
		rawByTeam[models.TeamOf(last.Winner)] += LastTrickBonus
	}
	bd.RawUs = rawByTeam[models.TeamUs]
	bd.RawThem = rawByTeam[models.TeamThem]
	bd.ProjectUs = ConvertMeldAbnat(t.ProjectAbnat[models.TeamUs], t.Contract)
	bd.ProjectThem = ConvertMeldAbnat(t.ProjectAbnat[models.TeamThem], t.Contract)

	bd.BalootUs = 2 * t.BalootCount[models.TeamUs]
	bd.BalootThem = 2 * t.BalootCount[models.TeamThem]

	// Kaboot: one team took every trick. Flat bonus per mode, multiplier
	// ignored; all-in doubling instead awards an instant match-winning score.
	if len(t.History) == 8 {
		for team, n := range tricksByTeam {
			if n != len(t.History) {
				continue
			}
			bd.IsKaboot = true
			flat := KabootHokum
			if t.Contract.IsSunScoring() {
				flat = KabootSun
			}
			if t.Contract.DoublingLevel >= models.DoubleGahwa {
				flat = se.rules.MatchTarget
			}
			score := flat + meldPointsFor(team, bd)
			if team == models.TeamUs {
				bd.FinalUs = score + bd.BalootUs
				bd.FinalThem = bd.BalootThem
			} else {
				bd.FinalThem = score + bd.BalootThem
				bd.FinalUs = bd.BalootUs
			}
			return bd
		}
	}

	var gpUs, gpThem int
	if t.Contract.IsSunScoring() {
		gpUs = ConvertSunAbnat(bd.RawUs)
		gpThem = ConvertSunAbnat(bd.RawThem)
	} else {
		gpUs, gpThem = RoundHokumPair(bd.RawUs, bd.RawThem)
	}

	gpUs += bd.ProjectUs
	gpThem += bd.ProjectThem

	// Khasara: the bidding team must strictly out-score the opponents or
	// forfeit the whole pot.
	bidTeam := t.Contract.BiddingTeam()
	bidScore, oppScore := gpUs, gpThem
	if bidTeam == models.TeamThem {
		bidScore, oppScore = gpThem, gpUs
	}
	if bidScore <= oppScore {
		bd.IsKhasara = true
		pot := gpUs + gpThem
		if bidTeam == models.TeamUs {
			gpUs, gpThem = 0, pot
		} else {
			gpUs, gpThem = pot, 0
		}
	}

	mult := t.Contract.Multiplier()
	gpUs *= mult
	gpThem *= mult

	// Baloot is added after the multiplier and is immune to it.
	bd.FinalUs = gpUs + bd.BalootUs
	bd.FinalThem = gpThem + bd.BalootThem
	return bd
}

func meldPointsFor(team models.Team, bd models.ScoreBreakdown) int {
	if team == models.TeamUs {
		return bd.ProjectUs
	}
	return bd.ProjectThem
}
