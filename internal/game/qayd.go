// internal/game/qayd.go
package game

import (
	"fmt"
	"time"

	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

// QaydState is the step the challenge flow is currently at.
type QaydState string

const (
	QaydIdle            QaydState = "IDLE"
	QaydMainMenu        QaydState = "MAIN_MENU"
	QaydViolationSelect QaydState = "VIOLATION_SELECT"
	QaydSelectCrime     QaydState = "SELECT_CRIME_CARD"
	QaydSelectProof     QaydState = "SELECT_PROOF_CARD"
	QaydResult          QaydState = "RESULT"
)

// Menu options and violation kinds. Failure to follow suit is the only
// adjudicable violation; the selection step exists so the flow survives
// client round-trips between every step.
const (
	QaydMenuReport = "REPORT"
	QaydMenuExit   = "EXIT"

	ViolationRenege = "RENEGE"
)

// CardRef addresses one played card by trick index and position within the
// trick. Index len(history) refers to the in-progress trick.
type CardRef struct {
	Trick int `json:"trick"`
	Pos   int `json:"pos"`
}

func (r CardRef) Signature() string {
	return fmt.Sprintf("%d:%d", r.Trick, r.Pos)
}

// QaydVerdict is the adjudicated outcome of a challenge.
type QaydVerdict struct {
	Proven     bool        `json:"proven"`
	Offender   models.Seat `json:"offender"`
	LosingTeam models.Team `json:"losing_team"`
	Penalty    int         `json:"penalty"`
}

// QaydEngine is the guarded sub-state-machine for adjudicating accusations
// of illegal play. All fields are exported: the engine is driven by
// processes that persist and reload the whole game between every call, so
// every step must survive a serialize/deserialize round-trip.
type QaydEngine struct {
	State     QaydState   `json:"state"`
	Reporter  models.Seat `json:"reporter"`
	PrevPhase Phase       `json:"prev_phase"`

	// StartedAt is the unix-ms instant the challenge opened. The poller
	// measures idle time from it; the turn timer may already be stopped when
	// a challenge is raised from a finished round.
	StartedAt int64 `json:"started_at,omitempty"`

	Violation string       `json:"violation,omitempty"`
	Crime     *CardRef     `json:"crime,omitempty"`
	Proof     *CardRef     `json:"proof,omitempty"`
	Verdict   *QaydVerdict `json:"verdict,omitempty"`

	// Judged collects signatures of adjudicated or explicitly cancelled
	// crimes; re-raising any of them is rejected (double-jeopardy guard).
	Judged []string `json:"judged,omitempty"`
}

// NewQaydEngine returns an idle engine.
func NewQaydEngine() *QaydEngine {
	return &QaydEngine{State: QaydIdle}
}

// Active reports whether a challenge is in progress.
func (q *QaydEngine) Active() bool {
	return q.State != QaydIdle
}

// Trigger opens a challenge for the reporter seat. The Game layer has
// already verified the phase is PLAYING or FINISHED and the room is not
// locked; the engine guards its own state.
func (q *QaydEngine) Trigger(seat models.Seat, prevPhase Phase) Result {
	if q.State != QaydIdle {
		return Fail(CodeGameLocked, "a challenge is already active")
	}
	q.State = QaydMainMenu
	q.Reporter = seat
	q.PrevPhase = prevPhase
	q.StartedAt = time.Now().UnixMilli()
	q.Violation = ""
	q.Crime = nil
	q.Proof = nil
	q.Verdict = nil
	return Ok()
}

func (q *QaydEngine) guard(seat models.Seat, want QaydState) Result {
	if q.State != want {
		return Fail(CodeWrongStep,
			fmt.Sprintf("challenge is at step %s, not %s", q.State, want))
	}
	if seat != q.Reporter {
		return Fail(CodeNotReporter, "only the reporting seat may drive the challenge")
	}
	return Ok()
}

// SelectMenuOption advances from the main menu. REPORT continues to
// violation selection; EXIT is equivalent to Cancel.
func (q *QaydEngine) SelectMenuOption(seat models.Seat, option string) Result {
	if res := q.guard(seat, QaydMainMenu); !res.Success {
		return res
	}
	switch option {
	case QaydMenuReport:
		q.State = QaydViolationSelect
		return Ok()
	case QaydMenuExit:
		q.cancelInternal()
		return Ok()
	default:
		return Fail(CodeInvalidAction, fmt.Sprintf("unknown menu option %q", option))
	}
}

// SelectViolation records the accused violation kind and advances to crime
// card selection.
func (q *QaydEngine) SelectViolation(seat models.Seat, violation string) Result {
	if res := q.guard(seat, QaydViolationSelect); !res.Success {
		return res
	}
	if violation != ViolationRenege {
		return Fail(CodeInvalidAction, fmt.Sprintf("unknown violation %q", violation))
	}
	q.Violation = violation
	q.State = QaydSelectCrime
	return Ok()
}

// lookupCard resolves a CardRef against history plus the in-progress trick.
func lookupCard(ref CardRef, history []Trick, table []TableCard) (TableCard, []TableCard, bool) {
	if ref.Trick < 0 || ref.Pos < 0 {
		return TableCard{}, nil, false
	}
	if ref.Trick < len(history) {
		t := history[ref.Trick]
		if ref.Pos >= len(t.Cards) {
			return TableCard{}, nil, false
		}
		return t.Cards[ref.Pos], t.Cards, true
	}
	if ref.Trick == len(history) && ref.Pos < len(table) {
		return table[ref.Pos], table, true
	}
	return TableCard{}, nil, false
}

// SelectCrimeCard records the accused card. Out-of-range references and
// already-judged signatures are structured rejections; the suit-following
// validation itself is deferred to adjudication, where a bad accusation
// penalizes the reporter rather than bouncing the step.
func (q *QaydEngine) SelectCrimeCard(seat models.Seat, ref CardRef, history []Trick, table []TableCard) Result {
	if res := q.guard(seat, QaydSelectCrime); !res.Success {
		return res
	}
	if _, _, ok := lookupCard(ref, history, table); !ok {
		return Fail(CodeInvalidCard, "crime card reference is out of range")
	}
	for _, sig := range q.Judged {
		if sig == ref.Signature() {
			return Fail(CodeAlreadyJudged, "this crime has already been judged")
		}
	}
	q.Crime = &ref
	q.State = QaydSelectProof
	return Ok()
}

// SelectProofCard records the proof card and adjudicates immediately: a
// valid crime (off-suit play) plus a valid proof (the same seat later played
// the led suit) proves guilt; anything else fails the accusation and the
// reporter's team takes the penalty.
func (q *QaydEngine) SelectProofCard(seat models.Seat, ref CardRef, history []Trick, table []TableCard, contract models.Contract, declaredAbnat int) Result {
	if res := q.guard(seat, QaydSelectProof); !res.Success {
		return res
	}
	if _, _, ok := lookupCard(ref, history, table); !ok {
		return Fail(CodeInvalidCard, "proof card reference is out of range")
	}
	q.Proof = &ref
	q.adjudicate(history, table, contract, declaredAbnat)
	q.State = QaydResult
	return Ok()
}

// adjudicate computes the verdict from the recorded crime and proof refs.
func (q *QaydEngine) adjudicate(history []Trick, table []TableCard, contract models.Contract, declaredAbnat int) {
	crimeCard, crimeTrick, _ := lookupCard(*q.Crime, history, table)
	proofCard, _, _ := lookupCard(*q.Proof, history, table)

	ledSuit := crimeTrick[0].Card.Suit
	crimeValid := q.Crime.Pos > 0 && crimeCard.Card.Suit != ledSuit
	proofValid := crimeValid &&
		q.Proof.Trick > q.Crime.Trick &&
		proofCard.Seat == crimeCard.Seat &&
		proofCard.Card.Suit == ledSuit

	penalty := GameTotalHokum
	if contract.IsSunScoring() {
		penalty = GameTotalSun
	}
	if contract.DoublingLevel > models.DoubleNone {
		penalty *= 2
	}
	penalty += ConvertMeldAbnat(declaredAbnat, contract)

	v := &QaydVerdict{Proven: proofValid, Penalty: penalty}
	if proofValid {
		v.Offender = crimeCard.Seat
		v.LosingTeam = models.TeamOf(crimeCard.Seat)
	} else {
		v.Offender = q.Reporter
		v.LosingTeam = models.TeamOf(q.Reporter)
	}
	q.Verdict = v
	q.Judged = append(q.Judged, q.Crime.Signature())
}

// Confirm closes the challenge after the verdict has been displayed. The
// Game layer applies the penalty exactly like a round-ending script; the
// engine returns the verdict and falls back to idle.
func (q *QaydEngine) Confirm(seat models.Seat) (*QaydVerdict, Result) {
	if res := q.guard(seat, QaydResult); !res.Success {
		return nil, res
	}
	v := q.Verdict
	q.reset()
	return v, Ok()
}

// Cancel abandons the challenge at any step before confirmation. The saved
// phase is restored by the Game layer, not unconditionally PLAYING, so a
// round that had already finished stays finished.
func (q *QaydEngine) Cancel(seat models.Seat) Result {
	if q.State == QaydIdle {
		return Fail(CodeNoChallenge, "no challenge to cancel")
	}
	if seat != q.Reporter {
		return Fail(CodeNotReporter, "only the reporting seat may cancel")
	}
	q.cancelInternal()
	return Ok()
}

func (q *QaydEngine) cancelInternal() {
	if q.Crime != nil {
		sig := q.Crime.Signature()
		seen := false
		for _, s := range q.Judged {
			if s == sig {
				seen = true
				break
			}
		}
		if !seen {
			q.Judged = append(q.Judged, sig)
		}
	}
	q.reset()
}

func (q *QaydEngine) reset() {
	judged := q.Judged
	*q = QaydEngine{State: QaydIdle, Judged: judged}
}
