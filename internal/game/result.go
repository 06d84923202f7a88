// internal/game/result.go
package game

// Result codes returned by engine operations. Rule violations and
// state-consistency violations are reported through these, never as Go
// errors that escape to the caller.
const (
	CodeWrongPhase       = "wrong_phase"
	CodeWrongTurn        = "wrong_turn"
	CodeInvalidAction    = "invalid_action"
	CodeInvalidSuit      = "invalid_suit"
	CodeInvalidCard      = "invalid_card"
	CodeIllegalCard      = "illegal_card"
	CodeAshkalOnAce      = "ashkal_on_ace"
	CodeKaweshWithPoints = "kawesh_with_points"
	CodeIneligibleDouble = "ineligible_double"
	CodeDoubleCapReached = "double_cap_reached"
	CodeGablakClosed     = "gablak_closed"
	CodeGameLocked       = "game_locked"
	CodeNotReporter      = "not_reporter"
	CodeWrongStep        = "wrong_step"
	CodeAlreadyJudged    = "already_judged"
	CodeNoChallenge      = "no_challenge"
	CodeInternal         = "internal"
)

// Result is the base shape every public engine operation returns.
type Result struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok returns a successful Result.
func Ok() Result {
	return Result{Success: true}
}

// Fail returns a rejected Result with a machine code and human reason.
func Fail(code, reason string) Result {
	return Result{Success: false, Code: code, Error: reason}
}
