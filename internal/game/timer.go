// internal/game/timer.go
package game

import "time"

// TimerManager is the per-room countdown used for turn timeouts. It stores
// wall-clock instants rather than runtime timers so a countdown survives a
// snapshot/reload cycle; the orchestrator's poller asks Expired() instead of
// registering callbacks.
type TimerManager struct {
	// StartedAt and Deadline are unix milliseconds. Running is false when no
	// countdown is active.
	StartedAt int64 `json:"started_at"`
	Deadline  int64 `json:"deadline"`
	Running   bool  `json:"running"`

	// PausedAt freezes elapsed time exactly at the pause instant; resuming
	// shifts the deadline forward by the paused duration so remaining time
	// is unaffected by the pause itself.
	PausedAt int64 `json:"paused_at,omitempty"`

	// now is injectable for tests; nil means time.Now.
	now func() time.Time `json:"-"`
}

func (tm *TimerManager) clock() int64 {
	if tm.now != nil {
		return tm.now().UnixMilli()
	}
	return time.Now().UnixMilli()
}

// Start begins a fresh countdown, replacing any previous one.
func (tm *TimerManager) Start(d time.Duration) {
	n := tm.clock()
	tm.StartedAt = n
	tm.Deadline = n + d.Milliseconds()
	tm.Running = true
	tm.PausedAt = 0
}

// Stop clears the countdown.
func (tm *TimerManager) Stop() {
	tm.Running = false
	tm.PausedAt = 0
}

// Pause freezes the countdown. A second pause is a no-op.
func (tm *TimerManager) Pause() {
	if !tm.Running || tm.PausedAt != 0 {
		return
	}
	tm.PausedAt = tm.clock()
}

// Resume continues a paused countdown, shifting the deadline forward by the
// paused duration.
func (tm *TimerManager) Resume() {
	if !tm.Running || tm.PausedAt == 0 {
		return
	}
	pausedFor := tm.clock() - tm.PausedAt
	tm.StartedAt += pausedFor
	tm.Deadline += pausedFor
	tm.PausedAt = 0
}

// Remaining returns the time left on the countdown, or zero when idle or
// expired.
func (tm *TimerManager) Remaining() time.Duration {
	if !tm.Running {
		return 0
	}
	ref := tm.clock()
	if tm.PausedAt != 0 {
		ref = tm.PausedAt
	}
	left := tm.Deadline - ref
	if left < 0 {
		left = 0
	}
	return time.Duration(left) * time.Millisecond
}

// Expired reports whether a running, unpaused countdown has run out.
func (tm *TimerManager) Expired() bool {
	return tm.Running && tm.PausedAt == 0 && tm.clock() >= tm.Deadline
}
