// internal/game/timer_test.go
package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock drives a TimerManager on a controllable wall clock.
type fakeClock struct {
	at time.Time
}

func (fc *fakeClock) advance(d time.Duration) {
	fc.at = fc.at.Add(d)
}

func newFakeTimer() (*TimerManager, *fakeClock) {
	fc := &fakeClock{at: time.UnixMilli(1_700_000_000_000)}
	tm := &TimerManager{now: func() time.Time { return fc.at }}
	return tm, fc
}

func TestTimerStartAndExpire(t *testing.T) {
	tm, fc := newFakeTimer()

	assert.False(t, tm.Expired())
	assert.Zero(t, tm.Remaining())

	tm.Start(10 * time.Second)
	assert.True(t, tm.Running)
	assert.Equal(t, 10*time.Second, tm.Remaining())
	assert.False(t, tm.Expired())

	fc.advance(9 * time.Second)
	assert.Equal(t, time.Second, tm.Remaining())
	assert.False(t, tm.Expired())

	fc.advance(time.Second)
	assert.True(t, tm.Expired())
	assert.Zero(t, tm.Remaining())
}

func TestTimerStopClears(t *testing.T) {
	tm, fc := newFakeTimer()
	tm.Start(5 * time.Second)
	fc.advance(6 * time.Second)

	tm.Stop()
	assert.False(t, tm.Running)
	assert.False(t, tm.Expired())
	assert.Zero(t, tm.Remaining())
}

func TestTimerPauseFreezesRemaining(t *testing.T) {
	tm, fc := newFakeTimer()
	tm.Start(10 * time.Second)
	fc.advance(4 * time.Second)

	tm.Pause()
	fc.advance(time.Hour)

	// A paused countdown never expires and its remaining time is frozen.
	assert.False(t, tm.Expired())
	assert.Equal(t, 6*time.Second, tm.Remaining())

	tm.Resume()
	assert.Equal(t, 6*time.Second, tm.Remaining())
	fc.advance(6 * time.Second)
	assert.True(t, tm.Expired())
}

func TestTimerDoublePauseIsNoop(t *testing.T) {
	tm, fc := newFakeTimer()
	tm.Start(10 * time.Second)
	fc.advance(2 * time.Second)
	tm.Pause()
	first := tm.PausedAt

	fc.advance(3 * time.Second)
	tm.Pause()
	assert.Equal(t, first, tm.PausedAt)

	tm.Resume()
	assert.Equal(t, 8*time.Second, tm.Remaining())
}

func TestTimerResumeWithoutPauseIsNoop(t *testing.T) {
	tm, fc := newFakeTimer()
	tm.Start(10 * time.Second)
	deadline := tm.Deadline

	tm.Resume()
	assert.Equal(t, deadline, tm.Deadline)

	fc.advance(time.Second)
	tm2 := &TimerManager{now: func() time.Time { return fc.at }}
	tm2.Resume() // idle timer
	assert.False(t, tm2.Running)
}

func TestTimerRestartReplacesCountdown(t *testing.T) {
	tm, fc := newFakeTimer()
	tm.Start(5 * time.Second)
	fc.advance(4 * time.Second)
	tm.Pause()

	tm.Start(15 * time.Second)
	assert.Zero(t, tm.PausedAt)
	assert.Equal(t, 15*time.Second, tm.Remaining())
}
