// Package transporttest provides backoff timers and clocks that let tests
// observe retry and polling delays without sleeping.
package transporttest

import (
	"sync"
	"time"
)

// RecordingTimer implements backoff.Timer. It records every requested delay
// and fires immediately unless Block is set.
type RecordingTimer struct {
	// Block keeps the timer from ever firing, so only ctx cancellation ends
	// the wait.
	Block bool

	// OnStart is called with each requested delay before the timer fires.
	OnStart func(d time.Duration)

	mu     sync.Mutex
	delays []time.Duration
	c      chan time.Time
}

// NewRecordingTimer creates a RecordingTimer that fires immediately.
func NewRecordingTimer() *RecordingTimer {
	return &RecordingTimer{c: make(chan time.Time, 1)}
}

// Start records d and fires the timer.
func (t *RecordingTimer) Start(d time.Duration) {
	t.mu.Lock()
	t.delays = append(t.delays, d)
	hook := t.OnStart
	t.mu.Unlock()

	if hook != nil {
		hook(d)
	}
	if t.Block {
		return
	}

	select {
	case t.c <- time.Now():
	default:
	}
}

// Stop drains a pending tick.
func (t *RecordingTimer) Stop() {
	select {
	case <-t.c:
	default:
	}
}

// C returns the timer channel.
func (t *RecordingTimer) C() <-chan time.Time {
	return t.c
}

// Delays returns a copy of the recorded delays.
func (t *RecordingTimer) Delays() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]time.Duration, len(t.delays))
	copy(out, t.delays)
	return out
}

// FakeClock implements backoff.Clock with manually advanced time.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock frozen at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
