package app

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Countdown is the session clock: question count times the per-question
// allowance, ticking down once per second. Reaching zero fires onExpire
// exactly once; Stop (taken on any submission path) is permanent.
//
// Tick is exported from the struct rather than buried in the goroutine so
// tests can drive time deterministically; Run is the production driver.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	stopped   bool
	onTick    func(remaining int)
	onExpire  func()
}

// NewCountdown builds a countdown of the given duration in seconds.
// Either callback may be nil.
func NewCountdown(seconds int, onTick func(remaining int), onExpire func()) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{
		remaining: seconds,
		onTick:    onTick,
		onExpire:  onExpire,
	}
}

// Remaining reports the seconds left on the clock.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Stop halts the countdown permanently. Safe to call more than once.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

// Tick advances the clock by one second. Callbacks run outside the lock so
// an expiry handler may freely stop the countdown or lock the session.
func (c *Countdown) Tick() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.remaining--
	expired := c.remaining <= 0
	if expired {
		c.remaining = 0
		c.stopped = true
	}
	remaining := c.remaining
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(remaining)
	}
	if expired && c.onExpire != nil {
		c.onExpire()
	}
}

// Run drives the countdown from a real one-second ticker until it stops or
// the context is canceled. Intended to be launched on its own goroutine.
func (c *Countdown) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick()
			c.mu.Lock()
			stopped := c.stopped
			c.mu.Unlock()
			if stopped {
				return
			}
		}
	}
}

// formatClock renders remaining seconds as m:ss for the timer display.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
