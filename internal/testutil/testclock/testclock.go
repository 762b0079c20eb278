package testclock

import (
	"sync"
	"time"
)

// DefaultStart is the first instant reported by clocks from New.
var DefaultStart = time.Unix(1700000000, 0).UTC()

// Clock implements clock.Clock. The first call to Now returns Start; every
// later call advances by the configured step.
type Clock struct {
	Start time.Time

	mu   sync.Mutex
	step time.Duration
	last time.Time
}

// Now implements clock.Clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last.IsZero() {
		c.last = c.Start
	} else {
		c.last = c.last.Add(c.step)
	}
	return c.last
}

// Add moves the clock forward by d without consuming a step.
func (c *Clock) Add(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last.IsZero() {
		c.last = c.Start
	}
	c.last = c.last.Add(d)
	return c.last
}

// Last returns the last time that was used.
func (c *Clock) Last() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last.IsZero() {
		c.last = c.Start
	}
	return c.last
}

// New returns a clock starting at DefaultStart that advances by step.
// A zero step freezes the clock.
func New(step time.Duration) *Clock {
	return &Clock{
		Start: DefaultStart,
		step:  step,
	}
}
