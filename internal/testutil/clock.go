package testutil

import (
	"sync"
	"time"
)

// FixedClock is a thread-safe manually advanced clock for tests.
//
// Store file names and suite name suffixes are derived from the current time;
// FixedClock makes them deterministic.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock frozen at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the current frozen time.
// Matches the func() time.Time signature used by sessions and the orchestrator.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
