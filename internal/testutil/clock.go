package testutil

import (
	"sync"
	"time"
)

// ManualClock is a wall clock that only moves when told to.
//
// Tests inject ManualClock.Now into components that normally read time.Now,
// then advance it between steps to script exact timings. The reference
// instant is an arbitrary fixed date so failures print sane timestamps.
//
// Thread-safety: all methods are safe for concurrent use.
type ManualClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewManualClock creates a clock pinned at a fixed reference instant.
func NewManualClock() *ManualClock {
	return &ManualClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current manual instant. Pass the method value as a
// `func() time.Time` wall-clock source.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// AdvanceMs moves the clock forward by ms milliseconds.
func (c *ManualClock) AdvanceMs(ms int64) {
	c.Advance(time.Duration(ms) * time.Millisecond)
}
