// Package testutil provides deterministic clock and randomness helpers
// for engine tests.
package testutil

import (
	"math/rand"
	"sync"
	"time"
)

// FixedClock is a thread-safe wall clock pinned to a settable instant.
//
// Unlike the system clock, FixedClock only moves when a test advances it,
// which makes pacing and day-rollover behavior reproducible.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock pinned to t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the pinned instant.
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

// Set pins the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Rand returns a seeded random source for reproducible tests.
func Rand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
