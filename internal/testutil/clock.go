// Package testutil provides deterministic test doubles shared across
// package tests.
package testutil

import (
	"sync"
	"time"
)

// SteppingClock is a deterministic audit.Clock for tests.
//
// Each Now() call returns the current instant and then advances by a fixed
// step, so consecutive records get distinct, strictly increasing timestamps
// without touching the wall clock. Fixed timestamps also make checksums
// reproducible, since timestampMs is a checksum input.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SteppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewSteppingClock creates a clock starting at start, advancing by step on
// every Now() call. A zero step freezes the clock entirely.
func NewSteppingClock(start time.Time, step time.Duration) *SteppingClock {
	return &SteppingClock{now: start, step: step}
}

// NewFrozenClock creates a clock that always returns the same instant.
func NewFrozenClock(at time.Time) *SteppingClock {
	return NewSteppingClock(at, 0)
}

// Now returns the current instant and advances the clock by one step.
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Set repositions the clock. Used to reuse one clock across subtests.
func (c *SteppingClock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
}
