package testutil

import "sync"

// DeterministicClock is a resettable seq source for tests that replay
// the same submissions several times and expect identical ticks each
// round. The production clock deliberately has no Reset; a ledger's
// ordering never rewinds.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock starts at zero; the first tick is 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next consumes and returns the next tick.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last tick handed out.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds to zero so the next round of ticks repeats the first.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
