package runtime

import "sync/atomic"

// Clock hands out the seq number stamped onto every verdict. Each
// submission consumes exactly one tick whether it commits or not, so the
// verdict log and the tx log share a single gapless ordering with no
// dependence on wall time.
//
// Atomic rather than mutexed so Current can be read from outside the
// writer goroutine, although under the single-writer rule only one
// goroutine ever calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock starts a clock at zero; the first tick is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt positions a clock so its next tick is start+1. Callers
// reopening a ledger seed start from store.MaxSeq, which covers rejected
// submissions as well as commits.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next consumes and returns the next tick.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last tick handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
