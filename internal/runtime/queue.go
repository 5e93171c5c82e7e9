package runtime

import (
	"sync"

	"github.com/roach88/chainseal/internal/ledger"
	"github.com/roach88/chainseal/internal/store"
)

// submission is one queued candidate transaction plus the channel its
// verdict is delivered on.
type submission struct {
	tx    *ledger.Tx
	reply chan result
}

// result pairs a verdict with the evaluation error, if any. Policy
// rejections are verdicts, not errors; err is reserved for store and
// infrastructure failures.
type result struct {
	verdict store.Verdict
	err     error
}

// submitQueue is a thread-safe FIFO queue of submissions.
//
// The queue is unbounded: a submitter never blocks on queue capacity,
// only on its own reply channel.
//
// Thread-safety is provided for external submitters (CLI, harness)
// while the Run loop dequeues.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type submitQueue struct {
	mu     sync.Mutex
	subs   []submission
	closed bool
	signal chan struct{} // buffered size 1, coalesces signals
}

func newSubmitQueue() *submitQueue {
	return &submitQueue{
		subs:   make([]submission, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a submission to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *submitQueue) Enqueue(s submission) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.subs = append(q.subs, s)

	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (submission{}, false) if the queue is empty.
func (q *submitQueue) TryDequeue() (submission, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.subs) == 0 {
		return submission{}, false
	}

	s := q.subs[0]

	// Nil out the slot so the dequeued tx and channel can be collected
	// even while the backing array lives on.
	q.subs[0] = submission{}

	if len(q.subs) == 1 {
		q.subs = q.subs[:0]
	} else {
		q.subs = q.subs[1:]
	}

	return s, true
}

// Wait returns a channel that signals when submissions may be available.
// Use with select for context-aware waiting.
func (q *submitQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *submitQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.subs)
}

// Close signals that no more submissions will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *submitQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
