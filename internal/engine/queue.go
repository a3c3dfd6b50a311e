package engine

import "sync"

// Submission is one externally-submitted instruction awaiting application.
//
// Data holds the opaque wire bytes exactly as the submitter provided
// them; the engine decodes them when the submission is processed, not
// when it is enqueued, so a malformed submission is rejected at the same
// point in the journal order on every replay.
type Submission struct {
	// Account names the counter record this instruction targets.
	Account string

	// Data is the raw instruction buffer (opcode + optional operand).
	Data []byte

	// Token correlates the submission with the external request that
	// produced it. Assigned once at the edge via Engine.NewToken().
	Token string
}

// submissionQueue is a thread-safe FIFO queue of pending submissions.
//
// The queue is unbounded so bursts of submissions never block the
// submitting side. Thread-safety covers external enqueuing (e.g. the CLI
// reading stdin) while the engine's Run loop dequeues; in practice most
// usage is single-threaded.
//
// A buffered signal channel enables context-aware waiting in the Run
// loop (prevents goroutine hangs on context cancellation).
type submissionQueue struct {
	mu     sync.Mutex
	subs   []Submission
	closed bool
	signal chan struct{} // Signals availability (buffered, size 1)
}

// newSubmissionQueue creates an empty queue.
func newSubmissionQueue() *submissionQueue {
	return &submissionQueue{
		subs:   make([]Submission, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a submission to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *submissionQueue) Enqueue(s Submission) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.subs = append(q.subs, s)

	// Non-blocking signal - buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Submission{}, false) if the queue is empty.
func (q *submissionQueue) TryDequeue() (Submission, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.subs) == 0 {
		return Submission{}, false
	}

	s := q.subs[0]

	// Nil out the slot so the backing array does not retain the
	// submission's Data slice until reallocation.
	q.subs[0] = Submission{}

	if len(q.subs) == 1 {
		q.subs = q.subs[:0]
	} else {
		q.subs = q.subs[1:]
	}

	return s, true
}

// Wait returns a channel that signals when submissions may be available.
// Use with select alongside ctx.Done(). The channel closes when the
// queue is closed, waking all waiters.
func (q *submissionQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *submissionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.subs)
}

// Close signals that no more submissions will be enqueued.
func (q *submissionQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
