// Package engine implements the tally counter state engine.
//
// The engine owns the transition function: given a current counter and a
// decoded instruction it computes the next counter deterministically,
// then hands the result back for persistence. Two layers expose it:
//
// Core invocation (Apply/Process):
// Apply is the pure transition over (counter, instruction). Process is
// the host contract - it takes a raw instruction buffer and a mutable
// persisted-state buffer, loads the counter, decodes, applies and writes
// the next counter back into the same buffer. One invocation is one
// atomic step: it either completes deterministically or fails immediately
// with no mutation. There is no blocking I/O, no retry and no concurrency
// inside an invocation; mutual exclusion over the state buffer is the
// caller's precondition.
//
// Single-Writer Submission Loop:
// Run processes journaled submissions in a single goroutine for
// deterministic behavior. This ensures:
// - Predictable application order (FIFO queue, one writer)
// - Reproducible journal on replay
// - Simple reasoning about causality
//
// Submission Processing Flow:
// 1. Submissions enqueued to FIFO queue (account + raw instruction bytes)
// 2. Engine.Run() dequeues submissions one at a time
// 3. Submit() decodes, loads account state, applies the transition
// 4. Journal entry + new account state written to SQLite atomically
//
// All journal entries are stamped with a monotonic seq from Clock.Next().
// Wall-clock timestamps are never used for ordering. On a submission
// failure the error is logged with full context and processing continues;
// retries would make replay non-deterministic, so there are none.
package engine
