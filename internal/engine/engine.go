package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/tally/internal/instruction"
	"github.com/roach88/tally/internal/state"
	"github.com/roach88/tally/internal/store"
)

// Engine is the single-writer counter application loop.
//
// The engine dequeues submissions in FIFO order, applies each one to its
// account's counter and journals the result. All mutations happen in the
// Run loop goroutine; external callers use Enqueue() to submit.
//
// Thread-safety model:
//   - Enqueue(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - NewToken(): safe from any goroutine (delegates to the generator)
//
// INVARIANTS:
//   - Journal seq numbers come only from the logical clock
//   - A submission mutates account state only together with its journal
//     entry (single transaction in the store)
//   - Application is single-threaded for determinism
type Engine struct {
	store    *store.Store
	clock    *Clock
	queue    *submissionQueue
	tokenGen TokenGenerator
}

// New creates an Engine over the given store with a fresh clock.
// Use NewWithClock when resuming over an existing journal so seq numbers
// continue from the last journaled position.
func New(s *store.Store, tokenGen TokenGenerator) *Engine {
	return NewWithClock(s, tokenGen, NewClock())
}

// NewWithClock creates an Engine with a pre-configured clock.
// Used to resume from a specific sequence number, typically
// NewClockAt(store.MaxSeq()).
func NewWithClock(s *store.Store, tokenGen TokenGenerator, clock *Clock) *Engine {
	return &Engine{
		store:    s,
		clock:    clock,
		queue:    newSubmissionQueue(),
		tokenGen: tokenGen,
	}
}

// Enqueue submits an instruction for processing by the Run loop.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(s Submission) bool {
	return e.queue.Enqueue(s)
}

// NewToken generates a new submission token for an external request.
// Thread-safe: may be called from any goroutine.
func (e *Engine) NewToken() string {
	return e.tokenGen.Generate()
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// QueueLen returns the current number of pending submissions.
// Useful for monitoring and testing.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Run starts the single-writer application loop.
// Blocks until the context is cancelled or Stop() is called.
//
// Must be called from exactly ONE goroutine. All decoding, application
// and store writes happen in this goroutine for deterministic behavior.
//
// ERROR HANDLING: when a submission fails (malformed buffer, store
// error), the error is logged with full submission context and the loop
// continues with the next submission. Retries would journal the failed
// submission at a different position on a re-run, so there are none.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting", "seq", e.clock.Current())

	for {
		sub, ok := e.queue.TryDequeue()
		if ok {
			if _, err := e.Submit(ctx, sub); err != nil {
				logSubmissionError(sub, err)
			}
			continue
		}

		// No submission ready - wait for a signal or cancellation.
		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes when the queue is closed,
			// so this case fires immediately on shutdown.
			if e.queue.Len() == 0 {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop gracefully shuts down the engine.
// Closes the submission queue, which causes Run() to return after the
// pending submissions drain.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Submit applies one submission synchronously: decode the instruction,
// load the account's counter, apply the transition and write the journal
// entry plus the new state in a single transaction.
//
// Called from the Run loop; also called directly by one-shot hosts (the
// CLI invoke command, the scenario harness) that own the store for the
// duration of the call.
//
// An account that has never been written starts from a zero counter, the
// same initial state a freshly allocated host buffer would hold.
//
// The seq number is taken only after the instruction decodes, so a
// rejected submission consumes no clock position and leaves the journal
// untouched.
func (e *Engine) Submit(ctx context.Context, sub Submission) (store.Entry, error) {
	in, err := instruction.Decode(sub.Data)
	if err != nil {
		return store.Entry{}, fmt.Errorf("decode submission for account %q: %w", sub.Account, err)
	}

	slog.Debug("applying submission",
		"account", sub.Account,
		"instruction", in.String(),
		"token", sub.Token,
	)

	stateBuf, err := e.store.ReadAccountState(ctx, sub.Account)
	if errors.Is(err, store.ErrAccountNotFound) {
		stateBuf = make([]byte, state.Size)
	} else if err != nil {
		return store.Entry{}, fmt.Errorf("read account %q: %w", sub.Account, err)
	}

	current, err := state.Load(stateBuf)
	if err != nil {
		return store.Entry{}, fmt.Errorf("load state for account %q: %w", sub.Account, err)
	}

	next := Apply(current, in)
	seq := e.clock.Next()

	id, err := store.EntryID(sub.Account, sub.Data, seq)
	if err != nil {
		return store.Entry{}, fmt.Errorf("compute entry ID: %w", err)
	}

	entry := store.Entry{
		ID:      id,
		Account: sub.Account,
		Opcode:  uint8(in.Op),
		Operand: in.Value,
		Raw:     sub.Data,
		Counter: uint32(next),
		Token:   sub.Token,
		Seq:     seq,
	}

	if _, err := e.store.WriteApplied(ctx, entry, next.Bytes()); err != nil {
		return store.Entry{}, fmt.Errorf("write applied entry %s: %w", entry.ID, err)
	}

	slog.Info("instruction applied",
		"account", sub.Account,
		"instruction", in.String(),
		"counter", uint32(next),
		"seq", seq,
	)

	return entry, nil
}

// logSubmissionError logs a submission failure with full context so the
// operator can investigate or resubmit manually.
func logSubmissionError(sub Submission, err error) {
	slog.Error("submission processing failed",
		"error", err,
		"account", sub.Account,
		"token", sub.Token,
		"bytes", len(sub.Data),
	)
}
