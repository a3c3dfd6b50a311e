// Package harness provides a conformance testing framework for the
// tally counter engine.
//
// Scenarios are YAML files describing an instruction sequence and the
// expected counter after each step. Unlike a plain unit test, the
// harness exercises the full submission path: wire encoding, decode,
// the pure transition and the journaled store write - the same code the
// CLI host runs, against a fresh in-memory database per scenario.
//
// Deterministic helpers (fixed submission token, a clock starting at
// zero) make the resulting trace byte-identical across runs, which is
// what allows golden file comparison in golden.go.
package harness

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/tally/internal/engine"
	"github.com/roach88/tally/internal/instruction"
	"github.com/roach88/tally/internal/state"
	"github.com/roach88/tally/internal/store"
	"github.com/roach88/tally/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and engine
// 2. Submit each step's instruction in order
// 3. Validate each step against its expect clause
// 4. Evaluate assertions against the journal and final counter
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	tokenGen := testutil.NewFixedTokenGenerator(scenario.Token)
	eng := engine.New(st, tokenGen)

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		if err := executeStep(ctx, eng, st, scenario.Account, i, step, tokenGen.Token(), result); err != nil {
			return nil, err
		}
	}

	result.FinalCounter = readCounter(ctx, st, scenario.Account)

	actx := &AssertionContext{
		Store:   st,
		Ctx:     ctx,
		Account: scenario.Account,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep submits one step and validates it against its expect clause.
// Returns an error only for harness-level failures (bad scenario raw hex);
// engine rejections become trace events and expect-clause validation.
func executeStep(ctx context.Context, eng *engine.Engine, st *store.Store, account string, idx int, step Step, token string, result *Result) error {
	data, err := stepData(step)
	if err != nil {
		return fmt.Errorf("step %d: %w", idx, err)
	}

	entry, submitErr := eng.Submit(ctx, engine.Submission{
		Account: account,
		Data:    data,
		Token:   token,
	})

	if submitErr != nil {
		code := rejectionCode(submitErr)
		result.AddRejectedTrace(readCounter(ctx, st, account), code)

		if step.Expect == nil || step.Expect.Error == "" {
			result.AddError(fmt.Sprintf("step %d: unexpected rejection: %v", idx, submitErr))
		} else if step.Expect.Error != code {
			result.AddError(fmt.Sprintf("step %d: expected rejection %s, got %s", idx, step.Expect.Error, code))
		}
		return nil
	}

	op := instruction.Opcode(entry.Opcode).String()
	result.AddAppliedTrace(op, entry.Operand, entry.Counter, entry.Seq)

	if step.Expect != nil {
		if step.Expect.Error != "" {
			result.AddError(fmt.Sprintf("step %d: expected rejection %s, but instruction applied", idx, step.Expect.Error))
		}
		if step.Expect.Counter != nil && *step.Expect.Counter != entry.Counter {
			result.AddError(fmt.Sprintf("step %d: expected counter %d, got %d", idx, *step.Expect.Counter, entry.Counter))
		}
	}
	return nil
}

// stepData builds the wire bytes for a step: either the literal raw hex
// or an encoded well-formed instruction.
func stepData(step Step) ([]byte, error) {
	if step.Raw != "" {
		data, err := hex.DecodeString(strings.TrimPrefix(step.Raw, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid raw hex %q: %w", step.Raw, err)
		}
		return data, nil
	}

	op, err := instruction.ParseOpcode(step.Op)
	if err != nil {
		return nil, err
	}
	return instruction.Instruction{Op: op, Value: step.Value}.Encode(), nil
}

// rejectionCode maps a submission error to its stable code for expect
// clauses and traces.
func rejectionCode(err error) string {
	var de *instruction.DecodeError
	if errors.As(err, &de) {
		return string(de.Code)
	}
	var se *state.StateError
	if errors.As(err, &se) {
		return string(se.Code)
	}
	return err.Error()
}

// readCounter returns the account's stored counter, or 0 when the
// account has no row yet.
func readCounter(ctx context.Context, st *store.Store, account string) uint32 {
	buf, err := st.ReadAccountState(ctx, account)
	if err != nil {
		return 0
	}
	c, err := state.Load(buf)
	if err != nil {
		return 0
	}
	return uint32(c)
}
