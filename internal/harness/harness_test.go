package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u32(v uint32) *uint32 { return &v }

func TestRun_FullFlow(t *testing.T) {
	scenario := &Scenario{
		Name:    "full-flow",
		Account: "acct",
		Steps: []Step{
			{Op: "increment", Value: 48, Expect: &ExpectClause{Counter: u32(48)}},
			{Op: "decrement", Value: 16, Expect: &ExpectClause{Counter: u32(32)}},
			{Op: "decrement", Value: 100, Expect: &ExpectClause{Counter: u32(0)}},
			{Op: "update", Value: 33, Expect: &ExpectClause{Counter: u32(33)}},
			{Op: "reset", Expect: &ExpectClause{Counter: u32(0)}},
		},
		Assertions: []Assertion{
			{Type: "final_counter", Counter: 0},
			{Type: "journal_count", Count: 5},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, uint32(0), result.FinalCounter)
	require.Len(t, result.Trace, 5)

	// Every applied step takes the next journal position.
	for i, ev := range result.Trace {
		assert.Equal(t, "applied", ev.Type)
		assert.Equal(t, int64(i+1), ev.Seq)
	}
}

func TestRun_RejectionTakesNoSeq(t *testing.T) {
	scenario := &Scenario{
		Name:    "rejection",
		Account: "acct",
		Steps: []Step{
			{Op: "increment", Value: 7},
			{Raw: "09", Expect: &ExpectClause{Error: "UNKNOWN_OPCODE"}},
			{Raw: "0030", Expect: &ExpectClause{Error: "TRUNCATED_PAYLOAD"}},
			{Op: "increment", Value: 1, Expect: &ExpectClause{Counter: u32(8)}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 4)

	assert.Equal(t, "rejected", result.Trace[1].Type)
	assert.Equal(t, "UNKNOWN_OPCODE", result.Trace[1].Error)
	assert.Equal(t, uint32(7), result.Trace[1].Counter, "rejection must not move the counter")
	assert.Equal(t, int64(0), result.Trace[1].Seq)

	// The rejected steps left no gap: the second applied step is seq 2.
	assert.Equal(t, int64(2), result.Trace[3].Seq)
}

func TestRun_CounterMismatchFails(t *testing.T) {
	scenario := &Scenario{
		Name:    "mismatch",
		Account: "acct",
		Steps: []Step{
			{Op: "increment", Value: 48, Expect: &ExpectClause{Counter: u32(49)}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected counter 49, got 48")
}

func TestRun_ExpectedRejectionButApplied(t *testing.T) {
	scenario := &Scenario{
		Name:    "expected-rejection",
		Account: "acct",
		Steps: []Step{
			{Op: "reset", Expect: &ExpectClause{Error: "UNKNOWN_OPCODE"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "but instruction applied")
}

func TestRun_UnexpectedRejectionFails(t *testing.T) {
	scenario := &Scenario{
		Name:    "unexpected-rejection",
		Account: "acct",
		Steps: []Step{
			{Raw: "09"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected rejection")
}

func TestRun_WrongRejectionCodeFails(t *testing.T) {
	scenario := &Scenario{
		Name:    "wrong-code",
		Account: "acct",
		Steps: []Step{
			{Raw: "09", Expect: &ExpectClause{Error: "TRUNCATED_PAYLOAD"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected rejection TRUNCATED_PAYLOAD, got UNKNOWN_OPCODE")
}

func TestRun_AssertionFailures(t *testing.T) {
	scenario := &Scenario{
		Name:    "assertion-failures",
		Account: "acct",
		Steps: []Step{
			{Op: "increment", Value: 5},
		},
		Assertions: []Assertion{
			{Type: "final_counter", Counter: 6},
			{Type: "journal_count", Count: 2},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 2)
}

func TestRun_BadRawHexIsHarnessError(t *testing.T) {
	scenario := &Scenario{
		Name:    "bad-hex",
		Account: "acct",
		Steps: []Step{
			{Raw: "zz"},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid raw hex")
}
