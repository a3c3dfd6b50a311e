package engine

import (
	"github.com/roach88/tally/internal/instruction"
	"github.com/roach88/tally/internal/state"
)

// Apply computes the next counter from the current counter and one
// decoded instruction. Pure function: no hidden state, total over all
// valid inputs, and it cannot fail - malformed input is rejected
// upstream by instruction.Decode.
//
// Arithmetic contract:
//   - Increment wraps modulo 2^32. The counter is a fixed-width unsigned
//     value and native wraparound is the observed behavior; it must not
//     be widened or saturated.
//   - Decrement clamps at zero when the operand exceeds the counter.
//     Not wraparound, not an error.
//
// The wrap/clamp asymmetry is intentional and load-bearing. Do not make
// the two operations symmetric without a product decision; the tests
// assert the asymmetry explicitly.
func Apply(current state.Counter, in instruction.Instruction) state.Counter {
	switch in.Op {
	case instruction.OpcodeIncrement:
		return current + state.Counter(in.Value)

	case instruction.OpcodeDecrement:
		if state.Counter(in.Value) > current {
			return 0
		}
		return current - state.Counter(in.Value)

	case instruction.OpcodeReset:
		return 0

	case instruction.OpcodeUpdate:
		return state.Counter(in.Value)

	default:
		// Unreachable for decoded instructions; Decode rejects opcodes
		// outside the set. Leave the counter unchanged rather than guess.
		return current
	}
}
