package engine

import (
	"github.com/roach88/tally/internal/instruction"
	"github.com/roach88/tally/internal/state"
)

// Process executes one host invocation: decode the raw instruction
// buffer, load the counter from the persisted-state buffer, apply the
// transition and write the next counter back into the same buffer.
//
// The caller observes either "counter updated" (nil) or a whole-invocation
// rejection; there is no partial application. Every error path leaves
// stateBuf byte-for-byte unchanged:
//   - decode errors fire before the state buffer is touched
//   - a load failure means nothing was written
//   - a store failure is checked against the buffer length before any
//     bytes are copied (state.Counter.Store copies atomically)
//
// Process is synchronous and non-suspending. Exclusive ownership of
// stateBuf for the duration of the call is the host's responsibility.
func Process(data []byte, stateBuf []byte) error {
	in, err := instruction.Decode(data)
	if err != nil {
		return err
	}

	current, err := state.Load(stateBuf)
	if err != nil {
		return err
	}

	next := Apply(current, in)
	return next.Store(stateBuf)
}
