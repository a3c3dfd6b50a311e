package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tally/internal/instruction"
	"github.com/roach88/tally/internal/state"
)

func TestProcess_Increment(t *testing.T) {
	stateBuf := make([]byte, state.Size)

	err := Process([]byte{0x00, 48, 0, 0, 0}, stateBuf)
	require.NoError(t, err)
	assert.Equal(t, []byte{48, 0, 0, 0}, stateBuf)
}

func TestProcess_FullFlow(t *testing.T) {
	// One invocation per instruction against the same persisted buffer,
	// exactly as a host would drive the core.
	stateBuf := make([]byte, state.Size)

	steps := []struct {
		data []byte
		want uint32
	}{
		{[]byte{0x00, 48, 0, 0, 0}, 48},  // increment(48)
		{[]byte{0x01, 16, 0, 0, 0}, 32},  // decrement(16)
		{[]byte{0x01, 100, 0, 0, 0}, 0},  // decrement(100), clamped
		{[]byte{0x02, 33, 0, 0, 0}, 33},  // update(33)
		{[]byte{0x03}, 0},                // reset
	}

	for _, step := range steps {
		require.NoError(t, Process(step.data, stateBuf))
		c, err := state.Load(stateBuf)
		require.NoError(t, err)
		assert.Equal(t, state.Counter(step.want), c)
	}
}

func TestProcess_UnknownOpcode_NoMutation(t *testing.T) {
	stateBuf := []byte{48, 0, 0, 0}

	err := Process([]byte{0x09}, stateBuf)
	require.Error(t, err)
	assert.True(t, instruction.IsUnknownOpcode(err))
	assert.Equal(t, []byte{48, 0, 0, 0}, stateBuf, "rejected invocation must not mutate state")
}

func TestProcess_TruncatedPayload_NoMutation(t *testing.T) {
	stateBuf := []byte{48, 0, 0, 0}

	err := Process([]byte{0x00, 1, 2}, stateBuf)
	require.Error(t, err)
	assert.True(t, instruction.IsTruncatedPayload(err))
	assert.Equal(t, []byte{48, 0, 0, 0}, stateBuf)
}

func TestProcess_ShortStateBuffer(t *testing.T) {
	stateBuf := []byte{1, 2}

	err := Process([]byte{0x00, 48, 0, 0, 0}, stateBuf)
	require.Error(t, err)
	assert.True(t, state.IsDeserializationError(err))
	assert.Equal(t, []byte{1, 2}, stateBuf)
}
