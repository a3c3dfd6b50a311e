package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func testEntry(account string, raw []byte, counter uint32, seq int64) Entry {
	return Entry{
		ID:      MustEntryID(account, raw, seq),
		Account: account,
		Opcode:  raw[0],
		Operand: operandOf(raw),
		Raw:     raw,
		Counter: counter,
		Token:   "test-token",
		Seq:     seq,
	}
}

func operandOf(raw []byte) uint32 {
	if len(raw) < 5 {
		return 0
	}
	return uint32(raw[1]) | uint32(raw[2])<<8 | uint32(raw[3])<<16 | uint32(raw[4])<<24
}

func TestOpen_FileDatabase(t *testing.T) {
	path := t.TempDir() + "/tally.db"

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// Idempotent: reopening applies schema and migrations again.
	st, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())
}

func TestWriteApplied_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	raw := []byte{0x00, 48, 0, 0, 0}
	e := testEntry("acct", raw, 48, 1)

	inserted, err := st.WriteApplied(ctx, e, []byte{48, 0, 0, 0})
	require.NoError(t, err)
	assert.True(t, inserted)

	stateBuf, err := st.ReadAccountState(ctx, "acct")
	require.NoError(t, err)
	assert.Equal(t, []byte{48, 0, 0, 0}, stateBuf)

	got, err := st.ReadEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestWriteApplied_Idempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	raw := []byte{0x00, 48, 0, 0, 0}
	e := testEntry("acct", raw, 48, 1)

	inserted, err := st.WriteApplied(ctx, e, []byte{48, 0, 0, 0})
	require.NoError(t, err)
	require.True(t, inserted)

	// Re-writing the same entry is a no-op and must not move state.
	inserted, err = st.WriteApplied(ctx, e, []byte{96, 0, 0, 0})
	require.NoError(t, err)
	assert.False(t, inserted)

	stateBuf, err := st.ReadAccountState(ctx, "acct")
	require.NoError(t, err)
	assert.Equal(t, []byte{48, 0, 0, 0}, stateBuf, "duplicate write must not change state")

	n, err := st.JournalCount(ctx, "acct")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWriteApplied_DuplicateSeqRejected(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.WriteApplied(ctx, testEntry("acct", []byte{0x00, 1, 0, 0, 0}, 1, 1), []byte{1, 0, 0, 0})
	require.NoError(t, err)

	// A different entry claiming the same seq violates the unique
	// clock position invariant.
	_, err = st.WriteApplied(ctx, testEntry("acct", []byte{0x00, 2, 0, 0, 0}, 3, 1), []byte{3, 0, 0, 0})
	assert.Error(t, err)
}

func TestReadJournal_OrderedBySeq(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Insert out of order; reads must come back in seq order.
	for _, seq := range []int64{3, 1, 2} {
		raw := []byte{0x00, byte(seq), 0, 0, 0}
		_, err := st.WriteApplied(ctx, testEntry("acct", raw, uint32(seq), seq), []byte{byte(seq), 0, 0, 0})
		require.NoError(t, err)
	}

	entries, err := st.ReadJournal(ctx, "acct")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, int64(i+1), e.Seq)
	}
}

func TestReadJournal_FiltersByAccount(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.WriteApplied(ctx, testEntry("a", []byte{0x03}, 0, 1), []byte{0, 0, 0, 0})
	require.NoError(t, err)
	_, err = st.WriteApplied(ctx, testEntry("b", []byte{0x03}, 0, 2), []byte{0, 0, 0, 0})
	require.NoError(t, err)

	entries, err := st.ReadJournal(ctx, "a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Account)
}

func TestReadAccountState_NotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.ReadAccountState(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCreateAccount_ZeroState(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateAccount(ctx, "fresh", 4))

	stateBuf, err := st.ReadAccountState(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, stateBuf)

	// Idempotent.
	require.NoError(t, st.CreateAccount(ctx, "fresh", 4))
}

func TestMaxSeq(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seq, err := st.MaxSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq, "empty journal starts at 0")

	_, err = st.WriteApplied(ctx, testEntry("acct", []byte{0x03}, 0, 7), []byte{0, 0, 0, 0})
	require.NoError(t, err)

	seq, err = st.MaxSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)
}

func TestListAccounts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateAccount(ctx, "b", 4))
	require.NoError(t, st.CreateAccount(ctx, "a", 4))

	ids, err := st.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestVerifyPragmas(t *testing.T) {
	st := newTestStore(t)

	// In-memory databases report journal_mode=memory; the remaining
	// pragmas must hold as configured.
	var fk int
	require.NoError(t, st.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	var timeout int
	require.NoError(t, st.DB().QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}
