package engine

import (
	"context"
	"fmt"

	"github.com/roach88/tally/internal/instruction"
	"github.com/roach88/tally/internal/state"
	"github.com/roach88/tally/internal/store"
)

// ReplayResult reports the outcome of replaying one account's journal.
type ReplayResult struct {
	Account       string `json:"account"`
	Entries       int    `json:"entries"`
	Recomputed    uint32 `json:"recomputed"`
	Stored        uint32 `json:"stored"`
	Deterministic bool   `json:"deterministic"`
}

// ReplayAccount re-derives an account's counter from its journal and
// compares it against the stored state.
//
// Every account starts from a zero counter, so replay re-decodes each
// journaled instruction buffer in seq order and re-applies the pure
// transition. A divergence means the journal and the state no longer
// agree - either the store was modified out of band or the transition
// function changed between writes, both of which break the determinism
// guarantee.
//
// Each journaled entry's recorded counter is also checked against the
// recomputed value at that step, so the result pinpoints corruption even
// when the final values happen to collide.
func ReplayAccount(ctx context.Context, st *store.Store, account string) (ReplayResult, error) {
	result := ReplayResult{Account: account}

	entries, err := st.ReadJournal(ctx, account)
	if err != nil {
		return result, fmt.Errorf("replay account %q: %w", account, err)
	}
	result.Entries = len(entries)

	var counter state.Counter
	stepsMatch := true
	for _, entry := range entries {
		in, err := instruction.Decode(entry.Raw)
		if err != nil {
			// Journaled buffers decoded successfully when they were
			// applied; failing now means the journal itself is corrupt.
			return result, fmt.Errorf("replay account %q: entry %s no longer decodes: %w", account, entry.ID, err)
		}
		counter = Apply(counter, in)
		if uint32(counter) != entry.Counter {
			stepsMatch = false
		}
	}
	result.Recomputed = uint32(counter)

	stateBuf, err := st.ReadAccountState(ctx, account)
	if err != nil {
		return result, fmt.Errorf("replay account %q: %w", account, err)
	}
	stored, err := state.Load(stateBuf)
	if err != nil {
		return result, fmt.Errorf("replay account %q: %w", account, err)
	}
	result.Stored = uint32(stored)

	result.Deterministic = stepsMatch && result.Recomputed == result.Stored
	return result, nil
}

// ReplayAll replays every account in the store, in lexicographic account
// order for stable output.
func ReplayAll(ctx context.Context, st *store.Store) ([]ReplayResult, error) {
	accounts, err := st.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay all: %w", err)
	}

	results := make([]ReplayResult, 0, len(accounts))
	for _, account := range accounts {
		r, err := ReplayAccount(ctx, st, account)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}
