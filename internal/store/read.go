package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrAccountNotFound indicates the account has no row yet. Callers that
// implement "first write creates the account" treat this as a zero
// counter rather than an error.
var ErrAccountNotFound = errors.New("account not found")

// ReadAccountState returns the account's raw state buffer.
// The buffer is a copy; mutating it does not touch the store.
func (s *Store) ReadAccountState(ctx context.Context, id string) ([]byte, error) {
	var stateBuf []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT state FROM accounts WHERE id = ?
	`, id).Scan(&stateBuf)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read account %q: %w", id, ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read account %q: %w", id, err)
	}
	return stateBuf, nil
}

// ReadJournal returns the account's journal entries in application
// order. Ordering is always seq ASC, id ASC so replays see an identical
// sequence every time.
func (s *Store) ReadJournal(ctx context.Context, account string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, opcode, operand, raw, counter, token, seq
		FROM journal
		WHERE account_id = ?
		ORDER BY seq ASC, id ASC
	`, account)
	if err != nil {
		return nil, fmt.Errorf("read journal for %q: %w", account, err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ReadEntry returns a single journal entry by its content-addressed ID.
func (s *Store) ReadEntry(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, opcode, operand, raw, counter, token, seq
		FROM journal
		WHERE id = ?
	`, id)

	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("read entry %q: %w", id, err)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("read entry %q: %w", id, err)
	}
	return e, nil
}

// ListAccounts returns all account IDs in lexicographic order.
func (s *Store) ListAccounts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM accounts ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list accounts: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return ids, nil
}

// JournalCount returns the number of journal entries for an account.
func (s *Store) JournalCount(ctx context.Context, account string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM journal WHERE account_id = ?
	`, account).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("journal count for %q: %w", account, err)
	}
	return n, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan entries: %w", err)
	}
	return entries, nil
}

func scanEntry(scan func(...any) error) (Entry, error) {
	var e Entry
	var rawHex string
	if err := scan(&e.ID, &e.Account, &e.Opcode, &e.Operand, &rawHex, &e.Counter, &e.Token, &e.Seq); err != nil {
		return Entry{}, err
	}
	raw, err := hex.DecodeString(rawHex)
	if err != nil {
		return Entry{}, fmt.Errorf("decode raw hex for entry %s: %w", e.ID, err)
	}
	e.Raw = raw
	return e, nil
}
