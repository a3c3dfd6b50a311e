package store

import (
	"context"
	"encoding/hex"
	"fmt"
)

// WriteApplied records one applied instruction: the journal entry and
// the account's new state buffer commit in a single transaction.
// A crash leaves either both writes or neither - the journal can never
// get ahead of the state or vice versa.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: re-writing an entry
// that is already journaled (same content-addressed ID) skips the state
// update too and returns inserted=false. Other constraint violations
// (NOT NULL, the unique seq index) still return errors.
func (s *Store) WriteApplied(ctx context.Context, e Entry, newState []byte) (inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write applied: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Account row must exist before the journal row (foreign key).
	// The state value is written below only when the entry is new.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (id, state) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, e.Account, newState); err != nil {
		return false, fmt.Errorf("write applied: ensure account: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO journal
		(id, account_id, opcode, operand, raw, counter, token, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.Account,
		e.Opcode,
		e.Operand,
		hex.EncodeToString(e.Raw),
		e.Counter,
		e.Token,
		e.Seq,
	)
	if err != nil {
		return false, fmt.Errorf("write applied: insert entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write applied: rows affected: %w", err)
	}

	if rows == 0 {
		// Entry already journaled - leave the stored state as-is so a
		// duplicate write cannot move the counter twice.
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("write applied: commit: %w", err)
		}
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET state = ? WHERE id = ?
	`, newState, e.Account); err != nil {
		return false, fmt.Errorf("write applied: update state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write applied: commit: %w", err)
	}

	return true, nil
}

// CreateAccount inserts an account with a zero-initialized state buffer.
// Idempotent: creating an existing account is a no-op.
func (s *Store) CreateAccount(ctx context.Context, id string, size int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, state) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, make([]byte, size))
	if err != nil {
		return fmt.Errorf("create account %q: %w", id, err)
	}
	return nil
}
