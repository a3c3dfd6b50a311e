// Package store provides SQLite-backed durable storage for tally.
//
// The store holds two tables:
//   - accounts: one row per counter record; state is the raw 4-byte
//     little-endian buffer the core engine reads and writes
//   - journal: an append-only log of applied instructions, one row per
//     successful application
//
// # Invariants
//
// Entry-level idempotency:
//   - journal IDs are content-addressed (account, raw bytes, seq)
//   - INSERT ... ON CONFLICT(id) DO NOTHING makes duplicate writes no-ops
//
// Logical time:
//   - all ordering uses seq INTEGER (logical clock), never timestamps
//   - enables deterministic replay regardless of wall time
//
// Deterministic reads:
//   - journal queries order by seq ASC, id ASC
//   - ensures identical results across replays
//
// Write atomicity:
//   - a journal entry and its account-state update commit in a single
//     transaction; a crash leaves either both or neither
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Content-addressed IDs are computed in hash.go using canonical JSON and
// SHA-256 with domain separation.
package store
