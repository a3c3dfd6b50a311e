package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainEntry is the domain prefix for journal entry identity.
// The version suffix enables future algorithm migration.
const DomainEntry = "tally/entry/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EntryID computes the content-addressed ID for a journal entry.
// The ID is stable across restarts and replays given the same inputs:
// the account, the raw instruction bytes (hex) and the logical seq.
//
// The submission token is intentionally EXCLUDED. The ID represents
// "what was applied, where, at which position" - not which request
// carried it. This keeps provenance links valid when a journal is
// reconstructed from a source that assigned fresh tokens.
func EntryID(account string, raw []byte, seq int64) (string, error) {
	canonical, err := marshalCanonical(map[string]any{
		"account": account,
		"raw":     hex.EncodeToString(raw),
		"seq":     seq,
	})
	if err != nil {
		return "", fmt.Errorf("EntryID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainEntry, canonical), nil
}

// MustEntryID is like EntryID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEntryID(account string, raw []byte, seq int64) string {
	id, err := EntryID(account, raw, seq)
	if err != nil {
		panic(err)
	}
	return id
}
