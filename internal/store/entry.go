package store

// Entry is one applied instruction in the journal.
//
// An entry records what was applied (the raw wire bytes plus the decoded
// opcode/operand for queryability), where (the account), when in logical
// time (seq) and the counter value that resulted. The recorded counter
// lets replay verify every intermediate step, not just the final state.
type Entry struct {
	// ID is the content-addressed identity of this application,
	// stable across restarts and replays. See EntryID.
	ID string `json:"id"`

	// Account names the counter record the instruction was applied to.
	Account string `json:"account"`

	// Opcode and Operand are the decoded instruction fields.
	// Operand is 0 for operand-free opcodes.
	Opcode  uint8  `json:"opcode"`
	Operand uint32 `json:"operand"`

	// Raw holds the instruction buffer exactly as submitted.
	Raw []byte `json:"-"`

	// Counter is the account's counter value after this application.
	Counter uint32 `json:"counter"`

	// Token correlates the entry with the external request that
	// submitted it.
	Token string `json:"token"`

	// Seq is the logical clock position of this application.
	Seq int64 `json:"seq"`
}
