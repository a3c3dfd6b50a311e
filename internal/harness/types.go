package harness

// TraceEvent is one step outcome in a scenario trace.
//
// Applied steps record the instruction, the resulting counter and the
// journal seq. Rejected steps record the rejection code instead; they
// consume no seq (the engine takes a clock position only after a
// successful decode), so Seq stays 0 for them.
type TraceEvent struct {
	Type    string `json:"type"` // "applied" or "rejected"
	Op      string `json:"op,omitempty"`
	Value   uint32 `json:"value"`
	Counter uint32 `json:"counter"`
	Seq     int64  `json:"seq"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if all expect clauses and assertions hold.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// FinalCounter is the account's stored counter after all steps.
	FinalCounter uint32 `json:"final_counter"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddAppliedTrace records a successfully applied step.
func (r *Result) AddAppliedTrace(op string, value, counter uint32, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:    "applied",
		Op:      op,
		Value:   value,
		Counter: counter,
		Seq:     seq,
	})
}

// AddRejectedTrace records a rejected step.
// counter is the (unchanged) value at the time of rejection.
func (r *Result) AddRejectedTrace(counter uint32, errCode string) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:    "rejected",
		Counter: counter,
		Error:   errCode,
	})
}
