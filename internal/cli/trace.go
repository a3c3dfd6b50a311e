package cli

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/instruction"
	"github.com/roach88/tally/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Account string
}

// TraceEvent represents one journal entry in the timeline.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	ID      string `json:"id"`
	Op      string `json:"op"`
	Operand uint32 `json:"operand"`
	Raw     string `json:"raw"`
	Counter uint32 `json:"counter"`
	Token   string `json:"token"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Account  string       `json:"account"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Entries int    `json:"entries"`
	Counter uint32 `json:"counter"` // counter after the last entry
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the instruction journal for an account",
		Long: `Show the journal timeline for a counter account: every applied
instruction in logical order with the counter value it produced.

Examples:
  tally trace --db ./tally.db --account default
  tally trace --db ./tally.db --account payments --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Account, "account", "default", "counter account to trace")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	dbPath, err := opts.requireDatabase()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	entries, err := st.ReadJournal(ctx, opts.Account)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := TraceResult{
		Account:  opts.Account,
		Timeline: make([]TraceEvent, 0, len(entries)),
	}
	for _, e := range entries {
		result.Timeline = append(result.Timeline, TraceEvent{
			Seq:     e.Seq,
			ID:      e.ID,
			Op:      instruction.Opcode(e.Opcode).String(),
			Operand: e.Operand,
			Raw:     hex.EncodeToString(e.Raw),
			Counter: e.Counter,
			Token:   e.Token,
		})
	}
	result.Stats.Entries = len(entries)
	if n := len(entries); n > 0 {
		result.Stats.Counter = entries[n-1].Counter
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "journal for %s (%d entries):\n", result.Account, result.Stats.Entries)
	for _, e := range entries {
		in := instruction.Instruction{Op: instruction.Opcode(e.Opcode), Value: e.Operand}
		fmt.Fprintf(w, "  %4d  %-16s counter=%-10d %s\n", e.Seq, in.String(), e.Counter, e.ID[:12])
	}
	return nil
}
