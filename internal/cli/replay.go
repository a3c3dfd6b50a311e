package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/engine"
	"github.com/roach88/tally/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Account string // optional - specific account only
}

// ReplayReport holds the overall replay result.
type ReplayReport struct {
	Accounts         []engine.ReplayResult `json:"accounts"`
	TotalAccounts    int                   `json:"total_accounts"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the journal and verify determinism",
		Long: `Re-apply every journaled instruction from a zero counter and verify
the recomputed value matches the stored account state.

A divergence means the journal and the state no longer agree - the
database was modified out of band or the transition semantics changed.

Exit codes:
  0 - all accounts are deterministic
  1 - determinism verification failed (divergence detected)
  2 - command error (database not found, etc.)

Examples:
  tally replay --db ./tally.db
  tally replay --db ./tally.db --account payments
  tally replay --db ./tally.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Account, "account", "", "replay a specific account only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
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

	var results []engine.ReplayResult
	if opts.Account != "" {
		r, err := engine.ReplayAccount(ctx, st, opts.Account)
		if err != nil {
			return WrapExitError(ExitCommandError, "replay failed", err)
		}
		results = []engine.ReplayResult{r}
	} else {
		results, err = engine.ReplayAll(ctx, st)
		if err != nil {
			return WrapExitError(ExitCommandError, "replay failed", err)
		}
	}

	report := ReplayReport{
		Accounts:         results,
		TotalAccounts:    len(results),
		AllDeterministic: true,
	}
	for _, r := range results {
		if !r.Deterministic {
			report.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		if err := opts.formatter(cmd).Success(report); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
	} else {
		w := cmd.OutOrStdout()
		for _, r := range results {
			verdict := "ok"
			if !r.Deterministic {
				verdict = "DIVERGED"
			}
			fmt.Fprintf(w, "%-20s entries=%-6d recomputed=%-10d stored=%-10d %s\n",
				r.Account, r.Entries, r.Recomputed, r.Stored, verdict)
		}
		fmt.Fprintf(w, "%d account(s) replayed\n", report.TotalAccounts)
	}

	if !report.AllDeterministic {
		return NewExitError(ExitFailure, "replay diverged from stored state")
	}
	return nil
}
