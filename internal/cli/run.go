package cli

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/engine"
	"github.com/roach88/tally/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Account string

	// TokenGenerator allows overriding the token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	TokenGenerator engine.TokenGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the engine loop, feeding instructions from stdin",
		Long: `Start the single-writer engine loop and feed it instruction buffers
from stdin, one hex-encoded buffer per line.

Each line is either "<hex>" (applied to --account) or "<account> <hex>".
Blank lines and lines starting with # are skipped. The loop drains the
queue and exits on EOF, SIGINT or SIGTERM; malformed buffers are logged
and skipped without stopping the loop.

Examples:
  printf '0030000000\n0110000000\n' | tally run --db ./tally.db
  tally run --db ./tally.db --account payments < instructions.txt`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Account, "account", "default", "default account for lines without one")

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	dbPath, err := opts.requireDatabase()
	if err != nil {
		return err
	}

	slog.Info("opening database", "path", dbPath)
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// Resume the logical clock from the last journaled position.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	maxSeq, err := st.MaxSeq(parentCtx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal position", err)
	}

	tokenGen := opts.TokenGenerator
	if tokenGen == nil {
		tokenGen = engine.UUIDv7Generator{}
	}
	eng := engine.NewWithClock(st, tokenGen, engine.NewClockAt(maxSeq))

	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- eng.Run(ctx)
	}()

	if err := feedSubmissions(ctx, eng, cmd.InOrStdin(), opts.Account); err != nil {
		eng.Stop()
		<-errCh
		return err
	}

	// EOF: close the queue so Run returns once pending submissions drain.
	eng.Stop()

	if err := <-errCh; err != nil && ctx.Err() == nil {
		return WrapExitError(ExitCommandError, "engine loop failed", err)
	}
	return nil
}

// feedSubmissions parses stdin lines into submissions and enqueues them.
// Line format: "<hex>" or "<account> <hex>". Invalid hex is a command
// error (the line could not be turned into a submission at all);
// malformed instruction bytes inside valid hex are left for the engine
// to reject in journal order.
func feedSubmissions(ctx context.Context, eng *engine.Engine, in io.Reader, defaultAccount string) error {
	scanner := bufio.NewScanner(in)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		account := defaultAccount
		hexPart := line
		if fields := strings.Fields(line); len(fields) == 2 {
			account, hexPart = fields[0], fields[1]
		} else if len(fields) > 2 {
			return NewExitError(ExitCommandError,
				fmt.Sprintf("line %d: want \"<hex>\" or \"<account> <hex>\", got %d fields", lineNo, len(fields)))
		}

		data, err := hex.DecodeString(strings.TrimPrefix(hexPart, "0x"))
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("line %d: invalid hex", lineNo), err)
		}

		if !eng.Enqueue(engine.Submission{
			Account: account,
			Data:    data,
			Token:   eng.NewToken(),
		}) {
			return nil // engine stopped
		}
	}

	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}
	return nil
}
