package cli

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/instruction"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
}

// DecodedInstruction is the decode command's output payload.
type DecodedInstruction struct {
	Opcode     uint8  `json:"opcode"`
	Op         string `json:"op"`
	Value      uint32 `json:"value"`
	HasOperand bool   `json:"has_operand"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode <hex-bytes>",
		Short: "Decode a raw instruction buffer",
		Long: `Decode a hex-encoded instruction buffer and print the typed instruction.

Nothing is applied and no database is touched - this inspects the wire
bytes exactly as the engine would.

Exit codes:
  0 - buffer decodes to a valid instruction
  1 - buffer rejected (unknown opcode or truncated payload)
  2 - command error (invalid hex)

Examples:
  tally decode 0030000000            # increment(48)
  tally decode 0x03                  # reset
  tally decode 09 --format json      # rejected: UNKNOWN_OPCODE`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, args[0], cmd)
		},
	}

	return cmd
}

func runDecode(opts *DecodeOptions, arg string, cmd *cobra.Command) error {
	data, err := hex.DecodeString(strings.TrimPrefix(arg, "0x"))
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid hex %q", arg), err)
	}

	out := opts.formatter(cmd)

	in, err := instruction.Decode(data)
	if err != nil {
		var de *instruction.DecodeError
		if errors.As(err, &de) {
			if ferr := out.Failure(string(de.Code), de.Message); ferr != nil {
				return WrapExitError(ExitCommandError, "failed to write output", ferr)
			}
			return WrapExitError(ExitFailure, "instruction rejected", err)
		}
		return WrapExitError(ExitCommandError, "decode failed", err)
	}

	if opts.Format == "json" {
		return out.Success(DecodedInstruction{
			Opcode:     uint8(in.Op),
			Op:         in.Op.String(),
			Value:      in.Value,
			HasOperand: in.Op.HasOperand(),
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), in.String())
	return nil
}
