package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/chainseal/internal/txbuild"
)

// AdvanceOptions holds flags for the advance command.
type AdvanceOptions struct {
	*RootOptions
	Record  int
	Payload int64
}

// NewAdvanceCommand creates the advance command.
func NewAdvanceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AdvanceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Advance a live record under the transition policy",
		Long: `Submit a transition transaction.

Consumes a live record and produces its successor with the payload
incremented by one, carrying the proof token forward. The record is
selected by its position in the deterministic live order (see show).

The --payload flag overrides the successor payload. Anything other than
predecessor+1 will be rejected; the flag exists to demonstrate the
rejection.

Exit codes:
  0 - Transaction accepted
  1 - Transaction rejected by policy
  2 - Command error

Examples:
  chainseal advance
  chainseal advance --record 2
  chainseal advance --payload 7   # rejected: PAYLOAD_RULE`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdvance(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Record, "record", 0, "live record index to advance")
	cmd.Flags().Int64Var(&opts.Payload, "payload", -1, "successor payload override (-1 = increment)")

	return cmd
}

func runAdvance(opts *AdvanceOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := cmd.Context()

	handle, err := openLedger(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer handle.Close()

	params := txbuild.AdvanceParams{Record: opts.Record}
	if opts.Payload >= 0 {
		params.Payload = &opts.Payload
	}

	tx, err := handle.builder.Advance(ctx, params)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build transaction", err)
	}

	formatter.VerboseLog("submitting advance of record %d", opts.Record)

	verdict, err := handle.runtime.Apply(ctx, tx)
	if err != nil {
		return WrapExitError(ExitCommandError, "verification failed", err)
	}

	return emitVerdict(cmd, formatter, verdict)
}
