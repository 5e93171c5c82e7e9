package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/chainseal/internal/store"
)

// LogResult is the log command's output payload.
type LogResult struct {
	Verdicts []store.Verdict `json:"verdicts"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the submission log",
		Long: `Print every verdict the verifier has issued, in order.

Rejections stay in the log even though they never touch ledger state;
the log is the audit trail of what was attempted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(rootOpts, cmd)
		},
	}
	return cmd
}

func runLog(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
	ctx := cmd.Context()

	handle, err := openLedger(ctx, opts)
	if err != nil {
		return err
	}
	defer handle.Close()

	verdicts, err := handle.store.Verdicts(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read submission log", err)
	}

	if opts.Format == "json" {
		return formatter.Success(LogResult{Verdicts: verdicts})
	}

	if len(verdicts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No submissions.")
		return nil
	}
	for _, v := range verdicts {
		if v.Accepted {
			fmt.Fprintf(cmd.OutOrStdout(), "seq=%d ACCEPT tx=%s token=%s\n", v.Seq, v.TxID, v.Token)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "seq=%d REJECT [%s] tx=%s token=%s %s\n",
				v.Seq, v.Code, v.TxID, v.Token, v.Detail)
		}
	}
	return nil
}
