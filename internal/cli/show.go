package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/chainseal/internal/ledger"
)

// RecordView is one live record in the show command's output.
type RecordView struct {
	Index    int               `json:"index"`
	OutPoint string            `json:"outpoint"`
	Owner    ledger.Credential `json:"owner"`
	Payload  int64             `json:"payload"`
	Seq      int64             `json:"seq"`
}

// ShowResult is the show command's output payload.
type ShowResult struct {
	RecordAddress string       `json:"record_address"`
	Records       []RecordView `json:"records"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show live records",
		Long: `List the live records at the record address in deterministic order.

The index shown is the one advance --record selects by.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, cmd)
		},
	}
	return cmd
}

func runShow(opts *RootOptions, cmd *cobra.Command) error {
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

	live, err := handle.store.LiveAtAddress(ctx, handle.builder.RecordAddress)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read live records", err)
	}

	result := ShowResult{
		RecordAddress: handle.builder.RecordAddress,
		Records:       []RecordView{},
	}
	for _, u := range live {
		if u.Output.Datum == nil {
			continue
		}
		result.Records = append(result.Records, RecordView{
			Index:    len(result.Records),
			OutPoint: u.OutPoint.String(),
			Owner:    u.Output.Datum.Owner,
			Payload:  u.Output.Datum.Payload,
			Seq:      u.CreatedSeq,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	if len(result.Records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No live records.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Live records at %s:\n", result.RecordAddress)
	for _, r := range result.Records {
		fmt.Fprintf(cmd.OutOrStdout(), "  [%d] payload=%d owner=%s seq=%d %s\n",
			r.Index, r.Payload, r.Owner, r.Seq, r.OutPoint)
	}
	return nil
}
