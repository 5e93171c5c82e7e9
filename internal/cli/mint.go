package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/chainseal/internal/ledger"
	"github.com/roach88/chainseal/internal/txbuild"
)

// MintOptions holds flags for the mint command.
type MintOptions struct {
	*RootOptions
	Owner   string
	Records int
}

// NewMintCommand creates the mint command.
func NewMintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MintOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Initialize new records under the creation policy",
		Long: `Submit a creation transaction.

Mints one proof token per record and deposits each record at the record
address with payload 0, tagged with the creation policy's identity. The
owner must sign; here the owner flag stands in for the signature.

Exit codes:
  0 - Transaction accepted
  1 - Transaction rejected by policy
  2 - Command error

Examples:
  chainseal mint --owner alice
  chainseal mint --owner alice --records 3 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMint(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Owner, "owner", "", "record owner credential (required)")
	cmd.Flags().IntVar(&opts.Records, "records", 1, "number of records to initialize")
	cmd.MarkFlagRequired("owner")

	return cmd
}

func runMint(opts *MintOptions, cmd *cobra.Command) error {
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

	tx, err := handle.builder.Mint(txbuild.MintParams{
		Owner:   ledger.Credential(opts.Owner),
		Records: opts.Records,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build transaction", err)
	}

	formatter.VerboseLog("submitting mint of %d record(s) for %s", opts.Records, opts.Owner)

	verdict, err := handle.runtime.Apply(ctx, tx)
	if err != nil {
		return WrapExitError(ExitCommandError, "verification failed", err)
	}

	return emitVerdict(cmd, formatter, verdict)
}
