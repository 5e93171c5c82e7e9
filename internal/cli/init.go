package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/chainseal/internal/ledger"
	"github.com/roach88/chainseal/internal/store"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Genesis string // path to the genesis CUE file
}

// InitResult is the init command's output payload.
type InitResult struct {
	DB            string          `json:"db"`
	RecordAddress string          `json:"record_address"`
	TokenName     string          `json:"token_name"`
	PolicyID      ledger.PolicyID `json:"policy_id"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a ledger database from a genesis file",
		Long: `Initialize a new ledger database.

Reads the genesis CUE file, derives the creation policy's identity from
its parameters, and persists the configuration. Re-running init against
an existing ledger with the same genesis is a no-op; a different genesis
is rejected, since the policy identity is baked into committed records.

Examples:
  chainseal init --db ledger.db --genesis genesis.cue
  chainseal init --genesis genesis.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Genesis, "genesis", "genesis.cue", "path to the genesis CUE file")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := LoadGenesis(opts.Genesis)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid genesis", err)
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ledger database", err)
	}
	defer st.Close()

	// Refuse to silently re-parameterize an existing ledger. Both genesis
	// parameters feed the derived policy identity, so a change to either
	// one would orphan every committed record.
	existingAddr, err := st.GetConfig(configRecordAddress)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read ledger config", err)
	}
	if existingAddr != "" && existingAddr != cfg.RecordAddress {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("ledger already initialized with record address %q", existingAddr))
	}
	existingToken, err := st.GetConfig(configTokenName)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read ledger config", err)
	}
	if existingToken != "" && existingToken != cfg.TokenName {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("ledger already initialized with token name %q", existingToken))
	}

	if err := st.SetConfig(configRecordAddress, cfg.RecordAddress); err != nil {
		return WrapExitError(ExitCommandError, "failed to write ledger config", err)
	}
	if err := st.SetConfig(configTokenName, cfg.TokenName); err != nil {
		return WrapExitError(ExitCommandError, "failed to write ledger config", err)
	}

	policyID, err := ledger.DerivePolicyID(cfg.RecordAddress, cfg.TokenName)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to derive policy id", err)
	}

	formatter.VerboseLog("initialized %s from %s", opts.DB, opts.Genesis)

	if opts.Format == "json" {
		return formatter.Success(InitResult{
			DB:            opts.DB,
			RecordAddress: cfg.RecordAddress,
			TokenName:     cfg.TokenName,
			PolicyID:      policyID,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledger %s\n", opts.DB)
	fmt.Fprintf(cmd.OutOrStdout(), "  record address: %s\n", cfg.RecordAddress)
	fmt.Fprintf(cmd.OutOrStdout(), "  token name:     %s\n", cfg.TokenName)
	fmt.Fprintf(cmd.OutOrStdout(), "  policy id:      %s\n", policyID)
	return nil
}
