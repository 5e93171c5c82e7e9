package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/chainseal/internal/policy"
	"github.com/roach88/chainseal/internal/runtime"
	"github.com/roach88/chainseal/internal/store"
	"github.com/roach88/chainseal/internal/txbuild"
)

// Config keys persisted at init time.
const (
	configRecordAddress = "record_address"
	configTokenName     = "token_name"
)

// ledgerHandle bundles everything an operating command needs: the open
// store, the runtime hosting the policies, and the tx builder.
type ledgerHandle struct {
	store   *store.Store
	runtime *runtime.Runtime
	builder *txbuild.Builder
}

func (h *ledgerHandle) Close() error {
	return h.store.Close()
}

// openLedger opens an initialized ledger database and reconstructs the
// policies from its persisted genesis configuration. The runtime clock
// resumes from the committed tip.
func openLedger(ctx context.Context, opts *RootOptions) (*ledgerHandle, error) {
	if _, err := os.Stat(opts.DB); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("ledger database not found: %s (run init first)", opts.DB))
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open ledger database", err)
	}

	recordAddress, err := st.GetConfig(configRecordAddress)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to read ledger config", err)
	}
	if recordAddress == "" {
		st.Close()
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("ledger %s is not initialized (run init first)", opts.DB))
	}
	tokenName, err := st.GetConfig(configTokenName)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to read ledger config", err)
	}

	creation, err := policy.NewCreationPolicy(recordAddress, tokenName)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "invalid ledger config", err)
	}
	transition, err := policy.NewTransitionPolicy(recordAddress, tokenName)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "invalid ledger config", err)
	}

	tip, err := st.MaxSeq(ctx)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to read ledger tip", err)
	}

	rt := runtime.NewWithClock(st, creation, transition, runtime.UUIDv7Generator{}, runtime.NewClockAt(tip))

	return &ledgerHandle{
		store:   st,
		runtime: rt,
		builder: &txbuild.Builder{
			RecordAddress: creation.RecordAddress,
			TokenName:     creation.TokenName,
			PolicyID:      creation.ID(),
			Store:         st,
		},
	}, nil
}
