package harness

import (
	"context"
	"fmt"

	"github.com/roach88/chainseal/internal/ledger"
	"github.com/roach88/chainseal/internal/txbuild"
)

// build translates a scenario step into builder parameters. The
// malformation knobs map one to one; the defaults produce well-formed
// transactions.
func build(ctx context.Context, b *txbuild.Builder, step *Step) (*ledger.Tx, error) {
	switch step.Action {
	case "mint":
		owner := ledger.Credential(step.Owner)
		if owner == "" {
			owner = "alice"
		}
		params := txbuild.MintParams{
			Owner:     owner,
			Records:   step.Records,
			Tag:       ledger.PolicyID(step.Tag),
			Unsigned:  step.Unsigned,
			SkipDatum: step.SkipDatum,
		}
		if step.MintQuantity != nil {
			params.MintQuantity = *step.MintQuantity
		}
		if step.Payload != nil {
			params.Payload = *step.Payload
		}
		return b.Mint(params)

	case "advance":
		return b.Advance(ctx, txbuild.AdvanceParams{
			Record:    step.Record,
			Payload:   step.Payload,
			Unsigned:  step.Unsigned,
			DropToken: step.DropToken,
		})

	default:
		return nil, fmt.Errorf("unknown action %q", step.Action)
	}
}
