// Package txbuild constructs candidate transactions against live ledger
// state. The CLI builds well-formed transactions from user intent; the
// conformance harness additionally uses the malformation knobs to script
// the attacks the policies must reject.
package txbuild

import (
	"context"
	"fmt"

	"github.com/roach88/chainseal/internal/ledger"
	"github.com/roach88/chainseal/internal/store"
)

// Builder constructs transactions for one policy instance. It reads the
// committed UTXO set to aim transitions at live records.
type Builder struct {
	RecordAddress string
	TokenName     string
	PolicyID      ledger.PolicyID
	Store         *store.Store
}

// MintParams describes a creation transaction. The zero value plus an
// Owner builds a single well-formed record.
type MintParams struct {
	// Owner is the record owner credential. Required.
	Owner ledger.Credential

	// Records is the number of records to initialize. Defaults to 1.
	Records int

	// MintQuantity overrides the minted token quantity. Surplus over
	// the deposited records is parked at the owner's wallet so the
	// transaction still balances. Zero means mint exactly Records.
	MintQuantity int64

	// Payload overrides the initial payload (default 0).
	Payload int64

	// Tag overrides the authorizing tag (default: the policy's own ID).
	Tag ledger.PolicyID

	// Unsigned omits the owner signature.
	Unsigned bool

	// SkipDatum omits the datum from each record output.
	SkipDatum bool
}

// AdvanceParams describes a transition transaction. The zero value
// advances the first live record by one.
type AdvanceParams struct {
	// Record selects which live record to consume, by the store's
	// deterministic order.
	Record int

	// Payload overrides the successor payload. Nil means predecessor+1.
	Payload *int64

	// Unsigned omits the owner signature.
	Unsigned bool

	// DropToken diverts the proof token to the owner's wallet instead
	// of the successor. The transaction still balances.
	DropToken bool
}

// WalletOf is the wallet address convention for credentials. Surplus
// and diverted tokens are parked here so malformed transactions still
// balance and reach the policies rather than the arithmetic check.
func WalletOf(owner ledger.Credential) string {
	return "addr_wallet_" + string(owner)
}

// Mint constructs a creation transaction: one output per record, each
// holding one proof token, plus the mint itself.
func (b *Builder) Mint(p MintParams) (*ledger.Tx, error) {
	if p.Owner == "" {
		return nil, fmt.Errorf("mint: owner is required")
	}
	records := p.Records
	if records == 0 {
		records = 1
	}
	if records < 0 {
		return nil, fmt.Errorf("mint: records must be positive, got %d", records)
	}

	tag := p.Tag
	if tag == "" {
		tag = b.PolicyID
	}

	tx := &ledger.Tx{}
	for i := 0; i < records; i++ {
		out := ledger.Output{
			Address: b.RecordAddress,
			Value:   ledger.SingleAsset(b.PolicyID, b.TokenName, 1),
		}
		if !p.SkipDatum {
			out.Datum = &ledger.RecordDatum{
				Owner:          p.Owner,
				AuthorizingTag: tag,
				Payload:        p.Payload,
			}
		}
		tx.Outputs = append(tx.Outputs, out)
	}

	minted := p.MintQuantity
	if minted == 0 {
		minted = int64(records)
	}
	tx.Mint = ledger.SingleAsset(b.PolicyID, b.TokenName, minted)

	if surplus := minted - int64(records); surplus > 0 {
		tx.Outputs = append(tx.Outputs, ledger.Output{
			Address: WalletOf(p.Owner),
			Value:   ledger.SingleAsset(b.PolicyID, b.TokenName, surplus),
		})
	}

	if !p.Unsigned {
		tx.Signatories = []ledger.Credential{p.Owner}
	}
	return tx, nil
}

// Advance constructs a transition consuming one live record and
// producing its successor at output index 0.
func (b *Builder) Advance(ctx context.Context, p AdvanceParams) (*ledger.Tx, error) {
	live, err := b.Store.LiveAtAddress(ctx, b.RecordAddress)
	if err != nil {
		return nil, fmt.Errorf("advance: %w", err)
	}
	if p.Record < 0 || p.Record >= len(live) {
		return nil, fmt.Errorf("advance: record %d requested but only %d live", p.Record, len(live))
	}
	prev := live[p.Record]
	if prev.Output.Datum == nil {
		return nil, fmt.Errorf("advance: record %s has no datum", prev.OutPoint)
	}

	payload := prev.Output.Datum.Payload + 1
	if p.Payload != nil {
		payload = *p.Payload
	}

	successor := ledger.Output{
		Address: b.RecordAddress,
		Value:   prev.Output.Value.Clone(),
		Datum: &ledger.RecordDatum{
			Owner:          prev.Output.Datum.Owner,
			AuthorizingTag: prev.Output.Datum.AuthorizingTag,
			Payload:        payload,
		},
	}

	tx := &ledger.Tx{
		Inputs: []ledger.Input{{
			OutPoint: prev.OutPoint,
			Redeemer: &ledger.SpendRedeemer{Successor: 0},
		}},
	}

	if p.DropToken {
		diverted := successor.Value
		successor.Value = ledger.NewValue()
		tx.Outputs = append(tx.Outputs, successor, ledger.Output{
			Address: WalletOf(prev.Output.Datum.Owner),
			Value:   diverted,
		})
	} else {
		tx.Outputs = append(tx.Outputs, successor)
	}

	if !p.Unsigned {
		tx.Signatories = []ledger.Credential{prev.Output.Datum.Owner}
	}
	return tx, nil
}
