package policy

import (
	"fmt"

	"github.com/roach88/chainseal/internal/ledger"
)

// CreationPolicy gates the minting of proof tokens. It runs once per
// transaction that mints any unit under its ID and guarantees that every
// minted token corresponds to exactly one freshly, correctly initialized
// record at the record address.
type CreationPolicy struct {
	// RecordAddress is the designated address records live at.
	RecordAddress string

	// TokenName is the fixed asset name of the proof token.
	TokenName string

	id ledger.PolicyID
}

// NewCreationPolicy builds a creation policy instance and derives its ID
// from its parameters.
func NewCreationPolicy(recordAddress, tokenName string) (*CreationPolicy, error) {
	if recordAddress == "" {
		return nil, fmt.Errorf("creation policy: record address is required")
	}
	if tokenName == "" {
		tokenName = ledger.SealTokenName
	}
	id, err := ledger.DerivePolicyID(recordAddress, tokenName)
	if err != nil {
		return nil, fmt.Errorf("creation policy: %w", err)
	}
	return &CreationPolicy{
		RecordAddress: recordAddress,
		TokenName:     tokenName,
		id:            id,
	}, nil
}

// ID returns the policy's derived identity. Tokens minted under this
// policy carry this ID, and records it initializes carry it as their
// authorizing tag.
func (p *CreationPolicy) ID() ledger.PolicyID {
	return p.id
}

// Verify is the creation predicate. The purpose must be a mint under this
// policy's ID; the runtime guarantees one invocation per minting policy.
func (p *CreationPolicy) Verify(ctx ledger.Context) error {
	minting, ok := ctx.Purpose.(ledger.Minting)
	if !ok {
		return reject(CodeMalformedDatum, p.id, "creation policy invoked with purpose %T, want Minting", ctx.Purpose)
	}
	if minting.Policy != p.id {
		return reject(CodeMalformedDatum, p.id, "creation policy invoked for foreign policy %s", short(minting.Policy))
	}

	tx := ctx.Tx

	// Check 1: no pre-existing lineage in inputs. Creation and transition
	// are separate code paths; a combined transaction cannot tell genuinely
	// new records (needing a fresh mint) from carried-forward ones (needing
	// conservation) with aggregate counts alone, so it is rejected outright.
	for _, in := range tx.Inputs {
		if in.Resolved != nil && in.Resolved.Address == p.RecordAddress {
			return rejectInput(CodeMissingCompanion, p.id, in.OutPoint,
				"creation transaction consumes an existing record at %s", p.RecordAddress)
		}
	}

	// Check 2: every output at the record address is a well-formed new record.
	recordOutputs := tx.OutputsAt(p.RecordAddress)
	for _, idx := range recordOutputs {
		out := tx.Outputs[idx]
		if err := p.checkNewRecord(tx, idx, out); err != nil {
			return err
		}
	}

	// Check 3: exact mint accounting. Minted quantity of (this policy,
	// token name) equals the number of qualifying record outputs. Combined
	// with check 2 this keeps token supply and record count provably equal;
	// the transition policy's conservation rule holds them equal thereafter.
	minted := tx.Mint.QuantityOf(p.id, p.TokenName)
	if minted != int64(len(recordOutputs)) {
		return reject(CodeConservation, p.id,
			"minted %d proof tokens for %d record outputs", minted, len(recordOutputs))
	}
	if minted <= 0 {
		// A burn (or an empty mint reaching this policy at all) has no
		// corresponding record initialization path.
		return reject(CodeConservation, p.id, "mint quantity must be positive, got %d", minted)
	}

	// Nothing else may be minted under this policy: a second asset name
	// would be a forgeable look-alike of the proof token.
	for _, name := range tx.Mint.AssetNames(p.id) {
		if name != p.TokenName {
			return reject(CodeConservation, p.id, "unexpected asset %q minted under policy", name)
		}
	}

	return nil
}

// checkNewRecord validates a single output deposited at the record address
// during creation.
func (p *CreationPolicy) checkNewRecord(tx *ledger.Tx, idx int, out ledger.Output) error {
	// (a) syntactically valid record matching the schema
	if out.Datum == nil {
		return reject(CodeMalformedDatum, p.id, "output %d at record address has no datum", idx)
	}
	d := out.Datum

	// (e) authorizing tag is this policy's own identity
	if d.AuthorizingTag != p.id {
		return reject(CodeMalformedDatum, p.id,
			"output %d authorizing_tag %s is not this policy", idx, short(d.AuthorizingTag))
	}

	// (d) payload initialized to the canonical starting value
	if d.Payload != 0 {
		return reject(CodePayloadRule, p.id,
			"output %d payload must start at 0, got %d", idx, d.Payload)
	}

	// (b) exactly one proof token unit
	if qty := out.Value.QuantityOf(p.id, p.TokenName); qty != 1 {
		return reject(CodeConservation, p.id,
			"output %d carries %d proof tokens, want exactly 1", idx, qty)
	}

	// (c) authorized by the declared owner
	if !tx.Signed(d.Owner) {
		return reject(CodeUnauthorized, p.id,
			"output %d owner did not sign the creation", idx)
	}

	return nil
}
