package policy

import (
	"fmt"

	"github.com/roach88/chainseal/internal/ledger"
)

// TransitionPolicy gates mutation of an existing record. It is the
// spending rule of the record address and runs once per consumed input
// located there.
//
// The policy trusts nothing it cannot check inside the transaction: the
// authorizing tag comes from the consumed datum, and legitimacy of that
// tag is established by the proof token physically present on the input,
// not by any hard-coded reference to a creation policy.
type TransitionPolicy struct {
	// RecordAddress is the address this policy guards.
	RecordAddress string

	// TokenName is the fixed asset name of the proof token.
	TokenName string
}

// NewTransitionPolicy builds the spending rule for a record address.
func NewTransitionPolicy(recordAddress, tokenName string) (*TransitionPolicy, error) {
	if recordAddress == "" {
		return nil, fmt.Errorf("transition policy: record address is required")
	}
	if tokenName == "" {
		tokenName = ledger.SealTokenName
	}
	return &TransitionPolicy{RecordAddress: recordAddress, TokenName: tokenName}, nil
}

// Verify is the transition predicate for one consumed record.
func (p *TransitionPolicy) Verify(ctx ledger.Context) error {
	in, err := ctx.SpendingInput()
	if err != nil {
		return reject(CodeMalformedDatum, "", "transition policy: %v", err)
	}
	if in.Resolved == nil {
		return rejectInput(CodeMalformedDatum, "", in.OutPoint, "input is unresolved")
	}

	// Check 1: the consumed input carries a well-formed record.
	if in.Resolved.Datum == nil {
		return rejectInput(CodeMalformedDatum, "", in.OutPoint, "consumed record has no datum")
	}
	prev := in.Resolved.Datum
	tag := prev.AuthorizingTag

	// Check 3a: the consumed input itself carries exactly one proof token
	// matching the record's authorizing tag. Without it the datum is just
	// bytes someone parked at the record address.
	if qty := in.Resolved.Value.QuantityOf(tag, p.TokenName); qty != 1 {
		return rejectInput(CodeConservation, tag, in.OutPoint,
			"consumed record carries %d proof tokens, want exactly 1", qty)
	}

	// Check 2: locate the designated successor. The redeemer names it
	// explicitly so that batch transitions pair each consumed record with
	// its own successor instead of assuming a singleton.
	if in.Redeemer == nil {
		return rejectInput(CodeMissingCompanion, tag, in.OutPoint, "spend redeemer is missing")
	}
	succIdx := in.Redeemer.Successor
	if succIdx < 0 || succIdx >= len(ctx.Tx.Outputs) {
		return rejectInput(CodeMissingCompanion, tag, in.OutPoint,
			"redeemer names output %d of %d", succIdx, len(ctx.Tx.Outputs))
	}
	// Structural pairing: no other consumed record may claim the same
	// successor. Two predecessors funneling into one successor would let
	// a proof token escape to an arbitrary output while the aggregate
	// counts still look right.
	for _, other := range ctx.Tx.InputsAt(p.RecordAddress) {
		if other.OutPoint == in.OutPoint {
			continue
		}
		if other.Redeemer != nil && other.Redeemer.Successor == succIdx {
			return rejectInput(CodeMissingCompanion, tag, in.OutPoint,
				"successor output %d is claimed by input %s as well", succIdx, other.OutPoint)
		}
	}

	succ := ctx.Tx.Outputs[succIdx]
	if succ.Address != p.RecordAddress {
		return rejectInput(CodeMissingCompanion, tag, in.OutPoint,
			"successor output %d is not at the record address", succIdx)
	}
	if succ.Datum == nil {
		return rejectInput(CodeMalformedDatum, tag, in.OutPoint,
			"successor output %d has no datum", succIdx)
	}
	next := succ.Datum

	// Check 3b: conservation. The successor carries exactly one token of
	// the same identity, and the transaction neither mints nor burns under
	// that policy.
	if qty := succ.Value.QuantityOf(tag, p.TokenName); qty != 1 {
		return rejectInput(CodeConservation, tag, in.OutPoint,
			"successor carries %d proof tokens, want exactly 1", qty)
	}
	if minted := ctx.Tx.Mint.QuantityOf(tag, p.TokenName); minted != 0 {
		return rejectInput(CodeConservation, tag, in.OutPoint,
			"transition mints %d proof tokens, want 0", minted)
	}

	// Check 4: authorized by the record's declared owner.
	if !ctx.Tx.Signed(prev.Owner) {
		return rejectInput(CodeUnauthorized, tag, in.OutPoint,
			"record owner did not sign the transition")
	}

	// Check 5: owner and authorizing tag are immutable across transitions.
	// A successor that rewrites them is not a malformed payload but a
	// malformed record, so it shares the datum code.
	if next.Owner != prev.Owner {
		return rejectInput(CodeMalformedDatum, tag, in.OutPoint,
			"successor changes owner")
	}
	if next.AuthorizingTag != prev.AuthorizingTag {
		return rejectInput(CodeMalformedDatum, tag, in.OutPoint,
			"successor changes authorizing_tag")
	}

	// Check 6: the domain transition rule. For the counter: exactly +1.
	if next.Payload != prev.Payload+1 {
		return rejectInput(CodePayloadRule, tag, in.OutPoint,
			"successor payload %d, want %d", next.Payload, prev.Payload+1)
	}

	return nil
}
