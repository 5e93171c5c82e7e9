package ledger

import "fmt"

// OutPoint references one output of a committed transaction.
type OutPoint struct {
	TxID  string `json:"tx_id"`
	Index int    `json:"index"`
}

// String renders the conventional txid#index form.
func (o OutPoint) String() string {
	return fmt.Sprintf("%s#%d", o.TxID, o.Index)
}

// Output is a produced unit of value: an address that guards spending,
// the carried Value, and an optional datum.
type Output struct {
	Address string
	Value   Value
	Datum   *RecordDatum
}

// SpendRedeemer is the argument supplied when consuming an input.
//
// Successor names the output index of the record's designated successor.
// Pairing is explicit rather than "the one other output at this address":
// with multiple records transitioning in one transaction, aggregate
// counting cannot tell which successor belongs to which predecessor.
type SpendRedeemer struct {
	Successor int `json:"successor"`
}

// Input is a consumed output. Resolved is filled in by the runtime from
// the committed UTXO set before any validator runs; validators never see
// an unresolved input.
type Input struct {
	OutPoint OutPoint
	Redeemer *SpendRedeemer
	Resolved *Output
}

// Tx is a candidate transaction: the full snapshot every validator is
// judged against. Validators treat it as immutable.
type Tx struct {
	Inputs      []Input
	Outputs     []Output
	Mint        Value
	Signatories []Credential
}

// Signed reports whether the transaction's signature set includes cred.
func (tx *Tx) Signed(cred Credential) bool {
	for _, s := range tx.Signatories {
		if s == cred {
			return true
		}
	}
	return false
}

// OutputsAt returns the indices of outputs deposited at addr.
func (tx *Tx) OutputsAt(addr string) []int {
	var idx []int
	for i, out := range tx.Outputs {
		if out.Address == addr {
			idx = append(idx, i)
		}
	}
	return idx
}

// InputsAt returns the inputs whose resolved output sits at addr.
// Unresolved inputs are skipped; the runtime resolves before validating.
func (tx *Tx) InputsAt(addr string) []Input {
	var ins []Input
	for _, in := range tx.Inputs {
		if in.Resolved != nil && in.Resolved.Address == addr {
			ins = append(ins, in)
		}
	}
	return ins
}

// toCanonical renders the transaction body for content addressing.
// Resolved outputs are excluded: they are ledger context, not part of
// what the submitter authored. Two submissions naming the same outpoints,
// outputs, mint, and signatories are the same transaction.
func (tx *Tx) toCanonical() (map[string]any, error) {
	inputs := make([]any, len(tx.Inputs))
	for i, in := range tx.Inputs {
		m := map[string]any{
			"tx_id": in.OutPoint.TxID,
			"index": in.OutPoint.Index,
		}
		if in.Redeemer != nil {
			m["successor"] = in.Redeemer.Successor
		}
		inputs[i] = m
	}

	outputs := make([]any, len(tx.Outputs))
	for i, out := range tx.Outputs {
		m := map[string]any{
			"address": out.Address,
			"value":   out.Value,
		}
		if out.Datum != nil {
			m["datum"] = out.Datum.toCanonical()
		}
		outputs[i] = m
	}

	signatories := make([]any, len(tx.Signatories))
	for i, s := range tx.Signatories {
		signatories[i] = string(s)
	}

	return map[string]any{
		"inputs":      inputs,
		"outputs":     outputs,
		"mint":        tx.Mint,
		"signatories": signatories,
	}, nil
}

// Purpose says why a validator is being invoked: to approve a mint under
// a policy, or to approve the spend of a specific input.
type Purpose interface {
	purpose() // sealed
}

// Minting is the purpose for a mint-policy invocation.
type Minting struct {
	Policy PolicyID
}

func (Minting) purpose() {}

// Spending is the purpose for a spend-validator invocation.
type Spending struct {
	OutPoint OutPoint
}

func (Spending) purpose() {}

// Context is the immutable snapshot handed to a validator: the candidate
// transaction plus the reason this particular validator is running.
// Validators produce a verdict and nothing else; there is no side channel.
type Context struct {
	Tx      *Tx
	Purpose Purpose
}

// SpendingInput returns the input named by a Spending purpose.
// Returns an error for mint invocations or dangling outpoints.
func (c *Context) SpendingInput() (*Input, error) {
	sp, ok := c.Purpose.(Spending)
	if !ok {
		return nil, fmt.Errorf("purpose is %T, not Spending", c.Purpose)
	}
	for i := range c.Tx.Inputs {
		if c.Tx.Inputs[i].OutPoint == sp.OutPoint {
			return &c.Tx.Inputs[i], nil
		}
	}
	return nil, fmt.Errorf("spending purpose names %s but no such input", sp.OutPoint)
}
