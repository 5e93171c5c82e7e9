package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chainseal/internal/ledger"
)

func newTestTransition(t *testing.T) (*TransitionPolicy, ledger.PolicyID) {
	t.Helper()
	p, err := NewTransitionPolicy(testRecordAddr, ledger.SealTokenName)
	require.NoError(t, err)
	return p, ledger.MustDerivePolicyID(testRecordAddr, ledger.SealTokenName)
}

// transitionTx builds a well-formed transition from payload 0 to payload 1.
func transitionTx(tag ledger.PolicyID) *ledger.Tx {
	return &ledger.Tx{
		Inputs: []ledger.Input{
			{
				OutPoint: ledger.OutPoint{TxID: "genesis", Index: 0},
				Redeemer: &ledger.SpendRedeemer{Successor: 0},
				Resolved: &ledger.Output{
					Address: testRecordAddr,
					Value:   ledger.SingleAsset(tag, ledger.SealTokenName, 1),
					Datum:   &ledger.RecordDatum{Owner: testOwner, AuthorizingTag: tag, Payload: 0},
				},
			},
		},
		Outputs: []ledger.Output{
			{
				Address: testRecordAddr,
				Value:   ledger.SingleAsset(tag, ledger.SealTokenName, 1),
				Datum:   &ledger.RecordDatum{Owner: testOwner, AuthorizingTag: tag, Payload: 1},
			},
		},
		Mint:        ledger.NewValue(),
		Signatories: []ledger.Credential{testOwner},
	}
}

func spendCtx(tx *ledger.Tx, in ledger.Input) ledger.Context {
	return ledger.Context{Tx: tx, Purpose: ledger.Spending{OutPoint: in.OutPoint}}
}

func TestTransitionPolicy_AcceptsWellFormedTransition(t *testing.T) {
	p, tag := newTestTransition(t)
	tx := transitionTx(tag)

	assert.NoError(t, p.Verify(spendCtx(tx, tx.Inputs[0])))
}

func TestTransitionPolicy_RejectsPayloadSkip(t *testing.T) {
	// Scenario: transition from payload=0 to payload=2.
	p, tag := newTestTransition(t)
	tx := transitionTx(tag)
	tx.Outputs[0].Datum.Payload = 2

	err := p.Verify(spendCtx(tx, tx.Inputs[0]))
	require.Error(t, err)
	assert.Equal(t, CodePayloadRule, CodeOf(err))
}

func TestTransitionPolicy_RejectsPayloadRegression(t *testing.T) {
	p, tag := newTestTransition(t)
	tx := transitionTx(tag)
	tx.Inputs[0].Resolved.Datum.Payload = 5
	tx.Outputs[0].Datum.Payload = 4

	err := p.Verify(spendCtx(tx, tx.Inputs[0]))
	require.Error(t, err)
	assert.Equal(t, CodePayloadRule, CodeOf(err))
}

func TestTransitionPolicy_RejectsMissingOwnerSignature(t *testing.T) {
	// Scenario: transition without the required owner signature.
	p, tag := newTestTransition(t)
	tx := transitionTx(tag)
	tx.Signatories = []ledger.Credential{"mallory"}

	err := p.Verify(spendCtx(tx, tx.Inputs[0]))
	require.Error(t, err)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))
	assert.True(t, IsUnauthorized(err))
}

func TestTransitionPolicy_RejectsDroppedToken(t *testing.T) {
	// Scenario: successor drops the proof token.
	p, tag := newTestTransition(t)
	tx := transitionTx(tag)
	tx.Outputs[0].Value = ledger.NewValue()

	err := p.Verify(spendCtx(tx, tx.Inputs[0]))
	require.Error(t, err)
	assert.Equal(t, CodeConservation, CodeOf(err))
	assert.True(t, IsConservation(err))
}

func TestTransitionPolicy_RejectsDuplicatedToken(t *testing.T) {
	p, tag := newTestTransition(t)
	tx := transitionTx(tag)
	tx.Outputs[0].Value = ledger.SingleAsset(tag, ledger.SealTokenName, 2)

	err := p.Verify(spendCtx(tx, tx.Inputs[0]))
	require.Error(t, err)
	assert.Equal(t, CodeConservation, CodeOf(err))
}

func TestTransitionPolicy_RejectsMintDuringTransition(t *testing.T) {
	p, tag := newTestTransition(t)
	tx := transitionTx(tag)
	tx.Mint = ledger.SingleAsset(tag, ledger.SealTokenName, 1)

	err := p.Verify(spendCtx(tx, tx.Inputs[0]))
	require.Error(t, err)
	assert.Equal(t, CodeConservation, CodeOf(err))
}

func TestTransitionPolicy_RejectsInputWithoutToken(t *testing.T) {
	// A datum parked at the record address without a proof token is not
	// a record, whatever it claims.
	p, tag := newTestTransition(t)
	tx := transitionTx(tag)
	tx.Inputs[0].Resolved.Value = ledger.NewValue()

	err := p.Verify(spendCtx(tx, tx.Inputs[0]))
	require.Error(t, err)
	assert.Equal(t, CodeConservation, CodeOf(err))
}

func TestTransitionPolicy_RejectsMissingSuccessor(t *testing.T) {
	// Consuming a record without producing a successor is always rejected;
	// deletion is unsupported.
	p, tag := newTestTransition(t)
	tx := transitionTx(tag)
	tx.Outputs = nil

	err := p.Verify(spendCtx(tx, tx.Inputs[0]))
	require.Error(t, err)
	assert.Equal(t, CodeMissingCompanion, CodeOf(err))
}

func TestTransitionPolicy_RejectsSuccessorElsewhere(t *testing.T) {
	p, tag := newTestTransition(t)
	tx := transitionTx(tag)
	tx.Outputs[0].Address = "addr_mallory"

	err := p.Verify(spendCtx(tx, tx.Inputs[0]))
	require.Error(t, err)
	assert.Equal(t, CodeMissingCompanion, CodeOf(err))
}

func TestTransitionPolicy_RejectsMissingRedeemer(t *testing.T) {
	p, tag := newTestTransition(t)
	tx := transitionTx(tag)
	tx.Inputs[0].Redeemer = nil

	err := p.Verify(spendCtx(tx, tx.Inputs[0]))
	require.Error(t, err)
	assert.Equal(t, CodeMissingCompanion, CodeOf(err))
}

func TestTransitionPolicy_RejectsOwnerChange(t *testing.T) {
	p, tag := newTestTransition(t)
	tx := transitionTx(tag)
	tx.Outputs[0].Datum.Owner = "mallory"
	tx.Signatories = append(tx.Signatories, "mallory")

	err := p.Verify(spendCtx(tx, tx.Inputs[0]))
	require.Error(t, err)
	assert.Equal(t, CodeMalformedDatum, CodeOf(err))
}

func TestTransitionPolicy_RejectsTagChange(t *testing.T) {
	p, tag := newTestTransition(t)
	tx := transitionTx(tag)
	tx.Outputs[0].Datum.AuthorizingTag = "forged"
	// Keep the token matching the ORIGINAL tag so only the tag check fires.
	err := p.Verify(spendCtx(tx, tx.Inputs[0]))
	require.Error(t, err)
	assert.Equal(t, CodeMalformedDatum, CodeOf(err))
}

func TestTransitionPolicy_RejectsConsumedRecordWithoutDatum(t *testing.T) {
	p, tag := newTestTransition(t)
	tx := transitionTx(tag)
	tx.Inputs[0].Resolved.Datum = nil

	err := p.Verify(spendCtx(tx, tx.Inputs[0]))
	require.Error(t, err)
	assert.Equal(t, CodeMalformedDatum, CodeOf(err))
}

func TestTransitionPolicy_BatchTransitions(t *testing.T) {
	p, tag := newTestTransition(t)

	bob := ledger.Credential("bob")
	tx := &ledger.Tx{
		Inputs: []ledger.Input{
			{
				OutPoint: ledger.OutPoint{TxID: "t1", Index: 0},
				Redeemer: &ledger.SpendRedeemer{Successor: 0},
				Resolved: &ledger.Output{
					Address: testRecordAddr,
					Value:   ledger.SingleAsset(tag, ledger.SealTokenName, 1),
					Datum:   &ledger.RecordDatum{Owner: testOwner, AuthorizingTag: tag, Payload: 3},
				},
			},
			{
				OutPoint: ledger.OutPoint{TxID: "t2", Index: 0},
				Redeemer: &ledger.SpendRedeemer{Successor: 1},
				Resolved: &ledger.Output{
					Address: testRecordAddr,
					Value:   ledger.SingleAsset(tag, ledger.SealTokenName, 1),
					Datum:   &ledger.RecordDatum{Owner: bob, AuthorizingTag: tag, Payload: 8},
				},
			},
		},
		Outputs: []ledger.Output{
			{
				Address: testRecordAddr,
				Value:   ledger.SingleAsset(tag, ledger.SealTokenName, 1),
				Datum:   &ledger.RecordDatum{Owner: testOwner, AuthorizingTag: tag, Payload: 4},
			},
			{
				Address: testRecordAddr,
				Value:   ledger.SingleAsset(tag, ledger.SealTokenName, 1),
				Datum:   &ledger.RecordDatum{Owner: bob, AuthorizingTag: tag, Payload: 9},
			},
		},
		Mint:        ledger.NewValue(),
		Signatories: []ledger.Credential{testOwner, bob},
	}

	assert.NoError(t, p.Verify(spendCtx(tx, tx.Inputs[0])))
	assert.NoError(t, p.Verify(spendCtx(tx, tx.Inputs[1])))
}

func TestTransitionPolicy_RejectsSharedSuccessor(t *testing.T) {
	p, tag := newTestTransition(t)

	tx := transitionTx(tag)
	// Second consumed record claiming the same successor output.
	tx.Inputs = append(tx.Inputs, ledger.Input{
		OutPoint: ledger.OutPoint{TxID: "t2", Index: 0},
		Redeemer: &ledger.SpendRedeemer{Successor: 0},
		Resolved: &ledger.Output{
			Address: testRecordAddr,
			Value:   ledger.SingleAsset(tag, ledger.SealTokenName, 1),
			Datum:   &ledger.RecordDatum{Owner: testOwner, AuthorizingTag: tag, Payload: 0},
		},
	})

	err := p.Verify(spendCtx(tx, tx.Inputs[0]))
	require.Error(t, err)
	assert.Equal(t, CodeMissingCompanion, CodeOf(err))
}

func TestNewTransitionPolicy_RequiresAddress(t *testing.T) {
	_, err := NewTransitionPolicy("", ledger.SealTokenName)
	assert.Error(t, err)
}

func TestViolation_ErrorText(t *testing.T) {
	v := rejectInput(CodeConservation, "0123456789abcdef", ledger.OutPoint{TxID: "t", Index: 1}, "off by one")
	assert.Contains(t, v.Error(), "CONSERVATION")
	assert.Contains(t, v.Error(), "t#1")

	v2 := reject(CodeUnauthorized, "p", "nope")
	assert.Contains(t, v2.Error(), "UNAUTHORIZED")
}
