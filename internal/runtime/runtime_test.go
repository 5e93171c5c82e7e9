package runtime

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chainseal/internal/ledger"
	"github.com/roach88/chainseal/internal/policy"
	"github.com/roach88/chainseal/internal/store"
)

const testRecordAddr = "addr_records"

// newTestRuntime wires a runtime over a temp-file store with fixed
// submission tokens tok-1, tok-2, ...
func newTestRuntime(t *testing.T) (*Runtime, *store.Store) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	creation, err := policy.NewCreationPolicy(testRecordAddr, ledger.SealTokenName)
	require.NoError(t, err)
	transition, err := policy.NewTransitionPolicy(testRecordAddr, ledger.SealTokenName)
	require.NoError(t, err)

	tokens := NewFixedGenerator(
		"tok-1", "tok-2", "tok-3", "tok-4", "tok-5",
		"tok-6", "tok-7", "tok-8", "tok-9", "tok-10",
	)
	return New(s, creation, transition, tokens), s
}

// mintTx builds a well-formed single-record mint signed by owner.
func mintTx(r *Runtime, owner ledger.Credential) *ledger.Tx {
	return &ledger.Tx{
		Outputs: []ledger.Output{{
			Address: testRecordAddr,
			Value:   ledger.SingleAsset(r.PolicyID(), ledger.SealTokenName, 1),
			Datum: &ledger.RecordDatum{
				Owner:          owner,
				AuthorizingTag: r.PolicyID(),
				Payload:        0,
			},
		}},
		Mint:        ledger.SingleAsset(r.PolicyID(), ledger.SealTokenName, 1),
		Signatories: []ledger.Credential{owner},
	}
}

// advanceTx builds a well-formed transition consuming predecessor and
// producing its successor with payload+1.
func advanceTx(r *Runtime, predecessor ledger.OutPoint, prev *ledger.Output) *ledger.Tx {
	return &ledger.Tx{
		Inputs: []ledger.Input{{
			OutPoint: predecessor,
			Redeemer: &ledger.SpendRedeemer{Successor: 0},
		}},
		Outputs: []ledger.Output{{
			Address: testRecordAddr,
			Value:   prev.Value.Clone(),
			Datum: &ledger.RecordDatum{
				Owner:          prev.Datum.Owner,
				AuthorizingTag: prev.Datum.AuthorizingTag,
				Payload:        prev.Datum.Payload + 1,
			},
		}},
		Signatories: []ledger.Credential{prev.Datum.Owner},
	}
}

func TestApply_AcceptsWellFormedMint(t *testing.T) {
	r, s := newTestRuntime(t)
	ctx := context.Background()

	verdict, err := r.Apply(ctx, mintTx(r, "alice"))
	require.NoError(t, err)

	assert.True(t, verdict.Accepted)
	assert.Empty(t, verdict.Code)
	assert.Equal(t, "tok-1", verdict.Token)
	assert.Equal(t, int64(1), verdict.Seq)

	live, err := s.LiveAtAddress(ctx, testRecordAddr)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, int64(0), live[0].Output.Datum.Payload)
	assert.Equal(t, r.PolicyID(), live[0].Output.Datum.AuthorizingTag)
}

func TestApply_MintThenAdvance(t *testing.T) {
	r, s := newTestRuntime(t)
	ctx := context.Background()

	mint := mintTx(r, "alice")
	mintVerdict, err := r.Apply(ctx, mint)
	require.NoError(t, err)
	require.True(t, mintVerdict.Accepted)

	predecessor := ledger.OutPoint{TxID: mintVerdict.TxID, Index: 0}
	prev, err := s.Resolve(ctx, predecessor)
	require.NoError(t, err)

	verdict, err := r.Apply(ctx, advanceTx(r, predecessor, &prev))
	require.NoError(t, err)
	require.True(t, verdict.Accepted, "advance rejected: %s %s", verdict.Code, verdict.Detail)
	assert.Equal(t, int64(2), verdict.Seq)

	// Exactly one live record, payload advanced
	live, err := s.LiveAtAddress(ctx, testRecordAddr)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, int64(1), live[0].Output.Datum.Payload)
}

func TestApply_RejectsEmptyTx(t *testing.T) {
	r, _ := newTestRuntime(t)

	verdict, err := r.Apply(context.Background(), &ledger.Tx{})
	require.NoError(t, err)
	assert.False(t, verdict.Accepted)
	assert.Equal(t, CodeEmptyTx, verdict.Code)
}

func TestApply_RejectsDuplicateTx(t *testing.T) {
	r, _ := newTestRuntime(t)
	ctx := context.Background()

	mint := mintTx(r, "alice")
	first, err := r.Apply(ctx, mint)
	require.NoError(t, err)
	require.True(t, first.Accepted)

	second, err := r.Apply(ctx, mint)
	require.NoError(t, err)
	assert.False(t, second.Accepted)
	assert.Equal(t, CodeDuplicateTx, second.Code)
	assert.Equal(t, first.TxID, second.TxID, "same body, same id")
}

func TestApply_RejectsUnknownInput(t *testing.T) {
	r, _ := newTestRuntime(t)

	tx := &ledger.Tx{
		Inputs: []ledger.Input{{
			OutPoint: ledger.OutPoint{TxID: "never-committed", Index: 0},
			Redeemer: &ledger.SpendRedeemer{Successor: 0},
		}},
		Outputs:     []ledger.Output{{Address: "addr_wallet"}},
		Signatories: []ledger.Credential{"alice"},
	}
	verdict, err := r.Apply(context.Background(), tx)
	require.NoError(t, err)
	assert.False(t, verdict.Accepted)
	assert.Equal(t, CodeUnknownInput, verdict.Code)
}

func TestApply_RejectsDuplicateInput(t *testing.T) {
	r, s := newTestRuntime(t)
	ctx := context.Background()

	mintVerdict, err := r.Apply(ctx, mintTx(r, "alice"))
	require.NoError(t, err)
	require.True(t, mintVerdict.Accepted)

	predecessor := ledger.OutPoint{TxID: mintVerdict.TxID, Index: 0}
	prev, err := s.Resolve(ctx, predecessor)
	require.NoError(t, err)

	tx := advanceTx(r, predecessor, &prev)
	tx.Inputs = append(tx.Inputs, tx.Inputs[0])

	verdict, err := r.Apply(ctx, tx)
	require.NoError(t, err)
	assert.False(t, verdict.Accepted)
	assert.Equal(t, CodeDuplicateInput, verdict.Code)
}

func TestApply_RejectsDoubleSpend(t *testing.T) {
	r, s := newTestRuntime(t)
	ctx := context.Background()

	mintVerdict, err := r.Apply(ctx, mintTx(r, "alice"))
	require.NoError(t, err)
	require.True(t, mintVerdict.Accepted)

	predecessor := ledger.OutPoint{TxID: mintVerdict.TxID, Index: 0}
	prev, err := s.Resolve(ctx, predecessor)
	require.NoError(t, err)

	first, err := r.Apply(ctx, advanceTx(r, predecessor, &prev))
	require.NoError(t, err)
	require.True(t, first.Accepted)

	// A second advance from the consumed predecessor. Distinct body
	// (payload differs) so this is not a duplicate tx.
	stale := advanceTx(r, predecessor, &prev)
	stale.Outputs[0].Datum.Payload = 99

	second, err := r.Apply(ctx, stale)
	require.NoError(t, err)
	assert.False(t, second.Accepted)
	assert.Equal(t, CodeDoubleSpend, second.Code)

	// Still exactly one live record
	live, err := s.LiveAtAddress(ctx, testRecordAddr)
	require.NoError(t, err)
	assert.Len(t, live, 1)
}

func TestApply_RejectsImbalance(t *testing.T) {
	r, _ := newTestRuntime(t)

	// Output claims a token that was neither consumed nor minted.
	tx := mintTx(r, "alice")
	tx.Mint = ledger.NewValue()

	verdict, err := r.Apply(context.Background(), tx)
	require.NoError(t, err)
	assert.False(t, verdict.Accepted)
	assert.Equal(t, CodeImbalance, verdict.Code)
}

func TestApply_RejectsUnknownPolicy(t *testing.T) {
	r, _ := newTestRuntime(t)

	tx := &ledger.Tx{
		Outputs: []ledger.Output{{
			Address: "addr_wallet",
			Value:   ledger.SingleAsset("rogue-policy", "seal", 1),
		}},
		Mint:        ledger.SingleAsset("rogue-policy", "seal", 1),
		Signatories: []ledger.Credential{"mallory"},
	}
	verdict, err := r.Apply(context.Background(), tx)
	require.NoError(t, err)
	assert.False(t, verdict.Accepted)
	assert.Equal(t, CodeUnknownPolicy, verdict.Code)
}

func TestApply_PolicyViolationLeavesNoLedgerTrace(t *testing.T) {
	r, s := newTestRuntime(t)
	ctx := context.Background()

	unsigned := mintTx(r, "alice")
	unsigned.Signatories = nil

	verdict, err := r.Apply(ctx, unsigned)
	require.NoError(t, err)
	assert.False(t, verdict.Accepted)
	assert.Equal(t, string(policy.CodeUnauthorized), verdict.Code)

	// Nothing committed, but the rejection is in the log.
	live, err := s.AllLive(ctx)
	require.NoError(t, err)
	assert.Empty(t, live)

	verdicts, err := s.Verdicts(ctx)
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.False(t, verdicts[0].Accepted)
}

func TestApply_ForgedDatumDepositDoesNotUnbalanceAudit(t *testing.T) {
	r, s := newTestRuntime(t)
	ctx := context.Background()

	mintVerdict, err := r.Apply(ctx, mintTx(r, "alice"))
	require.NoError(t, err)
	require.True(t, mintVerdict.Accepted)

	// No mint and no record-address inputs, so no authority is invoked:
	// the runtime admits a token-less output at the record address even
	// though its datum names the real policy.
	forged := &ledger.Tx{
		Outputs: []ledger.Output{{
			Address: testRecordAddr,
			Value:   ledger.NewValue(),
			Datum: &ledger.RecordDatum{
				Owner:          "mallory",
				AuthorizingTag: r.PolicyID(),
				Payload:        99,
			},
		}},
		Signatories: []ledger.Credential{"mallory"},
	}
	verdict, err := r.Apply(ctx, forged)
	require.NoError(t, err)
	require.True(t, verdict.Accepted, "rejected: %s %s", verdict.Code, verdict.Detail)

	// The unbacked claim is reported, not counted as a record.
	report, err := s.AuditConservation(ctx, r.PolicyID(), ledger.SealTokenName, testRecordAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.LiveTokens)
	assert.Equal(t, int64(1), report.LiveRecords)
	assert.Equal(t, int64(1), report.ForgedRecs)
	assert.True(t, report.Balanced(), "every authority held, audit must agree: %+v", report)
}

func TestApply_RejectionConsumesSeq(t *testing.T) {
	r, _ := newTestRuntime(t)
	ctx := context.Background()

	v1, err := r.Apply(ctx, &ledger.Tx{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1.Seq)

	v2, err := r.Apply(ctx, mintTx(r, "alice"))
	require.NoError(t, err)
	assert.True(t, v2.Accepted)
	assert.Equal(t, int64(2), v2.Seq, "rejections consume clock ticks too")
}

func TestApply_IdenticalRejection(t *testing.T) {
	r, _ := newTestRuntime(t)
	ctx := context.Background()

	unsigned := mintTx(r, "alice")
	unsigned.Signatories = nil

	first, err := r.Apply(ctx, unsigned)
	require.NoError(t, err)
	second, err := r.Apply(ctx, unsigned)
	require.NoError(t, err)

	// Pure predicates over identical state: identical verdict, new seq.
	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.TxID, second.TxID)
	assert.Greater(t, second.Seq, first.Seq)
}

func TestSubmitRun_EndToEnd(t *testing.T) {
	r, _ := newTestRuntime(t)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	verdict, err := r.Submit(ctx, mintTx(r, "alice"))
	require.NoError(t, err)
	assert.True(t, verdict.Accepted)

	r.Stop()
	require.NoError(t, <-done)

	// Submissions after shutdown fail fast.
	_, err = r.Submit(ctx, mintTx(r, "alice"))
	assert.Error(t, err)
}

func TestRuntime_ResumesClockAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	creation, err := policy.NewCreationPolicy(testRecordAddr, ledger.SealTokenName)
	require.NoError(t, err)
	transition, err := policy.NewTransitionPolicy(testRecordAddr, ledger.SealTokenName)
	require.NoError(t, err)

	s1, err := store.Open(path)
	require.NoError(t, err)
	r1 := New(s1, creation, transition, NewFixedGenerator("tok-1"))
	verdict, err := r1.Apply(ctx, mintTx(r1, "alice"))
	require.NoError(t, err)
	require.True(t, verdict.Accepted)
	require.NoError(t, s1.Close())

	s2, err := store.Open(path)
	require.NoError(t, err)
	defer s2.Close()

	tip, err := s2.MaxSeq(ctx)
	require.NoError(t, err)
	r2 := NewWithClock(s2, creation, transition, NewFixedGenerator("tok-2"), NewClockAt(tip))

	v2, err := r2.Apply(ctx, &ledger.Tx{})
	require.NoError(t, err)
	assert.Equal(t, verdict.Seq+1, v2.Seq, "clock must continue past the committed tip")
}
