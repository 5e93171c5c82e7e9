package txbuild

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chainseal/internal/ledger"
	"github.com/roach88/chainseal/internal/store"
)

const testRecordAddr = "addr_records"

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return &Builder{
		RecordAddress: testRecordAddr,
		TokenName:     ledger.SealTokenName,
		PolicyID:      ledger.MustDerivePolicyID(testRecordAddr, ledger.SealTokenName),
		Store:         s,
	}
}

func TestMint_Defaults(t *testing.T) {
	b := newTestBuilder(t)

	tx, err := b.Mint(MintParams{Owner: "alice"})
	require.NoError(t, err)

	require.Len(t, tx.Outputs, 1)
	out := tx.Outputs[0]
	assert.Equal(t, testRecordAddr, out.Address)
	assert.Equal(t, int64(1), out.Value.QuantityOf(b.PolicyID, b.TokenName))
	require.NotNil(t, out.Datum)
	assert.Equal(t, ledger.Credential("alice"), out.Datum.Owner)
	assert.Equal(t, b.PolicyID, out.Datum.AuthorizingTag)
	assert.Equal(t, int64(0), out.Datum.Payload)

	assert.Equal(t, int64(1), tx.Mint.QuantityOf(b.PolicyID, b.TokenName))
	assert.Equal(t, []ledger.Credential{"alice"}, tx.Signatories)
}

func TestMint_RequiresOwner(t *testing.T) {
	b := newTestBuilder(t)
	_, err := b.Mint(MintParams{})
	assert.Error(t, err)
}

func TestMint_SurplusGoesToWallet(t *testing.T) {
	b := newTestBuilder(t)

	tx, err := b.Mint(MintParams{Owner: "mallory", MintQuantity: 3})
	require.NoError(t, err)

	// One record output plus the surplus parked at the wallet.
	require.Len(t, tx.Outputs, 2)
	assert.Equal(t, WalletOf("mallory"), tx.Outputs[1].Address)
	assert.Equal(t, int64(2), tx.Outputs[1].Value.QuantityOf(b.PolicyID, b.TokenName))

	// The tx balances: mint equals total deposited.
	total := ledger.NewValue()
	for _, out := range tx.Outputs {
		total.Merge(out.Value)
	}
	assert.True(t, total.Equal(tx.Mint))
}

func TestMint_BatchRecords(t *testing.T) {
	b := newTestBuilder(t)

	tx, err := b.Mint(MintParams{Owner: "alice", Records: 3})
	require.NoError(t, err)

	assert.Len(t, tx.Outputs, 3)
	assert.Equal(t, int64(3), tx.Mint.QuantityOf(b.PolicyID, b.TokenName))
}

// commitMint drives a mint through the store so Advance has live state.
func commitMint(t *testing.T, b *Builder) {
	t.Helper()
	tx, err := b.Mint(MintParams{Owner: "alice"})
	require.NoError(t, err)
	txID := ledger.MustTxID(tx)
	require.NoError(t, b.Store.CommitTx(context.Background(), tx, txID, store.Verdict{
		Token: "tok", TxID: txID, Accepted: true, Seq: 1,
	}))
}

func TestAdvance_Defaults(t *testing.T) {
	b := newTestBuilder(t)
	commitMint(t, b)

	tx, err := b.Advance(context.Background(), AdvanceParams{})
	require.NoError(t, err)

	require.Len(t, tx.Inputs, 1)
	require.NotNil(t, tx.Inputs[0].Redeemer)
	assert.Equal(t, 0, tx.Inputs[0].Redeemer.Successor)

	require.Len(t, tx.Outputs, 1)
	succ := tx.Outputs[0]
	assert.Equal(t, int64(1), succ.Datum.Payload, "default advance increments by one")
	assert.Equal(t, int64(1), succ.Value.QuantityOf(b.PolicyID, b.TokenName))
	assert.Equal(t, []ledger.Credential{"alice"}, tx.Signatories)
}

func TestAdvance_NoLiveRecords(t *testing.T) {
	b := newTestBuilder(t)
	_, err := b.Advance(context.Background(), AdvanceParams{})
	assert.Error(t, err)
}

func TestAdvance_DropTokenStillBalances(t *testing.T) {
	b := newTestBuilder(t)
	commitMint(t, b)

	tx, err := b.Advance(context.Background(), AdvanceParams{DropToken: true})
	require.NoError(t, err)

	require.Len(t, tx.Outputs, 2)
	assert.Equal(t, int64(0), tx.Outputs[0].Value.QuantityOf(b.PolicyID, b.TokenName),
		"successor must have lost the token")
	assert.Equal(t, int64(1), tx.Outputs[1].Value.QuantityOf(b.PolicyID, b.TokenName),
		"the token sits at the wallet")
}

func TestAdvance_PayloadOverride(t *testing.T) {
	b := newTestBuilder(t)
	commitMint(t, b)

	payload := int64(7)
	tx, err := b.Advance(context.Background(), AdvanceParams{Payload: &payload})
	require.NoError(t, err)
	assert.Equal(t, int64(7), tx.Outputs[0].Datum.Payload)
}
