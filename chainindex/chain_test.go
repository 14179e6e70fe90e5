package chainindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardano-tools/chainindex/errors"
	"github.com/cardano-tools/chainindex/model"
	"github.com/cardano-tools/chainindex/ulogger"
)

func newTestChain(t *testing.T) *Chain {
	chain, err := New(ulogger.NewVerboseTestLogger(t), Config{
		Depth:    2160,
		StoreURL: "sqlitememory://test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = chain.Close() })
	return chain
}

func testBlockID(b byte) model.BlockId {
	var id model.BlockId
	id[0] = b
	return id
}

func testOutRef(b byte) model.TxOutRef {
	var r model.TxOutRef
	r.TxId[0] = b
	return r
}

func testBlock(slot model.Slot, idByte byte, created model.TxOutRef) model.ChainSyncBlock {
	return model.ChainSyncBlock{
		Tip: model.NewTip(slot, testBlockID(idByte), model.BlockNo(slot)),
		Transactions: []model.Tx{
			{
				Id: [32]byte{idByte},
				Outputs: map[model.TxOutRef]model.TxOutput{
					created: {ValueCbor: mustEncodeLovelace(1_000_000)},
				},
				StoreTx: true,
			},
		},
	}
}

func mustEncodeLovelace(lovelace uint64) []byte {
	raw, err := model.EncodeValue(model.Value{Lovelace: lovelace})
	if err != nil {
		panic(err)
	}
	return raw
}

func TestChainAppendBlockThenQueryMembership(t *testing.T) {
	chain := newTestChain(t)
	ctx := context.Background()

	ref := testOutRef(1)
	require.NoError(t, chain.AppendBlock(ctx, testBlock(10, 1, ref)))

	tip, unspent, err := chain.UtxoSetMembership(ref)
	require.NoError(t, err)
	require.True(t, unspent)
	require.Equal(t, model.Slot(10), tip.Slot)
}

func TestChainUtxoSetMembershipFailsAtGenesis(t *testing.T) {
	chain := newTestChain(t)

	_, _, err := chain.UtxoSetMembership(testOutRef(1))
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrQueryFailedNoTip))
}

func TestChainRollbackReversesAppend(t *testing.T) {
	chain := newTestChain(t)
	ctx := context.Background()

	refA := testOutRef(1)
	refB := testOutRef(2)

	require.NoError(t, chain.AppendBlock(ctx, testBlock(10, 1, refA)))
	require.NoError(t, chain.AppendBlock(ctx, testBlock(20, 2, refB)))

	require.NoError(t, chain.Rollback(ctx, model.NewPoint(10, testBlockID(1))))

	_, unspentA, err := chain.UtxoSetMembership(refA)
	require.NoError(t, err)
	require.True(t, unspentA)

	_, unspentB, err := chain.UtxoSetMembership(refB)
	require.NoError(t, err)
	require.False(t, unspentB, "a block rolled back past must not remain visible in memory")

	dbTip, err := chain.GetTip(ctx)
	require.NoError(t, err)
	require.Equal(t, model.Slot(10), dbTip.Slot, "rollback must mirror into the durable projection")
}

func TestChainAppendBlockRejectsDuplicateSlot(t *testing.T) {
	chain := newTestChain(t)
	ctx := context.Background()

	require.NoError(t, chain.AppendBlock(ctx, testBlock(10, 1, testOutRef(1))))
	err := chain.AppendBlock(ctx, testBlock(10, 2, testOutRef(2)))
	require.Error(t, err)

	var typed *errors.Error
	require.True(t, errors.As(err, &typed))
	require.Equal(t, errors.ERR_INSERTION_FAILED, typed.Code())

	// the database must not have been touched by the failed insert.
	dbTip, tipErr := chain.GetTip(ctx)
	require.NoError(t, tipErr)
	require.Equal(t, model.Slot(10), dbTip.Slot)
}

func TestChainCollectGarbageLeavesUtxoSetIntact(t *testing.T) {
	chain := newTestChain(t)
	ctx := context.Background()

	ref := testOutRef(1)
	require.NoError(t, chain.AppendBlock(ctx, testBlock(10, 1, ref)))
	require.NoError(t, chain.CollectGarbage(ctx))

	_, unspent, err := chain.UtxoSetMembership(ref)
	require.NoError(t, err)
	require.True(t, unspent)

	out, err := chain.TxOutFromRef(ctx, ref)
	require.NoError(t, err)
	require.Nil(t, out, "collect garbage truncates the per-tx out-ref body table")
}

func TestChainResumeSyncRebuildsIndexFromDatabase(t *testing.T) {
	chain := newTestChain(t)
	ctx := context.Background()

	refA := testOutRef(1)
	refB := testOutRef(2)

	require.NoError(t, chain.AppendBlock(ctx, testBlock(10, 1, refA)))
	require.NoError(t, chain.AppendBlock(ctx, testBlock(20, 2, refB)))

	require.NoError(t, chain.ResumeSync(ctx, model.NewPoint(10, testBlockID(1))))

	tip := chain.snapshotTip()
	require.Equal(t, model.Slot(10), tip.Slot)

	_, unspentA, err := chain.UtxoSetMembership(refA)
	require.NoError(t, err)
	require.True(t, unspentA)
}

func TestChainGetDiagnosticsAndResumePoints(t *testing.T) {
	chain := newTestChain(t)
	ctx := context.Background()

	require.NoError(t, chain.AppendBlock(ctx, testBlock(10, 1, testOutRef(1))))
	require.NoError(t, chain.AppendBlock(ctx, testBlock(20, 2, testOutRef(2))))

	diag, err := chain.GetDiagnostics(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), diag.NumUnspentOutputs)

	points, err := chain.GetResumePoints(ctx)
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.Equal(t, model.Slot(20), points[0].Slot, "resume points are ordered newest first")
}
