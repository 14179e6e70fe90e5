package sql

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardano-tools/chainindex/model"
	"github.com/cardano-tools/chainindex/ulogger"
	"github.com/cardano-tools/chainindex/utxoindex"
)

func openTestStore(t *testing.T) *Store {
	storeURL, err := url.Parse("sqlitememory://test")
	require.NoError(t, err)

	store, err := Open(ulogger.NewVerboseTestLogger(t), storeURL, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sqlBlockID(b byte) model.BlockId {
	var id model.BlockId
	id[0] = b
	return id
}

func sqlOutRef(b byte) model.TxOutRef {
	var r model.TxOutRef
	r.TxId[0] = b
	return r
}

func mustEncodeLovelace(t *testing.T, lovelace uint64) []byte {
	raw, err := model.EncodeValue(model.Value{Lovelace: lovelace})
	require.NoError(t, err)
	return raw
}

func appendTestBlock(t *testing.T, store *Store, slot model.Slot, idByte byte, credential []byte, out model.TxOutRef) {
	state := model.UtxoState{
		Tip:  model.NewTip(slot, sqlBlockID(idByte), model.BlockNo(slot)),
		Data: model.TxUtxoBalance{Outputs: map[model.TxOutRef]struct{}{out: {}}, Inputs: map[model.TxOutRef]struct{}{}},
	}
	txs := []model.Tx{
		{
			Id: [32]byte{idByte},
			Outputs: map[model.TxOutRef]model.TxOutput{
				out: {
					ValueCbor:  mustEncodeLovelace(t, 1_000_000),
					Credential: model.Credential{Bytes: credential},
				},
			},
			StoreTx: true,
		},
	}
	require.NoError(t, store.AppendBlock(context.Background(), nil, state, txs))
}

func TestStoreAppendBlockThenQueryUtxoSetAtAddress(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	credential := []byte{0xAA, 0xBB}
	ref := sqlOutRef(1)

	appendTestBlock(t, store, 10, 1, credential, ref)

	page, err := store.UtxoSetAtAddress(ctx, model.PageQuery{PageSize: 10}, model.Credential{Bytes: credential})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, ref, page.Items[0])
	require.Nil(t, page.NextPageQuery)
}

func TestStorePaginationSplitsAcrossPages(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	credential := []byte{0xCC}
	for i := byte(1); i <= 3; i++ {
		appendTestBlock(t, store, model.Slot(i), i, credential, sqlOutRef(i))
	}

	page, err := store.UtxoSetAtAddress(ctx, model.PageQuery{PageSize: 2}, model.Credential{Bytes: credential})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotNil(t, page.NextPageQuery)

	next, err := store.UtxoSetAtAddress(ctx, *page.NextPageQuery, model.Credential{Bytes: credential})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	require.Nil(t, next.NextPageQuery)
}

func TestStoreRollbackRemovesNewerTips(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	appendTestBlock(t, store, 10, 1, nil, sqlOutRef(1))
	appendTestBlock(t, store, 20, 2, nil, sqlOutRef(2))

	require.NoError(t, store.Rollback(ctx, model.NewPoint(10, sqlBlockID(1))))

	tip, err := store.GetTip(ctx)
	require.NoError(t, err)
	require.Equal(t, model.Slot(10), tip.Slot)
}

func TestStoreRollbackToGenesisWipesUtxoTables(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	appendTestBlock(t, store, 10, 1, nil, sqlOutRef(1))
	require.NoError(t, store.Rollback(ctx, model.PointGenesis))

	tip, err := store.GetTip(ctx)
	require.NoError(t, err)
	require.True(t, tip.IsGenesis())

	diag, err := store.GetDiagnostics(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), diag.NumUnspentOutputs)
}

func TestStoreCollectGarbageTruncatesPerTxTablesOnly(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ref := sqlOutRef(1)
	appendTestBlock(t, store, 10, 1, []byte{0xAA}, ref)

	require.NoError(t, store.CollectGarbage(ctx))

	out, err := store.TxOutFromRef(ctx, ref)
	require.NoError(t, err)
	require.Nil(t, out)

	diag, err := store.GetDiagnostics(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), diag.NumUnspentOutputs, "collect garbage must not touch the UTxO ledger tables")
}

func TestStoreHashLookupResolvesAndRepeatsFromCache(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	var hash [32]byte
	hash[0] = 0x42

	_, err := store.db.ExecContext(ctx, "INSERT INTO datums (hash, datum) VALUES ("+store.placeholder(1)+", "+store.placeholder(2)+")", hash[:], []byte("payload"))
	require.NoError(t, err)

	first, err := store.DatumFromHash(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), first)

	// a second lookup for the same hash is served from hashCache rather than
	// the database; the gc invalidation test below exercises the cache's
	// only correctness requirement (never outlive a truncated row).
	second, err := store.DatumFromHash(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), second)

	require.NoError(t, store.CollectGarbage(ctx))

	afterGC, err := store.DatumFromHash(ctx, hash)
	require.NoError(t, err)
	require.Nil(t, afterGC, "a cached hit must not survive the table truncation it indexed")
}

func TestStoreRestoreStateRebuildsIndexFromRows(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	appendTestBlock(t, store, 10, 1, nil, sqlOutRef(1))
	appendTestBlock(t, store, 20, 2, nil, sqlOutRef(2))

	idx, err := store.RestoreState(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, idx.Len())
	require.Equal(t, model.Slot(20), idx.Tip().Slot)
}

func TestStoreGetResumePointsOrdersNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	appendTestBlock(t, store, 10, 1, nil, sqlOutRef(1))
	appendTestBlock(t, store, 20, 2, nil, sqlOutRef(2))
	appendTestBlock(t, store, 30, 3, nil, sqlOutRef(3))

	points, err := store.GetResumePoints(ctx)
	require.NoError(t, err)
	require.Len(t, points, 3)
	require.Equal(t, model.Slot(30), points[0].Slot)
	require.Equal(t, model.Slot(10), points[2].Slot)
}

// TestStoreReduceOldUtxoDbCascadesMatchedPairs drives Store.AppendBlock with
// a real reduceToSlot, the way Chain.AppendBlock does once ReduceBlockCount
// reports Reduced, and checks the DB-side cascade delete
// (reduceOldUtxoDb/matchedOutRefsAtSlot/deleteOutRefsAtSlot) against what the
// in-memory ReduceBlockCount/Union predicts for the same three blocks:
// refA is created at slot 10 and spent at slot 20 (which also creates refB);
// refC is created at slot 30, past the retained depth of 1, forcing slots 10
// and 20 to collapse into a single combined entry at slot 20.
func TestStoreReduceOldUtxoDbCascadesMatchedPairs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	refA, refB, refC := sqlOutRef(1), sqlOutRef(2), sqlOutRef(3)

	s1 := model.UtxoState{
		Tip: model.NewTip(10, sqlBlockID(1), 10),
		Data: model.TxUtxoBalance{
			Outputs: map[model.TxOutRef]struct{}{refA: {}}, Inputs: map[model.TxOutRef]struct{}{},
		},
	}
	s2 := model.UtxoState{
		Tip: model.NewTip(20, sqlBlockID(2), 20),
		Data: model.TxUtxoBalance{
			Outputs: map[model.TxOutRef]struct{}{refB: {}}, Inputs: map[model.TxOutRef]struct{}{refA: {}},
		},
	}
	s3 := model.UtxoState{
		Tip: model.NewTip(30, sqlBlockID(3), 30),
		Data: model.TxUtxoBalance{
			Outputs: map[model.TxOutRef]struct{}{refC: {}}, Inputs: map[model.TxOutRef]struct{}{},
		},
	}

	txFor := func(idByte byte, out model.TxOutRef) []model.Tx {
		return []model.Tx{{
			Id: [32]byte{idByte},
			Outputs: map[model.TxOutRef]model.TxOutput{
				out: {ValueCbor: mustEncodeLovelace(t, 1_000_000)},
			},
			StoreTx: true,
		}}
	}

	idx := utxoindex.Empty()
	var err error

	idx, _, err = utxoindex.Insert(s1, idx)
	require.NoError(t, err)
	require.NoError(t, store.AppendBlock(ctx, nil, s1, txFor(1, refA)))

	idx, _, err = utxoindex.Insert(s2, idx)
	require.NoError(t, err)
	require.NoError(t, store.AppendBlock(ctx, nil, s2, txFor(2, refB)))

	idx, _, err = utxoindex.Insert(s3, idx)
	require.NoError(t, err)

	reduced := utxoindex.ReduceBlockCount(1, idx)
	require.Equal(t, utxoindex.Reduced, reduced.Outcome)
	reduceToSlot := reduced.CombinedState.Tip.Slot

	require.NoError(t, store.AppendBlock(ctx, &reduceToSlot, s3, txFor(3, refC)))

	wantA := utxoindex.IsUnspentOutput(refA, reduced.Index)
	wantB := utxoindex.IsUnspentOutput(refB, reduced.Index)
	wantC := utxoindex.IsUnspentOutput(refC, reduced.Index)
	require.False(t, wantA, "refA was spent within the collapsed window")
	require.True(t, wantB)
	require.True(t, wantC)

	restored, err := store.RestoreState(ctx)
	require.NoError(t, err)
	require.Equal(t, wantA, utxoindex.IsUnspentOutput(refA, restored))
	require.Equal(t, wantB, utxoindex.IsUnspentOutput(refB, restored))
	require.Equal(t, wantC, utxoindex.IsUnspentOutput(refC, restored))

	// the matched pair must have been cascade-deleted from both tables, not
	// merely shadowed.
	var count int
	require.NoError(t, store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM unspent_outputs WHERE out_ref = "+store.placeholder(1), refA.Bytes(),
	).Scan(&count))
	require.Equal(t, 0, count)

	require.NoError(t, store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM unmatched_inputs WHERE out_ref = "+store.placeholder(1), refA.Bytes(),
	).Scan(&count))
	require.Equal(t, 0, count)
}
