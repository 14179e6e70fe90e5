package utxoindex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardano-tools/chainindex/errors"
	"github.com/cardano-tools/chainindex/model"
)

func blockID(b byte) model.BlockId {
	var id model.BlockId
	id[0] = b
	return id
}

func outRef(b byte) model.TxOutRef {
	var r model.TxOutRef
	r.TxId[0] = b
	return r
}

func tipAt(slot model.Slot, b byte) model.Tip {
	return model.NewTip(slot, blockID(b), model.BlockNo(slot))
}

func stateAt(slot model.Slot, b byte, outputs ...model.TxOutRef) model.UtxoState {
	bal := model.EmptyBalance()
	for _, o := range outputs {
		bal.Outputs[o] = struct{}{}
	}
	return model.UtxoState{Data: bal, Tip: tipAt(slot, b)}
}

func TestInsertRejectsGenesisTip(t *testing.T) {
	idx := Empty()
	_, _, err := Insert(model.UtxoState{Tip: model.TipGenesis}, idx)
	require.Error(t, err)

	var typed *errors.Error
	require.True(t, errors.As(err, &typed))
	require.Equal(t, errors.ERR_INSERT_UTXO_NO_TIP, typed.Code())
}

func TestInsertRejectsNonMonotoneSlot(t *testing.T) {
	idx := Empty()
	idx, _, err := Insert(stateAt(10, 1), idx)
	require.NoError(t, err)

	_, _, err = Insert(stateAt(10, 2), idx)
	require.Error(t, err)

	var typed *errors.Error
	require.True(t, errors.As(err, &typed))
	require.Equal(t, errors.ERR_DUPLICATE_BLOCK, typed.Code())
}

func TestInsertThenRollbackRoundTrips(t *testing.T) {
	idx := Empty()

	idx, _, err := Insert(stateAt(10, 1, outRef(1)), idx)
	require.NoError(t, err)
	idx, _, err = Insert(stateAt(20, 2, outRef(2)), idx)
	require.NoError(t, err)
	idx, _, err = Insert(stateAt(30, 3, outRef(3)), idx)
	require.NoError(t, err)

	require.Equal(t, 3, idx.Len())
	require.True(t, IsUnspentOutput(outRef(3), idx))

	rolledBack, newTip, err := Rollback(model.NewPoint(20, blockID(2)), idx)
	require.NoError(t, err)
	require.Equal(t, model.Slot(20), newTip.Slot)
	require.Equal(t, 2, rolledBack.Len())
	require.False(t, IsUnspentOutput(outRef(3), rolledBack), "a block rolled back past must not remain visible")
	require.True(t, IsUnspentOutput(outRef(2), rolledBack))
}

func TestRollbackToGenesisEmptiesIndex(t *testing.T) {
	idx := Empty()
	idx, _, err := Insert(stateAt(10, 1, outRef(1)), idx)
	require.NoError(t, err)

	rolledBack, newTip, err := Rollback(model.PointGenesis, idx)
	require.NoError(t, err)
	require.True(t, newTip.IsGenesis())
	require.Equal(t, 0, rolledBack.Len())
}

func TestRollbackRejectsTipMismatch(t *testing.T) {
	idx := Empty()
	idx, _, err := Insert(stateAt(10, 1), idx)
	require.NoError(t, err)

	_, _, err = Rollback(model.NewPoint(10, blockID(99)), idx)
	require.Error(t, err)

	var typed *errors.Error
	require.True(t, errors.As(err, &typed))
	require.Equal(t, errors.ERR_TIP_MISMATCH, typed.Code())
}

func TestRollbackRejectsPointOlderThanRetainedWindow(t *testing.T) {
	idx := Empty()
	for slot := model.Slot(1); slot <= 5; slot++ {
		var err error
		idx, _, err = Insert(stateAt(slot, byte(slot)), idx)
		require.NoError(t, err)
	}

	reduced := ReduceBlockCount(1, idx)
	require.Equal(t, Reduced, reduced.Outcome)

	oldest, ok := reduced.Index.OldestSlot()
	require.True(t, ok)

	_, _, err := Rollback(model.NewPoint(oldest-1, blockID(0)), reduced.Index)
	require.Error(t, err)

	var typed *errors.Error
	require.True(t, errors.As(err, &typed))
	require.Equal(t, errors.ERR_OLD_POINT_NOT_FOUND, typed.Code())
}

func TestReduceBlockCountIsNoopWithinDepth(t *testing.T) {
	idx := Empty()
	for slot := model.Slot(1); slot <= 3; slot++ {
		var err error
		idx, _, err = Insert(stateAt(slot, byte(slot)), idx)
		require.NoError(t, err)
	}

	result := ReduceBlockCount(10, idx)
	require.Equal(t, NotReduced, result.Outcome)
	require.Equal(t, 3, result.Index.Len())
}

func TestReduceBlockCountPreservesUnspentSet(t *testing.T) {
	idx := Empty()

	// slot 1 creates refA, slot 2 spends refA and creates refB, slot 3
	// creates refC. After reducing to depth 1 (retain only slot 3), the
	// combined entry at the front must still report refB unspent and refA
	// spent, matching what the full history reports.
	refA, refB, refC := outRef(1), outRef(2), outRef(3)

	s1 := model.UtxoState{Tip: tipAt(1, 1), Data: model.TxUtxoBalance{
		Outputs: map[model.TxOutRef]struct{}{refA: {}}, Inputs: map[model.TxOutRef]struct{}{},
	}}
	s2 := model.UtxoState{Tip: tipAt(2, 2), Data: model.TxUtxoBalance{
		Outputs: map[model.TxOutRef]struct{}{refB: {}}, Inputs: map[model.TxOutRef]struct{}{refA: {}},
	}}
	s3 := model.UtxoState{Tip: tipAt(3, 3), Data: model.TxUtxoBalance{
		Outputs: map[model.TxOutRef]struct{}{refC: {}}, Inputs: map[model.TxOutRef]struct{}{},
	}}

	var err error
	idx, _, err = Insert(s1, idx)
	require.NoError(t, err)
	idx, _, err = Insert(s2, idx)
	require.NoError(t, err)
	idx, _, err = Insert(s3, idx)
	require.NoError(t, err)

	before := map[model.TxOutRef]bool{
		refA: IsUnspentOutput(refA, idx),
		refB: IsUnspentOutput(refB, idx),
		refC: IsUnspentOutput(refC, idx),
	}

	result := ReduceBlockCount(1, idx)
	require.Equal(t, Reduced, result.Outcome)
	require.Equal(t, 2, result.Index.Len())

	for ref, wasUnspent := range before {
		require.Equal(t, wasUnspent, IsUnspentOutput(ref, result.Index), "ref %v liveness must survive reduction", ref)
	}
}
