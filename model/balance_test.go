package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ref(txByte byte, idx uint32) TxOutRef {
	var r TxOutRef
	r.TxId[0] = txByte
	r.OutputIndex = idx
	return r
}

func TestFromBlockCancelsIntraBlockSpend(t *testing.T) {
	created := ref(1, 0)
	spentElsewhere := ref(2, 0)

	tx1 := Tx{
		Outputs: map[TxOutRef]TxOutput{created: {}},
	}
	tx2 := Tx{
		Inputs: []TxOutRef{created, spentElsewhere},
	}

	balance := FromBlock([]Tx{tx1, tx2})

	_, stillCreated := balance.Outputs[created]
	require.False(t, stillCreated, "output created and spent in the same block must cancel")

	_, recordedInput := balance.Inputs[spentElsewhere]
	require.True(t, recordedInput, "an input spending an output from outside this block must be retained")

	_, recordedCreatedInput := balance.Inputs[created]
	require.False(t, recordedCreatedInput)
}

func TestUnionIsAssociativeAndHasIdentity(t *testing.T) {
	a := TxUtxoBalance{
		Outputs: map[TxOutRef]struct{}{ref(1, 0): {}},
		Inputs:  map[TxOutRef]struct{}{},
	}
	b := TxUtxoBalance{
		Outputs: map[TxOutRef]struct{}{},
		Inputs:  map[TxOutRef]struct{}{ref(2, 0): {}},
	}
	c := TxUtxoBalance{
		Outputs: map[TxOutRef]struct{}{ref(3, 0): {}},
		Inputs:  map[TxOutRef]struct{}{},
	}

	left := Union(Union(a, b), c)
	right := Union(a, Union(b, c))

	require.Equal(t, len(left.Outputs), len(right.Outputs))
	require.Equal(t, len(left.Inputs), len(right.Inputs))

	withIdentity := Union(a, EmptyBalance())
	require.Equal(t, a.Outputs, withIdentity.Outputs)
	require.Equal(t, a.Inputs, withIdentity.Inputs)
}

func TestIsUnspentOutputScansNewestFirst(t *testing.T) {
	r := ref(1, 0)

	createdDelta := TxUtxoBalance{Outputs: map[TxOutRef]struct{}{r: {}}, Inputs: map[TxOutRef]struct{}{}}
	spentDelta := TxUtxoBalance{Outputs: map[TxOutRef]struct{}{}, Inputs: map[TxOutRef]struct{}{r: {}}}
	emptyDelta := EmptyBalance()

	// deltas ordered newest-first, as Index.Deltas() returns them.
	require.True(t, IsUnspentOutput(r, []TxUtxoBalance{emptyDelta, createdDelta}))
	require.False(t, IsUnspentOutput(r, []TxUtxoBalance{spentDelta, createdDelta}))
	require.False(t, IsUnspentOutput(r, []TxUtxoBalance{emptyDelta}))
}
