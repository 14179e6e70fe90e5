package model

// TxUtxoBalance is the delta a single block contributes to the UTxO set: the
// outputs it created and the outputs it consumed. The two sets are disjoint
// within a single balance by construction (FromBlock cancels intra-block
// created-and-spent pairs before returning).
type TxUtxoBalance struct {
	Outputs map[TxOutRef]struct{}
	Inputs  map[TxOutRef]struct{}
}

// EmptyBalance is the identity element of the Union monoid.
func EmptyBalance() TxUtxoBalance {
	return TxUtxoBalance{Outputs: map[TxOutRef]struct{}{}, Inputs: map[TxOutRef]struct{}{}}
}

// FromBlock computes the balance contributed by txs: outputs is the union of
// every tx's outputs, inputs is the union of every tx's inputs. A ref that
// this same block both creates and spends is dropped from both sets
// (intra-block cancellation).
func FromBlock(txs []Tx) TxUtxoBalance {
	outputs := map[TxOutRef]struct{}{}
	for _, tx := range txs {
		for ref := range tx.Outputs {
			outputs[ref] = struct{}{}
		}
	}

	inputs := map[TxOutRef]struct{}{}
	for _, tx := range txs {
		for _, ref := range tx.Inputs {
			if _, created := outputs[ref]; created {
				delete(outputs, ref)
				continue
			}
			inputs[ref] = struct{}{}
		}
	}

	return TxUtxoBalance{Outputs: outputs, Inputs: inputs}
}

// Union combines two balances under disjoint set union, the monoidal
// operation TxUtxoBalance is required to satisfy (associative, EmptyBalance
// as identity).
func Union(a, b TxUtxoBalance) TxUtxoBalance {
	out := TxUtxoBalance{
		Outputs: make(map[TxOutRef]struct{}, len(a.Outputs)+len(b.Outputs)),
		Inputs:  make(map[TxOutRef]struct{}, len(a.Inputs)+len(b.Inputs)),
	}
	for ref := range a.Outputs {
		out.Outputs[ref] = struct{}{}
	}
	for ref := range b.Outputs {
		out.Outputs[ref] = struct{}{}
	}
	for ref := range a.Inputs {
		out.Inputs[ref] = struct{}{}
	}
	for ref := range b.Inputs {
		out.Inputs[ref] = struct{}{}
	}
	return out
}

// IsUnspentOutput reports whether ref was created and not yet consumed,
// scanning deltas from newest to oldest: a ref is unspent iff some delta's
// Outputs contains it and no delta's Inputs (at or after that point) does.
func IsUnspentOutput(ref TxOutRef, deltas []TxUtxoBalance) bool {
	created := false
	for _, d := range deltas {
		if _, spent := d.Inputs[ref]; spent {
			return false
		}
		if _, out := d.Outputs[ref]; out {
			created = true
		}
	}
	return created
}

// UtxoState is the unit carried at each slot of the UtxoIndex: a balance
// delta paired with the tip it was derived from.
type UtxoState struct {
	Data TxUtxoBalance
	Tip  Tip
}
