// Package utxoindex implements the in-memory, slot-ordered ledger of UTxO
// balance deltas: insertion of new blocks, rollback to an earlier point, and
// depth-based reduction of old entries into a single combined snapshot.
//
// The ordering is kept as a slice sorted ascending by tip slot. Rollback
// finds its cut point by binary search (O(log n)); every operation copies
// the entries it keeps into a fresh slice — the "flat vector with
// binary search" alternative the design explicitly allows in place of a
// finger tree for the depth window sizes this index is expected to carry.
package utxoindex

import (
	"sort"

	"github.com/cardano-tools/chainindex/errors"
	"github.com/cardano-tools/chainindex/model"
)

// Index is an ordered, immutable-per-operation sequence of UtxoState entries
// keyed by tip slot. The zero value is a valid empty index at Genesis.
type Index struct {
	entries []model.UtxoState
}

// Empty returns an index with no entries, whose tip is Genesis.
func Empty() *Index {
	return &Index{}
}

// Tip returns the tip of the rightmost entry, or Genesis if the index is empty.
func (idx *Index) Tip() model.Tip {
	if len(idx.entries) == 0 {
		return model.TipGenesis
	}
	return idx.entries[len(idx.entries)-1].Tip
}

// Len reports the number of retained entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Deltas returns the retained balances, newest first — the form IsUnspentOutput expects.
func (idx *Index) Deltas() []model.TxUtxoBalance {
	out := make([]model.TxUtxoBalance, len(idx.entries))
	for i, e := range idx.entries {
		out[len(idx.entries)-1-i] = e.Data
	}
	return out
}

// OldestSlot returns the slot of the oldest retained entry and true, or
// (0, false) if the index is empty.
func (idx *Index) OldestSlot() (model.Slot, bool) {
	if len(idx.entries) == 0 {
		return 0, false
	}
	return idx.entries[0].Tip.Slot, true
}

// InsertPosition is returned on a successful insert, for logging only.
type InsertPosition int

// Insert appends new to the index. It rejects a Genesis tip (InsertUtxoNoTip),
// a non-monotone slot (DuplicateBlock). Predecessor-hash checking is left to
// the caller (the follower supplies pre-validated contiguous blocks); this
// layer only enforces slot monotonicity.
func Insert(new model.UtxoState, idx *Index) (*Index, InsertPosition, error) {
	if new.Tip.IsGenesis() {
		return nil, 0, errors.New(errors.ERR_INSERT_UTXO_NO_TIP, "cannot insert a delta with a genesis tip")
	}

	current := idx.Tip()
	if !current.IsGenesis() && new.Tip.Slot <= current.Slot {
		return nil, 0, errors.New(errors.ERR_DUPLICATE_BLOCK,
			"new tip slot %d is not after current tip slot %d", new.Tip.Slot, current.Slot)
	}

	entries := make([]model.UtxoState, len(idx.entries)+1)
	copy(entries, idx.entries)
	entries[len(idx.entries)] = new

	return &Index{entries: entries}, InsertPosition(len(entries) - 1), nil
}

// Rollback splits off the suffix of entries whose tip slot is greater than
// point.Slot, returning the retained prefix and the new tip (= point).
//
// Errors: OldPointNotFound if point is older than the oldest retained slot
// (the immutability cutoff has already consumed it); TipMismatch if a
// retained entry at point.Slot carries a different block id.
func Rollback(point model.Point, idx *Index) (*Index, model.Tip, error) {
	if point.IsGenesis() {
		return Empty(), model.TipGenesis, nil
	}

	oldest, ok := idx.OldestSlot()
	if ok && point.Slot < oldest {
		return nil, model.Tip{}, errors.New(errors.ERR_OLD_POINT_NOT_FOUND,
			"rollback point slot %d predates oldest retained slot %d", point.Slot, oldest)
	}

	cut := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].Tip.Slot > point.Slot
	})

	if cut > 0 && idx.entries[cut-1].Tip.Slot == point.Slot {
		if idx.entries[cut-1].Tip.BlockId != point.BlockId {
			return nil, model.Tip{}, errors.NewTipMismatchError(
				uint64(point.Slot), idx.entries[cut-1].Tip.BlockId.String(), point.BlockId.String())
		}
	} else if !ok || point.Slot > idx.Tip().Slot {
		// Nothing to roll back past; treat a point at or beyond the current
		// tip (with no exact match) as a mismatch rather than silently no-op.
		return nil, model.Tip{}, errors.NewTipMismatchError(
			uint64(point.Slot), idx.Tip().BlockId.String(), point.BlockId.String())
	}

	retained := make([]model.UtxoState, cut)
	copy(retained, idx.entries[:cut])

	newTip := model.NewTip(point.Slot, point.BlockId, blockNoAt(retained, point.Slot))

	return &Index{entries: retained}, newTip, nil
}

func blockNoAt(entries []model.UtxoState, slot model.Slot) model.BlockNo {
	for _, e := range entries {
		if e.Tip.Slot == slot {
			return e.Tip.BlockNo
		}
	}
	return 0
}

// ReduceOutcome reports whether Reduce collapsed any entries.
type ReduceOutcome int

const (
	// NotReduced means the index was already within depth+1 entries.
	NotReduced ReduceOutcome = iota
	// Reduced means entries older than the depth window were merged.
	Reduced
)

// ReduceResult is the outcome of ReduceBlockCount.
type ReduceResult struct {
	Outcome       ReduceOutcome
	Index         *Index
	CombinedState model.UtxoState
}

// ReduceBlockCount collapses every entry older than the newest `depth`
// entries into a single combined entry at the front of the index, whose tip
// is the newest collapsed tip and whose balance is the monoidal sum of the
// collapsed balances. It is a no-op if there are depth+1 or fewer entries.
//
// This is the only operation that loses historical rollback resolution: once
// entries are combined, Rollback can no longer target a slot inside the
// collapsed range.
func ReduceBlockCount(depth int, idx *Index) ReduceResult {
	if len(idx.entries) <= depth+1 {
		return ReduceResult{Outcome: NotReduced, Index: idx}
	}

	cutIndex := len(idx.entries) - depth
	toCollapse := idx.entries[:cutIndex]
	retained := idx.entries[cutIndex:]

	combined := model.EmptyBalance()
	for _, e := range toCollapse {
		combined = model.Union(combined, e.Data)
	}
	combinedState := model.UtxoState{Data: combined, Tip: toCollapse[len(toCollapse)-1].Tip}

	entries := make([]model.UtxoState, 0, len(retained)+1)
	entries = append(entries, combinedState)
	entries = append(entries, retained...)

	return ReduceResult{
		Outcome:       Reduced,
		Index:         &Index{entries: entries},
		CombinedState: combinedState,
	}
}

// IsUnspentOutput reports whether ref is currently unspent according to idx.
func IsUnspentOutput(ref model.TxOutRef, idx *Index) bool {
	return model.IsUnspentOutput(ref, idx.Deltas())
}
