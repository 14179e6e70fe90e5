package sql

import (
	"context"
	"sort"

	"github.com/cardano-tools/chainindex/errors"
	"github.com/cardano-tools/chainindex/model"
	"github.com/cardano-tools/chainindex/utxoindex"
)

// RestoreState rebuilds an in-memory UtxoIndex purely from the database: it
// reads unspent_outputs and unmatched_inputs, folds them into a per-slot
// balance under the union monoid, then walks tip rows ascending by slot and
// pairs each with its folded balance (or the empty balance if the slot has
// none).
func (s *Store) RestoreState(ctx context.Context) (*utxoindex.Index, error) {
	balances := map[model.Slot]model.TxUtxoBalance{}

	if err := s.foldOutRefs(ctx, "unspent_outputs", balances, func(b *model.TxUtxoBalance, ref model.TxOutRef) {
		b.Outputs[ref] = struct{}{}
	}); err != nil {
		return nil, err
	}

	if err := s.foldOutRefs(ctx, "unmatched_inputs", balances, func(b *model.TxUtxoBalance, ref model.TxOutRef) {
		b.Inputs[ref] = struct{}{}
	}); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT slot, block_id, block_no FROM tip ORDER BY slot ASC")
	if err != nil {
		return nil, errors.NewStorageError("restore: failed to read tip rows", err)
	}
	defer func() { _ = rows.Close() }()

	idx := utxoindex.Empty()
	for rows.Next() {
		var slot model.Slot
		var blockIDBytes []byte
		var blockNo model.BlockNo

		if err := rows.Scan(&slot, &blockIDBytes, &blockNo); err != nil {
			return nil, errors.NewStorageError("restore: failed to scan tip row", err)
		}

		var blockID model.BlockId
		copy(blockID[:], blockIDBytes)

		balance, ok := balances[slot]
		if !ok {
			balance = model.EmptyBalance()
		}

		state := model.UtxoState{Data: balance, Tip: model.NewTip(slot, blockID, blockNo)}

		idx, _, err = utxoindex.Insert(state, idx)
		if err != nil {
			return nil, errors.NewStorageError("restore: failed to rebuild index at slot %d", slot, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("restore: tip row iteration failed", err)
	}

	return idx, nil
}

func (s *Store) foldOutRefs(ctx context.Context, table string, balances map[model.Slot]model.TxUtxoBalance, apply func(*model.TxUtxoBalance, model.TxOutRef)) error {
	rows, err := s.db.QueryContext(ctx, "SELECT tip_slot, out_ref FROM "+table)
	if err != nil {
		return errors.NewStorageError("restore: failed to read %s", table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var slot model.Slot
		var refBytes []byte

		if err := rows.Scan(&slot, &refBytes); err != nil {
			return errors.NewStorageError("restore: failed to scan %s row", table, err)
		}

		balance, ok := balances[slot]
		if !ok {
			balance = model.EmptyBalance()
		}
		apply(&balance, decodeOutRef(refBytes))
		balances[slot] = balance
	}

	return rows.Err()
}

// GetResumePoints returns every retained tip, newest slot first, as
// candidate points the upstream follower may negotiate a resume from.
func (s *Store) GetResumePoints(ctx context.Context) ([]model.Point, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT slot, block_id FROM tip ORDER BY slot DESC")
	if err != nil {
		return nil, errors.NewStorageError("failed to read resume points", err)
	}
	defer func() { _ = rows.Close() }()

	var points []model.Point
	for rows.Next() {
		var slot model.Slot
		var blockIDBytes []byte
		if err := rows.Scan(&slot, &blockIDBytes); err != nil {
			return nil, errors.NewStorageError("failed to scan resume point", err)
		}
		var blockID model.BlockId
		copy(blockID[:], blockIDBytes)
		points = append(points, model.NewPoint(slot, blockID))
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Slot > points[j].Slot })

	return points, rows.Err()
}
