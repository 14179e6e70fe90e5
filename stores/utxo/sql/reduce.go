package sql

import (
	"context"
	"database/sql"

	"github.com/cardano-tools/chainindex/errors"
	"github.com/cardano-tools/chainindex/model"
)

// reduceOldUtxoDb collapses every row older than slot into slot, mirroring
// the in-memory reduce_block_count operation: re-tag unspent/unmatched rows
// below slot onto slot, delete tip rows below slot, then delete any out-ref
// that now appears on both sides of a matched pair at slot. The re-tag runs
// before the tip delete so that a foreign-key cascade from tip (postgres)
// has no rows left to remove.
//
// The cascade from unspent_outputs to unmatched_inputs is implemented as an
// explicit second DELETE against a captured matched-ref set, rather than a
// database trigger: the matched set must be read before either side is
// mutated, since deleting one side first destroys the evidence the other
// side's DELETE needs, and trigger syntax for this diverges between postgres
// and sqlite anyway.
func (s *Store) reduceOldUtxoDb(ctx context.Context, tx *sql.Tx, slot model.Slot) error {
	if _, err := tx.ExecContext(ctx,
		s.stmt(`UPDATE unspent_outputs SET tip_slot = {1} WHERE tip_slot < {1}`), slot,
	); err != nil {
		return errors.NewStorageError("reduceOldUtxoDb: failed to re-tag unspent_outputs", err)
	}

	if _, err := tx.ExecContext(ctx,
		s.stmt(`UPDATE unmatched_inputs SET tip_slot = {1} WHERE tip_slot < {1}`), slot,
	); err != nil {
		return errors.NewStorageError("reduceOldUtxoDb: failed to re-tag unmatched_inputs", err)
	}

	if _, err := tx.ExecContext(ctx, s.stmt(`DELETE FROM tip WHERE slot < {1}`), slot); err != nil {
		return errors.NewStorageError("reduceOldUtxoDb: failed to delete old tip rows", err)
	}

	matched, err := s.matchedOutRefsAtSlot(ctx, tx, slot)
	if err != nil {
		return err
	}

	if err := s.deleteOutRefsAtSlot(ctx, tx, "unspent_outputs", slot, matched); err != nil {
		return errors.NewStorageError("reduceOldUtxoDb: failed to delete matched unspent_outputs", err)
	}

	if err := s.deleteOutRefsAtSlot(ctx, tx, "unmatched_inputs", slot, matched); err != nil {
		return errors.NewStorageError("reduceOldUtxoDb: failed to cascade-delete matched unmatched_inputs", err)
	}

	return nil
}

// matchedOutRefsAtSlot returns the out-refs that appear in both
// unspent_outputs and unmatched_inputs at tip_slot = slot.
func (s *Store) matchedOutRefsAtSlot(ctx context.Context, tx *sql.Tx, slot model.Slot) ([][]byte, error) {
	rows, err := tx.QueryContext(ctx, s.stmt(`
		SELECT u.out_ref FROM unspent_outputs u
		INNER JOIN unmatched_inputs m ON m.out_ref = u.out_ref AND m.tip_slot = u.tip_slot
		WHERE u.tip_slot = {1}
	`), slot)
	if err != nil {
		return nil, errors.NewStorageError("failed to compute matched out-refs at slot %d", slot, err)
	}
	defer func() { _ = rows.Close() }()

	var refs [][]byte
	for rows.Next() {
		var ref []byte
		if err := rows.Scan(&ref); err != nil {
			return nil, errors.NewStorageError("failed to scan matched out-ref", err)
		}
		refs = append(refs, ref)
	}

	return refs, rows.Err()
}

// deleteOutRefsAtSlot deletes rows from table at tip_slot = slot whose
// out_ref is in refs, batching the IN clause to respect the bound-variable
// limit the same way row-insert batching does.
func (s *Store) deleteOutRefsAtSlot(ctx context.Context, tx *sql.Tx, table string, slot model.Slot, refs [][]byte) error {
	if len(refs) == 0 {
		return nil
	}

	for start := 0; start < len(refs); start += s.batchSize - 1 {
		end := start + (s.batchSize - 1)
		if end > len(refs) {
			end = len(refs)
		}
		chunk := refs[start:end]

		placeholders := make([]string, len(chunk))
		args := make([]any, 0, len(chunk)+1)
		args = append(args, slot)
		for i, ref := range chunk {
			placeholders[i] = s.placeholder(i + 2)
			args = append(args, ref)
		}

		q := "DELETE FROM " + table + " WHERE tip_slot = " + s.placeholder(1) +
			" AND out_ref IN (" + joinComma(placeholders) + ")"

		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}

	return nil
}
