package sql

import (
	"context"
	"database/sql"

	"github.com/cardano-tools/chainindex/errors"
	"github.com/cardano-tools/chainindex/model"
)

// rollbackUtxoDb drops every tip strictly after point, and the
// unspent/unmatched rows anchored to those tips. Deletion of the dependent
// rows is issued explicitly rather than relied on via FK cascade, since
// sqlite only enforces ON DELETE CASCADE when foreign keys are turned on for
// the connection, which this store does not assume.
//
// The per-tx indices (datums/scripts/redeemers/addresses/asset_classes) are
// address-anchored history, not UTxO state, and are left untouched by a
// rollback.
func (s *Store) rollbackUtxoDb(ctx context.Context, tx *sql.Tx, point model.Point) error {
	if point.IsGenesis() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM unspent_outputs`); err != nil {
			return errors.NewStorageError("rollbackUtxoDb: failed to delete unspent_outputs", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM unmatched_inputs`); err != nil {
			return errors.NewStorageError("rollbackUtxoDb: failed to delete unmatched_inputs", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tip`); err != nil {
			return errors.NewStorageError("rollbackUtxoDb: failed to delete tip", err)
		}
		return nil
	}

	if _, err := tx.ExecContext(ctx, s.stmt(`DELETE FROM unspent_outputs WHERE tip_slot > {1}`), point.Slot); err != nil {
		return errors.NewStorageError("rollbackUtxoDb: failed to delete unspent_outputs", err)
	}
	if _, err := tx.ExecContext(ctx, s.stmt(`DELETE FROM unmatched_inputs WHERE tip_slot > {1}`), point.Slot); err != nil {
		return errors.NewStorageError("rollbackUtxoDb: failed to delete unmatched_inputs", err)
	}
	if _, err := tx.ExecContext(ctx, s.stmt(`DELETE FROM tip WHERE slot > {1}`), point.Slot); err != nil {
		return errors.NewStorageError("rollbackUtxoDb: failed to delete tip", err)
	}

	return nil
}

// Rollback runs rollbackUtxoDb in its own transaction. The control handler
// calls it after computing the in-memory rollback and installs that new
// index only once this returns nil.
func (s *Store) Rollback(ctx context.Context, point model.Point) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin rollback transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.rollbackUtxoDb(ctx, tx, point); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("failed to commit rollback transaction", err)
	}

	return nil
}
