package sql

import (
	"context"

	"github.com/cardano-tools/chainindex/errors"
)

// perTxTables are the tables CollectGarbage truncates. They hold
// resolvable-history rows keyed by hash or credential/asset-class, none of
// which participate in UTxO liveness — truncating them is safe at any time.
var perTxTables = []string{"datums", "scripts", "redeemers", "utxo_out_ref", "addresses", "asset_classes"}

// CollectGarbage truncates the per-tx indices only. It never touches tip,
// unspent_outputs, or unmatched_inputs.
func (s *Store) CollectGarbage(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin gc transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range perTxTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.NewStorageError("failed to truncate %s", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("failed to commit gc transaction", err)
	}

	s.hashCache.DeleteAll()

	return nil
}
