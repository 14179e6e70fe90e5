package sql

import (
	"context"
	"database/sql"

	"github.com/cardano-tools/chainindex/errors"
	"github.com/cardano-tools/chainindex/model"
)

// AppendBlock performs steps 3-5 of the append-block write protocol inside a
// single transaction: if reduceToSlot is non-nil, reduceOldUtxoDb runs first
// (step 3); then the per-tx auxiliary rows are projected (step 4); then the
// new balance is projected into tip/unspent_outputs/unmatched_inputs (step
// 5). Any failure rolls back the whole transaction, leaving the database
// exactly as it was before the call. The caller (Chain.AppendBlock) installs
// its new in-memory index only after this returns nil, so a failure here is
// surfaced as InsertionFailed with the in-memory side left unchanged.
func (s *Store) AppendBlock(ctx context.Context, reduceToSlot *model.Slot, newState model.UtxoState, txs []model.Tx) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin append-block transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if reduceToSlot != nil {
		if err := s.reduceOldUtxoDb(ctx, tx, *reduceToSlot); err != nil {
			return err
		}
	}

	if err := s.projectTxs(ctx, tx, txs); err != nil {
		return err
	}

	if err := s.projectUtxoState(ctx, tx, newState); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("failed to commit append-block transaction", err)
	}

	return nil
}

// projectTxs writes the auxiliary, per-tx rows for every tx whose StoreTx
// flag is set: datums, scripts, redeemers, the out-ref body, and the
// address/asset-class indices. Txs with StoreTx = false still contribute
// their balance (handled separately by projectUtxoState) but are skipped here.
func (s *Store) projectTxs(ctx context.Context, tx *sql.Tx, txs []model.Tx) error {
	var datumRows, scriptRows, redeemerRows, outRefRows, addressRows, assetClassRows [][]any

	for _, t := range txs {
		if !t.StoreTx {
			continue
		}

		for hash, datum := range t.Datums {
			h := hash
			datumRows = append(datumRows, []any{h[:], datum})
		}
		for hash, script := range t.Scripts {
			h := hash
			scriptRows = append(scriptRows, []any{h[:], script})
		}
		for hash, redeemer := range t.Redeemers {
			h := hash
			redeemerRows = append(redeemerRows, []any{h[:], redeemer})
		}

		for ref, out := range t.Outputs {
			if !model.ValidCbor(out.ValueCbor) {
				return errors.NewInvalidArgumentError("malformed value cbor for out-ref %s", ref)
			}
			outRefRows = append(outRefRows, []any{ref.Bytes(), out.ValueCbor})

			if len(out.Credential.Bytes) > 0 {
				addressRows = append(addressRows, []any{out.Credential.Bytes, ref.Bytes()})
			}

			for _, ac := range out.AssetClasses {
				assetClassRows = append(assetClassRows, []any{encodeAssetClass(ac), ref.Bytes()})
			}
		}
	}

	batches := []struct {
		table   string
		columns []string
		rows    [][]any
	}{
		{"datums", []string{"hash", "datum"}, datumRows},
		{"scripts", []string{"hash", "script"}, scriptRows},
		{"redeemers", []string{"hash", "redeemer"}, redeemerRows},
		{"utxo_out_ref", []string{"out_ref", "tx_out"}, outRefRows},
		{"addresses", []string{"credential", "out_ref"}, addressRows},
		{"asset_classes", []string{"asset_class", "out_ref"}, assetClassRows},
	}

	for _, b := range batches {
		if err := s.batchInsert(ctx, tx, b.table, b.columns, b.rows); err != nil {
			return errors.NewStorageError("failed to project %s", b.table, err)
		}
	}

	return nil
}

// projectUtxoState writes the tip row and the unspent_outputs/unmatched_inputs
// rows for state. It does not delete anything; rollback and reduction own
// the delete paths.
func (s *Store) projectUtxoState(ctx context.Context, tx *sql.Tx, state model.UtxoState) error {
	if state.Tip.IsGenesis() {
		return nil
	}

	if _, err := tx.ExecContext(ctx,
		insertTipSQL(s.engine), state.Tip.Slot, state.Tip.BlockId[:], state.Tip.BlockNo,
	); err != nil {
		return errors.NewStorageError("failed to insert tip row", err)
	}

	unspent := make([][]any, 0, len(state.Data.Outputs))
	for ref := range state.Data.Outputs {
		unspent = append(unspent, []any{state.Tip.Slot, ref.Bytes()})
	}
	if err := s.batchInsert(ctx, tx, "unspent_outputs", []string{"tip_slot", "out_ref"}, unspent); err != nil {
		return errors.NewStorageError("failed to project unspent_outputs", err)
	}

	unmatched := make([][]any, 0, len(state.Data.Inputs))
	for ref := range state.Data.Inputs {
		unmatched = append(unmatched, []any{state.Tip.Slot, ref.Bytes()})
	}
	if err := s.batchInsert(ctx, tx, "unmatched_inputs", []string{"tip_slot", "out_ref"}, unmatched); err != nil {
		return errors.NewStorageError("failed to project unmatched_inputs", err)
	}

	return nil
}

func insertTipSQL(engine string) string {
	if engine == "postgres" {
		return `INSERT INTO tip (slot, block_id, block_no) VALUES ($1, $2, $3)`
	}
	return `INSERT INTO tip (slot, block_id, block_no) VALUES (?, ?, ?)`
}
