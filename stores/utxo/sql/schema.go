package sql

import (
	"fmt"

	"github.com/cardano-tools/chainindex/util/usql"
)

// createPostgresSchema creates the tables described in the persistence
// projection design: tip, unspent_outputs, unmatched_inputs, utxo_out_ref,
// datums, scripts, redeemers, addresses, asset_classes.
//
// The cascade-delete contract between unspent_outputs and unmatched_inputs is
// implemented as an explicit second DELETE inside reduceOldUtxoDb rather than
// a database trigger: Postgres and sqlite diverge enough in trigger syntax
// that keeping the cascade in application code, inside the same transaction,
// is simpler to keep correct across both dialects.
func createPostgresSchema(db *usql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tip (
			slot     BIGINT PRIMARY KEY
			,block_id BYTEA NOT NULL
			,block_no BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS unspent_outputs (
			tip_slot BIGINT NOT NULL REFERENCES tip(slot) ON DELETE CASCADE
			,out_ref BYTEA NOT NULL
			,PRIMARY KEY (tip_slot, out_ref)
		)`,
		`CREATE INDEX IF NOT EXISTS ix_unspent_outputs_out_ref ON unspent_outputs (out_ref)`,
		`CREATE TABLE IF NOT EXISTS unmatched_inputs (
			tip_slot BIGINT NOT NULL REFERENCES tip(slot) ON DELETE CASCADE
			,out_ref BYTEA NOT NULL
			,PRIMARY KEY (tip_slot, out_ref)
		)`,
		`CREATE INDEX IF NOT EXISTS ix_unmatched_inputs_out_ref ON unmatched_inputs (out_ref)`,
		`CREATE TABLE IF NOT EXISTS utxo_out_ref (
			out_ref BYTEA PRIMARY KEY
			,tx_out BYTEA NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS datums (
			hash  BYTEA PRIMARY KEY
			,datum BYTEA NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scripts (
			hash   BYTEA PRIMARY KEY
			,script BYTEA NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS redeemers (
			hash     BYTEA PRIMARY KEY
			,redeemer BYTEA NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS addresses (
			credential BYTEA NOT NULL
			,out_ref    BYTEA NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_addresses_credential ON addresses (credential, out_ref)`,
		`CREATE TABLE IF NOT EXISTS asset_classes (
			asset_class BYTEA NOT NULL
			,out_ref     BYTEA NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_asset_classes_asset_class ON asset_classes (asset_class, out_ref)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("could not apply schema statement [%s]: %w", stmt, err)
		}
	}

	return nil
}

// createSqliteSchema mirrors createPostgresSchema using sqlite-compatible
// column types (BLOB instead of BYTEA, no ON DELETE CASCADE support needed
// since the application-level cascade handles it explicitly).
func createSqliteSchema(db *usql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tip (
			slot     INTEGER PRIMARY KEY
			,block_id BLOB NOT NULL
			,block_no INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS unspent_outputs (
			tip_slot INTEGER NOT NULL REFERENCES tip(slot)
			,out_ref  BLOB NOT NULL
			,PRIMARY KEY (tip_slot, out_ref)
		)`,
		`CREATE INDEX IF NOT EXISTS ix_unspent_outputs_out_ref ON unspent_outputs (out_ref)`,
		`CREATE TABLE IF NOT EXISTS unmatched_inputs (
			tip_slot INTEGER NOT NULL REFERENCES tip(slot)
			,out_ref  BLOB NOT NULL
			,PRIMARY KEY (tip_slot, out_ref)
		)`,
		`CREATE INDEX IF NOT EXISTS ix_unmatched_inputs_out_ref ON unmatched_inputs (out_ref)`,
		`CREATE TABLE IF NOT EXISTS utxo_out_ref (
			out_ref BLOB PRIMARY KEY
			,tx_out  BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS datums (
			hash  BLOB PRIMARY KEY
			,datum BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scripts (
			hash   BLOB PRIMARY KEY
			,script BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS redeemers (
			hash     BLOB PRIMARY KEY
			,redeemer BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS addresses (
			credential BLOB NOT NULL
			,out_ref    BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_addresses_credential ON addresses (credential, out_ref)`,
		`CREATE TABLE IF NOT EXISTS asset_classes (
			asset_class BLOB NOT NULL
			,out_ref     BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_asset_classes_asset_class ON asset_classes (asset_class, out_ref)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("could not apply schema statement [%s]: %w", stmt, err)
		}
	}

	return nil
}
