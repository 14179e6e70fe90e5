package sql

import (
	"context"
	"database/sql"
	"encoding/hex"

	"github.com/jellydator/ttlcache/v3"

	"github.com/cardano-tools/chainindex/errors"
	"github.com/cardano-tools/chainindex/model"
)

// hashLookup does a single-row lookup by hash in table's value column,
// returning (nil, nil) on a miss rather than an error — the operations built
// on it (DatumFromHash, ValidatorFromHash, ...) treat absence as None, not a
// failure.
//
// Results are cached (rows in these tables are never updated once written)
// and concurrent lookups for the same key are collapsed via singleflight, so
// a burst of requests for one hot datum/script/redeemer costs one database
// round trip.
func (s *Store) hashLookup(ctx context.Context, table, valueColumn string, hash [32]byte) ([]byte, error) {
	key := table + ":" + valueColumn + ":" + hex.EncodeToString(hash[:])

	if item := s.hashCache.Get(key); item != nil {
		return item.Value(), nil
	}

	v, err, _ := s.hashGroup.Do(key, func() (interface{}, error) {
		return s.hashLookupUncached(ctx, table, valueColumn, hash)
	})
	if err != nil {
		return nil, err
	}

	value, _ := v.([]byte)
	if value != nil {
		s.hashCache.Set(key, value, ttlcache.DefaultTTL)
	}

	return value, nil
}

func (s *Store) hashLookupUncached(ctx context.Context, table, valueColumn string, hash [32]byte) ([]byte, error) {
	q := "SELECT " + valueColumn + " FROM " + table + " WHERE hash = " + s.placeholder(1)

	var value []byte
	err := s.db.QueryRowContext(ctx, q, hash[:]).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("hash lookup in %s failed", table, err)
	}

	return value, nil
}

// DatumFromHash returns the datum stored under hash, or nil if absent.
func (s *Store) DatumFromHash(ctx context.Context, hash [32]byte) ([]byte, error) {
	return s.hashLookup(ctx, "datums", "datum", hash)
}

// ValidatorFromHash, MintingPolicyFromHash and StakeValidatorFromHash all
// resolve against the shared scripts table: the three script kinds use the
// same byte encoding and are told apart by the caller's context, not the
// storage layer.
func (s *Store) ValidatorFromHash(ctx context.Context, hash [32]byte) ([]byte, error) {
	return s.hashLookup(ctx, "scripts", "script", hash)
}

func (s *Store) MintingPolicyFromHash(ctx context.Context, hash [32]byte) ([]byte, error) {
	return s.hashLookup(ctx, "scripts", "script", hash)
}

func (s *Store) StakeValidatorFromHash(ctx context.Context, hash [32]byte) ([]byte, error) {
	return s.hashLookup(ctx, "scripts", "script", hash)
}

// RedeemerFromHash returns the redeemer stored under hash, or nil if absent.
func (s *Store) RedeemerFromHash(ctx context.Context, hash [32]byte) ([]byte, error) {
	return s.hashLookup(ctx, "redeemers", "redeemer", hash)
}

// TxOutFromRef returns the raw output body for ref, or nil if never observed.
// It is not filtered by liveness: a spent output's body is still resolvable.
func (s *Store) TxOutFromRef(ctx context.Context, ref model.TxOutRef) ([]byte, error) {
	q := "SELECT tx_out FROM utxo_out_ref WHERE out_ref = " + s.placeholder(1)

	var txOut []byte
	err := s.db.QueryRowContext(ctx, q, ref.Bytes()).Scan(&txOut)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("failed to look up out-ref %s", ref, err)
	}

	return txOut, nil
}

// GetTip returns the tip row with the highest slot, or model.TipGenesis if
// the tip table is empty.
func (s *Store) GetTip(ctx context.Context) (model.Tip, error) {
	q := "SELECT slot, block_id, block_no FROM tip ORDER BY slot DESC LIMIT 1"

	var slot model.Slot
	var blockID []byte
	var blockNo model.BlockNo

	err := s.db.QueryRowContext(ctx, q).Scan(&slot, &blockID, &blockNo)
	if err == sql.ErrNoRows {
		return model.TipGenesis, nil
	}
	if err != nil {
		return model.Tip{}, errors.NewStorageError("failed to read tip", err)
	}

	var id model.BlockId
	copy(id[:], blockID)

	return model.NewTip(slot, id, blockNo), nil
}

// pagedOutRefs runs a query returning out_ref bytes ordered ascending, and
// packages the result as a Page per the §4.5 pagination contract: nextPageQuery
// is set iff more rows exist beyond the page just returned.
func (s *Store) pagedOutRefs(ctx context.Context, baseQuery string, baseArgs []any, pq model.PageQuery) (model.Page, error) {
	pageSize := pq.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	q := baseQuery
	args := append([]any{}, baseArgs...)

	if pq.AfterKey != nil {
		q += " AND out_ref > " + s.placeholder(len(args)+1)
		args = append(args, pq.AfterKey.Bytes())
	}

	q += " ORDER BY out_ref ASC LIMIT " + s.placeholder(len(args)+1)
	args = append(args, pageSize+1)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return model.Page{}, errors.NewStorageError("paged query failed", err)
	}
	defer func() { _ = rows.Close() }()

	var refs []model.TxOutRef
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return model.Page{}, errors.NewStorageError("failed to scan out-ref", err)
		}
		refs = append(refs, decodeOutRef(b))
	}
	if err := rows.Err(); err != nil {
		return model.Page{}, errors.NewStorageError("paged query iteration failed", err)
	}

	page := model.Page{CurrentPageQuery: pq}

	if len(refs) > pageSize {
		next := refs[pageSize-1]
		page.Items = refs[:pageSize]
		page.NextPageQuery = &model.PageQuery{PageSize: pageSize, AfterKey: &next}
	} else {
		page.Items = refs
	}

	return page, nil
}

func decodeOutRef(b []byte) model.TxOutRef {
	var ref model.TxOutRef
	if len(b) < 36 {
		return ref
	}
	copy(ref.TxId[:], b[:32])
	ref.OutputIndex = uint32(b[32])<<24 | uint32(b[33])<<16 | uint32(b[34])<<8 | uint32(b[35])
	return ref
}

// UtxoSetAtAddress returns unspent out-refs at credential, paginated.
func (s *Store) UtxoSetAtAddress(ctx context.Context, pq model.PageQuery, credential model.Credential) (model.Page, error) {
	base := `
		SELECT a.out_ref FROM addresses a
		WHERE a.credential = ` + s.placeholder(1) + `
		AND EXISTS (SELECT 1 FROM unspent_outputs u WHERE u.out_ref = a.out_ref)
		AND NOT EXISTS (SELECT 1 FROM unmatched_inputs m WHERE m.out_ref = a.out_ref)
	`
	return s.pagedOutRefs(ctx, base, []any{credential.Bytes}, pq)
}

// UtxoSetWithCurrency returns unspent out-refs holding assetClass, paginated.
func (s *Store) UtxoSetWithCurrency(ctx context.Context, pq model.PageQuery, assetClass model.AssetClass) (model.Page, error) {
	base := `
		SELECT ac.out_ref FROM asset_classes ac
		WHERE ac.asset_class = ` + s.placeholder(1) + `
		AND EXISTS (SELECT 1 FROM unspent_outputs u WHERE u.out_ref = ac.out_ref)
		AND NOT EXISTS (SELECT 1 FROM unmatched_inputs m WHERE m.out_ref = ac.out_ref)
	`
	return s.pagedOutRefs(ctx, base, []any{encodeAssetClass(assetClass)}, pq)
}

// TxoSetAtAddress returns every out-ref ever observed at credential,
// paginated, with no liveness filter.
func (s *Store) TxoSetAtAddress(ctx context.Context, pq model.PageQuery, credential model.Credential) (model.Page, error) {
	base := `SELECT a.out_ref FROM addresses a WHERE a.credential = ` + s.placeholder(1)
	return s.pagedOutRefs(ctx, base, []any{credential.Bytes}, pq)
}

// Diagnostics holds the counts GetDiagnostics reports. A count of -1
// indicates the underlying aggregate query returned no row or failed.
type Diagnostics struct {
	NumScripts         int64
	NumAddresses       int64
	NumAssetClasses    int64
	NumUnspentOutputs  int64
	NumUnmatchedInputs int64
}

// GetDiagnostics computes row counts across the per-tx and UTxO tables.
func (s *Store) GetDiagnostics(ctx context.Context) (Diagnostics, error) {
	count := func(table string) int64 {
		var n int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return -1
		}
		return n
	}

	return Diagnostics{
		NumScripts:         count("scripts"),
		NumAddresses:       count("addresses"),
		NumAssetClasses:    count("asset_classes"),
		NumUnspentOutputs:  count("unspent_outputs"),
		NumUnmatchedInputs: count("unmatched_inputs"),
	}, nil
}
