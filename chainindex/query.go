package chainindex

import (
	"context"

	"github.com/cardano-tools/chainindex/errors"
	"github.com/cardano-tools/chainindex/model"
	sqlstore "github.com/cardano-tools/chainindex/stores/utxo/sql"
	"github.com/cardano-tools/chainindex/tracing"
	"github.com/cardano-tools/chainindex/utxoindex"
)

// Diagnostics mirrors sqlstore.Diagnostics; kept as a distinct type so
// callers of the chainindex package don't need to import the storage layer
// directly.
type Diagnostics sqlstore.Diagnostics

// queryHistogram wraps tracing.Start with the query-latency histogram for
// method, returning the derived context and the deferred finish func.
func queryHistogram(ctx context.Context, method string) (context.Context, func()) {
	return tracing.Start(ctx, method, tracing.WithHistogram(prometheusQueryDuration.WithLabelValues(method)))
}

// DatumFromHash returns the datum stored under hash, or nil if absent.
func (c *Chain) DatumFromHash(ctx context.Context, hash [32]byte) ([]byte, error) {
	ctx, done := queryHistogram(ctx, "DatumFromHash")
	defer done()
	return c.store.DatumFromHash(ctx, hash)
}

// ValidatorFromHash returns the validator script stored under hash, or nil.
func (c *Chain) ValidatorFromHash(ctx context.Context, hash [32]byte) ([]byte, error) {
	ctx, done := queryHistogram(ctx, "ValidatorFromHash")
	defer done()
	return c.store.ValidatorFromHash(ctx, hash)
}

// MintingPolicyFromHash returns the minting policy script stored under hash, or nil.
func (c *Chain) MintingPolicyFromHash(ctx context.Context, hash [32]byte) ([]byte, error) {
	ctx, done := queryHistogram(ctx, "MintingPolicyFromHash")
	defer done()
	return c.store.MintingPolicyFromHash(ctx, hash)
}

// RedeemerFromHash returns the redeemer stored under hash, or nil if absent.
func (c *Chain) RedeemerFromHash(ctx context.Context, hash [32]byte) ([]byte, error) {
	ctx, done := queryHistogram(ctx, "RedeemerFromHash")
	defer done()
	return c.store.RedeemerFromHash(ctx, hash)
}

// StakeValidatorFromHash returns the stake validator script stored under hash, or nil.
func (c *Chain) StakeValidatorFromHash(ctx context.Context, hash [32]byte) ([]byte, error) {
	ctx, done := queryHistogram(ctx, "StakeValidatorFromHash")
	defer done()
	return c.store.StakeValidatorFromHash(ctx, hash)
}

// TxOutFromRef returns the raw output body for ref, unfiltered by liveness.
func (c *Chain) TxOutFromRef(ctx context.Context, ref model.TxOutRef) ([]byte, error) {
	ctx, done := queryHistogram(ctx, "TxOutFromRef")
	defer done()
	return c.store.TxOutFromRef(ctx, ref)
}

// UtxoSetMembership reports whether ref is currently unspent, alongside the
// in-memory tip the answer is consistent with. It fails with
// ERR_QUERY_FAILED_NO_TIP if the index is still at genesis.
func (c *Chain) UtxoSetMembership(ref model.TxOutRef) (model.Tip, bool, error) {
	idx := c.snapshotIndex()
	tip := idx.Tip()

	if tip.IsGenesis() {
		logTipIsGenesis(context.Background(), c.logger, "UtxoSetMembership")
		return model.Tip{}, false, errors.ErrQueryFailedNoTip
	}

	return tip, utxoindex.IsUnspentOutput(ref, idx), nil
}

// UtxoSetAtAddress returns unspent out-refs at credential, paginated. If the
// index is at genesis it returns an empty page with tip = Genesis rather
// than failing, matching the design's guard for bulk address/currency reads.
func (c *Chain) UtxoSetAtAddress(ctx context.Context, pq model.PageQuery, credential model.Credential) (model.Tip, model.Page, error) {
	ctx, done := queryHistogram(ctx, "UtxoSetAtAddress")
	defer done()

	tip := c.snapshotTip()
	if tip.IsGenesis() {
		logTipIsGenesis(ctx, c.logger, "UtxoSetAtAddress")
		return model.TipGenesis, model.Page{CurrentPageQuery: pq}, nil
	}

	page, err := c.store.UtxoSetAtAddress(ctx, pq, credential)
	return tip, page, err
}

// UtxoSetWithCurrency returns unspent out-refs holding assetClass, paginated.
func (c *Chain) UtxoSetWithCurrency(ctx context.Context, pq model.PageQuery, assetClass model.AssetClass) (model.Tip, model.Page, error) {
	ctx, done := queryHistogram(ctx, "UtxoSetWithCurrency")
	defer done()

	tip := c.snapshotTip()
	if tip.IsGenesis() {
		logTipIsGenesis(ctx, c.logger, "UtxoSetWithCurrency")
		return model.TipGenesis, model.Page{CurrentPageQuery: pq}, nil
	}

	page, err := c.store.UtxoSetWithCurrency(ctx, pq, assetClass)
	return tip, page, err
}

// TxoSetAtAddress returns every out-ref ever observed at credential,
// paginated, with no liveness filter.
func (c *Chain) TxoSetAtAddress(ctx context.Context, pq model.PageQuery, credential model.Credential) (model.Tip, model.Page, error) {
	ctx, done := queryHistogram(ctx, "TxoSetAtAddress")
	defer done()

	tip := c.snapshotTip()
	if tip.IsGenesis() {
		logTipIsGenesis(ctx, c.logger, "TxoSetAtAddress")
		return model.TipGenesis, model.Page{CurrentPageQuery: pq}, nil
	}

	page, err := c.store.TxoSetAtAddress(ctx, pq, credential)
	return tip, page, err
}

// GetTip reads the max-slot row from the durable tip table.
func (c *Chain) GetTip(ctx context.Context) (model.Tip, error) {
	ctx, done := queryHistogram(ctx, "GetTip")
	defer done()
	return c.store.GetTip(ctx)
}

// GetResumePoints returns all durable tips, newest first, as candidate
// negotiation points for the upstream follower.
func (c *Chain) GetResumePoints(ctx context.Context) ([]model.Point, error) {
	ctx, done := queryHistogram(ctx, "GetResumePoints")
	defer done()
	return c.store.GetResumePoints(ctx)
}
