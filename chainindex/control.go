package chainindex

import (
	"context"

	"github.com/cardano-tools/chainindex/errors"
	"github.com/cardano-tools/chainindex/model"
	"github.com/cardano-tools/chainindex/tracing"
	"github.com/cardano-tools/chainindex/utxoindex"
)

// AppendBlock validates and applies a follower-supplied block: it computes
// the block's balance, attempts the in-memory insert, and — only on success —
// projects the change into the database. A failed insert never touches the
// database (step 2 of the write protocol); a failed projection leaves the
// in-memory index rolled back to its pre-call value so the two tiers cannot
// diverge.
func (c *Chain) AppendBlock(ctx context.Context, block model.ChainSyncBlock) error {
	ctx, done := tracing.Start(ctx, "AppendBlock")
	defer done()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := canFire(ctx, c.fsm, fsmEventAppendBlock); err != nil {
		return errors.NewInsertionFailedError("append block", err)
	}

	prometheusAppendBlock.Inc()

	newState := model.UtxoState{Data: model.FromBlock(block.Transactions), Tip: block.Tip}

	nextIndex, pos, err := utxoindex.Insert(newState, c.index)
	if err != nil {
		wrapped := errors.NewInsertionFailedError("append block at tip %s", block.Tip, err)
		logErr(ctx, c.logger, "AppendBlock", wrapped)
		prometheusControlErrors.WithLabelValues("AppendBlock").Inc()
		return wrapped
	}

	var reduceToSlot *model.Slot
	result := utxoindex.ReduceBlockCount(int(c.cfg.Depth), nextIndex)
	if result.Outcome == utxoindex.Reduced {
		nextIndex = result.Index
		slot := result.CombinedState.Tip.Slot
		reduceToSlot = &slot
	}

	if err := c.store.AppendBlock(ctx, reduceToSlot, newState, block.Transactions); err != nil {
		wrapped := errors.NewInsertionFailedError("append block at tip %s", block.Tip, err)
		logErr(ctx, c.logger, "AppendBlock", wrapped)
		prometheusControlErrors.WithLabelValues("AppendBlock").Inc()
		return wrapped
	}

	c.index = nextIndex
	logInsertionSuccess(ctx, c.logger, block.Tip, pos)

	return nil
}

// Rollback splits the in-memory index back to point and mirrors the same cut
// into the database. Either side failing leaves both tiers at their
// pre-call state.
func (c *Chain) Rollback(ctx context.Context, point model.Point) error {
	ctx, done := tracing.Start(ctx, "Rollback")
	defer done()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := canFire(ctx, c.fsm, fsmEventRollback); err != nil {
		return errors.NewRollbackFailedError("rollback", err)
	}

	prometheusRollback.Inc()

	nextIndex, newTip, err := utxoindex.Rollback(point, c.index)
	if err != nil {
		wrapped := errors.NewRollbackFailedError("rollback to %s", point, err)
		logErr(ctx, c.logger, "Rollback", wrapped)
		prometheusControlErrors.WithLabelValues("Rollback").Inc()
		return wrapped
	}

	if err := c.store.Rollback(ctx, point); err != nil {
		wrapped := errors.NewRollbackFailedError("rollback to %s", point, err)
		logErr(ctx, c.logger, "Rollback", wrapped)
		prometheusControlErrors.WithLabelValues("Rollback").Inc()
		return wrapped
	}

	c.index = nextIndex
	logRollbackSuccess(ctx, c.logger, newTip)

	return nil
}

// ResumeSync rolls the database back to point and rebuilds the in-memory
// index from it, for the case where the follower resumes from a point that
// predates a crash mid-transition.
func (c *Chain) ResumeSync(ctx context.Context, point model.Point) error {
	ctx, done := tracing.Start(ctx, "ResumeSync")
	defer done()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := canFire(ctx, c.fsm, fsmEventResumeSync); err != nil {
		return errors.NewRollbackFailedError("resume sync", err)
	}

	if err := c.store.Rollback(ctx, point); err != nil {
		wrapped := errors.NewRollbackFailedError("resume sync to %s", point, err)
		logErr(ctx, c.logger, "ResumeSync", wrapped)
		return wrapped
	}

	idx, err := c.store.RestoreState(ctx)
	if err != nil {
		wrapped := errors.NewRollbackFailedError("resume sync to %s", point, err)
		logErr(ctx, c.logger, "ResumeSync", wrapped)
		return wrapped
	}

	c.index = idx
	logRollbackSuccess(ctx, c.logger, idx.Tip())

	return nil
}

// CollectGarbage truncates the per-tx indices. It never touches the
// in-memory UtxoIndex or the UTxO ledger tables.
func (c *Chain) CollectGarbage(ctx context.Context) error {
	ctx, done := tracing.Start(ctx, "CollectGarbage")
	defer done()

	if err := canFire(ctx, c.fsm, fsmEventCollectGarbage); err != nil {
		return err
	}

	prometheusCollectGarbage.Inc()

	if err := c.store.CollectGarbage(ctx); err != nil {
		logErr(ctx, c.logger, "CollectGarbage", err)
		prometheusControlErrors.WithLabelValues("CollectGarbage").Inc()
		return err
	}
	return nil
}

// GetDiagnostics reports row counts across the per-tx and UTxO tables.
func (c *Chain) GetDiagnostics(ctx context.Context) (Diagnostics, error) {
	ctx, done := tracing.Start(ctx, "GetDiagnostics")
	defer done()

	if err := canFire(ctx, c.fsm, fsmEventGetDiagnostics); err != nil {
		return Diagnostics{}, err
	}

	d, err := c.store.GetDiagnostics(ctx)
	if err != nil {
		return Diagnostics{}, err
	}
	return Diagnostics(d), nil
}
