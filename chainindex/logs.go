package chainindex

import (
	"context"

	"github.com/cardano-tools/chainindex/model"
	"github.com/cardano-tools/chainindex/tracing"
	"github.com/cardano-tools/chainindex/ulogger"
	"github.com/cardano-tools/chainindex/utxoindex"
)

// logInsertionSuccess logs the structured InsertionSuccess event, tagged with
// ctx's correlation id so every line a single AppendBlock call produces can
// be grouped together.
func logInsertionSuccess(ctx context.Context, logger ulogger.Logger, tip model.Tip, pos utxoindex.InsertPosition) {
	logger.Infof("[%s] InsertionSuccess tip=%s pos=%d", tracing.CorrelationID(ctx), tip, pos)
}

// logRollbackSuccess logs the structured RollbackSuccess event.
func logRollbackSuccess(ctx context.Context, logger ulogger.Logger, tip model.Tip) {
	logger.Infof("[%s] RollbackSuccess tip=%s", tracing.CorrelationID(ctx), tip)
}

// logTipIsGenesis logs the structured TipIsGenesis event, emitted when a
// query that requires a tip finds the index still at genesis.
func logTipIsGenesis(ctx context.Context, logger ulogger.Logger, op string) {
	logger.Warnf("[%s] TipIsGenesis op=%s", tracing.CorrelationID(ctx), op)
}

// logErr logs a structured chain-index error.
func logErr(ctx context.Context, logger ulogger.Logger, op string, err error) {
	logger.Errorf("[%s] Err op=%s err=%v", tracing.CorrelationID(ctx), op, err)
}
