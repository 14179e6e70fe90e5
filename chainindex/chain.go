// Package chainindex wires the in-memory UtxoIndex (utxoindex) and the
// relational projection (stores/utxo/sql) behind two handler objects: Chain's
// control methods (AppendBlock/Rollback/ResumeSync/CollectGarbage/
// GetDiagnostics) and its query methods (the point and paginated lookups).
// Both handlers share one Chain instance; the mutex on its embedded index
// cell is the single-writer/many-reader boundary the design calls for.
package chainindex

import (
	"context"
	"net/url"
	"sync"

	"github.com/looplab/fsm"

	"github.com/cardano-tools/chainindex/errors"
	"github.com/cardano-tools/chainindex/model"
	sqlstore "github.com/cardano-tools/chainindex/stores/utxo/sql"
	"github.com/cardano-tools/chainindex/ulogger"
	"github.com/cardano-tools/chainindex/utxoindex"
)

// Chain is the chain index: the in-memory UtxoIndex cell, guarded by mu, plus
// a handle to its durable projection.
type Chain struct {
	logger ulogger.Logger
	cfg    Config

	mu    sync.Mutex
	index *utxoindex.Index

	store *sqlstore.Store
	fsm   *fsm.FSM
}

// New opens the durable projection named by cfg.StoreURL, restores the
// in-memory index from it (§4.6), and returns a ready Chain. This is the C7
// Restore step run once at boot.
func New(logger ulogger.Logger, cfg Config) (*Chain, error) {
	storeURL, err := url.Parse(cfg.StoreURL)
	if err != nil {
		return nil, errors.NewConfigurationError("invalid store url %q", cfg.StoreURL, err)
	}

	store, err := sqlstore.Open(logger, storeURL, cfg.DataFolder, cfg.batchSize())
	if err != nil {
		return nil, err
	}

	idx, err := store.RestoreState(context.Background())
	if err != nil {
		return nil, err
	}

	logger.Infof("restored chain index at tip %s (%d retained entries)", idx.Tip(), idx.Len())

	return &Chain{logger: logger, cfg: cfg, index: idx, store: store, fsm: newControlFSM()}, nil
}

// Close releases the underlying database connection.
func (c *Chain) Close() error {
	return c.store.Close()
}

// snapshotIndex copies out the current index pointer under the lock, held
// only long enough to read it. The Index itself is never mutated in place —
// every utxoindex operation returns a new value — so handing out this
// pointer after the lock is released is safe.
func (c *Chain) snapshotIndex() *utxoindex.Index {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// snapshotTip is a convenience wrapper over snapshotIndex for callers that
// only need the tip.
func (c *Chain) snapshotTip() model.Tip {
	return c.snapshotIndex().Tip()
}
