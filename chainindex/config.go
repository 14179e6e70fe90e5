package chainindex

// Config is the structured configuration record the chain index is
// constructed from — deliberately a typed struct rather than loose flags, so
// callers can't wire together a partially-configured instance.
type Config struct {
	// Depth is the rollback window, in retained blocks, before an entry
	// becomes eligible for depth reduction. A typical value mirrors a
	// cardano-node security parameter, e.g. 2160.
	Depth uint64

	// StoreURL selects the backing database: postgres://..., sqlite://name,
	// or sqlitememory://name.
	StoreURL string

	// DataFolder is where sqlite database files are created, when StoreURL
	// uses the sqlite scheme.
	DataFolder string

	// BatchSize caps the number of rows per multi-row INSERT/DELETE
	// statement. Defaults to 400 if zero, which keeps statements under the
	// sqlite bound-variable limit (~999); raise it for engines with a higher
	// limit.
	BatchSize int
}

// DefaultBatchSize is the batch size used when Config.BatchSize is unset.
const DefaultBatchSize = 400

func (c Config) batchSize() int {
	if c.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return c.BatchSize
}
