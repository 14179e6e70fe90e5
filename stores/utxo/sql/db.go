// Package sql is the relational projection of the chain index: the flat
// table schema (C1) and the write/read paths that keep those tables in
// lock-step with the in-memory UtxoIndex (C4).
package sql

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/labstack/gommon/random"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
	"golang.org/x/sync/singleflight"

	"github.com/cardano-tools/chainindex/errors"
	"github.com/cardano-tools/chainindex/ulogger"
	"github.com/cardano-tools/chainindex/util/usql"
)

// defaultBatchSize is the number of rows per INSERT statement. It exists to stay
// under the SQL driver's bound-variable limit (~999 for sqlite); callers may
// override it via Config for engines with a larger limit.
const defaultBatchSize = 400

// hashLookupCacheTTL bounds how long a resolved datum/script/redeemer stays
// cached. These rows are append-only history (never updated once written),
// so the TTL exists only to bound memory, not for invalidation correctness.
const hashLookupCacheTTL = 10 * time.Minute

// Store is the C1+C4 persistence projection: a database handle plus the
// table-specific read/write methods the control and query handlers use.
type Store struct {
	logger    ulogger.Logger
	db        *usql.DB
	engine    string
	batchSize int

	hashCache *ttlcache.Cache[string, []byte]
	hashGroup singleflight.Group
}

// Open connects to the database named by storeURL (postgres://, sqlite://, or
// sqlitememory://) and ensures its schema exists.
func Open(logger ulogger.Logger, storeURL *url.URL, dataFolder string, batchSize int) (*Store, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	db, err := initSQLDB(logger, storeURL, dataFolder)
	if err != nil {
		return nil, errors.NewStorageError("failed to init sql db", err)
	}

	switch storeURL.Scheme {
	case "postgres":
		if err = createPostgresSchema(db); err != nil {
			return nil, errors.NewStorageError("failed to create postgres schema", err)
		}
	case "sqlite", "sqlitememory":
		if err = createSqliteSchema(db); err != nil {
			return nil, errors.NewStorageError("failed to create sqlite schema", err)
		}
	default:
		return nil, errors.NewConfigurationError("unknown database engine: %s", storeURL.Scheme)
	}

	hashCache := ttlcache.New[string, []byte](ttlcache.WithTTL[string, []byte](hashLookupCacheTTL))
	go hashCache.Start()

	return &Store{
		logger:    logger,
		db:        db,
		engine:    storeURL.Scheme,
		batchSize: batchSize,
		hashCache: hashCache,
	}, nil
}

func initSQLDB(logger ulogger.Logger, storeURL *url.URL, dataFolder string) (*usql.DB, error) {
	switch storeURL.Scheme {
	case "postgres":
		return initPostgresDB(logger, storeURL)
	case "sqlite", "sqlitememory":
		return initSQLiteDB(logger, storeURL, dataFolder)
	}

	return nil, errors.NewConfigurationError("db: unknown scheme: %s", storeURL.Scheme)
}

func initPostgresDB(logger ulogger.Logger, storeURL *url.URL) (*usql.DB, error) {
	dbHost := storeURL.Hostname()
	dbPort, _ := strconv.Atoi(storeURL.Port())
	dbName := storeURL.Path[1:]

	dbUser, dbPassword := "", ""
	if storeURL.User != nil {
		dbUser = storeURL.User.Username()
		dbPassword, _ = storeURL.User.Password()
	}

	sslMode := "disable"
	if v := storeURL.Query().Get("sslmode"); v != "" {
		sslMode = v
	}

	dbInfo := fmt.Sprintf("user=%s password=%s dbname=%s sslmode=%s host=%s port=%d",
		dbUser, dbPassword, dbName, sslMode, dbHost, dbPort)

	db, err := usql.Open(storeURL.Scheme, dbInfo)
	if err != nil {
		return nil, errors.NewStorageError("failed to open postgres db", err)
	}

	logger.Infof("using postgres db: %s@%s:%d/%s", dbUser, dbHost, dbPort, dbName)

	return db, nil
}

func initSQLiteDB(logger ulogger.Logger, storeURL *url.URL, dataFolder string) (*usql.DB, error) {
	var filename string

	if storeURL.Scheme == "sqlitememory" {
		filename = fmt.Sprintf("file:%s?mode=memory&cache=shared", random.String(16))
	} else {
		if dataFolder == "" {
			dataFolder = "."
		}
		if err := os.MkdirAll(dataFolder, 0755); err != nil {
			return nil, errors.NewStorageError("failed to create data folder %s", dataFolder, err)
		}

		dbName := storeURL.Path[1:]

		abs, err := filepath.Abs(path.Join(dataFolder, fmt.Sprintf("%s.db", dbName)))
		if err != nil {
			return nil, errors.NewStorageError("failed to resolve sqlite path", err)
		}
		filename = fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout=10000", abs)
	}

	db, err := usql.Open("sqlite", filename)
	if err != nil {
		return nil, errors.NewStorageError("failed to open sqlite db", err)
	}

	db.SetMaxOpenConns(1)

	logger.Infof("using sqlite db: %s", filename)

	return db, nil
}

// Close releases the underlying database connection and stops the hash
// lookup cache's eviction loop.
func (s *Store) Close() error {
	s.hashCache.Stop()
	return s.db.Close()
}
