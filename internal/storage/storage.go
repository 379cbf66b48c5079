// Package storage opens the configured ledger store and trade history.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goDEXd/internal/storage/compression"
	"github.com/LeJamon/goDEXd/internal/storage/database"
	"github.com/LeJamon/goDEXd/internal/storage/database/leveldb"
	"github.com/LeJamon/goDEXd/internal/storage/database/memory"
	"github.com/LeJamon/goDEXd/internal/storage/database/pebble"
	"github.com/LeJamon/goDEXd/internal/storage/relationaldb"
	"github.com/LeJamon/goDEXd/internal/storage/relationaldb/postgres"
	"github.com/LeJamon/goDEXd/internal/storage/relationaldb/sqlite"
)

// Ledger store backends.
const (
	BackendMemory  = "memory"
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
)

var (
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrMissingPath    = errors.New("storage path is required")
)

// Options selects and tunes the ledger store.
type Options struct {
	Backend string `mapstructure:"backend"`
	// Path is the store directory. An empty path opens pebble and leveldb
	// in memory, which cannot be combined with Sync.
	Path        string `mapstructure:"path"`
	Compression string `mapstructure:"compression"`
	// CacheSize is the backend block cache in bytes.
	CacheSize int64 `mapstructure:"block_cache_size"`
	Sync      bool  `mapstructure:"sync"`
}

// Open opens the ledger store described by o, wrapped with value
// compression unless it is "none" or empty.
func Open(o Options) (database.DB, error) {
	var (
		db  database.DB
		err error
	)
	if o.Sync && o.Path == "" && (o.Backend == BackendPebble || o.Backend == BackendLevelDB) {
		return nil, fmt.Errorf("%w: sync on %s", ErrMissingPath, o.Backend)
	}
	switch o.Backend {
	case "", BackendMemory:
		db = memory.New()
	case BackendPebble:
		if o.Path == "" {
			db, err = pebble.OpenInMemory()
		} else {
			db, err = pebble.Open(o.Path, pebble.Options{CacheSize: o.CacheSize, Sync: o.Sync})
		}
	case BackendLevelDB:
		if o.Path == "" {
			db, err = leveldb.OpenInMemory()
		} else {
			db, err = leveldb.Open(o.Path, o.Sync)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, o.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", o.Backend, err)
	}

	if o.Compression == "" || o.Compression == "none" {
		return db, nil
	}
	c, err := compression.Get(o.Compression)
	if err != nil {
		db.Close()
		return nil, err
	}
	return database.Compressed(db, c), nil
}

// OpenTrades opens the trade history configured by c. It returns nil for
// the "none" driver.
func OpenTrades(ctx context.Context, c *relationaldb.Config) (relationaldb.TradeRepository, error) {
	if err := c.Validate(); err != nil {
		return nil, relationaldb.NewConfigurationError("open_trades", "invalid configuration", err)
	}
	var (
		store *relationaldb.Store
		err   error
	)
	switch c.Driver {
	case relationaldb.DriverNone:
		return nil, nil
	case relationaldb.DriverSQLite:
		store, err = sqlite.Open(ctx, c)
	case relationaldb.DriverPostgres:
		store, err = postgres.Open(ctx, c)
	default:
		return nil, fmt.Errorf("%w: %s", relationaldb.ErrInvalidDriver, c.Driver)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
