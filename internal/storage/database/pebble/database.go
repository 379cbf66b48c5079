// Package pebble implements database.DB on top of CockroachDB's Pebble LSM.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LeJamon/goDEXd/internal/storage/database"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Options tunes an opened store.
type Options struct {
	// CacheSize is the block cache size in bytes. Zero keeps Pebble's default.
	CacheSize int64
	// Sync forces an fsync on every write.
	Sync bool
}

type DB struct {
	mu     sync.RWMutex
	db     *pebble.DB
	cache  *pebble.Cache
	writes *pebble.WriteOptions
}

// NewDB wraps an already opened pebble.DB.
func NewDB(db *pebble.DB) *DB {
	return &DB{db: db, writes: pebble.Sync}
}

// Open opens or creates a store in dir.
func Open(dir string, o Options) (*DB, error) {
	return open(dir, nil, o)
}

// OpenInMemory opens a store backed by an in-memory filesystem.
func OpenInMemory() (*DB, error) {
	return open("", vfs.NewMem(), Options{})
}

func open(dir string, fs vfs.FS, o Options) (*DB, error) {
	opts := &pebble.Options{FS: fs}
	var cache *pebble.Cache
	if o.CacheSize > 0 {
		cache = pebble.NewCache(o.CacheSize)
		opts.Cache = cache
	}

	db, err := pebble.Open(dir, opts)
	if cache != nil {
		// the DB holds its own reference once opened
		cache.Unref()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database %s: %w", dir, err)
	}

	writes := pebble.NoSync
	if o.Sync {
		writes = pebble.Sync
	}
	return &DB{db: db, writes: writes}, nil
}

func (p *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return nil, database.ErrDBClosed
	}

	val, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, database.ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()

	// Copy the value out
	valCopy := make([]byte, len(val))
	copy(valCopy, val)
	return valCopy, nil
}

func (p *DB) Write(ctx context.Context, key, value []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return database.ErrDBClosed
	}
	return p.db.Set(key, value, p.writes)
}

func (p *DB) Delete(ctx context.Context, key []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return database.ErrDBClosed
	}
	return p.db.Delete(key, p.writes)
}

func (p *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return database.ErrDBClosed
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	for _, op := range ops {
		switch op.Type {
		case database.BatchPut:
			if err := batch.Set(op.Key, op.Value, nil); err != nil {
				return err
			}
		case database.BatchDelete:
			if err := batch.Delete(op.Key, nil); err != nil {
				return err
			}
		default:
			return database.UnknownOpError(op.Type)
		}
	}

	return batch.Commit(p.writes)
}

func (p *DB) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

type Iterator struct {
	iter    *pebble.Iterator
	started bool

	current struct {
		key, value []byte
	}
}

func (p *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return nil, database.ErrDBClosed
	}

	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return nil, err
	}

	return &Iterator{iter: iter}, nil
}

func (it *Iterator) Next() bool {
	if !it.started {
		it.started = true
		it.iter.First()
	} else {
		it.iter.Next()
	}

	if !it.iter.Valid() {
		return false
	}

	key := it.iter.Key()
	val := it.iter.Value()

	valCopy := make([]byte, len(val))
	copy(valCopy, val)

	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)

	it.current.key = keyCopy
	it.current.value = valCopy
	return true
}

func (it *Iterator) Key() []byte {
	return it.current.key
}

func (it *Iterator) Value() []byte {
	return it.current.value
}

func (it *Iterator) Error() error {
	return it.iter.Error()
}

func (it *Iterator) Close() error {
	return it.iter.Close()
}
