// Package memory implements database.DB over goleveldb's skiplist memdb.
// It is meant for tests, replays and scratch ledgers.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/LeJamon/goDEXd/internal/storage/database"
	"github.com/syndtr/goleveldb/leveldb/comparer"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/memdb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const initialCapacity = 4 << 10

type DB struct {
	// mu serialises batches against single writes so a batch is atomic
	mu sync.RWMutex
	db *memdb.DB
}

func New() *DB {
	return &DB{db: memdb.New(comparer.DefaultComparer, initialCapacity)}
}

func (m *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return nil, database.ErrDBClosed
	}

	val, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, lerrors.ErrNotFound) {
			return nil, database.ErrKeyNotFound
		}
		return nil, err
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *DB) Write(ctx context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return database.ErrDBClosed
	}
	return m.db.Put(key, value)
}

func (m *DB) Delete(ctx context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return database.ErrDBClosed
	}
	return ignoreNotFound(m.db.Delete(key))
}

func (m *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	for _, op := range ops {
		if op.Type != database.BatchPut && op.Type != database.BatchDelete {
			return database.UnknownOpError(op.Type)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return database.ErrDBClosed
	}
	for _, op := range ops {
		var err error
		if op.Type == database.BatchPut {
			err = m.db.Put(op.Key, op.Value)
		} else {
			err = ignoreNotFound(m.db.Delete(op.Key))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Iterator snapshots the requested range so later writes cannot disturb it.
func (m *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return nil, database.ErrDBClosed
	}

	snap := memdb.New(comparer.DefaultComparer, initialCapacity)
	it := m.db.NewIterator(&util.Range{Start: start, Limit: end})
	defer it.Release()
	for it.Next() {
		if err := snap.Put(it.Key(), it.Value()); err != nil {
			return nil, err
		}
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return &Iterator{iter: snap.NewIterator(nil)}, nil
}

func (m *DB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.db = nil
	return nil
}

type Iterator struct {
	iter       iterator.Iterator
	key, value []byte
}

func (it *Iterator) Next() bool {
	if !it.iter.Next() {
		return false
	}
	it.key = append([]byte(nil), it.iter.Key()...)
	it.value = append([]byte(nil), it.iter.Value()...)
	return true
}

func (it *Iterator) Key() []byte   { return it.key }
func (it *Iterator) Value() []byte { return it.value }
func (it *Iterator) Error() error  { return it.iter.Error() }

func (it *Iterator) Close() error {
	it.iter.Release()
	return nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, lerrors.ErrNotFound) {
		return nil
	}
	return err
}
