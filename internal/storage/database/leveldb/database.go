// Package leveldb implements database.DB with goleveldb.
package leveldb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LeJamon/goDEXd/internal/storage/database"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type DB struct {
	mu     sync.RWMutex
	db     *leveldb.DB
	writes *opt.WriteOptions
}

// Open opens or creates a store at path.
func Open(path string, syncWrites bool) (*DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb database %s: %w", path, err)
	}
	return &DB{db: db, writes: &opt.WriteOptions{Sync: syncWrites}}, nil
}

// OpenInMemory opens a store over goleveldb's memory storage.
func OpenInMemory() (*DB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &DB{db: db, writes: &opt.WriteOptions{}}, nil
}

func (l *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.db == nil {
		return nil, database.ErrDBClosed
	}

	val, err := l.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, database.ErrKeyNotFound
		}
		return nil, err
	}
	return val, nil
}

func (l *DB) Write(ctx context.Context, key, value []byte) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.db == nil {
		return database.ErrDBClosed
	}
	return l.db.Put(key, value, l.writes)
}

func (l *DB) Delete(ctx context.Context, key []byte) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.db == nil {
		return database.ErrDBClosed
	}
	return l.db.Delete(key, l.writes)
}

func (l *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.db == nil {
		return database.ErrDBClosed
	}

	batch := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case database.BatchPut:
			batch.Put(op.Key, op.Value)
		case database.BatchDelete:
			batch.Delete(op.Key)
		default:
			return database.UnknownOpError(op.Type)
		}
	}
	return l.db.Write(batch, l.writes)
}

func (l *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.db == nil {
		return nil, database.ErrDBClosed
	}
	return &Iterator{iter: l.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)}, nil
}

func (l *DB) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
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
