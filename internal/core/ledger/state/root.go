// Package state implements the ledger transaction scope the exchange reads and
// writes through: a Root view over a key/value store and nested Txn sandboxes
// whose changes reach the store only when the outermost one commits.
package state

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
	"github.com/LeJamon/goDEXd/internal/core/ledger/keylet"
	"github.com/LeJamon/goDEXd/internal/storage/database"
	"go.uber.org/zap"
)

// Parent is a view a Txn can be opened on: a Root or another Txn.
type Parent interface {
	header() entry.LedgerHeader
	get(key string) ([]byte, bool, error)
	bookIDs(prefix []byte) (map[int64]struct{}, error)
	attach(child *Txn) error
	detach(child *Txn)
	apply(child *Txn, entries map[string][]byte, hdr *entry.LedgerHeader) error
}

// Options configures a Root.
type Options struct {
	// Genesis is written when the store has no header yet.
	Genesis entry.LedgerHeader
	// CacheSize bounds the entry cache. Zero selects a default.
	CacheSize int
	Logger    *zap.Logger
}

// Root is the committed ledger state held in a database.DB.
type Root struct {
	mu     sync.Mutex
	db     database.DB
	cache  *EntryCache
	hdr    entry.LedgerHeader
	child  *Txn
	logger *zap.Logger
}

// NewRoot opens the ledger state stored in db, initialising the header from
// opts.Genesis if the store is empty.
func NewRoot(ctx context.Context, db database.DB, opts Options) (*Root, error) {
	cache, err := NewEntryCache(opts.CacheSize)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Root{db: db, cache: cache, logger: logger}

	key := keylet.Header().Key
	raw, err := db.Read(ctx, key)
	switch {
	case err == nil:
		if err := entry.Decode(raw, &r.hdr); err != nil {
			return nil, fmt.Errorf("load ledger header: %w", err)
		}
	case errors.Is(err, database.ErrKeyNotFound):
		r.hdr = opts.Genesis
		enc, err := entry.Encode(&r.hdr)
		if err != nil {
			return nil, err
		}
		if err := db.Write(ctx, key, enc); err != nil {
			return nil, fmt.Errorf("write genesis header: %w", err)
		}
		logger.Info("initialised ledger header",
			zap.Uint32("ledger_version", r.hdr.LedgerVersion),
			zap.Int64("base_reserve", r.hdr.BaseReserve))
	default:
		return nil, fmt.Errorf("load ledger header: %w", err)
	}
	return r, nil
}

// Header returns the committed ledger header.
func (r *Root) Header() entry.LedgerHeader {
	return r.header()
}

// CacheStats reports the entry cache counters.
func (r *Root) CacheStats() CacheStats {
	return r.cache.Stats()
}

func (r *Root) header() entry.LedgerHeader {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hdr
}

func (r *Root) get(key string) ([]byte, bool, error) {
	if val, ok := r.cache.Get(key); ok {
		return val, true, nil
	}
	val, err := r.db.Read(context.Background(), []byte(key))
	if err != nil {
		if errors.Is(err, database.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	r.cache.Add(key, val)
	return val, true, nil
}

func (r *Root) bookIDs(prefix []byte) (map[int64]struct{}, error) {
	it, err := r.db.Iterator(context.Background(), prefix, keylet.PrefixEnd(prefix))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	ids := make(map[int64]struct{})
	for it.Next() {
		key := it.Key()
		if !bytes.HasPrefix(key, prefix) {
			break
		}
		id, ok := keylet.OfferIDFromBookKey(key)
		if !ok {
			return nil, fmt.Errorf("malformed book index key %x", key)
		}
		ids[id] = struct{}{}
	}
	return ids, it.Error()
}

func (r *Root) attach(child *Txn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.child != nil {
		return ErrChildOpen
	}
	r.child = child
	return nil
}

// apply writes a committed top-level transaction to the store in one batch.
// A nil entry value deletes the key.
func (r *Root) apply(child *Txn, entries map[string][]byte, hdr *entry.LedgerHeader) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.child != child {
		return ErrTxnClosed
	}
	r.child = nil

	ops := make([]database.BatchOperation, 0, len(entries)+1)
	for k, v := range entries {
		if v == nil {
			ops = append(ops, database.Del([]byte(k)))
		} else {
			ops = append(ops, database.Put([]byte(k), v))
		}
	}
	if hdr != nil {
		enc, err := entry.Encode(hdr)
		if err != nil {
			return err
		}
		ops = append(ops, database.Put(keylet.Header().Key, enc))
	}
	if len(ops) == 0 {
		return nil
	}

	if err := r.db.Batch(context.Background(), ops); err != nil {
		// the store may hold some of the batch; drop anything cached for it
		for k := range entries {
			r.cache.Remove(k)
		}
		return fmt.Errorf("commit ledger changes: %w", err)
	}
	for k, v := range entries {
		if v == nil {
			r.cache.Remove(k)
		} else {
			r.cache.Add(k, v)
		}
	}
	if hdr != nil {
		r.hdr = *hdr
	}

	r.logger.Debug("committed ledger changes", zap.Int("entries", len(entries)), zap.Bool("header", hdr != nil))
	return nil
}

// detach forgets child without applying it.
func (r *Root) detach(child *Txn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.child == child {
		r.child = nil
	}
}
