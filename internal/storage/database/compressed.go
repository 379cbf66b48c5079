package database

import (
	"context"
	"fmt"

	"github.com/LeJamon/goDEXd/internal/storage/compression"
)

// CompressedDB compresses values on their way into an underlying DB and
// decompresses them on the way out. Keys are stored as given.
type CompressedDB struct {
	inner DB
	c     compression.Compressor
}

// Compressed wraps db so every stored value passes through c.
func Compressed(db DB, c compression.Compressor) *CompressedDB {
	return &CompressedDB{inner: db, c: c}
}

func (d *CompressedDB) Read(ctx context.Context, key []byte) ([]byte, error) {
	raw, err := d.inner.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	val, err := d.c.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("decompress %x: %w", key, err)
	}
	return val, nil
}

func (d *CompressedDB) Write(ctx context.Context, key, value []byte) error {
	packed, err := d.c.Compress(value)
	if err != nil {
		return err
	}
	return d.inner.Write(ctx, key, packed)
}

func (d *CompressedDB) Delete(ctx context.Context, key []byte) error {
	return d.inner.Delete(ctx, key)
}

func (d *CompressedDB) Batch(ctx context.Context, ops []BatchOperation) error {
	packed := make([]BatchOperation, len(ops))
	for i, op := range ops {
		packed[i] = op
		if op.Type != BatchPut {
			continue
		}
		val, err := d.c.Compress(op.Value)
		if err != nil {
			return err
		}
		packed[i].Value = val
	}
	return d.inner.Batch(ctx, packed)
}

func (d *CompressedDB) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	it, err := d.inner.Iterator(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &compressedIterator{inner: it, c: d.c}, nil
}

func (d *CompressedDB) Close() error {
	return d.inner.Close()
}

type compressedIterator struct {
	inner Iterator
	c     compression.Compressor
	value []byte
	err   error
}

func (it *compressedIterator) Next() bool {
	if it.err != nil || !it.inner.Next() {
		return false
	}
	it.value, it.err = it.c.Decompress(it.inner.Value())
	return it.err == nil
}

func (it *compressedIterator) Key() []byte   { return it.inner.Key() }
func (it *compressedIterator) Value() []byte { return it.value }

func (it *compressedIterator) Error() error {
	if it.err != nil {
		return it.err
	}
	return it.inner.Error()
}

func (it *compressedIterator) Close() error { return it.inner.Close() }
