// Package dbtest holds the behavioural checks every database.DB backend
// must pass.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/LeJamon/goDEXd/internal/storage/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Opener returns a fresh, empty store. The suite closes it.
type Opener func(t *testing.T) database.DB

// Run exercises open against the database.DB contract.
func Run(t *testing.T, open Opener) {
	t.Run("ReadWriteDelete", func(t *testing.T) { testReadWriteDelete(t, open(t)) })
	t.Run("Batch", func(t *testing.T) { testBatch(t, open(t)) })
	t.Run("IteratorRange", func(t *testing.T) { testIteratorRange(t, open(t)) })
	t.Run("Closed", func(t *testing.T) { testClosed(t, open(t)) })
}

func testReadWriteDelete(t *testing.T, db database.DB) {
	defer db.Close()
	ctx := context.Background()

	_, err := db.Read(ctx, []byte("missing"))
	assert.ErrorIs(t, err, database.ErrKeyNotFound)

	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v1")))
	got, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	// returned slices belong to the caller
	got[0] = 'x'
	again, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), again)

	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v2")))
	got, err = db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, db.Delete(ctx, []byte("k")))
	_, err = db.Read(ctx, []byte("k"))
	assert.ErrorIs(t, err, database.ErrKeyNotFound)

	// deleting an absent key is not an error
	assert.NoError(t, db.Delete(ctx, []byte("k")))
}

func testBatch(t *testing.T, db database.DB) {
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.Write(ctx, []byte("old"), []byte("x")))
	require.NoError(t, db.Batch(ctx, []database.BatchOperation{
		database.Put([]byte("a"), []byte("1")),
		database.Put([]byte("b"), []byte("2")),
		database.Del([]byte("old")),
	}))

	for k, v := range map[string]string{"a": "1", "b": "2"} {
		got, err := db.Read(ctx, []byte(k))
		require.NoError(t, err)
		assert.Equal(t, v, string(got))
	}
	_, err := db.Read(ctx, []byte("old"))
	assert.ErrorIs(t, err, database.ErrKeyNotFound)

	err = db.Batch(ctx, []database.BatchOperation{{Type: database.BatchOpType(9), Key: []byte("z")}})
	assert.ErrorIs(t, err, database.ErrBatchOperationFailed)
}

func testIteratorRange(t *testing.T, db database.DB) {
	defer db.Close()
	ctx := context.Background()

	var ops []database.BatchOperation
	for i := 0; i < 10; i++ {
		ops = append(ops, database.Put([]byte(fmt.Sprintf("key-%02d", i)), []byte(fmt.Sprintf("val-%d", i))))
	}
	require.NoError(t, db.Batch(ctx, ops))

	collect := func(start, end []byte) []string {
		it, err := db.Iterator(ctx, start, end)
		require.NoError(t, err)
		defer it.Close()
		var keys []string
		for it.Next() {
			keys = append(keys, string(it.Key()))
			assert.NotEmpty(t, it.Value())
		}
		require.NoError(t, it.Error())
		return keys
	}

	assert.Len(t, collect(nil, nil), 10)
	assert.Equal(t, []string{"key-03", "key-04", "key-05"}, collect([]byte("key-03"), []byte("key-06")))
	assert.Equal(t, []string{"key-08", "key-09"}, collect([]byte("key-08"), nil))
	assert.Equal(t, []string{"key-00", "key-01"}, collect(nil, []byte("key-02")))
	assert.Empty(t, collect([]byte("zzz"), nil))
}

func testClosed(t *testing.T, db database.DB) {
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := db.Read(ctx, []byte("k"))
	assert.ErrorIs(t, err, database.ErrDBClosed)
	assert.ErrorIs(t, db.Write(ctx, []byte("k"), []byte("v")), database.ErrDBClosed)
	_, err = db.Iterator(ctx, nil, nil)
	assert.ErrorIs(t, err, database.ErrDBClosed)
}
