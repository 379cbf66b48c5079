package memory

import (
	"context"
	"testing"

	"github.com/LeJamon/goDEXd/internal/storage/database"
	"github.com/LeJamon/goDEXd/internal/storage/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryContract(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) database.DB { return New() })
}

func TestIteratorIsolatedFromWrites(t *testing.T) {
	ctx := context.Background()
	db := New()
	require.NoError(t, db.Write(ctx, []byte("a"), []byte("1")))
	require.NoError(t, db.Write(ctx, []byte("b"), []byte("2")))

	it, err := db.Iterator(ctx, nil, nil)
	require.NoError(t, err)
	defer it.Close()

	require.NoError(t, db.Delete(ctx, []byte("b")))
	require.NoError(t, db.Write(ctx, []byte("c"), []byte("3")))

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.Equal(t, []string{"a", "b"}, keys)
}
