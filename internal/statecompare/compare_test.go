package statecompare

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goDEXd/internal/core/exchange"
	"github.com/LeJamon/goDEXd/internal/scenario"
	"github.com/LeJamon/goDEXd/internal/storage/database/memory"
)

func run(t *testing.T, gen exchange.Generation) *scenario.Report {
	t.Helper()
	sc, err := scenario.Load(filepath.Join("..", "scenario", "testdata", "cross.json"))
	require.NoError(t, err)
	report, err := (&scenario.Runner{Generation: gen}).Run(context.Background(), memory.New(), sc)
	require.NoError(t, err)
	return report
}

func TestCompareIdentical(t *testing.T) {
	diff, err := Compare(run(t, exchange.GenerationV10), run(t, exchange.GenerationV10))
	require.NoError(t, err)
	assert.True(t, diff.Empty())
}

func TestCompareGenerations(t *testing.T) {
	diff, err := Compare(run(t, exchange.GenerationV3), run(t, exchange.GenerationV10))
	require.NoError(t, err)
	require.False(t, diff.Empty())

	// only V10 reserves liabilities, the balances settle identically
	var keys []string
	for _, m := range diff.Modified {
		keys = append(keys, m.Key)
		for _, f := range m.Fields {
			assert.Equal(t, "liabilities", f.Field)
		}
	}
	assert.Contains(t, keys, "line/alice/USD:gateway")
	assert.Empty(t, diff.Added)
	assert.Empty(t, diff.Removed)
}

func TestCompareAddedAndRemoved(t *testing.T) {
	left := run(t, exchange.GenerationV10)
	right := run(t, exchange.GenerationV10)
	right.Final.Offers = right.Final.Offers[:1]
	right.Steps = right.Steps[:2]

	diff, err := Compare(left, right)
	require.NoError(t, err)
	require.Len(t, diff.Removed, 1)
	assert.Equal(t, "offer/2", diff.Removed[0].Key)
	require.Len(t, diff.Steps, 1)
	assert.Equal(t, 2, diff.Steps[0].Index)

	diff, err = Compare(right, left)
	require.NoError(t, err)
	require.Len(t, diff.Added, 1)
	assert.Equal(t, "offer/2", diff.Added[0].Key)
}

func TestLoadReport(t *testing.T) {
	report := run(t, exchange.GenerationV10)
	data, err := json.Marshal(report)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := LoadReport(path)
	require.NoError(t, err)
	diff, err := Compare(report, loaded)
	require.NoError(t, err)
	assert.True(t, diff.Empty())
	assert.Equal(t, report.Digest, loaded.Digest)
}
