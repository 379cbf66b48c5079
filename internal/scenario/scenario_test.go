package scenario

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goDEXd/internal/core/exchange"
	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
	"github.com/LeJamon/goDEXd/internal/storage"
	"github.com/LeJamon/goDEXd/internal/storage/database/memory"
	"github.com/LeJamon/goDEXd/internal/storage/relationaldb"
	"github.com/LeJamon/goDEXd/internal/storage/relationaldb/sqlite"
)

var usd = entry.NewCreditAsset("USD", "gateway")

func loadCross(t *testing.T) *Scenario {
	t.Helper()
	sc, err := Load(filepath.Join("testdata", "cross.json"))
	require.NoError(t, err)
	return sc
}

func TestParse(t *testing.T) {
	sc := loadCross(t)
	assert.Equal(t, "cross", sc.Name)
	assert.Equal(t, uint32(3), sc.Header.LedgerSeq)
	require.Len(t, sc.Accounts, 3)
	assert.Equal(t, usd, sc.Accounts[1].Lines[0].Asset)
	assert.Len(t, sc.assets(), 2)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", `{"nme": "x"}`, "unknown field"},
		{"bad asset", `{"offers": [{"selling": "USD"}]}`, "invalid asset"},
		{"duplicate account", `{"accounts": [{"id": "a"}, {"id": "a"}]}`, "duplicate account"},
		{"unknown seller", `{"offers": [{"seller": "x", "selling": "native", "buying": "native"}]}`, "unknown seller"},
		{"unknown op", `{"operations": [{"type": "swap", "selling": "native", "buying": "native"}]}`, "unknown operation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun(t *testing.T) {
	r := &Runner{Generation: exchange.GenerationV10, CacheSize: 64}
	report, err := r.Run(context.Background(), memory.New(), loadCross(t))
	require.NoError(t, err)

	assert.Equal(t, "v10", report.Generation)
	require.Len(t, report.Steps, 3)

	cross := report.Steps[0]
	assert.Equal(t, "SUCCESS", cross.Result)
	assert.Equal(t, "none", cross.Effect)
	assert.Equal(t, int64(60), cross.SheepSent)
	assert.Equal(t, int64(30), cross.WheatReceived)
	require.Len(t, cross.Claims, 1)
	assert.Equal(t, entry.AccountID("alice"), cross.Claims[0].SellerID)
	assert.Equal(t, int64(30), cross.Claims[0].AmountSold)

	rest := report.Steps[1]
	assert.Equal(t, "SUCCESS", rest.Result)
	assert.Equal(t, "created", rest.Effect)
	require.NotNil(t, rest.Offer)
	assert.Equal(t, int64(10), rest.Offer.Amount)
	assert.Equal(t, int64(2), rest.Offer.OfferID)

	assert.Equal(t, "NOT_FOUND", report.Steps[2].Result)

	require.Len(t, report.Final.Offers, 2)
	assert.Equal(t, int64(70), report.Final.Offers[0].Amount)
	assert.Equal(t, entry.AccountID("bob"), report.Final.Offers[1].SellerID)
	assert.Equal(t, int64(2), report.Final.Header.IDPool)

	for _, line := range report.Final.Lines {
		switch line.AccountID {
		case "alice":
			assert.Equal(t, int64(470), line.Balance)
			assert.Equal(t, int64(70), line.Liabilities.Selling)
		case "bob":
			assert.Equal(t, int64(30), line.Balance)
			assert.Equal(t, int64(10), line.Liabilities.Selling)
		}
	}
	assert.Len(t, report.Digest, 64)
}

func TestDigestMatchesAcrossBackends(t *testing.T) {
	ctx := context.Background()
	r := &Runner{Generation: exchange.GenerationV10}

	var digests []string
	for _, backend := range []string{storage.BackendMemory, storage.BackendPebble, storage.BackendLevelDB} {
		t.Run(backend, func(t *testing.T) {
			db, err := storage.Open(storage.Options{Backend: backend, Compression: "lz4"})
			require.NoError(t, err)
			defer db.Close()

			report, err := r.Run(ctx, db, loadCross(t))
			require.NoError(t, err)
			digests = append(digests, report.Digest)
		})
	}
	require.Len(t, digests, 3)
	assert.Equal(t, digests[0], digests[1])
	assert.Equal(t, digests[0], digests[2])
}

func TestDigestDependsOnGeneration(t *testing.T) {
	ctx := context.Background()
	v10, err := (&Runner{Generation: exchange.GenerationV10}).Run(ctx, memory.New(), loadCross(t))
	require.NoError(t, err)
	v3, err := (&Runner{Generation: exchange.GenerationV3}).Run(ctx, memory.New(), loadCross(t))
	require.NoError(t, err)
	assert.NotEqual(t, v10.Digest, v3.Digest)
}

func TestRunRecordsTrades(t *testing.T) {
	ctx := context.Background()
	trades, err := sqlite.Open(ctx, relationaldb.SQLiteConfig(":memory:"))
	require.NoError(t, err)
	defer trades.Close()

	r := &Runner{Generation: exchange.GenerationV10, Recorder: trades}
	_, err = r.Run(ctx, memory.New(), loadCross(t))
	require.NoError(t, err)

	got, err := trades.TradesByAccount(ctx, "bob", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint32(3), got[0].LedgerSeq)
	assert.Equal(t, entry.AccountID("alice"), got[0].SellerID)
	assert.Equal(t, int64(60), got[0].AmountBought)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Runner{Generation: exchange.GenerationV10}).Run(ctx, memory.New(), loadCross(t))
	assert.ErrorIs(t, err, context.Canceled)
}
