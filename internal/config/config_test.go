package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goDEXd/internal/core/exchange"
	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
	"github.com/LeJamon/goDEXd/internal/storage/relationaldb"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dexd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	gen, err := config.Generation()
	require.NoError(t, err)
	assert.Equal(t, exchange.GenerationV10, gen)
	assert.Equal(t, 1000, config.Exchange.MaxOffersToCross)
	assert.Equal(t, "memory", config.Storage.Backend)
	assert.Equal(t, "lz4", config.Storage.Compression)
	assert.Equal(t, relationaldb.DriverNone, config.TradeDB.Driver)
	assert.Equal(t, 30*time.Second, config.TradeDB.DefaultTimeout)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, entry.LedgerHeader{LedgerSeq: 1, LedgerVersion: 10, BaseReserve: 5000000}, config.Genesis())
	assert.Empty(t, config.GetConfigPath())
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[exchange]
generation = "v3"
max_offers_to_cross = 5

[ledger]
ledger_seq = 42
ledger_version = 3
base_reserve = 10

[storage]
backend = "pebble"
path = "/tmp/dexd/ledger"
compression = "none"
block_cache_size = 1024

[trade_db]
driver = "sqlite"
database = "/tmp/dexd/trades.db"
max_open_conns = 1
max_idle_conns = 1
default_timeout = "5s"

[log]
level = "debug"
encoding = "console"
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, config.GetConfigPath())

	gen, err := config.Generation()
	require.NoError(t, err)
	assert.Equal(t, exchange.GenerationV3, gen)
	assert.Equal(t, 5, config.Exchange.MaxOffersToCross)
	assert.Equal(t, uint32(42), config.Genesis().LedgerSeq)
	assert.Equal(t, int64(10), config.Genesis().BaseReserve)
	assert.Equal(t, "pebble", config.Storage.Backend)
	assert.Equal(t, int64(1024), config.Storage.CacheSize)
	assert.Equal(t, relationaldb.DriverSQLite, config.TradeDB.Driver)
	assert.Equal(t, 5*time.Second, config.TradeDB.DefaultTimeout)
	assert.Equal(t, "console", config.Log.Encoding)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DEXD_EXCHANGE_GENERATION", "v2")
	t.Setenv("DEXD_STORAGE_BACKEND", "leveldb")
	t.Setenv("DEXD_LOG_LEVEL", "warn")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "v2", config.Exchange.Generation)
	assert.Equal(t, "leveldb", config.Storage.Backend)
	assert.Equal(t, "warn", config.Log.Level)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "does not exist")

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"generation", "[exchange]\ngeneration = \"v4\"\n", "unknown exchange generation"},
		{"max offers", "[exchange]\nmax_offers_to_cross = -1\n", "max_offers_to_cross"},
		{"version too old", "[ledger]\nledger_version = 3\n", "needs ledger_version"},
		{"seq", "[ledger]\nledger_seq = 0\n", "ledger_seq"},
		{"backend", "[storage]\nbackend = \"bolt\"\n", "unknown storage backend"},
		{"memory path", "[storage]\npath = \"/tmp/x\"\n", "does not take a path"},
		{"sync without path", "[storage]\nbackend = \"pebble\"\nsync = true\n", "storage path is required"},
		{"compression", "[storage]\ncompression = \"zstd\"\n", "unknown compressor"},
		{"trade driver", "[trade_db]\ndriver = \"mysql\"\n", "trade_db"},
		{"log level", "[log]\nlevel = \"loud\"\n", "log config"},
		{"log encoding", "[log]\nencoding = \"xml\"\n", "invalid log encoding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSaveExampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.toml")
	require.NoError(t, SaveExampleConfig(path))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "pebble", config.Storage.Backend)
	assert.Equal(t, relationaldb.DriverSQLite, config.TradeDB.Driver)
}
