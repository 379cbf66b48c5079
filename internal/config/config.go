package config

import (
	"github.com/LeJamon/goDEXd/internal/core/exchange"
	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
	"github.com/LeJamon/goDEXd/internal/storage"
	"github.com/LeJamon/goDEXd/internal/storage/relationaldb"
)

// DefaultConfigPath is where dexd looks for its configuration file.
const DefaultConfigPath = "dexd.toml"

// Config represents the complete dexd configuration
type Config struct {
	Exchange ExchangeConfig      `toml:"exchange" mapstructure:"exchange"`
	Ledger   LedgerConfig        `toml:"ledger" mapstructure:"ledger"`
	Storage  storage.Options     `toml:"storage" mapstructure:"storage"`
	TradeDB  relationaldb.Config `toml:"trade_db" mapstructure:"trade_db"`
	Log      LogConfig           `toml:"log" mapstructure:"log"`

	configPath string `toml:"-" mapstructure:"-"`
}

// ExchangeConfig selects the crossing arithmetic.
type ExchangeConfig struct {
	// Generation is one of "v2", "v3" or "v10".
	Generation string `toml:"generation" mapstructure:"generation"`
	// MaxOffersToCross limits the offers one operation may cross; 0 means
	// no limit.
	MaxOffersToCross int `toml:"max_offers_to_cross" mapstructure:"max_offers_to_cross"`
}

// LedgerConfig is the genesis header written to an empty store.
type LedgerConfig struct {
	LedgerSeq     uint32 `toml:"ledger_seq" mapstructure:"ledger_seq"`
	LedgerVersion uint32 `toml:"ledger_version" mapstructure:"ledger_version"`
	BaseReserve   int64  `toml:"base_reserve" mapstructure:"base_reserve"`
	// CacheSize is the number of decoded entries the ledger root keeps.
	CacheSize int `toml:"cache_size" mapstructure:"cache_size"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `toml:"level" mapstructure:"level"`
	Development bool   `toml:"development" mapstructure:"development"`
	// Encoding is "json" or "console".
	Encoding string `toml:"encoding" mapstructure:"encoding"`
}

// GetConfigPath returns the path the configuration was loaded from, or ""
// when only defaults and environment variables were used.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Generation returns the parsed exchange generation.
func (c *Config) Generation() (exchange.Generation, error) {
	return exchange.ParseGeneration(c.Exchange.Generation)
}

// Genesis returns the ledger header to initialize an empty store with.
func (c *Config) Genesis() entry.LedgerHeader {
	return entry.LedgerHeader{
		LedgerSeq:     c.Ledger.LedgerSeq,
		LedgerVersion: c.Ledger.LedgerVersion,
		BaseReserve:   c.Ledger.BaseReserve,
	}
}
