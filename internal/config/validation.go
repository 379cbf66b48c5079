package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/LeJamon/goDEXd/internal/core/exchange"
	"github.com/LeJamon/goDEXd/internal/storage"
	"github.com/LeJamon/goDEXd/internal/storage/compression"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := validateExchange(config); err != nil {
		return fmt.Errorf("exchange config validation failed: %w", err)
	}
	if err := validateLedger(&config.Ledger); err != nil {
		return fmt.Errorf("ledger config validation failed: %w", err)
	}
	if err := validateStorage(&config.Storage); err != nil {
		return fmt.Errorf("storage config validation failed: %w", err)
	}
	if err := config.TradeDB.Validate(); err != nil {
		return fmt.Errorf("trade_db config validation failed: %w", err)
	}
	if err := validateLog(&config.Log); err != nil {
		return fmt.Errorf("log config validation failed: %w", err)
	}
	return nil
}

func validateExchange(config *Config) error {
	gen, err := config.Generation()
	if err != nil {
		return err
	}
	if config.Exchange.MaxOffersToCross < 0 {
		return fmt.Errorf("max_offers_to_cross must be >= 0, got %d", config.Exchange.MaxOffersToCross)
	}
	// the generation in effect follows the ledger version
	if config.Ledger.LedgerVersion != 0 && exchange.Generation(config.Ledger.LedgerVersion) < gen {
		return fmt.Errorf("generation %s needs ledger_version >= %d, got %d", gen, int(gen), config.Ledger.LedgerVersion)
	}
	return nil
}

func validateLedger(l *LedgerConfig) error {
	if l.LedgerSeq == 0 {
		return fmt.Errorf("ledger_seq must be positive")
	}
	if l.BaseReserve < 0 {
		return fmt.Errorf("base_reserve must be >= 0, got %d", l.BaseReserve)
	}
	if l.CacheSize < 0 {
		return fmt.Errorf("cache_size must be >= 0, got %d", l.CacheSize)
	}
	return nil
}

func validateStorage(s *storage.Options) error {
	switch s.Backend {
	case storage.BackendMemory, storage.BackendPebble, storage.BackendLevelDB:
	default:
		return fmt.Errorf("%w: %q", storage.ErrUnknownBackend, s.Backend)
	}
	if s.Backend == storage.BackendMemory && s.Path != "" {
		return fmt.Errorf("memory backend does not take a path")
	}
	if s.Sync && s.Path == "" && s.Backend != storage.BackendMemory {
		return fmt.Errorf("%w: sync on %s", storage.ErrMissingPath, s.Backend)
	}
	if _, err := compression.Get(s.Compression); err != nil {
		return fmt.Errorf("compression %q: %w (available: %v)", s.Compression, err, compression.Available())
	}
	if s.CacheSize < 0 {
		return fmt.Errorf("block_cache_size must be >= 0, got %d", s.CacheSize)
	}
	return nil
}

func validateLog(l *LogConfig) error {
	if _, err := zapcore.ParseLevel(l.Level); err != nil {
		return err
	}
	switch l.Encoding {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("invalid log encoding: %s", l.Encoding)
	}
}
