package config

import "github.com/spf13/viper"

// setDefaults sets all default values
func setDefaults(v *viper.Viper) {
	// Exchange defaults
	v.SetDefault("exchange.generation", "v10")
	v.SetDefault("exchange.max_offers_to_cross", 1000)

	// Ledger defaults
	v.SetDefault("ledger.ledger_seq", 1)
	v.SetDefault("ledger.ledger_version", 10)
	v.SetDefault("ledger.base_reserve", 5000000)
	v.SetDefault("ledger.cache_size", 4096)

	// Storage defaults
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.compression", "lz4")
	v.SetDefault("storage.block_cache_size", 8<<20)
	v.SetDefault("storage.sync", false)

	// Trade database defaults
	v.SetDefault("trade_db.driver", "none")
	v.SetDefault("trade_db.dsn", "")
	v.SetDefault("trade_db.host", "localhost")
	v.SetDefault("trade_db.port", 5432)
	v.SetDefault("trade_db.database", "dexd")
	v.SetDefault("trade_db.username", "dexd")
	v.SetDefault("trade_db.password", "")
	v.SetDefault("trade_db.ssl_mode", "prefer")
	v.SetDefault("trade_db.max_open_conns", 10)
	v.SetDefault("trade_db.max_idle_conns", 2)
	v.SetDefault("trade_db.conn_max_lifetime", "1h")
	v.SetDefault("trade_db.default_timeout", "30s")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.encoding", "json")
}
