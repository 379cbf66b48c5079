// Package postgres stores the trade history in PostgreSQL.
package postgres

import (
	"context"
	"strconv"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/LeJamon/goDEXd/internal/storage/relationaldb"
)

// Dialect binds with $n and uses BIGSERIAL keys.
var Dialect = relationaldb.Dialect{
	Name:        relationaldb.DriverPostgres,
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id BIGSERIAL PRIMARY KEY,
			ledger_seq BIGINT NOT NULL,
			taker VARCHAR(64) NOT NULL,
			position INTEGER NOT NULL,
			seller VARCHAR(64) NOT NULL,
			offer_id BIGINT NOT NULL,
			asset_sold VARCHAR(128) NOT NULL,
			amount_sold BIGINT NOT NULL CHECK (amount_sold > 0),
			asset_bought VARCHAR(128) NOT NULL,
			amount_bought BIGINT NOT NULL CHECK (amount_bought > 0),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_offer ON trades(offer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_taker ON trades(taker)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_seller ON trades(seller)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ledger_seq ON trades(ledger_seq)`,
	},
}

// Open connects to the server described by config.
func Open(ctx context.Context, config *relationaldb.Config) (*relationaldb.Store, error) {
	return relationaldb.OpenStore(ctx, "postgres", Dialect, config)
}
