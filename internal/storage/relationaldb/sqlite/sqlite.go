// Package sqlite stores the trade history in an embedded SQLite database.
package sqlite

import (
	"context"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/LeJamon/goDEXd/internal/storage/relationaldb"
)

// Dialect binds with ? and uses rowid keys.
var Dialect = relationaldb.Dialect{
	Name: relationaldb.DriverSQLite,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ledger_seq INTEGER NOT NULL,
			taker TEXT NOT NULL,
			position INTEGER NOT NULL,
			seller TEXT NOT NULL,
			offer_id INTEGER NOT NULL,
			asset_sold TEXT NOT NULL,
			amount_sold INTEGER NOT NULL CHECK (amount_sold > 0),
			asset_bought TEXT NOT NULL,
			amount_bought INTEGER NOT NULL CHECK (amount_bought > 0),
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_offer ON trades(offer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_taker ON trades(taker)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_seller ON trades(seller)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ledger_seq ON trades(ledger_seq)`,
	},
}

// Open opens or creates the database file named by config.Database.
func Open(ctx context.Context, config *relationaldb.Config) (*relationaldb.Store, error) {
	return relationaldb.OpenStore(ctx, "sqlite", Dialect, config)
}
