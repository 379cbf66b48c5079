package relationaldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
)

// Dialect captures what differs between the SQL backends.
type Dialect struct {
	Name string
	// Placeholder returns the bind parameter for the n-th argument, from 1.
	Placeholder func(n int) string
	Schema      []string
}

// executor allows using both sql.DB and sql.Tx
type executor interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Store is a TradeRepository over database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	config  *Config
}

var _ TradeRepository = (*Store)(nil)

// OpenStore opens driverName with config, applies the dialect's schema and
// returns the ready store.
func OpenStore(ctx context.Context, driverName string, dialect Dialect, config *Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigurationError("open", "invalid configuration", err)
	}
	connStr, err := config.BuildConnectionString()
	if err != nil {
		return nil, NewConfigurationError("open", "failed to build connection string", err)
	}

	sqlDB, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, NewConnectionError("open", "failed to open database connection", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	s := &Store{db: sqlDB, dialect: dialect, config: config}
	if err := s.Ping(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := s.initSchema(ctx); err != nil {
		sqlDB.Close()
		return nil, NewSchemaError("open", "failed to initialize schema", err)
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()
	for _, query := range s.dialect.Schema {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}
	return nil
}

// Ping tests the database connection
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrDatabaseClosed
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return NewConnectionError("ping", "database ping failed", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return NewConnectionError("close", "failed to close database connection", err)
	}
	return nil
}

// bind rewrites the ? placeholders of query into the dialect's form.
func (s *Store) bind(query string) string {
	if s.dialect.Placeholder == nil {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(s.dialect.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const insertTrade = `INSERT INTO trades
	(ledger_seq, taker, position, seller, offer_id, asset_sold, amount_sold, asset_bought, amount_bought)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// RecordTrades stores claims in one transaction.
func (s *Store) RecordTrades(ctx context.Context, ledgerSeq uint32, taker entry.AccountID, claims []entry.ClaimOfferAtom) error {
	if s.db == nil {
		return ErrDatabaseClosed
	}
	if len(claims) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewTransactionError("record_trades", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.bind(insertTrade))
	if err != nil {
		return NewQueryError("record_trades", "failed to prepare insert", err)
	}
	defer stmt.Close()

	for i, c := range claims {
		if _, err := stmt.ExecContext(ctx,
			int64(ledgerSeq), string(taker), i,
			string(c.SellerID), c.OfferID,
			c.AssetSold.String(), c.AmountSold,
			c.AssetBought.String(), c.AmountBought,
		); err != nil {
			return NewQueryError("record_trades", fmt.Sprintf("failed to insert trade %d", i), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return NewTransactionError("record_trades", "failed to commit", err)
	}
	return nil
}

const selectTrades = `SELECT id, ledger_seq, taker, position, seller, offer_id,
	asset_sold, amount_sold, asset_bought, amount_bought FROM trades`

// TradesByOffer returns every trade against offerID.
func (s *Store) TradesByOffer(ctx context.Context, offerID int64) ([]Trade, error) {
	return s.query(ctx, "trades_by_offer", s.db, selectTrades+` WHERE offer_id = ? ORDER BY id`, offerID)
}

// TradesByAccount returns up to limit trades account took part in.
func (s *Store) TradesByAccount(ctx context.Context, account entry.AccountID, limit int) ([]Trade, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	return s.query(ctx, "trades_by_account", s.db,
		selectTrades+` WHERE taker = ? OR seller = ? ORDER BY id LIMIT ?`,
		string(account), string(account), limit)
}

// Stats returns the trade count and ledger range.
func (s *Store) Stats(ctx context.Context) (TradeStats, error) {
	var stats TradeStats
	if s.db == nil {
		return stats, ErrDatabaseClosed
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()

	var minSeq, maxSeq sql.NullInt64
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*), MIN(ledger_seq), MAX(ledger_seq) FROM trades`)
	if err := row.Scan(&stats.Count, &minSeq, &maxSeq); err != nil {
		return stats, NewQueryError("stats", "failed to query trade stats", err)
	}
	stats.MinLedgerSeq = uint32(minSeq.Int64)
	stats.MaxLedgerSeq = uint32(maxSeq.Int64)
	return stats, nil
}

func (s *Store) query(ctx context.Context, op string, exec executor, query string, args ...interface{}) ([]Trade, error) {
	if s.db == nil {
		return nil, ErrDatabaseClosed
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()

	rows, err := exec.QueryContext(ctx, s.bind(query), args...)
	if err != nil {
		return nil, NewQueryError(op, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var (
			t                 Trade
			seq               int64
			taker, seller     string
			assetSold, bought string
		)
		if err := rows.Scan(&t.ID, &seq, &taker, &t.Position, &seller, &t.OfferID,
			&assetSold, &t.AmountSold, &bought, &t.AmountBought); err != nil {
			return nil, NewDataError(op, "failed to scan trade", err)
		}
		t.LedgerSeq = uint32(seq)
		t.Taker = entry.AccountID(taker)
		t.SellerID = entry.AccountID(seller)
		if t.AssetSold, err = entry.ParseAsset(assetSold); err != nil {
			return nil, NewDataError(op, "bad asset_sold", fmt.Errorf("%w: %v", ErrInvalidAsset, err))
		}
		if t.AssetBought, err = entry.ParseAsset(bought); err != nil {
			return nil, NewDataError(op, "bad asset_bought", fmt.Errorf("%w: %v", ErrInvalidAsset, err))
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, NewDataError(op, "failed to iterate trades", err)
	}
	return trades, nil
}
