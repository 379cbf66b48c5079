package relationaldb

import (
	"context"

	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
)

// Trade is one executed cross as stored in the trade history.
type Trade struct {
	ID        int64           `json:"id"`
	LedgerSeq uint32          `json:"ledger_seq"`
	Taker     entry.AccountID `json:"taker"`
	// Position orders the trades of one recorded batch.
	Position     int             `json:"position"`
	SellerID     entry.AccountID `json:"seller_id"`
	OfferID      int64           `json:"offer_id"`
	AssetSold    entry.Asset     `json:"asset_sold"`
	AmountSold   int64           `json:"amount_sold"`
	AssetBought  entry.Asset     `json:"asset_bought"`
	AmountBought int64           `json:"amount_bought"`
}

// Claim returns the trade as the claim atom it was recorded from.
func (t Trade) Claim() entry.ClaimOfferAtom {
	return entry.ClaimOfferAtom{
		SellerID:     t.SellerID,
		OfferID:      t.OfferID,
		AssetSold:    t.AssetSold,
		AmountSold:   t.AmountSold,
		AssetBought:  t.AssetBought,
		AmountBought: t.AmountBought,
	}
}

// TradeStats summarizes the stored history.
type TradeStats struct {
	Count        int64  `json:"count"`
	MinLedgerSeq uint32 `json:"min_ledger_seq"`
	MaxLedgerSeq uint32 `json:"max_ledger_seq"`
}

// TradeRepository stores and queries executed trades. Trades are returned
// in insertion order.
type TradeRepository interface {
	// RecordTrades stores claims taken by taker in ledger ledgerSeq, all or
	// nothing.
	RecordTrades(ctx context.Context, ledgerSeq uint32, taker entry.AccountID, claims []entry.ClaimOfferAtom) error
	TradesByOffer(ctx context.Context, offerID int64) ([]Trade, error)
	// TradesByAccount returns trades where account was the taker or the
	// seller, at most limit of them.
	TradesByAccount(ctx context.Context, account entry.AccountID, limit int) ([]Trade, error)
	Stats(ctx context.Context) (TradeStats, error)
	Ping(ctx context.Context) error
	Close() error
}
