// Package offer implements the ManageSellOffer and ManageBuyOffer operations:
// an order is first crossed against the opposite side of the book and any
// residue is written back as a resting offer owned by the source account.
package offer

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
)

var (
	ErrMissingSource  = errors.New("source account is required")
	ErrNegativeAmount = errors.New("amount cannot be negative")
	ErrDeleteNeedsID  = errors.New("deleting an offer requires an offer ID")
	ErrNegativeID     = errors.New("offer ID cannot be negative")
)

// ManageSellOffer sells up to Amount of Selling for Buying at Price, given in
// Buying per Selling. With OfferID set it replaces that offer; Amount 0
// deletes it.
type ManageSellOffer struct {
	Source  entry.AccountID `json:"source"`
	Selling entry.Asset     `json:"selling"`
	Buying  entry.Asset     `json:"buying"`
	Amount  int64           `json:"amount"`
	Price   entry.Price     `json:"price"`
	OfferID int64           `json:"offer_id,omitempty"`
	// Passive offers do not cross offers at exactly their price.
	Passive bool `json:"passive,omitempty"`
}

// ManageBuyOffer buys up to BuyAmount of Buying with Selling at Price, given
// in Selling per Buying. The resting residue is stored as a sell offer at the
// inverse price.
type ManageBuyOffer struct {
	Source    entry.AccountID `json:"source"`
	Selling   entry.Asset     `json:"selling"`
	Buying    entry.Asset     `json:"buying"`
	BuyAmount int64           `json:"buy_amount"`
	Price     entry.Price     `json:"price"`
	OfferID   int64           `json:"offer_id,omitempty"`
}

// Validate checks the operation without looking at ledger state.
func (op *ManageSellOffer) Validate() error {
	return validate(op.Source, op.Selling, op.Buying, op.Amount, op.Price, op.OfferID)
}

// Validate checks the operation without looking at ledger state.
func (op *ManageBuyOffer) Validate() error {
	return validate(op.Source, op.Selling, op.Buying, op.BuyAmount, op.Price, op.OfferID)
}

func validate(source entry.AccountID, selling, buying entry.Asset, amount int64, price entry.Price, offerID int64) error {
	if source == "" {
		return ErrMissingSource
	}
	if err := selling.Validate(); err != nil {
		return fmt.Errorf("selling: %w", err)
	}
	if err := buying.Validate(); err != nil {
		return fmt.Errorf("buying: %w", err)
	}
	if selling.Equal(buying) {
		return entry.ErrSameAsset
	}
	if err := price.Validate(); err != nil {
		return err
	}
	if amount < 0 {
		return ErrNegativeAmount
	}
	if offerID < 0 {
		return ErrNegativeID
	}
	if amount == 0 && offerID == 0 {
		return ErrDeleteNeedsID
	}
	return nil
}

// order is the common form of both operations, from the point of view of
// the crossing: the source sends sheep and receives wheat.
type order struct {
	source  entry.AccountID
	sheep   entry.Asset
	wheat   entry.Asset
	offerID int64
	passive bool
	// price of the resting residue, wheat per sheep
	price entry.Price
	// worst resting price, sheep per wheat, the order accepts
	maxWheatPrice entry.Price
	isBuy         bool
	// sell amount in sheep, or buy amount in wheat
	amount int64
}

func (op *ManageSellOffer) order() order {
	return order{
		source:        op.Source,
		sheep:         op.Selling,
		wheat:         op.Buying,
		offerID:       op.OfferID,
		passive:       op.Passive,
		price:         op.Price,
		maxWheatPrice: op.Price.Inverse(),
		amount:        op.Amount,
	}
}

func (op *ManageBuyOffer) order() order {
	return order{
		source:        op.Source,
		sheep:         op.Selling,
		wheat:         op.Buying,
		offerID:       op.OfferID,
		price:         op.Price.Inverse(),
		maxWheatPrice: op.Price,
		isBuy:         true,
		amount:        op.BuyAmount,
	}
}

// Outcome reports what an applied operation did.
type Outcome struct {
	Result Result                 `json:"result"`
	Effect Effect                 `json:"effect"`
	Offer  *entry.Offer           `json:"offer,omitempty"`
	Claims []entry.ClaimOfferAtom `json:"claims,omitempty"`
	// SheepSent and WheatReceived are the source's totals, in the selling
	// and buying asset.
	SheepSent     int64 `json:"sheep_sent"`
	WheatReceived int64 `json:"wheat_received"`
}

//go:generate mockgen -destination=mocks/recorder.go -package=mocks github.com/LeJamon/goDEXd/internal/core/tx/offer TradeRecorder

// TradeRecorder persists the trades of applied operations.
type TradeRecorder interface {
	RecordTrades(ctx context.Context, ledgerSeq uint32, taker entry.AccountID, claims []entry.ClaimOfferAtom) error
}
