package exchange

import (
	"math"

	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
)

// AdjustOffer returns the amount an offer at price should rest with when it
// can send at most maxWheatSend and receive at most maxSheepReceive, so that
// any crosser can take all of it at its exact price.
func AdjustOffer(price entry.Price, maxWheatSend, maxSheepReceive int64) (int64, error) {
	res, err := ExchangeV10(price, maxWheatSend, math.MaxInt64, math.MaxInt64, maxSheepReceive, false)
	if err != nil {
		return 0, err
	}
	return res.NumWheatReceived, nil
}

func offerLiabilities(o *entry.Offer) (ExchangeResultV10, error) {
	return ExchangeV10WithoutPriceErrorThresholds(o.Price, o.Amount, math.MaxInt64, math.MaxInt64, math.MaxInt64, false)
}

// OfferSellingLiabilities is the amount of o.Selling the offer reserves.
func OfferSellingLiabilities(o *entry.Offer) (int64, error) {
	res, err := offerLiabilities(o)
	if err != nil {
		return 0, err
	}
	return res.NumWheatReceived, nil
}

// OfferBuyingLiabilities is the amount of o.Buying the offer reserves.
func OfferBuyingLiabilities(o *entry.Offer) (int64, error) {
	res, err := offerLiabilities(o)
	if err != nil {
		return 0, err
	}
	return res.NumSheepSend, nil
}

// Holdings is an offer owner's account root with its trust lines in the two
// assets of the offer. A line is nil when the asset is native, the owner
// issues it, or no line exists.
type Holdings struct {
	Account     *entry.Account
	SellingLine *entry.TrustLine
	BuyingLine  *entry.TrustLine
}

// LoadHoldings loads the entries of id that back an offer trading selling
// for buying.
func LoadHoldings(ltx LedgerTxn, id entry.AccountID, selling, buying entry.Asset) (*Holdings, error) {
	acc, err := ltx.LoadAccount(id)
	if err != nil {
		return nil, err
	}
	h := &Holdings{Account: acc}
	if h.SellingLine, err = loadLine(ltx, acc, selling); err != nil {
		return nil, err
	}
	if h.BuyingLine, err = loadLine(ltx, acc, buying); err != nil {
		return nil, err
	}
	return h, nil
}

func loadLine(ltx LedgerTxn, acc *entry.Account, asset entry.Asset) (*entry.TrustLine, error) {
	if asset.IsNative() || isIssuer(acc, asset) {
		return nil, nil
	}
	return ltx.LoadTrustLine(acc.ID, asset)
}

// Store writes the holdings back through ltx.
func (h *Holdings) Store(ltx LedgerTxn) error {
	if err := ltx.StoreAccount(h.Account); err != nil {
		return err
	}
	for _, line := range []*entry.TrustLine{h.SellingLine, h.BuyingLine} {
		if line == nil {
			continue
		}
		if err := ltx.StoreTrustLine(line); err != nil {
			return err
		}
	}
	return nil
}

// AcquireLiabilities reserves the liabilities of o on its owner's holdings.
func AcquireLiabilities(header entry.LedgerHeader, h *Holdings, o *entry.Offer) error {
	return moveLiabilities(header, h, o, 1)
}

// ReleaseLiabilities returns the liabilities of o to its owner's holdings.
func ReleaseLiabilities(header entry.LedgerHeader, h *Holdings, o *entry.Offer) error {
	return moveLiabilities(header, h, o, -1)
}

func moveLiabilities(header entry.LedgerHeader, h *Holdings, o *entry.Offer, sign int64) error {
	res, err := offerLiabilities(o)
	if err != nil {
		return err
	}
	if !AddBuyingLiabilities(h.Account, o.Buying, h.BuyingLine, sign*res.NumSheepSend) {
		return invariantf("offer %d: could not move buying liabilities by %d", o.OfferID, sign*res.NumSheepSend)
	}
	if !AddSellingLiabilities(header, h.Account, o.Selling, h.SellingLine, sign*res.NumWheatReceived) {
		return invariantf("offer %d: could not move selling liabilities by %d", o.OfferID, sign*res.NumWheatReceived)
	}
	return nil
}
