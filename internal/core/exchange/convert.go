package exchange

import (
	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
	"go.uber.org/zap"
)

// Converter crosses incoming orders against the book.
type Converter struct {
	Generation Generation
	// MaxOffersToCross limits the offers one conversion may cross. Zero
	// means no limit.
	MaxOffersToCross int
	Logger           *zap.Logger
}

// NewConverter returns a Converter for generation g that logs to logger.
func NewConverter(g Generation, maxOffersToCross int, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{Generation: g, MaxOffersToCross: maxOffersToCross, Logger: logger}
}

func (c *Converter) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// crossing is the running state of one conversion.
type crossing struct {
	sheep, wheat    entry.Asset
	maxSheepSend    int64
	maxWheatReceive int64
	isPathPayment   bool
}

// ConvertWithOffers sends at most maxSheepSend sheep to receive at most
// maxWheatReceive wheat by crossing the offers that sell wheat for sheep,
// best first. filter is consulted before every offer; trail receives one
// ClaimOfferAtom per crossed offer.
//
// Only the resting offers' owners are settled through ltx. The caller owns
// the incoming side and settles it from the returned totals. A returned error
// is fatal and leaves ltx partly modified.
func (c *Converter) ConvertWithOffers(
	ltx LedgerTxn,
	sheep entry.Asset, maxSheepSend int64,
	wheat entry.Asset, maxWheatReceive int64,
	isPathPayment bool,
	filter OfferFilter,
	trail *[]entry.ClaimOfferAtom,
) (Conversion, error) {
	if maxSheepSend < 0 || maxWheatReceive < 0 {
		return Conversion{}, invariantf("convert: negative caps (sheep %d, wheat %d)", maxSheepSend, maxWheatReceive)
	}
	if filter == nil {
		filter = KeepAll
	}
	log := c.logger()

	st := &crossing{
		sheep:           sheep,
		wheat:           wheat,
		maxSheepSend:    maxSheepSend,
		maxWheatReceive: maxWheatReceive,
		isPathPayment:   isPathPayment,
	}
	var conv Conversion
	var after *entry.OfferCursor

	for {
		if st.maxSheepSend == 0 || st.maxWheatReceive == 0 {
			conv.Result = ConvertOK
			return conv, nil
		}

		offer, err := ltx.LoadBestOffer(wheat, sheep, after)
		if err != nil {
			return conv, err
		}
		if offer == nil {
			conv.Result = ConvertPartial
			return conv, nil
		}
		if c.MaxOffersToCross > 0 && conv.OffersCrossed >= c.MaxOffersToCross {
			conv.Result = ConvertCrossedTooMany
			return conv, nil
		}
		if filter(offer.Clone()) == FilterStop {
			log.Debug("filter stopped conversion", zap.Int64("offer_id", offer.OfferID))
			conv.Result = ConvertFilterStop
			return conv, nil
		}

		res, wheatStays, atom, err := c.crossOffer(ltx, offer, st)
		if err != nil {
			return conv, err
		}
		if res == OfferCantConvert {
			log.Debug("skipping offer that cannot convert", zap.Int64("offer_id", offer.OfferID))
			cursor := entry.CursorOf(offer)
			after = &cursor
			continue
		}

		if atom.AmountBought > st.maxSheepSend || atom.AmountSold > st.maxWheatReceive {
			return conv, invariantf("offer %d crossed beyond caps: %d for %d, caps %d and %d",
				offer.OfferID, atom.AmountSold, atom.AmountBought, st.maxWheatReceive, st.maxSheepSend)
		}
		st.maxSheepSend -= atom.AmountBought
		st.maxWheatReceive -= atom.AmountSold
		conv.SheepSend += atom.AmountBought
		conv.WheatReceived += atom.AmountSold
		conv.OffersCrossed++
		if trail != nil {
			*trail = append(*trail, atom)
		}

		log.Debug("crossed offer",
			zap.Int64("offer_id", offer.OfferID),
			zap.String("seller", string(offer.SellerID)),
			zap.Int64("wheat", atom.AmountSold),
			zap.Int64("sheep", atom.AmountBought),
			zap.Stringer("result", res))

		needMore := st.maxSheepSend > 0 && st.maxWheatReceive > 0
		if c.Generation.TracksLiabilities() {
			needMore = needMore && !wheatStays
		}
		if !needMore {
			conv.Result = ConvertOK
			return conv, nil
		}
		if res == OfferPartial {
			conv.Result = ConvertPartial
			return conv, nil
		}
	}
}

func (c *Converter) crossOffer(ltx LedgerTxn, offer *entry.Offer, st *crossing) (CrossOfferResult, bool, entry.ClaimOfferAtom, error) {
	switch c.Generation {
	case GenerationV10:
		return c.crossOfferV10(ltx, offer, st)
	case GenerationV2, GenerationV3:
		res, atom, err := c.crossOfferV3(ltx, offer, st)
		return res, res == OfferPartial, atom, err
	default:
		return 0, false, entry.ClaimOfferAtom{}, invariantf("unsupported exchange generation %s", c.Generation)
	}
}

// crossOfferV10 crosses offer, which sells wheat for sheep. Capacities are
// evaluated on copies with the offer's own liabilities released, so an offer
// that cannot convert is returned without any write.
func (c *Converter) crossOfferV10(ltx LedgerTxn, offer *entry.Offer, st *crossing) (CrossOfferResult, bool, entry.ClaimOfferAtom, error) {
	var none entry.ClaimOfferAtom
	header := ltx.Header()

	seller, err := LoadHoldings(ltx, offer.SellerID, offer.Selling, offer.Buying)
	if err != nil {
		return 0, false, none, err
	}
	if err := ReleaseLiabilities(header, seller, offer); err != nil {
		return 0, false, none, err
	}

	maxWheatSend := min(offer.Amount, CanSellAtMost(header, seller.Account, st.wheat, seller.SellingLine))
	maxSheepReceive := CanBuyAtMost(header, seller.Account, st.sheep, seller.BuyingLine)
	amount, err := AdjustOffer(offer.Price, maxWheatSend, maxSheepReceive)
	if err != nil {
		return 0, false, none, err
	}
	if amount == 0 {
		return OfferCantConvert, false, none, nil
	}

	res, err := ExchangeV10(offer.Price, amount, st.maxWheatReceive, st.maxSheepSend, maxSheepReceive, st.isPathPayment)
	if err != nil {
		return 0, false, none, err
	}
	if res.NumWheatReceived == 0 || res.NumSheepSend == 0 {
		return OfferCantConvert, false, none, nil
	}

	if err := settleSeller(header, seller, offer, res.NumWheatReceived, res.NumSheepSend); err != nil {
		return 0, false, none, err
	}

	residue := int64(0)
	if res.WheatStays || res.NumWheatReceived < amount {
		remaining := amount - res.NumWheatReceived
		maxWheatSend = min(remaining, CanSellAtMost(header, seller.Account, st.wheat, seller.SellingLine))
		maxSheepReceive = CanBuyAtMost(header, seller.Account, st.sheep, seller.BuyingLine)
		if residue, err = AdjustOffer(offer.Price, maxWheatSend, maxSheepReceive); err != nil {
			return 0, false, none, err
		}
	}

	result, err := c.finishOffer(ltx, header, seller, offer, residue, true)
	if err != nil {
		return 0, false, none, err
	}
	return result, res.WheatStays, claimAtom(offer, res.NumWheatReceived, res.NumSheepSend), nil
}

// crossOfferV3 crosses offer with the V2 or V3 arithmetic. Offers of these
// generations carry no liabilities.
func (c *Converter) crossOfferV3(ltx LedgerTxn, offer *entry.Offer, st *crossing) (CrossOfferResult, entry.ClaimOfferAtom, error) {
	var none entry.ClaimOfferAtom
	header := ltx.Header()

	seller, err := LoadHoldings(ltx, offer.SellerID, offer.Selling, offer.Buying)
	if err != nil {
		return 0, none, err
	}

	amount := min(
		offer.Amount,
		CanSellAtMost(header, seller.Account, st.wheat, seller.SellingLine),
		CanSellAtMostBasedOnSheep(seller.Account, st.sheep, seller.BuyingLine, offer.Price),
	)

	exchange := ExchangeV3
	if c.Generation == GenerationV2 {
		exchange = ExchangeV2
	}
	res, err := exchange(amount, offer.Price, st.maxWheatReceive, st.maxSheepSend)
	if err != nil {
		return 0, none, err
	}
	if res.Type() != ExchangeNormal {
		return OfferCantConvert, none, nil
	}

	if err := settleSeller(header, seller, offer, res.NumWheatReceived, res.NumSheepSend); err != nil {
		return 0, none, err
	}

	residue := int64(0)
	if amount > res.NumWheatReceived {
		residue = amount - res.NumWheatReceived
	}
	result, err := c.finishOffer(ltx, header, seller, offer, residue, false)
	if err != nil {
		return 0, none, err
	}
	return result, claimAtom(offer, res.NumWheatReceived, res.NumSheepSend), nil
}

// settleSeller credits the offer owner with sheep and debits its wheat.
func settleSeller(header entry.LedgerHeader, seller *Holdings, offer *entry.Offer, wheat, sheep int64) error {
	if !AddBalance(header, seller.Account, offer.Buying, seller.BuyingLine, sheep) {
		return invariantf("offer %d: could not credit %d %s to %s", offer.OfferID, sheep, offer.Buying, offer.SellerID)
	}
	if !AddBalance(header, seller.Account, offer.Selling, seller.SellingLine, -wheat) {
		return invariantf("offer %d: could not debit %d %s from %s", offer.OfferID, wheat, offer.Selling, offer.SellerID)
	}
	return nil
}

// finishOffer writes the crossed offer back with residue, or erases it when
// nothing remains, and stores the owner's holdings.
func (c *Converter) finishOffer(ltx LedgerTxn, header entry.LedgerHeader, seller *Holdings, offer *entry.Offer, residue int64, liabilities bool) (CrossOfferResult, error) {
	if residue >= offer.Amount {
		return 0, invariantf("offer %d did not deplete: %d -> %d", offer.OfferID, offer.Amount, residue)
	}

	if residue == 0 {
		if err := ltx.EraseOffer(offer); err != nil {
			return 0, err
		}
		if seller.Account.NumSubEntries == 0 {
			return 0, invariantf("offer %d: owner %s has no sub entries", offer.OfferID, offer.SellerID)
		}
		seller.Account.NumSubEntries--
		if err := seller.Store(ltx); err != nil {
			return 0, err
		}
		return OfferTaken, nil
	}

	updated := offer.Clone()
	updated.Amount = residue
	if liabilities {
		if err := AcquireLiabilities(header, seller, updated); err != nil {
			return 0, err
		}
	}
	if err := ltx.UpdateOffer(updated); err != nil {
		return 0, err
	}
	if err := seller.Store(ltx); err != nil {
		return 0, err
	}
	return OfferPartial, nil
}

func claimAtom(offer *entry.Offer, wheat, sheep int64) entry.ClaimOfferAtom {
	return entry.ClaimOfferAtom{
		SellerID:     offer.SellerID,
		OfferID:      offer.OfferID,
		AssetSold:    offer.Selling,
		AmountSold:   wheat,
		AssetBought:  offer.Buying,
		AmountBought: sheep,
	}
}
