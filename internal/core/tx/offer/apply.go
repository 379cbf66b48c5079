package offer

import (
	"context"
	"errors"
	"fmt"
	"math"

	crdberrors "github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/LeJamon/goDEXd/internal/core/bigmath"
	"github.com/LeJamon/goDEXd/internal/core/exchange"
	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
	"github.com/LeJamon/goDEXd/internal/core/ledger/state"
)

// Engine applies offer operations on top of a ledger scope.
type Engine struct {
	converter *exchange.Converter
	recorder  TradeRecorder
	logger    *zap.Logger
}

// NewEngine returns an Engine crossing with converter. recorder may be nil.
func NewEngine(converter *exchange.Converter, recorder TradeRecorder, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{converter: converter, recorder: recorder, logger: logger}
}

// ApplySell applies op in a child scope of parent. The child is committed
// only when the result is ResultSuccess. A returned error is fatal; parent
// is left untouched by the failed operation.
func (e *Engine) ApplySell(ctx context.Context, parent state.Parent, op *ManageSellOffer) (*Outcome, error) {
	if err := op.Validate(); err != nil {
		e.logger.Debug("malformed sell offer", zap.Error(err))
		return &Outcome{Result: ResultMalformed}, nil
	}
	return e.apply(ctx, parent, op.order())
}

// ApplyBuy applies op like ApplySell.
func (e *Engine) ApplyBuy(ctx context.Context, parent state.Parent, op *ManageBuyOffer) (*Outcome, error) {
	if err := op.Validate(); err != nil {
		e.logger.Debug("malformed buy offer", zap.Error(err))
		return &Outcome{Result: ResultMalformed}, nil
	}
	return e.apply(ctx, parent, op.order())
}

func (e *Engine) apply(ctx context.Context, parent state.Parent, o order) (*Outcome, error) {
	ltx, err := state.NewTxn(parent)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			ltx.Rollback()
		}
	}()

	out, err := e.applyOrder(ltx, o)
	if err != nil {
		e.logger.Error("offer operation failed",
			zap.String("source", string(o.source)),
			zap.Error(err))
		return nil, err
	}
	if !out.Result.IsSuccess() {
		return out, nil
	}
	header := ltx.Header()
	if err := ltx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	e.logger.Debug("offer applied",
		zap.String("source", string(o.source)),
		zap.Stringer("effect", out.Effect),
		zap.Int("claims", len(out.Claims)),
		zap.Int64("sheep_sent", out.SheepSent),
		zap.Int64("wheat_received", out.WheatReceived))

	if e.recorder != nil && len(out.Claims) > 0 {
		if err := e.recorder.RecordTrades(ctx, header.LedgerSeq, o.source, out.Claims); err != nil {
			return out, fmt.Errorf("record trades: %w", err)
		}
	}
	return out, nil
}

func (e *Engine) applyOrder(ltx *state.Txn, o order) (*Outcome, error) {
	header := ltx.Header()
	tracks := e.converter.Generation.TracksLiabilities()

	var old *entry.Offer
	if o.offerID != 0 {
		var err error
		old, err = ltx.LoadOffer(o.offerID)
		if errors.Is(err, state.ErrOfferNotFound) {
			return &Outcome{Result: ResultNotFound}, nil
		}
		if err != nil {
			return nil, err
		}
		if old.SellerID != o.source {
			return &Outcome{Result: ResultNotFound}, nil
		}
		if tracks {
			oldHoldings, err := exchange.LoadHoldings(ltx, old.SellerID, old.Selling, old.Buying)
			if err != nil {
				return nil, err
			}
			if err := exchange.ReleaseLiabilities(header, oldHoldings, old); err != nil {
				return nil, err
			}
			if err := oldHoldings.Store(ltx); err != nil {
				return nil, err
			}
		}
	}

	src, err := exchange.LoadHoldings(ltx, o.source, o.sheep, o.wheat)
	if err != nil {
		return nil, err
	}

	if o.amount == 0 {
		return deleteOffer(ltx, src, old)
	}

	if res := checkTrust(src, o); res != ResultSuccess {
		return &Outcome{Result: res}, nil
	}

	if old == nil {
		avail := src.Account.Balance
		if tracks {
			avail -= src.Account.Liabilities.Selling
		}
		if avail < header.MinBalance(src.Account.NumSubEntries+1) {
			return &Outcome{Result: ResultLowReserve}, nil
		}
		src.Account.NumSubEntries++
	}

	maxSheepSend := exchange.CanSellAtMost(header, src.Account, o.sheep, src.SellingLine)
	maxWheatReceive := exchange.CanBuyAtMost(header, src.Account, o.wheat, src.BuyingLine)

	sellLiabilities, buyLiabilities, err := o.liabilities()
	if err != nil {
		return nil, err
	}
	if tracks {
		if maxWheatReceive < buyLiabilities {
			return &Outcome{Result: ResultLineFull}, nil
		}
		if maxSheepSend < sellLiabilities {
			return &Outcome{Result: ResultUnderfunded}, nil
		}
	} else {
		if maxWheatReceive == 0 {
			return &Outcome{Result: ResultLineFull}, nil
		}
		if maxSheepSend == 0 {
			return &Outcome{Result: ResultUnderfunded}, nil
		}
	}
	if o.isBuy {
		maxWheatReceive = min(maxWheatReceive, o.amount)
		maxSheepSend = min(maxSheepSend, sellLiabilities)
	} else {
		maxSheepSend = min(maxSheepSend, o.amount)
	}

	if err := src.Store(ltx); err != nil {
		return nil, err
	}

	crossedSelf := false
	filter := func(resting *entry.Offer) exchange.OfferFilterResult {
		if resting.SellerID == o.source {
			crossedSelf = true
			return exchange.FilterStop
		}
		cmp := resting.Price.Compare(o.maxWheatPrice)
		if cmp > 0 || (o.passive && cmp == 0) {
			return exchange.FilterStop
		}
		return exchange.FilterKeep
	}

	out := &Outcome{}
	conv, err := e.converter.ConvertWithOffers(ltx, o.sheep, maxSheepSend, o.wheat, maxWheatReceive, false, filter, &out.Claims)
	if err != nil {
		return nil, err
	}
	if crossedSelf {
		return &Outcome{Result: ResultCrossSelf}, nil
	}
	if conv.Result == exchange.ConvertCrossedTooMany {
		return &Outcome{Result: ResultCrossedTooMany}, nil
	}
	out.SheepSent = conv.SheepSend
	out.WheatReceived = conv.WheatReceived

	if src, err = exchange.LoadHoldings(ltx, o.source, o.sheep, o.wheat); err != nil {
		return nil, err
	}
	if !exchange.AddBalance(header, src.Account, o.wheat, src.BuyingLine, conv.WheatReceived) {
		return nil, crdberrors.AssertionFailedf("could not credit %d %s to %s", conv.WheatReceived, o.wheat, o.source)
	}
	if !exchange.AddBalance(header, src.Account, o.sheep, src.SellingLine, -conv.SheepSend) {
		return nil, crdberrors.AssertionFailedf("could not debit %d %s from %s", conv.SheepSend, o.sheep, o.source)
	}

	residue := int64(0)
	if conv.Result != exchange.ConvertOK {
		if residue, err = e.residue(header, src, o, conv); err != nil {
			return nil, err
		}
	}

	if residue > 0 {
		rest := &entry.Offer{
			SellerID: o.source,
			Selling:  o.sheep,
			Buying:   o.wheat,
			Amount:   residue,
			Price:    o.price,
		}
		if o.passive {
			rest.Flags |= entry.OfferPassive
		}
		if old != nil {
			rest.OfferID = old.OfferID
			err = ltx.UpdateOffer(rest)
			out.Effect = EffectUpdated
		} else {
			err = ltx.CreateOffer(rest)
			out.Effect = EffectCreated
		}
		if err != nil {
			return nil, err
		}
		if tracks {
			if err := exchange.AcquireLiabilities(header, src, rest); err != nil {
				return nil, err
			}
		}
		out.Offer = rest
	} else {
		if old != nil {
			if err := ltx.EraseOffer(old); err != nil {
				return nil, err
			}
			out.Effect = EffectDeleted
		}
		src.Account.NumSubEntries--
	}

	if err := src.Store(ltx); err != nil {
		return nil, err
	}
	out.Result = ResultSuccess
	return out, nil
}

// residue returns the amount of sheep the unmatched part of the order rests
// with, adjusted to what the source can still deliver and receive.
func (e *Engine) residue(header entry.LedgerHeader, src *exchange.Holdings, o order, conv exchange.Conversion) (int64, error) {
	var remaining int64
	if o.isBuy {
		wheatLeft := o.amount - conv.WheatReceived
		// maxWheatPrice is sheep per wheat
		sheep, ok := bigmath.BigDivide(wheatLeft, int64(o.maxWheatPrice.N), int64(o.maxWheatPrice.D), bigmath.RoundDown)
		if !ok {
			sheep = math.MaxInt64
		}
		remaining = sheep
	} else {
		remaining = o.amount - conv.SheepSend
	}
	if remaining <= 0 {
		return 0, nil
	}
	if !e.converter.Generation.TracksLiabilities() {
		return remaining, nil
	}
	maxSheepSend := min(remaining, exchange.CanSellAtMost(header, src.Account, o.sheep, src.SellingLine))
	maxWheatReceive := exchange.CanBuyAtMost(header, src.Account, o.wheat, src.BuyingLine)
	return exchange.AdjustOffer(o.price, maxSheepSend, maxWheatReceive)
}

// liabilities returns how much sheep the whole order sells and how much
// wheat it buys at its own price.
func (o order) liabilities() (selling, buying int64, err error) {
	var res exchange.ExchangeResultV10
	if o.isBuy {
		res, err = exchange.ExchangeV10WithoutPriceErrorThresholds(o.price, math.MaxInt64, math.MaxInt64, math.MaxInt64, o.amount, false)
	} else {
		res, err = exchange.ExchangeV10WithoutPriceErrorThresholds(o.price, o.amount, math.MaxInt64, math.MaxInt64, math.MaxInt64, false)
	}
	if err != nil {
		return 0, 0, err
	}
	return res.NumWheatReceived, res.NumSheepSend, nil
}

func deleteOffer(ltx *state.Txn, src *exchange.Holdings, old *entry.Offer) (*Outcome, error) {
	if err := ltx.EraseOffer(old); err != nil {
		return nil, err
	}
	if src.Account.NumSubEntries == 0 {
		return nil, crdberrors.AssertionFailedf("offer %d: owner %s has no sub entries", old.OfferID, old.SellerID)
	}
	src.Account.NumSubEntries--
	if err := ltx.StoreAccount(src.Account); err != nil {
		return nil, err
	}
	return &Outcome{Result: ResultSuccess, Effect: EffectDeleted}, nil
}

func checkTrust(src *exchange.Holdings, o order) Result {
	if needsLine(src.Account, o.sheep) {
		if src.SellingLine == nil {
			return ResultSellNoTrust
		}
		if !src.SellingLine.IsAuthorized() {
			return ResultSellNotAuthorized
		}
	}
	if needsLine(src.Account, o.wheat) {
		if src.BuyingLine == nil {
			return ResultBuyNoTrust
		}
		if !src.BuyingLine.IsAuthorized() {
			return ResultBuyNotAuthorized
		}
	}
	return ResultSuccess
}

func needsLine(acc *entry.Account, asset entry.Asset) bool {
	return !asset.IsNative() && asset.Issuer != acc.ID
}
