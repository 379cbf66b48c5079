package offer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/LeJamon/goDEXd/internal/core/exchange"
	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
	"github.com/LeJamon/goDEXd/internal/core/ledger/state"
	"github.com/LeJamon/goDEXd/internal/core/tx/offer"
	"github.com/LeJamon/goDEXd/internal/core/tx/offer/mocks"
	"github.com/LeJamon/goDEXd/internal/storage/database/memory"
)

var (
	usd = entry.NewCreditAsset("USD", "gateway")
	eur = entry.NewCreditAsset("EUR", "gateway")
	xlm = entry.NativeAsset()
)

type env struct {
	t      *testing.T
	ctx    context.Context
	root   *state.Root
	engine *offer.Engine
}

func newEnv(t *testing.T, gen exchange.Generation, maxCross int, recorder offer.TradeRecorder) *env {
	t.Helper()
	ctx := context.Background()
	root, err := state.NewRoot(ctx, memory.New(), state.Options{
		Genesis: entry.LedgerHeader{LedgerSeq: 7, LedgerVersion: uint32(gen), BaseReserve: 10},
	})
	require.NoError(t, err)
	logger := zaptest.NewLogger(t)
	conv := exchange.NewConverter(gen, maxCross, logger)
	return &env{t: t, ctx: ctx, root: root, engine: offer.NewEngine(conv, recorder, logger)}
}

func (e *env) seed(fn func(txn *state.Txn)) {
	e.t.Helper()
	txn, err := state.NewTxn(e.root)
	require.NoError(e.t, err)
	fn(txn)
	require.NoError(e.t, txn.Commit())
}

func (e *env) view(fn func(txn *state.Txn)) {
	e.t.Helper()
	txn, err := state.NewTxn(e.root)
	require.NoError(e.t, err)
	defer txn.Rollback()
	fn(txn)
}

// trader creates id with 1000 native and authorized USD and EUR lines.
func (e *env) trader(id entry.AccountID, usdBalance, eurBalance int64) {
	e.t.Helper()
	e.seed(func(txn *state.Txn) {
		require.NoError(e.t, txn.StoreAccount(&entry.Account{ID: id, Balance: 1000}))
		for asset, balance := range map[entry.Asset]int64{usd: usdBalance, eur: eurBalance} {
			require.NoError(e.t, txn.StoreTrustLine(&entry.TrustLine{
				AccountID: id, Asset: asset, Balance: balance, Limit: 10000, Flags: entry.TrustLineAuthorized,
			}))
		}
	})
}

func (e *env) sell(op *offer.ManageSellOffer) *offer.Outcome {
	e.t.Helper()
	out, err := e.engine.ApplySell(e.ctx, e.root, op)
	require.NoError(e.t, err)
	return out
}

func (e *env) buy(op *offer.ManageBuyOffer) *offer.Outcome {
	e.t.Helper()
	out, err := e.engine.ApplyBuy(e.ctx, e.root, op)
	require.NoError(e.t, err)
	return out
}

func (e *env) line(id entry.AccountID, asset entry.Asset) (line *entry.TrustLine) {
	e.t.Helper()
	e.view(func(txn *state.Txn) {
		var err error
		line, err = txn.LoadTrustLine(id, asset)
		require.NoError(e.t, err)
		require.NotNil(e.t, line)
	})
	return line
}

func (e *env) account(id entry.AccountID) (acc *entry.Account) {
	e.t.Helper()
	e.view(func(txn *state.Txn) {
		var err error
		acc, err = txn.LoadAccount(id)
		require.NoError(e.t, err)
	})
	return acc
}

func (e *env) offer(id int64) (o *entry.Offer) {
	e.t.Helper()
	e.view(func(txn *state.Txn) {
		var err error
		o, err = txn.LoadOffer(id)
		if errors.Is(err, state.ErrOfferNotFound) {
			o = nil
			return
		}
		require.NoError(e.t, err)
	})
	return o
}

func sellOp(source entry.AccountID, selling, buying entry.Asset, amount int64, n, d int32) *offer.ManageSellOffer {
	return &offer.ManageSellOffer{Source: source, Selling: selling, Buying: buying, Amount: amount, Price: entry.Price{N: n, D: d}}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		op   offer.ManageSellOffer
		err  error
	}{
		{"valid", *sellOp("alice", usd, eur, 10, 1, 1), nil},
		{"missing source", *sellOp("", usd, eur, 10, 1, 1), offer.ErrMissingSource},
		{"same asset", *sellOp("alice", usd, usd, 10, 1, 1), entry.ErrSameAsset},
		{"zero price", *sellOp("alice", usd, eur, 10, 0, 1), entry.ErrInvalidPrice},
		{"negative amount", *sellOp("alice", usd, eur, -1, 1, 1), offer.ErrNegativeAmount},
		{"delete without id", *sellOp("alice", usd, eur, 0, 1, 1), offer.ErrDeleteNeedsID},
		{"bad asset", *sellOp("alice", entry.NewCreditAsset("", "gateway"), eur, 10, 1, 1), entry.ErrInvalidAsset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}

	buy := offer.ManageBuyOffer{Source: "alice", Selling: usd, Buying: eur, BuyAmount: 0, Price: entry.Price{N: 1, D: 1}, OfferID: 3}
	assert.NoError(t, buy.Validate())
	buy.Price = entry.Price{N: 1, D: -1}
	assert.ErrorIs(t, buy.Validate(), entry.ErrInvalidPrice)
}

func TestSellCreatesRestingOffer(t *testing.T) {
	e := newEnv(t, exchange.GenerationV10, 0, nil)
	e.trader("alice", 500, 0)

	out := e.sell(sellOp("alice", usd, eur, 100, 1, 1))
	require.Equal(t, offer.ResultSuccess, out.Result)
	assert.Equal(t, offer.EffectCreated, out.Effect)
	require.NotNil(t, out.Offer)
	assert.Equal(t, int64(100), out.Offer.Amount)
	assert.Empty(t, out.Claims)

	stored := e.offer(out.Offer.OfferID)
	require.NotNil(t, stored)
	assert.Equal(t, entry.Price{N: 1, D: 1}, stored.Price)
	assert.Equal(t, uint32(1), e.account("alice").NumSubEntries)
	assert.Equal(t, int64(100), e.line("alice", usd).Liabilities.Selling)
	assert.Equal(t, int64(100), e.line("alice", eur).Liabilities.Buying)
	assert.Equal(t, out.Offer.OfferID, e.root.Header().IDPool)
}

func TestSellCrossesRestingOffer(t *testing.T) {
	ctrl := gomock.NewController(t)
	rec := mocks.NewMockTradeRecorder(ctrl)

	e := newEnv(t, exchange.GenerationV10, 0, rec)
	e.trader("alice", 500, 0)
	e.trader("bob", 0, 500)

	bob := e.sell(sellOp("bob", eur, usd, 100, 1, 1))
	require.Equal(t, offer.EffectCreated, bob.Effect)

	rec.EXPECT().
		RecordTrades(gomock.Any(), uint32(7), entry.AccountID("alice"), gomock.Len(1)).
		Return(nil)

	out := e.sell(sellOp("alice", usd, eur, 50, 1, 1))
	require.Equal(t, offer.ResultSuccess, out.Result)
	assert.Equal(t, offer.EffectNone, out.Effect)
	assert.Nil(t, out.Offer)
	assert.Equal(t, int64(50), out.SheepSent)
	assert.Equal(t, int64(50), out.WheatReceived)
	require.Len(t, out.Claims, 1)
	assert.Equal(t, entry.ClaimOfferAtom{
		SellerID: "bob", OfferID: bob.Offer.OfferID,
		AssetSold: eur, AmountSold: 50,
		AssetBought: usd, AmountBought: 50,
	}, out.Claims[0])

	assert.Equal(t, int64(450), e.line("alice", usd).Balance)
	assert.Equal(t, int64(50), e.line("alice", eur).Balance)
	assert.Equal(t, uint32(0), e.account("alice").NumSubEntries)

	rest := e.offer(bob.Offer.OfferID)
	require.NotNil(t, rest)
	assert.Equal(t, int64(50), rest.Amount)
	assert.Equal(t, int64(50), e.line("bob", eur).Liabilities.Selling)
	assert.Equal(t, int64(50), e.line("bob", usd).Balance)
}

func TestSellPostsResidueAfterCrossing(t *testing.T) {
	e := newEnv(t, exchange.GenerationV10, 0, nil)
	e.trader("alice", 500, 0)
	e.trader("bob", 0, 500)
	bob := e.sell(sellOp("bob", eur, usd, 30, 1, 1))

	out := e.sell(sellOp("alice", usd, eur, 100, 1, 1))
	require.Equal(t, offer.ResultSuccess, out.Result)
	assert.Equal(t, offer.EffectCreated, out.Effect)
	assert.Equal(t, int64(30), out.SheepSent)
	require.NotNil(t, out.Offer)
	assert.Equal(t, int64(70), out.Offer.Amount)

	assert.Nil(t, e.offer(bob.Offer.OfferID))
	assert.Equal(t, uint32(0), e.account("bob").NumSubEntries)
	assert.Equal(t, uint32(1), e.account("alice").NumSubEntries)
	assert.Equal(t, int64(70), e.line("alice", usd).Liabilities.Selling)
}

func TestSellStopsAtWorsePrice(t *testing.T) {
	e := newEnv(t, exchange.GenerationV10, 0, nil)
	e.trader("alice", 500, 0)
	e.trader("bob", 0, 500)
	// bob wants 2 USD per EUR, alice only offers 1
	bob := e.sell(sellOp("bob", eur, usd, 100, 2, 1))

	out := e.sell(sellOp("alice", usd, eur, 100, 1, 1))
	require.Equal(t, offer.ResultSuccess, out.Result)
	assert.Equal(t, offer.EffectCreated, out.Effect)
	assert.Empty(t, out.Claims)
	assert.Equal(t, int64(100), e.offer(bob.Offer.OfferID).Amount)
}

func TestPassiveDoesNotCrossEqualPrice(t *testing.T) {
	e := newEnv(t, exchange.GenerationV10, 0, nil)
	e.trader("alice", 500, 0)
	e.trader("bob", 0, 500)
	e.sell(sellOp("bob", eur, usd, 100, 1, 1))

	op := sellOp("alice", usd, eur, 100, 1, 1)
	op.Passive = true
	out := e.sell(op)
	require.Equal(t, offer.ResultSuccess, out.Result)
	assert.Empty(t, out.Claims)
	require.NotNil(t, out.Offer)
	assert.True(t, out.Offer.IsPassive())

	// a better price still crosses
	op = sellOp("alice", usd, eur, 10, 1, 2)
	op.Passive = true
	out = e.sell(op)
	require.Equal(t, offer.ResultSuccess, out.Result)
	assert.Len(t, out.Claims, 1)
}

func TestCrossSelfRollsBack(t *testing.T) {
	e := newEnv(t, exchange.GenerationV10, 0, nil)
	e.trader("alice", 500, 500)
	own := e.sell(sellOp("alice", eur, usd, 100, 1, 1))

	out := e.sell(sellOp("alice", usd, eur, 50, 1, 1))
	assert.Equal(t, offer.ResultCrossSelf, out.Result)
	assert.Equal(t, uint32(1), e.account("alice").NumSubEntries)
	assert.Equal(t, int64(100), e.offer(own.Offer.OfferID).Amount)
	assert.Equal(t, int64(0), e.line("alice", usd).Liabilities.Selling)
}

func TestUpdateAndDelete(t *testing.T) {
	e := newEnv(t, exchange.GenerationV10, 0, nil)
	e.trader("alice", 500, 0)
	created := e.sell(sellOp("alice", usd, eur, 100, 1, 1))
	id := created.Offer.OfferID

	op := sellOp("alice", usd, eur, 40, 3, 2)
	op.OfferID = id
	out := e.sell(op)
	require.Equal(t, offer.ResultSuccess, out.Result)
	assert.Equal(t, offer.EffectUpdated, out.Effect)
	stored := e.offer(id)
	require.NotNil(t, stored)
	assert.Equal(t, int64(40), stored.Amount)
	assert.Equal(t, entry.Price{N: 3, D: 2}, stored.Price)
	assert.Equal(t, uint32(1), e.account("alice").NumSubEntries)
	assert.Equal(t, int64(40), e.line("alice", usd).Liabilities.Selling)
	assert.Equal(t, int64(60), e.line("alice", eur).Liabilities.Buying)

	op = sellOp("alice", usd, eur, 0, 1, 1)
	op.OfferID = id
	out = e.sell(op)
	require.Equal(t, offer.ResultSuccess, out.Result)
	assert.Equal(t, offer.EffectDeleted, out.Effect)
	assert.Nil(t, e.offer(id))
	assert.Equal(t, uint32(0), e.account("alice").NumSubEntries)
	assert.Equal(t, entry.Liabilities{}, e.line("alice", usd).Liabilities)
	assert.Equal(t, entry.Liabilities{}, e.line("alice", eur).Liabilities)
}

func TestNotFound(t *testing.T) {
	e := newEnv(t, exchange.GenerationV10, 0, nil)
	e.trader("alice", 500, 0)
	e.trader("bob", 0, 500)
	bob := e.sell(sellOp("bob", eur, usd, 100, 1, 1))

	op := sellOp("alice", usd, eur, 0, 1, 1)
	op.OfferID = 99
	assert.Equal(t, offer.ResultNotFound, e.sell(op).Result)

	op.OfferID = bob.Offer.OfferID
	assert.Equal(t, offer.ResultNotFound, e.sell(op).Result)
	assert.NotNil(t, e.offer(bob.Offer.OfferID))
}

func TestResultCodes(t *testing.T) {
	e := newEnv(t, exchange.GenerationV10, 0, nil)
	e.trader("alice", 10, 0)
	e.trader("full", 500, 10000)
	e.seed(func(txn *state.Txn) {
		require.NoError(t, txn.StoreAccount(&entry.Account{ID: "carol", Balance: 1000}))
		require.NoError(t, txn.StoreAccount(&entry.Account{ID: "poor", Balance: 25}))
		require.NoError(t, txn.StoreTrustLine(&entry.TrustLine{AccountID: "poor", Asset: usd, Limit: 1000, Flags: entry.TrustLineAuthorized}))
		require.NoError(t, txn.StoreAccount(&entry.Account{ID: "frozen", Balance: 1000}))
		require.NoError(t, txn.StoreTrustLine(&entry.TrustLine{AccountID: "frozen", Asset: usd, Balance: 100, Limit: 1000}))
		require.NoError(t, txn.StoreTrustLine(&entry.TrustLine{
			AccountID: "frozen", Asset: eur, Limit: 1000, Flags: entry.TrustLineAuthorizedToMaintainLiabilities,
		}))
	})

	tests := []struct {
		name string
		op   *offer.ManageSellOffer
		want offer.Result
	}{
		{"malformed", sellOp("alice", usd, usd, 10, 1, 1), offer.ResultMalformed},
		{"sell no trust", sellOp("carol", usd, xlm, 10, 1, 1), offer.ResultSellNoTrust},
		{"buy no trust", sellOp("carol", xlm, usd, 10, 1, 1), offer.ResultBuyNoTrust},
		{"sell not authorized", sellOp("frozen", usd, xlm, 10, 1, 1), offer.ResultSellNotAuthorized},
		{"buy not authorized", sellOp("frozen", xlm, eur, 10, 1, 1), offer.ResultBuyNotAuthorized},
		{"underfunded", sellOp("alice", usd, eur, 100, 1, 1), offer.ResultUnderfunded},
		{"line full", sellOp("full", usd, eur, 100, 1, 1), offer.ResultLineFull},
		{"low reserve", sellOp("poor", xlm, usd, 1, 1, 1), offer.ResultLowReserve},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.sell(tt.op)
			assert.Equal(t, tt.want, out.Result, out.Result.String())
			assert.Nil(t, out.Offer)
		})
	}

	ok := e.sell(sellOp("alice", usd, eur, 10, 1, 1))
	assert.Equal(t, offer.ResultSuccess, ok.Result)
}

func TestBuyCrosses(t *testing.T) {
	e := newEnv(t, exchange.GenerationV10, 0, nil)
	e.trader("alice", 500, 0)
	e.trader("bob", 0, 500)
	e.sell(sellOp("bob", eur, usd, 100, 1, 1))

	out := e.buy(&offer.ManageBuyOffer{Source: "alice", Selling: usd, Buying: eur, BuyAmount: 30, Price: entry.Price{N: 1, D: 1}})
	require.Equal(t, offer.ResultSuccess, out.Result)
	assert.Equal(t, offer.EffectNone, out.Effect)
	assert.Equal(t, int64(30), out.WheatReceived)
	assert.Equal(t, int64(30), out.SheepSent)
	assert.Equal(t, int64(30), e.line("alice", eur).Balance)
	assert.Equal(t, int64(470), e.line("alice", usd).Balance)
}

func TestBuyRestsAtInversePrice(t *testing.T) {
	e := newEnv(t, exchange.GenerationV10, 0, nil)
	e.trader("alice", 500, 0)

	// buy 50 EUR paying up to 2 USD each
	out := e.buy(&offer.ManageBuyOffer{Source: "alice", Selling: usd, Buying: eur, BuyAmount: 50, Price: entry.Price{N: 2, D: 1}})
	require.Equal(t, offer.ResultSuccess, out.Result)
	assert.Equal(t, offer.EffectCreated, out.Effect)
	require.NotNil(t, out.Offer)
	assert.Equal(t, int64(100), out.Offer.Amount)
	assert.Equal(t, usd, out.Offer.Selling)
	assert.Equal(t, entry.Price{N: 1, D: 2}, out.Offer.Price)
	assert.Equal(t, int64(100), e.line("alice", usd).Liabilities.Selling)
	assert.Equal(t, int64(50), e.line("alice", eur).Liabilities.Buying)
}

func TestCrossedTooManyRollsBack(t *testing.T) {
	e := newEnv(t, exchange.GenerationV10, 1, nil)
	e.trader("alice", 500, 0)
	e.trader("bob", 0, 500)
	first := e.sell(sellOp("bob", eur, usd, 10, 1, 1))
	e.sell(sellOp("bob", eur, usd, 10, 1, 1))

	out := e.sell(sellOp("alice", usd, eur, 100, 1, 1))
	assert.Equal(t, offer.ResultCrossedTooMany, out.Result)
	assert.Equal(t, int64(10), e.offer(first.Offer.OfferID).Amount)
	assert.Equal(t, int64(500), e.line("alice", usd).Balance)
	assert.Equal(t, uint32(2), e.account("bob").NumSubEntries)
}

func TestRecorderErrorIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	rec := mocks.NewMockTradeRecorder(ctrl)
	e := newEnv(t, exchange.GenerationV10, 0, rec)
	e.trader("alice", 500, 0)
	e.trader("bob", 0, 500)
	e.sell(sellOp("bob", eur, usd, 100, 1, 1))

	boom := errors.New("trade db down")
	rec.EXPECT().RecordTrades(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(boom)

	out, err := e.engine.ApplySell(e.ctx, e.root, sellOp("alice", usd, eur, 50, 1, 1))
	require.ErrorIs(t, err, boom)
	require.NotNil(t, out)
	assert.Equal(t, offer.ResultSuccess, out.Result)
	// the ledger change stands
	assert.Equal(t, int64(50), e.line("alice", eur).Balance)
}

func TestLegacyGenerationTracksNoLiabilities(t *testing.T) {
	e := newEnv(t, exchange.GenerationV3, 0, nil)
	e.trader("alice", 500, 0)
	e.trader("bob", 0, 500)
	e.sell(sellOp("bob", eur, usd, 100, 1, 1))
	assert.Equal(t, entry.Liabilities{}, e.line("bob", eur).Liabilities)

	out := e.sell(sellOp("alice", usd, eur, 50, 1, 1))
	require.Equal(t, offer.ResultSuccess, out.Result)
	assert.Equal(t, int64(50), out.WheatReceived)
	assert.Equal(t, int64(50), e.line("alice", eur).Balance)
}
