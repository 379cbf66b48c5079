package exchange

import (
	"context"
	"math"
	"testing"

	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
	"github.com/LeJamon/goDEXd/internal/core/ledger/state"
	"github.com/LeJamon/goDEXd/internal/storage/database/memory"
	"github.com/stretchr/testify/require"
)

const maxInt = math.MaxInt64

var (
	usd = entry.NewCreditAsset("USD", "gateway")
	eur = entry.NewCreditAsset("EUR", "gateway")
	xlm = entry.NativeAsset()
)

// book is a ledger scope seeded for crossing tests.
type book struct {
	t   *testing.T
	txn *state.Txn
	gen Generation
}

func newBook(t *testing.T, gen Generation) *book {
	t.Helper()
	root, err := state.NewRoot(context.Background(), memory.New(), state.Options{
		Genesis: entry.LedgerHeader{LedgerSeq: 1, LedgerVersion: uint32(gen), BaseReserve: 10},
	})
	require.NoError(t, err)
	txn, err := state.NewTxn(root)
	require.NoError(t, err)
	return &book{t: t, txn: txn, gen: gen}
}

func (b *book) account(id entry.AccountID, balance int64) {
	b.t.Helper()
	require.NoError(b.t, b.txn.StoreAccount(&entry.Account{ID: id, Balance: balance}))
}

func (b *book) line(id entry.AccountID, asset entry.Asset, balance, limit int64) {
	b.t.Helper()
	require.NoError(b.t, b.txn.StoreTrustLine(&entry.TrustLine{
		AccountID: id, Asset: asset, Balance: balance, Limit: limit, Flags: entry.TrustLineAuthorized,
	}))
}

// trader creates id with a native balance and funded lines in USD and EUR.
func (b *book) trader(id entry.AccountID, usdBalance, eurBalance int64) {
	b.account(id, 1000)
	b.line(id, usd, usdBalance, 10000)
	b.line(id, eur, eurBalance, 10000)
}

// offer rests an offer selling amount of selling for buying at n/d, with
// liabilities when the generation tracks them.
func (b *book) offer(seller entry.AccountID, selling, buying entry.Asset, amount int64, n, d int32) *entry.Offer {
	b.t.Helper()
	o := &entry.Offer{SellerID: seller, Selling: selling, Buying: buying, Amount: amount, Price: entry.Price{N: n, D: d}}
	require.NoError(b.t, b.txn.CreateOffer(o))

	h, err := LoadHoldings(b.txn, seller, selling, buying)
	require.NoError(b.t, err)
	if b.gen.TracksLiabilities() {
		require.NoError(b.t, AcquireLiabilities(b.txn.Header(), h, o))
	}
	h.Account.NumSubEntries++
	require.NoError(b.t, h.Store(b.txn))
	return o
}

func (b *book) loadOffer(id int64) (*entry.Offer, bool) {
	b.t.Helper()
	o, err := b.txn.LoadOffer(id)
	if err != nil {
		require.ErrorIs(b.t, err, state.ErrOfferNotFound)
		return nil, false
	}
	return o, true
}

func (b *book) loadLine(id entry.AccountID, asset entry.Asset) *entry.TrustLine {
	b.t.Helper()
	line, err := b.txn.LoadTrustLine(id, asset)
	require.NoError(b.t, err)
	require.NotNil(b.t, line)
	return line
}

func (b *book) loadAccount(id entry.AccountID) *entry.Account {
	b.t.Helper()
	acc, err := b.txn.LoadAccount(id)
	require.NoError(b.t, err)
	return acc
}
