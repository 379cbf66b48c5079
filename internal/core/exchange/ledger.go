package exchange

import (
	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
)

// LedgerTxn is the ledger transaction scope the crossing loop reads and
// writes through. Changes must be visible to later calls on the same scope.
// The loop never commits or rolls it back.
type LedgerTxn interface {
	Header() entry.LedgerHeader

	// LoadAccount returns a copy of the account root, or an error if it
	// does not exist.
	LoadAccount(id entry.AccountID) (*entry.Account, error)
	StoreAccount(acc *entry.Account) error

	// LoadTrustLine returns a copy of the trust line, or nil if the account
	// holds none.
	LoadTrustLine(id entry.AccountID, asset entry.Asset) (*entry.TrustLine, error)
	StoreTrustLine(line *entry.TrustLine) error

	// LoadBestOffer returns a copy of the best offer selling selling for
	// buying that sorts strictly after the cursor (any offer when after is
	// nil), in ascending (price, offer ID) order. It returns nil when there
	// is none.
	LoadBestOffer(selling, buying entry.Asset, after *entry.OfferCursor) (*entry.Offer, error)
	UpdateOffer(offer *entry.Offer) error
	EraseOffer(offer *entry.Offer) error
}
