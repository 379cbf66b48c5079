package state

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
	"github.com/LeJamon/goDEXd/internal/core/ledger/keylet"
)

// Txn is a nested sandbox over a Parent. Reads fall through to the parent;
// writes stay local until Commit pushes them one level up. A Txn is not safe
// for concurrent use.
type Txn struct {
	parent Parent

	// entries holds new encodings by storage key; a nil value marks a delete
	entries map[string][]byte
	hdr     *entry.LedgerHeader

	child  *Txn
	closed bool
}

// NewTxn opens a transaction on parent. A parent holds at most one open
// child at a time.
func NewTxn(parent Parent) (*Txn, error) {
	t := &Txn{parent: parent, entries: make(map[string][]byte)}
	if err := parent.attach(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Commit pushes the transaction's changes into its parent and closes it.
func (t *Txn) Commit() error {
	if t.closed {
		return ErrTxnClosed
	}
	if t.child != nil {
		return ErrChildOpen
	}
	t.closed = true
	return t.parent.apply(t, t.entries, t.hdr)
}

// Rollback discards the transaction's changes, along with any open child.
// Rolling back a closed transaction is a no-op.
func (t *Txn) Rollback() {
	if t.closed {
		return
	}
	if t.child != nil {
		t.child.Rollback()
	}
	t.closed = true
	t.entries = nil
	t.parent.detach(t)
}

// Header returns the ledger header as seen by this transaction.
func (t *Txn) Header() entry.LedgerHeader {
	return t.header()
}

// LoadAccount returns a copy of the account root of id.
func (t *Txn) LoadAccount(id entry.AccountID) (*entry.Account, error) {
	var acc entry.Account
	found, err := t.load(keylet.Account(id), &acc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	return &acc, nil
}

// StoreAccount creates or replaces an account root.
func (t *Txn) StoreAccount(acc *entry.Account) error {
	if err := acc.Validate(); err != nil {
		return err
	}
	return t.store(keylet.Account(acc.ID), acc)
}

// LoadTrustLine returns a copy of id's trust line in asset, or nil if the
// account holds none.
func (t *Txn) LoadTrustLine(id entry.AccountID, asset entry.Asset) (*entry.TrustLine, error) {
	var line entry.TrustLine
	found, err := t.load(keylet.TrustLine(id, asset), &line)
	if err != nil || !found {
		return nil, err
	}
	return &line, nil
}

// StoreTrustLine creates or replaces a trust line.
func (t *Txn) StoreTrustLine(line *entry.TrustLine) error {
	if err := line.Validate(); err != nil {
		return err
	}
	return t.store(keylet.TrustLine(line.AccountID, line.Asset), line)
}

// LoadOffer returns a copy of the offer with the given ID.
func (t *Txn) LoadOffer(offerID int64) (*entry.Offer, error) {
	var o entry.Offer
	found, err := t.load(keylet.Offer(offerID), &o)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", ErrOfferNotFound, offerID)
	}
	return &o, nil
}

// CreateOffer assigns o the next ID from the header's pool and stores it.
func (t *Txn) CreateOffer(o *entry.Offer) error {
	if err := t.writable(); err != nil {
		return err
	}
	hdr := t.header()
	if hdr.IDPool == math.MaxInt64 {
		return ErrIDPoolExhausted
	}
	hdr.IDPool++
	o.OfferID = hdr.IDPool

	if err := o.Validate(); err != nil {
		return err
	}
	if _, found, err := t.get(keylet.Offer(o.OfferID).String()); err != nil {
		return err
	} else if found {
		return fmt.Errorf("%w: %d", ErrOfferExists, o.OfferID)
	}
	if err := t.putOffer(o); err != nil {
		return err
	}
	t.hdr = &hdr
	return nil
}

// UpdateOffer replaces a stored offer, moving it between books if its assets
// changed.
func (t *Txn) UpdateOffer(o *entry.Offer) error {
	if err := t.writable(); err != nil {
		return err
	}
	if err := o.Validate(); err != nil {
		return err
	}
	old, err := t.LoadOffer(o.OfferID)
	if err != nil {
		return err
	}
	if old.Book() != o.Book() {
		t.entries[keylet.BookEntry(old.Book(), old.OfferID).String()] = nil
	}
	return t.putOffer(o)
}

// EraseOffer removes a stored offer and its book index record.
func (t *Txn) EraseOffer(o *entry.Offer) error {
	if err := t.writable(); err != nil {
		return err
	}
	old, err := t.LoadOffer(o.OfferID)
	if err != nil {
		return err
	}
	t.entries[keylet.Offer(old.OfferID).String()] = nil
	t.entries[keylet.BookEntry(old.Book(), old.OfferID).String()] = nil
	return nil
}

// LoadBestOffer returns the cheapest offer selling selling for buying, ties
// broken by ascending offer ID. With a non-nil after it returns the best offer
// sorting strictly after that position. It returns nil if there is none.
//
// Each call decodes the whole book, so a conversion crossing k offers costs
// O(k*n) decodes. This ledger backs tests and replays of small books; a
// store serving deep books needs an index ordered by price.
func (t *Txn) LoadBestOffer(selling, buying entry.Asset, after *entry.OfferCursor) (*entry.Offer, error) {
	offers, err := t.bookOffers(entry.Book{Selling: selling, Buying: buying})
	if err != nil {
		return nil, err
	}

	var best *entry.Offer
	for _, o := range offers {
		if after != nil && !sortsAfter(o, *after) {
			continue
		}
		if best == nil || entry.BetterOffer(o, best) {
			best = o
		}
	}
	return best, nil
}

// Offers returns every offer in book in (price, ID) order.
func (t *Txn) Offers(book entry.Book) ([]*entry.Offer, error) {
	offers, err := t.bookOffers(book)
	if err != nil {
		return nil, err
	}
	sort.Slice(offers, func(i, j int) bool { return entry.BetterOffer(offers[i], offers[j]) })
	return offers, nil
}

func sortsAfter(o *entry.Offer, c entry.OfferCursor) bool {
	if c.Before(o) {
		return false
	}
	return o.Price.Compare(c.Price) != 0 || o.OfferID != c.OfferID
}

func (t *Txn) bookOffers(book entry.Book) ([]*entry.Offer, error) {
	ids, err := t.bookIDs(keylet.BookPrefix(book))
	if err != nil {
		return nil, err
	}
	offers := make([]*entry.Offer, 0, len(ids))
	for id := range ids {
		o, err := t.LoadOffer(id)
		if err != nil {
			if errors.Is(err, ErrOfferNotFound) {
				return nil, fmt.Errorf("book %s indexes missing offer %d", book, id)
			}
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, nil
}

func (t *Txn) putOffer(o *entry.Offer) error {
	if err := t.store(keylet.Offer(o.OfferID), o); err != nil {
		return err
	}
	idx := keylet.BookEntry(o.Book(), o.OfferID)
	t.entries[idx.String()] = idx.Key[len(idx.Key)-8:]
	return nil
}

func (t *Txn) load(k keylet.Keylet, v any) (bool, error) {
	if t.closed {
		return false, ErrTxnClosed
	}
	raw, found, err := t.get(k.String())
	if err != nil || !found {
		return false, err
	}
	if err := entry.Decode(raw, v); err != nil {
		return false, fmt.Errorf("load %s: %w", k.Type, err)
	}
	return true, nil
}

func (t *Txn) store(k keylet.Keylet, v any) error {
	if err := t.writable(); err != nil {
		return err
	}
	enc, err := entry.Encode(v)
	if err != nil {
		return err
	}
	t.entries[k.String()] = enc
	return nil
}

func (t *Txn) writable() error {
	if t.closed {
		return ErrTxnClosed
	}
	if t.child != nil {
		return ErrChildOpen
	}
	return nil
}

func (t *Txn) header() entry.LedgerHeader {
	if t.hdr != nil {
		return *t.hdr
	}
	return t.parent.header()
}

func (t *Txn) get(key string) ([]byte, bool, error) {
	if val, ok := t.entries[key]; ok {
		return val, val != nil, nil
	}
	return t.parent.get(key)
}

func (t *Txn) bookIDs(prefix []byte) (map[int64]struct{}, error) {
	ids, err := t.parent.bookIDs(prefix)
	if err != nil {
		return nil, err
	}
	for k, v := range t.entries {
		if !strings.HasPrefix(k, string(prefix)) {
			continue
		}
		id, ok := keylet.OfferIDFromBookKey([]byte(k))
		if !ok {
			continue
		}
		if v == nil {
			delete(ids, id)
		} else {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

func (t *Txn) attach(child *Txn) error {
	if t.closed {
		return ErrTxnClosed
	}
	if t.child != nil {
		return ErrChildOpen
	}
	t.child = child
	return nil
}

func (t *Txn) detach(child *Txn) {
	if t.child == child {
		t.child = nil
	}
}

func (t *Txn) apply(child *Txn, entries map[string][]byte, hdr *entry.LedgerHeader) error {
	if t.child != child {
		return ErrTxnClosed
	}
	t.child = nil
	for k, v := range entries {
		t.entries[k] = v
	}
	if hdr != nil {
		h := *hdr
		t.hdr = &h
	}
	return nil
}
