// Package keylet derives the storage keys of ledger entries.
package keylet

import (
	"crypto/sha512"
	"encoding/binary"

	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
)

// Space identifiers for keylet generation
const (
	spaceAccount   byte = 'a' // Account root
	spaceHeader    byte = 'h' // Ledger header (singleton)
	spaceOffer     byte = 'o' // Offer
	spaceTrustLine byte = 'r' // Trust line
	spaceBook      byte = 'B' // Order book index
)

// Keylet represents an addressable location in the ledger state.
// It combines a type identifier with a storage key.
type Keylet struct {
	Type entry.Type
	Key  []byte
}

// String returns the key as a map key for in-memory layers.
func (k Keylet) String() string {
	return string(k.Key)
}

// indexHash computes a 32-byte key by hashing the space and provided data,
// prefixed by the space so entries of one type share a key range.
func indexHash(space byte, data ...[]byte) []byte {
	h := sha512.New()
	h.Write([]byte{space})
	for _, d := range data {
		h.Write(d)
	}
	sum := h.Sum(nil)
	key := make([]byte, 0, 33)
	key = append(key, space)
	return append(key, sum[:32]...)
}

func lengthPrefixed(s string) []byte {
	b := make([]byte, 0, len(s)+2)
	b = binary.BigEndian.AppendUint16(b, uint16(len(s)))
	return append(b, s...)
}

// Header returns the keylet for the singleton ledger header.
func Header() Keylet {
	return Keylet{Type: entry.TypeHeader, Key: []byte{spaceHeader}}
}

// Account returns the keylet for an account root entry.
func Account(id entry.AccountID) Keylet {
	return Keylet{
		Type: entry.TypeAccount,
		Key:  indexHash(spaceAccount, lengthPrefixed(string(id))),
	}
}

// TrustLine returns the keylet for the trust line of id in asset.
func TrustLine(id entry.AccountID, asset entry.Asset) Keylet {
	return Keylet{
		Type: entry.TypeTrustLine,
		Key:  indexHash(spaceTrustLine, lengthPrefixed(string(id)), asset.Bytes()),
	}
}

// Offer returns the keylet for an offer entry.
func Offer(offerID int64) Keylet {
	idBytes := binary.BigEndian.AppendUint64(nil, uint64(offerID))
	return Keylet{
		Type: entry.TypeOffer,
		Key:  indexHash(spaceOffer, idBytes),
	}
}

// BookPrefix returns the key prefix under which all index records of a book
// are stored. Iterating the prefix yields the book's offers by ascending ID.
func BookPrefix(book entry.Book) []byte {
	return indexHash(spaceBook, book.Selling.Bytes(), book.Buying.Bytes())
}

// BookEntry returns the keylet of the index record that places offerID in
// book.
func BookEntry(book entry.Book, offerID int64) Keylet {
	key := BookPrefix(book)
	key = binary.BigEndian.AppendUint64(key, uint64(offerID))
	return Keylet{Type: entry.TypeBookIndex, Key: key}
}

// OfferIDFromBookKey extracts the offer ID from a key built by BookEntry.
func OfferIDFromBookKey(key []byte) (int64, bool) {
	if len(key) != 33+8 || key[0] != spaceBook {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(key[33:])), true
}

// PrefixEnd returns the smallest key greater than every key with the given
// prefix, or nil if no such key exists.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
