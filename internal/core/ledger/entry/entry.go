// Package entry defines the ledger entries read and written by the offer
// exchange: accounts, trust lines, offers and the ledger header, together with
// the assets and exact prices they reference.
package entry

import (
	"fmt"
)

// Type represents a ledger entry type
type Type uint16

// All known ledger entry types
const (
	TypeAccount   Type = 0x0061 // Account objects
	TypeHeader    Type = 0x0068 // Ledger header (singleton)
	TypeOffer     Type = 0x006f // Resting offers
	TypeTrustLine Type = 0x0072 // Trust lines
	TypeBookIndex Type = 0x0042 // Order book index records
)

// String returns the string representation of the Type
func (t Type) String() string {
	switch t {
	case TypeAccount:
		return "Account"
	case TypeHeader:
		return "LedgerHeader"
	case TypeOffer:
		return "Offer"
	case TypeTrustLine:
		return "TrustLine"
	case TypeBookIndex:
		return "BookIndex"
	default:
		return fmt.Sprintf("Unknown(0x%04x)", uint16(t))
	}
}

// AccountID identifies an account in the ledger.
type AccountID string

// Liabilities are the amounts an account has committed to buy and sell
// through its resting offers.
type Liabilities struct {
	Buying  int64 `json:"buying" codec:"buying"`
	Selling int64 `json:"selling" codec:"selling"`
}

// Account is an account root entry. Balance holds the native asset.
type Account struct {
	ID            AccountID   `json:"account_id" codec:"id"`
	Balance       int64       `json:"balance" codec:"balance"`
	NumSubEntries uint32      `json:"num_sub_entries" codec:"sub_entries"`
	Flags         uint32      `json:"flags,omitempty" codec:"flags"`
	Liabilities   Liabilities `json:"liabilities" codec:"liabilities"`
}

func (a *Account) Type() Type {
	return TypeAccount
}

// Validate checks the account entry for obviously invalid state.
func (a *Account) Validate() error {
	if a.ID == "" {
		return ErrMissingAccountID
	}
	if a.Balance < 0 {
		return fmt.Errorf("account %s: %w", a.ID, ErrNegativeBalance)
	}
	if a.Liabilities.Buying < 0 || a.Liabilities.Selling < 0 {
		return fmt.Errorf("account %s: %w", a.ID, ErrNegativeLiabilities)
	}
	return nil
}

// Clone returns a copy of the account.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// TrustLine holds an account's balance of a credit asset.
type TrustLine struct {
	AccountID   AccountID   `json:"account_id" codec:"account"`
	Asset       Asset       `json:"asset" codec:"asset"`
	Balance     int64       `json:"balance" codec:"balance"`
	Limit       int64       `json:"limit" codec:"limit"`
	Flags       uint32      `json:"flags" codec:"flags"`
	Liabilities Liabilities `json:"liabilities" codec:"liabilities"`
}

func (t *TrustLine) Type() Type {
	return TypeTrustLine
}

// IsAuthorized reports whether the issuer has fully authorized the line.
func (t *TrustLine) IsAuthorized() bool {
	return t.Flags&TrustLineAuthorized != 0
}

// IsAuthorizedToMaintainLiabilities reports whether the line may keep its
// existing offers, which is implied by full authorization.
func (t *TrustLine) IsAuthorizedToMaintainLiabilities() bool {
	return t.Flags&(TrustLineAuthorized|TrustLineAuthorizedToMaintainLiabilities) != 0
}

// Validate checks the trust line entry for obviously invalid state.
func (t *TrustLine) Validate() error {
	if t.AccountID == "" {
		return ErrMissingAccountID
	}
	if t.Asset.IsNative() {
		return ErrNativeTrustLine
	}
	if t.Balance < 0 || t.Limit <= 0 || t.Balance > t.Limit {
		return fmt.Errorf("trust line %s/%s: %w", t.AccountID, t.Asset, ErrBalanceOutOfRange)
	}
	if t.Liabilities.Buying < 0 || t.Liabilities.Selling < 0 {
		return fmt.Errorf("trust line %s/%s: %w", t.AccountID, t.Asset, ErrNegativeLiabilities)
	}
	return nil
}

// Clone returns a copy of the trust line.
func (t *TrustLine) Clone() *TrustLine {
	c := *t
	return &c
}

// LedgerHeader carries the protocol parameters the exchange depends on.
type LedgerHeader struct {
	LedgerSeq     uint32 `json:"ledger_seq" codec:"seq"`
	LedgerVersion uint32 `json:"ledger_version" codec:"version"`
	BaseReserve   int64  `json:"base_reserve" codec:"base_reserve"`
	// IDPool is the last offer ID handed out.
	IDPool int64 `json:"id_pool" codec:"id_pool"`
}

// MinBalance is the native balance an account with numSubEntries sub entries
// must retain.
func (h LedgerHeader) MinBalance(numSubEntries uint32) int64 {
	return (2 + int64(numSubEntries)) * h.BaseReserve
}

// ClaimOfferAtom records one executed cross against a resting offer, from the
// point of view of the offer's owner.
type ClaimOfferAtom struct {
	SellerID     AccountID `json:"seller_id" codec:"seller"`
	OfferID      int64     `json:"offer_id" codec:"offer"`
	AssetSold    Asset     `json:"asset_sold" codec:"sold"`
	AmountSold   int64     `json:"amount_sold" codec:"amount_sold"`
	AssetBought  Asset     `json:"asset_bought" codec:"bought"`
	AmountBought int64     `json:"amount_bought" codec:"amount_bought"`
}
