package entry

import "fmt"

// Offer is a resting sell order: SellerID sells up to Amount of Selling in
// exchange for Buying at exactly Price (Buying per Selling).
type Offer struct {
	SellerID AccountID `json:"seller_id" codec:"seller"`
	OfferID  int64     `json:"offer_id" codec:"id"`
	Selling  Asset     `json:"selling" codec:"selling"`
	Buying   Asset     `json:"buying" codec:"buying"`
	Amount   int64     `json:"amount" codec:"amount"`
	Price    Price     `json:"price" codec:"price"`
	Flags    uint32    `json:"flags,omitempty" codec:"flags"`
}

func (o *Offer) Type() Type {
	return TypeOffer
}

// IsPassive reports whether the offer was placed passively.
func (o *Offer) IsPassive() bool {
	return o.Flags&OfferPassive != 0
}

// Book returns the order book the offer rests in.
func (o *Offer) Book() Book {
	return Book{Selling: o.Selling, Buying: o.Buying}
}

// Validate checks the offer's assets, price and amount.
func (o *Offer) Validate() error {
	if o.SellerID == "" {
		return ErrMissingAccountID
	}
	if err := o.Selling.Validate(); err != nil {
		return fmt.Errorf("offer %d selling: %w", o.OfferID, err)
	}
	if err := o.Buying.Validate(); err != nil {
		return fmt.Errorf("offer %d buying: %w", o.OfferID, err)
	}
	if o.Selling.Equal(o.Buying) {
		return fmt.Errorf("offer %d: %w", o.OfferID, ErrSameAsset)
	}
	if err := o.Price.Validate(); err != nil {
		return fmt.Errorf("offer %d: %w", o.OfferID, err)
	}
	if o.Amount <= 0 {
		return fmt.Errorf("offer %d: %w", o.OfferID, ErrInvalidOfferAmount)
	}
	return nil
}

// Clone returns a copy of the offer.
func (o *Offer) Clone() *Offer {
	c := *o
	return &c
}

// Book identifies one side of a trading pair: the offers selling Selling for
// Buying.
type Book struct {
	Selling Asset `json:"selling"`
	Buying  Asset `json:"buying"`
}

func (b Book) String() string {
	return b.Selling.String() + "->" + b.Buying.String()
}

// OfferCursor is a position in a book's (price, offer ID) order.
type OfferCursor struct {
	Price   Price
	OfferID int64
}

// CursorOf returns the cursor positioned at o.
func CursorOf(o *Offer) OfferCursor {
	return OfferCursor{Price: o.Price, OfferID: o.OfferID}
}

// Before reports whether o sorts strictly before the cursor position, i.e. it
// is cheaper, or equally priced with a smaller ID.
func (c OfferCursor) Before(o *Offer) bool {
	switch o.Price.Compare(c.Price) {
	case -1:
		return true
	case 1:
		return false
	default:
		return o.OfferID < c.OfferID
	}
}

// BetterOffer reports whether a sorts before b in book order.
func BetterOffer(a, b *Offer) bool {
	switch a.Price.Compare(b.Price) {
	case -1:
		return true
	case 1:
		return false
	default:
		return a.OfferID < b.OfferID
	}
}
