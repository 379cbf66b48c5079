// Package exchange implements offer crossing: the capacity calculators, the
// exchange arithmetic of each protocol generation, price-error bounding, offer
// adjustment and the loop that crosses an incoming order against the book.
//
// Throughout, "wheat" is the asset the incoming order receives and "sheep" the
// asset it sends. A resting offer in the book sells wheat for sheep, and its
// price is sheep per wheat.
package exchange

import (
	"fmt"

	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
)

// Generation selects the exchange arithmetic used when crossing.
type Generation int

const (
	// GenerationV2 rounds the sheep sent down.
	GenerationV2 Generation = 2
	// GenerationV3 rounds the sheep sent up, reducing the wheat received
	// when the sheep cap binds.
	GenerationV3 Generation = 3
	// GenerationV10 uses symmetric caps, offer liabilities and price-error
	// bounding.
	GenerationV10 Generation = 10
)

func (g Generation) String() string {
	switch g {
	case GenerationV2:
		return "v2"
	case GenerationV3:
		return "v3"
	case GenerationV10:
		return "v10"
	default:
		return fmt.Sprintf("Generation(%d)", int(g))
	}
}

// ParseGeneration parses "v2", "v3" or "v10".
func ParseGeneration(s string) (Generation, error) {
	switch s {
	case "v2", "2":
		return GenerationV2, nil
	case "v3", "3":
		return GenerationV3, nil
	case "v10", "10":
		return GenerationV10, nil
	}
	return 0, fmt.Errorf("unknown exchange generation %q", s)
}

// TracksLiabilities reports whether offers of this generation reserve
// liabilities on their owner's balances.
func (g Generation) TracksLiabilities() bool {
	return g >= GenerationV10
}

// ExchangeResultType classifies an ExchangeResult.
type ExchangeResultType int

const (
	ExchangeNormal ExchangeResultType = iota
	ExchangeReducedToZero
	// ExchangeBogus is a degenerate match that must never be applied.
	ExchangeBogus
)

func (t ExchangeResultType) String() string {
	switch t {
	case ExchangeNormal:
		return "normal"
	case ExchangeReducedToZero:
		return "reduced_to_zero"
	case ExchangeBogus:
		return "bogus"
	default:
		return fmt.Sprintf("ExchangeResultType(%d)", int(t))
	}
}

// ExchangeResult is the outcome of the V2 and V3 arithmetic.
type ExchangeResult struct {
	NumWheatReceived int64
	NumSheepSend     int64
	Reduced          bool
}

// Type classifies the result.
func (r ExchangeResult) Type() ExchangeResultType {
	if r.NumWheatReceived != 0 && r.NumSheepSend != 0 {
		return ExchangeNormal
	}
	if r.Reduced {
		return ExchangeReducedToZero
	}
	return ExchangeBogus
}

// ExchangeResultV10 is the outcome of the V10 arithmetic. WheatStays is true
// when the resting offer keeps unsold residue and false when it is consumed.
type ExchangeResultV10 struct {
	NumWheatReceived int64
	NumSheepSend     int64
	WheatStays       bool
}

// ConvertResult is the outcome of a crossing loop.
type ConvertResult int

const (
	// ConvertOK means the order's caps were met or the last crossed offer
	// absorbed the rest of the order.
	ConvertOK ConvertResult = iota
	// ConvertPartial means the book ran out of convertible offers first.
	ConvertPartial
	// ConvertFilterStop means the filter rejected the next offer.
	ConvertFilterStop
	// ConvertCrossedTooMany means the per-order crossing limit was reached.
	ConvertCrossedTooMany
)

func (r ConvertResult) String() string {
	switch r {
	case ConvertOK:
		return "ok"
	case ConvertPartial:
		return "partial"
	case ConvertFilterStop:
		return "filter_stop"
	case ConvertCrossedTooMany:
		return "crossed_too_many"
	default:
		return fmt.Sprintf("ConvertResult(%d)", int(r))
	}
}

// CrossOfferResult is the outcome of crossing one resting offer.
type CrossOfferResult int

const (
	// OfferPartial means the offer kept residue.
	OfferPartial CrossOfferResult = iota
	// OfferTaken means the offer was consumed and erased.
	OfferTaken
	// OfferCantConvert means the offer could not be crossed and was left
	// untouched.
	OfferCantConvert
)

func (r CrossOfferResult) String() string {
	switch r {
	case OfferPartial:
		return "partial"
	case OfferTaken:
		return "taken"
	case OfferCantConvert:
		return "cant_convert"
	default:
		return fmt.Sprintf("CrossOfferResult(%d)", int(r))
	}
}

// OfferFilterResult is a filter's decision on a candidate offer.
type OfferFilterResult int

const (
	FilterKeep OfferFilterResult = iota
	FilterStop
)

// OfferFilter inspects the next candidate offer before it is crossed. It
// receives a copy and must not mutate ledger state.
type OfferFilter func(offer *entry.Offer) OfferFilterResult

// KeepAll is a filter that never stops.
func KeepAll(*entry.Offer) OfferFilterResult {
	return FilterKeep
}

// Conversion is the outcome of ConvertWithOffers. SheepSend and
// WheatReceived are totals over every crossed offer.
type Conversion struct {
	Result        ConvertResult
	SheepSend     int64
	WheatReceived int64
	OffersCrossed int
}
