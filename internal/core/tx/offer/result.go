package offer

import "fmt"

// Result is the outcome code of an offer operation.
type Result int

const (
	ResultSuccess Result = iota
	// ResultMalformed: invalid assets, price or amount.
	ResultMalformed
	// ResultSellNoTrust: the source holds no line for the selling asset.
	ResultSellNoTrust
	// ResultBuyNoTrust: the source holds no line for the buying asset.
	ResultBuyNoTrust
	// ResultSellNotAuthorized: the selling line is not authorized.
	ResultSellNotAuthorized
	// ResultBuyNotAuthorized: the buying line is not authorized.
	ResultBuyNotAuthorized
	// ResultLineFull: the source cannot receive any more of the buying asset.
	ResultLineFull
	// ResultUnderfunded: the source cannot send any of the selling asset.
	ResultUnderfunded
	// ResultCrossSelf: the offer would cross one of the source's own offers.
	ResultCrossSelf
	// ResultNotFound: the offer to update or delete does not exist.
	ResultNotFound
	// ResultLowReserve: the source cannot afford another sub entry.
	ResultLowReserve
	// ResultCrossedTooMany: the offer crossed too many resting offers.
	ResultCrossedTooMany
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "SUCCESS"
	case ResultMalformed:
		return "MALFORMED"
	case ResultSellNoTrust:
		return "SELL_NO_TRUST"
	case ResultBuyNoTrust:
		return "BUY_NO_TRUST"
	case ResultSellNotAuthorized:
		return "SELL_NOT_AUTHORIZED"
	case ResultBuyNotAuthorized:
		return "BUY_NOT_AUTHORIZED"
	case ResultLineFull:
		return "LINE_FULL"
	case ResultUnderfunded:
		return "UNDERFUNDED"
	case ResultCrossSelf:
		return "CROSS_SELF"
	case ResultNotFound:
		return "NOT_FOUND"
	case ResultLowReserve:
		return "LOW_RESERVE"
	case ResultCrossedTooMany:
		return "CROSSED_TOO_MANY"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// IsSuccess reports whether the operation applied.
func (r Result) IsSuccess() bool {
	return r == ResultSuccess
}

// Effect describes what happened to the source's own offer.
type Effect int

const (
	// EffectNone: nothing rests, and nothing rested before.
	EffectNone Effect = iota
	EffectCreated
	EffectUpdated
	EffectDeleted
)

func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectCreated:
		return "created"
	case EffectUpdated:
		return "updated"
	case EffectDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("Effect(%d)", int(e))
	}
}
