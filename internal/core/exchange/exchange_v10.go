package exchange

import (
	"github.com/LeJamon/goDEXd/internal/core/bigmath"
	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
)

// ExchangeV10 crosses a resting offer able to send maxWheatSend wheat and
// receive maxSheepReceive sheep with an order able to receive maxWheatReceive
// wheat and send maxSheepSend sheep, then bounds the realized price error.
func ExchangeV10(price entry.Price, maxWheatSend, maxWheatReceive, maxSheepSend, maxSheepReceive int64, isPathPayment bool) (ExchangeResultV10, error) {
	res, err := ExchangeV10WithoutPriceErrorThresholds(price, maxWheatSend, maxWheatReceive, maxSheepSend, maxSheepReceive, isPathPayment)
	if err != nil {
		return ExchangeResultV10{}, err
	}
	return ApplyPriceErrorThresholds(price, res.NumWheatReceived, res.NumSheepSend, res.WheatStays, isPathPayment)
}

// ExchangeV10WithoutPriceErrorThresholds is the V10 arithmetic alone.
//
// Both sides are valued in units of price.N*price.D. The side of smaller value
// is consumed and the other stays; its amount is derived from the value and
// the counter amount from it. Rounding never favours the incoming order: when
// the offer is consumed its seller receives price times wheat, rounded up.
func ExchangeV10WithoutPriceErrorThresholds(price entry.Price, maxWheatSend, maxWheatReceive, maxSheepSend, maxSheepReceive int64, isPathPayment bool) (ExchangeResultV10, error) {
	if err := price.Validate(); err != nil {
		return ExchangeResultV10{}, invariantf("v10 exchange: %v", err)
	}
	if maxWheatSend < 0 || maxWheatReceive < 0 || maxSheepSend < 0 || maxSheepReceive < 0 {
		return ExchangeResultV10{}, invariantf("v10 exchange: negative cap (%d, %d, %d, %d)",
			maxWheatSend, maxWheatReceive, maxSheepSend, maxSheepReceive)
	}
	n, d := int64(price.N), int64(price.D)

	wheatValue := bigmath.Min(bigmath.BigMultiply(maxWheatSend, n), bigmath.BigMultiply(maxSheepReceive, d))
	sheepValue := bigmath.Min(bigmath.BigMultiply(maxSheepSend, d), bigmath.BigMultiply(maxWheatReceive, n))
	wheatStays := wheatValue.Gt(sheepValue)

	var wheat, sheep int64
	var okW, okS bool
	switch {
	case wheatStays && (isPathPayment || n > d):
		wheat, okW = bigmath.BigDivideUint(sheepValue, n, bigmath.RoundDown)
		sheep, okS = bigmath.BigDivide(wheat, n, d, bigmath.RoundUp)
	case wheatStays:
		sheep, okS = bigmath.BigDivideUint(sheepValue, d, bigmath.RoundDown)
		wheat, okW = bigmath.BigDivide(sheep, d, n, bigmath.RoundDown)
	default:
		// wheat*n <= wheatValue <= sheepValue, so rounding sheep up stays
		// within both sheep caps.
		wheat, okW = bigmath.BigDivideUint(wheatValue, n, bigmath.RoundDown)
		sheep, okS = bigmath.BigDivide(wheat, n, d, bigmath.RoundUp)
	}
	if !okW || !okS {
		return ExchangeResultV10{}, invariantf("v10 exchange at %s overflowed", price)
	}

	if wheat < 0 || wheat > min(maxWheatReceive, maxWheatSend) {
		return ExchangeResultV10{}, invariantf("v10 exchange: wheat %d outside caps (receive %d, send %d)",
			wheat, maxWheatReceive, maxWheatSend)
	}
	if sheep < 0 || sheep > min(maxSheepReceive, maxSheepSend) {
		return ExchangeResultV10{}, invariantf("v10 exchange: sheep %d outside caps (receive %d, send %d)",
			sheep, maxSheepReceive, maxSheepSend)
	}
	return ExchangeResultV10{NumWheatReceived: wheat, NumSheepSend: sheep, WheatStays: wheatStays}, nil
}
