package exchange

import (
	"github.com/LeJamon/goDEXd/internal/core/bigmath"
	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
	"github.com/holiman/uint256"
)

// priceErrorDivisor is the inverse of the tolerated relative price error:
// realized prices within 1% of the offer price pass.
const priceErrorDivisor = 100

// CheckPriceErrorBound reports whether trading wheatReceive for sheepSend
// stays within the tolerated relative error of price. With canFavorWheat an
// error in the wheat seller's favour always passes.
func CheckPriceErrorBound(price entry.Price, wheatReceive, sheepSend int64, canFavorWheat bool) bool {
	lhs := bigmath.BigMultiply(int64(price.N), wheatReceive)
	rhs := bigmath.BigMultiply(int64(price.D), sheepSend)

	if canFavorWheat && rhs.Gt(lhs) {
		return true
	}

	diff := new(uint256.Int)
	if lhs.Gt(rhs) {
		diff.Sub(lhs, rhs)
	} else {
		diff.Sub(rhs, lhs)
	}
	diff.Mul(diff, uint256.NewInt(priceErrorDivisor))
	return !diff.Gt(lhs)
}

// maxPriceErrorNudge bounds how far below the computed wheat amount
// ApplyPriceErrorThresholds searches for a trade within the error bound.
const maxPriceErrorNudge = 64

// ApplyPriceErrorThresholds returns the trade unchanged when its realized
// price is within bounds. Otherwise it nudges the wheat amount down to the
// nearest trade that passes, and degrades to zero/zero when none does. A
// trade rounded in favour of the incoming order is an invariant violation.
func ApplyPriceErrorThresholds(price entry.Price, wheatReceive, sheepSend int64, wheatStays, isPathPayment bool) (ExchangeResultV10, error) {
	if wheatReceive <= 0 || sheepSend <= 0 {
		return ExchangeResultV10{WheatStays: wheatStays}, nil
	}

	wheatValue := bigmath.BigMultiply(wheatReceive, int64(price.N))
	sheepValue := bigmath.BigMultiply(sheepSend, int64(price.D))
	if sheepValue.Lt(wheatValue) {
		return ExchangeResultV10{}, invariantf("price error: %d for %d at %s favours the incoming order",
			wheatReceive, sheepSend, price)
	}

	canFavorWheat := wheatStays && isPathPayment
	if CheckPriceErrorBound(price, wheatReceive, sheepSend, canFavorWheat) {
		return ExchangeResultV10{NumWheatReceived: wheatReceive, NumSheepSend: sheepSend, WheatStays: wheatStays}, nil
	}

	wheat, sheep, err := nudgeWithinPriceError(price, wheatReceive, canFavorWheat)
	if err != nil {
		return ExchangeResultV10{}, err
	}
	return ExchangeResultV10{NumWheatReceived: wheat, NumSheepSend: sheep, WheatStays: wheatStays}, nil
}

// nudgeWithinPriceError finds the largest wheat amount no greater than wheat,
// paired with sheep rounded up, whose realized price passes the error bound.
// The search is bounded; past it the largest exact multiple of the price is
// used. It returns zero/zero when nothing qualifies.
func nudgeWithinPriceError(price entry.Price, wheat int64, canFavorWheat bool) (int64, int64, error) {
	n, d := int64(price.N), int64(price.D)
	for w := wheat; w > 0 && w > wheat-maxPriceErrorNudge; w-- {
		sheep, ok := bigmath.BigDivide(w, n, d, bigmath.RoundUp)
		if !ok {
			return 0, 0, invariantf("price error nudge at %s overflowed", price)
		}
		if sheep > 0 && CheckPriceErrorBound(price, w, sheep, canFavorWheat) {
			return w, sheep, nil
		}
	}

	step := d / gcd(n, d)
	exact := wheat / step * step
	if exact <= 0 {
		return 0, 0, nil
	}
	sheep, ok := bigmath.BigDivide(exact, n, d, bigmath.RoundDown)
	if !ok {
		return 0, 0, invariantf("price error nudge at %s overflowed", price)
	}
	return exact, sheep, nil
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
