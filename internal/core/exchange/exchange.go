package exchange

import (
	"math"

	"github.com/LeJamon/goDEXd/internal/core/bigmath"
	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
)

// ExchangeV2 computes how much of wheatReceived the incoming order gets at
// price, paying floor(wheat*price) sheep, within maxWheatReceive and
// maxSheepSend. The wheat is then re-derived from the sheep, which can leave
// the seller short by a rounding unit.
func ExchangeV2(wheatReceived int64, price entry.Price, maxWheatReceive, maxSheepSend int64) (ExchangeResult, error) {
	var res ExchangeResult
	res.Reduced = wheatReceived > maxWheatReceive
	res.NumWheatReceived = min(wheatReceived, maxWheatReceive)

	sheep, ok := bigmath.BigDivide(res.NumWheatReceived, int64(price.N), int64(price.D), bigmath.RoundDown)
	if !ok {
		sheep = math.MaxInt64
	}
	res.Reduced = res.Reduced || sheep > maxSheepSend
	res.NumSheepSend = min(sheep, maxSheepSend)

	wheat, ok := bigmath.BigDivide(res.NumSheepSend, int64(price.D), int64(price.N), bigmath.RoundDown)
	if !ok {
		return ExchangeResult{}, invariantf("v2 exchange: wheat for %d sheep at %s overflows", res.NumSheepSend, price)
	}
	res.NumWheatReceived = wheat
	return res, nil
}

// ExchangeV3 is ExchangeV2 with the sheep rounded up, so the seller always
// receives at least price*wheat. When that would exceed maxSheepSend the
// wheat is reduced instead and Reduced is set.
func ExchangeV3(wheatReceived int64, price entry.Price, maxWheatReceive, maxSheepSend int64) (ExchangeResult, error) {
	var res ExchangeResult
	res.Reduced = wheatReceived > maxWheatReceive
	res.NumWheatReceived = min(wheatReceived, maxWheatReceive)

	sheep, ok := bigmath.BigDivide(res.NumWheatReceived, int64(price.N), int64(price.D), bigmath.RoundUp)
	if !ok {
		res.Reduced = true
		sheep = math.MaxInt64
	}
	res.Reduced = res.Reduced || sheep > maxSheepSend
	res.NumSheepSend = min(sheep, maxSheepSend)

	// an overflowing re-derivation exceeds any int64 wheat and reduces nothing
	wheat, ok := bigmath.BigDivide(res.NumSheepSend, int64(price.D), int64(price.N), bigmath.RoundDown)
	if ok && wheat < res.NumWheatReceived {
		res.NumWheatReceived = wheat
		res.Reduced = true
	}
	return res, nil
}
