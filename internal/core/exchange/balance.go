package exchange

import (
	"math"

	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
)

// addClamped returns cur+delta if the sum lies in [lo, hi].
func addClamped(cur, delta, lo, hi int64) (int64, bool) {
	if delta > 0 && cur > math.MaxInt64-delta {
		return 0, false
	}
	if delta < 0 && cur < math.MinInt64-delta {
		return 0, false
	}
	next := cur + delta
	if next < lo || next > hi {
		return 0, false
	}
	return next, true
}

// AddBalance moves acc's holding of asset by delta, keeping it above the
// reserve and selling liabilities and below the limit net of buying
// liabilities. Issuers are unaffected. It reports false, changing nothing, if
// the move is not allowed.
func AddBalance(header entry.LedgerHeader, acc *entry.Account, asset entry.Asset, line *entry.TrustLine, delta int64) bool {
	if delta == 0 {
		return true
	}
	if asset.IsNative() {
		lo := int64(0)
		if delta < 0 {
			lo = header.MinBalance(acc.NumSubEntries) + acc.Liabilities.Selling
		}
		next, ok := addClamped(acc.Balance, delta, lo, math.MaxInt64-acc.Liabilities.Buying)
		if !ok {
			return false
		}
		acc.Balance = next
		return true
	}
	if isIssuer(acc, asset) {
		return true
	}
	if line == nil || !line.IsAuthorizedToMaintainLiabilities() {
		return false
	}
	next, ok := addClamped(line.Balance, delta, line.Liabilities.Selling, line.Limit-line.Liabilities.Buying)
	if !ok {
		return false
	}
	line.Balance = next
	return true
}

// liabilityCap is the upper bound for a liability moved by delta. Releasing
// is only bounded below by zero.
func liabilityCap(delta, hi int64) int64 {
	if delta < 0 {
		return math.MaxInt64
	}
	return hi
}

// AddBuyingLiabilities moves the liabilities acc holds for receiving asset.
func AddBuyingLiabilities(acc *entry.Account, asset entry.Asset, line *entry.TrustLine, delta int64) bool {
	if delta == 0 || isIssuer(acc, asset) {
		return true
	}
	if asset.IsNative() {
		next, ok := addClamped(acc.Liabilities.Buying, delta, 0, liabilityCap(delta, math.MaxInt64-acc.Balance))
		if !ok {
			return false
		}
		acc.Liabilities.Buying = next
		return true
	}
	if line == nil || (delta > 0 && !line.IsAuthorizedToMaintainLiabilities()) {
		return false
	}
	next, ok := addClamped(line.Liabilities.Buying, delta, 0, liabilityCap(delta, line.Limit-line.Balance))
	if !ok {
		return false
	}
	line.Liabilities.Buying = next
	return true
}

// AddSellingLiabilities moves the liabilities acc holds for delivering asset.
func AddSellingLiabilities(header entry.LedgerHeader, acc *entry.Account, asset entry.Asset, line *entry.TrustLine, delta int64) bool {
	if delta == 0 || isIssuer(acc, asset) {
		return true
	}
	if asset.IsNative() {
		headroom := acc.Balance - header.MinBalance(acc.NumSubEntries)
		next, ok := addClamped(acc.Liabilities.Selling, delta, 0, liabilityCap(delta, headroom))
		if !ok {
			return false
		}
		acc.Liabilities.Selling = next
		return true
	}
	if line == nil || (delta > 0 && !line.IsAuthorizedToMaintainLiabilities()) {
		return false
	}
	next, ok := addClamped(line.Liabilities.Selling, delta, 0, liabilityCap(delta, line.Balance))
	if !ok {
		return false
	}
	line.Liabilities.Selling = next
	return true
}
