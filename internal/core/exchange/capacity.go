package exchange

import (
	"math"

	"github.com/LeJamon/goDEXd/internal/core/bigmath"
	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
)

// isIssuer reports whether acc issues asset. Issuers hold no trust line for
// their own asset and have unbounded supply of it.
func isIssuer(acc *entry.Account, asset entry.Asset) bool {
	return !asset.IsNative() && acc != nil && asset.Issuer == acc.ID
}

// CanSellAtMost returns how much of asset acc can deliver: its balance above
// the reserve and the selling liabilities already committed. line is acc's
// trust line in asset, or nil.
func CanSellAtMost(header entry.LedgerHeader, acc *entry.Account, asset entry.Asset, line *entry.TrustLine) int64 {
	if asset.IsNative() {
		if acc == nil {
			return 0
		}
		avail := acc.Balance - header.MinBalance(acc.NumSubEntries) - acc.Liabilities.Selling
		return max(avail, 0)
	}
	if isIssuer(acc, asset) {
		return math.MaxInt64
	}
	if line == nil || !line.IsAuthorizedToMaintainLiabilities() {
		return 0
	}
	return max(line.Balance-line.Liabilities.Selling, 0)
}

// CanBuyAtMost returns how much of asset acc can still receive before its
// balance or trust limit would overflow, net of buying liabilities.
func CanBuyAtMost(header entry.LedgerHeader, acc *entry.Account, asset entry.Asset, line *entry.TrustLine) int64 {
	if asset.IsNative() {
		if acc == nil {
			return 0
		}
		return max(math.MaxInt64-acc.Balance-acc.Liabilities.Buying, 0)
	}
	if isIssuer(acc, asset) {
		return math.MaxInt64
	}
	if line == nil || !line.IsAuthorizedToMaintainLiabilities() {
		return 0
	}
	return max(line.Limit-line.Balance-line.Liabilities.Buying, 0)
}

// CanSellAtMostBasedOnSheep converts how much sheep acc can receive into the
// most wheat it may sell at wheatPrice, rounding down. The result saturates at
// math.MaxInt64.
func CanSellAtMostBasedOnSheep(acc *entry.Account, sheep entry.Asset, sheepLine *entry.TrustLine, wheatPrice entry.Price) int64 {
	if sheep.IsNative() || isIssuer(acc, sheep) {
		return math.MaxInt64
	}
	if sheepLine == nil || !sheepLine.IsAuthorizedToMaintainLiabilities() {
		return 0
	}
	maxSheep := max(sheepLine.Limit-sheepLine.Balance, 0)
	wheat, ok := bigmath.BigDivide(maxSheep, int64(wheatPrice.D), int64(wheatPrice.N), bigmath.RoundDown)
	if !ok {
		return math.MaxInt64
	}
	return wheat
}
