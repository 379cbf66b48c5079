// Package bigmath provides the widened integer arithmetic used by the offer
// exchange. All intermediate products of two int64 values are carried in an
// unsigned 256-bit domain so that no computation can silently wrap, and every
// narrowing back to int64 reports whether the result fits.
package bigmath

import (
	"math"

	"github.com/holiman/uint256"
)

// Rounding selects the rounding direction of a division.
type Rounding int

const (
	// RoundDown truncates towards zero.
	RoundDown Rounding = iota
	// RoundUp rounds any non-zero remainder away from zero.
	RoundUp
)

func (r Rounding) String() string {
	if r == RoundUp {
		return "up"
	}
	return "down"
}

var maxInt64 = uint256.NewInt(math.MaxInt64)

// BigMultiply returns a*b in the widened domain.
// Callers must only pass non-negative operands; negative values are treated
// as zero, which keeps the function total for the invariant checks upstream.
func BigMultiply(a, b int64) *uint256.Int {
	if a <= 0 || b <= 0 {
		return new(uint256.Int)
	}
	x := uint256.NewInt(uint64(a))
	return x.Mul(x, uint256.NewInt(uint64(b)))
}

// BigDivide computes a*b/c with the requested rounding.
// ok is false if any operand is negative, c is zero, or the result does not
// fit in an int64.
func BigDivide(a, b, c int64, r Rounding) (result int64, ok bool) {
	if a < 0 || b < 0 || c <= 0 {
		return 0, false
	}
	return BigDivideUint(BigMultiply(a, b), c, r)
}

// BigDivideUint computes x/c with the requested rounding.
func BigDivideUint(x *uint256.Int, c int64, r Rounding) (result int64, ok bool) {
	if c <= 0 {
		return 0, false
	}
	d := uint256.NewInt(uint64(c))
	q := new(uint256.Int).Div(x, d)
	if r == RoundUp {
		if rem := new(uint256.Int).Mod(x, d); !rem.IsZero() {
			q.AddUint64(q, 1)
		}
	}
	if q.Gt(maxInt64) {
		return 0, false
	}
	return int64(q.Uint64()), true
}

// Min returns the smaller of a and b. The arguments are not modified.
func Min(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return new(uint256.Int).Set(a)
	}
	return new(uint256.Int).Set(b)
}

// MinInt64 returns the smallest of the given values.
func MinInt64(first int64, rest ...int64) int64 {
	m := first
	for _, v := range rest {
		if v < m {
			m = v
		}
	}
	return m
}

// AddInt64 returns a+b and whether the sum stayed inside the int64 range.
func AddInt64(a, b int64) (int64, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}
