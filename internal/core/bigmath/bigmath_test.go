package bigmath

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBigDivide(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c int64
		r       Rounding
		want    int64
		ok      bool
	}{
		{"exact", 10, 10, 4, RoundDown, 25, true},
		{"truncates", 7, 3, 2, RoundDown, 10, true},
		{"rounds up remainder", 7, 3, 2, RoundUp, 11, true},
		{"exact does not round up", 8, 3, 2, RoundUp, 12, true},
		{"zero numerator", 0, 5, 3, RoundUp, 0, true},
		{"wide intermediate", math.MaxInt64, math.MaxInt32, math.MaxInt32, RoundDown, math.MaxInt64, true},
		{"overflows result", math.MaxInt64, 2, 1, RoundDown, 0, false},
		{"round up past max", math.MaxInt64, 1, 1, RoundUp, math.MaxInt64, true},
		{"zero divisor", 1, 1, 0, RoundDown, 0, false},
		{"negative operand", -1, 1, 1, RoundDown, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BigDivide(tt.a, tt.b, tt.c, tt.r)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBigDivideUintRoundUpOverflow(t *testing.T) {
	// (MaxInt64 * 2 + 1) / 2 rounds up to MaxInt64 + 1
	x := BigMultiply(math.MaxInt64, 2)
	x.AddUint64(x, 1)

	_, ok := BigDivideUint(x, 2, RoundUp)
	assert.False(t, ok)

	got, ok := BigDivideUint(x, 2, RoundDown)
	require.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), got)
}

func TestBigMultiply(t *testing.T) {
	got := BigMultiply(math.MaxInt64, math.MaxInt64)
	want := new(uint256.Int).Mul(uint256.NewInt(math.MaxInt64), uint256.NewInt(math.MaxInt64))
	assert.True(t, got.Eq(want))

	assert.True(t, BigMultiply(-5, 3).IsZero())
}

func TestMinAndAdd(t *testing.T) {
	a := uint256.NewInt(3)
	b := uint256.NewInt(9)
	assert.Equal(t, uint64(3), Min(a, b).Uint64())
	assert.Equal(t, uint64(3), Min(b, a).Uint64())
	assert.Equal(t, int64(-2), MinInt64(4, -2, 7))

	_, ok := AddInt64(math.MaxInt64, 1)
	assert.False(t, ok)
	s, ok := AddInt64(math.MaxInt64, -1)
	assert.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64-1), s)
	_, ok = AddInt64(math.MinInt64, -1)
	assert.False(t, ok)
}
