package exchange

import (
	"math/rand"
	"testing"

	"github.com/LeJamon/goDEXd/internal/core/bigmath"
	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeV2V3(t *testing.T) {
	tests := []struct {
		name            string
		wheat           int64
		price           entry.Price
		maxWheatReceive int64
		maxSheepSend    int64
		v2, v3          ExchangeResult
		v3Type          ExchangeResultType
	}{
		{
			name: "fractional sheep rounds up in v3", wheat: 25, price: entry.Price{N: 1, D: 20},
			maxWheatReceive: 25, maxSheepSend: 2,
			v2:     ExchangeResult{NumWheatReceived: 20, NumSheepSend: 1},
			v3:     ExchangeResult{NumWheatReceived: 25, NumSheepSend: 2},
			v3Type: ExchangeNormal,
		},
		{
			name: "sheep cap reduces wheat", wheat: 10, price: entry.Price{N: 3, D: 2},
			maxWheatReceive: maxInt, maxSheepSend: 7,
			v2:     ExchangeResult{NumWheatReceived: 4, NumSheepSend: 7, Reduced: true},
			v3:     ExchangeResult{NumWheatReceived: 4, NumSheepSend: 7, Reduced: true},
			v3Type: ExchangeNormal,
		},
		{
			name: "wheat cap", wheat: 10, price: entry.Price{N: 1, D: 1},
			maxWheatReceive: 6, maxSheepSend: maxInt,
			v2:     ExchangeResult{NumWheatReceived: 6, NumSheepSend: 6, Reduced: true},
			v3:     ExchangeResult{NumWheatReceived: 6, NumSheepSend: 6, Reduced: true},
			v3Type: ExchangeNormal,
		},
		{
			name: "reduced to zero", wheat: 10, price: entry.Price{N: 3, D: 1},
			maxWheatReceive: maxInt, maxSheepSend: 2,
			v2:     ExchangeResult{NumWheatReceived: 0, NumSheepSend: 2, Reduced: true},
			v3:     ExchangeResult{NumWheatReceived: 0, NumSheepSend: 2, Reduced: true},
			v3Type: ExchangeReducedToZero,
		},
		{
			name: "nothing offered is bogus", wheat: 0, price: entry.Price{N: 1, D: 1},
			maxWheatReceive: maxInt, maxSheepSend: maxInt,
			v2:     ExchangeResult{},
			v3:     ExchangeResult{},
			v3Type: ExchangeBogus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v2, err := ExchangeV2(tt.wheat, tt.price, tt.maxWheatReceive, tt.maxSheepSend)
			require.NoError(t, err)
			assert.Equal(t, tt.v2, v2)

			v3, err := ExchangeV3(tt.wheat, tt.price, tt.maxWheatReceive, tt.maxSheepSend)
			require.NoError(t, err)
			assert.Equal(t, tt.v3, v3)
			assert.Equal(t, tt.v3Type, v3.Type())
		})
	}
}

func TestExchangeV3Overflow(t *testing.T) {
	res, err := ExchangeV3(maxInt, entry.Price{N: 3, D: 1}, maxInt, maxInt)
	require.NoError(t, err)
	assert.True(t, res.Reduced)
	assert.Equal(t, int64(maxInt), res.NumSheepSend)
	assert.Equal(t, int64(maxInt/3), res.NumWheatReceived)
}

func TestExchangeV10(t *testing.T) {
	tests := []struct {
		name                                                      string
		price                                                     entry.Price
		maxWheatSend, maxWheatReceive, maxSheepSend, maxSheepRecv int64
		path                                                      bool
		want                                                      ExchangeResultV10
	}{
		{
			name: "offer consumed at small price", price: entry.Price{N: 1, D: 20},
			maxWheatSend: 25, maxWheatReceive: 25, maxSheepSend: 2, maxSheepRecv: maxInt,
			want: ExchangeResultV10{NumWheatReceived: 20, NumSheepSend: 1},
		},
		{
			name: "offer stays at large price", price: entry.Price{N: 25, D: 1},
			maxWheatSend: 16, maxWheatReceive: maxInt, maxSheepSend: 100, maxSheepRecv: maxInt,
			want: ExchangeResultV10{NumWheatReceived: 4, NumSheepSend: 100, WheatStays: true},
		},
		{
			name: "even price offer consumed", price: entry.Price{N: 1, D: 1},
			maxWheatSend: 10, maxWheatReceive: 100, maxSheepSend: 100, maxSheepRecv: 100,
			want: ExchangeResultV10{NumWheatReceived: 10, NumSheepSend: 10},
		},
		{
			name: "sheep rounded up when wheat stays", price: entry.Price{N: 3, D: 2},
			maxWheatSend: 10, maxWheatReceive: maxInt, maxSheepSend: 7, maxSheepRecv: maxInt,
			want: ExchangeResultV10{NumWheatReceived: 4, NumSheepSend: 6, WheatStays: true},
		},
		{
			name: "sheep rounded up when offer consumed", price: entry.Price{N: 3, D: 2},
			maxWheatSend: 101, maxWheatReceive: maxInt, maxSheepSend: maxInt, maxSheepRecv: maxInt,
			want: ExchangeResultV10{NumWheatReceived: 101, NumSheepSend: 152},
		},
		{
			name: "price error nudges wheat down", price: entry.Price{N: 2, D: 3},
			maxWheatSend: 10, maxWheatReceive: maxInt, maxSheepSend: 5, maxSheepRecv: maxInt,
			want: ExchangeResultV10{NumWheatReceived: 6, NumSheepSend: 4, WheatStays: true},
		},
		{
			name: "path payment may favour wheat", price: entry.Price{N: 2, D: 3},
			maxWheatSend: 10, maxWheatReceive: maxInt, maxSheepSend: 5, maxSheepRecv: maxInt, path: true,
			want: ExchangeResultV10{NumWheatReceived: 7, NumSheepSend: 5, WheatStays: true},
		},
		{
			name: "tiny offer degrades to zero", price: entry.Price{N: 3, D: 2},
			maxWheatSend: 1, maxWheatReceive: maxInt, maxSheepSend: maxInt, maxSheepRecv: maxInt,
			want: ExchangeResultV10{},
		},
		{
			name: "seller cannot receive", price: entry.Price{N: 1, D: 1},
			maxWheatSend: 10, maxWheatReceive: maxInt, maxSheepSend: maxInt, maxSheepRecv: 0,
			want: ExchangeResultV10{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExchangeV10(tt.price, tt.maxWheatSend, tt.maxWheatReceive, tt.maxSheepSend, tt.maxSheepRecv, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExchangeV10RejectsBadInput(t *testing.T) {
	_, err := ExchangeV10(entry.Price{N: 0, D: 1}, 1, 1, 1, 1, false)
	require.Error(t, err)
	assert.True(t, IsInvariantViolation(err))

	_, err = ExchangeV10(entry.Price{N: 1, D: 1}, -1, 1, 1, 1, false)
	require.Error(t, err)
	assert.True(t, IsInvariantViolation(err))
}

func randomPrice(r *rand.Rand) entry.Price {
	switch r.Intn(3) {
	case 0:
		return entry.Price{N: int32(r.Intn(100) + 1), D: int32(r.Intn(100) + 1)}
	case 1:
		return entry.Price{N: int32(r.Int31n(1<<31-1) + 1), D: int32(r.Intn(1000) + 1)}
	default:
		return entry.Price{N: int32(r.Intn(1000) + 1), D: int32(r.Int31n(1<<31-1) + 1)}
	}
}

func randomAmount(r *rand.Rand) int64 {
	switch r.Intn(4) {
	case 0:
		return r.Int63n(100)
	case 1:
		return r.Int63n(1_000_000)
	case 2:
		return r.Int63()
	default:
		return maxInt
	}
}

// Every V10 result stays inside its caps and its price bound, and the seller
// is never paid below the offer price.
func TestExchangeV10Properties(t *testing.T) {
	r := rand.New(rand.NewSource(10))

	for i := 0; i < 20000; i++ {
		price := randomPrice(r)
		ws, wr, ss, sr := randomAmount(r), randomAmount(r), randomAmount(r), randomAmount(r)
		path := r.Intn(2) == 0

		res, err := ExchangeV10(price, ws, wr, ss, sr, path)
		require.NoError(t, err, "price %s caps %d %d %d %d", price, ws, wr, ss, sr)

		assert.GreaterOrEqual(t, res.NumWheatReceived, int64(0))
		assert.LessOrEqual(t, res.NumWheatReceived, min(ws, wr))
		assert.LessOrEqual(t, res.NumSheepSend, min(ss, sr))
		assert.Equal(t, res.NumWheatReceived == 0, res.NumSheepSend == 0)

		if res.NumWheatReceived == 0 {
			continue
		}
		assert.True(t, CheckPriceErrorBound(price, res.NumWheatReceived, res.NumSheepSend, res.WheatStays && path))

		wheatValue := bigmath.BigMultiply(res.NumWheatReceived, int64(price.N))
		sheepValue := bigmath.BigMultiply(res.NumSheepSend, int64(price.D))
		assert.False(t, sheepValue.Lt(wheatValue), "seller paid below price %s: %d for %d", price, res.NumWheatReceived, res.NumSheepSend)
	}
}

// V3 always charges at least the exact price of the wheat delivered.
func TestExchangeV3Fairness(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 20000; i++ {
		price := randomPrice(r)
		res, err := ExchangeV3(randomAmount(r), price, randomAmount(r), randomAmount(r))
		require.NoError(t, err)
		if res.Type() != ExchangeNormal {
			continue
		}
		wheatValue := bigmath.BigMultiply(res.NumWheatReceived, int64(price.N))
		sheepValue := bigmath.BigMultiply(res.NumSheepSend, int64(price.D))
		assert.False(t, sheepValue.Lt(wheatValue))
	}
}
