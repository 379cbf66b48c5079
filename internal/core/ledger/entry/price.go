package entry

import "fmt"

// Price is an exact rational N/D. An offer's price is expressed in units of
// the asset it buys per unit of the asset it sells.
type Price struct {
	N int32 `json:"n" codec:"n"`
	D int32 `json:"d" codec:"d"`
}

// Validate requires a strictly positive numerator and denominator.
func (p Price) Validate() error {
	if p.N <= 0 || p.D <= 0 {
		return fmt.Errorf("%w: %d/%d", ErrInvalidPrice, p.N, p.D)
	}
	return nil
}

// Compare returns -1, 0 or +1 as p is less than, equal to or greater than q.
// Both prices must be valid; the cross products always fit in an int64.
func (p Price) Compare(q Price) int {
	l := int64(p.N) * int64(q.D)
	r := int64(q.N) * int64(p.D)
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

// Less reports whether p < q.
func (p Price) Less(q Price) bool {
	return p.Compare(q) < 0
}

// Inverse returns D/N.
func (p Price) Inverse() Price {
	return Price{N: p.D, D: p.N}
}

func (p Price) String() string {
	return fmt.Sprintf("%d/%d", p.N, p.D)
}
