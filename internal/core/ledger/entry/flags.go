package entry

import (
	"errors"
)

// Flags for different entry types
const (
	// TrustLine flags
	TrustLineAuthorized                      uint32 = 0x00000001
	TrustLineAuthorizedToMaintainLiabilities uint32 = 0x00000002

	// Offer flags
	OfferPassive uint32 = 0x00000001
)

var (
	ErrMissingAccountID    = errors.New("account ID is required")
	ErrNegativeBalance     = errors.New("balance cannot be negative")
	ErrNegativeLiabilities = errors.New("liabilities cannot be negative")
	ErrNativeTrustLine     = errors.New("trust line cannot hold the native asset")
	ErrBalanceOutOfRange   = errors.New("balance must be within [0, limit] and limit positive")
	ErrInvalidPrice        = errors.New("price numerator and denominator must be positive")
	ErrInvalidAsset        = errors.New("invalid asset")
	ErrSameAsset           = errors.New("selling and buying the same asset")
	ErrInvalidOfferAmount  = errors.New("offer amount must be positive")
)
