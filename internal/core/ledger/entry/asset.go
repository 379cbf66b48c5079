package entry

import (
	"bytes"
	"fmt"
	"strings"
)

// AssetType distinguishes the native asset from issued credit assets.
type AssetType uint8

const (
	AssetTypeNative AssetType = iota
	AssetTypeCredit
)

const maxAssetCodeLength = 12

// Asset identifies something that can be held and traded.
// The native asset has no code and no issuer.
type Asset struct {
	Type   AssetType `json:"type" codec:"type"`
	Code   string    `json:"code,omitempty" codec:"code"`
	Issuer AccountID `json:"issuer,omitempty" codec:"issuer"`
}

// NativeAsset returns the native asset.
func NativeAsset() Asset {
	return Asset{Type: AssetTypeNative}
}

// NewCreditAsset returns a credit asset issued by issuer.
func NewCreditAsset(code string, issuer AccountID) Asset {
	return Asset{Type: AssetTypeCredit, Code: code, Issuer: issuer}
}

// ParseAsset parses "native" or "CODE:ISSUER".
func ParseAsset(s string) (Asset, error) {
	if s == "native" {
		return NativeAsset(), nil
	}
	code, issuer, ok := strings.Cut(s, ":")
	if !ok {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAsset, s)
	}
	a := NewCreditAsset(code, AccountID(issuer))
	if err := a.Validate(); err != nil {
		return Asset{}, err
	}
	return a, nil
}

// IsNative reports whether a is the native asset.
func (a Asset) IsNative() bool {
	return a.Type == AssetTypeNative
}

// Equal reports whether a and b denote the same asset.
func (a Asset) Equal(b Asset) bool {
	return a.Type == b.Type && a.Code == b.Code && a.Issuer == b.Issuer
}

// Validate checks the asset code and issuer.
func (a Asset) Validate() error {
	switch a.Type {
	case AssetTypeNative:
		if a.Code != "" || a.Issuer != "" {
			return fmt.Errorf("%w: native asset with code or issuer", ErrInvalidAsset)
		}
		return nil
	case AssetTypeCredit:
		if len(a.Code) == 0 || len(a.Code) > maxAssetCodeLength {
			return fmt.Errorf("%w: code length %d", ErrInvalidAsset, len(a.Code))
		}
		for _, c := range a.Code {
			if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
				return fmt.Errorf("%w: code %q", ErrInvalidAsset, a.Code)
			}
		}
		if a.Issuer == "" {
			return fmt.Errorf("%w: missing issuer", ErrInvalidAsset)
		}
		return nil
	default:
		return fmt.Errorf("%w: type %d", ErrInvalidAsset, a.Type)
	}
}

// String returns "native" or "CODE:ISSUER".
func (a Asset) String() string {
	if a.IsNative() {
		return "native"
	}
	return a.Code + ":" + string(a.Issuer)
}

// MarshalText implements encoding.TextMarshaler.
func (a Asset) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Asset) UnmarshalText(text []byte) error {
	parsed, err := ParseAsset(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Bytes returns a length-prefixed encoding used to build storage keys.
// Distinct assets always have distinct encodings.
func (a Asset) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(a.Type))
	if a.IsNative() {
		return buf.Bytes()
	}
	buf.WriteByte(byte(len(a.Code)))
	buf.WriteString(a.Code)
	buf.WriteByte(byte(len(a.Issuer)))
	buf.WriteString(string(a.Issuer))
	return buf.Bytes()
}
