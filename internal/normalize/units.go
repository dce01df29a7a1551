package normalize

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// NativeDecimals is the number of base units per whole native unit exponent.
const NativeDecimals = 18

// FormatUnits renders a base-unit integer as a decimal string with up to
// decimals fractional digits. Trailing zeros are trimmed and the point is
// only written when a fractional part remains.
func FormatUnits(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}
	if decimals <= 0 {
		return value.String()
	}
	return decimal.NewFromBigInt(value, int32(-decimals)).String()
}

// ParseInteger parses a base-unit integer given as decimal digits or as a
// 0x-prefixed hex quantity. Empty input is reported as not ok.
func ParseInteger(raw string) (*big.Int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	base := 10
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		raw = raw[2:]
		base = 16
		if raw == "" {
			return new(big.Int), true
		}
	}
	value, ok := new(big.Int).SetString(raw, base)
	if !ok {
		return nil, false
	}
	return value, true
}

func formatAmount(raw string, decimals int) string {
	if strings.TrimSpace(raw) == "" {
		return "0"
	}
	value, ok := ParseInteger(raw)
	if !ok {
		return raw
	}
	return FormatUnits(value, decimals)
}

func isZeroValue(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return true
	}
	value, ok := ParseInteger(raw)
	if !ok {
		return false
	}
	return value.Sign() == 0
}
