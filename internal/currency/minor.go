package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// The store trades in Uzbek sums; the payment gateway and the ledger trade in
// tiyin (1 sum = 100 tiyin). All arithmetic past this boundary is int64 tiyin
// so money never touches floating point.

var hundred = decimal.NewFromInt(100)

// ToTiyin converts a sum amount to tiyin, rejecting values with sub-tiyin
// precision.
func ToTiyin(sums decimal.Decimal) (int64, error) {
	t := sums.Mul(hundred)
	if !t.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-tiyin precision", sums)
	}
	return t.IntPart(), nil
}

// ParseSums parses a decimal sum amount from its string form.
func ParseSums(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("amount %q is negative", s)
	}
	return d, nil
}

// FromTiyin converts tiyin back to sums for display.
func FromTiyin(tiyin int64) decimal.Decimal {
	return decimal.NewFromInt(tiyin).Div(hundred)
}
