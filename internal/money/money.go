// Package money holds the decimal helpers shared by invoicing and progress math.
// Amounts are always carried as decimal.Decimal and rounded half away from zero.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fraction digits kept for monetary amounts.
const Places = 2

var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

// Round2 rounds to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// ClampZero returns d, or zero when d is negative.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// IsZero2 reports whether d equals 0.00 at two-decimal precision.
func IsZero2(d decimal.Decimal) bool {
	return Round2(d).IsZero()
}

func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// LineTotal returns quantity * price rounded to two places.
func LineTotal(quantity, price decimal.Decimal) decimal.Decimal {
	return Round2(quantity.Mul(price))
}

// Percent returns round(100 * part / whole) clamped to [0, 100].
// A non-positive whole yields 0.
func Percent(part, whole decimal.Decimal) int {
	if !whole.IsPositive() {
		return 0
	}
	p := part.Mul(hundred).Div(whole).Round(0).IntPart()
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return int(p)
	}
}

// ParseAmount parses a decimal string and rounds it to two places.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Round2(d), nil
}

// Format renders d with exactly two fraction digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
