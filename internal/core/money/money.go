// Package money holds the fixed-point rules for every monetary value in the
// service: two decimal places, truncated toward zero.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits kept for all amounts.
const Places int32 = 2

// Zero is the additive identity, already normalized.
var Zero = decimal.Zero

// Max is the largest magnitude a NUMERIC(14,2) column holds.
var Max = decimal.RequireFromString("999999999999.99")

// Normalize truncates d toward zero at Places. It is applied on ingestion and
// again before a value leaves the service.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(Places)
}

// Parse reads a decimal string and normalizes it.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Normalize(d), nil
}

// MustParse is Parse for constants and fixtures.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Sum adds already-normalized values. Sums of two-place values are exact.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Format renders d with exactly two fractional digits.
func Format(d decimal.Decimal) string {
	return Normalize(d).StringFixed(Places)
}

// WithinLimit reports whether |d| fits the storage precision.
func WithinLimit(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Max)
}
