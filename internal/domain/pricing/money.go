// Package pricing holds the value types shared by every stage of the
// checkout pipeline: monetary rounding helpers, the immutable cart
// snapshot consumed by the rule engine, and the discount details the
// pipeline produces.
package pricing

import "github.com/shopspring/decimal"

// moneyScale is the number of fractional digits every emitted monetary
// amount carries.
const moneyScale = 2

// Round rounds a monetary amount half-up to two fractional digits.
// Amounts in this system are never negative, so rounding half away
// from zero and rounding half-up coincide.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyScale)
}

// FloorAtZero clamps negative values to zero.
func FloorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
