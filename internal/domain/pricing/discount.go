package pricing

import "github.com/shopspring/decimal"

// Scope identifies which part of the order a discount reduces.
type Scope string

const (
	ScopeItem     Scope = "ITEM"
	ScopeOrder    Scope = "ORDER"
	ScopePayment  Scope = "PAYMENT"
	ScopeShipping Scope = "SHIPPING"
)

// Discount is one applied discount. Amount is always strictly positive
// and rounded to two fractional digits before it is emitted; producers
// drop zero or negative results instead of emitting them.
type Discount struct {
	Code        string
	Scope       Scope
	Description string
	Amount      decimal.Decimal
}

// SumAmounts returns the total of all discount amounts.
func SumAmounts(discounts []Discount) decimal.Decimal {
	total := decimal.Zero
	for _, d := range discounts {
		total = total.Add(d.Amount)
	}
	return total
}
