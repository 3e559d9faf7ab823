// Package payment defines the supported payment methods and the
// per-method discount configuration consulted during checkout.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Method enumerates the supported payment methods.
type Method string

const (
	MethodCredit Method = "CREDIT"
	MethodDebit  Method = "DEBIT"
)

// Discount is a configured discount tied to a payment method. Either
// Percentage (0.10 means 10%) or Amount may be nil; when both are set the
// computed amounts are added together.
type Discount struct {
	Method      Method
	Percentage  *decimal.Decimal
	Amount      *decimal.Decimal
	Description string
}

// Source provides read access to payment-method discount configuration.
type Source interface {
	// DiscountByMethod returns the discount configured for the given
	// method, or nil when none is configured.
	DiscountByMethod(ctx context.Context, m Method) (*Discount, error)
}
