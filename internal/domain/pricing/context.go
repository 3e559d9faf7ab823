package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quimera-dev/checkout-api/internal/domain/payment"
)

// CartLine is one priced item in a cart snapshot. The line subtotal is
// always recomputed from the current catalog price when the snapshot is
// built, never trusted from stale input.
type CartLine struct {
	ProductID uuid.UUID
	SKU       string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// CartContext is the immutable pricing snapshot the rule engine and the
// coupon logic consume. It is assembled once per calculation from
// batch-loaded data; nothing in the pipeline mutates it.
type CartContext struct {
	CartID        string
	Lines         []CartLine
	Subtotal      decimal.Decimal
	PaymentMethod payment.Method
}

// NewCartContext builds a snapshot and defensively copies the lines.
func NewCartContext(cartID string, lines []CartLine, subtotal decimal.Decimal, method payment.Method) CartContext {
	copied := make([]CartLine, len(lines))
	copy(copied, lines)
	return CartContext{
		CartID:        cartID,
		Lines:         copied,
		Subtotal:      subtotal,
		PaymentMethod: method,
	}
}

// TotalQuantity returns the total quantity of items in the cart.
func (c CartContext) TotalQuantity() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

// QuantityOf returns the quantity of a specific product in the cart.
func (c CartContext) QuantityOf(productID uuid.UUID) int {
	total := 0
	for _, line := range c.Lines {
		if line.ProductID == productID {
			total += line.Quantity
		}
	}
	return total
}

// SubtotalOf returns the summed line subtotals of a specific product.
func (c CartContext) SubtotalOf(productID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		if line.ProductID == productID {
			total = total.Add(line.Subtotal)
		}
	}
	return total
}
