// Package cart manages shopping cart lifecycle: creation, item
// modification and retrieval. Pricing never happens here; the checkout
// pipeline re-prices every line from the current catalog.
package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError indicates a requested cart does not exist.
type NotFoundError struct {
	CartID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cart %s not found", e.CartID)
}

// Address is a shipping destination. ZoneID drives the facility
// distance lookup during shipping calculation.
type Address struct {
	Street string
	City   string
	ZoneID string
}

// Item is one unpriced cart entry.
type Item struct {
	ProductID uuid.UUID
	SKU       string
	Quantity  int
}

// Cart holds a customer's selected items and the shipping destination.
type Cart struct {
	ID              uuid.UUID
	Items           []Item
	ShippingAddress *Address
}

// Repository defines persistence operations for carts.
type Repository interface {
	Create(ctx context.Context, c *Cart) error
	// Get returns the cart with its items or a *NotFoundError.
	Get(ctx context.Context, id uuid.UUID) (*Cart, error)
	// UpsertItem inserts the item or adds to its quantity when the cart
	// already contains the product.
	UpsertItem(ctx context.Context, cartID uuid.UUID, item Item) error
}
