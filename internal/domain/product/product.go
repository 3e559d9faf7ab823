// Package product defines the catalog items carts are priced against.
package product

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NotFoundError indicates a requested product does not exist.
type NotFoundError struct {
	SKU string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.SKU)
}

// Product is a catalog item. UnitPrice is the current catalog price;
// checkout always re-reads it instead of trusting prices captured when
// an item was added to a cart.
type Product struct {
	ID        uuid.UUID
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	// GetBySKU returns the product or a *NotFoundError.
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	// GetBySKUs returns the products matching any of the given SKUs in a
	// single query. SKUs with no matching product are simply absent from
	// the result; callers decide whether that is an error.
	GetBySKUs(ctx context.Context, skus []string) ([]Product, error)
}
