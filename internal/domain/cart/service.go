package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quimera-dev/checkout-api/internal/domain/product"
)

// Service encapsulates cart lifecycle logic.
type Service struct {
	carts    Repository
	products product.Repository
}

// NewService creates a cart Service.
func NewService(carts Repository, products product.Repository) *Service {
	return &Service{carts: carts, products: products}
}

// Create initializes and persists a new cart with the provided shipping
// address (which may be nil for pickup-only flows).
func (s *Service) Create(ctx context.Context, address *Address) (*Cart, error) {
	c := &Cart{ID: uuid.New(), ShippingAddress: address}
	if err := s.carts.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create cart")
	}

	zctx.From(ctx).Info("Cart created", zap.String("cart_id", c.ID.String()))
	return c, nil
}

// AddItem adds a product to the cart, merging quantities when the cart
// already contains the SKU, and returns the updated cart.
func (s *Service) AddItem(ctx context.Context, cartID uuid.UUID, sku string, quantity int) (*Cart, error) {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	p, err := s.products.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	item := Item{ProductID: p.ID, SKU: p.SKU, Quantity: quantity}
	if err := s.carts.UpsertItem(ctx, c.ID, item); err != nil {
		return nil, errors.Wrap(err, "upsert cart item")
	}

	return s.carts.Get(ctx, cartID)
}

// Get returns the current state of a cart.
func (s *Service) Get(ctx context.Context, cartID uuid.UUID) (*Cart, error) {
	return s.carts.Get(ctx, cartID)
}
