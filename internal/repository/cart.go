package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quimera-dev/checkout-api/internal/domain/cart"
)

const (
	createCartSQL = `INSERT INTO carts (id, street, city, zone_id)
		VALUES ($1, $2, $3, $4)`

	getCartSQL = `SELECT id, street, city, zone_id FROM carts WHERE id = $1`

	getCartItemsSQL = `SELECT product_id, sku, quantity
		FROM cart_items WHERE cart_id = $1 ORDER BY sku`

	upsertCartItemSQL = `INSERT INTO cart_items (cart_id, product_id, sku, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Create inserts an empty cart with its optional shipping address.
func (r *CartRepository) Create(ctx context.Context, c *cart.Cart) error {
	var street, city, zoneID *string
	if c.ShippingAddress != nil {
		street = &c.ShippingAddress.Street
		city = &c.ShippingAddress.City
		zoneID = &c.ShippingAddress.ZoneID
	}

	_, err := r.pool.Exec(ctx, createCartSQL, c.ID, street, city, zoneID)
	if err != nil {
		return fmt.Errorf("creating cart %q: %w", c.ID, err)
	}
	return nil
}

// Get returns the cart with its items, or a *cart.NotFoundError.
func (r *CartRepository) Get(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	rows, err := r.pool.Query(ctx, getCartSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting cart %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &cart.NotFoundError{CartID: id.String()}
		}
		return nil, fmt.Errorf("getting cart %q: %w", id, err)
	}

	itemRows, err := r.pool.Query(ctx, getCartItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting cart items for %q: %w", id, err)
	}
	c.Items, err = pgx.CollectRows(itemRows, scanCartItem)
	if err != nil {
		return nil, fmt.Errorf("getting cart items for %q: %w", id, err)
	}
	return &c, nil
}

// UpsertItem inserts the item or adds to its quantity when the cart
// already contains the product.
func (r *CartRepository) UpsertItem(ctx context.Context, cartID uuid.UUID, item cart.Item) error {
	_, err := r.pool.Exec(ctx, upsertCartItemSQL, cartID, item.ProductID, item.SKU, item.Quantity)
	if err != nil {
		return fmt.Errorf("upserting item %q into cart %q: %w", item.SKU, cartID, err)
	}
	return nil
}

func scanCart(row pgx.CollectableRow) (cart.Cart, error) {
	var (
		c                    cart.Cart
		street, city, zoneID *string
	)
	if err := row.Scan(&c.ID, &street, &city, &zoneID); err != nil {
		return c, err
	}
	if street != nil || city != nil || zoneID != nil {
		c.ShippingAddress = &cart.Address{}
		if street != nil {
			c.ShippingAddress.Street = *street
		}
		if city != nil {
			c.ShippingAddress.City = *city
		}
		if zoneID != nil {
			c.ShippingAddress.ZoneID = *zoneID
		}
	}
	return c, nil
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var item cart.Item
	err := row.Scan(&item.ProductID, &item.SKU, &item.Quantity)
	return item, err
}
