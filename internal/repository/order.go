package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quimera-dev/checkout-api/internal/domain/checkout"
	"github.com/quimera-dev/checkout-api/internal/domain/coupon"
)

const (
	createOrderSQL = `INSERT INTO orders (id, cart_id, payment_method, fulfillment,
		subtotal, shipping_cost, total, coupon_codes, lines, discounts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	decrementCouponUsesSQL = `UPDATE coupons SET remaining_uses = remaining_uses - 1
		WHERE UPPER(code) = UPPER($1) AND remaining_uses > 0`
)

var _ checkout.Repository = (*OrderRepository)(nil)

// OrderRepository implements checkout.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order and decrements the usage counters of the
// given coupon codes in one transaction. The decrement is conditional on
// a positive counter; a counter already at zero aborts the whole write
// with coupon.ErrNoLongerAvailable, so an order can never consume an
// exhausted coupon.
func (r *OrderRepository) Create(ctx context.Context, o *checkout.Order, redeemCoupons []string) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}
	discountsJSON, err := json.Marshal(o.Discounts)
	if err != nil {
		return fmt.Errorf("marshaling order discounts: %w", err)
	}

	couponCodes := o.CouponCodes
	if couponCodes == nil {
		couponCodes = []string{}
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, code := range redeemCoupons {
			tag, err := tx.Exec(ctx, decrementCouponUsesSQL, code)
			if err != nil {
				return fmt.Errorf("decrementing uses for coupon %q: %w", code, err)
			}
			if tag.RowsAffected() == 0 {
				return coupon.ErrNoLongerAvailable
			}
		}

		_, err := tx.Exec(ctx, createOrderSQL,
			o.ID, o.CartID, o.PaymentMethod, o.Fulfillment,
			o.Subtotal, o.ShippingCost, o.Total, couponCodes,
			linesJSON, discountsJSON,
		)
		if err != nil {
			return fmt.Errorf("creating order %q: %w", o.ID, err)
		}
		return nil
	})
}
