// Package checkout orchestrates the pricing pipeline: promotions,
// payment-method discounts, shipping and coupons, sequenced into one
// calculation used identically by the price preview ("quote") and the
// persisted order confirmation.
package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quimera-dev/checkout-api/internal/domain/cart"
	"github.com/quimera-dev/checkout-api/internal/domain/payment"
	"github.com/quimera-dev/checkout-api/internal/domain/pricing"
)

// FulfillmentType distinguishes shipped orders from facility pickups.
// The two are mutually exclusive per order.
type FulfillmentType string

const (
	FulfillmentDelivery FulfillmentType = "DELIVERY"
	FulfillmentPickup   FulfillmentType = "PICKUP"
)

// Request holds the checkout parameters shared by quote and confirm.
type Request struct {
	CartID           uuid.UUID
	PaymentMethod    payment.Method
	CouponCodes      []string
	PickupFacilityID *uuid.UUID
}

// Calculation is the complete monetary breakdown of one checkout. It is
// the single source of truth for both quote and confirm, so the
// displayed price and the charged amount can never diverge.
type Calculation struct {
	CartID        uuid.UUID
	Lines         []pricing.CartLine
	Subtotal      decimal.Decimal
	Discounts     []pricing.Discount
	TotalDiscount decimal.Decimal
	ShippingCost  decimal.Decimal
	Total         decimal.Decimal
	Fulfillment   FulfillmentType
	PickupAddress *cart.Address

	// RedeemedCoupons lists limited-use coupon codes whose counters the
	// confirm flow must decrement atomically with the order write.
	RedeemedCoupons []string
}

// Order is a confirmed, persisted checkout.
type Order struct {
	ID            uuid.UUID
	CartID        uuid.UUID
	PaymentMethod payment.Method
	Fulfillment   FulfillmentType
	Subtotal      decimal.Decimal
	ShippingCost  decimal.Decimal
	Total         decimal.Decimal
	CouponCodes   []string
	Lines         []pricing.CartLine
	Discounts     []pricing.Discount
	CreatedAt     time.Time
}

// Repository persists confirmed orders. Create must write the order and
// decrement the given limited-use coupon counters in one transaction;
// a counter that cannot be decremented without going negative fails the
// whole write with coupon.ErrNoLongerAvailable.
type Repository interface {
	Create(ctx context.Context, o *Order, redeemCoupons []string) error
}
