// Package coupon implements validation, selection and application of
// user-supplied coupon codes.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type enumerates what a coupon discounts.
type Type string

const (
	// TypeOrder reduces the order total by a percentage and/or fixed amount.
	TypeOrder Type = "ORDER"
	// TypeShipping eliminates the shipping cost entirely.
	TypeShipping Type = "SHIPPING"
)

var (
	// ErrCodeExists is returned when creating or renaming a coupon to a
	// code that is already in use.
	ErrCodeExists = errors.New("coupon code already exists")
	// ErrNotFound is returned when a coupon code does not exist.
	ErrNotFound = errors.New("coupon not found")
	// ErrNoLongerAvailable is returned when a limited-use coupon was
	// exhausted between calculation and confirmation. The confirmation
	// may be retried without the offending code.
	ErrNoLongerAvailable = errors.New("coupon no longer available")
)

// Coupon is a redeemable code. Codes are unique case-insensitively. A
// nil RemainingUses means unlimited uses; a nil Expiry means the coupon
// never expires.
type Coupon struct {
	ID            uuid.UUID
	Code          string
	Description   string
	Type          Type
	Percentage    *decimal.Decimal
	Amount        *decimal.Decimal
	Active        bool
	Stackable     bool
	RemainingUses *int32
	Expiry        *time.Time
}

// LimitedUse reports whether the coupon carries a finite usage counter.
func (c Coupon) LimitedUse() bool {
	return c.RemainingUses != nil
}

// Repository provides lookup and administration of coupon records. Usage
// decrements are not part of this interface: they happen atomically with
// order persistence, inside the order repository's transaction.
type Repository interface {
	// FindByCodes returns the coupons matching any of the given codes,
	// compared case-insensitively.
	FindByCodes(ctx context.Context, codes []string) ([]Coupon, error)
	// FindByCode returns a single coupon or ErrNotFound.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	All(ctx context.Context) ([]Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, code string) (bool, error)
}
