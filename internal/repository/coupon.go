package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quimera-dev/checkout-api/internal/domain/coupon"
)

const (
	couponColumns = `id, code, description, coupon_type, percentage, amount,
		active, stackable, remaining_uses, expires_at`

	findCouponsByCodesSQL = `SELECT ` + couponColumns + `
		FROM coupons WHERE UPPER(code) = ANY($1)`

	findCouponByCodeSQL = `SELECT ` + couponColumns + `
		FROM coupons WHERE UPPER(code) = UPPER($1)`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY code`

	createCouponSQL = `INSERT INTO coupons (` + couponColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	updateCouponSQL = `UPDATE coupons SET code = $2, description = $3,
		coupon_type = $4, percentage = $5, amount = $6, active = $7,
		stackable = $8, remaining_uses = $9, expires_at = $10
		WHERE id = $1`

	deleteCouponSQL = `DELETE FROM coupons WHERE UPPER(code) = UPPER($1)`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCodes returns the coupons matching any of the given codes. The
// codes must already be upper-cased; lookups are case-insensitive on the
// stored side.
func (r *CouponRepository) FindByCodes(ctx context.Context, codes []string) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, findCouponsByCodesSQL, codes)
	if err != nil {
		return nil, fmt.Errorf("finding coupons by codes: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// FindByCode looks up a coupon by its code, case-insensitively. Returns
// coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, findCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}
	return &c, nil
}

// All returns every coupon ordered by code.
func (r *CouponRepository) All(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Create inserts a new coupon. Returns coupon.ErrCodeExists when the code
// is already taken.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, createCouponSQL,
		c.ID, c.Code, c.Description, c.Type, c.Percentage, c.Amount,
		c.Active, c.Stackable, c.RemainingUses, c.Expiry,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrCodeExists
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Update rewrites an existing coupon, code included. Returns
// coupon.ErrNotFound when the coupon does not exist and
// coupon.ErrCodeExists when renaming it to a code already taken.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	tag, err := r.pool.Exec(ctx, updateCouponSQL,
		c.ID, c.Code, c.Description, c.Type, c.Percentage, c.Amount,
		c.Active, c.Stackable, c.RemainingUses, c.Expiry,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrCodeExists
		}
		return fmt.Errorf("updating coupon %q: %w", c.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// Delete removes a coupon by code and reports whether one existed.
func (r *CouponRepository) Delete(ctx context.Context, code string) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, code)
	if err != nil {
		return false, fmt.Errorf("deleting coupon %q: %w", code, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.Description, &c.Type, &c.Percentage, &c.Amount,
		&c.Active, &c.Stackable, &c.RemainingUses, &c.Expiry,
	)
	return c, err
}
