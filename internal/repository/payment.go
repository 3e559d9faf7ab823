package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quimera-dev/checkout-api/internal/domain/payment"
)

const getPaymentDiscountSQL = `SELECT method, percentage, amount, description
	FROM payment_discounts WHERE method = $1`

var _ payment.Source = (*PaymentRepository)(nil)

// PaymentRepository implements payment.Source backed by PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a PaymentRepository that uses the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// DiscountByMethod returns the discount configured for the method, or nil
// when none is configured.
func (r *PaymentRepository) DiscountByMethod(ctx context.Context, m payment.Method) (*payment.Discount, error) {
	rows, err := r.pool.Query(ctx, getPaymentDiscountSQL, m)
	if err != nil {
		return nil, fmt.Errorf("getting payment discount for %q: %w", m, err)
	}

	d, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (payment.Discount, error) {
		var pd payment.Discount
		err := row.Scan(&pd.Method, &pd.Percentage, &pd.Amount, &pd.Description)
		return pd, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting payment discount for %q: %w", m, err)
	}
	return &d, nil
}
