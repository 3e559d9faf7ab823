package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/quimera-dev/checkout-api/internal/domain/shipping"
)

const (
	getDimensionsSQL = `SELECT product_id, height, width, depth
		FROM product_dimensions WHERE product_id = ANY($1)`

	listSizeCategoriesSQL = `SELECT id, name, min_volume, max_volume
		FROM shipping_size_categories ORDER BY min_volume`

	getRateSQL = `SELECT category_id, base_cost, cost_per_km
		FROM shipping_rates WHERE category_id = $1`

	nearestDistanceSQL = `SELECT distance_km FROM facility_zones
		WHERE zone_id = $1 ORDER BY distance_km LIMIT 1`
)

var _ shipping.Source = (*ShippingRepository)(nil)

// ShippingRepository implements shipping.Source backed by PostgreSQL.
type ShippingRepository struct {
	pool *pgxpool.Pool
}

// NewShippingRepository returns a ShippingRepository that uses the given pool.
func NewShippingRepository(pool *pgxpool.Pool) *ShippingRepository {
	return &ShippingRepository{pool: pool}
}

// DimensionsByProductIDs returns the known dimensions for the given
// products in one query. Products without a dimensions record are absent
// from the result.
func (r *ShippingRepository) DimensionsByProductIDs(ctx context.Context, ids []uuid.UUID) ([]shipping.Dimension, error) {
	rows, err := r.pool.Query(ctx, getDimensionsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting product dimensions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (shipping.Dimension, error) {
		var d shipping.Dimension
		err := row.Scan(&d.ProductID, &d.Height, &d.Width, &d.Depth)
		return d, err
	})
}

// CategoriesByMinVolumeAsc returns all size categories ordered by
// ascending minimum volume.
func (r *ShippingRepository) CategoriesByMinVolumeAsc(ctx context.Context) ([]shipping.SizeCategory, error) {
	rows, err := r.pool.Query(ctx, listSizeCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing size categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (shipping.SizeCategory, error) {
		var c shipping.SizeCategory
		err := row.Scan(&c.ID, &c.Name, &c.MinVolume, &c.MaxVolume)
		return c, err
	})
}

// RateByCategory returns the rate configured for the category, or nil
// when none exists.
func (r *ShippingRepository) RateByCategory(ctx context.Context, categoryID uuid.UUID) (*shipping.Rate, error) {
	rows, err := r.pool.Query(ctx, getRateSQL, categoryID)
	if err != nil {
		return nil, fmt.Errorf("getting shipping rate: %w", err)
	}

	rate, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (shipping.Rate, error) {
		var rt shipping.Rate
		err := row.Scan(&rt.CategoryID, &rt.BaseCost, &rt.CostPerKm)
		return rt, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting shipping rate: %w", err)
	}
	return &rate, nil
}

// NearestDistance returns the smallest distance from any facility serving
// the zone; ok is false when no facility serves it.
func (r *ShippingRepository) NearestDistance(ctx context.Context, zoneID string) (decimal.Decimal, bool, error) {
	var distance decimal.Decimal
	err := r.pool.QueryRow(ctx, nearestDistanceSQL, zoneID).Scan(&distance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("getting nearest distance for zone %q: %w", zoneID, err)
	}
	return distance, true, nil
}
