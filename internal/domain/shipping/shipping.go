// Package shipping computes volumetric shipping charges: cart volume is
// aggregated, classified into a size category, and priced by the
// category's rate and the distance to the nearest fulfilling facility.
package shipping

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Dimension holds the physical dimensions of one product.
type Dimension struct {
	ProductID uuid.UUID
	Height    decimal.Decimal
	Width     decimal.Decimal
	Depth     decimal.Decimal
}

// Volume returns height × width × depth.
func (d Dimension) Volume() decimal.Decimal {
	return d.Height.Mul(d.Width).Mul(d.Depth)
}

// SizeCategory is a volumetric bucket. MinVolume is inclusive; a nil
// MaxVolume means the bucket is unbounded above, otherwise MaxVolume is
// inclusive too. Configured buckets are contiguous and non-overlapping.
type SizeCategory struct {
	ID        uuid.UUID
	Name      string
	MinVolume decimal.Decimal
	MaxVolume *decimal.Decimal
}

// Contains reports whether the volume falls inside this bucket.
func (c SizeCategory) Contains(volume decimal.Decimal) bool {
	if volume.LessThan(c.MinVolume) {
		return false
	}
	return c.MaxVolume == nil || volume.LessThanOrEqual(*c.MaxVolume)
}

// Rate is the shipping price configuration for one size category.
type Rate struct {
	CategoryID uuid.UUID
	BaseCost   decimal.Decimal
	CostPerKm  decimal.Decimal
}

// Source provides the read-only shipping configuration. Implementations
// batch and sort at the storage layer: DimensionsByProductIDs is one
// query for all ids, NearestDistance is a sorted, limited lookup.
type Source interface {
	DimensionsByProductIDs(ctx context.Context, ids []uuid.UUID) ([]Dimension, error)
	// CategoriesByMinVolumeAsc returns all size categories ordered by
	// ascending minimum volume.
	CategoriesByMinVolumeAsc(ctx context.Context) ([]SizeCategory, error)
	// RateByCategory returns the rate for a category, or nil when no
	// rate record is configured.
	RateByCategory(ctx context.Context, categoryID uuid.UUID) (*Rate, error)
	// NearestDistance returns the minimum distance from any facility
	// serving the zone; ok is false when no facility serves it.
	NearestDistance(ctx context.Context, zoneID string) (distance decimal.Decimal, ok bool, err error)
}
