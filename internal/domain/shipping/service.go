package shipping

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quimera-dev/checkout-api/internal/domain/pricing"
)

// Service calculates the shipping cost for a cart. Missing configuration
// (no categories, no rate, no facility route) and invalid destinations
// yield a zero cost rather than an error.
type Service struct {
	source Source
}

// NewService creates a shipping Service over the given configuration source.
func NewService(source Source) *Service {
	return &Service{source: source}
}

// Cost returns the rounded shipping cost for delivering the given lines
// to the given zone: base cost of the cart's size category plus its
// per-kilometer cost times the distance to the nearest serving facility.
func (s *Service) Cost(ctx context.Context, zoneID string, lines []pricing.CartLine) (decimal.Decimal, error) {
	lg := zctx.From(ctx)

	if zoneID == "" {
		lg.Warn("Shipping requested without a destination zone")
		return decimal.Zero, nil
	}

	volume, err := s.totalVolume(ctx, lines)
	if err != nil {
		return decimal.Zero, err
	}
	if !volume.IsPositive() {
		lg.Warn("Cart has no positive volume, skipping shipping cost", zap.String("zone", zoneID))
		return decimal.Zero, nil
	}

	category, err := s.classify(ctx, volume)
	if err != nil {
		return decimal.Zero, err
	}
	if category == nil {
		lg.Warn("No size categories configured")
		return decimal.Zero, nil
	}

	distance, ok, err := s.source.NearestDistance(ctx, zoneID)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "nearest facility distance")
	}
	if !ok {
		lg.Warn("No facility route for zone", zap.String("zone", zoneID))
		return decimal.Zero, nil
	}

	rate, err := s.source.RateByCategory(ctx, category.ID)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "rate by category")
	}
	if rate == nil {
		lg.Warn("Shipping rate missing for category", zap.String("category", category.Name))
		return decimal.Zero, nil
	}

	return pricing.Round(rate.BaseCost.Add(rate.CostPerKm.Mul(distance))), nil
}

// totalVolume sums h×w×d×quantity over all lines with known dimensions.
// Dimensions are loaded in one batched query, never per line.
func (s *Service) totalVolume(ctx context.Context, lines []pricing.CartLine) (decimal.Decimal, error) {
	ids := distinctProductIDs(lines)
	if len(ids) == 0 {
		return decimal.Zero, nil
	}

	dims, err := s.source.DimensionsByProductIDs(ctx, ids)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "load product dimensions")
	}

	byProduct := make(map[uuid.UUID]Dimension, len(dims))
	for _, d := range dims {
		byProduct[d.ProductID] = d
	}

	total := decimal.Zero
	for _, line := range lines {
		dim, ok := byProduct[line.ProductID]
		if !ok {
			continue
		}
		total = total.Add(dim.Volume().Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total, nil
}

// classify picks the first category containing the volume; both bounds
// are inclusive. A volume above every bounded range falls back to the
// last (largest) category. Returns nil when no categories exist.
func (s *Service) classify(ctx context.Context, volume decimal.Decimal) (*SizeCategory, error) {
	categories, err := s.source.CategoriesByMinVolumeAsc(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load size categories")
	}
	if len(categories) == 0 {
		return nil, nil
	}

	for i := range categories {
		if categories[i].Contains(volume) {
			return &categories[i], nil
		}
	}
	return &categories[len(categories)-1], nil
}

func distinctProductIDs(lines []pricing.CartLine) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == uuid.Nil || seen[line.ProductID] {
			continue
		}
		seen[line.ProductID] = true
		ids = append(ids, line.ProductID)
	}
	return ids
}
