package shipping

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quimera-dev/checkout-api/internal/domain/pricing"
)

type mockSource struct {
	dimensions []Dimension
	categories []SizeCategory
	rates      map[uuid.UUID]*Rate
	distances  map[string]decimal.Decimal

	dimensionQueries [][]uuid.UUID
}

func (m *mockSource) DimensionsByProductIDs(_ context.Context, ids []uuid.UUID) ([]Dimension, error) {
	m.dimensionQueries = append(m.dimensionQueries, ids)
	return m.dimensions, nil
}

func (m *mockSource) CategoriesByMinVolumeAsc(context.Context) ([]SizeCategory, error) {
	return m.categories, nil
}

func (m *mockSource) RateByCategory(_ context.Context, categoryID uuid.UUID) (*Rate, error) {
	return m.rates[categoryID], nil
}

func (m *mockSource) NearestDistance(_ context.Context, zoneID string) (decimal.Decimal, bool, error) {
	d, ok := m.distances[zoneID]
	return d, ok, nil
}

func num(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func numPtr(s string) *decimal.Decimal {
	d := num(s)
	return &d
}

var (
	boxID      = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	smallID    = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000001")
	largeID    = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")
	oversizeID = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000003")
)

// configuredSource ships a 10×10×10 box; one box lands in SMALL, five in
// LARGE, and anything past 5000 overflows into OVERSIZE.
func configuredSource() *mockSource {
	return &mockSource{
		dimensions: []Dimension{
			{ProductID: boxID, Height: num("10"), Width: num("10"), Depth: num("10")},
		},
		categories: []SizeCategory{
			{ID: smallID, Name: "SMALL", MinVolume: num("0"), MaxVolume: numPtr("1000")},
			{ID: largeID, Name: "LARGE", MinVolume: num("1000.01"), MaxVolume: numPtr("5000")},
			{ID: oversizeID, Name: "OVERSIZE", MinVolume: num("5000.01"), MaxVolume: numPtr("9000")},
		},
		rates: map[uuid.UUID]*Rate{
			smallID:    {CategoryID: smallID, BaseCost: num("1000"), CostPerKm: num("10")},
			largeID:    {CategoryID: largeID, BaseCost: num("2000"), CostPerKm: num("25")},
			oversizeID: {CategoryID: oversizeID, BaseCost: num("5000"), CostPerKm: num("80")},
		},
		distances: map[string]decimal.Decimal{"RM": num("12.5")},
	}
}

func boxLines(quantity int) []pricing.CartLine {
	return []pricing.CartLine{{ProductID: boxID, SKU: "BOX", Quantity: quantity, UnitPrice: num("100")}}
}

func TestCost_BasePlusDistance(t *testing.T) {
	svc := NewService(configuredSource())

	// One box, volume 1000, SMALL: 1000 + 10 × 12.5 = 1125.
	cost, err := svc.Cost(context.Background(), "RM", boxLines(1))
	require.NoError(t, err)
	assert.True(t, num("1125.00").Equal(cost), "got %s", cost)
}

func TestCost_MaxVolumeBoundaryIsInclusive(t *testing.T) {
	src := configuredSource()
	svc := NewService(src)

	// Five boxes land exactly on LARGE's upper bound of 5000.
	cost, err := svc.Cost(context.Background(), "RM", boxLines(5))
	require.NoError(t, err)
	assert.True(t, num("2312.50").Equal(cost), "got %s", cost)
}

func TestCost_OverflowFallsBackToLargestCategory(t *testing.T) {
	src := configuredSource()
	svc := NewService(src)

	// Ten boxes exceed every configured bound; OVERSIZE still applies.
	cost, err := svc.Cost(context.Background(), "RM", boxLines(10))
	require.NoError(t, err)
	assert.True(t, num("6000.00").Equal(cost), "got %s", cost)
}

func TestCost_RoundsResult(t *testing.T) {
	src := configuredSource()
	src.distances["RM"] = num("12.3335")
	src.rates[smallID] = &Rate{CategoryID: smallID, BaseCost: num("0"), CostPerKm: num("1")}
	svc := NewService(src)

	cost, err := svc.Cost(context.Background(), "RM", boxLines(1))
	require.NoError(t, err)
	assert.True(t, num("12.33").Equal(cost), "got %s", cost)
}

func TestCost_ZeroWithoutZone(t *testing.T) {
	svc := NewService(configuredSource())

	cost, err := svc.Cost(context.Background(), "", boxLines(1))
	require.NoError(t, err)
	assert.True(t, cost.IsZero())
}

func TestCost_ZeroWhenNoDimensionsKnown(t *testing.T) {
	src := configuredSource()
	src.dimensions = nil
	svc := NewService(src)

	cost, err := svc.Cost(context.Background(), "RM", boxLines(3))
	require.NoError(t, err)
	assert.True(t, cost.IsZero())
}

func TestCost_ZeroWhenNoCategoriesConfigured(t *testing.T) {
	src := configuredSource()
	src.categories = nil
	svc := NewService(src)

	cost, err := svc.Cost(context.Background(), "RM", boxLines(1))
	require.NoError(t, err)
	assert.True(t, cost.IsZero())
}

func TestCost_ZeroWhenNoFacilityServesZone(t *testing.T) {
	svc := NewService(configuredSource())

	cost, err := svc.Cost(context.Background(), "NOWHERE", boxLines(1))
	require.NoError(t, err)
	assert.True(t, cost.IsZero())
}

func TestCost_ZeroWhenRateMissing(t *testing.T) {
	src := configuredSource()
	delete(src.rates, smallID)
	svc := NewService(src)

	cost, err := svc.Cost(context.Background(), "RM", boxLines(1))
	require.NoError(t, err)
	assert.True(t, cost.IsZero())
}

func TestCost_BatchesDimensionLookups(t *testing.T) {
	src := configuredSource()
	svc := NewService(src)

	lines := []pricing.CartLine{
		{ProductID: boxID, SKU: "BOX", Quantity: 2, UnitPrice: num("100")},
		{ProductID: boxID, SKU: "BOX", Quantity: 3, UnitPrice: num("100")},
	}
	_, err := svc.Cost(context.Background(), "RM", lines)
	require.NoError(t, err)

	require.Len(t, src.dimensionQueries, 1)
	assert.Equal(t, []uuid.UUID{boxID}, src.dimensionQueries[0], "duplicate product ids collapse into one query")
}
