package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quimera-dev/checkout-api/internal/domain/pricing"
)

type mockCouponRepo struct {
	coupons     []Coupon
	queriedWith []string
	err         error
}

func (m *mockCouponRepo) FindByCodes(_ context.Context, codes []string) ([]Coupon, error) {
	m.queriedWith = codes
	return m.coupons, m.err
}

func (m *mockCouponRepo) FindByCode(context.Context, string) (*Coupon, error) { return nil, ErrNotFound }
func (m *mockCouponRepo) All(context.Context) ([]Coupon, error)              { return m.coupons, nil }
func (m *mockCouponRepo) Create(context.Context, *Coupon) error              { return nil }
func (m *mockCouponRepo) Update(context.Context, *Coupon) error              { return nil }
func (m *mockCouponRepo) Delete(context.Context, string) (bool, error)       { return false, nil }

func num(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func uses(n int32) *int32 { return &n }

func newTestService(repo Repository) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestValidateAndGetCoupons_NormalizesAndDeduplicates(t *testing.T) {
	repo := &mockCouponRepo{coupons: []Coupon{
		{Code: "10DESC", Type: TypeOrder, Percentage: num("0.10"), Active: true, Stackable: true},
	}}
	svc := newTestService(repo)

	got, err := svc.ValidateAndGetCoupons(context.Background(), []string{" 10desc ", "", "10DESC", "  "})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "10DESC", got[0].Code)
	assert.Equal(t, []string{"10DESC"}, repo.queriedWith, "blank and duplicate codes never reach the repository")
}

func TestValidateAndGetCoupons_FiltersInvalidCandidates(t *testing.T) {
	past := time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)
	future := time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)

	repo := &mockCouponRepo{coupons: []Coupon{
		{Code: "INACTIVE", Type: TypeOrder, Percentage: num("0.10"), Active: false, Stackable: true},
		{Code: "EXPIRED", Type: TypeOrder, Percentage: num("0.10"), Active: true, Stackable: true, Expiry: &past},
		{Code: "EXHAUSTED", Type: TypeOrder, Percentage: num("0.10"), Active: true, Stackable: true, RemainingUses: uses(0)},
		{Code: "GOOD", Type: TypeOrder, Percentage: num("0.10"), Active: true, Stackable: true, Expiry: &future, RemainingUses: uses(1)},
	}}
	svc := newTestService(repo)

	got, err := svc.ValidateAndGetCoupons(context.Background(), []string{"INACTIVE", "EXPIRED", "EXHAUSTED", "GOOD"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "GOOD", got[0].Code)
}

func TestValidateAndGetCoupons_OnePerTypeByUserPriority(t *testing.T) {
	repo := &mockCouponRepo{coupons: []Coupon{
		{Code: "10DESC", Type: TypeOrder, Percentage: num("0.10"), Active: true, Stackable: true},
		{Code: "20DESC", Type: TypeOrder, Percentage: num("0.20"), Active: true, Stackable: true},
	}}
	svc := newTestService(repo)

	// The user listed 20DESC first, so it wins the ORDER slot.
	got, err := svc.ValidateAndGetCoupons(context.Background(), []string{"20DESC", "10DESC"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "20DESC", got[0].Code)
}

func TestValidateAndGetCoupons_StackabilityDropsLaterNonStackables(t *testing.T) {
	repo := &mockCouponRepo{coupons: []Coupon{
		{Code: "NONSTACK_ORDER", Type: TypeOrder, Percentage: num("0.10"), Active: true, Stackable: false},
		{Code: "NONSTACK_SHIP", Type: TypeShipping, Active: true, Stackable: false},
	}}
	svc := newTestService(repo)

	// Different types, so both pass the one-per-type stage; the later
	// non-stackable still drops.
	got, err := svc.ValidateAndGetCoupons(context.Background(), []string{"NONSTACK_ORDER", "NONSTACK_SHIP"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "NONSTACK_ORDER", got[0].Code)
}

func TestValidateAndGetCoupons_StackableSurvivesAfterNonStackable(t *testing.T) {
	repo := &mockCouponRepo{coupons: []Coupon{
		{Code: "NONSTACK_ORDER", Type: TypeOrder, Percentage: num("0.10"), Active: true, Stackable: false},
		{Code: "STACK_SHIP", Type: TypeShipping, Active: true, Stackable: true},
	}}
	svc := newTestService(repo)

	got, err := svc.ValidateAndGetCoupons(context.Background(), []string{"NONSTACK_ORDER", "STACK_SHIP"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "NONSTACK_ORDER", got[0].Code)
	assert.Equal(t, "STACK_SHIP", got[1].Code)
}

func TestValidateAndGetCoupons_CodeFilterShortCircuits(t *testing.T) {
	repo := &mockCouponRepo{}
	svc := newTestService(repo)

	filter := bloom.NewWithEstimates(1000, 0.01)
	filter.AddString("10DESC")
	svc.UseCodeFilter(filter)

	got, err := svc.ValidateAndGetCoupons(context.Background(), []string{"DEFINITELY_NOT_A_CODE"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Nil(t, repo.queriedWith, "unknown codes must not reach the repository")
}

func TestApplyCoupons_ShippingCouponZeroesShipping(t *testing.T) {
	svc := newTestService(&mockCouponRepo{})
	coupons := []Coupon{{Code: "FREE_SHIPPING", Type: TypeShipping, Active: true, Stackable: true}}

	result := svc.ApplyCoupons(coupons, decimal.NewFromInt(60000), decimal.NewFromInt(3000))

	require.Len(t, result.Discounts, 1)
	assert.Equal(t, pricing.ScopeShipping, result.Discounts[0].Scope)
	assert.True(t, decimal.NewFromInt(3000).Equal(result.Discounts[0].Amount))
	assert.True(t, result.ShippingCost.IsZero())
	assert.Empty(t, result.Redeemed, "unlimited coupons need no decrement")
}

func TestApplyCoupons_ShippingCouponNoopWhenShippingFree(t *testing.T) {
	svc := newTestService(&mockCouponRepo{})
	coupons := []Coupon{{Code: "FREE_SHIPPING", Type: TypeShipping, Active: true, Stackable: true, RemainingUses: uses(5)}}

	result := svc.ApplyCoupons(coupons, decimal.NewFromInt(60000), decimal.Zero)

	assert.Empty(t, result.Discounts)
	assert.Empty(t, result.Redeemed, "a coupon that produced nothing consumes no use")
}

func TestApplyCoupons_OrderCouponCombinesPercentageAndFixed(t *testing.T) {
	svc := newTestService(&mockCouponRepo{})
	coupons := []Coupon{{
		Code: "COMBO", Type: TypeOrder, Active: true, Stackable: true,
		Percentage: num("0.10"), Amount: num("500"), RemainingUses: uses(3),
	}}

	result := svc.ApplyCoupons(coupons, decimal.NewFromInt(10000), decimal.NewFromInt(2000))

	require.Len(t, result.Discounts, 1)
	assert.Equal(t, pricing.ScopeOrder, result.Discounts[0].Scope)
	assert.True(t, decimal.NewFromInt(1500).Equal(result.Discounts[0].Amount))
	assert.True(t, decimal.NewFromInt(2000).Equal(result.ShippingCost), "order coupons leave shipping untouched")
	assert.Equal(t, []string{"COMBO"}, result.Redeemed)
}

func TestApplyCoupons_OrderCouponRoundsHalfUp(t *testing.T) {
	svc := newTestService(&mockCouponRepo{})
	coupons := []Coupon{{Code: "TEN", Type: TypeOrder, Active: true, Stackable: true, Percentage: num("0.10")}}

	result := svc.ApplyCoupons(coupons, decimal.RequireFromString("33.335"), decimal.Zero)

	require.Len(t, result.Discounts, 1)
	assert.True(t, decimal.RequireFromString("3.33").Equal(result.Discounts[0].Amount), "got %s", result.Discounts[0].Amount)
}

func TestApplyCoupons_DefaultDescription(t *testing.T) {
	svc := newTestService(&mockCouponRepo{})
	coupons := []Coupon{{Code: "BARE", Type: TypeOrder, Active: true, Stackable: true, Amount: num("100")}}

	result := svc.ApplyCoupons(coupons, decimal.NewFromInt(1000), decimal.Zero)

	require.Len(t, result.Discounts, 1)
	assert.Equal(t, "Coupon BARE", result.Discounts[0].Description)
}
