package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func TestRound_HalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3.3335", "3.33"},
		{"3.335", "3.34"},
		{"3.334", "3.33"},
		{"2999.995", "3000"},
		{"0", "0"},
		{"58000", "58000"},
	}
	for _, tt := range tests {
		got := Round(decimal.RequireFromString(tt.in))
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got),
			"Round(%s) = %s, want %s", tt.in, got, tt.want)
	}
}

func TestFloorAtZero(t *testing.T) {
	assert.True(t, FloorAtZero(decimal.RequireFromString("-0.01")).IsZero())
	assert.True(t, decimal.RequireFromString("1.50").Equal(FloorAtZero(decimal.RequireFromString("1.50"))))
}

func TestCartContext_Aggregates(t *testing.T) {
	p1 := mustUUID(t, "11111111-1111-1111-1111-111111111111")
	p2 := mustUUID(t, "22222222-2222-2222-2222-222222222222")

	ctx := NewCartContext("cart-1", []CartLine{
		{ProductID: p1, SKU: "p-001", Quantity: 2, UnitPrice: decimal.NewFromInt(100), Subtotal: decimal.NewFromInt(200)},
		{ProductID: p2, SKU: "p-002", Quantity: 1, UnitPrice: decimal.NewFromInt(50), Subtotal: decimal.NewFromInt(50)},
		{ProductID: p1, SKU: "p-001", Quantity: 3, UnitPrice: decimal.NewFromInt(100), Subtotal: decimal.NewFromInt(300)},
	}, decimal.NewFromInt(550), "CREDIT")

	assert.Equal(t, 6, ctx.TotalQuantity())
	assert.Equal(t, 5, ctx.QuantityOf(p1))
	assert.Equal(t, 1, ctx.QuantityOf(p2))
	assert.True(t, decimal.NewFromInt(500).Equal(ctx.SubtotalOf(p1)))
}
