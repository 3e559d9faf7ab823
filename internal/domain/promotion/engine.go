package promotion

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/quimera-dev/checkout-api/internal/domain/pricing"
)

// Engine evaluates active promotions against a cart snapshot and
// collects the discounts their actions produce.
type Engine struct {
	source    Source
	executors Registry
}

// NewEngine creates an Engine over the given promotion source and the
// default executor registry.
func NewEngine(source Source) *Engine {
	return &Engine{source: source, executors: NewRegistry()}
}

// Process evaluates every active promotion, in ascending priority order,
// against the same original cart snapshot. A promotion contributes
// discounts only when all of its condition rules pass; a missing executor
// or a failed condition abandons that promotion immediately. Discounts
// keep promotion priority order, and declared rule order within one
// promotion. Promotions never see each other's output: each one computes
// off the original subtotal, so order-scope promotions do not compound.
func (e *Engine) Process(ctx context.Context, cart pricing.CartContext) ([]pricing.Discount, error) {
	promos, err := e.source.ActivePromotions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load active promotions")
	}

	lg := zctx.From(ctx)
	lg.Debug("Processing promotions",
		zap.Int("active", len(promos)),
		zap.String("cart_id", cart.CartID),
	)

	var discounts []pricing.Discount
	for _, promo := range promos {
		if !e.conditionsMet(promo, cart) {
			continue
		}
		for _, rule := range promo.Actions() {
			executor, ok := e.executors[rule.Key]
			if !ok {
				continue
			}
			if d := executor.ExecuteAction(rule, cart); d != nil {
				discounts = append(discounts, *d)
			}
		}
	}

	lg.Debug("Promotion discounts applied", zap.Int("count", len(discounts)))
	return discounts, nil
}

func (e *Engine) conditionsMet(promo Promotion, cart pricing.CartContext) bool {
	for _, rule := range promo.Conditions() {
		executor, ok := e.executors[rule.Key]
		if !ok || !executor.EvaluateCondition(rule, cart) {
			return false
		}
	}
	return true
}
