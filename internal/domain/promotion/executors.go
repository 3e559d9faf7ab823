package promotion

import (
	"github.com/shopspring/decimal"

	"github.com/quimera-dev/checkout-api/internal/domain/pricing"
)

// Executor interprets rules identified by a single implementation key.
// Condition executors implement EvaluateCondition and return nil from
// ExecuteAction; action executors return true from EvaluateCondition and
// produce discounts from ExecuteAction. Missing required parameters make
// a condition fail or an action produce nothing; executors never error.
type Executor interface {
	// Key returns the implementation key matched against Rule.Key.
	Key() string
	// EvaluateCondition reports whether the rule's predicate holds.
	EvaluateCondition(rule Rule, ctx pricing.CartContext) bool
	// ExecuteAction computes a discount, or nil when the rule produces
	// no strictly positive amount in the given context.
	ExecuteAction(rule Rule, ctx pricing.CartContext) *pricing.Discount
}

// Registry maps implementation keys to executors. It is built once at
// process start and read-only thereafter.
type Registry map[string]Executor

// NewRegistry builds the registry over the closed set of executors the
// engine supports.
func NewRegistry() Registry {
	executors := []Executor{
		minCartTotalCondition{},
		minQuantityCondition{},
		skuMatchCondition{},
		percentageDiscountAction{},
		fixedAmountDiscountAction{},
		skuPercentageDiscountAction{},
		skuFixedAmountDiscountAction{},
	}

	reg := make(Registry, len(executors))
	for _, e := range executors {
		reg[e.Key()] = e
	}
	return reg
}

// conditionRule provides the action no-op shared by condition executors.
type conditionRule struct{}

func (conditionRule) ExecuteAction(Rule, pricing.CartContext) *pricing.Discount { return nil }

// actionRule provides the condition no-op shared by action executors;
// actions are not gated by their own EvaluateCondition.
type actionRule struct{}

func (actionRule) EvaluateCondition(Rule, pricing.CartContext) bool { return true }

// minCartTotalCondition passes when the cart subtotal meets the numeric
// parameter "minTotal".
type minCartTotalCondition struct{ conditionRule }

func (minCartTotalCondition) Key() string { return "MinCartTotalCondition" }

func (minCartTotalCondition) EvaluateCondition(rule Rule, ctx pricing.CartContext) bool {
	threshold, ok := rule.NumericParam("minTotal")
	if !ok {
		return false
	}
	return ctx.Subtotal.GreaterThanOrEqual(threshold)
}

// minQuantityCondition passes when the total item quantity meets the
// numeric parameter "minQuantity".
type minQuantityCondition struct{ conditionRule }

func (minQuantityCondition) Key() string { return "MinQuantityCondition" }

func (minQuantityCondition) EvaluateCondition(rule Rule, ctx pricing.CartContext) bool {
	threshold, ok := rule.NumericParam("minQuantity")
	if !ok {
		return false
	}
	return ctx.TotalQuantity() >= int(threshold.IntPart())
}

// skuMatchCondition passes when the cart contains the product referenced
// by "productId" in at least "minQuantity" units (default 1).
type skuMatchCondition struct{ conditionRule }

func (skuMatchCondition) Key() string { return "SkuMatchCondition" }

func (skuMatchCondition) EvaluateCondition(rule Rule, ctx pricing.CartContext) bool {
	productID, ok := rule.ProductParam("productId")
	if !ok {
		return false
	}
	minQty := 1
	if threshold, ok := rule.NumericParam("minQuantity"); ok {
		minQty = int(threshold.IntPart())
	}
	return ctx.QuantityOf(productID) >= minQty
}

// percentageDiscountAction discounts the whole order by the numeric
// parameter "percentage" (0.10 means 10%).
type percentageDiscountAction struct{ actionRule }

func (percentageDiscountAction) Key() string { return "PercentageDiscountAction" }

func (percentageDiscountAction) ExecuteAction(rule Rule, ctx pricing.CartContext) *pricing.Discount {
	percentage, ok := rule.NumericParam("percentage")
	if !ok {
		return nil
	}
	amount := pricing.Round(ctx.Subtotal.Mul(percentage))
	return orderDiscount(rule, amount)
}

// fixedAmountDiscountAction discounts the whole order by the numeric
// parameter "amount".
type fixedAmountDiscountAction struct{ actionRule }

func (fixedAmountDiscountAction) Key() string { return "FixedAmountDiscountAction" }

func (fixedAmountDiscountAction) ExecuteAction(rule Rule, _ pricing.CartContext) *pricing.Discount {
	amount, ok := rule.NumericParam("amount")
	if !ok {
		return nil
	}
	return orderDiscount(rule, pricing.Round(amount))
}

// skuPercentageDiscountAction discounts a specific product's subtotal by
// "percentage"; requires the product reference parameter "productId".
type skuPercentageDiscountAction struct{ actionRule }

func (skuPercentageDiscountAction) Key() string { return "SkuPercentageDiscountAction" }

func (skuPercentageDiscountAction) ExecuteAction(rule Rule, ctx pricing.CartContext) *pricing.Discount {
	percentage, ok := rule.NumericParam("percentage")
	if !ok {
		return nil
	}
	productID, ok := rule.ProductParam("productId")
	if !ok {
		return nil
	}
	amount := pricing.Round(ctx.SubtotalOf(productID).Mul(percentage))
	return itemDiscount(rule, amount)
}

// skuFixedAmountDiscountAction discounts "amount" per unit of the product
// referenced by "productId", multiplied by its quantity in the cart.
type skuFixedAmountDiscountAction struct{ actionRule }

func (skuFixedAmountDiscountAction) Key() string { return "SkuFixedAmountDiscountAction" }

func (skuFixedAmountDiscountAction) ExecuteAction(rule Rule, ctx pricing.CartContext) *pricing.Discount {
	amount, ok := rule.NumericParam("amount")
	if !ok || !amount.IsPositive() {
		return nil
	}
	productID, ok := rule.ProductParam("productId")
	if !ok {
		return nil
	}
	qty := ctx.QuantityOf(productID)
	total := pricing.Round(amount.Mul(decimal.NewFromInt(int64(qty))))
	return itemDiscount(rule, total)
}

func orderDiscount(rule Rule, amount decimal.Decimal) *pricing.Discount {
	return newDiscount(rule, pricing.ScopeOrder, amount)
}

func itemDiscount(rule Rule, amount decimal.Decimal) *pricing.Discount {
	return newDiscount(rule, pricing.ScopeItem, amount)
}

func newDiscount(rule Rule, scope pricing.Scope, amount decimal.Decimal) *pricing.Discount {
	if !amount.IsPositive() {
		return nil
	}
	return &pricing.Discount{
		Code:        rule.PromoCode,
		Scope:       scope,
		Description: rule.PromoDesc,
		Amount:      amount,
	}
}
