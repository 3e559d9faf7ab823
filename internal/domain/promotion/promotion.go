// Package promotion implements the rule-based promotion engine. A
// promotion is a prioritized bundle of condition and action rules;
// conditions gate whether the actions run, actions produce discounts.
package promotion

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleType distinguishes gating rules from discount-producing rules.
type RuleType string

const (
	RuleCondition RuleType = "CONDITION"
	RuleAction    RuleType = "ACTION"
)

// Promotion is a named, prioritized bundle of rules evaluated
// automatically against every cart. Lower priority values run first.
type Promotion struct {
	ID          uuid.UUID
	Code        string
	Name        string
	Description string
	Priority    int
	Active      bool
	Rules       []Rule
}

// Conditions returns the promotion's condition rules in declared order.
func (p Promotion) Conditions() []Rule {
	return p.rulesOfType(RuleCondition)
}

// Actions returns the promotion's action rules in declared order.
func (p Promotion) Actions() []Rule {
	return p.rulesOfType(RuleAction)
}

func (p Promotion) rulesOfType(t RuleType) []Rule {
	var out []Rule
	for _, r := range p.Rules {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

// Rule is a single condition or action. Key selects the executor that
// interprets it; rules whose key matches no registered executor are
// skipped, never fatal.
type Rule struct {
	ID        uuid.UUID
	Type      RuleType
	Key       string
	Params    []Param
	PromoCode string
	PromoDesc string
}

// Param is a named argument to a rule. Exactly the fields relevant to
// its key are populated.
type Param struct {
	Key       string
	Numeric   *decimal.Decimal
	Str       *string
	ProductID *uuid.UUID
}

// NumericParam returns the numeric value of the named parameter. The
// second return is false when the parameter is absent or carries no
// numeric value.
func (r Rule) NumericParam(key string) (decimal.Decimal, bool) {
	for _, p := range r.Params {
		if p.Key == key && p.Numeric != nil {
			return *p.Numeric, true
		}
	}
	return decimal.Zero, false
}

// StringParam returns the string value of the named parameter.
func (r Rule) StringParam(key string) (string, bool) {
	for _, p := range r.Params {
		if p.Key == key && p.Str != nil {
			return *p.Str, true
		}
	}
	return "", false
}

// ProductParam returns the product reference of the named parameter.
func (r Rule) ProductParam(key string) (uuid.UUID, bool) {
	for _, p := range r.Params {
		if p.Key == key && p.ProductID != nil {
			return *p.ProductID, true
		}
	}
	return uuid.Nil, false
}

// Source provides the active promotions, ordered by ascending priority.
// Ties are broken by the source's stable iteration order.
type Source interface {
	ActivePromotions(ctx context.Context) ([]Promotion, error)
}
