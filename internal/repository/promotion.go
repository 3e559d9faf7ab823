package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quimera-dev/checkout-api/internal/domain/promotion"
)

const (
	listActivePromotionsSQL = `SELECT id, code, name, description, priority, active
		FROM promotions WHERE active = TRUE ORDER BY priority, code`

	listPromotionRulesSQL = `SELECT r.id, r.promotion_id, r.rule_type, r.rule_key, p.code, p.description
		FROM promotion_rules r
		JOIN promotions p ON p.id = r.promotion_id
		WHERE r.promotion_id = ANY($1)
		ORDER BY r.promotion_id, r.sort_order`

	listRuleParamsSQL = `SELECT rule_id, param_key, numeric_value, string_value, product_id
		FROM promotion_rule_params WHERE rule_id = ANY($1)
		ORDER BY rule_id, param_key`
)

var _ promotion.Source = (*PromotionRepository)(nil)

// PromotionRepository implements promotion.Source backed by PostgreSQL.
// Promotions, their rules and the rule parameters are loaded in three
// batched queries and assembled in memory.
type PromotionRepository struct {
	pool *pgxpool.Pool
}

// NewPromotionRepository returns a PromotionRepository that uses the given pool.
func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// ActivePromotions returns every active promotion with its rules, ordered
// by ascending priority.
func (r *PromotionRepository) ActivePromotions(ctx context.Context) ([]promotion.Promotion, error) {
	rows, err := r.pool.Query(ctx, listActivePromotionsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing active promotions: %w", err)
	}
	promos, err := pgx.CollectRows(rows, scanPromotion)
	if err != nil {
		return nil, fmt.Errorf("listing active promotions: %w", err)
	}
	if len(promos) == 0 {
		return nil, nil
	}

	promoIDs := make([]uuid.UUID, len(promos))
	byID := make(map[uuid.UUID]*promotion.Promotion, len(promos))
	for i := range promos {
		promoIDs[i] = promos[i].ID
		byID[promos[i].ID] = &promos[i]
	}

	rules, ruleIDs, err := r.loadRules(ctx, promoIDs)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return promos, nil
	}

	if err := r.attachParams(ctx, ruleIDs, rules); err != nil {
		return nil, err
	}

	for _, pr := range rules {
		p := byID[pr.promotionID]
		p.Rules = append(p.Rules, pr.rule)
	}
	return promos, nil
}

type promotionRule struct {
	promotionID uuid.UUID
	rule        promotion.Rule
}

func (r *PromotionRepository) loadRules(ctx context.Context, promoIDs []uuid.UUID) ([]*promotionRule, []uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, listPromotionRulesSQL, promoIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("listing promotion rules: %w", err)
	}
	rules, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*promotionRule, error) {
		var pr promotionRule
		err := row.Scan(
			&pr.rule.ID, &pr.promotionID, &pr.rule.Type, &pr.rule.Key,
			&pr.rule.PromoCode, &pr.rule.PromoDesc,
		)
		return &pr, err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("listing promotion rules: %w", err)
	}

	ruleIDs := make([]uuid.UUID, len(rules))
	for i, pr := range rules {
		ruleIDs[i] = pr.rule.ID
	}
	return rules, ruleIDs, nil
}

func (r *PromotionRepository) attachParams(ctx context.Context, ruleIDs []uuid.UUID, rules []*promotionRule) error {
	rows, err := r.pool.Query(ctx, listRuleParamsSQL, ruleIDs)
	if err != nil {
		return fmt.Errorf("listing rule params: %w", err)
	}

	type ruleParam struct {
		ruleID uuid.UUID
		param  promotion.Param
	}
	params, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ruleParam, error) {
		var rp ruleParam
		err := row.Scan(&rp.ruleID, &rp.param.Key, &rp.param.Numeric, &rp.param.Str, &rp.param.ProductID)
		return rp, err
	})
	if err != nil {
		return fmt.Errorf("listing rule params: %w", err)
	}

	byRule := make(map[uuid.UUID]*promotionRule, len(rules))
	for _, pr := range rules {
		byRule[pr.rule.ID] = pr
	}
	for _, rp := range params {
		if pr, ok := byRule[rp.ruleID]; ok {
			pr.rule.Params = append(pr.rule.Params, rp.param)
		}
	}
	return nil
}

func scanPromotion(row pgx.CollectableRow) (promotion.Promotion, error) {
	var p promotion.Promotion
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Priority, &p.Active)
	return p, err
}
