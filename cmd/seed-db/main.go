// Command seed-db populates a development database with baseline
// reference data: products with dimensions, size categories, shipping
// rates, facilities with zone distances, promotions, payment discounts,
// coupons and a few demo carts. Every section is skipped when its table
// already holds rows, so the command is safe to re-run.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/quimera-dev/checkout-api/internal/repository"
)

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	s := seeder{pool: pool}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"products", s.seedProducts},
		{"size categories", s.seedSizeCategories},
		{"shipping rates", s.seedShippingRates},
		{"facilities", s.seedFacilities},
		{"promotions", s.seedPromotions},
		{"payment discounts", s.seedPaymentDiscounts},
		{"coupons", s.seedCoupons},
		{"demo carts", s.seedDemoCarts},
	}

	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return errors.Wrap(err, "seed "+step.name)
		}
	}

	return nil
}

type seeder struct {
	pool *pgxpool.Pool
}

// tableEmpty reports whether a section should run. Sections never merge
// into existing data; rows edited by hand stay untouched.
func (s seeder) tableEmpty(ctx context.Context, table string) (bool, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM "+table).Scan(&count); err != nil {
		return false, errors.Wrapf(err, "count %s", table)
	}
	return count == 0, nil
}

func num(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T { return &v }

func (s seeder) seedProducts(ctx context.Context) error {
	empty, err := s.tableEmpty(ctx, "products")
	if err != nil || !empty {
		return err
	}

	products := []struct {
		sku                  string
		name                 string
		price                decimal.Decimal
		height, width, depth decimal.Decimal
	}{
		{"p-001", "Compact Speaker", num("10000"), num("10"), num("5"), num("2")},
		{"p-010", "Mechanical Keyboard", num("5000"), num("15"), num("20"), num("3")},
		{"p-003", "Studio Monitor", num("20000"), num("25"), num("10"), num("4")},
	}

	for _, p := range products {
		id := uuid.New()
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO products (id, sku, name, unit_price) VALUES ($1, $2, $3, $4)`,
			id, p.sku, p.name, p.price,
		); err != nil {
			return errors.Wrapf(err, "insert product %s", p.sku)
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO product_dimensions (product_id, height, width, depth) VALUES ($1, $2, $3, $4)`,
			id, p.height, p.width, p.depth,
		); err != nil {
			return errors.Wrapf(err, "insert dimensions for %s", p.sku)
		}

		slog.Info("seeded product", slog.String("sku", p.sku), slog.String("price", p.price.String()))
	}

	return nil
}

func (s seeder) seedSizeCategories(ctx context.Context) error {
	empty, err := s.tableEmpty(ctx, "shipping_size_categories")
	if err != nil || !empty {
		return err
	}

	categories := []struct {
		name string
		min  decimal.Decimal
		max  *decimal.Decimal
	}{
		{"XS", num("0"), ptr(num("1000"))},
		{"S", num("1001"), ptr(num("10000"))},
		{"M", num("10001"), ptr(num("50000"))},
		{"L", num("50001"), ptr(num("100000"))},
		{"XL", num("100001"), nil},
	}

	for _, c := range categories {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO shipping_size_categories (id, name, min_volume, max_volume) VALUES ($1, $2, $3, $4)`,
			uuid.New(), c.name, c.min, c.max,
		); err != nil {
			return errors.Wrapf(err, "insert size category %s", c.name)
		}
	}

	slog.Info("seeded size categories", slog.Int("count", len(categories)))

	return nil
}

func (s seeder) seedShippingRates(ctx context.Context) error {
	empty, err := s.tableEmpty(ctx, "shipping_rates")
	if err != nil || !empty {
		return err
	}

	rates := []struct {
		category string
		base     decimal.Decimal
		perKm    decimal.Decimal
	}{
		{"XS", num("1000"), num("50")},
		{"S", num("2000"), num("100")},
		{"M", num("3000"), num("150")},
		{"L", num("4000"), num("200")},
		{"XL", num("5000"), num("250")},
	}

	for _, r := range rates {
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO shipping_rates (category_id, base_cost, cost_per_km)
			 SELECT id, $2, $3 FROM shipping_size_categories WHERE name = $1`,
			r.category, r.base, r.perKm,
		)
		if err != nil {
			return errors.Wrapf(err, "insert rate for %s", r.category)
		}
		if tag.RowsAffected() == 0 {
			slog.Warn("size category missing, rate skipped", slog.String("category", r.category))
		}
	}

	slog.Info("seeded shipping rates", slog.Int("count", len(rates)))

	return nil
}

func (s seeder) seedFacilities(ctx context.Context) error {
	empty, err := s.tableEmpty(ctx, "facilities")
	if err != nil || !empty {
		return err
	}

	zones := []string{"zone-1", "zone-2", "zone-3"}

	facilities := []struct {
		name      string
		kind      string
		zoneID    string
		pickup    bool
		distances [3]string // km to zone-1, zone-2, zone-3
	}{
		{"WarehouseNorth", "WAREHOUSE", "zone-1", false, [3]string{"10", "20", "30"}},
		{"DistributionCenterWest", "DISTRIBUTION_CENTER", "zone-2", true, [3]string{"15", "12", "25"}},
		{"StoreCentral", "STORE", "zone-3", true, [3]string{"5", "30", "40"}},
	}

	for _, f := range facilities {
		id := uuid.New()
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO facilities (id, name, facility_type, pickup_available, street, city, zone_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, f.name, f.kind, f.pickup, f.name+" Address", "City", f.zoneID,
		); err != nil {
			return errors.Wrapf(err, "insert facility %s", f.name)
		}

		for i, zone := range zones {
			if _, err := s.pool.Exec(ctx,
				`INSERT INTO facility_zones (facility_id, zone_id, distance_km) VALUES ($1, $2, $3)`,
				id, zone, num(f.distances[i]),
			); err != nil {
				return errors.Wrapf(err, "insert zone distance %s/%s", f.name, zone)
			}
		}

		slog.Info("seeded facility", slog.String("name", f.name), slog.Bool("pickup", f.pickup))
	}

	return nil
}

type seedRule struct {
	kind      string
	key       string
	numeric   map[string]string
	productID *uuid.UUID
}

func (s seeder) seedPromotions(ctx context.Context) error {
	empty, err := s.tableEmpty(ctx, "promotions")
	if err != nil || !empty {
		return err
	}

	if err := s.insertPromotion(ctx, "PROMO_10", "10% off order", 1, []seedRule{
		{kind: "ACTION", key: "PercentageDiscountAction", numeric: map[string]string{"percentage": "0.10"}},
	}); err != nil {
		return err
	}

	var promoProductID uuid.UUID
	switch err := s.pool.QueryRow(ctx, `SELECT id FROM products WHERE sku = $1`, "p-010").Scan(&promoProductID); {
	case err == nil:
		if err := s.insertPromotion(ctx, "PROMO_SKU_p-010", "50% off SKU p-010", 2, []seedRule{
			{kind: "CONDITION", key: "SkuMatchCondition", productID: &promoProductID},
			{kind: "ACTION", key: "SkuPercentageDiscountAction", numeric: map[string]string{"percentage": "0.50"}, productID: &promoProductID},
		}); err != nil {
			return err
		}
	case errors.Is(err, pgx.ErrNoRows):
		slog.Warn("product p-010 missing, SKU promotion skipped")
	default:
		return errors.Wrap(err, "look up p-010")
	}

	if err := s.insertPromotion(ctx, "PROMO_5000_OFF", "CLP 5000 off orders 50k+", 3, []seedRule{
		{kind: "CONDITION", key: "MinCartTotalCondition", numeric: map[string]string{"minTotal": "50000"}},
		{kind: "ACTION", key: "FixedAmountDiscountAction", numeric: map[string]string{"amount": "5000"}},
	}); err != nil {
		return err
	}

	slog.Info("seeded promotions", slog.Int("count", 3))

	return nil
}

func (s seeder) insertPromotion(ctx context.Context, code, name string, priority int, rules []seedRule) error {
	promoID := uuid.New()
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO promotions (id, code, name, description, priority, active)
		 VALUES ($1, $2, $3, $4, $5, TRUE)`,
		promoID, code, name, name, priority,
	); err != nil {
		return errors.Wrapf(err, "insert promotion %s", code)
	}

	for i, r := range rules {
		ruleID := uuid.New()
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO promotion_rules (id, promotion_id, rule_type, rule_key, sort_order)
			 VALUES ($1, $2, $3, $4, $5)`,
			ruleID, promoID, r.kind, r.key, i,
		); err != nil {
			return errors.Wrapf(err, "insert rule %s/%s", code, r.key)
		}

		for k, v := range r.numeric {
			if _, err := s.pool.Exec(ctx,
				`INSERT INTO promotion_rule_params (rule_id, param_key, numeric_value) VALUES ($1, $2, $3)`,
				ruleID, k, num(v),
			); err != nil {
				return errors.Wrapf(err, "insert param %s/%s", code, k)
			}
		}
		if r.productID != nil {
			if _, err := s.pool.Exec(ctx,
				`INSERT INTO promotion_rule_params (rule_id, param_key, product_id) VALUES ($1, $2, $3)`,
				ruleID, "productId", *r.productID,
			); err != nil {
				return errors.Wrapf(err, "insert product param %s", code)
			}
		}
	}

	return nil
}

func (s seeder) seedPaymentDiscounts(ctx context.Context) error {
	empty, err := s.tableEmpty(ctx, "payment_discounts")
	if err != nil || !empty {
		return err
	}

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO payment_discounts (method, percentage, description) VALUES ($1, $2, $3)`,
		"DEBIT", num("0.10"), "10% discount for debit",
	); err != nil {
		return errors.Wrap(err, "insert debit discount")
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO payment_discounts (method, amount, description) VALUES ($1, $2, $3)`,
		"CREDIT", num("2000"), "2000 CLP discount for credit",
	); err != nil {
		return errors.Wrap(err, "insert credit discount")
	}

	slog.Info("seeded payment discounts", slog.Int("count", 2))

	return nil
}

func (s seeder) seedCoupons(ctx context.Context) error {
	empty, err := s.tableEmpty(ctx, "coupons")
	if err != nil || !empty {
		return err
	}

	coupons := []struct {
		code       string
		kind       string
		percentage *decimal.Decimal
		stackable  bool
	}{
		{"10DESC", "ORDER", ptr(num("0.10")), false},
		{"20DESC", "ORDER", ptr(num("0.20")), false},
		{"FREE_SHIPPING", "SHIPPING", nil, true},
	}

	for _, c := range coupons {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO coupons (id, code, description, coupon_type, percentage, active, stackable)
			 VALUES ($1, $2, $3, $4, $5, TRUE, $6)`,
			uuid.New(), c.code, "Coupon "+c.code, c.kind, c.percentage, c.stackable,
		); err != nil {
			return errors.Wrapf(err, "insert coupon %s", c.code)
		}

		slog.Info("seeded coupon", slog.String("code", c.code), slog.String("type", c.kind))
	}

	return nil
}

// seedDemoCarts creates carts that each exercise a different pricing
// path: the SKU promotion, the minimum-total promotion and a mixed cart
// for shipping. Their ids are logged for manual testing.
func (s seeder) seedDemoCarts(ctx context.Context) error {
	empty, err := s.tableEmpty(ctx, "carts")
	if err != nil || !empty {
		return err
	}

	carts := []struct {
		label  string
		zoneID string
		items  map[string]int
	}{
		{"demo promo sku", "zone-1", map[string]int{"p-010": 2}},
		{"demo high value", "zone-2", map[string]int{"p-003": 3}},
		{"demo mixed items", "zone-3", map[string]int{"p-001": 1, "p-010": 1, "p-003": 1}},
	}

	for _, c := range carts {
		cartID := uuid.New()
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO carts (id, street, city, zone_id) VALUES ($1, $2, $3, $4)`,
			cartID, "Demo Street 123", "Demo City", c.zoneID,
		); err != nil {
			return errors.Wrapf(err, "insert cart %s", c.label)
		}

		for sku, qty := range c.items {
			tag, err := s.pool.Exec(ctx,
				`INSERT INTO cart_items (cart_id, product_id, sku, quantity)
				 SELECT $1, id, sku, $3 FROM products WHERE sku = $2`,
				cartID, sku, qty,
			)
			if err != nil {
				return errors.Wrapf(err, "insert cart item %s", sku)
			}
			if tag.RowsAffected() == 0 {
				slog.Warn("product missing, cart item skipped", slog.String("sku", sku))
			}
		}

		slog.Info("seeded demo cart",
			slog.String("label", c.label),
			slog.String("zone", c.zoneID),
			slog.String("id", cartID.String()),
		)
	}

	return nil
}
