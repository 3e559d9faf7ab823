// Command coupon-ingest loads bulk promo-code dumps into the coupons
// table. The dumps are three gzip files of one code per line, far too
// large to hold in memory; a code is considered valid when it appears
// in at least two of the three files. Validity is established with a
// two-pass scan over per-file bloom filters, then the surviving codes
// are upserted as order coupons.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/quimera-dev/checkout-api/internal/repository"
)

const (
	bloomCapacity = 120_000_000
	bloomFPR      = 0.001
	numFiles      = 3
	progressEvery = 10_000_000
	minCodeLen    = 8
	maxCodeLen    = 10
)

// codeRule describes the coupon to create for a known promo code.
type codeRule struct {
	couponType  string
	percentage  string
	amount      string
	stackable   bool
	description string
}

var codeRules = map[string]codeRule{
	"FIFTYOFF": {couponType: "ORDER", percentage: "0.50", description: "50% off entire order"},
	"SIXTYOFF": {couponType: "ORDER", percentage: "0.60", description: "60% off entire order"},
	"GNULINUX": {couponType: "ORDER", percentage: "0.15", description: "Open source discount: 15% off"},
	"OVER9000": {couponType: "ORDER", amount: "9000", description: "CLP 9000 off your order"},
	"HAPPYHRS": {couponType: "ORDER", percentage: "0.18", description: "Happy Hours: 18% off"},
	"SHIPFREE": {couponType: "SHIPPING", stackable: true, description: "Free shipping"},
}

var defaultRule = codeRule{
	couponType:  "ORDER",
	percentage:  "0.10",
	description: "Valid promo code: 10% off",
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing couponbaseN.gz files")
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

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files := make([]string, numFiles)
	for i := range numFiles {
		files[i] = filepath.Join(dataDir, fmt.Sprintf("couponbase%d.gz", i+1))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("pass 1: building per-file bloom filters", slog.Int("files", numFiles))
	filters, err := buildFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: selecting codes present in 2+ files")
	codes, err := selectValidCodes(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "select valid codes")
	}
	slog.Info("valid codes found", slog.Int("count", len(codes)))

	if len(codes) == 0 {
		slog.Info("no valid codes to insert")
		return nil
	}

	slog.Info("connecting to database")
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return errors.Wrap(upsertCoupons(ctx, pool, codes), "write coupons to database")
}

// buildFilters streams every dump once, in parallel, and returns one
// bloom filter of its codes per file.
func buildFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
			var seen uint64

			err := scanGzLines(ctx, path, func(code string) {
				if len(code) < minCodeLen || len(code) > maxCodeLen {
					return
				}
				filter.AddString(code)
				if seen++; seen%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.Int("file", i+1), slog.Uint64("codes", seen))
				}
			})
			if err != nil {
				return errors.Wrapf(err, "build filter for file %d", i+1)
			}

			slog.Info("pass 1 complete", slog.Int("file", i+1), slog.Uint64("total_codes", seen))
			filters[i] = filter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// selectValidCodes streams each dump a second time, testing every code
// against the OTHER files' filters. Per file it records a presence
// bitmask for codes that probably also occur elsewhere; after merging
// the masks, codes set in two or more files survive. Bloom false
// positives can only add a code to the candidate map, never to the
// final set, because the mask still needs two real occurrences.
func selectValidCodes(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]string, error) {
	perFile := make([]map[string]uint, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			candidates := make(map[string]uint)
			ownBit := uint(1) << uint(i)
			var seen uint64

			err := scanGzLines(ctx, path, func(code string) {
				if len(code) < minCodeLen || len(code) > maxCodeLen {
					return
				}
				if seen++; seen%progressEvery == 0 {
					slog.Info("pass 2 progress", slog.Int("file", i+1), slog.Uint64("codes", seen))
				}
				for j, other := range filters {
					if j == i {
						continue
					}
					if other.TestString(code) {
						candidates[code] |= ownBit
						break
					}
				}
			})
			if err != nil {
				return errors.Wrapf(err, "scan file %d for candidates", i+1)
			}

			slog.Info("pass 2 complete",
				slog.Int("file", i+1),
				slog.Uint64("total_codes", seen),
				slog.Int("candidates", len(candidates)),
			)
			perFile[i] = candidates
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]uint)
	for _, candidates := range perFile {
		for code, mask := range candidates {
			merged[code] |= mask
		}
	}

	var valid []string
	for code, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			valid = append(valid, code)
		}
	}
	return valid, nil
}

// scanGzLines feeds every line of a gzip file to fn, checking for
// cancellation between lines.
func scanGzLines(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}
	return errors.Wrapf(scanner.Err(), "scan %s", path)
}

const upsertCouponSQL = `
INSERT INTO coupons (id, code, description, coupon_type, percentage, amount, active, stackable)
VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)
ON CONFLICT (UPPER(code)) DO UPDATE SET
    description = EXCLUDED.description,
    coupon_type = EXCLUDED.coupon_type,
    percentage  = EXCLUDED.percentage,
    amount      = EXCLUDED.amount,
    active      = EXCLUDED.active,
    stackable   = EXCLUDED.stackable
`

// upsertCoupons writes every surviving code, re-running after a crash
// is safe because existing rows are overwritten in place.
func upsertCoupons(ctx context.Context, pool *pgxpool.Pool, codes []string) error {
	slog.Info("writing coupons to database", slog.Int("count", len(codes)))

	for i, code := range codes {
		rule, ok := codeRules[code]
		if !ok {
			rule = defaultRule
		}

		percentage, err := parseOptionalDecimal(rule.percentage)
		if err != nil {
			return errors.Wrapf(err, "parse percentage for code %s", code)
		}
		amount, err := parseOptionalDecimal(rule.amount)
		if err != nil {
			return errors.Wrapf(err, "parse amount for code %s", code)
		}

		if _, err := pool.Exec(ctx, upsertCouponSQL,
			uuid.New(), code, rule.description, rule.couponType,
			percentage, amount, rule.stackable,
		); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", code)
		}

		if (i+1)%100 == 0 || i+1 == len(codes) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(codes)))
		}
	}
	return nil
}

func parseOptionalDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
