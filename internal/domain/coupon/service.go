package coupon

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/quimera-dev/checkout-api/internal/domain/pricing"
)

// Service normalizes, validates and selects coupons from user-supplied
// codes, and applies the selected coupons to an order.
type Service struct {
	repo Repository

	// knownCodes optionally pre-filters candidate codes before the
	// database round-trip. False positives fall through to the exact
	// lookup, so the filter never changes behavior. Guarded by mu since
	// the bloom filter itself is not safe for concurrent use.
	mu         sync.RWMutex
	knownCodes *bloom.BloomFilter

	now func() time.Time
}

// NewService creates a coupon Service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// UseCodeFilter installs a bloom filter of known coupon codes. Codes
// that miss the filter are discarded without querying the repository.
func (s *Service) UseCodeFilter(filter *bloom.BloomFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.knownCodes = filter
}

// RegisterCode adds a newly created coupon code to the filter so it is
// never rejected before the exact lookup. No-op when no filter is
// installed.
func (s *Service) RegisterCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.knownCodes != nil {
		s.knownCodes.AddString(strings.ToUpper(strings.TrimSpace(code)))
	}
}

// codeKnown reports whether the code may exist. Always true when no
// filter is installed.
func (s *Service) codeKnown(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.knownCodes == nil || s.knownCodes.TestString(code)
}

// ValidateAndGetCoupons normalizes the raw codes and returns the coupons
// that apply, in application order.
//
// Normalization trims, upper-cases, drops blanks and deduplicates while
// preserving first occurrence; that order is the user's priority order.
// Candidates must be active, unexpired and not exhausted. At most one
// coupon per type is selected, chosen by earliest user priority. At most
// one non-stackable coupon survives: once one is kept, every later
// non-stackable coupon is dropped regardless of type.
func (s *Service) ValidateAndGetCoupons(ctx context.Context, codes []string) ([]Coupon, error) {
	normalized := s.normalize(codes)
	if len(normalized) == 0 {
		return nil, nil
	}

	candidates, err := s.repo.FindByCodes(ctx, normalized)
	if err != nil {
		return nil, errors.Wrap(err, "find coupons")
	}

	now := s.now()
	valid := make(map[string]Coupon, len(candidates))
	for _, c := range candidates {
		if !c.Active {
			continue
		}
		if c.Expiry != nil && !c.Expiry.After(now) {
			continue
		}
		if c.RemainingUses != nil && *c.RemainingUses <= 0 {
			continue
		}
		valid[strings.ToUpper(c.Code)] = c
	}

	// One coupon per type, earliest user-specified code wins.
	var chosen []Coupon
	typeTaken := make(map[Type]bool)
	for _, code := range normalized {
		c, ok := valid[code]
		if !ok || typeTaken[c.Type] {
			continue
		}
		typeTaken[c.Type] = true
		chosen = append(chosen, c)
	}

	// Global stackability: the first non-stackable coupon locks out all
	// later non-stackable ones.
	result := chosen[:0]
	nonStackableKept := false
	for _, c := range chosen {
		if !c.Stackable {
			if nonStackableKept {
				continue
			}
			nonStackableKept = true
		}
		result = append(result, c)
	}
	return result, nil
}

// normalize trims, upper-cases, drops blanks and deduplicates the codes,
// preserving first-occurrence order. When a code filter is installed,
// unknown codes are dropped here as well.
func (s *Service) normalize(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, raw := range codes {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		if !s.codeKnown(code) {
			continue
		}
		out = append(out, code)
	}
	return out
}

// ApplyResult is the outcome of applying coupons to an order.
type ApplyResult struct {
	// Discounts lists the emitted discounts in application order.
	Discounts []pricing.Discount
	// ShippingCost is the shipping cost after coupon application; a
	// shipping coupon zeroes it.
	ShippingCost decimal.Decimal
	// Redeemed lists the codes of applied limited-use coupons. The
	// confirm flow decrements their counters atomically with the order
	// write; a quote never touches them.
	Redeemed []string
}

// ApplyCoupons applies the selected coupons, in selection order, against
// the order total (after promotions and payment discount) and the
// current shipping cost. It is a pure computation: usage counters are
// reported in Redeemed, never decremented here.
func (s *Service) ApplyCoupons(coupons []Coupon, orderTotal, shippingCost decimal.Decimal) ApplyResult {
	result := ApplyResult{ShippingCost: shippingCost}

	for _, c := range coupons {
		description := c.Description
		if description == "" {
			description = "Coupon " + c.Code
		}

		switch c.Type {
		case TypeShipping:
			if !result.ShippingCost.IsPositive() {
				continue
			}
			result.Discounts = append(result.Discounts, pricing.Discount{
				Code:        c.Code,
				Scope:       pricing.ScopeShipping,
				Description: description,
				Amount:      pricing.Round(result.ShippingCost),
			})
			result.ShippingCost = decimal.Zero
			result.recordRedemption(c)

		case TypeOrder:
			amount := decimal.Zero
			if c.Percentage != nil {
				amount = amount.Add(orderTotal.Mul(*c.Percentage))
			}
			if c.Amount != nil {
				amount = amount.Add(*c.Amount)
			}
			amount = pricing.Round(amount)
			if !amount.IsPositive() {
				continue
			}
			result.Discounts = append(result.Discounts, pricing.Discount{
				Code:        c.Code,
				Scope:       pricing.ScopeOrder,
				Description: description,
				Amount:      amount,
			})
			result.recordRedemption(c)
		}
	}
	return result
}

func (r *ApplyResult) recordRedemption(c Coupon) {
	if c.LimitedUse() {
		r.Redeemed = append(r.Redeemed, c.Code)
	}
}
