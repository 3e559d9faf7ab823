package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quimera-dev/checkout-api/internal/domain/cart"
	"github.com/quimera-dev/checkout-api/internal/domain/coupon"
	"github.com/quimera-dev/checkout-api/internal/domain/facility"
	"github.com/quimera-dev/checkout-api/internal/domain/payment"
	"github.com/quimera-dev/checkout-api/internal/domain/pricing"
	"github.com/quimera-dev/checkout-api/internal/domain/product"
	"github.com/quimera-dev/checkout-api/internal/domain/promotion"
	"github.com/quimera-dev/checkout-api/internal/domain/shipping"
)

// Service coordinates the cart, pricing rules, shipping logistics and
// coupon validation into quote and confirm operations.
type Service struct {
	carts      cart.Repository
	products   product.Repository
	payments   payment.Source
	facilities facility.Repository
	promotions *promotion.Engine
	shipping   *shipping.Service
	coupons    *coupon.Service
	orders     Repository
}

// NewService creates a checkout Service with the required collaborators.
func NewService(
	carts cart.Repository,
	products product.Repository,
	payments payment.Source,
	facilities facility.Repository,
	promotions *promotion.Engine,
	shippingSvc *shipping.Service,
	coupons *coupon.Service,
	orders Repository,
) *Service {
	return &Service{
		carts:      carts,
		products:   products,
		payments:   payments,
		facilities: facilities,
		promotions: promotions,
		shipping:   shippingSvc,
		coupons:    coupons,
		orders:     orders,
	}
}

// Quote calculates the order breakdown without persisting anything:
// no order is written and no coupon counter is touched. Calling it twice
// against unchanged data yields identical results.
func (s *Service) Quote(ctx context.Context, req Request) (*Calculation, error) {
	return s.calculate(ctx, req)
}

// Confirm runs the same calculation as Quote, then persists the order
// together with the coupon usage decrements in one transaction.
func (s *Service) Confirm(ctx context.Context, req Request) (*Order, *Calculation, error) {
	lg := zctx.From(ctx)
	lg.Info("Confirming order", zap.String("cart_id", req.CartID.String()))

	calc, err := s.calculate(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	o := &Order{
		ID:            uuid.New(),
		CartID:        calc.CartID,
		PaymentMethod: req.PaymentMethod,
		Fulfillment:   calc.Fulfillment,
		Subtotal:      calc.Subtotal,
		ShippingCost:  calc.ShippingCost,
		Total:         calc.Total,
		CouponCodes:   req.CouponCodes,
		Lines:         calc.Lines,
		Discounts:     calc.Discounts,
	}
	if err := s.orders.Create(ctx, o, calc.RedeemedCoupons); err != nil {
		return nil, nil, errors.Wrap(err, "persist order")
	}

	lg.Info("Order confirmed", zap.String("order_id", o.ID.String()))
	return o, calc, nil
}

// calculate is the shared pricing pipeline:
// load cart → price lines → promotions → payment discount → fulfillment
// → coupons → finalize.
func (s *Service) calculate(ctx context.Context, req Request) (*Calculation, error) {
	c, err := s.carts.Get(ctx, req.CartID)
	if err != nil {
		return nil, err
	}

	// Re-resolve current catalog prices in a single batch; cached cart
	// prices are never trusted.
	skus := make([]string, len(c.Items))
	for i, item := range c.Items {
		skus[i] = item.SKU
	}
	fetched, err := s.products.GetBySKUs(ctx, skus)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	bySKU := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		bySKU[p.SKU] = p
	}

	lines := make([]pricing.CartLine, 0, len(c.Items))
	subtotal := decimal.Zero
	for _, item := range c.Items {
		p, ok := bySKU[item.SKU]
		if !ok {
			return nil, &product.NotFoundError{SKU: item.SKU}
		}
		lineSubtotal := p.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineSubtotal)
		lines = append(lines, pricing.CartLine{
			ProductID: p.ID,
			SKU:       p.SKU,
			Quantity:  item.Quantity,
			UnitPrice: p.UnitPrice,
			Subtotal:  lineSubtotal,
		})
	}

	cartCtx := pricing.NewCartContext(c.ID.String(), lines, subtotal, req.PaymentMethod)
	discounts, err := s.promotions.Process(ctx, cartCtx)
	if err != nil {
		return nil, err
	}

	if d, err := s.paymentDiscount(ctx, req.PaymentMethod, subtotal.Sub(pricing.SumAmounts(discounts))); err != nil {
		return nil, err
	} else if d != nil {
		discounts = append(discounts, *d)
	}

	shippingCost, pickupAddress, fulfillment, err := s.resolveFulfillment(ctx, req, c, lines)
	if err != nil {
		return nil, err
	}

	selected, err := s.coupons.ValidateAndGetCoupons(ctx, req.CouponCodes)
	if err != nil {
		return nil, err
	}
	applied := s.coupons.ApplyCoupons(selected, subtotal.Sub(pricing.SumAmounts(discounts)), shippingCost)
	discounts = append(discounts, applied.Discounts...)
	shippingCost = applied.ShippingCost

	totalDiscount := pricing.SumAmounts(discounts)
	total := pricing.FloorAtZero(pricing.Round(subtotal.Sub(totalDiscount).Add(shippingCost)))

	return &Calculation{
		CartID:          c.ID,
		Lines:           lines,
		Subtotal:        subtotal,
		Discounts:       discounts,
		TotalDiscount:   totalDiscount,
		ShippingCost:    shippingCost,
		Total:           total,
		Fulfillment:     fulfillment,
		PickupAddress:   pickupAddress,
		RedeemedCoupons: applied.Redeemed,
	}, nil
}

// paymentDiscount computes the payment-method discount against the
// subtotal net of promotion discounts. Returns nil when no discount is
// configured or the computed amount is not strictly positive.
func (s *Service) paymentDiscount(ctx context.Context, method payment.Method, base decimal.Decimal) (*pricing.Discount, error) {
	pd, err := s.payments.DiscountByMethod(ctx, method)
	if err != nil {
		return nil, errors.Wrap(err, "payment discount lookup")
	}
	if pd == nil {
		return nil, nil
	}

	amount := decimal.Zero
	if pd.Percentage != nil {
		amount = amount.Add(base.Mul(*pd.Percentage))
	}
	if pd.Amount != nil {
		amount = amount.Add(*pd.Amount)
	}
	amount = pricing.Round(amount)
	if !amount.IsPositive() {
		return nil, nil
	}

	return &pricing.Discount{
		Code:        string(pd.Method),
		Scope:       pricing.ScopePayment,
		Description: pd.Description,
		Amount:      amount,
	}, nil
}

// resolveFulfillment decides between pickup (facility must exist and
// support pickup; shipping is free) and delivery (volumetric shipping
// cost for the cart's destination zone).
func (s *Service) resolveFulfillment(ctx context.Context, req Request, c *cart.Cart, lines []pricing.CartLine) (decimal.Decimal, *cart.Address, FulfillmentType, error) {
	if req.PickupFacilityID != nil {
		f, err := s.facilities.Get(ctx, *req.PickupFacilityID)
		if err != nil {
			return decimal.Zero, nil, "", err
		}
		if !f.PickupAvailable {
			return decimal.Zero, nil, "", facility.ErrPickupNotSupported
		}
		addr := f.LogisticsAddress
		return decimal.Zero, &addr, FulfillmentPickup, nil
	}

	zoneID := ""
	if c.ShippingAddress != nil {
		zoneID = c.ShippingAddress.ZoneID
	}
	cost, err := s.shipping.Cost(ctx, zoneID, lines)
	if err != nil {
		return decimal.Zero, nil, "", err
	}
	return cost, nil, FulfillmentDelivery, nil
}
