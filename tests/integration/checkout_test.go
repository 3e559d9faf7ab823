//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
)

// Seeded context for the expected values below:
//
//	p-001 costs 10000 (volume 100), p-010 costs 5000 (volume 900),
//	p-003 costs 20000 (volume 1000).
//	PROMO_10 takes 10% off every order; PROMO_SKU_p-010 takes 50% off
//	p-010 lines; PROMO_5000_OFF takes 5000 off orders of 50000+.
//	CREDIT gets a fixed 2000 off, DEBIT 10% off the promoted subtotal.
//	Zone-1 is 5 km from the nearest facility, zone-2 is 12 km.
//	Size XS (volume <= 1000) ships for 1000 + 50/km, S for 2000 + 100/km.

func TestQuote_Delivery(t *testing.T) {
	cartID := createCart(t, "zone-1", map[string]int{"p-001": 1})

	resp := doPost(t, "/v1/checkout/quote", checkoutRequest{CartID: cartID, PaymentMethod: "CREDIT"})
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusOK)

	calc := decodeJSON[calculationResponse](t, resp)
	requireAmount(t, "subtotal", "10000", calc.Subtotal)
	// PROMO_10 (1000) + CREDIT (2000).
	requireAmount(t, "totalDiscount", "3000", calc.TotalDiscount)
	// XS: 1000 + 50 * 5 km.
	requireAmount(t, "shippingCost", "1250", calc.ShippingCost)
	requireAmount(t, "total", "8250", calc.Total)

	if calc.Fulfillment != "DELIVERY" {
		t.Errorf("fulfillment: got %q, want DELIVERY", calc.Fulfillment)
	}
	if calc.PickupAddress != nil {
		t.Error("pickupAddress present on a delivery quote")
	}
}

func TestQuote_SkuPromotion(t *testing.T) {
	cartID := createCart(t, "zone-1", map[string]int{"p-010": 2})

	resp := doPost(t, "/v1/checkout/quote", checkoutRequest{CartID: cartID, PaymentMethod: "CREDIT"})
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusOK)

	calc := decodeJSON[calculationResponse](t, resp)
	requireAmount(t, "subtotal", "10000", calc.Subtotal)
	// PROMO_10 (1000) + PROMO_SKU_p-010 (5000) + CREDIT (2000).
	requireAmount(t, "totalDiscount", "8000", calc.TotalDiscount)
	// S: 2000 + 100 * 5 km for volume 1800.
	requireAmount(t, "shippingCost", "2500", calc.ShippingCost)
	requireAmount(t, "total", "4500", calc.Total)
}

func TestQuote_HighValueCart(t *testing.T) {
	cartID := createCart(t, "zone-2", map[string]int{"p-003": 3})

	resp := doPost(t, "/v1/checkout/quote", checkoutRequest{CartID: cartID, PaymentMethod: "DEBIT"})
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusOK)

	calc := decodeJSON[calculationResponse](t, resp)
	requireAmount(t, "subtotal", "60000", calc.Subtotal)
	// PROMO_10 (6000) + PROMO_5000_OFF (5000) + DEBIT 10% of 49000 (4900).
	requireAmount(t, "totalDiscount", "15900", calc.TotalDiscount)
	// S: 2000 + 100 * 12 km.
	requireAmount(t, "shippingCost", "3200", calc.ShippingCost)
	requireAmount(t, "total", "47300", calc.Total)
}

func TestQuote_OrderCoupon(t *testing.T) {
	cartID := createCart(t, "zone-2", map[string]int{"p-003": 2})

	resp := doPost(t, "/v1/checkout/quote", checkoutRequest{
		CartID:        cartID,
		PaymentMethod: "DEBIT",
		CouponCodes:   []string{"10desc"},
	})
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusOK)

	calc := decodeJSON[calculationResponse](t, resp)
	requireAmount(t, "subtotal", "40000", calc.Subtotal)
	// PROMO_10 (4000) + DEBIT 10% of 36000 (3600) + 10DESC 10% of 32400 (3240).
	requireAmount(t, "totalDiscount", "10840", calc.TotalDiscount)
	requireAmount(t, "shippingCost", "3200", calc.ShippingCost)
	requireAmount(t, "total", "32360", calc.Total)
}

func TestQuote_FreeShippingCoupon(t *testing.T) {
	cartID := createCart(t, "zone-1", map[string]int{"p-001": 1})

	resp := doPost(t, "/v1/checkout/quote", checkoutRequest{
		CartID:        cartID,
		PaymentMethod: "CREDIT",
		CouponCodes:   []string{"FREE_SHIPPING"},
	})
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusOK)

	calc := decodeJSON[calculationResponse](t, resp)
	// The waived shipping (1250) counts as a discount on top of
	// PROMO_10 (1000) and CREDIT (2000).
	requireAmount(t, "totalDiscount", "4250", calc.TotalDiscount)
	requireAmount(t, "shippingCost", "0", calc.ShippingCost)
	requireAmount(t, "total", "5750", calc.Total)
}

func TestQuote_StackedCoupons(t *testing.T) {
	cartID := createCart(t, "zone-1", map[string]int{"p-001": 1})

	resp := doPost(t, "/v1/checkout/quote", checkoutRequest{
		CartID:        cartID,
		PaymentMethod: "CREDIT",
		CouponCodes:   []string{"10DESC", "FREE_SHIPPING"},
	})
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusOK)

	calc := decodeJSON[calculationResponse](t, resp)
	// PROMO_10 (1000) + CREDIT (2000) + 10DESC 10% of 7000 (700)
	// + waived shipping (1250).
	requireAmount(t, "totalDiscount", "4950", calc.TotalDiscount)
	requireAmount(t, "total", "5050", calc.Total)
}

func TestQuote_UnknownCouponIgnored(t *testing.T) {
	cartID := createCart(t, "zone-1", map[string]int{"p-001": 1})

	resp := doPost(t, "/v1/checkout/quote", checkoutRequest{
		CartID:        cartID,
		PaymentMethod: "CREDIT",
		CouponCodes:   []string{"NOSUCHCODE"},
	})
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusOK)

	calc := decodeJSON[calculationResponse](t, resp)
	requireAmount(t, "total", "8250", calc.Total)
}

func TestQuote_Pickup(t *testing.T) {
	store := findFacility(t, "StoreCentral")
	cartID := createCart(t, "zone-1", map[string]int{"p-001": 1})

	resp := doPost(t, "/v1/checkout/quote", checkoutRequest{
		CartID:           cartID,
		PaymentMethod:    "CREDIT",
		PickupFacilityID: store.ID,
	})
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusOK)

	calc := decodeJSON[calculationResponse](t, resp)
	requireAmount(t, "shippingCost", "0", calc.ShippingCost)
	requireAmount(t, "total", "7000", calc.Total)

	if calc.Fulfillment != "PICKUP" {
		t.Errorf("fulfillment: got %q, want PICKUP", calc.Fulfillment)
	}
	if calc.PickupAddress == nil || calc.PickupAddress.Street != "StoreCentral Address" {
		t.Errorf("pickupAddress: got %+v, want StoreCentral Address", calc.PickupAddress)
	}
}

func TestQuote_PickupNotSupported(t *testing.T) {
	warehouse := findFacility(t, "WarehouseNorth")
	cartID := createCart(t, "zone-1", map[string]int{"p-001": 1})

	resp := doPost(t, "/v1/checkout/quote", checkoutRequest{
		CartID:           cartID,
		PaymentMethod:    "CREDIT",
		PickupFacilityID: warehouse.ID,
	})
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestQuote_UnknownCart(t *testing.T) {
	resp := doPost(t, "/v1/checkout/quote", checkoutRequest{
		CartID:        "00000000-0000-0000-0000-000000000001",
		PaymentMethod: "CREDIT",
	})
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusNotFound)
}

func TestQuote_InvalidPaymentMethod(t *testing.T) {
	cartID := createCart(t, "zone-1", map[string]int{"p-001": 1})

	resp := doPost(t, "/v1/checkout/quote", checkoutRequest{CartID: cartID, PaymentMethod: "BITCOIN"})
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusBadRequest)
}

func TestConfirm_PersistsOrder(t *testing.T) {
	cartID := createCart(t, "zone-1", map[string]int{"p-001": 1})

	resp := doPost(t, "/v1/checkout/confirm", checkoutRequest{CartID: cartID, PaymentMethod: "CREDIT"})
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusCreated)

	order := decodeJSON[confirmResponse](t, resp)
	if order.OrderID == "" {
		t.Fatal("orderId missing")
	}
	requireAmount(t, "total", "8250", order.Total)
}

// TestConfirm_LimitedCoupon creates a single-use coupon through the admin
// API and verifies that quoting never consumes it, that confirming does,
// and that the second confirmation is rejected.
func TestConfirm_LimitedCoupon(t *testing.T) {
	pct := decimal.RequireFromString("0.10")
	uses := int32(1)
	createResp := doPost(t, "/v1/coupons", couponBody{
		Code:          "ONETIME-IT",
		Description:   "single use integration coupon",
		Type:          "ORDER",
		Percentage:    &pct,
		Active:        true,
		RemainingUses: &uses,
	})
	requireStatus(t, createResp, http.StatusCreated)
	createResp.Body.Close()

	cartID := createCart(t, "zone-1", map[string]int{"p-001": 1})
	req := checkoutRequest{CartID: cartID, PaymentMethod: "CREDIT", CouponCodes: []string{"ONETIME-IT"}}

	// Quotes are free of side effects, any number of them may run first.
	for range 2 {
		resp := doPost(t, "/v1/checkout/quote", req)
		requireStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	}

	resp := doPost(t, "/v1/checkout/confirm", req)
	requireStatus(t, resp, http.StatusCreated)
	order := decodeJSON[confirmResponse](t, resp)
	resp.Body.Close()
	// PROMO_10 (1000) + CREDIT (2000) + ONETIME-IT 10% of 7000 (700).
	requireAmount(t, "total", "7550", order.Total)

	second := doPost(t, "/v1/checkout/confirm", req)
	defer second.Body.Close()
	requireStatus(t, second, http.StatusConflict)
}
