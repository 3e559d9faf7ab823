//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
)

func TestListCoupons(t *testing.T) {
	resp := doGet(t, "/v1/coupons")
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusOK)

	coupons := decodeJSON[[]couponBody](t, resp)
	byCode := make(map[string]couponBody, len(coupons))
	for _, c := range coupons {
		byCode[c.Code] = c
	}

	for _, code := range []string{"10DESC", "20DESC", "FREE_SHIPPING"} {
		if _, ok := byCode[code]; !ok {
			t.Errorf("seeded coupon %s missing", code)
		}
	}
}

func TestGetCoupon(t *testing.T) {
	resp := doGet(t, "/v1/coupons/10DESC")
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusOK)

	c := decodeJSON[couponBody](t, resp)
	if c.Type != "ORDER" {
		t.Errorf("type: got %q, want ORDER", c.Type)
	}
	if c.Percentage == nil {
		t.Fatal("percentage missing")
	}
	requireAmount(t, "percentage", "0.1", *c.Percentage)
	if !c.Active {
		t.Error("coupon inactive")
	}
}

func TestGetCoupon_NotFound(t *testing.T) {
	resp := doGet(t, "/v1/coupons/NOPE")
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusNotFound)
}

func TestCreateCoupon_DuplicateCode(t *testing.T) {
	pct := decimal.RequireFromString("0.10")
	resp := doPost(t, "/v1/coupons", couponBody{
		Code: "10desc", Type: "ORDER", Percentage: &pct, Active: true,
	})
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusConflict)
}

func TestCouponLifecycle(t *testing.T) {
	amount := decimal.RequireFromString("1500")

	resp := doPost(t, "/v1/coupons", couponBody{
		Code:        "lifecycle",
		Description: "fixed amount test coupon",
		Type:        "ORDER",
		Amount:      &amount,
		Active:      true,
	})
	requireStatus(t, resp, http.StatusCreated)
	created := decodeJSON[couponBody](t, resp)
	resp.Body.Close()

	// Codes are normalized to upper case on creation.
	if created.Code != "LIFECYCLE" {
		t.Fatalf("code: got %q, want LIFECYCLE", created.Code)
	}
	if !uuidPattern.MatchString(created.ID) {
		t.Fatalf("id: got %q, want a UUID", created.ID)
	}

	// Update requests carry attributes only; id and code are immutable.
	putResp := doRequest(t, http.MethodPut, "/v1/coupons/LIFECYCLE", struct {
		Description string           `json:"description"`
		Type        string           `json:"type"`
		Amount      *decimal.Decimal `json:"amount"`
		Active      bool             `json:"active"`
	}{
		Description: created.Description,
		Type:        created.Type,
		Amount:      created.Amount,
		Active:      false,
	})
	requireStatus(t, putResp, http.StatusOK)
	afterUpdate := decodeJSON[couponBody](t, putResp)
	putResp.Body.Close()
	if afterUpdate.Active {
		t.Error("coupon still active after update")
	}

	delResp := doRequest(t, http.MethodDelete, "/v1/coupons/LIFECYCLE", nil)
	requireStatus(t, delResp, http.StatusNoContent)
	delResp.Body.Close()

	getResp := doGet(t, "/v1/coupons/LIFECYCLE")
	defer getResp.Body.Close()
	requireStatus(t, getResp, http.StatusNotFound)
}
