//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/v1/products")
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusOK)

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}
}

func TestGetProduct(t *testing.T) {
	resp := doGet(t, "/v1/products/p-001")
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusOK)

	p := decodeJSON[productResponse](t, resp)
	if p.SKU != "p-001" {
		t.Errorf("sku: got %q, want p-001", p.SKU)
	}
	if p.Name == "" {
		t.Error("name is empty")
	}
	requireAmount(t, "unitPrice", "10000", p.UnitPrice)
	if !uuidPattern.MatchString(p.ID) {
		t.Errorf("id: got %q, want a UUID", p.ID)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/v1/products/p-999")
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusNotFound)

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Code != 404 {
		t.Errorf("error code: got %d, want 404", errResp.Code)
	}
}
