package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quimera-dev/checkout-api/internal/domain/product"
)

// ProductHandlers exposes read-only catalog endpoints.
type ProductHandlers struct {
	products product.Repository
}

// NewProductHandlers constructs the product HTTP handlers.
func NewProductHandlers(products product.Repository) *ProductHandlers {
	return &ProductHandlers{products: products}
}

// Routes registers the /products endpoints.
func (h *ProductHandlers) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{sku}", h.get)
}

type productResponse struct {
	ID        uuid.UUID       `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (h *ProductHandlers) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *ProductHandlers) get(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	p, err := h.products.GetBySKU(r.Context(), sku)
	if err != nil {
		var notFound *product.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, r, http.StatusNotFound, notFound.Error())
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProductResponse(*p))
}

func toProductResponse(p product.Product) productResponse {
	return productResponse{ID: p.ID, SKU: p.SKU, Name: p.Name, UnitPrice: p.UnitPrice}
}
