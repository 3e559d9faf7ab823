// Package handler exposes the HTTP surface of the checkout API on a chi
// router. Handlers decode and validate requests, delegate to the domain
// services and map domain errors to HTTP status codes.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quimera-dev/checkout-api/internal/domain/cart"
	"github.com/quimera-dev/checkout-api/internal/domain/checkout"
	"github.com/quimera-dev/checkout-api/internal/domain/coupon"
	"github.com/quimera-dev/checkout-api/internal/domain/facility"
	"github.com/quimera-dev/checkout-api/internal/domain/product"
)

// Deps carries the domain collaborators needed by the HTTP surface.
type Deps struct {
	Carts      *cart.Service
	Checkout   *checkout.Service
	Products   product.Repository
	Coupons    coupon.Repository
	// CouponCodes keeps the checkout-side code filter in sync with
	// admin-created coupons. May be nil in tests.
	CouponCodes *coupon.Service
	Facilities  facility.Repository
}

// NewRouter mounts every v1 resource on a fresh chi router. Probe and
// middleware wiring happens in the app layer; this router carries only
// the API routes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Route("/v1", func(r chi.Router) {
		r.Route("/carts", NewCartHandlers(deps.Carts).Routes)
		r.Route("/checkout", NewCheckoutHandlers(deps.Checkout).Routes)
		r.Route("/products", NewProductHandlers(deps.Products).Routes)
		r.Route("/coupons", NewCouponHandlers(deps.Coupons, deps.CouponCodes).Routes)
		r.Route("/facilities", NewFacilityHandlers(deps.Facilities).Routes)
	})

	return r
}
