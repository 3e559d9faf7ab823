package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quimera-dev/checkout-api/internal/domain/coupon"
)

// CouponHandlers exposes the coupon administration endpoints.
type CouponHandlers struct {
	coupons coupon.Repository
	// codes receives newly created codes so the checkout-side code
	// filter stays in sync. May be nil.
	codes *coupon.Service
}

// NewCouponHandlers constructs the coupon HTTP handlers.
func NewCouponHandlers(coupons coupon.Repository, codes *coupon.Service) *CouponHandlers {
	return &CouponHandlers{coupons: coupons, codes: codes}
}

// Routes registers the /coupons endpoints.
func (h *CouponHandlers) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{code}", h.get)
	r.Put("/{code}", h.update)
	r.Delete("/{code}", h.delete)
}

type createCouponRequest struct {
	Code string `json:"code" validate:"required,min=1"`
	couponAttributes
}

type updateCouponRequest struct {
	// Code is optional; when present the coupon is renamed, subject to
	// the same uniqueness rule as create.
	Code string `json:"code" validate:"omitempty,min=1"`
	couponAttributes
}

type couponAttributes struct {
	Description   string           `json:"description"`
	Type          string           `json:"type" validate:"required,oneof=ORDER SHIPPING"`
	Percentage    *decimal.Decimal `json:"percentage"`
	Amount        *decimal.Decimal `json:"amount"`
	Active        bool             `json:"active"`
	Stackable     bool             `json:"stackable"`
	RemainingUses *int32           `json:"remainingUses" validate:"omitempty,gte=0"`
	ExpiresAt     *time.Time       `json:"expiresAt"`
}

type couponResponse struct {
	ID            uuid.UUID        `json:"id"`
	Code          string           `json:"code"`
	Description   string           `json:"description,omitempty"`
	Type          string           `json:"type"`
	Percentage    *decimal.Decimal `json:"percentage,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Active        bool             `json:"active"`
	Stackable     bool             `json:"stackable"`
	RemainingUses *int32           `json:"remainingUses,omitempty"`
	ExpiresAt     *time.Time       `json:"expiresAt,omitempty"`
}

func (h *CouponHandlers) list(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.All(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}

	resp := make([]couponResponse, len(coupons))
	for i, c := range coupons {
		resp[i] = toCouponResponse(c)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *CouponHandlers) get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	c, err := h.coupons.FindByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "coupon not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toCouponResponse(*c))
}

func (h *CouponHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c := req.couponAttributes.toDomain()
	c.ID = uuid.New()
	c.Code = strings.ToUpper(strings.TrimSpace(req.Code))

	if err := h.coupons.Create(r.Context(), &c); err != nil {
		if errors.Is(err, coupon.ErrCodeExists) {
			writeError(w, r, http.StatusConflict, "coupon code already exists")
			return
		}
		internalError(w, r, err)
		return
	}
	if h.codes != nil {
		h.codes.RegisterCode(c.Code)
	}
	writeJSON(w, r, http.StatusCreated, toCouponResponse(c))
}

func (h *CouponHandlers) update(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	existing, err := h.coupons.FindByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "coupon not found")
			return
		}
		internalError(w, r, err)
		return
	}
	// existing may alias the repository's record; capture the code
	// before Update mutates it.
	oldCode := existing.Code

	var req updateCouponRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c := req.couponAttributes.toDomain()
	c.ID = existing.ID
	c.Code = oldCode
	if req.Code != "" {
		c.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	}

	if err := h.coupons.Update(r.Context(), &c); err != nil {
		switch {
		case errors.Is(err, coupon.ErrCodeExists):
			writeError(w, r, http.StatusConflict, "coupon code already exists")
		case errors.Is(err, coupon.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "coupon not found")
		default:
			internalError(w, r, err)
		}
		return
	}
	if h.codes != nil && c.Code != oldCode {
		h.codes.RegisterCode(c.Code)
	}
	writeJSON(w, r, http.StatusOK, toCouponResponse(c))
}

func (h *CouponHandlers) delete(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	deleted, err := h.coupons.Delete(r.Context(), code)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, r, http.StatusNotFound, "coupon not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a couponAttributes) toDomain() coupon.Coupon {
	return coupon.Coupon{
		Description:   a.Description,
		Type:          coupon.Type(a.Type),
		Percentage:    a.Percentage,
		Amount:        a.Amount,
		Active:        a.Active,
		Stackable:     a.Stackable,
		RemainingUses: a.RemainingUses,
		Expiry:        a.ExpiresAt,
	}
}

func toCouponResponse(c coupon.Coupon) couponResponse {
	return couponResponse{
		ID:            c.ID,
		Code:          c.Code,
		Description:   c.Description,
		Type:          string(c.Type),
		Percentage:    c.Percentage,
		Amount:        c.Amount,
		Active:        c.Active,
		Stackable:     c.Stackable,
		RemainingUses: c.RemainingUses,
		ExpiresAt:     c.Expiry,
	}
}
