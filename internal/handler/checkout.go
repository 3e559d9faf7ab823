package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quimera-dev/checkout-api/internal/domain/cart"
	"github.com/quimera-dev/checkout-api/internal/domain/checkout"
	"github.com/quimera-dev/checkout-api/internal/domain/coupon"
	"github.com/quimera-dev/checkout-api/internal/domain/facility"
	"github.com/quimera-dev/checkout-api/internal/domain/payment"
	"github.com/quimera-dev/checkout-api/internal/domain/pricing"
	"github.com/quimera-dev/checkout-api/internal/domain/product"
)

// CheckoutHandlers exposes the quote and confirm endpoints.
type CheckoutHandlers struct {
	service *checkout.Service
}

// NewCheckoutHandlers constructs the checkout HTTP handlers.
func NewCheckoutHandlers(service *checkout.Service) *CheckoutHandlers {
	return &CheckoutHandlers{service: service}
}

// Routes registers the /checkout endpoints.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	r.Post("/quote", h.quote)
	r.Post("/confirm", h.confirm)
}

type checkoutRequest struct {
	CartID           uuid.UUID  `json:"cartId" validate:"required"`
	PaymentMethod    string     `json:"paymentMethod" validate:"required,oneof=CREDIT DEBIT"`
	CouponCodes      []string   `json:"couponCodes" validate:"omitempty,dive,min=1"`
	PickupFacilityID *uuid.UUID `json:"pickupFacilityId"`
}

func (req checkoutRequest) toDomain() checkout.Request {
	return checkout.Request{
		CartID:           req.CartID,
		PaymentMethod:    payment.Method(req.PaymentMethod),
		CouponCodes:      req.CouponCodes,
		PickupFacilityID: req.PickupFacilityID,
	}
}

type lineResponse struct {
	ProductID uuid.UUID       `json:"productId"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type discountResponse struct {
	Code        string          `json:"code"`
	Scope       string          `json:"scope"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

type addressResponse struct {
	Street string `json:"street"`
	City   string `json:"city"`
	ZoneID string `json:"zoneId"`
}

type calculationResponse struct {
	CartID        uuid.UUID          `json:"cartId"`
	Lines         []lineResponse     `json:"lines"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Discounts     []discountResponse `json:"discounts"`
	TotalDiscount decimal.Decimal    `json:"totalDiscount"`
	ShippingCost  decimal.Decimal    `json:"shippingCost"`
	Total         decimal.Decimal    `json:"total"`
	Fulfillment   string             `json:"fulfillment"`
	PickupAddress *addressResponse   `json:"pickupAddress,omitempty"`
}

type confirmResponse struct {
	OrderID uuid.UUID `json:"orderId"`
	calculationResponse
}

func (h *CheckoutHandlers) quote(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	calc, err := h.service.Quote(r.Context(), req.toDomain())
	if err != nil {
		mapCheckoutError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toCalculationResponse(calc))
}

func (h *CheckoutHandlers) confirm(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, calc, err := h.service.Confirm(r.Context(), req.toDomain())
	if err != nil {
		mapCheckoutError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, confirmResponse{
		OrderID:             order.ID,
		calculationResponse: toCalculationResponse(calc),
	})
}

func toCalculationResponse(calc *checkout.Calculation) calculationResponse {
	resp := calculationResponse{
		CartID:        calc.CartID,
		Lines:         make([]lineResponse, len(calc.Lines)),
		Subtotal:      calc.Subtotal,
		Discounts:     make([]discountResponse, len(calc.Discounts)),
		TotalDiscount: calc.TotalDiscount,
		ShippingCost:  calc.ShippingCost,
		Total:         calc.Total,
		Fulfillment:   string(calc.Fulfillment),
	}
	for i, line := range calc.Lines {
		resp.Lines[i] = toLineResponse(line)
	}
	for i, d := range calc.Discounts {
		resp.Discounts[i] = discountResponse{
			Code:        d.Code,
			Scope:       string(d.Scope),
			Description: d.Description,
			Amount:      d.Amount,
		}
	}
	if calc.PickupAddress != nil {
		resp.PickupAddress = toAddressResponse(*calc.PickupAddress)
	}
	return resp
}

func toLineResponse(line pricing.CartLine) lineResponse {
	return lineResponse{
		ProductID: line.ProductID,
		SKU:       line.SKU,
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice,
		Subtotal:  line.Subtotal,
	}
}

func toAddressResponse(a cart.Address) *addressResponse {
	return &addressResponse{Street: a.Street, City: a.City, ZoneID: a.ZoneID}
}

// mapCheckoutError translates calculation errors: an unknown cart is a
// plain 404, references to missing or unusable entities inside a valid
// request are 422, and a coupon lost to a concurrent confirm is a 409.
func mapCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var cartErr *cart.NotFoundError
	if errors.As(err, &cartErr) {
		writeError(w, r, http.StatusNotFound, cartErr.Error())
		return
	}

	var productErr *product.NotFoundError
	if errors.As(err, &productErr) {
		writeError(w, r, http.StatusUnprocessableEntity, productErr.Error())
		return
	}

	var facilityErr *facility.NotFoundError
	if errors.As(err, &facilityErr) {
		writeError(w, r, http.StatusUnprocessableEntity, facilityErr.Error())
		return
	}

	if errors.Is(err, facility.ErrPickupNotSupported) {
		writeError(w, r, http.StatusUnprocessableEntity, "facility does not support pickup")
		return
	}

	if errors.Is(err, coupon.ErrNoLongerAvailable) {
		writeError(w, r, http.StatusConflict, "coupon is no longer available")
		return
	}

	internalError(w, r, err)
}
