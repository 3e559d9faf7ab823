package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/quimera-dev/checkout-api/internal/domain/cart"
	"github.com/quimera-dev/checkout-api/internal/domain/product"
)

// CartHandlers exposes cart lifecycle endpoints.
type CartHandlers struct {
	service *cart.Service
}

// NewCartHandlers constructs the cart HTTP handlers.
func NewCartHandlers(service *cart.Service) *CartHandlers {
	return &CartHandlers{service: service}
}

// Routes registers the /carts endpoints.
func (h *CartHandlers) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/{cartID}", h.get)
	r.Post("/{cartID}/items", h.addItem)
}

type addressRequest struct {
	Street string `json:"street" validate:"required"`
	City   string `json:"city" validate:"required"`
	ZoneID string `json:"zoneId" validate:"required"`
}

type createCartRequest struct {
	ShippingAddress *addressRequest `json:"shippingAddress"`
}

type addItemRequest struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type itemResponse struct {
	ProductID uuid.UUID `json:"productId"`
	SKU       string    `json:"sku"`
	Quantity  int       `json:"quantity"`
}

type cartResponse struct {
	ID              uuid.UUID        `json:"id"`
	Items           []itemResponse   `json:"items"`
	ShippingAddress *addressResponse `json:"shippingAddress,omitempty"`
}

func (h *CartHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req createCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var address *cart.Address
	if req.ShippingAddress != nil {
		address = &cart.Address{
			Street: req.ShippingAddress.Street,
			City:   req.ShippingAddress.City,
			ZoneID: req.ShippingAddress.ZoneID,
		}
	}

	c, err := h.service.Create(r.Context(), address)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toCartResponse(c))
}

func (h *CartHandlers) get(w http.ResponseWriter, r *http.Request) {
	cartID, ok := parseUUIDParam(w, r, "cartID")
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), cartID)
	if err != nil {
		mapCartError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toCartResponse(c))
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := parseUUIDParam(w, r, "cartID")
	if !ok {
		return
	}

	var req addItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.service.AddItem(r.Context(), cartID, req.SKU, req.Quantity)
	if err != nil {
		mapCartError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toCartResponse(c))
}

func toCartResponse(c *cart.Cart) cartResponse {
	resp := cartResponse{ID: c.ID, Items: make([]itemResponse, len(c.Items))}
	for i, item := range c.Items {
		resp.Items[i] = itemResponse{ProductID: item.ProductID, SKU: item.SKU, Quantity: item.Quantity}
	}
	if c.ShippingAddress != nil {
		resp.ShippingAddress = toAddressResponse(*c.ShippingAddress)
	}
	return resp
}

func mapCartError(w http.ResponseWriter, r *http.Request, err error) {
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

	internalError(w, r, err)
}

// parseUUIDParam extracts and parses a uuid path parameter, writing a 400
// response on malformed input.
func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
