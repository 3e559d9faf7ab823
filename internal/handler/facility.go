package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quimera-dev/checkout-api/internal/domain/facility"
)

// FacilityHandlers exposes read-only facility endpoints, used by clients
// to offer pickup locations.
type FacilityHandlers struct {
	facilities facility.Repository
}

// NewFacilityHandlers constructs the facility HTTP handlers.
func NewFacilityHandlers(facilities facility.Repository) *FacilityHandlers {
	return &FacilityHandlers{facilities: facilities}
}

// Routes registers the /facilities endpoints.
func (h *FacilityHandlers) Routes(r chi.Router) {
	r.Get("/", h.list)
}

type facilityResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	PickupAvailable bool            `json:"pickupAvailable"`
	Address         addressResponse `json:"address"`
}

func (h *FacilityHandlers) list(w http.ResponseWriter, r *http.Request) {
	facilities, err := h.facilities.List(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}

	resp := make([]facilityResponse, len(facilities))
	for i, f := range facilities {
		resp[i] = facilityResponse{
			ID:              f.ID,
			Name:            f.Name,
			Type:            string(f.Type),
			PickupAvailable: f.PickupAvailable,
			Address:         *toAddressResponse(f.LogisticsAddress),
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}
