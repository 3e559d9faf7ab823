// Package facility models the physical locations orders can be picked
// up from or shipped out of.
package facility

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/quimera-dev/checkout-api/internal/domain/cart"
)

// Type enumerates the kinds of facilities.
type Type string

const (
	TypeWarehouse          Type = "WAREHOUSE"
	TypeDistributionCenter Type = "DISTRIBUTION_CENTER"
	TypeStore              Type = "STORE"
)

// ErrPickupNotSupported is returned when pickup is requested at a
// facility that does not offer it.
var ErrPickupNotSupported = errors.New("facility does not support pickup")

// NotFoundError indicates a requested facility does not exist.
type NotFoundError struct {
	FacilityID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("facility %s not found", e.FacilityID)
}

// Facility is a physical location. LogisticsAddress is surfaced to the
// customer when the facility is chosen for pickup; its zone also anchors
// the facility's distance records.
type Facility struct {
	ID               uuid.UUID
	Name             string
	Type             Type
	PickupAvailable  bool
	LogisticsAddress cart.Address
}

// Repository defines read operations for facilities.
type Repository interface {
	List(ctx context.Context) ([]Facility, error)
	// Get returns the facility or a *NotFoundError.
	Get(ctx context.Context, id uuid.UUID) (*Facility, error)
}
