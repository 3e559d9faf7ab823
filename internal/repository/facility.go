package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quimera-dev/checkout-api/internal/domain/facility"
)

const (
	listFacilitiesSQL = `SELECT id, name, facility_type, pickup_available, street, city, zone_id
		FROM facilities ORDER BY name`

	getFacilitySQL = `SELECT id, name, facility_type, pickup_available, street, city, zone_id
		FROM facilities WHERE id = $1`
)

var _ facility.Repository = (*FacilityRepository)(nil)

// FacilityRepository implements facility.Repository backed by PostgreSQL.
type FacilityRepository struct {
	pool *pgxpool.Pool
}

// NewFacilityRepository returns a FacilityRepository that uses the given pool.
func NewFacilityRepository(pool *pgxpool.Pool) *FacilityRepository {
	return &FacilityRepository{pool: pool}
}

// List returns all facilities ordered by name.
func (r *FacilityRepository) List(ctx context.Context) ([]facility.Facility, error) {
	rows, err := r.pool.Query(ctx, listFacilitiesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing facilities: %w", err)
	}
	return pgx.CollectRows(rows, scanFacility)
}

// Get returns the facility or a *facility.NotFoundError.
func (r *FacilityRepository) Get(ctx context.Context, id uuid.UUID) (*facility.Facility, error) {
	rows, err := r.pool.Query(ctx, getFacilitySQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting facility %q: %w", id, err)
	}

	f, err := pgx.CollectExactlyOneRow(rows, scanFacility)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &facility.NotFoundError{FacilityID: id.String()}
		}
		return nil, fmt.Errorf("getting facility %q: %w", id, err)
	}
	return &f, nil
}

func scanFacility(row pgx.CollectableRow) (facility.Facility, error) {
	var f facility.Facility
	err := row.Scan(
		&f.ID, &f.Name, &f.Type, &f.PickupAvailable,
		&f.LogisticsAddress.Street, &f.LogisticsAddress.City, &f.LogisticsAddress.ZoneID,
	)
	return f, err
}
