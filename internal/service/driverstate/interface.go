package driverstate

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
)

/*=====================Driver Repository==========================*/

type DriverRepo interface {
	// GetByID returns the driver row or types.ErrDriverNotFound.
	GetByID(ctx context.Context, driverID uuid.UUID) (*models.Driver, error)

	// GetByUserID resolves a driver by the owning user account.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Driver, error)

	// SetAvailability writes the availability unconditionally.
	SetAvailability(ctx context.Context, driverID uuid.UUID, availability types.Availability) error

	// SetAvailabilityFromPresence applies a presence-derived transition
	// keyed by user id. The update is guarded: it loses to a newer
	// presence timestamp and never overwrites ON_TRIP. Returns whether
	// a row changed.
	SetAvailabilityFromPresence(ctx context.Context, userID uuid.UUID, availability types.Availability, at time.Time) (bool, error)
}

/*=====================Location Repository========================*/

type LocationRepo interface {
	// Upsert stores the driver's single current location row.
	Upsert(ctx context.Context, loc *models.DriverLocation) error

	// Get returns the current location or types.ErrLocationNotFound.
	Get(ctx context.Context, driverID uuid.UUID) (*models.DriverLocation, error)
}
