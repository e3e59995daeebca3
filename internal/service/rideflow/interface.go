package rideflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
)

/*=====================Ride Repository============================*/

type RideRepo interface {
	// Create persists a new PENDING ride row.
	Create(ctx context.Context, ride *models.Ride) error

	// Get returns the ride row or types.ErrRideNotFound.
	Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)

	// TryAssign is the atomic claim: it sets ACCEPTED and the driver id
	// only where the ride is still PENDING with no driver. Returns
	// whether a row changed.
	TryAssign(ctx context.Context, rideID, driverID uuid.UUID, at time.Time) (bool, error)

	// Cancel moves the ride to CANCELLED only while it is PENDING or
	// ACCEPTED. Returns whether a row changed.
	Cancel(ctx context.Context, rideID uuid.UUID, reason types.CancelReason, cancelledBy uuid.UUID, at time.Time) (bool, error)
}

/*=====================Dispatcher=================================*/

// Dispatcher is the dispatch controller seen from the ride lifecycle.
type Dispatcher interface {
	Start(ctx context.Context, ride *models.Ride) error
	Cancel(ctx context.Context, rideID uuid.UUID)
}

/*=====================Driver State===============================*/

type DriverState interface {
	Get(ctx context.Context, driverID uuid.UUID) (*models.Driver, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Driver, error)
	Location(ctx context.Context, driverID uuid.UUID) (*models.DriverLocation, error)
	SetAvailabilityInternal(ctx context.Context, driverID uuid.UUID, target types.Availability) error
}

/*=====================Event Publisher============================*/

type EventPublisher interface {
	Publish(ctx context.Context, channel string, event types.EventName, payload any) error
}
