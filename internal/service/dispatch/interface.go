package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
)

/*=====================Ride Store=================================*/

type RideStore interface {
	// Get returns the ride row or types.ErrRideNotFound.
	Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)

	// MarkNoDriversAvailable cancels the ride with reason
	// NO_DRIVERS_AVAILABLE, but only while it is still PENDING.
	// Returns false when the conditional update touched no rows.
	MarkNoDriversAvailable(ctx context.Context, rideID uuid.UUID, at time.Time) (bool, error)
}

/*=====================Matcher====================================*/

type Matcher interface {
	FindNearbyDrivers(ctx context.Context, lat, lng, radiusM float64, limit int, filters models.MatchFilters) ([]models.NearbyDriver, error)
}

/*=====================Event Publisher============================*/

// EventPublisher pushes an event to a rider or driver channel.
// Delivery is at-least-once; callers tolerate duplicates and treat
// failures as log-and-continue.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, event types.EventName, payload any) error
}

/*=====================Configuration==============================*/

// Config drives the round schedule. Radius N is used for round N; one
// extra RoundInterval elapses after the final round before the ride is
// declared exhausted.
type Config struct {
	RoundInterval time.Duration
	RadiiMeters   []float64
	DriverLimit   int
}

func DefaultConfig() Config {
	return Config{
		RoundInterval: 20 * time.Second,
		RadiiMeters:   []float64{5000, 8000, 12000, 15000, 20000, 25000, 30000, 30000, 30000},
		DriverLimit:   10,
	}
}
