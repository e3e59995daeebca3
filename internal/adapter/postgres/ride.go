package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
)

type RideRepo struct {
	db *pgxpool.Pool
}

func NewRideRepo(db *pgxpool.Pool) *RideRepo {
	return &RideRepo{db: db}
}

func (r *RideRepo) Create(ctx context.Context, ride *models.Ride) error {
	const op = "RideRepo.Create"
	q := TxorDB(ctx, r.db)

	query := `
		INSERT INTO rides (id, passenger_id,
		                   pickup_address, pickup_lat, pickup_lng,
		                   dropoff_address, dropoff_lat, dropoff_lng,
		                   vehicle_type, total_fare, currency,
		                   passenger_note, pickup_photo_url,
		                   status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := q.Exec(ctx, query,
		ride.ID,
		ride.PassengerID,
		ride.Pickup.Address, ride.Pickup.Latitude, ride.Pickup.Longitude,
		ride.Dropoff.Address, ride.Dropoff.Latitude, ride.Dropoff.Longitude,
		ride.VehicleType,
		ride.TotalFare,
		ride.Currency,
		ride.PassengerNote,
		ride.PickupPhotoURL,
		ride.Status,
		ride.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *RideRepo) Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	const op = "RideRepo.Get"
	q := TxorDB(ctx, r.db)

	query := `
		SELECT id, passenger_id,
		       pickup_address, pickup_lat, pickup_lng,
		       dropoff_address, dropoff_lat, dropoff_lng,
		       vehicle_type, total_fare, currency,
		       passenger_note, pickup_photo_url,
		       status, driver_id, cancellation_reason, cancelled_by,
		       created_at, accepted_at, cancelled_at, completed_at
		FROM rides
		WHERE id = $1`

	var ride models.Ride
	err := q.QueryRow(ctx, query, rideID).Scan(
		&ride.ID,
		&ride.PassengerID,
		&ride.Pickup.Address, &ride.Pickup.Latitude, &ride.Pickup.Longitude,
		&ride.Dropoff.Address, &ride.Dropoff.Latitude, &ride.Dropoff.Longitude,
		&ride.VehicleType,
		&ride.TotalFare,
		&ride.Currency,
		&ride.PassengerNote,
		&ride.PickupPhotoURL,
		&ride.Status,
		&ride.DriverID,
		&ride.CancellationReason,
		&ride.CancelledBy,
		&ride.CreatedAt,
		&ride.AcceptedAt,
		&ride.CancelledAt,
		&ride.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRideNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &ride, nil
}

// TryAssign is the acceptance race boundary: a single conditional
// update that claims the ride only while it is PENDING and unassigned.
func (r *RideRepo) TryAssign(ctx context.Context, rideID, driverID uuid.UUID, at time.Time) (bool, error) {
	const op = "RideRepo.TryAssign"
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE rides
		SET status = 'ACCEPTED', driver_id = $2, accepted_at = $3
		WHERE id = $1 AND status = 'PENDING' AND driver_id IS NULL`

	tag, err := q.Exec(ctx, query, rideID, driverID, at)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RideRepo) Cancel(ctx context.Context, rideID uuid.UUID, reason types.CancelReason, cancelledBy uuid.UUID, at time.Time) (bool, error) {
	const op = "RideRepo.Cancel"
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE rides
		SET status = 'CANCELLED', cancellation_reason = $2, cancelled_by = $3, cancelled_at = $4
		WHERE id = $1 AND status IN ('PENDING', 'ACCEPTED')`

	tag, err := q.Exec(ctx, query, rideID, reason, cancelledBy, at)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkNoDriversAvailable is the exhaustion write: cancel with
// NO_DRIVERS_AVAILABLE only while the ride is still PENDING, so a late
// acceptance always wins.
func (r *RideRepo) MarkNoDriversAvailable(ctx context.Context, rideID uuid.UUID, at time.Time) (bool, error) {
	const op = "RideRepo.MarkNoDriversAvailable"
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE rides
		SET status = 'CANCELLED', cancellation_reason = 'NO_DRIVERS_AVAILABLE', cancelled_at = $2
		WHERE id = $1 AND status = 'PENDING'`

	tag, err := q.Exec(ctx, query, rideID, at)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected() > 0, nil
}
