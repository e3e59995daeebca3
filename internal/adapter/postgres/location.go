package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
	"github.com/nurkan-dev/ride-dispatch/pkg/postgres"
)

// LocationRepo stores one current-location row per driver and runs the
// PostGIS radius scan used by matching.
type LocationRepo struct {
	db *pgxpool.Pool
}

func NewLocationRepo(db *pgxpool.Pool) *LocationRepo {
	return &LocationRepo{
		db: db,
	}
}

func (r *LocationRepo) Upsert(ctx context.Context, loc *models.DriverLocation) error {
	const op = "LocationRepo.Upsert"
	q := TxorDB(ctx, r.db)

	query := `
		INSERT INTO driver_locations (driver_id, latitude, longitude, heading, speed, accuracy, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (driver_id) DO UPDATE
		SET latitude = EXCLUDED.latitude,
		    longitude = EXCLUDED.longitude,
		    heading = EXCLUDED.heading,
		    speed = EXCLUDED.speed,
		    accuracy = EXCLUDED.accuracy,
		    updated_at = EXCLUDED.updated_at`

	_, err := q.Exec(ctx, query,
		loc.DriverID,
		loc.Latitude,
		loc.Longitude,
		loc.Heading,
		loc.Speed,
		loc.Accuracy,
		loc.UpdatedAt,
	)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return types.ErrDriverNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *LocationRepo) Get(ctx context.Context, driverID uuid.UUID) (*models.DriverLocation, error) {
	const op = "LocationRepo.Get"
	q := TxorDB(ctx, r.db)

	query := `
		SELECT driver_id, latitude, longitude, heading, speed, accuracy, updated_at
		FROM driver_locations
		WHERE driver_id = $1`

	var loc models.DriverLocation
	err := q.QueryRow(ctx, query, driverID).Scan(
		&loc.DriverID,
		&loc.Latitude,
		&loc.Longitude,
		&loc.Heading,
		&loc.Speed,
		&loc.Accuracy,
		&loc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrLocationNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &loc, nil
}

// ScanNearby is the geodetic radius scan: ONLINE, APPROVED drivers
// within radiusM metres of the point, nearest first. Distances are
// computed on the geography type, so metres hold at any latitude.
func (r *LocationRepo) ScanNearby(ctx context.Context, lat, lng, radiusM float64, limit int) ([]models.NearbyCandidate, error) {
	const op = "LocationRepo.ScanNearby"
	q := TxorDB(ctx, r.db)

	query := `
		SELECT d.id, d.user_id, d.name,
		       l.latitude, l.longitude, l.heading,
		       ST_Distance(l.geom, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography) AS distance_m,
		       d.vehicle_type, d.fuel_type, d.capacity, d.pet_friendly
		FROM driver_locations l
		JOIN drivers d ON d.id = l.driver_id
		WHERE d.availability = 'ONLINE'
		  AND d.approval_status = 'APPROVED'
		  AND ST_DWithin(l.geom, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
		ORDER BY distance_m
		LIMIT $4`

	rows, err := q.Query(ctx, query, lat, lng, radiusM, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var candidates []models.NearbyCandidate
	for rows.Next() {
		var c models.NearbyCandidate
		err := rows.Scan(
			&c.DriverID,
			&c.UserID,
			&c.Name,
			&c.Latitude,
			&c.Longitude,
			&c.Heading,
			&c.DistanceMeters,
			&c.VehicleType,
			&c.FuelType,
			&c.Capacity,
			&c.PetFriendly,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return candidates, nil
}
