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

type DriverRepo struct {
	db *pgxpool.Pool
}

func NewDriverRepo(db *pgxpool.Pool) *DriverRepo {
	return &DriverRepo{
		db: db,
	}
}

const driverColumns = `id, user_id, name, approval_status, availability,
       vehicle_type, fuel_type, capacity, pet_friendly, created_at, updated_at`

func (r *DriverRepo) GetByID(ctx context.Context, driverID uuid.UUID) (*models.Driver, error) {
	const op = "DriverRepo.GetByID"
	q := TxorDB(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM drivers WHERE id = $1`, driverColumns)

	driver, err := scanDriver(q.QueryRow(ctx, query, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrDriverNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return driver, nil
}

func (r *DriverRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Driver, error) {
	const op = "DriverRepo.GetByUserID"
	q := TxorDB(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM drivers WHERE user_id = $1`, driverColumns)

	driver, err := scanDriver(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrDriverNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return driver, nil
}

func (r *DriverRepo) SetAvailability(ctx context.Context, driverID uuid.UUID, availability types.Availability) error {
	const op = "DriverRepo.SetAvailability"
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE drivers
		SET availability = $2, updated_at = now()
		WHERE id = $1`

	tag, err := q.Exec(ctx, query, driverID, availability)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrDriverNotFound
	}
	return nil
}

// SetAvailabilityFromPresence applies a presence transition keyed by
// user id. The guard makes the write last-write-wins on the presence
// timestamp, keeps ON_TRIP drivers untouched and ignores drivers that
// are not APPROVED.
func (r *DriverRepo) SetAvailabilityFromPresence(ctx context.Context, userID uuid.UUID, availability types.Availability, at time.Time) (bool, error) {
	const op = "DriverRepo.SetAvailabilityFromPresence"
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE drivers
		SET availability = $2, presence_updated_at = $3, updated_at = now()
		WHERE user_id = $1
		  AND approval_status = 'APPROVED'
		  AND availability <> 'ON_TRIP'
		  AND (presence_updated_at IS NULL OR presence_updated_at <= $3)`

	tag, err := q.Exec(ctx, query, userID, availability, at)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanDriver(row pgx.Row) (*models.Driver, error) {
	var d models.Driver
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Name,
		&d.ApprovalStatus,
		&d.Availability,
		&d.VehicleType,
		&d.FuelType,
		&d.Capacity,
		&d.PetFriendly,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
