package driverstate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
	wrap "github.com/nurkan-dev/ride-dispatch/pkg/logger/wrapper"
	"github.com/nurkan-dev/ride-dispatch/pkg/metrics"
	"github.com/nurkan-dev/ride-dispatch/pkg/validator"
)

// Service owns driver availability, approval checks and locations.
type Service struct {
	drivers   DriverRepo
	locations LocationRepo
	l         logger.Logger
}

func NewService(drivers DriverRepo, locations LocationRepo, l logger.Logger) *Service {
	return &Service{
		drivers:   drivers,
		locations: locations,
		l:         l,
	}
}

// SetAvailability handles an explicit driver-app toggle. Only ONLINE
// and OFFLINE are settable this way, and ONLINE requires approval.
func (s *Service) SetAvailability(ctx context.Context, driverID uuid.UUID, target types.Availability) error {
	if !target.DriverSettable() {
		return wrap.Error(ctx, types.ErrStatusNotSettable)
	}

	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return wrap.Error(ctx, err)
	}
	if target == types.AvailabilityOnline && !driver.Approved() {
		return wrap.Error(ctx, types.ErrDriverNotApproved)
	}

	if err := s.drivers.SetAvailability(ctx, driverID, target); err != nil {
		return wrap.Error(ctx, err)
	}

	switch target {
	case types.AvailabilityOnline:
		metrics.DriversOnlineGauge.Inc()
	case types.AvailabilityOffline:
		metrics.DriversOnlineGauge.Dec()
	}

	s.l.Info(wrap.WithDriverID(ctx, driverID.String()), "driver availability changed", "availability", target)
	return nil
}

// SetAvailabilityInternal is the trusted transition used by the ride
// lifecycle (ON_TRIP on acceptance, ONLINE on completion). It skips the
// driver-settable check and runs inside the caller's transaction.
func (s *Service) SetAvailabilityInternal(ctx context.Context, driverID uuid.UUID, target types.Availability) error {
	if err := s.drivers.SetAvailability(ctx, driverID, target); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

// UpdateLocation upserts the driver's current position. Pings from
// drivers that are not APPROVED are rejected.
func (s *Service) UpdateLocation(ctx context.Context, loc models.DriverLocation) error {
	if !validator.LatitudeInRange(loc.Latitude) || !validator.LongitudeInRange(loc.Longitude) {
		return wrap.Error(ctx, types.ErrInvalidCoordinates)
	}

	driver, err := s.drivers.GetByID(ctx, loc.DriverID)
	if err != nil {
		return wrap.Error(ctx, err)
	}
	if !driver.Approved() {
		return wrap.Error(ctx, types.ErrDriverNotApproved)
	}

	if loc.UpdatedAt.IsZero() {
		loc.UpdatedAt = time.Now()
	}

	if err := s.locations.Upsert(ctx, &loc); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

// GetStatus returns availability, approval and the last known location.
// A driver with no location row yet still gets a status answer.
func (s *Service) GetStatus(ctx context.Context, driverID uuid.UUID) (*models.DriverStatus, error) {
	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	status := &models.DriverStatus{
		DriverID:       driver.ID,
		Availability:   driver.Availability,
		ApprovalStatus: driver.ApprovalStatus,
	}

	loc, err := s.locations.Get(ctx, driverID)
	switch {
	case err == nil:
		status.Location = loc
	case errors.Is(err, types.ErrLocationNotFound):
		// first status poll can precede the first location ping
	default:
		return nil, wrap.Error(ctx, err)
	}

	return status, nil
}

// Get returns the driver row by driver id.
func (s *Service) Get(ctx context.Context, driverID uuid.UUID) (*models.Driver, error) {
	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return driver, nil
}

// Location returns the driver's last known position, or
// types.ErrLocationNotFound when no ping arrived yet.
func (s *Service) Location(ctx context.Context, driverID uuid.UUID) (*models.DriverLocation, error) {
	loc, err := s.locations.Get(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return loc, nil
}

// GetByUserID resolves the driver profile behind a user account.
func (s *Service) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Driver, error) {
	driver, err := s.drivers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return driver, nil
}
