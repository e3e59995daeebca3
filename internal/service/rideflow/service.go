package rideflow

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
	"github.com/nurkan-dev/ride-dispatch/pkg/trm"
	"github.com/nurkan-dev/ride-dispatch/pkg/validator"
)

const defaultCurrency = "MMK"

// Service owns the ride lifecycle: creation, the acceptance claim and
// cancellation. The ride row is the durable source of truth; the
// dispatcher holds only transient offer state.
type Service struct {
	rides      RideRepo
	drivers    DriverState
	dispatcher Dispatcher
	publisher  EventPublisher
	tx         trm.TxManager
	l          logger.Logger
}

func NewService(rides RideRepo, drivers DriverState, dispatcher Dispatcher, publisher EventPublisher, tx trm.TxManager, l logger.Logger) *Service {
	return &Service{
		rides:      rides,
		drivers:    drivers,
		dispatcher: dispatcher,
		publisher:  publisher,
		tx:         tx,
		l:          l,
	}
}

// Create persists a PENDING ride and fires the dispatcher. The ride is
// returned even if the dispatcher refuses to start; the row stays
// PENDING for the external sweeper.
func (s *Service) Create(ctx context.Context, input models.Ride) (*models.Ride, error) {
	if !validator.LatitudeInRange(input.Pickup.Latitude) || !validator.LongitudeInRange(input.Pickup.Longitude) ||
		!validator.LatitudeInRange(input.Dropoff.Latitude) || !validator.LongitudeInRange(input.Dropoff.Longitude) {
		return nil, wrap.Error(ctx, types.ErrInvalidCoordinates)
	}

	ride := input
	ride.ID = uuid.New()
	ride.Status = types.RidePending
	ride.DriverID = nil
	ride.CreatedAt = time.Now()
	if ride.VehicleType == "" || ride.VehicleType == types.VehicleAny {
		ride.VehicleType = types.VehicleStandard
	}
	if ride.Currency == "" {
		ride.Currency = defaultCurrency
	}
	if ride.TotalFare <= 0 {
		ride.TotalFare = EstimateFare(ride.Pickup, ride.Dropoff)
	}

	if err := s.rides.Create(ctx, &ride); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	ctx = wrap.WithRideID(ctx, ride.ID.String())
	s.l.Info(ctx, "ride created", "passenger_id", ride.PassengerID, "fare", ride.TotalFare)

	if err := s.dispatcher.Start(ctx, &ride); err != nil {
		s.l.Error(ctx, "failed to start dispatch", err)
	}

	return &ride, nil
}

// Status is the rider polling view. Only the passenger or the accepted
// driver may look at a ride.
func (s *Service) Status(ctx context.Context, rideID, actorUserID uuid.UUID) (*models.RideSnapshot, error) {
	ride, err := s.rides.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if _, err := s.authorizeParty(ctx, ride, actorUserID); err != nil {
		return nil, err
	}

	snapshot := &models.RideSnapshot{
		ID:     ride.ID,
		Status: ride.Status,
	}
	if ride.DriverID != nil {
		driver, err := s.drivers.Get(ctx, *ride.DriverID)
		if err != nil {
			return nil, wrap.Error(ctx, err)
		}
		snapshot.DriverName = &driver.Name
		snapshot.DriverLocation = s.lastLocation(ctx, driver.ID)
	}

	return snapshot, nil
}

// Accept is the atomic claim: at most one driver wins any ride. The
// conditional update inside the transaction is the race boundary.
func (s *Service) Accept(ctx context.Context, rideID, driverUserID uuid.UUID) (*models.AcceptedRide, error) {
	ctx = wrap.WithRideID(ctx, rideID.String())

	driver, err := s.drivers.GetByUserID(ctx, driverUserID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if !driver.Approved() {
		return nil, wrap.Error(ctx, types.ErrDriverNotApproved)
	}

	var ride *models.Ride
	err = s.tx.Do(ctx, func(ctx context.Context) error {
		claimed, err := s.rides.TryAssign(ctx, rideID, driver.ID, time.Now())
		if err != nil {
			return err
		}
		if !claimed {
			if _, getErr := s.rides.Get(ctx, rideID); errors.Is(getErr, types.ErrRideNotFound) {
				return types.ErrRideNotFound
			}
			return types.ErrRideAlreadyAccepted
		}

		if err := s.drivers.SetAvailabilityInternal(ctx, driver.ID, types.AvailabilityOnTrip); err != nil {
			return err
		}

		ride, err = s.rides.Get(ctx, rideID)
		return err
	})
	if err != nil {
		return nil, wrap.Error(wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed), err)
	}

	metrics.RidesTotal.WithLabelValues(types.RideAccepted.String()).Inc()
	s.l.Info(wrap.WithDriverID(ctx, driver.ID.String()), "ride accepted")

	location := s.lastLocation(ctx, driver.ID)
	event := models.RideAcceptedEvent{
		RideID:     ride.ID,
		DriverID:   driver.ID,
		DriverName: driver.Name,
	}
	if location != nil {
		event.DriverLocation = &models.EventDriverLocation{
			Latitude:  location.Latitude,
			Longitude: location.Longitude,
			Heading:   location.Heading,
		}
	}

	pubErr := s.publisher.Publish(ctx, types.RiderChannel(ride.PassengerID), types.EventRideAccepted, event)
	metrics.RecordEventPublish(types.EventRideAccepted.String(), pubErr)
	if pubErr != nil {
		s.l.Error(wrap.WithAction(ctx, types.ActionEventPublishFailed), "failed to publish ride_accepted", pubErr)
	}

	// tears down offers and tells the losers to dismiss theirs
	s.dispatcher.Cancel(ctx, rideID)

	return &models.AcceptedRide{
		Ride:           *ride,
		DriverUserID:   driver.UserID,
		DriverName:     driver.Name,
		DriverLocation: location,
	}, nil
}

// Skip is advisory: the driver's client dismisses the offer and the
// ride stays PENDING for everyone else. Nothing durable is recorded.
func (s *Service) Skip(ctx context.Context, rideID, driverUserID uuid.UUID) error {
	if _, err := s.rides.Get(ctx, rideID); err != nil {
		return wrap.Error(ctx, err)
	}
	s.l.Debug(wrap.WithRideID(ctx, rideID.String()), "driver skipped ride", "driver_user_id", driverUserID)
	return nil
}

// Cancel ends a PENDING or ACCEPTED ride on behalf of the rider or the
// accepted driver.
func (s *Service) Cancel(ctx context.Context, rideID, actorUserID uuid.UUID, reason *types.CancelReason) error {
	ctx = wrap.WithRideID(ctx, rideID.String())

	ride, err := s.rides.Get(ctx, rideID)
	if err != nil {
		return wrap.Error(ctx, err)
	}
	if ride.Status != types.RidePending && ride.Status != types.RideAccepted {
		return wrap.Error(ctx, types.ErrRideNotCancellable)
	}

	assigned, err := s.authorizeParty(ctx, ride, actorUserID)
	if err != nil {
		return err
	}
	actorIsDriver := assigned != nil && assigned.UserID == actorUserID

	cancelReason := types.ReasonUserCancelled
	switch {
	case reason != nil && *reason == types.ReasonNoDriversAvailable:
		cancelReason = types.ReasonNoDriversAvailable
	case actorIsDriver:
		cancelReason = types.ReasonDriverCancelled
	}

	applied, err := s.rides.Cancel(ctx, rideID, cancelReason, actorUserID, time.Now())
	if err != nil {
		return wrap.Error(ctx, err)
	}
	if !applied {
		// the claim or another cancel got there first
		return wrap.Error(ctx, types.ErrRideNotCancellable)
	}

	metrics.RidesTotal.WithLabelValues(types.RideCancelled.String()).Inc()
	s.l.Info(ctx, "ride cancelled", "reason", cancelReason, "cancelled_by", actorUserID)

	s.dispatcher.Cancel(ctx, rideID)

	if assigned != nil {
		if err := s.drivers.SetAvailabilityInternal(ctx, assigned.ID, types.AvailabilityOnline); err != nil {
			s.l.Error(ctx, "failed to release driver after cancel", err, "driver_id", assigned.ID)
		}
	}

	var (
		channel string
		event   types.EventName
	)
	switch {
	case actorIsDriver:
		channel = types.RiderChannel(ride.PassengerID)
		event = types.EventRideCancelledByDriver
	case assigned != nil:
		channel = types.DriverChannel(assigned.UserID)
		event = types.EventRideCancelled
	default:
		// PENDING ride cancelled by the rider: the dispatcher already
		// notified every offered driver
		return nil
	}

	pubErr := s.publisher.Publish(ctx, channel, event, models.RideRef{RideID: rideID})
	metrics.RecordEventPublish(event.String(), pubErr)
	if pubErr != nil {
		s.l.Error(wrap.WithAction(ctx, types.ActionEventPublishFailed), "failed to publish cancellation", pubErr)
	}

	return nil
}

// authorizeParty returns the assigned driver (if any) and an error
// unless the actor is the passenger or that driver.
func (s *Service) authorizeParty(ctx context.Context, ride *models.Ride, actorUserID uuid.UUID) (*models.Driver, error) {
	var assigned *models.Driver
	if ride.DriverID != nil {
		driver, err := s.drivers.Get(ctx, *ride.DriverID)
		if err != nil {
			return nil, wrap.Error(ctx, err)
		}
		assigned = driver
	}

	if actorUserID == ride.PassengerID {
		return assigned, nil
	}
	if assigned != nil && assigned.UserID == actorUserID {
		return assigned, nil
	}
	return nil, wrap.Error(ctx, types.ErrNotRideParty)
}

// lastLocation is a best-effort read: a missing location row is normal
// for a driver that never pinged.
func (s *Service) lastLocation(ctx context.Context, driverID uuid.UUID) *models.DriverLocation {
	loc, err := s.drivers.Location(ctx, driverID)
	if err != nil {
		if !errors.Is(err, types.ErrLocationNotFound) {
			s.l.Warn(ctx, "failed to load driver location", "driver_id", driverID, "error", err.Error())
		}
		return nil
	}
	return loc
}
