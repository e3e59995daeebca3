package rideflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
)

/*=====================Fakes======================================*/

type memRideRepo struct {
	mu    sync.Mutex
	rides map[uuid.UUID]*models.Ride
}

func newMemRideRepo(rides ...*models.Ride) *memRideRepo {
	r := &memRideRepo{rides: make(map[uuid.UUID]*models.Ride)}
	for _, ride := range rides {
		r.rides[ride.ID] = ride
	}
	return r
}

func (r *memRideRepo) Create(_ context.Context, ride *models.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ride
	r.rides[ride.ID] = &cp
	return nil
}

func (r *memRideRepo) Get(_ context.Context, rideID uuid.UUID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok {
		return nil, types.ErrRideNotFound
	}
	cp := *ride
	return &cp, nil
}

func (r *memRideRepo) TryAssign(_ context.Context, rideID, driverID uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok || ride.Status != types.RidePending || ride.DriverID != nil {
		return false, nil
	}
	ride.Status = types.RideAccepted
	ride.DriverID = &driverID
	ride.AcceptedAt = &at
	return true, nil
}

func (r *memRideRepo) Cancel(_ context.Context, rideID uuid.UUID, reason types.CancelReason, cancelledBy uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok || (ride.Status != types.RidePending && ride.Status != types.RideAccepted) {
		return false, nil
	}
	ride.Status = types.RideCancelled
	ride.CancellationReason = &reason
	ride.CancelledBy = &cancelledBy
	ride.CancelledAt = &at
	return true, nil
}

func (r *memRideRepo) snapshot(rideID uuid.UUID) models.Ride {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.rides[rideID]
}

type fakeDriverState struct {
	mu           sync.Mutex
	byID         map[uuid.UUID]*models.Driver
	byUser       map[uuid.UUID]*models.Driver
	locations    map[uuid.UUID]*models.DriverLocation
	availability map[uuid.UUID]types.Availability
}

func newFakeDriverState(drivers ...*models.Driver) *fakeDriverState {
	f := &fakeDriverState{
		byID:         make(map[uuid.UUID]*models.Driver),
		byUser:       make(map[uuid.UUID]*models.Driver),
		locations:    make(map[uuid.UUID]*models.DriverLocation),
		availability: make(map[uuid.UUID]types.Availability),
	}
	for _, d := range drivers {
		f.byID[d.ID] = d
		f.byUser[d.UserID] = d
		f.availability[d.ID] = d.Availability
	}
	return f
}

func (f *fakeDriverState) Get(_ context.Context, driverID uuid.UUID) (*models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.byID[driverID]
	if !ok {
		return nil, types.ErrDriverNotFound
	}
	return d, nil
}

func (f *fakeDriverState) GetByUserID(_ context.Context, userID uuid.UUID) (*models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.byUser[userID]
	if !ok {
		return nil, types.ErrDriverNotFound
	}
	return d, nil
}

func (f *fakeDriverState) Location(_ context.Context, driverID uuid.UUID) (*models.DriverLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loc, ok := f.locations[driverID]
	if !ok {
		return nil, types.ErrLocationNotFound
	}
	return loc, nil
}

func (f *fakeDriverState) SetAvailabilityInternal(_ context.Context, driverID uuid.UUID, target types.Availability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.availability[driverID] = target
	return nil
}

func (f *fakeDriverState) currentAvailability(driverID uuid.UUID) types.Availability {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.availability[driverID]
}

type fakeDispatcher struct {
	mu      sync.Mutex
	started []uuid.UUID
	stopped []uuid.UUID
}

func (d *fakeDispatcher) Start(_ context.Context, ride *models.Ride) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = append(d.started, ride.ID)
	return nil
}

func (d *fakeDispatcher) Cancel(_ context.Context, rideID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = append(d.stopped, rideID)
}

func (d *fakeDispatcher) cancelCount(rideID uuid.UUID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, id := range d.stopped {
		if id == rideID {
			n++
		}
	}
	return n
}

type pubRecord struct {
	channel string
	event   types.EventName
	payload any
}

type capturePublisher struct {
	mu   sync.Mutex
	recs []pubRecord
}

func (p *capturePublisher) Publish(_ context.Context, channel string, event types.EventName, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recs = append(p.recs, pubRecord{channel, event, payload})
	return nil
}

func (p *capturePublisher) byEvent(event types.EventName) []pubRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []pubRecord
	for _, r := range p.recs {
		if r.event == event {
			out = append(out, r)
		}
	}
	return out
}

// passthroughTx runs the function without a real transaction.
type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

/*=====================Helpers====================================*/

type fixture struct {
	svc        *Service
	rides      *memRideRepo
	drivers    *fakeDriverState
	dispatcher *fakeDispatcher
	publisher  *capturePublisher
}

func newFixture(rides []*models.Ride, drivers ...*models.Driver) *fixture {
	f := &fixture{
		rides:      newMemRideRepo(rides...),
		drivers:    newFakeDriverState(drivers...),
		dispatcher: &fakeDispatcher{},
		publisher:  &capturePublisher{},
	}
	f.svc = NewService(f.rides, f.drivers, f.dispatcher, f.publisher, passthroughTx{}, logger.NewDiscard())
	return f
}

func onlineDriver() *models.Driver {
	return &models.Driver{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		Name:           "Aibek",
		ApprovalStatus: types.ApprovalApproved,
		Availability:   types.AvailabilityOnline,
		VehicleType:    types.VehicleStandard,
		FuelType:       types.FuelPetrol,
		Capacity:       4,
	}
}

func pendingRide(passengerID uuid.UUID) *models.Ride {
	return &models.Ride{
		ID:          uuid.New(),
		PassengerID: passengerID,
		Pickup:      models.GeoPoint{Address: "Sule Pagoda", Latitude: 16.7734, Longitude: 96.1582},
		Dropoff:     models.GeoPoint{Address: "Inya Lake", Latitude: 16.8259, Longitude: 96.1426},
		VehicleType: types.VehicleStandard,
		TotalFare:   3000,
		Currency:    "MMK",
		Status:      types.RidePending,
		CreatedAt:   time.Now(),
	}
}

/*=====================Create=====================================*/

func TestCreate_PersistsAndStartsDispatch(t *testing.T) {
	f := newFixture(nil)

	ride, err := f.svc.Create(context.Background(), models.Ride{
		PassengerID: uuid.New(),
		Pickup:      models.GeoPoint{Address: "A", Latitude: 16.77, Longitude: 96.15},
		Dropoff:     models.GeoPoint{Address: "B", Latitude: 16.82, Longitude: 96.14},
	})
	if err != nil {
		t.Fatal(err)
	}
	if ride.Status != types.RidePending {
		t.Fatalf("new ride is %s, want PENDING", ride.Status)
	}
	if ride.TotalFare <= 0 {
		t.Fatal("fare was not estimated")
	}
	if ride.Currency != defaultCurrency {
		t.Fatalf("currency default missing: %q", ride.Currency)
	}

	stored := f.rides.snapshot(ride.ID)
	if stored.Status != types.RidePending || stored.DriverID != nil {
		t.Fatalf("stored ride wrong: %+v", stored)
	}
	if len(f.dispatcher.started) != 1 || f.dispatcher.started[0] != ride.ID {
		t.Fatalf("dispatch not started: %v", f.dispatcher.started)
	}
}

func TestCreate_RejectsBadCoordinates(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.Create(context.Background(), models.Ride{
		PassengerID: uuid.New(),
		Pickup:      models.GeoPoint{Latitude: 120, Longitude: 96.15},
		Dropoff:     models.GeoPoint{Latitude: 16.82, Longitude: 96.14},
	})
	if !errors.Is(err, types.ErrInvalidCoordinates) {
		t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
	}
	if len(f.dispatcher.started) != 0 {
		t.Fatal("dispatch started for a rejected ride")
	}
}

func TestEstimateFare_GrowsWithDistance(t *testing.T) {
	near := EstimateFare(
		models.GeoPoint{Latitude: 16.7734, Longitude: 96.1582},
		models.GeoPoint{Latitude: 16.7750, Longitude: 96.1590},
	)
	far := EstimateFare(
		models.GeoPoint{Latitude: 16.7734, Longitude: 96.1582},
		models.GeoPoint{Latitude: 16.9000, Longitude: 96.2500},
	)
	if near < minimumFare {
		t.Fatalf("short hop fell below the minimum: %f", near)
	}
	if far <= near {
		t.Fatalf("fare does not grow with distance: near=%f far=%f", near, far)
	}
}

/*=====================Accept=====================================*/

func TestAccept_HappyPath(t *testing.T) {
	driver := onlineDriver()
	passenger := uuid.New()
	ride := pendingRide(passenger)
	f := newFixture([]*models.Ride{ride}, driver)
	heading := 42.0
	f.drivers.locations[driver.ID] = &models.DriverLocation{
		DriverID: driver.ID, Latitude: 16.78, Longitude: 96.16, Heading: &heading,
	}

	accepted, err := f.svc.Accept(context.Background(), ride.ID, driver.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if accepted.Status != types.RideAccepted || accepted.DriverID == nil || *accepted.DriverID != driver.ID {
		t.Fatalf("snapshot wrong: %+v", accepted.Ride)
	}
	if accepted.DriverName != driver.Name {
		t.Fatalf("driver name missing from snapshot: %q", accepted.DriverName)
	}
	if f.drivers.currentAvailability(driver.ID) != types.AvailabilityOnTrip {
		t.Fatal("winner was not moved to ON_TRIP")
	}

	events := f.publisher.byEvent(types.EventRideAccepted)
	if len(events) != 1 {
		t.Fatalf("ride_accepted published %d times", len(events))
	}
	if want := types.RiderChannel(passenger); events[0].channel != want {
		t.Fatalf("ride_accepted went to %q, want %q", events[0].channel, want)
	}
	payload := events[0].payload.(models.RideAcceptedEvent)
	if payload.DriverLocation == nil || payload.DriverLocation.Latitude != 16.78 {
		t.Fatalf("driver location missing from event: %+v", payload.DriverLocation)
	}

	if f.dispatcher.cancelCount(ride.ID) != 1 {
		t.Fatal("dispatch was not torn down after acceptance")
	}
}

func TestAccept_RaceHasOneWinner(t *testing.T) {
	d1, d2 := onlineDriver(), onlineDriver()
	ride := pendingRide(uuid.New())
	f := newFixture([]*models.Ride{ride}, d1, d2)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, d := range []*models.Driver{d1, d2} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Accept(context.Background(), ride.ID, d.UserID)
		}()
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, types.ErrRideAlreadyAccepted):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("wins=%d losses=%d, want exactly one of each", wins, losses)
	}
	if n := len(f.publisher.byEvent(types.EventRideAccepted)); n != 1 {
		t.Fatalf("rider received %d ride_accepted events", n)
	}
}

func TestAccept_LoserHasNoSideEffects(t *testing.T) {
	winner, loser := onlineDriver(), onlineDriver()
	ride := pendingRide(uuid.New())
	f := newFixture([]*models.Ride{ride}, winner, loser)

	if _, err := f.svc.Accept(context.Background(), ride.ID, winner.UserID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Accept(context.Background(), ride.ID, loser.UserID); !errors.Is(err, types.ErrRideAlreadyAccepted) {
		t.Fatalf("expected ErrRideAlreadyAccepted, got %v", err)
	}

	if f.drivers.currentAvailability(loser.ID) != types.AvailabilityOnline {
		t.Fatal("loser's availability changed despite losing the claim")
	}
	stored := f.rides.snapshot(ride.ID)
	if *stored.DriverID != winner.ID {
		t.Fatal("assignment was overwritten by the loser")
	}
}

func TestAccept_UnknownRideAndDriver(t *testing.T) {
	driver := onlineDriver()
	f := newFixture(nil, driver)

	if _, err := f.svc.Accept(context.Background(), uuid.New(), driver.UserID); !errors.Is(err, types.ErrRideNotFound) {
		t.Fatalf("expected ErrRideNotFound, got %v", err)
	}
	if _, err := f.svc.Accept(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, types.ErrDriverNotFound) {
		t.Fatalf("expected ErrDriverNotFound, got %v", err)
	}
}

func TestAccept_UnapprovedDriver(t *testing.T) {
	driver := onlineDriver()
	driver.ApprovalStatus = types.ApprovalSuspended
	ride := pendingRide(uuid.New())
	f := newFixture([]*models.Ride{ride}, driver)

	if _, err := f.svc.Accept(context.Background(), ride.ID, driver.UserID); !errors.Is(err, types.ErrDriverNotApproved) {
		t.Fatalf("expected ErrDriverNotApproved, got %v", err)
	}
	if f.rides.snapshot(ride.ID).Status != types.RidePending {
		t.Fatal("ride left PENDING state")
	}
}

/*=====================Skip=======================================*/

func TestSkip_LeavesRidePending(t *testing.T) {
	driver := onlineDriver()
	ride := pendingRide(uuid.New())
	f := newFixture([]*models.Ride{ride}, driver)

	if err := f.svc.Skip(context.Background(), ride.ID, driver.UserID); err != nil {
		t.Fatal(err)
	}
	if f.rides.snapshot(ride.ID).Status != types.RidePending {
		t.Fatal("skip must not touch the ride")
	}
	if err := f.svc.Skip(context.Background(), uuid.New(), driver.UserID); !errors.Is(err, types.ErrRideNotFound) {
		t.Fatalf("expected ErrRideNotFound, got %v", err)
	}
}

/*=====================Cancel=====================================*/

func TestCancel_RiderCancelsPendingRide(t *testing.T) {
	passenger := uuid.New()
	ride := pendingRide(passenger)
	f := newFixture([]*models.Ride{ride})

	if err := f.svc.Cancel(context.Background(), ride.ID, passenger, nil); err != nil {
		t.Fatal(err)
	}

	stored := f.rides.snapshot(ride.ID)
	if stored.Status != types.RideCancelled {
		t.Fatalf("ride is %s, want CANCELLED", stored.Status)
	}
	if *stored.CancellationReason != types.ReasonUserCancelled {
		t.Fatalf("reason = %s, want USER_CANCELLED", *stored.CancellationReason)
	}
	if *stored.CancelledBy != passenger {
		t.Fatal("cancelledBy not recorded")
	}
	if f.dispatcher.cancelCount(ride.ID) != 1 {
		t.Fatal("dispatcher was not told to stop")
	}
	// offered drivers are notified by the dispatcher, not here
	if len(f.publisher.byEvent(types.EventRideCancelled)) != 0 {
		t.Fatal("unexpected direct ride_cancelled publish")
	}
}

func TestCancel_DriverCancelsAcceptedRide(t *testing.T) {
	driver := onlineDriver()
	passenger := uuid.New()
	ride := pendingRide(passenger)
	f := newFixture([]*models.Ride{ride}, driver)

	if _, err := f.svc.Accept(context.Background(), ride.ID, driver.UserID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Cancel(context.Background(), ride.ID, driver.UserID, nil); err != nil {
		t.Fatal(err)
	}

	stored := f.rides.snapshot(ride.ID)
	if *stored.CancellationReason != types.ReasonDriverCancelled {
		t.Fatalf("reason = %s, want DRIVER_CANCELLED", *stored.CancellationReason)
	}
	if f.drivers.currentAvailability(driver.ID) != types.AvailabilityOnline {
		t.Fatal("driver was not released back to ONLINE")
	}

	events := f.publisher.byEvent(types.EventRideCancelledByDriver)
	if len(events) != 1 || events[0].channel != types.RiderChannel(passenger) {
		t.Fatalf("rider was not told about the driver cancel: %+v", events)
	}
}

func TestCancel_RiderCancelsAcceptedRide(t *testing.T) {
	driver := onlineDriver()
	passenger := uuid.New()
	ride := pendingRide(passenger)
	f := newFixture([]*models.Ride{ride}, driver)

	if _, err := f.svc.Accept(context.Background(), ride.ID, driver.UserID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Cancel(context.Background(), ride.ID, passenger, nil); err != nil {
		t.Fatal(err)
	}

	stored := f.rides.snapshot(ride.ID)
	if *stored.CancellationReason != types.ReasonUserCancelled {
		t.Fatalf("reason = %s, want USER_CANCELLED", *stored.CancellationReason)
	}
	if f.drivers.currentAvailability(driver.ID) != types.AvailabilityOnline {
		t.Fatal("assigned driver was not released")
	}

	events := f.publisher.byEvent(types.EventRideCancelled)
	if len(events) != 1 || events[0].channel != types.DriverChannel(driver.UserID) {
		t.Fatalf("assigned driver was not notified: %+v", events)
	}
}

func TestCancel_StrangerForbidden(t *testing.T) {
	ride := pendingRide(uuid.New())
	f := newFixture([]*models.Ride{ride})

	if err := f.svc.Cancel(context.Background(), ride.ID, uuid.New(), nil); !errors.Is(err, types.ErrNotRideParty) {
		t.Fatalf("expected ErrNotRideParty, got %v", err)
	}
	if f.rides.snapshot(ride.ID).Status != types.RidePending {
		t.Fatal("stranger managed to cancel the ride")
	}
}

func TestCancel_TerminalRideRejected(t *testing.T) {
	passenger := uuid.New()
	ride := pendingRide(passenger)
	ride.Status = types.RideCompleted
	f := newFixture([]*models.Ride{ride})

	if err := f.svc.Cancel(context.Background(), ride.ID, passenger, nil); !errors.Is(err, types.ErrRideNotCancellable) {
		t.Fatalf("expected ErrRideNotCancellable, got %v", err)
	}
}

/*=====================Status=====================================*/

func TestStatus_PartyChecks(t *testing.T) {
	driver := onlineDriver()
	passenger := uuid.New()
	ride := pendingRide(passenger)
	f := newFixture([]*models.Ride{ride}, driver)

	snap, err := f.svc.Status(context.Background(), ride.ID, passenger)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Status != types.RidePending || snap.DriverName != nil {
		t.Fatalf("pending snapshot wrong: %+v", snap)
	}

	if _, err := f.svc.Status(context.Background(), ride.ID, uuid.New()); !errors.Is(err, types.ErrNotRideParty) {
		t.Fatalf("expected ErrNotRideParty, got %v", err)
	}

	if _, err := f.svc.Accept(context.Background(), ride.ID, driver.UserID); err != nil {
		t.Fatal(err)
	}
	f.drivers.locations[driver.ID] = &models.DriverLocation{
		DriverID: driver.ID, Latitude: 16.78, Longitude: 96.16,
	}

	snap, err = f.svc.Status(context.Background(), ride.ID, driver.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.DriverName == nil || *snap.DriverName != driver.Name {
		t.Fatalf("driver name missing: %+v", snap)
	}
	if snap.DriverLocation == nil {
		t.Fatal("driver location missing from accepted snapshot")
	}
}
