package driverstate

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
)

/*=====================Fakes======================================*/

type memDriverRepo struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*models.Driver
	byUser    map[uuid.UUID]*models.Driver
	presence  map[uuid.UUID]time.Time
	setErr    error
}

func newMemDriverRepo(drivers ...*models.Driver) *memDriverRepo {
	r := &memDriverRepo{
		byID:     make(map[uuid.UUID]*models.Driver),
		byUser:   make(map[uuid.UUID]*models.Driver),
		presence: make(map[uuid.UUID]time.Time),
	}
	for _, d := range drivers {
		r.byID[d.ID] = d
		r.byUser[d.UserID] = d
	}
	return r
}

func (r *memDriverRepo) GetByID(_ context.Context, driverID uuid.UUID) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[driverID]
	if !ok {
		return nil, types.ErrDriverNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memDriverRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byUser[userID]
	if !ok {
		return nil, types.ErrDriverNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memDriverRepo) SetAvailability(_ context.Context, driverID uuid.UUID, availability types.Availability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return r.setErr
	}
	d, ok := r.byID[driverID]
	if !ok {
		return types.ErrDriverNotFound
	}
	d.Availability = availability
	return nil
}

func (r *memDriverRepo) SetAvailabilityFromPresence(_ context.Context, userID uuid.UUID, availability types.Availability, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byUser[userID]
	if !ok {
		return false, nil
	}
	if d.ApprovalStatus != types.ApprovalApproved {
		return false, nil
	}
	if last, seen := r.presence[userID]; seen && at.Before(last) {
		return false, nil
	}
	if d.Availability == types.AvailabilityOnTrip {
		return false, nil
	}
	d.Availability = availability
	r.presence[userID] = at
	return true, nil
}

func (r *memDriverRepo) availability(driverID uuid.UUID) types.Availability {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[driverID].Availability
}

type memLocationRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.DriverLocation
}

func newMemLocationRepo() *memLocationRepo {
	return &memLocationRepo{rows: make(map[uuid.UUID]*models.DriverLocation)}
}

func (r *memLocationRepo) Upsert(_ context.Context, loc *models.DriverLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *loc
	r.rows[loc.DriverID] = &cp
	return nil
}

func (r *memLocationRepo) Get(_ context.Context, driverID uuid.UUID) (*models.DriverLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loc, ok := r.rows[driverID]
	if !ok {
		return nil, types.ErrLocationNotFound
	}
	cp := *loc
	return &cp, nil
}

func approvedDriver() *models.Driver {
	return &models.Driver{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		Name:           "Aslan",
		ApprovalStatus: types.ApprovalApproved,
		Availability:   types.AvailabilityOffline,
		VehicleType:    types.VehicleStandard,
		FuelType:       types.FuelPetrol,
		Capacity:       4,
	}
}

/*=====================Tests======================================*/

func TestSetAvailability_OnlineRequiresApproval(t *testing.T) {
	driver := approvedDriver()
	driver.ApprovalStatus = types.ApprovalPending
	repo := newMemDriverRepo(driver)
	svc := NewService(repo, newMemLocationRepo(), logger.NewDiscard())

	err := svc.SetAvailability(context.Background(), driver.ID, types.AvailabilityOnline)
	if !errors.Is(err, types.ErrDriverNotApproved) {
		t.Fatalf("expected ErrDriverNotApproved, got %v", err)
	}
	if repo.availability(driver.ID) != types.AvailabilityOffline {
		t.Fatal("availability changed despite rejection")
	}
}

func TestSetAvailability_UnapprovedMayGoOffline(t *testing.T) {
	driver := approvedDriver()
	driver.ApprovalStatus = types.ApprovalSuspended
	driver.Availability = types.AvailabilityOnline
	repo := newMemDriverRepo(driver)
	svc := NewService(repo, newMemLocationRepo(), logger.NewDiscard())

	if err := svc.SetAvailability(context.Background(), driver.ID, types.AvailabilityOffline); err != nil {
		t.Fatal(err)
	}
	if repo.availability(driver.ID) != types.AvailabilityOffline {
		t.Fatal("driver should be OFFLINE")
	}
}

func TestSetAvailability_OnTripNotSettable(t *testing.T) {
	driver := approvedDriver()
	svc := NewService(newMemDriverRepo(driver), newMemLocationRepo(), logger.NewDiscard())

	err := svc.SetAvailability(context.Background(), driver.ID, types.AvailabilityOnTrip)
	if !errors.Is(err, types.ErrStatusNotSettable) {
		t.Fatalf("expected ErrStatusNotSettable, got %v", err)
	}
}

func TestSetAvailability_UnknownDriver(t *testing.T) {
	svc := NewService(newMemDriverRepo(), newMemLocationRepo(), logger.NewDiscard())

	err := svc.SetAvailability(context.Background(), uuid.New(), types.AvailabilityOnline)
	if !errors.Is(err, types.ErrDriverNotFound) {
		t.Fatalf("expected ErrDriverNotFound, got %v", err)
	}
}

func TestUpdateLocation_RejectsBadCoordinates(t *testing.T) {
	driver := approvedDriver()
	svc := NewService(newMemDriverRepo(driver), newMemLocationRepo(), logger.NewDiscard())

	err := svc.UpdateLocation(context.Background(), models.DriverLocation{
		DriverID: driver.ID,
		Latitude: 95, Longitude: 71.4,
	})
	if !errors.Is(err, types.ErrInvalidCoordinates) {
		t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
	}
}

func TestUpdateLocation_RejectsUnapprovedDriver(t *testing.T) {
	driver := approvedDriver()
	driver.ApprovalStatus = types.ApprovalPending
	locations := newMemLocationRepo()
	svc := NewService(newMemDriverRepo(driver), locations, logger.NewDiscard())

	err := svc.UpdateLocation(context.Background(), models.DriverLocation{
		DriverID: driver.ID,
		Latitude: 51.09, Longitude: 71.41,
	})
	if !errors.Is(err, types.ErrDriverNotApproved) {
		t.Fatalf("expected ErrDriverNotApproved, got %v", err)
	}
	if _, err := locations.Get(context.Background(), driver.ID); !errors.Is(err, types.ErrLocationNotFound) {
		t.Fatal("location was stored for an unapproved driver")
	}
}

func TestUpdateLocation_UnknownDriver(t *testing.T) {
	svc := NewService(newMemDriverRepo(), newMemLocationRepo(), logger.NewDiscard())

	err := svc.UpdateLocation(context.Background(), models.DriverLocation{
		DriverID: uuid.New(),
		Latitude: 51.09, Longitude: 71.41,
	})
	if !errors.Is(err, types.ErrDriverNotFound) {
		t.Fatalf("expected ErrDriverNotFound, got %v", err)
	}
}

func TestGetStatus_WithAndWithoutLocation(t *testing.T) {
	driver := approvedDriver()
	locations := newMemLocationRepo()
	svc := NewService(newMemDriverRepo(driver), locations, logger.NewDiscard())

	status, err := svc.GetStatus(context.Background(), driver.ID)
	if err != nil {
		t.Fatal(err)
	}
	if status.Location != nil {
		t.Fatal("no location was stored yet")
	}

	if err := svc.UpdateLocation(context.Background(), models.DriverLocation{
		DriverID: driver.ID,
		Latitude: 51.09, Longitude: 71.41,
	}); err != nil {
		t.Fatal(err)
	}

	status, err = svc.GetStatus(context.Background(), driver.ID)
	if err != nil {
		t.Fatal(err)
	}
	if status.Location == nil || status.Location.Latitude != 51.09 {
		t.Fatalf("location missing from status: %+v", status.Location)
	}
	if status.ApprovalStatus != types.ApprovalApproved {
		t.Fatalf("approval status lost: %s", status.ApprovalStatus)
	}
}

func TestApplyPresence_EnterAndLeave(t *testing.T) {
	driver := approvedDriver()
	repo := newMemDriverRepo(driver)
	svc := NewService(repo, newMemLocationRepo(), logger.NewDiscard())

	now := time.Now()
	processed := svc.ApplyPresence(context.Background(), []models.PresenceEvent{
		{ClientID: driver.UserID.String(), Action: models.PresenceEnter, Timestamp: now},
	})
	if processed != 1 {
		t.Fatalf("processed = %d, want 1", processed)
	}
	if repo.availability(driver.ID) != types.AvailabilityOnline {
		t.Fatal("enter should set ONLINE")
	}

	processed = svc.ApplyPresence(context.Background(), []models.PresenceEvent{
		{ClientID: driver.UserID.String(), Action: models.PresenceLeave, Timestamp: now.Add(time.Second)},
	})
	if processed != 1 {
		t.Fatalf("processed = %d, want 1", processed)
	}
	if repo.availability(driver.ID) != types.AvailabilityOffline {
		t.Fatal("leave should set OFFLINE")
	}
}

func TestApplyPresence_StaleEventLoses(t *testing.T) {
	driver := approvedDriver()
	repo := newMemDriverRepo(driver)
	svc := NewService(repo, newMemLocationRepo(), logger.NewDiscard())

	now := time.Now()
	// leave arrives first with the newer timestamp, then the delayed enter
	svc.ApplyPresence(context.Background(), []models.PresenceEvent{
		{ClientID: driver.UserID.String(), Action: models.PresenceLeave, Timestamp: now.Add(time.Second)},
	})
	processed := svc.ApplyPresence(context.Background(), []models.PresenceEvent{
		{ClientID: driver.UserID.String(), Action: models.PresenceEnter, Timestamp: now},
	})
	if processed != 0 {
		t.Fatalf("stale enter was applied, processed = %d", processed)
	}
	if repo.availability(driver.ID) != types.AvailabilityOffline {
		t.Fatal("stale enter overwrote the newer leave")
	}
}

func TestApplyPresence_NeverErrorsOnGarbage(t *testing.T) {
	driver := approvedDriver()
	svc := NewService(newMemDriverRepo(driver), newMemLocationRepo(), logger.NewDiscard())

	now := time.Now()
	events := []models.PresenceEvent{
		{ClientID: "not-a-uuid", Action: models.PresenceEnter, Timestamp: now},
		{ClientID: uuid.New().String(), Action: models.PresenceEnter, Timestamp: now}, // unknown driver
		{ClientID: driver.UserID.String(), Action: models.PresenceAction(9), Timestamp: now},
		{ClientID: driver.UserID.String(), Action: models.PresenceEnter, Timestamp: now},
	}

	processed := svc.ApplyPresence(context.Background(), events)
	if processed != 1 {
		t.Fatalf("processed = %d, want 1", processed)
	}
}

func TestApplyPresence_SkipsUnapprovedDriver(t *testing.T) {
	suspended := approvedDriver()
	suspended.ApprovalStatus = types.ApprovalSuspended
	pending := approvedDriver()
	pending.ApprovalStatus = types.ApprovalPending
	repo := newMemDriverRepo(suspended, pending)
	svc := NewService(repo, newMemLocationRepo(), logger.NewDiscard())

	now := time.Now()
	processed := svc.ApplyPresence(context.Background(), []models.PresenceEvent{
		{ClientID: suspended.UserID.String(), Action: models.PresenceEnter, Timestamp: now},
		{ClientID: pending.UserID.String(), Action: models.PresenceEnter, Timestamp: now},
	})
	if processed != 0 {
		t.Fatalf("processed = %d, want 0", processed)
	}
	if repo.availability(suspended.ID) != types.AvailabilityOffline {
		t.Fatal("presence enter put a SUSPENDED driver ONLINE")
	}
	if repo.availability(pending.ID) != types.AvailabilityOffline {
		t.Fatal("presence enter put a PENDING driver ONLINE")
	}
}

func TestApplyPresence_DoesNotTouchOnTrip(t *testing.T) {
	driver := approvedDriver()
	driver.Availability = types.AvailabilityOnTrip
	repo := newMemDriverRepo(driver)
	svc := NewService(repo, newMemLocationRepo(), logger.NewDiscard())

	processed := svc.ApplyPresence(context.Background(), []models.PresenceEvent{
		{ClientID: driver.UserID.String(), Action: models.PresenceLeave, Timestamp: time.Now()},
	})
	if processed != 0 {
		t.Fatalf("processed = %d, want 0", processed)
	}
	if repo.availability(driver.ID) != types.AvailabilityOnTrip {
		t.Fatal("presence clobbered ON_TRIP")
	}
}

func TestApplyPresence_BatchCounts(t *testing.T) {
	drivers := make([]*models.Driver, 3)
	events := make([]models.PresenceEvent, 0, 3)
	repoDrivers := make([]*models.Driver, 0, 3)
	now := time.Now()
	for i := range drivers {
		d := approvedDriver()
		d.Name = "driver-" + strconv.Itoa(i)
		drivers[i] = d
		repoDrivers = append(repoDrivers, d)
		events = append(events, models.PresenceEvent{
			ClientID:  d.UserID.String(),
			Action:    models.PresenceEnter,
			Timestamp: now,
		})
	}
	svc := NewService(newMemDriverRepo(repoDrivers...), newMemLocationRepo(), logger.NewDiscard())

	if processed := svc.ApplyPresence(context.Background(), events); processed != 3 {
		t.Fatalf("processed = %d, want 3", processed)
	}
}
