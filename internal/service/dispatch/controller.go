package dispatch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
	wrap "github.com/nurkan-dev/ride-dispatch/pkg/logger/wrapper"
	"github.com/nurkan-dev/ride-dispatch/pkg/metrics"
)

/*
Controller orchestrates ride offers across expanding-radius rounds.

Each pending ride owns one activeDispatch record. The record lives only
in this process: a restart drops it and leaves the ride PENDING for the
external sweeper. The ride row stays the durable source of truth; every
round re-reads it before publishing anything.
*/
type Controller struct {
	cfg       Config
	rides     RideStore
	matcher   Matcher
	publisher EventPublisher
	l         logger.Logger

	mu     sync.Mutex
	active map[uuid.UUID]*activeDispatch
}

// activeDispatch is the live scheduling state for one PENDING ride.
// Immutable fields (ids, pickup, offer) are set once at Start; round,
// notified, order and timer are touched only under Controller.mu.
type activeDispatch struct {
	rideID      uuid.UUID
	passengerID uuid.UUID

	round    int
	notified map[uuid.UUID]struct{}
	order    []uuid.UUID // notification order, for the cancel broadcast

	pickupLat float64
	pickupLng float64
	filters   models.MatchFilters
	offer     models.RideOffer

	timer *time.Timer
}

func NewController(cfg Config, rides RideStore, matcher Matcher, publisher EventPublisher, l logger.Logger) *Controller {
	if cfg.RoundInterval <= 0 {
		cfg = DefaultConfig()
	}
	return &Controller{
		cfg:       cfg,
		rides:     rides,
		matcher:   matcher,
		publisher: publisher,
		l:         l,
		active:    make(map[uuid.UUID]*activeDispatch),
	}
}

// Start begins dispatching a freshly persisted PENDING ride. It returns
// immediately; round 0 executes on its own goroutine. Starting a ride
// that is already being dispatched is a programmer error.
func (c *Controller) Start(ctx context.Context, ride *models.Ride) error {
	if ride.Status != types.RidePending {
		return fmt.Errorf("dispatch start: ride %s is %s, want PENDING", ride.ID, ride.Status)
	}

	ad := &activeDispatch{
		rideID:      ride.ID,
		passengerID: ride.PassengerID,
		notified:    make(map[uuid.UUID]struct{}),
		pickupLat:   ride.Pickup.Latitude,
		pickupLng:   ride.Pickup.Longitude,
		filters:     models.MatchFilters{VehicleType: ride.VehicleType},
		offer:       models.OfferFromRide(ride),
	}

	c.mu.Lock()
	if _, exists := c.active[ride.ID]; exists {
		c.mu.Unlock()
		return types.ErrDispatchExists
	}
	c.active[ride.ID] = ad
	c.mu.Unlock()

	metrics.ActiveDispatchesGauge.Inc()
	c.l.Info(wrap.WithRideID(ctx, ride.ID.String()), "dispatch started",
		"pickup_lat", ad.pickupLat, "pickup_lng", ad.pickupLng)

	go c.runRound(ride.ID)

	return nil
}

// Cancel tears down the dispatch for a ride and tells every driver that
// was offered it to dismiss the offer. Idempotent; a no-op when no
// dispatch is active.
func (c *Controller) Cancel(ctx context.Context, rideID uuid.UUID) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: types.ActionDispatchCancel, RideID: rideID.String()})

	c.mu.Lock()
	ad, ok := c.active[rideID]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.active, rideID)
	if ad.timer != nil {
		ad.timer.Stop()
	}
	notified := slices.Clone(ad.order)
	c.mu.Unlock()

	metrics.ActiveDispatchesGauge.Dec()
	c.l.Info(ctx, "dispatch cancelled", "round", ad.round, "notified", len(notified))

	for _, userID := range notified {
		if err := c.publisher.Publish(ctx, types.DriverChannel(userID), types.EventRideCancelled, models.RideRef{RideID: rideID}); err != nil {
			c.l.Warn(ctx, "failed to notify driver about cancellation", "driver_user_id", userID, "error", err.Error())
		}
	}
}

// Active reports whether a dispatch is currently running for the ride.
func (c *Controller) Active(rideID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.active[rideID]
	return ok
}

// Close stops all pending timers. Used on shutdown; no events are
// emitted, the rides stay PENDING.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ad := range c.active {
		if ad.timer != nil {
			ad.timer.Stop()
		}
		delete(c.active, id)
		metrics.ActiveDispatchesGauge.Dec()
	}
}

// runRound executes one round: re-check the ride, query the matcher at
// the round's radius, offer to drivers not yet notified, then arm the
// timer for the next round or for exhaustion.
func (c *Controller) runRound(rideID uuid.UUID) {
	ctx := wrap.WithLogCtx(context.Background(), wrap.LogCtx{Action: types.ActionDispatchRound, RideID: rideID.String()})

	c.mu.Lock()
	ad, ok := c.active[rideID]
	if !ok {
		// cancel or acceptance won the race while the timer was in flight
		c.mu.Unlock()
		return
	}
	round := ad.round
	c.mu.Unlock()

	if round >= len(c.cfg.RadiiMeters) {
		c.armTimer(rideID, c.exhaust)
		return
	}

	ride, err := c.rides.Get(ctx, rideID)
	if err != nil {
		if errors.Is(err, types.ErrRideNotFound) {
			c.l.Info(ctx, "ride disappeared, dropping dispatch")
		} else {
			c.l.Error(ctx, "ride re-check failed, dropping dispatch", err, "round", round)
		}
		c.remove(rideID)
		return
	}
	if ride.Status != types.RidePending {
		c.l.Debug(ctx, "ride no longer pending, stopping dispatch", "status", ride.Status)
		c.remove(rideID)
		return
	}

	radius := c.cfg.RadiiMeters[round]
	candidates, err := c.matcher.FindNearbyDrivers(ctx, ad.pickupLat, ad.pickupLng, radius, c.cfg.DriverLimit, ad.filters)
	if err != nil {
		// not fatal: drivers may come online before the next round
		c.l.Error(ctx, "matching query failed", err, "round", round, "radius_m", radius)
		candidates = nil
	}
	metrics.DispatchRoundsTotal.Inc()

	fresh := c.markNotified(rideID, candidates)
	for _, drv := range fresh {
		if err := c.publisher.Publish(ctx, types.DriverChannel(drv.UserID), types.EventNewRideRequest, ad.offer); err != nil {
			// at-least-once: the notified set records intent, not delivery
			c.l.Warn(ctx, "failed to publish ride offer", "driver_user_id", drv.UserID, "error", err.Error())
		}
		metrics.OffersPublishedTotal.Inc()
	}

	c.l.Debug(ctx, "round completed", "round", round, "radius_m", radius,
		"candidates", len(candidates), "newly_notified", len(fresh))

	// arm the next step; skip if cancel raced in during the round body
	c.mu.Lock()
	ad, ok = c.active[rideID]
	if !ok {
		c.mu.Unlock()
		return
	}
	ad.round++
	next := c.runRound
	if ad.round >= len(c.cfg.RadiiMeters) {
		next = c.exhaust
	}
	ad.timer = time.AfterFunc(c.cfg.RoundInterval, func() { next(rideID) })
	c.mu.Unlock()
}

// markNotified records candidates not yet offered this ride and returns
// them. Performed under the lock so a concurrent Cancel broadcasts to
// exactly the drivers in the notified set.
func (c *Controller) markNotified(rideID uuid.UUID, candidates []models.NearbyDriver) []models.NearbyDriver {
	c.mu.Lock()
	defer c.mu.Unlock()

	ad, ok := c.active[rideID]
	if !ok {
		return nil
	}

	fresh := make([]models.NearbyDriver, 0, len(candidates))
	for _, drv := range candidates {
		if _, seen := ad.notified[drv.UserID]; seen {
			continue
		}
		ad.notified[drv.UserID] = struct{}{}
		ad.order = append(ad.order, drv.UserID)
		fresh = append(fresh, drv)
	}
	return fresh
}

// exhaust runs after the post-final grace interval: the dispatch is
// removed, and the ride is cancelled with NO_DRIVERS_AVAILABLE unless a
// late acceptance got there first.
func (c *Controller) exhaust(rideID uuid.UUID) {
	ctx := wrap.WithLogCtx(context.Background(), wrap.LogCtx{Action: types.ActionDispatchExhaust, RideID: rideID.String()})

	c.mu.Lock()
	ad, ok := c.active[rideID]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.active, rideID)
	passengerID := ad.passengerID
	c.mu.Unlock()

	metrics.ActiveDispatchesGauge.Dec()

	cancelled, err := c.rides.MarkNoDriversAvailable(ctx, rideID, time.Now())
	if err != nil {
		c.l.Error(ctx, "failed to cancel exhausted ride", err)
		return
	}
	if !cancelled {
		c.l.Debug(ctx, "ride resolved before exhaustion, nothing to do")
		return
	}

	metrics.RidesTotal.WithLabelValues(types.RideCancelled.String()).Inc()
	c.l.Info(ctx, "dispatch exhausted, no drivers available", "rounds", len(c.cfg.RadiiMeters))

	if err := c.publisher.Publish(ctx, types.RiderChannel(passengerID), types.EventNoDriverFound, models.RideRef{RideID: rideID}); err != nil {
		c.l.Warn(ctx, "failed to publish no_driver_found", "error", err.Error())
	}
}

// remove drops a dispatch without notifying anyone. Used when a round
// observes the ride already resolved.
func (c *Controller) remove(rideID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ad, ok := c.active[rideID]
	if !ok {
		return
	}
	if ad.timer != nil {
		ad.timer.Stop()
	}
	delete(c.active, rideID)
	metrics.ActiveDispatchesGauge.Dec()
}

// armTimer re-arms a step callback for a dispatch that is still active.
func (c *Controller) armTimer(rideID uuid.UUID, step func(uuid.UUID)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ad, ok := c.active[rideID]
	if !ok {
		return
	}
	ad.timer = time.AfterFunc(c.cfg.RoundInterval, func() { step(rideID) })
}
