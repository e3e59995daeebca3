package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/adapter/http/handler/dto"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
	wrap "github.com/nurkan-dev/ride-dispatch/pkg/logger/wrapper"
	"github.com/nurkan-dev/ride-dispatch/pkg/validator"
)

type Ride struct {
	service RideService
	l       logger.Logger
}

type RideService interface {
	Create(ctx context.Context, input models.Ride) (*models.Ride, error)
	Status(ctx context.Context, rideID, actorUserID uuid.UUID) (*models.RideSnapshot, error)
	Accept(ctx context.Context, rideID, driverUserID uuid.UUID) (*models.AcceptedRide, error)
	Skip(ctx context.Context, rideID, driverUserID uuid.UUID) error
	Cancel(ctx context.Context, rideID, actorUserID uuid.UUID, reason *types.CancelReason) error
}

func NewRide(service RideService, l logger.Logger) *Ride {
	return &Ride{
		service: service,
		l:       l,
	}
}

// Create godoc
// @Summary      Create ride
// @Description  Persists a PENDING ride and starts offering it to nearby drivers
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  dto.CreateRideRequest  true  "Ride request"
// @Success      201  {object}  dto.CreateRideResponse
// @Failure      422  {object}  map[string]string
// @Router       /rides [post]
func (h *Ride) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_ride")

	var req dto.CreateRideRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	user := models.UserFromContext(ctx)
	ride, err := h.service.Create(ctx, req.ToModel(user.ID))
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create ride", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusCreated, envelope{"ride": dto.NewCreateRideResponse(ride)}, nil); err != nil {
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "ride created", "ride_id", ride.ID)
}

// Status godoc
// @Summary      Ride status
// @Description  Polling endpoint for the rider or the accepted driver
// @Tags         Rides
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path  string  true  "Ride ID"
// @Success      200  {object}  models.RideSnapshot
// @Failure      403  {object}  map[string]string
// @Router       /rides/{ride_id}/status [get]
func (h *Ride) Status(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_ride_status")

	rideID, ok := parseRideID(w, r)
	if !ok {
		return
	}

	user := models.UserFromContext(ctx)
	snapshot, err := h.service.Status(ctx, rideID, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get ride status", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ride": snapshot}, nil); err != nil {
		internalErrorResponse(w, err.Error())
	}
}

// Accept godoc
// @Summary      Accept ride
// @Description  Atomic claim: at most one driver wins; losers get 409
// @Tags         Rides
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path  string  true  "Ride ID"
// @Success      200  {object}  dto.AcceptedRideResponse
// @Failure      409  {object}  map[string]string
// @Router       /rides/{ride_id}/accept [post]
func (h *Ride) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "accept_ride")

	rideID, ok := parseRideID(w, r)
	if !ok {
		return
	}

	user := models.UserFromContext(ctx)
	accepted, err := h.service.Accept(ctx, rideID, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to accept ride", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ride": dto.NewAcceptedRideResponse(accepted)}, nil); err != nil {
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "ride accepted", "ride_id", rideID)
}

// Skip godoc
// @Summary      Skip ride offer
// @Description  Advisory dismissal; the ride stays available to other drivers
// @Tags         Rides
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path  string  true  "Ride ID"
// @Success      200  {object}  map[string]bool
// @Router       /rides/{ride_id}/skip [post]
func (h *Ride) Skip(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "skip_ride")

	rideID, ok := parseRideID(w, r)
	if !ok {
		return
	}

	user := models.UserFromContext(ctx)
	if err := h.service.Skip(ctx, rideID, user.ID); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to skip ride", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ok": true}, nil); err != nil {
		internalErrorResponse(w, err.Error())
	}
}

// Cancel godoc
// @Summary      Cancel ride
// @Description  Cancels a PENDING or ACCEPTED ride on behalf of the rider or the accepted driver
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path  string  true  "Ride ID"
// @Param        request  body  dto.CancelRideRequest  false  "Optional reason"
// @Success      200  {object}  map[string]bool
// @Failure      403  {object}  map[string]string
// @Router       /rides/{ride_id}/cancel [post]
func (h *Ride) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "cancel_ride")

	rideID, ok := parseRideID(w, r)
	if !ok {
		return
	}

	var req dto.CancelRideRequest
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &req); err != nil {
			h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
			badRequestResponse(w, err.Error())
			return
		}
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	user := models.UserFromContext(ctx)
	if err := h.service.Cancel(ctx, rideID, user.ID, req.ToReason()); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to cancel ride", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ok": true}, nil); err != nil {
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "ride cancelled", "ride_id", rideID)
}

func parseRideID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	rideID, err := uuid.Parse(r.PathValue("ride_id"))
	if err != nil {
		badRequestResponse(w, "invalid ride uuid format")
		return uuid.Nil, false
	}
	return rideID, true
}
