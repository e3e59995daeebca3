package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/adapter/http/handler/dto"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
	wrap "github.com/nurkan-dev/ride-dispatch/pkg/logger/wrapper"
	"github.com/nurkan-dev/ride-dispatch/pkg/validator"
)

const (
	defaultNearbyRadiusM = 5000.0
	defaultNearbyLimit   = 10
	maxNearbyLimit       = 50
)

type Dispatch struct {
	drivers  DriverStateService
	matching MatchingService
	l        logger.Logger
}

type DriverStateService interface {
	SetAvailability(ctx context.Context, driverID uuid.UUID, target types.Availability) error
	UpdateLocation(ctx context.Context, loc models.DriverLocation) error
	GetStatus(ctx context.Context, driverID uuid.UUID) (*models.DriverStatus, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Driver, error)
}

type MatchingService interface {
	FindNearbyDrivers(ctx context.Context, lat, lng, radiusM float64, limit int, filters models.MatchFilters) ([]models.NearbyDriver, error)
}

func NewDispatch(drivers DriverStateService, matching MatchingService, l logger.Logger) *Dispatch {
	return &Dispatch{
		drivers:  drivers,
		matching: matching,
		l:        l,
	}
}

// GetStatus godoc
// @Summary      Driver dispatch status
// @Description  Returns availability, approval and last known location of the calling driver
// @Tags         Dispatch
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.DriverStatusResponse
// @Failure      404  {object}  map[string]string
// @Router       /dispatch/status [get]
func (h *Dispatch) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_dispatch_status")

	driver, ok := h.callingDriver(ctx, w)
	if !ok {
		return
	}

	status, err := h.drivers.GetStatus(ctx, driver.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get driver status", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"status": dto.NewDriverStatusResponse(status)}, nil); err != nil {
		internalErrorResponse(w, err.Error())
	}
}

// UpdateStatus godoc
// @Summary      Toggle driver availability
// @Description  Sets the calling driver ONLINE or OFFLINE; ONLINE requires an approved profile
// @Tags         Dispatch
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  dto.UpdateStatusRequest  true  "Target status"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /dispatch/status [patch]
func (h *Dispatch) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_dispatch_status")

	var req dto.UpdateStatusRequest
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

	driver, ok := h.callingDriver(ctx, w)
	if !ok {
		return
	}

	if err := h.drivers.SetAvailability(ctx, driver.ID, types.Availability(req.Status)); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to update availability", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"status": req.Status}, nil); err != nil {
		internalErrorResponse(w, err.Error())
	}
}

// UpdateLocation godoc
// @Summary      Driver location ping
// @Description  Upserts the calling driver's current position
// @Tags         Dispatch
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  dto.UpdateLocationRequest  true  "Coordinates"
// @Success      200  {object}  map[string]bool
// @Failure      422  {object}  map[string]string
// @Router       /dispatch/location [post]
func (h *Dispatch) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_driver_location")

	var req dto.UpdateLocationRequest
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

	driver, ok := h.callingDriver(ctx, w)
	if !ok {
		return
	}

	loc := models.DriverLocation{
		DriverID:  driver.ID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Heading:   req.Heading,
		Speed:     req.Speed,
		Accuracy:  req.Accuracy,
	}
	if err := h.drivers.UpdateLocation(ctx, loc); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to update location", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ok": true}, nil); err != nil {
		internalErrorResponse(w, err.Error())
	}
}

// Nearby godoc
// @Summary      Nearby drivers
// @Description  Radius query over online approved drivers, nearest first
// @Tags         Dispatch
// @Produce      json
// @Security     BearerAuth
// @Param        lat     query  number  true   "Latitude"
// @Param        lng     query  number  true   "Longitude"
// @Param        radius  query  number  false  "Radius in metres"
// @Param        limit   query  int     false  "Max drivers"
// @Success      200  {object}  dto.NearbyResponse
// @Failure      400  {object}  map[string]string
// @Router       /dispatch/nearby [get]
func (h *Dispatch) Nearby(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "find_nearby_drivers")

	query := r.URL.Query()

	lat, latErr := strconv.ParseFloat(query.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(query.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		badRequestResponse(w, "lat and lng query parameters are required numbers")
		return
	}

	radius := defaultNearbyRadiusM
	if raw := query.Get("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			badRequestResponse(w, "radius must be a positive number")
			return
		}
		radius = parsed
	}

	limit := defaultNearbyLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			badRequestResponse(w, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxNearbyLimit)
	}

	filters := dto.NearbyFilters{
		VehicleType:     query.Get("vehicleType"),
		FuelType:        query.Get("fuelType"),
		PetFriendly:     query.Get("petFriendly") == "true",
		ExtraPassengers: query.Get("extraPassengers") == "true",
	}

	drivers, err := h.matching.FindNearbyDrivers(ctx, lat, lng, radius, limit, filters.ToModel())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "nearby query failed", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := dto.NearbyResponse{
		Count:   len(drivers),
		Drivers: drivers,
	}
	if err := writeJSON(w, http.StatusOK, envelope{"count": response.Count, "drivers": response.Drivers}, nil); err != nil {
		internalErrorResponse(w, err.Error())
	}
}

// callingDriver resolves the driver profile of the authenticated user.
func (h *Dispatch) callingDriver(ctx context.Context, w http.ResponseWriter) (*models.Driver, bool) {
	user := models.UserFromContext(ctx)
	if user == nil || user.IsAnonymous() {
		errorResponse(w, http.StatusUnauthorized, "authorization required")
		return nil, false
	}

	driver, err := h.drivers.GetByUserID(ctx, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to resolve driver profile", err)
		errorResponse(w, GetCode(err), err.Error())
		return nil, false
	}
	return driver, true
}
