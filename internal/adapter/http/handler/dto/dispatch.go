package dto

import (
	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
	"github.com/nurkan-dev/ride-dispatch/pkg/validator"
)

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdateStatusRequest) Validate(v *validator.Validator) {
	v.Check(r.Status != "", "status", "must be provided")
	if r.Status != "" {
		v.Check(validator.PermittedValue(r.Status, "ONLINE", "OFFLINE"), "status", "must be one of ONLINE or OFFLINE")
	}
}

type UpdateLocationRequest struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Heading   *float64 `json:"heading"`
	Speed     *float64 `json:"speed"`
	Accuracy  *float64 `json:"accuracy"`
}

func (r *UpdateLocationRequest) Validate(v *validator.Validator) {
	v.Check(validator.LatitudeInRange(r.Latitude), "latitude", "must be between -90 and 90")
	v.Check(validator.LongitudeInRange(r.Longitude), "longitude", "must be between -180 and 180")
	if r.Heading != nil {
		v.Check(*r.Heading >= 0 && *r.Heading < 360, "heading", "must be between 0 and 360")
	}
	if r.Speed != nil {
		v.Check(*r.Speed >= 0, "speed", "must not be negative")
	}
	if r.Accuracy != nil {
		v.Check(*r.Accuracy >= 0, "accuracy", "must not be negative")
	}
}

type DriverStatusResponse struct {
	DriverID       string                 `json:"driverId"`
	Status         string                 `json:"status"`
	ApprovalStatus string                 `json:"approvalStatus"`
	Location       *models.DriverLocation `json:"location,omitempty"`
}

func NewDriverStatusResponse(status *models.DriverStatus) DriverStatusResponse {
	return DriverStatusResponse{
		DriverID:       status.DriverID.String(),
		Status:         status.Availability.String(),
		ApprovalStatus: string(status.ApprovalStatus),
		Location:       status.Location,
	}
}

type NearbyResponse struct {
	Count   int                   `json:"count"`
	Drivers []models.NearbyDriver `json:"drivers"`
}

// NearbyFilters decodes the optional attribute filters of the nearby query.
type NearbyFilters struct {
	VehicleType     string
	FuelType        string
	PetFriendly     bool
	ExtraPassengers bool
}

func (f NearbyFilters) ToModel() models.MatchFilters {
	return models.MatchFilters{
		VehicleType:     types.VehicleType(f.VehicleType),
		FuelType:        types.FuelType(f.FuelType),
		PetFriendly:     f.PetFriendly,
		ExtraPassengers: f.ExtraPassengers,
	}
}
