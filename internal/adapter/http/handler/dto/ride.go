package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
	"github.com/nurkan-dev/ride-dispatch/pkg/validator"
)

type GeoPointRequest struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type CreateRideRequest struct {
	Pickup         GeoPointRequest `json:"pickup"`
	Dropoff        GeoPointRequest `json:"dropoff"`
	VehicleType    string          `json:"vehicleType"`
	TotalFare      float64         `json:"totalFare"`
	Currency       string          `json:"currency"`
	PassengerNote  *string         `json:"passengerNote"`
	PickupPhotoURL *string         `json:"pickupPhotoUrl"`
}

func (r *CreateRideRequest) Validate(v *validator.Validator) {
	v.Check(r.Pickup.Address != "", "pickup.address", "must be provided")
	v.Check(len(r.Pickup.Address) <= 255, "pickup.address", "must not be more than 255 characters long")
	v.Check(validator.LatitudeInRange(r.Pickup.Latitude), "pickup.latitude", "must be between -90 and 90")
	v.Check(validator.LongitudeInRange(r.Pickup.Longitude), "pickup.longitude", "must be between -180 and 180")

	v.Check(r.Dropoff.Address != "", "dropoff.address", "must be provided")
	v.Check(len(r.Dropoff.Address) <= 255, "dropoff.address", "must not be more than 255 characters long")
	v.Check(validator.LatitudeInRange(r.Dropoff.Latitude), "dropoff.latitude", "must be between -90 and 90")
	v.Check(validator.LongitudeInRange(r.Dropoff.Longitude), "dropoff.longitude", "must be between -180 and 180")

	if r.VehicleType != "" {
		v.Check(validator.PermittedValue(r.VehicleType, "STANDARD", "PLUS"), "vehicleType", "must be one of STANDARD or PLUS")
	}
	v.Check(r.TotalFare >= 0, "totalFare", "must not be negative")
	if r.PassengerNote != nil {
		v.Check(len(*r.PassengerNote) <= 500, "passengerNote", "must not be more than 500 characters long")
	}
}

func (r *CreateRideRequest) ToModel(passengerID uuid.UUID) models.Ride {
	return models.Ride{
		PassengerID:    passengerID,
		Pickup:         models.GeoPoint{Address: r.Pickup.Address, Latitude: r.Pickup.Latitude, Longitude: r.Pickup.Longitude},
		Dropoff:        models.GeoPoint{Address: r.Dropoff.Address, Latitude: r.Dropoff.Latitude, Longitude: r.Dropoff.Longitude},
		VehicleType:    types.VehicleType(r.VehicleType),
		TotalFare:      r.TotalFare,
		Currency:       r.Currency,
		PassengerNote:  r.PassengerNote,
		PickupPhotoURL: r.PickupPhotoURL,
	}
}

type CreateRideResponse struct {
	RideID      uuid.UUID `json:"rideId"`
	Status      string    `json:"status"`
	TotalFare   float64   `json:"totalFare"`
	Currency    string    `json:"currency"`
	VehicleType string    `json:"vehicleType"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewCreateRideResponse(ride *models.Ride) CreateRideResponse {
	return CreateRideResponse{
		RideID:      ride.ID,
		Status:      ride.Status.String(),
		TotalFare:   ride.TotalFare,
		Currency:    ride.Currency,
		VehicleType: string(ride.VehicleType),
		CreatedAt:   ride.CreatedAt,
	}
}

type CancelRideRequest struct {
	Reason *string `json:"reason"`
}

func (r *CancelRideRequest) Validate(v *validator.Validator) {
	if r.Reason != nil && *r.Reason != "" {
		v.Check(validator.PermittedValue(*r.Reason, "USER_CANCELLED", "DRIVER_CANCELLED", "NO_DRIVERS_AVAILABLE"),
			"reason", "must be one of USER_CANCELLED, DRIVER_CANCELLED or NO_DRIVERS_AVAILABLE")
	}
}

func (r *CancelRideRequest) ToReason() *types.CancelReason {
	if r.Reason == nil || *r.Reason == "" {
		return nil
	}
	reason := types.CancelReason(*r.Reason)
	return &reason
}

type AcceptedRideResponse struct {
	RideID         uuid.UUID              `json:"rideId"`
	Status         string                 `json:"status"`
	PassengerID    uuid.UUID              `json:"passengerId"`
	Pickup         models.GeoPoint        `json:"pickup"`
	Dropoff        models.GeoPoint        `json:"dropoff"`
	TotalFare      float64                `json:"totalFare"`
	Currency       string                 `json:"currency"`
	DriverName     string                 `json:"driverName"`
	DriverLocation *models.DriverLocation `json:"driverLocation,omitempty"`
	AcceptedAt     *time.Time             `json:"acceptedAt"`
}

func NewAcceptedRideResponse(accepted *models.AcceptedRide) AcceptedRideResponse {
	return AcceptedRideResponse{
		RideID:         accepted.ID,
		Status:         accepted.Status.String(),
		PassengerID:    accepted.PassengerID,
		Pickup:         accepted.Pickup,
		Dropoff:        accepted.Dropoff,
		TotalFare:      accepted.TotalFare,
		Currency:       accepted.Currency,
		DriverName:     accepted.DriverName,
		DriverLocation: accepted.DriverLocation,
		AcceptedAt:     accepted.AcceptedAt,
	}
}
