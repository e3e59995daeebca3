package models

import (
	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
)

// RideOffer is the new_ride_request payload pushed to a driver's
// private channel. Built once per dispatch and reused every round.
type RideOffer struct {
	RideID         uuid.UUID         `json:"rideId"`
	PickupAddress  string            `json:"pickupAddress"`
	PickupLat      float64           `json:"pickupLat"`
	PickupLng      float64           `json:"pickupLng"`
	DropoffAddress string            `json:"dropoffAddress"`
	DropoffLat     float64           `json:"dropoffLat"`
	DropoffLng     float64           `json:"dropoffLng"`
	EstimatedFare  float64           `json:"estimatedFare"`
	Currency       string            `json:"currency"`
	VehicleType    types.VehicleType `json:"vehicleType"`
	PassengerNote  *string           `json:"passengerNote"`
	PickupPhotoURL *string           `json:"pickupPhotoUrl"`
}

// OfferFromRide builds the offer payload for a pending ride.
func OfferFromRide(ride *Ride) RideOffer {
	return RideOffer{
		RideID:         ride.ID,
		PickupAddress:  ride.Pickup.Address,
		PickupLat:      ride.Pickup.Latitude,
		PickupLng:      ride.Pickup.Longitude,
		DropoffAddress: ride.Dropoff.Address,
		DropoffLat:     ride.Dropoff.Latitude,
		DropoffLng:     ride.Dropoff.Longitude,
		EstimatedFare:  ride.TotalFare,
		Currency:       ride.Currency,
		VehicleType:    ride.VehicleType,
		PassengerNote:  ride.PassengerNote,
		PickupPhotoURL: ride.PickupPhotoURL,
	}
}

// EventDriverLocation is the location fragment inside ride_accepted.
type EventDriverLocation struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Heading   *float64 `json:"heading,omitempty"`
}

// RideAcceptedEvent goes to the rider channel when a driver wins the claim.
type RideAcceptedEvent struct {
	RideID         uuid.UUID            `json:"rideId"`
	DriverID       uuid.UUID            `json:"driverId"`
	DriverName     string               `json:"driverName"`
	DriverLocation *EventDriverLocation `json:"driverLocation"`
}

// RideRef is the minimal {rideId} payload used by ride_cancelled,
// ride_cancelled_by_driver and no_driver_found.
type RideRef struct {
	RideID uuid.UUID `json:"rideId"`
}
