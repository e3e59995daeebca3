package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
)

type GeoPoint struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Ride struct {
	ID          uuid.UUID
	PassengerID uuid.UUID
	Pickup      GeoPoint
	Dropoff     GeoPoint
	VehicleType types.VehicleType
	TotalFare   float64
	Currency    string

	PassengerNote  *string
	PickupPhotoURL *string

	Status   types.RideStatus
	DriverID *uuid.UUID // non-nil iff status is ACCEPTED / IN_PROGRESS / COMPLETED

	CancellationReason *types.CancelReason
	CancelledBy        *uuid.UUID

	CreatedAt   time.Time
	AcceptedAt  *time.Time
	CancelledAt *time.Time
	CompletedAt *time.Time
}

// AcceptedRide is the snapshot returned to the winning driver:
// the ride joined with driver and last driver location.
type AcceptedRide struct {
	Ride
	DriverUserID   uuid.UUID
	DriverName     string
	DriverLocation *DriverLocation
}

// RideSnapshot is the rider-facing polling view.
type RideSnapshot struct {
	ID             uuid.UUID        `json:"id"`
	Status         types.RideStatus `json:"status"`
	DriverName     *string          `json:"driver_name,omitempty"`
	DriverLocation *DriverLocation  `json:"driver_location,omitempty"`
}
