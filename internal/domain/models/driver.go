package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
)

type Driver struct {
	ID             uuid.UUID            // unique identifier of the driver record
	UserID         uuid.UUID            // owning user account
	Name           string               // denormalized display name
	ApprovalStatus types.ApprovalStatus // PENDING / APPROVED / REJECTED / SUSPENDED
	Availability   types.Availability   // OFFLINE / ONLINE / ON_TRIP
	VehicleType    types.VehicleType
	FuelType       types.FuelType
	Capacity       int
	PetFriendly    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Approved reports whether the driver may go ONLINE or take rides.
func (d *Driver) Approved() bool {
	return d.ApprovalStatus == types.ApprovalApproved
}

// DriverLocation is the single current location row per driver.
// The spatial geometry in the store is derived from (lng, lat) on every upsert.
type DriverLocation struct {
	DriverID  uuid.UUID `json:"driver_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Heading   *float64  `json:"heading,omitempty"`
	Speed     *float64  `json:"speed,omitempty"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DriverStatus is the answer to a driver-app status poll.
type DriverStatus struct {
	DriverID       uuid.UUID            `json:"driver_id"`
	Availability   types.Availability   `json:"status"`
	ApprovalStatus types.ApprovalStatus `json:"approval_status"`
	Location       *DriverLocation      `json:"location,omitempty"`
}

// NearbyDriver is one matching result, ordered by DistanceMeters.
type NearbyDriver struct {
	DriverID       uuid.UUID `json:"driver_id"`
	UserID         uuid.UUID `json:"user_id"`
	Name           string    `json:"name"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Heading        *float64  `json:"heading,omitempty"`
	DistanceMeters float64   `json:"distance_meters"`
}

// NearbyCandidate is a spatial scan hit before attribute filtering.
type NearbyCandidate struct {
	NearbyDriver
	VehicleType types.VehicleType
	FuelType    types.FuelType
	Capacity    int
	PetFriendly bool
}

// MatchFilters narrows a nearby query. Zero value means no constraint;
// VehicleType/FuelType equal to "ANY" are treated the same as empty.
type MatchFilters struct {
	VehicleType     types.VehicleType
	FuelType        types.FuelType
	PetFriendly     bool
	ExtraPassengers bool
}

// ExtraPassengerCapacity is the minimum seat count required when the
// extraPassengers filter is set.
const ExtraPassengerCapacity = 5

// Matches applies the conjunctive filter semantics to a candidate.
func (f MatchFilters) Matches(c NearbyCandidate) bool {
	if f.VehicleType != "" && f.VehicleType != types.VehicleAny && c.VehicleType != f.VehicleType {
		return false
	}
	if f.FuelType != "" && f.FuelType != types.FuelAny && c.FuelType != f.FuelType {
		return false
	}
	if f.PetFriendly && !c.PetFriendly {
		return false
	}
	if f.ExtraPassengers && c.Capacity < ExtraPassengerCapacity {
		return false
	}
	return true
}

// Constrained reports whether any attribute filter is active.
func (f MatchFilters) Constrained() bool {
	return (f.VehicleType != "" && f.VehicleType != types.VehicleAny) ||
		(f.FuelType != "" && f.FuelType != types.FuelAny) ||
		f.PetFriendly || f.ExtraPassengers
}
