package types

// Enum for driver approval
type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "PENDING"
	ApprovalApproved  ApprovalStatus = "APPROVED"
	ApprovalRejected  ApprovalStatus = "REJECTED"
	ApprovalSuspended ApprovalStatus = "SUSPENDED"
)

// Enum for driver availability
type Availability string

const (
	AvailabilityOffline Availability = "OFFLINE"
	AvailabilityOnline  Availability = "ONLINE"
	AvailabilityOnTrip  Availability = "ON_TRIP"
)

func (a Availability) String() string {
	return string(a)
}

// DriverSettable reports whether a driver client may request this availability
// directly. ON_TRIP is reachable only through the acceptance path.
func (a Availability) DriverSettable() bool {
	return a == AvailabilityOnline || a == AvailabilityOffline
}

// Enum for ride lifecycle
type RideStatus string

const (
	RidePending    RideStatus = "PENDING"
	RideAccepted   RideStatus = "ACCEPTED"
	RideInProgress RideStatus = "IN_PROGRESS"
	RideCompleted  RideStatus = "COMPLETED"
	RideCancelled  RideStatus = "CANCELLED"
)

func (s RideStatus) String() string {
	return string(s)
}

// Enum for vehicle type. VehicleAny is a filter wildcard, never stored.
type VehicleType string

const (
	VehicleStandard VehicleType = "STANDARD"
	VehiclePlus     VehicleType = "PLUS"
	VehicleAny      VehicleType = "ANY"
)

type FuelType string

const (
	FuelPetrol   FuelType = "PETROL"
	FuelDiesel   FuelType = "DIESEL"
	FuelElectric FuelType = "ELECTRIC"
	FuelHybrid   FuelType = "HYBRID"
	FuelAny      FuelType = "ANY"
)

// Enum for user role
type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	RolePassenger UserRole = "PASSENGER"
	RoleDriver    UserRole = "DRIVER"
)

// Cancellation reasons stored on the ride row
type CancelReason string

const (
	ReasonUserCancelled      CancelReason = "USER_CANCELLED"
	ReasonDriverCancelled    CancelReason = "DRIVER_CANCELLED"
	ReasonNoDriversAvailable CancelReason = "NO_DRIVERS_AVAILABLE"
)
