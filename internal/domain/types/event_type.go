package types

import "fmt"

// Event names pushed through the realtime publisher.
type EventName string

func (e EventName) String() string {
	return string(e)
}

const (
	EventNewRideRequest        EventName = "new_ride_request"
	EventRideAccepted          EventName = "ride_accepted"
	EventRideCancelled         EventName = "ride_cancelled"
	EventRideCancelledByDriver EventName = "ride_cancelled_by_driver"
	EventNoDriverFound         EventName = "no_driver_found"
)

// RiderChannel is the per-passenger channel name.
func RiderChannel(passengerID fmt.Stringer) string {
	return "rider:" + passengerID.String()
}

// DriverChannel is the per-driver private channel name, keyed by the
// driver's user id (the id their client authenticates with).
func DriverChannel(userID fmt.Stringer) string {
	return "driver:private:" + userID.String()
}

// PresenceChannel is the broker channel whose presence set mirrors
// driver availability.
const PresenceChannel = "drivers:available"
