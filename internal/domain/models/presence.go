package models

import (
	"time"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
)

// PresenceAction mirrors the Ably presence action codes.
type PresenceAction int

const (
	PresenceAbsent  PresenceAction = 0
	PresencePresent PresenceAction = 1
	PresenceEnter   PresenceAction = 2
	PresenceLeave   PresenceAction = 3
	PresenceUpdate  PresenceAction = 4
)

// Availability maps a presence action onto driver availability. Only
// enter and leave are acted on; present, update and absent are
// membership echoes and are ignored.
func (a PresenceAction) Availability() (types.Availability, bool) {
	switch a {
	case PresenceEnter:
		return types.AvailabilityOnline, true
	case PresenceLeave:
		return types.AvailabilityOffline, true
	default:
		return "", false
	}
}

// PresenceEvent is one decoded presence message from the webhook batch.
// ClientID carries the driver's user id.
type PresenceEvent struct {
	ClientID  string
	Action    PresenceAction
	Timestamp time.Time
}
