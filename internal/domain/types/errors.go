package types

import "errors"

var (
	ErrDriverNotFound   = errors.New("driver not found")
	ErrRideNotFound     = errors.New("ride not found")
	ErrLocationNotFound = errors.New("driver location not found")

	ErrDriverNotApproved = errors.New("driver is not approved")
	ErrStatusNotSettable = errors.New("availability cannot be set by the driver")
	ErrNotRideParty      = errors.New("only the passenger or the assigned driver may cancel")

	ErrRideAlreadyAccepted = errors.New("ride already accepted")
	ErrRideNotCancellable  = errors.New("ride cannot be cancelled")

	ErrInvalidCoordinates = errors.New("latitude and longitude must be finite numbers")

	ErrDispatchExists = errors.New("dispatch already active for this ride")
)
