package wrap

import (
	"context"
)

type (
	// LogCtx holds contextual information for logging
	LogCtx struct {
		Action    string
		RequestID string
		UserID    string
		RideID    string
		DriverID  string
	}

	// logCtxKeyStruct is an unexported type for context keys defined in this package.
	logCtxKeyStruct struct{}
)

// LogCtxKey is the key for log context values
var LogCtxKey = &logCtxKeyStruct{}

// WithLogCtx returns a new context with the provided LogCtx.
// Empty fields inherit the values already present in the context.
func (c LogCtx) merge(old LogCtx) LogCtx {
	if c.Action == "" {
		c.Action = old.Action
	}
	if c.RequestID == "" {
		c.RequestID = old.RequestID
	}
	if c.UserID == "" {
		c.UserID = old.UserID
	}
	if c.RideID == "" {
		c.RideID = old.RideID
	}
	if c.DriverID == "" {
		c.DriverID = old.DriverID
	}
	return c
}

func WithLogCtx(ctx context.Context, newLc LogCtx) context.Context {
	if lc, ok := ctx.Value(LogCtxKey).(LogCtx); ok {
		newLc = newLc.merge(lc)
	}
	return context.WithValue(ctx, LogCtxKey, newLc)
}

// WithAction adds or updates the Action in the LogCtx within the context
func WithAction(ctx context.Context, action string) context.Context {
	return WithLogCtx(ctx, LogCtx{Action: action})
}

// WithRequestID adds or updates the RequestID in the LogCtx within the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return WithLogCtx(ctx, LogCtx{RequestID: requestID})
}

// WithUserID adds or updates the UserID in the LogCtx within the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return WithLogCtx(ctx, LogCtx{UserID: userID})
}

// WithRideID adds or updates the RideID in the LogCtx within the context
func WithRideID(ctx context.Context, rideID string) context.Context {
	return WithLogCtx(ctx, LogCtx{RideID: rideID})
}

// WithDriverID adds or updates the DriverID in the LogCtx within the context
func WithDriverID(ctx context.Context, driverID string) context.Context {
	return WithLogCtx(ctx, LogCtx{DriverID: driverID})
}

// GetRequestID returns the request id from the LogCtx, if any.
func GetRequestID(ctx context.Context) string {
	if lc, ok := ctx.Value(LogCtxKey).(LogCtx); ok {
		return lc.RequestID
	}
	return ""
}
