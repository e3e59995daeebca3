package models

import (
	"context"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
)

// User is the authenticated session principal injected by middleware.
type User struct {
	ID   uuid.UUID
	Role types.UserRole
}

// AnonymousUser represents a request without a session.
func AnonymousUser() *User {
	return &User{}
}

func (u *User) IsAnonymous() bool {
	return u == nil || u.ID == uuid.Nil
}

type userCtxKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext returns the user stored by the auth middleware, or nil.
func UserFromContext(ctx context.Context) *User {
	if u, ok := ctx.Value(userCtxKey{}).(*User); ok {
		return u
	}
	return nil
}
