package common

import (
	"context"
)

// UserContext carries the authenticated session identity resolved by the
// bearer token middleware.
type UserContext struct {
	UserID string
	Email  string
}

type contextKey int

const userContextKey contextKey = 0

// WithUserContext returns a new context carrying the UserContext.
func WithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, uc)
}

// UserContextFromContext retrieves the UserContext from context, or nil if absent.
func UserContextFromContext(ctx context.Context) *UserContext {
	uc, _ := ctx.Value(userContextKey).(*UserContext)
	return uc
}
