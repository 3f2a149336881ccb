package auth

import (
	"context"

	"github.com/shopwatch/shopwatch/internal/model"
)

// contextKey is unexported so no other package can collide with it.
type contextKey struct{}

var authContextKey contextKey

// ContextWithAuth returns a context carrying the caller's session identity.
func ContextWithAuth(ctx context.Context, auth *model.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

// AuthFromContext returns the caller's session identity, or nil when the
// request did not pass the auth middleware.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	auth, ok := ctx.Value(authContextKey).(*model.AuthContext)
	if !ok {
		return nil
	}
	return auth
}

// MustAuthFromContext returns the caller's session identity and panics
// when absent. Handlers mounted behind the auth middleware use this.
func MustAuthFromContext(ctx context.Context) *model.AuthContext {
	auth := AuthFromContext(ctx)
	if auth == nil {
		panic("auth context not found - ensure auth middleware is applied")
	}
	return auth
}
