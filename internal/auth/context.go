// Package auth provides credential hashing and token utilities.
package auth

import (
	"context"

	"github.com/riverlog/riverlog/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// authContextKey is the context key for storing AuthContext.
const authContextKey contextKey = "auth_context"

// ContextWithAuth adds AuthContext to the context.
func ContextWithAuth(ctx context.Context, ac *model.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// AuthFromContext retrieves AuthContext from the context.
// Returns nil for unauthenticated requests.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	ac, ok := ctx.Value(authContextKey).(*model.AuthContext)
	if !ok {
		return nil
	}
	return ac
}

// UserIDFromContext returns the authenticated user ID, or the empty
// string for unauthenticated requests.
func UserIDFromContext(ctx context.Context) string {
	ac := AuthFromContext(ctx)
	if ac == nil {
		return ""
	}
	return ac.UserID
}
