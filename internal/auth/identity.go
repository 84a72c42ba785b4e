package auth

import (
	"context"

	"github.com/cliptube/backend/internal/models"
)

type identityKey struct{}

// WithIdentity attaches the authenticated user to the context. The value is
// expected to be sanitized (no password hash, no refresh token).
func WithIdentity(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, identityKey{}, user)
}

// IdentityFromContext returns the authenticated user, if any.
func IdentityFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(identityKey{}).(models.User)
	return user, ok && user.ID != ""
}
