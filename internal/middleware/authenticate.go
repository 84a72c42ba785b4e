package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
)

// AccessTokenCookie is the cookie carrying the access token. The cookie wins
// over an Authorization header when both are present.
const AccessTokenCookie = "accessToken"

// IdentityResolver loads the account behind a verified token subject.
type IdentityResolver interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Authenticate guards a route: it extracts and verifies the access token,
// re-resolves the account, and attaches the sanitized identity to the
// request context. Any failure short-circuits with a single 401 body —
// missing, malformed, expired, and deleted-account all look the same to the
// client. The middleware never mutates persisted state.
func Authenticate(issuer *auth.Issuer, users IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := resolveIdentity(r, issuer, users)
			if !ok {
				unauthenticated(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), user)))
		})
	}
}

// Identify is the lenient variant: it attaches the identity when a valid
// token is present and passes the request through regardless. Public reads
// use it to personalize responses and record watch history.
func Identify(issuer *auth.Issuer, users IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, ok := resolveIdentity(r, issuer, users); ok {
				r = r.WithContext(auth.WithIdentity(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveIdentity(r *http.Request, issuer *auth.Issuer, users IdentityResolver) (models.User, bool) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	token := extractToken(r)
	if token == "" {
		return models.User{}, false
	}

	claims, err := issuer.VerifyAccess(token)
	if err != nil {
		// Expired, malformed, and invalid are one outcome to the client but
		// stay distinguishable here for diagnostics.
		logger.Warn("access token rejected", "error", err)
		return models.User{}, false
	}

	user, err := users.FindByID(ctx, claims.Subject)
	if err != nil {
		logger.Warn("access token subject unresolved", "userId", claims.Subject, "error", err)
		return models.User{}, false
	}

	return user.Sanitized(), true
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if scheme, value, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(value)
	}
	return ""
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
}
