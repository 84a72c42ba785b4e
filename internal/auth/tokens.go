package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cliptube/backend/internal/models"
)

// AccessClaims is the decoded payload of an access token. It carries enough
// identity for handlers to act without a database round trip; the middleware
// still re-resolves the user so deleted accounts fail fast.
type AccessClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// refreshClaims embeds only the subject; refresh tokens prove nothing beyond
// "this user held a session".
type refreshClaims struct {
	jwt.RegisteredClaims
}

// Issuer mints and verifies the two token kinds. Access and refresh tokens
// are signed with distinct secrets so one kind can never be replayed as the
// other.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

// NewIssuer constructs an Issuer with the provided secrets and lifetimes.
func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// IssuePair mints a fresh access/refresh token pair for the user.
func (i *Issuer) IssuePair(user models.User) (models.SessionTokens, error) {
	now := i.now()

	access, accessExp, err := i.issueAccess(user, now)
	if err != nil {
		return models.SessionTokens{}, err
	}

	refresh, refreshExp, err := i.issueRefresh(user.ID, now)
	if err != nil {
		return models.SessionTokens{}, err
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *Issuer) issueAccess(user models.User, now time.Time) (string, time.Time, error) {
	expires := now.Add(i.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expires, nil
}

func (i *Issuer) issueRefresh(userID string, now time.Time) (string, time.Time, error) {
	expires := now.Add(i.refreshTTL)
	claims := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, expires, nil
}

// VerifyAccess validates an access token and returns its claims.
func (i *Issuer) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.verify(token, claims, i.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token and returns the embedded user id.
func (i *Issuer) VerifyRefresh(token string) (string, error) {
	claims := &refreshClaims{}
	if err := i.verify(token, claims, i.refreshSecret); err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (i *Issuer) verify(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return fmt.Errorf("%w: %w", ErrTokenExpired, err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return fmt.Errorf("%w: %w", ErrTokenMalformed, err)
		default:
			return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
		}
	}

	if !parsed.Valid {
		return ErrTokenInvalid
	}

	if subject, err := claims.GetSubject(); err != nil || subject == "" {
		return fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return nil
}
