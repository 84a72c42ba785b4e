package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// SessionStore is the slice of user persistence the session manager needs.
// The currently valid refresh token lives on the user record itself: at most
// one session per user, and writing a new token displaces the old one.
type SessionStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentifier(ctx context.Context, usernameOrEmail string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, refreshToken string) error
}

// Manager drives the login / refresh / logout lifecycle.
type Manager struct {
	users  SessionStore
	issuer *Issuer
}

// NewManager constructs a Manager over the provided store and token issuer.
func NewManager(users SessionStore, issuer *Issuer) *Manager {
	if users == nil || issuer == nil {
		panic("auth: session manager requires a user store and an issuer")
	}
	return &Manager{users: users, issuer: issuer}
}

// Login authenticates the credentials and opens a session. An unknown
// identifier and a wrong password both come back as ErrInvalidCredentials;
// the distinction is logged internally but never surfaced.
func (m *Manager) Login(ctx context.Context, identifier, password string) (models.User, models.SessionTokens, error) {
	logger := logging.FromContext(ctx)

	user, err := m.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("login: unknown account", "identifier", identifier)
			return models.User{}, models.SessionTokens{}, ErrInvalidCredentials
		}
		return models.User{}, models.SessionTokens{}, fmt.Errorf("lookup account: %w", err)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		logger.Warn("login: password mismatch", "userId", user.ID)
		return models.User{}, models.SessionTokens{}, ErrInvalidCredentials
	}

	tokens, err := m.open(ctx, user)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	return user.Sanitized(), tokens, nil
}

// Refresh rotates the session: the presented token must carry a valid
// signature, be unexpired, and textually equal the token persisted on the
// user record. Anything else is ErrSessionInvalid — only the most recently
// issued refresh token is ever honored.
func (m *Manager) Refresh(ctx context.Context, presented string) (models.User, models.SessionTokens, error) {
	userID, err := m.issuer.VerifyRefresh(presented)
	if err != nil {
		return models.User{}, models.SessionTokens{}, fmt.Errorf("%w: %w", ErrSessionInvalid, err)
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, models.SessionTokens{}, ErrSessionInvalid
		}
		return models.User{}, models.SessionTokens{}, fmt.Errorf("lookup account: %w", err)
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		logging.FromContext(ctx).Warn("refresh: stale or revoked token", "userId", user.ID)
		return models.User{}, models.SessionTokens{}, ErrSessionInvalid
	}

	tokens, err := m.open(ctx, user)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	return user.Sanitized(), tokens, nil
}

// Logout revokes the user's session. Previously issued refresh tokens fail
// with ErrSessionInvalid afterwards, expired or not.
func (m *Manager) Logout(ctx context.Context, userID string) error {
	if err := m.users.SetRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// open mints a pair and persists the refresh token, displacing any prior
// session for the user. Rotation correctness rests on the single-row update;
// concurrent refresh/logout is last-write-wins.
func (m *Manager) open(ctx context.Context, user models.User) (models.SessionTokens, error) {
	tokens, err := m.issuer.IssuePair(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.users.SetRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return models.SessionTokens{}, fmt.Errorf("persist session: %w", err)
	}

	return tokens, nil
}
