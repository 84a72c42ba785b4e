package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

type inMemorySessionStore struct {
	users map[string]models.User
}

func newInMemorySessionStore() *inMemorySessionStore {
	return &inMemorySessionStore{users: make(map[string]models.User)}
}

func (s *inMemorySessionStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemorySessionStore) FindByIdentifier(_ context.Context, identifier string) (models.User, error) {
	for _, user := range s.users {
		if user.Username == identifier || user.Email == identifier {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemorySessionStore) SetRefreshToken(_ context.Context, userID, refreshToken string) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = refreshToken
	s.users[userID] = user
	return nil
}

func newTestManager(t *testing.T) (*Manager, *inMemorySessionStore) {
	t.Helper()

	store := newInMemorySessionStore()

	hashed, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store.users["user-1"] = models.User{
		ID:           "user-1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hashed,
		Role:         models.RoleUser,
	}

	issuer := NewIssuer("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	return NewManager(store, issuer), store
}

func TestManagerLogin(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	user, tokens, err := manager.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.PasswordHash != "" || user.RefreshToken != "" {
		t.Fatalf("expected sanitized user, got %+v", user)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", tokens)
	}

	if stored := store.users["user-1"]; stored.RefreshToken != tokens.RefreshToken {
		t.Fatal("expected refresh token to be persisted on the user record")
	}
}

func TestManagerLoginByEmail(t *testing.T) {
	manager, _ := newTestManager(t)

	if _, _, err := manager.Login(context.Background(), "alice@example.com", "password123"); err != nil {
		t.Fatalf("login by email: %v", err)
	}
}

func TestManagerLoginInvalidCredentials(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	// Unknown account and wrong password are indistinguishable to callers.
	if _, _, err := manager.Login(ctx, "nobody", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown account, got %v", err)
	}
	if _, _, err := manager.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
}

func TestManagerRefreshRotates(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	_, first, err := manager.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// jwt timestamps have second precision; a later IssuedAt guarantees a
	// distinct token.
	manager.issuer.now = func() time.Time { return time.Now().UTC().Add(2 * time.Second) }

	_, second, err := manager.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("expected refresh to rotate the token")
	}
	if stored := store.users["user-1"]; stored.RefreshToken != second.RefreshToken {
		t.Fatal("expected rotated token to be persisted")
	}

	// The displaced token is dead even though its signature is still valid.
	if _, _, err := manager.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for replayed token, got %v", err)
	}
}

func TestManagerRefreshRejectsForgery(t *testing.T) {
	manager, _ := newTestManager(t)

	forger := NewIssuer("other-access", "other-refresh", 15*time.Minute, 24*time.Hour)
	tokens, err := forger.IssuePair(models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for forged token, got %v", err)
	}
}

func TestManagerLogoutRevokes(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	_, tokens, err := manager.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := manager.Logout(ctx, "user-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if stored := store.users["user-1"]; stored.RefreshToken != "" {
		t.Fatal("expected logout to clear the stored refresh token")
	}

	if _, _, err := manager.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid after logout, got %v", err)
	}
}
