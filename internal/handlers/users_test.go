package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/cliptube/backend/internal/models"
)

func TestUserHandlerCurrentUser(t *testing.T) {
	handler := UserHandler{Users: newInMemoryUserStore()}

	alice := models.User{
		ID:           "user-1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		RefreshToken: "token",
		Role:         models.RoleUser,
	}

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil), alice)
	rec := httptest.NewRecorder()

	handler.CurrentUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	raw := rec.Body.String()
	if strings.Contains(raw, "hash") || strings.Contains(raw, "token") {
		t.Fatalf("response leaks credentials: %s", raw)
	}
	if !strings.Contains(raw, `"username":"alice"`) {
		t.Fatalf("expected username in response, got %s", raw)
	}
}

func TestUserHandlerCurrentUserUnauthenticated(t *testing.T) {
	handler := UserHandler{Users: newInMemoryUserStore()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	rec := httptest.NewRecorder()

	handler.CurrentUser(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestUserHandlerChangePassword(t *testing.T) {
	store := newInMemoryUserStore()
	handler := UserHandler{Users: store}
	user := seedUser(t, store, "user-1", "alice", "oldpassword")

	run := func(oldPassword, newPassword string) int {
		body, _ := json.Marshal(map[string]string{
			"oldPassword": oldPassword,
			"newPassword": newPassword,
		})
		req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", bytes.NewReader(body)), user)
		rec := httptest.NewRecorder()
		handler.ChangePassword(rec, req)
		return rec.Code
	}

	if code := run("wrong-password", "newpassword1"); code != http.StatusBadRequest {
		t.Fatalf("expected wrong current password to return 400, got %d", code)
	}
	if code := run("oldpassword", "short"); code != http.StatusBadRequest {
		t.Fatalf("expected short new password to return 400, got %d", code)
	}
	if code := run("oldpassword", "newpassword1"); code != http.StatusOK {
		t.Fatalf("expected password change to return 200, got %d", code)
	}

	stored := store.users["user-1"]
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("newpassword1")) != nil {
		t.Fatal("expected the new password to be hashed and stored")
	}
}

func TestUserHandlerUpdateAccount(t *testing.T) {
	store := newInMemoryUserStore()
	handler := UserHandler{Users: store}
	user := seedUser(t, store, "user-1", "alice", "password123")

	body, _ := json.Marshal(map[string]string{"fullName": "Alice Cooper"})
	req := withIdentity(httptest.NewRequest(http.MethodPatch, "/api/v1/users/update-account", bytes.NewReader(body)), user)
	rec := httptest.NewRecorder()

	handler.UpdateAccount(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if store.users["user-1"].FullName != "Alice Cooper" {
		t.Fatalf("expected full name to change, got %q", store.users["user-1"].FullName)
	}
}

func TestUserHandlerChannelProfileNotFound(t *testing.T) {
	handler := UserHandler{Users: newInMemoryUserStore()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/c/ghost", nil)
	req.SetPathValue("username", "ghost")
	rec := httptest.NewRecorder()

	handler.ChannelProfile(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}
