package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/media"
	"github.com/cliptube/backend/internal/repositories"
)

// UserHandler implements the account and channel endpoints that sit behind
// the authentication middleware.
type UserHandler struct {
	Users          UserStore
	Media          media.AssetStorage
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

// CurrentUser handles GET /api/v1/users/current-user requests.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"user": identity})
}

// ChangePassword handles POST /api/v1/users/change-password requests.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid change-password payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, http.StatusBadRequest, "oldPassword and newPassword are required")
		return
	}
	if len(req.NewPassword) < 8 {
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	// The context identity is sanitized, so the stored hash is re-read here.
	user, err := h.Users.FindByID(ctx, identity.ID)
	if err != nil {
		logger.Error("change-password failed to load user", "error", err, "userId", identity.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to change password")
		return
	}

	if !auth.VerifyPassword(req.OldPassword, user.PasswordHash) {
		logger.Warn("change-password rejected", "userId", identity.ID)
		respondError(ctx, w, http.StatusBadRequest, "incorrect password")
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		logger.Error("change-password failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to change password")
		return
	}

	if err := h.Users.UpdatePassword(ctx, identity.ID, hashed); err != nil {
		logger.Error("change-password failed to persist", "error", err, "userId", identity.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to change password")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "password changed"})
}

// UpdateAccount handles PATCH /api/v1/users/update-account requests. Only the
// email and full name are mutable here.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Email    string `json:"email"`
		FullName string `json:"fullName"`
	}
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid update-account payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" && req.FullName == "" {
		respondError(ctx, w, http.StatusBadRequest, "email or fullName is required")
		return
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			respondError(ctx, w, http.StatusBadRequest, "invalid email address")
			return
		}
	}

	user, err := h.Users.FindByID(ctx, identity.ID)
	if err != nil {
		logger.Error("update-account failed to load user", "error", err, "userId", identity.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update account")
		return
	}

	if req.Email != "" {
		user.Email = req.Email
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	user.UpdatedAt = h.now()

	if err := h.Users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "email already in use")
			return
		}
		logger.Error("update-account failed to persist", "error", err, "userId", identity.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update account")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"user": user.Sanitized()})
}

// UpdateAvatar handles PATCH /api/v1/users/avatar requests.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateProfileImage(w, r, "avatar")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image requests.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateProfileImage(w, r, "coverImage")
}

func (h UserHandler) updateProfileImage(w http.ResponseWriter, r *http.Request, field string) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}
	if h.Media == nil {
		logger.Error("media storage unavailable", "field", field)
		respondError(ctx, w, http.StatusInternalServerError, "media storage unavailable")
		return
	}

	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = 16 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		logger.Warn("invalid image upload", "error", err, "field", field)
		respondError(ctx, w, http.StatusBadRequest, "a multipart "+field+" file is required")
		return
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		respondError(ctx, w, http.StatusBadRequest, "a "+field+" file is required")
		return
	}

	prefix := "avatars"
	if field == "coverImage" {
		prefix = "covers"
	}
	url, err := uploadHeader(r, h.Media, headers[0], prefix)
	if err != nil {
		logger.Error("image upload failed", "error", err, "field", field)
		respondError(ctx, w, http.StatusBadGateway, "failed to store image")
		return
	}

	user, err := h.Users.FindByID(ctx, identity.ID)
	if err != nil {
		logger.Error("image update failed to load user", "error", err, "userId", identity.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update image")
		return
	}

	if field == "coverImage" {
		user.CoverImageURL = url
	} else {
		user.AvatarURL = url
	}
	user.UpdatedAt = h.now()

	if err := h.Users.UpdateProfile(ctx, user); err != nil {
		logger.Error("image update failed to persist", "error", err, "userId", identity.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update image")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"user": user.Sanitized()})
}

// ChannelProfile handles GET /api/v1/users/c/{username} requests. The viewer
// identity, when present, drives the isSubscribed flag.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	username := strings.TrimSpace(strings.ToLower(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is required")
		return
	}

	viewerID := ""
	if identity, ok := auth.IdentityFromContext(ctx); ok {
		viewerID = identity.ID
	}

	profile, err := h.Users.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel not found")
			return
		}
		logger.Error("channel profile lookup failed", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load channel")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"channel": profile})
}

// WatchHistory handles GET /api/v1/users/history requests.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(ctx, w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	history, err := h.Users.WatchHistory(ctx, identity.ID, limit)
	if err != nil {
		logger.Error("watch history lookup failed", "error", err, "userId", identity.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load watch history")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"history": history})
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
