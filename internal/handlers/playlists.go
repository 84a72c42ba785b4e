package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// PlaylistHandler implements the playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	NowFunc   func() time.Time
}

// Create handles POST /api/v1/playlists requests.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid playlist payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     identity.ID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		VideoIDs:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		logger.Error("playlist create failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create playlist")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{"playlist": playlist})
}

// Get handles GET /api/v1/playlists/{playlistId} requests.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.loadPlaylist(w, r)
	if !ok {
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"playlist": playlist})
}

// ListByUser handles GET /api/v1/playlists/user/{userId} requests.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	ownerID := r.PathValue("userId")
	if ownerID == "" {
		respondError(ctx, w, http.StatusBadRequest, "userId is required")
		return
	}

	playlists, err := h.Playlists.ListByOwner(ctx, ownerID)
	if err != nil {
		logger.Error("playlist listing failed", "error", err, "ownerId", ownerID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list playlists")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"playlists": playlists})
}

// Update handles PATCH /api/v1/playlists/{playlistId} requests. Only the
// owner may edit a playlist.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	_, playlist, ok := h.authorize(w, r, auth.ActionUpdate)
	if !ok {
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid playlist update payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == nil && req.Description == nil {
		respondError(ctx, w, http.StatusBadRequest, "name or description is required")
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			respondError(ctx, w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		playlist.Name = name
	}
	if req.Description != nil {
		playlist.Description = strings.TrimSpace(*req.Description)
	}
	playlist.UpdatedAt = h.now()

	if err := h.Playlists.Update(ctx, playlist); err != nil {
		logger.Error("playlist update failed", "error", err, "playlistId", playlist.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update playlist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"playlist": playlist})
}

// AddVideo handles PATCH /api/v1/playlists/add/{videoId}/{playlistId} requests.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	_, playlist, ok := h.authorize(w, r, auth.ActionUpdate)
	if !ok {
		return
	}

	videoID := r.PathValue("videoId")
	if videoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	err := h.Playlists.AddVideo(ctx, playlist.ID, videoID)
	switch {
	case err == nil:
		respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "video added"})
	case errors.Is(err, repositories.ErrConflict):
		respondError(ctx, w, http.StatusConflict, "video already in playlist")
	case errors.Is(err, repositories.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "video not found")
	default:
		logger.Error("playlist add video failed", "error", err, "playlistId", playlist.ID, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to add video")
	}
}

// RemoveVideo handles PATCH /api/v1/playlists/remove/{videoId}/{playlistId} requests.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	_, playlist, ok := h.authorize(w, r, auth.ActionUpdate)
	if !ok {
		return
	}

	videoID := r.PathValue("videoId")
	if videoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	if err := h.Playlists.RemoveVideo(ctx, playlist.ID, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not in playlist")
			return
		}
		logger.Error("playlist remove video failed", "error", err, "playlistId", playlist.ID, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to remove video")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "video removed"})
}

// Delete handles DELETE /api/v1/playlists/{playlistId} requests. The owner or
// an admin may delete.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	_, playlist, ok := h.authorize(w, r, auth.ActionDelete)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		logger.Error("playlist delete failed", "error", err, "playlistId", playlist.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete playlist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

// authorize loads the playlist, then checks ownership. Missing playlists
// report as 404 before any permission check runs.
func (h PlaylistHandler) authorize(w http.ResponseWriter, r *http.Request, action auth.Action) (models.User, models.Playlist, bool) {
	ctx := r.Context()

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return models.User{}, models.Playlist{}, false
	}

	playlist, ok := h.loadPlaylist(w, r)
	if !ok {
		return models.User{}, models.Playlist{}, false
	}

	if !auth.CanMutate(identity, playlist.OwnerID, action) {
		respondError(ctx, w, http.StatusForbidden, "you do not own this playlist")
		return models.User{}, models.Playlist{}, false
	}

	return identity, playlist, true
}

func (h PlaylistHandler) loadPlaylist(w http.ResponseWriter, r *http.Request) (models.Playlist, bool) {
	ctx := r.Context()

	playlistID := r.PathValue("playlistId")
	if playlistID == "" {
		respondError(ctx, w, http.StatusBadRequest, "playlistId is required")
		return models.Playlist{}, false
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "playlist not found")
			return models.Playlist{}, false
		}
		logging.FromContext(ctx).Error("playlist lookup failed", "error", err, "playlistId", playlistID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load playlist")
		return models.Playlist{}, false
	}

	return playlist, true
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
