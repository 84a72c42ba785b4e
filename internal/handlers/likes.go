package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// LikeHandler implements the like toggle endpoints.
type LikeHandler struct {
	Likes   LikeStore
	NowFunc func() time.Time
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId} requests.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "videoId", func(like *models.Like, id string) { like.VideoID = id })
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId} requests.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "commentId", func(like *models.Like, id string) { like.CommentID = id })
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId} requests.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "tweetId", func(like *models.Like, id string) { like.TweetID = id })
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, param string, assign func(*models.Like, string)) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	targetID := r.PathValue(param)
	if targetID == "" {
		respondError(ctx, w, http.StatusBadRequest, param+" is required")
		return
	}

	like := models.Like{
		ID:        uuid.NewString(),
		LikedBy:   identity.ID,
		CreatedAt: h.now(),
	}
	assign(&like, targetID)

	liked, err := h.Likes.Toggle(ctx, like)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "target not found")
			return
		}
		logger.Error("like toggle failed", "error", err, param, targetID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to toggle like")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"liked": liked})
}

// LikedVideos handles GET /api/v1/likes/videos requests.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	videos, err := h.Likes.ListLikedVideos(ctx, identity.ID)
	if err != nil {
		logger.Error("liked videos lookup failed", "error", err, "userId", identity.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list liked videos")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": videos})
}

func (h LikeHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
