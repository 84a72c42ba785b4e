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

const maxTweetLength = 280

// TweetHandler implements the tweet endpoints.
type TweetHandler struct {
	Tweets  TweetStore
	NowFunc func() time.Time
}

// Create handles POST /api/v1/tweets requests.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	content, ok := h.readContent(w, r)
	if !ok {
		return
	}

	now := h.now()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   identity.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		logger.Error("tweet create failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create tweet")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{"tweet": tweet})
}

// ListByUser handles GET /api/v1/tweets/user/{userId} requests.
func (h TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	ownerID := r.PathValue("userId")
	if ownerID == "" {
		respondError(ctx, w, http.StatusBadRequest, "userId is required")
		return
	}

	tweets, err := h.Tweets.ListByOwner(ctx, ownerID)
	if err != nil {
		logger.Error("tweet listing failed", "error", err, "ownerId", ownerID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list tweets")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"tweets": tweets})
}

// Update handles PATCH /api/v1/tweets/{tweetId} requests. Only the owner may
// edit a tweet.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	tweet, ok := h.loadTweet(w, r)
	if !ok {
		return
	}
	if !auth.CanMutate(identity, tweet.OwnerID, auth.ActionUpdate) {
		respondError(ctx, w, http.StatusForbidden, "you do not own this tweet")
		return
	}

	content, ok := h.readContent(w, r)
	if !ok {
		return
	}

	if err := h.Tweets.UpdateContent(ctx, tweet.ID, content); err != nil {
		logger.Error("tweet update failed", "error", err, "tweetId", tweet.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update tweet")
		return
	}

	tweet.Content = content
	tweet.UpdatedAt = h.now()
	respondJSON(ctx, w, http.StatusOK, map[string]any{"tweet": tweet})
}

// Delete handles DELETE /api/v1/tweets/{tweetId} requests. The owner or an
// admin may delete.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	tweet, ok := h.loadTweet(w, r)
	if !ok {
		return
	}
	if !auth.CanMutate(identity, tweet.OwnerID, auth.ActionDelete) {
		respondError(ctx, w, http.StatusForbidden, "you do not own this tweet")
		return
	}

	if err := h.Tweets.Delete(ctx, tweet.ID); err != nil {
		logger.Error("tweet delete failed", "error", err, "tweetId", tweet.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete tweet")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h TweetHandler) loadTweet(w http.ResponseWriter, r *http.Request) (models.Tweet, bool) {
	ctx := r.Context()

	tweetID := r.PathValue("tweetId")
	if tweetID == "" {
		respondError(ctx, w, http.StatusBadRequest, "tweetId is required")
		return models.Tweet{}, false
	}

	tweet, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "tweet not found")
			return models.Tweet{}, false
		}
		logging.FromContext(ctx).Error("tweet lookup failed", "error", err, "tweetId", tweetID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load tweet")
		return models.Tweet{}, false
	}

	return tweet, true
}

func (h TweetHandler) readContent(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()

	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid tweet payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return "", false
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return "", false
	}
	if len(content) > maxTweetLength {
		respondError(ctx, w, http.StatusBadRequest, "content exceeds 280 characters")
		return "", false
	}

	return content, true
}

func (h TweetHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
