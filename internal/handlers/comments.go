package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// CommentHandler implements the comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	NowFunc  func() time.Time
}

// ListByVideo handles GET /api/v1/comments/{videoId} requests.
func (h CommentHandler) ListByVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	videoID := r.PathValue("videoId")
	if videoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	page, limit := 1, 20
	q := r.URL.Query()
	if raw := q.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(ctx, w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = parsed
	}
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			respondError(ctx, w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	comments, err := h.Comments.ListByVideo(ctx, videoID, page, limit)
	if err != nil {
		logger.Error("comment listing failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list comments")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"comments": comments,
		"page":     page,
		"limit":    limit,
	})
}

// Create handles POST /api/v1/comments/{videoId} requests.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	videoID := r.PathValue("videoId")
	if videoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("comment target lookup failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create comment")
		return
	}

	content, ok := h.readContent(w, r)
	if !ok {
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		OwnerID:   identity.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("comment create failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create comment")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{"comment": comment})
}

// Update handles PATCH /api/v1/comments/c/{commentId} requests. Only the
// owner may edit a comment.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	comment, ok := h.loadComment(w, r)
	if !ok {
		return
	}
	if !auth.CanMutate(identity, comment.OwnerID, auth.ActionUpdate) {
		respondError(ctx, w, http.StatusForbidden, "you do not own this comment")
		return
	}

	content, ok := h.readContent(w, r)
	if !ok {
		return
	}

	if err := h.Comments.UpdateContent(ctx, comment.ID, content); err != nil {
		logger.Error("comment update failed", "error", err, "commentId", comment.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update comment")
		return
	}

	comment.Content = content
	comment.UpdatedAt = h.now()
	respondJSON(ctx, w, http.StatusOK, map[string]any{"comment": comment})
}

// Delete handles DELETE /api/v1/comments/c/{commentId} requests. The owner or
// an admin may delete.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	comment, ok := h.loadComment(w, r)
	if !ok {
		return
	}
	if !auth.CanMutate(identity, comment.OwnerID, auth.ActionDelete) {
		respondError(ctx, w, http.StatusForbidden, "you do not own this comment")
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		logger.Error("comment delete failed", "error", err, "commentId", comment.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete comment")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h CommentHandler) loadComment(w http.ResponseWriter, r *http.Request) (models.Comment, bool) {
	ctx := r.Context()

	commentID := r.PathValue("commentId")
	if commentID == "" {
		respondError(ctx, w, http.StatusBadRequest, "commentId is required")
		return models.Comment{}, false
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "comment not found")
			return models.Comment{}, false
		}
		logging.FromContext(ctx).Error("comment lookup failed", "error", err, "commentId", commentID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load comment")
		return models.Comment{}, false
	}

	return comment, true
}

func (h CommentHandler) readContent(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()

	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid comment payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return "", false
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return "", false
	}

	return content, true
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
