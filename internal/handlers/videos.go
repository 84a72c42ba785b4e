package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/media"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// VideoHandler implements the video catalog endpoints. Publishing stages the
// uploaded files on local disk and hands them to the ingestor, so the request
// returns before the assets reach object storage.
type VideoHandler struct {
	Videos         VideoStore
	Users          UserStore
	Ingestor       VideoIngestor
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

const defaultVideoPageSize = 20

// List handles GET /api/v1/videos requests.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	filter, err := parseVideoFilter(r)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	videos, err := h.Videos.List(ctx, filter)
	if err != nil {
		logger.Error("video listing failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list videos")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"videos": videos,
		"page":   filter.Page,
		"limit":  filter.Limit,
	})
}

// Get handles GET /api/v1/videos/{videoId} requests. A signed-in viewer also
// gets the view recorded in their watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := h.loadVideo(w, r)
	if !ok {
		return
	}

	identity, signedIn := auth.IdentityFromContext(ctx)

	// Unpublished videos stay invisible to everyone but their owner.
	if !video.IsPublished && (!signedIn || identity.ID != video.OwnerID) {
		respondError(ctx, w, http.StatusNotFound, "video not found")
		return
	}

	if err := h.Videos.IncrementViews(ctx, video.ID); err != nil {
		logger.Warn("view count increment failed", "error", err, "videoId", video.ID)
	} else {
		video.Views++
	}

	if signedIn {
		if err := h.Users.RecordWatch(ctx, identity.ID, video.ID); err != nil {
			logger.Warn("watch history record failed", "error", err, "videoId", video.ID)
		}
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"video": video})
}

// Publish handles POST /api/v1/videos requests. The multipart form carries a
// required videoFile and an optional thumbnail.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}
	if h.Ingestor == nil {
		logger.Error("video ingestor unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "video publishing unavailable")
		return
	}

	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = 100 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Warn("invalid publish payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "a multipart form with a videoFile is required")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	videoHeaders := r.MultipartForm.File["videoFile"]
	if len(videoHeaders) == 0 {
		respondError(ctx, w, http.StatusBadRequest, "a videoFile is required")
		return
	}

	videoID := uuid.NewString()

	job := media.IngestJob{
		VideoID:  videoID,
		VideoKey: "videos/" + videoID + path.Ext(videoHeaders[0].Filename),
	}

	stagedVideo, err := stageUpload(videoHeaders[0])
	if err != nil {
		logger.Error("staging video upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to accept upload")
		return
	}
	job.VideoPath = stagedVideo

	if thumbs := r.MultipartForm.File["thumbnail"]; len(thumbs) > 0 {
		stagedThumb, err := stageUpload(thumbs[0])
		if err != nil {
			logger.Error("staging thumbnail upload failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to accept upload")
			job.Cleanup()
			return
		}
		job.ThumbnailPath = stagedThumb
		job.ThumbnailKey = "thumbnails/" + videoID + path.Ext(thumbs[0].Filename)
	}

	now := h.now()
	video := models.Video{
		ID:          videoID,
		OwnerID:     identity.ID,
		Title:       title,
		Description: description,
		AssetStatus: models.AssetStatusPending,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("video create failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to publish video")
		job.Cleanup()
		return
	}

	if err := h.Ingestor.Enqueue(ctx, job); err != nil {
		logger.Error("ingest enqueue failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusServiceUnavailable, "video publishing is temporarily unavailable")
		job.Cleanup()
		return
	}

	respondJSON(ctx, w, http.StatusAccepted, map[string]any{"video": video})
}

// Update handles PATCH /api/v1/videos/{videoId} requests. Only the owner may
// edit a video's metadata.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	video, ok := h.loadVideo(w, r)
	if !ok {
		return
	}
	if !auth.CanMutate(identity, video.OwnerID, auth.ActionUpdate) {
		respondError(ctx, w, http.StatusForbidden, "you do not own this video")
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid video update payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == nil && req.Description == nil {
		respondError(ctx, w, http.StatusBadRequest, "title or description is required")
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			respondError(ctx, w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		video.Title = title
	}
	if req.Description != nil {
		video.Description = strings.TrimSpace(*req.Description)
	}
	video.UpdatedAt = h.now()

	if err := h.Videos.Update(ctx, video); err != nil {
		logger.Error("video update failed", "error", err, "videoId", video.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update video")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"video": video})
}

// Delete handles DELETE /api/v1/videos/{videoId} requests. The owner or an
// admin may delete.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	video, ok := h.loadVideo(w, r)
	if !ok {
		return
	}
	if !auth.CanMutate(identity, video.OwnerID, auth.ActionDelete) {
		respondError(ctx, w, http.StatusForbidden, "you do not own this video")
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		logger.Error("video delete failed", "error", err, "videoId", video.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete video")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId} requests.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	video, ok := h.loadVideo(w, r)
	if !ok {
		return
	}
	if !auth.CanMutate(identity, video.OwnerID, auth.ActionUpdate) {
		respondError(ctx, w, http.StatusForbidden, "you do not own this video")
		return
	}

	video.IsPublished = !video.IsPublished
	video.UpdatedAt = h.now()

	if err := h.Videos.Update(ctx, video); err != nil {
		logger.Error("publish toggle failed", "error", err, "videoId", video.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to toggle publish state")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"video": video})
}

func (h VideoHandler) loadVideo(w http.ResponseWriter, r *http.Request) (models.Video, bool) {
	ctx := r.Context()

	videoID := r.PathValue("videoId")
	if videoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return models.Video{}, false
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return models.Video{}, false
		}
		logging.FromContext(ctx).Error("video lookup failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return models.Video{}, false
	}

	return video, true
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func parseVideoFilter(r *http.Request) (repositories.VideoListFilter, error) {
	q := r.URL.Query()

	filter := repositories.VideoListFilter{
		Query:   strings.TrimSpace(q.Get("query")),
		OwnerID: strings.TrimSpace(q.Get("userId")),
		Page:    1,
		Limit:   defaultVideoPageSize,
	}

	switch sortBy := q.Get("sortBy"); sortBy {
	case "", "createdAt":
		filter.SortBy = "created_at"
	case "views":
		filter.SortBy = "views"
	case "title":
		filter.SortBy = "title"
	default:
		return filter, fmt.Errorf("unsupported sortBy value %q", sortBy)
	}
	filter.SortDesc = q.Get("sortType") != "asc"

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return filter, errors.New("page must be a positive integer")
		}
		filter.Page = page
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			return filter, errors.New("limit must be between 1 and 100")
		}
		filter.Limit = limit
	}

	return filter, nil
}

// stageUpload copies a multipart file to a temp file so the request body can
// be released before the background upload runs.
func stageUpload(header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "cliptube-upload-*")
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("stage uploaded file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("close staging file: %w", err)
	}

	return dst.Name(), nil
}
