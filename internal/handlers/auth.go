package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/media"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// AuthHandler implements registration and session endpoints.
type AuthHandler struct {
	Users          UserStore
	Sessions       SessionService
	Media          media.AssetStorage
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

// Register handles POST /api/v1/users/register requests. The body is either
// JSON or a multipart form carrying optional avatar and coverImage files.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil {
		logger.Error("registration dependencies unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "account services unavailable")
		return
	}

	req, files, err := h.parseRegistration(w, r)
	if err != nil {
		logger.Warn("invalid registration payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.normalize()
	if msg := req.validate(); msg != "" {
		logger.Warn("registration validation failed", "username", req.Username, "reason", msg)
		respondError(ctx, w, http.StatusBadRequest, msg)
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("registration failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hashed,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if user.AvatarURL, err = h.uploadProfileImage(r, files.avatar, "avatars"); err != nil {
		logger.Error("avatar upload failed", "error", err)
		respondError(ctx, w, http.StatusBadGateway, "failed to store avatar")
		return
	}
	if user.CoverImageURL, err = h.uploadProfileImage(r, files.coverImage, "covers"); err != nil {
		logger.Error("cover image upload failed", "error", err)
		respondError(ctx, w, http.StatusBadGateway, "failed to store cover image")
		return
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("registration conflict", "username", req.Username, "email", req.Email)
			respondError(ctx, w, http.StatusConflict, "account already exists")
			return
		}
		logger.Error("registration failed to create user", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{"user": user.Sanitized()})
}

// Login handles POST /api/v1/users/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session service unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	identifier := strings.TrimSpace(strings.ToLower(req.Username))
	if identifier == "" {
		identifier = strings.TrimSpace(strings.ToLower(req.Email))
	}
	if identifier == "" || req.Password == "" {
		logger.Warn("login missing credentials")
		respondError(ctx, w, http.StatusBadRequest, "username or email and password are required")
		return
	}

	user, tokens, err := h.Sessions.Login(ctx, identifier, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			// Unknown account and wrong password share one message.
			respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		logger.Error("login failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	setSessionCookies(w, tokens)
	respondJSON(ctx, w, http.StatusOK, sessionResponse{User: user, Tokens: tokens})
}

// Refresh handles POST /api/v1/users/refresh-token requests. The refresh
// token arrives via cookie or body field.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session service unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	presented := ""
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req); err == nil {
			presented = strings.TrimSpace(req.RefreshToken)
		}
	}
	if presented == "" {
		logger.Warn("missing refresh token")
		respondError(ctx, w, http.StatusBadRequest, "refresh token is required")
		return
	}

	user, tokens, err := h.Sessions.Refresh(ctx, presented)
	if err != nil {
		if errors.Is(err, auth.ErrSessionInvalid) {
			logger.Warn("refresh rejected", "error", err)
			respondError(ctx, w, http.StatusUnauthorized, "unable to refresh session")
			return
		}
		logger.Error("refresh failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		return
	}

	setSessionCookies(w, tokens)
	respondJSON(ctx, w, http.StatusOK, sessionResponse{User: user, Tokens: tokens})
}

// Logout handles POST /api/v1/users/logout requests. It runs behind the
// authentication middleware.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.Sessions.Logout(ctx, identity.ID); err != nil {
		logger.Error("logout failed", "error", err, "userId", identity.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to end session")
		return
	}

	clearSessionCookies(w)
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "logged out"})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

func (req *registerRequest) normalize() {
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
}

func (req registerRequest) validate() string {
	switch {
	case req.Username == "" || req.Email == "" || req.FullName == "" || req.Password == "":
		return "username, email, fullName, and password are required"
	case len(req.Password) < 8:
		return "password must be at least 8 characters"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "invalid email address"
	}
	return ""
}

type profileFiles struct {
	avatar     *multipart.FileHeader
	coverImage *multipart.FileHeader
}

func (h AuthHandler) parseRegistration(w http.ResponseWriter, r *http.Request) (registerRequest, profileFiles, error) {
	var req registerRequest
	var files profileFiles

	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		return req, files, decodeJSON(r, &req)
	}

	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = 16 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		return req, files, fmt.Errorf("parse multipart form: %w", err)
	}

	req.Username = r.FormValue("username")
	req.Email = r.FormValue("email")
	req.FullName = r.FormValue("fullName")
	req.Password = r.FormValue("password")

	if headers := r.MultipartForm.File["avatar"]; len(headers) > 0 {
		files.avatar = headers[0]
	}
	if headers := r.MultipartForm.File["coverImage"]; len(headers) > 0 {
		files.coverImage = headers[0]
	}

	return req, files, nil
}

func (h AuthHandler) uploadProfileImage(r *http.Request, header *multipart.FileHeader, prefix string) (string, error) {
	if header == nil {
		return "", nil
	}
	if h.Media == nil {
		return "", errors.New("media storage not configured")
	}
	return uploadHeader(r, h.Media, header, prefix)
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type sessionResponse struct {
	User   models.User          `json:"user"`
	Tokens models.SessionTokens `json:"tokens"`
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
