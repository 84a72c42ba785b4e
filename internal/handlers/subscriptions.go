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

// SubscriptionHandler implements the channel subscription endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	NowFunc       func() time.Time
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId} requests. A second
// toggle on the same channel unsubscribes.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	channelID := r.PathValue("channelId")
	if channelID == "" {
		respondError(ctx, w, http.StatusBadRequest, "channelId is required")
		return
	}
	if channelID == identity.ID {
		respondError(ctx, w, http.StatusBadRequest, "you cannot subscribe to your own channel")
		return
	}

	sub := models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: identity.ID,
		ChannelID:    channelID,
		CreatedAt:    h.now(),
	}

	err := h.Subscriptions.Create(ctx, sub)
	switch {
	case err == nil:
		respondJSON(ctx, w, http.StatusOK, map[string]any{"subscribed": true})
	case errors.Is(err, repositories.ErrConflict):
		if err := h.Subscriptions.Delete(ctx, identity.ID, channelID); err != nil {
			logger.Error("unsubscribe failed", "error", err, "channelId", channelID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to toggle subscription")
			return
		}
		respondJSON(ctx, w, http.StatusOK, map[string]any{"subscribed": false})
	case errors.Is(err, repositories.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "channel not found")
	default:
		logger.Error("subscribe failed", "error", err, "channelId", channelID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to toggle subscription")
	}
}

// SubscribedChannels handles GET /api/v1/subscriptions/u/{subscriberId} requests.
func (h SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	subscriberID := r.PathValue("subscriberId")
	if subscriberID == "" {
		respondError(ctx, w, http.StatusBadRequest, "subscriberId is required")
		return
	}

	channels, err := h.Subscriptions.ListChannels(ctx, subscriberID)
	if err != nil {
		logger.Error("subscribed channels lookup failed", "error", err, "subscriberId", subscriberID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list subscribed channels")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"channels": channels})
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId} requests.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	channelID := r.PathValue("channelId")
	if channelID == "" {
		respondError(ctx, w, http.StatusBadRequest, "channelId is required")
		return
	}

	subscribers, err := h.Subscriptions.ListSubscribers(ctx, channelID)
	if err != nil {
		logger.Error("subscribers lookup failed", "error", err, "channelId", channelID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list subscribers")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"subscribers": subscribers})
}

func (h SubscriptionHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
