package handlers

import (
	"net/http"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/logging"
)

// DashboardHandler serves platform-wide totals. Counts come from a caching
// provider, so repeated requests inside the TTL share one snapshot.
type DashboardHandler struct {
	Stats StatsProvider
}

// Totals handles GET /api/v1/dashboard/stats requests.
func (h DashboardHandler) Totals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if _, ok := auth.IdentityFromContext(ctx); !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	stats, err := h.Stats.Totals(ctx)
	if err != nil {
		logger.Error("dashboard totals failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load dashboard stats")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"stats": stats})
}
