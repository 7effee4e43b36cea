package handler

import (
	"net/http"

	"github.com/gamestracker/internal/domain"
)

// recentlyReleasedResponse is the body of /api/recently-released
type recentlyReleasedResponse struct {
	Games []domain.TrendingGame `json:"games"`
}

func (h *Handler) feedPolicy() CachePolicy {
	return CachePolicy{
		MaxAge:               h.cfg.Feeds.FreshFor,
		StaleWhileRevalidate: h.cfg.Feeds.StaleWhileRevalidate,
		Jitter:               h.cfg.Feeds.RevalidateJitter,
	}
}

// ReviewedThisWeek returns the enriched weekly review list as a bare JSON array.
// ?limit=N caps the list; limit=0 returns all of it.
func (h *Handler) ReviewedThisWeek(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", h.cfg.Feeds.ReviewedLimit)

	res, err := h.feeds.ReviewedThisWeek(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to fetch reviewed this week", "error", err)
		setNoStore(w)
		h.writeJSON(w, http.StatusServiceUnavailable, []domain.ReviewRecord{})
		return
	}

	h.setFeedCacheHeaders(w, h.feedPolicy(), res.Stale)
	h.writeJSON(w, http.StatusOK, res.Items)
}

// RecentlyReleased returns {games: [...]}. Errors answer 500 {games: []} and are never cached.
func (h *Handler) RecentlyReleased(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", h.cfg.Feeds.TrendingLimit)

	res, err := h.feeds.RecentlyReleased(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to fetch recently released", "error", err)
		setNoStore(w)
		h.writeJSON(w, http.StatusInternalServerError, recentlyReleasedResponse{Games: []domain.TrendingGame{}})
		return
	}

	h.setFeedCacheHeaders(w, h.feedPolicy(), res.Stale)
	h.writeJSON(w, http.StatusOK, recentlyReleasedResponse{Games: res.Items})
}
