package handler

import (
	"net/http"
	"strconv"

	"github.com/gamestracker/internal/domain"
)

func (h *Handler) listPolicy() CachePolicy {
	return CachePolicy{
		MaxAge:               h.cfg.Releases.CacheTTL,
		StaleWhileRevalidate: h.cfg.Feeds.StaleWhileRevalidate,
		Jitter:               h.cfg.Feeds.RevalidateJitter,
	}
}

// parseReleaseFilter reads ?platform=P&genre=G&studio=S. Absent values are zero;
// anything else must be a positive id.
func parseReleaseFilter(r *http.Request) (domain.ReleaseFilter, error) {
	var filter domain.ReleaseFilter
	for name, dst := range map[string]*int64{
		"platform": &filter.PlatformID,
		"genre":    &filter.GenreID,
		"studio":   &filter.StudioID,
	} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return domain.ReleaseFilter{}, domain.ErrInvalidRequest
		}
		*dst = id
	}
	return filter, nil
}

// Upcoming returns the soonest upcoming games for ?platform=P&genre=G&studio=S
func (h *Handler) Upcoming(w http.ResponseWriter, r *http.Request) {
	filter, err := parseReleaseFilter(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.releases.Upcoming(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, "upcoming", err)
		return
	}

	h.setFeedCacheHeaders(w, h.listPolicy(), res.Stale)
	h.writeSuccess(w, res.Items)
}

// Recent returns the most recently released games for ?platform=P&genre=G&studio=S
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	filter, err := parseReleaseFilter(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.releases.Recent(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, "recent", err)
		return
	}

	h.setFeedCacheHeaders(w, h.listPolicy(), res.Stale)
	h.writeSuccess(w, res.Items)
}

// Genres returns the catalog genres
func (h *Handler) Genres(w http.ResponseWriter, r *http.Request) {
	res, err := h.releases.Genres(r.Context())
	if err != nil {
		h.writeServiceError(w, "genres", err)
		return
	}

	h.setFeedCacheHeaders(w, h.listPolicy(), res.Stale)
	h.writeSuccess(w, res.Items)
}

// Studios returns the catalog studios
func (h *Handler) Studios(w http.ResponseWriter, r *http.Request) {
	res, err := h.releases.Studios(r.Context())
	if err != nil {
		h.writeServiceError(w, "studios", err)
		return
	}

	h.setFeedCacheHeaders(w, h.listPolicy(), res.Stale)
	h.writeSuccess(w, res.Items)
}

// GameDetail returns a game page with its note
func (h *Handler) GameDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseGameID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	detail, err := h.releases.GameDetail(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "game_detail", err)
		return
	}

	// Notes change on every edit; the page is private to its owner
	w.Header().Set("Cache-Control", "private, no-cache")
	h.writeSuccess(w, detail)
}
