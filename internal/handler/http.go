package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gamestracker/internal/config"
	"github.com/gamestracker/internal/domain"
	"github.com/gamestracker/internal/websocket"
)

// FeedProvider serves the review feeds
type FeedProvider interface {
	ReviewedThisWeek(ctx context.Context, limit int) (domain.FeedResult[domain.ReviewRecord], error)
	RecentlyReleased(ctx context.Context, limit int) (domain.FeedResult[domain.TrendingGame], error)
}

// ReleaseProvider serves the catalog backed lists and pages
type ReleaseProvider interface {
	Upcoming(ctx context.Context, filter domain.ReleaseFilter) (domain.FeedResult[domain.GameView], error)
	Recent(ctx context.Context, filter domain.ReleaseFilter) (domain.FeedResult[domain.GameView], error)
	GameDetail(ctx context.Context, id int64) (*domain.GameDetail, error)
	Genres(ctx context.Context) (domain.FeedResult[domain.Genre], error)
	Studios(ctx context.Context) (domain.FeedResult[domain.Studio], error)
}

// NoteManager manages personal game notes
type NoteManager interface {
	GetNote(ctx context.Context, gameID int64) (*domain.Note, error)
	ListNotes(ctx context.Context, limit, offset int) ([]domain.Note, error)
	SubmitNote(ctx context.Context, sub domain.NoteSubmission) (*domain.Note, error)
	DeleteNote(ctx context.Context, gameID int64) error
}

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies groups what the handler serves
type Dependencies struct {
	Feeds    FeedProvider
	Releases ReleaseProvider
	Notes    NoteManager
	Hub      *websocket.Hub
	// Ready is consulted by /ready; keys name the dependency
	Ready map[string]Pinger
}

// Handler provides the HTTP API
type Handler struct {
	feeds    FeedProvider
	releases ReleaseProvider
	notes    NoteManager
	hub      *websocket.Hub
	ready    map[string]Pinger
	cfg      *config.Config
	images   *http.Client
	rnd      func(int64) int64
	logger   *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Dependencies, cfg *config.Config, logger *slog.Logger) *Handler {
	h := &Handler{
		feeds:    deps.Feeds,
		releases: deps.Releases,
		notes:    deps.Notes,
		hub:      deps.Hub,
		ready:    deps.Ready,
		cfg:      cfg,
		rnd:      randInt64N,
		logger:   logger.With("component", "http"),
	}
	h.images = &http.Client{
		Timeout:       cfg.Image.Timeout,
		CheckRedirect: h.checkImageRedirect,
	}
	return h
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	r.Route("/api", func(r chi.Router) {
		// Review feeds
		r.Get("/reviewed-this-week", h.ReviewedThisWeek)
		r.Get("/recently-released", h.RecentlyReleased)

		// Image proxy
		r.Get("/image", h.ProxyImage)

		// Catalog lists
		r.Get("/upcoming", h.Upcoming)
		r.Get("/recent", h.Recent)
		r.Get("/genres", h.Genres)
		r.Get("/studios", h.Studios)

		r.Route("/games/{gameID}", func(r chi.Router) {
			r.Get("/", h.GameDetail)
			r.Get("/note", h.GetNote)
			r.Put("/note", h.PutNote)
			r.Delete("/note", h.DeleteNote)
		})
		r.Get("/notes", h.ListNotes)

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to write response", "error", err)
	}
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeServiceError maps a service error to a status and writes it.
// Dependency failures are reported as unavailable without their details.
func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrNotesDisabled):
		h.writeError(w, http.StatusServiceUnavailable, domain.ErrNotesDisabled)
	case domain.IsConfigurationError(err), domain.IsUpstreamError(err):
		h.logger.Error("dependency unavailable", "op", op, "error", err)
		setNoStore(w)
		h.writeError(w, http.StatusServiceUnavailable, domain.ErrUnavailable)
	default:
		h.logger.Error("request failed", "op", op, "error", err)
		setNoStore(w)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck reports ready once every configured store answers a ping
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.ready))
	ready := true
	for name, p := range h.ready {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", "dependency", name, "error", err)
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		h.writeJSON(w, http.StatusServiceUnavailable, APIResponse{
			Success: false,
			Data:    map[string]interface{}{"status": "not ready", "checks": checks},
			Error:   domain.ErrUnavailable.Error(),
		})
		return
	}
	h.writeSuccess(w, map[string]interface{}{"status": "ready", "checks": checks})
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.hub.Stats())
}

// queryInt parses a non-negative integer query parameter, returning def when
// it is absent or malformed
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func parseGameID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidRequest
	}
	return id, nil
}
