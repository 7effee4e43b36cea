package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/gamestracker/internal/domain"
)

const (
	catalogService = "igdb"

	upcomingLimit = 500
	recentLimit   = 50
	listLimit     = 500

	secondsPerDay = 24 * 60 * 60
)

var (
	releaseFields = []string{
		"id", "date", "human", "date_format",
		"platform.id", "platform.name",
		"game.id", "game.name", "game.summary", "game.cover.url",
		"game.screenshots.url", "game.platforms.name", "game.game_status",
	}
	gameFields = []string{
		"id", "name", "summary", "cover.url", "first_release_date", "game_status",
		"platforms.id", "platforms.name", "screenshots.url",
		"release_dates.id", "release_dates.human", "release_dates.date",
		"release_dates.date_format", "release_dates.platform.id", "release_dates.platform.name",
	}
	detailFields = append(append([]string{}, gameFields...),
		"websites.category", "websites.url",
		"external_games.category", "external_games.uid",
		"aggregated_rating", "aggregated_rating_count",
	)
)

// TokenSource provides bearer tokens for catalog requests
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config holds catalog client configuration
type Config struct {
	BaseURL           string
	ClientID          string
	Timeout           time.Duration
	RequestsPerSecond int
}

// Client queries the IGDB catalog API
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	tokens     TokenSource
	limiter    *rate.Limiter
	now        func() time.Time
	logger     *slog.Logger
}

// NewClient creates a new catalog client
func NewClient(cfg Config, tokens TokenSource, logger *slog.Logger) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Every(time.Second / time.Duration(cfg.RequestsPerSecond))
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		clientID: cfg.ClientID,
		tokens:   tokens,
		limiter:  rate.NewLimiter(limit, 1),
		now:      time.Now,
		logger:   logger.With("component", "igdb"),
	}
}

// UpcomingReleases returns confirmed release records for a platform dated
// after now and within windowDays. Records are ordered by date as a hint only.
// A genre or studio in the filter restricts the records to matching games.
func (c *Client) UpcomingReleases(ctx context.Context, filter domain.ReleaseFilter, windowDays int) ([]domain.ReleaseRecord, error) {
	now := c.now().Unix()
	end := now + int64(windowDays)*secondsPerDay

	q := NewQuery(releaseFields...).
		Where("platform = %d", filter.PlatformID).
		Where("date > %d", now).
		Where("date <= %d", end).
		Where("date_format != %d", domain.DateFormatTBD).
		Where("game.game_status != (%d,%d)", domain.GameStatusCancelled, domain.GameStatusDelisted)
	if filter.GenreID > 0 {
		q.Where("game.genres = (%d)", filter.GenreID)
	}
	if filter.StudioID > 0 {
		q.Where("game.involved_companies.company = (%d)", filter.StudioID)
	}
	q.Sort("date", "asc").Limit(upcomingLimit)

	var wire []releaseDateWire
	if err := c.query(ctx, "release_dates", q, &wire); err != nil {
		return nil, err
	}

	records := make([]domain.ReleaseRecord, 0, len(wire))
	for _, w := range wire {
		if err := w.validate(); err != nil {
			c.logger.Warn("skipping malformed release record", "record_id", w.ID, "error", err)
			continue
		}
		rec := w.toDomain()
		if rec.IsTBD() {
			continue
		}
		if rec.Status == domain.GameStatusCancelled || rec.Status == domain.GameStatusDelisted {
			continue
		}
		records = append(records, rec)
	}

	c.logger.Debug("fetched upcoming releases",
		"platform_id", filter.PlatformID,
		"received", len(wire),
		"kept", len(records),
	)

	return records, nil
}

// RecentReleases returns games with a release on the platform in the trailing windowDays
func (c *Client) RecentReleases(ctx context.Context, filter domain.ReleaseFilter, windowDays int) ([]domain.RawGame, error) {
	now := c.now().Unix()
	start := now - int64(windowDays)*secondsPerDay

	q := NewQuery(gameFields...).
		Where("platforms = (%d)", filter.PlatformID).
		Where("release_dates.date != null").
		Where("release_dates.date >= %d", start).
		Where("release_dates.date <= %d", now).
		Where("release_dates.platform = %d", filter.PlatformID)
	if filter.GenreID > 0 {
		q.Where("genres = (%d)", filter.GenreID)
	}
	if filter.StudioID > 0 {
		q.Where("involved_companies.company = (%d)", filter.StudioID)
	}
	q.Sort("release_dates.date", "desc").Limit(recentLimit)

	return c.games(ctx, q)
}

// GameByID returns a single game with its detail fields, or nil when no game has the id
func (c *Client) GameByID(ctx context.Context, id int64) (*domain.RawGame, error) {
	q := NewQuery(detailFields...).
		Where("id = %d", id).
		Limit(1)

	games, err := c.games(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, nil
	}
	return &games[0], nil
}

// GameByName returns the best search match for name, or nil when nothing matches
func (c *Client) GameByName(ctx context.Context, name string) (*domain.RawGame, error) {
	q := NewQuery("id", "name", "cover.url", "platforms.id", "platforms.name").
		Search(name).
		Limit(1)

	games, err := c.games(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, nil
	}
	return &games[0], nil
}

// Genres returns every catalog genre sorted by name
func (c *Client) Genres(ctx context.Context) ([]domain.Genre, error) {
	q := NewQuery("id", "name", "slug").
		Sort("name", "asc").
		Limit(listLimit)

	var wire []namedWire
	if err := c.query(ctx, "genres", q, &wire); err != nil {
		return nil, err
	}

	genres := make([]domain.Genre, 0, len(wire))
	for _, w := range wire {
		if w.ID == 0 || w.Name == "" {
			continue
		}
		genres = append(genres, domain.Genre{ID: w.ID, Name: w.Name, Slug: w.Slug})
	}
	return genres, nil
}

// Studios returns companies credited as developers, sorted by name
func (c *Client) Studios(ctx context.Context) ([]domain.Studio, error) {
	q := NewQuery("id", "name").
		Where("developed != null").
		Sort("name", "asc").
		Limit(listLimit)

	var wire []namedWire
	if err := c.query(ctx, "companies", q, &wire); err != nil {
		return nil, err
	}

	studios := make([]domain.Studio, 0, len(wire))
	for _, w := range wire {
		if w.ID == 0 || w.Name == "" {
			continue
		}
		studios = append(studios, domain.Studio{ID: w.ID, Name: w.Name})
	}
	return studios, nil
}

func (c *Client) games(ctx context.Context, q *Query) ([]domain.RawGame, error) {
	var wire []gameWire
	if err := c.query(ctx, "games", q, &wire); err != nil {
		return nil, err
	}

	games := make([]domain.RawGame, 0, len(wire))
	for _, w := range wire {
		if err := w.validate(); err != nil {
			c.logger.Warn("skipping malformed game record", "game_id", w.ID, "error", err)
			continue
		}
		games = append(games, w.toDomain())
	}
	return games, nil
}

// query posts an Apicalypse body to endpoint and decodes the JSON array into target.
// Failures are not retried; an expired token surfaces as an UpstreamError.
func (c *Client) query(ctx context.Context, endpoint string, q *Query, target any) error {
	if c.clientID == "" {
		return &domain.ConfigurationError{Setting: "igdb.client_id"}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	url := c.baseURL + "/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(q.String()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.NetworkError{Service: catalogService, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.UpstreamError{
			Service:    catalogService,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}
