package opencritic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gamestracker/internal/domain"
)

const service = "opencritic"

// Config holds review API configuration
type Config struct {
	BaseURL string
	Host    string
	APIKey  string
	Timeout time.Duration
}

// Client queries the OpenCritic review aggregation API through RapidAPI
type Client struct {
	httpClient *http.Client
	baseURL    string
	host       string
	apiKey     string
	logger     *slog.Logger
}

// NewClient creates a new review client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		host:    cfg.Host,
		apiKey:  cfg.APIKey,
		logger:  logger.With("component", "opencritic"),
	}
}

// ReviewedThisWeek returns the games reviewed during the current week
func (c *Client) ReviewedThisWeek(ctx context.Context) ([]domain.ReviewRecord, error) {
	var wire []gameWire
	if err := c.get(ctx, "/game/reviewed-this-week", &wire); err != nil {
		return nil, err
	}

	records := make([]domain.ReviewRecord, 0, len(wire))
	for _, w := range wire {
		if err := w.validate(); err != nil {
			c.logger.Warn("skipping malformed review record", "id", w.ID, "error", err)
			continue
		}
		records = append(records, w.toReview())
	}
	return records, nil
}

// RecentlyReleased returns recently released games with their platforms
func (c *Client) RecentlyReleased(ctx context.Context) ([]domain.TrendingGame, error) {
	var wire []gameWire
	if err := c.get(ctx, "/game/recently-released", &wire); err != nil {
		return nil, err
	}

	games := make([]domain.TrendingGame, 0, len(wire))
	for _, w := range wire {
		if err := w.validate(); err != nil {
			c.logger.Warn("skipping malformed trending record", "id", w.ID, "error", err)
			continue
		}
		games = append(games, w.toTrending())
	}
	return games, nil
}

// get issues one authenticated GET. There is no retry and no pagination.
func (c *Client) get(ctx context.Context, path string, target any) error {
	if c.apiKey == "" {
		return &domain.ConfigurationError{Setting: "opencritic.api_key"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.NetworkError{Service: service, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.UpstreamError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
