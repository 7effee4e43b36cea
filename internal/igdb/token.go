package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gamestracker/internal/domain"
)

// tokenSafetyMargin is subtracted from the advertised lifetime so a token is
// never used right at its expiry.
const tokenSafetyMargin = 60 * time.Second

const tokenService = "twitch oauth"

// TokenConfig holds the credentials exchanged for a catalog bearer token
type TokenConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// TokenCache holds a single client-credentials token.
//
// The cache slot is swapped atomically but refreshes are not serialized:
// concurrent callers that all see an expired token each perform an exchange
// and the last one stored wins. Every exchanged token is usable.
type TokenCache struct {
	cfg        TokenConfig
	httpClient *http.Client
	current    atomic.Pointer[domain.AccessToken]
	now        func() time.Time
	logger     *slog.Logger
}

// NewTokenCache creates a token cache. A nil httpClient uses http.DefaultClient.
func NewTokenCache(cfg TokenConfig, httpClient *http.Client, logger *slog.Logger) *TokenCache {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenCache{
		cfg:        cfg,
		httpClient: httpClient,
		now:        time.Now,
		logger:     logger.With("component", "igdb_token"),
	}
}

// Token returns a valid bearer token, exchanging credentials when the cached one expired
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	now := c.now()
	if tok := c.current.Load(); tok.Valid(now) {
		return tok.Value, nil
	}

	if c.cfg.ClientID == "" {
		return "", &domain.ConfigurationError{Setting: "igdb.client_id"}
	}
	if c.cfg.ClientSecret == "" {
		return "", &domain.ConfigurationError{Setting: "igdb.client_secret"}
	}

	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"grant_type":    {"client_credentials"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.NetworkError{Service: tokenService, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.UpstreamError{
			Service:    tokenService,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	tok := &domain.AccessToken{
		Value:     body.AccessToken,
		ExpiresAt: now.Add(time.Duration(body.ExpiresIn)*time.Second - tokenSafetyMargin),
	}
	c.current.Store(tok)

	c.logger.Debug("access token refreshed", "expires_at", tok.ExpiresAt)

	return tok.Value, nil
}

// ExpiresAt returns the expiry of the cached token, or the zero time when none is cached
func (c *TokenCache) ExpiresAt() time.Time {
	if tok := c.current.Load(); tok != nil {
		return tok.ExpiresAt
	}
	return time.Time{}
}
