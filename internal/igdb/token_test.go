package igdb

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamestracker/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type tokenServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newTokenServer(t *testing.T, status int, body string) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestTokenCache(url string, now *time.Time) *TokenCache {
	cache := NewTokenCache(TokenConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		TokenURL:     url,
	}, nil, testLogger())
	cache.now = func() time.Time { return *now }
	return cache
}

func TestTokenCache_ReusesTokenBeforeExpiry(t *testing.T) {
	srv := newTokenServer(t, http.StatusOK, `{"access_token":"abc","expires_in":3600,"token_type":"bearer"}`)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := newTestTokenCache(srv.URL, &now)

	tok, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
	assert.Equal(t, int32(1), srv.calls.Load())

	now = now.Add(30 * time.Minute)
	tok, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestTokenCache_RefreshesAtExpiry(t *testing.T) {
	srv := newTokenServer(t, http.StatusOK, `{"access_token":"abc","expires_in":3600}`)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := newTestTokenCache(srv.URL, &now)

	_, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(3600*time.Second-60*time.Second), cache.ExpiresAt())

	// now == expiresAt counts as expired
	now = cache.ExpiresAt()
	_, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.calls.Load())
	assert.Equal(t, now.Add(3600*time.Second-60*time.Second), cache.ExpiresAt())
}

func TestTokenCache_MissingCredentials(t *testing.T) {
	srv := newTokenServer(t, http.StatusOK, `{}`)
	now := time.Now()

	tests := []struct {
		name    string
		cfg     TokenConfig
		setting string
	}{
		{name: "both missing", cfg: TokenConfig{TokenURL: srv.URL}, setting: "igdb.client_id"},
		{name: "secret missing", cfg: TokenConfig{ClientID: "client", TokenURL: srv.URL}, setting: "igdb.client_secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewTokenCache(tt.cfg, nil, testLogger())
			cache.now = func() time.Time { return now }

			_, err := cache.Token(context.Background())
			require.Error(t, err)
			assert.True(t, domain.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.setting)
		})
	}

	assert.Equal(t, int32(0), srv.calls.Load())
}

func TestTokenCache_UpstreamFailure(t *testing.T) {
	srv := newTokenServer(t, http.StatusUnauthorized, `{"message":"invalid client secret"}`)
	now := time.Now()
	cache := newTestTokenCache(srv.URL, &now)

	_, err := cache.Token(context.Background())
	require.Error(t, err)

	var upErr *domain.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
	assert.True(t, cache.ExpiresAt().IsZero())
}

func TestTokenCache_NetworkFailure(t *testing.T) {
	srv := newTokenServer(t, http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()

	now := time.Now()
	cache := newTestTokenCache(url, &now)

	_, err := cache.Token(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsUpstreamError(err))
}
