package opencritic

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

func newTestClient(baseURL, apiKey string) *Client {
	return NewClient(Config{
		BaseURL: baseURL,
		Host:    "opencritic-api.p.rapidapi.com",
		APIKey:  apiKey,
		Timeout: 5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newReviewServer(t *testing.T, path string, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, path, r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "opencritic-api.p.rapidapi.com", r.Header.Get("X-RapidAPI-Host"))
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ReviewedThisWeek(t *testing.T) {
	srv := newReviewServer(t, "/game/reviewed-this-week", http.StatusOK, `[
		{"id": 1, "name": "Astro Bot", "tier": "Mighty", "topCriticScore": 94.2, "numReviews": 120,
		 "percentRecommended": 99, "releaseDate": "2024-09-06",
		 "images": {"box": {"sm": "box-sm.jpg", "og": "box.jpg"}, "banner": {}}},
		{"id": 2, "name": "Unscored", "topCriticScore": -1, "numReviews": 0, "images": {}},
		{"id": 0, "name": "broken"}
	]`)

	reviews, err := newTestClient(srv.URL, "key").ReviewedThisWeek(context.Background())
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	first := reviews[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "Mighty", first.Tier)
	require.NotNil(t, first.TopCriticScore)
	assert.InDelta(t, 94.2, *first.TopCriticScore, 0.001)
	assert.Equal(t, 120, first.NumReviews)
	assert.Equal(t, "2024-09-06", first.ReleaseDate)
	require.NotNil(t, first.Images.Box)
	assert.Equal(t, "box.jpg", first.Images.Box.OG)
	assert.Nil(t, first.Images.Banner)

	assert.Nil(t, reviews[1].TopCriticScore)
	assert.Empty(t, reviews[1].EnrichedCoverURL)
}

func TestClient_RecentlyReleased(t *testing.T) {
	srv := newReviewServer(t, "/game/recently-released", http.StatusOK, `[
		{"id": 7, "name": "Stellar Blade", "numReviews": 80, "firstReleaseDate": "2024-04-26T00:00:00.000Z",
		 "Platforms": [{"id": 6, "name": "PlayStation 5", "shortName": "PS5"}, {"id": 3, "shortName": "PC"}]}
	]`)

	games, err := newTestClient(srv.URL, "key").RecentlyReleased(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 1)

	assert.Equal(t, "Stellar Blade", games[0].Name)
	assert.Equal(t, "2024-04-26T00:00:00.000Z", games[0].ReleaseDate)
	assert.Equal(t, []domain.Platform{{ID: 6, Name: "PlayStation 5"}, {ID: 3, Name: "PC"}}, games[0].Platforms)
}

func TestClient_MissingAPIKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "").ReviewedThisWeek(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_UpstreamError(t *testing.T) {
	srv := newReviewServer(t, "/game/reviewed-this-week", http.StatusInternalServerError, `{"message":"boom"}`)

	_, err := newTestClient(srv.URL, "key").ReviewedThisWeek(context.Background())
	require.Error(t, err)

	var upErr *domain.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusInternalServerError, upErr.StatusCode)
	assert.Contains(t, err.Error(), "500 Internal Server Error")
}
