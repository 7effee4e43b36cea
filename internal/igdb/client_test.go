package igdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamestracker/internal/domain"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Token(context.Context) (string, error) {
	return s.token, s.err
}

type catalogRequest struct {
	endpoint string
	body     string
}

func newCatalogServer(t *testing.T, responses map[string]string, requests *[]catalogRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "client", r.Header.Get("Client-ID"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		endpoint := strings.TrimPrefix(r.URL.Path, "/")
		if requests != nil {
			*requests = append(*requests, catalogRequest{endpoint: endpoint, body: string(body)})
		}

		resp, ok := responses[endpoint]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string, now time.Time) *Client {
	c := NewClient(Config{
		BaseURL:  baseURL,
		ClientID: "client",
		Timeout:  5 * time.Second,
	}, staticTokens{token: "tok"}, testLogger())
	c.now = func() time.Time { return now }
	return c
}

func TestClient_UpcomingReleases(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var requests []catalogRequest
	srv := newCatalogServer(t, map[string]string{
		"release_dates": `[
			{"id": 1, "date": 1700001000, "human": "Nov 14, 2023", "date_format": 0,
			 "platform": {"id": 167, "name": "PlayStation 5"},
			 "game": {"id": 10, "name": "Alpha", "cover": {"url": "//images.igdb.com/t_thumb/a.jpg"}}},
			{"id": 2, "date": 1700002000, "human": "TBD", "date_format": 0,
			 "platform": {"id": 167, "name": "PlayStation 5"},
			 "game": {"id": 11, "name": "Beta"}},
			{"id": 3, "human": "Q1 2024",
			 "platform": {"id": 167, "name": "PlayStation 5"},
			 "game": {"id": 12, "name": "Gamma"}},
			{"id": 4, "date": 1700003000, "human": "Nov 15, 2023",
			 "platform": {"id": 167, "name": "PlayStation 5"},
			 "game": {"id": 13, "name": "Delta", "game_status": 6}}
		]`,
	}, &requests)

	client := newTestClient(srv.URL, now)
	records, err := client.UpcomingReleases(context.Background(), domain.ReleaseFilter{PlatformID: 167}, 180)
	require.NoError(t, err)

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, int64(1), rec.RecordID)
	assert.Equal(t, int64(10), rec.GameID)
	assert.Equal(t, int64(167), rec.PlatformID)
	assert.Equal(t, "PlayStation 5", rec.PlatformName)
	assert.Equal(t, int64(1700001000), rec.Date)
	require.NotNil(t, rec.Game)
	assert.Equal(t, "Alpha", rec.Game.Name)
	assert.Equal(t, "//images.igdb.com/t_thumb/a.jpg", rec.Game.CoverURL)

	require.Len(t, requests, 1)
	body := requests[0].body
	assert.Contains(t, body, "platform = 167")
	assert.Contains(t, body, "date > 1700000000")
	assert.Contains(t, body, "date <= 1715552000")
	assert.Contains(t, body, "date_format != 7")
	assert.Contains(t, body, "game.game_status != (6,8)")
	assert.Contains(t, body, "sort date asc;")
	assert.NotContains(t, body, "genres")
	assert.NotContains(t, body, "involved_companies")
}

func TestClient_ReleasesFilterByGenreAndStudio(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var requests []catalogRequest
	srv := newCatalogServer(t, map[string]string{
		"release_dates": `[]`,
		"games":         `[]`,
	}, &requests)

	client := newTestClient(srv.URL, now)
	filter := domain.ReleaseFilter{PlatformID: 6, GenreID: 12, StudioID: 70}

	_, err := client.UpcomingReleases(context.Background(), filter, 180)
	require.NoError(t, err)
	_, err = client.RecentReleases(context.Background(), filter, 60)
	require.NoError(t, err)

	require.Len(t, requests, 2)
	upcoming := requests[0].body
	assert.Contains(t, upcoming, "platform = 6")
	assert.Contains(t, upcoming, "game.genres = (12)")
	assert.Contains(t, upcoming, "game.involved_companies.company = (70)")
	assert.Contains(t, upcoming, "sort date asc;")

	recent := requests[1].body
	assert.Equal(t, "games", requests[1].endpoint)
	assert.Contains(t, recent, "& genres = (12)")
	assert.Contains(t, recent, "& involved_companies.company = (70)")
	assert.Contains(t, recent, "limit 50;")
}

func TestClient_RecentReleases(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var requests []catalogRequest
	srv := newCatalogServer(t, map[string]string{
		"games": `[
			{"id": 20, "name": "Echo", "cover": {"url": "//img/t_thumb/e.jpg"},
			 "release_dates": [
				{"id": 201, "date": 1699990000, "human": "Nov 14, 2023", "platform": {"id": 167, "name": "PlayStation 5"}},
				{"id": 202, "human": "TBD", "platform": {"id": 48, "name": "PlayStation 4"}}
			 ]},
			{"id": 0, "name": "broken"}
		]`,
	}, &requests)

	client := newTestClient(srv.URL, now)
	games, err := client.RecentReleases(context.Background(), domain.ReleaseFilter{PlatformID: 167}, 60)
	require.NoError(t, err)

	require.Len(t, games, 1)
	assert.Equal(t, "Echo", games[0].Name)
	require.Len(t, games[0].ReleaseDates, 1)
	assert.Equal(t, int64(1699990000), games[0].ReleaseDates[0].Date)

	require.Len(t, requests, 1)
	assert.Equal(t, "games", requests[0].endpoint)
	assert.Contains(t, requests[0].body, "release_dates.date >= 1694816000")
	assert.Contains(t, requests[0].body, "sort release_dates.date desc;")
	assert.Contains(t, requests[0].body, "limit 50;")
}

func TestClient_GameByID(t *testing.T) {
	srv := newCatalogServer(t, map[string]string{
		"games": `[{"id": 42, "name": "Answer",
			"websites": [{"category": 1, "url": "https://answer.example"}],
			"external_games": [{"category": 1, "uid": "123"}],
			"aggregated_rating": 88.5, "aggregated_rating_count": 12}]`,
	}, nil)

	client := newTestClient(srv.URL, time.Now())
	game, err := client.GameByID(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, game)
	assert.Equal(t, int64(42), game.ID)
	assert.Equal(t, 88.5, game.AggregatedRating)
	assert.Equal(t, []domain.Website{{Category: 1, URL: "https://answer.example"}}, game.Websites)
	assert.Equal(t, []domain.ExternalGame{{Category: 1, UID: "123"}}, game.ExternalGames)
}

func TestClient_GameByName_NoMatch(t *testing.T) {
	var requests []catalogRequest
	srv := newCatalogServer(t, map[string]string{"games": `[]`}, &requests)

	client := newTestClient(srv.URL, time.Now())
	game, err := client.GameByName(context.Background(), `Baldur's "Gate" 3`)
	require.NoError(t, err)
	assert.Nil(t, game)

	require.Len(t, requests, 1)
	assert.Contains(t, requests[0].body, `search "Baldur's Gate 3";`)
}

func TestClient_Genres(t *testing.T) {
	srv := newCatalogServer(t, map[string]string{
		"genres": `[{"id": 5, "name": "Shooter", "slug": "shooter"}, {"id": 0, "name": ""}]`,
	}, nil)

	client := newTestClient(srv.URL, time.Now())
	genres, err := client.Genres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Genre{{ID: 5, Name: "Shooter", Slug: "shooter"}}, genres)
}

func TestClient_Studios(t *testing.T) {
	srv := newCatalogServer(t, map[string]string{
		"companies": `[{"id": 70, "name": "Insomniac Games"}]`,
	}, nil)

	client := newTestClient(srv.URL, time.Now())
	studios, err := client.Studios(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Studio{{ID: 70, Name: "Insomniac Games"}}, studios)
}

func TestClient_UpstreamError(t *testing.T) {
	srv := newCatalogServer(t, map[string]string{}, nil)

	client := newTestClient(srv.URL, time.Now())
	_, err := client.GameByID(context.Background(), 1)
	require.Error(t, err)

	var upErr *domain.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusNotFound, upErr.StatusCode)
	assert.Equal(t, "igdb", upErr.Service)
}

func TestClient_TokenErrorPropagates(t *testing.T) {
	tokenErr := &domain.ConfigurationError{Setting: "igdb.client_secret"}
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0", ClientID: "client"},
		staticTokens{err: tokenErr}, testLogger())

	_, err := client.Genres(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, tokenErr))
}

func TestClient_MissingClientID(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0"}, staticTokens{token: "tok"}, testLogger())

	_, err := client.UpcomingReleases(context.Background(), domain.ReleaseFilter{PlatformID: 167}, 180)
	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))
}
