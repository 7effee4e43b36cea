package aggregator

import (
	"context"
	"errors"
	"io"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gamestracker/internal/domain"
)

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) GameByName(ctx context.Context, name string) (*domain.RawGame, error) {
	args := m.Called(ctx, name)
	game, _ := args.Get(0).(*domain.RawGame)
	return game, args.Error(1)
}

func newTestEnricher(finder GameFinder) *Enricher {
	return NewEnricher(finder, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEnrichReviews_OneLookupFails(t *testing.T) {
	finder := new(mockFinder)
	finder.On("GameByName", mock.Anything, "Astro Bot").
		Return(&domain.RawGame{ID: 1, Name: "Astro Bot", CoverURL: "//images.igdb.com/t_thumb/astro.jpg"}, nil)
	finder.On("GameByName", mock.Anything, "Broken").
		Return(nil, errors.New("igdb request failed: 500"))
	finder.On("GameByName", mock.Anything, "Unknown").
		Return(nil, nil)
	finder.On("GameByName", mock.Anything, "Silent Hill 2").
		Return(&domain.RawGame{ID: 4, Name: "Silent Hill 2", CoverURL: "https://images.igdb.com/t_thumb/sh2.jpg"}, nil)

	reviews := []domain.ReviewRecord{
		{ID: 10, Name: "Astro Bot"},
		{ID: 11, Name: "Broken"},
		{ID: 12, Name: "Unknown"},
		{ID: 13, Name: "Silent Hill 2"},
	}

	out := newTestEnricher(finder).EnrichReviews(context.Background(), reviews)

	require.Len(t, out, len(reviews))
	assert.Equal(t, int64(10), out[0].ID)
	assert.Equal(t, "https://images.igdb.com/t_cover_big/astro.jpg", out[0].EnrichedCoverURL)
	assert.Equal(t, int64(1), out[0].LinkedCatalogID)

	assert.Equal(t, reviews[1], out[1])
	assert.Equal(t, reviews[2], out[2])

	assert.Equal(t, "https://images.igdb.com/t_cover_big/sh2.jpg", out[3].EnrichedCoverURL)
	assert.Equal(t, int64(4), out[3].LinkedCatalogID)

	// input is left untouched
	assert.Empty(t, reviews[0].EnrichedCoverURL)
	finder.AssertNumberOfCalls(t, "GameByName", 4)
}

func TestEnrichTrending(t *testing.T) {
	finder := new(mockFinder)
	finder.On("GameByName", mock.Anything, "Stellar Blade").
		Return(&domain.RawGame{ID: 7, CoverURL: "//images.igdb.com/t_thumb/sb.jpg"}, nil)

	games := []domain.TrendingGame{{
		ReviewRecord: domain.ReviewRecord{ID: 70, Name: "Stellar Blade"},
		Platforms:    []domain.Platform{{ID: 6, Name: "PlayStation 5"}},
	}}

	out := newTestEnricher(finder).EnrichTrending(context.Background(), games)

	require.Len(t, out, 1)
	assert.Equal(t, int64(7), out[0].LinkedCatalogID)
	assert.Equal(t, "https://images.igdb.com/t_cover_big/sb.jpg", out[0].EnrichedCoverURL)
	assert.Equal(t, games[0].Platforms, out[0].Platforms)
}

// barrierFinder answers only once want lookups are waiting at the same time
type barrierFinder struct {
	want    int
	mu      sync.Mutex
	waiting int
	release chan struct{}
}

func newBarrierFinder(want int) *barrierFinder {
	return &barrierFinder{want: want, release: make(chan struct{})}
}

func (b *barrierFinder) GameByName(ctx context.Context, name string) (*domain.RawGame, error) {
	b.mu.Lock()
	b.waiting++
	if b.waiting == b.want {
		close(b.release)
	}
	b.mu.Unlock()

	select {
	case <-b.release:
		return &domain.RawGame{ID: int64(len(name)), Name: name, CoverURL: "//images.igdb.com/t_thumb/" + name + ".jpg"}, nil
	case <-time.After(2 * time.Second):
		return nil, fmt.Errorf("lookup %q never ran alongside the others", name)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestEnrichReviews_LookupsRunConcurrently(t *testing.T) {
	reviews := []domain.ReviewRecord{
		{ID: 1, Name: "a"},
		{ID: 2, Name: "bb"},
		{ID: 3, Name: "ccc"},
		{ID: 4, Name: "dddd"},
		{ID: 5, Name: "eeeee"},
	}
	finder := newBarrierFinder(len(reviews))

	out := newTestEnricher(finder).EnrichReviews(context.Background(), reviews)

	require.Len(t, out, len(reviews))
	for i, r := range out {
		assert.Equal(t, reviews[i].ID, r.ID)
		assert.Equal(t, int64(len(reviews[i].Name)), r.LinkedCatalogID, "review %q was not enriched", reviews[i].Name)
		assert.Equal(t, "https://images.igdb.com/t_cover_big/"+reviews[i].Name+".jpg", r.EnrichedCoverURL)
	}
}

func TestEnrichReviews_Empty(t *testing.T) {
	finder := new(mockFinder)

	out := newTestEnricher(finder).EnrichReviews(context.Background(), nil)

	assert.Empty(t, out)
	finder.AssertNotCalled(t, "GameByName", mock.Anything, mock.Anything)
}

func TestLookup_Miss(t *testing.T) {
	finder := new(mockFinder)
	finder.On("GameByName", mock.Anything, "Nothing").Return(nil, nil)

	l := newTestEnricher(finder).Lookup(context.Background(), "Nothing")

	assert.False(t, l.OK)
	assert.Equal(t, domain.Enrichment{}, l.Enrichment)
}
