package aggregator

import (
	"context"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/gamestracker/internal/domain"
)

// GameFinder looks up a catalog game by name
type GameFinder interface {
	GameByName(ctx context.Context, name string) (*domain.RawGame, error)
}

// Lookup is the outcome of one enrichment lookup. OK is false on a miss or a failure.
type Lookup struct {
	Enrichment domain.Enrichment
	OK         bool
}

// Enricher copies catalog cover art and ids onto review records
type Enricher struct {
	finder GameFinder
	logger *slog.Logger
}

// NewEnricher creates a new enricher
func NewEnricher(finder GameFinder, logger *slog.Logger) *Enricher {
	return &Enricher{
		finder: finder,
		logger: logger.With("component", "enricher"),
	}
}

// Lookup finds catalog data for a game name. It never fails; errors are logged
// and reported as a miss.
func (e *Enricher) Lookup(ctx context.Context, name string) Lookup {
	game, err := e.finder.GameByName(ctx, name)
	if err != nil {
		e.logger.Warn("enrichment lookup failed", "name", name, "error", err)
		return Lookup{}
	}
	if game == nil {
		e.logger.Debug("no catalog match", "name", name)
		return Lookup{}
	}
	return Lookup{
		Enrichment: domain.Enrichment{
			CoverURL:  domain.ImageURL(game.CoverURL, domain.ImageSizeCoverBig),
			CatalogID: game.ID,
		},
		OK: true,
	}
}

// EnrichReviews returns a copy of reviews with enrichment applied where a lookup matched.
// The result always has the same length and order as the input.
func (e *Enricher) EnrichReviews(ctx context.Context, reviews []domain.ReviewRecord) []domain.ReviewRecord {
	out := slices.Clone(reviews)
	lookups := collect(ctx, out, func(ctx context.Context, r domain.ReviewRecord) Lookup {
		return e.Lookup(ctx, r.Name)
	})
	for i, l := range lookups {
		if l.OK {
			out[i].ApplyEnrichment(l.Enrichment)
		}
	}
	return out
}

// EnrichTrending is EnrichReviews for trending games
func (e *Enricher) EnrichTrending(ctx context.Context, games []domain.TrendingGame) []domain.TrendingGame {
	out := slices.Clone(games)
	lookups := collect(ctx, out, func(ctx context.Context, g domain.TrendingGame) Lookup {
		return e.Lookup(ctx, g.Name)
	})
	for i, l := range lookups {
		if l.OK {
			out[i].ApplyEnrichment(l.Enrichment)
		}
	}
	return out
}

// collect runs fn for every item concurrently and waits for all of them.
// Results are positional. fn cannot fail, so one slow or missing item never
// cancels the others.
func collect[T, R any](ctx context.Context, items []T, fn func(context.Context, T) R) []R {
	results := make([]R, len(items))
	var g errgroup.Group
	for i, item := range items {
		g.Go(func() error {
			results[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
