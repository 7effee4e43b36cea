package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gamestracker/internal/aggregator"
	"github.com/gamestracker/internal/config"
	"github.com/gamestracker/internal/domain"
)

// ReleaseService builds the upcoming and recent release lists and the game detail page
type ReleaseService struct {
	catalog Catalog
	notes   NoteStore
	cache   *snapshotCache
	cfg     config.ReleasesConfig
	now     func() time.Time
	logger  *slog.Logger
}

// NewReleaseService creates a new release service. notes may be nil when the
// notes store is disabled.
func NewReleaseService(
	catalog Catalog,
	notes NoteStore,
	store SnapshotStore,
	cfg *config.ReleasesConfig,
	staleFor time.Duration,
	logger *slog.Logger,
) *ReleaseService {
	logger = logger.With("component", "release_service")
	return &ReleaseService{
		catalog: catalog,
		notes:   notes,
		cache:   newSnapshotCache(store, cfg.CacheTTL, staleFor, logger),
		cfg:     *cfg,
		now:     time.Now,
		logger:  logger,
	}
}

// Upcoming returns the soonest upcoming games matching filter. A filter without
// a platform uses the configured default platform.
func (s *ReleaseService) Upcoming(ctx context.Context, filter domain.ReleaseFilter) (domain.FeedResult[domain.GameView], error) {
	filter = s.withDefaults(filter)

	res, err := cachedFetch(ctx, s.cache, filter.CacheKey("upcoming"), false, func(ctx context.Context) ([]domain.GameView, error) {
		records, err := s.catalog.UpcomingReleases(ctx, filter, s.cfg.UpcomingWindowDays)
		if err != nil {
			return nil, fmt.Errorf("fetching upcoming releases: %w", err)
		}
		return aggregator.Upcoming(records, s.window(s.cfg.UpcomingWindowDays, filter), s.cfg.MaxResults), nil
	})
	if err != nil {
		return res, err
	}

	// a snapshot may predate releases that have since shipped
	res.Items = aggregator.StillUpcoming(res.Items, s.window(s.cfg.UpcomingWindowDays, filter))
	return res, nil
}

// Recent returns the most recently released games matching filter
func (s *ReleaseService) Recent(ctx context.Context, filter domain.ReleaseFilter) (domain.FeedResult[domain.GameView], error) {
	filter = s.withDefaults(filter)

	res, err := cachedFetch(ctx, s.cache, filter.CacheKey("recent"), false, func(ctx context.Context) ([]domain.GameView, error) {
		games, err := s.catalog.RecentReleases(ctx, filter, s.cfg.RecentWindowDays)
		if err != nil {
			return nil, fmt.Errorf("fetching recent releases: %w", err)
		}
		return aggregator.Recent(aggregator.FlattenGames(games), s.window(s.cfg.RecentWindowDays, filter), s.cfg.MaxResults), nil
	})
	if err != nil {
		return res, err
	}

	res.Items = aggregator.StillRecent(res.Items, s.window(s.cfg.RecentWindowDays, filter))
	return res, nil
}

func (s *ReleaseService) withDefaults(filter domain.ReleaseFilter) domain.ReleaseFilter {
	if filter.PlatformID <= 0 {
		filter.PlatformID = s.cfg.DefaultPlatform
	}
	return filter
}

func (s *ReleaseService) window(days int, filter domain.ReleaseFilter) aggregator.Window {
	return aggregator.Window{Now: s.now(), Days: days, PlatformID: filter.PlatformID}
}

// Genres returns the catalog genres
func (s *ReleaseService) Genres(ctx context.Context) (domain.FeedResult[domain.Genre], error) {
	return cachedFetch(ctx, s.cache, "genres", false, s.catalog.Genres)
}

// Studios returns the catalog studios
func (s *ReleaseService) Studios(ctx context.Context) (domain.FeedResult[domain.Studio], error) {
	return cachedFetch(ctx, s.cache, "studios", false, s.catalog.Studios)
}

// GameDetail fetches a game and its note in parallel.
// A failing notes store never fails the page; the note is left empty.
func (s *ReleaseService) GameDetail(ctx context.Context, id int64) (*domain.GameDetail, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidRequest
	}

	var (
		game *domain.RawGame
		note *domain.Note
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		game, err = s.catalog.GameByID(gctx, id)
		if err != nil {
			return fmt.Errorf("fetching game %d: %w", id, err)
		}
		return nil
	})
	if s.notes != nil {
		g.Go(func() error {
			n, err := s.notes.GetNote(gctx, id)
			switch {
			case err == nil:
				note = n
			case errors.Is(err, domain.ErrNoteNotFound):
			default:
				s.logger.Warn("loading note failed", "game_id", id, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if game == nil {
		return nil, domain.ErrGameNotFound
	}

	detail := buildGameDetail(*game)
	detail.Note = note
	return &detail, nil
}

func buildGameDetail(game domain.RawGame) domain.GameDetail {
	detail := domain.GameDetail{
		ID:                    game.ID,
		Name:                  game.Name,
		Summary:               game.Summary,
		CoverURL:              domain.ImageURL(game.CoverURL, domain.ImageSizeCoverBig),
		Screenshots:           []string{},
		Platforms:             []string{},
		Websites:              game.Websites,
		ExternalGames:         game.ExternalGames,
		AggregatedRating:      game.AggregatedRating,
		AggregatedRatingCount: game.AggregatedRatingCount,
	}

	for _, s := range game.Screenshots {
		detail.Screenshots = append(detail.Screenshots, domain.ImageURL(s, domain.ImageSizeScreenshotBig))
	}

	seen := make(map[string]bool)
	for _, rd := range game.ReleaseDates {
		if rd.Platform.Name != "" && !seen[rd.Platform.Name] {
			seen[rd.Platform.Name] = true
			detail.Platforms = append(detail.Platforms, rd.Platform.Name)
		}
	}
	if len(detail.Platforms) == 0 {
		for _, p := range game.Platforms {
			detail.Platforms = append(detail.Platforms, p.Name)
		}
	}

	// Earliest dated release wins; its catalog label is preferred over our own formatting
	var label string
	for _, rd := range game.ReleaseDates {
		if rd.Date > 0 && (detail.ReleaseDate == 0 || rd.Date < detail.ReleaseDate) {
			detail.ReleaseDate = rd.Date
			label = rd.Human
		}
	}
	if detail.ReleaseDate == 0 {
		detail.ReleaseDate = game.FirstReleaseDate
	}

	switch {
	case label != "":
		detail.ReleaseLabel = label
	case detail.ReleaseDate > 0:
		detail.ReleaseLabel = domain.FormatReleaseDate(detail.ReleaseDate)
	default:
		detail.ReleaseLabel = "TBA"
	}

	return detail
}
