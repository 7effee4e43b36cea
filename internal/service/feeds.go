package service

import (
	"context"
	"log/slog"

	"github.com/gamestracker/internal/aggregator"
	"github.com/gamestracker/internal/config"
	"github.com/gamestracker/internal/domain"
)

// FeedService serves the review feeds with catalog enrichment and a
// last-known-good fallback
type FeedService struct {
	reviews  ReviewSource
	enricher ReviewEnricher
	cache    *snapshotCache
	logger   *slog.Logger
}

// NewFeedService creates a new feed service
func NewFeedService(
	reviews ReviewSource,
	enricher ReviewEnricher,
	store SnapshotStore,
	cfg *config.FeedsConfig,
	logger *slog.Logger,
) *FeedService {
	logger = logger.With("component", "feed_service")
	return &FeedService{
		reviews:  reviews,
		enricher: enricher,
		cache:    newSnapshotCache(store, cfg.FreshFor, cfg.StaleFor, logger),
		logger:   logger,
	}
}

// ReviewedThisWeek returns the enriched weekly review list truncated to limit.
// limit <= 0 returns the whole list.
func (s *FeedService) ReviewedThisWeek(ctx context.Context, limit int) (domain.FeedResult[domain.ReviewRecord], error) {
	res, err := cachedFetch(ctx, s.cache, domain.FeedReviewedThisWeek, false, s.fetchReviewed)
	if err != nil {
		return res, err
	}
	res.Items = aggregator.Limit(res.Items, limit)
	return res, nil
}

// RecentlyReleased returns the enriched recently released list truncated to limit
func (s *FeedService) RecentlyReleased(ctx context.Context, limit int) (domain.FeedResult[domain.TrendingGame], error) {
	res, err := cachedFetch(ctx, s.cache, domain.FeedRecentlyReleased, false, s.fetchTrending)
	if err != nil {
		return res, err
	}
	res.Items = aggregator.Limit(res.Items, limit)
	return res, nil
}

// RefreshReviewedThisWeek fetches the weekly review list regardless of snapshot age
func (s *FeedService) RefreshReviewedThisWeek(ctx context.Context) (domain.FeedResult[domain.ReviewRecord], error) {
	return cachedFetch(ctx, s.cache, domain.FeedReviewedThisWeek, true, s.fetchReviewed)
}

// RefreshRecentlyReleased fetches the recently released list regardless of snapshot age
func (s *FeedService) RefreshRecentlyReleased(ctx context.Context) (domain.FeedResult[domain.TrendingGame], error) {
	return cachedFetch(ctx, s.cache, domain.FeedRecentlyReleased, true, s.fetchTrending)
}

func (s *FeedService) fetchReviewed(ctx context.Context) ([]domain.ReviewRecord, error) {
	reviews, err := s.reviews.ReviewedThisWeek(ctx)
	if err != nil {
		return nil, err
	}
	return s.enricher.EnrichReviews(ctx, reviews), nil
}

func (s *FeedService) fetchTrending(ctx context.Context) ([]domain.TrendingGame, error) {
	games, err := s.reviews.RecentlyReleased(ctx)
	if err != nil {
		return nil, err
	}
	return s.enricher.EnrichTrending(ctx, games), nil
}
