package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gamestracker/internal/domain"
)

// FeedRefresher refetches the review feeds, bypassing fresh snapshots
type FeedRefresher interface {
	RefreshReviewedThisWeek(ctx context.Context) (domain.FeedResult[domain.ReviewRecord], error)
	RefreshRecentlyReleased(ctx context.Context) (domain.FeedResult[domain.TrendingGame], error)
}

// Broadcaster pushes refreshed feeds to connected clients
type Broadcaster interface {
	BroadcastFeedUpdate(feed string, items interface{}, fetchedAt time.Time, stale bool)
}

// FeedWarmer periodically refreshes the feed snapshots so requests rarely
// wait on the upstream, and announces every refresh over the hub
type FeedWarmer struct {
	feeds       FeedRefresher
	broadcaster Broadcaster
	interval    time.Duration
	logger      *slog.Logger
	stopCh      chan struct{}
	doneCh      chan struct{}
	mu          sync.Mutex
	running     bool
}

// NewFeedWarmer creates a new feed warmer
func NewFeedWarmer(
	feeds FeedRefresher,
	broadcaster Broadcaster,
	interval time.Duration,
	logger *slog.Logger,
) *FeedWarmer {
	return &FeedWarmer{
		feeds:       feeds,
		broadcaster: broadcaster,
		interval:    interval,
		logger:      logger.With("component", "feed_warmer"),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start warms the feeds once and then on every interval
func (w *FeedWarmer) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("feed warmer started", "interval", w.interval)

	go w.run(ctx)
	return nil
}

// Stop stops the warmer and waits for an in-flight refresh to finish
func (w *FeedWarmer) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("feed warmer stopped")
	return nil
}

func (w *FeedWarmer) run(ctx context.Context) {
	defer close(w.doneCh)

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce refreshes both feeds. A failed feed keeps its last snapshot.
func (w *FeedWarmer) RunOnce(ctx context.Context) {
	start := time.Now()
	refreshed := 0

	if res, err := w.feeds.RefreshReviewedThisWeek(ctx); err != nil {
		w.logger.Warn("failed to refresh feed", "feed", domain.FeedReviewedThisWeek, "error", err)
	} else {
		w.broadcaster.BroadcastFeedUpdate(domain.FeedReviewedThisWeek, res.Items, res.FetchedAt, res.Stale)
		refreshed++
	}

	if res, err := w.feeds.RefreshRecentlyReleased(ctx); err != nil {
		w.logger.Warn("failed to refresh feed", "feed", domain.FeedRecentlyReleased, "error", err)
	} else {
		w.broadcaster.BroadcastFeedUpdate(domain.FeedRecentlyReleased, res.Items, res.FetchedAt, res.Stale)
		refreshed++
	}

	w.logger.Info("feed refresh completed",
		"duration", time.Since(start),
		"refreshed", refreshed,
	)
}

// IsRunning returns whether the warmer is currently running
func (w *FeedWarmer) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
