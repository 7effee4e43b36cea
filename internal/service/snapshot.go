package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gamestracker/internal/domain"
)

// snapshotCache serves lists from a snapshot store.
// A snapshot younger than freshFor is served without calling upstream. After
// an upstream failure a snapshot younger than staleFor is served marked stale.
type snapshotCache struct {
	store    SnapshotStore
	freshFor time.Duration
	staleFor time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func newSnapshotCache(store SnapshotStore, freshFor, staleFor time.Duration, logger *slog.Logger) *snapshotCache {
	return &snapshotCache{
		store:    store,
		freshFor: freshFor,
		staleFor: staleFor,
		now:      time.Now,
		logger:   logger,
	}
}

// cachedFetch returns the list stored under key, calling fetch when no fresh
// snapshot exists or when force is set. Successful fetches replace the snapshot.
func cachedFetch[T any](
	ctx context.Context,
	c *snapshotCache,
	key string,
	force bool,
	fetch func(context.Context) ([]T, error),
) (domain.FeedResult[T], error) {
	now := c.now()

	var snap *domain.Snapshot
	if c.store != nil {
		var err error
		snap, err = c.store.LoadSnapshot(ctx, key)
		if err != nil && !errors.Is(err, domain.ErrSnapshotMiss) {
			c.logger.Warn("loading snapshot failed", "key", key, "error", err)
		}
	}

	if !force && snap != nil && c.freshFor > 0 && snap.Age(now) < c.freshFor {
		items, err := decodeSnapshot[T](snap)
		if err == nil {
			return domain.FeedResult[T]{Items: items, FetchedAt: snap.FetchedAt}, nil
		}
		c.logger.Warn("discarding unreadable snapshot", "key", key, "error", err)
	}

	items, fetchErr := fetch(ctx)
	if fetchErr == nil {
		if items == nil {
			items = []T{}
		}
		c.save(ctx, key, items, now)
		return domain.FeedResult[T]{Items: items, FetchedAt: now}, nil
	}

	if snap != nil && snap.Age(now) <= c.staleFor {
		items, err := decodeSnapshot[T](snap)
		if err == nil {
			c.logger.Warn("upstream failed, serving stale snapshot",
				"key", key,
				"age", snap.Age(now),
				"error", fetchErr,
			)
			return domain.FeedResult[T]{Items: items, FetchedAt: snap.FetchedAt, Stale: true}, nil
		}
	}

	return domain.FeedResult[T]{}, fetchErr
}

func (c *snapshotCache) save(ctx context.Context, key string, items any, now time.Time) {
	if c.store == nil {
		return
	}
	payload, err := json.Marshal(items)
	if err != nil {
		c.logger.Warn("encoding snapshot failed", "key", key, "error", err)
		return
	}
	snap := domain.Snapshot{Key: key, Payload: payload, FetchedAt: now}
	if err := c.store.SaveSnapshot(ctx, snap); err != nil {
		c.logger.Warn("saving snapshot failed", "key", key, "error", err)
	}
}

func decodeSnapshot[T any](snap *domain.Snapshot) ([]T, error) {
	var items []T
	if err := json.Unmarshal(snap.Payload, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
