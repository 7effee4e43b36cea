package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gamestracker/internal/config"
	"github.com/gamestracker/internal/domain"
)

// SnapshotStore keeps last-known-good feed snapshots in Redis so every
// instance behind the load balancer can serve them.
type SnapshotStore struct {
	client    *redis.Client
	keyPrefix string
	retention time.Duration
	logger    *slog.Logger
}

// NewSnapshotStore connects to Redis and creates a snapshot store.
// Snapshots expire after retention.
func NewSnapshotStore(cfg *config.RedisConfig, retention time.Duration, logger *slog.Logger) (*SnapshotStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewSnapshotStoreWithClient(client, cfg.KeyPrefix, retention, logger), nil
}

// NewSnapshotStoreWithClient wraps an existing client
func NewSnapshotStoreWithClient(client *redis.Client, keyPrefix string, retention time.Duration, logger *slog.Logger) *SnapshotStore {
	return &SnapshotStore{
		client:    client,
		keyPrefix: keyPrefix,
		retention: retention,
		logger:    logger.With("component", "redis_snapshots"),
	}
}

// Close closes the Redis connection
func (s *SnapshotStore) Close() error {
	return s.client.Close()
}

// Ping checks the connection
func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// snapshotKey returns the Redis key holding a snapshot hash
func (s *SnapshotStore) snapshotKey(key string) string {
	return fmt.Sprintf("%s:snapshot:%s", s.keyPrefix, key)
}

// SaveSnapshot stores the payload and fetch time of a snapshot and refreshes its expiry
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	key := s.snapshotKey(snap.Key)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"payload", string(snap.Payload),
		"fetched_at", snap.FetchedAt.UnixMilli(),
	)
	if s.retention > 0 {
		pipe.Expire(ctx, key, s.retention)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the snapshot stored under key or domain.ErrSnapshotMiss
func (s *SnapshotStore) LoadSnapshot(ctx context.Context, key string) (*domain.Snapshot, error) {
	result, err := s.client.HGetAll(ctx, s.snapshotKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSnapshotMiss
		}
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	payload, ok := result["payload"]
	if !ok {
		return nil, domain.ErrSnapshotMiss
	}

	var fetchedAt time.Time
	if ms, err := strconv.ParseInt(result["fetched_at"], 10, 64); err == nil {
		fetchedAt = time.UnixMilli(ms)
	} else {
		s.logger.Warn("snapshot has no fetch time", "key", key, "error", err)
	}

	return &domain.Snapshot{
		Key:       key,
		Payload:   []byte(payload),
		FetchedAt: fetchedAt,
	}, nil
}

// DeleteSnapshot removes a snapshot
func (s *SnapshotStore) DeleteSnapshot(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.snapshotKey(key)).Err(); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}
