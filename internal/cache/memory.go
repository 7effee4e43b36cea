// Package cache provides an in-process snapshot store used when Redis is disabled.
package cache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/gamestracker/internal/domain"
)

// MemoryStore keeps snapshots in process memory. Entries expire after the
// retention passed to NewMemoryStore.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates a store that keeps each snapshot for retention
func NewMemoryStore(retention time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: cache.New(retention, retention/2),
	}
}

// SaveSnapshot stores a snapshot under its key
func (s *MemoryStore) SaveSnapshot(_ context.Context, snap domain.Snapshot) error {
	s.cache.Set(snap.Key, snap, cache.DefaultExpiration)
	return nil
}

// LoadSnapshot returns the snapshot stored under key or domain.ErrSnapshotMiss
func (s *MemoryStore) LoadSnapshot(_ context.Context, key string) (*domain.Snapshot, error) {
	x, found := s.cache.Get(key)
	if !found {
		return nil, domain.ErrSnapshotMiss
	}
	snap := x.(domain.Snapshot)
	return &snap, nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
