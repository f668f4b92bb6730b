package enrich

import (
	"context"
	"errors"
	"time"

	"placelink/internal/core/resolve"
	rds "placelink/internal/platform/redis"

	redisv8 "github.com/go-redis/redis/v8"
)

// Key layout. Each entity's state is independent, so single-key atomic ops
// suffice; no multi-key transactions anywhere.
func cacheKey(provider, placeID string) string { return "ext:" + provider + ":place:" + placeID }
func lockKey(provider, placeID string) string  { return "ext:" + provider + ":lock:" + placeID }

// Store reads and writes cache entries and entity locks in Redis.
type Store struct {
	redis       *rds.Service
	foundTTL    time.Duration
	notFoundTTL time.Duration
	lockTTL     time.Duration
}

func NewStore(redis *rds.Service, foundTTL, notFoundTTL, lockTTL time.Duration) *Store {
	return &Store{redis: redis, foundTTL: foundTTL, notFoundTTL: notFoundTTL, lockTTL: lockTTL}
}

// GetEntry returns the cached entry, or nil when the key is absent.
func (s *Store) GetEntry(ctx context.Context, provider, placeID string) (*CacheEntry, error) {
	var entry CacheEntry
	if err := s.redis.CacheGet(ctx, cacheKey(provider, placeID), &entry); err != nil {
		if errors.Is(err, redisv8.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// PutEntry overwrites the entry with the status-appropriate TTL: long for
// FOUND (results rarely change), short for NOT_FOUND (the provider may add
// the listing later).
func (s *Store) PutEntry(ctx context.Context, provider, placeID string, entry CacheEntry) error {
	return s.redis.CacheSet(ctx, cacheKey(provider, placeID), entry, s.ttlFor(entry.Status))
}

func (s *Store) ttlFor(status resolve.Status) time.Duration {
	if status == resolve.StatusFound {
		return s.foundTTL
	}
	return s.notFoundTTL
}

// AcquireLock claims the per-entity lock for token. The short TTL is the
// safety net against crashed workers.
func (s *Store) AcquireLock(ctx context.Context, provider, placeID, token string) (bool, error) {
	return s.redis.AcquireLock(ctx, lockKey(provider, placeID), token, s.lockTTL)
}

// ReleaseLock deletes the lock only if token still owns it.
func (s *Store) ReleaseLock(ctx context.Context, provider, placeID, token string) (bool, error) {
	return s.redis.ReleaseLock(ctx, lockKey(provider, placeID), token)
}
