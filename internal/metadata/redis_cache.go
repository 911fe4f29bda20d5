package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dynaqr/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedStore is a read-through redis cache in front of a Store. The resolve
// path reads metadata on every scan; the cache keeps that off Postgres.
// Cache failures degrade to the inner store, never to an error.
type CachedStore struct {
	inner Store
	rdb   *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedStore(inner Store, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedStore{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

func cacheKey(eventID string) string {
	return fmt.Sprintf("md:%s", eventID)
}

func (s *CachedStore) Get(ctx context.Context, eventID string) (*models.EventMetadata, error) {
	raw, err := s.rdb.Get(ctx, cacheKey(eventID)).Bytes()
	if err == nil {
		var md models.EventMetadata
		if err := json.Unmarshal(raw, &md); err == nil {
			return &md, nil
		}
		// Corrupt cache entry: fall through to the inner store.
		s.rdb.Del(ctx, cacheKey(eventID))
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn("metadata cache read failed", zap.String("event_id", eventID), zap.Error(err))
	}

	md, err := s.inner.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, eventID, md)
	return md, nil
}

func (s *CachedStore) Put(ctx context.Context, eventID string, md *models.EventMetadata) error {
	if err := s.inner.Put(ctx, eventID, md); err != nil {
		return err
	}
	s.fill(ctx, eventID, md)
	return nil
}

func (s *CachedStore) Merge(ctx context.Context, eventID string, patch models.MetadataPatch) error {
	if err := s.inner.Merge(ctx, eventID, patch); err != nil {
		return err
	}
	// Invalidate rather than recompute; next Get refills.
	if err := s.rdb.Del(ctx, cacheKey(eventID)).Err(); err != nil {
		s.log.Warn("metadata cache invalidation failed", zap.String("event_id", eventID), zap.Error(err))
	}
	return nil
}

func (s *CachedStore) fill(ctx context.Context, eventID string, md *models.EventMetadata) {
	raw, err := json.Marshal(md)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, cacheKey(eventID), raw, s.ttl).Err(); err != nil {
		s.log.Warn("metadata cache write failed", zap.String("event_id", eventID), zap.Error(err))
	}
}
