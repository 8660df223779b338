package services

import (
	"context"
	"time"

	"busledger/pkg/cache"
	"busledger/pkg/logger"
)

// CacheService is the key/value cache used for reference data. Booking
// state, payments and seat occupancy are never cached.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type cacheService struct {
	redis      *cache.RedisCache
	logger     *logger.Logger
	defaultTTL time.Duration
	keyPrefix  string
}

func NewCacheService(redis *cache.RedisCache, log *logger.Logger, keyPrefix string, defaultTTL time.Duration) CacheService {
	return &cacheService{
		redis:      redis,
		logger:     log,
		defaultTTL: defaultTTL,
		keyPrefix:  keyPrefix,
	}
}

func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	return s.redis.Get(ctx, s.keyPrefix+key, dest)
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = s.defaultTTL
	}
	if err := s.redis.Set(ctx, s.keyPrefix+key, value, expiration); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Failed to write cache entry")
		return err
	}
	return nil
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.keyPrefix + k
	}
	return s.redis.Delete(ctx, prefixed...)
}
