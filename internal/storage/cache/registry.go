package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

// ErrCacheMiss is returned by CacheClient.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// CacheClient defines the subset of Redis behaviour the decorator needs.
type CacheClient interface {
	// Get decodes the value into dest, or returns ErrCacheMiss.
	Get(ctx context.Context, key string, dest any) error
	// Generation returns the invalidation counter of key.
	Generation(ctx context.Context, key string) (int64, error)
	// SetIfGeneration stores value only if key's counter still equals gen.
	SetIfGeneration(ctx context.Context, key string, gen int64, value any, ttl time.Duration) (bool, error)
	// Invalidate removes key and advances its counter atomically.
	Invalidate(ctx context.Context, key string) error
}

// CachedRegistry is a decorator that adds read-aside caching to any Registry.
type CachedRegistry struct {
	realStore dispatch.Registry
	cache     CacheClient
	ttl       time.Duration
	logger    *slog.Logger
}

// NewCachedRegistry creates the decorator.
func NewCachedRegistry(realStore dispatch.Registry, cache CacheClient, ttl time.Duration, logger *slog.Logger) *CachedRegistry {
	return &CachedRegistry{
		realStore: realStore,
		cache:     cache,
		ttl:       ttl,
		logger:    logger.With("component", "CachedRegistry"),
	}
}

// --- READ PATH (Read-Aside) ---

// Lookup serves from cache when possible. The refill is conditional on the
// generation read before the store call: a Register or Delete that
// invalidates in between wins, and the stale read is returned uncached.
func (s *CachedRegistry) Lookup(ctx context.Context, userID string) (*notification.DeviceRegistration, error) {
	key := s.cacheKey(userID)

	var cached notification.DeviceRegistration
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("Cache read failed", "user_id", userID, "err", err)
	}

	gen, genErr := s.cache.Generation(ctx, key)

	fresh, err := s.realStore.Lookup(ctx, userID)
	if err != nil {
		// Misses are not cached; a registration must become visible immediately.
		return nil, err
	}

	if genErr != nil {
		s.logger.Warn("Cache generation read failed, skipping refill", "user_id", userID, "err", genErr)
		return fresh, nil
	}
	written, err := s.cache.SetIfGeneration(ctx, key, gen, fresh, s.ttl)
	switch {
	case err != nil:
		s.logger.Warn("Cache refill failed", "user_id", userID, "err", err)
	case !written:
		s.logger.Debug("Cache refill skipped, entry invalidated during read", "user_id", userID)
	}

	return fresh, nil
}

// --- WRITE PATHS (Invalidate-on-Write) ---

// Register returns the store's result. A failed invalidation is logged; the
// write itself has already been persisted.
func (s *CachedRegistry) Register(ctx context.Context, reg notification.DeviceRegistration) (*notification.DeviceRegistration, error) {
	stored, err := s.realStore.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, reg.UserID)
	return stored, nil
}

// Delete clears the cache even when the store reports the record missing, and
// always returns the store's result.
func (s *CachedRegistry) Delete(ctx context.Context, userID string) error {
	err := s.realStore.Delete(ctx, userID)
	if err != nil && !errors.Is(err, notification.ErrNotFound) {
		return err
	}
	s.invalidate(ctx, userID)
	return err
}

// --- Helpers ---

func (s *CachedRegistry) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, s.cacheKey(userID)); err != nil {
		s.logger.Error("Cache invalidation failed", "user_id", userID, "err", err)
	}
}

func (s *CachedRegistry) cacheKey(userID string) string {
	return fmt.Sprintf("relay:device:%s", userID)
}
