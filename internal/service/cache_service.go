package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/pkg/cache"
)

// CacheService stores JSON payloads in a cache.Store under the key policy of pkg/cache.
type CacheService struct {
	store   cache.Store
	metrics *MetricsService
	logger  *zap.Logger
}

// NewCacheService constructs a cache service. A nil store disables caching.
func NewCacheService(store cache.Store, metrics *MetricsService, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{store: store, metrics: metrics, logger: logger}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.store != nil
}

// Get decodes the entry stored under key into dest and reports whether it was a hit.
// Store failures and undecodable entries count as misses.
func (s *CacheService) Get(ctx context.Context, resource, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		ok = false
	}
	if ok {
		if err := json.Unmarshal(raw, dest); err != nil {
			s.logger.Warn("cache entry undecodable", zap.String("key", key), zap.Error(err))
			ok = false
		}
	}
	s.metrics.RecordCacheOperation(resource, ok, time.Since(start))
	return ok
}

// Set stores value under key with the fixed TTL of resource.
func (s *CacheService) Set(ctx context.Context, resource, key string, value interface{}) {
	if !s.Enabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	start := time.Now()
	if err := s.store.Set(ctx, key, raw, cache.TTLFor(resource)); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	s.metrics.ObserveCacheWrite(time.Since(start))
}

// Invalidate removes keys or glob patterns and returns how many entries went away.
func (s *CacheService) Invalidate(ctx context.Context, targets ...string) int {
	if !s.Enabled() {
		return 0
	}
	removed := 0
	for _, target := range targets {
		if strings.Contains(target, "*") {
			n, err := s.store.DeleteMatching(ctx, target)
			if err != nil {
				s.logger.Warn("cache invalidate failed", zap.String("pattern", target), zap.Error(err))
				continue
			}
			removed += n
			continue
		}
		existed, err := s.store.Delete(ctx, target)
		if err != nil {
			s.logger.Warn("cache delete failed", zap.String("key", target), zap.Error(err))
			continue
		}
		if existed {
			removed++
		}
	}
	return removed
}

// InvalidateEnrollment drops everything an enrollment commit can change: schedule occupancy,
// rosters and the student's own views.
func (s *CacheService) InvalidateEnrollment(ctx context.Context, nationalID string) int {
	targets := []string{cache.Pattern(cache.ResourceSchedules), cache.Pattern(cache.ResourceRosters)}
	targets = append(targets, cache.StudentKeys(nationalID)...)
	return s.Invalidate(ctx, targets...)
}

// InvalidateStudent drops the student's views and the rosters listing them.
func (s *CacheService) InvalidateStudent(ctx context.Context, nationalID string) int {
	targets := append(cache.StudentKeys(nationalID), cache.Pattern(cache.ResourceRosters))
	return s.Invalidate(ctx, targets...)
}

// Clear drops every entry.
func (s *CacheService) Clear(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error("cache clear failed", zap.Error(err))
		return err
	}
	s.logger.Info("cache cleared")
	return nil
}

// Stats reports store usage.
func (s *CacheService) Stats(ctx context.Context) (cache.Stats, error) {
	if !s.Enabled() {
		return cache.Stats{ActiveKeys: []string{}}, nil
	}
	return s.store.Stats(ctx)
}
