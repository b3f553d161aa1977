package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/internal/repository"
)

const (
	calendarKeyPrefix    = "calendar:"
	calendarCachePattern = calendarKeyPrefix + "*"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

// CacheService is the read-through cache in front of calendar projections.
// Errors are logged and returned but callers treat them as misses.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service. A nil repo or enabled=false turns every call into a no-op.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// calendarKey names the cached projection of one user's calendar; scope is "parent" or "coach".
func calendarKey(scope, userID string) string {
	return calendarKeyPrefix + scope + ":" + userID
}

// Get reports whether dest was filled from cache. A miss is not an error.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrCacheMiss):
		return false, nil
	default:
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
}

// Set stores value under key; ttl <= 0 uses the default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// InvalidateCalendars drops every cached calendar and reports how many entries went.
// Any schedule write can change the calendar of every parent enrolled in the program, so the whole namespace goes.
func (s *CacheService) InvalidateCalendars(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	removed, err := s.repo.DeleteByPattern(ctx, calendarCachePattern)
	if err != nil {
		s.logger.Warn("calendar cache invalidation failed", zap.Error(err))
		return 0, err
	}
	s.logger.Debug("calendar cache invalidated", zap.Int("entries", removed))
	return removed, nil
}

// InvalidateParentCalendar drops the cached calendar of one parent, e.g. after a new enrollment.
func (s *CacheService) InvalidateParentCalendar(ctx context.Context, parentID string) error {
	if !s.Enabled() {
		return nil
	}
	if _, err := s.repo.DeleteByPattern(ctx, calendarKey("parent", parentID)); err != nil {
		s.logger.Warn("parent calendar invalidation failed", zap.String("parent_id", parentID), zap.Error(err))
		return err
	}
	return nil
}
