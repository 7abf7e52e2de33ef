package processing

import (
	"context"
	"strconv"
	"time"

	"github.com/angelmondragon/clipdeck-backend/pkg/logger"
)

const cacheName = "processing_count"

// Counter is the upstream poll surface; the Vizard client satisfies it.
type Counter interface {
	InFlightCount(ctx context.Context) (int, error)
}

// Cache is the short-lived cache surface; the Redis client satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(name string) string
}

// CountResult reports the in-flight clipping job count. Known is false when
// the upstream could not be asked in time; the dashboard renders that as
// "unknown" rather than zero.
type CountResult struct {
	Count int  `json:"count"`
	Known bool `json:"known"`
}

// Service answers processing-count queries without ever failing the caller:
// the count is informational, so upstream trouble degrades to unknown.
type Service struct {
	counter Counter
	cache   Cache
	logg    *logger.Logger
	timeout time.Duration
	ttl     time.Duration
}

// NewService wires the processing-count service. cache may be nil, in which
// case every query hits the upstream.
func NewService(counter Counter, cache Cache, logg *logger.Logger, timeout, ttl time.Duration) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{counter: counter, cache: cache, logg: logg, timeout: timeout, ttl: ttl}
}

// Count returns the cached count when fresh, otherwise polls the upstream
// under a short deadline. A slow or failing upstream yields Known=false.
func (s *Service) Count(ctx context.Context) CountResult {
	if cached, ok := s.fromCache(ctx); ok {
		return CountResult{Count: cached, Known: true}
	}

	pollCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	count, err := s.counter.InFlightCount(pollCtx)
	if err != nil {
		s.logg.Warn(ctx, "processing count unavailable: "+err.Error())
		return CountResult{Known: false}
	}

	s.toCache(ctx, count)
	return CountResult{Count: count, Known: true}
}

func (s *Service) fromCache(ctx context.Context) (int, bool) {
	if s.cache == nil {
		return 0, false
	}
	raw, err := s.cache.Get(ctx, s.cache.CacheKey(cacheName))
	if err != nil {
		return 0, false
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return count, true
}

func (s *Service) toCache(ctx context.Context, count int) {
	if s.cache == nil {
		return
	}
	key := s.cache.CacheKey(cacheName)
	if err := s.cache.Set(ctx, key, strconv.Itoa(count), s.ttl); err != nil {
		s.logg.Warn(ctx, "processing count cache write failed")
	}
}
