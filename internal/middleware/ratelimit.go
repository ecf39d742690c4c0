package middleware

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/openfieldhq/webcore/internal/errors"
	"github.com/openfieldhq/webcore/internal/logging"
)

// LimiterStore decides whether a caller identified by key may proceed.
// Implementations exist for a single process (LocalLimiterStore) and for a
// fleet sharing Redis (RedisLimiterStore).
type LimiterStore interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LocalLimiterStore keeps one token bucket per caller in process memory.
type LocalLimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewLocalLimiterStore creates a store allowing requestsPerSecond sustained
// with the given burst.
func NewLocalLimiterStore(requestsPerSecond, burst int) *LocalLimiterStore {
	return &LocalLimiterStore{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Allow consumes one token from the caller's bucket.
func (s *LocalLimiterStore) Allow(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	limiter, ok := s.limiters[key]
	if !ok {
		// Bound the map; a reset drops history, never correctness.
		if len(s.limiters) > 10000 {
			s.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(s.rate, s.burst)
		s.limiters[key] = limiter
	}
	s.mu.Unlock()

	return limiter.Allow(), nil
}

// RateLimitConfig configures the rate limiting stage.
type RateLimitConfig struct {
	RequestsPerSecond int
	// FailOpen serves the request when the store errors (e.g. Redis down)
	// instead of rejecting it.
	FailOpen bool
}

// RateLimit rejects callers over quota. The limiter key is the
// authenticated user ID when present, otherwise the remote address.
func RateLimit(cfg RateLimitConfig, store LimiterStore, logger *logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetUserID(r.Context())
			if key == "" {
				key = r.RemoteAddr
			}

			allowed, err := store.Allow(r.Context(), key)
			if err != nil {
				logger.WithContext(r.Context()).WithError(err).Error("rate limiter store failure")
				allowed = cfg.FailOpen
			}

			if !allowed {
				logger.LogSecurityEvent(r.Context(), "rate_limit_exceeded", map[string]interface{}{
					"key":    key,
					"path":   r.URL.Path,
					"method": r.Method,
				})
				writeServiceError(w, errors.RateLimitExceeded(cfg.RequestsPerSecond, "1s"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
