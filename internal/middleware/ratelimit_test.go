package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openfieldhq/webcore/internal/logging"
)

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, logging.UserIDKey, userID)
}

type stubStore struct {
	allowed bool
	err     error
	keys    []string
}

func (s *stubStore) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allowed, s.err
}

func rateLimited(cfg RateLimitConfig, store LimiterStore) http.Handler {
	return RateLimit(cfg, store, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimitAllows(t *testing.T) {
	store := &stubStore{allowed: true}
	h := rateLimited(RateLimitConfig{RequestsPerSecond: 10}, store)

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRateLimitRejects(t *testing.T) {
	store := &stubStore{allowed: false}
	h := rateLimited(RateLimitConfig{RequestsPerSecond: 10}, store)

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Contains(t, resp.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestRateLimitFailOpen(t *testing.T) {
	store := &stubStore{err: errors.New("redis down")}

	h := rateLimited(RateLimitConfig{RequestsPerSecond: 10, FailOpen: true}, store)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, resp.Code, "store failure with FailOpen serves the request")

	h = rateLimited(RateLimitConfig{RequestsPerSecond: 10}, store)
	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, resp.Code, "store failure without FailOpen rejects")
}

func TestRateLimitKeyPrefersUserID(t *testing.T) {
	store := &stubStore{allowed: true}
	h := rateLimited(RateLimitConfig{RequestsPerSecond: 10}, store)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(withUserID(req.Context(), "user-42"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "user-42", store.keys[0])
	assert.Equal(t, req.RemoteAddr, store.keys[1], "anonymous callers keyed by remote address")
}

func TestLocalLimiterStoreBurst(t *testing.T) {
	store := NewLocalLimiterStore(1, 2)

	ok1, _ := store.Allow(context.Background(), "k")
	ok2, _ := store.Allow(context.Background(), "k")
	ok3, _ := store.Allow(context.Background(), "k")

	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.False(t, ok3, "burst of 2 exhausted")

	ok, _ := store.Allow(context.Background(), "other")
	assert.True(t, ok, "keys are limited independently")
}
