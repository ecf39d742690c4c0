package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfieldhq/webcore/internal/logging"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func testLogger() *logging.Logger {
	return logging.New("test", logging.Config{Output: io.Discard})
}

func authHandler(t *testing.T, cfg AuthConfig) http.Handler {
	t.Helper()
	return Auth(cfg, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-User", GetUserID(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthAcceptsValidToken(t *testing.T) {
	h := authHandler(t, AuthConfig{Secret: testSecret})

	token := signToken(t, &Claims{
		UserID: "user-1",
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "user-1", resp.Header().Get("X-User"))
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	h := authHandler(t, AuthConfig{Secret: testSecret})

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "UNAUTHORIZED")
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	h := authHandler(t, AuthConfig{Secret: testSecret})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	h := authHandler(t, AuthConfig{Secret: testSecret})

	token := signToken(t, &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "INVALID_TOKEN")
}

func TestAuthSkipPaths(t *testing.T) {
	h := authHandler(t, AuthConfig{Secret: testSecret, SkipPaths: []string{"/healthz"}})

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
}
