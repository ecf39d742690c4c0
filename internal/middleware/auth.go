package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/openfieldhq/webcore/internal/errors"
	"github.com/openfieldhq/webcore/internal/logging"
)

// Claims are the JWT claims the auth stage recognizes.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthConfig configures the JWT auth stage.
type AuthConfig struct {
	// Secret is the HMAC signing secret tokens are verified against.
	Secret []byte
	// SkipPaths are served without authentication (health checks, metrics).
	SkipPaths []string
}

// Auth validates a Bearer JWT on every request and places the caller's
// identity in the request context.
func Auth(cfg AuthConfig, logger *logging.Logger) Middleware {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeServiceError(w, errors.Unauthorized("Missing Authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeServiceError(w, errors.Unauthorized("Invalid Authorization header format"))
				return
			}

			claims, err := validateToken(parts[1], cfg.Secret)
			if err != nil {
				logger.WithContext(r.Context()).WithError(err).Warn("token validation failed")
				writeServiceError(w, errors.InvalidToken(err))
				return
			}

			ctx := context.WithValue(r.Context(), logging.UserIDKey, claims.UserID)
			if claims.Role != "" {
				ctx = context.WithValue(ctx, logging.RoleKey, claims.Role)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validateToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.InvalidToken(nil).WithDetails("method", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.InvalidToken(nil)
	}
	return claims, nil
}

// GetUserID extracts the authenticated user ID from ctx, or "".
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(logging.UserIDKey).(string); ok {
		return userID
	}
	return ""
}
