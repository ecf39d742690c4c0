package middleware

import (
	"net/http"

	"github.com/openfieldhq/webcore/internal/errors"
	"github.com/openfieldhq/webcore/internal/logging"
)

// Recovery converts handler panics into 500 responses so one bad request
// cannot take the server down.
func Recovery(logger *logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.WithContext(r.Context()).WithFields(map[string]interface{}{
						"panic": rec,
						"path":  r.URL.Path,
					}).Error("handler panic")
					writeServiceError(w, errors.Internal(nil))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
