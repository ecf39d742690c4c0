package middleware

import (
	"net/http"
	"strings"
)

// CORSConfig lists the origins allowed to call the API. A single "*" entry
// allows every origin.
type CORSConfig struct {
	AllowedOrigins []string
}

// CORS handles cross-origin resource sharing, including preflight requests.
func CORS(cfg CORSConfig) Middleware {
	allowAll := false
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			allowAll = true
			break
		}
	}

	isAllowed := func(origin string) bool {
		for _, allowed := range cfg.AllowedOrigins {
			if allowed == origin || strings.HasSuffix(origin, allowed) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && (allowAll || isAllowed(origin)) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Trace-ID")
				w.Header().Set("Access-Control-Expose-Headers", "X-Trace-ID")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
