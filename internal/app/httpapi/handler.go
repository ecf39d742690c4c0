// Package httpapi exposes the kernel's REST surface: health, metrics, and a
// representative validated resource demonstrating the error registry.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openfieldhq/webcore/internal/logging"
	"github.com/openfieldhq/webcore/internal/validation"
)

// Deps carries the handler's collaborators.
type Deps struct {
	Log           *logging.Logger
	Resolver      *validation.MessageResolver
	DefaultLocale string
	Metrics       http.Handler
	// DBHealth reports storage health; nil means no database configured.
	DBHealth func(ctx context.Context) error
}

type handler struct {
	deps Deps
}

// NewHandler returns the router for the core REST API.
func NewHandler(deps Deps) http.Handler {
	h := &handler{deps: deps}

	r := chi.NewRouter()
	r.Get("/healthz", h.health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	r.Post("/signup", h.signup)
	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.deps.DBHealth != nil {
		if err := h.deps.DBHealth(r.Context()); err != nil {
			h.deps.Log.WithContext(r.Context()).WithError(err).Error("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	form := &SignupForm{Name: payload.Name, Email: payload.Email, Password: payload.Password}
	errs := form.Validate(h.deps.Resolver, requestLocale(r, h.deps.DefaultLocale))

	if !errs.IsEmpty() {
		if wantsXML(r) {
			out, err := errs.ToXML()
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write(out)
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"errors":        errs,
			"full_messages": errs.FullMessages(),
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":    uuid.New().String(),
		"email": form.Email,
	})
}

// requestLocale picks the first tag of Accept-Language, falling back to the
// application default.
func requestLocale(r *http.Request, fallback string) string {
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return fallback
	}
	first := strings.TrimSpace(strings.SplitN(header, ",", 2)[0])
	if i := strings.IndexByte(first, ';'); i >= 0 {
		first = first[:i]
	}
	if first == "" || first == "*" {
		return fallback
	}
	return first
}

func wantsXML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/xml") || strings.Contains(accept, "text/xml")
}

func decodeJSON(body io.Reader, dst interface{}) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
