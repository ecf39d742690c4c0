package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openfieldhq/webcore/internal/config"
	"github.com/openfieldhq/webcore/internal/middleware"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Middleware.RateLimit.Enabled = false
	return cfg
}

func TestApplicationServesSignup(t *testing.T) {
	application, err := New(testConfig())
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer application.Shutdown(context.Background())

	handler := application.Handler()

	body := strings.NewReader(`{"name":"","email":"bad","password":"short"}`)
	req := httptest.NewRequest(http.MethodPost, "/signup", body)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("X-Trace-ID") == "" {
		t.Fatal("expected trace ID from the tracing stage")
	}

	var out struct {
		FullMessages []string `json:"full_messages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.FullMessages) != 3 {
		t.Fatalf("expected 3 messages, got %v", out.FullMessages)
	}
}

func TestStackConditionsFollowConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Middleware.CORS.Enabled = false
	cfg.Middleware.Metrics.Enabled = false

	application, err := New(cfg)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}

	active := application.Stack().ActiveNames()
	for _, name := range active {
		if name == "cors" || name == "metrics" {
			t.Fatalf("disabled stage %q is active: %v", name, active)
		}
	}

	// Conditions are read at build time: enabling after New still takes
	// effect.
	cfg.Middleware.CORS.Enabled = true
	found := false
	for _, name := range application.Stack().ActiveNames() {
		if name == "cors" {
			found = true
		}
	}
	if !found {
		t.Fatal("late-enabled cors stage missing from realized pipeline")
	}
}

func TestMiddlewareMutationsFrozenAfterStart(t *testing.T) {
	application, err := New(testConfig())
	if err != nil {
		t.Fatalf("new application: %v", err)
	}

	noop := func(next http.Handler) http.Handler { return next }
	if err := application.Use("custom", middleware.Middleware(noop)); err != nil {
		t.Fatalf("use before start: %v", err)
	}

	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer application.Shutdown(context.Background())

	if err := application.Use("late", middleware.Middleware(noop)); err == nil {
		t.Fatal("expected mutation after freeze to fail")
	}
	if err := application.InsertBefore("tracing", "late", middleware.Middleware(noop)); err == nil {
		t.Fatal("expected insert after freeze to fail")
	}
}

func TestHealthEndpointThroughPipeline(t *testing.T) {
	application, err := New(testConfig())
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer application.Shutdown(context.Background())

	resp := httptest.NewRecorder()
	application.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
