package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tagging returns a stage that records its name on the way in and out.
func tagging(name string, trace *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*trace = append(*trace, name+" in")
			next.ServeHTTP(w, r)
			*trace = append(*trace, name+" out")
		})
	}
}

func serve(h http.Handler) {
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestBuildComposesDeclaredOrder(t *testing.T) {
	var trace []string
	s := NewStack()
	s.Use("outer", tagging("outer", &trace))
	s.Use("inner", tagging("inner", &trace))

	h := s.Build(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace = append(trace, "handler")
	}))
	serve(h)

	assert.Equal(t, []string{"outer in", "inner in", "handler", "inner out", "outer out"}, trace,
		"first declared stage must be outermost")
}

func TestConditionGatesStage(t *testing.T) {
	var trace []string
	enabled := false

	s := NewStack()
	s.Use("first", tagging("first", &trace))
	s.UseIf("gated", func() bool { return enabled }, tagging("gated", &trace))
	s.Use("last", tagging("last", &trace))

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace = append(trace, "handler")
	})

	serve(s.Build(inner))
	assert.Equal(t, []string{"first in", "last in", "handler", "last out", "first out"}, trace,
		"false condition omits the stage without disturbing order")

	trace = nil
	enabled = true
	serve(s.Build(inner))
	assert.Equal(t, []string{"first in", "gated in", "last in", "handler", "last out", "gated out", "first out"},
		trace, "true condition keeps the declared position")
}

func TestProviderResolvedAtBuildTime(t *testing.T) {
	var trace []string
	label := "early"

	s := NewStack()
	s.UseProvided("provided", nil, func() Middleware {
		// Captures the value current at Build, not at declaration.
		return tagging(label, &trace)
	})

	label = "late"
	serve(s.Build(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	assert.Equal(t, []string{"late in", "late out"}, trace)
}

func TestInsertBeforeAfterRemove(t *testing.T) {
	noop := func(next http.Handler) http.Handler { return next }

	s := NewStack()
	s.Use("a", noop)
	s.Use("c", noop)

	require.NoError(t, s.InsertBefore("c", "b", noop))
	require.NoError(t, s.InsertAfter("c", "d", noop))
	assert.Equal(t, []string{"a", "b", "c", "d"}, s.Names())

	assert.True(t, s.Remove("b"))
	assert.False(t, s.Remove("b"))
	assert.Equal(t, []string{"a", "c", "d"}, s.Names())

	err := s.InsertBefore("missing", "x", noop)
	assert.Error(t, err)
}

func TestActiveNames(t *testing.T) {
	noop := func(next http.Handler) http.Handler { return next }

	s := NewStack()
	s.Use("always", noop)
	s.UseIf("never", func() bool { return false }, noop)
	s.UseIf("sometimes", func() bool { return true }, noop)

	assert.Equal(t, []string{"always", "never", "sometimes"}, s.Names())
	assert.Equal(t, []string{"always", "sometimes"}, s.ActiveNames())
}

func TestEmptyStackBuildsPassThrough(t *testing.T) {
	s := NewStack()
	called := false
	h := s.Build(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	serve(h)
	assert.True(t, called)
}
