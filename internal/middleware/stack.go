// Package middleware provides the HTTP middleware stages and the stack that
// assembles them into a request pipeline.
package middleware

import (
	"fmt"
	"net/http"
)

// Middleware wraps an http.Handler with one processing stage.
type Middleware func(http.Handler) http.Handler

// Condition gates a stage. It is evaluated at build time; a false result
// omits the stage from the realized pipeline without disturbing the order of
// the remaining stages.
type Condition func() bool

// Provider defers construction of a stage until build time, so configuration
// finalized late in boot is captured correctly.
type Provider func() Middleware

// Stage is one declared pipeline entry.
type Stage struct {
	Name      string
	Condition Condition
	provider  Provider
}

// Stack is an ordered list of stage declarations. Declaration order is the
// wire order: the first declared stage is outermost, running first on the
// way in and last on the way out. A Stack is mutated during single-threaded
// boot and read-only afterwards.
type Stack struct {
	stages []Stage
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Use appends an unconditional stage.
func (s *Stack) Use(name string, mw Middleware) {
	s.UseProvided(name, nil, func() Middleware { return mw })
}

// UseIf appends a stage gated by condition.
func (s *Stack) UseIf(name string, condition Condition, mw Middleware) {
	s.UseProvided(name, condition, func() Middleware { return mw })
}

// UseProvided appends a stage whose middleware is constructed by provider at
// build time. condition may be nil for an always-on stage.
func (s *Stack) UseProvided(name string, condition Condition, provider Provider) {
	s.stages = append(s.stages, Stage{Name: name, Condition: condition, provider: provider})
}

// InsertBefore places a new unconditional stage immediately before the named
// target stage.
func (s *Stack) InsertBefore(target, name string, mw Middleware) error {
	return s.insert(target, 0, Stage{Name: name, provider: func() Middleware { return mw }})
}

// InsertAfter places a new unconditional stage immediately after the named
// target stage.
func (s *Stack) InsertAfter(target, name string, mw Middleware) error {
	return s.insert(target, 1, Stage{Name: name, provider: func() Middleware { return mw }})
}

func (s *Stack) insert(target string, offset int, stage Stage) error {
	for i := range s.stages {
		if s.stages[i].Name == target {
			at := i + offset
			s.stages = append(s.stages, Stage{})
			copy(s.stages[at+1:], s.stages[at:])
			s.stages[at] = stage
			return nil
		}
	}
	return fmt.Errorf("middleware stack: no stage named %q", target)
}

// Remove deletes the named stage, reporting whether it was present.
func (s *Stack) Remove(name string) bool {
	for i := range s.stages {
		if s.stages[i].Name == name {
			s.stages = append(s.stages[:i], s.stages[i+1:]...)
			return true
		}
	}
	return false
}

// Names returns the declared stage names in order, including conditional
// stages that may not survive realization.
func (s *Stack) Names() []string {
	names := make([]string, len(s.stages))
	for i, stage := range s.stages {
		names[i] = stage.Name
	}
	return names
}

// ActiveNames evaluates every condition now and returns the names that would
// make it into a pipeline built at this moment.
func (s *Stack) ActiveNames() []string {
	var names []string
	for _, stage := range s.stages {
		if stage.Condition == nil || stage.Condition() {
			names = append(names, stage.Name)
		}
	}
	return names
}

// Build realizes the pipeline around inner: conditions are evaluated,
// providers are resolved, and the active stages are composed so the first
// declared stage is outermost.
func (s *Stack) Build(inner http.Handler) http.Handler {
	var active []Middleware
	for _, stage := range s.stages {
		if stage.Condition != nil && !stage.Condition() {
			continue
		}
		active = append(active, stage.provider())
	}

	h := inner
	for i := len(active) - 1; i >= 0; i-- {
		h = active[i](h)
	}
	return h
}
