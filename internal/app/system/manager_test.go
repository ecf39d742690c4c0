package system

import (
	"context"
	"errors"
	"testing"
)

type recordingService struct {
	name  string
	trace *[]string
	fail  bool
}

func (s *recordingService) Name() string { return s.name }

func (s *recordingService) Start(context.Context) error {
	*s.trace = append(*s.trace, "start "+s.name)
	if s.fail {
		return errors.New("boom")
	}
	return nil
}

func (s *recordingService) Stop(context.Context) error {
	*s.trace = append(*s.trace, "stop "+s.name)
	return nil
}

func TestManagerStartStopOrder(t *testing.T) {
	var trace []string
	m := NewManager()
	for _, name := range []string{"a", "b", "c"} {
		if err := m.Register(&recordingService{name: name, trace: &trace}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start a", "start b", "start c", "stop c", "stop b", "stop a"}
	if len(trace) != len(want) {
		t.Fatalf("trace %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace[%d] = %q, want %q", i, trace[i], want[i])
		}
	}
}

func TestManagerStartFailureUnwindsReverse(t *testing.T) {
	var trace []string
	m := NewManager()
	_ = m.Register(&recordingService{name: "a", trace: &trace})
	_ = m.Register(&recordingService{name: "b", trace: &trace, fail: true})
	_ = m.Register(&recordingService{name: "c", trace: &trace})

	err := m.Start(context.Background())
	if err == nil {
		t.Fatal("expected start failure")
	}

	want := []string{"start a", "start b", "stop a"}
	if len(trace) != len(want) {
		t.Fatalf("trace %v, want %v", trace, want)
	}
}

func TestManagerRejectsDuplicateNames(t *testing.T) {
	m := NewManager()
	if err := m.Register(NoopService{ServiceName: "dup"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := m.Register(NoopService{ServiceName: "dup"}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}
