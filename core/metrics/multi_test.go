package metrics

import (
	"errors"
	"testing"

	"github.com/kilianp07/cleancharge/core/factory"
)

type recordSink struct {
	count int
	err   error
}

func (r *recordSink) RecordSelection(SelectionEvent) error {
	r.count++
	return r.err
}

func (r *recordSink) RecordFetch(FetchEvent) error {
	r.count++
	return r.err
}

// TestMultiSink ensures events are forwarded to all sinks.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordSelection(SelectionEvent{Outcome: OutcomeOK}); err != nil {
		t.Fatalf("record selection: %v", err)
	}
	if err := m.RecordFetch(FetchEvent{Samples: 3}); err != nil {
		t.Fatalf("record fetch: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("events not forwarded")
	}
}

func TestMultiSinkContinuesAfterError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	err := NewMultiSink(s1, s2).RecordFetch(FetchEvent{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if s2.count != 1 {
		t.Fatalf("second sink skipped")
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}
	c.SetDefaults()
	if c.PrometheusAddr != "" {
		t.Fatalf("unexpected addr %q", c.PrometheusAddr)
	}
	c.Sinks = append(c.Sinks, factory.ModuleConfig{Type: "prometheus"})
	c.SetDefaults()
	if c.PrometheusAddr != ":2112" {
		t.Fatalf("expected default prometheus addr, got %q", c.PrometheusAddr)
	}
	c.Sinks = append(c.Sinks, factory.ModuleConfig{})
	if err := c.Validate(); err == nil {
		t.Fatal("expected missing type error")
	}
}
