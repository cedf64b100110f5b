package metrics

import "time"

// Selection outcomes used as label values.
const (
	OutcomeOK           = "ok"
	OutcomeInsufficient = "insufficient"
	OutcomeMalformed    = "malformed"
	OutcomeProvider     = "provider_error"
	OutcomeError        = "error"
)

// SelectionEvent describes one window search.
type SelectionEvent struct {
	Provider  string
	Region    string
	Mode      string // "optimal" or "above"
	Requested time.Duration
	Score     float64
	Windows   int
	Latency   time.Duration
	Outcome   string
	Time      time.Time
}

// FetchEvent describes one series retrieval.
type FetchEvent struct {
	Provider string
	Region   string
	Samples  int
	CacheHit bool
	Latency  time.Duration
	Err      string
	Time     time.Time
}

// Sink records planner activity for observability purposes.
type Sink interface {
	RecordSelection(ev SelectionEvent) error
	RecordFetch(ev FetchEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSelection(SelectionEvent) error { return nil }
func (NopSink) RecordFetch(FetchEvent) error         { return nil }

// OrNop returns s, or NopSink when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return NopSink{}
	}
	return s
}
