package metrics

import "errors"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSelection forwards the event to every sink. A failing sink does not
// stop the others; all errors are joined.
func (m *MultiSink) RecordSelection(ev SelectionEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordSelection(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordFetch forwards fetch events.
func (m *MultiSink) RecordFetch(ev FetchEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordFetch(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
