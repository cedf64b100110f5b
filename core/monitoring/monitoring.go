// Package monitoring abstracts error reporting so planner failures can be sent
// to an external tracker.
package monitoring

import (
	"fmt"
	"sync"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// CapturePanic reports a value obtained from recover().
	CapturePanic(v any, tags map[string]string)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) CapturePanic(any, map[string]string)       {}
func (NopMonitor) Flush(time.Duration)                       {}

// OrNop returns m, or NopMonitor when m is nil.
func OrNop(m Monitor) Monitor {
	if m == nil {
		return NopMonitor{}
	}
	return m
}

// Captured is one report kept by a Recorder.
type Captured struct {
	Err  error
	Tags map[string]string
}

// Recorder keeps reports in memory. It backs tests and the CLI dry runs.
type Recorder struct {
	mu     sync.Mutex
	events []Captured
}

func (r *Recorder) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Captured{Err: err, Tags: tags})
}

func (r *Recorder) CapturePanic(v any, tags map[string]string) {
	r.CaptureException(fmt.Errorf("panic: %v", v), tags)
}

func (r *Recorder) Flush(time.Duration) {}

// Events returns a copy of the captured reports.
func (r *Recorder) Events() []Captured {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Captured(nil), r.events...)
}
