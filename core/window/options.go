package window

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TieBreak selects between candidates whose scores differ by at most Epsilon.
type TieBreak int

const (
	TieBreakEarliest TieBreak = iota
	TieBreakLatest
)

func (t TieBreak) String() string {
	if t == TieBreakLatest {
		return "latest"
	}
	return "earliest"
}

// ParseTieBreak converts "earliest" or "latest". The empty string yields the default.
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "earliest":
		return TieBreakEarliest, nil
	case "latest":
		return TieBreakLatest, nil
	default:
		return TieBreakEarliest, fmt.Errorf("unknown tie break %q", s)
	}
}

// PartialEdges controls whether a window may start or end inside a sample.
// The zero value behaves like PartialEdgesOn.
type PartialEdges int

const (
	PartialEdgesDefault PartialEdges = iota
	PartialEdgesOn
	PartialEdgesOff
)

// Allowed resolves the default.
func (p PartialEdges) Allowed() bool { return p != PartialEdgesOff }

// PartialEdgesFrom maps a boolean flag to PartialEdges.
func PartialEdgesFrom(allow bool) PartialEdges {
	if allow {
		return PartialEdgesOn
	}
	return PartialEdgesOff
}

// DefaultEpsilon is the score distance under which two candidates tie.
const DefaultEpsilon = 1e-6

// MinGranularity is the finest slide step accepted.
const MinGranularity = time.Second

// MaxCandidates bounds the candidate starts a single partial-edge scan may
// visit.
const MaxCandidates = 1_000_000

// Options tunes the candidate scan. The zero value is ready to use.
type Options struct {
	// Granularity is the slide step inside a sample. Zero means the shortest
	// sample duration of the series.
	Granularity time.Duration

	TieBreak     TieBreak
	PartialEdges PartialEdges

	// Epsilon is the tie tolerance on scores. Zero means DefaultEpsilon.
	Epsilon float64
}

// Validate rejects negative or sub-second steps and tolerances that are
// negative or not finite.
func (o Options) Validate() error {
	if o.Granularity < 0 {
		return fmt.Errorf("granularity must not be negative")
	}
	if o.Granularity > 0 && o.Granularity < MinGranularity {
		return fmt.Errorf("granularity %s below %s", o.Granularity, MinGranularity)
	}
	if math.IsNaN(o.Epsilon) || math.IsInf(o.Epsilon, 0) {
		return fmt.Errorf("epsilon must be finite")
	}
	if o.Epsilon < 0 {
		return fmt.Errorf("epsilon must not be negative")
	}
	if o.TieBreak != TieBreakEarliest && o.TieBreak != TieBreakLatest {
		return fmt.Errorf("unknown tie break %d", o.TieBreak)
	}
	return nil
}

func (o Options) epsilon() float64 {
	if o.Epsilon <= 0 {
		return DefaultEpsilon
	}
	return o.Epsilon
}

func (o Options) step(native time.Duration) time.Duration {
	if o.Granularity <= 0 {
		return native
	}
	return o.Granularity
}
