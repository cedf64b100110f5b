package window

import (
	"time"

	"github.com/kilianp07/cleancharge/core/model"
)

// Run describes a maximal stretch of contiguous samples.
type Run struct {
	Start   time.Time
	End     time.Time
	Samples int
}

// Duration returns End - Start.
func (r Run) Duration() time.Duration { return r.End.Sub(r.Start) }

// Contiguous validates samples and splits them into contiguous runs. A new
// run starts wherever a sample begins after the previous one ended.
func Contiguous(samples []model.Sample) ([]Run, error) {
	tl, err := newTimeline(samples)
	if err != nil {
		return nil, err
	}
	out := make([]Run, len(tl.runs))
	for i, r := range tl.runs {
		out[i] = Run{Start: r.origin, End: r.origin.Add(time.Duration(r.length())), Samples: len(r.starts)}
	}
	return out, nil
}

// segmentRun holds one contiguous run with a prefix integral of the
// piecewise-constant clean-energy function. Offsets are nanoseconds relative
// to origin and integrals are percent-seconds.
type segmentRun struct {
	origin time.Time
	starts []int64
	ends   []int64
	clean  []float64
	prefix []float64
}

func (r *segmentRun) length() int64 { return r.ends[len(r.ends)-1] }

func (r *segmentRun) append(s model.Sample) {
	start := int64(s.From.Sub(r.origin))
	end := int64(s.To.Sub(r.origin))
	r.starts = append(r.starts, start)
	r.ends = append(r.ends, end)
	r.clean = append(r.clean, s.CleanEnergy)
	last := r.prefix[len(r.prefix)-1]
	r.prefix = append(r.prefix, last+nanosToSeconds(end-start)*s.CleanEnergy)
}

type timeline struct {
	runs    []*segmentRun
	native  time.Duration
	span    time.Duration
	largest time.Duration
}

// newTimeline validates the series and builds its runs. Unsorted, duplicate
// or overlapping samples are rejected rather than reordered.
func newTimeline(samples []model.Sample) (*timeline, error) {
	if len(samples) == 0 {
		return nil, insufficient(0, 0, "empty sample series")
	}
	tl := &timeline{}
	var cur *segmentRun
	for i, s := range samples {
		if err := s.Validate(); err != nil {
			return nil, malformed(i, "%v", err)
		}
		if i > 0 {
			prev := samples[i-1]
			switch {
			case s.From.Before(prev.From):
				return nil, malformed(i, "samples not sorted by from")
			case s.From.Equal(prev.From):
				return nil, malformed(i, "duplicate sample start %s", s.From.Format(time.RFC3339))
			case s.From.Before(prev.To):
				return nil, malformed(i, "sample overlaps previous sample by %s", prev.To.Sub(s.From))
			}
		}
		if cur == nil || !s.From.Equal(samples[i-1].To) {
			cur = &segmentRun{origin: s.From, prefix: []float64{0}}
			tl.runs = append(tl.runs, cur)
		}
		cur.append(s)
		if d := s.Duration(); tl.native == 0 || d < tl.native {
			tl.native = d
		}
	}
	for _, r := range tl.runs {
		if d := time.Duration(r.length()); d > tl.largest {
			tl.largest = d
		}
	}
	tl.span = samples[len(samples)-1].To.Sub(samples[0].From)
	return tl, nil
}

// integralCursor evaluates the prefix integral for non-decreasing offsets in
// amortized constant time.
type integralCursor struct {
	r   *segmentRun
	idx int
}

func (c *integralCursor) at(off int64) float64 {
	r := c.r
	for c.idx < len(r.ends) && r.ends[c.idx] <= off {
		c.idx++
	}
	if c.idx >= len(r.ends) {
		return r.prefix[len(r.prefix)-1]
	}
	return r.prefix[c.idx] + nanosToSeconds(off-r.starts[c.idx])*r.clean[c.idx]
}

// onBoundary reports whether the last offset passed to at fell on a sample
// boundary.
func (c *integralCursor) onBoundary(off int64) bool {
	if c.idx >= len(c.r.starts) {
		return off == c.r.length()
	}
	return c.r.starts[c.idx] == off
}

func nanosToSeconds(n int64) float64 { return float64(n) / float64(time.Second) }
