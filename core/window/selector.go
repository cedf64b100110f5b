// Package window selects the charging window with the highest clean-energy
// share from a series of grid generation samples.
//
// Samples are treated as a piecewise-constant function of time. A candidate
// window of the requested duration is scored by the duration-weighted average
// of the clean-energy values it overlaps. Candidates that would straddle a
// reporting gap are excluded. Every operation is a pure function of its
// inputs and is safe for concurrent use.
package window

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/cleancharge/core/model"
)

// ErrInvalidOptions wraps option validation failures.
var ErrInvalidOptions = errors.New("invalid options")

// Selector carries default Options so it can be injected where a window
// search is needed.
type Selector struct {
	opts Options
}

// NewSelector returns a Selector using opts for every call.
func NewSelector(opts Options) *Selector {
	return &Selector{opts: opts}
}

// Options returns the selector defaults.
func (s *Selector) Options() Options { return s.opts }

// Select is the method form of the package-level Select.
func (s *Selector) Select(samples []model.Sample, requested time.Duration) (model.OptimalChargingWindow, error) {
	return Select(samples, requested, s.opts)
}

// SelectContext is the method form of the package-level SelectContext.
func (s *Selector) SelectContext(ctx context.Context, samples []model.Sample, requested time.Duration) (model.OptimalChargingWindow, error) {
	return SelectContext(ctx, samples, requested, s.opts)
}

// AboveThreshold is the method form of the package-level AboveThreshold.
func (s *Selector) AboveThreshold(samples []model.Sample, requested time.Duration, threshold float64) ([]model.OptimalChargingWindow, error) {
	return AboveThreshold(samples, requested, threshold, s.opts)
}

// Select returns the window of length requested with the highest
// time-weighted clean-energy percentage.
//
// It fails with *MalformedInputError when samples are unsorted, overlap or
// carry invalid values, and with *InsufficientDataError when requested is not
// positive, exceeds the covered span, or no gap-free candidate exists.
func Select(samples []model.Sample, requested time.Duration, opts Options) (model.OptimalChargingWindow, error) {
	return selectBest(nil, samples, requested, opts)
}

// SelectContext behaves like Select and checks ctx between candidate
// evaluations, returning ctx.Err() once it is cancelled.
func SelectContext(ctx context.Context, samples []model.Sample, requested time.Duration, opts Options) (model.OptimalChargingWindow, error) {
	return selectBest(ctx.Err, samples, requested, opts)
}

type candidate struct {
	start time.Time
	score float64
}

func selectBest(check func() error, samples []model.Sample, requested time.Duration, opts Options) (model.OptimalChargingWindow, error) {
	tl, err := prepare(samples, requested, opts)
	if err != nil {
		return model.OptimalChargingWindow{}, err
	}
	eps := opts.epsilon()
	var best candidate
	found := false
	err = scan(tl, requested, opts, check, func(c candidate) {
		switch {
		case !found:
			best, found = c, true
		case c.score > best.score+eps:
			best = c
		case c.score >= best.score-eps && opts.TieBreak == TieBreakLatest:
			// Candidates arrive in ascending start order.
			best = c
		}
	})
	if err != nil {
		return model.OptimalChargingWindow{}, err
	}
	if !found {
		return model.OptimalChargingWindow{}, insufficient(requested, tl.largest, "no contiguous data of requested duration")
	}
	return toWindow(best, requested), nil
}

func prepare(samples []model.Sample, requested time.Duration, opts Options) (*timeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	tl, err := newTimeline(samples)
	if err != nil {
		return nil, err
	}
	if requested <= 0 {
		return nil, insufficient(requested, tl.largest, "requested duration must be positive")
	}
	if requested > tl.span {
		return nil, insufficient(requested, tl.largest, "requested duration exceeds covered span")
	}
	if step := opts.step(tl.native); opts.PartialEdges.Allowed() && int64(tl.span/step) > MaxCandidates {
		return nil, fmt.Errorf("%w: granularity %s yields more than %d candidates over %s", ErrInvalidOptions, step, MaxCandidates, tl.span)
	}
	return tl, nil
}

// scan enumerates every admissible candidate in ascending start order.
func scan(tl *timeline, requested time.Duration, opts Options, check func() error, visit func(candidate)) error {
	d := int64(requested)
	seconds := requested.Seconds()
	step := int64(opts.step(tl.native))
	partial := opts.PartialEdges.Allowed()

	for _, r := range tl.runs {
		if d > r.length() {
			continue
		}
		startCur := &integralCursor{r: r}
		endCur := &integralCursor{r: r}
	nextRun:
		for j := range r.starts {
			for off := r.starts[j]; off < r.ends[j]; off += step {
				end := off + d
				if end > r.length() {
					break nextRun
				}
				if check != nil {
					if err := check(); err != nil {
						return err
					}
				}
				hi := endCur.at(end)
				lo := startCur.at(off)
				if partial || endCur.onBoundary(end) {
					visit(candidate{
						start: r.origin.Add(time.Duration(off)),
						score: (hi - lo) / seconds,
					})
				}
				if !partial {
					break
				}
			}
		}
	}
	return nil
}

func toWindow(c candidate, requested time.Duration) model.OptimalChargingWindow {
	return model.OptimalChargingWindow{
		StartTime:             c.start,
		EndTime:               c.start.Add(requested),
		CleanEnergyPercentage: model.Round1(c.score),
	}
}
