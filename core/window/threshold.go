package window

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kilianp07/cleancharge/core/model"
)

// AboveThreshold returns non-overlapping windows of length requested whose
// clean-energy score reaches threshold. Windows are picked best-first, ties
// resolved by opts.TieBreak, and returned in start order. An empty result
// means the series holds candidates but none reach threshold.
func AboveThreshold(samples []model.Sample, requested time.Duration, threshold float64, opts Options) ([]model.OptimalChargingWindow, error) {
	return aboveThreshold(nil, samples, requested, threshold, opts)
}

// AboveThresholdContext behaves like AboveThreshold and stops once ctx is
// cancelled.
func AboveThresholdContext(ctx context.Context, samples []model.Sample, requested time.Duration, threshold float64, opts Options) ([]model.OptimalChargingWindow, error) {
	return aboveThreshold(ctx.Err, samples, requested, threshold, opts)
}

func aboveThreshold(check func() error, samples []model.Sample, requested time.Duration, threshold float64, opts Options) ([]model.OptimalChargingWindow, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("%w: threshold %.2f outside [0,100]", ErrInvalidOptions, threshold)
	}
	tl, err := prepare(samples, requested, opts)
	if err != nil {
		return nil, err
	}
	eps := opts.epsilon()
	seen := false
	var passing []candidate
	err = scan(tl, requested, opts, check, func(c candidate) {
		seen = true
		if c.score+eps >= threshold {
			passing = append(passing, c)
		}
	})
	if err != nil {
		return nil, err
	}
	if !seen {
		return nil, insufficient(requested, tl.largest, "no contiguous data of requested duration")
	}

	sort.SliceStable(passing, func(i, j int) bool {
		a, b := passing[i], passing[j]
		if math.Abs(a.score-b.score) > eps {
			return a.score > b.score
		}
		if opts.TieBreak == TieBreakLatest {
			return a.start.After(b.start)
		}
		return a.start.Before(b.start)
	})

	// All candidates share the same length, so two overlap exactly when their
	// starts are closer than requested.
	var chosen []candidate
	for _, c := range passing {
		i := sort.Search(len(chosen), func(k int) bool { return !chosen[k].start.Before(c.start) })
		if i < len(chosen) && chosen[i].start.Sub(c.start) < requested {
			continue
		}
		if i > 0 && c.start.Sub(chosen[i-1].start) < requested {
			continue
		}
		chosen = append(chosen, candidate{})
		copy(chosen[i+1:], chosen[i:])
		chosen[i] = c
	}

	out := make([]model.OptimalChargingWindow, len(chosen))
	for i, c := range chosen {
		out[i] = toWindow(c, requested)
	}
	return out, nil
}
