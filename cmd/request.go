package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cleancharge/config"
	"github.com/kilianp07/cleancharge/core/model"
	"github.com/kilianp07/cleancharge/pkg/export"
	"github.com/kilianp07/cleancharge/pkg/series"
)

// rangeFlags are shared by every command that reads a series.
type rangeFlags struct {
	region string
	from   string
	to     string
	input  string
}

func (f *rangeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.region, "region", "", "region short name or id (default national)")
	cmd.Flags().StringVar(&f.from, "from", "", "range start, RFC3339 (default now or first sample of --input)")
	cmd.Flags().StringVar(&f.to, "to", "", "range end, RFC3339 (default from + horizon or last sample of --input)")
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "read samples from a JSON or YAML file instead of the provider")
}

// apply switches cfg to the file provider when --input is set and returns the
// resolved range. Unset bounds stay zero so the planner applies its defaults.
func (f *rangeFlags) apply(cfg *config.Config) (time.Time, time.Time, error) {
	from, err := parseTime("from", f.from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseTime("to", f.to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if f.input == "" {
		return from, to, nil
	}
	samples, err := series.Load(f.input)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	cfg.Provider = config.ProviderConfig{Type: series.ProviderName, Conf: map[string]any{"path": f.input}}
	cfg.Cache.Backend = "none"
	if len(samples) > 0 {
		if from.IsZero() {
			from = samples[0].From
		}
		if to.IsZero() {
			to = samples[len(samples)-1].To
		}
	}
	return from, to, nil
}

func parseTime(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t.UTC(), nil
}

// selectorFlags override the selector section of the configuration.
type selectorFlags struct {
	duration     time.Duration
	granularity  time.Duration
	tieBreak     string
	partialEdges bool
	epsilon      float64
}

func (f *selectorFlags) bind(cmd *cobra.Command) {
	cmd.Flags().DurationVarP(&f.duration, "duration", "d", 0, "charging duration (default selector.duration)")
	cmd.Flags().DurationVar(&f.granularity, "granularity", 0, "slide step inside a sample")
	cmd.Flags().StringVar(&f.tieBreak, "tie-break", "", "earliest or latest")
	cmd.Flags().BoolVar(&f.partialEdges, "partial-edges", true, "allow windows to start or end inside a sample")
	cmd.Flags().Float64Var(&f.epsilon, "epsilon", 0, "score tolerance under which candidates tie")
}

func (f *selectorFlags) apply(cmd *cobra.Command, sel *config.SelectorConfig) {
	flags := cmd.Flags()
	if flags.Changed("duration") {
		sel.Duration = f.duration
	}
	if flags.Changed("granularity") {
		sel.Granularity = f.granularity
	}
	if flags.Changed("tie-break") {
		sel.TieBreak = f.tieBreak
	}
	if flags.Changed("partial-edges") {
		v := f.partialEdges
		sel.PartialEdges = &v
	}
	if flags.Changed("epsilon") {
		sel.Epsilon = f.epsilon
	}
}

func writeWindows(w io.Writer, format string, windows []model.OptimalChargingWindow) error {
	switch strings.ToLower(format) {
	case "", "json":
		return export.WriteJSON(w, windows)
	case "csv":
		return export.WriteCSV(w, windows)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
