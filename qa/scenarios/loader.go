// Package scenarios runs window-selection scenarios described in YAML files
// through the planner and checks the recommended windows.
package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/cleancharge/core/model"
	"github.com/kilianp07/cleancharge/core/window"
)

// SeriesDef describes equally spaced samples. GapAfter lists sample indexes
// followed by an unreported interval of one Step.
type SeriesDef struct {
	Start    time.Time     `yaml:"start"`
	Step     time.Duration `yaml:"step"`
	Clean    []float64     `yaml:"clean"`
	GapAfter []int         `yaml:"gap_after,omitempty"`
}

// Samples expands the definition.
func (s SeriesDef) Samples() []model.Sample {
	gaps := make(map[int]bool, len(s.GapAfter))
	for _, g := range s.GapAfter {
		gaps[g] = true
	}
	out := make([]model.Sample, 0, len(s.Clean))
	at := s.Start
	for i, c := range s.Clean {
		out = append(out, model.Sample{From: at, To: at.Add(s.Step), CleanEnergy: c})
		at = at.Add(s.Step)
		if gaps[i] {
			at = at.Add(s.Step)
		}
	}
	return out
}

// RequestDef is the selection request of a scenario.
type RequestDef struct {
	Duration     time.Duration `yaml:"duration"`
	Granularity  time.Duration `yaml:"granularity,omitempty"`
	TieBreak     string        `yaml:"tie_break,omitempty"`
	PartialEdges *bool         `yaml:"partial_edges,omitempty"`
	Threshold    *float64      `yaml:"threshold,omitempty"`
}

// Options converts the request into selector options.
func (r RequestDef) Options() (window.Options, error) {
	tb, err := window.ParseTieBreak(r.TieBreak)
	if err != nil {
		return window.Options{}, err
	}
	opts := window.Options{Granularity: r.Granularity, TieBreak: tb}
	if r.PartialEdges != nil {
		opts.PartialEdges = window.PartialEdgesFrom(*r.PartialEdges)
	}
	return opts, nil
}

// WindowDef is one expected window.
type WindowDef struct {
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`
	Score float64   `yaml:"score"`
}

// Expected holds either the windows or the metrics outcome of a failure
// ("insufficient", "malformed").
type Expected struct {
	Windows []WindowDef `yaml:"windows,omitempty"`
	Error   string      `yaml:"error,omitempty"`
}

type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Series      SeriesDef  `yaml:"series"`
	Request     RequestDef `yaml:"request"`
	Expected    Expected   `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	if sc.Series.Step <= 0 {
		return nil, fmt.Errorf("%s: series step must be positive", path)
	}
	return &sc, nil
}
