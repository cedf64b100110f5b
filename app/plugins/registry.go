package plugins

import (
	"github.com/kilianp07/cleancharge/core/grid"
	coremetrics "github.com/kilianp07/cleancharge/core/metrics"
	"github.com/kilianp07/cleancharge/core/publish"
)

// Catalog lists the registered module types per kind.
type Catalog struct {
	Providers  []string `json:"providers"`
	Sinks      []string `json:"sinks"`
	Publishers []string `json:"publishers"`
}

// Available returns the types every registry knows.
func Available() Catalog {
	return Catalog{
		Providers:  grid.ProviderTypes(),
		Sinks:      coremetrics.SinkTypes(),
		Publishers: publish.Types(),
	}
}
