// Package plugins wires the built-in providers, metrics sinks and publishers
// into their registries.
package plugins

import (
	"github.com/kilianp07/cleancharge/core/publish"
	"github.com/kilianp07/cleancharge/infra/logger"

	// Registered through init.
	_ "github.com/kilianp07/cleancharge/infra/carbonintensity"
	_ "github.com/kilianp07/cleancharge/infra/gridsim"
	_ "github.com/kilianp07/cleancharge/infra/kafka"
	_ "github.com/kilianp07/cleancharge/infra/metrics"
	_ "github.com/kilianp07/cleancharge/infra/mqtt"
	_ "github.com/kilianp07/cleancharge/pkg/series"
)

func init() {
	_ = publish.Register("log", func(map[string]any) (publish.Publisher, error) {
		return publish.LogPublisher{Logger: logger.New("publisher")}, nil
	})
}
