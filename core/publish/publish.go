// Package publish delivers planner recommendations to downstream consumers
// such as charge point controllers listening on MQTT or Kafka.
package publish

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kilianp07/cleancharge/core/factory"
	"github.com/kilianp07/cleancharge/core/logger"
	"github.com/kilianp07/cleancharge/core/planner"
)

// Publisher sends a recommendation to one destination.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, rec planner.Recommendation) error
	Close() error
}

// Window is the wire form of one charging window.
type Window struct {
	Start                 time.Time `json:"start"`
	End                   time.Time `json:"end"`
	CleanEnergyPercentage float64   `json:"clean_energy_percentage"`
}

// Message is the payload every publisher emits.
type Message struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Region    string    `json:"region"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
	Windows   []Window  `json:"windows"`
}

// NewMessage converts rec to its wire form.
func NewMessage(rec planner.Recommendation) Message {
	m := Message{
		ID:        rec.ID,
		Mode:      rec.Mode,
		Region:    rec.Region,
		Provider:  rec.Provider,
		CreatedAt: rec.CreatedAt,
		Windows:   make([]Window, len(rec.Windows)),
	}
	for i, w := range rec.Windows {
		m.Windows[i] = Window{Start: w.StartTime, End: w.EndTime, CleanEnergyPercentage: w.CleanEnergyPercentage}
	}
	return m
}

// Encode returns the JSON payload for rec.
func Encode(rec planner.Recommendation) ([]byte, error) {
	return json.Marshal(NewMessage(rec))
}

var registry = factory.NewRegistry[Publisher]()

// Register adds a publisher factory identified by name.
func Register(name string, f factory.Factory[Publisher]) error {
	return registry.Register(name, f)
}

// Types lists the registered publisher types.
func Types() []string { return registry.Names() }

// NewPublishers creates one Publisher per configuration. Already created
// publishers are closed when a later one fails.
func NewPublishers(cfgs []factory.ModuleConfig) ([]Publisher, error) {
	pubs := make([]Publisher, 0, len(cfgs))
	for _, c := range cfgs {
		p, err := registry.Create(c)
		if err != nil {
			for _, q := range pubs {
				_ = q.Close()
			}
			return nil, err
		}
		pubs = append(pubs, p)
	}
	return pubs, nil
}

// LogPublisher writes recommendations to a logger.
type LogPublisher struct {
	Logger logger.Logger
}

func (LogPublisher) Name() string { return "log" }

func (l LogPublisher) Publish(_ context.Context, rec planner.Recommendation) error {
	log := logger.OrNop(l.Logger)
	for _, w := range rec.Windows {
		log.Infof("recommendation %s region=%s window %s..%s clean=%.1f%%", rec.ID, rec.Region,
			w.StartTime.Format(time.RFC3339), w.EndTime.Format(time.RFC3339), w.CleanEnergyPercentage)
	}
	return nil
}

func (LogPublisher) Close() error { return nil }
