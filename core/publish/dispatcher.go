package publish

import (
	"context"
	"errors"

	"github.com/kilianp07/cleancharge/core/logger"
	"github.com/kilianp07/cleancharge/core/monitoring"
	"github.com/kilianp07/cleancharge/core/planner"
	"github.com/kilianp07/cleancharge/internal/eventbus"
)

// Dispatcher forwards recommendations from the planner bus to publishers.
type Dispatcher struct {
	bus        *eventbus.TypedBus[planner.Recommendation]
	publishers []Publisher
	log        logger.Logger
	monitor    monitoring.Monitor
}

// NewDispatcher creates a Dispatcher. log and mon may be nil.
func NewDispatcher(bus *eventbus.TypedBus[planner.Recommendation], pubs []Publisher, log logger.Logger, mon monitoring.Monitor) *Dispatcher {
	return &Dispatcher{bus: bus, publishers: pubs, log: logger.OrNop(log), monitor: monitoring.OrNop(mon)}
}

// Run subscribes to the bus and publishes until ctx is done or the bus is
// closed. Publishers are closed on return.
func (d *Dispatcher) Run(ctx context.Context) error {
	sub := d.bus.Subscribe()
	defer d.bus.Unsubscribe(sub)
	defer d.close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case rec, ok := <-sub:
			if !ok {
				return nil
			}
			d.Dispatch(ctx, rec)
		}
	}
}

// Dispatch sends rec to every publisher and returns the joined errors.
func (d *Dispatcher) Dispatch(ctx context.Context, rec planner.Recommendation) error {
	var errs []error
	for _, p := range d.publishers {
		if err := p.Publish(ctx, rec); err != nil {
			d.log.Errorf("publish %s via %s: %v", rec.ID, p.Name(), err)
			d.monitor.CaptureException(err, map[string]string{"publisher": p.Name(), "region": rec.Region})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) close() {
	for _, p := range d.publishers {
		if err := p.Close(); err != nil {
			d.log.Warnf("close publisher %s: %v", p.Name(), err)
		}
	}
}
