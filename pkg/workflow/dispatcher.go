package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowgrid/flowgrid/pkg/eventbus"
	"github.com/flowgrid/flowgrid/pkg/events"
	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
)

// Dispatcher consumes dispatch events from the work queue and drives the
// detached execution path. Each consumed run carries its own error boundary:
// a panic inside traversal is recorded as the run's terminal failure instead
// of taking the consumer down.
type Dispatcher struct {
	logger      *slog.Logger
	bus         eventbus.EventBus
	store       persistence.RunRepository
	coordinator *Coordinator
}

func NewDispatcher(logger *slog.Logger, bus eventbus.EventBus, store persistence.RunRepository, coordinator *Coordinator) *Dispatcher {
	return &Dispatcher{
		logger:      logger.With("module", "run_dispatcher"),
		bus:         bus,
		store:       store,
		coordinator: coordinator,
	}
}

// Start registers the dispatch handler and begins consuming. It returns once
// the subscription is established; consumption continues until ctx is done.
func (d *Dispatcher) Start(ctx context.Context) error {
	err := d.bus.Handle(events.RunDispatchedEvent, d.handleRunDispatched)
	if err != nil {
		return fmt.Errorf("failed to register dispatch handler: %w", err)
	}

	return d.bus.Subscribe(ctx)
}

func (d *Dispatcher) handleRunDispatched(ctx context.Context, event any) error {
	dispatched, ok := event.(*events.RunDispatched)
	if !ok {
		return fmt.Errorf("unexpected event payload %T for %s", event, events.RunDispatchedEvent)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic during run execution", "run_id", dispatched.RunID, "panic", r)

			now := time.Now().UTC()

			err := d.store.TransitionRun(ctx, dispatched.RunID, models.RunStatusFailed, persistence.RunFields{
				Error:      fmt.Sprintf("panic during run execution: %v", r),
				FinishedAt: &now,
			})
			if err != nil {
				d.logger.Error("failed to record panic failure", "run_id", dispatched.RunID, "error", err)
			}
		}
	}()

	d.coordinator.ExecuteRun(ctx, dispatched.RunID, dispatched.TriggerData)

	return nil
}
