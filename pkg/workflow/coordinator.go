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

// Coordinator is the engine's entry point. StartRun creates the ledger
// record and hands the run to the dispatcher through the event bus; the
// caller gets the run ID back immediately and observes progress only by
// polling the ledger.
type Coordinator struct {
	logger *slog.Logger
	store  persistence.Persistence
	bus    eventbus.EventBus
	walker *Walker
}

func NewCoordinator(logger *slog.Logger, store persistence.Persistence, bus eventbus.EventBus, walker *Walker) *Coordinator {
	return &Coordinator{
		logger: logger.With("module", "run_coordinator"),
		store:  store,
		bus:    bus,
		walker: walker,
	}
}

// StartRun validates the workflow is runnable, records a pending run, and
// publishes the dispatch event. The first run of an inactive workflow
// activates it as a side effect.
func (c *Coordinator) StartRun(ctx context.Context, workflowID, userID string, mode models.RunMode, triggerData map[string]any) (string, error) {
	wf, err := c.store.WorkflowByID(ctx, workflowID)
	if err != nil {
		return "", err
	}

	if !wf.Active {
		if err := c.store.SetWorkflowActive(ctx, workflowID, true); err != nil {
			return "", fmt.Errorf("failed to activate workflow %s: %w", workflowID, err)
		}
	}

	run, err := c.store.CreateRun(ctx, workflowID, userID, mode)
	if err != nil {
		return "", fmt.Errorf("failed to create run for workflow %s: %w", workflowID, err)
	}

	event := events.RunDispatched{
		BaseEvent:   events.NewBaseEvent(events.RunDispatchedEvent, workflowID),
		RunID:       run.ID,
		UserID:      userID,
		Mode:        mode,
		TriggerData: triggerData,
	}

	if err := c.bus.Publish(ctx, workflowID, event); err != nil {
		c.finishFailed(ctx, run.ID, workflowID, "failed to dispatch run: "+err.Error(), time.Now())

		return "", fmt.Errorf("failed to dispatch run %s: %w", run.ID, err)
	}

	c.logger.Info("run dispatched", "run_id", run.ID, "workflow_id", workflowID, "mode", mode)

	return run.ID, nil
}

// ExecuteRun is the detached completion path, invoked by the dispatcher when
// a dispatch event is consumed. All faults end in a terminal ledger write;
// nothing propagates back to the caller that started the run.
func (c *Coordinator) ExecuteRun(ctx context.Context, runID string, triggerData map[string]any) {
	started := time.Now()
	logger := c.logger.With("run_id", runID)

	run, err := c.store.RunByID(ctx, runID)
	if err != nil {
		logger.Error("failed to load dispatched run", "error", err)

		return
	}

	if run.Status.Terminal() {
		logger.Info("run already terminal, skipping execution", "status", run.Status)

		return
	}

	wf, err := c.store.WorkflowByID(ctx, run.WorkflowID)
	if err != nil {
		c.finishFailed(ctx, runID, run.WorkflowID, err.Error(), started)

		return
	}

	if err := c.store.TransitionRun(ctx, runID, models.RunStatusRunning, persistence.RunFields{}); err != nil {
		logger.Error("failed to transition run to running", "error", err)

		return
	}

	rc := models.NewRunContext(run, triggerData)

	executed, err := c.walker.Walk(ctx, wf, rc)
	if err != nil {
		c.finishFailed(ctx, runID, run.WorkflowID, err.Error(), started)

		return
	}

	now := time.Now().UTC()

	err = c.store.TransitionRun(ctx, runID, models.RunStatusSuccess, persistence.RunFields{
		Results:    rc.Results,
		FinishedAt: &now,
	})
	if err != nil {
		logger.Error("failed to record run completion", "error", err)

		return
	}

	c.publish(ctx, run.WorkflowID, events.RunCompleted{
		BaseEvent:     events.NewBaseEvent(events.RunCompletedEvent, run.WorkflowID),
		RunID:         runID,
		NodesExecuted: executed,
		Duration:      time.Since(started),
	})

	logger.Info("run completed", "nodes_executed", executed, "duration", time.Since(started))
}

// CancelRun requests an advisory cancellation: the ledger status flips to
// cancelled but an in-flight traversal is not interrupted. Its eventual
// terminal write no-ops against the cancelled status. Cancelling an already
// terminal run is itself a no-op.
func (c *Coordinator) CancelRun(ctx context.Context, runID, cancelledBy string) error {
	run, err := c.store.RunByID(ctx, runID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	err = c.store.TransitionRun(ctx, runID, models.RunStatusCancelled, persistence.RunFields{FinishedAt: &now})
	if err != nil {
		return fmt.Errorf("failed to cancel run %s: %w", runID, err)
	}

	c.publish(ctx, run.WorkflowID, events.RunCancelled{
		BaseEvent:   events.NewBaseEvent(events.RunCancelledEvent, run.WorkflowID),
		RunID:       runID,
		CancelledBy: cancelledBy,
	})

	return nil
}

func (c *Coordinator) finishFailed(ctx context.Context, runID, workflowID, message string, started time.Time) {
	now := time.Now().UTC()

	err := c.store.TransitionRun(ctx, runID, models.RunStatusFailed, persistence.RunFields{
		Error:      message,
		FinishedAt: &now,
	})
	if err != nil {
		c.logger.Error("failed to record run failure", "run_id", runID, "error", err)

		return
	}

	c.publish(ctx, workflowID, events.RunFailed{
		BaseEvent: events.NewBaseEvent(events.RunFailedEvent, workflowID),
		RunID:     runID,
		Error:     message,
		Duration:  time.Since(started),
	})

	c.logger.Warn("run failed", "run_id", runID, "error", message)
}

// publish is best-effort: lifecycle events are observability, the ledger is
// the source of truth.
func (c *Coordinator) publish(ctx context.Context, key string, event eventbus.Event) {
	if err := c.bus.Publish(ctx, key, event); err != nil {
		c.logger.Warn("failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
