package workflow

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgrid/flowgrid/pkg/channels/gochannel"
	"github.com/flowgrid/flowgrid/pkg/credentials"
	"github.com/flowgrid/flowgrid/pkg/eventbus"
	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/nodes/noop"
	"github.com/flowgrid/flowgrid/pkg/nodes/trigger"
	"github.com/flowgrid/flowgrid/pkg/persistence"
	"github.com/flowgrid/flowgrid/pkg/persistence/file"
	"github.com/flowgrid/flowgrid/pkg/registry"
	"github.com/flowgrid/flowgrid/pkg/testutil"
)

type engineHarness struct {
	coordinator *Coordinator
	store       *file.Persistence
}

func newEngineHarness(t *testing.T) *engineHarness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	store := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(logger)
	reg.Register(trigger.NewExecutor())
	reg.Register(noop.NewExecutor())
	reg.RegisterFallback(noop.NewExecutor())

	walker := NewWalker(logger, reg, credentials.NewResolver(store))
	coordinator := NewCoordinator(logger, store, bus, walker)
	dispatcher := NewDispatcher(logger, bus, store, coordinator)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	require.NoError(t, dispatcher.Start(ctx))

	return &engineHarness{coordinator: coordinator, store: store}
}

func (h *engineHarness) awaitTerminal(t *testing.T, runID string) *models.Run {
	t.Helper()

	var run *models.Run

	require.Eventually(t, func() bool {
		var err error

		run, err = h.store.RunByID(context.Background(), runID)

		return err == nil && run.Status.Terminal()
	}, 3*time.Second, 10*time.Millisecond)

	return run
}

func TestStartRunWorkflowNotFound(t *testing.T) {
	h := newEngineHarness(t)

	_, err := h.coordinator.StartRun(context.Background(), "missing", "user-1", models.RunModeManual, nil)

	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestStartRunNoTriggerNodeFailsRun(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	wf := testutil.CreateTestWorkflow([]*models.Node{
		testutil.CreateTestNode(testutil.WithName("Lonely Action")),
	}, nil)
	require.NoError(t, h.store.SaveWorkflow(ctx, wf))

	runID, err := h.coordinator.StartRun(ctx, wf.ID, "user-1", models.RunModeManual, nil)
	require.NoError(t, err)

	run := h.awaitTerminal(t, runID)

	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "no trigger node found")
	assert.NotNil(t, run.FinishedAt)
}

func TestStartRunCompletesChain(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	wf := testutil.CreateTestWorkflow([]*models.Node{
		testutil.CreateTestNode(testutil.WithTriggerRole(), testutil.WithName("Start")),
		testutil.CreateTestNode(testutil.WithName("First")),
		testutil.CreateTestNode(testutil.WithName("Second")),
	}, testutil.Chain("Start", "First", "Second"))
	require.NoError(t, h.store.SaveWorkflow(ctx, wf))

	runID, err := h.coordinator.StartRun(ctx, wf.ID, "user-1", models.RunModeWebhook, map[string]any{"text": "hello"})
	require.NoError(t, err)

	run := h.awaitTerminal(t, runID)

	assert.Equal(t, models.RunStatusSuccess, run.Status)
	assert.NotNil(t, run.FinishedAt)

	for _, name := range []string{"Start", "First", "Second"} {
		outcome, ok := run.Results[name]
		require.True(t, ok, name)
		assert.True(t, outcome.Success, name)
	}
}

func TestStartRunActivatesInactiveWorkflow(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	wf := testutil.CreateTestWorkflow([]*models.Node{
		testutil.CreateTestNode(testutil.WithTriggerRole(), testutil.WithName("Start")),
	}, nil)
	wf.Active = false
	require.NoError(t, h.store.SaveWorkflow(ctx, wf))

	runID, err := h.coordinator.StartRun(ctx, wf.ID, "user-1", models.RunModeManual, nil)
	require.NoError(t, err)

	stored, err := h.store.WorkflowByID(ctx, wf.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)

	h.awaitTerminal(t, runID)
}

func TestStartRunCycleFailsRun(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	wf := testutil.CreateTestWorkflow([]*models.Node{
		testutil.CreateTestNode(testutil.WithTriggerRole(), testutil.WithName("Start")),
		testutil.CreateTestNode(testutil.WithName("A")),
		testutil.CreateTestNode(testutil.WithName("B")),
	}, models.ConnectionMap{
		"Start": {{{Node: "A"}}},
		"A":     {{{Node: "B"}}},
		"B":     {{{Node: "A"}}},
	})
	require.NoError(t, h.store.SaveWorkflow(ctx, wf))

	runID, err := h.coordinator.StartRun(ctx, wf.ID, "user-1", models.RunModeManual, nil)
	require.NoError(t, err)

	run := h.awaitTerminal(t, runID)

	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "cycle detected")
}

func TestCancelRunIsIdempotent(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	run, err := h.store.CreateRun(ctx, "wf-1", "user-1", models.RunModeManual)
	require.NoError(t, err)

	require.NoError(t, h.coordinator.CancelRun(ctx, run.ID, "user-1"))

	first, err := h.store.RunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCancelled, first.Status)
	require.NotNil(t, first.FinishedAt)

	// Second cancel must not error or move the finish timestamp.
	require.NoError(t, h.coordinator.CancelRun(ctx, run.ID, "user-1"))

	second, err := h.store.RunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCancelled, second.Status)
	assert.Equal(t, first.FinishedAt, second.FinishedAt)
}

func TestCancelThenLateCompletionStaysCancelled(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	run, err := h.store.CreateRun(ctx, "wf-1", "user-1", models.RunModeManual)
	require.NoError(t, err)

	require.NoError(t, h.coordinator.CancelRun(ctx, run.ID, "user-1"))

	// A traversal finishing after the cancel attempts its terminal write; the
	// ledger must absorb it without flipping the status.
	now := time.Now().UTC()
	require.NoError(t, h.store.TransitionRun(ctx, run.ID, models.RunStatusSuccess, persistence.RunFields{
		Results:    map[string]models.NodeOutcome{"Start": {Success: true}},
		FinishedAt: &now,
	}))

	stored, err := h.store.RunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCancelled, stored.Status)
}
