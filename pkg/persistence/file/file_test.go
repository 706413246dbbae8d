package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
)

func newTestPersistence(t *testing.T) *Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func TestWorkflowRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	workflow := &models.Workflow{
		ID:   "wf-1",
		Name: "Greeting flow",
		Nodes: []*models.Node{
			{ID: "n1", Name: "Start", Role: models.NodeRoleTrigger, Kind: "trigger"},
		},
		Connections: models.ConnectionMap{
			"Start": {{{Node: "Send"}}},
		},
	}

	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	loaded, err := p.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Greeting flow", loaded.Name)
	assert.Len(t, loaded.Nodes, 1)
	assert.Equal(t, "Send", loaded.Connections["Start"][0][0].Node)
	assert.False(t, loaded.Active)

	require.NoError(t, p.SetWorkflowActive(ctx, "wf-1", true))

	loaded, err = p.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.True(t, loaded.Active)
}

func TestWorkflowNotFound(t *testing.T) {
	p := newTestPersistence(t)

	_, err := p.WorkflowByID(context.Background(), "missing")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestCreateRunStartsPending(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	run, err := p.CreateRun(ctx, "wf-1", "user-1", models.RunModeManual)
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, models.RunStatusPending, run.Status)
	assert.Equal(t, models.RunModeManual, run.Mode)
	assert.Nil(t, run.FinishedAt)
}

func TestTransitionRunIdempotentOnTerminal(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	run, err := p.CreateRun(ctx, "wf-1", "user-1", models.RunModeManual)
	require.NoError(t, err)

	finished := time.Now().UTC()
	fields := persistence.RunFields{Error: "no trigger node found", FinishedAt: &finished}

	require.NoError(t, p.TransitionRun(ctx, run.ID, models.RunStatusFailed, fields))

	loaded, err := p.RunByID(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.FinishedAt)
	firstFinish := *loaded.FinishedAt

	// A second terminal write must not error and must not touch the record.
	later := finished.Add(time.Minute)

	require.NoError(t, p.TransitionRun(ctx, run.ID, models.RunStatusFailed, persistence.RunFields{FinishedAt: &later}))
	require.NoError(t, p.TransitionRun(ctx, run.ID, models.RunStatusSuccess, persistence.RunFields{}))

	loaded, err = p.RunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, loaded.Status)
	assert.Equal(t, "no trigger node found", loaded.Error)
	assert.Equal(t, firstFinish, *loaded.FinishedAt)
}

func TestTransitionRunWritesResults(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	run, err := p.CreateRun(ctx, "wf-1", "user-1", models.RunModeWebhook)
	require.NoError(t, err)

	require.NoError(t, p.TransitionRun(ctx, run.ID, models.RunStatusRunning, persistence.RunFields{}))

	results := map[string]models.NodeOutcome{
		"Start": {Success: true, Data: map[string]any{"text": "hello"}},
	}
	finished := time.Now().UTC()

	require.NoError(t, p.TransitionRun(ctx, run.ID, models.RunStatusSuccess, persistence.RunFields{
		Results:    results,
		FinishedAt: &finished,
	}))

	loaded, err := p.RunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, loaded.Status)
	assert.Equal(t, "hello", loaded.Results["Start"].Data["text"])
}

func TestTransitionRunNotFound(t *testing.T) {
	p := newTestPersistence(t)

	err := p.TransitionRun(context.Background(), "missing", models.RunStatusRunning, persistence.RunFields{})
	assert.ErrorIs(t, err, persistence.ErrRunNotFound)
}

func TestCredentialRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	require.NoError(t, p.SaveCredential(ctx, &models.Credential{
		ID:      "cred_1",
		Name:    "Team bot",
		Kind:    "telegram",
		Payload: map[string]any{"botToken": "t0k3n"},
	}))

	credential, err := p.CredentialByID(ctx, "cred_1")
	require.NoError(t, err)
	assert.Equal(t, "t0k3n", credential.Payload["botToken"])

	_, err = p.CredentialByID(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrCredentialNotFound)
}
