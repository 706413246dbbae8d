package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
)

const (
	workflowsKind   = "workflows"
	runsKind        = "runs"
	credentialsKind = "credentials"
)

// transitionScript applies a conditional status transition server-side.
// Returns -1 when the run does not exist, 0 when it is already terminal
// (no-op), 1 when the transition was applied.
var transitionScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
	return -1
end

local run = cjson.decode(raw)
if run['status'] == 'success' or run['status'] == 'failed' or run['status'] == 'cancelled' then
	return 0
end

run['status'] = ARGV[1]
if ARGV[2] ~= '' then
	run['results'] = cjson.decode(ARGV[2])
end
if ARGV[3] ~= '' then
	run['error'] = ARGV[3]
end
if ARGV[4] ~= '' then
	run['finished_at'] = ARGV[4]
end

redis.call('SET', KEYS[1], cjson.encode(run))
return 1
`)

// Workflows returns all stored workflows.
func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	ids, err := p.scanIDs(ctx, workflowsKind)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := p.WorkflowByID(ctx, id)
		if err != nil {
			if persistence.IsWorkflowNotFound(err) {
				continue
			}

			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

// WorkflowByID returns a workflow snapshot by its ID.
func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	found, err := p.get(ctx, workflowsKind, id, &workflow)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.ErrWorkflowNotFound
	}

	return &workflow, nil
}

// SaveWorkflow stores a workflow definition.
func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = time.Now().UTC()
	}

	workflow.UpdatedAt = time.Now().UTC()

	return p.set(ctx, workflowsKind, workflow.ID, workflow)
}

// SetWorkflowActive flips the workflow's active flag.
func (p *Persistence) SetWorkflowActive(ctx context.Context, id string, active bool) error {
	workflow, err := p.WorkflowByID(ctx, id)
	if err != nil {
		return err
	}

	workflow.Active = active

	return p.SaveWorkflow(ctx, workflow)
}

// DeleteWorkflow removes a workflow definition.
func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	deleted, err := p.client.Del(ctx, key(workflowsKind, id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	if deleted == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}

// CreateRun opens a new pending run in the ledger.
func (p *Persistence) CreateRun(ctx context.Context, workflowID, userID string, mode models.RunMode) (*models.Run, error) {
	run := &models.Run{
		ID:         "run-" + uuid.New().String(),
		WorkflowID: workflowID,
		UserID:     userID,
		Mode:       mode,
		Status:     models.RunStatusPending,
		StartedAt:  time.Now().UTC(),
	}

	err := p.set(ctx, runsKind, run.ID, run)
	if err != nil {
		return nil, err
	}

	return run, nil
}

// RunByID returns a run record by its ID.
func (p *Persistence) RunByID(ctx context.Context, id string) (*models.Run, error) {
	var run models.Run

	found, err := p.get(ctx, runsKind, id, &run)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.ErrRunNotFound
	}

	return &run, nil
}

// TransitionRun conditionally moves a run to a new status via a server-side
// script, keeping the check-then-write atomic. Terminal runs are left
// untouched and the call still succeeds.
func (p *Persistence) TransitionRun(ctx context.Context, id string, status models.RunStatus, fields persistence.RunFields) error {
	var results string

	if fields.Results != nil {
		encoded, err := json.Marshal(fields.Results)
		if err != nil {
			return fmt.Errorf("failed to encode run results: %w", err)
		}

		results = string(encoded)
	}

	var finishedAt string
	if fields.FinishedAt != nil {
		finishedAt = fields.FinishedAt.UTC().Format(time.RFC3339Nano)
	}

	applied, err := transitionScript.Run(ctx, p.client,
		[]string{key(runsKind, id)},
		string(status), results, fields.Error, finishedAt).Int()
	if err != nil {
		return fmt.Errorf("failed to transition run %s to %s: %w", id, status, err)
	}

	if applied == -1 {
		return persistence.ErrRunNotFound
	}

	return nil
}

// CredentialByID returns a stored credential by its ID.
func (p *Persistence) CredentialByID(ctx context.Context, id string) (*models.Credential, error) {
	var credential models.Credential

	found, err := p.get(ctx, credentialsKind, id, &credential)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.ErrCredentialNotFound
	}

	return &credential, nil
}

// SaveCredential stores a credential payload.
func (p *Persistence) SaveCredential(ctx context.Context, credential *models.Credential) error {
	if credential.CreatedAt.IsZero() {
		credential.CreatedAt = time.Now().UTC()
	}

	return p.set(ctx, credentialsKind, credential.ID, credential)
}
