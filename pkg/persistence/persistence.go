// Package persistence provides the storage abstraction the engine depends
// on: the graph store, the run ledger, and the secret store.
package persistence

import (
	"context"
	"time"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// RunFields carries the optional fields written together with a status
// transition.
type RunFields struct {
	Results    map[string]models.NodeOutcome
	Error      string
	FinishedAt *time.Time
}

// WorkflowRepository is the graph store: the engine fetches snapshots and
// flips the active flag, nothing more.
type WorkflowRepository interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	SetWorkflowActive(ctx context.Context, id string, active bool) error
	DeleteWorkflow(ctx context.Context, id string) error
}

// RunRepository is the run ledger. TransitionRun must be atomic and
// idempotent against terminal states: a transition requested on a run whose
// status is already terminal is a no-op, never an error. This guards the
// race between a late-finishing detached run and an external cancel.
type RunRepository interface {
	CreateRun(ctx context.Context, workflowID, userID string, mode models.RunMode) (*models.Run, error)
	RunByID(ctx context.Context, id string) (*models.Run, error)
	TransitionRun(ctx context.Context, id string, status models.RunStatus, fields RunFields) error
}

// CredentialRepository is the secret store.
type CredentialRepository interface {
	CredentialByID(ctx context.Context, id string) (*models.Credential, error)
	SaveCredential(ctx context.Context, credential *models.Credential) error
}

type Persistence interface {
	WorkflowRepository
	RunRepository
	CredentialRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
