package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
)

const workflowsDir = "workflows"

// Workflows returns all stored workflows.
func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	entries, err := os.ReadDir(p.dir(workflowsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.Workflow{}, nil
		}

		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")

		workflow, err := p.WorkflowByID(ctx, id)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

// WorkflowByID returns a workflow snapshot by its ID.
func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	found, err := p.read(workflowsDir, id, &workflow)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.ErrWorkflowNotFound
	}

	return &workflow, nil
}

// SaveWorkflow stores a workflow definition.
func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = time.Now().UTC()
	}

	workflow.UpdatedAt = time.Now().UTC()

	return p.write(workflowsDir, workflow.ID, workflow)
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
func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	err := os.Remove(p.path(workflowsDir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.ErrWorkflowNotFound
		}

		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}
