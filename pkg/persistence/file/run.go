package file

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
)

const runsDir = "runs"

// CreateRun opens a new pending run in the ledger.
func (p *Persistence) CreateRun(_ context.Context, workflowID, userID string, mode models.RunMode) (*models.Run, error) {
	run := &models.Run{
		ID:         "run-" + uuid.New().String(),
		WorkflowID: workflowID,
		UserID:     userID,
		Mode:       mode,
		Status:     models.RunStatusPending,
		StartedAt:  time.Now().UTC(),
	}

	err := p.write(runsDir, run.ID, run)
	if err != nil {
		return nil, err
	}

	return run, nil
}

// RunByID returns a run record by its ID.
func (p *Persistence) RunByID(_ context.Context, id string) (*models.Run, error) {
	var run models.Run

	found, err := p.read(runsDir, id, &run)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.ErrRunNotFound
	}

	return &run, nil
}

// TransitionRun conditionally moves a run to a new status. Runs already in a
// terminal state are left untouched; the call still succeeds so that a
// late-finishing traversal and an external cancel never conflict.
func (p *Persistence) TransitionRun(ctx context.Context, id string, status models.RunStatus, fields persistence.RunFields) error {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	run, err := p.RunByID(ctx, id)
	if err != nil {
		return err
	}

	if run.Status.Terminal() {
		return nil
	}

	run.Status = status

	if fields.Results != nil {
		run.Results = fields.Results
	}

	if fields.Error != "" {
		run.Error = fields.Error
	}

	if fields.FinishedAt != nil {
		run.FinishedAt = fields.FinishedAt
	}

	err = p.write(runsDir, run.ID, run)
	if err != nil {
		return fmt.Errorf("failed to transition run %s to %s: %w", id, status, err)
	}

	return nil
}
