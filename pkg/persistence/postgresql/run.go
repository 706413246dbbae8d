package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
)

// RunRepository handles run ledger database operations.
type RunRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sql.DB, logger *slog.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

// CreateRun opens a new pending run in the ledger.
func (r *RunRepository) CreateRun(ctx context.Context, workflowID, userID string, mode models.RunMode) (*models.Run, error) {
	run := &models.Run{
		ID:         "run-" + uuid.New().String(),
		WorkflowID: workflowID,
		UserID:     userID,
		Mode:       mode,
		Status:     models.RunStatusPending,
		StartedAt:  time.Now().UTC(),
	}

	query := `
		INSERT INTO runs (id, workflow_id, user_id, mode, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.WorkflowID, run.UserID, run.Mode, run.Status, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// RunByID returns a run record by its ID.
func (r *RunRepository) RunByID(ctx context.Context, id string) (*models.Run, error) {
	query := `
		SELECT
			id
		  , workflow_id
		  , user_id
		  , mode
		  , status
		  , results
		  , error
		  , started_at
		  , finished_at
		FROM runs
		WHERE id = $1
	`

	var (
		run        models.Run
		userID     sql.NullString
		results    []byte
		runError   sql.NullString
		finishedAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(&run.ID, &run.WorkflowID,
		&userID, &run.Mode, &run.Status, &results, &runError, &run.StartedAt, &finishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrRunNotFound
		}

		return nil, fmt.Errorf("failed to query run %s: %w", id, err)
	}

	run.UserID = userID.String
	run.Error = runError.String

	if results != nil {
		err = json.Unmarshal(results, &run.Results)
		if err != nil {
			return nil, fmt.Errorf("failed to decode run results: %w", err)
		}
	}

	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}

	return &run, nil
}

// TransitionRun conditionally moves a run to a new status. The WHERE clause
// makes the write atomic and idempotent: terminal runs match zero rows, and
// the call reports success without touching them.
func (r *RunRepository) TransitionRun(ctx context.Context, id string, status models.RunStatus, fields persistence.RunFields) error {
	var results []byte

	if fields.Results != nil {
		encoded, err := json.Marshal(fields.Results)
		if err != nil {
			return fmt.Errorf("failed to encode run results: %w", err)
		}

		results = encoded
	}

	query := `
		UPDATE runs
		SET status = $1,
			results = COALESCE($2, results),
			error = COALESCE(NULLIF($3, ''), error),
			finished_at = COALESCE($4, finished_at)
		WHERE id = $5 AND status IN ('pending', 'running')
	`

	result, err := r.db.ExecContext(ctx, query, status, results, fields.Error, fields.FinishedAt, id)
	if err != nil {
		return fmt.Errorf("failed to transition run %s to %s: %w", id, status, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check transition of run %s: %w", id, err)
	}

	if affected == 0 {
		// Either the run does not exist or it is already terminal. Only the
		// former is an error.
		_, err := r.RunByID(ctx, id)

		return err
	}

	return nil
}
