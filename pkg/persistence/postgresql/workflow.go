package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

// Workflows returns all workflows from the database.
func (r *WorkflowRepository) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	query := `
		SELECT
			id
		  , name
		  , active
		  , nodes
		  , connections
		  , owner_id
		  , created_at
		  , updated_at
		FROM workflows
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

// WorkflowByID returns a workflow by its ID.
func (r *WorkflowRepository) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `
		SELECT
			id
		  , name
		  , active
		  , nodes
		  , connections
		  , owner_id
		  , created_at
		  , updated_at
		FROM workflows
		WHERE id = $1
	`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, fmt.Errorf("failed to query workflow %s: %w", id, err)
	}

	return workflow, nil
}

// SaveWorkflow inserts or updates a workflow definition.
func (r *WorkflowRepository) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = time.Now().UTC()
	}

	workflow.UpdatedAt = time.Now().UTC()

	nodes, err := json.Marshal(workflow.Nodes)
	if err != nil {
		return fmt.Errorf("failed to encode nodes: %w", err)
	}

	connections, err := json.Marshal(workflow.Connections)
	if err != nil {
		return fmt.Errorf("failed to encode connections: %w", err)
	}

	query := `
		INSERT INTO workflows (id, name, active, nodes, connections, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			active = EXCLUDED.active,
			nodes = EXCLUDED.nodes,
			connections = EXCLUDED.connections,
			owner_id = EXCLUDED.owner_id,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID, workflow.Name, workflow.Active, nodes, connections,
		workflow.OwnerID, workflow.CreatedAt, workflow.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	return nil
}

// SetWorkflowActive flips the workflow's active flag.
func (r *WorkflowRepository) SetWorkflowActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE workflows SET active = $1, updated_at = NOW() WHERE id = $2", active, id)
	if err != nil {
		return fmt.Errorf("failed to update workflow %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of workflow %s: %w", id, err)
	}

	if affected == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}

// DeleteWorkflow removes a workflow definition.
func (r *WorkflowRepository) DeleteWorkflow(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete of workflow %s: %w", id, err)
	}

	if affected == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow    models.Workflow
		nodes       []byte
		connections []byte
		ownerID     sql.NullString
	)

	err := row.Scan(&workflow.ID, &workflow.Name, &workflow.Active, &nodes,
		&connections, &ownerID, &workflow.CreatedAt, &workflow.UpdatedAt)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(nodes, &workflow.Nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nodes: %w", err)
	}

	err = json.Unmarshal(connections, &workflow.Connections)
	if err != nil {
		return nil, fmt.Errorf("failed to decode connections: %w", err)
	}

	workflow.OwnerID = ownerID.String

	return &workflow, nil
}
