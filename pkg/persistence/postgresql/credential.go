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

// CredentialRepository handles secret store database operations.
type CredentialRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCredentialRepository creates a new credential repository.
func NewCredentialRepository(db *sql.DB, logger *slog.Logger) *CredentialRepository {
	return &CredentialRepository{db: db, logger: logger}
}

// CredentialByID returns a stored credential by its ID.
func (r *CredentialRepository) CredentialByID(ctx context.Context, id string) (*models.Credential, error) {
	query := `
		SELECT
			id
		  , name
		  , kind
		  , payload
		  , owner_id
		  , created_at
		FROM credentials
		WHERE id = $1
	`

	var (
		credential models.Credential
		payload    []byte
		ownerID    sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(&credential.ID, &credential.Name,
		&credential.Kind, &payload, &ownerID, &credential.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrCredentialNotFound
		}

		return nil, fmt.Errorf("failed to query credential %s: %w", id, err)
	}

	err = json.Unmarshal(payload, &credential.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode credential payload: %w", err)
	}

	credential.OwnerID = ownerID.String

	return &credential, nil
}

// SaveCredential inserts or updates a credential.
func (r *CredentialRepository) SaveCredential(ctx context.Context, credential *models.Credential) error {
	if credential.CreatedAt.IsZero() {
		credential.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(credential.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode credential payload: %w", err)
	}

	query := `
		INSERT INTO credentials (id, name, kind, payload, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			kind = EXCLUDED.kind,
			payload = EXCLUDED.payload
	`

	_, err = r.db.ExecContext(ctx, query, credential.ID, credential.Name,
		credential.Kind, payload, credential.OwnerID, credential.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save credential %s: %w", credential.ID, err)
	}

	return nil
}
