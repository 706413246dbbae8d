package file

import (
	"context"
	"time"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
)

const credentialsDir = "credentials"

// CredentialByID returns a stored credential by its ID.
func (p *Persistence) CredentialByID(_ context.Context, id string) (*models.Credential, error) {
	var credential models.Credential

	found, err := p.read(credentialsDir, id, &credential)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.ErrCredentialNotFound
	}

	return &credential, nil
}

// SaveCredential stores a credential payload.
func (p *Persistence) SaveCredential(_ context.Context, credential *models.Credential) error {
	if credential.CreatedAt.IsZero() {
		credential.CreatedAt = time.Now().UTC()
	}

	return p.write(credentialsDir, credential.ID, credential)
}
