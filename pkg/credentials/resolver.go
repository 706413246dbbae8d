// Package credentials resolves node credential references against the
// secret store.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
)

// ErrCredentialMissing indicates a node carries no credential reference at
// all. Executors that accept inline secret overrides treat this as
// recoverable; others fail the node.
var ErrCredentialMissing = errors.New("node has no credential reference")

// NormalizeRef extracts one canonical credential identifier from the shapes
// graph definitions use: a bare identifier string, an object carrying {id},
// or an object whose single key's value carries {id} or is itself the
// identifier.
func NormalizeRef(ref any) (string, error) {
	switch v := ref.(type) {
	case nil:
		return "", ErrCredentialMissing
	case string:
		if v == "" {
			return "", ErrCredentialMissing
		}

		return v, nil
	case map[string]any:
		if id, ok := v["id"].(string); ok && id != "" {
			return id, nil
		}

		for _, nested := range v {
			switch n := nested.(type) {
			case string:
				if n != "" {
					return n, nil
				}
			case map[string]any:
				if id, ok := n["id"].(string); ok && id != "" {
					return id, nil
				}
			}
		}

		return "", fmt.Errorf("credential reference %v carries no identifier", ref)
	default:
		return "", fmt.Errorf("unsupported credential reference type %T", ref)
	}
}

// Resolver fetches credential payloads for nodes.
type Resolver struct {
	store persistence.CredentialRepository
}

// NewResolver creates a resolver backed by the given secret store.
func NewResolver(store persistence.CredentialRepository) *Resolver {
	return &Resolver{store: store}
}

// Resolve normalizes the node's credential reference and fetches the secret
// payload. Returns ErrCredentialMissing when the node has no reference and
// persistence.ErrCredentialNotFound when the store has no matching record or
// the payload is not a structured map.
func (r *Resolver) Resolve(ctx context.Context, node *models.Node) (map[string]any, error) {
	id, err := NormalizeRef(node.CredentialRef)
	if err != nil {
		return nil, err
	}

	credential, err := r.store.CredentialByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if credential.Payload == nil {
		return nil, persistence.ErrCredentialNotFound
	}

	return credential.Payload, nil
}
