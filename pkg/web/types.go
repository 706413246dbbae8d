// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/flowgrid/flowgrid/pkg/models"

// CreateWorkflowRequest is the request body for saving a workflow graph. The
// full node list and connection map are part of the document; there is no
// per-node CRUD surface.
type CreateWorkflowRequest struct {
	Name        string               `json:"name"        validate:"required,min=3"`
	Nodes       []*models.Node       `json:"nodes"       validate:"dive"`
	Connections models.ConnectionMap `json:"connections"`
	OwnerID     string               `json:"owner_id"    validate:"required"`
	Active      bool                 `json:"active"`
}

// RunRequest is the optional body for starting a run manually. Data seeds
// the run's initial data scope.
type RunRequest struct {
	Data map[string]any `json:"data"`
}

// RunStartedResponse acknowledges a dispatched run. The caller polls the run
// endpoint for progress; nothing else is pushed back.
type RunStartedResponse struct {
	RunID string `json:"run_id"`
}

// CreateCredentialRequest is the request body for storing a secret payload.
type CreateCredentialRequest struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"    validate:"required,min=1"`
	Kind    string         `json:"kind"    validate:"required"`
	Payload map[string]any `json:"payload" validate:"required"`
	OwnerID string         `json:"owner_id"`
}
