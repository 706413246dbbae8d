// Package protocol defines the contracts between the graph walker and node
// executors.
package protocol

import (
	"context"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// NodeExecutor performs the work of one node kind. Execute returns an
// outcome, never an error: executor failures (missing credential, provider
// error, timeout) are data the walker records and traverses past.
//
// The credential argument is the resolved secret payload, or nil when the
// node carries no reference. Executors that require one fail fast with a
// descriptive outcome; executors that accept inline secret overrides may
// recover from nil.
type NodeExecutor interface {
	// Kind returns the node kind this executor handles.
	Kind() models.NodeKind

	// Execute runs the node against the current run context.
	Execute(ctx context.Context, node *models.Node, rc *models.RunContext, credential map[string]any) models.NodeOutcome

	// Schema returns the JSON schema for the node's parameters. An empty map
	// means the executor accepts anything.
	Schema() map[string]any
}
