// Package trigger provides the trigger node executor.
package trigger

import (
	"context"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// Executor handles the trigger node. It performs no work: it echoes the
// current run data back as its outcome, seeding the data scope for the
// first action node.
type Executor struct{}

// NewExecutor creates the trigger executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Kind returns the node kind this executor handles.
func (e *Executor) Kind() models.NodeKind {
	return models.KindTrigger
}

// Execute echoes the run's current data.
func (e *Executor) Execute(_ context.Context, _ *models.Node, rc *models.RunContext, _ map[string]any) models.NodeOutcome {
	return models.NodeOutcome{
		Success: true,
		Data:    rc.Current,
		Message: "workflow triggered",
	}
}

// Schema returns the parameter schema. Triggers accept anything.
func (e *Executor) Schema() map[string]any {
	return map[string]any{}
}
