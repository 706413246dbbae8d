// Package noop provides the fallback executor for unrecognized node kinds.
package noop

import (
	"context"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/template"
)

// Executor passes data through unchanged. It resolves the node's string
// parameters and reports them as its outcome data, so a graph containing an
// unknown node kind still runs end to end.
type Executor struct{}

// NewExecutor creates the no-op executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Kind returns the node kind this executor handles.
func (e *Executor) Kind() models.NodeKind {
	return models.KindNoop
}

// Execute resolves parameters and passes the current data through.
func (e *Executor) Execute(_ context.Context, node *models.Node, rc *models.RunContext, _ map[string]any) models.NodeOutcome {
	data := rc.Current

	if len(node.Parameters) > 0 {
		data = template.ResolveParams(node.Parameters, rc)
	}

	return models.NodeOutcome{
		Success: true,
		Data:    data,
		Message: "node kind '" + node.Kind + "' executed as no-op",
	}
}

// Schema returns the parameter schema. The no-op accepts anything.
func (e *Executor) Schema() map[string]any {
	return map[string]any{}
}
