// Package registry dispatches node execution to the executor registered for
// each node kind.
package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/protocol"
)

// Registry holds one executor per node kind. Dispatch is a closed enum
// lookup; unknown kinds fall back to the no-op executor so a graph with an
// unrecognized node kind still runs.
type Registry struct {
	logger    *slog.Logger
	executors map[models.NodeKind]protocol.NodeExecutor
	fallback  protocol.NodeExecutor
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		executors: make(map[models.NodeKind]protocol.NodeExecutor),
	}
}

// Register adds an executor under its own kind.
func (r *Registry) Register(executor protocol.NodeExecutor) {
	r.executors[executor.Kind()] = executor
}

// RegisterFallback sets the executor used for kinds with no registration.
func (r *Registry) RegisterFallback(executor protocol.NodeExecutor) {
	r.fallback = executor
}

// ExecutorFor returns the executor for the given kind, or the fallback.
func (r *Registry) ExecutorFor(kind models.NodeKind) (protocol.NodeExecutor, error) {
	if executor, ok := r.executors[kind]; ok {
		return executor, nil
	}

	if r.fallback != nil {
		return r.fallback, nil
	}

	return nil, fmt.Errorf("node kind '%s' not registered and no fallback configured", kind)
}

// ValidateParameters checks a node's parameters against the schema of the
// executor that will run it.
func (r *Registry) ValidateParameters(node *models.Node) error {
	executor, err := r.ExecutorFor(models.ParseKind(node.Kind))
	if err != nil {
		return err
	}

	schema := executor.Schema()
	if len(schema) == 0 {
		return nil
	}

	parameters := node.Parameters
	if parameters == nil {
		parameters = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(parameters),
	)
	if err != nil {
		return fmt.Errorf("failed to validate parameters of node %s: %w", node.Name, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			details = append(details, resultError.String())
		}

		return fmt.Errorf("invalid parameters for node %s: %s", node.Name, strings.Join(details, "; "))
	}

	return nil
}

// DescribeSchemas returns the registered parameter schemas keyed by kind,
// JSON-encoded for API consumers.
func (r *Registry) DescribeSchemas() (map[string]json.RawMessage, error) {
	schemas := make(map[string]json.RawMessage, len(r.executors))

	for kind, executor := range r.executors {
		encoded, err := json.Marshal(executor.Schema())
		if err != nil {
			return nil, fmt.Errorf("failed to encode schema for kind %s: %w", kind, err)
		}

		schemas[string(kind)] = encoded
	}

	return schemas, nil
}
