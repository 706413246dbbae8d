package registry

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgrid/flowgrid/pkg/models"
)

type fakeExecutor struct {
	kind   models.NodeKind
	schema map[string]any
}

func (e *fakeExecutor) Kind() models.NodeKind {
	return e.kind
}

func (e *fakeExecutor) Execute(_ context.Context, _ *models.Node, _ *models.RunContext, _ map[string]any) models.NodeOutcome {
	return models.NodeOutcome{Success: true}
}

func (e *fakeExecutor) Schema() map[string]any {
	return e.schema
}

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func TestExecutorForRegisteredKind(t *testing.T) {
	reg := newTestRegistry()
	telegram := &fakeExecutor{kind: models.KindTelegram}
	reg.Register(telegram)

	executor, err := reg.ExecutorFor(models.KindTelegram)
	require.NoError(t, err)
	assert.Same(t, telegram, executor)
}

func TestExecutorForUnknownKindFallsBack(t *testing.T) {
	reg := newTestRegistry()
	fallback := &fakeExecutor{kind: models.KindNoop}
	reg.RegisterFallback(fallback)

	executor, err := reg.ExecutorFor(models.KindEmail)
	require.NoError(t, err)
	assert.Same(t, fallback, executor)
}

func TestExecutorForNoFallbackErrors(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.ExecutorFor(models.KindEmail)
	assert.Error(t, err)
}

func TestValidateParameters(t *testing.T) {
	reg := newTestRegistry()
	reg.Register(&fakeExecutor{
		kind: models.KindTelegram,
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"chatId": map[string]any{"type": "string"},
			},
			"required": []string{"chatId"},
		},
	})

	valid := &models.Node{Name: "Send", Kind: "telegram", Parameters: map[string]any{"chatId": "1"}}
	assert.NoError(t, reg.ValidateParameters(valid))

	invalid := &models.Node{Name: "Send", Kind: "telegram", Parameters: map[string]any{}}
	err := reg.ValidateParameters(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Send")
}

func TestValidateParametersEmptySchemaAcceptsAnything(t *testing.T) {
	reg := newTestRegistry()
	reg.Register(&fakeExecutor{kind: models.KindTrigger, schema: map[string]any{}})

	node := &models.Node{Name: "Start", Kind: "trigger", Parameters: map[string]any{"anything": 1}}
	assert.NoError(t, reg.ValidateParameters(node))
}
