package email

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowgrid/flowgrid/pkg/models"
)

func newRunContext() *models.RunContext {
	return &models.RunContext{
		Current: map[string]any{"text": "report body"},
		Results: map[string]models.NodeOutcome{},
	}
}

func TestMissingCredentialFailsFast(t *testing.T) {
	executor := NewExecutor()

	node := &models.Node{Name: "Notify", Kind: "email", Parameters: map[string]any{"to": "a@b.c"}}

	outcome := executor.Execute(context.Background(), node, newRunContext(), nil)

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "credential")
}

func TestMissingHostFails(t *testing.T) {
	executor := NewExecutor()

	node := &models.Node{Name: "Notify", Kind: "email", Parameters: map[string]any{"to": "a@b.c"}}

	outcome := executor.Execute(context.Background(), node, newRunContext(), map[string]any{"from": "x@y.z"})

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "host")
}

func TestMissingRecipientFails(t *testing.T) {
	executor := NewExecutor()

	credential := map[string]any{"host": "smtp.example.com", "from": "x@y.z"}
	node := &models.Node{Name: "Notify", Kind: "email", Parameters: map[string]any{}}

	outcome := executor.Execute(context.Background(), node, newRunContext(), credential)

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "to")
}

func TestMissingSenderFails(t *testing.T) {
	executor := NewExecutor()

	credential := map[string]any{"host": "smtp.example.com"}
	node := &models.Node{Name: "Notify", Kind: "email", Parameters: map[string]any{"to": "a@b.c"}}

	outcome := executor.Execute(context.Background(), node, newRunContext(), credential)

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "sender")
}

func TestDialFailureBecomesFailureOutcome(t *testing.T) {
	executor := NewExecutor()
	executor.dial = func(_ string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}

	credential := map[string]any{"host": "smtp.example.com", "port": float64(2525), "from": "x@y.z"}
	node := &models.Node{
		Name:       "Notify",
		Kind:       "email",
		Parameters: map[string]any{"to": "a@b.c", "subject": "report", "usePreviousResult": true},
	}

	outcome := executor.Execute(context.Background(), node, newRunContext(), credential)

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "connection refused")
}
