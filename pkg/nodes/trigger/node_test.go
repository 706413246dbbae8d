package trigger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowgrid/flowgrid/pkg/models"
)

func TestTriggerEchoesCurrentData(t *testing.T) {
	executor := NewExecutor()
	rc := &models.RunContext{
		Current: map[string]any{"text": "hello"},
		Results: map[string]models.NodeOutcome{},
	}

	outcome := executor.Execute(context.Background(), &models.Node{Name: "Start"}, rc, nil)

	assert.True(t, outcome.Success)
	assert.Equal(t, "hello", outcome.Data["text"])
	assert.Equal(t, models.KindTrigger, executor.Kind())
}

func TestTriggerEmptyData(t *testing.T) {
	executor := NewExecutor()
	rc := &models.RunContext{Current: map[string]any{}, Results: map[string]models.NodeOutcome{}}

	outcome := executor.Execute(context.Background(), &models.Node{Name: "Start"}, rc, nil)

	assert.True(t, outcome.Success)
	assert.Empty(t, outcome.Data)
}
