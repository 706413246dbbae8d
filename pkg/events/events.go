// Package events defines the run lifecycle events published on the event
// bus.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowgrid/flowgrid/pkg/models"
)

type EventType string

// Topic carries all run lifecycle events.
const Topic = "flowgrid.runs"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// RunDispatchedEvent hands a freshly created run to the dispatcher. The
	// publisher returns to its caller without waiting for the traversal.
	RunDispatchedEvent EventType = "run.dispatched"

	RunStartedEvent   EventType = "run.started"
	RunCompletedEvent EventType = "run.completed"
	RunFailedEvent    EventType = "run.failed"
	RunCancelledEvent EventType = "run.cancelled"

	NodeFinishedEvent EventType = "node.finished"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

type RunDispatched struct {
	BaseEvent

	RunID       string         `json:"run_id"`
	UserID      string         `json:"user_id"`
	Mode        models.RunMode `json:"mode"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

func (e RunDispatched) GetType() EventType {
	return RunDispatchedEvent
}

type RunStarted struct {
	BaseEvent

	RunID string `json:"run_id"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

type RunCompleted struct {
	BaseEvent

	RunID         string        `json:"run_id"`
	NodesExecuted int           `json:"nodes_executed"`
	Duration      time.Duration `json:"duration"`
}

func (e RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

type RunFailed struct {
	BaseEvent

	RunID    string        `json:"run_id"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

type RunCancelled struct {
	BaseEvent

	RunID       string `json:"run_id"`
	CancelledBy string `json:"cancelled_by"`
}

func (e RunCancelled) GetType() EventType {
	return RunCancelledEvent
}

type NodeFinished struct {
	BaseEvent

	RunID    string             `json:"run_id"`
	NodeID   string             `json:"node_id"`
	NodeName string             `json:"node_name"`
	Outcome  models.NodeOutcome `json:"outcome"`
}

func (e NodeFinished) GetType() EventType {
	return NodeFinishedEvent
}
