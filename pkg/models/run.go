package models

import "time"

// RunMode records how a run was started.
type RunMode string

const (
	RunModeManual  RunMode = "manual"
	RunModeWebhook RunMode = "webhook"
)

// RunStatus is the lifecycle state of a run. Transitions are monotonic:
// pending -> running -> {success|failed|cancelled}. Terminal states absorb
// any further transition attempt.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusSuccess   RunStatus = "success"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Terminal reports whether the status accepts no further transitions.
func (s RunStatus) Terminal() bool {
	return s == RunStatusSuccess || s == RunStatusFailed || s == RunStatusCancelled
}

// Run is one execution attempt of a workflow, owned by the run ledger. The
// engine only requests status transitions; it never mutates a Run in place.
type Run struct {
	ID         string                 `json:"id"`
	WorkflowID string                 `json:"workflow_id"`
	UserID     string                 `json:"user_id"`
	Mode       RunMode                `json:"mode"`
	Status     RunStatus              `json:"status"`
	Results    map[string]NodeOutcome `json:"results,omitempty"`
	Error      string                 `json:"error,omitempty"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt *time.Time             `json:"finished_at,omitempty"`
}
