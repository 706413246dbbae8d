package models

import "encoding/json"

// RunContext is the in-memory state threaded through one run's traversal.
// The walker is its sole mutator; it is never shared across goroutines.
type RunContext struct {
	RunID      string                 `json:"run_id"`
	WorkflowID string                 `json:"workflow_id"`
	UserID     string                 `json:"user_id"`
	Mode       RunMode                `json:"mode"`
	Current    map[string]any         `json:"current"`
	Results    map[string]NodeOutcome `json:"results"`

	// PreviousNode is the name of the node executed immediately before the
	// current one, in traversal order. Used by executors that splice in the
	// preceding node's textual result.
	PreviousNode string `json:"-"`
}

// NewRunContext creates the context for a fresh run, seeded with optional
// trigger data as the current scope.
func NewRunContext(run *Run, triggerData map[string]any) *RunContext {
	current := triggerData
	if current == nil {
		current = make(map[string]any)
	}

	return &RunContext{
		RunID:      run.ID,
		WorkflowID: run.WorkflowID,
		UserID:     run.UserID,
		Mode:       run.Mode,
		Current:    current,
		Results:    make(map[string]NodeOutcome),
	}
}

// PreviousText returns the textual result of the previously executed node,
// for executors whose parameters request splicing it in. A "text" key in the
// predecessor's data wins; otherwise the whole data map is rendered as JSON.
// When no predecessor is addressable the aggregate current data is used.
func (rc *RunContext) PreviousText() string {
	if outcome, ok := rc.PreviousOutcome(); ok && outcome.Data != nil {
		if text, ok := outcome.Data["text"].(string); ok {
			return text
		}

		return jsonString(outcome.Data)
	}

	if text, ok := rc.Current["text"].(string); ok {
		return text
	}

	return jsonString(rc.Current)
}

func jsonString(data map[string]any) string {
	encoded, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	return string(encoded)
}

// PreviousOutcome returns the recorded outcome of the previously executed
// node, if any.
func (rc *RunContext) PreviousOutcome() (NodeOutcome, bool) {
	if rc.PreviousNode == "" {
		return NodeOutcome{}, false
	}

	outcome, ok := rc.Results[rc.PreviousNode]

	return outcome, ok
}
