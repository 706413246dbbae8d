package models

// NodeOutcome is the structured result of one node execution. Node failures
// are data, never control-flow signals: a failing node reports
// Success=false and the walker continues to its descendants.
type NodeOutcome struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// AsMap exposes the outcome as a plain map for template path lookups and for
// serialization into the run ledger.
func (o NodeOutcome) AsMap() map[string]any {
	m := map[string]any{
		"success": o.Success,
	}

	if o.Data != nil {
		m["data"] = o.Data
	}

	if o.Message != "" {
		m["message"] = o.Message
	}

	if o.Error != "" {
		m["error"] = o.Error
	}

	return m
}

// FailedOutcome builds a failure outcome from an error message.
func FailedOutcome(message string) NodeOutcome {
	return NodeOutcome{Success: false, Error: message}
}
