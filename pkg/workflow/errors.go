package workflow

import "errors"

var (
	// ErrNoTriggerNode aborts a run before any node executes: the graph has
	// no node with the trigger role to start traversal from.
	ErrNoTriggerNode = errors.New("no trigger node found")

	// ErrCycleDetected aborts a run whose connection map loops back to an
	// already-visited node.
	ErrCycleDetected = errors.New("cycle detected in workflow graph")
)
