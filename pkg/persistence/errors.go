// Package persistence provides standardized error types for storage operations.
package persistence

import "errors"

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrRunNotFound indicates a run was not found by the given identifier.
	ErrRunNotFound = errors.New("run not found")

	// ErrCredentialNotFound indicates the secret store has no record for the
	// given identifier, or its payload is not a structured map.
	ErrCredentialNotFound = errors.New("credential not found")
)

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsRunNotFound checks if an error indicates a run was not found.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// IsCredentialNotFound checks if an error indicates a credential was not found.
func IsCredentialNotFound(err error) bool {
	return errors.Is(err, ErrCredentialNotFound)
}
