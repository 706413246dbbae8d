// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/google/uuid"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// CreateTestNode creates an action node with default values that can be
// overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:         uuid.New().String(),
		Name:       "Test Node",
		Role:       models.NodeRoleAction,
		Kind:       "noop",
		Parameters: map[string]any{},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithTriggerRole configures the node as the graph's trigger node.
func WithTriggerRole() func(*models.Node) {
	return func(n *models.Node) {
		n.Role = models.NodeRoleTrigger
		n.Kind = "trigger"
	}
}

// WithName sets the node name.
func WithName(name string) func(*models.Node) {
	return func(n *models.Node) {
		n.Name = name
	}
}

// WithID sets the node ID.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// WithKind sets the node kind.
func WithKind(kind string) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = kind
	}
}

// WithParameters sets the node parameters.
func WithParameters(parameters map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Parameters = parameters
	}
}

// WithCredentialRef sets the node credential reference.
func WithCredentialRef(ref any) func(*models.Node) {
	return func(n *models.Node) {
		n.CredentialRef = ref
	}
}

// WithDisabled marks the node disabled.
func WithDisabled() func(*models.Node) {
	return func(n *models.Node) {
		n.Disabled = true
	}
}

// CreateTestWorkflow assembles a workflow from nodes and a connection map
// keyed by source node name.
func CreateTestWorkflow(nodes []*models.Node, connections models.ConnectionMap) *models.Workflow {
	if connections == nil {
		connections = models.ConnectionMap{}
	}

	return &models.Workflow{
		ID:          "wf-" + uuid.New().String()[:8],
		Name:        "Test Workflow",
		Active:      true,
		Nodes:       nodes,
		Connections: connections,
		OwnerID:     "user-1",
	}
}

// Chain builds the linear connection map node1 -> node2 -> ... -> nodeN.
func Chain(names ...string) models.ConnectionMap {
	connections := models.ConnectionMap{}

	for i := 0; i+1 < len(names); i++ {
		connections[names[i]] = [][]models.Connection{{{Node: names[i+1]}}}
	}

	return connections
}
