// Package models defines the core domain models for graph-based workflow execution.
package models

import "time"

// Connection points at a downstream node by name. Name-based addressing is
// the authoring format; the engine translates names to stable node IDs once
// per run before traversal.
type Connection struct {
	Node string `json:"node" validate:"required"`
}

// ConnectionMap maps a source node name to its branch groups. Each branch
// group is an ordered list of targets; groups of the same source are walked
// in order, one group fully to its leaves before the next starts.
type ConnectionMap map[string][][]Connection

// Workflow is the persisted graph definition: an ordered node list plus the
// connection map. The engine reads it as an immutable snapshot for the
// duration of one run.
type Workflow struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"        validate:"required,min=3"`
	Active      bool          `json:"active"`
	Nodes       []*Node       `json:"nodes"       validate:"dive"`
	Connections ConnectionMap `json:"connections"`
	OwnerID     string        `json:"owner_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TriggerNode returns the workflow's trigger node, if any. A graph carries at
// most one node with the trigger role.
func (w *Workflow) TriggerNode() *Node {
	for _, node := range w.Nodes {
		if node.IsTrigger() {
			return node
		}
	}

	return nil
}

// NodeByName returns the node with the given name. When names are duplicated
// the last definition wins, matching the name index the walker builds.
func (w *Workflow) NodeByName(name string) *Node {
	var found *Node

	for _, node := range w.Nodes {
		if node.Name == name {
			found = node
		}
	}

	return found
}

// NodeByID returns the node with the given stable identifier.
func (w *Workflow) NodeByID(id string) *Node {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}
