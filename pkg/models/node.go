package models

import "strings"

// NodeRole distinguishes the single trigger node from action nodes.
type NodeRole string

const (
	NodeRoleTrigger NodeRole = "trigger"
	NodeRoleAction  NodeRole = "action"
)

// NodeKind is the closed set of executable node kinds. Free-text kinds from
// graph definitions are parsed into this enum once; unknown kinds fall back
// to KindNoop instead of failing dispatch.
type NodeKind string

const (
	KindTrigger  NodeKind = "trigger"
	KindTelegram NodeKind = "telegram"
	KindEmail    NodeKind = "email"
	KindOpenAI   NodeKind = "openai"
	KindNoop     NodeKind = "noop"
)

// ParseKind maps a free-text node kind onto the closed enum. Matching is
// case-insensitive and accepts the aliases graph definitions use in the wild.
func ParseKind(raw string) NodeKind {
	kind := strings.ToLower(strings.TrimSpace(raw))

	switch {
	case strings.Contains(kind, "trigger"):
		return KindTrigger
	case strings.Contains(kind, "telegram"), strings.Contains(kind, "message"):
		return KindTelegram
	case strings.Contains(kind, "email"), strings.Contains(kind, "mail"):
		return KindEmail
	case strings.Contains(kind, "openai"), strings.Contains(kind, "text-generat"), strings.Contains(kind, "generate-text"):
		return KindOpenAI
	default:
		return KindNoop
	}
}

// Node is one step in a workflow graph. Name is the join key used by the
// connection map and by node-result lookups in templates; ID is the stable
// identifier the walker routes on internally.
type Node struct {
	ID            string         `json:"id"         validate:"required"`
	Name          string         `json:"name"       validate:"required,min=1"`
	Role          NodeRole       `json:"role"       validate:"required,oneof=trigger action"`
	Kind          string         `json:"kind"       validate:"required"`
	Parameters    map[string]any `json:"parameters"`
	CredentialRef any            `json:"credentials,omitempty"`
	Disabled      bool           `json:"disabled"`
}

func (n *Node) IsTrigger() bool {
	return n.Role == NodeRoleTrigger
}

// ParamString returns a string-valued parameter, or "" when absent or not a
// string.
func (n *Node) ParamString(key string) string {
	value, _ := n.Parameters[key].(string)

	return value
}

// ParamBool returns a boolean parameter, treating absence as false.
func (n *Node) ParamBool(key string) bool {
	value, _ := n.Parameters[key].(bool)

	return value
}
