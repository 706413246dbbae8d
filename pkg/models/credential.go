package models

import "time"

// Credential is a secret payload stored by the secret store and referenced
// indirectly from nodes. The payload shape is provider-specific (bot tokens,
// SMTP accounts, API keys); the engine never interprets it beyond key lookup.
type Credential struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Kind      string         `json:"kind"`
	Payload   map[string]any `json:"payload"`
	OwnerID   string         `json:"owner_id"`
	CreatedAt time.Time      `json:"created_at"`
}
