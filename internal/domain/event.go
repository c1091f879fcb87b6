package domain

import (
	"encoding/json"
	"time"
)

// Click is an append-only redirect event.
type Click struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	IPHash     string    `json:"ip_hash"`
	UserAgent  string    `json:"user_agent"`
	Referrer   string    `json:"referrer"`
	CreatedAt  time.Time `json:"created_at"`
}

// Action names a privileged operation in the audit trail.
type Action string

const (
	ActionLogin   Action = "LOGIN"
	ActionApprove Action = "APPROVE_RESOURCE"
	ActionReject  Action = "REJECT_RESOURCE"
	ActionDelist  Action = "DELIST_RESOURCE"
	ActionRestore Action = "RESTORE_RESOURCE"
	ActionUpdate  Action = "UPDATE_RESOURCE"
	ActionDelete  Action = "DELETE_RESOURCE"
)

// AdminLog is an append-only audit record. ResourceID is empty for actions
// not tied to a resource.
type AdminLog struct {
	ID         string          `json:"id"`
	Action     Action          `json:"action"`
	IPHash     string          `json:"ip_hash"`
	ResourceID string          `json:"resource_id,omitempty"`
	Details    json.RawMessage `json:"details"`
	CreatedAt  time.Time       `json:"created_at"`
}
