package audit

import "time"

// Actions recorded in the audit trail.
const (
	ActionArm         = "arm"
	ActionDisarm      = "disarm"
	ActionPINRejected = "pin_rejected"
	ActionUserAdd     = "user_add"
	ActionUserModify  = "user_modify"
	ActionUserRemove  = "user_remove"
	ActionAdminSetup  = "admin_setup"
	ActionAdminChange = "admin_change"
)

// Entity types an entry can refer to.
const (
	EntityArea       = "area"
	EntityCredential = "credential"
)

// Sources an action can originate from.
const (
	SourceAPI = "api"
	SourceCLI = "cli"
)

// Entry is a single audit trail record.
type Entry struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id,omitempty"`
	Identity   string         `json:"identity,omitempty"`
	Source     string         `json:"source"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Filter controls which entries List returns.
type Filter struct {
	Action     string // optional
	EntityType string // optional
	EntityID   string // optional
	Identity   string // optional
	Limit      int    // default 50, max 200
	Offset     int
}

// ListResult is one page of entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}
