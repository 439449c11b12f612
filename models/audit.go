package models

// Audit actions recorded for successful mutations.
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
)

// AuditEntry is one append-only line of the mutation log.
type AuditEntry struct {
	ID         int64          `json:"id,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Details    map[string]any `json:"details,omitempty"`
	At         int64          `json:"at"`
}
