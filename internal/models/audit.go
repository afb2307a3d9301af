package models

import (
	"encoding/json"
	"time"
)

// AuditLog is an append-only trail entry written before destructive operations
type AuditLog struct {
	ID          int64           `json:"id"`
	EntityType  string          `json:"entity_type"`
	EntityID    int64           `json:"entity_id"`
	Action      string          `json:"action"`
	Changes     json.RawMessage `json:"changes"`
	PerformedAt time.Time       `json:"performed_at"`
}
