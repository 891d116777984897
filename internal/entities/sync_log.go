package entities

import (
	"encoding/json"
	"time"
)

type SyncLogStatus string

const (
	SyncLogSuccess SyncLogStatus = "success"
	SyncLogError   SyncLogStatus = "error"
)

// SyncLogEntry records the outcome of a single sync attempt. Entries are
// append-only: nothing in this codebase updates or deletes them.
type SyncLogEntry struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	ProjectID uint          `gorm:"index" json:"project_id"`
	Status    SyncLogStatus `gorm:"size:20" json:"status"`
	Message   string        `gorm:"type:text" json:"message,omitempty"`
	CreatedAt time.Time     `gorm:"index" json:"created_at"`
}

func (SyncLogEntry) TableName() string {
	return "sync_log_entries"
}

// SyncLogMeta is the JSON payload conventionally carried in Message.
type SyncLogMeta struct {
	Type    string `json:"type"`
	JobID   string `json:"job_id,omitempty"`
	Records int    `json:"records"`
	Elapsed string `json:"elapsed,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Encode serializes the metadata for storage in a log entry message.
func (m SyncLogMeta) Encode() string {
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
