package entities

import (
	"time"
)

type ImportStatus string

const (
	ImportStatusPending   ImportStatus = "pending"
	ImportStatusImporting ImportStatus = "importing"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusError     ImportStatus = "error"
)

// Terminal reports whether the status permits no further transitions.
func (s ImportStatus) Terminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusError
}

// MonthlyImportRecord is the per (project, year, month) import ledger row.
// Re-importing a month resets the existing row in place and bumps RetryCount;
// it never duplicates the row.
type MonthlyImportRecord struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	ProjectID    uint         `gorm:"uniqueIndex:idx_project_month" json:"project_id"`
	Year         int          `gorm:"uniqueIndex:idx_project_month" json:"year"`
	Month        int          `gorm:"uniqueIndex:idx_project_month" json:"month"`
	Status       ImportStatus `gorm:"size:20" json:"status"`
	RecordsCount *int         `json:"records_count,omitempty"`
	RetryCount   int          `json:"retry_count"`
	ErrorMessage string       `gorm:"type:text" json:"error_message,omitempty"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (MonthlyImportRecord) TableName() string {
	return "monthly_import_records"
}
