package entities

import (
	"time"
)

type WebhookStatus string

const (
	WebhookStatusIdle             WebhookStatus = "idle"
	WebhookStatusSyncing          WebhookStatus = "syncing"
	WebhookStatusImportingHistory WebhookStatus = "importing_history"
)

// Project references an ad account managed by the dashboard. The sync core
// only ever touches LastSyncAt, WebhookStatus and SyncProgress; everything
// else is owned by the project-management side.
type Project struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Name          string        `gorm:"size:255" json:"name"`
	AdAccountID   string        `gorm:"size:64;index" json:"ad_account_id"`
	WebhookStatus WebhookStatus `gorm:"size:32;default:idle" json:"webhook_status"`
	LastSyncAt    *time.Time    `json:"last_sync_at,omitempty"`
	Archived      bool          `gorm:"default:false" json:"archived"`

	// SyncProgress is a denormalized cache of the most relevant active
	// progress record. It is recomputed by the tracker on every mutation
	// and must never be written by anything else.
	SyncProgress *SyncProgressSummary `gorm:"serializer:json" json:"sync_progress,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}
