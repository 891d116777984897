package entities

import (
	"fmt"
	"time"
)

type SyncType string

const (
	SyncTypeHistoricalBackfill SyncType = "historical_backfill"
)

type SyncStatus string

const (
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusSyncing   SyncStatus = "syncing"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// Terminal reports whether no further transitions are permitted.
func (s SyncStatus) Terminal() bool {
	return s == SyncStatusCompleted || s == SyncStatusFailed
}

// ChunkMarkerSchemaVersion is stamped into every marker so old rows can be
// told apart if the marker shape ever changes.
const ChunkMarkerSchemaVersion = 1

// ChunkMarker describes the chunk currently in flight within a backfill.
type ChunkMarker struct {
	SchemaVersion int       `json:"schema_version"`
	ChunkIndex    int       `json:"chunk_index"`
	RangeStart    time.Time `json:"range_start"`
	RangeEnd      time.Time `json:"range_end"`
}

// SyncProgressRecord tracks one chunked historical backfill for a project.
// Retries create a fresh record rather than reviving a terminal one.
type SyncProgressRecord struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	ProjectID       uint         `gorm:"index" json:"project_id"`
	SyncType        SyncType     `gorm:"size:50" json:"sync_type"`
	PeriodStart     time.Time    `json:"period_start"`
	PeriodEnd       time.Time    `json:"period_end"`
	TotalChunks     int          `json:"total_chunks"`
	CompletedChunks int          `json:"completed_chunks"`
	CurrentChunk    *ChunkMarker `gorm:"serializer:json" json:"current_chunk,omitempty"`
	Status          SyncStatus   `gorm:"size:20;index" json:"status"`
	RecordsSynced   int          `json:"records_synced"`
	ErrorMessage    string       `gorm:"type:text" json:"error_message,omitempty"`
	StartedAt       time.Time    `json:"started_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty"`
}

func (SyncProgressRecord) TableName() string {
	return "sync_progress_records"
}

// SyncProgressSummary is the denormalized view cached on Project for fast
// dashboard reads.
type SyncProgressSummary struct {
	Status          SyncStatus `json:"status"`
	CompletedChunks int        `json:"completed_chunks"`
	TotalChunks     int        `json:"total_chunks"`
	Message         string     `json:"message"`
}

// Summarize builds the cached view for a record.
func (r *SyncProgressRecord) Summarize() *SyncProgressSummary {
	return &SyncProgressSummary{
		Status:          r.Status,
		CompletedChunks: r.CompletedChunks,
		TotalChunks:     r.TotalChunks,
		Message:         fmt.Sprintf("%d of %d chunks", r.CompletedChunks, r.TotalChunks),
	}
}
