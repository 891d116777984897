// Package syncprogress owns the lifecycle of chunked backfill records and
// keeps the denormalized Project.SyncProgress summary consistent.
//
// At most one active (pending/syncing) record may exist per project. The
// active-record check and the insert run inside a single transaction, so two
// concurrent StartBackfill calls cannot both pass the check.
package syncprogress

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ads-dashboard/internal/entities"
)

var activeStatuses = []entities.SyncStatus{entities.SyncStatusPending, entities.SyncStatusSyncing}

// Repository handles all sync progress database operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// StartBackfill creates a pending backfill record for the project. It does
// not contact the executor; dispatch is a separate step.
func (r *Repository) StartBackfill(projectID uint, periodStart, periodEnd time.Time, totalChunks int) (*entities.SyncProgressRecord, error) {
	if periodEnd.Before(periodStart) || totalChunks < 1 {
		return nil, entities.ErrInvalidRange
	}

	var record entities.SyncProgressRecord
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var project entities.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return entities.ErrNotFound
			}
			return err
		}

		var active entities.SyncProgressRecord
		err := tx.Where("project_id = ? AND status IN ?", projectID, activeStatuses).First(&active).Error
		if err == nil {
			return entities.ErrConflict
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()
		record = entities.SyncProgressRecord{
			ProjectID:   projectID,
			SyncType:    entities.SyncTypeHistoricalBackfill,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			TotalChunks: totalChunks,
			Status:      entities.SyncStatusPending,
			StartedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		return r.refreshProjectSummary(tx, projectID)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkSyncing transitions a record to syncing as the executor claims it,
// storing the marker for the chunk in flight.
func (r *Repository) MarkSyncing(recordID uint, marker *entities.ChunkMarker) error {
	if marker != nil && marker.SchemaVersion == 0 {
		marker.SchemaVersion = entities.ChunkMarkerSchemaVersion
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		record, err := lockRecord(tx, recordID)
		if err != nil {
			return err
		}
		if record.Status.Terminal() {
			return entities.ErrTerminalState
		}

		record.Status = entities.SyncStatusSyncing
		record.CurrentChunk = marker
		record.UpdatedAt = time.Now()
		if err := tx.Save(record).Error; err != nil {
			return err
		}
		return r.refreshProjectSummary(tx, record.ProjectID)
	})
}

// AdvanceChunk records the completion of one chunk. The completed counter is
// clamped at the total, and the record transitions to completed exactly once
// when the last chunk lands.
func (r *Repository) AdvanceChunk(recordID uint, recordsInChunk int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		record, err := lockRecord(tx, recordID)
		if err != nil {
			return err
		}
		if record.Status.Terminal() {
			return entities.ErrTerminalState
		}

		now := time.Now()
		if record.CompletedChunks < record.TotalChunks {
			record.CompletedChunks++
		}
		if recordsInChunk > 0 {
			record.RecordsSynced += recordsInChunk
		}
		record.Status = entities.SyncStatusSyncing
		record.UpdatedAt = now

		if record.CompletedChunks == record.TotalChunks {
			record.Status = entities.SyncStatusCompleted
			record.CurrentChunk = nil
			record.CompletedAt = &now
		}

		if err := tx.Save(record).Error; err != nil {
			return err
		}
		return r.refreshProjectSummary(tx, record.ProjectID)
	})
}

// FailBackfill transitions a non-terminal record to failed. Calling it again
// with the same message is a no-op; any other terminal mutation is rejected.
func (r *Repository) FailBackfill(recordID uint, errorMessage string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		record, err := lockRecord(tx, recordID)
		if err != nil {
			return err
		}
		if record.Status.Terminal() {
			if record.Status == entities.SyncStatusFailed && record.ErrorMessage == errorMessage {
				return nil
			}
			return entities.ErrTerminalState
		}

		now := time.Now()
		record.Status = entities.SyncStatusFailed
		record.ErrorMessage = errorMessage
		record.CurrentChunk = nil
		record.UpdatedAt = now
		record.CompletedAt = &now

		if err := tx.Save(record).Error; err != nil {
			return err
		}
		return r.refreshProjectSummary(tx, record.ProjectID)
	})
}

// GetByID retrieves a single progress record.
func (r *Repository) GetByID(recordID uint) (*entities.SyncProgressRecord, error) {
	var record entities.SyncProgressRecord
	err := r.db.First(&record, recordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entities.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ActiveRecord returns the most recent pending/syncing record for the
// project, or nil when none exists.
func (r *Repository) ActiveRecord(projectID uint) (*entities.SyncProgressRecord, error) {
	var record entities.SyncProgressRecord
	err := r.db.Where("project_id = ? AND status IN ?", projectID, activeStatuses).
		Order("started_at DESC, id DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// CurrentProgress returns the summary used to populate Project.SyncProgress
// for display, or nil if no active record exists.
func (r *Repository) CurrentProgress(projectID uint) (*entities.SyncProgressSummary, error) {
	record, err := r.ActiveRecord(projectID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return record.Summarize(), nil
}

// History returns the project's backfill records, most recent first.
func (r *Repository) History(projectID uint, limit int) ([]entities.SyncProgressRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []entities.SyncProgressRecord
	err := r.db.Where("project_id = ?", projectID).
		Order("started_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// refreshProjectSummary recomputes the denormalized cache on Project within
// the caller's transaction. The cache is a derived view of the active record,
// never a second source of truth.
func (r *Repository) refreshProjectSummary(tx *gorm.DB, projectID uint) error {
	var active entities.SyncProgressRecord
	err := tx.Where("project_id = ? AND status IN ?", projectID, activeStatuses).
		Order("started_at DESC, id DESC").
		First(&active).Error

	updates := map[string]any{"updated_at": time.Now()}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		updates["sync_progress"] = nil
		updates["webhook_status"] = entities.WebhookStatusIdle
	} else if err != nil {
		return err
	} else {
		// Map-based Updates bypass the field serializer, so the summary is
		// marshalled here before it reaches the driver.
		payload, err := json.Marshal(active.Summarize())
		if err != nil {
			return err
		}
		updates["sync_progress"] = string(payload)
		updates["webhook_status"] = entities.WebhookStatusImportingHistory
	}

	return tx.Model(&entities.Project{}).Where("id = ?", projectID).Updates(updates).Error
}

func lockRecord(tx *gorm.DB, recordID uint) (*entities.SyncProgressRecord, error) {
	var record entities.SyncProgressRecord
	err := tx.First(&record, recordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entities.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
