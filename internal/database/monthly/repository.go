// Package monthly is the per-calendar-month import ledger, independent of
// the chunked backfill mechanism. (project, year, month) is the natural key;
// re-importing a month resets the row in place instead of duplicating it.
package monthly

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ads-dashboard/internal/entities"
)

// Repository handles monthly import ledger operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ScheduleMonth creates the ledger row for (projectID, year, month) if it is
// absent. A terminal row is reset to pending with its retry count bumped; a
// non-terminal row is returned unchanged so re-scheduling never duplicates
// in-flight work.
func (r *Repository) ScheduleMonth(projectID uint, year, month int) (*entities.MonthlyImportRecord, error) {
	if month < 1 || month > 12 {
		return nil, entities.ErrInvalidArgument
	}
	if year < 1 {
		return nil, entities.ErrInvalidArgument
	}

	var record entities.MonthlyImportRecord
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("project_id = ? AND year = ? AND month = ?", projectID, year, month).
			First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record = entities.MonthlyImportRecord{
				ProjectID: projectID,
				Year:      year,
				Month:     month,
				Status:    entities.ImportStatusPending,
			}
			return tx.Create(&record).Error
		}
		if err != nil {
			return err
		}

		if !record.Status.Terminal() {
			// Idempotent re-schedule: in-flight row returned as-is.
			return nil
		}

		record.Status = entities.ImportStatusPending
		record.RetryCount++
		record.RecordsCount = nil
		record.ErrorMessage = ""
		record.StartedAt = nil
		record.CompletedAt = nil
		return tx.Save(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkStarted transitions a row to importing as the executor picks it up.
func (r *Repository) MarkStarted(recordID uint) error {
	return r.transition(recordID, func(record *entities.MonthlyImportRecord) error {
		if record.Status.Terminal() {
			return entities.ErrTerminalState
		}
		now := time.Now()
		record.Status = entities.ImportStatusImporting
		record.StartedAt = &now
		return nil
	})
}

// MarkCompleted records a successful month import.
func (r *Repository) MarkCompleted(recordID uint, recordsCount int) error {
	return r.transition(recordID, func(record *entities.MonthlyImportRecord) error {
		if record.Status.Terminal() {
			return entities.ErrTerminalState
		}
		now := time.Now()
		record.Status = entities.ImportStatusCompleted
		record.RecordsCount = &recordsCount
		record.ErrorMessage = ""
		record.CompletedAt = &now
		return nil
	})
}

// MarkError records a failed attempt. Failing an already-terminal row is a
// caller bug and is rejected.
func (r *Repository) MarkError(recordID uint, errorMessage string) error {
	return r.transition(recordID, func(record *entities.MonthlyImportRecord) error {
		if record.Status.Terminal() {
			return entities.ErrTerminalState
		}
		now := time.Now()
		record.Status = entities.ImportStatusError
		record.ErrorMessage = errorMessage
		record.CompletedAt = &now
		return nil
	})
}

// GetByID retrieves a single ledger row.
func (r *Repository) GetByID(recordID uint) (*entities.MonthlyImportRecord, error) {
	var record entities.MonthlyImportRecord
	err := r.db.First(&record, recordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entities.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListForProject returns the project's ledger rows ordered by calendar month.
func (r *Repository) ListForProject(projectID uint) ([]entities.MonthlyImportRecord, error) {
	var records []entities.MonthlyImportRecord
	err := r.db.Where("project_id = ?", projectID).
		Order("year ASC, month ASC").
		Find(&records).Error
	return records, err
}

// Summary reports "N of M months imported" for display. TotalMonths counts
// ledger rows, so it only reflects months that were ever scheduled.
type Summary struct {
	CompletedMonths int `json:"completed_months"`
	TotalMonths     int `json:"total_months"`
}

func (r *Repository) Summary(projectID uint) (*Summary, error) {
	var total, completed int64
	if err := r.db.Model(&entities.MonthlyImportRecord{}).
		Where("project_id = ?", projectID).
		Count(&total).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&entities.MonthlyImportRecord{}).
		Where("project_id = ? AND status = ?", projectID, entities.ImportStatusCompleted).
		Count(&completed).Error; err != nil {
		return nil, err
	}
	return &Summary{CompletedMonths: int(completed), TotalMonths: int(total)}, nil
}

func (r *Repository) transition(recordID uint, mutate func(*entities.MonthlyImportRecord) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var record entities.MonthlyImportRecord
		err := tx.First(&record, recordID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := mutate(&record); err != nil {
			return err
		}
		return tx.Save(&record).Error
	})
}
