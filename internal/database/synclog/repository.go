// Package synclog is the append-only audit trail of sync attempts. Entries
// are never updated or deleted; reads exist purely for statistics.
package synclog

import (
	"time"

	"gorm.io/gorm"

	"github.com/ads-dashboard/internal/entities"
)

// Repository handles sync log persistence and statistics.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Append records one sync attempt. Storage errors propagate to the caller.
func (r *Repository) Append(projectID uint, status entities.SyncLogStatus, message string) error {
	entry := entities.SyncLogEntry{
		ProjectID: projectID,
		Status:    status,
		Message:   message,
		CreatedAt: time.Now(),
	}
	return r.db.Create(&entry).Error
}

// RecentEntries returns the most recent entries for a project, newest first.
func (r *Repository) RecentEntries(projectID uint, limit int) ([]entities.SyncLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []entities.SyncLogEntry
	err := r.db.Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// Stats aggregates outcomes over a sliding window.
type Stats struct {
	SuccessCount int     `json:"success_count"`
	ErrorCount   int     `json:"error_count"`
	SuccessRate  float64 `json:"success_rate"`
}

// RollingStats computes success/error counts and the success rate over the
// last windowDays. An empty window yields a rate of 0 rather than NaN.
func (r *Repository) RollingStats(projectID uint, windowDays int) (*Stats, error) {
	since := time.Now().AddDate(0, 0, -windowDays)

	var success, errorCount int64
	if err := r.db.Model(&entities.SyncLogEntry{}).
		Where("project_id = ? AND created_at >= ? AND status = ?", projectID, since, entities.SyncLogSuccess).
		Count(&success).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&entities.SyncLogEntry{}).
		Where("project_id = ? AND created_at >= ? AND status = ?", projectID, since, entities.SyncLogError).
		Count(&errorCount).Error; err != nil {
		return nil, err
	}

	stats := &Stats{SuccessCount: int(success), ErrorCount: int(errorCount)}
	if total := success + errorCount; total > 0 {
		stats.SuccessRate = float64(success) / float64(total)
	}
	return stats, nil
}

// DayBucket is one UTC calendar day in the histogram.
type DayBucket struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Success int    `json:"success"`
	Error   int    `json:"error"`
}

// DailyHistogram buckets entries into UTC calendar days across the window,
// including empty days with zero counts. A nil projectID aggregates across
// all non-archived projects.
func (r *Repository) DailyHistogram(projectID *uint, windowDays int) ([]DayBucket, error) {
	if windowDays < 1 {
		return nil, entities.ErrInvalidArgument
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	windowStart := today.AddDate(0, 0, -(windowDays - 1))

	query := r.db.Model(&entities.SyncLogEntry{}).Where("sync_log_entries.created_at >= ?", windowStart)
	if projectID != nil {
		query = query.Where("sync_log_entries.project_id = ?", *projectID)
	} else {
		query = query.Joins("JOIN projects ON projects.id = sync_log_entries.project_id").
			Where("projects.archived = ?", false)
	}

	var entries []entities.SyncLogEntry
	if err := query.Select("sync_log_entries.*").Find(&entries).Error; err != nil {
		return nil, err
	}

	buckets := make([]DayBucket, windowDays)
	index := make(map[string]*DayBucket, windowDays)
	for i := 0; i < windowDays; i++ {
		day := windowStart.AddDate(0, 0, i).Format("2006-01-02")
		buckets[i] = DayBucket{Date: day}
		index[day] = &buckets[i]
	}

	for _, entry := range entries {
		day := entry.CreatedAt.UTC().Format("2006-01-02")
		bucket, ok := index[day]
		if !ok {
			continue
		}
		if entry.Status == entities.SyncLogSuccess {
			bucket.Success++
		} else {
			bucket.Error++
		}
	}

	return buckets, nil
}
