// Package health derives the staleness classification of a project's last
// successful sync. Classification is computed on read and never persisted.
package health

import (
	"sort"
	"time"

	"github.com/ads-dashboard/internal/entities"
)

type Status string

const (
	StatusHealthy     Status = "healthy"
	StatusWarning     Status = "warning"
	StatusCritical    Status = "critical"
	StatusNeverSynced Status = "never_synced"
)

// Fixed staleness thresholds. Not configurable per project.
const (
	WarningAfter  = 24 * time.Hour
	CriticalAfter = 48 * time.Hour
)

// Classify maps a last-sync timestamp to a health status. A nil timestamp is
// a valid "never synced" case, not an error. Exact boundary values fall into
// the lower-severity bucket: a gap of exactly 24h is still healthy, exactly
// 48h is still warning.
func Classify(lastSyncAt *time.Time, now time.Time) Status {
	if lastSyncAt == nil {
		return StatusNeverSynced
	}
	gap := now.Sub(*lastSyncAt)
	switch {
	case gap <= WarningAfter:
		return StatusHealthy
	case gap <= CriticalAfter:
		return StatusWarning
	default:
		return StatusCritical
	}
}

// Rank orders statuses for triage: critical > warning > never_synced > healthy.
// A project that has literally never synced is operationally more alarming
// than one that is merely fine, so it outranks healthy.
func Rank(s Status) int {
	switch s {
	case StatusCritical:
		return 3
	case StatusWarning:
		return 2
	case StatusNeverSynced:
		return 1
	default:
		return 0
	}
}

// NeedsAttention reports whether a status should appear in the triage queue.
func NeedsAttention(s Status) bool {
	return s != StatusHealthy
}

// SortBySeverity orders projects most-alarming-first using Rank. The sort is
// stable so equally-ranked projects keep their input order.
func SortBySeverity(projects []entities.Project, now time.Time) {
	sort.SliceStable(projects, func(i, j int) bool {
		return Rank(Classify(projects[i].LastSyncAt, now)) > Rank(Classify(projects[j].LastSyncAt, now))
	})
}
