package tasks

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/ads-dashboard/internal/database/monthly"
	"github.com/ads-dashboard/internal/database/projects"
	"github.com/ads-dashboard/internal/database/synclog"
	"github.com/ads-dashboard/internal/entities"
	"github.com/ads-dashboard/internal/metasync"
	"github.com/ads-dashboard/internal/syncer"
)

// ImportMonthTask imports one calendar month of historical data for a
// project, driving the monthly ledger through its lifecycle.
type ImportMonthTask struct {
	ProjectID uint `json:"project_id"`
	Year      int  `json:"year"`
	Month     int  `json:"month"`
}

// Config returns the queue configuration for monthly import tasks.
func (t ImportMonthTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_month",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     20 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportMonthProcessor creates a processor function for ImportMonthTask.
// The ledger row is scheduled (or reset) before dispatch, marked importing
// when the executor picks the job up, and closed out with the outcome.
func ImportMonthProcessor(
	ledger *monthly.Repository,
	projectRepo *projects.Repository,
	logRepo *synclog.Repository,
	executor syncer.Executor,
) backlite.QueueProcessor[ImportMonthTask] {
	return func(ctx context.Context, task ImportMonthTask) error {
		project, err := projectRepo.GetByID(task.ProjectID)
		if err != nil {
			return fmt.Errorf("import month: project %d: %w", task.ProjectID, err)
		}

		record, err := ledger.ScheduleMonth(task.ProjectID, task.Year, task.Month)
		if err != nil {
			return fmt.Errorf("import month: schedule %d-%02d: %w", task.Year, task.Month, err)
		}
		if err := ledger.MarkStarted(record.ID); err != nil {
			return fmt.Errorf("import month: mark started: %w", err)
		}

		datePreset := fmt.Sprintf("%04d-%02d", task.Year, task.Month)
		started := time.Now()
		result, err := executor.Dispatch(ctx, metasync.Request{
			ProjectID:   strconv.FormatUint(uint64(project.ID), 10),
			AdAccountID: project.AdAccountID,
			DatePreset:  datePreset,
		})
		elapsed := time.Since(started)

		if err != nil || !result.Success {
			errMsg := "executor reported failure"
			if err != nil {
				errMsg = err.Error()
			} else if result.Error != "" {
				errMsg = result.Error
			}
			if markErr := ledger.MarkError(record.ID, errMsg); markErr != nil {
				log.Printf("[QUEUE] Import month: failed to record error for row %d: %v", record.ID, markErr)
			}
			appendLog(logRepo, project.ID, entities.SyncLogError, datePreset, 0, elapsed, errMsg)
			return fmt.Errorf("import month %s for project %d: %s", datePreset, project.ID, errMsg)
		}

		if err := ledger.MarkCompleted(record.ID, result.RecordsImported); err != nil {
			return fmt.Errorf("import month: mark completed: %w", err)
		}
		appendLog(logRepo, project.ID, entities.SyncLogSuccess, datePreset, result.RecordsImported, elapsed, "")

		log.Printf("[QUEUE] Imported %s for project %d: %d records", datePreset, project.ID, result.RecordsImported)
		return nil
	}
}

func appendLog(logRepo *synclog.Repository, projectID uint, status entities.SyncLogStatus, preset string, records int, elapsed time.Duration, errMsg string) {
	meta := entities.SyncLogMeta{
		Type:    "monthly_import:" + preset,
		Records: records,
		Elapsed: elapsed.Round(time.Millisecond).String(),
		Error:   errMsg,
	}
	if err := logRepo.Append(projectID, status, meta.Encode()); err != nil {
		log.Printf("[QUEUE] Import month: failed to append sync log for project %d: %v", projectID, err)
	}
}

// NewImportMonthQueue creates a backlite queue for monthly import tasks.
func NewImportMonthQueue(
	ledger *monthly.Repository,
	projectRepo *projects.Repository,
	logRepo *synclog.Repository,
	executor syncer.Executor,
) backlite.Queue {
	return backlite.NewQueue(ImportMonthProcessor(ledger, projectRepo, logRepo, executor))
}
