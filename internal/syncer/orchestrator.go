// Package syncer coordinates on-demand and bulk re-synchronization against
// the external sync executor. Dispatches are single attempts: the executor
// embeds its own retry/backoff, so a retry here is always a user action.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ads-dashboard/internal/database/projects"
	"github.com/ads-dashboard/internal/database/synclog"
	"github.com/ads-dashboard/internal/database/syncprogress"
	"github.com/ads-dashboard/internal/entities"
	"github.com/ads-dashboard/internal/health"
	"github.com/ads-dashboard/internal/metasync"
	"github.com/ads-dashboard/internal/notify"
)

// JobState tracks a dispatched job through its lifecycle:
// idle -> dispatching -> awaiting_result -> succeeded | failed.
type JobState string

const (
	JobIdle           JobState = "idle"
	JobDispatching    JobState = "dispatching"
	JobAwaitingResult JobState = "awaiting_result"
	JobSucceeded      JobState = "succeeded"
	JobFailed         JobState = "failed"
)

// Executor is the narrow view of the remote sync executor the orchestrator
// consumes. *metasync.Client satisfies it.
type Executor interface {
	Dispatch(ctx context.Context, req metasync.Request) (*metasync.Result, error)
}

// Outcome is the terminal result of one dispatched job.
type Outcome struct {
	ProjectID       uint     `json:"project_id"`
	JobID           string   `json:"job_id"`
	State           JobState `json:"state"`
	RecordsImported int      `json:"records_imported"`
	Error           string   `json:"error,omitempty"`
}

// BatchResult aggregates per-project outcomes of a bulk resync.
type BatchResult struct {
	Succeeded []Outcome `json:"succeeded"`
	Failed    []Outcome `json:"failed"`
}

// Orchestrator sequences resync dispatches and feeds outcomes back into the
// project store and the sync log.
type Orchestrator struct {
	projects *projects.Repository
	tracker  *syncprogress.Repository
	logRepo  *synclog.Repository
	executor Executor
	notifier notify.Notifier

	limiter         *rate.Limiter
	dispatchTimeout time.Duration
	now             func() time.Time
}

// Config tunes orchestrator pacing and timeouts.
type Config struct {
	// PacingDelay is the fixed inter-job delay within a bulk resync,
	// respecting the executor's rate limits.
	PacingDelay time.Duration
	// DispatchTimeout bounds a single dispatch; expiry is a fatal failure
	// with errorMessage "timeout", never a silent retry.
	DispatchTimeout time.Duration
}

func NewOrchestrator(
	projectRepo *projects.Repository,
	tracker *syncprogress.Repository,
	logRepo *synclog.Repository,
	executor Executor,
	notifier notify.Notifier,
	cfg Config,
) *Orchestrator {
	if cfg.PacingDelay <= 0 {
		cfg.PacingDelay = 2 * time.Second
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 5 * time.Minute
	}
	return &Orchestrator{
		projects:        projectRepo,
		tracker:         tracker,
		logRepo:         logRepo,
		executor:        executor,
		notifier:        notifier,
		limiter:         rate.NewLimiter(rate.Every(cfg.PacingDelay), 1),
		dispatchTimeout: cfg.DispatchTimeout,
		now:             time.Now,
	}
}

// ResyncOne dispatches a single sync job for the project and waits for its
// terminal state. It fails fast with ErrAlreadySyncing when the tracker has
// an active backfill for the project; the UI surfaces that as a no-op.
func (o *Orchestrator) ResyncOne(ctx context.Context, project *entities.Project) (*Outcome, error) {
	if project == nil || project.ID == 0 {
		return nil, entities.ErrInvalidArgument
	}

	active, err := o.tracker.ActiveRecord(project.ID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, entities.ErrAlreadySyncing
	}

	outcome := &Outcome{
		ProjectID: project.ID,
		JobID:     uuid.NewString(),
		State:     JobDispatching,
	}

	if err := o.projects.SetWebhookStatus(project.ID, entities.WebhookStatusSyncing); err != nil {
		return nil, err
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, o.dispatchTimeout)
	defer cancel()

	started := o.now()
	outcome.State = JobAwaitingResult
	result, err := o.executor.Dispatch(dispatchCtx, metasync.Request{
		ProjectID:   strconv.FormatUint(uint64(project.ID), 10),
		AdAccountID: project.AdAccountID,
	})
	elapsed := o.now().Sub(started)

	if err != nil {
		errMsg := err.Error()
		if isTimeout(err) || errors.Is(dispatchCtx.Err(), context.DeadlineExceeded) {
			errMsg = "timeout"
		}
		return outcome, o.finishFailed(project, outcome, errMsg, elapsed)
	}
	if !result.Success {
		return outcome, o.finishFailed(project, outcome, result.Error, elapsed)
	}

	outcome.State = JobSucceeded
	outcome.RecordsImported = result.RecordsImported

	if err := o.projects.UpdateLastSync(project.ID, o.now()); err != nil {
		log.Printf("Resync: failed to stamp last sync for project %d: %v", project.ID, err)
	}

	meta := entities.SyncLogMeta{
		Type:    "resync",
		JobID:   outcome.JobID,
		Records: result.RecordsImported,
		Elapsed: elapsed.Round(time.Millisecond).String(),
	}
	if err := o.logRepo.Append(project.ID, entities.SyncLogSuccess, meta.Encode()); err != nil {
		log.Printf("Resync: failed to append sync log for project %d: %v", project.ID, err)
	}

	o.notify(fmt.Sprintf("Synced %s: %d records imported", project.Name, result.RecordsImported), notify.SeveritySuccess)
	return outcome, nil
}

// ResyncMany processes the list strictly sequentially with fixed pacing
// between jobs. Per-project sync and conflict failures are recovered so one
// bad project cannot abort the batch; invalid arguments indicate a caller
// bug and are re-raised immediately. Every project is attempted exactly once
// and the method returns only after each has reached a terminal state.
func (o *Orchestrator) ResyncMany(ctx context.Context, targets []entities.Project) (*BatchResult, error) {
	batch := &BatchResult{}

	for i := range targets {
		project := &targets[i]

		if err := o.limiter.Wait(ctx); err != nil {
			return batch, err
		}

		outcome, err := o.ResyncOne(ctx, project)
		if err == nil {
			batch.Succeeded = append(batch.Succeeded, *outcome)
			continue
		}
		if errors.Is(err, entities.ErrInvalidArgument) {
			return batch, err
		}

		if outcome == nil {
			outcome = &Outcome{ProjectID: project.ID, State: JobFailed, Error: err.Error()}
		}
		batch.Failed = append(batch.Failed, *outcome)
	}

	log.Printf("Bulk resync finished: %d succeeded, %d failed", len(batch.Succeeded), len(batch.Failed))
	return batch, nil
}

// TriageQueue filters to projects whose health is critical, warning or
// never-synced, ordered most-alarming-first. This is the usual input to
// ResyncMany.
func (o *Orchestrator) TriageQueue(candidates []entities.Project, now time.Time) []entities.Project {
	var queue []entities.Project
	for _, p := range candidates {
		if health.NeedsAttention(health.Classify(p.LastSyncAt, now)) {
			queue = append(queue, p)
		}
	}
	health.SortBySeverity(queue, now)
	return queue
}

// isTimeout recognizes both a context deadline and an http.Client transport
// timeout, which surfaces as a net.Error rather than context.DeadlineExceeded.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (o *Orchestrator) finishFailed(project *entities.Project, outcome *Outcome, errMsg string, elapsed time.Duration) error {
	outcome.State = JobFailed
	outcome.Error = errMsg

	if err := o.projects.SetWebhookStatus(project.ID, entities.WebhookStatusIdle); err != nil {
		log.Printf("Resync: failed to reset webhook status for project %d: %v", project.ID, err)
	}

	meta := entities.SyncLogMeta{
		Type:    "resync",
		JobID:   outcome.JobID,
		Elapsed: elapsed.Round(time.Millisecond).String(),
		Error:   errMsg,
	}
	if err := o.logRepo.Append(project.ID, entities.SyncLogError, meta.Encode()); err != nil {
		log.Printf("Resync: failed to append sync log for project %d: %v", project.ID, err)
	}

	o.notify(fmt.Sprintf("Sync failed for %s: %s", project.Name, errMsg), notify.SeverityError)
	return &entities.SyncError{Message: errMsg}
}

func (o *Orchestrator) notify(message string, severity notify.Severity) {
	if o.notifier == nil {
		return
	}
	o.notifier.Notify(message, severity)
}
