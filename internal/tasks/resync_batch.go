package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/ads-dashboard/internal/database/projects"
	"github.com/ads-dashboard/internal/entities"
	"github.com/ads-dashboard/internal/syncer"
)

// ResyncBatchTask re-synchronizes a set of projects sequentially in the
// background. An empty ProjectIDs means "triage everything": all stale
// projects are selected at execution time.
type ResyncBatchTask struct {
	ProjectIDs []uint `json:"project_ids"`
}

// Config returns the queue configuration for bulk resync tasks.
// Dispatches are single attempts, so the queue never retries either.
func (t ResyncBatchTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "resync_batch",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     60 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ResyncBatchProcessor creates a processor function for ResyncBatchTask.
func ResyncBatchProcessor(orchestrator *syncer.Orchestrator, projectRepo *projects.Repository) backlite.QueueProcessor[ResyncBatchTask] {
	return func(ctx context.Context, task ResyncBatchTask) error {
		targets, err := resolveTargets(projectRepo, orchestrator, task.ProjectIDs)
		if err != nil {
			return fmt.Errorf("resolve resync targets: %w", err)
		}
		if len(targets) == 0 {
			log.Printf("[QUEUE] Bulk resync: nothing to do")
			return nil
		}

		result, err := orchestrator.ResyncMany(ctx, targets)
		if err != nil {
			return fmt.Errorf("bulk resync: %w", err)
		}

		log.Printf("[QUEUE] Bulk resync of %d projects: %d succeeded, %d failed",
			len(targets), len(result.Succeeded), len(result.Failed))
		return nil
	}
}

func resolveTargets(projectRepo *projects.Repository, orchestrator *syncer.Orchestrator, ids []uint) ([]entities.Project, error) {
	if len(ids) == 0 {
		all, err := projectRepo.List(false)
		if err != nil {
			return nil, err
		}
		return orchestrator.TriageQueue(all, time.Now()), nil
	}

	targets := make([]entities.Project, 0, len(ids))
	for _, id := range ids {
		project, err := projectRepo.GetByID(id)
		if err != nil {
			log.Printf("[QUEUE] Bulk resync: skipping project %d: %v", id, err)
			continue
		}
		targets = append(targets, *project)
	}
	return targets, nil
}

// NewResyncBatchQueue creates a backlite queue for bulk resync tasks.
func NewResyncBatchQueue(orchestrator *syncer.Orchestrator, projectRepo *projects.Repository) backlite.Queue {
	return backlite.NewQueue(ResyncBatchProcessor(orchestrator, projectRepo))
}
