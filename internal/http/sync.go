package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/ads-dashboard/internal/database/projects"
	"github.com/ads-dashboard/internal/entities"
	"github.com/ads-dashboard/internal/syncer"
	"github.com/ads-dashboard/internal/tasks"
)

// SyncController exposes manual and bulk resync operations.
type SyncController struct {
	projectRepo  *projects.Repository
	orchestrator *syncer.Orchestrator
	taskClient   *tasks.Client
}

func NewSyncController(projectRepo *projects.Repository, orchestrator *syncer.Orchestrator, taskClient *tasks.Client) *SyncController {
	return &SyncController{
		projectRepo:  projectRepo,
		orchestrator: orchestrator,
		taskClient:   taskClient,
	}
}

// ResyncOne handles POST /api/projects/:id/resync
// Dispatches a single sync job and waits for its terminal state.
func (sc *SyncController) ResyncOne(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	project, err := sc.projectRepo.GetByID(id)
	if err != nil {
		respondCoreError(c, err, "resync project")
		return
	}

	outcome, err := sc.orchestrator.ResyncOne(c.Request.Context(), project)
	if err != nil {
		if errors.Is(err, entities.ErrAlreadySyncing) {
			// Not a hard failure: the project already has an active job.
			respondAccepted(c, "sync already in progress", nil)
			return
		}
		var syncErr *entities.SyncError
		if errors.As(err, &syncErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": syncErr.Message, "outcome": outcome})
			return
		}
		respondCoreError(c, err, "resync project")
		return
	}

	c.JSON(http.StatusOK, gin.H{"outcome": outcome})
}

// BulkResyncRequest is the request body for a bulk resync. An empty list
// means "triage all stale projects".
type BulkResyncRequest struct {
	ProjectIDs []uint `json:"project_ids"`
}

// ResyncBulk handles POST /api/resync/bulk
// Enqueues a background bulk resync task and returns its ID.
func (sc *SyncController) ResyncBulk(c *gin.Context) {
	var req BulkResyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	if sc.taskClient == nil {
		respondError(c, http.StatusServiceUnavailable, "task queue is disabled")
		return
	}

	ids, err := sc.taskClient.Add(tasks.ResyncBatchTask{ProjectIDs: req.ProjectIDs}).Save()
	if err != nil {
		respondInternalError(c, err, "enqueue bulk resync")
		return
	}

	respondAccepted(c, "bulk resync enqueued", gin.H{"task_id": ids[0]})
}

// Triage handles GET /api/resync/triage
// Returns the projects a bulk resync would target, in dispatch order.
func (sc *SyncController) Triage(c *gin.Context) {
	all, err := sc.projectRepo.List(false)
	if err != nil {
		respondInternalError(c, err, "triage")
		return
	}

	queue := sc.orchestrator.TriageQueue(all, time.Now())
	c.JSON(http.StatusOK, gin.H{"projects": queue})
}

// TaskStatus handles GET /api/tasks/:id
func (sc *SyncController) TaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}
	if sc.taskClient == nil {
		respondError(c, http.StatusServiceUnavailable, "task queue is disabled")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := sc.taskClient.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": taskID, "status": taskStatusToString(status)})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
