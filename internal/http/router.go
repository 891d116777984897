package http

import (
	"github.com/gin-gonic/gin"

	"github.com/ads-dashboard/internal/database"
	"github.com/ads-dashboard/internal/database/monthly"
	"github.com/ads-dashboard/internal/database/projects"
	"github.com/ads-dashboard/internal/database/synclog"
	"github.com/ads-dashboard/internal/database/syncprogress"
	"github.com/ads-dashboard/internal/syncer"
	"github.com/ads-dashboard/internal/tasks"
)

// RouterConfig carries all router dependencies, keeping construction
// testable and the parameter list flat.
type RouterConfig struct {
	Database     *database.Database
	ProjectRepo  *projects.Repository
	Tracker      *syncprogress.Repository
	Ledger       *monthly.Repository
	LogRepo      *synclog.Repository
	Orchestrator *syncer.Orchestrator
	TaskClient   *tasks.Client
	Version      string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	healthController := NewHealthController(cfg.Database, cfg.Version)
	projectsController := NewProjectsController(cfg.ProjectRepo)
	syncController := NewSyncController(cfg.ProjectRepo, cfg.Orchestrator, cfg.TaskClient)
	backfillController := NewBackfillController(cfg.Tracker)
	monthlyController := NewMonthlyController(cfg.Ledger, cfg.TaskClient)
	statsController := NewStatsController(cfg.LogRepo)

	router.GET("/health", healthController.Status)

	api := router.Group("/api")
	{
		api.GET("/projects", projectsController.List)
		api.POST("/projects", projectsController.Create)
		api.GET("/projects/:id", projectsController.Get)
		api.POST("/projects/:id/archive", projectsController.Archive)
		api.GET("/projects/:id/health", projectsController.GetHealth)
		api.GET("/health/overview", projectsController.Overview)

		api.POST("/projects/:id/resync", syncController.ResyncOne)
		api.POST("/resync/bulk", syncController.ResyncBulk)
		api.GET("/resync/triage", syncController.Triage)
		api.GET("/tasks/:id", syncController.TaskStatus)

		api.POST("/projects/:id/backfill", backfillController.Start)
		api.GET("/projects/:id/progress", backfillController.Progress)
		api.GET("/projects/:id/backfills", backfillController.History)
		api.POST("/backfills/:id/claim", backfillController.Claim)
		api.POST("/backfills/:id/chunk", backfillController.AdvanceChunk)
		api.POST("/backfills/:id/fail", backfillController.Fail)

		api.POST("/projects/:id/months", monthlyController.Schedule)
		api.GET("/projects/:id/months", monthlyController.List)
		api.GET("/projects/:id/months/summary", monthlyController.Summary)

		api.GET("/projects/:id/log", statsController.Log)
		api.GET("/projects/:id/stats", statsController.RollingStats)
		api.GET("/stats/histogram", statsController.Histogram)
	}

	return router
}
