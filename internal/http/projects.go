package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ads-dashboard/internal/database/projects"
	"github.com/ads-dashboard/internal/entities"
	"github.com/ads-dashboard/internal/health"
)

// ProjectsController exposes project listing and health classification.
type ProjectsController struct {
	repo *projects.Repository
}

func NewProjectsController(repo *projects.Repository) *ProjectsController {
	return &ProjectsController{repo: repo}
}

// ProjectView decorates a project with its computed health for display.
type ProjectView struct {
	entities.Project
	Health health.Status `json:"health"`
}

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	AdAccountID string `json:"ad_account_id"`
}

// Create handles POST /api/projects
func (pc *ProjectsController) Create(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	project := &entities.Project{
		Name:        req.Name,
		AdAccountID: req.AdAccountID,
	}
	if err := pc.repo.Create(project); err != nil {
		respondCoreError(c, err, "create project")
		return
	}
	respondCreated(c, project)
}

// List handles GET /api/projects
func (pc *ProjectsController) List(c *gin.Context) {
	includeArchived := c.Query("include_archived") == "true"

	all, err := pc.repo.List(includeArchived)
	if err != nil {
		respondInternalError(c, err, "list projects")
		return
	}

	now := time.Now()
	views := make([]ProjectView, 0, len(all))
	for _, p := range all {
		views = append(views, ProjectView{Project: p, Health: health.Classify(p.LastSyncAt, now)})
	}
	c.JSON(http.StatusOK, gin.H{"projects": views})
}

// Get handles GET /api/projects/:id
func (pc *ProjectsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	project, err := pc.repo.GetByID(id)
	if err != nil {
		respondCoreError(c, err, "get project")
		return
	}
	c.JSON(http.StatusOK, ProjectView{Project: *project, Health: health.Classify(project.LastSyncAt, time.Now())})
}

// GetHealth handles GET /api/projects/:id/health
func (pc *ProjectsController) GetHealth(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	project, err := pc.repo.GetByID(id)
	if err != nil {
		respondCoreError(c, err, "get project health")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id":   project.ID,
		"health":       health.Classify(project.LastSyncAt, time.Now()),
		"last_sync_at": project.LastSyncAt,
	})
}

// Overview handles GET /api/health/overview
// Returns all non-archived projects ranked most-alarming-first.
func (pc *ProjectsController) Overview(c *gin.Context) {
	all, err := pc.repo.List(false)
	if err != nil {
		respondInternalError(c, err, "health overview")
		return
	}

	now := time.Now()
	health.SortBySeverity(all, now)

	views := make([]ProjectView, 0, len(all))
	for _, p := range all {
		views = append(views, ProjectView{Project: p, Health: health.Classify(p.LastSyncAt, now)})
	}
	c.JSON(http.StatusOK, gin.H{"projects": views})
}

// Archive handles POST /api/projects/:id/archive
func (pc *ProjectsController) Archive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := pc.repo.Archive(id); err != nil {
		respondCoreError(c, err, "archive project")
		return
	}
	respondSuccess(c, "project archived")
}
