package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ads-dashboard/internal/database"
	"github.com/ads-dashboard/internal/database/projects"
	"github.com/ads-dashboard/internal/entities"
	"github.com/ads-dashboard/internal/health"
)

func setupProjectsRouter(t *testing.T) (*gin.Engine, *projects.Repository, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_projects_http_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	repo := projects.NewRepository(db.DB)
	controller := NewProjectsController(repo)

	router := gin.New()
	router.POST("/api/projects", controller.Create)
	router.GET("/api/projects", controller.List)
	router.GET("/api/projects/:id", controller.Get)
	router.GET("/api/projects/:id/health", controller.GetHealth)
	router.GET("/api/health/overview", controller.Overview)
	router.POST("/api/projects/:id/archive", controller.Archive)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return router, repo, cleanup
}

func TestCreateProject_HTTP(t *testing.T) {
	router, _, cleanup := setupProjectsRouter(t)
	defer cleanup()

	body := bytes.NewBufferString(`{"name": "Acme Ads", "ad_account_id": "act_123"}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/projects", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var created entities.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Acme Ads", created.Name)
	assert.Equal(t, entities.WebhookStatusIdle, created.WebhookStatus)
}

func TestCreateProject_MissingName(t *testing.T) {
	router, _, cleanup := setupProjectsRouter(t)
	defer cleanup()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/projects", bytes.NewBufferString(`{"ad_account_id": "act_123"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name is required")
}

func TestGetProject_NotFound(t *testing.T) {
	router, _, cleanup := setupProjectsRouter(t)
	defer cleanup()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/projects/9999", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProjectHealth(t *testing.T) {
	router, repo, cleanup := setupProjectsRouter(t)
	defer cleanup()

	staleAt := time.Now().Add(-30 * time.Hour)
	project := &entities.Project{Name: "Stale", AdAccountID: "act_1", LastSyncAt: &staleAt}
	require.NoError(t, repo.Create(project))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/projects/1/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		ProjectID uint          `json:"project_id"`
		Health    health.Status `json:"health"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, project.ID, response.ProjectID)
	assert.Equal(t, health.StatusWarning, response.Health)
}

func TestHealthOverview_OrderedBySeverity(t *testing.T) {
	router, repo, cleanup := setupProjectsRouter(t)
	defer cleanup()

	now := time.Now()
	hoursAgo := func(h int) *time.Time {
		at := now.Add(-time.Duration(h) * time.Hour)
		return &at
	}

	require.NoError(t, repo.Create(&entities.Project{Name: "healthy", AdAccountID: "act_1", LastSyncAt: hoursAgo(1)}))
	require.NoError(t, repo.Create(&entities.Project{Name: "critical", AdAccountID: "act_2", LastSyncAt: hoursAgo(50)}))
	require.NoError(t, repo.Create(&entities.Project{Name: "warning", AdAccountID: "act_3", LastSyncAt: hoursAgo(30)}))
	require.NoError(t, repo.Create(&entities.Project{Name: "never", AdAccountID: "act_4"}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/health/overview", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Projects []ProjectView `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Projects, 4)

	assert.Equal(t, "critical", response.Projects[0].Name)
	assert.Equal(t, "warning", response.Projects[1].Name)
	assert.Equal(t, "never", response.Projects[2].Name)
	assert.Equal(t, "healthy", response.Projects[3].Name)
	assert.Equal(t, health.StatusNeverSynced, response.Projects[2].Health)
}

func TestArchiveProject(t *testing.T) {
	router, repo, cleanup := setupProjectsRouter(t)
	defer cleanup()

	project := &entities.Project{Name: "Old", AdAccountID: "act_1"}
	require.NoError(t, repo.Create(project))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/projects/1/archive", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Archived projects drop out of the default listing.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/projects", nil)
	router.ServeHTTP(w, req)

	var response struct {
		Projects []ProjectView `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Empty(t, response.Projects)
}
