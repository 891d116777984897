package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ads-dashboard/internal/database"
	"github.com/ads-dashboard/internal/database/syncprogress"
	"github.com/ads-dashboard/internal/entities"
)

func setupBackfillRouter(t *testing.T) (*gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_backfill_http_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	project := &entities.Project{Name: "Acme Ads", AdAccountID: "act_123", WebhookStatus: entities.WebhookStatusIdle}
	require.NoError(t, db.DB.Create(project).Error)

	controller := NewBackfillController(syncprogress.NewRepository(db.DB))

	router := gin.New()
	router.POST("/api/projects/:id/backfill", controller.Start)
	router.GET("/api/projects/:id/progress", controller.Progress)
	router.GET("/api/projects/:id/backfills", controller.History)
	router.POST("/api/backfills/:id/claim", controller.Claim)
	router.POST("/api/backfills/:id/chunk", controller.AdvanceChunk)
	router.POST("/api/backfills/:id/fail", controller.Fail)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return router, cleanup
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

const startBody = `{"period_start": "2026-01-01T00:00:00Z", "period_end": "2026-03-31T00:00:00Z", "total_chunks": 3}`

func TestBackfillLifecycle_HTTP(t *testing.T) {
	router, cleanup := setupBackfillRouter(t)
	defer cleanup()

	w := postJSON(router, "/api/projects/1/backfill", startBody)
	require.Equal(t, http.StatusCreated, w.Code)

	var record entities.SyncProgressRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, entities.SyncStatusPending, record.Status)

	claimPath := fmt.Sprintf("/api/backfills/%d/claim", record.ID)
	w = postJSON(router, claimPath, `{"chunk_index": 1, "range_start": "2026-01-01T00:00:00Z", "range_end": "2026-02-01T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, w.Code)

	chunkPath := fmt.Sprintf("/api/backfills/%d/chunk", record.ID)
	for _, records := range []int{100, 150} {
		w = postJSON(router, chunkPath, fmt.Sprintf(`{"records_in_chunk": %d}`, records))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w = postJSON(router, chunkPath, `{"records_in_chunk": 80}`)
	require.Equal(t, http.StatusOK, w.Code)

	var final entities.SyncProgressRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &final))
	assert.Equal(t, entities.SyncStatusCompleted, final.Status)
	assert.Equal(t, 330, final.RecordsSynced)

	// The record is terminal now; further chunks are rejected.
	w = postJSON(router, chunkPath, `{"records_in_chunk": 10}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Progress endpoint reports no active backfill.
	recorder := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/projects/1/progress", nil)
	router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"progress":null`)
}

func TestStartBackfill_Conflict(t *testing.T) {
	router, cleanup := setupBackfillRouter(t)
	defer cleanup()

	w := postJSON(router, "/api/projects/1/backfill", startBody)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(router, "/api/projects/1/backfill", startBody)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStartBackfill_InvalidRange(t *testing.T) {
	router, cleanup := setupBackfillRouter(t)
	defer cleanup()

	w := postJSON(router, "/api/projects/1/backfill",
		`{"period_start": "2026-03-31T00:00:00Z", "period_end": "2026-01-01T00:00:00Z", "total_chunks": 3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartBackfill_UnknownProject(t *testing.T) {
	router, cleanup := setupBackfillRouter(t)
	defer cleanup()

	w := postJSON(router, "/api/projects/9999/backfill", startBody)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFailBackfill_HTTP(t *testing.T) {
	router, cleanup := setupBackfillRouter(t)
	defer cleanup()

	w := postJSON(router, "/api/projects/1/backfill", startBody)
	require.Equal(t, http.StatusCreated, w.Code)

	var record entities.SyncProgressRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))

	failPath := fmt.Sprintf("/api/backfills/%d/fail", record.ID)
	w = postJSON(router, failPath, `{"error_message": "rate limited"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	// Same message is idempotent, a different one is rejected.
	w = postJSON(router, failPath, `{"error_message": "rate limited"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	w = postJSON(router, failPath, `{"error_message": "other"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// And the failed attempt shows up in history.
	recorder := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/projects/1/backfills", nil)
	router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "rate limited")
}
