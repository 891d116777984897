package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ads-dashboard/internal/database/syncprogress"
	"github.com/ads-dashboard/internal/entities"
)

// BackfillController exposes chunked backfill lifecycle endpoints. The chunk
// and fail endpoints are the executor's completion callbacks.
type BackfillController struct {
	tracker *syncprogress.Repository
}

func NewBackfillController(tracker *syncprogress.Repository) *BackfillController {
	return &BackfillController{tracker: tracker}
}

// StartBackfillRequest is the request body for starting a backfill.
type StartBackfillRequest struct {
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required"`
	TotalChunks int       `json:"total_chunks" binding:"required"`
}

// Start handles POST /api/projects/:id/backfill
func (bc *BackfillController) Start(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req StartBackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "period_start, period_end and total_chunks are required")
		return
	}

	record, err := bc.tracker.StartBackfill(id, req.PeriodStart, req.PeriodEnd, req.TotalChunks)
	if err != nil {
		respondCoreError(c, err, "start backfill")
		return
	}
	respondCreated(c, record)
}

// ClaimRequest is the executor's claim callback body.
type ClaimRequest struct {
	ChunkIndex int       `json:"chunk_index"`
	RangeStart time.Time `json:"range_start"`
	RangeEnd   time.Time `json:"range_end"`
}

// Claim handles POST /api/backfills/:id/claim
// The executor marks the record as syncing and describes the chunk in flight.
func (bc *BackfillController) Claim(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ClaimRequest
	_ = c.ShouldBindJSON(&req)

	marker := &entities.ChunkMarker{
		SchemaVersion: entities.ChunkMarkerSchemaVersion,
		ChunkIndex:    req.ChunkIndex,
		RangeStart:    req.RangeStart,
		RangeEnd:      req.RangeEnd,
	}
	if err := bc.tracker.MarkSyncing(id, marker); err != nil {
		respondCoreError(c, err, "claim backfill")
		return
	}
	respondSuccess(c, "backfill claimed")
}

// AdvanceChunkRequest is the executor's per-chunk completion callback body.
type AdvanceChunkRequest struct {
	RecordsInChunk int `json:"records_in_chunk"`
}

// AdvanceChunk handles POST /api/backfills/:id/chunk
func (bc *BackfillController) AdvanceChunk(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AdvanceChunkRequest
	_ = c.ShouldBindJSON(&req)

	if err := bc.tracker.AdvanceChunk(id, req.RecordsInChunk); err != nil {
		respondCoreError(c, err, "advance chunk")
		return
	}

	record, err := bc.tracker.GetByID(id)
	if err != nil {
		respondCoreError(c, err, "advance chunk")
		return
	}
	c.JSON(http.StatusOK, record)
}

// FailRequest is the executor's failure callback body.
type FailRequest struct {
	ErrorMessage string `json:"error_message" binding:"required"`
}

// Fail handles POST /api/backfills/:id/fail
func (bc *BackfillController) Fail(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req FailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "error_message is required")
		return
	}

	if err := bc.tracker.FailBackfill(id, req.ErrorMessage); err != nil {
		respondCoreError(c, err, "fail backfill")
		return
	}
	respondSuccess(c, "backfill marked as failed")
}

// Progress handles GET /api/projects/:id/progress
// Returns the summary of the active backfill, or null when none exists.
func (bc *BackfillController) Progress(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := bc.tracker.CurrentProgress(id)
	if err != nil {
		respondCoreError(c, err, "backfill progress")
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": summary})
}

// History handles GET /api/projects/:id/backfills
func (bc *BackfillController) History(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	records, err := bc.tracker.History(id, parseQueryInt(c, "limit", 50))
	if err != nil {
		respondCoreError(c, err, "backfill history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"backfills": records})
}
