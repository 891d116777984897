package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ads-dashboard/internal/database/monthly"
	"github.com/ads-dashboard/internal/tasks"
)

// MonthlyController exposes the per-month import ledger.
type MonthlyController struct {
	ledger     *monthly.Repository
	taskClient *tasks.Client
}

func NewMonthlyController(ledger *monthly.Repository, taskClient *tasks.Client) *MonthlyController {
	return &MonthlyController{ledger: ledger, taskClient: taskClient}
}

// ScheduleMonthRequest is the request body for scheduling a month import.
type ScheduleMonthRequest struct {
	Year  int  `json:"year" binding:"required"`
	Month int  `json:"month" binding:"required"`
	Defer bool `json:"defer"` // when true, only enqueue the import task
}

// Schedule handles POST /api/projects/:id/months
// Creates (or resets) the ledger row and enqueues the import task.
func (mc *MonthlyController) Schedule(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ScheduleMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "year and month are required")
		return
	}

	record, err := mc.ledger.ScheduleMonth(id, req.Year, req.Month)
	if err != nil {
		respondCoreError(c, err, "schedule month")
		return
	}

	var taskID string
	if mc.taskClient != nil {
		ids, err := mc.taskClient.Add(tasks.ImportMonthTask{ProjectID: id, Year: req.Year, Month: req.Month}).Save()
		if err != nil {
			respondInternalError(c, err, "enqueue month import")
			return
		}
		taskID = ids[0]
	}

	respondAccepted(c, "month import scheduled", gin.H{"record": record, "task_id": taskID})
}

// List handles GET /api/projects/:id/months
func (mc *MonthlyController) List(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	records, err := mc.ledger.ListForProject(id)
	if err != nil {
		respondInternalError(c, err, "list months")
		return
	}
	c.JSON(http.StatusOK, gin.H{"months": records})
}

// Summary handles GET /api/projects/:id/months/summary
// Returns "N of M months imported" counts.
func (mc *MonthlyController) Summary(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := mc.ledger.Summary(id)
	if err != nil {
		respondInternalError(c, err, "months summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}
