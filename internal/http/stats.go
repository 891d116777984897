package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ads-dashboard/internal/database/synclog"
)

// StatsController exposes sync log reads and rolling statistics.
type StatsController struct {
	logRepo *synclog.Repository
}

func NewStatsController(logRepo *synclog.Repository) *StatsController {
	return &StatsController{logRepo: logRepo}
}

// Log handles GET /api/projects/:id/log
func (sc *StatsController) Log(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	entries, err := sc.logRepo.RecentEntries(id, parseQueryInt(c, "limit", 50))
	if err != nil {
		respondInternalError(c, err, "sync log")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// RollingStats handles GET /api/projects/:id/stats?window_days=7
func (sc *StatsController) RollingStats(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	windowDays := parseQueryInt(c, "window_days", 7)
	stats, err := sc.logRepo.RollingStats(id, windowDays)
	if err != nil {
		respondInternalError(c, err, "rolling stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Histogram handles GET /api/stats/histogram?project_id=&window_days=14
// Without project_id, aggregates across all non-archived projects.
func (sc *StatsController) Histogram(c *gin.Context) {
	windowDays := parseQueryInt(c, "window_days", 14)

	var projectID *uint
	if raw := c.Query("project_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid project_id")
			return
		}
		id := uint(parsed)
		projectID = &id
	}

	buckets, err := sc.logRepo.DailyHistogram(projectID, windowDays)
	if err != nil {
		respondCoreError(c, err, "daily histogram")
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": buckets})
}
