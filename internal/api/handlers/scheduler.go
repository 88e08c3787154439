package handlers

import (
	"net/http"

	"github.com/wonny/sector-rotation/internal/scheduler"
)

// JobStatsProvider exposes scheduler statistics (scheduler.Scheduler)
type JobStatsProvider interface {
	GetJobStats() map[string]scheduler.JobStats
}

// SchedulerHandler handles scheduler status endpoints
type SchedulerHandler struct {
	stats JobStatsProvider
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(stats JobStatsProvider) *SchedulerHandler {
	return &SchedulerHandler{stats: stats}
}

// GetJobs returns per-job run statistics
// GET /api/scheduler/jobs
func (h *SchedulerHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.stats.GetJobStats())
}
