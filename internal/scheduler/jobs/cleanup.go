package jobs

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/wonny/sector-rotation/pkg/logger"
)

const reportPattern = "sector_rotation_analysis_*.csv"

// ReportCleanupJob removes CSV reports older than the retention period
type ReportCleanupJob struct {
	dir       string
	retention time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

// NewReportCleanupJob creates a cleanup job for dir
func NewReportCleanupJob(dir string, retention time.Duration, log *logger.Logger) *ReportCleanupJob {
	return &ReportCleanupJob{
		dir:       dir,
		retention: retention,
		logger:    log,
		now:       time.Now,
	}
}

// Name returns the job name
func (j *ReportCleanupJob) Name() string {
	return "report_cleanup"
}

// Schedule returns the cron schedule (daily at 3 AM)
func (j *ReportCleanupJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run deletes expired reports, judged by file modification time
func (j *ReportCleanupJob) Run(ctx context.Context) error {
	matches, err := filepath.Glob(filepath.Join(j.dir, reportPattern))
	if err != nil {
		return err
	}

	cutoff := j.now().Add(-j.retention)
	removed := 0
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			j.logger.WithError(err).WithField("path", path).Warn("Failed to remove report")
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Report cleanup completed")
	}
	return nil
}
