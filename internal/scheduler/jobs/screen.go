package jobs

import (
	"context"
	"time"

	"github.com/wonny/sector-rotation/internal/contracts"
	"github.com/wonny/sector-rotation/internal/screener"
	"github.com/wonny/sector-rotation/pkg/logger"
)

// Runner runs one screening (screener.Screener)
type Runner interface {
	Run(ctx context.Context, asOf time.Time, opts screener.RunOptions) (*contracts.ScreenRun, error)
}

// ScreenJob runs the sector rotation screen before the market opens
// ⭐ SSOT: 정기 스크리닝 스케줄은 이 Job에서만
type ScreenJob struct {
	runner   Runner
	schedule string
	logger   *logger.Logger
}

// NewScreenJob creates a screening job on the given cron expression
func NewScreenJob(runner Runner, schedule string, log *logger.Logger) *ScreenJob {
	return &ScreenJob{
		runner:   runner,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScreenJob) Name() string {
	return "sector_rotation_screen"
}

// Schedule returns the cron schedule (YAML schedule.cron)
func (j *ScreenJob) Schedule() string {
	return j.schedule
}

// Run screens with yesterday as the evaluation date
func (j *ScreenJob) Run(ctx context.Context) error {
	run, err := j.runner.Run(ctx, time.Time{}, screener.DefaultRunOptions())
	if err != nil {
		return err
	}

	top := ""
	if len(run.Reports) > 0 {
		top = run.Reports[0].Name
	}
	j.logger.WithFields(map[string]interface{}{
		"run_id":   run.ID,
		"as_of":    run.AsOf.Format("2006-01-02"),
		"reported": len(run.Reports),
		"top":      top,
	}).Info("Scheduled screening finished")

	return nil
}
