package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sector-rotation/internal/scheduler"
	"github.com/wonny/sector-rotation/internal/scheduler/jobs"
)

// reportRetention is how long CSV reports are kept by report_cleanup
const reportRetention = 90 * 24 * time.Hour

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `정기 스크리닝 스케줄러를 시작하거나 작업을 즉시 실행합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업과 다음 실행 시각
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run sector_rotation_screen`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다 (KST 기준).

등록되는 작업:
- sector_rotation_screen: config.yaml schedule.cron (기본 평일 08:30)
- report_cleanup: 매일 03:00 (90일 지난 CSV 삭제)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// newScheduler registers the screening and cleanup jobs
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	if err := sched.AddJob(jobs.NewScreenJob(a.screener, a.runCfg.Schedule.Cron, a.log)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewReportCleanupJob(a.cfg.OutputDir, reportRetention, a.log)); err != nil {
		return nil, err
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	PrintHeader("Sector Rotation Scheduler")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()
	printJobs(sched)
	PrintInfo("Press Ctrl+C to stop")

	<-ctx.Done()

	sched.Stop()
	PrintSuccess("Scheduler stopped")
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// 다음 실행 시각 계산을 위해 잠시 시작
	sched.Start()
	defer sched.Stop()
	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	PrintInfo(fmt.Sprintf("Running job: %s", jobName))
	result, err := sched.RunJob(ctx, jobName)
	if err != nil {
		return err
	}
	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %d attempts: %s", jobName, result.Attempts, result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}

	PrintSuccess(fmt.Sprintf("%s completed in %s", jobName, result.Duration.Round(time.Millisecond)))
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	widths := []int{24, 20, 20}

	PrintTableHeader([]string{"Job", "Schedule", "Next run (KST)"}, widths)
	for _, name := range sched.GetAllJobs() {
		next := "-"
		if t, err := sched.NextRun(name); err == nil && !t.IsZero() {
			next = t.In(scheduler.KST).Format("2006-01-02 15:04")
		}
		PrintTableRow([]string{name, stats[name].Schedule, next}, widths)
	}
}
