package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sector-rotation/internal/report"
	"github.com/wonny/sector-rotation/internal/screener"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "섹터 순환매 스크리닝 1회 실행",
	Long: `섹터 ETF 데이터를 수집하고 순환매 점수를 계산하여 리포트를 출력합니다.

이 명령어는:
- KRX에서 기준일까지 period_days 기간의 ETF 일별 시세 수집
- 섹터별 순환매 점수 계산 (바닥권/반등/거래대금 급증/RS 개선)
- 최소 점수 필터, 점수 내림차순 정렬, 상위 N개 선택
- 뉴스 헤드라인 수집, 텔레그램 알림, CSV 저장

Example:
  go run ./cmd/quant screen
  go run ./cmd/quant screen --date 2025-06-30
  go run ./cmd/quant screen --no-news --no-alert --no-csv`,
	RunE: runScreen,
}

var (
	screenDate    string
	screenNoNews  bool
	screenNoAlert bool
	screenNoCSV   bool
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringVar(&screenDate, "date", "", "기준일 YYYY-MM-DD (기본: 어제)")
	screenCmd.Flags().BoolVar(&screenNoNews, "no-news", false, "뉴스 수집 생략")
	screenCmd.Flags().BoolVar(&screenNoAlert, "no-alert", false, "텔레그램 알림 생략")
	screenCmd.Flags().BoolVar(&screenNoCSV, "no-csv", false, "CSV 저장 생략")
}

func runScreen(cmd *cobra.Command, args []string) error {
	var asOf time.Time
	if screenDate != "" {
		d, err := time.Parse("2006-01-02", screenDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", screenDate)
		}
		asOf = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := screener.RunOptions{
		News:  !screenNoNews,
		Alert: !screenNoAlert,
		CSV:   !screenNoCSV,
	}

	start := time.Now()
	run, err := a.screener.Run(ctx, asOf, opts)
	if err != nil {
		PrintError(fmt.Sprintf("Screening failed: %v", err))
		return err
	}

	tiers := report.Tiers{
		High:     a.runCfg.Alerts.RotationScoreThreshold,
		Momentum: a.runCfg.Output.MinRotationScore,
	}
	if err := report.WriteConsole(out, run, tiers); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Run %s completed in %.1fs (%d evaluated, %d reported)",
		run.ID, time.Since(start).Seconds(), run.Evaluated, len(run.Reports)))
	return nil
}
