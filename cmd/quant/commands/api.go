package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sector-rotation/internal/api"
	"github.com/wonny/sector-rotation/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST/WebSocket API 서버를 시작합니다.

Endpoints:
  GET  /health                - Health check
  GET  /api/rotation/latest   - 최근 스크리닝 결과
  POST /api/rotation/run      - 스크리닝 실행 (?wait=true 동기 실행)
  GET  /api/scheduler/jobs    - 스케줄 작업 통계 (--with-scheduler)
  GET  /ws/rotation           - 완료된 스크리닝 결과 푸시
  GET  /metrics               - Prometheus 메트릭

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: $PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "정기 스크리닝 스케줄러 함께 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	PrintHeader("Sector Rotation API Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	hub := api.NewHub(a.log)
	defer hub.Close()
	a.screener.Subscribe(hub.Broadcast)

	deps := api.RouterDeps{
		Rotation: handlers.NewRotationHandler(ctx, a.screener, a.log),
		Hub:      hub,
		Metrics:  a.metrics,
		Logger:   a.log,
	}

	if apiWithScheduler {
		sched, err := newScheduler(a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		deps.Scheduler = handlers.NewSchedulerHandler(sched)
	}

	server := api.New(a.cfg, a.log, api.NewRouter(deps))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s", a.cfg.Port))
	PrintInfo("Press Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	PrintSuccess("Server stopped")
	return nil
}
