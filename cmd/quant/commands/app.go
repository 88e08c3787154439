package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/sector-rotation/internal/external/krx"
	"github.com/wonny/sector-rotation/internal/external/naver"
	"github.com/wonny/sector-rotation/internal/metrics"
	"github.com/wonny/sector-rotation/internal/notifier/telegram"
	"github.com/wonny/sector-rotation/internal/rotationconfig"
	"github.com/wonny/sector-rotation/internal/screener"
	"github.com/wonny/sector-rotation/internal/storage"
	"github.com/wonny/sector-rotation/pkg/config"
	"github.com/wonny/sector-rotation/pkg/database"
	"github.com/wonny/sector-rotation/pkg/httputil"
	"github.com/wonny/sector-rotation/pkg/logger"
	"github.com/wonny/sector-rotation/pkg/redis"
)

const cachePrefix = "sector-rotation"

// app holds the wired dependencies shared by screen, scheduler and api
type app struct {
	cfg      *config.Config
	runCfg   *rotationconfig.Config
	log      *logger.Logger
	db       *database.DB // nil when DATABASE_URL is empty
	rdb      *redis.Client
	metrics  *metrics.Registry
	screener *screener.Screener
}

// newApp loads both configuration layers and wires every component
func newApp(ctx context.Context) (*app, error) {
	// 1. Environment
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if rotationConfigPath != "" {
		cfg.RotationConfigPath = rotationConfigPath
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	// 2. Run config (YAML)
	runCfg, _, err := rotationconfig.Load(cfg.RotationConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load run config: %w", err)
	}
	for _, w := range rotationconfig.Warn(runCfg) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	a := &app{cfg: cfg, runCfg: runCfg, log: log}

	// 3. Redis (optional)
	a.rdb, err = redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without cache")
		a.rdb = redis.Disabled()
	}
	cache := redis.NewCache(a.rdb, cachePrefix)
	limiter := redis.NewRateLimiter(a.rdb, cachePrefix)

	// 4. Database (optional)
	var store screener.RunStore
	a.db, err = database.New(ctx, cfg)
	switch {
	case errors.Is(err, database.ErrDisabled):
		log.Info("DATABASE_URL not set, run persistence disabled")
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		repo := storage.NewRepository(a.db.Pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		store = repo
	}

	// 5. External clients
	krxHTTP := httputil.NewWithTimeout(log, cfg.KRX.Timeout).
		WithInterval(cfg.KRX.RequestInterval).
		WithRateLimiter(limiter, redis.KRXRateLimit)
	krxClient, err := krx.NewClient(krxHTTP, cache, cfg.KRX, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create KRX client: %w", err)
	}

	naverHTTP := httputil.New(log).WithRateLimiter(limiter, redis.NaverRateLimit)
	newsClient := naver.NewClient(naverHTTP, cache, cfg.Naver, log)

	telegramHTTP := httputil.New(log).WithRateLimiter(limiter, redis.TelegramRateLimit)
	notifier := telegram.New(telegramHTTP, cfg.Telegram, log)

	// 6. Metrics
	if cfg.MetricsEnabled {
		a.metrics = metrics.NewRegistry()
	}

	// 7. Screener
	a.screener, err = screener.New(runCfg, screener.Deps{
		Data:      krxClient,
		News:      newsClient,
		Alerter:   notifier,
		Store:     store,
		Metrics:   a.metrics,
		Logger:    log,
		OutputDir: cfg.OutputDir,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create screener: %w", err)
	}

	return a, nil
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}
