package screener

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/sector-rotation/internal/contracts"
	"github.com/wonny/sector-rotation/internal/metrics"
	"github.com/wonny/sector-rotation/internal/report"
	"github.com/wonny/sector-rotation/internal/rotation"
	"github.com/wonny/sector-rotation/internal/rotationconfig"
	"github.com/wonny/sector-rotation/internal/s0_data"
	"github.com/wonny/sector-rotation/pkg/logger"
)

// ErrNoRun is returned by Latest before any run completed
var ErrNoRun = errors.New("no screening run available")

const defaultWorkers = 4

var kst = time.FixedZone("KST", 9*60*60)

// DataSource provides daily bars for a date range (krx.Client)
type DataSource interface {
	FetchRange(ctx context.Context, codes []string, from, to time.Time) ([]contracts.DailyBar, error)
}

// NewsSource provides headlines for a keyword (naver.Client)
type NewsSource interface {
	Headlines(ctx context.Context, keyword string, limit int) []string
}

// Alerter sends high-score sectors (telegram.Notifier)
type Alerter interface {
	Configured() bool
	SendRotationAlert(ctx context.Context, asOf time.Time, reports []contracts.SectorReport, threshold int) (int, error)
}

// RunStore persists runs (storage.Repository)
type RunStore interface {
	SaveRun(ctx context.Context, run *contracts.ScreenRun) error
	LatestRun(ctx context.Context) (*contracts.ScreenRun, error)
}

// Deps are the collaborators of a Screener. Only Data is required.
type Deps struct {
	Data      DataSource
	News      NewsSource
	Alerter   Alerter
	Store     RunStore
	Metrics   *metrics.Registry
	Logger    *logger.Logger
	OutputDir string // CSV 저장 경로 (빈 값이면 현재 디렉토리)
	Workers   int
}

// RunOptions switches the side effects of a single run
type RunOptions struct {
	News  bool
	Alert bool
	CSV   bool
}

// DefaultRunOptions enables every side effect the config allows
func DefaultRunOptions() RunOptions {
	return RunOptions{News: true, Alert: true, CSV: true}
}

// Screener runs the sector rotation screen end to end
// ⭐ SSOT: 조회 → 정렬 → 평가 → 순위 → 알림/저장 흐름은 여기서만
type Screener struct {
	cfg  *rotationconfig.Config
	hash string
	deps Deps
	log  *logger.Logger
	now  func() time.Time

	runMu sync.Mutex // 동시에 하나의 실행만

	mu          sync.RWMutex
	latest      *contracts.ScreenRun
	subscribers []func(*contracts.ScreenRun)
}

// New creates a screener for a validated run configuration
func New(cfg *rotationconfig.Config, deps Deps) (*Screener, error) {
	if cfg == nil {
		return nil, errors.New("rotation config is required")
	}
	if deps.Data == nil {
		return nil, errors.New("data source is required")
	}

	hash, err := rotationconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash config: %w", err)
	}

	if deps.Workers <= 0 {
		deps.Workers = defaultWorkers
	}
	if deps.OutputDir == "" {
		deps.OutputDir = "."
	}
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Screener{
		cfg:  cfg,
		hash: hash,
		deps: deps,
		log:  log.WithComponent("screener"),
		now:  time.Now,
	}, nil
}

// Config returns the run configuration
func (s *Screener) Config() *rotationconfig.Config {
	return s.cfg
}

// Subscribe registers fn to be called with every completed run
func (s *Screener) Subscribe(fn func(*contracts.ScreenRun)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Latest returns the last completed run, falling back to the store
func (s *Screener) Latest(ctx context.Context) (*contracts.ScreenRun, error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		return latest, nil
	}

	if s.deps.Store == nil {
		return nil, ErrNoRun
	}
	run, err := s.deps.Store.LatestRun(ctx)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// DefaultAsOf returns yesterday in KST
func (s *Screener) DefaultAsOf() time.Time {
	y, m, d := s.now().In(kst).AddDate(0, 0, -1).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Run executes one screening run for asOf (zero value: yesterday)
func (s *Screener) Run(ctx context.Context, asOf time.Time, opts RunOptions) (*contracts.ScreenRun, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := s.now()
	run, err := s.run(ctx, asOf, opts)
	elapsed := s.now().Sub(start).Seconds()

	if err != nil {
		s.recordRun("error", elapsed)
		return nil, err
	}
	s.recordRun("success", elapsed)

	s.mu.Lock()
	s.latest = run
	subscribers := append([]func(*contracts.ScreenRun){}, s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(run)
	}
	return run, nil
}

func (s *Screener) run(ctx context.Context, asOf time.Time, opts RunOptions) (*contracts.ScreenRun, error) {
	if asOf.IsZero() {
		asOf = s.DefaultAsOf()
	} else {
		y, m, d := asOf.Date()
		asOf = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	from := asOf.AddDate(0, 0, -s.cfg.Analysis.PeriodDays)
	benchmark := s.cfg.MarketTicker

	codes := append(s.cfg.Sectors.Codes(), benchmark)

	s.log.WithFields(map[string]interface{}{
		"as_of":   asOf.Format("2006-01-02"),
		"from":    from.Format("2006-01-02"),
		"sectors": len(s.cfg.Sectors),
	}).Info("Screening run started")

	bars, err := s.deps.Data.FetchRange(ctx, codes, from, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars: %w", err)
	}

	series := s0_data.Align(bars, codes)
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("align daily bars: %w", err)
	}
	s.logQuality(series, codes)

	reports := s.evaluate(ctx, series, benchmark)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked := rotation.Rank(reports, s.cfg.RankOptions())

	if opts.News && s.cfg.Output.ShowNews && s.deps.News != nil {
		for i := range ranked {
			ranked[i].Headlines = s.deps.News.Headlines(ctx, ranked[i].Name, s.cfg.Output.MaxNews)
		}
	}

	run := &contracts.ScreenRun{
		ID:         uuid.NewString(),
		AsOf:       asOf,
		DataFrom:   from,
		DataTo:     series.LastDate(),
		Benchmark:  benchmark,
		ConfigHash: s.hash,
		Evaluated:  len(reports),
		Reports:    ranked,
		CreatedAt:  s.now(),
	}
	if run.Reports == nil {
		run.Reports = []contracts.SectorReport{}
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.SetSectorsReported(len(ranked))
	}

	// 이하 부가 작업 실패는 실행을 중단하지 않음
	if opts.Alert {
		s.sendAlert(ctx, run)
	}
	if opts.CSV {
		path, err := report.SaveCSV(s.deps.OutputDir, asOf, run.Reports)
		if err != nil {
			s.log.WithError(err).Warn("CSV save failed")
		} else {
			s.log.WithField("path", path).Info("CSV saved")
		}
	}
	if s.deps.Store != nil {
		if err := s.deps.Store.SaveRun(ctx, run); err != nil {
			s.log.WithError(err).WithField("run_id", run.ID).Warn("Run persistence failed")
		}
	}

	s.log.WithFields(map[string]interface{}{
		"run_id":    run.ID,
		"evaluated": run.Evaluated,
		"reported":  len(run.Reports),
		"data_to":   run.DataTo.Format("2006-01-02"),
	}).Info("Screening run completed")

	return run, nil
}

// evaluate scores every usable sector on a bounded worker pool.
// The result keeps the configured sector order.
func (s *Screener) evaluate(ctx context.Context, series *contracts.AlignedSeries, benchmark string) []contracts.SectorReport {
	params := s.cfg.Params()
	an := s.cfg.Analysis

	type job struct {
		idx    int
		sector rotationconfig.Sector
	}

	results := make([]*contracts.SectorReport, len(s.cfg.Sectors))
	jobs := make(chan job)

	var wg sync.WaitGroup
	for w := 0; w < s.deps.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				rot := rotation.Evaluate(series, j.sector.Code, benchmark, params)
				results[j.idx] = &contracts.SectorReport{
					Code:              j.sector.Code,
					Name:              j.sector.Name,
					Rotation:          rot,
					SupplyIncreasePct: rotation.TradeValueChange(series.Value[j.sector.Code], an.VolumeCompareRecent, an.VolumeComparePrev),
				}
			}
		}()
	}

feed:
	for i, sec := range s.cfg.Sectors {
		if !series.Has(sec.Code) || series.AllMissing(sec.Code) {
			s.log.WithFields(map[string]interface{}{
				"code": sec.Code,
				"name": sec.Name,
			}).Warn("No close data, sector skipped")
			continue
		}
		select {
		case jobs <- job{idx: i, sector: sec}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	reports := make([]contracts.SectorReport, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		reports = append(reports, *r)

		s.log.WithFields(map[string]interface{}{
			"code":  r.Code,
			"name":  r.Name,
			"score": r.Rotation.RotationScore,
			"max":   r.Rotation.MaxScore,
		}).Debug("Sector evaluated")

		if s.deps.Metrics != nil {
			s.deps.Metrics.SetSectorScore(r.Code, r.Rotation.RotationScore)
			for _, sk := range r.Rotation.Skipped {
				s.deps.Metrics.RecordSkippedCheck(sk.Check)
			}
		}
	}
	return reports
}

func (s *Screener) logQuality(series *contracts.AlignedSeries, codes []string) {
	q := s0_data.Check(series, codes)
	minCode, minCov := q.MinCoverage()

	entry := s.log.WithFields(map[string]interface{}{
		"dates":        q.Dates,
		"min_coverage": minCov,
		"min_code":     minCode,
	})
	if len(q.Missing) > 0 {
		entry.WithField("missing", q.Missing).Warn("Data quality: codes without data")
		return
	}
	entry.Info("Data quality")
}

func (s *Screener) sendAlert(ctx context.Context, run *contracts.ScreenRun) {
	if !s.cfg.Alerts.Enable || s.deps.Alerter == nil || !s.deps.Alerter.Configured() {
		return
	}

	n, err := s.deps.Alerter.SendRotationAlert(ctx, run.AsOf, run.Reports, s.cfg.Alerts.RotationScoreThreshold)
	if err != nil {
		s.log.WithError(err).Warn("Rotation alert failed")
		s.recordAlert("error")
		return
	}
	if n > 0 {
		s.recordAlert("sent")
	}
}

func (s *Screener) recordRun(status string, seconds float64) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordRun(status, seconds)
	}
}

func (s *Screener) recordAlert(status string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordAlert(status)
	}
}
