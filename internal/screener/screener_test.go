package screener

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sector-rotation/internal/contracts"
	"github.com/wonny/sector-rotation/internal/metrics"
	"github.com/wonny/sector-rotation/internal/report"
	"github.com/wonny/sector-rotation/internal/rotationconfig"
)

const (
	benchmarkCode = "069500"
	risingCode    = "091160" // 바닥권 반등 + 거래대금 급증
	flatCode      = "091170"
	missingCode   = "102970"
)

var testAsOf = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

// fakeData serves a fixed set of bars and records the request
type fakeData struct {
	bars []contracts.DailyBar
	err  error

	codes    []string
	from, to time.Time
	calls    int
}

func (f *fakeData) FetchRange(ctx context.Context, codes []string, from, to time.Time) ([]contracts.DailyBar, error) {
	f.calls++
	f.codes, f.from, f.to = codes, from, to
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

type fakeNews struct {
	mu       sync.Mutex
	keywords []string
}

func (f *fakeNews) Headlines(ctx context.Context, keyword string, limit int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keywords = append(f.keywords, keyword)
	return []string{keyword + " 뉴스"}
}

type fakeAlerter struct {
	configured bool
	err        error
	threshold  int
	reports    []contracts.SectorReport
	calls      int
}

func (f *fakeAlerter) Configured() bool { return f.configured }

func (f *fakeAlerter) SendRotationAlert(ctx context.Context, asOf time.Time, reports []contracts.SectorReport, threshold int) (int, error) {
	f.calls++
	f.threshold = threshold
	f.reports = reports
	if f.err != nil {
		return 0, f.err
	}
	return len(reports), nil
}

type fakeStore struct {
	saved   *contracts.ScreenRun
	saveErr error
	latest  *contracts.ScreenRun
}

func (f *fakeStore) SaveRun(ctx context.Context, run *contracts.ScreenRun) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = run
	return nil
}

func (f *fakeStore) LatestRun(ctx context.Context) (*contracts.ScreenRun, error) {
	if f.latest == nil {
		return nil, errors.New("not found")
	}
	return f.latest, nil
}

// testBars builds 80 weekdays ending at testAsOf.
// rising: 100 → 80 (days 50-69) → 88, last 5 traded values tripled (score 8)
// flat:   100 throughout (score 0)
func testBars() []contracts.DailyBar {
	const n = 80

	dates := make([]time.Time, 0, n)
	for d := testAsOf; len(dates) < n; d = d.AddDate(0, 0, -1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		dates = append([]time.Time{d}, dates...)
	}

	var bars []contracts.DailyBar
	for i, d := range dates {
		price := 100.0
		switch {
		case i >= 70:
			price = 80 + float64(i-69)*0.8
		case i >= 50:
			price = 100 - float64(i-49)
		}
		value := 1000.0
		if i >= n-5 {
			value = 3000
		}

		bars = append(bars,
			contracts.DailyBar{Date: d, Code: benchmarkCode, Close: 100, Volume: 10, Value: 1000},
			contracts.DailyBar{Date: d, Code: risingCode, Close: price, Volume: 10, Value: value},
			contracts.DailyBar{Date: d, Code: flatCode, Close: 100, Volume: 10, Value: 1000},
		)
	}
	return bars
}

func testConfig() *rotationconfig.Config {
	cfg := rotationconfig.Default()
	cfg.MarketTicker = benchmarkCode
	cfg.Sectors = rotationconfig.Sectors{
		{Code: risingCode, Name: "반도체"},
		{Code: flatCode, Name: "은행"},
		{Code: missingCode, Name: "조선"},
	}
	cfg.Alerts.Enable = true
	return &cfg
}

func newTestScreener(t *testing.T, deps Deps) *Screener {
	t.Helper()
	if deps.OutputDir == "" {
		deps.OutputDir = t.TempDir()
	}
	s, err := New(testConfig(), deps)
	require.NoError(t, err)
	return s
}

func TestNew_RequiresDataSource(t *testing.T) {
	_, err := New(testConfig(), Deps{})
	assert.Error(t, err)

	_, err = New(nil, Deps{Data: &fakeData{}})
	assert.Error(t, err)
}

func TestRun_EndToEnd(t *testing.T) {
	data := &fakeData{bars: testBars()}
	news := &fakeNews{}
	alerter := &fakeAlerter{configured: true}
	store := &fakeStore{}
	outDir := t.TempDir()

	s := newTestScreener(t, Deps{
		Data:      data,
		News:      news,
		Alerter:   alerter,
		Store:     store,
		Metrics:   metrics.NewRegistry(),
		OutputDir: outDir,
	})

	run, err := s.Run(context.Background(), testAsOf, DefaultRunOptions())
	require.NoError(t, err)

	// 요청 범위: 기준일 - period_days ~ 기준일, 섹터 + 벤치마크
	assert.Equal(t, []string{risingCode, flatCode, missingCode, benchmarkCode}, data.codes)
	assert.Equal(t, testAsOf.AddDate(0, 0, -120), data.from)
	assert.Equal(t, testAsOf, data.to)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, testAsOf, run.AsOf)
	assert.Equal(t, testAsOf, run.DataTo)
	assert.Equal(t, benchmarkCode, run.Benchmark)
	assert.Len(t, run.ConfigHash, 64)
	assert.Equal(t, 2, run.Evaluated, "sector without data is skipped")

	require.Len(t, run.Reports, 1, "flat sector is below min score")
	top := run.Reports[0]
	assert.Equal(t, risingCode, top.Code)
	assert.Equal(t, "반도체", top.Name)
	assert.Equal(t, 8, top.Rotation.RotationScore)
	assert.True(t, top.Rotation.IsUndervalued)
	assert.True(t, top.Rotation.IsBouncing)
	assert.True(t, top.Rotation.HasVolumeSurge)
	assert.True(t, top.Rotation.RSImproving)
	assert.InDelta(t, 200.0, top.SupplyIncreasePct, 1e-9)
	assert.Equal(t, []string{"반도체 뉴스"}, top.Headlines)

	// 뉴스는 순위에 오른 섹터만
	assert.Equal(t, []string{"반도체"}, news.keywords)

	assert.Equal(t, 1, alerter.calls)
	assert.Equal(t, 6, alerter.threshold)

	require.NotNil(t, store.saved)
	assert.Equal(t, run.ID, store.saved.ID)

	_, err = os.Stat(filepath.Join(outDir, report.CSVFileName(testAsOf)))
	assert.NoError(t, err)
}

func TestRun_OptionsDisableSideEffects(t *testing.T) {
	news := &fakeNews{}
	alerter := &fakeAlerter{configured: true}
	outDir := t.TempDir()

	s := newTestScreener(t, Deps{
		Data:      &fakeData{bars: testBars()},
		News:      news,
		Alerter:   alerter,
		OutputDir: outDir,
	})

	run, err := s.Run(context.Background(), testAsOf, RunOptions{})
	require.NoError(t, err)
	require.Len(t, run.Reports, 1)

	assert.Nil(t, run.Reports[0].Headlines)
	assert.Empty(t, news.keywords)
	assert.Zero(t, alerter.calls)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_AlertSkippedWhenNotConfigured(t *testing.T) {
	alerter := &fakeAlerter{configured: false}
	s := newTestScreener(t, Deps{Data: &fakeData{bars: testBars()}, Alerter: alerter})

	_, err := s.Run(context.Background(), testAsOf, DefaultRunOptions())
	require.NoError(t, err)
	assert.Zero(t, alerter.calls)
}

func TestRun_SideEffectFailuresAreNotFatal(t *testing.T) {
	s := newTestScreener(t, Deps{
		Data:    &fakeData{bars: testBars()},
		Alerter: &fakeAlerter{configured: true, err: errors.New("telegram down")},
		Store:   &fakeStore{saveErr: errors.New("db down")},
	})

	run, err := s.Run(context.Background(), testAsOf, DefaultRunOptions())
	require.NoError(t, err)
	assert.Len(t, run.Reports, 1)
}

func TestRun_FetchError(t *testing.T) {
	fetchErr := errors.New("krx unavailable")
	s := newTestScreener(t, Deps{Data: &fakeData{err: fetchErr}})

	run, err := s.Run(context.Background(), testAsOf, DefaultRunOptions())
	assert.Nil(t, run)
	assert.ErrorIs(t, err, fetchErr)

	_, err = s.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestRun_MinScoreZeroKeepsSectorOrderOnTies(t *testing.T) {
	cfg := testConfig()
	cfg.Output.MinRotationScore = 0
	cfg.Sectors = rotationconfig.Sectors{
		{Code: flatCode, Name: "은행"},
		{Code: risingCode, Name: "반도체"},
		{Code: benchmarkCode, Name: "코스피200"},
	}

	s, err := New(cfg, Deps{Data: &fakeData{bars: testBars()}, OutputDir: t.TempDir()})
	require.NoError(t, err)

	run, err := s.Run(context.Background(), testAsOf, RunOptions{})
	require.NoError(t, err)

	require.Len(t, run.Reports, 3)
	assert.Equal(t, risingCode, run.Reports[0].Code)
	assert.Equal(t, flatCode, run.Reports[1].Code)
	assert.Equal(t, benchmarkCode, run.Reports[2].Code)
}

func TestLatestAndSubscribe(t *testing.T) {
	store := &fakeStore{latest: &contracts.ScreenRun{ID: "stored"}}
	s := newTestScreener(t, Deps{Data: &fakeData{bars: testBars()}, Store: store})

	// 실행 전에는 저장소 조회
	latest, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stored", latest.ID)

	var pushed []string
	s.Subscribe(func(run *contracts.ScreenRun) {
		pushed = append(pushed, run.ID)
	})

	run, err := s.Run(context.Background(), testAsOf, RunOptions{})
	require.NoError(t, err)

	latest, err = s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)
	assert.Equal(t, []string{run.ID}, pushed)
}

func TestDefaultAsOf(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "KST morning",
			now:  time.Date(2025, 7, 1, 0, 30, 0, 0, time.UTC), // 09:30 KST
			want: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "UTC previous day, KST after midnight",
			now:  time.Date(2025, 6, 30, 16, 0, 0, 0, time.UTC), // 7/1 01:00 KST
			want: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		},
	}

	s := newTestScreener(t, Deps{Data: &fakeData{}})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.now = func() time.Time { return tt.now }
			assert.Equal(t, tt.want, s.DefaultAsOf())
		})
	}
}

func TestRun_ZeroAsOfUsesYesterday(t *testing.T) {
	data := &fakeData{bars: testBars()}
	s := newTestScreener(t, Deps{Data: data})
	s.now = func() time.Time { return time.Date(2025, 7, 1, 0, 30, 0, 0, time.UTC) }

	run, err := s.Run(context.Background(), time.Time{}, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, testAsOf, run.AsOf)
	assert.Equal(t, testAsOf, data.to)
}
