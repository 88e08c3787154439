package rotationconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sector-rotation/internal/rotation"
)

const minimalYAML = `
market_ticker: "069500"
sectors:
  "091180": 자동차
  "091160": 반도체
  "117700": 건설
analysis:
  period_days: 90
  rs_window: 20
  volume_compare_recent: 5
  volume_compare_prev: 20
  volume_threshold_strong: 50
  volume_threshold_medium: 20
`

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "069500", cfg.MarketTicker)
	assert.Equal(t, 90, cfg.Analysis.PeriodDays)
	assert.Equal(t, rotation.DefaultParams(), cfg.Params())
	assert.Equal(t, rotation.RankOptions{MinScore: 4, TopN: 15}, cfg.RankOptions())
	assert.True(t, cfg.Output.ShowNews)
	assert.Equal(t, 3, cfg.Output.MaxNews)
	assert.False(t, cfg.Alerts.Enable)
	assert.Equal(t, 6, cfg.Alerts.RotationScoreThreshold)
	assert.Equal(t, "0 30 8 * * MON-FRI", cfg.Schedule.Cron)
}

func TestParse_KeepsSectorOrder(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"091180", "091160", "117700"}, cfg.Sectors.Codes())
	assert.Equal(t, "반도체", cfg.SectorName("091160"))
	assert.Equal(t, "999999", cfg.SectorName("999999"))
}

func TestParse_Overrides(t *testing.T) {
	yaml := minimalYAML + `
  rotation_detection:
    long_term_period: 40
    weight_bounce: 5
output:
  show_top_n: 0
  show_news: false
`
	cfg, err := Parse([]byte(yaml))
	require.NoError(t, err)

	p := cfg.Params()
	assert.Equal(t, 40, p.LongTermPeriod)
	assert.Equal(t, 5, p.WeightBounce)
	assert.Equal(t, 10, p.MaxScore())
	// 지정하지 않은 키는 기본값 유지
	assert.Equal(t, 10, p.ShortTermPeriod)
	assert.Equal(t, 0, cfg.Output.ShowTopN)
	assert.False(t, cfg.Output.ShowNews)
	assert.Equal(t, 4, cfg.Output.MinRotationScore)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantField string
	}{
		{
			name: "unknown field",
			yaml: minimalYAML + "\nextra_key: 1\n",
		},
		{
			name: "duplicate sector",
			yaml: "market_ticker: \"069500\"\nsectors:\n  \"091160\": 반도체\n  \"091160\": 반도체2\n",
		},
		{
			name: "sectors as list",
			yaml: "market_ticker: \"069500\"\nsectors:\n  - \"091160\"\n",
		},
		{
			name:      "missing market ticker",
			yaml:      "sectors:\n  \"091160\": 반도체\n",
			wantField: "market_ticker",
		},
		{
			name:      "no sectors",
			yaml:      "market_ticker: \"069500\"\n",
			wantField: "sectors",
		},
		{
			name:      "negative weight",
			yaml:      minimalYAML + "  rotation_detection:\n    weight_volume: -1\n",
			wantField: "analysis.rotation_detection.weight_volume",
		},
		{
			name:      "zero window",
			yaml:      minimalYAML + "  rotation_detection:\n    medium_term_period: 0\n",
			wantField: "analysis.rotation_detection.medium_term_period",
		},
		{
			name:      "nan threshold",
			yaml:      minimalYAML + "  rotation_detection:\n    undervalued_threshold: .nan\n",
			wantField: "analysis.rotation_detection.undervalued_threshold",
		},
		{
			name:      "negative top n",
			yaml:      minimalYAML + "output:\n  show_top_n: -1\n",
			wantField: "output.show_top_n",
		},
		{
			name:      "bad cron",
			yaml:      minimalYAML + "schedule:\n  cron: \"every morning\"\n",
			wantField: "schedule.cron",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)

			if tt.wantField != "" {
				var verr ValidationError
				require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
				assert.Equal(t, tt.wantField, verr.Field)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o644))

	cfg, data, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, minimalYAML, string(data))
	assert.Len(t, cfg.Sectors, 3)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_RepositoryConfig(t *testing.T) {
	path := "../../config.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, Warn(cfg))
}

func TestHash(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	// 동일 설정 → 동일 해시
	hash2, _ := Hash(cfg)
	assert.Equal(t, hash, hash2)

	// 섹터 순서가 바뀌면 해시도 바뀜
	cfg.Sectors[0], cfg.Sectors[1] = cfg.Sectors[1], cfg.Sectors[0]
	hash3, _ := Hash(cfg)
	assert.NotEqual(t, hash, hash3)
}

func TestWarn(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	// 90일 ≈ 64 거래일 < 65
	codes := warningCodes(Warn(cfg))
	assert.Contains(t, codes, "SHORT_HISTORY")
	assert.NotContains(t, codes, "SHORT_RS_HISTORY")

	cfg.Analysis.PeriodDays = 120
	cfg.Output.MinRotationScore = 9
	cfg.Sectors = append(cfg.Sectors, Sector{Code: "069500", Name: "코스피200"})
	codes = warningCodes(Warn(cfg))
	assert.NotContains(t, codes, "SHORT_HISTORY")
	assert.Contains(t, codes, "UNREACHABLE_MIN_SCORE")
	assert.Contains(t, codes, "BENCHMARK_IN_SECTORS")

	// 급증 판단은 long_term_period와 무관하게 65개 필요
	cfg.Analysis.PeriodDays = 90
	cfg.Analysis.RotationDetection.LongTermPeriod = 20
	assert.Contains(t, warningCodes(Warn(cfg)), "SHORT_HISTORY")
}

func warningCodes(warnings []Warning) []string {
	codes := make([]string, len(warnings))
	for i, w := range warnings {
		codes[i] = w.Code
	}
	return codes
}
