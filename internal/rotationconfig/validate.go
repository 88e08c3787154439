package rotationconfig

import (
	"fmt"
	"math"

	"github.com/robfig/cron/v3"

	"github.com/wonny/sector-rotation/internal/rotation"
)

// ValidationError 검증 실패 (실행 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// CronParser parses 6-field (with seconds) schedules, same as the scheduler
var CronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks all required constraints
// 엔진은 설정 범위를 검증하지 않으므로 여기서 모두 확인
func Validate(cfg *Config) error {
	// === Universe ===
	if cfg.MarketTicker == "" {
		return ValidationError{"market_ticker", "required"}
	}
	if len(cfg.Sectors) == 0 {
		return ValidationError{"sectors", "at least one sector required"}
	}
	for _, s := range cfg.Sectors {
		if s.Code == "" {
			return ValidationError{"sectors", "empty sector code"}
		}
		if s.Name == "" {
			return ValidationError{"sectors." + s.Code, "name required"}
		}
	}

	// === Analysis ===
	a := cfg.Analysis
	if a.PeriodDays <= 0 {
		return ValidationError{"analysis.period_days", "must be > 0"}
	}
	if a.RSWindow <= 0 {
		return ValidationError{"analysis.rs_window", "must be > 0"}
	}
	if a.VolumeCompareRecent <= 0 {
		return ValidationError{"analysis.volume_compare_recent", "must be > 0"}
	}
	if a.VolumeComparePrev <= 0 {
		return ValidationError{"analysis.volume_compare_prev", "must be > 0"}
	}

	// === Rotation detection ===
	rd := a.RotationDetection
	windows := map[string]int{
		"long_term_period":   rd.LongTermPeriod,
		"short_term_period":  rd.ShortTermPeriod,
		"medium_term_period": rd.MediumTermPeriod,
	}
	for _, name := range []string{"long_term_period", "short_term_period", "medium_term_period"} {
		if windows[name] <= 0 {
			return ValidationError{"analysis.rotation_detection." + name, "must be > 0"}
		}
	}
	if !isFinite(rd.UndervaluedThreshold) {
		return ValidationError{"analysis.rotation_detection.undervalued_threshold", "must be finite"}
	}
	if !isFinite(rd.BounceThreshold) || rd.BounceThreshold < 0 {
		return ValidationError{"analysis.rotation_detection.bounce_threshold", "must be >= 0"}
	}
	if !isFinite(rd.VolumeSurgeRatio) || rd.VolumeSurgeRatio <= 0 {
		return ValidationError{"analysis.rotation_detection.volume_surge_ratio", "must be > 0"}
	}

	weights := map[string]int{
		"weight_undervalued": rd.WeightUndervalued,
		"weight_bounce":      rd.WeightBounce,
		"weight_volume":      rd.WeightVolume,
		"weight_rs_improve":  rd.WeightRSImprove,
	}
	for _, name := range []string{"weight_undervalued", "weight_bounce", "weight_volume", "weight_rs_improve"} {
		if weights[name] < 0 {
			return ValidationError{"analysis.rotation_detection." + name, "must be >= 0"}
		}
	}

	// === Output ===
	if cfg.Output.ShowTopN < 0 {
		return ValidationError{"output.show_top_n", "must be >= 0"}
	}
	if cfg.Output.MinRotationScore < 0 {
		return ValidationError{"output.min_rotation_score", "must be >= 0"}
	}
	if cfg.Output.MaxNews < 0 {
		return ValidationError{"output.max_news", "must be >= 0"}
	}

	// === Alerts ===
	if cfg.Alerts.RotationScoreThreshold < 0 {
		return ValidationError{"alerts.rotation_score_threshold", "must be >= 0"}
	}

	// === Schedule ===
	if _, err := CronParser.Parse(cfg.Schedule.Cron); err != nil {
		return ValidationError{"schedule.cron", err.Error()}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	rd := cfg.Analysis.RotationDetection

	// 달력 기간 → 대략적인 거래일 수 (주 5일)
	tradingDays := cfg.Analysis.PeriodDays * 5 / 7
	if need := rotation.MinSurgeHistory; tradingDays < need {
		warnings = append(warnings, Warning{
			Code:    "SHORT_HISTORY",
			Message: fmt.Sprintf("period_days %d ≈ %d 거래일 < %d: 거래대금 급증 판단 불가", cfg.Analysis.PeriodDays, tradingDays, need),
		})
	}
	if need := rd.MediumTermPeriod + 21; tradingDays < need {
		warnings = append(warnings, Warning{
			Code:    "SHORT_RS_HISTORY",
			Message: fmt.Sprintf("period_days %d ≈ %d 거래일 < %d: RS 개선 판단 불가", cfg.Analysis.PeriodDays, tradingDays, need),
		})
	}

	if rd.VolumeSurgeRatio <= 1 {
		warnings = append(warnings, Warning{
			Code:    "LOW_SURGE_RATIO",
			Message: "volume_surge_ratio <= 1: 평균 이하 거래대금도 급증으로 판단",
		})
	}
	if rd.UndervaluedThreshold > 0 {
		warnings = append(warnings, Warning{
			Code:    "POSITIVE_UNDERVALUED",
			Message: "undervalued_threshold > 0: 상승 중인 섹터도 바닥권으로 판단",
		})
	}

	if maxScore := cfg.Params().MaxScore(); cfg.Output.MinRotationScore > maxScore {
		warnings = append(warnings, Warning{
			Code:    "UNREACHABLE_MIN_SCORE",
			Message: fmt.Sprintf("min_rotation_score %d > 최대 점수 %d: 결과 없음", cfg.Output.MinRotationScore, maxScore),
		})
	}

	for _, s := range cfg.Sectors {
		if s.Code == cfg.MarketTicker {
			warnings = append(warnings, Warning{
				Code:    "BENCHMARK_IN_SECTORS",
				Message: fmt.Sprintf("벤치마크 %s가 섹터 목록에 포함됨", s.Code),
			})
		}
	}

	return warnings
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
