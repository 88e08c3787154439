package rotation

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"github.com/wonny/sector-rotation/internal/contracts"
)

const (
	// recentWindow is the trailing slice compared against the base in the surge check
	recentWindow = 5

	// volumeBaseWindow is the base slice before the recent window in the surge check.
	// LongTermPeriod와 무관하게 고정 (최소 65개 필요)
	volumeBaseWindow = 60

	// pastRSOffset is the fixed lookback (observations from the end) of the past RS point.
	// 약 4주 전. MediumTermPeriod와 무관하게 고정
	pastRSOffset = 21
)

// MinSurgeHistory is the number of traded values the volume surge check needs
const MinSurgeHistory = volumeBaseWindow + recentWindow

// Evaluate computes the rotation result of one instrument.
// ⭐ SSOT: 순환매 점수 계산은 여기서만
//
// Evaluate never fails: a check whose precondition is not met leaves its flag false,
// its evidence 0 and records the reason in Skipped. The caller must only pass a code
// present in the close table.
func Evaluate(series *contracts.AlignedSeries, code, benchmark string, p Params) contracts.RotationResult {
	result := contracts.RotationResult{
		Code:     code,
		MaxScore: p.MaxScore(),
	}
	skip := func(check, format string, args ...interface{}) {
		result.Skipped = append(result.Skipped, contracts.SkippedCheck{
			Check:  check,
			Reason: fmt.Sprintf(format, args...),
		})
	}

	closes := series.Close[code]
	last := len(closes) - 1

	// 1. 장기 약세 (바닥권)
	if longRet, ok := pctChange(closes, p.LongTermPeriod, last); ok {
		result.LongTermReturnPct = round2(longRet)
		result.IsUndervalued = longRet < p.UndervaluedThreshold
	} else {
		skip(contracts.CheckUndervalued, "no %d-observation return (%d closes)", p.LongTermPeriod, len(closes))
	}

	// 2. 단기 반등
	if shortRet, ok := pctChange(closes, p.ShortTermPeriod, last); ok {
		result.ShortTermReturnPct = round2(shortRet)
		result.IsBouncing = shortRet > p.BounceThreshold
	} else {
		skip(contracts.CheckBounce, "no %d-observation return (%d closes)", p.ShortTermPeriod, len(closes))
	}

	// 3. 거래대금 급증
	if ratio, reason := volumeSurge(series.Value[code]); reason == "" {
		result.VolumeSurgeRatio = round2(ratio)
		result.HasVolumeSurge = ratio > p.VolumeSurgeRatio
	} else {
		skip(contracts.CheckVolumeSurge, "%s", reason)
	}

	// 4. 상대강도 개선
	if current, past, reason := relativeStrength(series, code, benchmark, p.MediumTermPeriod); reason == "" {
		result.CurrentRSPct = round2(current)
		result.PastRSPct = round2(past)
		result.RSImproving = current > past
	} else {
		skip(contracts.CheckRSImprove, "%s", reason)
	}

	// 5. 점수
	if result.IsUndervalued {
		result.RotationScore += p.WeightUndervalued
	}
	if result.IsBouncing {
		result.RotationScore += p.WeightBounce
	}
	if result.HasVolumeSurge {
		result.RotationScore += p.WeightVolume
	}
	if result.RSImproving {
		result.RotationScore += p.WeightRSImprove
	}

	return result
}

// volumeSurge returns mean(last 5) / mean(the 60 values before them).
// A non-empty reason means the ratio is undefined.
func volumeSurge(values []float64) (float64, string) {
	need := volumeBaseWindow + recentWindow
	if len(values) < need {
		return 0, fmt.Sprintf("need %d traded values, have %d", need, len(values))
	}

	n := len(values)
	recentMean := nanMean(values[n-recentWindow:])
	baseMean := nanMean(values[n-need : n-recentWindow])
	if !isFinite(baseMean) || baseMean <= 0 {
		return 0, "base traded value is zero or undefined"
	}

	ratio := recentMean / baseMean
	if !isFinite(ratio) {
		return 0, "recent traded value is undefined"
	}
	return ratio, ""
}

// relativeStrength returns (current RS, past RS) in percentage points
// (sector return minus benchmark return over the same window).
// A return that cannot be computed makes that RS 0, not undefined.
func relativeStrength(series *contracts.AlignedSeries, code, benchmark string, period int) (float64, float64, string) {
	market, ok := series.Close[benchmark]
	if !ok {
		return 0, 0, fmt.Sprintf("benchmark %s not in close table", benchmark)
	}

	n := series.Len()
	if need := period + pastRSOffset; period <= 0 || n < need {
		return 0, 0, fmt.Sprintf("need %d observations, have %d", need, n)
	}

	sector := series.Close[code]
	rsAt := func(end int) float64 {
		s, okS := pctChange(sector, period, end)
		m, okM := pctChange(market, period, end)
		if !okS || !okM {
			return 0
		}
		return s - m
	}

	// 이전 시점 = 끝에서 21번째 관측치
	return rsAt(n - 1), rsAt(n - pastRSOffset), ""
}

// pctChange returns the period-observation percent change ending at index end.
// Gaps are forward-filled first; an undefined ratio reports ok=false.
func pctChange(values []float64, period, end int) (float64, bool) {
	if period <= 0 || end < period || end >= len(values) {
		return 0, false
	}

	filled := forwardFill(values[:end+1])
	window := filled[end-period:]
	if !isFinite(window[0]) || window[0] == 0 || !isFinite(window[period]) {
		return 0, false
	}

	// ROC = (close / close[n 전] - 1) * 100
	roc := talib.Roc(window, period)
	value := roc[period]
	if !isFinite(value) {
		return 0, false
	}
	return value, true
}

// forwardFill carries the last observed value over NaN gaps; leading gaps stay NaN
func forwardFill(values []float64) []float64 {
	out := make([]float64, len(values))
	prev := math.NaN()
	for i, v := range values {
		if !math.IsNaN(v) {
			prev = v
		}
		out[i] = prev
	}
	return out
}

// nanMean averages the observed values, NaN when none are observed
func nanMean(values []float64) float64 {
	var sum float64
	var count int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
