package s0_data

import (
	"math"

	"github.com/wonny/sector-rotation/internal/contracts"
)

// QualitySnapshot summarises how complete the aligned closes are
type QualitySnapshot struct {
	Dates    int                `json:"dates"`
	Coverage map[string]float64 `json:"coverage"` // 코드별 종가 관측 비율 (0~1)
	Missing  []string           `json:"missing"`  // 요청했으나 컬럼이 없는 코드
}

// Check computes close coverage for the requested codes
func Check(series *contracts.AlignedSeries, codes []string) QualitySnapshot {
	snapshot := QualitySnapshot{
		Dates:    series.Len(),
		Coverage: make(map[string]float64, len(codes)),
	}

	for _, code := range codes {
		col, ok := series.Close[code]
		if !ok {
			snapshot.Missing = append(snapshot.Missing, code)
			continue
		}
		if len(col) == 0 {
			snapshot.Coverage[code] = 0
			continue
		}

		observed := 0
		for _, v := range col {
			if !math.IsNaN(v) {
				observed++
			}
		}
		snapshot.Coverage[code] = float64(observed) / float64(len(col))
	}

	return snapshot
}

// MinCoverage returns the lowest coverage and its code ("" when no columns)
func (q QualitySnapshot) MinCoverage() (string, float64) {
	minCode, minCov := "", 1.0
	for code, cov := range q.Coverage {
		if minCode == "" || cov < minCov || (cov == minCov && code < minCode) {
			minCode, minCov = code, cov
		}
	}
	if minCode == "" {
		return "", 0
	}
	return minCode, minCov
}
