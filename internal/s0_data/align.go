package s0_data

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/sector-rotation/internal/contracts"
)

// Align pivots daily bars into date-aligned close/volume/value tables.
// ⭐ SSOT: S0 → S1 시계열 정렬은 여기서만
//
// Only the requested codes are kept. A requested code gets a column only if it
// appears in at least one bar; dates where it is absent hold NaN. A later bar for
// the same (date, code) replaces an earlier one.
func Align(bars []contracts.DailyBar, codes []string) *contracts.AlignedSeries {
	wanted := make(map[string]bool, len(codes))
	for _, c := range codes {
		wanted[c] = true
	}

	// 1. 날짜 인덱스 (오름차순, 중복 제거)
	dateSet := make(map[time.Time]bool)
	seen := make(map[string]bool)
	for _, b := range bars {
		if !wanted[b.Code] {
			continue
		}
		dateSet[normalizeDate(b.Date)] = true
		seen[b.Code] = true
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	index := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}

	// 2. 컬럼 생성 (NaN 초기화)
	series := contracts.NewAlignedSeries(dates)
	for _, c := range codes {
		if !seen[c] {
			continue
		}
		series.Close[c] = nanColumn(len(dates))
		series.Volume[c] = nanColumn(len(dates))
		series.Value[c] = nanColumn(len(dates))
	}

	// 3. 값 채우기
	for _, b := range bars {
		if !wanted[b.Code] {
			continue
		}
		i := index[normalizeDate(b.Date)]
		series.Close[b.Code][i] = b.Close
		series.Volume[b.Code][i] = b.Volume
		series.Value[b.Code][i] = b.Value
	}

	return series
}

// normalizeDate truncates to the calendar date in UTC so that bars of the same
// trading day share one index entry
func normalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nanColumn(n int) []float64 {
	col := make([]float64, n)
	for i := range col {
		col[i] = math.NaN()
	}
	return col
}
