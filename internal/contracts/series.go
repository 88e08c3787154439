package contracts

import (
	"fmt"
	"math"
	"time"
)

// AlignedSeries is the time-series provider output consumed by the rotation engine.
// All columns share Dates; a missing observation is NaN, never zero.
// ⭐ SSOT: S0 → S1 시계열 데이터 전달
type AlignedSeries struct {
	Dates  []time.Time          `json:"dates"`
	Close  map[string][]float64 `json:"close"`  // 종가
	Volume map[string][]float64 `json:"volume"` // 거래량
	Value  map[string][]float64 `json:"value"`  // 거래대금
}

// NewAlignedSeries allocates empty tables for the given date index
func NewAlignedSeries(dates []time.Time) *AlignedSeries {
	return &AlignedSeries{
		Dates:  dates,
		Close:  make(map[string][]float64),
		Volume: make(map[string][]float64),
		Value:  make(map[string][]float64),
	}
}

// Len returns the number of rows (trading dates)
func (a *AlignedSeries) Len() int {
	return len(a.Dates)
}

// Has reports whether code has a closing-price column
func (a *AlignedSeries) Has(code string) bool {
	_, ok := a.Close[code]
	return ok
}

// AllMissing reports whether every closing price of code is missing
func (a *AlignedSeries) AllMissing(code string) bool {
	for _, v := range a.Close[code] {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

// LastDate returns the most recent trading date, zero when empty
func (a *AlignedSeries) LastDate() time.Time {
	if len(a.Dates) == 0 {
		return time.Time{}
	}
	return a.Dates[len(a.Dates)-1]
}

// Validate checks the alignment guarantee: strictly increasing dates and
// every column exactly as long as the date index.
func (a *AlignedSeries) Validate() error {
	for i := 1; i < len(a.Dates); i++ {
		if !a.Dates[i].After(a.Dates[i-1]) {
			return fmt.Errorf("dates not strictly increasing at %d (%s)", i, a.Dates[i].Format("2006-01-02"))
		}
	}

	tables := map[string]map[string][]float64{
		"close":  a.Close,
		"volume": a.Volume,
		"value":  a.Value,
	}
	for name, table := range tables {
		for code, col := range table {
			if len(col) != len(a.Dates) {
				return fmt.Errorf("%s[%s]: %d values for %d dates", name, code, len(col), len(a.Dates))
			}
		}
	}
	return nil
}

// DailyBar is one instrument on one trading date as delivered by the data provider.
// 결측 수치는 NaN
type DailyBar struct {
	Date   time.Time `json:"date"`
	Code   string    `json:"code"`
	Name   string    `json:"name,omitempty"`
	Close  float64   `json:"close"`  // 종가
	Volume float64   `json:"volume"` // 거래량
	Value  float64   `json:"value"`  // 거래대금
}
