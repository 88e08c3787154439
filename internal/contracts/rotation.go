package contracts

import "time"

// RotationResult is the outcome of one rotation evaluation.
// Created once per (sector, evaluation date); never mutated afterwards.
type RotationResult struct {
	Code string `json:"code"`

	// 신호
	IsUndervalued  bool `json:"is_undervalued"`   // 장기 약세 (바닥권)
	IsBouncing     bool `json:"is_bouncing"`      // 단기 반등
	HasVolumeSurge bool `json:"has_volume_surge"` // 거래대금 급증
	RSImproving    bool `json:"rs_improving"`     // 상대강도 개선

	// 근거 수치 (계산 불가 시 0)
	LongTermReturnPct  float64 `json:"long_term_return_pct"`
	ShortTermReturnPct float64 `json:"short_term_return_pct"`
	VolumeSurgeRatio   float64 `json:"volume_surge_ratio"`
	CurrentRSPct       float64 `json:"current_rs_pct"`
	PastRSPct          float64 `json:"past_rs_pct"`

	RotationScore int `json:"rotation_score"`
	MaxScore      int `json:"max_score"`

	// Skipped lists the checks that fell back to defaults and why
	Skipped []SkippedCheck `json:"skipped,omitempty"`
}

// SkippedCheck names a sub-computation that defaulted and the missing precondition
type SkippedCheck struct {
	Check  string `json:"check"`
	Reason string `json:"reason"`
}

// Check names
const (
	CheckUndervalued = "undervalued"
	CheckBounce      = "bounce"
	CheckVolumeSurge = "volume_surge"
	CheckRSImprove   = "rs_improve"
)

// SectorReport is one reported row: rotation result plus sector metadata
type SectorReport struct {
	Code              string         `json:"code"`
	Name              string         `json:"name"`
	Rotation          RotationResult `json:"rotation"`
	SupplyIncreasePct float64        `json:"supply_increase_pct"` // 수급 증가율
	Headlines         []string       `json:"headlines,omitempty"`
}

// ScreenRun is the output of one screening run
type ScreenRun struct {
	ID         string         `json:"id"`
	AsOf       time.Time      `json:"as_of"`     // 기준일
	DataFrom   time.Time      `json:"data_from"` // 데이터 시작일
	DataTo     time.Time      `json:"data_to"`   // 마지막 거래일
	Benchmark  string         `json:"benchmark"`
	ConfigHash string         `json:"config_hash"`
	Evaluated  int            `json:"evaluated"`
	Reports    []SectorReport `json:"reports"` // 필터/정렬/상위 N 적용 후
	CreatedAt  time.Time      `json:"created_at"`
}
