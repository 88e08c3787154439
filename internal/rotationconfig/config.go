package rotationconfig

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/wonny/sector-rotation/internal/rotation"
)

// Config는 섹터 순환매 스크리닝 실행 설정
type Config struct {
	MarketTicker string   `yaml:"market_ticker" json:"market_ticker"` // 벤치마크 (RS 기준)
	Sectors      Sectors  `yaml:"sectors" json:"sectors"`
	Analysis     Analysis `yaml:"analysis" json:"analysis"`
	Output       Output   `yaml:"output" json:"output"`
	Alerts       Alerts   `yaml:"alerts" json:"alerts"`
	Schedule     Schedule `yaml:"schedule" json:"schedule"`
}

// Analysis 데이터 기간 및 수급 비교 구간
type Analysis struct {
	PeriodDays            int               `yaml:"period_days" json:"period_days"` // 달력 기준 조회 기간
	RSWindow              int               `yaml:"rs_window" json:"rs_window"`
	VolumeCompareRecent   int               `yaml:"volume_compare_recent" json:"volume_compare_recent"`
	VolumeComparePrev     int               `yaml:"volume_compare_prev" json:"volume_compare_prev"`
	VolumeThresholdStrong float64           `yaml:"volume_threshold_strong" json:"volume_threshold_strong"`
	VolumeThresholdMedium float64           `yaml:"volume_threshold_medium" json:"volume_threshold_medium"`
	RotationDetection     RotationDetection `yaml:"rotation_detection" json:"rotation_detection"`
}

// RotationDetection 순환매 감지 윈도우/임계값/가중치
type RotationDetection struct {
	LongTermPeriod       int     `yaml:"long_term_period" json:"long_term_period"`
	ShortTermPeriod      int     `yaml:"short_term_period" json:"short_term_period"`
	MediumTermPeriod     int     `yaml:"medium_term_period" json:"medium_term_period"`
	UndervaluedThreshold float64 `yaml:"undervalued_threshold" json:"undervalued_threshold"`
	BounceThreshold      float64 `yaml:"bounce_threshold" json:"bounce_threshold"`
	VolumeSurgeRatio     float64 `yaml:"volume_surge_ratio" json:"volume_surge_ratio"`
	WeightUndervalued    int     `yaml:"weight_undervalued" json:"weight_undervalued"`
	WeightBounce         int     `yaml:"weight_bounce" json:"weight_bounce"`
	WeightVolume         int     `yaml:"weight_volume" json:"weight_volume"`
	WeightRSImprove      int     `yaml:"weight_rs_improve" json:"weight_rs_improve"`
}

// Output 리포트 출력
type Output struct {
	ShowTopN         int  `yaml:"show_top_n" json:"show_top_n"`
	MinRotationScore int  `yaml:"min_rotation_score" json:"min_rotation_score"`
	ShowNews         bool `yaml:"show_news" json:"show_news"`
	MaxNews          int  `yaml:"max_news" json:"max_news"`
}

// Alerts 텔레그램 알림
type Alerts struct {
	Enable                 bool `yaml:"enable" json:"enable"`
	RotationScoreThreshold int  `yaml:"rotation_score_threshold" json:"rotation_score_threshold"`
}

// Schedule 정기 실행
type Schedule struct {
	Cron string `yaml:"cron" json:"cron"` // 초 단위 포함 6필드
}

// Sector 스크리닝 대상 섹터 ETF
type Sector struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Sectors keeps the declaration order of the YAML mapping (code → name).
// 동점 정렬 순서가 이 순서를 따른다
type Sectors []Sector

// UnmarshalYAML decodes a mapping node preserving key order
func (s *Sectors) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: sectors must be a mapping of code to name", node.Line)
	}

	seen := make(map[string]bool, len(node.Content)/2)
	out := make(Sectors, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: sector %s name must be a string", val.Line, key.Value)
		}
		if seen[key.Value] {
			return fmt.Errorf("line %d: duplicate sector %s", key.Line, key.Value)
		}
		seen[key.Value] = true
		out = append(out, Sector{Code: key.Value, Name: val.Value})
	}

	*s = out
	return nil
}

// Codes returns the sector codes in declaration order
func (s Sectors) Codes() []string {
	codes := make([]string, len(s))
	for i, sec := range s {
		codes[i] = sec.Code
	}
	return codes
}

// Default returns the configuration used for keys absent from the YAML file
func Default() Config {
	return Config{
		Analysis: Analysis{
			PeriodDays:            120,
			RSWindow:              20,
			VolumeCompareRecent:   5,
			VolumeComparePrev:     20,
			VolumeThresholdStrong: 50,
			VolumeThresholdMedium: 20,
			RotationDetection: RotationDetection{
				LongTermPeriod:       60,
				ShortTermPeriod:      10,
				MediumTermPeriod:     20,
				UndervaluedThreshold: -10,
				BounceThreshold:      5,
				VolumeSurgeRatio:     1.5,
				WeightUndervalued:    2,
				WeightBounce:         3,
				WeightVolume:         2,
				WeightRSImprove:      1,
			},
		},
		Output: Output{
			ShowTopN:         15,
			MinRotationScore: 4,
			ShowNews:         true,
			MaxNews:          3,
		},
		Alerts: Alerts{
			Enable:                 false,
			RotationScoreThreshold: 6,
		},
		Schedule: Schedule{
			Cron: "0 30 8 * * MON-FRI", // 평일 08:30 (장 시작 전)
		},
	}
}

// Params converts the detection section into engine parameters
func (c *Config) Params() rotation.Params {
	rd := c.Analysis.RotationDetection
	return rotation.Params{
		LongTermPeriod:       rd.LongTermPeriod,
		ShortTermPeriod:      rd.ShortTermPeriod,
		MediumTermPeriod:     rd.MediumTermPeriod,
		UndervaluedThreshold: rd.UndervaluedThreshold,
		BounceThreshold:      rd.BounceThreshold,
		VolumeSurgeRatio:     rd.VolumeSurgeRatio,
		WeightUndervalued:    rd.WeightUndervalued,
		WeightBounce:         rd.WeightBounce,
		WeightVolume:         rd.WeightVolume,
		WeightRSImprove:      rd.WeightRSImprove,
	}
}

// RankOptions converts the output section into ranking options
func (c *Config) RankOptions() rotation.RankOptions {
	return rotation.RankOptions{
		MinScore: c.Output.MinRotationScore,
		TopN:     c.Output.ShowTopN,
	}
}

// SectorName returns the display name of a code, the code itself if unknown
func (c *Config) SectorName(code string) string {
	for _, s := range c.Sectors {
		if s.Code == code {
			return s.Name
		}
	}
	return code
}
