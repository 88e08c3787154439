package rotation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/sector-rotation/internal/contracts"
)

func reportsWithScores(codes []string, scores []int) []contracts.SectorReport {
	reports := make([]contracts.SectorReport, len(codes))
	for i, code := range codes {
		reports[i] = contracts.SectorReport{
			Code:     code,
			Rotation: contracts.RotationResult{Code: code, RotationScore: scores[i]},
		}
	}
	return reports
}

func codesOf(reports []contracts.SectorReport) []string {
	codes := make([]string, len(reports))
	for i, r := range reports {
		codes[i] = r.Code
	}
	return codes
}

func TestRank(t *testing.T) {
	tests := []struct {
		name   string
		codes  []string
		scores []int
		opts   RankOptions
		want   []string
	}{
		{
			name:   "filter then sort then truncate",
			codes:  []string{"A", "B", "C", "D"},
			scores: []int{8, 5, 5, 3},
			opts:   RankOptions{MinScore: 4, TopN: 2},
			want:   []string{"A", "B"},
		},
		{
			name:   "ties keep input order",
			codes:  []string{"A", "B", "C", "D"},
			scores: []int{4, 6, 4, 6},
			opts:   RankOptions{MinScore: 0, TopN: 0},
			want:   []string{"B", "D", "A", "C"},
		},
		{
			name:   "filter applies before truncation",
			codes:  []string{"A", "B", "C"},
			scores: []int{1, 2, 7},
			opts:   RankOptions{MinScore: 2, TopN: 5},
			want:   []string{"C", "B"},
		},
		{
			name:   "nothing clears the threshold",
			codes:  []string{"A"},
			scores: []int{3},
			opts:   RankOptions{MinScore: 4, TopN: 15},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := reportsWithScores(tt.codes, tt.scores)
			got := Rank(input, tt.opts)
			assert.Equal(t, tt.want, codesOf(got))
			// 입력은 변경되지 않음
			assert.Equal(t, tt.codes, codesOf(input))
		})
	}
}

func TestTradeValueChange(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		recent int
		prev   int
		want   float64
	}{
		{"increase", []float64{100, 100, 100, 150, 150}, 2, 3, 50},
		{"decrease rounds to one decimal", []float64{300, 300, 300, 200}, 1, 3, -33.3},
		{"prev window clipped at start", []float64{100, 200}, 1, 5, 100},
		{"zero prev", []float64{0, 0, 10}, 1, 2, 0},
		{"too short", []float64{10}, 1, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TradeValueChange(tt.values, tt.recent, tt.prev))
		})
	}
}

func TestParamsMaxScore(t *testing.T) {
	assert.Equal(t, 8, DefaultParams().MaxScore())
}
