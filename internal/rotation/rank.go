package rotation

import (
	"sort"

	"github.com/wonny/sector-rotation/internal/contracts"
)

// RankOptions controls the reported subset
type RankOptions struct {
	MinScore int // 최소 순환매 점수 (이상)
	TopN     int // 0 이하 = 전체
}

// Rank filters by minimum score, sorts by score descending and truncates to TopN.
// ⭐ SSOT: 필터 → 정렬 → 상위 N 순서 고정
//
// The sort is stable: equal scores keep their input order, which the screener sets
// to the sector declaration order of the run config.
func Rank(reports []contracts.SectorReport, opts RankOptions) []contracts.SectorReport {
	ranked := make([]contracts.SectorReport, 0, len(reports))
	for _, r := range reports {
		if r.Rotation.RotationScore >= opts.MinScore {
			ranked = append(ranked, r)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rotation.RotationScore > ranked[j].Rotation.RotationScore
	})

	if opts.TopN > 0 && len(ranked) > opts.TopN {
		ranked = ranked[:opts.TopN]
	}
	return ranked
}
