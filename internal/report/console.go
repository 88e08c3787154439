package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/wonny/sector-rotation/internal/contracts"
)

const lineWidth = 80

// Tiers splits reported sectors into console blocks
type Tiers struct {
	High     int // 순환매 초기 신호 (이상)
	Momentum int // 강한 모멘텀 지속 (이상, High 미만)
}

// DefaultTiers matches the alert threshold and minimum score defaults
var DefaultTiers = Tiers{High: 6, Momentum: 4}

// WriteConsole renders the run as a human-readable report
// ⭐ SSOT: 콘솔 리포트 포맷은 여기서만
func WriteConsole(w io.Writer, run *contracts.ScreenRun, tiers Tiers) error {
	p := &printer{w: w}

	p.line(strings.Repeat("=", lineWidth))
	p.printf("분석 결과 (상위 %d개 섹터)\n", len(run.Reports))
	p.printf("기준일: %s | 데이터: %s ~ %s\n",
		run.AsOf.Format("2006-01-02"), run.DataFrom.Format("2006-01-02"), run.DataTo.Format("2006-01-02"))
	p.line(strings.Repeat("=", lineWidth))
	p.line("")

	var high, momentum []contracts.SectorReport
	for _, r := range run.Reports {
		score := r.Rotation.RotationScore
		switch {
		case score >= tiers.High:
			high = append(high, r)
		case score >= tiers.Momentum:
			momentum = append(momentum, r)
		}
	}

	if len(high) > 0 {
		p.line(center("🚀 순환매 초기 신호 (HIGH PRIORITY)", lineWidth, '='))
		p.line("")
		for _, r := range high {
			writeHighPriority(p, r)
		}
	}

	if len(momentum) > 0 {
		p.line("")
		p.line(center("🔥 강한 모멘텀 지속", lineWidth, '='))
		p.line("")
		for _, r := range momentum {
			writeMomentum(p, r)
		}
	}

	p.line("")
	p.line(strings.Repeat("=", lineWidth))
	p.printf("분석 완료! 총 %d개 유망 섹터 발견\n", len(run.Reports))
	p.line(strings.Repeat("=", lineWidth))

	return p.err
}

func writeHighPriority(p *printer, r contracts.SectorReport) {
	rot := r.Rotation
	p.printf("[%s] 순환매 점수: %d/%d ⭐\n", r.Name, rot.RotationScore, rot.MaxScore)
	p.printf("  티커: %s\n", r.Code)
	p.printf("  📊 수익률: 장기 %+.1f%% %s| 단기 %+.1f%% %s\n",
		rot.LongTermReturnPct, mark(rot.IsUndervalued, "(바닥권 ✓) "),
		rot.ShortTermReturnPct, mark(rot.IsBouncing, "(반등 ✓)"))
	p.printf("  💰 거래량: %.2f배 %s| 수급 증가: %+.1f%%\n",
		rot.VolumeSurgeRatio, mark(rot.HasVolumeSurge, "(급증 ✓) "), r.SupplyIncreasePct)
	p.printf("  📈 RS: 현재 %+.1f%% | 과거 %+.1f%% %s\n",
		rot.CurrentRSPct, rot.PastRSPct, mark(rot.RSImproving, "(개선 ✓)"))

	if len(r.Headlines) > 0 {
		p.line("  📰 최근 뉴스:")
		for i, title := range r.Headlines {
			p.printf("     %d. %s\n", i+1, title)
		}
	}
	p.line(strings.Repeat("-", lineWidth))
}

func writeMomentum(p *printer, r contracts.SectorReport) {
	rot := r.Rotation
	p.printf("[%s] 순환매 점수: %d/%d\n", r.Name, rot.RotationScore, rot.MaxScore)
	p.printf("  티커: %s\n", r.Code)
	p.printf("  📊 수익률: 장기 %+.1f%% | 단기 %+.1f%%\n", rot.LongTermReturnPct, rot.ShortTermReturnPct)
	p.printf("  💰 수급 증가: %+.1f%% | RS: %+.1f%%\n", r.SupplyIncreasePct, rot.CurrentRSPct)

	if len(r.Headlines) > 0 {
		p.printf("  📰 뉴스: %s\n", r.Headlines[0])
	}
	p.line(strings.Repeat("-", lineWidth))
}

func mark(ok bool, text string) string {
	if ok {
		return text
	}
	return ""
}

// center pads title on both sides with fill up to width runes (extra fill goes right)
func center(title string, width int, fill rune) string {
	n := len([]rune(title))
	if n >= width {
		return title
	}
	pad := width - n
	left := pad / 2
	return strings.Repeat(string(fill), left) + title + strings.Repeat(string(fill), pad-left)
}

// printer keeps the first write error
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) line(s string) {
	p.printf("%s\n", s)
}
