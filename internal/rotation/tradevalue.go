package rotation

// TradeValueChange returns the supply increase in percent: the mean traded value of the
// last `recent` observations against the mean of the `prev` observations before them.
// 수급 증가율. 기준 평균이 0 이하이거나 계산 불가면 0, 소수 첫째 자리 반올림
func TradeValueChange(values []float64, recent, prev int) float64 {
	if recent <= 0 || prev <= 0 || len(values) <= recent {
		return 0
	}

	n := len(values)
	start := n - recent - prev
	if start < 0 {
		start = 0
	}

	recentMean := nanMean(values[n-recent:])
	prevMean := nanMean(values[start : n-recent])
	if !isFinite(prevMean) || prevMean <= 0 {
		return 0
	}

	change := (recentMean - prevMean) / prevMean * 100
	if !isFinite(change) {
		return 0
	}
	return round1(change)
}
