package rotation

// Params holds the windows, thresholds and weights of one evaluation run.
// Passed explicitly to Evaluate; the package keeps no configuration state.
type Params struct {
	// 윈도우 (관측 개수)
	LongTermPeriod   int
	ShortTermPeriod  int
	MediumTermPeriod int

	// 임계값
	UndervaluedThreshold float64 // % (음수)
	BounceThreshold      float64 // %
	VolumeSurgeRatio     float64 // 배수

	// 가중치
	WeightUndervalued int
	WeightBounce      int
	WeightVolume      int
	WeightRSImprove   int
}

// DefaultParams returns the stock windows, thresholds and weights
func DefaultParams() Params {
	return Params{
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
	}
}

// MaxScore is the highest reachable rotation score (sum of all weights)
func (p Params) MaxScore() int {
	return p.WeightUndervalued + p.WeightBounce + p.WeightVolume + p.WeightRSImprove
}
