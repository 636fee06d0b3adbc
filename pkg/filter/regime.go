package filter

import "github.com/raykavin/signalrun/pkg/core"

// MarketRegime is the market state derived from trend strength
type MarketRegime string

const (
	Trending MarketRegime = "trending"
	Ranging  MarketRegime = "ranging"
	Neutral  MarketRegime = "neutral"
)

// ClassifyRegime maps ADX to a regime: trending at or above trendingADX,
// ranging below rangingADX, neutral in between
func ClassifyRegime(adx, trendingADX, rangingADX float64) MarketRegime {
	switch {
	case adx >= trendingADX:
		return Trending
	case adx < rangingADX:
		return Ranging
	default:
		return Neutral
	}
}

// Admits reports whether the regime accepts a pattern kind
func (r MarketRegime) Admits(kind core.PatternKind) bool {
	switch r {
	case Trending:
		return kind == core.TrendCross || kind == core.Pullback
	case Ranging:
		return kind == core.Pullback || kind == core.RangeBreak
	default:
		return true
	}
}

// Conviction returns the confidence multiplier of the regime
func (r MarketRegime) Conviction(neutral float64) float64 {
	if r == Neutral {
		return neutral
	}
	return 1
}
