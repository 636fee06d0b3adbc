// Package pattern detects candidate price patterns and confirms they persist
// beyond a single bar.
package pattern

import (
	"math"

	"github.com/raykavin/signalrun/pkg/core"
	"github.com/samber/lo"
)

const (
	maxVolumeBonus = 10.0
	maxADXBonus    = 10.0
)

// Detector finds trend-cross, pullback and range-break candidates on a bar.
// It is a pure function of the series window ending at the bar.
type Detector struct {
	settings core.PatternSettings
}

// NewDetector creates a detector with the given thresholds
func NewDetector(settings core.PatternSettings) *Detector {
	return &Detector{settings: settings}
}

// Detect returns the candidates found on bar i, in detection order
func (d *Detector) Detect(df *core.Dataframe, i int) []core.PatternCandidate {
	if i < 1 || i >= df.Len() {
		return nil
	}

	current := df.Snapshot(i)
	if !current.Defined() || !df.Snapshot(i-1).Defined() {
		return nil
	}

	var candidates []core.PatternCandidate
	for _, direction := range core.Directions {
		if c, ok := d.trendCross(df, i, direction); ok {
			candidates = append(candidates, c)
		}
		if c, ok := d.pullback(df, i, direction); ok {
			candidates = append(candidates, c)
		}
		if c, ok := d.rangeBreak(df, i, direction); ok {
			candidates = append(candidates, c)
		}
	}

	return candidates
}

func (d *Detector) trendCross(df *core.Dataframe, i int, direction core.Direction) (core.PatternCandidate, bool) {
	fast, slow := df.Metadata[core.ColumnSMAFast], df.Metadata[core.ColumnSMASlow]
	snapshot := df.Snapshot(i)
	closePrice := df.Close[i]

	switch direction {
	case core.Bullish:
		if !fast.CrossoverAt(slow, i) || closePrice <= snapshot.SMA50 {
			return core.PatternCandidate{}, false
		}
	case core.Bearish:
		if !fast.CrossunderAt(slow, i) || closePrice >= snapshot.SMA50 {
			return core.PatternCandidate{}, false
		}
	}

	ratio := snapshot.VolumeRatio(df.Volume[i])
	if ratio <= d.settings.TrendCrossVolume || snapshot.ADX <= d.settings.TrendCrossADX {
		return core.PatternCandidate{}, false
	}

	return d.candidate(i, direction, core.TrendCross, ratio, d.settings.TrendCrossVolume,
		snapshot.ADX, d.settings.TrendCrossADX), true
}

func (d *Detector) pullback(df *core.Dataframe, i int, direction core.Direction) (core.PatternCandidate, bool) {
	snapshot := df.Snapshot(i)
	if snapshot.SMA20 == 0 {
		return core.PatternCandidate{}, false
	}

	proximity := math.Abs(df.Close[i]-snapshot.SMA20) / snapshot.SMA20
	if proximity >= d.settings.PullbackProximity {
		return core.PatternCandidate{}, false
	}

	if snapshot.RSI < d.settings.PullbackRSILow || snapshot.RSI > d.settings.PullbackRSIHigh {
		return core.PatternCandidate{}, false
	}

	multiplier := d.settings.PullbackVolumeBull
	if direction == core.Bearish {
		multiplier = d.settings.PullbackVolumeBear
	}

	if !trendOrdered(snapshot, direction) {
		return core.PatternCandidate{}, false
	}

	ratio := snapshot.VolumeRatio(df.Volume[i])
	if ratio <= multiplier || snapshot.ADX <= d.settings.PullbackADX {
		return core.PatternCandidate{}, false
	}

	return d.candidate(i, direction, core.Pullback, ratio, multiplier,
		snapshot.ADX, d.settings.PullbackADX), true
}

func (d *Detector) rangeBreak(df *core.Dataframe, i int, direction core.Direction) (core.PatternCandidate, bool) {
	lookback := d.settings.RangeLookback
	if i < lookback {
		return core.PatternCandidate{}, false
	}

	highs := df.High.Window(i-lookback, i)
	lows := df.Low.Window(i-lookback, i)
	rangeHigh, rangeLow := lo.Max(highs.Values()), lo.Min(lows.Values())

	reference := df.Close[i-1]
	if reference <= 0 || (rangeHigh-rangeLow)/reference >= d.settings.RangeMaxWidth {
		return core.PatternCandidate{}, false
	}

	snapshot := df.Snapshot(i)
	closePrice := df.Close[i]

	switch direction {
	case core.Bullish:
		if closePrice <= rangeHigh ||
			snapshot.RSI < d.settings.BreakoutRSILow || snapshot.RSI > d.settings.BreakoutRSIHigh {
			return core.PatternCandidate{}, false
		}
	case core.Bearish:
		if closePrice >= rangeLow ||
			snapshot.RSI < d.settings.BreakdownRSILow || snapshot.RSI > d.settings.BreakdownRSIHigh {
			return core.PatternCandidate{}, false
		}
	}

	ratio := snapshot.VolumeRatio(df.Volume[i])
	if ratio <= d.settings.RangeVolume {
		return core.PatternCandidate{}, false
	}

	return d.candidate(i, direction, core.RangeBreak, ratio, d.settings.RangeVolume,
		snapshot.ADX, 0), true
}

// candidate builds a candidate whose raw confidence is the kind's base plus
// bounded bonuses for volume and trend strength beyond the thresholds
func (d *Detector) candidate(i int, direction core.Direction, kind core.PatternKind,
	volumeRatio, volumeThreshold, adx, adxThreshold float64) core.PatternCandidate {

	confidence := d.settings.BaseConfidence.Get(kind, 70)
	confidence += lo.Clamp((volumeRatio-volumeThreshold)*10, 0, maxVolumeBonus)
	if adxThreshold > 0 {
		confidence += lo.Clamp((adx-adxThreshold)/2, 0, maxADXBonus)
	}

	return core.PatternCandidate{
		BarIndex:      i,
		Direction:     direction,
		Kind:          kind,
		RawConfidence: lo.Clamp(confidence, 0, 100),
	}
}

// trendOrdered reports whether SMA20 sits on the side of SMA50 matching the direction
func trendOrdered(snapshot core.IndicatorSnapshot, direction core.Direction) bool {
	if direction == core.Bullish {
		return snapshot.SMA20 > snapshot.SMA50
	}
	return snapshot.SMA20 < snapshot.SMA50
}
