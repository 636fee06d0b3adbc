package filter

import (
	"github.com/raykavin/signalrun/pkg/core"
)

// Regime admits patterns suited to the market regime derived from ADX
type Regime struct {
	TrendingADX float64
	RangingADX  float64
}

func (Regime) Name() string { return NameRegime }

func (f Regime) Evaluate(ctx Context) bool {
	return ClassifyRegime(ctx.Snapshot.ADX, f.TrendingADX, f.RangingADX).Admits(ctx.Kind)
}

// Volume re-checks volume against the pattern-specific multiplier
type Volume struct {
	Multipliers core.KindValues
}

func (Volume) Name() string { return NameVolume }

func (f Volume) Evaluate(ctx Context) bool {
	return ctx.VolumeRatio() > f.Multipliers.Get(ctx.Kind, 1)
}

// TimeOfDay rejects entries outside the liquid session window
type TimeOfDay struct {
	Enabled bool
	Window  core.SessionWindow
}

func (TimeOfDay) Name() string { return NameTimeOfDay }

func (f TimeOfDay) Evaluate(ctx Context) bool {
	if !f.Enabled {
		return true
	}
	return f.Window.Contains(ctx.Time)
}

// Liquidity requires a minimum average volume
type Liquidity struct {
	MinAverageVolume float64
}

func (Liquidity) Name() string { return NameLiquidity }

func (f Liquidity) Evaluate(ctx Context) bool {
	return ctx.Snapshot.VolumeAvg20 > f.MinAverageVolume
}

// GapSafety rejects event-driven volume spikes
type GapSafety struct {
	MaxVolumeSpike float64
}

func (GapSafety) Name() string { return NameGapSafety }

func (f GapSafety) Evaluate(ctx Context) bool {
	if ctx.Snapshot.VolumeAvg20 <= 0 {
		return false
	}
	return ctx.VolumeRatio() <= f.MaxVolumeSpike
}

// Alignment requires close, SMA20 and SMA50 stacked in the signal direction
// on the entry bar
type Alignment struct{}

func (Alignment) Name() string { return NameAlignment }

func (Alignment) Evaluate(ctx Context) bool {
	s := ctx.Snapshot
	if ctx.Direction == core.Bearish {
		return ctx.Close < s.SMA20 && s.SMA20 < s.SMA50
	}
	return ctx.Close > s.SMA20 && s.SMA20 > s.SMA50
}

// Expectancy requires a positive tracked edge for the pattern kind
type Expectancy struct {
	Tracker    *ExpectancyTracker
	MinWinRate float64
}

func (Expectancy) Name() string { return NameExpectancy }

func (f Expectancy) Evaluate(ctx Context) bool {
	if f.Tracker == nil {
		return false
	}
	return f.Tracker.WinRate(ctx.Kind) > f.MinWinRate
}
