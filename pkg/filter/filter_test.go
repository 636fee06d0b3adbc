package filter

import (
	"testing"
	"time"

	"github.com/raykavin/signalrun/internal/synthetic"
	"github.com/raykavin/signalrun/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultChain(t *testing.T, settings core.Settings) *Chain {
	t.Helper()
	chain, err := NewDefaultChain(settings.Filters, NewExpectancyTracker(settings.Expectancy))
	require.NoError(t, err)
	return chain
}

func goldenCrossContext() Context {
	df := synthetic.Frame("ACME", synthetic.Session, 15*time.Minute, synthetic.GoldenCross())
	return ContextAt(df, 3, core.Bullish, core.TrendCross)
}

func TestChain_GoldenCrossPassesAll(t *testing.T) {
	chain := defaultChain(t, core.DefaultSettings())
	ctx := goldenCrossContext()

	passed, failed := chain.Evaluate(ctx)
	assert.True(t, passed)
	assert.Empty(t, failed)
	assert.Equal(t, 7, chain.Count(ctx))
	assert.Equal(t, Names, chain.Names())
}

func TestChain_CountMatchesIndependentResults(t *testing.T) {
	chain := defaultChain(t, core.DefaultSettings())

	ctx := goldenCrossContext()
	ctx.Time = time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC) // 16:30 IST
	ctx.Volume = 300_000                                    // spike

	results := chain.Results(ctx)
	require.Len(t, results, 7)

	var passed int
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	assert.Equal(t, passed, chain.Count(ctx))
	assert.Equal(t, 5, passed)

	ok, failed := chain.Evaluate(ctx)
	assert.False(t, ok)
	assert.Equal(t, NameTimeOfDay, failed, "short-circuits on the first failing filter")
}

func TestNewDefaultChain_Disabled(t *testing.T) {
	settings := core.DefaultSettings()
	settings.Filters.Disabled = []string{NameTimeOfDay, NameGapSafety}

	chain := defaultChain(t, settings)
	assert.Equal(t, 5, chain.Len())
	assert.NotContains(t, chain.Names(), NameTimeOfDay)

	settings.Filters.Disabled = []string{"weather"}
	_, err := NewDefaultChain(settings.Filters, nil)
	assert.Error(t, err)
}

func TestRegime(t *testing.T) {
	tests := []struct {
		adx    float64
		kind   core.PatternKind
		regime MarketRegime
		admits bool
	}{
		{adx: 28, kind: core.TrendCross, regime: Trending, admits: true},
		{adx: 25, kind: core.RangeBreak, regime: Trending, admits: false},
		{adx: 15, kind: core.TrendCross, regime: Ranging, admits: false},
		{adx: 15, kind: core.RangeBreak, regime: Ranging, admits: true},
		{adx: 19.9, kind: core.Pullback, regime: Ranging, admits: true},
		{adx: 20, kind: core.RangeBreak, regime: Neutral, admits: true},
		{adx: 24.9, kind: core.TrendCross, regime: Neutral, admits: true},
	}

	for _, tc := range tests {
		regime := ClassifyRegime(tc.adx, 25, 20)
		assert.Equal(t, tc.regime, regime, "adx %.1f", tc.adx)
		assert.Equal(t, tc.admits, regime.Admits(tc.kind), "adx %.1f %s", tc.adx, tc.kind)
	}

	assert.Equal(t, 0.9, Neutral.Conviction(0.9))
	assert.Equal(t, 1.0, Trending.Conviction(0.9))
}

func TestVolume_PatternSpecificMultiplier(t *testing.T) {
	f := Volume{Multipliers: core.DefaultSettings().Filters.VolumeMultipliers}
	ctx := Context{Volume: 140_000, Snapshot: core.IndicatorSnapshot{VolumeAvg20: 100_000}}

	ctx.Kind = core.TrendCross
	assert.True(t, f.Evaluate(ctx))
	ctx.Kind = core.RangeBreak
	assert.False(t, f.Evaluate(ctx))
}

func TestTimeOfDay_BoundsInclusive(t *testing.T) {
	window, err := core.DefaultSettings().Filters.Session.Window()
	require.NoError(t, err)
	f := TimeOfDay{Enabled: true, Window: window}

	ist := window.Location
	assert.True(t, f.Evaluate(Context{Time: time.Date(2024, 3, 4, 9, 15, 0, 0, ist)}))
	assert.True(t, f.Evaluate(Context{Time: time.Date(2024, 3, 4, 15, 0, 0, 0, ist)}))
	assert.False(t, f.Evaluate(Context{Time: time.Date(2024, 3, 4, 9, 14, 0, 0, ist)}))
	assert.False(t, f.Evaluate(Context{Time: time.Date(2024, 3, 4, 15, 1, 0, 0, ist)}))

	f.Enabled = false
	assert.True(t, f.Evaluate(Context{Time: time.Date(2024, 3, 4, 3, 0, 0, 0, ist)}))
}

func TestLiquidityAndGapSafety(t *testing.T) {
	liquidity := Liquidity{MinAverageVolume: 50_000}
	assert.False(t, liquidity.Evaluate(Context{Snapshot: core.IndicatorSnapshot{VolumeAvg20: 50_000}}))
	assert.True(t, liquidity.Evaluate(Context{Snapshot: core.IndicatorSnapshot{VolumeAvg20: 50_001}}))

	gap := GapSafety{MaxVolumeSpike: 2.5}
	avg := core.IndicatorSnapshot{VolumeAvg20: 100_000}
	assert.True(t, gap.Evaluate(Context{Volume: 250_000, Snapshot: avg}))
	assert.False(t, gap.Evaluate(Context{Volume: 250_001, Snapshot: avg}))
}

func TestAlignment(t *testing.T) {
	snapshot := core.IndicatorSnapshot{SMA20: 100, SMA50: 95}
	assert.True(t, Alignment{}.Evaluate(Context{Direction: core.Bullish, Close: 101, Snapshot: snapshot}))
	assert.False(t, Alignment{}.Evaluate(Context{Direction: core.Bullish, Close: 99, Snapshot: snapshot}))

	bearish := core.IndicatorSnapshot{SMA20: 95, SMA50: 100}
	assert.True(t, Alignment{}.Evaluate(Context{Direction: core.Bearish, Close: 94, Snapshot: bearish}))
	assert.False(t, Alignment{}.Evaluate(Context{Direction: core.Bearish, Close: 94, Snapshot: snapshot}))
}

func TestExpectancyTracker(t *testing.T) {
	tracker := NewExpectancyTracker(core.DefaultSettings().Expectancy)
	f := Expectancy{Tracker: tracker, MinWinRate: 0.5}
	ctx := Context{Kind: core.TrendCross}

	assert.InDelta(t, 0.55, tracker.WinRate(core.TrendCross), 1e-9)
	assert.True(t, f.Evaluate(ctx))

	for j := 0; j < 4; j++ {
		tracker.Record(core.TrendCross, false)
	}
	// (0.55*20 + 0) / 24
	assert.InDelta(t, 11.0/24.0, tracker.WinRate(core.TrendCross), 1e-9)
	assert.False(t, f.Evaluate(ctx))

	trades, wins := tracker.Stats(core.TrendCross)
	assert.Equal(t, 4, trades)
	assert.Zero(t, wins)

	assert.InDelta(t, 0.53, tracker.WinRate(core.Pullback), 1e-9, "other kinds keep their prior")
	assert.False(t, Expectancy{MinWinRate: 0.5}.Evaluate(ctx), "no tracker means no edge")
}
