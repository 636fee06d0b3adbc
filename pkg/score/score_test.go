package score

import (
	"testing"

	"github.com/raykavin/signalrun/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calculator() *Calculator {
	return NewCalculator(core.DefaultSettings().Score)
}

func TestCalculate_Bounds(t *testing.T) {
	c := calculator()

	best := c.Calculate(Inputs{
		Confidence: 100, FinalScore: 1, FiltersPassed: 7, FiltersTotal: 7,
		ContextScore: 5, ContextMomentum: 1, NewsSentiment: 1,
	})
	assert.InDelta(t, 100, best.MasterScore, 1e-9)

	worst := c.Calculate(Inputs{
		Confidence: 0, FinalScore: 0, FiltersPassed: 0, FiltersTotal: 7,
		ContextScore: 0, ContextMomentum: -1, NewsSentiment: -1,
	})
	assert.InDelta(t, 0, worst.MasterScore, 1e-9)

	outOfRange := c.Calculate(Inputs{
		Confidence: 150, FinalScore: 3, FiltersPassed: 9, FiltersTotal: 7,
		ContextScore: 12, ContextMomentum: 4, NewsSentiment: 2,
	})
	assert.LessOrEqual(t, outOfRange.MasterScore, 100.0)
}

func TestCalculate_Breakdown(t *testing.T) {
	breakdown := calculator().Calculate(Inputs{
		Confidence: 80, FinalScore: 0.6, FiltersPassed: 7, FiltersTotal: 7,
		ContextScore: 2.5, ContextMomentum: 0, NewsSentiment: 0,
	})

	require.Len(t, breakdown.Components, 6)
	technical, ok := breakdown.Component(ComponentTechnical)
	require.True(t, ok)
	assert.InDelta(t, 60, technical.Normalized, 1e-9)
	assert.InDelta(t, 15, technical.Contribution, 1e-9)

	// 0.25*80 + 0.25*60 + 0.20*100 + 0.15*50 + 0.10*50 + 0.05*50
	assert.InDelta(t, 70, breakdown.MasterScore, 1e-9)

	again := calculator().Calculate(Inputs{
		Confidence: 80, FinalScore: 0.6, FiltersPassed: 7, FiltersTotal: 7,
		ContextScore: 2.5,
	})
	assert.Equal(t, breakdown, again)
}

// Robustness can move the score by at most its weight.
func TestCalculate_RobustnessWeightBound(t *testing.T) {
	c := calculator()
	base := Inputs{Confidence: 100, FinalScore: 1, FiltersTotal: 7, ContextScore: 5, ContextMomentum: 1, NewsSentiment: 1}

	fragile := c.Calculate(base)
	base.FiltersPassed = 7
	robust := c.Calculate(base)

	assert.InDelta(t, 20, robust.MasterScore-fragile.MasterScore, 1e-9)
}

func TestTier(t *testing.T) {
	tiers := []float64{80, 75, 70, 65}
	assert.Equal(t, TierExcellent, Tier(80, tiers))
	assert.Equal(t, TierStrong, Tier(79.9, tiers))
	assert.Equal(t, TierGood, Tier(70, tiers))
	assert.Equal(t, TierFair, Tier(65, tiers))
	assert.Equal(t, TierWeak, Tier(64.99, tiers))
	assert.Equal(t, TierStrong, calculator().Tier(76))
}

func TestTechnicalComposite(t *testing.T) {
	snapshot := core.IndicatorSnapshot{SMA20: 52, SMA50: 50, RSI: 55, ATR: 1, ADX: 28, VolumeAvg20: 100_000}

	// 0.4*0.56 + 0.3*0.9 + 0.3*0.675
	assert.InDelta(t, 0.6965, TechnicalComposite(snapshot, 135_000), 1e-9)

	snapshot.ADX = 80
	snapshot.RSI = 50
	assert.InDelta(t, 1.0, TechnicalComposite(snapshot, 500_000), 1e-9)

	assert.Zero(t, TechnicalComposite(core.IndicatorSnapshot{}, 1))
}
