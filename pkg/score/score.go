// Package score computes the weighted master score of a signal from six
// normalized dimensions.
package score

import (
	"github.com/raykavin/signalrun/pkg/core"
	"github.com/samber/lo"
)

// Component names, in breakdown order
const (
	ComponentConfidence = "confidence"
	ComponentTechnical  = "technical"
	ComponentRobustness = "robustness"
	ComponentContext    = "context"
	ComponentMomentum   = "momentum"
	ComponentNews       = "news"
)

// Quality tiers
const (
	TierExcellent = "excellent"
	TierStrong    = "strong"
	TierGood      = "good"
	TierFair      = "fair"
	TierWeak      = "weak"
)

var tierNames = []string{TierExcellent, TierStrong, TierGood, TierFair}

// Neutral values of the externally supplied context inputs
const (
	NeutralContextScore    = 2.5
	NeutralContextMomentum = 0.0
	NeutralNewsSentiment   = 0.0
	MaxContextScore        = 5.0
)

// Inputs are the six raw dimensions of a signal
type Inputs struct {
	Confidence      float64 // 0..100
	FinalScore      float64 // 0..1 technical composite
	FiltersPassed   int
	FiltersTotal    int
	ContextScore    float64 // 0..5
	ContextMomentum float64 // -1..1
	NewsSentiment   float64 // -1..1
}

// Calculator combines normalized dimensions with fixed weights. It holds no
// state beyond its settings, so equal inputs give equal breakdowns.
type Calculator struct {
	weights core.ScoreWeights
	tiers   []float64
}

// NewCalculator creates a calculator from score settings
func NewCalculator(settings core.ScoreSettings) *Calculator {
	return &Calculator{weights: settings.Weights, tiers: settings.QualityTiers}
}

// Calculate normalizes the inputs to 0..100 and returns the weighted breakdown
func (c *Calculator) Calculate(in Inputs) core.ScoreBreakdown {
	robustness := 0.0
	if in.FiltersTotal > 0 {
		robustness = float64(in.FiltersPassed) / float64(in.FiltersTotal) * 100
	}

	components := []core.ScoreComponent{
		component(ComponentConfidence, in.Confidence, in.Confidence, c.weights.Confidence),
		component(ComponentTechnical, in.FinalScore, in.FinalScore*100, c.weights.Technical),
		component(ComponentRobustness, float64(in.FiltersPassed), robustness, c.weights.Robustness),
		component(ComponentContext, in.ContextScore, in.ContextScore/MaxContextScore*100, c.weights.Context),
		component(ComponentMomentum, in.ContextMomentum, (in.ContextMomentum+1)/2*100, c.weights.Momentum),
		component(ComponentNews, in.NewsSentiment, (in.NewsSentiment+1)/2*100, c.weights.News),
	}

	total := lo.SumBy(components, func(sc core.ScoreComponent) float64 { return sc.Contribution })
	if sum := c.weights.Sum(); sum > 0 {
		total /= sum
	}

	return core.ScoreBreakdown{
		Components:  components,
		MasterScore: lo.Clamp(total, 0, 100),
	}
}

// Tier returns the quality tier of a master score
func (c *Calculator) Tier(master float64) string {
	return Tier(master, c.tiers)
}

// Tier maps a master score onto descending thresholds (excellent, strong,
// good, fair); anything below the last threshold is weak
func Tier(master float64, thresholds []float64) string {
	for i, threshold := range thresholds {
		if i >= len(tierNames) {
			break
		}
		if master >= threshold {
			return tierNames[i]
		}
	}
	return TierWeak
}

func component(name string, raw, normalized, weight float64) core.ScoreComponent {
	normalized = lo.Clamp(normalized, 0, 100)
	return core.ScoreComponent{
		Name:         name,
		Raw:          raw,
		Normalized:   normalized,
		Weight:       weight,
		Contribution: normalized * weight,
	}
}
