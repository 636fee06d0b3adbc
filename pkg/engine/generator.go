package engine

import (
	"sort"

	"github.com/raykavin/signalrun/pkg/core"
	"github.com/raykavin/signalrun/pkg/filter"
	"github.com/raykavin/signalrun/pkg/logger"
	"github.com/raykavin/signalrun/pkg/pattern"
	"github.com/raykavin/signalrun/pkg/score"
)

// Generator turns bars into signals: detection on the previous bar,
// persistence and filters on the current one, then scoring
type Generator struct {
	settings   core.Settings
	detector   *pattern.Detector
	validator  *pattern.Validator
	chain      *filter.Chain
	calculator *score.Calculator
	log        logger.Logger

	diagnostics *Diagnostics
}

// NewGenerator creates a generator whose expectancy filter reads tracker
func NewGenerator(settings core.Settings, tracker *filter.ExpectancyTracker, log logger.Logger) (*Generator, error) {
	chain, err := filter.NewDefaultChain(settings.Filters, tracker)
	if err != nil {
		return nil, err
	}

	return &Generator{
		settings:    settings,
		detector:    pattern.NewDetector(settings.Patterns),
		validator:   pattern.NewValidator(settings.Patterns),
		chain:       chain,
		calculator:  score.NewCalculator(settings.Score),
		log:         log,
		diagnostics: newDiagnostics(),
	}, nil
}

// Diagnostics returns the generation counters
func (g *Generator) Diagnostics() Diagnostics {
	return *g.diagnostics
}

// Evaluate returns the signals entering on bar i, best master score first
func (g *Generator) Evaluate(df *core.Dataframe, i int) []core.Signal {
	g.diagnostics.Bars++
	if i < 1 || !df.Snapshot(i).Defined() {
		return nil
	}
	g.diagnostics.Evaluated++

	var signals []core.Signal
	for _, candidate := range g.detector.Detect(df, i-1) {
		g.diagnostics.Candidates++

		if !g.validator.Validate(candidate.Direction, candidate.Kind, df, i) {
			g.diagnostics.PersistenceRejected++
			g.log.Tracef("%s on bar %d did not persist", candidate.Pattern(), candidate.BarIndex)
			continue
		}

		ctx := filter.ContextAt(df, i, candidate.Direction, candidate.Kind)
		if ok, failed := g.chain.Evaluate(ctx); !ok {
			g.diagnostics.FilterRejected[failed]++
			g.log.Tracef("%s on bar %d rejected by %s filter", candidate.Pattern(), i, failed)
			continue
		}

		signals = append(signals, g.signal(df, i, candidate, ctx))
	}

	sort.SliceStable(signals, func(a, b int) bool {
		return signals[a].MasterScore > signals[b].MasterScore
	})
	g.diagnostics.Signals += len(signals)

	return signals
}

func (g *Generator) signal(df *core.Dataframe, i int, candidate core.PatternCandidate, ctx filter.Context) core.Signal {
	total := g.chain.Len()
	passed := g.chain.Count(ctx)
	previous := g.chain.Count(filter.ContextAt(df, i-1, candidate.Direction, candidate.Kind))

	momentum := 0.0
	if total > 0 {
		momentum = float64(passed-previous) / float64(total)
	}

	regime := filter.ClassifyRegime(ctx.Snapshot.ADX, g.settings.Filters.TrendingADX, g.settings.Filters.RangingADX)
	confidence := candidate.RawConfidence * regime.Conviction(g.settings.Filters.NeutralConviction)

	technical := df.Column(core.ColumnFinalScore, i)
	if !core.Defined(technical) {
		technical = score.TechnicalComposite(ctx.Snapshot, ctx.Volume)
	}

	contextScore := g.external(df, core.ColumnContextScore, i, score.NeutralContextScore)
	contextMomentum := g.external(df, core.ColumnContextMomentum, i, score.NeutralContextMomentum)
	news := g.external(df, core.ColumnNewsSentiment, i, score.NeutralNewsSentiment)

	breakdown := g.calculator.Calculate(score.Inputs{
		Confidence:      confidence,
		FinalScore:      technical,
		FiltersPassed:   passed,
		FiltersTotal:    total,
		ContextScore:    contextScore,
		ContextMomentum: contextMomentum,
		NewsSentiment:   news,
	})

	entry := ctx.Close
	atr := ctx.Snapshot.ATR
	sign := candidate.Direction.Sign()
	stopDistance := g.settings.Risk.StopATRMultiple * atr

	robustness := 0.0
	if total > 0 {
		robustness = float64(passed) / float64(total) * 100
	}

	return core.Signal{
		Symbol:             df.Symbol,
		Timestamp:          df.Time[i],
		BarIndex:           i,
		Direction:          candidate.Direction,
		Pattern:            candidate.Kind,
		Confidence:         confidence,
		EntryPrice:         entry,
		StopLoss:           entry - sign*stopDistance,
		Target:             entry + sign*g.settings.Risk.TargetRMultiple*stopDistance,
		ATRAtEntry:         atr,
		FiltersPassed:      passed,
		FiltersTotal:       total,
		RobustnessScore:    robustness,
		RobustnessMomentum: momentum,
		TechnicalScore:     technical * 100,
		ContextScore:       contextScore,
		ContextMomentum:    contextMomentum,
		NewsSentiment:      news,
		MasterScore:        breakdown.MasterScore,
		QualityTier:        g.calculator.Tier(breakdown.MasterScore),
		ScoreBreakdown:     breakdown,
	}
}

// external reads an injected context column, falling back to its neutral value
func (g *Generator) external(df *core.Dataframe, column string, i int, neutral float64) float64 {
	value := df.Column(column, i)
	if core.Defined(value) {
		return value
	}

	g.diagnostics.ContextDefaults++
	g.log.WithField("column", column).
		Warnf("missing %s on %s bar %d, using neutral %.2f", column, df.Symbol, i, neutral)
	return neutral
}
