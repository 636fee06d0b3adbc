package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/raykavin/signalrun/pkg/core"
	"github.com/raykavin/signalrun/pkg/engine"
	"github.com/raykavin/signalrun/pkg/logger"
	"github.com/raykavin/signalrun/pkg/report"
	"github.com/spf13/viper"
)

// ApplyParameters returns a copy of base with every dotted key in params
// overridden. Unknown keys are an error.
func ApplyParameters(base core.Settings, params ParameterSet) (core.Settings, error) {
	// deep copy, decoding below writes into maps in place
	content, err := json.Marshal(base)
	if err != nil {
		return core.Settings{}, err
	}
	var settings core.Settings
	if err := json.Unmarshal(content, &settings); err != nil {
		return core.Settings{}, err
	}

	v := viper.New()
	for key, value := range params {
		v.Set(key, value)
	}

	err = v.Unmarshal(&settings, func(c *mapstructure.DecoderConfig) {
		c.ErrorUnused = true
	})
	if err != nil {
		return core.Settings{}, fmt.Errorf("apply %s: %w", FormatParameterSet(params), err)
	}

	return settings, nil
}

// EngineEvaluator replays fixed candle series with each parameter set
// applied over base settings
type EngineEvaluator struct {
	base    core.Settings
	symbols []string
	candles map[string][]core.Candle
	shared  bool
	log     logger.Logger
}

// NewEngineEvaluator snapshots the frames so every evaluation computes its
// indicators from scratch. With shared set, symbols replay as one portfolio.
func NewEngineEvaluator(base core.Settings, frames []*core.Dataframe, shared bool, log logger.Logger) *EngineEvaluator {
	e := &EngineEvaluator{
		base:    base,
		candles: make(map[string][]core.Candle, len(frames)),
		shared:  shared,
		log:     log,
	}

	for _, df := range frames {
		e.symbols = append(e.symbols, df.Symbol)
		e.candles[df.Symbol] = df.Candles()
	}

	return e
}

// Evaluate runs the engine and summarises the trades of every symbol
func (e *EngineEvaluator) Evaluate(ctx context.Context, params ParameterSet) (*Result, error) {
	start := time.Now()

	settings, err := ApplyParameters(e.base, params)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(settings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FormatParameterSet(params), err)
	}

	frames := make([]*core.Dataframe, len(e.symbols))
	for i, symbol := range e.symbols {
		frames[i] = core.NewDataframe(symbol, e.candles[symbol])
	}

	var results []engine.Result
	if e.shared {
		results, err = eng.RunPortfolio(ctx, frames)
	} else {
		results, err = eng.RunParallel(ctx, frames, 1)
	}
	if err != nil {
		return nil, err
	}

	metrics := collectMetrics(results, settings.Capital)
	if e.log != nil {
		e.log.WithFields(map[string]any{
			"params": FormatParameterSet(params),
			"trades": metrics[string(MetricTradeCount)],
			"profit": metrics[string(MetricProfit)],
		}).Debug("evaluation finished")
	}

	return &Result{
		Parameters: params,
		Metrics:    metrics,
		Duration:   time.Since(start),
	}, nil
}

func collectMetrics(results []engine.Result, capital float64) map[string]float64 {
	summary := report.NewTradeSummary("all", nil)
	signals := 0
	for _, result := range results {
		signals += len(result.Signals)
		for _, trade := range result.Trades {
			if trade.Status == core.StatusClosed {
				summary.Add(trade)
			}
		}
	}

	metrics := map[string]float64{
		string(MetricSignalCount): float64(signals),
		string(MetricTradeCount):  float64(summary.Trades()),
		string(MetricProfit):      summary.Profit(),
		string(MetricReturnPct):   summary.Profit() / capital * 100,
	}

	if summary.Trades() == 0 {
		for _, name := range []MetricName{MetricWinRate, MetricPayoff, MetricProfitFactor, MetricSQN, MetricAverageR} {
			metrics[string(name)] = 0
		}
		return metrics
	}

	metrics[string(MetricWinRate)] = summary.WinPercentage() / 100
	metrics[string(MetricPayoff)] = summary.Payoff()
	metrics[string(MetricProfitFactor)] = summary.ProfitFactor()
	metrics[string(MetricSQN)] = summary.SQN()
	metrics[string(MetricAverageR)] = summary.AverageR()

	return metrics
}
