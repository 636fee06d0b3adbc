package optimizer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/raykavin/signalrun/internal/synthetic"
	"github.com/raykavin/signalrun/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEvaluator returns predefined metrics keyed by the formatted parameter set
type mockEvaluator struct {
	results map[string]map[string]float64
	fail    string
}

func (m *mockEvaluator) Evaluate(_ context.Context, params ParameterSet) (*Result, error) {
	key := FormatParameterSet(params)
	if key == m.fail {
		return nil, errors.New("boom")
	}

	metrics, ok := m.results[key]
	if !ok {
		metrics = map[string]float64{"profit": 0, "win_rate": 0.5}
	}

	return &Result{Parameters: params, Metrics: metrics, Duration: time.Millisecond}, nil
}

var gridParameters = []Parameter{
	{Name: "indicators.sma_fast_period", Min: 9, Max: 14, Step: 5, Type: TypeInt},
	{Name: "indicators.sma_slow_period", Min: 21, Max: 28, Step: 7, Type: TypeInt},
}

func TestGridSearch(t *testing.T) {
	evaluator := &mockEvaluator{results: map[string]map[string]float64{
		"{indicators.sma_fast_period: 9, indicators.sma_slow_period: 21}":  {"profit": 100, "win_rate": 0.6},
		"{indicators.sma_fast_period: 14, indicators.sma_slow_period: 28}": {"profit": 150, "win_rate": 0.7},
	}}

	grid, err := NewGridSearch(NewConfig().WithParameters(gridParameters...).WithParallelism(2))
	require.NoError(t, err)

	results, err := grid.Optimize(context.Background(), evaluator, MetricProfit, true)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, 150.0, results[0].Metrics["profit"])
	assert.Equal(t, 100.0, results[1].Metrics["profit"])
	assert.Equal(t, 14, results[0].Parameters["indicators.sma_fast_period"])

	// ties are ordered by parameter set
	assert.Equal(t, "{indicators.sma_fast_period: 14, indicators.sma_slow_period: 21}",
		FormatParameterSet(results[2].Parameters))

	results, err = grid.Optimize(context.Background(), evaluator, MetricProfit, false)
	require.NoError(t, err)
	assert.Equal(t, 150.0, results[3].Metrics["profit"])
}

func TestGridSearch_MaxIterationsAndErrors(t *testing.T) {
	grid, err := NewGridSearch(NewConfig().WithParameters(gridParameters...).WithMaxIterations(3))
	require.NoError(t, err)

	results, err := grid.Optimize(context.Background(), &mockEvaluator{}, MetricProfit, true)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	_, err = grid.Optimize(context.Background(), &mockEvaluator{
		fail: "{indicators.sma_fast_period: 9, indicators.sma_slow_period: 21}",
	}, MetricProfit, true)
	assert.ErrorContains(t, err, "boom")

	_, err = NewGridSearch(NewConfig())
	assert.Error(t, err)
}

func TestGridSearch_ParameterValues(t *testing.T) {
	grid, err := NewGridSearch(NewConfig().WithParameters(
		Parameter{Name: "risk.stop_atr_multiple", Min: 1.5, Max: 2.5, Step: 0.5, Type: TypeFloat},
		Parameter{Name: "filters.session.enabled", Type: TypeBool},
		Parameter{Name: "filters.session.timezone", Options: []any{"Asia/Kolkata", "UTC"}, Type: TypeCategorical},
	))
	require.NoError(t, err)

	sets, err := grid.ParameterSets()
	require.NoError(t, err)
	require.Len(t, sets, 12)
	assert.Equal(t, 1.5, sets[0]["risk.stop_atr_multiple"])
	assert.Equal(t, 2.5, sets[11]["risk.stop_atr_multiple"])

	for _, set := range sets {
		assert.NoError(t, ValidateParameterSet(set, grid.parameters))
	}

	assert.Error(t, ValidateParameterSet(ParameterSet{"risk.stop_atr_multiple": 2}, grid.parameters[:1]))
	assert.Error(t, ValidateParameterSet(ParameterSet{}, grid.parameters[:1]))

	_, err = parameterValues(Parameter{Name: "x", Min: 1, Max: 2, Step: 0, Type: TypeInt})
	assert.Error(t, err)
}

func TestRandomSearch_Reproducible(t *testing.T) {
	config := NewConfig().WithParameters(
		Parameter{Name: "risk.stop_atr_multiple", Min: 1.0, Max: 3.0, Type: TypeFloat},
		Parameter{Name: "risk.time_exit_bars", Min: 10, Max: 30, Type: TypeInt},
	).WithMaxIterations(20).WithSeed(42)

	first, err := NewRandomSearch(config)
	require.NoError(t, err)
	second, err := NewRandomSearch(config)
	require.NoError(t, err)

	sets := first.ParameterSets()
	require.Len(t, sets, 20)
	assert.Equal(t, sets, second.ParameterSets())

	for _, set := range sets {
		stop := set["risk.stop_atr_multiple"].(float64)
		bars := set["risk.time_exit_bars"].(int)
		assert.GreaterOrEqual(t, stop, 1.0)
		assert.Less(t, stop, 3.0)
		assert.GreaterOrEqual(t, bars, 10)
		assert.LessOrEqual(t, bars, 30)
	}

	results, err := first.Optimize(context.Background(), &mockEvaluator{}, MetricWinRate, true)
	require.NoError(t, err)
	assert.Len(t, results, 20)
}

func TestApplyParameters(t *testing.T) {
	base := core.DefaultSettings()

	settings, err := ApplyParameters(base, ParameterSet{
		"risk.stop_atr_multiple":                 2.5,
		"risk.time_exit_bars":                    30,
		"filters.session.enabled":                false,
		"filters.volume_multipliers.trend_cross": 1.6,
	})
	require.NoError(t, err)

	assert.Equal(t, 2.5, settings.Risk.StopATRMultiple)
	assert.Equal(t, 30, settings.Risk.TimeExitBars)
	assert.False(t, settings.Filters.Session.Enabled)
	assert.Equal(t, 1.6, settings.Filters.VolumeMultipliers[core.TrendCross])
	assert.Equal(t, 1.2, settings.Filters.VolumeMultipliers[core.Pullback])
	assert.Equal(t, base.Risk.TargetRMultiple, settings.Risk.TargetRMultiple)

	// base is untouched
	assert.Equal(t, 2.0, base.Risk.StopATRMultiple)
	assert.Equal(t, 1.3, base.Filters.VolumeMultipliers[core.TrendCross])
	assert.True(t, base.Filters.Session.Enabled)

	_, err = ApplyParameters(base, ParameterSet{"risk.no_such_setting": 1})
	assert.Error(t, err)
}

func TestEngineEvaluator(t *testing.T) {
	frames := []*core.Dataframe{
		synthetic.Frame("ACME", synthetic.Session, 15*time.Minute, synthetic.GoldenCross()),
	}
	evaluator := NewEngineEvaluator(core.DefaultSettings(), frames, false, nil)

	grid, err := NewGridSearch(NewConfig().WithParameters(
		Parameter{Name: "patterns.trend_cross_adx", Min: 22.0, Max: 30.0, Step: 8.0, Type: TypeFloat},
	))
	require.NoError(t, err)

	results, err := grid.Optimize(context.Background(), evaluator, MetricTradeCount, true)
	require.NoError(t, err)
	require.Len(t, results, 2)

	best := results[0]
	assert.Equal(t, 22.0, best.Parameters["patterns.trend_cross_adx"])
	assert.Equal(t, 1.0, best.Metrics[string(MetricTradeCount)])
	assert.Equal(t, 1.0, best.Metrics[string(MetricSignalCount)])
	assert.Equal(t, 1.0, best.Metrics[string(MetricWinRate)])
	assert.Greater(t, best.Metrics[string(MetricProfit)], 0.0)

	worst := results[1]
	assert.Equal(t, 0.0, worst.Metrics[string(MetricTradeCount)])
	assert.Equal(t, 0.0, worst.Metrics[string(MetricProfit)])

	_, err = evaluator.Evaluate(context.Background(), ParameterSet{"score.weights.news": 0.5})
	assert.Error(t, err, "weights no longer sum to one")
}

func TestSaveAndPrintResults(t *testing.T) {
	results := []*Result{
		{Parameters: ParameterSet{"risk.stop_atr_multiple": 2.5}, Metrics: map[string]float64{"profit": 10, "sqn": 1.5}},
		{Parameters: ParameterSet{"risk.stop_atr_multiple": 1.5}, Metrics: map[string]float64{"profit": 5}},
	}

	path := filepath.Join(t.TempDir(), "calibration.csv")
	require.NoError(t, SaveResultsToCSV(results, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "rank,duration,risk.stop_atr_multiple,profit,sqn", lines[0])
	assert.Equal(t, "2,0s,1.5,5.0000,", lines[2])

	out := &bytes.Buffer{}
	PrintResults(out, results, MetricProfit, 1)
	assert.Contains(t, out.String(), "Top 1 results by profit")
	assert.Contains(t, out.String(), "2.5")
	assert.NotContains(t, out.String(), "5.0000")

	assert.Len(t, MergeResults(results, results[:1]), 3)
}

func TestParseParameter(t *testing.T) {
	param, err := ParseParameter("risk.stop_atr_multiple=1.5:3:0.5")
	require.NoError(t, err)
	assert.Equal(t, TypeFloat, param.Type)
	assert.Equal(t, 1.5, param.Min)
	assert.Equal(t, 3.0, param.Max)

	param, err = ParseParameter("risk.time_exit_bars=10:30:5")
	require.NoError(t, err)
	assert.Equal(t, TypeInt, param.Type)
	assert.Equal(t, 5, param.Step)

	param, err = ParseParameter("filters.session.enabled=true,false")
	require.NoError(t, err)
	assert.Equal(t, TypeCategorical, param.Type)
	assert.Equal(t, []any{true, false}, param.Options)

	param, err = ParseParameter("filters.session.timezone=UTC,Asia/Kolkata")
	require.NoError(t, err)
	assert.Equal(t, []any{"UTC", "Asia/Kolkata"}, param.Options)

	for _, spec := range []string{"risk.stop_atr_multiple", "=1,2", "x=a:b:c"} {
		_, err := ParseParameter(spec)
		assert.Error(t, err, spec)
	}
}
