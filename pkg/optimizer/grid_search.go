package optimizer

import (
	"context"
	"fmt"
	"math"

	"github.com/raykavin/signalrun/pkg/logger"
)

// GridSearch evaluates every combination of parameter values
type GridSearch struct {
	parameters    []Parameter
	maxIterations int
	parallelism   int
	log           logger.Logger
}

// NewGridSearch creates a new grid search optimizer
func NewGridSearch(config *Config) (*GridSearch, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &GridSearch{
		parameters:    config.Parameters,
		maxIterations: config.MaxIterations,
		parallelism:   config.Parallelism,
		log:           config.Logger,
	}, nil
}

func (g *GridSearch) SetParameters(params []Parameter) error {
	if len(params) == 0 {
		return fmt.Errorf("at least one parameter must be provided")
	}
	g.parameters = params
	return nil
}

func (g *GridSearch) SetMaxIterations(iterations int) {
	g.maxIterations = iterations
}

func (g *GridSearch) SetParallelism(n int) {
	g.parallelism = n
}

// Optimize evaluates the grid and returns results sorted by targetMetric
func (g *GridSearch) Optimize(ctx context.Context, evaluator Evaluator, targetMetric MetricName, maximize bool) ([]*Result, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator cannot be nil")
	}

	parameterSets, err := g.ParameterSets()
	if err != nil {
		return nil, err
	}

	if g.maxIterations > 0 && len(parameterSets) > g.maxIterations {
		if g.log != nil {
			g.log.Warnf("Limiting parameter combinations from %d to %d", len(parameterSets), g.maxIterations)
		}
		parameterSets = parameterSets[:g.maxIterations]
	}

	if g.log != nil {
		g.log.Infof("Starting grid search with %d parameter combinations", len(parameterSets))
	}

	results, err := runEvaluations(ctx, evaluator, parameterSets, g.parallelism, g.log)
	if err != nil {
		return nil, err
	}

	SortResults(results, targetMetric, maximize)
	return results, nil
}

// ParameterSets returns every combination, the last parameter varying fastest
func (g *GridSearch) ParameterSets() ([]ParameterSet, error) {
	parameterSets := []ParameterSet{make(ParameterSet)}

	for _, param := range g.parameters {
		values, err := parameterValues(param)
		if err != nil {
			return nil, err
		}

		next := make([]ParameterSet, 0, len(parameterSets)*len(values))
		for _, set := range parameterSets {
			for _, value := range values {
				combination := make(ParameterSet, len(set)+1)
				for k, v := range set {
					combination[k] = v
				}
				combination[param.Name] = value
				next = append(next, combination)
			}
		}
		parameterSets = next
	}

	return parameterSets, nil
}

func parameterValues(param Parameter) ([]any, error) {
	switch param.Type {
	case TypeInt:
		return steps[int](param)
	case TypeFloat:
		return steps[float64](param)
	case TypeBool:
		return []any{true, false}, nil
	case TypeString, TypeCategorical:
		if len(param.Options) == 0 {
			return nil, fmt.Errorf("parameter %s of type %s must have options", param.Name, param.Type)
		}
		return param.Options, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type: %s", param.Type)
	}
}

// bounds reads the typed range of a numeric parameter
func bounds[T int | float64](param Parameter) (lower, upper, step T, err error) {
	var ok bool
	if lower, ok = param.Min.(T); !ok {
		return lower, upper, step, fmt.Errorf("parameter %s: min is %T, want %T", param.Name, param.Min, lower)
	}
	if upper, ok = param.Max.(T); !ok {
		return lower, upper, step, fmt.Errorf("parameter %s: max is %T, want %T", param.Name, param.Max, upper)
	}
	if step, ok = param.Step.(T); !ok {
		return lower, upper, step, fmt.Errorf("parameter %s: step is %T, want %T", param.Name, param.Step, step)
	}
	if step <= 0 {
		return lower, upper, step, fmt.Errorf("parameter %s: step must be positive", param.Name)
	}
	return lower, upper, step, nil
}

// steps enumerates the range by index so float rounding never drops the upper bound
func steps[T int | float64](param Parameter) ([]any, error) {
	lower, upper, step, err := bounds[T](param)
	if err != nil {
		return nil, err
	}
	if upper < lower {
		return nil, nil
	}

	count := int(math.Floor(float64(upper-lower)/float64(step)+1e-9)) + 1
	values := make([]any, count)
	for i := range values {
		values[i] = lower + T(i)*step
	}
	return values, nil
}
