package optimizer

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/raykavin/signalrun/pkg/logger"
)

// RandomSearch samples parameter sets uniformly within their ranges
type RandomSearch struct {
	parameters    []Parameter
	maxIterations int
	parallelism   int
	logger        logger.Logger
	rng           *rand.Rand
}

// NewRandomSearch creates a random search seeded from the config
func NewRandomSearch(config *Config) (*RandomSearch, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &RandomSearch{
		parameters:    config.Parameters,
		maxIterations: config.MaxIterations,
		parallelism:   config.Parallelism,
		logger:        config.Logger,
		rng:           rand.New(rand.NewSource(config.Seed)),
	}, nil
}

func (r *RandomSearch) SetParameters(params []Parameter) error {
	if len(params) == 0 {
		return fmt.Errorf("at least one parameter must be provided")
	}
	r.parameters = params
	return nil
}

func (r *RandomSearch) SetMaxIterations(iterations int) {
	r.maxIterations = iterations
}

func (r *RandomSearch) SetParallelism(n int) {
	r.parallelism = n
}

// Optimize evaluates maxIterations random sets and returns them sorted by targetMetric
func (r *RandomSearch) Optimize(
	ctx context.Context,
	evaluator Evaluator,
	targetMetric MetricName,
	maximize bool,
) ([]*Result, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator cannot be nil")
	}

	parameterSets := r.ParameterSets()
	if r.logger != nil {
		r.logger.Infof("Starting random search with %d iterations", len(parameterSets))
	}

	results, err := runEvaluations(ctx, evaluator, parameterSets, r.parallelism, r.logger)
	if err != nil {
		return nil, err
	}

	SortResults(results, targetMetric, maximize)
	return results, nil
}

// ParameterSets draws maxIterations parameter sets
func (r *RandomSearch) ParameterSets() []ParameterSet {
	parameterSets := make([]ParameterSet, r.maxIterations)

	for i := range parameterSets {
		paramSet := make(ParameterSet, len(r.parameters))
		for _, param := range r.parameters {
			paramSet[param.Name] = r.randomValue(param)
		}
		parameterSets[i] = paramSet
	}

	return parameterSets
}

func (r *RandomSearch) randomValue(param Parameter) any {
	switch param.Type {
	case TypeInt:
		return r.randomInt(param)
	case TypeFloat:
		return r.randomFloat(param)
	case TypeBool:
		return r.rng.Intn(2) == 1
	case TypeString, TypeCategorical:
		if len(param.Options) == 0 {
			return param.Default
		}
		return param.Options[r.rng.Intn(len(param.Options))]
	default:
		return param.Default
	}
}

func (r *RandomSearch) randomInt(param Parameter) int {
	lower, ok := param.Min.(int)
	if !ok {
		if def, ok := param.Default.(int); ok {
			return def
		}
		return 0
	}

	upper, ok := param.Max.(int)
	if !ok || lower >= upper {
		return lower
	}

	return lower + r.rng.Intn(upper-lower+1)
}

func (r *RandomSearch) randomFloat(param Parameter) float64 {
	lower, ok := param.Min.(float64)
	if !ok {
		if def, ok := param.Default.(float64); ok {
			return def
		}
		return 0
	}

	upper, ok := param.Max.(float64)
	if !ok || lower >= upper {
		return lower
	}

	return lower + r.rng.Float64()*(upper-lower)
}
