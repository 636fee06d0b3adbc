// Package optimizer calibrates settings by replaying the engine over a grid
// or a random sample of parameter values.
package optimizer

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/raykavin/signalrun/pkg/logger"
)

// Parameter is one setting to calibrate. Name is the dotted settings key,
// e.g. "risk.stop_atr_multiple".
type Parameter struct {
	Name        string
	Description string
	Default     any
	Min         any
	Max         any
	Step        any
	Options     []any
	Type        ParameterType
}

// ParameterType defines the data type of a parameter
type ParameterType string

const (
	TypeInt         ParameterType = "int"
	TypeFloat       ParameterType = "float"
	TypeBool        ParameterType = "bool"
	TypeString      ParameterType = "string"
	TypeCategorical ParameterType = "categorical"
)

// ParameterSet maps settings keys to values
type ParameterSet map[string]any

// Result is the outcome of one evaluation
type Result struct {
	Parameters ParameterSet
	Metrics    map[string]float64
	Duration   time.Duration
}

// MetricName names a result metric
type MetricName string

const (
	MetricProfit       MetricName = "profit"
	MetricWinRate      MetricName = "win_rate"
	MetricPayoff       MetricName = "payoff"
	MetricProfitFactor MetricName = "profit_factor"
	MetricSQN          MetricName = "sqn"
	MetricAverageR     MetricName = "avg_r"
	MetricTradeCount   MetricName = "trade_count"
	MetricSignalCount  MetricName = "signal_count"
	MetricReturnPct    MetricName = "return_pct"
)

// Evaluator scores a parameter set
type Evaluator interface {
	Evaluate(ctx context.Context, params ParameterSet) (*Result, error)
}

// Optimizer searches the parameter space
type Optimizer interface {
	Optimize(ctx context.Context, evaluator Evaluator, targetMetric MetricName, maximize bool) ([]*Result, error)
	SetParameters(params []Parameter) error
	SetMaxIterations(iterations int)
	SetParallelism(n int)
}

// Config holds configuration for the optimization process
type Config struct {
	Parameters    []Parameter
	MaxIterations int
	Parallelism   int
	Logger        logger.Logger
	TargetMetric  MetricName
	Maximize      bool
	TopN          int
	Seed          int64 // random search seed, runs are reproducible for a fixed seed
}

// NewConfig creates a default configuration
func NewConfig() *Config {
	return &Config{
		Parameters:    []Parameter{},
		MaxIterations: 100,
		Parallelism:   1,
		TargetMetric:  MetricProfit,
		Maximize:      true,
		TopN:          5,
		Seed:          1,
	}
}

func (c *Config) WithParameters(params ...Parameter) *Config {
	c.Parameters = append(c.Parameters, params...)
	return c
}

func (c *Config) WithMaxIterations(iterations int) *Config {
	c.MaxIterations = iterations
	return c
}

func (c *Config) WithParallelism(n int) *Config {
	c.Parallelism = n
	return c
}

func (c *Config) WithLogger(log logger.Logger) *Config {
	c.Logger = log
	return c
}

func (c *Config) WithTargetMetric(metric MetricName, maximize bool) *Config {
	c.TargetMetric = metric
	c.Maximize = maximize
	return c
}

func (c *Config) WithTopN(n int) *Config {
	c.TopN = n
	return c
}

func (c *Config) WithSeed(seed int64) *Config {
	c.Seed = seed
	return c
}

func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if len(c.Parameters) == 0 {
		return fmt.Errorf("at least one parameter must be provided")
	}
	if c.Parallelism < 1 {
		c.Parallelism = 1
	}
	return nil
}

// ValidateParameterSet checks that every defined parameter is present with
// a value of the declared type
func ValidateParameterSet(params ParameterSet, definitions []Parameter) error {
	for _, def := range definitions {
		value, exists := params[def.Name]
		if !exists {
			return fmt.Errorf("missing parameter: %s", def.Name)
		}

		switch def.Type {
		case TypeInt:
			if _, ok := value.(int); !ok {
				return fmt.Errorf("parameter %s must be an integer", def.Name)
			}
		case TypeFloat:
			if _, ok := value.(float64); !ok {
				return fmt.Errorf("parameter %s must be a float", def.Name)
			}
		case TypeBool:
			if _, ok := value.(bool); !ok {
				return fmt.Errorf("parameter %s must be a boolean", def.Name)
			}
		case TypeString:
			if _, ok := value.(string); !ok {
				return fmt.Errorf("parameter %s must be a string", def.Name)
			}
		case TypeCategorical:
			if !slices.Contains(def.Options, value) {
				return fmt.Errorf("parameter %s has invalid value", def.Name)
			}
		}
	}
	return nil
}

// SortResults orders results by metric. Ties keep a stable order by
// parameter set so repeated runs print the same ranking.
func SortResults(results []*Result, metric MetricName, maximize bool) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Metrics[string(metric)], results[j].Metrics[string(metric)]
		if a != b {
			if maximize {
				return a > b
			}
			return a < b
		}
		return FormatParameterSet(results[i].Parameters) < FormatParameterSet(results[j].Parameters)
	})
}
