package report

import (
	"math"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Interval is a bootstrap confidence interval of a statistic
type Interval struct {
	Lower  float64
	Upper  float64
	Mean   float64
	StdDev float64
}

// Bootstrap resamples values with replacement samples times, applies measure
// to each resample and returns the two sided interval at confidence (0.95 for
// 95%). Resampling is random; it is meant for reports, not for the replay.
func Bootstrap(values []float64, measure func([]float64) float64, samples int, confidence float64) Interval {
	if len(values) == 0 || samples < 1 {
		return Interval{}
	}

	estimates := make([]float64, samples)
	resample := make([]float64, len(values))
	for i := range estimates {
		for j := range resample {
			resample[j] = lo.Sample(values)
		}
		estimates[i] = measure(resample)
	}
	sort.Float64s(estimates)

	tail := (1 - confidence) / 2
	mean, stdDev := stat.MeanStdDev(estimates, nil)

	return Interval{
		Lower:  stat.Quantile(tail, stat.LinInterp, estimates, nil),
		Upper:  stat.Quantile(1-tail, stat.LinInterp, estimates, nil),
		Mean:   mean,
		StdDev: stdDev,
	}
}

// Mean is a bootstrap measure returning the arithmetic mean
func Mean(values []float64) float64 {
	return stat.Mean(values, nil)
}

// maxRatio stands in for payoff and profit factor when there are no losses
const maxRatio = 10

// Payoff is a bootstrap measure: average win over average absolute loss
func Payoff(values []float64) float64 {
	var wins, losses []float64
	for _, value := range values {
		if value >= 0 {
			wins = append(wins, value)
		} else {
			losses = append(losses, math.Abs(value))
		}
	}

	if len(losses) == 0 {
		return maxRatio
	}
	if len(wins) == 0 {
		return 0
	}

	return stat.Mean(wins, nil) / stat.Mean(losses, nil)
}

// ProfitFactor is a bootstrap measure: total gains over total absolute losses
func ProfitFactor(values []float64) float64 {
	var gains, losses float64
	for _, value := range values {
		if value >= 0 {
			gains += value
		} else {
			losses -= value
		}
	}

	if losses == 0 {
		return maxRatio
	}

	return gains / losses
}
