// Package filter implements the robustness filter chain a validated pattern
// candidate must fully pass before it becomes a signal.
package filter

import (
	"fmt"
	"time"

	"github.com/raykavin/signalrun/pkg/core"
)

// Filter names, also used in settings to disable a filter
const (
	NameRegime     = "regime"
	NameVolume     = "volume"
	NameTimeOfDay  = "time_of_day"
	NameLiquidity  = "liquidity"
	NameGapSafety  = "gap_safety"
	NameAlignment  = "alignment"
	NameExpectancy = "expectancy"
)

// Names lists every filter in evaluation order
var Names = []string{
	NameRegime, NameVolume, NameTimeOfDay, NameLiquidity, NameGapSafety, NameAlignment, NameExpectancy,
}

// Context is everything a filter may look at for one candidate on one bar
type Context struct {
	Symbol    string
	Time      time.Time
	Direction core.Direction
	Kind      core.PatternKind
	Close     float64
	Volume    float64
	Snapshot  core.IndicatorSnapshot
}

// ContextAt builds the filter context of a candidate evaluated on bar i
func ContextAt(df *core.Dataframe, i int, direction core.Direction, kind core.PatternKind) Context {
	return Context{
		Symbol:    df.Symbol,
		Time:      df.Time[i],
		Direction: direction,
		Kind:      kind,
		Close:     df.Close[i],
		Volume:    df.Volume[i],
		Snapshot:  df.Snapshot(i),
	}
}

// VolumeRatio returns the bar volume relative to its 20-bar average
func (c Context) VolumeRatio() float64 {
	return c.Snapshot.VolumeRatio(c.Volume)
}

// Filter is one independent admissibility predicate
type Filter interface {
	Name() string
	Evaluate(ctx Context) bool
}

// Result is the outcome of one filter
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// Chain evaluates filters in order
type Chain struct {
	filters []Filter
}

// NewChain creates a chain from filters in evaluation order
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// Len returns the number of filters in the chain
func (c *Chain) Len() int {
	return len(c.filters)
}

// Names returns the names of the filters in evaluation order
func (c *Chain) Names() []string {
	names := make([]string, len(c.filters))
	for i, f := range c.filters {
		names[i] = f.Name()
	}
	return names
}

// Evaluate reports whether every filter passes. It stops at the first
// failure and returns its name.
func (c *Chain) Evaluate(ctx Context) (bool, string) {
	for _, f := range c.filters {
		if !f.Evaluate(ctx) {
			return false, f.Name()
		}
	}
	return true, ""
}

// Results evaluates every filter independently
func (c *Chain) Results(ctx Context) []Result {
	results := make([]Result, len(c.filters))
	for i, f := range c.filters {
		results[i] = Result{Name: f.Name(), Passed: f.Evaluate(ctx)}
	}
	return results
}

// Count returns how many filters pass, each evaluated independently
func (c *Chain) Count(ctx Context) int {
	var count int
	for _, f := range c.filters {
		if f.Evaluate(ctx) {
			count++
		}
	}
	return count
}

// NewDefaultChain builds the seven standard filters, skipping the ones named
// in settings.Disabled
func NewDefaultChain(settings core.FilterSettings, tracker *ExpectancyTracker) (*Chain, error) {
	window, err := settings.Session.Window()
	if err != nil {
		return nil, fmt.Errorf("filter chain: %w", err)
	}

	all := map[string]Filter{
		NameRegime:     Regime{TrendingADX: settings.TrendingADX, RangingADX: settings.RangingADX},
		NameVolume:     Volume{Multipliers: settings.VolumeMultipliers},
		NameTimeOfDay:  TimeOfDay{Enabled: settings.Session.Enabled, Window: window},
		NameLiquidity:  Liquidity{MinAverageVolume: settings.MinAverageVolume},
		NameGapSafety:  GapSafety{MaxVolumeSpike: settings.MaxVolumeSpike},
		NameAlignment:  Alignment{},
		NameExpectancy: Expectancy{Tracker: tracker, MinWinRate: settings.MinWinRate},
	}

	disabled := make(map[string]bool, len(settings.Disabled))
	for _, name := range settings.Disabled {
		if _, ok := all[name]; !ok {
			return nil, fmt.Errorf("filter chain: unknown filter %q", name)
		}
		disabled[name] = true
	}

	filters := make([]Filter, 0, len(Names))
	for _, name := range Names {
		if !disabled[name] {
			filters = append(filters, all[name])
		}
	}

	return NewChain(filters...), nil
}
