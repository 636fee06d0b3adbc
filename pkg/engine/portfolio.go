package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/raykavin/signalrun/pkg/core"
	"github.com/raykavin/signalrun/pkg/filter"
)

// barEvent is one bar of one symbol in the merged timeline
type barEvent struct {
	time   time.Time
	symbol string
	run    int
	index  int
}

// Less orders events by time, then symbol
func (e barEvent) Less(o barEvent) bool {
	if !e.time.Equal(o.time) {
		return e.time.Before(o.time)
	}
	return e.symbol < o.symbol
}

// RunPortfolio replays several symbols under one account: a single governor
// and expectancy tracker, bars merged in time order. When the daily loss
// limit is reached every open position is closed with daily_limit_forced.
func (e *Engine) RunPortfolio(ctx context.Context, frames []*core.Dataframe) ([]Result, error) {
	seen := make(map[string]bool, len(frames))
	for _, df := range frames {
		if seen[df.Symbol] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSymbol, df.Symbol)
		}
		seen[df.Symbol] = true

		if err := e.prepare(df); err != nil {
			return nil, err
		}
	}

	governor := e.newGovernor()
	tracker := filter.NewExpectancyTracker(e.settings.Expectancy)

	replays := make([]*replay, len(frames))
	queue := core.NewPriorityQueue[barEvent]()
	for i, df := range frames {
		r, err := e.newReplay(df, governor, tracker)
		if err != nil {
			return nil, err
		}
		replays[i] = r
		queue.Push(barEvent{time: df.Time[0], symbol: df.Symbol, run: i, index: 0})
	}

	results := func() []Result {
		out := make([]Result, len(replays))
		for i, r := range replays {
			out[i] = r.result()
		}
		return out
	}

	for queue.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return results(), err
		}

		event, _ := queue.Pop()
		r := replays[event.run]

		if err := r.step(event.index); err != nil {
			return results(), fmt.Errorf("%s bar %d: %w", event.symbol, event.index, err)
		}

		if governor.Breached() {
			for _, other := range replays {
				if trade, ok := other.sim.ForceClose(event.time, core.ExitDailyLimitForced); ok {
					e.log.WithField("symbol", trade.Symbol).
						Warnf("daily loss limit reached, position closed at %.4f", trade.ExitPrice)
				}
			}
		}

		if e.hook != nil {
			e.hook(event.symbol, event.index, r.df.Len())
		}

		if next := event.index + 1; next < r.df.Len() {
			queue.Push(barEvent{time: r.df.Time[next], symbol: event.symbol, run: event.run, index: next})
		}
	}

	for _, r := range replays {
		r.sim.Finish()
		if r.err != nil {
			return results(), r.err
		}
	}

	return results(), nil
}
