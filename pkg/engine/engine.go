// Package engine replays candle series through signal generation and trade
// simulation, one symbol at a time, in parallel, or as a shared account.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/raykavin/signalrun/pkg/core"
	"github.com/raykavin/signalrun/pkg/filter"
	"github.com/raykavin/signalrun/pkg/indicator"
	"github.com/raykavin/signalrun/pkg/logger"
	"github.com/raykavin/signalrun/pkg/logger/zerolog"
	"github.com/raykavin/signalrun/pkg/risk"
	"github.com/raykavin/signalrun/pkg/simulator"
)

var ErrDuplicateSymbol = errors.New("engine: duplicate symbol")

// Result is the output of replaying one symbol
type Result struct {
	Symbol      string        `json:"symbol"`
	Signals     []core.Signal `json:"signals"`
	Trades      []core.Trade  `json:"trades"`
	Diagnostics Diagnostics   `json:"diagnostics"`
}

// BarHook is called after each replayed bar
type BarHook func(symbol string, index, total int)

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger, silent by default
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithStorage persists every signal and closed trade
func WithStorage(storage core.ResultStorage) Option {
	return func(e *Engine) {
		e.storage = storage
	}
}

// WithBarHook registers a callback run after each bar. In parallel runs it is
// called from several goroutines.
func WithBarHook(hook BarHook) Option {
	return func(e *Engine) {
		e.hook = hook
	}
}

// Engine wires the pipeline for a set of settings. It holds no per-run
// state, so one engine can serve concurrent runs.
type Engine struct {
	settings core.Settings
	location *time.Location
	log      logger.Logger
	storage  core.ResultStorage
	hook     BarHook
}

// New validates settings and creates an engine
func New(settings core.Settings, opts ...Option) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	window, err := settings.Filters.Session.Window()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		settings: settings,
		location: window.Location,
		log:      zerolog.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Settings returns the engine settings
func (e *Engine) Settings() core.Settings {
	return e.settings
}

func (e *Engine) newGovernor() *risk.Governor {
	return risk.NewGovernor(e.settings.Capital, risk.Limits{
		MaxDailyTrades: e.settings.Risk.MaxDailyTrades,
		DailyLossLimit: e.settings.Risk.DailyLossLimit,
	}, e.location)
}

// prepare rejects corrupt input and computes missing indicator columns
func (e *Engine) prepare(df *core.Dataframe) error {
	if err := core.ValidateCandles(df.Candles()); err != nil {
		return fmt.Errorf("%s: %w", df.Symbol, err)
	}
	indicator.Populate(df, indicator.PeriodsFrom(e.settings.Indicators))
	return nil
}

// replay is the per symbol state of a run
type replay struct {
	df        *core.Dataframe
	generator *Generator
	sim       *simulator.Simulator
	storage   core.ResultStorage
	signals   []core.Signal
	err       error
}

func (e *Engine) newReplay(df *core.Dataframe, governor *risk.Governor, tracker *filter.ExpectancyTracker) (*replay, error) {
	log := e.log.WithField("symbol", df.Symbol)

	generator, err := NewGenerator(e.settings, tracker, log)
	if err != nil {
		return nil, err
	}

	r := &replay{
		df:        df,
		generator: generator,
		sim:       simulator.New(df.Symbol, e.settings.Risk, governor, e.log),
		storage:   e.storage,
	}

	r.sim.OnClose(tracker.RecordTrade)
	if r.storage != nil {
		r.sim.OnClose(func(trade core.Trade) {
			if err := r.storage.SaveTrade(trade); err != nil && r.err == nil {
				r.err = fmt.Errorf("save trade: %w", err)
			}
		})
	}

	return r, nil
}

// step processes bar i: exits of the open trade first, then new signals
func (r *replay) step(i int) error {
	r.sim.OnBar(r.df.Candle(i))

	for _, signal := range r.generator.Evaluate(r.df, i) {
		r.signals = append(r.signals, signal)
		if r.storage != nil {
			if err := r.storage.SaveSignal(signal); err != nil {
				return fmt.Errorf("save signal: %w", err)
			}
		}
		r.sim.Submit(signal)
	}

	return r.err
}

func (r *replay) result() Result {
	diagnostics := r.generator.Diagnostics()
	diagnostics.Simulation = r.sim.Diagnostics()

	return Result{
		Symbol:      r.df.Symbol,
		Signals:     r.signals,
		Trades:      r.sim.Trades(),
		Diagnostics: diagnostics,
	}
}

// Run replays one symbol with its own account. Cancelling ctx stops before
// the next bar and returns what was produced so far with the context error.
func (e *Engine) Run(ctx context.Context, df *core.Dataframe) (Result, error) {
	if err := e.prepare(df); err != nil {
		return Result{Symbol: df.Symbol}, err
	}

	r, err := e.newReplay(df, e.newGovernor(), filter.NewExpectancyTracker(e.settings.Expectancy))
	if err != nil {
		return Result{Symbol: df.Symbol}, err
	}

	total := df.Len()
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return r.result(), err
		}
		if err := r.step(i); err != nil {
			return r.result(), fmt.Errorf("%s bar %d: %w", df.Symbol, i, err)
		}
		if e.hook != nil {
			e.hook(df.Symbol, i, total)
		}
	}

	r.sim.Finish()
	e.log.WithField("symbol", df.Symbol).
		Infof("replayed %d bars: %d signals, %d trades", total, len(r.signals), len(r.sim.Trades()))

	return r.result(), r.err
}

// RunParallel replays independent symbols, each with its own account, on at
// most parallelism goroutines. Results keep the order of frames.
func (e *Engine) RunParallel(ctx context.Context, frames []*core.Dataframe, parallelism int) ([]Result, error) {
	if parallelism < 1 {
		parallelism = 1
	}

	var (
		results   = make([]Result, len(frames))
		wg        sync.WaitGroup
		errCh     = make(chan error, 1)
		semaphore = make(chan struct{}, parallelism)
	)

	for i, df := range frames {
		select {
		case <-ctx.Done():
			wg.Wait()
			return results, ctx.Err()
		case err := <-errCh:
			wg.Wait()
			return results, err
		default:
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(index int, df *core.Dataframe) {
			defer wg.Done()
			defer func() { <-semaphore }()

			result, err := e.Run(ctx, df)
			results[index] = result
			if err != nil {
				select {
				case errCh <- err:
				default:
				}
			}
		}(i, df)
	}

	wg.Wait()

	select {
	case err := <-errCh:
		return results, err
	default:
		return results, nil
	}
}
