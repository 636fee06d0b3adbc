// Package signalrun replays candle series through the signal generation,
// validation and risk managed trade simulation pipeline and reports the
// outcome.
package signalrun

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/StudioSol/set"
	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/signalrun/pkg/core"
	"github.com/raykavin/signalrun/pkg/engine"
	"github.com/raykavin/signalrun/pkg/logger"
	"github.com/raykavin/signalrun/pkg/report"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
)

const bootstrapSamples = 10000

// SignalRun runs the engine over a set of symbols and keeps the results
type SignalRun struct {
	settings    core.Settings
	log         logger.Logger
	storage     core.ResultStorage
	shared      bool
	parallelism int
	progress    io.Writer

	results []engine.Result
}

// New validates settings and applies options
func New(settings core.Settings, options ...Option) (*SignalRun, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	s := &SignalRun{
		settings:    settings,
		log:         DefaultLog,
		parallelism: 1,
	}
	for _, option := range options {
		option(s)
	}

	return s, nil
}

// Run replays frames. A symbol given twice is replayed once, from its first
// frame. Results are kept for Summary and returned in frame order.
func (s *SignalRun) Run(ctx context.Context, frames []*core.Dataframe) ([]engine.Result, error) {
	frames = s.uniqueFrames(frames)

	opts := []engine.Option{engine.WithLogger(s.log)}
	if s.storage != nil {
		opts = append(opts, engine.WithStorage(s.storage))
	}

	var bar *progressbar.ProgressBar
	if s.progress != nil {
		total := 0
		for _, df := range frames {
			total += df.Len()
		}
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(s.progress),
			progressbar.OptionSetDescription("replaying"),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
		opts = append(opts, engine.WithBarHook(func(string, int, int) {
			if err := bar.Add(1); err != nil {
				s.log.Warnf("update progressbar fail: %v", err)
			}
		}))
	}

	eng, err := engine.New(s.settings, opts...)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]any{
		"symbols": len(frames),
		"shared":  s.shared,
	}).Info("Starting replay")

	if s.shared {
		s.results, err = eng.RunPortfolio(ctx, frames)
	} else {
		s.results, err = eng.RunParallel(ctx, frames, s.parallelism)
	}

	if bar != nil {
		_ = bar.Finish()
	}

	return s.results, err
}

// RunFeed replays every symbol of feeder
func (s *SignalRun) RunFeed(ctx context.Context, feeder core.Feeder) ([]engine.Result, error) {
	return s.Run(ctx, feeder.Dataframes())
}

func (s *SignalRun) uniqueFrames(frames []*core.Dataframe) []*core.Dataframe {
	symbols := set.NewLinkedHashSetString()
	unique := make([]*core.Dataframe, 0, len(frames))

	for _, df := range frames {
		if symbols.InArray(df.Symbol) {
			s.log.WithField("symbol", df.Symbol).Warn("Duplicate symbol ignored")
			continue
		}
		symbols.Add(df.Symbol)
		unique = append(unique, df)
	}

	return unique
}

// Results returns the results of the last run
func (s *SignalRun) Results() []engine.Result {
	return s.results
}

// Signals returns every signal of the last run ordered by time, then symbol
func (s *SignalRun) Signals() []core.Signal {
	var signals []core.Signal
	for _, result := range s.results {
		signals = append(signals, result.Signals...)
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Less(signals[j])
	})
	return signals
}

// Trades returns every trade of the last run ordered by exit time
func (s *SignalRun) Trades() []core.Trade {
	var trades []core.Trade
	for _, result := range s.results {
		trades = append(trades, result.Trades...)
	}

	sort.SliceStable(trades, func(i, j int) bool {
		if !trades[i].ExitDate.Equal(trades[j].ExitDate) {
			return trades[i].ExitDate.Before(trades[j].ExitDate)
		}
		return trades[i].Symbol < trades[j].Symbol
	})
	return trades
}

// Summaries returns one trade summary per symbol in result order
func (s *SignalRun) Summaries() []report.TradeSummary {
	summaries := make([]report.TradeSummary, len(s.results))
	for i, result := range s.results {
		summaries[i] = report.NewTradeSummary(result.Symbol, result.Trades)
	}
	return summaries
}

// Diagnostics returns the counters of every symbol added together
func (s *SignalRun) Diagnostics() engine.Diagnostics {
	var total engine.Diagnostics
	for _, result := range s.results {
		total.Add(result.Diagnostics)
	}
	return total
}

// Summary writes the per symbol table, the return histogram, bootstrap
// confidence intervals and the pipeline counters to w
func (s *SignalRun) Summary(w io.Writer) {
	var (
		total   float64
		wins    int
		losses  int
		volume  float64
		returns []float64
	)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Symbol", "Trades", "Win", "Loss", "% Win", "Payoff", "Pr Fact.", "SQN", "Avg R", "Profit", "Volume"})
	table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)

	summaries := s.Summaries()
	for _, summary := range summaries {
		table.Append([]string{
			summary.Symbol,
			strconv.Itoa(summary.Trades()),
			strconv.Itoa(len(summary.Wins)),
			strconv.Itoa(len(summary.Losses)),
			fmt.Sprintf("%.1f %%", summary.WinPercentage()),
			fmt.Sprintf("%.3f", summary.Payoff()),
			fmt.Sprintf("%.3f", summary.ProfitFactor()),
			fmt.Sprintf("%.1f", summary.SQN()),
			fmt.Sprintf("%.2f", summary.AverageR()),
			fmt.Sprintf("%.2f", summary.Profit()),
			fmt.Sprintf("%.2f", summary.Volume),
		})

		total += summary.Profit()
		wins += len(summary.Wins)
		losses += len(summary.Losses)
		volume += summary.Volume
		returns = append(returns, summary.Returns()...)
	}

	all := report.NewTradeSummary("TOTAL", s.Trades())
	table.SetFooter([]string{
		"TOTAL",
		strconv.Itoa(wins + losses),
		strconv.Itoa(wins),
		strconv.Itoa(losses),
		fmt.Sprintf("%.1f %%", all.WinPercentage()),
		fmt.Sprintf("%.3f", all.Payoff()),
		fmt.Sprintf("%.3f", all.ProfitFactor()),
		fmt.Sprintf("%.1f", all.SQN()),
		fmt.Sprintf("%.2f", all.AverageR()),
		fmt.Sprintf("%.2f", total),
		fmt.Sprintf("%.2f", volume),
	})
	table.Render()

	if len(returns) > 0 {
		// a histogram needs at least two distinct values
		if len(lo.Uniq(returns)) > 1 {
			fmt.Fprintln(w, "------ RETURN -------")
			hist := histogram.Hist(15, returns)
			_ = histogram.Fprint(w, hist, histogram.Linear(10))
			fmt.Fprintln(w)
		}

		fmt.Fprintln(w, "------ CONFIDENCE INTERVAL (95%) -------")
		for _, summary := range summaries {
			values := summary.Returns()
			if len(values) == 0 {
				continue
			}

			returnsInterval := report.Bootstrap(values, report.Mean, bootstrapSamples, 0.95)
			payoffInterval := report.Bootstrap(values, report.Payoff, bootstrapSamples, 0.95)
			profitFactorInterval := report.Bootstrap(values, report.ProfitFactor, bootstrapSamples, 0.95)

			fmt.Fprintf(w, "| %s |\n", summary.Symbol)
			fmt.Fprintf(w, "RETURN:      %.2f%% (%.2f%% ~ %.2f%%)\n",
				returnsInterval.Mean, returnsInterval.Lower, returnsInterval.Upper)
			fmt.Fprintf(w, "PAYOFF:      %.2f (%.2f ~ %.2f)\n",
				payoffInterval.Mean, payoffInterval.Lower, payoffInterval.Upper)
			fmt.Fprintf(w, "PROF.FACTOR: %.2f (%.2f ~ %.2f)\n",
				profitFactorInterval.Mean, profitFactorInterval.Lower, profitFactorInterval.Upper)
		}
		fmt.Fprintln(w)
	}

	s.writeDiagnostics(w)
}

func (s *SignalRun) writeDiagnostics(w io.Writer) {
	d := s.Diagnostics()

	rows := [][]string{
		{"Bars", strconv.Itoa(d.Bars)},
		{"Evaluated", strconv.Itoa(d.Evaluated)},
		{"Candidates", strconv.Itoa(d.Candidates)},
		{"Persistence rejected", strconv.Itoa(d.PersistenceRejected)},
	}

	names := make([]string, 0, len(d.FilterRejected))
	for name := range d.FilterRejected {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rows = append(rows, []string{"Filter " + name, strconv.Itoa(d.FilterRejected[name])})
	}

	rows = append(rows,
		[]string{"Signals", strconv.Itoa(d.Signals)},
		[]string{"Context defaults", strconv.Itoa(d.ContextDefaults)},
		[]string{"Admitted", strconv.Itoa(d.Simulation.Admitted)},
		[]string{"Rejected open position", strconv.Itoa(d.Simulation.RejectedOpenPosition)},
		[]string{"Rejected daily trades", strconv.Itoa(d.Simulation.RejectedDailyTrades)},
		[]string{"Rejected daily loss", strconv.Itoa(d.Simulation.RejectedDailyLoss)},
		[]string{"Rejected sizing", strconv.Itoa(d.Simulation.RejectedSizing)},
	)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Pipeline", "Count"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.AppendBulk(rows)
	table.Render()
}

// SaveReturns writes the trade returns of each symbol to outputDir/<symbol>.csv
func (s *SignalRun) SaveReturns(outputDir string) error {
	for _, summary := range s.Summaries() {
		outputFile := filepath.Join(outputDir, summary.Symbol+".csv")
		if err := summary.SaveReturns(outputFile); err != nil {
			return err
		}
	}
	return nil
}

// SaveSignals writes every signal of the last run as CSV
func (s *SignalRun) SaveSignals(path string) error {
	return writeFile(path, func(w io.Writer) error {
		return report.WriteSignals(w, s.Signals())
	})
}

// SaveTrades writes every trade of the last run as CSV
func (s *SignalRun) SaveTrades(path string) error {
	return writeFile(path, func(w io.Writer) error {
		return report.WriteTrades(w, s.Trades())
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
