package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raykavin/signalrun"
	"github.com/raykavin/signalrun/internal/config"
	"github.com/raykavin/signalrun/pkg/core"
	"github.com/raykavin/signalrun/pkg/feed"
	"github.com/raykavin/signalrun/pkg/report"
	"github.com/raykavin/signalrun/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/xhit/go-str2duration/v2"
)

// Command line flags shared by every command
var (
	configPath      string
	files           []string
	timeframe       string
	sourceTimeframe string
	last            string
	storagePath     string
	shared          bool
	parallelism     int
	dataDir         string
)

func main() {
	app := config.LoadAppConfig()
	dataDir = app.DataDir

	rootCmd := &cobra.Command{
		Use:     "signalrun",
		Short:   "Trade signal generation, validation and risk managed simulation",
		Version: "1.0.0",
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", app.ConfigPath, "Settings file, created with defaults when missing")
	flags.StringArrayVarP(&files, "file", "f", nil, "Candle CSV as SYMBOL=path or path (symbol from file name), repeatable")
	flags.StringVarP(&timeframe, "timeframe", "t", app.Timeframe, "Timeframe to replay")
	flags.StringVar(&sourceTimeframe, "source-timeframe", "", "Timeframe of the files when it differs from --timeframe")
	flags.StringVar(&last, "last", "", "Only replay the trailing window of each file (e.g. 30d)")
	flags.StringVar(&storagePath, "storage", "", "BuntDB file for signals and trades (\":memory:\" for none on disk)")
	flags.Lookup("storage").NoOptDefVal = app.StoragePath
	flags.BoolVar(&shared, "shared", false, "Replay every symbol under one account and daily governor")
	flags.IntVarP(&parallelism, "parallel", "p", 1, "Symbols replayed concurrently (independent accounts only)")
	_ = rootCmd.MarkPersistentFlagRequired("file")

	rootCmd.AddCommand(buildBacktestCmd(), buildSignalsCmd(), buildCalibrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadSettings() (core.Settings, error) {
	return config.Load(configPath, signalrun.DefaultLog)
}

// loadFrames reads every --file into a dataframe. Timestamps without a zone
// are read in the session timezone of settings.
func loadFrames(settings core.Settings) ([]*core.Dataframe, error) {
	session, err := settings.Filters.Session.Window()
	if err != nil {
		return nil, err
	}

	feeds := make([]feed.SymbolFeed, 0, len(files))
	for _, spec := range files {
		symbol, path, ok := strings.Cut(spec, "=")
		if !ok {
			path = spec
			symbol = strings.ToUpper(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(dataDir, path)
		}

		source := sourceTimeframe
		if source == "" {
			source = timeframe
		}
		feeds = append(feeds, feed.SymbolFeed{Symbol: symbol, File: path, Timeframe: source, Location: session.Location})
	}

	csvFeed, err := feed.NewCSVFeed(timeframe, feeds...)
	if err != nil {
		return nil, err
	}

	if last != "" {
		window, err := str2duration.ParseDuration(last)
		if err != nil {
			return nil, fmt.Errorf("invalid --last: %w", err)
		}
		csvFeed.Limit(window)
	}

	return csvFeed.Dataframes(), nil
}

// newRunner builds a runner from the shared flags
func newRunner(settings core.Settings, extra ...signalrun.Option) (*signalrun.SignalRun, func(), error) {
	options := []signalrun.Option{signalrun.WithParallelism(parallelism)}
	if shared {
		options = append(options, signalrun.WithSharedAccount())
	}

	closer := func() {}
	if storagePath != "" {
		db, err := storage.FromFile(storagePath)
		if err != nil {
			return nil, nil, err
		}
		options = append(options, signalrun.WithStorage(db))
		closer = func() {
			if err := db.Close(); err != nil {
				signalrun.DefaultLog.WithError(err).Warn("close storage")
			}
		}
	}

	runner, err := signalrun.New(settings, append(options, extra...)...)
	if err != nil {
		closer()
		return nil, nil, err
	}

	return runner, closer, nil
}

func buildBacktestCmd() *cobra.Command {
	var (
		returnsDir string
		tradesFile string
		progress   bool
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay the files and print the performance summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			frames, err := loadFrames(settings)
			if err != nil {
				return err
			}

			var extra []signalrun.Option
			if progress {
				extra = append(extra, signalrun.WithProgress(os.Stderr))
			}

			runner, closer, err := newRunner(settings, extra...)
			if err != nil {
				return err
			}
			defer closer()

			if _, err := runner.Run(cmd.Context(), frames); err != nil {
				return err
			}

			runner.Summary(cmd.OutOrStdout())

			if returnsDir != "" {
				if err := runner.SaveReturns(returnsDir); err != nil {
					return err
				}
			}
			if tradesFile != "" {
				return runner.SaveTrades(tradesFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&returnsDir, "returns-dir", "", "Write per symbol trade returns to this directory")
	cmd.Flags().StringVar(&tradesFile, "trades", "", "Write every trade as CSV to this file")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show a progress bar")

	return cmd
}

func buildSignalsCmd() *cobra.Command {
	var (
		outputFile string
		minScore   float64
	)

	cmd := &cobra.Command{
		Use:   "signals",
		Short: "Replay the files and export the generated signals as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			frames, err := loadFrames(settings)
			if err != nil {
				return err
			}

			runner, closer, err := newRunner(settings)
			if err != nil {
				return err
			}
			defer closer()

			if _, err := runner.Run(cmd.Context(), frames); err != nil {
				return err
			}

			signals := make([]core.Signal, 0)
			for _, signal := range runner.Signals() {
				if core.SignalsWithMinScore(minScore)(signal) {
					signals = append(signals, signal)
				}
			}

			if outputFile == "" {
				return report.WriteSignals(cmd.OutOrStdout(), signals)
			}

			file, err := os.Create(outputFile)
			if err != nil {
				return err
			}
			defer file.Close()

			return report.WriteSignals(file, signals)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "CSV output file (default stdout)")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "Only export signals with at least this master score")

	return cmd
}
