package main

import (
	"fmt"

	"github.com/raykavin/signalrun"
	"github.com/raykavin/signalrun/pkg/optimizer"
	"github.com/spf13/cobra"
)

func buildCalibrateCmd() *cobra.Command {
	var (
		params     []string
		metric     string
		minimize   bool
		topN       int
		random     int
		seed       int64
		maxIter    int
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Search settings that maximise a metric over the files",
		Example: `  signalrun calibrate -f ACME=acme.csv \
    --param risk.stop_atr_multiple=1.5:3:0.5 \
    --param filters.min_win_rate=0.45:0.55:0.05 --metric profit_factor`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(params) == 0 {
				return fmt.Errorf("at least one --param is required")
			}

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			frames, err := loadFrames(settings)
			if err != nil {
				return err
			}

			conf := optimizer.NewConfig().
				WithParallelism(parallelism).
				WithLogger(signalrun.DefaultLog).
				WithTargetMetric(optimizer.MetricName(metric), !minimize).
				WithTopN(topN).
				WithSeed(seed).
				WithMaxIterations(maxIter)

			for _, spec := range params {
				param, err := optimizer.ParseParameter(spec)
				if err != nil {
					return err
				}
				conf.WithParameters(param)
			}

			var search optimizer.Optimizer
			if random > 0 {
				search, err = optimizer.NewRandomSearch(conf.WithMaxIterations(random))
			} else {
				search, err = optimizer.NewGridSearch(conf)
			}
			if err != nil {
				return err
			}

			evaluator := optimizer.NewEngineEvaluator(settings, frames, shared, signalrun.DefaultLog)
			results, err := search.Optimize(cmd.Context(), evaluator, conf.TargetMetric, conf.Maximize)
			if err != nil {
				return err
			}

			optimizer.PrintResults(cmd.OutOrStdout(), results, conf.TargetMetric, conf.TopN)

			if outputFile != "" {
				return optimizer.SaveResultsToCSV(results, outputFile)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&params, "param", nil, "Setting to search: key=min:max:step or key=a,b,... (repeatable)")
	cmd.Flags().StringVarP(&metric, "metric", "m", string(optimizer.MetricProfit), "Metric to optimise")
	cmd.Flags().BoolVar(&minimize, "minimize", false, "Minimise the metric instead of maximising it")
	cmd.Flags().IntVar(&topN, "top", 5, "Results to print")
	cmd.Flags().IntVar(&random, "random", 0, "Random search with this many samples instead of a full grid")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random search seed")
	cmd.Flags().IntVar(&maxIter, "max-iterations", 1000, "Upper bound on grid combinations")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write every result as CSV to this file")

	return cmd
}
