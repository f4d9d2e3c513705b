package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peter-kozarec/solstice/pkg/report"
	"github.com/peter-kozarec/solstice/pkg/risk"
)

var (
	riskIn       seriesInput
	riskMethod   string
	riskHorizon  int
	riskPaths    int
	riskSeed     uint64
	riskFreeRate float64
	riskBins     int
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Simulate the downside of holding the series",
	Long: `Risk simulates the distribution of the terminal value over a horizon,
either by bootstrapping observed log returns or by a parametric Monte
Carlo, and reports VaR, CVaR and the probability of loss together with
historical performance metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		s, err := riskIn.load(cmd.Context())
		if err != nil {
			return err
		}

		sim, err := risk.NewSimulator(s, riskHorizon,
			risk.WithPaths(riskPaths),
			risk.WithSeed(riskSeed),
			risk.WithLogger(logger))
		if err != nil {
			return err
		}

		writer, err := openWriter(logger)
		if err != nil {
			return err
		}

		var methods []func() (*risk.Report, error)
		switch riskMethod {
		case "bootstrap":
			methods = append(methods, sim.Bootstrap)
		case "montecarlo":
			methods = append(methods, sim.MonteCarlo)
		case "both":
			methods = append(methods, sim.Bootstrap, sim.MonteCarlo)
		default:
			return fmt.Errorf("unknown method %q, want bootstrap, montecarlo or both", riskMethod)
		}

		for _, run := range methods {
			rep, err := run()
			if err != nil {
				return err
			}
			rep.Print(logger)

			chart, err := report.NewRiskChart(rep, riskBins)
			if err != nil {
				return err
			}
			if err := writer.WriteJSON(rep.Method+"_risk.json", chart); err != nil {
				return err
			}
		}

		perf, err := risk.Analyze(s, riskFreeRate)
		if err != nil {
			return err
		}
		perf.Print(logger)
		return nil
	},
}

func init() {
	riskIn.register(riskCmd)
	riskCmd.Flags().StringVar(&riskMethod, "method", "bootstrap", "simulation method (bootstrap|montecarlo|both)")
	riskCmd.Flags().IntVar(&riskHorizon, "horizon", 20, "simulation horizon in periods")
	riskCmd.Flags().IntVar(&riskPaths, "paths", 2000, "simulated paths")
	riskCmd.Flags().Uint64Var(&riskSeed, "seed", 42, "random seed")
	riskCmd.Flags().Float64Var(&riskFreeRate, "risk-free", 0, "annual risk-free rate for Sharpe/Sortino")
	riskCmd.Flags().IntVar(&riskBins, "bins", 30, "histogram bins in the risk chart")
	rootCmd.AddCommand(riskCmd)
}
