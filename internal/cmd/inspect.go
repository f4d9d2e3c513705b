package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/features"
	"github.com/peter-kozarec/solstice/pkg/report"
	"github.com/peter-kozarec/solstice/pkg/stats"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

var (
	inspectIn      seriesInput
	inspectLags    int
	inspectWindow  int
	inspectDecMode string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Describe a series and write diagnostic artifacts",
	Long: `Inspect profiles a price series: descriptive statistics, stationarity
and normality tests, autocorrelation, seasonal decomposition and the
derived feature frame. Chart payloads and CSVs land in the output
directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		s, err := inspectIn.load(cmd.Context())
		if err != nil {
			return err
		}
		narrative, err := runInspect(logger, s)
		if err != nil {
			return err
		}
		narrative.Print(logger)
		return nil
	},
}

func init() {
	inspectIn.register(inspectCmd)
	inspectCmd.Flags().IntVar(&inspectLags, "lags", 24, "autocorrelation lags")
	inspectCmd.Flags().IntVar(&inspectWindow, "window", 20, "rolling overlay window")
	inspectCmd.Flags().StringVar(&inspectDecMode, "decompose", "additive", "decomposition mode (additive|multiplicative)")
	rootCmd.AddCommand(inspectCmd)
}

// runInspect profiles the series, writes the diagnostic artifacts and
// returns the narrative for the caller to extend and print.
func runInspect(logger *zap.Logger, s *timeseries.Series) (report.Narrative, error) {
	narrative := report.Narrative{
		Series:    s.Name,
		Frequency: s.Freq.String(),
	}

	summary, err := stats.Describe(s)
	if err != nil {
		return narrative, err
	}
	narrative.Summary = summary

	if adf, err := stats.ADF(s, 0); err == nil {
		narrative.ADF = adf
	} else {
		logger.Warn("adf test skipped", zap.Error(err))
	}
	if kpss, err := stats.KPSS(s, false, 0); err == nil {
		narrative.KPSS = kpss
	} else {
		logger.Warn("kpss test skipped", zap.Error(err))
	}

	returns, err := s.LogReturns()
	if err != nil {
		logger.Warn("return diagnostics skipped", zap.Error(err))
	} else {
		if jb, err := stats.JarqueBera(returns); err == nil {
			narrative.Normality = jb
		}
		if lb, err := stats.LjungBox(returns, min(10, returns.Len()-1), 0); err == nil {
			logger.Info("return autocorrelation",
				zap.String("test", "ljung-box"),
				zap.Int("lags", lb.Lags),
				zap.Float64("statistic", lb.Statistic),
				zap.Float64("p_value", lb.PValue))
		}
	}

	writer, err := openWriter(logger)
	if err != nil {
		return narrative, err
	}

	if err := writer.WriteSeriesCSV("series.csv", s); err != nil {
		return narrative, err
	}
	if chart, err := report.NewPriceChart(s, inspectWindow); err == nil {
		if err := writer.WriteJSON("price_chart.json", chart); err != nil {
			return narrative, err
		}
	} else {
		logger.Warn("price chart skipped", zap.Error(err))
	}
	if heatmap, err := report.NewCalendarHeatmap(s); err == nil {
		if err := writer.WriteJSON("calendar_heatmap.json", heatmap); err != nil {
			return narrative, err
		}
	} else {
		logger.Warn("calendar heatmap skipped", zap.Error(err))
	}

	period := s.Freq.SeasonalPeriod()
	if period > 1 && s.Len() >= 2*period {
		dec, err := stats.Decompose(s, period, stats.DecomposeMode(inspectDecMode))
		if err != nil {
			return narrative, err
		}
		if err := writer.WriteJSON("decomposition.json", report.NewDecompositionChart(dec)); err != nil {
			return narrative, err
		}
	}

	if acf, err := stats.ACFWithConfidence(s, inspectLags); err == nil {
		if err := writer.WriteJSON("acf.json", report.NewACFChart(s.Name, "acf", acf)); err != nil {
			return narrative, err
		}
	}
	if pacf, err := stats.PACFWithConfidence(s, inspectLags); err == nil {
		if err := writer.WriteJSON("pacf.json", report.NewACFChart(s.Name, "pacf", pacf)); err != nil {
			return narrative, err
		}
	}

	frame, err := features.Build(s, features.DefaultConfig())
	if err != nil {
		return narrative, err
	}
	if err := frame.DropNaN().SaveCSV(filepath.Join(writer.Dir(), "features.csv")); err != nil {
		return narrative, err
	}

	return narrative, nil
}
