package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/data/duckdb"
	"github.com/peter-kozarec/solstice/pkg/forecast"
	"github.com/peter-kozarec/solstice/pkg/models"
	"github.com/peter-kozarec/solstice/pkg/report"
	"github.com/peter-kozarec/solstice/pkg/utility"
)

var (
	forecastIn       seriesInput
	forecastModel    modelFlags
	forecastCode     string
	forecastTune     bool
	forecastBlend    []string
	forecastFinalize bool
	forecastSavePath string
	forecastLoadPath string
	forecastTail     int
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Fit a model and forecast the series",
	Long: `Forecast fits one model and produces an h-step forecast with 80/95%
intervals on the price scale. The model is picked by the leaderboard
(--model auto), named directly, tuned over its hyperparameter grid
(--tune), blended from several families (--blend), or reloaded from a
saved artifact (--load). --finalize refits on the complete series
before forecasting, --save persists the result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		s, err := forecastIn.load(cmd.Context())
		if err != nil {
			return err
		}
		exp, err := forecastModel.experiment(logger, s)
		if err != nil {
			return err
		}

		tm, err := resolveModel(exp, logger)
		if err != nil {
			return err
		}

		pred, err := exp.Predict(tm)
		if err != nil {
			return err
		}
		points := pred.Points

		if forecastFinalize && !tm.Final {
			if tm, err = exp.Finalize(tm); err != nil {
				return err
			}
			if points, err = tm.Forecast(exp.Horizon()); err != nil {
				return err
			}
		}

		if forecastSavePath != "" {
			if err := forecast.Save(tm, forecastSavePath); err != nil {
				return err
			}
			logger.Info("model saved",
				zap.String("model", tm.Spec.Code),
				zap.String("path", forecastSavePath))
		}

		writer, err := openWriter(logger)
		if err != nil {
			return err
		}
		if err := writer.WriteForecastCSV("forecast.csv", points); err != nil {
			return err
		}
		chart := report.NewForecastChart(s, tm.Spec.Code, points, forecastTail)
		if err := writer.WriteJSON("forecast_chart.json", chart); err != nil {
			return err
		}
		if am, ok := tm.Forecaster.(*models.ARIMA); ok && am.Model() != nil {
			if diag := am.Model().Diagnostics(); diag != nil {
				if err := writer.WriteJSON("diagnostics.json", diag); err != nil {
					return err
				}
			}
		}

		return persistRun(cmd.Context(), logger, duckdb.Run{
			ID:        utility.GetRunID(),
			Created:   time.Now().UTC(),
			Symbol:    s.Name,
			Frequency: s.Freq,
			Horizon:   exp.Horizon(),
			Metric:    exp.Metric(),
			BestModel: tm.Spec.Code,
			ModelSpec: marshalSpec(tm.Spec),
			Points:    points,
		})
	},
}

func init() {
	forecastIn.register(forecastCmd)
	forecastModel.register(forecastCmd)
	forecastCmd.Flags().StringVar(&forecastCode, "model", "auto", "model code, or auto to pick the leaderboard winner")
	forecastCmd.Flags().BoolVar(&forecastTune, "tune", false, "grid-search the model family before fitting")
	forecastCmd.Flags().StringSliceVar(&forecastBlend, "blend", nil, "blend these model codes instead of fitting one")
	forecastCmd.Flags().BoolVar(&forecastFinalize, "finalize", false, "refit on the complete series before forecasting")
	forecastCmd.Flags().StringVar(&forecastSavePath, "save", "", "write the fitted model artifact to this path")
	forecastCmd.Flags().StringVar(&forecastLoadPath, "load", "", "load a saved model artifact instead of fitting")
	forecastCmd.Flags().IntVar(&forecastTail, "tail", 60, "history points on the forecast chart")
	rootCmd.AddCommand(forecastCmd)
}

// resolveModel turns the model selection flags into a trained model.
// Precedence: --load, then --blend, then --model (with --tune).
func resolveModel(exp *forecast.Experiment, logger *zap.Logger) (*forecast.TrainedModel, error) {
	if forecastLoadPath != "" {
		tm, err := forecast.Load(forecastLoadPath)
		if err != nil {
			return nil, err
		}
		logger.Info("model loaded",
			zap.String("model", tm.Spec.Code),
			zap.String("path", forecastLoadPath))
		return tm, nil
	}

	if len(forecastBlend) >= 2 {
		members := make([]*forecast.TrainedModel, len(forecastBlend))
		for i, code := range forecastBlend {
			tm, err := exp.Create(code)
			if err != nil {
				return nil, err
			}
			members[i] = tm
		}
		return exp.Blend(members, nil)
	}

	code := forecastCode
	if code == "" || code == "auto" {
		board, err := exp.Compare()
		if err != nil {
			return nil, err
		}
		best, ok := board.Best()
		if !ok {
			return nil, forecast.ErrNoModels
		}
		code = best.Model
	}

	if forecastTune {
		return exp.Tune(code)
	}
	return exp.Create(code)
}
