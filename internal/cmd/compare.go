package cmd

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/peter-kozarec/solstice/pkg/data/duckdb"
	"github.com/peter-kozarec/solstice/pkg/forecast"
	"github.com/peter-kozarec/solstice/pkg/report"
	"github.com/peter-kozarec/solstice/pkg/utility"
)

var (
	compareIn     seriesInput
	compareModel  modelFlags
	compareModels []string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Cross-validate the model family and rank it",
	Long: `Compare scores every registered model (or an include list) under
rolling-origin cross-validation and prints the leaderboard sorted by
the configured metric.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		s, err := compareIn.load(cmd.Context())
		if err != nil {
			return err
		}
		exp, err := compareModel.experiment(logger, s)
		if err != nil {
			return err
		}

		board, err := exp.Compare(compareModels...)
		if err != nil {
			return err
		}
		fmt.Println(board.String())

		writer, err := openWriter(logger)
		if err != nil {
			return err
		}
		if err := writer.WriteLeaderboardCSV("leaderboard.csv", board); err != nil {
			return err
		}
		if err := writer.WriteJSON("leaderboard.json", report.NewLeaderboardTable(board)); err != nil {
			return err
		}

		best, ok := board.Best()
		if !ok {
			return forecast.ErrNoModels
		}
		return persistRun(cmd.Context(), logger, duckdb.Run{
			ID:        utility.GetRunID(),
			Created:   time.Now().UTC(),
			Symbol:    s.Name,
			Frequency: s.Freq,
			Horizon:   exp.Horizon(),
			Metric:    board.Metric,
			BestModel: best.Model,
			ModelSpec: marshalSpec(forecast.ModelSpec{Code: best.Model}),
			Board:     board,
		})
	},
}

func init() {
	compareIn.register(compareCmd)
	compareModel.register(compareCmd)
	compareCmd.Flags().StringSliceVar(&compareModels, "models", nil, "models to include (default: all registered)")
	rootCmd.AddCommand(compareCmd)
}

func marshalSpec(spec forecast.ModelSpec) string {
	raw, err := json.Marshal(spec)
	if err != nil {
		return ""
	}
	return string(raw)
}
