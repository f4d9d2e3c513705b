package forecast

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/models"
	"github.com/peter-kozarec/solstice/pkg/models/arima"
)

// candidate is one point of a tuning grid.
type candidate struct {
	label string
	build func() models.Forecaster
}

// tuningGrid enumerates the hyperparameter grid of a model family.
// Families without tunable parameters get an empty grid.
func tuningGrid(code string) []candidate {
	var grid []candidate
	switch code {
	case "ses":
		for i := 1; i <= 9; i++ {
			a := float64(i) / 10
			grid = append(grid, candidate{
				label: fmt.Sprintf("alpha=%.1f", a),
				build: func() models.Forecaster { return models.NewSES(a) },
			})
		}
	case "holt":
		for i := 1; i <= 9; i += 2 {
			for j := 1; j <= 9; j += 2 {
				a, b := float64(i)/10, float64(j)/10
				grid = append(grid, candidate{
					label: fmt.Sprintf("alpha=%.1f beta=%.1f", a, b),
					build: func() models.Forecaster { return models.NewHolt(a, b) },
				})
			}
		}
	case "hw":
		levels := []float64{0.2, 0.5, 0.8}
		for _, a := range levels {
			for _, b := range levels {
				for _, g := range levels {
					grid = append(grid, candidate{
						label: fmt.Sprintf("alpha=%.1f beta=%.1f gamma=%.1f", a, b, g),
						build: func() models.Forecaster { return models.NewHoltWinters(a, b, g, 0) },
					})
				}
			}
		}
	case "trend":
		for k := 0; k <= 2; k++ {
			label := fmt.Sprintf("pairs=%d", k)
			if k == 0 {
				label = "pairs=auto"
			}
			grid = append(grid, candidate{
				label: label,
				build: func() models.Forecaster { return models.NewTrend(k) },
			})
		}
	case "arima":
		for p := 0; p <= 2; p++ {
			for d := 0; d <= 1; d++ {
				for q := 0; q <= 2; q++ {
					grid = append(grid, candidate{
						label: fmt.Sprintf("order=(%d,%d,%d)", p, d, q),
						build: func() models.Forecaster { return models.NewARIMA(p, d, q) },
					})
				}
			}
		}
		grid = append(grid, candidate{
			label: "order=auto",
			build: func() models.Forecaster {
				return models.NewAutoARIMAWithConfig(arima.AutoConfig{
					MaxP:      3,
					MaxD:      2,
					MaxQ:      3,
					Criterion: arima.CriterionAICC,
				})
			},
		})
	}
	return grid
}

// Tune grid-searches one model family under the experiment's fold plan
// and refits the winning candidate on the training window. A family
// without tunable parameters falls back to Create.
func (e *Experiment) Tune(code string) (*TrainedModel, error) {
	grid := tuningGrid(code)
	if len(grid) == 0 {
		e.logger.Info("no tunable parameters", zap.String("model", code))
		return e.Create(code)
	}

	var (
		best      *candidate
		bestScore Metrics
		bestFolds []Metrics
	)
	evaluated := 0
	for i := range grid {
		avg, folds, err := e.crossValidate(grid[i].build)
		if err != nil {
			e.logger.Debug("candidate skipped",
				zap.String("model", code),
				zap.String("params", grid[i].label),
				zap.Error(err),
			)
			continue
		}
		evaluated++
		if best == nil || better(avg, bestScore, e.metric) {
			best = &grid[i]
			bestScore = avg
			bestFolds = folds
		}
	}
	if best == nil {
		return nil, fmt.Errorf("tune %s: %w", code, ErrNoModels)
	}

	tm, err := e.fitTrained(code, best.build(), e.train, false)
	if err != nil {
		return nil, fmt.Errorf("tune %s: %w", code, err)
	}
	tm.CV = &bestScore
	tm.FoldScores = bestFolds

	e.logger.Info("tuning complete",
		zap.String("model", code),
		zap.Int("candidates", len(grid)),
		zap.Int("evaluated", evaluated),
		zap.String("best", best.label),
		zap.String("metric", e.metric),
		zap.Float64("score", bestScore.Value(e.metric)),
	)
	return tm, nil
}
