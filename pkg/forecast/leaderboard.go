package forecast

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/models"
)

// Entry is one leaderboard row: a model code with its cross-validated
// scores averaged over the folds.
type Entry struct {
	Model string `json:"model"`
	Metrics
}

// Leaderboard is the outcome of a comparison, sorted best first on the
// experiment metric.
type Leaderboard struct {
	Metric  string  `json:"metric"`
	Entries []Entry `json:"entries"`
}

// Best returns the top entry.
func (l *Leaderboard) Best() (Entry, bool) {
	if len(l.Entries) == 0 {
		return Entry{}, false
	}
	return l.Entries[0], true
}

// Entry returns the row for a model code.
func (l *Leaderboard) Entry(model string) (Entry, bool) {
	for _, e := range l.Entries {
		if e.Model == model {
			return e, true
		}
	}
	return Entry{}, false
}

func (l *Leaderboard) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %10s %10s %10s %10s %10s %10s\n",
		"model", "mae", "rmse", "mape", "smape", "mase", "r2")
	for _, e := range l.Entries {
		fmt.Fprintf(&b, "%-8s %10.4f %10.4f %10.4f %10.4f %10.4f %10.4f\n",
			e.Model, e.MAE, e.RMSE, e.MAPE, e.SMAPE, e.MASE, e.R2)
	}
	return b.String()
}

// Compare cross-validates every registered model, or the given subset,
// and ranks the survivors. Models that cannot handle the series are
// logged and skipped; an unknown code in the subset is an error.
func (e *Experiment) Compare(include ...string) (*Leaderboard, error) {
	codes := include
	if len(codes) == 0 {
		codes = models.Codes()
	}

	board := &Leaderboard{Metric: e.metric}
	for _, code := range codes {
		if _, err := models.New(code); err != nil {
			return nil, err
		}
		avg, _, err := e.crossValidate(func() models.Forecaster {
			m, _ := models.New(code)
			return m
		})
		if err != nil {
			e.logger.Warn("model skipped",
				zap.String("model", code),
				zap.Error(err),
			)
			continue
		}

		board.Entries = append(board.Entries, Entry{Model: code, Metrics: avg})
		e.logger.Info("model scored",
			zap.String("model", code),
			zap.Float64("mae", avg.MAE),
			zap.Float64("rmse", avg.RMSE),
			zap.Float64("mape", avg.MAPE),
			zap.Float64("smape", avg.SMAPE),
			zap.Float64("mase", avg.MASE),
			zap.Float64("r2", avg.R2),
		)
	}
	if len(board.Entries) == 0 {
		return nil, ErrNoModels
	}

	sort.SliceStable(board.Entries, func(i, j int) bool {
		return better(board.Entries[i].Metrics, board.Entries[j].Metrics, e.metric)
	})

	best := board.Entries[0]
	e.logger.Info("comparison complete",
		zap.Int("models", len(board.Entries)),
		zap.String("metric", e.metric),
		zap.String("best", best.Model),
		zap.Float64("score", best.Value(e.metric)),
	)
	return board, nil
}
