package forecast

import (
	"fmt"

	"github.com/peter-kozarec/solstice/pkg/models"
)

// fold is one rolling-origin evaluation window inside the training
// split. Train indices are [0, trainEnd), test indices
// [trainEnd, trainEnd+horizon).
type fold struct {
	index    int
	trainEnd int
}

// foldPlan lays the folds out oldest first. The last fold's test
// window touches the end of the training split, earlier folds step
// back by the configured step.
func (e *Experiment) foldPlan() []fold {
	plan := make([]fold, e.folds)
	last := e.train.Len() - e.horizon
	for i := range plan {
		plan[i] = fold{
			index:    i,
			trainEnd: last - (e.folds-1-i)*e.step,
		}
	}
	return plan
}

// crossValidate scores a model builder over the fold plan. Every fold
// fits a fresh instance on data strictly before its test window.
func (e *Experiment) crossValidate(build func() models.Forecaster) (Metrics, []Metrics, error) {
	plan := e.foldPlan()
	scores := make([]Metrics, 0, len(plan))
	for _, f := range plan {
		score, err := e.evaluateFold(build(), f)
		if err != nil {
			return Metrics{}, nil, fmt.Errorf("fold %d: %w", f.index, err)
		}
		scores = append(scores, score)
	}
	return averageMetrics(scores), scores, nil
}

func (e *Experiment) evaluateFold(model models.Forecaster, f fold) (Metrics, error) {
	window, err := e.train.Head(f.trainEnd)
	if err != nil {
		return Metrics{}, err
	}
	fitScale, err := applyTransform(window, e.transform, e.lambda)
	if err != nil {
		return Metrics{}, err
	}
	if err := model.Fit(fitScale); err != nil {
		return Metrics{}, err
	}

	points, err := model.Forecast(e.horizon)
	if err != nil {
		return Metrics{}, err
	}
	predicted := invertValues(pointMeans(points), e.transform, e.lambda)
	actual := e.train.Values[f.trainEnd : f.trainEnd+e.horizon]
	return Score(actual, predicted, e.train.Values[:f.trainEnd], e.period), nil
}

func pointMeans(points []models.Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Mean
	}
	return out
}
