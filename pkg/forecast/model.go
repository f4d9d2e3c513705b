package forecast

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/models"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// ModelSpec is the serializable recipe for rebuilding a model: the
// registry code plus the constructor parameters that pin its fit.
// Blends carry their member recipes and weights.
type ModelSpec struct {
	Code    string             `json:"code"`
	Params  map[string]float64 `json:"params,omitempty"`
	Members []ModelSpec        `json:"members,omitempty"`
}

// TrainedModel couples a fitted forecaster with the recipe that
// produced it and the scale mapping back to prices.
type TrainedModel struct {
	Spec       ModelSpec
	Forecaster models.Forecaster
	CV         *Metrics
	FoldScores []Metrics
	Final      bool

	transform Transform
	lambda    float64
	train     *timeseries.Series
}

// Forecast produces a price-scale forecast from the fitted state.
func (tm *TrainedModel) Forecast(horizon int) ([]models.Point, error) {
	points, err := tm.Forecaster.Forecast(horizon)
	if err != nil {
		return nil, err
	}
	return invertPoints(points, tm.transform, tm.lambda), nil
}

// Prediction is an h-step forecast with hold-out scores when the model
// has not seen the hold-out window yet.
type Prediction struct {
	Points  []models.Point `json:"points"`
	Holdout *Metrics       `json:"holdout,omitempty"`
}

// Create cross-validates one model family and fits it on the training
// window.
func (e *Experiment) Create(code string) (*TrainedModel, error) {
	if _, err := models.New(code); err != nil {
		return nil, err
	}

	avg, folds, err := e.crossValidate(func() models.Forecaster {
		m, _ := models.New(code)
		return m
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", code, err)
	}

	model, _ := models.New(code)
	tm, err := e.fitTrained(code, model, e.train, false)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", code, err)
	}
	tm.CV = &avg
	tm.FoldScores = folds

	e.logger.Info("model created",
		zap.String("model", code),
		zap.String("metric", e.metric),
		zap.Float64("score", avg.Value(e.metric)),
	)
	return tm, nil
}

// Predict forecasts the experiment horizon on the price scale. A model
// fitted short of the hold-out window is scored against it.
func (e *Experiment) Predict(tm *TrainedModel) (*Prediction, error) {
	points, err := tm.Forecast(e.horizon)
	if err != nil {
		return nil, err
	}

	pred := &Prediction{Points: points}
	if !tm.Final {
		score := Score(e.test.Values, pointMeans(points), e.train.Values, e.period)
		pred.Holdout = &score
		e.logger.Info("hold-out evaluation",
			zap.String("model", tm.Spec.Code),
			zap.Float64("mae", score.MAE),
			zap.Float64("rmse", score.RMSE),
			zap.Float64("mase", score.MASE),
			zap.Float64("r2", score.R2),
		)
	}
	return pred, nil
}

// Finalize refits the model recipe on the complete series, hold-out
// window included. The recipe is already pinned so the refit only
// extends the state to the newest observations.
func (e *Experiment) Finalize(tm *TrainedModel) (*TrainedModel, error) {
	model, err := buildFromSpec(tm.Spec)
	if err != nil {
		return nil, fmt.Errorf("finalize %s: %w", tm.Spec.Code, err)
	}

	out, err := e.fitTrained(tm.Spec.Code, model, e.series, true)
	if err != nil {
		return nil, fmt.Errorf("finalize %s: %w", tm.Spec.Code, err)
	}
	out.Spec = tm.Spec
	out.CV = tm.CV
	out.FoldScores = tm.FoldScores

	e.logger.Info("model finalized",
		zap.String("model", tm.Spec.Code),
		zap.Int("observations", e.series.Len()),
	)
	return out, nil
}

// fitTrained fits a model on the given window and resolves the recipe
// that reproduces the fit.
func (e *Experiment) fitTrained(code string, model models.Forecaster, window *timeseries.Series, final bool) (*TrainedModel, error) {
	fitScale, err := applyTransform(window, e.transform, e.lambda)
	if err != nil {
		return nil, err
	}
	if err := model.Fit(fitScale); err != nil {
		return nil, err
	}
	return &TrainedModel{
		Spec:       resolveSpec(code, model),
		Forecaster: model,
		Final:      final,
		transform:  e.transform,
		lambda:     e.lambda,
		train:      window,
	}, nil
}

// resolveSpec records the constructor parameters that rebuild the
// fitted model deterministically, optimized values included. Fitting
// is deterministic, so pinning these pins the forecasts.
func resolveSpec(code string, model models.Forecaster) ModelSpec {
	p := model.Params()
	spec := ModelSpec{Code: code}
	switch code {
	case "ses":
		spec.Params = map[string]float64{"alpha": p["alpha"]}
	case "holt":
		spec.Params = map[string]float64{"alpha": p["alpha"], "beta": p["beta"]}
	case "hw":
		spec.Params = map[string]float64{
			"alpha": p["alpha"], "beta": p["beta"], "gamma": p["gamma"], "period": p["period"],
		}
	case "snaive":
		spec.Params = map[string]float64{"period": p["period"]}
	case "trend":
		spec.Params = map[string]float64{"pairs": p["pairs"], "period": p["period"]}
	case "arima":
		spec.Params = map[string]float64{"p": p["p"], "d": p["d"], "q": p["q"]}
	}
	return spec
}

// buildFromSpec is the inverse of resolveSpec.
func buildFromSpec(spec ModelSpec) (models.Forecaster, error) {
	p := spec.Params
	switch spec.Code {
	case "ses":
		return models.NewSES(p["alpha"]), nil
	case "holt":
		return models.NewHolt(p["alpha"], p["beta"]), nil
	case "hw":
		return models.NewHoltWinters(p["alpha"], p["beta"], p["gamma"], int(p["period"])), nil
	case "snaive":
		return &models.SeasonalNaive{Period: int(p["period"])}, nil
	case "trend":
		m := models.NewTrend(int(p["pairs"]))
		m.Period = int(p["period"])
		return m, nil
	case "arima":
		return models.NewARIMA(int(p["p"]), int(p["d"]), int(p["q"])), nil
	case "blend":
		members := make([]models.Forecaster, len(spec.Members))
		weights := make([]float64, len(spec.Members))
		for i, ms := range spec.Members {
			m, err := buildFromSpec(ms)
			if err != nil {
				return nil, err
			}
			members[i] = m
			weights[i] = p[fmt.Sprintf("weight_%d", i+1)]
		}
		return NewEnsemble(members, weights)
	default:
		return models.New(spec.Code)
	}
}
