package forecast

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/models"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// Two-sided normal quantiles for the interval levels.
const (
	z80 = 1.2815515655446004
	z95 = 1.959963984540054
)

// Ensemble is a weighted average over member models. Point forecasts
// average member means; interval width combines member uncertainty
// with the dispersion of the members around the blend.
type Ensemble struct {
	members  []models.Forecaster
	weights  []float64
	isFitted bool
}

// NewEnsemble normalizes the weights to sum one. Nil weights mean an
// equal-weight blend.
func NewEnsemble(members []models.Forecaster, weights []float64) (*Ensemble, error) {
	if len(members) < 2 {
		return nil, fmt.Errorf("%w: need at least two members, have %d", ErrBadBlend, len(members))
	}
	if weights == nil {
		weights = make([]float64, len(members))
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != len(members) {
		return nil, fmt.Errorf("%w: %d weights for %d members", ErrBadBlend, len(weights), len(members))
	}

	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("%w: negative weight %v", ErrBadBlend, w)
		}
		sum += w
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", ErrBadBlend)
	}

	norm := make([]float64, len(weights))
	for i, w := range weights {
		norm[i] = w / sum
	}
	return &Ensemble{members: members, weights: norm}, nil
}

func (m *Ensemble) Name() string { return "blend" }

// Weights returns the normalized member weights.
func (m *Ensemble) Weights() []float64 {
	out := make([]float64, len(m.weights))
	copy(out, m.weights)
	return out
}

func (m *Ensemble) Fit(s *timeseries.Series) error {
	for _, member := range m.members {
		if err := member.Fit(s); err != nil {
			return fmt.Errorf("blend member %s: %w", member.Name(), err)
		}
	}
	m.isFitted = true
	return nil
}

func (m *Ensemble) Forecast(horizon int) ([]models.Point, error) {
	if !m.isFitted {
		return nil, models.ErrNotFitted
	}

	forecasts := make([][]models.Point, len(m.members))
	for i, member := range m.members {
		points, err := member.Forecast(horizon)
		if err != nil {
			return nil, fmt.Errorf("blend member %s: %w", member.Name(), err)
		}
		forecasts[i] = points
	}

	out := make([]models.Point, horizon)
	for h := 0; h < horizon; h++ {
		mean := 0.0
		for i := range m.members {
			mean += m.weights[i] * forecasts[i][h].Mean
		}

		// Mixture second moment: member variance plus squared distance
		// of each member mean from the blend mean.
		variance := 0.0
		for i := range m.members {
			se := (forecasts[i][h].Upper95 - forecasts[i][h].Mean) / z95
			d := forecasts[i][h].Mean - mean
			variance += m.weights[i] * (se*se + d*d)
		}
		se := math.Sqrt(variance)

		out[h] = models.Point{
			Time:    forecasts[0][h].Time,
			Mean:    mean,
			Lower80: mean - z80*se,
			Upper80: mean + z80*se,
			Lower95: mean - z95*se,
			Upper95: mean + z95*se,
		}
	}
	return out, nil
}

// Fitted averages the member one-step predictions. Positions where any
// member has no prediction stay NaN.
func (m *Ensemble) Fitted() []float64 {
	if !m.isFitted {
		return nil
	}
	return m.combine(func(member models.Forecaster) []float64 { return member.Fitted() })
}

// Residuals of the weighted average equal the weighted average of the
// member residuals, so no actuals are needed here.
func (m *Ensemble) Residuals() []float64 {
	if !m.isFitted {
		return nil
	}
	return m.combine(func(member models.Forecaster) []float64 { return member.Residuals() })
}

func (m *Ensemble) combine(extract func(models.Forecaster) []float64) []float64 {
	series := make([][]float64, len(m.members))
	n := 0
	for i, member := range m.members {
		series[i] = extract(member)
		if len(series[i]) > n {
			n = len(series[i])
		}
	}

	out := make([]float64, n)
	for t := 0; t < n; t++ {
		sum := 0.0
		for i := range series {
			if t >= len(series[i]) || math.IsNaN(series[i][t]) {
				sum = math.NaN()
				break
			}
			sum += m.weights[i] * series[i][t]
		}
		out[t] = sum
	}
	return out
}

func (m *Ensemble) Params() map[string]float64 {
	out := map[string]float64{"members": float64(len(m.members))}
	for i, w := range m.weights {
		out[fmt.Sprintf("weight_%d", i+1)] = w
	}
	return out
}

// Blend averages two or more trained models into one ensemble, scores
// it under the fold plan and fits it on the training window. Nil
// weights mean an equal-weight blend.
func (e *Experiment) Blend(members []*TrainedModel, weights []float64) (*TrainedModel, error) {
	if len(members) < 2 {
		return nil, fmt.Errorf("%w: need at least two models, have %d", ErrBadBlend, len(members))
	}

	specs := make([]ModelSpec, len(members))
	for i, tm := range members {
		specs[i] = tm.Spec
	}

	buildBlend := func() (*Ensemble, error) {
		ms := make([]models.Forecaster, len(specs))
		for i, s := range specs {
			m, err := buildFromSpec(s)
			if err != nil {
				return nil, err
			}
			ms[i] = m
		}
		return NewEnsemble(ms, weights)
	}

	// Validate the weights before spending time on the folds.
	ens, err := buildBlend()
	if err != nil {
		return nil, err
	}

	avg, folds, err := e.crossValidate(func() models.Forecaster {
		blend, _ := buildBlend()
		return blend
	})
	if err != nil {
		return nil, fmt.Errorf("blend: %w", err)
	}

	tm, err := e.fitTrained("blend", ens, e.train, false)
	if err != nil {
		return nil, fmt.Errorf("blend: %w", err)
	}

	spec := ModelSpec{Code: "blend", Members: specs, Params: map[string]float64{}}
	for i, w := range ens.Weights() {
		spec.Params[fmt.Sprintf("weight_%d", i+1)] = w
	}
	tm.Spec = spec
	tm.CV = &avg
	tm.FoldScores = folds

	e.logger.Info("blend created",
		zap.Int("members", len(members)),
		zap.Float64s("weights", ens.Weights()),
		zap.String("metric", e.metric),
		zap.Float64("score", avg.Value(e.metric)),
	)
	return tm, nil
}
