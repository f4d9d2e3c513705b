package models

import (
	"fmt"
	"math"
	"time"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// HoltWinters is triple exponential smoothing with additive trend and
// additive seasonality. Zero smoothing parameters are optimised by a
// coarse grid search, a zero period takes the seasonal period of the
// series frequency.
type HoltWinters struct {
	alpha    float64
	beta     float64
	gamma    float64
	optimize bool
	period   int

	level     float64
	trend     float64
	seasonal  []float64
	n         int
	freq      timeseries.Frequency
	last      time.Time
	fitted    []float64
	residuals []float64
	sigma     float64
	isFitted  bool
}

func NewHoltWinters(alpha, beta, gamma float64, period int) *HoltWinters {
	return &HoltWinters{
		alpha:    alpha,
		beta:     beta,
		gamma:    gamma,
		optimize: alpha <= 0 || beta <= 0 || gamma <= 0,
		period:   period,
	}
}

func (m *HoltWinters) Name() string { return "hw" }

func (m *HoltWinters) Fit(s *timeseries.Series) error {
	period := m.period
	if period == 0 {
		period = s.Freq.SeasonalPeriod()
	}
	if period < 2 {
		return fmt.Errorf("%w: %s", ErrNoSeasonality, s.Freq)
	}
	if s.Len() < 2*period {
		return fmt.Errorf("%w: holt-winters needs %d points, have %d", ErrDegenerateModel, 2*period, s.Len())
	}
	m.period = period
	values := s.Values

	if m.optimize {
		bestSSE := math.Inf(1)
		for i := 1; i < 10; i++ {
			for j := 1; j < 10; j++ {
				for k := 1; k < 10; k++ {
					a, b, g := float64(i)*0.1, float64(j)*0.1, float64(k)*0.1
					if sse := m.run(values, a, b, g, nil); sse < bestSSE {
						bestSSE = sse
						m.alpha, m.beta, m.gamma = a, b, g
					}
				}
			}
		}
	}

	n := len(values)
	m.fitted = make([]float64, n)
	m.run(values, m.alpha, m.beta, m.gamma, m.fitted)

	m.n = n
	m.freq = s.Freq
	m.last = s.Last()
	m.residuals = alignedResiduals(values, m.fitted)
	m.sigma = residualStd(m.residuals)
	m.isFitted = true
	return nil
}

// run executes the smoothing recursion and returns the one-step SSE.
// When fitted is non-nil the one-step predictions are stored in it and
// the final states are kept on the model.
func (m *HoltWinters) run(values []float64, alpha, beta, gamma float64, fitted []float64) float64 {
	period := m.period
	n := len(values)

	// First-cycle initialisation.
	firstMean := 0.0
	for i := 0; i < period; i++ {
		firstMean += values[i]
	}
	firstMean /= float64(period)

	secondMean := 0.0
	for i := period; i < 2*period && i < n; i++ {
		secondMean += values[i]
	}
	secondMean /= float64(period)

	level := firstMean
	trend := (secondMean - firstMean) / float64(period)
	seasonal := make([]float64, period)
	for i := 0; i < period; i++ {
		seasonal[i] = values[i] - firstMean
	}

	if fitted != nil {
		for i := 0; i < period; i++ {
			fitted[i] = math.NaN()
		}
	}

	sse := 0.0
	for t := period; t < n; t++ {
		phase := t % period
		pred := level + trend + seasonal[phase]
		e := values[t] - pred
		sse += e * e
		if fitted != nil {
			fitted[t] = pred
		}

		prevLevel, prevTrend := level, trend
		level = alpha*(values[t]-seasonal[phase]) + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*prevTrend
		seasonal[phase] = gamma*(values[t]-prevLevel-prevTrend) + (1-gamma)*seasonal[phase]
	}

	if fitted != nil {
		m.level, m.trend, m.seasonal = level, trend, seasonal
	}
	return sse
}

func (m *HoltWinters) Forecast(horizon int) ([]Point, error) {
	if !m.isFitted {
		return nil, ErrNotFitted
	}
	if horizon < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizon)
	}

	mean := make([]float64, horizon)
	se := make([]float64, horizon)
	varAccum := 1.0
	for h := 0; h < horizon; h++ {
		phase := (m.n + h) % m.period
		mean[h] = m.level + float64(h+1)*m.trend + m.seasonal[phase]
		se[h] = m.sigma * math.Sqrt(varAccum)

		j := h + 1
		c := m.alpha * (1 + float64(j)*m.beta)
		if j%m.period == 0 {
			c += m.gamma * (1 - m.alpha)
		}
		varAccum += c * c
	}
	return makePoints(futureTimes(m.last, m.freq, horizon), mean, se), nil
}

func (m *HoltWinters) Fitted() []float64    { return copyValues(m.fitted) }
func (m *HoltWinters) Residuals() []float64 { return copyValues(m.residuals) }

func (m *HoltWinters) Params() map[string]float64 {
	return map[string]float64{
		"alpha":  m.alpha,
		"beta":   m.beta,
		"gamma":  m.gamma,
		"period": float64(m.period),
		"level":  m.level,
		"trend":  m.trend,
		"sigma":  m.sigma,
	}
}
