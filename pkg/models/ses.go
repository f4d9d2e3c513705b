package models

import (
	"fmt"
	"math"
	"time"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// SES is simple exponential smoothing. A zero alpha is optimised by
// grid search over the one-step sum of squared errors.
type SES struct {
	alpha     float64
	optimize  bool
	level     float64
	freq      timeseries.Frequency
	last      time.Time
	fitted    []float64
	residuals []float64
	sigma     float64
	isFitted  bool
}

func NewSES(alpha float64) *SES {
	return &SES{alpha: alpha, optimize: alpha <= 0}
}

func (m *SES) Name() string { return "ses" }

func (m *SES) Fit(s *timeseries.Series) error {
	if s.Len() < 4 {
		return fmt.Errorf("%w: ses needs 4 points, have %d", ErrDegenerateModel, s.Len())
	}
	values := s.Values

	if m.optimize {
		bestSSE := math.Inf(1)
		for i := 1; i < 100; i++ {
			a := float64(i) / 100
			if sse := sesSSE(values, a); sse < bestSSE {
				bestSSE = sse
				m.alpha = a
			}
		}
	}

	n := len(values)
	m.fitted = make([]float64, n)
	m.fitted[0] = math.NaN()

	level := values[0]
	for t := 1; t < n; t++ {
		m.fitted[t] = level
		level = m.alpha*values[t] + (1-m.alpha)*level
	}
	m.level = level

	m.freq = s.Freq
	m.last = s.Last()
	m.residuals = alignedResiduals(values, m.fitted)
	m.sigma = residualStd(m.residuals)
	m.isFitted = true
	return nil
}

func sesSSE(values []float64, alpha float64) float64 {
	level := values[0]
	sse := 0.0
	for t := 1; t < len(values); t++ {
		e := values[t] - level
		sse += e * e
		level = alpha*values[t] + (1-alpha)*level
	}
	return sse
}

func (m *SES) Forecast(horizon int) ([]Point, error) {
	if !m.isFitted {
		return nil, ErrNotFitted
	}
	if horizon < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizon)
	}

	mean := make([]float64, horizon)
	se := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		mean[h] = m.level
		se[h] = m.sigma * math.Sqrt(1+float64(h)*m.alpha*m.alpha)
	}
	return makePoints(futureTimes(m.last, m.freq, horizon), mean, se), nil
}

func (m *SES) Fitted() []float64    { return copyValues(m.fitted) }
func (m *SES) Residuals() []float64 { return copyValues(m.residuals) }

func (m *SES) Params() map[string]float64 {
	return map[string]float64{"alpha": m.alpha, "level": m.level, "sigma": m.sigma}
}

// Holt is exponential smoothing with an additive trend. Zero smoothing
// parameters are optimised jointly by grid search.
type Holt struct {
	alpha     float64
	beta      float64
	optimize  bool
	level     float64
	trend     float64
	freq      timeseries.Frequency
	last      time.Time
	fitted    []float64
	residuals []float64
	sigma     float64
	isFitted  bool
}

func NewHolt(alpha, beta float64) *Holt {
	return &Holt{alpha: alpha, beta: beta, optimize: alpha <= 0 || beta <= 0}
}

func (m *Holt) Name() string { return "holt" }

func (m *Holt) Fit(s *timeseries.Series) error {
	if s.Len() < 5 {
		return fmt.Errorf("%w: holt needs 5 points, have %d", ErrDegenerateModel, s.Len())
	}
	values := s.Values

	if m.optimize {
		bestSSE := math.Inf(1)
		for i := 1; i < 20; i++ {
			for j := 1; j < 20; j++ {
				a, b := float64(i)*0.05, float64(j)*0.05
				if sse := holtSSE(values, a, b); sse < bestSSE {
					bestSSE = sse
					m.alpha, m.beta = a, b
				}
			}
		}
	}

	n := len(values)
	m.fitted = make([]float64, n)
	m.fitted[0] = math.NaN()

	level := values[0]
	trend := values[1] - values[0]
	for t := 1; t < n; t++ {
		m.fitted[t] = level + trend
		prevLevel := level
		level = m.alpha*values[t] + (1-m.alpha)*(level+trend)
		trend = m.beta*(level-prevLevel) + (1-m.beta)*trend
	}
	m.level, m.trend = level, trend

	m.freq = s.Freq
	m.last = s.Last()
	m.residuals = alignedResiduals(values, m.fitted)
	m.sigma = residualStd(m.residuals)
	m.isFitted = true
	return nil
}

func holtSSE(values []float64, alpha, beta float64) float64 {
	level := values[0]
	trend := values[1] - values[0]
	sse := 0.0
	for t := 1; t < len(values); t++ {
		e := values[t] - (level + trend)
		sse += e * e
		prevLevel := level
		level = alpha*values[t] + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
	}
	return sse
}

func (m *Holt) Forecast(horizon int) ([]Point, error) {
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
		mean[h] = m.level + float64(h+1)*m.trend
		se[h] = m.sigma * math.Sqrt(varAccum)
		c := m.alpha * (1 + float64(h+1)*m.beta)
		varAccum += c * c
	}
	return makePoints(futureTimes(m.last, m.freq, horizon), mean, se), nil
}

func (m *Holt) Fitted() []float64    { return copyValues(m.fitted) }
func (m *Holt) Residuals() []float64 { return copyValues(m.residuals) }

func (m *Holt) Params() map[string]float64 {
	return map[string]float64{
		"alpha": m.alpha,
		"beta":  m.beta,
		"level": m.level,
		"trend": m.trend,
		"sigma": m.sigma,
	}
}
