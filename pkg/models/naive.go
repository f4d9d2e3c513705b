package models

import (
	"fmt"
	"math"
	"time"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// Naive repeats the last observation. Its interval widens with the
// square root of the horizon, matching a random walk.
type Naive struct {
	values    []float64
	freq      timeseries.Frequency
	last      time.Time
	fitted    []float64
	residuals []float64
	sigma     float64
	isFitted  bool
}

func (m *Naive) Name() string { return "naive" }

func (m *Naive) Fit(s *timeseries.Series) error {
	if s.Len() < 3 {
		return fmt.Errorf("%w: naive needs 3 points, have %d", ErrDegenerateModel, s.Len())
	}
	m.values = copyValues(s.Values)
	m.freq = s.Freq
	m.last = s.Last()

	n := len(m.values)
	m.fitted = make([]float64, n)
	m.fitted[0] = math.NaN()
	for t := 1; t < n; t++ {
		m.fitted[t] = m.values[t-1]
	}
	m.residuals = alignedResiduals(m.values, m.fitted)
	m.sigma = residualStd(m.residuals)
	m.isFitted = true
	return nil
}

func (m *Naive) Forecast(horizon int) ([]Point, error) {
	if !m.isFitted {
		return nil, ErrNotFitted
	}
	if horizon < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizon)
	}

	lastValue := m.values[len(m.values)-1]
	mean := make([]float64, horizon)
	se := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		mean[h] = lastValue
		se[h] = m.sigma * math.Sqrt(float64(h+1))
	}
	return makePoints(futureTimes(m.last, m.freq, horizon), mean, se), nil
}

func (m *Naive) Fitted() []float64    { return copyValues(m.fitted) }
func (m *Naive) Residuals() []float64 { return copyValues(m.residuals) }

func (m *Naive) Params() map[string]float64 {
	return map[string]float64{"sigma": m.sigma}
}

// SeasonalNaive repeats the last full seasonal cycle. Period zero takes
// the seasonal period of the series frequency.
type SeasonalNaive struct {
	Period int

	period    int
	values    []float64
	freq      timeseries.Frequency
	last      time.Time
	fitted    []float64
	residuals []float64
	sigma     float64
	isFitted  bool
}

func (m *SeasonalNaive) Name() string { return "snaive" }

func (m *SeasonalNaive) Fit(s *timeseries.Series) error {
	period := m.Period
	if period == 0 {
		period = s.Freq.SeasonalPeriod()
	}
	if period < 2 {
		return fmt.Errorf("%w: %s", ErrNoSeasonality, s.Freq)
	}
	if s.Len() < period+2 {
		return fmt.Errorf("%w: snaive needs %d points, have %d", ErrDegenerateModel, period+2, s.Len())
	}

	m.period = period
	m.values = copyValues(s.Values)
	m.freq = s.Freq
	m.last = s.Last()

	n := len(m.values)
	m.fitted = make([]float64, n)
	for t := 0; t < n; t++ {
		if t < period {
			m.fitted[t] = math.NaN()
			continue
		}
		m.fitted[t] = m.values[t-period]
	}
	m.residuals = alignedResiduals(m.values, m.fitted)
	m.sigma = residualStd(m.residuals)
	m.isFitted = true
	return nil
}

func (m *SeasonalNaive) Forecast(horizon int) ([]Point, error) {
	if !m.isFitted {
		return nil, ErrNotFitted
	}
	if horizon < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizon)
	}

	n := len(m.values)
	mean := make([]float64, horizon)
	se := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		// Index of the matching phase in the last observed cycle.
		k := (h % m.period) - m.period
		mean[h] = m.values[n+k]
		cycles := float64(h/m.period + 1)
		se[h] = m.sigma * math.Sqrt(cycles)
	}
	return makePoints(futureTimes(m.last, m.freq, horizon), mean, se), nil
}

func (m *SeasonalNaive) Fitted() []float64    { return copyValues(m.fitted) }
func (m *SeasonalNaive) Residuals() []float64 { return copyValues(m.residuals) }

func (m *SeasonalNaive) Params() map[string]float64 {
	return map[string]float64{"period": float64(m.period), "sigma": m.sigma}
}

// Drift draws a line from the first to the last observation and
// extrapolates it.
type Drift struct {
	values    []float64
	freq      timeseries.Frequency
	last      time.Time
	fitted    []float64
	residuals []float64
	slope     float64
	sigma     float64
	isFitted  bool
}

func (m *Drift) Name() string { return "drift" }

func (m *Drift) Fit(s *timeseries.Series) error {
	if s.Len() < 3 {
		return fmt.Errorf("%w: drift needs 3 points, have %d", ErrDegenerateModel, s.Len())
	}
	m.values = copyValues(s.Values)
	m.freq = s.Freq
	m.last = s.Last()

	n := len(m.values)
	m.slope = (m.values[n-1] - m.values[0]) / float64(n-1)

	m.fitted = make([]float64, n)
	m.fitted[0] = math.NaN()
	for t := 1; t < n; t++ {
		m.fitted[t] = m.values[t-1] + m.slope
	}
	m.residuals = alignedResiduals(m.values, m.fitted)
	m.sigma = residualStd(m.residuals)
	m.isFitted = true
	return nil
}

func (m *Drift) Forecast(horizon int) ([]Point, error) {
	if !m.isFitted {
		return nil, ErrNotFitted
	}
	if horizon < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizon)
	}

	n := len(m.values)
	lastValue := m.values[n-1]
	mean := make([]float64, horizon)
	se := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		step := float64(h + 1)
		mean[h] = lastValue + step*m.slope
		se[h] = m.sigma * math.Sqrt(step*(1+step/float64(n-1)))
	}
	return makePoints(futureTimes(m.last, m.freq, horizon), mean, se), nil
}

func (m *Drift) Fitted() []float64    { return copyValues(m.fitted) }
func (m *Drift) Residuals() []float64 { return copyValues(m.residuals) }

func (m *Drift) Params() map[string]float64 {
	return map[string]float64{"slope": m.slope, "sigma": m.sigma}
}

// Mean forecasts the historical average with a constant interval.
type Mean struct {
	values    []float64
	freq      timeseries.Frequency
	last      time.Time
	fitted    []float64
	residuals []float64
	mean      float64
	sigma     float64
	isFitted  bool
}

func (m *Mean) Name() string { return "mean" }

func (m *Mean) Fit(s *timeseries.Series) error {
	if s.Len() < 2 {
		return fmt.Errorf("%w: mean needs 2 points, have %d", ErrDegenerateModel, s.Len())
	}
	m.values = copyValues(s.Values)
	m.freq = s.Freq
	m.last = s.Last()
	m.mean = s.Mean()

	n := len(m.values)
	m.fitted = make([]float64, n)
	for t := range m.fitted {
		m.fitted[t] = m.mean
	}
	m.residuals = alignedResiduals(m.values, m.fitted)
	m.sigma = residualStd(m.residuals)
	m.isFitted = true
	return nil
}

func (m *Mean) Forecast(horizon int) ([]Point, error) {
	if !m.isFitted {
		return nil, ErrNotFitted
	}
	if horizon < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizon)
	}

	n := len(m.values)
	se1 := m.sigma * math.Sqrt(1+1/float64(n))
	mean := make([]float64, horizon)
	se := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		mean[h] = m.mean
		se[h] = se1
	}
	return makePoints(futureTimes(m.last, m.freq, horizon), mean, se), nil
}

func (m *Mean) Fitted() []float64    { return copyValues(m.fitted) }
func (m *Mean) Residuals() []float64 { return copyValues(m.residuals) }

func (m *Mean) Params() map[string]float64 {
	return map[string]float64{"mean": m.mean, "sigma": m.sigma}
}
