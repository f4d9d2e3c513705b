package arima

import (
	"fmt"
	"math"
)

// Two-sided normal quantiles for the 80% and 95% interval levels.
const (
	z80 = 1.2815515655446004
	z95 = 1.959963984540054
)

type ForecastResult struct {
	PointForecast      float64 `json:"point_forecast"`
	StandardError      float64 `json:"standard_error"`
	ConfidenceInterval struct {
		Lower95 float64 `json:"lower_95"`
		Upper95 float64 `json:"upper_95"`
		Lower80 float64 `json:"lower_80"`
		Upper80 float64 `json:"upper_80"`
	} `json:"confidence_interval"`
	PredictionInterval struct {
		Lower95 float64 `json:"lower_95"`
		Upper95 float64 `json:"upper_95"`
		Lower80 float64 `json:"lower_80"`
		Upper80 float64 `json:"upper_80"`
	} `json:"prediction_interval"`
}

// forecastState carries the extended differenced series and residuals
// used by the forecast recursion.
type forecastState struct {
	values    []float64
	residuals []float64
	observed  int
}

func (m *Model) initializeForecastState(horizon int) *forecastState {
	n := len(m.diffData)
	st := &forecastState{
		values:    make([]float64, n+horizon),
		residuals: make([]float64, n+horizon),
		observed:  n,
	}
	copy(st.values, m.diffData)
	copy(st.residuals, m.residuals)
	return st
}

// Forecast produces point forecasts with standard errors and interval
// estimates for the given horizon on the original scale.
func (m *Model) Forecast(horizon int) ([]ForecastResult, error) {
	if !m.estimated {
		return nil, ErrNotEstimated
	}
	if horizon < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizon)
	}

	st := m.initializeForecastState(horizon)
	for h := 0; h < horizon; h++ {
		t := st.observed + h
		pred := m.constant
		for i := 0; i < m.p && t-i-1 >= 0; i++ {
			pred += m.arParams[i] * (st.values[t-i-1] - m.constant)
		}
		for j := 0; j < m.q && t-j-1 >= 0 && t-j-1 < st.observed; j++ {
			pred += m.maParams[j] * st.residuals[t-j-1]
		}
		st.values[t] = pred
		st.residuals[t] = 0
	}

	points := st.values[st.observed:]
	if m.d > 0 {
		points = m.integrate(points)
	}

	psi := psiWeights(m.arParams, m.maParams, m.d, horizon)
	sigma2 := m.variance

	// Widening factor for prediction intervals to account for the
	// estimated parameters.
	n := len(m.diffData)
	k := m.p + m.q + 1
	inflate := math.Sqrt(1 + float64(k)/float64(n))

	out := make([]ForecastResult, horizon)
	for h := 0; h < horizon; h++ {
		se := math.Sqrt(forecastVariance(sigma2, psi, h+1))

		r := ForecastResult{
			PointForecast: points[h],
			StandardError: se,
		}
		r.ConfidenceInterval.Lower95 = points[h] - z95*se
		r.ConfidenceInterval.Upper95 = points[h] + z95*se
		r.ConfidenceInterval.Lower80 = points[h] - z80*se
		r.ConfidenceInterval.Upper80 = points[h] + z80*se

		wide := se * inflate
		r.PredictionInterval.Lower95 = points[h] - z95*wide
		r.PredictionInterval.Upper95 = points[h] + z95*wide
		r.PredictionInterval.Lower80 = points[h] - z80*wide
		r.PredictionInterval.Upper80 = points[h] + z80*wide

		out[h] = r
	}
	return out, nil
}

// integrate undoes the differencing so forecasts land on the original
// scale.
func (m *Model) integrate(forecasts []float64) []float64 {
	result := make([]float64, len(forecasts))
	copy(result, forecasts)

	for i := 0; i < m.d; i++ {
		last := m.partialDifference(m.d - 1 - i)
		prev := last
		for j := range result {
			result[j] += prev
			prev = result[j]
		}
	}
	return result
}

// partialDifference returns the final value of the series differenced
// the given number of times.
func (m *Model) partialDifference(times int) float64 {
	values := m.rawData
	for i := 0; i < times; i++ {
		values = difference(values)
	}
	return values[len(values)-1]
}
