package models

import (
	"fmt"
	"time"

	"github.com/peter-kozarec/solstice/pkg/models/arima"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// ARIMA adapts the arima package to the Forecaster interface, either
// with a fixed order or with an automatic order search.
type ARIMA struct {
	p, d, q int
	auto    bool
	cfg     arima.AutoConfig

	model     *arima.Model
	values    []float64
	freq      timeseries.Frequency
	last      time.Time
	fitted    []float64
	residuals []float64
	isFitted  bool
}

// NewARIMA builds a fixed-order model. The constant term is dropped
// when the order includes differencing.
func NewARIMA(p, d, q int) *ARIMA {
	return &ARIMA{p: p, d: d, q: q}
}

// NewAutoARIMA builds a model whose order is searched during Fit.
func NewAutoARIMA() *ARIMA {
	return &ARIMA{auto: true, cfg: arima.DefaultAutoConfig()}
}

// NewAutoARIMAWithConfig builds an auto model with custom search
// bounds.
func NewAutoARIMAWithConfig(cfg arima.AutoConfig) *ARIMA {
	return &ARIMA{auto: true, cfg: cfg}
}

func (m *ARIMA) Name() string { return "arima" }

func (m *ARIMA) Fit(s *timeseries.Series) error {
	values := s.Values

	if m.auto {
		result, err := arima.AutoFit(values, m.cfg)
		if err != nil {
			return fmt.Errorf("arima auto fit: %w", err)
		}
		m.model = result.Model
		m.p, m.d, m.q = result.P, result.D, result.Q
	} else {
		opts := []arima.ModelOption{}
		if m.d > 0 {
			opts = append(opts, arima.WithConstant(false))
		}
		model, err := arima.NewModel(m.p, m.d, m.q, opts...)
		if err != nil {
			return fmt.Errorf("arima model: %w", err)
		}
		if err := model.Fit(values); err != nil {
			return fmt.Errorf("arima fit: %w", err)
		}
		m.model = model
	}

	m.values = copyValues(values)
	m.freq = s.Freq
	m.last = s.Last()
	m.fitted = m.model.FittedValues()
	m.residuals = alignedResiduals(m.values, m.fitted)
	m.isFitted = true
	return nil
}

func (m *ARIMA) Forecast(horizon int) ([]Point, error) {
	if !m.isFitted {
		return nil, ErrNotFitted
	}
	if horizon < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizon)
	}

	results, err := m.model.Forecast(horizon)
	if err != nil {
		return nil, err
	}

	times := futureTimes(m.last, m.freq, horizon)
	out := make([]Point, horizon)
	for h, r := range results {
		out[h] = Point{
			Time:    times[h],
			Mean:    r.PointForecast,
			Lower80: r.ConfidenceInterval.Lower80,
			Upper80: r.ConfidenceInterval.Upper80,
			Lower95: r.ConfidenceInterval.Lower95,
			Upper95: r.ConfidenceInterval.Upper95,
		}
	}
	return out, nil
}

func (m *ARIMA) Fitted() []float64    { return copyValues(m.fitted) }
func (m *ARIMA) Residuals() []float64 { return copyValues(m.residuals) }

func (m *ARIMA) Params() map[string]float64 {
	out := map[string]float64{
		"p": float64(m.p),
		"d": float64(m.d),
		"q": float64(m.q),
	}
	if m.model == nil {
		return out
	}
	out["constant"] = m.model.Constant()
	out["variance"] = m.model.Variance()
	for i, phi := range m.model.ARParams() {
		out[fmt.Sprintf("phi_%d", i+1)] = phi
	}
	for j, theta := range m.model.MAParams() {
		out[fmt.Sprintf("theta_%d", j+1)] = theta
	}
	if diag := m.model.Diagnostics(); diag != nil {
		out["aic"] = diag.AIC
		out["bic"] = diag.BIC
	}
	return out
}

// Model exposes the underlying fit for diagnostics reporting.
func (m *ARIMA) Model() *arima.Model {
	return m.model
}
