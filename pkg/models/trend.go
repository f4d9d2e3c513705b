package models

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// Trend fits a linear trend by least squares, optionally with Fourier
// pairs that capture a fixed seasonal shape. A zero pair count picks a
// default from the series frequency.
type Trend struct {
	// Period overrides the seasonal period taken from the series
	// frequency. Only read during Fit.
	Period int

	pairs    int
	autoK    bool
	period   int
	coeffs   []float64
	xtxInv   *mat.Dense
	n        int
	freq     timeseries.Frequency
	last     time.Time
	fitted   []float64
	resids   []float64
	sigma    float64
	isFitted bool
}

func NewTrend(fourierPairs int) *Trend {
	return &Trend{pairs: fourierPairs, autoK: fourierPairs <= 0}
}

func (m *Trend) Name() string { return "trend" }

// designRow fills the regression row for time index t.
func (m *Trend) designRow(row []float64, t float64) {
	row[0] = 1
	row[1] = t
	for k := 1; k <= m.pairs; k++ {
		angle := 2 * math.Pi * float64(k) * t / float64(m.period)
		row[2*k] = math.Sin(angle)
		row[2*k+1] = math.Cos(angle)
	}
}

func (m *Trend) Fit(s *timeseries.Series) error {
	period := m.Period
	if period == 0 {
		period = s.Freq.SeasonalPeriod()
	}

	pairs := m.pairs
	if m.autoK {
		pairs = 0
		if period >= 2 {
			pairs = (period - 1) / 2
			if pairs > 2 {
				pairs = 2
			}
		}
	}
	if pairs > 0 && period < 2 {
		return fmt.Errorf("%w: %s", ErrNoSeasonality, s.Freq)
	}
	m.pairs = pairs
	m.period = period

	cols := 2 + 2*pairs
	n := s.Len()
	if n < cols+2 {
		return fmt.Errorf("%w: trend needs %d points, have %d", ErrDegenerateModel, cols+2, n)
	}

	values := s.Values
	X := mat.NewDense(n, cols, nil)
	row := make([]float64, cols)
	for t := 0; t < n; t++ {
		m.designRow(row, float64(t))
		X.SetRow(t, row)
	}
	y := mat.NewVecDense(n, copyValues(values))

	var qr mat.QR
	qr.Factorize(X)
	beta := mat.NewVecDense(cols, nil)
	if err := qr.SolveVecTo(beta, false, y); err != nil {
		return fmt.Errorf("trend regression failed: %w", err)
	}

	m.coeffs = make([]float64, cols)
	for i := range m.coeffs {
		m.coeffs[i] = beta.AtVec(i)
	}

	// (X'X)^-1 feeds the forecast standard errors.
	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	m.xtxInv = mat.NewDense(cols, cols, nil)
	if err := m.xtxInv.Inverse(&xtx); err != nil {
		return fmt.Errorf("trend regression failed: %w", err)
	}

	m.fitted = make([]float64, n)
	for t := 0; t < n; t++ {
		m.designRow(row, float64(t))
		m.fitted[t] = floats.Dot(row, m.coeffs)
	}

	m.n = n
	m.freq = s.Freq
	m.last = s.Last()
	m.resids = alignedResiduals(values, m.fitted)

	sse := 0.0
	for _, r := range m.resids {
		sse += r * r
	}
	dof := n - cols
	if dof < 1 {
		dof = 1
	}
	m.sigma = math.Sqrt(sse / float64(dof))
	m.isFitted = true
	return nil
}

func (m *Trend) Forecast(horizon int) ([]Point, error) {
	if !m.isFitted {
		return nil, ErrNotFitted
	}
	if horizon < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizon)
	}

	cols := len(m.coeffs)
	row := make([]float64, cols)
	xv := mat.NewVecDense(cols, nil)
	var tmp mat.VecDense

	mean := make([]float64, horizon)
	se := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		m.designRow(row, float64(m.n+h))
		mean[h] = floats.Dot(row, m.coeffs)

		for i := 0; i < cols; i++ {
			xv.SetVec(i, row[i])
		}
		tmp.MulVec(m.xtxInv, xv)
		leverage := mat.Dot(xv, &tmp)
		se[h] = m.sigma * math.Sqrt(1+leverage)
	}
	return makePoints(futureTimes(m.last, m.freq, horizon), mean, se), nil
}

func (m *Trend) Fitted() []float64    { return copyValues(m.fitted) }
func (m *Trend) Residuals() []float64 { return copyValues(m.resids) }

func (m *Trend) Params() map[string]float64 {
	out := map[string]float64{
		"intercept": m.coeffs[0],
		"slope":     m.coeffs[1],
		"pairs":     float64(m.pairs),
		"period":    float64(m.period),
		"sigma":     m.sigma,
	}
	for k := 1; k <= m.pairs; k++ {
		out[fmt.Sprintf("sin_%d", k)] = m.coeffs[2*k]
		out[fmt.Sprintf("cos_%d", k)] = m.coeffs[2*k+1]
	}
	return out
}
