// Package arima fits ARIMA(p,d,q) models by conditional sum of squares
// and produces multi-step forecasts with interval estimates.
package arima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrInvalidOrder     = errors.New("invalid model order")
	ErrInsufficientData = errors.New("not enough data points")
	ErrNotEstimated     = errors.New("model not estimated")
	ErrInvalidHorizon   = errors.New("horizon must be positive")
	ErrNonStationary    = errors.New("ar polynomial has roots inside the unit circle")
	ErrNonInvertible    = errors.New("ma polynomial has roots inside the unit circle")
)

const (
	defaultMaxIterations = 200
	defaultTolerance     = 1e-8

	// Parameters are clamped inside the unit interval during
	// optimization to keep the recursion from diverging.
	paramBound = 0.98
)

type Model struct {
	p, d, q int

	includeConstant bool
	maxIterations   int
	tolerance       float64

	rawData  []float64
	diffData []float64

	arParams []float64
	maParams []float64
	constant float64
	variance float64

	residuals []float64
	fitted    []float64

	estimated       bool
	iterations      int
	convergenceCode int

	diagnostics *ModelDiagnostics
}

// NewModel creates an ARIMA(p,d,q) model. The model must be fitted with
// Fit before forecasting.
func NewModel(p, d, q int, opts ...ModelOption) (*Model, error) {
	if p < 0 || d < 0 || q < 0 {
		return nil, fmt.Errorf("%w: (%d,%d,%d)", ErrInvalidOrder, p, d, q)
	}
	if d > 2 {
		return nil, fmt.Errorf("%w: differencing order %d exceeds 2", ErrInvalidOrder, d)
	}

	m := &Model{
		p:               p,
		d:               d,
		q:               q,
		includeConstant: true,
		maxIterations:   defaultMaxIterations,
		tolerance:       defaultTolerance,
		arParams:        make([]float64, p),
		maParams:        make([]float64, q),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Order returns the model order (p, d, q).
func (m *Model) Order() (p, d, q int) {
	return m.p, m.d, m.q
}

// MinObservations returns the minimum series length Fit accepts.
func (m *Model) MinObservations() int {
	return m.p + m.d + m.q + 10
}

// Fit estimates the model parameters from the series by conditional sum
// of squares. AR parameters start from Yule-Walker estimates and MA
// parameters from a Hannan-Rissanen regression, then both are refined by
// gradient descent on the one-step residuals.
func (m *Model) Fit(values []float64) error {
	if len(values) < m.MinObservations() {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientData, m.MinObservations(), len(values))
	}

	m.rawData = make([]float64, len(values))
	copy(m.rawData, values)

	diff := m.rawData
	for i := 0; i < m.d; i++ {
		diff = difference(diff)
	}
	m.diffData = diff

	if err := m.estimate(); err != nil {
		return err
	}

	m.calculateCurrentResiduals()
	m.estimated = true
	m.calculateDiagnostics()
	return nil
}

// estimate runs the full estimation pipeline on the differenced series.
func (m *Model) estimate() error {
	w := m.diffData
	n := len(w)

	if m.includeConstant {
		m.constant = stat.Mean(w, nil)
	} else {
		m.constant = 0
	}

	if m.p == 0 && m.q == 0 {
		m.variance = centeredSumSquares(w, m.constant) / float64(maxInt(n-1, 1))
		m.iterations = 0
		m.convergenceCode = 0
		return nil
	}

	// Optimize on the centered, standardized series. AR and MA
	// parameters are scale invariant, so only the variance needs to be
	// mapped back afterwards.
	scale := math.Sqrt(centeredSumSquares(w, m.constant) / float64(n))
	if scale <= 0 {
		m.variance = 0
		m.iterations = 0
		m.convergenceCode = 0
		return nil
	}

	z := make([]float64, n)
	for i, v := range w {
		z[i] = (v - m.constant) / scale
	}

	m.initializeParameters(z)
	m.optimizeCSS(z)

	sse, count := m.conditionalSSE(z)
	dof := count - m.p - m.q - 1
	if dof < 1 {
		dof = count
	}
	m.variance = sse * scale * scale / float64(dof)
	return nil
}

// initializeParameters seeds the optimizer. AR terms come from the
// Yule-Walker equations. When MA terms are present a long AR fit
// provides residual proxies and a joint regression on lagged values and
// lagged proxies gives starting points for both parameter sets.
func (m *Model) initializeParameters(z []float64) {
	n := len(z)

	if m.q == 0 {
		acf := sampleACF(z, m.p)
		phi := levinsonDurbin(acf, m.p)
		for i := range m.arParams {
			m.arParams[i] = clamp(phi[i], -paramBound, paramBound)
		}
		return
	}

	long := longAROrder(n, m.p, m.q)
	acf := sampleACF(z, long)
	a := levinsonDurbin(acf, long)

	proxies := make([]float64, n)
	for t := long; t < n; t++ {
		pred := 0.0
		for i := 0; i < long; i++ {
			pred += a[i] * z[t-i-1]
		}
		proxies[t] = z[t] - pred
	}

	start := maxInt(m.p, m.q) + long
	rows := n - start
	if rows < m.p+m.q+2 {
		// Not enough room for the regression, fall back to small
		// uniform starting values.
		for i := range m.arParams {
			m.arParams[i] = 0.1
		}
		for i := range m.maParams {
			m.maParams[i] = 0.1
		}
		return
	}

	cols := m.p + m.q
	X := make([][]float64, rows)
	y := make([]float64, rows)
	for r := 0; r < rows; r++ {
		t := start + r
		row := make([]float64, cols)
		for i := 0; i < m.p; i++ {
			row[i] = z[t-i-1]
		}
		for j := 0; j < m.q; j++ {
			row[m.p+j] = proxies[t-j-1]
		}
		X[r] = row
		y[r] = z[t]
	}

	beta := solveOLS(X, y)
	if beta == nil {
		for i := range m.arParams {
			m.arParams[i] = 0.1
		}
		for i := range m.maParams {
			m.maParams[i] = 0.1
		}
		return
	}
	for i := 0; i < m.p; i++ {
		m.arParams[i] = clamp(beta[i], -paramBound, paramBound)
	}
	for j := 0; j < m.q; j++ {
		m.maParams[j] = clamp(beta[m.p+j], -paramBound, paramBound)
	}
}

// optimizeCSS refines the parameters by gradient descent on the
// conditional sum of squares of the standardized series.
func (m *Model) optimizeCSS(z []float64) {
	n := len(z)
	start := maxInt(m.p, m.q)
	learningRate := 0.05

	m.convergenceCode = 1
	prevSSE := math.Inf(1)

	for iter := 0; iter < m.maxIterations; iter++ {
		m.iterations = iter + 1

		residuals := make([]float64, n)
		sse := 0.0
		for t := start; t < n; t++ {
			pred := 0.0
			for i := 0; i < m.p; i++ {
				pred += m.arParams[i] * z[t-i-1]
			}
			for j := 0; j < m.q; j++ {
				pred += m.maParams[j] * residuals[t-j-1]
			}
			residuals[t] = z[t] - pred
			sse += residuals[t] * residuals[t]
		}

		if math.Abs(prevSSE-sse) < m.tolerance*(1+sse) {
			m.convergenceCode = 0
			break
		}
		prevSSE = sse

		arGrad := make([]float64, m.p)
		maGrad := make([]float64, m.q)
		for t := start; t < n; t++ {
			for i := 0; i < m.p; i++ {
				arGrad[i] -= 2 * residuals[t] * z[t-i-1]
			}
			for j := 0; j < m.q; j++ {
				maGrad[j] -= 2 * residuals[t] * residuals[t-j-1]
			}
		}

		for i := 0; i < m.p; i++ {
			m.arParams[i] = clamp(m.arParams[i]-learningRate*arGrad[i]/float64(n), -paramBound, paramBound)
		}
		for j := 0; j < m.q; j++ {
			m.maParams[j] = clamp(m.maParams[j]-learningRate*maGrad[j]/float64(n), -paramBound, paramBound)
		}
	}
}

// conditionalSSE computes the sum of squared one-step residuals on the
// standardized series and the number of terms that entered it.
func (m *Model) conditionalSSE(z []float64) (sse float64, count int) {
	n := len(z)
	start := maxInt(m.p, m.q)
	residuals := make([]float64, n)
	for t := start; t < n; t++ {
		pred := 0.0
		for i := 0; i < m.p; i++ {
			pred += m.arParams[i] * z[t-i-1]
		}
		for j := 0; j < m.q; j++ {
			pred += m.maParams[j] * residuals[t-j-1]
		}
		residuals[t] = z[t] - pred
		sse += residuals[t] * residuals[t]
		count++
	}
	return sse, count
}

// calculateCurrentResiduals rebuilds the one-step residuals and fitted
// values on the differenced scale with the final parameters.
func (m *Model) calculateCurrentResiduals() {
	w := m.diffData
	n := len(w)
	start := maxInt(m.p, m.q)

	m.residuals = make([]float64, n)
	m.fitted = make([]float64, n)

	for t := 0; t < n; t++ {
		if t < start {
			m.fitted[t] = m.constant
			m.residuals[t] = w[t] - m.constant
			continue
		}
		pred := m.constant
		for i := 0; i < m.p; i++ {
			pred += m.arParams[i] * (w[t-i-1] - m.constant)
		}
		for j := 0; j < m.q; j++ {
			pred += m.maParams[j] * m.residuals[t-j-1]
		}
		m.fitted[t] = pred
		m.residuals[t] = w[t] - pred
	}
}

// checkParameterValidity verifies that the fitted AR polynomial is
// stationary and the MA polynomial is invertible.
func (m *Model) checkParameterValidity() error {
	if !rootsOutsideUnitCircle(m.arParams) {
		return ErrNonStationary
	}
	inverted := make([]float64, len(m.maParams))
	for i, theta := range m.maParams {
		inverted[i] = -theta
	}
	if !rootsOutsideUnitCircle(inverted) {
		return ErrNonInvertible
	}
	return nil
}

// ARParams returns a copy of the AR coefficients.
func (m *Model) ARParams() []float64 {
	out := make([]float64, len(m.arParams))
	copy(out, m.arParams)
	return out
}

// MAParams returns a copy of the MA coefficients.
func (m *Model) MAParams() []float64 {
	out := make([]float64, len(m.maParams))
	copy(out, m.maParams)
	return out
}

// Constant returns the mean of the differenced series, or zero when the
// model was built without a constant.
func (m *Model) Constant() float64 {
	return m.constant
}

// Variance returns the residual variance estimate.
func (m *Model) Variance() float64 {
	return m.variance
}

// Residuals returns the one-step residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	if !m.estimated {
		return nil
	}
	out := make([]float64, len(m.residuals))
	copy(out, m.residuals)
	return out
}

// FittedValues returns the one-step fits on the original scale. The
// first d observations have no fit and are returned as NaN.
func (m *Model) FittedValues() []float64 {
	if !m.estimated {
		return nil
	}
	out := make([]float64, len(m.rawData))
	for i := 0; i < m.d; i++ {
		out[i] = math.NaN()
	}
	for t := range m.residuals {
		out[t+m.d] = m.rawData[t+m.d] - m.residuals[t]
	}
	return out
}

// Diagnostics returns the fit quality measures, or nil before Fit.
func (m *Model) Diagnostics() *ModelDiagnostics {
	return m.diagnostics
}

// SetParams installs externally determined parameters, bypassing
// estimation. Fit state such as residuals is not populated; the model
// can only be used for validity checks afterwards.
func (m *Model) SetParams(ar, ma []float64, constant, variance float64) error {
	if len(ar) != m.p || len(ma) != m.q {
		return fmt.Errorf("%w: expected %d ar and %d ma parameters", ErrInvalidOrder, m.p, m.q)
	}
	copy(m.arParams, ar)
	copy(m.maParams, ma)
	m.constant = constant
	m.variance = variance
	return nil
}

func difference(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}
	return out
}

func centeredSumSquares(values []float64, center float64) float64 {
	sum := 0.0
	for _, v := range values {
		d := v - center
		sum += d * d
	}
	return sum
}

// sampleACF returns autocorrelations at lags 0..maxLag of a series that
// is already centered.
func sampleACF(z []float64, maxLag int) []float64 {
	n := len(z)
	out := make([]float64, maxLag+1)
	denom := 0.0
	for _, v := range z {
		denom += v * v
	}
	if denom == 0 {
		out[0] = 1
		return out
	}
	for lag := 0; lag <= maxLag && lag < n; lag++ {
		num := 0.0
		for t := lag; t < n; t++ {
			num += z[t] * z[t-lag]
		}
		out[lag] = num / denom
	}
	return out
}

func longAROrder(n, p, q int) int {
	long := p + q + 5
	if limit := n / 4; long > limit {
		long = limit
	}
	if long < p+q {
		long = p + q
	}
	if long < 1 {
		long = 1
	}
	return long
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
