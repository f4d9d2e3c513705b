package arima

import (
	"math"
	"time"

	"github.com/peter-kozarec/solstice/pkg/stats"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

type ModelDiagnostics struct {
	LogLikelihood    float64 `json:"log_likelihood"`
	AIC              float64 `json:"aic"`
	BIC              float64 `json:"bic"`
	AICC             float64 `json:"aicc"`
	RMSE             float64 `json:"rmse"`
	MAE              float64 `json:"mae"`
	MAPE             float64 `json:"mape"`
	LjungBoxPValue   float64 `json:"ljung_box_p_value"`
	JarqueBeraTest   float64 `json:"jarque_bera_statistic"`
	JarqueBeraPValue float64 `json:"jarque_bera_p_value"`
	IsStationary     bool    `json:"is_stationary"`
	ConvergenceCode  int     `json:"convergence_code"`
	Iterations       int     `json:"iterations"`
}

// calculateDiagnostics fills the fit quality measures from the final
// residuals. Residual tests that need more data than is available are
// reported as NaN.
func (m *Model) calculateDiagnostics() {
	n := len(m.residuals)
	k := m.p + m.q + 1

	d := &ModelDiagnostics{
		LjungBoxPValue:   math.NaN(),
		JarqueBeraTest:   math.NaN(),
		JarqueBeraPValue: math.NaN(),
		ConvergenceCode:  m.convergenceCode,
		Iterations:       m.iterations,
	}

	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}

	if m.variance > 0 {
		nf := float64(n)
		d.LogLikelihood = -nf/2*math.Log(2*math.Pi) - nf/2*math.Log(m.variance) - sse/(2*m.variance)
	} else {
		d.LogLikelihood = math.Inf(-1)
	}

	kf, nf := float64(k), float64(n)
	d.AIC = -2*d.LogLikelihood + 2*kf
	d.BIC = -2*d.LogLikelihood + kf*math.Log(nf)
	if nf-kf-1 > 0 {
		d.AICC = d.AIC + 2*kf*(kf+1)/(nf-kf-1)
	} else {
		d.AICC = math.Inf(1)
	}

	d.RMSE, d.MAE, d.MAPE = m.fitErrors()
	d.IsStationary = m.checkParameterValidity() == nil

	m.checkResidualProperties(d)
	m.diagnostics = d
}

// checkResidualProperties runs the whiteness and normality tests on the
// residuals when enough of them are available.
func (m *Model) checkResidualProperties(d *ModelDiagnostics) {
	res, err := timeseries.FromValues("residuals", timeseries.FreqDaily,
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), m.residuals)
	if err != nil {
		return
	}

	lags := 10
	if res.Len() <= lags+1 {
		lags = res.Len() - 2
	}
	if lags > 0 {
		if lb, err := stats.LjungBox(res, lags, m.p+m.q); err == nil {
			d.LjungBoxPValue = lb.PValue
		}
	}

	if jb, err := stats.JarqueBera(res); err == nil {
		d.JarqueBeraTest = jb.Statistic
		d.JarqueBeraPValue = jb.PValue
	}
}

// fitErrors computes RMSE, MAE and MAPE of the one-step fits on the
// original scale. Zero actuals are skipped for MAPE.
func (m *Model) fitErrors() (rmse, mae, mape float64) {
	n := len(m.residuals)
	if n == 0 {
		return 0, 0, 0
	}

	se, ae := 0.0, 0.0
	pe, peCount := 0.0, 0
	for t, r := range m.residuals {
		se += r * r
		ae += math.Abs(r)
		actual := m.rawData[t+m.d]
		if actual != 0 {
			pe += math.Abs(r / actual)
			peCount++
		}
	}

	rmse = math.Sqrt(se / float64(n))
	mae = ae / float64(n)
	if peCount > 0 {
		mape = pe / float64(peCount) * 100
	}
	return rmse, mae, mape
}
