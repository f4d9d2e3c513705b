package stats

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// LjungBoxResult holds the portmanteau test outcome. The null hypothesis
// is no autocorrelation up to the tested lag.
type LjungBoxResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	Lags      int     `json:"lags"`
	DOF       int     `json:"dof"`
}

// LjungBox tests residual autocorrelation up to lags. fitdf is the number
// of parameters the residuals' model estimated (p+q for ARIMA) and is
// subtracted from the degrees of freedom.
func LjungBox(s *timeseries.Series, lags, fitdf int) (*LjungBoxResult, error) {
	n := s.Len()
	if n < 10 {
		return nil, fmt.Errorf("%w: ljung-box needs at least 10 points, have %d", ErrTooShort, n)
	}
	if lags < 1 {
		return nil, fmt.Errorf("lags must be at least 1, got %d", lags)
	}
	if lags >= n {
		lags = n - 1
	}

	acf, err := ACF(s, lags)
	if err != nil {
		return nil, err
	}

	var q float64
	for k := 1; k <= lags; k++ {
		q += acf[k] * acf[k] / float64(n-k)
	}
	q *= float64(n) * float64(n+2)

	dof := lags - fitdf
	if dof < 1 {
		dof = 1
	}

	chi2 := distuv.ChiSquared{K: float64(dof)}
	return &LjungBoxResult{
		Statistic: q,
		PValue:    1 - chi2.CDF(q),
		Lags:      lags,
		DOF:       dof,
	}, nil
}
