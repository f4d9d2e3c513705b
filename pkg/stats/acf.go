package stats

import (
	"fmt"
	"math"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// ACF returns autocorrelations for lags 0..maxLag. Lag 0 is always 1.
func ACF(s *timeseries.Series, maxLag int) ([]float64, error) {
	n := s.Len()
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, have %d", ErrTooShort, n)
	}
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		maxLag = 0
	}

	mean := s.Mean()
	var denom float64
	for _, v := range s.Values {
		d := v - mean
		denom += d * d
	}
	if denom == 0 {
		return nil, ErrZeroVariance
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		var num float64
		for i := k; i < n; i++ {
			num += (s.Values[i] - mean) * (s.Values[i-k] - mean)
		}
		acf[k] = num / denom
	}
	return acf, nil
}

// PACF returns partial autocorrelations for lags 0..maxLag via the
// Durbin-Levinson recursion. Lag 0 is 1.
func PACF(s *timeseries.Series, maxLag int) ([]float64, error) {
	if maxLag < 1 {
		return nil, fmt.Errorf("max lag must be at least 1, got %d", maxLag)
	}
	acf, err := ACF(s, maxLag)
	if err != nil {
		return nil, err
	}
	if len(acf) <= maxLag {
		maxLag = len(acf) - 1
	}

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1
	if maxLag == 0 {
		return pacf, nil
	}

	phi := make([][]float64, maxLag+1)
	for i := range phi {
		phi[i] = make([]float64, maxLag+1)
	}
	phi[1][1] = acf[1]
	pacf[1] = acf[1]

	for k := 2; k <= maxLag; k++ {
		num := acf[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= phi[k-1][j] * acf[k-j]
			den -= phi[k-1][j] * acf[j]
		}
		if den == 0 {
			pacf[k] = 0
			continue
		}
		phi[k][k] = num / den
		pacf[k] = phi[k][k]
		for j := 1; j < k; j++ {
			phi[k][j] = phi[k-1][j] - phi[k][k]*phi[k-1][k-j]
		}
	}
	return pacf, nil
}

// Correlogram bundles ACF or PACF values with the white-noise confidence
// bound used to judge significance.
type Correlogram struct {
	Lags      []int     `json:"lags"`
	Values    []float64 `json:"values"`
	ConfBound float64   `json:"conf_bound"`
}

// ACFWithConfidence computes the correlogram with the 95% bound
// +-1.96/sqrt(n).
func ACFWithConfidence(s *timeseries.Series, maxLag int) (*Correlogram, error) {
	acf, err := ACF(s, maxLag)
	if err != nil {
		return nil, err
	}
	return newCorrelogram(acf, s.Len()), nil
}

func PACFWithConfidence(s *timeseries.Series, maxLag int) (*Correlogram, error) {
	pacf, err := PACF(s, maxLag)
	if err != nil {
		return nil, err
	}
	return newCorrelogram(pacf, s.Len()), nil
}

func newCorrelogram(values []float64, n int) *Correlogram {
	lags := make([]int, len(values))
	for i := range lags {
		lags[i] = i
	}
	return &Correlogram{
		Lags:      lags,
		Values:    values,
		ConfBound: 1.96 / math.Sqrt(float64(n)),
	}
}

// SignificantLags lists the lags beyond zero whose value exceeds the bound.
func (c *Correlogram) SignificantLags() []int {
	var out []int
	for i := 1; i < len(c.Values); i++ {
		if math.Abs(c.Values[i]) > c.ConfBound {
			out = append(out, i)
		}
	}
	return out
}
