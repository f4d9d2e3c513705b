package stats

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// JarqueBeraResult holds the normality test outcome. The null hypothesis
// is that the data is normally distributed.
type JarqueBeraResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	Skewness  float64 `json:"skewness"`
	Kurtosis  float64 `json:"kurtosis"`
	IsNormal  bool    `json:"is_normal"`
}

// JarqueBera tests for normality from sample skewness and excess kurtosis.
func JarqueBera(s *timeseries.Series) (*JarqueBeraResult, error) {
	n := s.Len()
	if n < 8 {
		return nil, fmt.Errorf("%w: jarque-bera needs at least 8 points, have %d", ErrTooShort, n)
	}
	if s.Variance() == 0 {
		return nil, ErrZeroVariance
	}

	skew := stat.Skew(s.Values, nil)
	exKurt := stat.ExKurtosis(s.Values, nil)

	jb := float64(n) / 6 * (skew*skew + exKurt*exKurt/4)
	chi2 := distuv.ChiSquared{K: 2}
	p := 1 - chi2.CDF(jb)

	return &JarqueBeraResult{
		Statistic: jb,
		PValue:    p,
		Skewness:  skew,
		Kurtosis:  exKurt,
		IsNormal:  p >= 0.05,
	}, nil
}
