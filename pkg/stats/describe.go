// Package stats implements the descriptive statistics and diagnostic tests
// applied to a series before and after modelling: summary statistics,
// autocorrelation, stationarity and normality tests, seasonal decomposition
// and rolling moments.
package stats

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

var (
	ErrTooShort     = errors.New("series too short")
	ErrZeroVariance = errors.New("series has zero variance")
	ErrBadWindow    = errors.New("invalid window")
)

// Summary mirrors the familiar eight-row describe table.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"p25"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

func Describe(s *timeseries.Series) (Summary, error) {
	if s == nil || s.Len() == 0 {
		return Summary{}, timeseries.ErrEmpty
	}

	sorted := make([]float64, s.Len())
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	return Summary{
		Count:  s.Len(),
		Mean:   stat.Mean(sorted, nil),
		Std:    sampleStd(sorted),
		Min:    sorted[0],
		P25:    stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P75:    stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}, nil
}

func (s Summary) String() string {
	return fmt.Sprintf("count=%d mean=%.4f std=%.4f min=%.4f p25=%.4f median=%.4f p75=%.4f max=%.4f",
		s.Count, s.Mean, s.Std, s.Min, s.P25, s.Median, s.P75, s.Max)
}

func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}
