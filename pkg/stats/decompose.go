package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

type DecomposeMode string

const (
	Additive       DecomposeMode = "additive"
	Multiplicative DecomposeMode = "multiplicative"
)

// Decomposition splits a series into trend, seasonal and residual parts.
// Trend and residual carry NaN where the centered moving average is
// undefined.
type Decomposition struct {
	Original *timeseries.Series
	Trend    *timeseries.Series
	Seasonal *timeseries.Series
	Residual *timeseries.Series
	Period   int
	Mode     DecomposeMode
}

// Decompose performs classical seasonal decomposition with a centered
// moving-average trend. Needs at least two full periods of data.
func Decompose(s *timeseries.Series, period int, mode DecomposeMode) (*Decomposition, error) {
	n := s.Len()
	if period < 2 {
		return nil, fmt.Errorf("period must be at least 2, got %d", period)
	}
	if n < 2*period {
		return nil, fmt.Errorf("%w: decomposition needs %d points, have %d", ErrTooShort, 2*period, n)
	}
	if mode != Additive && mode != Multiplicative {
		mode = Additive
	}
	if mode == Multiplicative {
		for i, v := range s.Values {
			if v <= 0 {
				return nil, fmt.Errorf("%w: value %v at index %d", timeseries.ErrNonPositive, v, i)
			}
		}
	}

	trend := centeredMA(s.Values, period)

	detrended := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case math.IsNaN(trend[i]):
			detrended[i] = math.NaN()
		case mode == Multiplicative:
			detrended[i] = s.Values[i] / trend[i]
		default:
			detrended[i] = s.Values[i] - trend[i]
		}
	}

	// Seasonal indices: average the detrended values per phase, then
	// normalize so the pattern sums to zero (or averages to one).
	pattern := make([]float64, period)
	counts := make([]int, period)
	for i, v := range detrended {
		if !math.IsNaN(v) {
			pattern[i%period] += v
			counts[i%period]++
		}
	}
	for i := range pattern {
		if counts[i] > 0 {
			pattern[i] /= float64(counts[i])
		}
	}
	var mean float64
	for _, v := range pattern {
		mean += v
	}
	mean /= float64(period)
	for i := range pattern {
		if mode == Multiplicative {
			pattern[i] /= mean
		} else {
			pattern[i] -= mean
		}
	}

	seasonal := make([]float64, n)
	for i := range seasonal {
		seasonal[i] = pattern[i%period]
	}

	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case math.IsNaN(trend[i]):
			residual[i] = math.NaN()
		case mode == Multiplicative:
			residual[i] = s.Values[i] / (trend[i] * seasonal[i])
		default:
			residual[i] = s.Values[i] - trend[i] - seasonal[i]
		}
	}

	return &Decomposition{
		Original: s,
		Trend:    component(s, "trend", trend),
		Seasonal: component(s, "seasonal", seasonal),
		Residual: component(s, "residual", residual),
		Period:   period,
		Mode:     mode,
	}, nil
}

func component(s *timeseries.Series, name string, values []float64) *timeseries.Series {
	times := make([]time.Time, len(s.Times))
	copy(times, s.Times)
	return &timeseries.Series{Name: name, Freq: s.Freq, Times: times, Values: values}
}

// centeredMA computes the centered moving average, using the 2xm variant
// for even periods. Positions without a full window are NaN.
func centeredMA(values []float64, period int) []float64 {
	n := len(values)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}

	half := period / 2
	if period%2 == 0 {
		for i := half; i < n-half; i++ {
			sum := values[i-half]*0.5 + values[i+half]*0.5
			for j := i - half + 1; j < i+half; j++ {
				sum += values[j]
			}
			trend[i] = sum / float64(period)
		}
	} else {
		for i := half; i < n-half; i++ {
			var sum float64
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
			trend[i] = sum / float64(period)
		}
	}
	return trend
}
