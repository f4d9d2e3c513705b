package timeseries

import (
	"fmt"
	"math"
	"time"
)

// Diff returns the first difference, y'[t] = y[t] - y[t-1]. The result has
// one point fewer than the receiver.
func (s *Series) Diff() (*Series, error) {
	return s.DiffLag(1)
}

// DiffLag differences at the given lag, y'[t] = y[t] - y[t-lag].
func (s *Series) DiffLag(lag int) (*Series, error) {
	if lag <= 0 {
		return nil, fmt.Errorf("diff lag must be positive, got %d", lag)
	}
	if s.Len() <= lag {
		return nil, fmt.Errorf("%w: need more than %d points, have %d", ErrTooShort, lag, s.Len())
	}

	values := make([]float64, s.Len()-lag)
	times := make([]time.Time, s.Len()-lag)
	for i := lag; i < s.Len(); i++ {
		values[i-lag] = s.Values[i] - s.Values[i-lag]
		times[i-lag] = s.Times[i]
	}
	return &Series{Name: s.Name + "_diff", Freq: s.Freq, Times: times, Values: values}, nil
}

// Reintegrate inverts a first difference. last is the level observation
// immediately preceding the differenced values.
func Reintegrate(diffed []float64, last float64) []float64 {
	out := make([]float64, len(diffed))
	level := last
	for i, d := range diffed {
		level += d
		out[i] = level
	}
	return out
}

// ReintegrateSeasonal inverts a seasonal difference at lag m. lastCycle
// holds the final m level observations before the differenced values,
// oldest first.
func ReintegrateSeasonal(diffed []float64, lastCycle []float64) []float64 {
	m := len(lastCycle)
	out := make([]float64, len(diffed))
	for i, d := range diffed {
		var base float64
		if i < m {
			base = lastCycle[i]
		} else {
			base = out[i-m]
		}
		out[i] = base + d
	}
	return out
}

// Log returns the natural log of the series. All values must be positive.
func (s *Series) Log() (*Series, error) {
	values := make([]float64, s.Len())
	for i, v := range s.Values {
		if v <= 0 {
			return nil, fmt.Errorf("%w: value %v at index %d", ErrNonPositive, v, i)
		}
		values[i] = math.Log(v)
	}
	times := make([]time.Time, s.Len())
	copy(times, s.Times)
	return &Series{Name: s.Name + "_log", Freq: s.Freq, Times: times, Values: values}, nil
}

// Exp inverts Log.
func (s *Series) Exp() *Series {
	values := make([]float64, s.Len())
	for i, v := range s.Values {
		values[i] = math.Exp(v)
	}
	times := make([]time.Time, s.Len())
	copy(times, s.Times)
	return &Series{Name: s.Name, Freq: s.Freq, Times: times, Values: values}
}

// BoxCox applies the Box-Cox transform with the given lambda. Lambda zero
// degrades to the log transform. All values must be positive.
func (s *Series) BoxCox(lambda float64) (*Series, error) {
	if lambda == 0 {
		return s.Log()
	}
	values := make([]float64, s.Len())
	for i, v := range s.Values {
		if v <= 0 {
			return nil, fmt.Errorf("%w: value %v at index %d", ErrNonPositive, v, i)
		}
		values[i] = (math.Pow(v, lambda) - 1) / lambda
	}
	times := make([]time.Time, s.Len())
	copy(times, s.Times)
	return &Series{Name: s.Name + "_boxcox", Freq: s.Freq, Times: times, Values: values}, nil
}

// InvBoxCox inverts BoxCox on raw values.
func InvBoxCox(values []float64, lambda float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if lambda == 0 {
			out[i] = math.Exp(v)
		} else {
			out[i] = math.Pow(lambda*v+1, 1/lambda)
		}
	}
	return out
}

// PctChange returns the fractional change over lag periods,
// (y[t] - y[t-lag]) / y[t-lag].
func (s *Series) PctChange(lag int) (*Series, error) {
	if lag <= 0 {
		return nil, fmt.Errorf("pct change lag must be positive, got %d", lag)
	}
	if s.Len() <= lag {
		return nil, fmt.Errorf("%w: need more than %d points, have %d", ErrTooShort, lag, s.Len())
	}

	values := make([]float64, s.Len()-lag)
	times := make([]time.Time, s.Len()-lag)
	for i := lag; i < s.Len(); i++ {
		prev := s.Values[i-lag]
		if prev == 0 {
			values[i-lag] = math.NaN()
		} else {
			values[i-lag] = (s.Values[i] - prev) / prev
		}
		times[i-lag] = s.Times[i]
	}
	return &Series{Name: s.Name + "_pct", Freq: s.Freq, Times: times, Values: values}, nil
}

// LogReturns returns log(y[t] / y[t-1]). All values must be positive.
func (s *Series) LogReturns() (*Series, error) {
	if s.Len() < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, have %d", ErrTooShort, s.Len())
	}
	for i, v := range s.Values {
		if v <= 0 {
			return nil, fmt.Errorf("%w: value %v at index %d", ErrNonPositive, v, i)
		}
	}

	values := make([]float64, s.Len()-1)
	times := make([]time.Time, s.Len()-1)
	for i := 1; i < s.Len(); i++ {
		values[i-1] = math.Log(s.Values[i] / s.Values[i-1])
		times[i-1] = s.Times[i]
	}
	return &Series{Name: s.Name + "_logret", Freq: s.Freq, Times: times, Values: values}, nil
}
