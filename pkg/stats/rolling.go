package stats

import (
	"fmt"
	"math"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
	"github.com/peter-kozarec/solstice/pkg/utility"
	"github.com/peter-kozarec/solstice/pkg/utility/circular"
)

// RollingMean returns the trailing mean over the window, aligned with the
// input. Positions before the window fills are NaN.
func RollingMean(s *timeseries.Series, window int) ([]float64, error) {
	return rollingApply(s, window, func(w *circular.Window) float64 {
		return w.Mean()
	})
}

// RollingStd returns the trailing sample standard deviation over the
// window, aligned with the input. Positions before the window fills are
// NaN.
func RollingStd(s *timeseries.Series, window int) ([]float64, error) {
	if window < 2 {
		return nil, fmt.Errorf("%w: std window must be at least 2, got %d", ErrBadWindow, window)
	}
	n := float64(window)
	return rollingApply(s, window, func(w *circular.Window) float64 {
		// The window tracks the population variance; rescale to the
		// sample estimator.
		return math.Sqrt(w.Variance() * n / (n - 1))
	})
}

func rollingApply(s *timeseries.Series, window int, f func(*circular.Window) float64) ([]float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: window must be at least 1, got %d", ErrBadWindow, window)
	}
	if window > s.Len() {
		return nil, fmt.Errorf("%w: window %d exceeds series length %d", ErrBadWindow, window, s.Len())
	}

	capacity, err := utility.IntToUint(window)
	if err != nil {
		return nil, fmt.Errorf("%w: window %d", ErrBadWindow, window)
	}

	w := circular.NewWindow(capacity)
	out := make([]float64, s.Len())
	for i, v := range s.Values {
		w.PushUpdate(v)
		if w.IsFull() {
			out[i] = f(w)
		} else {
			out[i] = math.NaN()
		}
	}
	return out, nil
}
