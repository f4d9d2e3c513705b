package circular

import "math"

// Window is a fixed-size rolling window over float64 observations that
// maintains running sum, mean, variance and standard deviation. Pushing a
// value once the window is full evicts the oldest observation, so the
// moments always describe the last Capacity values.
type Window struct {
	b *Buffer[float64]

	sum        float64
	sumSquares float64
	mean       float64
	variance   float64
	stdDev     float64
}

func NewWindow(capacity uint) *Window {
	return &Window{
		b: NewBuffer[float64](capacity),
	}
}

func (w *Window) PushUpdate(v float64) {
	if w.b.IsFull() {
		evicted := w.b.Last()
		w.b.Push(v)
		w.sum += v - evicted
		w.sumSquares += v*v - evicted*evicted
	} else {
		w.b.Push(v)
		w.sum += v
		w.sumSquares += v * v
	}

	n := float64(w.b.Size())
	w.mean = w.sum / n
	w.variance = w.sumSquares/n - w.mean*w.mean
	if w.variance > 0 {
		w.stdDev = math.Sqrt(w.variance)
	} else {
		w.variance = 0
		w.stdDev = 0
	}
}

func (w *Window) Size() uint {
	return w.b.Size()
}

func (w *Window) IsFull() bool {
	return w.b.IsFull()
}

func (w *Window) Sum() float64 {
	return w.sum
}

func (w *Window) Mean() float64 {
	return w.mean
}

func (w *Window) Variance() float64 {
	return w.variance
}

func (w *Window) StdDev() float64 {
	return w.stdDev
}

// SampleVariance rescales the population variance to the unbiased
// estimate with an n-1 denominator. Returns 0 for windows of size < 2.
func (w *Window) SampleVariance() float64 {
	n := float64(w.b.Size())
	if n < 2 {
		return 0
	}
	return w.variance * n / (n - 1)
}

func (w *Window) SampleStdDev() float64 {
	return math.Sqrt(w.SampleVariance())
}
