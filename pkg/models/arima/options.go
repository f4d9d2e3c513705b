package arima

type ModelOption func(*Model)

// WithConstant controls whether the differenced series keeps a mean
// term. Models with d > 0 usually set this to false.
func WithConstant(include bool) ModelOption {
	return func(m *Model) {
		m.includeConstant = include
	}
}

// WithMaxIterations bounds the optimizer iterations.
func WithMaxIterations(n int) ModelOption {
	return func(m *Model) {
		if n > 0 {
			m.maxIterations = n
		}
	}
}

// WithTolerance sets the relative sum-of-squares change at which the
// optimizer stops.
func WithTolerance(tol float64) ModelOption {
	return func(m *Model) {
		if tol > 0 {
			m.tolerance = tol
		}
	}
}
