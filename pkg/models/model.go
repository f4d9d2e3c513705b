// Package models provides the forecasting model families behind the
// experiment harness. Models are registered under short codes and share
// the Forecaster interface, so harness code can treat a naive baseline
// and an ARIMA fit the same way.
package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

var (
	ErrUnknownModel    = errors.New("unknown model code")
	ErrNotFitted       = errors.New("model not fitted")
	ErrInvalidHorizon  = errors.New("horizon must be positive")
	ErrNoSeasonality   = errors.New("series frequency has no seasonal period")
	ErrDegenerateModel = errors.New("series too short for model")
)

// Two-sided normal quantiles backing the interval levels.
const (
	z80 = 1.2815515655446004
	z95 = 1.959963984540054
)

// Point is a single forecast step with symmetric interval estimates.
type Point struct {
	Time    time.Time `json:"time"`
	Mean    float64   `json:"mean"`
	Lower80 float64   `json:"lower_80"`
	Upper80 float64   `json:"upper_80"`
	Lower95 float64   `json:"lower_95"`
	Upper95 float64   `json:"upper_95"`
}

// Forecaster is the contract every model family implements. Fit must be
// called before Forecast; fitting again replaces the model state.
type Forecaster interface {
	Name() string
	Fit(s *timeseries.Series) error
	Forecast(horizon int) ([]Point, error)
	Fitted() []float64
	Residuals() []float64
	Params() map[string]float64
}

// Builder constructs a fresh unfitted model with default settings.
type Builder func() Forecaster

var (
	registryMu sync.RWMutex
	registry   = map[string]Builder{}
)

// Register makes a model available under the given code. Registering
// the same code twice replaces the builder.
func Register(code string, b Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[code] = b
}

// New builds an unfitted model for the given code.
func New(code string) (Forecaster, error) {
	registryMu.RLock()
	b, ok := registry[code]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, code)
	}
	return b(), nil
}

// Codes returns the registered model codes in sorted order.
func Codes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for code := range registry {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func init() {
	Register("naive", func() Forecaster { return &Naive{} })
	Register("snaive", func() Forecaster { return &SeasonalNaive{} })
	Register("drift", func() Forecaster { return &Drift{} })
	Register("mean", func() Forecaster { return &Mean{} })
	Register("ses", func() Forecaster { return NewSES(0) })
	Register("holt", func() Forecaster { return NewHolt(0, 0) })
	Register("hw", func() Forecaster { return NewHoltWinters(0, 0, 0, 0) })
	Register("trend", func() Forecaster { return NewTrend(0) })
	Register("arima", func() Forecaster { return NewAutoARIMA() })
}

// futureTimes continues the series calendar for the given horizon.
func futureTimes(last time.Time, freq timeseries.Frequency, horizon int) []time.Time {
	out := make([]time.Time, horizon)
	t := last
	for i := 0; i < horizon; i++ {
		t = freq.Step(t)
		out[i] = t
	}
	return out
}

// makePoints builds interval forecasts from means and standard errors.
func makePoints(times []time.Time, mean, se []float64) []Point {
	out := make([]Point, len(mean))
	for i := range mean {
		out[i] = Point{
			Time:    times[i],
			Mean:    mean[i],
			Lower80: mean[i] - z80*se[i],
			Upper80: mean[i] + z80*se[i],
			Lower95: mean[i] - z95*se[i],
			Upper95: mean[i] + z95*se[i],
		}
	}
	return out
}

// residualStd is the sample standard deviation of the non-NaN
// residuals.
func residualStd(residuals []float64) float64 {
	sum, count := 0.0, 0
	for _, r := range residuals {
		if math.IsNaN(r) {
			continue
		}
		sum += r * r
		count++
	}
	if count < 2 {
		return 0
	}
	return math.Sqrt(sum / float64(count-1))
}

// alignedResiduals subtracts fits from observations, keeping NaN where
// no fit exists.
func alignedResiduals(values, fitted []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if math.IsNaN(fitted[i]) {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i] - fitted[i]
	}
	return out
}

func copyValues(src []float64) []float64 {
	out := make([]float64, len(src))
	copy(out, src)
	return out
}
