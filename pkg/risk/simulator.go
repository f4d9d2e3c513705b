// Package risk estimates the downside of holding a price series by
// simulating distributions of its terminal value over a horizon. Two
// simulation methods share one summary shape: a historical bootstrap
// that resamples observed log returns, and a parametric Monte Carlo
// that draws them from a fitted normal.
package risk

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

var (
	ErrInvalidConfig    = errors.New("invalid simulation config")
	ErrInsufficientData = errors.New("insufficient data")
)

const (
	// minObservations is the smallest return sample a simulation will
	// accept. Resampling fewer returns mostly replays the sample itself.
	minObservations = 30

	defaultPaths = 2000
	defaultSeed  = 42
)

// Simulator runs terminal-value simulations for one price series. The
// series is read once at construction; every simulation method is a
// pure function of the stored returns and the seed, so repeated calls
// produce identical reports.
type Simulator struct {
	series  *timeseries.Series
	returns []float64
	last    float64
	horizon int
	paths   int
	seed    uint64
	logger  *zap.Logger
}

type Option func(*Simulator)

// WithPaths sets the number of simulated paths.
func WithPaths(n int) Option {
	return func(sim *Simulator) {
		sim.paths = n
	}
}

// WithSeed fixes the random source so runs can be reproduced.
func WithSeed(seed uint64) Option {
	return func(sim *Simulator) {
		sim.seed = seed
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(sim *Simulator) {
		sim.logger = logger
	}
}

// NewSimulator validates the series and precomputes its log returns.
// Prices must be positive and provide at least minObservations returns.
func NewSimulator(s *timeseries.Series, horizon int, opts ...Option) (*Simulator, error) {
	if s == nil || s.Len() == 0 {
		return nil, fmt.Errorf("%w: empty series", ErrInsufficientData)
	}
	if horizon < 1 {
		return nil, fmt.Errorf("%w: horizon %d", ErrInvalidConfig, horizon)
	}
	if s.Min() <= 0 {
		return nil, fmt.Errorf("%w: log returns need positive prices", ErrInvalidConfig)
	}

	sim := &Simulator{
		series:  s,
		last:    s.LastValue(),
		horizon: horizon,
		paths:   defaultPaths,
		seed:    defaultSeed,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(sim)
	}
	if sim.paths < 1 {
		return nil, fmt.Errorf("%w: paths %d", ErrInvalidConfig, sim.paths)
	}

	rets, err := s.LogReturns()
	if err != nil {
		return nil, fmt.Errorf("computing log returns: %w", err)
	}
	if rets.Len() < minObservations {
		return nil, fmt.Errorf("%w: need %d returns, have %d",
			ErrInsufficientData, minObservations, rets.Len())
	}
	sim.returns = rets.Values

	sim.logger.Info("risk simulator ready",
		zap.String("series", s.Name),
		zap.Int("observations", len(sim.returns)),
		zap.Int("horizon", sim.horizon),
		zap.Int("paths", sim.paths),
		zap.Uint64("seed", sim.seed))
	return sim, nil
}

// summarize folds a batch of simulated terminal values into a Report.
// Value at risk is read off the profit-and-loss quantiles, so deeper
// confidence levels can only move it further into the loss tail.
func (sim *Simulator) summarize(method string, terminal []float64) *Report {
	pnl := make([]float64, len(terminal))
	losses := 0
	for i, v := range terminal {
		pnl[i] = v - sim.last
		if pnl[i] < 0 {
			losses++
		}
	}
	sort.Float64s(terminal)
	sort.Float64s(pnl)

	r := &Report{
		Method:         method,
		Paths:          sim.paths,
		Horizon:        sim.horizon,
		Seed:           sim.seed,
		StartPrice:     sim.last,
		MeanTerminal:   stat.Mean(terminal, nil),
		MedianTerminal: stat.Quantile(0.5, stat.Empirical, terminal, nil),
		ProbLoss:       float64(losses) / float64(len(pnl)),
		VaR90:          stat.Quantile(0.10, stat.Empirical, pnl, nil),
		VaR95:          stat.Quantile(0.05, stat.Empirical, pnl, nil),
		VaR99:          stat.Quantile(0.01, stat.Empirical, pnl, nil),
		PnL:            pnl,
	}
	r.CVaR90 = tailMean(pnl, r.VaR90)
	r.CVaR95 = tailMean(pnl, r.VaR95)
	r.CVaR99 = tailMean(pnl, r.VaR99)
	return r
}

// tailMean averages the sorted outcomes at or below the cutoff. The
// cutoff is itself a sample point, so the tail is never empty.
func tailMean(sorted []float64, cutoff float64) float64 {
	var sum float64
	var count int
	for _, v := range sorted {
		if v > cutoff {
			break
		}
		sum += v
		count++
	}
	if count == 0 {
		return cutoff
	}
	return sum / float64(count)
}
