package risk

import (
	"math"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MonteCarlo simulates terminal values under geometric Brownian motion
// with per-period drift and volatility fitted to the observed log
// returns. It is the parametric counterpart of Bootstrap: same horizon,
// same path count, one Report shape.
func (sim *Simulator) MonteCarlo() (*Report, error) {
	mu := stat.Mean(sim.returns, nil)
	sigma := stat.StdDev(sim.returns, nil)
	normal := distuv.Normal{
		Mu:    mu,
		Sigma: sigma,
		Src:   rand.NewSource(sim.seed),
	}

	terminal := make([]float64, sim.paths)
	for p := range terminal {
		var logSum float64
		for h := 0; h < sim.horizon; h++ {
			logSum += normal.Rand()
		}
		terminal[p] = sim.last * math.Exp(logSum)
	}

	r := sim.summarize("montecarlo", terminal)
	sim.logger.Info("monte carlo simulation complete",
		zap.Int("paths", r.Paths),
		zap.Int("horizon", r.Horizon),
		zap.Float64("drift", mu),
		zap.Float64("volatility", sigma),
		zap.Float64("mean_terminal", r.MeanTerminal),
		zap.Float64("var_95", r.VaR95))
	return r, nil
}
