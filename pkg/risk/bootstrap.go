package risk

import (
	"math"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

// Bootstrap simulates terminal values by resampling historical log
// returns with replacement. Each path compounds horizon independent
// draws on top of the last observed price. The method makes no
// distributional assumption beyond the sample being representative.
func (sim *Simulator) Bootstrap() (*Report, error) {
	rng := rand.New(rand.NewSource(sim.seed))
	n := len(sim.returns)

	terminal := make([]float64, sim.paths)
	for p := range terminal {
		var logSum float64
		for h := 0; h < sim.horizon; h++ {
			logSum += sim.returns[rng.Intn(n)]
		}
		terminal[p] = sim.last * math.Exp(logSum)
	}

	r := sim.summarize("bootstrap", terminal)
	sim.logger.Info("bootstrap simulation complete",
		zap.Int("paths", r.Paths),
		zap.Int("horizon", r.Horizon),
		zap.Float64("mean_terminal", r.MeanTerminal),
		zap.Float64("var_95", r.VaR95))
	return r, nil
}
