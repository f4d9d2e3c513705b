package risk

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Report summarizes one simulation run. Value-at-risk fields are
// profit-and-loss quantiles relative to the start price: VaR95 is the
// outcome the worst 5% of paths fall below, CVaR95 the average of that
// tail. PnL holds every simulated outcome sorted ascending.
type Report struct {
	Method         string
	Paths          int
	Horizon        int
	Seed           uint64
	StartPrice     float64
	MeanTerminal   float64
	MedianTerminal float64
	ProbLoss       float64
	VaR90          float64
	VaR95          float64
	VaR99          float64
	CVaR90         float64
	CVaR95         float64
	CVaR99         float64
	PnL            []float64
}

// PnLQuantile reads an arbitrary quantile off the simulated
// profit-and-loss distribution, q in [0, 1].
func (r Report) PnLQuantile(q float64) float64 {
	return stat.Quantile(q, stat.Empirical, r.PnL, nil)
}

func (r Report) Print(logger *zap.Logger) {
	logger.Info("risk simulation",
		zap.String("method", r.Method),
		zap.Int("paths", r.Paths),
		zap.Int("horizon", r.Horizon),
		zap.Uint64("seed", r.Seed),
		zap.Float64("start_price", r.StartPrice))

	logger.Info("terminal distribution",
		zap.Float64("mean", r.MeanTerminal),
		zap.Float64("median", r.MedianTerminal),
		zap.String("prob_loss", fmt.Sprintf("%.1f%%", r.ProbLoss*100)))

	logger.Info("value at risk",
		zap.Float64("var_90", r.VaR90),
		zap.Float64("var_95", r.VaR95),
		zap.Float64("var_99", r.VaR99),
		zap.Float64("cvar_90", r.CVaR90),
		zap.Float64("cvar_95", r.CVaR95),
		zap.Float64("cvar_99", r.CVaR99))
}
