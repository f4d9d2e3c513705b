package report

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/risk"
	"github.com/peter-kozarec/solstice/pkg/stats"
)

// Narrative is the logged summary of a full analysis pass. Optional
// sections are skipped when their field is nil or empty, so a partial
// run still prints cleanly.
type Narrative struct {
	Series    string
	Frequency string
	Summary   stats.Summary
	ADF       *stats.ADFResult
	KPSS      *stats.KPSSResult
	Normality *stats.JarqueBeraResult
	BestModel string
	Metric    string
	BestScore float64
	Risk      *risk.Report
}

func (n Narrative) Print(logger *zap.Logger) {
	logger.Info("series overview",
		zap.String("series", n.Series),
		zap.String("frequency", n.Frequency),
		zap.Int("observations", n.Summary.Count),
		zap.Float64("mean", n.Summary.Mean),
		zap.Float64("std", n.Summary.Std),
		zap.Float64("min", n.Summary.Min),
		zap.Float64("median", n.Summary.Median),
		zap.Float64("max", n.Summary.Max))

	if n.ADF != nil {
		logger.Info("stationarity test",
			zap.String("test", "adf"),
			zap.Float64("statistic", n.ADF.Statistic),
			zap.Float64("p_value", n.ADF.PValue),
			zap.Bool("stationary", n.ADF.IsStationary))
	}
	if n.KPSS != nil {
		logger.Info("stationarity test",
			zap.String("test", "kpss"),
			zap.Float64("statistic", n.KPSS.Statistic),
			zap.Float64("p_value", n.KPSS.PValue),
			zap.Bool("stationary", n.KPSS.IsStationary))
	}
	if n.Normality != nil {
		logger.Info("normality test",
			zap.String("test", "jarque-bera"),
			zap.Float64("statistic", n.Normality.Statistic),
			zap.Float64("p_value", n.Normality.PValue),
			zap.Float64("skewness", n.Normality.Skewness),
			zap.Float64("kurtosis", n.Normality.Kurtosis),
			zap.Bool("normal", n.Normality.IsNormal))
	}

	if n.BestModel != "" {
		logger.Info("model selection",
			zap.String("best_model", n.BestModel),
			zap.String("metric", n.Metric),
			zap.Float64("score", n.BestScore))
	}

	if n.Risk != nil {
		logger.Info("risk outlook",
			zap.String("method", n.Risk.Method),
			zap.Int("horizon", n.Risk.Horizon),
			zap.Float64("var_95", n.Risk.VaR95),
			zap.Float64("cvar_95", n.Risk.CVaR95),
			zap.String("prob_loss", fmt.Sprintf("%.1f%%", n.Risk.ProbLoss*100)))
	}
}
