package risk

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// Performance holds annualized return metrics for a price series.
// Ratios are zero when their deviation denominator vanishes, which
// only happens on flat or loss-free samples.
type Performance struct {
	Periods              int
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	SharpeRatio          float64
	SortinoRatio         float64
	MaxDrawdown          float64
	DrawdownPeak         int
	DrawdownTrough       int
}

// Analyze computes performance metrics from a positive price series.
// riskFree is an annual rate; it is spread evenly across the periods
// of a year when excess returns are formed.
func Analyze(s *timeseries.Series, riskFree float64) (*Performance, error) {
	if s == nil || s.Len() < 2 {
		return nil, fmt.Errorf("%w: need 2 prices", ErrInsufficientData)
	}
	if s.Min() <= 0 {
		return nil, fmt.Errorf("%w: log returns need positive prices", ErrInvalidConfig)
	}

	rets, err := s.LogReturns()
	if err != nil {
		return nil, fmt.Errorf("computing log returns: %w", err)
	}

	ppy := s.Freq.PeriodsPerYear()
	perPeriodRF := riskFree / ppy
	mean := stat.Mean(rets.Values, nil)
	sd := stat.StdDev(rets.Values, nil)

	p := &Performance{
		Periods:              s.Len(),
		AnnualizedReturn:     math.Exp(mean*ppy) - 1,
		AnnualizedVolatility: sd * math.Sqrt(ppy),
	}
	if sd > 0 {
		p.SharpeRatio = (mean - perPeriodRF) / sd * math.Sqrt(ppy)
	}
	if downside := downsideDeviation(rets.Values, perPeriodRF); downside > 0 {
		p.SortinoRatio = (mean - perPeriodRF) / downside * math.Sqrt(ppy)
	}
	p.MaxDrawdown, p.DrawdownPeak, p.DrawdownTrough = maxDrawdown(s.Values)
	return p, nil
}

// downsideDeviation is the root mean square of shortfalls below the
// threshold, averaged over the shortfall count.
func downsideDeviation(returns []float64, threshold float64) float64 {
	var sum float64
	var count int
	for _, r := range returns {
		if r < threshold {
			diff := r - threshold
			sum += diff * diff
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(count))
}

// maxDrawdown returns the deepest peak-to-trough decline as a fraction
// of the peak, with the indices where the peak and trough occurred.
func maxDrawdown(values []float64) (float64, int, int) {
	var worst float64
	var worstPeak, worstTrough int
	peak, peakIdx := values[0], 0
	for i, v := range values {
		if v > peak {
			peak, peakIdx = v, i
			continue
		}
		if dd := (peak - v) / peak; dd > worst {
			worst = dd
			worstPeak, worstTrough = peakIdx, i
		}
	}
	return worst, worstPeak, worstTrough
}

func (p Performance) Print(logger *zap.Logger) {
	logger.Info("performance report",
		zap.Int("periods", p.Periods),
		zap.String("annualized_return", fmt.Sprintf("%.2f%%", p.AnnualizedReturn*100)),
		zap.String("max_drawdown", fmt.Sprintf("%.2f%%", p.MaxDrawdown*100)),
		zap.Int("drawdown_peak", p.DrawdownPeak),
		zap.Int("drawdown_trough", p.DrawdownTrough))

	logger.Info("risk metrics",
		zap.Float64("sharpe_ratio", p.SharpeRatio),
		zap.Float64("sortino_ratio", p.SortinoRatio),
		zap.String("annualized_volatility", fmt.Sprintf("%.2f%%", p.AnnualizedVolatility*100)))
}
