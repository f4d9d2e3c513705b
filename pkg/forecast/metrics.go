package forecast

import (
	"math"
	"sort"
)

// Metrics holds the point-accuracy scores of one evaluation window.
// MASE is scaled by the in-sample seasonal naive error of the training
// window, so values below one beat the seasonal naive walk forward.
type Metrics struct {
	MAE   float64 `json:"mae"`
	RMSE  float64 `json:"rmse"`
	MAPE  float64 `json:"mape"`
	SMAPE float64 `json:"smape"`
	MASE  float64 `json:"mase"`
	R2    float64 `json:"r2"`
}

// metricOrder maps a metric name to its sort direction, true meaning
// lower is better.
var metricOrder = map[string]bool{
	"mae":   true,
	"rmse":  true,
	"mape":  true,
	"smape": true,
	"mase":  true,
	"r2":    false,
}

// MetricNames returns the supported metric names in sorted order.
func MetricNames() []string {
	out := make([]string, 0, len(metricOrder))
	for name := range metricOrder {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Value returns the named score, NaN for an unknown name.
func (m Metrics) Value(name string) float64 {
	switch name {
	case "mae":
		return m.MAE
	case "rmse":
		return m.RMSE
	case "mape":
		return m.MAPE
	case "smape":
		return m.SMAPE
	case "mase":
		return m.MASE
	case "r2":
		return m.R2
	default:
		return math.NaN()
	}
}

// Score compares predictions against actuals on the price scale. The
// percentage errors skip rows where their denominator is zero.
func Score(actual, predicted, train []float64, period int) Metrics {
	n := len(actual)
	if n == 0 || len(predicted) != n {
		return Metrics{MAE: math.NaN(), RMSE: math.NaN(), MAPE: math.NaN(),
			SMAPE: math.NaN(), MASE: math.NaN(), R2: math.NaN()}
	}

	var absSum, sqSum, apeSum, sapeSum float64
	var apeCount, sapeCount int
	for i := range actual {
		e := actual[i] - predicted[i]
		absSum += math.Abs(e)
		sqSum += e * e
		if actual[i] != 0 {
			apeSum += math.Abs(e / actual[i])
			apeCount++
		}
		if d := math.Abs(actual[i]) + math.Abs(predicted[i]); d != 0 {
			sapeSum += 2 * math.Abs(e) / d
			sapeCount++
		}
	}

	m := Metrics{
		MAE:  absSum / float64(n),
		RMSE: math.Sqrt(sqSum / float64(n)),
	}
	if apeCount > 0 {
		m.MAPE = 100 * apeSum / float64(apeCount)
	}
	if sapeCount > 0 {
		m.SMAPE = 100 * sapeSum / float64(sapeCount)
	}
	m.MASE = maseScore(m.MAE, train, period)
	m.R2 = rsquared(actual, predicted)
	return m
}

// maseScore divides the out-of-sample MAE by the mean absolute error
// of the in-sample seasonal naive forecast.
func maseScore(mae float64, train []float64, period int) float64 {
	lag := period
	if lag < 1 {
		lag = 1
	}
	if len(train) <= lag {
		return math.NaN()
	}
	sum := 0.0
	for i := lag; i < len(train); i++ {
		sum += math.Abs(train[i] - train[i-lag])
	}
	scale := sum / float64(len(train)-lag)
	if scale == 0 {
		return math.NaN()
	}
	return mae / scale
}

func rsquared(actual, predicted []float64) float64 {
	mean := 0.0
	for _, v := range actual {
		mean += v
	}
	mean /= float64(len(actual))

	var sse, sst float64
	for i := range actual {
		e := actual[i] - predicted[i]
		sse += e * e
		d := actual[i] - mean
		sst += d * d
	}
	if sst == 0 {
		if sse == 0 {
			return 1
		}
		return 0
	}
	return 1 - sse/sst
}

// averageMetrics is the element-wise mean over fold scores.
func averageMetrics(scores []Metrics) Metrics {
	if len(scores) == 0 {
		return Metrics{}
	}
	var out Metrics
	for _, s := range scores {
		out.MAE += s.MAE
		out.RMSE += s.RMSE
		out.MAPE += s.MAPE
		out.SMAPE += s.SMAPE
		out.MASE += s.MASE
		out.R2 += s.R2
	}
	n := float64(len(scores))
	out.MAE /= n
	out.RMSE /= n
	out.MAPE /= n
	out.SMAPE /= n
	out.MASE /= n
	out.R2 /= n
	return out
}

// better reports whether a beats b on the named metric. NaN always
// loses, so models with failed scores sink to the bottom.
func better(a, b Metrics, name string) bool {
	av, bv := a.Value(name), b.Value(name)
	if math.IsNaN(av) {
		return false
	}
	if math.IsNaN(bv) {
		return true
	}
	if metricOrder[name] {
		return av < bv
	}
	return av > bv
}
