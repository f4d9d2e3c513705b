package report

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/peter-kozarec/solstice/pkg/forecast"
	"github.com/peter-kozarec/solstice/pkg/models"
	"github.com/peter-kozarec/solstice/pkg/risk"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// HistoryPoint is one observed value on the forecast chart.
type HistoryPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// ForecastChart shows the tail of the observed series followed by the
// point forecast with its 80% and 95% bands.
type ForecastChart struct {
	Series   string         `json:"series"`
	Model    string         `json:"model"`
	Horizon  int            `json:"horizon"`
	History  []HistoryPoint `json:"history"`
	Forecast []models.Point `json:"forecast"`
}

// NewForecastChart keeps the last tail observations for context. A
// non-positive tail keeps the whole series.
func NewForecastChart(s *timeseries.Series, model string, points []models.Point, tail int) *ForecastChart {
	if tail <= 0 || tail > s.Len() {
		tail = s.Len()
	}
	history := make([]HistoryPoint, 0, tail)
	for i := s.Len() - tail; i < s.Len(); i++ {
		history = append(history, HistoryPoint{Time: s.Times[i], Value: s.Values[i]})
	}
	return &ForecastChart{
		Series:   s.Name,
		Model:    model,
		Horizon:  len(points),
		History:  history,
		Forecast: points,
	}
}

type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram is an equal-width binning of a sample, used for residual
// and simulated profit-and-loss distributions. NaN values are dropped
// before binning.
type Histogram struct {
	Title string         `json:"title"`
	Bins  []HistogramBin `json:"bins"`
	Count int            `json:"count"`
	Mean  float64        `json:"mean"`
	Std   float64        `json:"std"`
}

func NewHistogram(title string, values []float64, bins int) (*Histogram, error) {
	if bins < 1 {
		return nil, fmt.Errorf("bins must be positive, got %d", bins)
	}
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return nil, ErrNoData
	}

	min, max := clean[0], clean[0]
	for _, v := range clean[1:] {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}

	h := &Histogram{
		Title: title,
		Count: len(clean),
		Mean:  stat.Mean(clean, nil),
	}
	if len(clean) > 1 {
		h.Std = stat.StdDev(clean, nil)
	}

	if min == max {
		h.Bins = []HistogramBin{{Lower: min, Upper: max, Count: len(clean)}}
		return h, nil
	}

	width := (max - min) / float64(bins)
	h.Bins = make([]HistogramBin, bins)
	for i := range h.Bins {
		h.Bins[i].Lower = min + float64(i)*width
		h.Bins[i].Upper = min + float64(i+1)*width
	}
	h.Bins[bins-1].Upper = max
	for _, v := range clean {
		idx := int((v - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		h.Bins[idx].Count++
	}
	return h, nil
}

// LeaderboardRow sanitizes one comparison entry for JSON: metrics that
// could not be computed become null.
type LeaderboardRow struct {
	Rank  int      `json:"rank"`
	Model string   `json:"model"`
	MAE   *float64 `json:"mae"`
	RMSE  *float64 `json:"rmse"`
	MAPE  *float64 `json:"mape"`
	SMAPE *float64 `json:"smape"`
	MASE  *float64 `json:"mase"`
	R2    *float64 `json:"r2"`
}

type LeaderboardTable struct {
	Metric string           `json:"metric"`
	Best   string           `json:"best"`
	Rows   []LeaderboardRow `json:"rows"`
}

func NewLeaderboardTable(l *forecast.Leaderboard) *LeaderboardTable {
	table := &LeaderboardTable{Metric: l.Metric}
	if best, ok := l.Best(); ok {
		table.Best = best.Model
	}
	table.Rows = make([]LeaderboardRow, len(l.Entries))
	for i, e := range l.Entries {
		table.Rows[i] = LeaderboardRow{
			Rank:  i + 1,
			Model: e.Model,
			MAE:   optional(e.MAE),
			RMSE:  optional(e.RMSE),
			MAPE:  optional(e.MAPE),
			SMAPE: optional(e.SMAPE),
			MASE:  optional(e.MASE),
			R2:    optional(e.R2),
		}
	}
	return table
}

// RiskChart pairs the headline risk numbers with the simulated
// profit-and-loss histogram.
type RiskChart struct {
	Method     string    `json:"method"`
	Paths      int       `json:"paths"`
	Horizon    int       `json:"horizon"`
	StartPrice float64   `json:"start_price"`
	ProbLoss   float64   `json:"prob_loss"`
	VaR90      float64   `json:"var_90"`
	VaR95      float64   `json:"var_95"`
	VaR99      float64   `json:"var_99"`
	CVaR90     float64   `json:"cvar_90"`
	CVaR95     float64   `json:"cvar_95"`
	CVaR99     float64   `json:"cvar_99"`
	PnL        Histogram `json:"pnl"`
}

func NewRiskChart(r *risk.Report, bins int) (*RiskChart, error) {
	hist, err := NewHistogram("profit and loss", r.PnL, bins)
	if err != nil {
		return nil, err
	}
	return &RiskChart{
		Method:     r.Method,
		Paths:      r.Paths,
		Horizon:    r.Horizon,
		StartPrice: r.StartPrice,
		ProbLoss:   r.ProbLoss,
		VaR90:      r.VaR90,
		VaR95:      r.VaR95,
		VaR99:      r.VaR99,
		CVaR90:     r.CVaR90,
		CVaR95:     r.CVaR95,
		CVaR99:     r.CVaR99,
		PnL:        *hist,
	}, nil
}
