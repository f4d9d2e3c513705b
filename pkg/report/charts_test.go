package report

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/peter-kozarec/solstice/pkg/forecast"
	"github.com/peter-kozarec/solstice/pkg/models"
	"github.com/peter-kozarec/solstice/pkg/risk"
	"github.com/peter-kozarec/solstice/pkg/stats"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

func dailySeries(t *testing.T, values []float64) *timeseries.Series {
	t.Helper()
	start := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	s, err := timeseries.FromValues("close", timeseries.FreqDaily, start, values)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	return s
}

func quarterlySeries(t *testing.T, values []float64) *timeseries.Series {
	t.Helper()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := timeseries.FromValues("close", timeseries.FreqQuarterly, start, values)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	return s
}

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestNewPriceChart(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 100 + 2*float64(i)
	}
	s := dailySeries(t, values)

	chart, err := NewPriceChart(s, 5)
	if err != nil {
		t.Fatalf("price chart: %v", err)
	}

	if chart.Series != "close" || chart.Frequency != "daily" || chart.Window != 5 {
		t.Errorf("unexpected header %+v", chart)
	}
	if len(chart.Points) != 30 {
		t.Fatalf("expected 30 points, got %d", len(chart.Points))
	}
	if chart.Points[3].RollingMean != nil {
		t.Error("overlay should be null before the window fills")
	}
	if chart.Points[4].RollingMean == nil {
		t.Fatal("overlay missing once the window fills")
	}
	if !approx(*chart.Points[4].RollingMean, 104, 1e-9) {
		t.Errorf("expected rolling mean 104, got %v", *chart.Points[4].RollingMean)
	}
	if !approx(*chart.Points[4].RollingStd, math.Sqrt(10), 1e-9) {
		t.Errorf("expected rolling std sqrt(10), got %v", *chart.Points[4].RollingStd)
	}
	if chart.Points[7].Value != s.Values[7] || !chart.Points[7].Time.Equal(s.Times[7]) {
		t.Error("points must mirror the series")
	}
}

func TestNewCalendarHeatmap(t *testing.T) {
	values := make([]float64, 30)
	price := 100.0
	for i := range values {
		values[i] = price
		price *= 1.01
	}
	s := dailySeries(t, values)

	hm, err := NewCalendarHeatmap(s)
	if err != nil {
		t.Fatalf("heatmap: %v", err)
	}

	total := 0
	for _, c := range hm.Cells {
		total += c.Count
		if c.Weekday < 1 || c.Weekday > 5 {
			t.Errorf("daily calendar only has weekdays, got %d", c.Weekday)
		}
		if !approx(c.MeanReturn, 0.01, 1e-12) {
			t.Errorf("cell %s/%s: expected mean return 0.01, got %v",
				c.MonthName, c.WeekdayName, c.MeanReturn)
		}
	}
	if total != 29 {
		t.Errorf("expected 29 returns across cells, got %d", total)
	}
	if !approx(hm.MinMean, 0.01, 1e-12) || !approx(hm.MaxMean, 0.01, 1e-12) {
		t.Errorf("constant growth should pin min and max, got %v..%v", hm.MinMean, hm.MaxMean)
	}
}

func TestNewDecompositionChart(t *testing.T) {
	pattern := []float64{10, 12, 8, 14}
	values := make([]float64, 16)
	for i := range values {
		values[i] = 0.5*float64(i) + pattern[i%4]
	}
	s := quarterlySeries(t, values)

	d, err := stats.Decompose(s, 4, stats.Additive)
	if err != nil {
		t.Fatalf("decompose: %v", err)
	}
	chart := NewDecompositionChart(d)

	if chart.Mode != "additive" || chart.Period != 4 {
		t.Errorf("unexpected header %+v", chart)
	}
	if len(chart.Times) != 16 || len(chart.Observed) != 16 ||
		len(chart.Trend) != 16 || len(chart.Seasonal) != 16 || len(chart.Residual) != 16 {
		t.Fatal("panels must align with the series")
	}
	if chart.Trend[0] != nil {
		t.Error("trend edge should be null")
	}
	if chart.Trend[8] == nil {
		t.Error("interior trend missing")
	}
	for i, v := range chart.Seasonal {
		if math.IsNaN(v) {
			t.Fatalf("seasonal component has NaN at %d", i)
		}
	}
}

func TestNewACFChart(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 100 + 2*float64(i)
	}
	s := dailySeries(t, values)

	c, err := stats.ACFWithConfidence(s, 10)
	if err != nil {
		t.Fatalf("acf: %v", err)
	}
	chart := NewACFChart("close", "acf", c)

	if chart.Kind != "acf" || chart.Series != "close" {
		t.Errorf("unexpected header %+v", chart)
	}
	if len(chart.Lags) != 11 || len(chart.Values) != 11 {
		t.Errorf("expected lags 0..10, got %d values", len(chart.Values))
	}
	if !approx(chart.ConfBound, 1.96/math.Sqrt(50), 1e-12) {
		t.Errorf("unexpected confidence bound %v", chart.ConfBound)
	}
}

func TestNewHistogram(t *testing.T) {
	h, err := NewHistogram("sample", []float64{1, 1, 2, 3, math.NaN(), 5, 8}, 2)
	if err != nil {
		t.Fatalf("histogram: %v", err)
	}
	if h.Count != 6 {
		t.Errorf("expected NaN dropped from count, got %d", h.Count)
	}
	if len(h.Bins) != 2 {
		t.Fatalf("expected 2 bins, got %d", len(h.Bins))
	}
	if h.Bins[0].Count != 4 || h.Bins[1].Count != 2 {
		t.Errorf("unexpected bin counts %d and %d", h.Bins[0].Count, h.Bins[1].Count)
	}
	if h.Bins[0].Lower != 1 || h.Bins[1].Upper != 8 {
		t.Errorf("bins must span the sample, got %+v", h.Bins)
	}
	if !approx(h.Mean, 20.0/6.0, 1e-9) {
		t.Errorf("unexpected mean %v", h.Mean)
	}

	flat, err := NewHistogram("flat", []float64{7, 7, 7}, 10)
	if err != nil {
		t.Fatalf("flat histogram: %v", err)
	}
	if len(flat.Bins) != 1 || flat.Bins[0].Count != 3 {
		t.Errorf("constant sample should collapse to one bin, got %+v", flat.Bins)
	}

	if _, err := NewHistogram("empty", []float64{math.NaN()}, 4); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
	if _, err := NewHistogram("bad", []float64{1, 2}, 0); err == nil {
		t.Error("expected an error for zero bins")
	}
}

func TestNewForecastChart(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	s := dailySeries(t, values)

	points := make([]models.Point, 5)
	for h := range points {
		points[h] = models.Point{Time: s.Last().AddDate(0, 0, h+1), Mean: 120 + float64(h)}
	}

	chart := NewForecastChart(s, "drift", points, 10)
	if chart.Model != "drift" || chart.Horizon != 5 {
		t.Errorf("unexpected header %+v", chart)
	}
	if len(chart.History) != 10 {
		t.Fatalf("expected 10 history points, got %d", len(chart.History))
	}
	if !chart.History[0].Time.Equal(s.Times[10]) {
		t.Error("history must keep the series tail")
	}

	full := NewForecastChart(s, "drift", points, 0)
	if len(full.History) != 20 {
		t.Errorf("non-positive tail should keep everything, got %d", len(full.History))
	}
}

func TestNewLeaderboardTable(t *testing.T) {
	l := &forecast.Leaderboard{
		Metric: "mase",
		Entries: []forecast.Entry{
			{Model: "drift", Metrics: forecast.Metrics{MAE: 1, RMSE: 1.5, MAPE: 2, SMAPE: 2, MASE: 0.5, R2: 0.9}},
			{Model: "naive", Metrics: forecast.Metrics{MAE: 2, RMSE: 2.5, MAPE: 4, SMAPE: 4, MASE: math.NaN(), R2: 0.1}},
		},
	}

	table := NewLeaderboardTable(l)
	if table.Metric != "mase" || table.Best != "drift" {
		t.Errorf("unexpected header %+v", table)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[0].Rank != 1 || table.Rows[1].Rank != 2 {
		t.Error("ranks must follow the sorted entries")
	}
	if table.Rows[0].MASE == nil || *table.Rows[0].MASE != 0.5 {
		t.Error("finite metric lost")
	}
	if table.Rows[1].MASE != nil {
		t.Error("NaN metric must become null")
	}
}

func TestNewRiskChart(t *testing.T) {
	r := &risk.Report{
		Method:     "bootstrap",
		Paths:      4,
		Horizon:    5,
		StartPrice: 100,
		ProbLoss:   0.25,
		VaR90:      -3,
		VaR95:      -4,
		VaR99:      -5,
		CVaR90:     -4,
		CVaR95:     -4.5,
		CVaR99:     -5,
		PnL:        []float64{-5, -1, 2, 6},
	}

	chart, err := NewRiskChart(r, 2)
	if err != nil {
		t.Fatalf("risk chart: %v", err)
	}
	if chart.Method != "bootstrap" || chart.VaR95 != -4 || chart.ProbLoss != 0.25 {
		t.Errorf("headline numbers lost: %+v", chart)
	}
	if chart.PnL.Count != 4 {
		t.Errorf("expected 4 outcomes in the histogram, got %d", chart.PnL.Count)
	}
}
