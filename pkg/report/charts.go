// Package report renders analysis results into chart-ready JSON
// payloads, flat CSV artifacts and logged narrative summaries. Payload
// structs carry everything a front end needs to draw the figure, with
// undefined positions encoded as JSON nulls rather than NaN.
package report

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/peter-kozarec/solstice/pkg/stats"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

var ErrNoData = errors.New("no data to chart")

// optional maps NaN to a JSON null.
func optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func optionalSlice(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = optional(v)
	}
	return out
}

// PricePoint is one row of the price line chart. The rolling overlays
// are null until their window fills.
type PricePoint struct {
	Time        time.Time `json:"time"`
	Value       float64   `json:"value"`
	RollingMean *float64  `json:"rolling_mean"`
	RollingStd  *float64  `json:"rolling_std"`
}

type PriceChart struct {
	Series    string       `json:"series"`
	Frequency string       `json:"frequency"`
	Window    int          `json:"window"`
	Points    []PricePoint `json:"points"`
}

// NewPriceChart builds the price line payload with trailing mean and
// standard deviation overlays over the given window.
func NewPriceChart(s *timeseries.Series, window int) (*PriceChart, error) {
	mean, err := stats.RollingMean(s, window)
	if err != nil {
		return nil, fmt.Errorf("rolling mean: %w", err)
	}
	std, err := stats.RollingStd(s, window)
	if err != nil {
		return nil, fmt.Errorf("rolling std: %w", err)
	}

	points := make([]PricePoint, s.Len())
	for i := range points {
		points[i] = PricePoint{
			Time:        s.Times[i],
			Value:       s.Values[i],
			RollingMean: optional(mean[i]),
			RollingStd:  optional(std[i]),
		}
	}
	return &PriceChart{
		Series:    s.Name,
		Frequency: s.Freq.String(),
		Window:    window,
		Points:    points,
	}, nil
}

// HeatmapCell is the mean return observed in one month-weekday bucket.
type HeatmapCell struct {
	Month       int     `json:"month"`
	MonthName   string  `json:"month_name"`
	Weekday     int     `json:"weekday"`
	WeekdayName string  `json:"weekday_name"`
	MeanReturn  float64 `json:"mean_return"`
	Count       int     `json:"count"`
}

// CalendarHeatmap arranges period returns on a month-by-weekday grid.
// Only buckets with observations appear.
type CalendarHeatmap struct {
	Series  string        `json:"series"`
	Cells   []HeatmapCell `json:"cells"`
	MinMean float64       `json:"min_mean"`
	MaxMean float64       `json:"max_mean"`
}

func NewCalendarHeatmap(s *timeseries.Series) (*CalendarHeatmap, error) {
	rets, err := s.PctChange(1)
	if err != nil {
		return nil, fmt.Errorf("period returns: %w", err)
	}

	var sums [12][7]float64
	var counts [12][7]int
	for i, v := range rets.Values {
		if math.IsNaN(v) {
			continue
		}
		m := int(rets.Times[i].Month()) - 1
		wd := int(rets.Times[i].Weekday())
		sums[m][wd] += v
		counts[m][wd]++
	}

	hm := &CalendarHeatmap{
		Series:  s.Name,
		MinMean: math.Inf(1),
		MaxMean: math.Inf(-1),
	}
	for m := 0; m < 12; m++ {
		for wd := 0; wd < 7; wd++ {
			if counts[m][wd] == 0 {
				continue
			}
			mean := sums[m][wd] / float64(counts[m][wd])
			hm.Cells = append(hm.Cells, HeatmapCell{
				Month:       m + 1,
				MonthName:   time.Month(m + 1).String(),
				Weekday:     wd,
				WeekdayName: time.Weekday(wd).String(),
				MeanReturn:  mean,
				Count:       counts[m][wd],
			})
			hm.MinMean = math.Min(hm.MinMean, mean)
			hm.MaxMean = math.Max(hm.MaxMean, mean)
		}
	}
	if len(hm.Cells) == 0 {
		return nil, ErrNoData
	}
	return hm, nil
}

// DecompositionChart carries the four panels of a classical seasonal
// decomposition. Trend and residual are null at the edges the centered
// moving average cannot reach.
type DecompositionChart struct {
	Series   string      `json:"series"`
	Mode     string      `json:"mode"`
	Period   int         `json:"period"`
	Times    []time.Time `json:"times"`
	Observed []float64   `json:"observed"`
	Trend    []*float64  `json:"trend"`
	Seasonal []float64   `json:"seasonal"`
	Residual []*float64  `json:"residual"`
}

func NewDecompositionChart(d *stats.Decomposition) *DecompositionChart {
	return &DecompositionChart{
		Series:   d.Original.Name,
		Mode:     string(d.Mode),
		Period:   d.Period,
		Times:    d.Original.Times,
		Observed: d.Original.Values,
		Trend:    optionalSlice(d.Trend.Values),
		Seasonal: d.Seasonal.Values,
		Residual: optionalSlice(d.Residual.Values),
	}
}

// ACFChart is a correlogram bar payload with its white-noise confidence
// bound.
type ACFChart struct {
	Series    string    `json:"series"`
	Kind      string    `json:"kind"`
	Lags      []int     `json:"lags"`
	Values    []float64 `json:"values"`
	ConfBound float64   `json:"conf_bound"`
}

func NewACFChart(series, kind string, c *stats.Correlogram) *ACFChart {
	return &ACFChart{
		Series:    series,
		Kind:      kind,
		Lags:      c.Lags,
		Values:    c.Values,
		ConfBound: c.ConfBound,
	}
}
