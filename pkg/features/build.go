package features

import (
	"fmt"
	"math"
	"time"

	"github.com/peter-kozarec/solstice/pkg/stats"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

type Config struct {
	Calendar       bool
	Lags           []int
	RollingWindows []int
	MomentumLags   []int
	LogReturns     bool
}

func DefaultConfig() Config {
	return Config{
		Calendar:       true,
		Lags:           []int{1, 5},
		RollingWindows: []int{5, 20},
		MomentumLags:   []int{1, 5, 21},
		LogReturns:     true,
	}
}

// Build derives the configured columns from the series. The first column
// is always the raw value. Rows whose lags or windows reach before the
// start of the series hold NaN until DropNaN removes them.
func Build(s *timeseries.Series, cfg Config) (*Frame, error) {
	if s == nil || s.Len() == 0 {
		return nil, timeseries.ErrEmpty
	}

	times := make([]time.Time, s.Len())
	copy(times, s.Times)
	f := NewFrame(times)

	values := make([]float64, s.Len())
	copy(values, s.Values)
	if err := f.AddColumn("value", values); err != nil {
		return nil, err
	}

	if cfg.Calendar {
		addCalendar(f)
	}

	for _, lag := range cfg.Lags {
		if lag < 1 {
			return nil, fmt.Errorf("lag must be positive, got %d", lag)
		}
		if err := f.AddColumn(fmt.Sprintf("lag_%d", lag), shift(s.Values, lag)); err != nil {
			return nil, err
		}
	}

	for _, w := range cfg.RollingWindows {
		mean, err := stats.RollingMean(s, w)
		if err != nil {
			return nil, fmt.Errorf("rolling window %d: %w", w, err)
		}
		if err := f.AddColumn(fmt.Sprintf("roll_mean_%d", w), mean); err != nil {
			return nil, err
		}
		std, err := stats.RollingStd(s, w)
		if err != nil {
			return nil, fmt.Errorf("rolling window %d: %w", w, err)
		}
		if err := f.AddColumn(fmt.Sprintf("roll_std_%d", w), std); err != nil {
			return nil, err
		}
	}

	for _, lag := range cfg.MomentumLags {
		if lag < 1 {
			return nil, fmt.Errorf("momentum lag must be positive, got %d", lag)
		}
		if err := f.AddColumn(fmt.Sprintf("mom_%d", lag), momentum(s.Values, lag)); err != nil {
			return nil, err
		}
	}

	if cfg.LogReturns {
		if err := f.AddColumn("log_ret", logReturns(s.Values)); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func addCalendar(f *Frame) {
	n := len(f.Times)
	year := make([]float64, n)
	quarter := make([]float64, n)
	month := make([]float64, n)
	week := make([]float64, n)
	day := make([]float64, n)
	dow := make([]float64, n)
	doy := make([]float64, n)

	for i, t := range f.Times {
		year[i] = float64(t.Year())
		quarter[i] = float64((int(t.Month())-1)/3 + 1)
		month[i] = float64(t.Month())
		_, isoWeek := t.ISOWeek()
		week[i] = float64(isoWeek)
		day[i] = float64(t.Day())
		dow[i] = float64(t.Weekday())
		doy[i] = float64(t.YearDay())
	}

	// Frame and columns share the same length.
	_ = f.AddColumn("year", year)
	_ = f.AddColumn("quarter", quarter)
	_ = f.AddColumn("month", month)
	_ = f.AddColumn("week", week)
	_ = f.AddColumn("day", day)
	_ = f.AddColumn("day_of_week", dow)
	_ = f.AddColumn("day_of_year", doy)
}

// shift moves values forward by lag, filling the head with NaN.
func shift(values []float64, lag int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if i < lag {
			out[i] = math.NaN()
		} else {
			out[i] = values[i-lag]
		}
	}
	return out
}

// momentum is the fractional change against the value lag rows back.
func momentum(values []float64, lag int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if i < lag || values[i-lag] == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = (values[i] - values[i-lag]) / values[i-lag]
		}
	}
	return out
}

func logReturns(values []float64) []float64 {
	out := make([]float64, len(values))
	out[0] = math.NaN()
	for i := 1; i < len(values); i++ {
		if values[i] <= 0 || values[i-1] <= 0 {
			out[i] = math.NaN()
		} else {
			out[i] = math.Log(values[i] / values[i-1])
		}
	}
	return out
}
