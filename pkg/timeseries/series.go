// Package timeseries holds the univariate series representation shared by
// the statistics, feature and forecasting layers, together with CSV
// ingestion and the value transforms applied before modelling.
package timeseries

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrEmpty            = errors.New("series is empty")
	ErrTooShort         = errors.New("series is too short")
	ErrLenMismatch      = errors.New("timestamps and values length mismatch")
	ErrNotChronological = errors.New("timestamps are not strictly increasing")
	ErrNonPositive      = errors.New("series contains non-positive values")
	ErrBadSplit         = errors.New("invalid split point")
)

type Frequency int

const (
	FreqUnknown Frequency = iota
	FreqHourly
	FreqDaily
	FreqWeekly
	FreqMonthly
	FreqQuarterly
	FreqYearly
)

func (f Frequency) String() string {
	switch f {
	case FreqHourly:
		return "hourly"
	case FreqDaily:
		return "daily"
	case FreqWeekly:
		return "weekly"
	case FreqMonthly:
		return "monthly"
	case FreqQuarterly:
		return "quarterly"
	case FreqYearly:
		return "yearly"
	default:
		return "unknown"
	}
}

// ParseFrequency maps a frequency name back to its constant.
func ParseFrequency(name string) (Frequency, error) {
	switch name {
	case "hourly":
		return FreqHourly, nil
	case "daily":
		return FreqDaily, nil
	case "weekly":
		return FreqWeekly, nil
	case "monthly":
		return FreqMonthly, nil
	case "quarterly":
		return FreqQuarterly, nil
	case "yearly":
		return FreqYearly, nil
	default:
		return FreqUnknown, fmt.Errorf("unknown frequency %q", name)
	}
}

// SeasonalPeriod returns the conventional cycle length for the frequency.
// Daily data uses 5, the trading-week cycle.
func (f Frequency) SeasonalPeriod() int {
	switch f {
	case FreqHourly:
		return 24
	case FreqDaily:
		return 5
	case FreqWeekly:
		return 52
	case FreqMonthly:
		return 12
	case FreqQuarterly:
		return 4
	default:
		return 1
	}
}

// PeriodsPerYear returns the annualization factor for the frequency.
// Daily data uses 252 trading days.
func (f Frequency) PeriodsPerYear() float64 {
	switch f {
	case FreqHourly:
		return 24 * 252
	case FreqDaily:
		return 252
	case FreqWeekly:
		return 52
	case FreqMonthly:
		return 12
	case FreqQuarterly:
		return 4
	case FreqYearly:
		return 1
	default:
		return 252
	}
}

// Step advances t by one frequency interval. Daily steps skip weekends so
// generated calendars stay on trading days.
func (f Frequency) Step(t time.Time) time.Time {
	switch f {
	case FreqHourly:
		return t.Add(time.Hour)
	case FreqDaily:
		next := t.AddDate(0, 0, 1)
		for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
			next = next.AddDate(0, 0, 1)
		}
		return next
	case FreqWeekly:
		return t.AddDate(0, 0, 7)
	case FreqMonthly:
		return t.AddDate(0, 1, 0)
	case FreqQuarterly:
		return t.AddDate(0, 3, 0)
	case FreqYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

type Series struct {
	Name   string
	Freq   Frequency
	Times  []time.Time
	Values []float64
}

// New builds a series from parallel timestamp and value slices. Rows are
// sorted by time; duplicate timestamps are rejected.
func New(name string, freq Frequency, times []time.Time, values []float64) (*Series, error) {
	if len(values) == 0 {
		return nil, ErrEmpty
	}
	if len(times) != len(values) {
		return nil, fmt.Errorf("%w: %d timestamps, %d values", ErrLenMismatch, len(times), len(values))
	}

	idx := make([]int, len(times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return times[idx[a]].Before(times[idx[b]]) })

	s := &Series{
		Name:   name,
		Freq:   freq,
		Times:  make([]time.Time, len(times)),
		Values: make([]float64, len(values)),
	}
	for i, j := range idx {
		s.Times[i] = times[j]
		s.Values[i] = values[j]
	}
	for i := 1; i < len(s.Times); i++ {
		if !s.Times[i].After(s.Times[i-1]) {
			return nil, fmt.Errorf("%w: duplicate at %s", ErrNotChronological, s.Times[i].Format(time.RFC3339))
		}
	}
	return s, nil
}

// FromValues builds a series on a generated calendar starting at start.
func FromValues(name string, freq Frequency, start time.Time, values []float64) (*Series, error) {
	if len(values) == 0 {
		return nil, ErrEmpty
	}
	times := make([]time.Time, len(values))
	t := start
	for i := range values {
		times[i] = t
		t = freq.Step(t)
	}
	return &Series{Name: name, Freq: freq, Times: times, Values: values}, nil
}

// FromBars extracts the close prices of chronologically ordered bars.
func FromBars(name string, freq Frequency, bars []Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, ErrEmpty
	}
	times := make([]time.Time, len(bars))
	values := make([]float64, len(bars))
	for i, b := range bars {
		c, ok := b.Close.Float64()
		if !ok {
			return nil, fmt.Errorf("bar %d: close %s does not fit float64", i, b.Close.String())
		}
		times[i] = b.TimeStamp
		values[i] = c
	}
	return New(name, freq, times, values)
}

func (s *Series) Len() int {
	return len(s.Values)
}

func (s *Series) First() time.Time {
	return s.Times[0]
}

func (s *Series) Last() time.Time {
	return s.Times[len(s.Times)-1]
}

func (s *Series) LastValue() float64 {
	return s.Values[len(s.Values)-1]
}

func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)
	times := make([]time.Time, len(s.Times))
	copy(times, s.Times)
	return &Series{Name: s.Name, Freq: s.Freq, Times: times, Values: values}
}

// Slice returns a copy of the [start, end) index range.
func (s *Series) Slice(start, end int) (*Series, error) {
	if start < 0 || end > s.Len() || start >= end {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrBadSplit, start, end, s.Len())
	}
	values := make([]float64, end-start)
	copy(values, s.Values[start:end])
	times := make([]time.Time, end-start)
	copy(times, s.Times[start:end])
	return &Series{Name: s.Name, Freq: s.Freq, Times: times, Values: values}, nil
}

// Window returns the sub-series with from <= t <= to.
func (s *Series) Window(from, to time.Time) (*Series, error) {
	start := sort.Search(s.Len(), func(i int) bool { return !s.Times[i].Before(from) })
	end := sort.Search(s.Len(), func(i int) bool { return s.Times[i].After(to) })
	if start >= end {
		return nil, fmt.Errorf("%w: no observations in [%s, %s]",
			ErrEmpty, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return s.Slice(start, end)
}

func (s *Series) Head(n int) (*Series, error) {
	if n <= 0 || n > s.Len() {
		return nil, fmt.Errorf("%w: head %d of %d", ErrBadSplit, n, s.Len())
	}
	return s.Slice(0, n)
}

func (s *Series) Tail(n int) (*Series, error) {
	if n <= 0 || n > s.Len() {
		return nil, fmt.Errorf("%w: tail %d of %d", ErrBadSplit, n, s.Len())
	}
	return s.Slice(s.Len()-n, s.Len())
}

// Split divides the series into train (first n points) and test (rest).
func (s *Series) Split(n int) (*Series, *Series, error) {
	if n <= 0 || n >= s.Len() {
		return nil, nil, fmt.Errorf("%w: train size %d of %d", ErrBadSplit, n, s.Len())
	}
	train, err := s.Slice(0, n)
	if err != nil {
		return nil, nil, err
	}
	test, err := s.Slice(n, s.Len())
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

// SplitFraction splits by train fraction, e.g. 0.8.
func (s *Series) SplitFraction(f float64) (*Series, *Series, error) {
	if f <= 0 || f >= 1 {
		return nil, nil, fmt.Errorf("%w: fraction %v", ErrBadSplit, f)
	}
	n := int(float64(s.Len()) * f)
	return s.Split(n)
}

func (s *Series) Mean() float64 {
	return stat.Mean(s.Values, nil)
}

// Variance is the sample variance (n-1 denominator).
func (s *Series) Variance() float64 {
	if s.Len() < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

func (s *Series) Std() float64 {
	if s.Len() < 2 {
		return 0
	}
	return stat.StdDev(s.Values, nil)
}

func (s *Series) Min() float64 {
	min := s.Values[0]
	for _, v := range s.Values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

func (s *Series) Max() float64 {
	max := s.Values[0]
	for _, v := range s.Values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

func (s *Series) Median() float64 {
	return s.Quantile(0.5)
}

// Quantile computes the empirical q-quantile, q in [0, 1].
func (s *Series) Quantile(q float64) float64 {
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)
	return stat.Quantile(q, stat.Empirical, sorted, nil)
}
