package forecast

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

func dailySeries(t *testing.T, values []float64) *timeseries.Series {
	t.Helper()
	s, err := timeseries.FromValues("test", timeseries.FreqDaily,
		time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), values)
	if err != nil {
		t.Fatalf("building series: %v", err)
	}
	return s
}

func quarterlySeries(t *testing.T, values []float64) *timeseries.Series {
	t.Helper()
	s, err := timeseries.FromValues("test", timeseries.FreqQuarterly,
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), values)
	if err != nil {
		t.Fatalf("building series: %v", err)
	}
	return s
}

func rampValues(n int, start, slope float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + slope*float64(i)
	}
	return out
}

// noisyTrend is a drifting level with standard normal noise.
func noisyTrend(n int, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 0.5*float64(i) + rng.NormFloat64()
	}
	return out
}

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestNewExperimentValidation(t *testing.T) {
	ok := dailySeries(t, rampValues(40, 100, 2))
	withZero := dailySeries(t, append(rampValues(29, 100, 2), 0))

	cases := []struct {
		name    string
		run     func() (*Experiment, error)
		wantErr error
	}{
		{"zero horizon", func() (*Experiment, error) {
			return NewExperiment(ok, 0)
		}, ErrInvalidConfig},
		{"unknown metric", func() (*Experiment, error) {
			return NewExperiment(ok, 5, WithMetric("wape"))
		}, ErrUnknownMetric},
		{"unknown transform", func() (*Experiment, error) {
			return NewExperiment(ok, 5, WithTransform("sqrt"))
		}, ErrInvalidConfig},
		{"log transform on zero values", func() (*Experiment, error) {
			return NewExperiment(withZero, 5, WithTransform(TransformLog))
		}, ErrInvalidConfig},
		{"zero folds", func() (*Experiment, error) {
			return NewExperiment(ok, 5, WithFolds(0))
		}, ErrInvalidConfig},
		{"too short", func() (*Experiment, error) {
			return NewExperiment(dailySeries(t, rampValues(29, 100, 2)), 5)
		}, ErrInsufficientData},
		{"boundary length", func() (*Experiment, error) {
			return NewExperiment(dailySeries(t, rampValues(30, 100, 2)), 5)
		}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.run()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestExperimentSplit(t *testing.T) {
	s := dailySeries(t, rampValues(40, 100, 2))
	e, err := NewExperiment(s, 5)
	if err != nil {
		t.Fatalf("experiment: %v", err)
	}

	if e.Train().Len() != 35 || e.Test().Len() != 5 {
		t.Fatalf("expected a 35/5 split, got %d/%d", e.Train().Len(), e.Test().Len())
	}
	if e.Horizon() != 5 || e.Folds() != 3 || e.Metric() != "mase" {
		t.Errorf("unexpected defaults: horizon %d folds %d metric %q", e.Horizon(), e.Folds(), e.Metric())
	}
	if e.Period() != 5 {
		t.Errorf("expected the trading-week period, got %d", e.Period())
	}
	if !e.Test().First().After(e.Train().Last()) {
		t.Error("hold-out window must start after the training window ends")
	}
}

func TestFoldPlanLayout(t *testing.T) {
	s := dailySeries(t, rampValues(30, 100, 2))
	e, err := NewExperiment(s, 5)
	if err != nil {
		t.Fatalf("experiment: %v", err)
	}

	plan := e.foldPlan()
	if len(plan) != 3 {
		t.Fatalf("expected 3 folds, got %d", len(plan))
	}
	wantEnds := []int{10, 15, 20}
	for i, f := range plan {
		if f.trainEnd != wantEnds[i] {
			t.Errorf("fold %d: expected train end %d, got %d", i, wantEnds[i], f.trainEnd)
		}
		if f.trainEnd < minTrainSize {
			t.Errorf("fold %d: training window shorter than the minimum", i)
		}
		if f.trainEnd+e.Horizon() > e.Train().Len() {
			t.Errorf("fold %d: test window runs past the training split", i)
		}
	}
	if last := plan[len(plan)-1]; last.trainEnd+e.Horizon() != e.Train().Len() {
		t.Error("last fold must touch the end of the training split")
	}
}

func TestFoldPlanCustomStep(t *testing.T) {
	s := dailySeries(t, rampValues(30, 100, 2))
	e, err := NewExperiment(s, 5, WithStep(2))
	if err != nil {
		t.Fatalf("experiment: %v", err)
	}

	plan := e.foldPlan()
	wantEnds := []int{16, 18, 20}
	for i, f := range plan {
		if f.trainEnd != wantEnds[i] {
			t.Errorf("fold %d: expected train end %d, got %d", i, wantEnds[i], f.trainEnd)
		}
	}
}
