package stats

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

func testSeries(t *testing.T, values []float64) *timeseries.Series {
	t.Helper()
	s, err := timeseries.FromValues("test", timeseries.FreqDaily,
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), values)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// noise returns a deterministic white-noise-like sequence in [-1, 1).
func noise(n int, seed uint64) []float64 {
	r := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]float64, n)
	for i := range out {
		out[i] = 2*r.Float64() - 1
	}
	return out
}

func TestDescribe(t *testing.T) {
	s := testSeries(t, []float64{2, 4, 4, 4, 5, 5, 7, 9})

	sum, err := Describe(s)
	if err != nil {
		t.Fatal(err)
	}

	if sum.Count != 8 {
		t.Errorf("Count = %d, want 8", sum.Count)
	}
	if sum.Mean != 5 {
		t.Errorf("Mean = %v, want 5", sum.Mean)
	}
	if sum.Min != 2 || sum.Max != 9 {
		t.Errorf("Min/Max = %v/%v, want 2/9", sum.Min, sum.Max)
	}
	if sum.Median != 4 {
		t.Errorf("Median = %v, want 4", sum.Median)
	}
	if math.Abs(sum.Std-math.Sqrt(32.0/7.0)) > 1e-12 {
		t.Errorf("Std = %v, want %v", sum.Std, math.Sqrt(32.0/7.0))
	}
	if sum.P25 > sum.Median || sum.Median > sum.P75 {
		t.Errorf("quantiles out of order: %v %v %v", sum.P25, sum.Median, sum.P75)
	}
}

func TestDescribe_Empty(t *testing.T) {
	if _, err := Describe(&timeseries.Series{}); err == nil {
		t.Error("expected error for empty series")
	}
}
