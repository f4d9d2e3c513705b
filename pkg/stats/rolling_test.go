package stats

import (
	"errors"
	"math"
	"testing"
)

func TestRollingMean(t *testing.T) {
	s := testSeries(t, []float64{1, 2, 3, 4, 5})

	out, err := RollingMean(s, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 5 {
		t.Fatalf("len = %d, want 5", len(out))
	}
	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Errorf("expected NaN before window fills, got %v %v", out[0], out[1])
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if math.Abs(out[i+2]-w) > 1e-12 {
			t.Errorf("out[%d] = %v, want %v", i+2, out[i+2], w)
		}
	}
}

func TestRollingStd(t *testing.T) {
	s := testSeries(t, []float64{1, 3, 5, 5})

	out, err := RollingStd(s, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(out[0]) {
		t.Error("expected NaN at index 0")
	}
	// Sample std of {1,3} and {3,5} is sqrt(2); of {5,5} is 0.
	if math.Abs(out[1]-math.Sqrt2) > 1e-9 {
		t.Errorf("out[1] = %v, want sqrt(2)", out[1])
	}
	if math.Abs(out[2]-math.Sqrt2) > 1e-9 {
		t.Errorf("out[2] = %v, want sqrt(2)", out[2])
	}
	if math.Abs(out[3]) > 1e-9 {
		t.Errorf("out[3] = %v, want 0", out[3])
	}
}

func TestRolling_WindowErrors(t *testing.T) {
	s := testSeries(t, []float64{1, 2, 3})

	if _, err := RollingMean(s, 0); !errors.Is(err, ErrBadWindow) {
		t.Errorf("window 0 error = %v", err)
	}
	if _, err := RollingMean(s, 4); !errors.Is(err, ErrBadWindow) {
		t.Errorf("oversized window error = %v", err)
	}
	if _, err := RollingStd(s, 1); !errors.Is(err, ErrBadWindow) {
		t.Errorf("std window 1 error = %v", err)
	}
}

func TestRollingMean_MatchesDirect(t *testing.T) {
	s := testSeries(t, noise(50, 47))

	out, err := RollingMean(s, 7)
	if err != nil {
		t.Fatal(err)
	}
	for i := 6; i < s.Len(); i++ {
		var sum float64
		for j := i - 6; j <= i; j++ {
			sum += s.Values[j]
		}
		if math.Abs(out[i]-sum/7) > 1e-9 {
			t.Errorf("out[%d] = %v, want %v", i, out[i], sum/7)
		}
	}
}
