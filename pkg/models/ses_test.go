package models

import (
	"errors"
	"math"
	"testing"
)

func TestSESPinnedAlpha(t *testing.T) {
	m := NewSES(0.5)
	if err := m.Fit(mustDaily(t, []float64{2, 4, 6, 8})); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	// Level recursion with alpha 0.5: 2, 3, 4.5, 6.25.
	if !approx(m.Params()["level"], 6.25, 1e-12) {
		t.Errorf("expected level 6.25, got %v", m.Params()["level"])
	}

	fitted := m.Fitted()
	if !math.IsNaN(fitted[0]) {
		t.Error("first fitted value must be NaN")
	}
	for i, want := range []float64{2, 3, 4.5} {
		if !approx(fitted[i+1], want, 1e-12) {
			t.Errorf("fitted[%d]: expected %v, got %v", i+1, want, fitted[i+1])
		}
	}

	points, err := m.Forecast(3)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	for h := range points {
		if !approx(points[h].Mean, 6.25, 1e-12) {
			t.Errorf("step %d: ses forecasts must be flat, got %v", h+1, points[h].Mean)
		}
	}

	// Interval grows with horizon for positive alpha.
	se1 := (points[0].Upper95 - points[0].Mean) / z95
	se3 := (points[2].Upper95 - points[2].Mean) / z95
	if se3 <= se1 {
		t.Errorf("expected widening intervals: se1=%v se3=%v", se1, se3)
	}
}

func TestSESOptimizedOnConstantSeries(t *testing.T) {
	m := NewSES(0)
	if err := m.Fit(mustDaily(t, []float64{5, 5, 5, 5, 5})); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	points, err := m.Forecast(2)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	if !approx(points[0].Mean, 5, 1e-9) || !approx(points[1].Mean, 5, 1e-9) {
		t.Errorf("expected flat 5 forecast, got %v and %v", points[0].Mean, points[1].Mean)
	}
	if !approx(m.Params()["sigma"], 0, 1e-9) {
		t.Errorf("expected zero sigma on a constant series, got %v", m.Params()["sigma"])
	}
}

func TestSESOptimizedTracksPersistence(t *testing.T) {
	// Strongly autocorrelated data should push the optimised alpha
	// well above zero.
	m := NewSES(0)
	if err := m.Fit(mustDaily(t, autoregressive(200, 0.9, 21))); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if alpha := m.Params()["alpha"]; alpha < 0.3 {
		t.Errorf("expected a high alpha for persistent data, got %v", alpha)
	}
}

func TestSESTooShort(t *testing.T) {
	m := NewSES(0.3)
	if err := m.Fit(mustDaily(t, []float64{1, 2, 3})); !errors.Is(err, ErrDegenerateModel) {
		t.Fatalf("expected ErrDegenerateModel, got %v", err)
	}
}

func TestHoltExactLine(t *testing.T) {
	m := NewHolt(0, 0)
	if err := m.Fit(mustDaily(t, []float64{10, 12, 14, 16, 18, 20})); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	if !approx(m.Params()["level"], 20, 1e-9) {
		t.Errorf("expected level 20, got %v", m.Params()["level"])
	}
	if !approx(m.Params()["trend"], 2, 1e-9) {
		t.Errorf("expected trend 2, got %v", m.Params()["trend"])
	}
	if !approx(m.Params()["sigma"], 0, 1e-9) {
		t.Errorf("expected zero sigma on an exact line, got %v", m.Params()["sigma"])
	}

	points, err := m.Forecast(3)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	for h, want := range []float64{22, 24, 26} {
		if !approx(points[h].Mean, want, 1e-9) {
			t.Errorf("step %d: expected %v, got %v", h+1, want, points[h].Mean)
		}
	}
}

func TestHoltPinnedParameters(t *testing.T) {
	m := NewHolt(0.8, 0.2)
	if err := m.Fit(mustDaily(t, autoregressive(50, 0.5, 33))); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if m.Params()["alpha"] != 0.8 || m.Params()["beta"] != 0.2 {
		t.Errorf("pinned parameters must survive fit, got alpha=%v beta=%v",
			m.Params()["alpha"], m.Params()["beta"])
	}
}

func TestHoltTooShort(t *testing.T) {
	m := NewHolt(0.5, 0.1)
	if err := m.Fit(mustDaily(t, []float64{1, 2, 3, 4})); !errors.Is(err, ErrDegenerateModel) {
		t.Fatalf("expected ErrDegenerateModel, got %v", err)
	}
}
