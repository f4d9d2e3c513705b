package models

import (
	"errors"
	"math"
	"testing"
)

func TestHoltWintersPureSeasonal(t *testing.T) {
	// Flat level plus a zero-mean quarterly pattern. The first-cycle
	// initialisation recovers the states exactly, the recursion keeps
	// them fixed and the forecast repeats the pattern.
	pattern := []float64{2, -1, 0.5, -1.5}
	values := make([]float64, 48)
	for i := range values {
		values[i] = 10 + pattern[i%4]
	}

	m := NewHoltWinters(0, 0, 0, 0)
	if err := m.Fit(mustQuarterly(t, values)); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	p := m.Params()
	if p["period"] != 4 {
		t.Fatalf("expected period 4, got %v", p["period"])
	}
	if !approx(p["level"], 10, 1e-9) {
		t.Errorf("expected level 10, got %v", p["level"])
	}
	if !approx(p["trend"], 0, 1e-9) {
		t.Errorf("expected zero trend, got %v", p["trend"])
	}
	if !approx(p["sigma"], 0, 1e-9) {
		t.Errorf("expected zero sigma, got %v", p["sigma"])
	}

	fitted := m.Fitted()
	for i := 0; i < 4; i++ {
		if !math.IsNaN(fitted[i]) {
			t.Errorf("fitted[%d]: expected NaN in the first cycle, got %v", i, fitted[i])
		}
	}
	for i := 4; i < len(fitted); i++ {
		if !approx(fitted[i], values[i], 1e-9) {
			t.Fatalf("fitted[%d]: expected %v, got %v", i, values[i], fitted[i])
		}
	}

	points, err := m.Forecast(8)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	for h, pt := range points {
		want := 10 + pattern[h%4]
		if !approx(pt.Mean, want, 1e-9) {
			t.Errorf("forecast %d: expected %v, got %v", h, want, pt.Mean)
		}
	}
}

func TestHoltWintersPinnedParameters(t *testing.T) {
	values := make([]float64, 24)
	for i := range values {
		values[i] = 100 + 3*float64(i%4) + float64(i)/2
	}

	m := NewHoltWinters(0.5, 0.3, 0.2, 0)
	if err := m.Fit(mustQuarterly(t, values)); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	p := m.Params()
	if p["alpha"] != 0.5 || p["beta"] != 0.3 || p["gamma"] != 0.2 {
		t.Errorf("expected the pinned smoothing parameters to survive, got alpha %v beta %v gamma %v",
			p["alpha"], p["beta"], p["gamma"])
	}
}

func TestHoltWintersPeriodFromConstructor(t *testing.T) {
	// Alternating two-point pattern on daily data, period pinned to 2
	// instead of the trading-week default.
	values := make([]float64, 20)
	for i := range values {
		values[i] = 50 + 5*float64(i%2)
	}

	m := NewHoltWinters(0.2, 0.1, 0.1, 2)
	if err := m.Fit(mustDaily(t, values)); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if got := m.Params()["period"]; got != 2 {
		t.Fatalf("expected period 2, got %v", got)
	}

	points, err := m.Forecast(2)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	if !approx(points[0].Mean, 50, 1e-9) || !approx(points[1].Mean, 55, 1e-9) {
		t.Errorf("expected the pattern to repeat as 50, 55, got %v, %v", points[0].Mean, points[1].Mean)
	}
}

func TestHoltWintersErrors(t *testing.T) {
	yearly, err := timeseriesYearly([]float64{1, 2, 3, 4, 5, 6, 7, 8})
	if err != nil {
		t.Fatalf("building series: %v", err)
	}
	if err := NewHoltWinters(0, 0, 0, 0).Fit(yearly); !errors.Is(err, ErrNoSeasonality) {
		t.Errorf("expected ErrNoSeasonality for yearly data, got %v", err)
	}

	short := mustQuarterly(t, []float64{1, 2, 3, 4, 5, 6, 7})
	if err := NewHoltWinters(0, 0, 0, 0).Fit(short); !errors.Is(err, ErrDegenerateModel) {
		t.Errorf("expected ErrDegenerateModel below two full cycles, got %v", err)
	}
}
