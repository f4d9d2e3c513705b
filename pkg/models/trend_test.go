package models

import (
	"errors"
	"math"
	"testing"
)

func TestTrendExactLine(t *testing.T) {
	values := make([]float64, 10)
	for i := range values {
		values[i] = 3 + 2*float64(i)
	}
	s, err := timeseriesYearly(values)
	if err != nil {
		t.Fatalf("building series: %v", err)
	}

	m := NewTrend(0)
	if err := m.Fit(s); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	p := m.Params()
	if p["pairs"] != 0 {
		t.Fatalf("expected no fourier pairs on yearly data, got %v", p["pairs"])
	}
	if !approx(p["intercept"], 3, 1e-9) || !approx(p["slope"], 2, 1e-9) {
		t.Errorf("expected coefficients 3 and 2, got %v and %v", p["intercept"], p["slope"])
	}
	if !approx(p["sigma"], 0, 1e-9) {
		t.Errorf("expected zero sigma on an exact line, got %v", p["sigma"])
	}

	points, err := m.Forecast(3)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	for h, want := range []float64{23, 25, 27} {
		if !approx(points[h].Mean, want, 1e-9) {
			t.Errorf("forecast %d: expected %v, got %v", h, want, points[h].Mean)
		}
		if !approx(points[h].Upper95-points[h].Mean, 0, 1e-9) {
			t.Errorf("forecast %d: expected a degenerate interval, got half width %v",
				h, points[h].Upper95-points[h].Mean)
		}
	}
}

func TestTrendFourierSeasonality(t *testing.T) {
	// Flat level with a first-harmonic quarterly pattern over three
	// full cycles. A single fourier pair reproduces it exactly.
	values := make([]float64, 12)
	for i := range values {
		angle := math.Pi * float64(i) / 2
		values[i] = 5 + 2*math.Sin(angle) + math.Cos(angle)
	}

	m := NewTrend(0)
	if err := m.Fit(mustQuarterly(t, values)); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	p := m.Params()
	if p["pairs"] != 1 || p["period"] != 4 {
		t.Fatalf("expected one pair on a quarterly cycle, got pairs %v period %v", p["pairs"], p["period"])
	}
	if !approx(p["slope"], 0, 1e-9) {
		t.Errorf("expected zero slope, got %v", p["slope"])
	}
	if !approx(p["sin_1"], 2, 1e-9) || !approx(p["cos_1"], 1, 1e-9) {
		t.Errorf("expected harmonic coefficients 2 and 1, got %v and %v", p["sin_1"], p["cos_1"])
	}

	points, err := m.Forecast(4)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	for h, want := range []float64{6, 7, 4, 3} {
		if !approx(points[h].Mean, want, 1e-9) {
			t.Errorf("forecast %d: expected %v, got %v", h, want, points[h].Mean)
		}
	}
}

func TestTrendPeriodOverride(t *testing.T) {
	// Daily data defaults to a five-day cycle, the override pins a
	// four-point one.
	values := make([]float64, 16)
	for i := range values {
		values[i] = 8 + math.Sin(math.Pi*float64(i)/2)
	}

	m := NewTrend(0)
	m.Period = 4
	if err := m.Fit(mustDaily(t, values)); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	p := m.Params()
	if p["period"] != 4 || p["pairs"] != 1 {
		t.Fatalf("expected period 4 with one pair, got period %v pairs %v", p["period"], p["pairs"])
	}
	if !approx(p["sin_1"], 1, 1e-9) || !approx(p["cos_1"], 0, 1e-9) {
		t.Errorf("expected harmonic coefficients 1 and 0, got %v and %v", p["sin_1"], p["cos_1"])
	}
}

func TestTrendErrors(t *testing.T) {
	yearly, err := timeseriesYearly([]float64{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("building series: %v", err)
	}
	if err := NewTrend(2).Fit(yearly); !errors.Is(err, ErrNoSeasonality) {
		t.Errorf("expected ErrNoSeasonality for fourier pairs on yearly data, got %v", err)
	}

	short, err := timeseriesYearly([]float64{1, 2, 3})
	if err != nil {
		t.Fatalf("building series: %v", err)
	}
	if err := NewTrend(0).Fit(short); !errors.Is(err, ErrDegenerateModel) {
		t.Errorf("expected ErrDegenerateModel for three points, got %v", err)
	}
}
