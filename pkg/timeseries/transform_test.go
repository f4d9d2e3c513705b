package timeseries

import (
	"errors"
	"math"
	"testing"
)

func TestTransform_DiffAndReintegrate(t *testing.T) {
	s := mustSeries(t, []float64{10, 12, 11, 15, 14})

	d, err := s.Diff()
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{2, -1, 4, -1}
	if d.Len() != len(want) {
		t.Fatalf("Diff len = %d, want %d", d.Len(), len(want))
	}
	for i, v := range want {
		if d.Values[i] != v {
			t.Errorf("Diff[%d] = %v, want %v", i, d.Values[i], v)
		}
	}

	back := Reintegrate(d.Values, s.Values[0])
	for i, v := range s.Values[1:] {
		if math.Abs(back[i]-v) > 1e-12 {
			t.Errorf("Reintegrate[%d] = %v, want %v", i, back[i], v)
		}
	}
}

func TestTransform_SeasonalDiffAndReintegrate(t *testing.T) {
	s := mustSeries(t, []float64{1, 2, 3, 4, 6, 8, 10, 12})

	d, err := s.DiffLag(4)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{5, 6, 7, 8}
	for i, v := range want {
		if d.Values[i] != v {
			t.Errorf("DiffLag(4)[%d] = %v, want %v", i, d.Values[i], v)
		}
	}

	back := ReintegrateSeasonal(d.Values, s.Values[:4])
	for i, v := range s.Values[4:] {
		if math.Abs(back[i]-v) > 1e-12 {
			t.Errorf("ReintegrateSeasonal[%d] = %v, want %v", i, back[i], v)
		}
	}
}

func TestTransform_DiffErrors(t *testing.T) {
	s := mustSeries(t, []float64{1, 2})

	if _, err := s.DiffLag(0); err == nil {
		t.Error("expected error for lag 0")
	}
	if _, err := s.DiffLag(2); !errors.Is(err, ErrTooShort) {
		t.Errorf("error = %v, want ErrTooShort", err)
	}
}

func TestTransform_LogExpRoundtrip(t *testing.T) {
	s := mustSeries(t, []float64{1, math.E, 10})

	l, err := s.Log()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(l.Values[1]-1) > 1e-12 {
		t.Errorf("Log[1] = %v, want 1", l.Values[1])
	}

	back := l.Exp()
	for i := range s.Values {
		if math.Abs(back.Values[i]-s.Values[i]) > 1e-9 {
			t.Errorf("Exp(Log)[%d] = %v, want %v", i, back.Values[i], s.Values[i])
		}
	}

	neg := mustSeries(t, []float64{1, -1, 2})
	if _, err := neg.Log(); !errors.Is(err, ErrNonPositive) {
		t.Errorf("Log of negative error = %v", err)
	}
}

func TestTransform_BoxCox(t *testing.T) {
	s := mustSeries(t, []float64{1, 4, 9, 16})

	// Lambda 0.5 maps y to 2(sqrt(y) - 1).
	bc, err := s.BoxCox(0.5)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 2, 4, 6}
	for i, v := range want {
		if math.Abs(bc.Values[i]-v) > 1e-12 {
			t.Errorf("BoxCox(0.5)[%d] = %v, want %v", i, bc.Values[i], v)
		}
	}

	back := InvBoxCox(bc.Values, 0.5)
	for i := range s.Values {
		if math.Abs(back[i]-s.Values[i]) > 1e-9 {
			t.Errorf("InvBoxCox[%d] = %v, want %v", i, back[i], s.Values[i])
		}
	}

	// Lambda zero is log.
	bc0, err := s.BoxCox(0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(bc0.Values[1]-math.Log(4)) > 1e-12 {
		t.Errorf("BoxCox(0)[1] = %v, want log(4)", bc0.Values[1])
	}
	back0 := InvBoxCox(bc0.Values, 0)
	if math.Abs(back0[3]-16) > 1e-9 {
		t.Errorf("InvBoxCox lambda 0 = %v, want 16", back0[3])
	}
}

func TestTransform_PctChange(t *testing.T) {
	s := mustSeries(t, []float64{100, 110, 99})

	p, err := s.PctChange(1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p.Values[0]-0.1) > 1e-12 {
		t.Errorf("PctChange[0] = %v, want 0.1", p.Values[0])
	}
	if math.Abs(p.Values[1]-(-0.1)) > 1e-12 {
		t.Errorf("PctChange[1] = %v, want -0.1", p.Values[1])
	}
}

func TestTransform_LogReturns(t *testing.T) {
	s := mustSeries(t, []float64{100, 105, 100})

	r, err := s.LogReturns()
	if err != nil {
		t.Fatal(err)
	}
	if r.Len() != 2 {
		t.Fatalf("LogReturns len = %d, want 2", r.Len())
	}
	if math.Abs(r.Values[0]-math.Log(1.05)) > 1e-12 {
		t.Errorf("LogReturns[0] = %v", r.Values[0])
	}
	// Over a roundtrip the returns sum to zero.
	if math.Abs(r.Values[0]+r.Values[1]) > 1e-12 {
		t.Errorf("returns do not cancel: %v", r.Values)
	}
}

func TestTransform_DoesNotMutateReceiver(t *testing.T) {
	s := mustSeries(t, []float64{10, 12, 11})
	orig := append([]float64(nil), s.Values...)

	if _, err := s.Diff(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Log(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PctChange(1); err != nil {
		t.Fatal(err)
	}

	for i := range orig {
		if s.Values[i] != orig[i] {
			t.Errorf("receiver mutated at %d: %v != %v", i, s.Values[i], orig[i])
		}
	}
}
