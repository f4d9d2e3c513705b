package features

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

func buildSeries(t *testing.T, values []float64) *timeseries.Series {
	t.Helper()
	s, err := timeseries.FromValues("close", timeseries.FreqDaily,
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), values)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestBuild_ColumnsAndOrder(t *testing.T) {
	s := buildSeries(t, []float64{100, 101, 102, 103, 104, 105, 106, 107})

	f, err := Build(s, Config{
		Calendar:       true,
		Lags:           []int{1},
		RollingWindows: []int{3},
		MomentumLags:   []int{2},
		LogReturns:     true,
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"value", "year", "quarter", "month", "week", "day", "day_of_week",
		"day_of_year", "lag_1", "roll_mean_3", "roll_std_3", "mom_2", "log_ret",
	}
	if len(f.Names) != len(want) {
		t.Fatalf("columns = %v", f.Names)
	}
	for i, name := range want {
		if f.Names[i] != name {
			t.Errorf("Names[%d] = %q, want %q", i, f.Names[i], name)
		}
	}
	if f.NumRows() != s.Len() {
		t.Errorf("NumRows = %d, want %d", f.NumRows(), s.Len())
	}
}

func TestBuild_LagUsesOnlyPast(t *testing.T) {
	s := buildSeries(t, []float64{10, 20, 30, 40})

	f, err := Build(s, Config{Lags: []int{1}})
	if err != nil {
		t.Fatal(err)
	}

	lag, err := f.Column("lag_1")
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(lag[0]) {
		t.Errorf("lag_1[0] = %v, want NaN", lag[0])
	}
	for i := 1; i < 4; i++ {
		if lag[i] != s.Values[i-1] {
			t.Errorf("lag_1[%d] = %v, want %v", i, lag[i], s.Values[i-1])
		}
	}
}

func TestBuild_Momentum(t *testing.T) {
	s := buildSeries(t, []float64{100, 110, 121})

	f, err := Build(s, Config{MomentumLags: []int{1}})
	if err != nil {
		t.Fatal(err)
	}

	mom, err := f.Column("mom_1")
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(mom[0]) {
		t.Errorf("mom_1[0] = %v, want NaN", mom[0])
	}
	if math.Abs(mom[1]-0.1) > 1e-12 || math.Abs(mom[2]-0.1) > 1e-12 {
		t.Errorf("mom_1 = %v, want 0.1 growth", mom)
	}
}

func TestBuild_Calendar(t *testing.T) {
	// 2024-03-15 is a Friday in Q1, day of year 75.
	s, err := timeseries.New("close", timeseries.FreqDaily,
		[]time.Time{
			time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC),
		},
		[]float64{1, 2})
	if err != nil {
		t.Fatal(err)
	}

	f, err := Build(s, Config{Calendar: true})
	if err != nil {
		t.Fatal(err)
	}

	checks := map[string]float64{
		"year":        2024,
		"quarter":     1,
		"month":       3,
		"day":         15,
		"day_of_week": float64(time.Friday),
		"day_of_year": 75,
	}
	for name, wantV := range checks {
		col, err := f.Column(name)
		if err != nil {
			t.Fatal(err)
		}
		if col[0] != wantV {
			t.Errorf("%s[0] = %v, want %v", name, col[0], wantV)
		}
	}
}

func TestBuild_DropNaN(t *testing.T) {
	s := buildSeries(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	f, err := Build(s, Config{
		Lags:           []int{2},
		RollingWindows: []int{4},
		LogReturns:     true,
	})
	if err != nil {
		t.Fatal(err)
	}

	clean := f.DropNaN()
	// The 4-point rolling window dominates: rows 0..2 are lost.
	if clean.NumRows() != 7 {
		t.Errorf("DropNaN rows = %d, want 7", clean.NumRows())
	}
	v, err := clean.Column("value")
	if err != nil {
		t.Fatal(err)
	}
	if v[0] != 4 {
		t.Errorf("first clean value = %v, want 4", v[0])
	}
	for _, name := range clean.Names {
		col, _ := clean.Column(name)
		for i, x := range col {
			if math.IsNaN(x) {
				t.Errorf("NaN survived DropNaN in %s[%d]", name, i)
			}
		}
	}
}

func TestBuild_PointInTime(t *testing.T) {
	// Rebuilding on a truncated series must reproduce the shared prefix,
	// proving no derived value peeks at the future.
	values := []float64{5, 7, 6, 9, 8, 11, 10, 13, 12, 15}
	full := buildSeries(t, values)
	part := buildSeries(t, values[:7])

	cfg := Config{Lags: []int{1, 2}, RollingWindows: []int{3}, MomentumLags: []int{2}, LogReturns: true}
	fFull, err := Build(full, cfg)
	if err != nil {
		t.Fatal(err)
	}
	fPart, err := Build(part, cfg)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range fFull.Names {
		colFull, _ := fFull.Column(name)
		colPart, err := fPart.Column(name)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 7; i++ {
			a, b := colFull[i], colPart[i]
			if math.IsNaN(a) && math.IsNaN(b) {
				continue
			}
			if a != b {
				t.Errorf("%s[%d] differs with future data: %v vs %v", name, i, a, b)
			}
		}
	}
}

func TestBuild_Errors(t *testing.T) {
	s := buildSeries(t, []float64{1, 2, 3})

	if _, err := Build(s, Config{Lags: []int{0}}); err == nil {
		t.Error("expected error for non-positive lag")
	}
	if _, err := Build(s, Config{RollingWindows: []int{10}}); err == nil {
		t.Error("expected error for oversized window")
	}
	if _, err := Build(nil, DefaultConfig()); !errors.Is(err, timeseries.ErrEmpty) {
		t.Errorf("nil series error = %v", err)
	}
}

func TestFrame_SaveCSV(t *testing.T) {
	s := buildSeries(t, []float64{1, 2, 3, 4, 5})
	f, err := Build(s, Config{Lags: []int{1}})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "features.csv")
	if err := f.SaveCSV(path); err != nil {
		t.Fatal(err)
	}

	back, err := timeseries.LoadCSV(path, timeseries.FreqDaily, &timeseries.CSVOptions{
		DateColumn:  "date",
		ValueColumn: "value",
		DateLayouts: []string{"2006-01-02"},
		Delimiter:   ',',
		HasHeader:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if back.Len() != 5 || back.Values[4] != 5 {
		t.Errorf("reloaded = %v", back.Values)
	}
}

func TestFrame_ColumnMissing(t *testing.T) {
	f := NewFrame([]time.Time{time.Now()})
	if _, err := f.Column("nope"); !errors.Is(err, ErrNoColumn) {
		t.Errorf("error = %v, want ErrNoColumn", err)
	}
}
