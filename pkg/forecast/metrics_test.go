package forecast

import (
	"math"
	"testing"
)

func TestScoreHandComputed(t *testing.T) {
	actual := []float64{10, 20}
	predicted := []float64{12, 16}
	train := []float64{1, 2, 3, 4, 5, 6}

	m := Score(actual, predicted, train, 1)

	if !approx(m.MAE, 3, 1e-9) {
		t.Errorf("MAE: expected 3, got %v", m.MAE)
	}
	if !approx(m.RMSE, math.Sqrt(10), 1e-9) {
		t.Errorf("RMSE: expected sqrt(10), got %v", m.RMSE)
	}
	if !approx(m.MAPE, 20, 1e-9) {
		t.Errorf("MAPE: expected 20, got %v", m.MAPE)
	}
	if !approx(m.SMAPE, 2000.0/99, 1e-9) {
		t.Errorf("SMAPE: expected %v, got %v", 2000.0/99, m.SMAPE)
	}
	// The naive scale of the ramp training window is 1, so MASE equals
	// the MAE.
	if !approx(m.MASE, 3, 1e-9) {
		t.Errorf("MASE: expected 3, got %v", m.MASE)
	}
	if !approx(m.R2, 0.6, 1e-9) {
		t.Errorf("R2: expected 0.6, got %v", m.R2)
	}
}

func TestScoreSkipsZeroDenominators(t *testing.T) {
	m := Score([]float64{0, 10}, []float64{0, 10}, []float64{1, 2, 3}, 1)
	if m.MAPE != 0 || m.SMAPE != 0 {
		t.Errorf("expected zero percentage errors, got mape %v smape %v", m.MAPE, m.SMAPE)
	}

	m = Score([]float64{0, 0}, []float64{0, 0}, []float64{1, 1, 1}, 1)
	if m.MAPE != 0 || m.SMAPE != 0 {
		t.Errorf("expected zero scores when every row is skipped, got mape %v smape %v", m.MAPE, m.SMAPE)
	}
	// Constant training window has no naive scale.
	if !math.IsNaN(m.MASE) {
		t.Errorf("expected NaN MASE on a constant training window, got %v", m.MASE)
	}
}

func TestScoreSeasonalScale(t *testing.T) {
	// Quarterly pattern repeated exactly: the seasonal naive scale is
	// zero so MASE is undefined.
	train := []float64{1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 3, 4}
	m := Score([]float64{1, 2}, []float64{1, 2}, train, 4)
	if !math.IsNaN(m.MASE) {
		t.Errorf("expected NaN MASE for a perfectly seasonal training window, got %v", m.MASE)
	}

	// Lag one differences have magnitude 1 or 3, so the non-seasonal
	// scale exists.
	m = Score([]float64{1, 2}, []float64{2, 2}, train, 1)
	if math.IsNaN(m.MASE) || m.MASE <= 0 {
		t.Errorf("expected a positive MASE with lag one scaling, got %v", m.MASE)
	}
}

func TestBetterDirection(t *testing.T) {
	a := Metrics{MASE: 1, R2: 0.9}
	b := Metrics{MASE: 2, R2: 0.5}

	if !better(a, b, "mase") {
		t.Error("lower MASE must win")
	}
	if better(b, a, "mase") {
		t.Error("higher MASE must lose")
	}
	if !better(a, b, "r2") {
		t.Error("higher R2 must win")
	}
	if better(b, a, "r2") {
		t.Error("lower R2 must lose")
	}

	nan := Metrics{MASE: math.NaN()}
	if better(nan, b, "mase") {
		t.Error("NaN must always lose")
	}
	if !better(b, nan, "mase") {
		t.Error("a real score must beat NaN")
	}
	if better(nan, nan, "mase") {
		t.Error("two NaN scores must compare as ties")
	}
}

func TestAverageMetrics(t *testing.T) {
	avg := averageMetrics([]Metrics{
		{MAE: 1, RMSE: 2, MAPE: 3, SMAPE: 4, MASE: 5, R2: 0.5},
		{MAE: 3, RMSE: 4, MAPE: 5, SMAPE: 6, MASE: 7, R2: 0.7},
	})
	want := Metrics{MAE: 2, RMSE: 3, MAPE: 4, SMAPE: 5, MASE: 6, R2: 0.6}
	if !approx(avg.MAE, want.MAE, 1e-9) || !approx(avg.RMSE, want.RMSE, 1e-9) ||
		!approx(avg.MAPE, want.MAPE, 1e-9) || !approx(avg.SMAPE, want.SMAPE, 1e-9) ||
		!approx(avg.MASE, want.MASE, 1e-9) || !approx(avg.R2, want.R2, 1e-9) {
		t.Errorf("expected %+v, got %+v", want, avg)
	}

	if got := averageMetrics(nil); got != (Metrics{}) {
		t.Errorf("expected zero metrics for no folds, got %+v", got)
	}
}

func TestMetricNames(t *testing.T) {
	names := MetricNames()
	want := []string{"mae", "mape", "mase", "r2", "rmse", "smape"}
	if len(names) != len(want) {
		t.Fatalf("expected %d metrics, got %d", len(want), len(names))
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("position %d: expected %q, got %q", i, name, names[i])
		}
	}

	if v := (Metrics{MAE: 7}).Value("mae"); v != 7 {
		t.Errorf("expected 7, got %v", v)
	}
	if v := (Metrics{}).Value("wape"); !math.IsNaN(v) {
		t.Errorf("expected NaN for an unknown name, got %v", v)
	}
}
