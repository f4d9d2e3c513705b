package stats

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"
)

func TestJarqueBera_NormalScores(t *testing.T) {
	// Normal quantiles at evenly spaced probabilities form an exactly
	// symmetric, near-normal sample.
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	values := make([]float64, 200)
	for i := range values {
		values[i] = norm.Quantile((float64(i) + 0.5) / 200)
	}
	s := testSeries(t, values)

	res, err := JarqueBera(s)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsNormal {
		t.Errorf("normal scores rejected: jb=%v p=%v", res.Statistic, res.PValue)
	}
	if math.Abs(res.Skewness) > 0.05 {
		t.Errorf("Skewness = %v, expected near zero", res.Skewness)
	}
}

func TestJarqueBera_SkewedSample(t *testing.T) {
	// Exponential quantiles are strongly right-skewed.
	values := make([]float64, 200)
	for i := range values {
		u := (float64(i) + 0.5) / 200
		values[i] = -math.Log(1 - u)
	}
	s := testSeries(t, values)

	res, err := JarqueBera(s)
	if err != nil {
		t.Fatal(err)
	}
	if res.IsNormal {
		t.Errorf("exponential sample accepted as normal: jb=%v p=%v", res.Statistic, res.PValue)
	}
	if res.Skewness < 1 {
		t.Errorf("Skewness = %v, expected strongly positive", res.Skewness)
	}
}

func TestJarqueBera_Errors(t *testing.T) {
	short := testSeries(t, []float64{1, 2, 3})
	if _, err := JarqueBera(short); !errors.Is(err, ErrTooShort) {
		t.Errorf("error = %v, want ErrTooShort", err)
	}

	flat := testSeries(t, []float64{4, 4, 4, 4, 4, 4, 4, 4})
	if _, err := JarqueBera(flat); !errors.Is(err, ErrZeroVariance) {
		t.Errorf("error = %v, want ErrZeroVariance", err)
	}
}
