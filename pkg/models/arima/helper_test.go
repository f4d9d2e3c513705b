package arima

import (
	"math"
	"testing"
)

func TestModel_LevinsonDurbin(t *testing.T) {
	tests := []struct {
		name     string
		acf      []float64
		order    int
		expected []float64
		tol      float64
	}{
		{
			name:     "AR(1)",
			acf:      []float64{1, 0.6},
			order:    1,
			expected: []float64{0.6},
			tol:      1e-12,
		},
		{
			// Autocorrelations generated by phi1=0.5, phi2=0.3:
			// rho1 = phi1/(1-phi2), rho2 = phi1*rho1 + phi2.
			name:     "AR(2) recovers Yule-Walker solution",
			acf:      []float64{1, 5.0 / 7.0, 0.5*5.0/7.0 + 0.3},
			order:    2,
			expected: []float64{0.5, 0.3},
			tol:      1e-9,
		},
		{
			name:     "Zero order",
			acf:      []float64{1},
			order:    0,
			expected: []float64{},
			tol:      0,
		},
		{
			name:     "ACF shorter than order",
			acf:      []float64{1, 0.5},
			order:    3,
			expected: []float64{0, 0, 0},
			tol:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := levinsonDurbin(tt.acf, tt.order)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d coefficients, got %d", len(tt.expected), len(got))
			}
			for i := range got {
				if math.Abs(got[i]-tt.expected[i]) > tt.tol {
					t.Errorf("coefficient %d: expected %v, got %v", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestModel_SolveOLS(t *testing.T) {
	tests := []struct {
		name     string
		X        [][]float64
		y        []float64
		expected []float64
		nilOut   bool
	}{
		{
			name:     "2x2 system",
			X:        [][]float64{{2, 1}, {5, 7}},
			y:        []float64{11, 13},
			expected: []float64{64.0 / 9.0, -29.0 / 9.0},
		},
		{
			name:     "Overdetermined consistent system",
			X:        [][]float64{{1, 0}, {0, 1}, {1, 1}},
			y:        []float64{1, 2, 3},
			expected: []float64{1, 2},
		},
		{
			name:   "Rank deficient",
			X:      [][]float64{{1, 1}, {2, 2}, {3, 3}},
			y:      []float64{1, 2, 3},
			nilOut: true,
		},
		{
			name:   "Row length mismatch",
			X:      [][]float64{{1, 2}, {3}},
			y:      []float64{1, 2},
			nilOut: true,
		},
		{
			name:   "More columns than rows",
			X:      [][]float64{{1, 2, 3}},
			y:      []float64{1},
			nilOut: true,
		},
		{
			name:   "Empty",
			X:      nil,
			y:      nil,
			nilOut: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := solveOLS(tt.X, tt.y)
			if tt.nilOut {
				if got != nil {
					t.Fatalf("expected nil solution, got %v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a solution, got nil")
			}
			for i := range tt.expected {
				if math.Abs(got[i]-tt.expected[i]) > 1e-8 {
					t.Errorf("beta[%d]: expected %v, got %v", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestModel_BinomialCoefficient(t *testing.T) {
	tests := []struct {
		n, k     int
		expected float64
	}{
		{0, 0, 1},
		{4, 2, 6},
		{5, 0, 1},
		{5, 5, 1},
		{6, 3, 20},
		{10, 4, 210},
		{3, 5, 0},
		{3, -1, 0},
	}

	for _, tt := range tests {
		if got := binomialCoefficient(tt.n, tt.k); math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("C(%d,%d): expected %v, got %v", tt.n, tt.k, tt.expected, got)
		}
	}
}

func TestModel_ExpandDiffPolynomial(t *testing.T) {
	tests := []struct {
		name     string
		ar       []float64
		d        int
		expected []float64
	}{
		{
			name:     "No differencing keeps AR terms",
			ar:       []float64{0.7},
			d:        0,
			expected: []float64{0.7},
		},
		{
			name:     "Pure random walk",
			ar:       nil,
			d:        1,
			expected: []float64{1},
		},
		{
			name:     "Double differencing",
			ar:       nil,
			d:        2,
			expected: []float64{2, -1},
		},
		{
			name:     "AR(1) with one difference",
			ar:       []float64{0.5},
			d:        1,
			expected: []float64{1.5, -0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := expandDiffPolynomial(tt.ar, tt.d)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d coefficients, got %d", len(tt.expected), len(got))
			}
			for i := range got {
				if math.Abs(got[i]-tt.expected[i]) > 1e-12 {
					t.Errorf("coefficient %d: expected %v, got %v", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestModel_PsiWeights(t *testing.T) {
	tests := []struct {
		name     string
		ar       []float64
		ma       []float64
		d        int
		n        int
		expected []float64
	}{
		{
			name:     "AR(1) geometric decay",
			ar:       []float64{0.6},
			n:        4,
			expected: []float64{1, 0.6, 0.36, 0.216},
		},
		{
			name:     "MA(1) truncates after one lag",
			ma:       []float64{0.4},
			n:        4,
			expected: []float64{1, 0.4, 0, 0},
		},
		{
			name:     "ARMA(1,1)",
			ar:       []float64{0.5},
			ma:       []float64{0.3},
			n:        4,
			expected: []float64{1, 0.8, 0.4, 0.2},
		},
		{
			name:     "Random walk accumulates",
			d:        1,
			n:        4,
			expected: []float64{1, 1, 1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := psiWeights(tt.ar, tt.ma, tt.d, tt.n)
			if len(got) != tt.n {
				t.Fatalf("expected %d weights, got %d", tt.n, len(got))
			}
			for i := range got {
				if math.Abs(got[i]-tt.expected[i]) > 1e-12 {
					t.Errorf("psi[%d]: expected %v, got %v", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestModel_ForecastVariance(t *testing.T) {
	psi := []float64{1, 0.5, 0.25}
	sigma2 := 2.0

	tests := []struct {
		h        int
		expected float64
	}{
		{1, 2.0},
		{2, 2.5},
		{3, 2.625},
		{5, 2.625},
	}

	for _, tt := range tests {
		if got := forecastVariance(sigma2, psi, tt.h); math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("h=%d: expected %v, got %v", tt.h, tt.expected, got)
		}
	}
}

func TestModel_RootsOutsideUnitCircle(t *testing.T) {
	tests := []struct {
		name     string
		coeffs   []float64
		expected bool
	}{
		{"Empty polynomial", nil, true},
		{"Stable AR(1)", []float64{0.5}, true},
		{"Unit root", []float64{1.0}, false},
		{"Explosive AR(1)", []float64{1.2}, false},
		{"Stable AR(2)", []float64{0.5, 0.3}, true},
		{"Stable AR(2) with complex roots", []float64{1.5, -0.6}, true},
		{"Unstable AR(2)", []float64{0.2, 0.9}, false},
		{"Trailing zeros are ignored", []float64{0.5, 0, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rootsOutsideUnitCircle(tt.coeffs); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
