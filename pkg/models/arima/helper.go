package arima

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// levinsonDurbin solves the Yule-Walker equations for the given
// autocorrelations (acf[0] must be 1) and returns the AR coefficients.
func levinsonDurbin(acf []float64, order int) []float64 {
	phi := make([]float64, order)
	if order <= 0 || len(acf) <= order {
		return phi
	}

	phi[0] = acf[1]
	v := 1 - phi[0]*phi[0]

	for i := 1; i < order; i++ {
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		if v <= 0 {
			break
		}
		lambda /= v

		next := make([]float64, i+1)
		for j := 0; j < i; j++ {
			next[j] = phi[j] - lambda*phi[i-1-j]
		}
		next[i] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
	}

	return phi
}

// solveOLS returns the least squares solution of X*beta = y, or nil
// when the system is rank deficient.
func solveOLS(X [][]float64, y []float64) []float64 {
	rows := len(X)
	if rows == 0 || len(X[0]) == 0 || rows != len(y) {
		return nil
	}
	cols := len(X[0])
	if rows < cols {
		return nil
	}

	xm := mat.NewDense(rows, cols, nil)
	for i, row := range X {
		if len(row) != cols {
			return nil
		}
		xm.SetRow(i, row)
	}
	yv := mat.NewVecDense(rows, y)

	var qr mat.QR
	qr.Factorize(xm)

	beta := mat.NewVecDense(cols, nil)
	if err := qr.SolveVecTo(beta, false, yv); err != nil {
		return nil
	}

	out := make([]float64, cols)
	for i := range out {
		out[i] = beta.AtVec(i)
	}
	return out
}

// rootsOutsideUnitCircle reports whether the polynomial
// 1 - c[0]z - c[1]z^2 - ... has all roots strictly outside the unit
// circle, checked through the eigenvalues of its companion matrix.
func rootsOutsideUnitCircle(coeffs []float64) bool {
	trimmed := coeffs
	for len(trimmed) > 0 && trimmed[len(trimmed)-1] == 0 {
		trimmed = trimmed[:len(trimmed)-1]
	}
	k := len(trimmed)
	if k == 0 {
		return true
	}

	companion := mat.NewDense(k, k, nil)
	for j := 0; j < k; j++ {
		companion.Set(0, j, trimmed[j])
	}
	for i := 1; i < k; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if !eig.Factorize(companion, mat.EigenNone) {
		return false
	}
	for _, ev := range eig.Values(nil) {
		if cmplx.Abs(ev) >= 1-1e-9 {
			return false
		}
	}
	return true
}

// expandDiffPolynomial multiplies the AR polynomial by (1-B)^d and
// returns the combined coefficients in the same sign convention as the
// input, so the result has length len(ar)+d.
func expandDiffPolynomial(ar []float64, d int) []float64 {
	// Work in raw polynomial form with leading coefficient 1.
	arPoly := make([]float64, len(ar)+1)
	arPoly[0] = 1
	for i, phi := range ar {
		arPoly[i+1] = -phi
	}

	diffPoly := make([]float64, d+1)
	for k := 0; k <= d; k++ {
		diffPoly[k] = binomialCoefficient(d, k)
		if k%2 == 1 {
			diffPoly[k] = -diffPoly[k]
		}
	}

	poly := make([]float64, len(arPoly)+d)
	for i, a := range arPoly {
		for j, b := range diffPoly {
			poly[i+j] += a * b
		}
	}

	out := make([]float64, len(poly)-1)
	for i := 1; i < len(poly); i++ {
		out[i-1] = -poly[i]
	}
	return out
}

// psiWeights computes the first n coefficients of the MA(infinity)
// representation implied by the AR and MA parameters, with the
// differencing operator folded into the AR side.
func psiWeights(ar []float64, ma []float64, d, n int) []float64 {
	full := expandDiffPolynomial(ar, d)

	psi := make([]float64, n)
	if n == 0 {
		return psi
	}
	psi[0] = 1
	for j := 1; j < n; j++ {
		v := 0.0
		if j <= len(ma) {
			v = ma[j-1]
		}
		for i := 1; i <= j && i <= len(full); i++ {
			v += full[i-1] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}

// binomialCoefficient returns n choose k using the multiplicative form.
func binomialCoefficient(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	if k == 0 || k == n {
		return 1
	}
	result := 1.0
	for i := 0; i < k; i++ {
		result = result * float64(n-i) / float64(i+1)
	}
	return result
}

// forecastVariance returns the h-step forecast error variance given the
// innovation variance and psi weights.
func forecastVariance(sigma2 float64, psi []float64, h int) float64 {
	v := 0.0
	for j := 0; j < h && j < len(psi); j++ {
		v += psi[j] * psi[j]
	}
	return sigma2 * v
}
