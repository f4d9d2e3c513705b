package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// ADFResult holds the augmented Dickey-Fuller test outcome. The null
// hypothesis is a unit root; small p-values indicate stationarity.
type ADFResult struct {
	Statistic      float64            `json:"statistic"`
	PValue         float64            `json:"p_value"`
	Lags           int                `json:"lags"`
	NObs           int                `json:"n_obs"`
	CriticalValues map[string]float64 `json:"critical_values"`
	IsStationary   bool               `json:"is_stationary"`
}

// ADF runs the augmented Dickey-Fuller test with a constant term. A
// non-positive maxLag selects floor((n-1)^(1/3)).
func ADF(s *timeseries.Series, maxLag int) (*ADFResult, error) {
	n := s.Len()
	if n < 12 {
		return nil, fmt.Errorf("%w: adf needs at least 12 points, have %d", ErrTooShort, n)
	}

	if maxLag <= 0 {
		maxLag = int(math.Floor(math.Cbrt(float64(n - 1))))
	}
	if maxLag >= n-1 {
		maxLag = n - 2
	}

	diff, err := s.Diff()
	if err != nil {
		return nil, err
	}

	// Regression: dy[t] = a + b*y[t-1] + sum_i c_i*dy[t-i] + e.
	// The test statistic is the t-ratio of b.
	nObs := n - maxLag - 1
	if nObs < 10 {
		return nil, fmt.Errorf("%w: %d usable observations after lag augmentation", ErrTooShort, nObs)
	}

	k := 2 + maxLag
	X := mat.NewDense(nObs, k, nil)
	y := mat.NewVecDense(nObs, nil)
	for i := 0; i < nObs; i++ {
		t := i + maxLag
		y.SetVec(i, diff.Values[t])
		X.Set(i, 0, 1)
		X.Set(i, 1, s.Values[t])
		for j := 1; j <= maxLag; j++ {
			X.Set(i, 1+j, diff.Values[t-j])
		}
	}

	coef, se, err := olsFit(X, y)
	if err != nil {
		return nil, fmt.Errorf("adf regression: %w", err)
	}
	if se[1] == 0 {
		return nil, ErrZeroVariance
	}

	stat := coef[1] / se[1]
	p := adfPValue(stat)

	return &ADFResult{
		Statistic:      stat,
		PValue:         p,
		Lags:           maxLag,
		NObs:           nObs,
		CriticalValues: map[string]float64{"1%": -3.43, "5%": -2.86, "10%": -2.57},
		IsStationary:   p < 0.05,
	}, nil
}

// KPSSResult holds the KPSS test outcome. The null hypothesis is
// stationarity; small p-values indicate a unit root.
type KPSSResult struct {
	Statistic      float64            `json:"statistic"`
	PValue         float64            `json:"p_value"`
	Lags           int                `json:"lags"`
	CriticalValues map[string]float64 `json:"critical_values"`
	IsStationary   bool               `json:"is_stationary"`
}

// KPSS runs the KPSS level-stationarity test. Trend controls detrending:
// false removes the mean, true removes a linear trend. A non-positive
// nlags selects ceil(12*(n/100)^(1/4)).
func KPSS(s *timeseries.Series, trend bool, nlags int) (*KPSSResult, error) {
	n := s.Len()
	if n < 12 {
		return nil, fmt.Errorf("%w: kpss needs at least 12 points, have %d", ErrTooShort, n)
	}

	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags >= n {
		nlags = n - 1
	}

	residuals := make([]float64, n)
	if trend {
		X := mat.NewDense(n, 2, nil)
		y := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			X.Set(i, 0, 1)
			X.Set(i, 1, float64(i))
			y.SetVec(i, s.Values[i])
		}
		coef, _, err := olsFit(X, y)
		if err != nil {
			return nil, fmt.Errorf("kpss detrend: %w", err)
		}
		for i := 0; i < n; i++ {
			residuals[i] = s.Values[i] - coef[0] - coef[1]*float64(i)
		}
	} else {
		mean := s.Mean()
		for i, v := range s.Values {
			residuals[i] = v - mean
		}
	}

	cumSum := make([]float64, n)
	cumSum[0] = residuals[0]
	for i := 1; i < n; i++ {
		cumSum[i] = cumSum[i-1] + residuals[i]
	}

	// Newey-West long-run variance with Bartlett weights.
	var s2 float64
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)
	for l := 1; l <= nlags; l++ {
		var cov float64
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		cov /= float64(n)
		s2 += 2 * (1 - float64(l)/float64(nlags+1)) * cov
	}
	if s2 <= 0 {
		return nil, ErrZeroVariance
	}

	var etaSq float64
	for _, cs := range cumSum {
		etaSq += cs * cs
	}
	stat := etaSq / (float64(n) * float64(n) * s2)

	crit := map[string]float64{"10%": 0.347, "5%": 0.463, "2.5%": 0.574, "1%": 0.739}
	if trend {
		crit = map[string]float64{"10%": 0.119, "5%": 0.146, "2.5%": 0.176, "1%": 0.216}
	}
	p := kpssPValue(stat, trend)

	return &KPSSResult{
		Statistic:      stat,
		PValue:         p,
		Lags:           nlags,
		CriticalValues: crit,
		IsStationary:   p >= 0.05,
	}, nil
}

// olsFit solves y = X*beta by QR and returns coefficient estimates with
// their standard errors.
func olsFit(X *mat.Dense, y *mat.VecDense) (coef, se []float64, err error) {
	n, k := X.Dims()
	if n <= k {
		return nil, nil, fmt.Errorf("%w: %d observations for %d regressors", ErrTooShort, n, k)
	}

	var qr mat.QR
	qr.Factorize(X)

	beta := mat.NewVecDense(k, nil)
	if err := qr.SolveVecTo(beta, false, y); err != nil {
		return nil, nil, fmt.Errorf("solve: %w", err)
	}

	fitted := mat.NewVecDense(n, nil)
	fitted.MulVec(X, beta)
	var sse float64
	for i := 0; i < n; i++ {
		r := y.AtVec(i) - fitted.AtVec(i)
		sse += r * r
	}
	sigma2 := sse / float64(n-k)

	var xtx, xtxInv mat.Dense
	xtx.Mul(X.T(), X)
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, nil, fmt.Errorf("inverse: %w", err)
	}

	coef = make([]float64, k)
	se = make([]float64, k)
	for i := 0; i < k; i++ {
		coef[i] = beta.AtVec(i)
		se[i] = math.Sqrt(sigma2 * xtxInv.At(i, i))
	}
	return coef, se, nil
}

type pAnchor struct {
	stat float64
	p    float64
}

// adfPValue interpolates the MacKinnon surface for the constant-only
// regression.
func adfPValue(stat float64) float64 {
	anchors := []pAnchor{
		{-3.96, 0.001},
		{-3.43, 0.01},
		{-2.86, 0.05},
		{-2.57, 0.10},
		{-1.94, 0.25},
		{-1.62, 0.50},
		{0.0, 0.95},
	}
	return interpPValue(stat, anchors)
}

func kpssPValue(stat float64, trend bool) float64 {
	anchors := []pAnchor{
		{0.347, 0.10},
		{0.463, 0.05},
		{0.574, 0.025},
		{0.739, 0.01},
	}
	if trend {
		anchors = []pAnchor{
			{0.119, 0.10},
			{0.146, 0.05},
			{0.176, 0.025},
			{0.216, 0.01},
		}
	}
	// Below the first anchor the statistic is comfortably stationary.
	if stat <= anchors[0].stat {
		return 0.10
	}
	last := anchors[len(anchors)-1]
	if stat >= last.stat {
		return 0.01
	}
	for i := 1; i < len(anchors); i++ {
		if stat <= anchors[i].stat {
			a, b := anchors[i-1], anchors[i]
			frac := (stat - a.stat) / (b.stat - a.stat)
			return a.p + frac*(b.p-a.p)
		}
	}
	return last.p
}

func interpPValue(stat float64, anchors []pAnchor) float64 {
	if stat <= anchors[0].stat {
		return anchors[0].p
	}
	last := anchors[len(anchors)-1]
	if stat >= last.stat {
		return math.Min(last.p+(stat-last.stat)*0.05, 0.99)
	}
	for i := 1; i < len(anchors); i++ {
		if stat <= anchors[i].stat {
			a, b := anchors[i-1], anchors[i]
			frac := (stat - a.stat) / (b.stat - a.stat)
			return a.p + frac*(b.p-a.p)
		}
	}
	return last.p
}
