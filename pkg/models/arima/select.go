package arima

import (
	"fmt"
	"math"
	"time"

	"github.com/peter-kozarec/solstice/pkg/stats"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// Criterion selects the information criterion that drives the order
// search.
type Criterion string

const (
	CriterionAIC  Criterion = "aic"
	CriterionAICC Criterion = "aicc"
	CriterionBIC  Criterion = "bic"
)

// AutoConfig bounds the automatic order search.
type AutoConfig struct {
	MaxP      int
	MaxD      int
	MaxQ      int
	Criterion Criterion
	Stepwise  bool
}

// DefaultAutoConfig mirrors the usual auto ARIMA defaults.
func DefaultAutoConfig() AutoConfig {
	return AutoConfig{
		MaxP:      5,
		MaxD:      2,
		MaxQ:      5,
		Criterion: CriterionAICC,
		Stepwise:  true,
	}
}

// AutoResult is the outcome of an automatic order search.
type AutoResult struct {
	Model           *Model
	P, D, Q         int
	Criterion       float64
	ModelsEvaluated int
}

// AutoFit selects the differencing order with unit root tests, searches
// the (p,q) grid for the best information criterion and returns the
// winning fitted model.
func AutoFit(values []float64, cfg AutoConfig) (*AutoResult, error) {
	if cfg.MaxP < 0 || cfg.MaxQ < 0 || cfg.MaxD < 0 {
		return nil, fmt.Errorf("%w: negative search bounds", ErrInvalidOrder)
	}
	if len(values) < cfg.MaxD+12 {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientData, cfg.MaxD+12, len(values))
	}

	d := chooseDifferencing(values, cfg.MaxD)

	var result *AutoResult
	if cfg.Stepwise {
		result = stepwiseSearch(values, d, cfg)
	} else {
		result = gridSearch(values, d, cfg)
	}
	if result == nil || result.Model == nil {
		return nil, fmt.Errorf("%w: no candidate order could be fitted", ErrInsufficientData)
	}
	return result, nil
}

// chooseDifferencing returns the smallest d at which the series tests
// stationary. KPSS drives the decision and ADF corroborates it, the
// same way successive differencing is decided by hand.
func chooseDifferencing(values []float64, maxD int) int {
	current := values
	for d := 0; d < maxD; d++ {
		if len(current) < 12 {
			return d
		}
		if isStationary(current) {
			return d
		}
		current = difference(current)
	}
	return maxD
}

func isStationary(values []float64) bool {
	s, err := timeseries.FromValues("order-search", timeseries.FreqDaily,
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), values)
	if err != nil {
		return true
	}

	kpssRes, kpssErr := stats.KPSS(s, false, 0)
	adfRes, adfErr := stats.ADF(s, 0)

	kpssStationary := kpssErr == nil && kpssRes.IsStationary
	adfStationary := adfErr == nil && adfRes.IsStationary

	if kpssStationary && adfStationary {
		return true
	}
	// A KPSS p-value well above the rejection region is decisive on
	// its own.
	if kpssStationary && kpssRes.PValue > 0.1 {
		return true
	}
	return false
}

func criterionValue(m *Model, c Criterion) float64 {
	diag := m.Diagnostics()
	if diag == nil {
		return math.Inf(1)
	}
	switch c {
	case CriterionBIC:
		return diag.BIC
	case CriterionAIC:
		return diag.AIC
	default:
		return diag.AICC
	}
}

func fitCandidate(values []float64, p, d, q int) *Model {
	opts := []ModelOption{}
	if d > 0 {
		opts = append(opts, WithConstant(false))
	}
	m, err := NewModel(p, d, q, opts...)
	if err != nil {
		return nil
	}
	if err := m.Fit(values); err != nil {
		return nil
	}
	return m
}

func gridSearch(values []float64, d int, cfg AutoConfig) *AutoResult {
	best := &AutoResult{Criterion: math.Inf(1), D: d}
	for p := 0; p <= cfg.MaxP; p++ {
		for q := 0; q <= cfg.MaxQ; q++ {
			m := fitCandidate(values, p, d, q)
			if m == nil {
				continue
			}
			best.ModelsEvaluated++
			if c := criterionValue(m, cfg.Criterion); c < best.Criterion {
				best.Model = m
				best.P, best.Q = p, q
				best.Criterion = c
			}
		}
	}
	return best
}

// stepwiseSearch starts from a handful of common orders and walks to
// neighboring orders while the criterion keeps improving.
func stepwiseSearch(values []float64, d int, cfg AutoConfig) *AutoResult {
	type spec struct{ p, q int }

	starts := []spec{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {2, 2}}

	best := &AutoResult{Criterion: math.Inf(1), D: d}
	tried := map[spec]bool{}

	evaluate := func(s spec) bool {
		if s.p < 0 || s.p > cfg.MaxP || s.q < 0 || s.q > cfg.MaxQ || tried[s] {
			return false
		}
		tried[s] = true
		m := fitCandidate(values, s.p, d, s.q)
		if m == nil {
			return false
		}
		best.ModelsEvaluated++
		if c := criterionValue(m, cfg.Criterion); c < best.Criterion {
			best.Model = m
			best.P, best.Q = s.p, s.q
			best.Criterion = c
			return true
		}
		return false
	}

	for _, s := range starts {
		evaluate(s)
	}

	improved := true
	for improved {
		improved = false
		neighbors := []spec{
			{best.P + 1, best.Q},
			{best.P - 1, best.Q},
			{best.P, best.Q + 1},
			{best.P, best.Q - 1},
			{best.P + 1, best.Q + 1},
			{best.P - 1, best.Q - 1},
		}
		for _, s := range neighbors {
			if evaluate(s) {
				improved = true
			}
		}
	}
	return best
}
