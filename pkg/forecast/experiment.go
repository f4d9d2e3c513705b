// Package forecast is the experiment harness around the model registry.
// An Experiment fixes the evaluation protocol for one series, then the
// operations on it compare, tune, blend, evaluate and persist models
// under that protocol. Scores are always computed on the price scale,
// whatever transform the models were fitted on.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/models"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

var (
	ErrInvalidConfig    = errors.New("invalid experiment configuration")
	ErrInsufficientData = errors.New("insufficient data for the experiment")
	ErrUnknownMetric    = errors.New("unknown metric")
	ErrNoModels         = errors.New("no model could be evaluated")
	ErrBadBlend         = errors.New("invalid blend")
	ErrBadArtifact      = errors.New("invalid model artifact")
)

// Transform names the value transform applied before fitting.
type Transform string

const (
	TransformNone   Transform = "none"
	TransformLog    Transform = "log"
	TransformBoxCox Transform = "boxcox"
)

// Smallest training window the first fold may be left with.
const minTrainSize = 10

// Experiment fixes the evaluation protocol: the forecast horizon, the
// hold-out split, the rolling-origin fold layout and the headline
// metric. The last horizon points of the series form the hold-out
// window; cross-validation runs inside the remaining training window.
type Experiment struct {
	series *timeseries.Series
	train  *timeseries.Series
	test   *timeseries.Series

	horizon   int
	folds     int
	step      int
	metric    string
	transform Transform
	lambda    float64
	period    int
	logger    *zap.Logger
}

type Option func(*Experiment)

// WithFolds sets the number of cross-validation folds.
func WithFolds(n int) Option {
	return func(e *Experiment) {
		e.folds = n
	}
}

// WithStep sets the distance between consecutive fold origins. The
// default equals the horizon so test windows do not overlap.
func WithStep(n int) Option {
	return func(e *Experiment) {
		e.step = n
	}
}

// WithMetric sets the score the leaderboard and tuning sort by.
func WithMetric(name string) Option {
	return func(e *Experiment) {
		e.metric = name
	}
}

// WithTransform sets the value transform models are fitted on.
func WithTransform(tr Transform) Option {
	return func(e *Experiment) {
		e.transform = tr
	}
}

// WithBoxCox selects a Box-Cox transform with the given lambda.
func WithBoxCox(lambda float64) Option {
	return func(e *Experiment) {
		e.transform = TransformBoxCox
		e.lambda = lambda
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Experiment) {
		e.logger = logger
	}
}

// NewExperiment validates the protocol against the series length: the
// hold-out window and every fold must fit, leaving at least a minimal
// training window for the first fold.
func NewExperiment(series *timeseries.Series, horizon int, opts ...Option) (*Experiment, error) {
	if series == nil || series.Len() == 0 {
		return nil, fmt.Errorf("%w: empty series", ErrInsufficientData)
	}
	if horizon < 1 {
		return nil, fmt.Errorf("%w: horizon %d", ErrInvalidConfig, horizon)
	}

	e := &Experiment{
		series:    series,
		horizon:   horizon,
		folds:     3,
		metric:    "mase",
		transform: TransformNone,
		period:    series.Freq.SeasonalPeriod(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.step == 0 {
		e.step = horizon
	}

	if e.folds < 1 || e.step < 1 {
		return nil, fmt.Errorf("%w: folds %d, step %d", ErrInvalidConfig, e.folds, e.step)
	}
	if _, ok := metricOrder[e.metric]; !ok {
		return nil, fmt.Errorf("%w: %q, have %s",
			ErrUnknownMetric, e.metric, strings.Join(MetricNames(), "|"))
	}
	switch e.transform {
	case TransformNone:
	case TransformLog, TransformBoxCox:
		if series.Min() <= 0 {
			return nil, fmt.Errorf("%w: %s transform needs positive values", ErrInvalidConfig, e.transform)
		}
	default:
		return nil, fmt.Errorf("%w: transform %q", ErrInvalidConfig, e.transform)
	}

	need := 2*horizon + (e.folds-1)*e.step + minTrainSize
	if series.Len() < need {
		return nil, fmt.Errorf("%w: need %d points, have %d", ErrInsufficientData, need, series.Len())
	}

	train, test, err := series.Split(series.Len() - horizon)
	if err != nil {
		return nil, err
	}
	e.train, e.test = train, test

	e.logger.Info("experiment configured",
		zap.String("series", series.Name),
		zap.Int("observations", series.Len()),
		zap.Int("horizon", horizon),
		zap.Int("folds", e.folds),
		zap.Int("step", e.step),
		zap.String("metric", e.metric),
		zap.String("transform", string(e.transform)),
		zap.Int("seasonal_period", e.period),
	)
	return e, nil
}

func (e *Experiment) Series() *timeseries.Series { return e.series }
func (e *Experiment) Train() *timeseries.Series  { return e.train }
func (e *Experiment) Test() *timeseries.Series   { return e.test }
func (e *Experiment) Horizon() int               { return e.horizon }
func (e *Experiment) Folds() int                 { return e.folds }
func (e *Experiment) Metric() string             { return e.metric }
func (e *Experiment) Period() int                { return e.period }

// applyTransform maps a window to modelling scale.
func applyTransform(s *timeseries.Series, tr Transform, lambda float64) (*timeseries.Series, error) {
	switch tr {
	case TransformNone, "":
		return s, nil
	case TransformLog:
		return s.Log()
	case TransformBoxCox:
		return s.BoxCox(lambda)
	default:
		return nil, fmt.Errorf("%w: transform %q", ErrInvalidConfig, tr)
	}
}

// invertValues maps modelling-scale values back to prices.
func invertValues(values []float64, tr Transform, lambda float64) []float64 {
	switch tr {
	case TransformLog:
		out := make([]float64, len(values))
		for i, v := range values {
			out[i] = math.Exp(v)
		}
		return out
	case TransformBoxCox:
		return timeseries.InvBoxCox(values, lambda)
	default:
		return values
	}
}

// invertPoints maps a forecast back to prices. The transforms are
// monotone so the interval bounds map through directly.
func invertPoints(points []models.Point, tr Transform, lambda float64) []models.Point {
	if tr == TransformNone || tr == "" {
		return points
	}
	out := make([]models.Point, len(points))
	for i, p := range points {
		row := invertValues([]float64{p.Mean, p.Lower80, p.Upper80, p.Lower95, p.Upper95}, tr, lambda)
		out[i] = models.Point{
			Time:    p.Time,
			Mean:    row[0],
			Lower80: row[1],
			Upper80: row[2],
			Lower95: row[3],
			Upper95: row[4],
		}
	}
	return out
}
