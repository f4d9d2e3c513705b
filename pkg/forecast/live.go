package forecast

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/models"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
	"github.com/peter-kozarec/solstice/pkg/utility"
	"github.com/peter-kozarec/solstice/pkg/utility/circular"
)

const refresherComponentName = "forecast.refresher"

// Refresher keeps one model family fitted over a rolling window of
// closes and posts a fresh forecast to the router after every refit.
// Bars arrive through OnBar, typically downstream of the bar builder.
// Refits happen once enough bars are buffered and then every refitEvery
// bars, a full cross-validated experiment on each bar would not keep up
// with a live feed.
type Refresher struct {
	logger *zap.Logger
	router *bus.Router

	symbol  string
	code    string
	freq    timeseries.Frequency
	horizon int
	every   int
	minFit  int

	bars     *circular.Buffer[timeseries.Bar]
	sinceFit int
	model    models.Forecaster
	fitted   bool
}

func NewRefresher(
	logger *zap.Logger,
	router *bus.Router,
	symbol, code string,
	freq timeseries.Frequency,
	window, horizon, refitEvery int) (*Refresher, error) {

	if _, err := models.New(code); err != nil {
		return nil, err
	}
	if window < 16 {
		return nil, fmt.Errorf("window %d is too small to fit on", window)
	}
	if horizon < 1 {
		return nil, models.ErrInvalidHorizon
	}
	if refitEvery < 1 {
		return nil, fmt.Errorf("refit interval must be positive")
	}

	minFit := window / 2
	if minFit < 16 {
		minFit = 16
	}

	return &Refresher{
		logger:  logger,
		router:  router,
		symbol:  symbol,
		code:    code,
		freq:    freq,
		horizon: horizon,
		every:   refitEvery,
		minFit:  minFit,
		bars:    circular.NewBuffer[timeseries.Bar](uint(window)), // #nosec G115
	}, nil
}

func (r *Refresher) OnBar(_ context.Context, bar timeseries.Bar) {
	if bar.Symbol != r.symbol {
		return
	}

	r.bars.Push(bar)
	r.sinceFit++

	if r.bars.Size() < uint(r.minFit) { // #nosec G115
		return
	}
	if r.fitted && r.sinceFit < r.every {
		return
	}

	if err := r.refit(); err != nil {
		r.logger.Warn("refit failed",
			zap.String("model", r.code),
			zap.Error(err))
		return
	}

	points, err := r.model.Forecast(r.horizon)
	if err != nil {
		r.logger.Warn("forecast failed",
			zap.String("model", r.code),
			zap.Error(err))
		return
	}

	update := bus.ForecastUpdate{
		Source:    refresherComponentName,
		Symbol:    bar.Symbol,
		RunID:     utility.GetRunID(),
		TraceID:   utility.CreateTraceID(),
		TimeStamp: bar.TimeStamp,
		Model:     r.code,
		Points:    points,
	}

	if err := r.router.Post(bus.ForecastEvent, update); err != nil {
		r.logger.Warn("unable to post forecast", zap.Error(err))
	}
}

func (r *Refresher) refit() error {
	bars := r.bars.Data()

	series, err := timeseries.FromBars(r.symbol, r.freq, bars)
	if err != nil {
		return err
	}

	model, err := models.New(r.code)
	if err != nil {
		return err
	}
	if err := model.Fit(series); err != nil {
		return err
	}

	r.model = model
	r.fitted = true
	r.sinceFit = 0
	return nil
}
