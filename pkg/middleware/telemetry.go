package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// Telemetry counts the events passing through the pipeline. Handlers
// run on the router goroutine, so plain counters are safe.
type Telemetry struct {
	logger *zap.Logger

	quoteEventCounter    int64
	barEventCounter      int64
	forecastEventCounter int64
	signalEventCounter   int64
}

func NewTelemetry(logger *zap.Logger) *Telemetry {
	return &Telemetry{
		logger: logger,
	}
}

func (t *Telemetry) WithQuote(handler bus.QuoteEventHandler) bus.QuoteEventHandler {
	return func(ctx context.Context, quote timeseries.Quote) {
		t.quoteEventCounter++
		handler(ctx, quote)
	}
}

func (t *Telemetry) WithBar(handler bus.BarEventHandler) bus.BarEventHandler {
	return func(ctx context.Context, bar timeseries.Bar) {
		t.barEventCounter++
		handler(ctx, bar)
	}
}

func (t *Telemetry) WithForecast(handler bus.ForecastEventHandler) bus.ForecastEventHandler {
	return func(ctx context.Context, update bus.ForecastUpdate) {
		t.forecastEventCounter++
		handler(ctx, update)
	}
}

func (t *Telemetry) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, sig bus.Signal) {
		t.signalEventCounter++
		handler(ctx, sig)
	}
}

func (t *Telemetry) PrintStatistics() {
	t.logger.Info("event statistics",
		zap.Int64("quote_events", t.quoteEventCounter),
		zap.Int64("bar_events", t.barEventCounter),
		zap.Int64("forecast_events", t.forecastEventCounter),
		zap.Int64("signal_events", t.signalEventCounter))
}
