package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// Performance accumulates time spent inside the wrapped handlers.
// Combined with Telemetry counters it yields per-event averages, which
// is how a slow refit shows up in a live stream.
type Performance struct {
	logger *zap.Logger

	totalQuoteHandlerDur    time.Duration
	totalBarHandlerDur      time.Duration
	totalForecastHandlerDur time.Duration
	totalSignalHandlerDur   time.Duration
}

func NewPerformance(logger *zap.Logger) *Performance {
	return &Performance{
		logger: logger,
	}
}

func (p *Performance) WithQuote(handler bus.QuoteEventHandler) bus.QuoteEventHandler {
	return func(ctx context.Context, quote timeseries.Quote) {
		startTime := time.Now()
		handler(ctx, quote)
		p.totalQuoteHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithBar(handler bus.BarEventHandler) bus.BarEventHandler {
	return func(ctx context.Context, bar timeseries.Bar) {
		startTime := time.Now()
		handler(ctx, bar)
		p.totalBarHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithForecast(handler bus.ForecastEventHandler) bus.ForecastEventHandler {
	return func(ctx context.Context, update bus.ForecastUpdate) {
		startTime := time.Now()
		handler(ctx, update)
		p.totalForecastHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, sig bus.Signal) {
		startTime := time.Now()
		handler(ctx, sig)
		p.totalSignalHandlerDur += time.Since(startTime)
	}
}

func (p *Performance) PrintStatistics(t *Telemetry) {
	if t == nil {
		p.logger.Warn("Telemetry is nil; cannot compute performance statistics")
		return
	}

	var fields []zap.Field

	if t.quoteEventCounter > 0 {
		avgQuote := p.totalQuoteHandlerDur / time.Duration(t.quoteEventCounter)
		if avgQuote > 0 {
			fields = append(fields,
				zap.Duration("quote_avg_duration", avgQuote),
				zap.Duration("quote_total_duration", p.totalQuoteHandlerDur),
			)
		}
	}

	if t.barEventCounter > 0 {
		avgBar := p.totalBarHandlerDur / time.Duration(t.barEventCounter)
		if avgBar > 0 {
			fields = append(fields,
				zap.Duration("bar_avg_duration", avgBar),
				zap.Duration("bar_total_duration", p.totalBarHandlerDur),
			)
		}
	}

	if t.forecastEventCounter > 0 {
		avgForecast := p.totalForecastHandlerDur / time.Duration(t.forecastEventCounter)
		if avgForecast > 0 {
			fields = append(fields,
				zap.Duration("forecast_avg_duration", avgForecast),
				zap.Duration("forecast_total_duration", p.totalForecastHandlerDur),
			)
		}
	}

	if t.signalEventCounter > 0 {
		avgSignal := p.totalSignalHandlerDur / time.Duration(t.signalEventCounter)
		if avgSignal > 0 {
			fields = append(fields,
				zap.Duration("signal_avg_duration", avgSignal),
				zap.Duration("signal_total_duration", p.totalSignalHandlerDur),
			)
		}
	}

	if len(fields) == 0 {
		p.logger.Info("no handler durations recorded")
		return
	}
	p.logger.Info("handler performance", fields...)
}
