package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

type MonitorFlags uint8

const (
	MonitorNone MonitorFlags = 1 << iota
	MonitorAll
	MonitorQuotes
	MonitorBars
	MonitorForecasts
	MonitorSignals
)

// Monitor logs the events flowing through the handlers it wraps.
// Quotes are usually too chatty to log, so each event class is gated
// behind its own flag.
type Monitor struct {
	logger *zap.Logger
	flags  MonitorFlags
}

func NewMonitor(logger *zap.Logger, flags MonitorFlags) *Monitor {
	return &Monitor{
		logger: logger,
		flags:  flags,
	}
}

func (m *Monitor) WithQuote(handler bus.QuoteEventHandler) bus.QuoteEventHandler {
	return func(ctx context.Context, quote timeseries.Quote) {
		if m.flags&MonitorQuotes != 0 || m.flags&MonitorAll != 0 {
			m.logger.Info("event",
				zap.String("quote_symbol", quote.Symbol),
				zap.Time("ts", quote.TimeStamp),
				zap.String("bid", quote.Bid.String()),
				zap.String("ask", quote.Ask.String()))
		}
		handler(ctx, quote)
	}
}

func (m *Monitor) WithBar(handler bus.BarEventHandler) bus.BarEventHandler {
	return func(ctx context.Context, bar timeseries.Bar) {
		if m.flags&MonitorBars != 0 || m.flags&MonitorAll != 0 {
			m.logger.Info("event",
				zap.String("bar_symbol", bar.Symbol),
				zap.Time("ts", bar.TimeStamp),
				zap.Duration("period", bar.Period),
				zap.String("open", bar.Open.String()),
				zap.String("high", bar.High.String()),
				zap.String("low", bar.Low.String()),
				zap.String("close", bar.Close.String()),
				zap.String("volume", bar.Volume.String()))
		}
		handler(ctx, bar)
	}
}

func (m *Monitor) WithForecast(handler bus.ForecastEventHandler) bus.ForecastEventHandler {
	return func(ctx context.Context, update bus.ForecastUpdate) {
		if m.flags&MonitorForecasts != 0 || m.flags&MonitorAll != 0 {
			fields := []zap.Field{
				zap.String("forecast_symbol", update.Symbol),
				zap.Time("ts", update.TimeStamp),
				zap.String("model", update.Model),
				zap.Int("horizon", len(update.Points)),
			}
			if len(update.Points) > 0 {
				next := update.Points[0]
				fields = append(fields,
					zap.Float64("next_mean", next.Mean),
					zap.Float64("next_lower_95", next.Lower95),
					zap.Float64("next_upper_95", next.Upper95))
			}
			m.logger.Info("event", fields...)
		}
		handler(ctx, update)
	}
}

func (m *Monitor) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, sig bus.Signal) {
		if m.flags&MonitorSignals != 0 || m.flags&MonitorAll != 0 {
			m.logger.Info("event",
				zap.String("signal_symbol", sig.Symbol),
				zap.Time("ts", sig.TimeStamp),
				zap.String("price", sig.Price.String()),
				zap.Float64("zscore", sig.ZScore),
				zap.String("comment", sig.Comment))
		}
		handler(ctx, sig)
	}
}
