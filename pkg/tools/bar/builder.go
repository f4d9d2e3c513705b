// Package bar aggregates a quote stream into OHLCV bars. The builder
// subscribes to quote events and posts a bar event whenever a period
// boundary closes the bar under construction.
package bar

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
	"github.com/peter-kozarec/solstice/pkg/utility"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

const builderComponentName = "tools.bar.builder"

type PriceMode int

const (
	PriceModeAsk PriceMode = iota
	PriceModeBid
	PriceModeMid
)

type Option func(*Builder)

// With registers a bar configuration. Periods must divide evenly into
// a day (a minute, an hour, a day), since bars are aligned by
// truncating the quote timestamp to the period.
func With(symbol string, period time.Duration, priceMode PriceMode) Option {
	return func(b *Builder) {
		for _, c := range b.configs {
			if c.symbol == symbol && c.period == period {
				panic("bar config already exists")
			}
		}
		if period <= 0 || 24*time.Hour%period != 0 {
			panic("bar period must divide a day")
		}

		b.configs = append(b.configs, struct {
			symbol string
			period time.Duration
			mode   PriceMode
		}{symbol, period, priceMode})
	}
}

type Builder struct {
	logger         *zap.Logger
	router         *bus.Router
	inConstruction []timeseries.Bar

	configs []struct {
		symbol string
		period time.Duration
		mode   PriceMode
	}
}

func NewBuilder(logger *zap.Logger, router *bus.Router, options ...Option) *Builder {
	b := &Builder{
		logger: logger,
		router: router,
	}

	for _, option := range options {
		option(b)
	}

	return b
}

func (b *Builder) OnQuote(_ context.Context, quote timeseries.Quote) {
	for _, c := range b.configs {
		if c.symbol != quote.Symbol {
			continue
		}
		b.construct(c.symbol, c.period, c.mode, quote)
	}
}

// Flush posts every bar still under construction. Called when a feed
// ends so the trailing partial bars are not lost.
func (b *Builder) Flush() {
	for _, bar := range b.inConstruction {
		if err := b.router.Post(bus.BarEvent, bar); err != nil {
			b.logger.Error("unable to post bar", zap.Error(err))
		}
	}
	b.inConstruction = b.inConstruction[:0]
}

func (b *Builder) construct(symbol string, period time.Duration, mode PriceMode, quote timeseries.Quote) {

	// A quote past the period boundary closes the bar in construction
	// by flushing it to the router.
	for i, bar := range b.inConstruction {
		if bar.Symbol == symbol && bar.Period == period {
			nextPeriodStart := bar.OpenTime.Add(period)
			if !quote.TimeStamp.Before(nextPeriodStart) {
				if err := b.router.Post(bus.BarEvent, bar); err != nil {
					b.logger.Error("unable to post bar", zap.Error(err))
				}
				b.inConstruction = append(b.inConstruction[:i], b.inConstruction[i+1:]...)
				break
			}
		}
	}

	found := false
	price := b.getPrice(quote, mode)
	volume := quote.AskVolume.Add(quote.BidVolume)

	for i := range b.inConstruction {
		bar := &b.inConstruction[i]

		if bar.Symbol == symbol && bar.Period == period {

			if price.Gt(bar.High) {
				bar.High = price
			}

			if price.Lt(bar.Low) {
				bar.Low = price
			}

			bar.Close = price
			bar.TimeStamp = quote.TimeStamp
			bar.Volume = bar.Volume.Add(volume)

			found = true
			break
		}
	}

	if !found {
		bar := timeseries.Bar{
			Source:    builderComponentName,
			Symbol:    symbol,
			RunID:     utility.GetRunID(),
			TraceID:   utility.CreateTraceID(),
			Period:    period,
			TimeStamp: quote.TimeStamp,
			OpenTime:  quote.TimeStamp.Truncate(period),
			Open:      price,
			Close:     price,
			High:      price,
			Low:       price,
			Volume:    volume,
		}

		b.inConstruction = append(b.inConstruction, bar)
	}
}

func (b *Builder) getPrice(quote timeseries.Quote, mode PriceMode) fixed.Point {
	switch mode {
	case PriceModeAsk:
		return quote.Ask
	case PriceModeBid:
		return quote.Bid
	case PriceModeMid:
		return quote.Mid()
	default:
		panic("invalid price mode")
	}
}
