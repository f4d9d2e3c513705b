package bus

import (
	"context"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

type EventHandler[T any] = func(context.Context, T)

type QuoteEventHandler EventHandler[timeseries.Quote]
type BarEventHandler EventHandler[timeseries.Bar]
type ForecastEventHandler EventHandler[ForecastUpdate]
type SignalEventHandler EventHandler[Signal]

// MergeHandlers fans one event out to several handlers in order.
func MergeHandlers[T any](handlers ...EventHandler[T]) EventHandler[T] {
	return func(ctx context.Context, event T) {
		for _, handler := range handlers {
			handler(ctx, event)
		}
	}
}
