package datasource

import (
	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// QuoteSource produces quotes one at a time until it returns an error,
// conventionally the package level ErrEof of the implementation.
type QuoteSource interface {
	GetNext() (timeseries.Quote, error)
}

// BarSource produces bars one at a time until it returns an error.
type BarSource interface {
	GetNext() (timeseries.Bar, error)
}

// CreateQuoteDispatcher adapts a QuoteSource to a router feed callback.
// Each invocation pulls one quote and posts it as a QuoteEvent.
func CreateQuoteDispatcher(r *bus.Router, ds QuoteSource) func() error {
	return func() error {
		var quote timeseries.Quote
		var err error

		if quote, err = ds.GetNext(); err != nil {
			return err
		}
		if err = r.Post(bus.QuoteEvent, quote); err != nil {
			return err
		}
		return nil
	}
}

// CreateBarDispatcher adapts a BarSource to a router feed callback.
func CreateBarDispatcher(r *bus.Router, ds BarSource) func() error {
	return func() error {
		var bar timeseries.Bar
		var err error

		if bar, err = ds.GetNext(); err != nil {
			return err
		}
		if err = r.Post(bus.BarEvent, bar); err != nil {
			return err
		}
		return nil
	}
}
