package middleware

import (
	"context"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

//goland:noinspection ALL
var (
	NoopQuoteHdl    = func(context.Context, timeseries.Quote) {}
	NoopBarHdl      = func(context.Context, timeseries.Bar) {}
	NoopForecastHdl = func(context.Context, bus.ForecastUpdate) {}
	NoopSignalHdl   = func(context.Context, bus.Signal) {}
)
