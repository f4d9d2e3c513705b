// Package synthetic generates artificial price data from a geometric
// Brownian motion. Quotes and bars come with realistic spread, timing
// and volume dynamics, which makes the package useful for demos and
// for exercising the full pipeline without a data subscription.
package synthetic

import (
	"errors"
	"time"

	"golang.org/x/exp/rand"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
	"github.com/peter-kozarec/solstice/pkg/utility"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

const (
	quoteGeneratorComponentName = "datasource.synthetic.quotes"
)

var (
	pointFive = fixed.FromInt64(5, 1)
	ErrEof    = errors.New("EOF")
)

// QuoteGenerator emits bid and ask quotes along a GBM price path.
type QuoteGenerator struct {
	symbol string
	rng    *rand.Rand

	startTime  time.Time
	startPrice fixed.Point
	baseSpread fixed.Point
	mu         fixed.Point
	sigma      fixed.Point
	deltaT     fixed.Point
	steps      int64
	t          int64

	avgQuoteInterval time.Duration
	timingVariance   float64

	avgVolume      fixed.Point
	volumeVariance float64

	deltaLogPre1 fixed.Point
	deltaLogPre2 fixed.Point

	spreadVolatility float64
	minSpread        fixed.Point
	maxSpread        fixed.Point

	lastTime      time.Time
	lastPrice     fixed.Point
	currentSpread fixed.Point

	normPriceDigits  int
	normVolumeDigits int
}

func NewQuoteGenerator(
	symbol string,
	rng *rand.Rand,
	startTime time.Time,
	startPrice, fullSpread, mu, sigma, deltaT fixed.Point,
	steps int64) *QuoteGenerator {

	return &QuoteGenerator{
		symbol: symbol,
		rng:    rng,

		startTime:  startTime,
		startPrice: startPrice,
		baseSpread: fullSpread.DivInt64(2),
		mu:         mu,
		sigma:      sigma,
		deltaT:     deltaT,
		steps:      steps,

		avgQuoteInterval: time.Duration(333_000_000),
		timingVariance:   0.3,

		avgVolume:      fixed.FromInt64(100, 0),
		volumeVariance: 0.5,

		spreadVolatility: 0.1,
		minSpread:        fullSpread.Mul(fixed.FromInt64(5, 1)),
		maxSpread:        fullSpread.Mul(fixed.FromInt64(15, 1)),

		// Pre-calculated values for GBM
		deltaLogPre1: mu.Sub(sigma.Mul(sigma).Mul(pointFive)).Mul(deltaT),
		deltaLogPre2: sigma.Mul(deltaT.Sqrt()),

		lastTime:      startTime,
		lastPrice:     startPrice,
		currentSpread: fullSpread.DivInt64(2),
	}
}

func (g *QuoteGenerator) SetQuoteTiming(avgInterval time.Duration, variance float64) {
	g.avgQuoteInterval = avgInterval
	g.timingVariance = variance
}

func (g *QuoteGenerator) SetVolumeProfile(avgVol fixed.Point, variance float64) {
	g.avgVolume = avgVol
	g.volumeVariance = variance
}

func (g *QuoteGenerator) SetSpreadDynamics(volatility float64, minSpread, maxSpread fixed.Point) {
	g.spreadVolatility = volatility
	g.minSpread = minSpread
	g.maxSpread = maxSpread
}

func (g *QuoteGenerator) SetPriceDigits(digits int) {
	g.normPriceDigits = digits
}

func (g *QuoteGenerator) SetVolumeDigits(digits int) {
	g.normVolumeDigits = digits
}

func (g *QuoteGenerator) GetNext() (timeseries.Quote, error) {
	var quote timeseries.Quote

	if g.t >= g.steps {
		return quote, ErrEof
	}

	z := g.rng.NormFloat64()
	deltaLog := g.deltaLogPre1.Add(g.deltaLogPre2.Mul(fixed.FromFloat64(z)))
	g.lastPrice = g.lastPrice.Mul(deltaLog.Exp())

	g.updateSpread()

	quoteInterval := g.generateQuoteInterval()
	g.lastTime = g.lastTime.Add(quoteInterval)
	g.t++

	askVol, bidVol := g.generateVolumes()

	quote.Ask = g.lastPrice.Add(g.currentSpread)
	quote.Bid = g.lastPrice.Sub(g.currentSpread)
	quote.TimeStamp = g.lastTime
	quote.AskVolume = askVol
	quote.BidVolume = bidVol

	g.addQuoteNoise(&quote)

	quote.Ask = quote.Ask.Rescale(g.normPriceDigits)
	quote.Bid = quote.Bid.Rescale(g.normPriceDigits)

	quote.AskVolume = quote.AskVolume.Rescale(g.normVolumeDigits)
	quote.BidVolume = quote.BidVolume.Rescale(g.normVolumeDigits)

	quote.Source = quoteGeneratorComponentName
	quote.Symbol = g.symbol
	quote.RunID = utility.GetRunID()
	quote.TraceID = utility.CreateTraceID()

	return quote, nil
}

func (g *QuoteGenerator) updateSpread() {
	if g.spreadVolatility <= 0 {
		return
	}

	spreadChange := g.rng.NormFloat64() * g.spreadVolatility
	newSpread := g.currentSpread.Mul(fixed.FromFloat64(1.0 + spreadChange))

	if newSpread.Lt(g.minSpread) {
		g.currentSpread = g.minSpread
	} else if newSpread.Gt(g.maxSpread) {
		g.currentSpread = g.maxSpread
	} else {
		g.currentSpread = newSpread
	}
}

func (g *QuoteGenerator) generateQuoteInterval() time.Duration {
	if g.timingVariance <= 0 {
		return g.avgQuoteInterval
	}

	lambda := 1.0 / float64(g.avgQuoteInterval.Nanoseconds())
	interval := g.rng.ExpFloat64() / lambda

	minInterval := float64(g.avgQuoteInterval.Nanoseconds()) * (1.0 - g.timingVariance)
	maxInterval := float64(g.avgQuoteInterval.Nanoseconds()) * (1.0 + g.timingVariance*3)

	if interval < minInterval {
		interval = minInterval
	} else if interval > maxInterval {
		interval = maxInterval
	}

	return time.Duration(int64(interval))
}

func (g *QuoteGenerator) generateVolumes() (askVol, bidVol fixed.Point) {
	askVariation := g.rng.NormFloat64() * g.volumeVariance
	bidVariation := g.rng.NormFloat64() * g.volumeVariance

	askMultiplier := fixed.FromFloat64(1.0 + askVariation).Exp()
	bidMultiplier := fixed.FromFloat64(1.0 + bidVariation).Exp()

	askVol = g.avgVolume.Mul(askMultiplier)
	bidVol = g.avgVolume.Mul(bidMultiplier)

	// Ensure positive volumes
	if askVol.Lte(fixed.Zero) {
		askVol = fixed.One
	}
	if bidVol.Lte(fixed.Zero) {
		bidVol = fixed.One
	}

	return askVol, bidVol
}

func (g *QuoteGenerator) addQuoteNoise(quote *timeseries.Quote) {
	tickSize := g.currentSpread.DivInt64(10)

	askNoise := fixed.FromFloat64(g.rng.NormFloat64() * 0.1).Mul(tickSize)
	bidNoise := fixed.FromFloat64(g.rng.NormFloat64() * 0.1).Mul(tickSize)

	quote.Ask = quote.Ask.Add(askNoise)
	quote.Bid = quote.Bid.Add(bidNoise)

	if quote.Bid.Gte(quote.Ask) {
		mid := quote.Bid.Add(quote.Ask).DivInt64(2)
		quote.Bid = mid.Sub(tickSize)
		quote.Ask = mid.Add(tickSize)
	}
}
