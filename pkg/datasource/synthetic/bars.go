package synthetic

import (
	"time"

	"golang.org/x/exp/rand"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
	"github.com/peter-kozarec/solstice/pkg/utility"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

const (
	barGeneratorComponentName = "datasource.synthetic.bars"
)

// BarGenerator emits one bar per period along a GBM close path. Daily
// periods step over weekends so the output looks like an exchange
// calendar. Highs and lows wrap the open to close move with a small
// random excursion.
type BarGenerator struct {
	symbol string
	rng    *rand.Rand

	period time.Duration
	steps  int64
	t      int64

	deltaLogPre1 fixed.Point
	deltaLogPre2 fixed.Point

	avgVolume      fixed.Point
	volumeVariance float64
	rangeFactor    float64

	nextOpen  time.Time
	lastClose fixed.Point

	normPriceDigits  int
	normVolumeDigits int
}

func NewBarGenerator(
	symbol string,
	rng *rand.Rand,
	startTime time.Time,
	startPrice, mu, sigma, deltaT fixed.Point,
	period time.Duration,
	steps int64) *BarGenerator {

	return &BarGenerator{
		symbol: symbol,
		rng:    rng,

		period: period,
		steps:  steps,

		deltaLogPre1: mu.Sub(sigma.Mul(sigma).Mul(pointFive)).Mul(deltaT),
		deltaLogPre2: sigma.Mul(deltaT.Sqrt()),

		avgVolume:      fixed.FromInt64(1000, 0),
		volumeVariance: 0.5,
		rangeFactor:    0.4,

		nextOpen:  startTime.Truncate(period),
		lastClose: startPrice,

		normPriceDigits:  2,
		normVolumeDigits: 0,
	}
}

func (g *BarGenerator) SetVolumeProfile(avgVol fixed.Point, variance float64) {
	g.avgVolume = avgVol
	g.volumeVariance = variance
}

// SetRangeFactor scales the random high/low excursion relative to the
// absolute open to close move.
func (g *BarGenerator) SetRangeFactor(f float64) {
	g.rangeFactor = f
}

func (g *BarGenerator) SetPriceDigits(digits int) {
	g.normPriceDigits = digits
}

func (g *BarGenerator) SetVolumeDigits(digits int) {
	g.normVolumeDigits = digits
}

func (g *BarGenerator) GetNext() (timeseries.Bar, error) {
	var bar timeseries.Bar

	if g.t >= g.steps {
		return bar, ErrEof
	}
	g.t++

	open := g.lastClose

	z := g.rng.NormFloat64()
	deltaLog := g.deltaLogPre1.Add(g.deltaLogPre2.Mul(fixed.FromFloat64(z)))
	closePrice := open.Mul(deltaLog.Exp())

	high := fixed.Max(open, closePrice)
	low := fixed.Min(open, closePrice)

	move := high.Sub(low)
	upWick := move.Mul(fixed.FromFloat64(g.rng.Float64() * g.rangeFactor))
	downWick := move.Mul(fixed.FromFloat64(g.rng.Float64() * g.rangeFactor))
	high = high.Add(upWick)
	low = low.Sub(downWick)

	volVariation := g.rng.NormFloat64() * g.volumeVariance
	volume := g.avgVolume.Mul(fixed.FromFloat64(volVariation).Exp())
	if volume.Lte(fixed.Zero) {
		volume = fixed.One
	}

	openTime := g.nextOpen
	g.advanceOpenTime()
	g.lastClose = closePrice

	bar.Symbol = g.symbol
	bar.Source = barGeneratorComponentName
	bar.RunID = utility.GetRunID()
	bar.TraceID = utility.CreateTraceID()
	bar.OpenTime = openTime
	bar.TimeStamp = openTime
	bar.Period = g.period
	bar.Open = open.Rescale(g.normPriceDigits)
	bar.High = high.Rescale(g.normPriceDigits)
	bar.Low = low.Rescale(g.normPriceDigits)
	bar.Close = closePrice.Rescale(g.normPriceDigits)
	bar.Volume = volume.Rescale(g.normVolumeDigits)

	return bar, nil
}

func (g *BarGenerator) advanceOpenTime() {
	g.nextOpen = g.nextOpen.Add(g.period)
	if g.period != 24*time.Hour {
		return
	}
	for {
		wd := g.nextOpen.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			return
		}
		g.nextOpen = g.nextOpen.Add(g.period)
	}
}
