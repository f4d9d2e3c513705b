package synthetic

import (
	"log/slog"
	"time"

	"golang.org/x/exp/rand"

	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

// NewDemoQuoteGenerator builds a quote stream for a fictional equity
// priced near 100 with a cent-wide spread. Used by the demo and stream
// walkthroughs where no market subscription is available.
func NewDemoQuoteGenerator(symbol string, rng *rand.Rand, duration time.Duration, mu, sigma float64) *QuoteGenerator {

	const (
		demoStartPrice    = 100.00
		demoTypicalSpread = 0.02 // 2 cents spread
		demoMinSpread     = 0.01 // 1 cent minimum
		demoMaxSpread     = 0.06 // 6 cents maximum

		avgQuoteIntervalSeconds = 1    // second average between quotes
		quoteTimingVariance     = 0.45 // 45% timing variation

		avgVolumeUnits = 100  // 100 units average volume
		volumeVariance = 0.65 // 65% volume variance

		spreadVolatility = 0.12 // 12% spread volatility

		normPriceDigits  = 2
		normVolumeDigits = 0
	)

	startTime := time.Now()

	totalSeconds := int64(duration.Seconds())
	avgQuoteInterval := time.Duration(avgQuoteIntervalSeconds * float64(time.Second))
	estimatedQuotes := totalSeconds / int64(avgQuoteIntervalSeconds)

	secondsPerYear := 365.25 * 24 * 3600
	deltaT := fixed.FromFloat64(avgQuoteIntervalSeconds / secondsPerYear)

	startPrice := fixed.FromFloat64(demoStartPrice)
	fullSpread := fixed.FromFloat64(demoTypicalSpread)
	minSpread := fixed.FromFloat64(demoMinSpread)
	maxSpread := fixed.FromFloat64(demoMaxSpread)

	muFixed := fixed.FromFloat64(mu)
	sigmaFixed := fixed.FromFloat64(sigma)

	quoteGenerator := NewQuoteGenerator(
		symbol,
		rng,
		startTime,
		startPrice,
		fullSpread,
		muFixed,
		sigmaFixed,
		deltaT,
		estimatedQuotes,
	)

	quoteGenerator.SetQuoteTiming(avgQuoteInterval, quoteTimingVariance)
	quoteGenerator.SetVolumeProfile(fixed.FromInt64(avgVolumeUnits, 0), volumeVariance)
	quoteGenerator.SetSpreadDynamics(spreadVolatility, minSpread, maxSpread)
	quoteGenerator.SetPriceDigits(normPriceDigits)
	quoteGenerator.SetVolumeDigits(normVolumeDigits)

	slog.Debug("demo synthetic quote generator configuration",
		"symbol", symbol,
		"duration", duration,
		"mu_annual", mu,
		"sigma_annual", sigma,
		"start_price", demoStartPrice,
		"avg_spread_cents", demoTypicalSpread*100,
		"avg_quote_interval_sec", avgQuoteIntervalSeconds,
		"estimated_quotes", estimatedQuotes,
		"start_time", startTime,
	)

	return quoteGenerator
}

// NewDemoBarGenerator builds a daily bar stream for the same fictional
// equity. With the default drift and volatility of 8% and 20% a year
// the output resembles a plausible stock chart.
func NewDemoBarGenerator(symbol string, rng *rand.Rand, startTime time.Time, days int64, mu, sigma float64) *BarGenerator {

	const (
		demoStartPrice  = 100.00
		tradingDays     = 252
		avgVolumeShares = 10_000
		volumeVariance  = 0.5
		rangeFactor     = 0.6 // intraday excursion vs open to close move

		normPriceDigits  = 2
		normVolumeDigits = 0
	)

	deltaT := fixed.FromFloat64(1.0 / tradingDays)

	barGenerator := NewBarGenerator(
		symbol,
		rng,
		startTime,
		fixed.FromFloat64(demoStartPrice),
		fixed.FromFloat64(mu),
		fixed.FromFloat64(sigma),
		deltaT,
		24*time.Hour,
		days,
	)

	barGenerator.SetVolumeProfile(fixed.FromInt64(avgVolumeShares, 0), volumeVariance)
	barGenerator.SetRangeFactor(rangeFactor)
	barGenerator.SetPriceDigits(normPriceDigits)
	barGenerator.SetVolumeDigits(normVolumeDigits)

	slog.Debug("demo synthetic bar generator configuration",
		"symbol", symbol,
		"days", days,
		"mu_annual", mu,
		"sigma_annual", sigma,
		"start_price", demoStartPrice,
		"start_time", startTime,
	)

	return barGenerator
}
