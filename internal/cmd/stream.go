package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"

	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/datasource"
	"github.com/peter-kozarec/solstice/pkg/datasource/historical"
	"github.com/peter-kozarec/solstice/pkg/datasource/stream"
	"github.com/peter-kozarec/solstice/pkg/datasource/synthetic"
	"github.com/peter-kozarec/solstice/pkg/forecast"
	"github.com/peter-kozarec/solstice/pkg/middleware"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
	"github.com/peter-kozarec/solstice/pkg/tools/bar"
	"github.com/peter-kozarec/solstice/pkg/tools/indicators"
	"github.com/peter-kozarec/solstice/pkg/utility"
)

const advisorComponentName = "cmd.stream.advisor"

var (
	streamURL        string
	streamSymbol     string
	streamPeriod     time.Duration
	streamFreq       string
	streamModel      string
	streamWindow     int
	streamHorizon    int
	streamRefit      int
	streamZWindow    uint
	streamZLimit     float64
	streamCapacity   int
	streamDemo       bool
	streamDemoFor    time.Duration
	streamSeed       uint64
	streamReplay     string
	streamPing       time.Duration
	streamBackoffMin time.Duration
	streamBackoffMax time.Duration
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Forecast a live quote stream",
	Long: `Stream feeds quotes or bars through the event pipeline: quotes are
aggregated into bars, a model stays fitted over a rolling window of
closes and a refreshed forecast is posted after every refit. Closes
stretched beyond the z-score limit or outside the forecast band raise
signals. The feed is a websocket subscription (--url), a seeded
synthetic quote stream (--demo) or a binary bar cache written by
ingest (--replay). Runs until the feed ends or it is interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer func() { _ = logger.Sync() }()
		return runStream(cmd, logger)
	},
}

func init() {
	streamCmd.Flags().StringVar(&streamURL, "url", "", "websocket feed url")
	streamCmd.Flags().StringVar(&streamSymbol, "symbol", "", "symbol to subscribe")
	streamCmd.Flags().DurationVar(&streamPeriod, "period", time.Hour, "bar period for aggregation and replay")
	streamCmd.Flags().StringVar(&streamFreq, "freq", "hourly", "frequency label for the aggregated bars")
	streamCmd.Flags().StringVar(&streamModel, "model", "ses", "model family to keep fitted")
	streamCmd.Flags().IntVar(&streamWindow, "window", 64, "rolling fit window in bars")
	streamCmd.Flags().IntVar(&streamHorizon, "horizon", 6, "forecast horizon in bars")
	streamCmd.Flags().IntVar(&streamRefit, "refit-every", 4, "bars between refits")
	streamCmd.Flags().UintVar(&streamZWindow, "zscore-window", 32, "bars in the z-score window")
	streamCmd.Flags().Float64Var(&streamZLimit, "zscore-limit", 2.0, "absolute z-score raising a signal")
	streamCmd.Flags().IntVar(&streamCapacity, "capacity", 1000, "router event capacity")
	streamCmd.Flags().BoolVar(&streamDemo, "demo", false, "stream a synthetic quote feed instead of dialing")
	streamCmd.Flags().DurationVar(&streamDemoFor, "demo-duration", 7*24*time.Hour, "simulated span of the synthetic feed")
	streamCmd.Flags().Uint64Var(&streamSeed, "seed", 42, "random seed for the synthetic feed")
	streamCmd.Flags().StringVar(&streamReplay, "replay", "", "replay bars from this binary cache file")
	streamCmd.Flags().DurationVar(&streamPing, "ping-interval", 30*time.Second, "websocket keepalive interval")
	streamCmd.Flags().DurationVar(&streamBackoffMin, "backoff-min", time.Second, "initial redial backoff")
	streamCmd.Flags().DurationVar(&streamBackoffMax, "backoff-max", 30*time.Second, "redial backoff cap")
	_ = streamCmd.MarkFlagRequired("symbol")
	rootCmd.AddCommand(streamCmd)
}

func runStream(cmd *cobra.Command, logger *zap.Logger) error {
	feeds := 0
	for _, set := range []bool{streamURL != "", streamDemo, streamReplay != ""} {
		if set {
			feeds++
		}
	}
	if feeds != 1 {
		return errors.New("pick exactly one feed: --url, --demo or --replay")
	}

	freq, err := timeseries.ParseFrequency(streamFreq)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	router := bus.NewRouter(logger, streamCapacity)

	builder := bar.NewBuilder(logger, router, bar.With(streamSymbol, streamPeriod, bar.PriceModeMid))
	defer builder.Flush()

	refresher, err := forecast.NewRefresher(logger, router,
		streamSymbol, streamModel, freq, streamWindow, streamHorizon, streamRefit)
	if err != nil {
		return err
	}
	adv := newAdvisor(logger, router, streamSymbol, streamZWindow, streamZLimit)

	monitor := middleware.NewMonitor(logger,
		middleware.MonitorBars|middleware.MonitorForecasts|middleware.MonitorSignals)
	telemetry := middleware.NewTelemetry(logger)
	performance := middleware.NewPerformance(logger)

	router.QuoteHandler = telemetry.WithQuote(performance.WithQuote(builder.OnQuote))
	router.BarHandler = telemetry.WithBar(performance.WithBar(monitor.WithBar(
		bus.MergeHandlers(refresher.OnBar, adv.OnBar))))
	router.ForecastHandler = telemetry.WithForecast(performance.WithForecast(monitor.WithForecast(adv.OnForecast)))
	router.SignalHandler = telemetry.WithSignal(monitor.WithSignal(middleware.NoopSignalHdl))

	defer func() {
		router.Statistics().Print(logger)
		telemetry.PrintStatistics()
		performance.PrintStatistics(telemetry)
	}()

	var feed func() error
	switch {
	case streamReplay != "":
		src := historical.NewSource[historical.BinaryBar](streamReplay)
		if err := src.Open(); err != nil {
			return err
		}
		defer src.Close()
		reader := historical.NewBarReader(src, streamSymbol, streamPeriod,
			time.Time{}, time.Time{})
		feed = datasource.CreateBarDispatcher(router, reader)

	case streamDemo:
		rng := rand.New(rand.NewSource(streamSeed))
		// The walkthrough regime, 8% drift and 20% vol a year.
		gen := synthetic.NewDemoQuoteGenerator(streamSymbol, rng, streamDemoFor, 0.08, 0.20)
		feed = datasource.CreateQuoteDispatcher(router, gen)

	default:
		client, err := stream.Dial(ctx, logger, streamURL, []string{streamSymbol},
			stream.WithPingInterval(streamPing),
			stream.WithBackoff(streamBackoffMin, streamBackoffMax))
		if err != nil {
			return fmt.Errorf("dialing %s: %w", streamURL, err)
		}
		defer client.Close()
		feed = datasource.CreateQuoteDispatcher(router, client)
	}

	logger.Info("streaming",
		zap.String("url", streamURL),
		zap.String("replay", streamReplay),
		zap.Bool("demo", streamDemo),
		zap.String("symbol", streamSymbol),
		zap.Duration("period", streamPeriod),
		zap.String("model", streamModel))

	go router.ExecLoop(ctx, feed)

	err = <-router.Done()
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, stream.ErrClosed),
		errors.Is(err, historical.ErrEof),
		errors.Is(err, synthetic.ErrEof):
		return nil
	}
	return err
}

// advisor scores incoming closes against their rolling window and the
// latest forecast, raising a signal when either says the move is
// unusual.
type advisor struct {
	logger *zap.Logger
	router *bus.Router

	symbol string
	limit  float64
	zscore *indicators.ZScore
	latest *bus.ForecastUpdate
}

func newAdvisor(logger *zap.Logger, router *bus.Router, symbol string, window uint, limit float64) *advisor {
	return &advisor{
		logger: logger,
		router: router,
		symbol: symbol,
		limit:  limit,
		zscore: indicators.NewZScore(window),
	}
}

func (a *advisor) OnForecast(_ context.Context, update bus.ForecastUpdate) {
	if update.Symbol != a.symbol {
		return
	}
	a.latest = &update
}

func (a *advisor) OnBar(_ context.Context, b timeseries.Bar) {
	if b.Symbol != a.symbol {
		return
	}

	a.zscore.AddPoint(b.Close)
	if !a.zscore.IsReady() {
		return
	}

	z := a.zscore.Value()
	outside := a.outsideForecastBand(b)
	if math.Abs(z) < a.limit && !outside {
		return
	}

	comment := fmt.Sprintf("close stretched %.2f sigma from its rolling mean", z)
	if outside {
		comment = fmt.Sprintf("close outside the %s 95%% forecast band", a.latest.Model)
	}

	if err := a.router.Post(bus.SignalEvent, bus.Signal{
		Source:    advisorComponentName,
		Symbol:    b.Symbol,
		RunID:     utility.GetRunID(),
		TraceID:   utility.CreateTraceID(),
		TimeStamp: b.TimeStamp,
		Price:     b.Close,
		ZScore:    z,
		Comment:   comment,
	}); err != nil {
		a.logger.Warn("signal dropped", zap.Error(err))
	}
}

// outsideForecastBand reports whether the close fell outside the 95%
// interval of the first forecast step.
func (a *advisor) outsideForecastBand(b timeseries.Bar) bool {
	if a.latest == nil || len(a.latest.Points) == 0 {
		return false
	}
	c, ok := b.Close.Float64()
	if !ok {
		return false
	}
	next := a.latest.Points[0]
	return c < next.Lower95 || c > next.Upper95
}
