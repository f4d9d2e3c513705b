package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/data/duckdb"
	"github.com/peter-kozarec/solstice/pkg/datasource/historical"
	"github.com/peter-kozarec/solstice/pkg/forecast"
	"github.com/peter-kozarec/solstice/pkg/report"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

const dateLayout = "2006-01-02"

// seriesInput is the flag set naming where a series comes from: a CSV
// file, a binary bar cache or a symbol stored in the database.
type seriesInput struct {
	csvPath   string
	cachePath string
	symbol    string
	freqName  string
	dateCol   string
	valueCol  string
	from      string
	to        string
}

func (in *seriesInput) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.csvPath, "csv", "", "input CSV file")
	cmd.Flags().StringVar(&in.cachePath, "cache", "", "binary bar cache file")
	cmd.Flags().StringVar(&in.symbol, "symbol", "", "symbol to load from the database")
	cmd.Flags().StringVar(&in.freqName, "freq", "daily", "series frequency (hourly|daily|weekly|monthly|quarterly|yearly)")
	cmd.Flags().StringVar(&in.dateCol, "date-column", "", "CSV date column override")
	cmd.Flags().StringVar(&in.valueCol, "value-column", "", "CSV value column override")
	cmd.Flags().StringVar(&in.from, "from", "", "start of the time range (2006-01-02)")
	cmd.Flags().StringVar(&in.to, "to", "", "end of the time range (2006-01-02)")
}

func (in *seriesInput) timeRange() (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Now().UTC().AddDate(1, 0, 0)

	if in.from != "" {
		t, err := time.Parse(dateLayout, in.from)
		if err != nil {
			return from, to, fmt.Errorf("parsing --from: %w", err)
		}
		from = t
	}
	if in.to != "" {
		t, err := time.Parse(dateLayout, in.to)
		if err != nil {
			return from, to, fmt.Errorf("parsing --to: %w", err)
		}
		// Inclusive bound at the last instant of the named day, the
		// consumers all treat [from, to] as closed.
		to = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return from, to, nil
}

func (in *seriesInput) load(ctx context.Context) (*timeseries.Series, error) {
	freq, err := timeseries.ParseFrequency(in.freqName)
	if err != nil {
		return nil, err
	}
	from, to, err := in.timeRange()
	if err != nil {
		return nil, err
	}

	switch {
	case in.csvPath != "":
		opts := timeseries.DefaultCSVOptions()
		if in.dateCol != "" {
			opts.DateColumn = in.dateCol
		}
		if in.valueCol != "" {
			opts.ValueColumn = in.valueCol
		}
		s, err := timeseries.LoadCSV(in.csvPath, freq, opts)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", in.csvPath, err)
		}
		if in.from == "" && in.to == "" {
			return s, nil
		}
		return s.Window(from, to)

	case in.cachePath != "":
		src := historical.NewSource[historical.BinaryBar](in.cachePath)
		if err := src.Open(); err != nil {
			return nil, err
		}
		defer src.Close()

		symbol := in.symbol
		if symbol == "" {
			symbol = symbolFromFile(in.cachePath)
		}
		reader := historical.NewBarReader(src, symbol, 0, from, to)
		bars, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", in.cachePath, err)
		}
		return timeseries.FromBars(symbol, freq, bars)

	case in.symbol != "":
		store, err := openStore()
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.LoadSeries(ctx, in.symbol, freq, from, to)

	default:
		return nil, errors.New("either --csv, --cache or --symbol is required")
	}
}

// openStore connects to the database named by --db / SOLSTICE_DB.
func openStore() (*duckdb.Store, error) {
	path := viper.GetString("db")
	if path == "" {
		return nil, errors.New("no database configured, set --db")
	}
	store := duckdb.NewStore(path)
	if err := store.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", path, err)
	}
	return store, nil
}

func openWriter(logger *zap.Logger) (*report.Writer, error) {
	return report.NewWriter(viper.GetString("out"), logger)
}

// experimentOptions maps the shared modelling flags onto experiment
// options.
func experimentOptions(logger *zap.Logger, metric string, folds, step int, transform string, lambda float64) ([]forecast.Option, error) {
	opts := []forecast.Option{
		forecast.WithLogger(logger),
		forecast.WithMetric(metric),
		forecast.WithFolds(folds),
	}
	if step > 0 {
		opts = append(opts, forecast.WithStep(step))
	}

	switch transform {
	case "", "none":
	case "log":
		opts = append(opts, forecast.WithTransform(forecast.TransformLog))
	case "boxcox":
		opts = append(opts, forecast.WithBoxCox(lambda))
	default:
		return nil, fmt.Errorf("unknown transform %q", transform)
	}
	return opts, nil
}

// modelFlags is the flag set fixing the evaluation protocol shared by
// the modelling commands.
type modelFlags struct {
	horizon   int
	folds     int
	step      int
	metric    string
	transform string
	lambda    float64
}

func (mf *modelFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&mf.horizon, "horizon", 20, "forecast horizon")
	cmd.Flags().IntVar(&mf.folds, "folds", 3, "cross-validation folds")
	cmd.Flags().IntVar(&mf.step, "step", 0, "fold origin step (default: horizon)")
	cmd.Flags().StringVar(&mf.metric, "metric", "mase",
		"leaderboard metric ("+strings.Join(forecast.MetricNames(), "|")+")")
	cmd.Flags().StringVar(&mf.transform, "transform", "none", "value transform (none|log|boxcox)")
	cmd.Flags().Float64Var(&mf.lambda, "lambda", 0.0, "box-cox lambda")
}

func (mf *modelFlags) experiment(logger *zap.Logger, s *timeseries.Series) (*forecast.Experiment, error) {
	opts, err := experimentOptions(logger, mf.metric, mf.folds, mf.step, mf.transform, mf.lambda)
	if err != nil {
		return nil, err
	}
	return forecast.NewExperiment(s, mf.horizon, opts...)
}

// persistRun stores a finished run when a database is configured.
func persistRun(ctx context.Context, logger *zap.Logger, run duckdb.Run) error {
	if viper.GetString("db") == "" {
		return nil
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("storing run: %w", err)
	}
	logger.Info("run stored",
		zap.String("run_id", run.ID.String()),
		zap.String("db", viper.GetString("db")))
	return nil
}

// symbolFromFile derives a store-safe symbol from a file name, so
// dropped files like EURUSD_daily.csv land under eurusd_daily.
func symbolFromFile(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, stem)
}
