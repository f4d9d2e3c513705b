package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/data/duckdb"
	"github.com/peter-kozarec/solstice/pkg/datasource/historical"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

var (
	ingestSymbol string
	ingestPeriod time.Duration
	ingestCache  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <bars.csv>",
	Short: "Import a bar CSV into the database and binary cache",
	Long: `Ingest reads an OHLCV CSV file and stores its bars in the configured
DuckDB database, the binary bar cache, or both. The symbol defaults to
the file name.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		if viper.GetString("db") == "" && ingestCache == "" {
			return errors.New("nothing to do, set --db or --cache")
		}

		symbol := ingestSymbol
		if symbol == "" {
			symbol = symbolFromFile(args[0])
		}
		return importBarsCSV(cmd.Context(), logger, args[0], symbol, ingestPeriod, ingestCache)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSymbol, "symbol", "", "symbol the bars belong to (default: file name)")
	ingestCmd.Flags().DurationVar(&ingestPeriod, "period", 24*time.Hour, "bar period")
	ingestCmd.Flags().StringVar(&ingestCache, "cache", "", "binary bar cache directory")
	rootCmd.AddCommand(ingestCmd)
}

// importBarsCSV loads one bar CSV and writes it to every configured
// sink. Shared between ingest and watch.
func importBarsCSV(ctx context.Context, logger *zap.Logger, csvPath, symbol string, period time.Duration, cacheDir string) error {
	bars, err := timeseries.LoadBarsCSV(csvPath, symbol, period, timeseries.DefaultCSVOptions())
	if err != nil {
		return fmt.Errorf("loading %s: %w", csvPath, err)
	}

	if dbPath := viper.GetString("db"); dbPath != "" {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.InsertBars(ctx, symbol, bars); err != nil {
			return fmt.Errorf("storing bars for %s: %w", symbol, err)
		}
		if err := store.UpsertSymbol(ctx, duckdb.SymbolInfo{
			Symbol:      symbol,
			Description: fmt.Sprintf("imported from %s", filepath.Base(csvPath)),
		}); err != nil {
			return err
		}
		logger.Info("bars stored",
			zap.String("symbol", symbol),
			zap.Int("bars", len(bars)),
			zap.String("db", dbPath))
	}

	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", cacheDir, err)
		}
		cachePath := filepath.Join(cacheDir, symbol+".bin")
		n, err := historical.ImportCSV(csvPath, cachePath, symbol, period)
		if err != nil {
			return fmt.Errorf("caching bars for %s: %w", symbol, err)
		}
		logger.Info("bars cached",
			zap.String("symbol", symbol),
			zap.Int("bars", n),
			zap.String("cache", cachePath))
	}
	return nil
}
