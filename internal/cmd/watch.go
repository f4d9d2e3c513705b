package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/internal/watch"
)

var (
	watchPeriod   time.Duration
	watchCache    string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Auto-ingest bar CSVs dropped into a directory",
	Long: `Watch monitors a drop directory and imports every settled CSV file
into the configured sinks, the way ingest does. The symbol is derived
from the file name. Files already present are imported first. Runs
until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		if viper.GetString("db") == "" && watchCache == "" {
			return errors.New("nothing to do, set --db or --cache")
		}
		return runWatch(cmd, logger, args[0])
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchPeriod, "period", 24*time.Hour, "bar period of the dropped files")
	watchCmd.Flags().StringVar(&watchCache, "cache", "", "binary bar cache directory")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "settle time before a file is imported")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, logger *zap.Logger, dir string) error {
	w, err := watch.NewWatcher(logger, dir, watch.WithDebounce(watchDebounce))
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	importOne := func(path string) {
		symbol := symbolFromFile(path)
		if err := importBarsCSV(ctx, logger, path, symbol, watchPeriod, watchCache); err != nil {
			logger.Error("import failed", zap.String("file", path), zap.Error(err))
		}
	}

	backlog, err := w.Scan()
	if err != nil {
		return err
	}
	for _, path := range backlog {
		importOne(path)
	}

	logger.Info("watching", zap.String("dir", dir), zap.Int("backlog", len(backlog)))
	for ev := range w.Watch(ctx) {
		importOne(ev.Path)
	}
	return nil
}
