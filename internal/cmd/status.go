package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/peter-kozarec/solstice/pkg/data/duckdb"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

var statusCmd = &cobra.Command{
	Use:   "status [symbol]",
	Short: "Show what the database holds",
	Long: `Status lists the symbols known to the configured database together
with their bar coverage. Given a symbol it also prints the most recent
stored run, leaderboard and forecast included.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if len(args) == 0 {
			return printSymbols(cmd.Context(), store)
		}
		return printSymbol(cmd.Context(), store, args[0])
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func printSymbols(ctx context.Context, store *duckdb.Store) error {
	symbols, err := store.ListSymbols(ctx)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		fmt.Println("no symbols stored")
		return nil
	}

	for _, info := range symbols {
		coverage, err := barCoverage(ctx, store, info.Symbol)
		if err != nil {
			return err
		}
		fmt.Printf("%-16s %-32s %s\n", info.Symbol, coverage, info.Description)
	}
	return nil
}

func printSymbol(ctx context.Context, store *duckdb.Store, symbol string) error {
	info, err := store.GetSymbol(ctx, symbol)
	if err != nil {
		return err
	}

	coverage, err := barCoverage(ctx, store, symbol)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s\n", info.Symbol, coverage)
	if info.Description != "" {
		fmt.Println(info.Description)
	}

	run, err := store.LatestRun(ctx, symbol)
	if errors.Is(err, duckdb.ErrRunNotFound) {
		fmt.Println("no stored runs")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nlatest run %s (%s)\n", run.ID, run.Created.Format(time.RFC3339))
	fmt.Printf("best model %s, horizon %d by %s\n", run.BestModel, run.Horizon, run.Metric)
	if run.Board != nil {
		fmt.Println()
		fmt.Println(run.Board.String())
	}
	if len(run.Points) > 0 {
		first := run.Points[0]
		last := run.Points[len(run.Points)-1]
		fmt.Printf("forecast %d steps, %s to %s, final mean %.4f\n",
			len(run.Points), first.Time.Format(dateLayout), last.Time.Format(dateLayout), last.Mean)
	}
	return nil
}

// barCoverage streams the stored bars of a symbol and summarizes their
// count and range.
func barCoverage(ctx context.Context, store *duckdb.Store, symbol string) (string, error) {
	var (
		count       int
		first, last time.Time
	)
	err := store.LoadBars(ctx, symbol, time.Time{}, time.Now().UTC().AddDate(1, 0, 0),
		func(bar timeseries.Bar) error {
			if count == 0 {
				first = bar.TimeStamp
			}
			last = bar.TimeStamp
			count++
			return nil
		})
	if err != nil {
		return "", err
	}
	if count == 0 {
		return "no bars", nil
	}
	return fmt.Sprintf("%d bars %s to %s", count, first.Format(dateLayout), last.Format(dateLayout)), nil
}
