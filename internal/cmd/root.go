// Package cmd wires the solstice command tree.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/internal/dbg"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "solstice",
	Short: "Automated forecasting and risk analysis for price series",
	Long: `Solstice loads a univariate price series, profiles it, compares a
family of classical forecasting models under rolling-origin
cross-validation and turns the winner into forecasts, risk estimates
and chart-ready artifacts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default solstice.yaml in . or $HOME/.config/solstice)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().String("db", "", "duckdb database file")
	rootCmd.PersistentFlags().String("out", "solstice-out", "artifact output directory")

	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("out", rootCmd.PersistentFlags().Lookup("out"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("solstice")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/solstice")
	}
	viper.SetEnvPrefix("solstice")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func newLogger() *zap.Logger {
	return dbg.NewCliLogger(verbose)
}
