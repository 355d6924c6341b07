package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "A deterministic bar-replay backtesting platform",
	Long: `Backtester replays historical price bars through a trading strategy and
produces simulated trades, an equity curve, and performance statistics.

It provides tools for:
  - Running deterministic backtests against CSV, SQLite, or Parquet bar data
  - Importing vendor bar archives (plain, gzip, or xz CSV) into a store
  - Itemized, regulator-style trading fee schedules
  - Built-in reference strategies (ma-cross, breakout, open-once, noop)

Complete documentation is available at https://github.com/rustyeddy/backtester`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
