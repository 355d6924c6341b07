package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/market/data"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Manage historical bar data",
	Long: `Import and inspect the bar datasets backtests run against.

Subcommands:
  import  - Load a CSV archive (plain, .gz, or .xz) into a store

Examples:
  backtester data import --in 2330-daily.csv.xz --db bars.db
  backtester data import --in bars.csv --parquet ./data`,
}

var dataImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a bar archive into a SQLite or Parquet store",
	RunE:  runDataImport,
}

var (
	importIn         string
	importDB         string
	importParquetDir string
	importRes        string
)

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataImportCmd)

	dataImportCmd.Flags().StringVar(&importIn, "in", "", "input CSV file, optionally .gz or .xz compressed (required)")
	dataImportCmd.Flags().StringVar(&importDB, "db", "", "SQLite store to import into")
	dataImportCmd.Flags().StringVar(&importParquetDir, "parquet", "", "Parquet store directory to import into")
	dataImportCmd.Flags().StringVar(&importRes, "resolution", string(market.Day1), "bar resolution of the dataset")
	dataImportCmd.MarkFlagRequired("in")
}

func runDataImport(cmd *cobra.Command, args []string) error {
	res := market.Resolution(importRes)
	if res.Duration() == 0 {
		return fmt.Errorf("unknown resolution %q", importRes)
	}
	if importDB == "" && importParquetDir == "" {
		return fmt.Errorf("either --db or --parquet is required")
	}

	bars, err := data.ReadArchive(importIn)
	if err != nil {
		return err
	}
	if err := market.ValidateSeries(bars); err != nil {
		return fmt.Errorf("%s: %w", importIn, err)
	}

	ctx := cmd.Context()

	if importDB != "" {
		store, err := data.OpenStore(importDB)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.PutBars(ctx, res, bars); err != nil {
			return err
		}
		fmt.Printf("imported %d bars into %s\n", len(bars), importDB)
	}

	if importParquetDir != "" {
		store := data.NewParquetStore(importParquetDir)
		if err := store.PutBars(ctx, res, bars); err != nil {
			return err
		}
		fmt.Printf("imported %d bars into %s\n", len(bars), importParquetDir)
	}

	return nil
}
