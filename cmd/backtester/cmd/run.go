package cmd

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/internal/logging"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/market/data"
	"github.com/rustyeddy/backtester/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest from a configuration file",
	Long: `Run a backtest described by a configuration file, optionally overriding
the symbol, strategy, or slippage on the command line.

Example:
  backtester run --config backtest.yaml
  backtester run --config backtest.yaml --symbol 2330 --strategy breakout`,
	RunE: runRun,
}

var (
	runConfigPath string
	runSymbol     string
	runStrategy   string
	runSlippage   float64
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "backtest.yaml", "configuration file")
	runCmd.Flags().StringVar(&runSymbol, "symbol", "", "override the configured symbol")
	runCmd.Flags().StringVar(&runStrategy, "strategy", "", "override the configured strategy")
	runCmd.Flags().Float64Var(&runSlippage, "slippage", -1, "override the configured slippage rate")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return err
	}
	if runSymbol != "" {
		cfg.Backtest.Symbol = runSymbol
	}
	if runStrategy != "" {
		cfg.Backtest.Strategy = runStrategy
	}
	if runSlippage >= 0 {
		cfg.Backtest.SlippageRate = runSlippage
	}

	log, err := logging.New(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	source, closeSource, err := openSource(cfg.Data)
	if err != nil {
		return err
	}
	defer closeSource()

	schedule, err := cfg.Schedule()
	if err != nil {
		return err
	}

	strat, err := strategies.ByName(cfg.Backtest.Strategy)
	if err != nil {
		return err
	}

	start, end, err := cfg.Window()
	if err != nil {
		return err
	}

	engine := backtest.New(source, schedule, backtest.WithLogger(log))
	result, err := engine.Run(cmd.Context(), backtest.Request{
		Symbol:       cfg.Backtest.Symbol,
		Strategy:     strat,
		Start:        start,
		End:          end,
		InitialCash:  decimal.NewFromFloat(cfg.Account.InitialCash),
		SlippageRate: cfg.Backtest.SlippageRate,
		Resolution:   market.Resolution(cfg.Backtest.Resolution),
	})
	if err != nil {
		return err
	}

	result.Print(os.Stdout)
	if !result.Success {
		return fmt.Errorf("backtest %s failed: %s", result.RunID, result.Err)
	}
	return nil
}

// openSource builds the configured bar source. The returned closer is a nop
// for backends without resources to release.
func openSource(dc config.DataConfig) (market.BarSource, func(), error) {
	switch dc.Backend {
	case "csv":
		return data.CSVSource{Path: dc.Path}, func() {}, nil
	case "sqlite":
		store, err := data.OpenStore(dc.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "parquet":
		return data.NewParquetStore(dc.Path), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown data backend %q", dc.Backend)
}
