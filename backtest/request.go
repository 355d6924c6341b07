package backtest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
)

// Request describes one backtest run. Everything except SlippageRate is
// required; slippage defaults to zero.
type Request struct {
	Symbol       string
	Strategy     strategies.Strategy
	Start        time.Time
	End          time.Time
	InitialCash  decimal.Decimal
	SlippageRate float64
	Resolution   market.Resolution
}

// Validate fails fast on malformed requests, before any run state exists.
func (r Request) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("request: symbol is required")
	}
	if r.Strategy == nil {
		return fmt.Errorf("request: strategy is required")
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("request: start and end are required")
	}
	if !r.Start.Before(r.End) {
		return fmt.Errorf("request: start %s is not before end %s",
			r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}
	if r.InitialCash.Sign() <= 0 {
		return fmt.Errorf("request: initial cash must be positive, got %s", r.InitialCash)
	}
	if r.SlippageRate < 0 || r.SlippageRate >= 1 {
		return fmt.Errorf("request: slippage rate %v out of range [0, 1)", r.SlippageRate)
	}
	if r.Resolution == "" {
		return fmt.Errorf("request: resolution is required")
	}
	if r.Resolution.Duration() == 0 {
		return fmt.Errorf("request: unknown resolution %q", r.Resolution)
	}
	return nil
}
