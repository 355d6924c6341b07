package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
)

// State is the engine's run lifecycle.
type State string

const (
	StateInitializing State = "INITIALIZING"
	StateRunning      State = "RUNNING"
	StateCompleted    State = "COMPLETED"
	StateFailed       State = "FAILED"
)

// Result is everything a run produced. It is created once, at run
// completion, and not mutated afterwards. A failed run still carries the
// trade history and equity curve accumulated before the failure.
type Result struct {
	RunID    string
	Strategy string
	Symbol   string
	State    State
	Success  bool

	InitialCash decimal.Decimal
	FinalEquity decimal.Decimal

	// Trades holds every order in its final status, in processing order:
	// fills, rejections, and the cancellations of orders still pending at
	// the end of data.
	Trades []market.Order

	// EquityCurve has exactly one snapshot per processed bar.
	EquityCurve []sim.EquitySnapshot

	// Err is empty on success.
	Err string

	Stats Stats
}

// Print writes a human-readable run summary, one stanza per concern.
func (r Result) Print(w io.Writer) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Symbol:        %s\n", r.Symbol)
	fmt.Fprintf(w, "State:         %s\n", r.State)
	if r.Err != "" {
		fmt.Fprintf(w, "Error:         %s\n", r.Err)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Orders:        %d\n", len(r.Trades))
	fmt.Fprintf(w, "Fills:         %d\n", r.Stats.Fills)
	fmt.Fprintf(w, "Rejected:      %d\n", r.Stats.Rejected)
	fmt.Fprintf(w, "Round Trips:   %d\n", r.Stats.RoundTrips)
	fmt.Fprintf(w, "Wins:          %d\n", r.Stats.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Stats.Losses)
	if r.Stats.RoundTrips > 0 {
		fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.Stats.WinRate*100)
	}
	if r.Stats.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", r.Stats.ProfitFactor)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Initial Cash:  %s\n", r.InitialCash.StringFixed(2))
	fmt.Fprintf(w, "Final Equity:  %s\n", r.FinalEquity.StringFixed(2))
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.Stats.ReturnPct)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.Stats.MaxDrawdownPct)
	fmt.Fprintf(w, "Sharpe:        %.2f\n", r.Stats.Sharpe)
	fmt.Fprintf(w, "Total Fees:    %s\n", r.Stats.TotalFees.StringFixed(2))

	if len(r.EquityCurve) > 0 {
		first := r.EquityCurve[0].Time
		last := r.EquityCurve[len(r.EquityCurve)-1].Time
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Bars:          %d (%s .. %s)\n", len(r.EquityCurve),
			first.Format(time.RFC3339), last.Format(time.RFC3339))
	}
	fmt.Fprintln(w)
}
