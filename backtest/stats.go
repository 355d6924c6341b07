package backtest

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
)

// Stats summarizes a run's performance. Win/loss classification is on
// realized price P&L per closing fill, before fees; fee totals are reported
// separately.
type Stats struct {
	Fills     int
	Rejected  int
	Cancelled int

	RoundTrips int
	Wins       int
	Losses     int
	WinRate    float64

	ProfitFactor   float64
	ReturnPct      float64
	MaxDrawdownPct float64

	// Sharpe is the per-bar mean/stddev of equity returns, not annualized.
	Sharpe float64

	TotalFees decimal.Decimal
}

// ComputeStats derives run statistics from the trade history and equity
// curve. totalFees is the engine-accumulated fee sum.
func ComputeStats(initial decimal.Decimal, trades []market.Order, curve []sim.EquitySnapshot, totalFees decimal.Decimal) Stats {
	s := Stats{TotalFees: totalFees}

	for _, o := range trades {
		switch o.Status {
		case market.OrderFilled:
			s.Fills++
		case market.OrderRejected:
			s.Rejected++
		case market.OrderCancelled:
			s.Cancelled++
		}
	}

	s.tallyRoundTrips(trades)
	s.tallyEquity(initial, curve)
	return s
}

// tallyRoundTrips replays the fills with a weighted-average cost basis and
// classifies each closing fill by its realized price P&L.
func (s *Stats) tallyRoundTrips(trades []market.Order) {
	type lot struct {
		qty int64
		avg float64
	}
	lots := make(map[string]*lot)

	grossWin, grossLoss := 0.0, 0.0

	for _, o := range trades {
		if o.Status != market.OrderFilled {
			continue
		}

		l, ok := lots[o.Symbol]
		if !ok {
			l = &lot{}
			lots[o.Symbol] = l
		}

		switch o.Side {
		case market.Buy:
			total := l.qty + o.Quantity
			l.avg = (l.avg*float64(l.qty) + o.FilledPrice*float64(o.Quantity)) / float64(total)
			l.qty = total

		case market.Sell:
			pnl := (o.FilledPrice - l.avg) * float64(o.Quantity)
			l.qty -= o.Quantity
			if l.qty <= 0 {
				l.qty = 0
				l.avg = 0
			}

			s.RoundTrips++
			switch {
			case pnl > 0:
				s.Wins++
				grossWin += pnl
			case pnl < 0:
				s.Losses++
				grossLoss += -pnl
			}
		}
	}

	if s.RoundTrips > 0 {
		s.WinRate = float64(s.Wins) / float64(s.RoundTrips)
	}
	if grossLoss > 0 {
		s.ProfitFactor = grossWin / grossLoss
	}
}

func (s *Stats) tallyEquity(initial decimal.Decimal, curve []sim.EquitySnapshot) {
	if len(curve) == 0 {
		return
	}

	init, _ := initial.Float64()
	final, _ := curve[len(curve)-1].TotalEquity.Float64()
	if init > 0 {
		s.ReturnPct = (final - init) / init * 100
	}

	// Max drawdown: deepest peak-to-trough drop along the curve.
	peak := init
	maxDD := 0.0
	returns := make([]float64, 0, len(curve))
	prev := init

	for _, snap := range curve {
		eq, _ := snap.TotalEquity.Float64()

		if eq > peak {
			peak = eq
		}
		if peak > 0 {
			if dd := (peak - eq) / peak; dd > maxDD {
				maxDD = dd
			}
		}

		if prev > 0 {
			returns = append(returns, eq/prev-1)
		}
		prev = eq
	}
	s.MaxDrawdownPct = maxDD * 100
	s.Sharpe = sharpe(returns)
}

func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance)
}
