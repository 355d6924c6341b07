package backtest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
)

func fill(side market.Side, qty int64, price float64) market.Order {
	return market.Order{
		Symbol:      "2330",
		Side:        side,
		Quantity:    qty,
		Status:      market.OrderFilled,
		FilledPrice: price,
	}
}

func snapAt(day int, equity int64) sim.EquitySnapshot {
	eq := decimal.NewFromInt(equity)
	return sim.EquitySnapshot{
		Time:        day0.AddDate(0, 0, day),
		Cash:        eq,
		TotalEquity: eq,
	}
}

func TestStatsCountsByStatus(t *testing.T) {
	t.Parallel()

	trades := []market.Order{
		fill(market.Buy, 100, 300),
		{Status: market.OrderRejected},
		fill(market.Sell, 100, 310),
		{Status: market.OrderCancelled},
	}

	s := ComputeStats(decimal.NewFromInt(100000), trades, nil, decimal.Zero)
	assert.Equal(t, 2, s.Fills)
	assert.Equal(t, 1, s.Rejected)
	assert.Equal(t, 1, s.Cancelled)
}

func TestStatsRoundTrips(t *testing.T) {
	t.Parallel()

	trades := []market.Order{
		fill(market.Buy, 100, 300),
		fill(market.Sell, 100, 310), // +1000
		fill(market.Buy, 100, 320),
		fill(market.Sell, 100, 315), // -500
	}

	s := ComputeStats(decimal.NewFromInt(100000), trades, nil, decimal.Zero)
	assert.Equal(t, 2, s.RoundTrips)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.InDelta(t, 0.5, s.WinRate, 1e-9)
	assert.InDelta(t, 2.0, s.ProfitFactor, 1e-9)
}

func TestStatsWeightedCostBasisAcrossAdds(t *testing.T) {
	t.Parallel()

	trades := []market.Order{
		fill(market.Buy, 100, 300),
		fill(market.Buy, 100, 320), // avg 310
		fill(market.Sell, 200, 305),
	}

	s := ComputeStats(decimal.NewFromInt(100000), trades, nil, decimal.Zero)
	assert.Equal(t, 1, s.RoundTrips)
	assert.Equal(t, 1, s.Losses, "sell at 305 against a 310 average is a loss")
}

func TestStatsReturnAndDrawdown(t *testing.T) {
	t.Parallel()

	curve := []sim.EquitySnapshot{
		snapAt(0, 100000),
		snapAt(1, 110000),
		snapAt(2, 99000), // 10% drawdown from the 110000 peak
		snapAt(3, 120000),
	}

	s := ComputeStats(decimal.NewFromInt(100000), nil, curve, decimal.Zero)
	assert.InDelta(t, 20.0, s.ReturnPct, 1e-9)
	assert.InDelta(t, 10.0, s.MaxDrawdownPct, 1e-9)
}

func TestStatsEmptyHistory(t *testing.T) {
	t.Parallel()

	s := ComputeStats(decimal.NewFromInt(100000), nil, nil, decimal.Zero)
	assert.Zero(t, s.Fills)
	assert.Zero(t, s.ReturnPct)
	assert.Zero(t, s.Sharpe)
	assert.Zero(t, s.WinRate)
}

func TestStatsFlatCurveHasZeroSharpe(t *testing.T) {
	t.Parallel()

	curve := []sim.EquitySnapshot{snapAt(0, 100000), snapAt(1, 100000), snapAt(2, 100000)}
	s := ComputeStats(decimal.NewFromInt(100000), nil, curve, decimal.Zero)
	assert.Zero(t, s.Sharpe)
	assert.Zero(t, s.MaxDrawdownPct)
}
