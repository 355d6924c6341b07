package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
)

// BreakoutConfig parameterizes the channel breakout strategy.
type BreakoutConfig struct {
	Lookback int   `json:"lookback" yaml:"lookback"`
	Quantity int64 `json:"quantity" yaml:"quantity"`
}

func BreakoutDefaults() BreakoutConfig {
	return BreakoutConfig{
		Lookback: 20,
		Quantity: 100,
	}
}

// Breakout buys when the close breaks above the highest high of the previous
// Lookback bars and sells the whole position when the close breaks below the
// lowest low of the same window. Channel bounds come from the engine's bar
// history, so the strategy carries no per-run state.
type Breakout struct {
	cfg BreakoutConfig
}

func NewBreakout(cfg BreakoutConfig) *Breakout {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 20
	}
	if cfg.Quantity <= 0 {
		cfg.Quantity = 100
	}
	return &Breakout{cfg: cfg}
}

func (s *Breakout) Name() string {
	return fmt.Sprintf("breakout(%d)", s.cfg.Lookback)
}

func (s *Breakout) GenerateSignal(bar market.Bar, history *indicators.History, positions []sim.Position, pending []market.Order) (market.Signal, error) {
	n := history.Len()
	// Current bar is already appended; the channel is the Lookback bars
	// before it.
	if n < s.cfg.Lookback+1 {
		return market.NoAction("warming up"), nil
	}

	highest, lowest := channel(history, n-1, s.cfg.Lookback)
	held := heldQuantity(positions, bar.Symbol)

	switch {
	case held == 0 && !hasOpen(pending) && bar.Close > highest:
		return market.Signal{
			Type:       market.SignalBuy,
			OrderType:  market.MarketOrder,
			Quantity:   s.cfg.Quantity,
			Confidence: confidence(bar.Close-highest, bar.Close),
			Reason:     fmt.Sprintf("close %.2f above %d-bar high %.2f", bar.Close, s.cfg.Lookback, highest),
		}, nil

	case held > 0 && bar.Close < lowest:
		return market.Signal{
			Type:       market.SignalSell,
			OrderType:  market.MarketOrder,
			Quantity:   held,
			Confidence: confidence(lowest-bar.Close, bar.Close),
			Reason:     fmt.Sprintf("close %.2f below %d-bar low %.2f", bar.Close, s.cfg.Lookback, lowest),
		}, nil
	}

	return market.NoAction("inside channel"), nil
}

// channel returns the highest high and lowest low of the lookback bars
// ending just before index end.
func channel(history *indicators.History, end, lookback int) (highest, lowest float64) {
	for i := end - lookback; i < end; i++ {
		b := history.Bar(i)
		if highest == 0 || b.High > highest {
			highest = b.High
		}
		if lowest == 0 || b.Low < lowest {
			lowest = b.Low
		}
	}
	return highest, lowest
}
