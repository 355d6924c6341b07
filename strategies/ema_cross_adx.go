package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
)

// EMACrossADXConfig parameterizes the ADX-filtered EMA crossover strategy.
type EMACrossADXConfig struct {
	FastPeriod int     `json:"fast-period" yaml:"fast-period"`
	SlowPeriod int     `json:"slow-period" yaml:"slow-period"`
	ADXPeriod  int     `json:"adx-period" yaml:"adx-period"`
	MinADX     float64 `json:"min-adx" yaml:"min-adx"`
	Quantity   int64   `json:"quantity" yaml:"quantity"`
}

func EMACrossADXDefaults() EMACrossADXConfig {
	return EMACrossADXConfig{
		FastPeriod: 10,
		SlowPeriod: 30,
		ADXPeriod:  14,
		MinADX:     25,
		Quantity:   100,
	}
}

// EMACrossADX trades a fast/slow EMA crossover gated by an ADX trend-strength
// regime filter: crosses are ignored entirely while ADX is below MinADX (or
// not yet warmed up), so the strategy only acts in trending markets.
type EMACrossADX struct {
	cfg      EMACrossADXConfig
	fastName string
	slowName string
	adxName  string
}

func NewEMACrossADX(cfg EMACrossADXConfig) *EMACrossADX {
	if cfg.ADXPeriod <= 0 {
		cfg.ADXPeriod = 14
	}
	if cfg.MinADX <= 0 {
		cfg.MinADX = 25
	}
	if cfg.Quantity <= 0 {
		cfg.Quantity = 100
	}
	return &EMACrossADX{
		cfg:      cfg,
		fastName: fmt.Sprintf("EMA(%d)", cfg.FastPeriod),
		slowName: fmt.Sprintf("EMA(%d)", cfg.SlowPeriod),
		adxName:  fmt.Sprintf("ADX(%d)", cfg.ADXPeriod),
	}
}

func (s *EMACrossADX) Name() string {
	return fmt.Sprintf("ema-cross-adx(%d/%d)", s.cfg.FastPeriod, s.cfg.SlowPeriod)
}

func (s *EMACrossADX) Indicators() []indicators.Indicator {
	return []indicators.Indicator{
		indicators.NewEMA(s.cfg.FastPeriod),
		indicators.NewEMA(s.cfg.SlowPeriod),
		indicators.NewADX(s.cfg.ADXPeriod),
	}
}

func (s *EMACrossADX) GenerateSignal(bar market.Bar, history *indicators.History, positions []sim.Position, pending []market.Order) (market.Signal, error) {
	n := history.Len()
	if n < 2 {
		return market.NoAction("warming up"), nil
	}

	curr, prev := history.At(n-1), history.At(n-2)

	// Regime filter first: no ADX, no trades, entries and exits alike.
	adx, ok := curr.Value(s.adxName)
	if !ok {
		return market.NoAction("adx warming up"), nil
	}
	if adx < s.cfg.MinADX {
		return market.NoAction(fmt.Sprintf("adx %.1f below %.1f", adx, s.cfg.MinADX)), nil
	}

	currDiff, ok := diff(curr, s.fastName, s.slowName)
	if !ok {
		return market.NoAction("warming up"), nil
	}
	prevDiff, ok := diff(prev, s.fastName, s.slowName)
	if !ok {
		return market.NoAction("warming up"), nil
	}

	bullCross := currDiff > 0 && prevDiff <= 0
	bearCross := currDiff < 0 && prevDiff >= 0

	held := heldQuantity(positions, bar.Symbol)

	switch {
	case bullCross && held == 0 && !hasOpen(pending):
		return market.Signal{
			Type:       market.SignalBuy,
			OrderType:  market.MarketOrder,
			Quantity:   s.cfg.Quantity,
			Confidence: confidence(currDiff, bar.Close),
			Reason:     fmt.Sprintf("fast EMA crossed above slow EMA, adx %.1f", adx),
		}, nil

	case bearCross && held > 0:
		return market.Signal{
			Type:       market.SignalSell,
			OrderType:  market.MarketOrder,
			Quantity:   held,
			Confidence: confidence(-currDiff, bar.Close),
			Reason:     fmt.Sprintf("fast EMA crossed below slow EMA, adx %.1f", adx),
		}, nil
	}

	return market.NoAction("no cross"), nil
}
