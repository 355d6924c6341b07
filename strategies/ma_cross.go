package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
)

// MACrossConfig parameterizes the moving-average crossover strategy.
type MACrossConfig struct {
	FastPeriod int   `json:"fast-period" yaml:"fast-period"`
	SlowPeriod int   `json:"slow-period" yaml:"slow-period"`
	Quantity   int64 `json:"quantity" yaml:"quantity"`
}

func MACrossDefaults() MACrossConfig {
	return MACrossConfig{
		FastPeriod: 10,
		SlowPeriod: 30,
		Quantity:   100,
	}
}

// MACross trades a fast/slow moving-average crossover:
//   - enters long when the fast MA crosses above the slow MA and the book is
//     flat
//   - exits the whole position when the fast MA crosses back below
//
// Crosses are detected from the engine's indicator history, so the strategy
// carries no per-run state of its own.
type MACross struct {
	cfg      MACrossConfig
	fastName string
	slowName string
}

func NewMACross(cfg MACrossConfig) *MACross {
	if cfg.Quantity <= 0 {
		cfg.Quantity = 100
	}
	return &MACross{
		cfg:      cfg,
		fastName: fmt.Sprintf("MA(%d)", cfg.FastPeriod),
		slowName: fmt.Sprintf("MA(%d)", cfg.SlowPeriod),
	}
}

func (s *MACross) Name() string {
	return fmt.Sprintf("ma-cross(%d/%d)", s.cfg.FastPeriod, s.cfg.SlowPeriod)
}

func (s *MACross) Indicators() []indicators.Indicator {
	return []indicators.Indicator{
		indicators.NewMA(s.cfg.FastPeriod),
		indicators.NewMA(s.cfg.SlowPeriod),
	}
}

func (s *MACross) GenerateSignal(bar market.Bar, history *indicators.History, positions []sim.Position, pending []market.Order) (market.Signal, error) {
	n := history.Len()
	if n < 2 {
		return market.NoAction("warming up"), nil
	}

	curr, prev := history.At(n-1), history.At(n-2)

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
			Reason:     "fast MA crossed above slow MA",
		}, nil

	case bearCross && held > 0:
		return market.Signal{
			Type:       market.SignalSell,
			OrderType:  market.MarketOrder,
			Quantity:   held,
			Confidence: confidence(-currDiff, bar.Close),
			Reason:     "fast MA crossed below slow MA",
		}, nil
	}

	return market.NoAction("no cross"), nil
}

func diff(snap indicators.Snapshot, fast, slow string) (float64, bool) {
	f, ok := snap.Value(fast)
	if !ok {
		return 0, false
	}
	s, ok := snap.Value(slow)
	if !ok {
		return 0, false
	}
	return f - s, true
}

func heldQuantity(positions []sim.Position, symbol string) int64 {
	for _, p := range positions {
		if p.Symbol == symbol {
			return p.Quantity
		}
	}
	return 0
}

func hasOpen(pending []market.Order) bool {
	for _, o := range pending {
		if o.Open() {
			return true
		}
	}
	return false
}

// confidence scales the MA separation by price into (0, 1].
func confidence(sep, price float64) float64 {
	if price <= 0 {
		return 0
	}
	c := sep / price * 100
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}
