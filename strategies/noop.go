package strategies

import (
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
)

// NoopStrategy never trades.
type NoopStrategy struct{}

func (NoopStrategy) Name() string { return "noop" }

func (NoopStrategy) GenerateSignal(_ market.Bar, _ *indicators.History, _ []sim.Position, _ []market.Order) (market.Signal, error) {
	return market.NoAction("noop"), nil
}

// OpenOnce buys a fixed quantity on the first bar and then holds. Useful for
// exercising the fill path end to end.
type OpenOnce struct {
	Quantity int64
}

func (*OpenOnce) Name() string { return "open-once" }

func (s *OpenOnce) GenerateSignal(bar market.Bar, _ *indicators.History, positions []sim.Position, pending []market.Order) (market.Signal, error) {
	if len(positions) > 0 || len(pending) > 0 {
		return market.NoAction("already entered"), nil
	}
	return market.Signal{
		Type:       market.SignalBuy,
		OrderType:  market.MarketOrder,
		Quantity:   s.Quantity,
		Confidence: 1,
		Reason:     "open once at first opportunity",
	}, nil
}
