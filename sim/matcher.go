// Package sim holds the deterministic trade simulation core: the order
// matcher that resolves strategy signals against bars, and the position book
// that owns cash and holdings for one run.
package sim

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
)

// Matcher resolves signals and pending orders against bars. It is stateless:
// the same (signal, bar) pair always produces the same order, so the matcher
// can be shared by concurrent runs.
//
// Fill rules are conservative given only OHLCV data:
//   - market orders fill at the bar close, perturbed against the order side
//     by SlippageRate
//   - limit orders fill at the limit price, never the more favorable
//     low/high, with inclusive boundaries
//   - stop orders fill at the stop threshold once it falls inside the bar's
//     low..high range
type Matcher struct {
	// SlippageRate perturbs market fills against the order side: buys pay
	// close*(1+rate), sells receive close*(1-rate). Zero disables.
	SlippageRate float64
}

// Match creates an order for the signal and resolves it against the bar.
// Unfilled limit/stop orders come back PENDING and are re-evaluated via
// MatchPending on subsequent bars. Non-positive quantities are rejected
// outright.
func (m Matcher) Match(id string, sig market.Signal, bar market.Bar) market.Order {
	o := market.Order{
		ID:           id,
		Symbol:       bar.Symbol,
		Side:         sig.Side(),
		Type:         sig.OrderType,
		Quantity:     sig.Quantity,
		LimitPrice:   sig.Price,
		TrailPercent: sig.TrailPercent,
		Status:       market.OrderPending,
		Reason:       sig.Reason,
		CreatedAt:    bar.Time,
	}
	if o.Type == "" {
		o.Type = market.MarketOrder
	}

	if sig.Quantity <= 0 {
		o.Status = market.OrderRejected
		o.Reason = fmt.Sprintf("non-positive quantity %d", sig.Quantity)
		return o
	}
	if o.Type != market.MarketOrder && o.LimitPrice <= 0 {
		o.Status = market.OrderRejected
		o.Reason = fmt.Sprintf("%s order requires a positive price", o.Type)
		return o
	}

	return m.MatchPending(o, bar)
}

// MatchPending re-evaluates an open order against the bar, returning the
// updated order. Orders that do not fill stay PENDING; they are never
// silently dropped.
func (m Matcher) MatchPending(o market.Order, bar market.Bar) market.Order {
	if !o.Open() {
		return o
	}

	switch o.Type {
	case market.MarketOrder:
		return m.fill(o, bar, m.slip(bar.Close, o.Side))

	case market.LimitOrder:
		// Conservative: fill at the limit, not the more favorable extreme.
		// Boundary prices are inclusive.
		if o.Side == market.Buy && bar.Low <= o.LimitPrice {
			return m.fill(o, bar, o.LimitPrice)
		}
		if o.Side == market.Sell && bar.High >= o.LimitPrice {
			return m.fill(o, bar, o.LimitPrice)
		}

	case market.StopOrder, market.TrailingStopOrder:
		// Once the threshold falls inside low..high the stop converts to
		// its market rule; the fill price is the threshold itself.
		if bar.Low <= o.LimitPrice && o.LimitPrice <= bar.High {
			return m.fill(o, bar, o.LimitPrice)
		}
	}

	return o
}

// Trail ratchets a trailing stop's threshold with favorable closes: a sell
// trail follows rising closes up, a buy trail follows falling closes down.
// The threshold never moves against the order. Call once per bar before
// MatchPending.
func Trail(o market.Order, bar market.Bar) market.Order {
	if o.Type != market.TrailingStopOrder || !o.Open() || o.TrailPercent <= 0 {
		return o
	}

	switch o.Side {
	case market.Sell:
		if c := bar.Close * (1 - o.TrailPercent); c > o.LimitPrice {
			o.LimitPrice = c
		}
	case market.Buy:
		if c := bar.Close * (1 + o.TrailPercent); c < o.LimitPrice {
			o.LimitPrice = c
		}
	}
	return o
}

func (m Matcher) fill(o market.Order, bar market.Bar, price float64) market.Order {
	o.Status = market.OrderFilled
	o.FilledAt = bar.Time
	o.FilledPrice = price
	return o
}

func (m Matcher) slip(close float64, side market.Side) float64 {
	if m.SlippageRate == 0 {
		return close
	}
	// Slippage always hurts: buys pay more, sells receive less.
	return close * (1 + float64(side)*m.SlippageRate)
}
