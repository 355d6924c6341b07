package sim

import (
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/backtester/market"
)

func bar(t *testing.T, low, high, close float64) market.Bar {
	t.Helper()
	return market.Bar{
		Symbol: "TEST",
		Time:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Open:   close,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: 1000,
	}
}

func buySignal(qty int64, typ market.OrderType, price float64) market.Signal {
	return market.Signal{Type: market.SignalBuy, OrderType: typ, Quantity: qty, Price: price}
}

func sellSignal(qty int64, typ market.OrderType, price float64) market.Signal {
	return market.Signal{Type: market.SignalSell, OrderType: typ, Quantity: qty, Price: price}
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestMarketOrderFillsAtClose(t *testing.T) {
	m := Matcher{}
	b := bar(t, 99, 103, 101.5)

	o := m.Match("ORD-000001", buySignal(100, market.MarketOrder, 0), b)

	if o.Status != market.OrderFilled {
		t.Fatalf("status = %s, want FILLED", o.Status)
	}
	if o.FilledPrice != 101.5 {
		t.Errorf("fill price = %v, want close 101.5", o.FilledPrice)
	}
	if !o.FilledAt.Equal(b.Time) {
		t.Errorf("filled at = %v, want bar time", o.FilledAt)
	}
}

func TestMarketSlippageHurtsBothSides(t *testing.T) {
	m := Matcher{SlippageRate: 0.001}
	b := bar(t, 99, 103, 100)

	buy := m.Match("ORD-000001", buySignal(10, market.MarketOrder, 0), b)
	if !approxEqual(buy.FilledPrice, 100.1, 1e-9) {
		t.Errorf("buy fill = %v, want 100.1", buy.FilledPrice)
	}

	sell := m.Match("ORD-000002", sellSignal(10, market.MarketOrder, 0), b)
	if !approxEqual(sell.FilledPrice, 99.9, 1e-9) {
		t.Errorf("sell fill = %v, want 99.9", sell.FilledPrice)
	}
}

func TestLimitBuyBoundaryIsInclusive(t *testing.T) {
	m := Matcher{}

	// low == limit: must fill, at the limit rather than the low.
	o := m.Match("ORD-000001", buySignal(100, market.LimitOrder, 290), bar(t, 290, 300, 295))
	if o.Status != market.OrderFilled {
		t.Fatalf("low == limit: status = %s, want FILLED", o.Status)
	}
	if o.FilledPrice != 290 {
		t.Errorf("fill price = %v, want limit 290", o.FilledPrice)
	}

	// low one cent above the limit: stays pending.
	o = m.Match("ORD-000002", buySignal(100, market.LimitOrder, 290), bar(t, 290.01, 300, 295))
	if o.Status != market.OrderPending {
		t.Fatalf("low > limit: status = %s, want PENDING", o.Status)
	}
}

func TestLimitBuyFillsAtLimitNotLow(t *testing.T) {
	m := Matcher{}

	// Bar trades down through the limit; conservative fill at 290, not 288.
	o := m.Match("ORD-000001", buySignal(100, market.LimitOrder, 290), bar(t, 288, 295, 291))
	if o.Status != market.OrderFilled {
		t.Fatalf("status = %s, want FILLED", o.Status)
	}
	if o.FilledPrice != 290 {
		t.Errorf("fill price = %v, want limit 290, never the low", o.FilledPrice)
	}
}

func TestLimitSell(t *testing.T) {
	m := Matcher{}

	o := m.Match("ORD-000001", sellSignal(50, market.LimitOrder, 310), bar(t, 300, 310, 305))
	if o.Status != market.OrderFilled {
		t.Fatalf("high == limit: status = %s, want FILLED", o.Status)
	}
	if o.FilledPrice != 310 {
		t.Errorf("fill price = %v, want limit 310", o.FilledPrice)
	}

	o = m.Match("ORD-000002", sellSignal(50, market.LimitOrder, 310), bar(t, 300, 309.99, 305))
	if o.Status != market.OrderPending {
		t.Fatalf("high < limit: status = %s, want PENDING", o.Status)
	}
}

func TestStopFillsWhenThresholdInsideRange(t *testing.T) {
	m := Matcher{}

	// Sell stop at 95: bar low reaches it.
	o := m.Match("ORD-000001", sellSignal(10, market.StopOrder, 95), bar(t, 94, 100, 96))
	if o.Status != market.OrderFilled {
		t.Fatalf("status = %s, want FILLED", o.Status)
	}
	if o.FilledPrice != 95 {
		t.Errorf("fill price = %v, want stop threshold 95", o.FilledPrice)
	}

	// Threshold outside the range: pending.
	o = m.Match("ORD-000002", sellSignal(10, market.StopOrder, 90), bar(t, 94, 100, 96))
	if o.Status != market.OrderPending {
		t.Fatalf("status = %s, want PENDING", o.Status)
	}
}

func TestTrailingStopRatchets(t *testing.T) {
	o := market.Order{
		ID:           "ORD-000001",
		Symbol:       "TEST",
		Side:         market.Sell,
		Type:         market.TrailingStopOrder,
		Quantity:     10,
		LimitPrice:   95,
		TrailPercent: 0.05,
		Status:       market.OrderPending,
	}

	// Close 110 lifts the threshold to 104.5.
	o = Trail(o, bar(t, 105, 111, 110))
	if !approxEqual(o.LimitPrice, 104.5, 1e-9) {
		t.Fatalf("threshold = %v, want 104.5", o.LimitPrice)
	}

	// A lower close never drops it back.
	o = Trail(o, bar(t, 100, 108, 100))
	if !approxEqual(o.LimitPrice, 104.5, 1e-9) {
		t.Errorf("threshold moved against the order: %v", o.LimitPrice)
	}

	// Once the bar range covers the threshold, it fills there.
	m := Matcher{}
	o = m.MatchPending(o, bar(t, 104, 106, 105))
	if o.Status != market.OrderFilled {
		t.Fatalf("status = %s, want FILLED", o.Status)
	}
	if !approxEqual(o.FilledPrice, 104.5, 1e-9) {
		t.Errorf("fill price = %v, want ratcheted threshold", o.FilledPrice)
	}
}

func TestNonPositiveQuantityRejected(t *testing.T) {
	m := Matcher{}
	b := bar(t, 99, 103, 100)

	for _, qty := range []int64{0, -10} {
		o := m.Match("ORD-000001", buySignal(qty, market.MarketOrder, 0), b)
		if o.Status != market.OrderRejected {
			t.Errorf("qty %d: status = %s, want REJECTED", qty, o.Status)
		}
	}
}

func TestPendingNeverSilentlyDropped(t *testing.T) {
	m := Matcher{}

	o := m.Match("ORD-000001", buySignal(100, market.LimitOrder, 50), bar(t, 99, 103, 100))
	for i := 0; i < 5; i++ {
		o = m.MatchPending(o, bar(t, 99, 103, 100))
		if o.Status != market.OrderPending {
			t.Fatalf("iteration %d: status = %s, want PENDING", i, o.Status)
		}
	}
}
