package market

import "time"

// Side: buy or sell.
type Side int8

const (
	Buy  Side = +1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	}
	return "UNKNOWN"
}

// OrderType selects the fill rule used by the matcher.
type OrderType string

const (
	MarketOrder       OrderType = "MARKET"
	LimitOrder        OrderType = "LIMIT"
	StopOrder         OrderType = "STOP"
	TrailingStopOrder OrderType = "TRAILING_STOP"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderFilled    OrderStatus = "FILLED"
	OrderRejected  OrderStatus = "REJECTED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Order is created by the matcher from a signal and owned by the run until it
// is returned in the result. Every order, whatever its final status, appears
// in the trade history.
type Order struct {
	ID       string
	Symbol   string
	Side     Side
	Type     OrderType
	Quantity int64

	// LimitPrice is the limit for LIMIT orders and the trigger threshold for
	// STOP / TRAILING_STOP orders. Zero for market orders.
	LimitPrice float64

	// TrailPercent ratchets a trailing stop's threshold with favorable
	// closes. Only meaningful for TRAILING_STOP.
	TrailPercent float64

	Status      OrderStatus
	Reason      string
	CreatedAt   time.Time
	FilledAt    time.Time
	FilledPrice float64
}

// Open reports whether the order is still waiting for a fill.
func (o Order) Open() bool { return o.Status == OrderPending }
