package market

// SignalType is a strategy's per-bar decision.
type SignalType string

const (
	SignalBuy      SignalType = "BUY"
	SignalSell     SignalType = "SELL"
	SignalNoAction SignalType = "NO_ACTION"
)

// Signal is what a strategy emits for one bar. Price is the limit or stop
// threshold for non-market order types and is ignored for market orders.
type Signal struct {
	Type         SignalType
	OrderType    OrderType
	Quantity     int64
	Price        float64
	TrailPercent float64
	Confidence   float64
	Reason       string
}

// NoAction is the zero-decision signal.
func NoAction(reason string) Signal {
	return Signal{Type: SignalNoAction, Reason: reason}
}

// Actionable reports whether the signal asks for an order at all.
func (s Signal) Actionable() bool {
	return s.Type == SignalBuy || s.Type == SignalSell
}

// Side maps the signal type to an order side. Only meaningful when
// Actionable() is true.
func (s Signal) Side() Side {
	if s.Type == SignalSell {
		return Sell
	}
	return Buy
}
