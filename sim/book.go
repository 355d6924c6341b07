package sim

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/backtester/fees"
	"github.com/rustyeddy/backtester/market"
)

var (
	// ErrInsufficientCash reverts a buy whose cost plus fees exceeds cash.
	ErrInsufficientCash = errors.New("insufficient cash")

	// ErrInsufficientPosition rejects a sell larger than the held quantity.
	// There are no partial sells.
	ErrInsufficientPosition = errors.New("insufficient position")
)

// Position is a held quantity with its weighted-average cost basis. Owned
// exclusively by the Book: created on first fill, its average cost updated
// only on quantity-increasing fills, removed when quantity returns to zero.
type Position struct {
	Symbol   string
	Quantity int64
	AvgCost  decimal.Decimal
	OpenedAt time.Time
}

// EquitySnapshot is one mark-to-market valuation of the book. Snapshots are
// append-only, one per bar, never mutated after creation.
type EquitySnapshot struct {
	Time          time.Time
	Cash          decimal.Decimal
	PositionValue decimal.Decimal
	TotalEquity   decimal.Decimal
}

// Book owns the cash balance and open positions of a single run. It is
// single-writer: one run mutates it from one goroutine, so there is no
// internal locking.
type Book struct {
	cash      decimal.Decimal
	positions map[string]*Position
	lastClose map[string]decimal.Decimal
	history   []EquitySnapshot
}

// NewBook creates a book holding initialCash and no positions.
func NewBook(initialCash decimal.Decimal) *Book {
	return &Book{
		cash:      initialCash,
		positions: make(map[string]*Position),
		lastClose: make(map[string]decimal.Decimal),
	}
}

// Cash returns the current cash balance.
func (b *Book) Cash() decimal.Decimal { return b.cash }

// Position returns the open position for symbol, if any.
func (b *Book) Position(symbol string) (Position, bool) {
	p, ok := b.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Positions returns copies of all open positions, sorted by symbol so that
// iteration order never depends on map order.
func (b *Book) Positions() []Position {
	out := make([]Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// MarkPrice records the latest known close for a symbol, used by Snapshot
// for mark-to-market valuation.
func (b *Book) MarkPrice(symbol string, close float64) {
	b.lastClose[symbol] = decimal.NewFromFloat(close)
}

// ApplyFill applies a filled order to cash and positions.
//
// Buys require price*quantity plus the fee in cash; otherwise the fill is
// reverted and ErrInsufficientCash returned with the book unchanged, as if
// the fill never executed. Sells of more than the held quantity return
// ErrInsufficientPosition, book unchanged. The caller records either case as
// a rejected order and carries on; these are matching outcomes, not run
// failures.
func (b *Book) ApplyFill(o market.Order, fee fees.Breakdown) error {
	if o.Status != market.OrderFilled {
		return fmt.Errorf("apply fill: order %s is %s, not filled", o.ID, o.Status)
	}
	if o.Quantity <= 0 {
		return fmt.Errorf("apply fill: order %s has non-positive quantity %d", o.ID, o.Quantity)
	}

	price := decimal.NewFromFloat(o.FilledPrice)
	gross := price.Mul(decimal.NewFromInt(o.Quantity))

	switch o.Side {
	case market.Buy:
		required := gross.Add(fee.Total)
		if b.cash.LessThan(required) {
			return ErrInsufficientCash
		}
		b.cash = b.cash.Sub(required)
		b.addPosition(o, price)

	case market.Sell:
		pos, ok := b.positions[o.Symbol]
		if !ok || pos.Quantity < o.Quantity {
			return ErrInsufficientPosition
		}
		proceeds := gross.Sub(fee.Total)
		if b.cash.Add(proceeds).Sign() < 0 {
			// Fees exceed both the sale value and remaining cash. Treat as
			// unaffordable rather than let cash go negative.
			return ErrInsufficientCash
		}
		b.cash = b.cash.Add(proceeds)
		pos.Quantity -= o.Quantity
		// Average cost is untouched on reduces.
		if pos.Quantity == 0 {
			delete(b.positions, o.Symbol)
		}

	default:
		return fmt.Errorf("apply fill: order %s has unknown side %d", o.ID, o.Side)
	}

	b.MarkPrice(o.Symbol, o.FilledPrice)
	return nil
}

func (b *Book) addPosition(o market.Order, price decimal.Decimal) {
	pos, ok := b.positions[o.Symbol]
	if !ok {
		b.positions[o.Symbol] = &Position{
			Symbol:   o.Symbol,
			Quantity: o.Quantity,
			AvgCost:  price,
			OpenedAt: o.FilledAt,
		}
		return
	}

	// Weighted-average cost: (oldQty*oldAvg + newQty*fillPrice) / totalQty.
	oldQty := decimal.NewFromInt(pos.Quantity)
	newQty := decimal.NewFromInt(o.Quantity)
	total := oldQty.Add(newQty)
	pos.AvgCost = pos.AvgCost.Mul(oldQty).Add(price.Mul(newQty)).Div(total)
	pos.Quantity += o.Quantity
}

// Snapshot marks every open position to its latest known close and appends
// the valuation to the equity history. A symbol with no known price yet
// (possible only before its first bar) values at its cost basis.
func (b *Book) Snapshot(t time.Time) EquitySnapshot {
	posValue := decimal.Zero
	for _, p := range b.Positions() {
		mark, ok := b.lastClose[p.Symbol]
		if !ok {
			mark = p.AvgCost
		}
		posValue = posValue.Add(mark.Mul(decimal.NewFromInt(p.Quantity)))
	}

	snap := EquitySnapshot{
		Time:          t,
		Cash:          b.cash,
		PositionValue: posValue,
		TotalEquity:   b.cash.Add(posValue),
	}
	b.history = append(b.history, snap)
	return snap
}

// History returns the append-only equity curve recorded so far.
func (b *Book) History() []EquitySnapshot { return b.history }
