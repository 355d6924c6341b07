// Package fees computes the per-transaction cost of a simulated trade. A
// Schedule is an ordered list of independent fee components, each a rate
// applied to the trade value with its own rounding and minimum. All money
// math uses shopspring/decimal so repeated runs never accumulate float
// drift.
package fees

import (
	"github.com/shopspring/decimal"
)

// Component is one named fee in a schedule.
type Component struct {
	Name string

	// Rate is multiplied by the trade value.
	Rate decimal.Decimal

	// Minimum floors the rounded amount. Zero disables the floor.
	Minimum decimal.Decimal

	// Decimals is the half-up rounding precision applied before the floor
	// comparison. Ignored when CeilToUnit is set.
	Decimals int32

	// SellOnly components are skipped on buys.
	SellOnly bool

	// CeilToUnit rounds the amount up to the next whole currency unit,
	// never down. Used by the transaction tax.
	CeilToUnit bool

	// Exemptible components are zero for instruments on the schedule's
	// exemption list.
	Exemptible bool
}

// Line is one computed component amount in a Breakdown.
type Line struct {
	Name   string
	Amount decimal.Decimal
}

// Breakdown itemizes the cost of a single transaction.
type Breakdown struct {
	TradeValue decimal.Decimal
	Lines      []Line
	Total      decimal.Decimal

	// NonTradable marks a zeroed breakdown produced from invalid inputs
	// (non-positive quantity or value, empty instrument). Recorded for
	// audit, never an error.
	NonTradable bool
}

// Zero returns an empty breakdown with zeroed totals.
func Zero() Breakdown {
	return Breakdown{TradeValue: decimal.Zero, Total: decimal.Zero}
}

// Schedule applies a fixed component sequence to each transaction.
type Schedule struct {
	components []Component
	exempt     map[string]struct{}
}

// NewSchedule builds a schedule from its components and the instruments
// exempt from Exemptible components.
func NewSchedule(components []Component, exemptInstruments []string) *Schedule {
	ex := make(map[string]struct{}, len(exemptInstruments))
	for _, id := range exemptInstruments {
		ex[id] = struct{}{}
	}
	return &Schedule{components: components, exempt: ex}
}

// Components returns the schedule's component sequence.
func (s *Schedule) Components() []Component { return s.components }

// Exempt reports whether the instrument is on the exemption list.
func (s *Schedule) Exempt(instrument string) bool {
	_, ok := s.exempt[instrument]
	return ok
}

// Compute itemizes the fees for one transaction. tradeValue is price times
// quantity in currency units. Invalid inputs yield a zeroed NonTradable
// breakdown rather than an error: the caller treats the instrument as
// non-tradable and moves on.
func (s *Schedule) Compute(tradeValue decimal.Decimal, quantity int64, instrument string, sell bool) Breakdown {
	if quantity <= 0 || tradeValue.Sign() <= 0 || instrument == "" {
		b := Zero()
		b.NonTradable = true
		return b
	}

	b := Breakdown{
		TradeValue: tradeValue,
		Lines:      make([]Line, 0, len(s.components)),
		Total:      decimal.Zero,
	}

	for _, c := range s.components {
		if c.SellOnly && !sell {
			continue
		}

		var amt decimal.Decimal
		switch {
		case c.Exemptible && s.Exempt(instrument):
			amt = decimal.Zero
		case c.CeilToUnit:
			amt = c.Rate.Mul(tradeValue).RoundCeil(0)
		default:
			amt = c.Rate.Mul(tradeValue).Round(c.Decimals)
			if c.Minimum.Sign() > 0 && amt.LessThan(c.Minimum) {
				amt = c.Minimum
			}
		}

		b.Lines = append(b.Lines, Line{Name: c.Name, Amount: amt})
		b.Total = b.Total.Add(amt)
	}
	return b
}

// Amount returns the named component's computed amount, or zero if the
// component did not apply to this transaction.
func (b Breakdown) Amount(name string) decimal.Decimal {
	for _, l := range b.Lines {
		if l.Name == name {
			return l.Amount
		}
	}
	return decimal.Zero
}
