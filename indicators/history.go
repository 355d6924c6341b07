package indicators

import (
	"time"

	"github.com/rustyeddy/backtester/market"
)

// Snapshot is the set of indicator values aligned to one bar. Values holds
// only the indicators whose warmup has completed.
type Snapshot struct {
	Time   time.Time
	Values map[string]float64
}

// Value returns the named indicator value and whether it was ready at this
// bar.
func (s Snapshot) Value(name string) (float64, bool) {
	v, ok := s.Values[name]
	return v, ok
}

// History is the engine-owned, append-only indicator series for one run.
// The engine appends every bar exactly once, in order; strategies receive the
// History by reference and must not mutate it. There is no shared cache
// between runs.
type History struct {
	set   []Indicator
	bars  []market.Bar
	snaps []Snapshot
}

// NewHistory builds a History computing the given indicators per bar.
func NewHistory(set ...Indicator) *History {
	return &History{set: set}
}

// Append consumes the next bar, updates every indicator, and records and
// returns the aligned snapshot.
func (h *History) Append(b market.Bar) Snapshot {
	h.bars = append(h.bars, b)

	snap := Snapshot{Time: b.Time, Values: make(map[string]float64, len(h.set))}
	for _, ind := range h.set {
		ind.Update(b)
		if ind.Ready() {
			snap.Values[ind.Name()] = ind.Value()
		}
	}
	h.snaps = append(h.snaps, snap)
	return snap
}

// Len returns the number of bars appended so far.
func (h *History) Len() int { return len(h.bars) }

// Bar returns the i-th appended bar.
func (h *History) Bar(i int) market.Bar { return h.bars[i] }

// At returns the i-th snapshot.
func (h *History) At(i int) Snapshot { return h.snaps[i] }

// Last returns the most recent snapshot, if any.
func (h *History) Last() (Snapshot, bool) {
	if len(h.snaps) == 0 {
		return Snapshot{}, false
	}
	return h.snaps[len(h.snaps)-1], true
}

// Reset clears the series and every indicator's state.
func (h *History) Reset() {
	h.bars = nil
	h.snaps = nil
	for _, ind := range h.set {
		ind.Reset()
	}
}
