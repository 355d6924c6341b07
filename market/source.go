package market

import (
	"context"
	"time"
)

// BarSource is the historical-data collaborator. Implementations return bars
// oldest first, filtered to [start, end), and must be safe for concurrent
// reads: independent backtest runs may share one source.
type BarSource interface {
	GetBars(ctx context.Context, symbol string, res Resolution, start, end time.Time) ([]Bar, error)
}

// SliceSource serves a fixed, in-memory bar slice. Useful for tests and for
// callers that already hold the dataset.
type SliceSource struct {
	Bars []Bar
}

func (s SliceSource) GetBars(_ context.Context, symbol string, _ Resolution, start, end time.Time) ([]Bar, error) {
	var out []Bar
	for _, b := range s.Bars {
		if b.Symbol != "" && symbol != "" && b.Symbol != symbol {
			continue
		}
		if !start.IsZero() && b.Time.Before(start) {
			continue
		}
		if !end.IsZero() && !b.Time.Before(end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}
