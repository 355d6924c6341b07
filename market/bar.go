package market

import (
	"fmt"
	"time"
)

// Bar is one OHLCV record for a fixed time resolution. Bars are produced by a
// BarSource and never mutated by the engine.
type Bar struct {
	Symbol string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Resolution is the bar interval of a dataset.
type Resolution string

const (
	Min1  Resolution = "M1"
	Min5  Resolution = "M5"
	Min15 Resolution = "M15"
	Hour1 Resolution = "H1"
	Day1  Resolution = "D1"
)

// Duration returns the bar interval, or 0 for an unknown resolution.
func (r Resolution) Duration() time.Duration {
	switch r {
	case Min1:
		return time.Minute
	case Min5:
		return 5 * time.Minute
	case Min15:
		return 15 * time.Minute
	case Hour1:
		return time.Hour
	case Day1:
		return 24 * time.Hour
	}
	return 0
}

// Valid reports whether the bar is internally consistent: prices positive,
// high is the bar maximum, low the minimum.
func (b Bar) Valid() bool {
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return false
	}
	if b.High < b.Low {
		return false
	}
	if b.Open > b.High || b.Open < b.Low {
		return false
	}
	if b.Close > b.High || b.Close < b.Low {
		return false
	}
	return b.Volume >= 0
}

// ValidateSeries checks that bars are non-empty, strictly time-ascending and
// individually consistent. The engine runs this once on the fetched dataset
// before the loop starts.
func ValidateSeries(bars []Bar) error {
	if len(bars) == 0 {
		return fmt.Errorf("empty bar series")
	}
	for i, b := range bars {
		if !b.Valid() {
			return fmt.Errorf("bar %d (%s %s): inconsistent OHLCV", i, b.Symbol, b.Time.Format(time.RFC3339))
		}
		if i > 0 && !bars[i-1].Time.Before(b.Time) {
			return fmt.Errorf("bar %d (%s): out of order, %s not after %s",
				i, b.Symbol, b.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}
