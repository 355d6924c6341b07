// Package data provides the historical-data collaborators a backtest reads
// bars from: CSV files, a SQLite store, Parquet files, and an importer for
// xz-compressed CSV archives. All sources return bars oldest first and are
// safe for concurrent reads.
package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/backtester/market"
)

// ReadCSV loads canonical bar CSV rows:
//
//	time,symbol,open,high,low,close,volume
//
// where time is RFC3339 or RFC3339Nano. A header row ("time,...") is
// allowed. Empty/short rows are skipped.
func ReadCSV(r io.Reader) ([]market.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var bars []market.Bar
	sawFirst := false

	for {
		row, err := cr.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		b, ok, err := parseBarRow(row)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		bars = append(bars, b)
	}
}

// ReadCSVFile loads bars from a CSV file on disk.
func ReadCSVFile(path string) ([]market.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bars, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return bars, nil
}

// WriteCSV writes bars in the canonical CSV layout, header included.
func WriteCSV(w io.Writer, bars []market.Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "symbol", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bars {
		row := []string{
			b.Time.UTC().Format(time.RFC3339),
			b.Symbol,
			formatF(b.Open),
			formatF(b.High),
			formatF(b.Low),
			formatF(b.Close),
			formatF(b.Volume),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseBarRow(row []string) (market.Bar, bool, error) {
	// Need at least: time,symbol,open,high,low,close
	if len(row) < 6 {
		return market.Bar{}, false, nil
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return market.Bar{}, false, nil
	}
	// Accept RFC3339 or RFC3339Nano.
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, ts)
		if err2 != nil {
			return market.Bar{}, false, fmt.Errorf("bad time %q: %w", ts, err)
		}
		t = t2
	}

	b := market.Bar{Symbol: strings.TrimSpace(row[1]), Time: t}

	fields := []*float64{&b.Open, &b.High, &b.Low, &b.Close}
	for i, dst := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[2+i]), 64)
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("bad price %q: %w", row[2+i], err)
		}
		*dst = v
	}

	if len(row) > 6 && strings.TrimSpace(row[6]) != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[6]), 64)
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("bad volume %q: %w", row[6], err)
		}
		b.Volume = v
	}

	return b, true, nil
}

func formatF(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CSVSource serves GetBars straight from a CSV file, loading it on every
// call. Fine for one-shot runs; use Store or ParquetStore for repeated
// queries.
type CSVSource struct {
	Path string
}

func (s CSVSource) GetBars(_ context.Context, symbol string, _ market.Resolution, start, end time.Time) ([]market.Bar, error) {
	bars, err := ReadCSVFile(s.Path)
	if err != nil {
		return nil, err
	}
	return filterBars(bars, symbol, start, end), nil
}

func filterBars(bars []market.Bar, symbol string, start, end time.Time) []market.Bar {
	var out []market.Bar
	for _, b := range bars {
		if symbol != "" && b.Symbol != symbol {
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
	return out
}
