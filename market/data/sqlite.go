package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/backtester/market"
)

// Store keeps historical bars in SQLite, keyed by symbol, resolution, and
// time. Imports upsert, so re-running an import is harmless.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) a bar store at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// PutBars inserts or replaces bars under the given resolution, in one
// transaction.
func (s *Store) PutBars(ctx context.Context, res market.Resolution, bars []market.Bar) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bars
		(symbol, resolution, time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.ExecContext(ctx,
			b.Symbol, string(res), b.Time.UTC(),
			b.Open, b.High, b.Low, b.Close, b.Volume,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("put bar %s %s: %w", b.Symbol, b.Time.Format(time.RFC3339), err)
		}
	}

	return tx.Commit()
}

// GetBars returns the stored bars for [start, end), oldest first.
func (s *Store) GetBars(ctx context.Context, symbol string, res market.Resolution, start, end time.Time) ([]market.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, time, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND resolution = ? AND time >= ? AND time < ?
		ORDER BY time ASC`,
		symbol, string(res), start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []market.Bar
	for rows.Next() {
		var b market.Bar
		if err := rows.Scan(&b.Symbol, &b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Time = b.Time.UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Symbols lists the distinct symbols stored for a resolution.
func (s *Store) Symbols(ctx context.Context, res market.Resolution) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT symbol FROM bars WHERE resolution = ? ORDER BY symbol`, string(res))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
