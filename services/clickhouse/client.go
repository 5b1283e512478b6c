// Package clickhouse is the historical-bar store: a ReplacingMergeTree table
// keyed (symbol, open_time_ms) carrying OHLCV plus the externally computed
// vwap, rsi, and relative_volume columns, queried by symbol and date range.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/ToonNaToon/backtesting-right-side-of-v/services/engine"
)

// Options configures the native-protocol connection.
type Options struct {
	Addr     string
	Database string
	Table    string
	Username string
	Password string
}

// Store implements engine.BarSource over ClickHouse.
type Store struct {
	conn  clickhouse.Conn
	db    string
	table string
	loc   *time.Location
}

// Open connects and pings. Bars are timestamped exchange-local via loc,
// since the engine's EOD rules read wall-clock hours.
func Open(opts Options, loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.Local
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": uint64(0),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &Store{conn: conn, db: opts.Database, table: opts.Table, loc: loc}, nil
}

func (s *Store) Close() error { return s.conn.Close() }

// EnsureSchema creates the database and bar table if absent. The
// ReplacingMergeTree version column makes re-ingestion idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.conn.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.db)); err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.%s (
			symbol String,
			open_time_ms UInt64,
			open Float64,
			high Float64,
			low Float64,
			close Float64,
			volume Float64,
			vwap Float64,
			rsi Float64,
			relative_volume Float64,
			ingested_at DateTime64(3),
			version UInt64
		)
		ENGINE = ReplacingMergeTree(version)
		ORDER BY (symbol, open_time_ms)
		SETTINGS index_granularity = 8192
	`, s.db, s.table)
	if err := s.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// Symbols lists the distinct symbols present in the store.
func (s *Store) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, fmt.Sprintf("SELECT DISTINCT symbol FROM %s.%s ORDER BY symbol", s.db, s.table))
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// Bars returns a symbol's bars ordered by timestamp. Zero from/to bounds are
// open-ended. FINAL collapses ReplacingMergeTree duplicates so re-ingested
// rows never surface twice.
func (s *Store) Bars(ctx context.Context, symbol string, from, to time.Time) ([]engine.Bar, error) {
	q := fmt.Sprintf(`
		SELECT open_time_ms, open, high, low, close, volume, vwap, rsi, relative_volume
		FROM %s.%s FINAL
		WHERE symbol = ?`, s.db, s.table)
	args := []any{symbol}
	if !from.IsZero() {
		q += " AND open_time_ms >= ?"
		args = append(args, uint64(from.UnixMilli()))
	}
	if !to.IsZero() {
		q += " AND open_time_ms <= ?"
		args = append(args, uint64(to.UnixMilli()))
	}
	q += " ORDER BY open_time_ms"

	rows, err := s.conn.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query bars for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []engine.Bar
	for rows.Next() {
		var ms uint64
		var b engine.Bar
		if err := rows.Scan(&ms, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.VWAP, &b.RSI, &b.RelativeVolume); err != nil {
			return nil, fmt.Errorf("scan bar for %s: %w", symbol, err)
		}
		b.Timestamp = time.UnixMilli(int64(ms)).In(s.loc)
		bars = append(bars, b)
	}
	return bars, rows.Err()
}
