package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ToonNaToon/backtesting-right-side-of-v/services/engine"
)

// InsertBars appends one symbol's bars in a single deduplicated batch. The
// shared version stamp means re-running an installer over the same file is a
// no-op after the ReplacingMergeTree merge.
func (s *Store) InsertBars(ctx context.Context, symbol string, bars []engine.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx,
		fmt.Sprintf("INSERT INTO %s.%s SETTINGS insert_deduplicate=1", s.db, s.table))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	now := time.Now().UTC()
	ver := uint64(now.UnixNano())
	for _, b := range bars {
		if err := batch.Append(
			symbol,
			uint64(b.Timestamp.UnixMilli()),
			b.Open, b.High, b.Low, b.Close,
			b.Volume,
			b.VWAP, b.RSI, b.RelativeVolume,
			now,
			ver,
		); err != nil {
			return fmt.Errorf("batch append: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("batch send: %w", err)
	}
	return nil
}
