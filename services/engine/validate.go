package engine

import (
	"fmt"
	"math"
	"time"
)

// ValidateBars enforces the per-bar contract before any derivation runs:
// strictly increasing unique timestamps, finite OHLCV, and the externally
// supplied vwap/rsi/relative_volume populated somewhere in the series. A
// field that is NaN on every bar means the upstream column is absent, which
// is a fault; isolated NaNs are warmup and pass through (they can never
// satisfy a threshold).
func ValidateBars(bars []Bar) error {
	if len(bars) == 0 {
		return nil
	}

	vwapMissing, rsiMissing, rvolMissing := true, true, true
	for i, b := range bars {
		if i > 0 && !b.Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("bar %d: timestamp %s not after previous %s",
				i, b.Timestamp.Format(time.RFC3339), bars[i-1].Timestamp.Format(time.RFC3339))
		}
		for _, f := range [...]struct {
			name string
			v    float64
		}{{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close}, {"volume", b.Volume}} {
			if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
				return fmt.Errorf("bar %d (%s): malformed %s", i, b.Timestamp.Format(time.RFC3339), f.name)
			}
		}
		vwapMissing = vwapMissing && math.IsNaN(b.VWAP)
		rsiMissing = rsiMissing && math.IsNaN(b.RSI)
		rvolMissing = rvolMissing && math.IsNaN(b.RelativeVolume)
	}

	switch {
	case vwapMissing:
		return fmt.Errorf("vwap: %w", ErrMissingField)
	case rsiMissing:
		return fmt.Errorf("rsi: %w", ErrMissingField)
	case rvolMissing:
		return fmt.Errorf("relative_volume: %w", ErrMissingField)
	}
	return nil
}

// DetectGaps returns the indices of bars after which the spacing to the next
// bar exceeds step. Gaps are normal for session-bound market data; callers
// log them rather than fail.
func DetectGaps(bars []Bar, step time.Duration) []int {
	var gaps []int
	for i := 1; i < len(bars); i++ {
		if bars[i].Timestamp.Sub(bars[i-1].Timestamp) > step {
			gaps = append(gaps, i-1)
		}
	}
	return gaps
}
