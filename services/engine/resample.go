package engine

import (
	"fmt"
	"time"
)

// Resample aggregates bars into coarser step-aligned buckets: first open,
// max high, min low, last close, summed volume. vwap is re-weighted by the
// constituent volumes; rsi and relative_volume take the bucket's last value,
// since they are point-in-time readings, not accumulators. Buckets align to
// the epoch, matching how the upstream exporters cut candles.
//
// Input must already be sorted by timestamp; output is one bar per non-empty
// bucket, in order.
func Resample(bars []Bar, step time.Duration) ([]Bar, error) {
	if step <= 0 {
		return nil, fmt.Errorf("resample: non-positive step %s", step)
	}
	if len(bars) == 0 {
		return nil, nil
	}

	out := make([]Bar, 0, len(bars))
	var cur Bar
	var curBucket time.Time
	var vwapWeight, vwapSum float64
	open := false

	flush := func() {
		if !open {
			return
		}
		if vwapWeight > 0 {
			cur.VWAP = vwapSum / vwapWeight
		} else {
			cur.VWAP = undefined()
		}
		out = append(out, cur)
		open = false
	}

	for _, b := range bars {
		bucket := b.Timestamp.Truncate(step)
		if !open || !bucket.Equal(curBucket) {
			flush()
			curBucket = bucket
			cur = b
			cur.Timestamp = bucket
			vwapWeight, vwapSum = 0, 0
			open = true
		} else {
			if b.High > cur.High {
				cur.High = b.High
			}
			if b.Low < cur.Low {
				cur.Low = b.Low
			}
			cur.Close = b.Close
			cur.Volume += b.Volume
			cur.RSI = b.RSI
			cur.RelativeVolume = b.RelativeVolume
		}
		if isDefined(b.VWAP) && b.Volume > 0 {
			vwapWeight += b.Volume
			vwapSum += b.VWAP * b.Volume
		}
	}
	flush()
	return out, nil
}
