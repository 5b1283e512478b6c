package engine

import "math"

// ComputeIndicators derives the per-bar indicator fields from raw bars. The
// input is never mutated; each bar's derived fields land on a new
// IndicatorBar keyed by the same index.
func ComputeIndicators(bars []Bar, p Params) []IndicatorBar {
	out := make([]IndicatorBar, len(bars))
	for i, b := range bars {
		out[i] = IndicatorBar{
			Bar:             b,
			ATR:             undefined(),
			EMA9:            undefined(),
			VWAPDistancePct: undefined(),
			VWAPDistanceStd: undefined(),
			RollingMax20:    undefined(),
			DropATR:         0,
		}
	}
	if len(bars) == 0 {
		return out
	}

	computeATR(bars, out, p.ATRPeriod)
	computeEMA(bars, out, p.EMASpan)
	computeVWAPDistance(bars, out, p.VWAPStdWindow)
	computeDropATR(bars, out, p.RollingMaxWindow)
	return out
}

// computeATR fills ATR as the simple rolling mean of true range over period
// bars. The first bar has no previous close, so its true range is high-low.
func computeATR(bars []Bar, out []IndicatorBar, period int) {
	tr := make([]float64, len(bars))
	tr[0] = bars[0].High - bars[0].Low
	for i := 1; i < len(bars); i++ {
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - bars[i-1].Close)
		lc := math.Abs(bars[i].Low - bars[i-1].Close)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	var sum float64
	for i := range tr {
		sum += tr[i]
		if i >= period {
			sum -= tr[i-period]
		}
		if i >= period-1 {
			out[i].ATR = sum / float64(period)
		}
	}
}

// computeEMA fills the exponential average seeded with the first close.
func computeEMA(bars []Bar, out []IndicatorBar, span int) {
	alpha := 2.0 / float64(span+1)
	ema := bars[0].Close
	out[0].EMA9 = ema
	for i := 1; i < len(bars); i++ {
		ema = alpha*bars[i].Close + (1-alpha)*ema
		out[i].EMA9 = ema
	}
}

// computeVWAPDistance fills the % distance from vwap and the distance scaled
// by the rolling standard deviation of vwap itself (not of the distance
// series).
func computeVWAPDistance(bars []Bar, out []IndicatorBar, window int) {
	for i, b := range bars {
		if b.VWAP != 0 {
			out[i].VWAPDistancePct = (b.Close - b.VWAP) / b.VWAP * 100
		}
		if i >= window-1 {
			sd := sampleStd(bars[i-window+1:i+1], window)
			if sd > 0 {
				out[i].VWAPDistanceStd = (b.Close - b.VWAP) / sd
			}
		}
	}
}

// sampleStd is the sample standard deviation (n-1 denominator) of vwap over
// the window, matching the upstream data pipeline's rolling std.
func sampleStd(bars []Bar, n int) float64 {
	var mean float64
	for _, b := range bars {
		mean += b.VWAP
	}
	mean /= float64(n)
	var ss float64
	for _, b := range bars {
		d := b.VWAP - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// computeDropATR fills the trailing close maximum and the drop from it in
// ATR units. A zero or undefined ATR forces drop_atr to 0 rather than
// dividing by zero.
func computeDropATR(bars []Bar, out []IndicatorBar, window int) {
	for i, b := range bars {
		if i >= window-1 {
			max := bars[i].Close
			for j := i - window + 1; j < i; j++ {
				if bars[j].Close > max {
					max = bars[j].Close
				}
			}
			out[i].RollingMax20 = max
		}
		atr := out[i].ATR
		switch {
		case !isDefined(atr) || atr <= 0:
			out[i].DropATR = 0
		case !isDefined(out[i].RollingMax20):
			// rolling max still warming up: undefined, never flags
			out[i].DropATR = undefined()
		default:
			out[i].DropATR = (out[i].RollingMax20 - b.Close) / atr
		}
	}
}
