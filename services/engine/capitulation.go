package engine

// DetectCapitulation flags bars meeting the four-condition selloff
// signature: elevated relative volume, close well below vwap, a multi-ATR
// drop from the trailing high, and an oversold rsi. The flag is a strict
// logical AND; an undefined (NaN) input never satisfies a condition.
func DetectCapitulation(bars []IndicatorBar, p Params) []bool {
	flags := make([]bool, len(bars))
	for i, b := range bars {
		flags[i] = b.RelativeVolume > p.RvolThreshold &&
			b.VWAPDistancePct < -p.VWAPDistanceThreshold &&
			b.DropATR > p.ATRDropMult &&
			b.RSI < p.RSIOversold
	}
	return flags
}
