package engine

// Params holds the tunable thresholds and windows of the right-side-of-V
// strategy. All capitulation thresholds are parameters, not constants.
type Params struct {
	// Indicator windows
	ATRPeriod        int // rolling mean of true range
	EMASpan          int // exponential average span, alpha = 2/(span+1)
	VWAPStdWindow    int // rolling stddev window over vwap itself
	RollingMaxWindow int // trailing close maximum window

	// Capitulation conditions (all four must hold)
	RvolThreshold         float64 // relative volume above this
	VWAPDistanceThreshold float64 // close more than this % below vwap
	ATRDropMult           float64 // drop from rolling max, in ATRs
	RSIOversold           float64 // rsi below this

	// Pivot locator half-window over the capitulation subsequence
	PivotWindow int

	// Entry trigger search
	PivotSearchBars    int     // phase 1: bars scanned for the pivot low
	TriggerSearchBars  int     // phase 2: bars scanned past the pivot
	EntryRvolThreshold float64 // v_turn volume confirmation
	MaxRiskPct         float64 // v_turn: max distance to stop as fraction of close
	HigherLowBuffer    float64 // higher_low: window low must clear pivot * this
	HigherLowWindow    int     // higher_low: trailing bars ending at the prior bar

	// Trade simulation
	EODHour        int     // no entries, and forced exits, at or after this hour
	MaxHoldBars    int     // simulator look-ahead bound
	DefaultStopPct float64 // stop when a trigger carries none: entry * (1 - pct)
	MinRiskPct     float64 // floor for non-positive entry risk, fraction of entry
}

// DefaultParams returns the thresholds the strategy was calibrated with.
func DefaultParams() Params {
	return Params{
		ATRPeriod:        14,
		EMASpan:          9,
		VWAPStdWindow:    20,
		RollingMaxWindow: 20,

		RvolThreshold:         1.5,
		VWAPDistanceThreshold: 0.5,
		ATRDropMult:           3.0,
		RSIOversold:           35,

		PivotWindow: 10,

		PivotSearchBars:    20,
		TriggerSearchBars:  40,
		EntryRvolThreshold: 1.5,
		MaxRiskPct:         0.025,
		HigherLowBuffer:    1.0005,
		HigherLowWindow:    5,

		EODHour:        15,
		MaxHoldBars:    250,
		DefaultStopPct: 0.02,
		MinRiskPct:     0.01,
	}
}
