package engine

import (
	"math"
	"time"
)

// Bar is a single OHLCV bar plus the externally supplied per-bar fields
// (vwap, rsi, relative volume) the upstream data pipeline is contracted to
// provide. The engine never recomputes those three.
type Bar struct {
	Timestamp      time.Time `json:"timestamp"`
	Open           float64   `json:"open"`
	High           float64   `json:"high"`
	Low            float64   `json:"low"`
	Close          float64   `json:"close"`
	Volume         float64   `json:"volume"`
	RelativeVolume float64   `json:"relative_volume"`
	RSI            float64   `json:"rsi"`
	VWAP           float64   `json:"vwap"`
}

// IndicatorBar is a Bar enriched with the derived fields of the indicator
// pipeline. Derived values are NaN until enough history exists, e.g. ATR for
// the first period-1 bars.
type IndicatorBar struct {
	Bar
	ATR             float64 `json:"atr"`
	EMA9            float64 `json:"ema_9"`
	VWAPDistancePct float64 `json:"vwap_distance_pct"`
	VWAPDistanceStd float64 `json:"vwap_distance_std"`
	RollingMax20    float64 `json:"rolling_max_20"`
	DropATR         float64 `json:"drop_atr"`
}

func undefined() float64 { return math.NaN() }

func isDefined(v float64) bool { return !math.IsNaN(v) }

// sameDay reports whether two timestamps fall on the same calendar date in
// their own locations. Bars carry exchange-local times, so this is the
// session-day comparison the simulator needs.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
