// Package chartfeed reformats engine output into the Lightweight Charts
// schema the front-end consumes: per-bar series keyed by epoch-seconds
// timestamps, plus entry/exit trade markers.
package chartfeed

import (
	"fmt"
	"math"

	"github.com/ToonNaToon/backtesting-right-side-of-v/services/engine"
)

const (
	colorVolumeUp   = "rgba(0, 150, 136, 0.5)"
	colorVolumeDown = "rgba(255, 82, 82, 0.5)"
	colorEntry      = "#2196F3"
	colorExitWin    = "#4CAF50"
	colorExitLoss   = "#F44336"
)

// Candle is one OHLC entry.
type Candle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Point is one line-series entry (vwap, ema).
type Point struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// VolumePoint is one histogram entry, colored by bar direction.
type VolumePoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Marker is one chart annotation for a trade entry or exit.
type Marker struct {
	Time     int64  `json:"time"`
	Position string `json:"position"`
	Color    string `json:"color"`
	Shape    string `json:"shape"`
	Text     string `json:"text"`
}

// Payload is the full chart response for one symbol.
type Payload struct {
	OHLC    []Candle       `json:"ohlc"`
	Volume  []VolumePoint  `json:"volume"`
	VWAP    []Point        `json:"vwap"`
	EMA     []Point        `json:"ema"`
	Markers []Marker       `json:"markers"`
	Trades  []engine.Trade `json:"trades"`
	Metrics engine.Metrics `json:"metrics"`
}

// Build formats a symbol result. Undefined indicator values are omitted from
// their series rather than serialized.
func Build(res *engine.SymbolResult) *Payload {
	p := &Payload{
		OHLC:    make([]Candle, 0, len(res.Bars)),
		Volume:  make([]VolumePoint, 0, len(res.Bars)),
		VWAP:    make([]Point, 0, len(res.Bars)),
		EMA:     make([]Point, 0, len(res.Bars)),
		Markers: make([]Marker, 0, 2*len(res.Trades)),
		Trades:  res.Trades,
		Metrics: res.Metrics,
	}

	for _, b := range res.Bars {
		t := b.Timestamp.Unix()
		p.OHLC = append(p.OHLC, Candle{Time: t, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close})

		color := colorVolumeUp
		if b.Close < b.Open {
			color = colorVolumeDown
		}
		p.Volume = append(p.Volume, VolumePoint{Time: t, Value: b.Volume, Color: color})

		if !math.IsNaN(b.VWAP) {
			p.VWAP = append(p.VWAP, Point{Time: t, Value: b.VWAP})
		}
		if !math.IsNaN(b.EMA9) {
			p.EMA = append(p.EMA, Point{Time: t, Value: b.EMA9})
		}
	}

	for _, trade := range res.Trades {
		p.Markers = append(p.Markers, Marker{
			Time:     trade.EntryTime.Unix(),
			Position: "belowBar",
			Color:    colorEntry,
			Shape:    "arrowUp",
			Text:     fmt.Sprintf("Buy %s @ %.2f", trade.Type, trade.EntryPrice),
		})
		color := colorExitLoss
		if trade.PnlPct > 0 {
			color = colorExitWin
		}
		p.Markers = append(p.Markers, Marker{
			Time:     trade.ExitTime.Unix(),
			Position: "aboveBar",
			Color:    color,
			Shape:    "arrowDown",
			Text:     fmt.Sprintf("Sell (%s) %.2f%%", trade.ExitReason, trade.PnlPct),
		})
	}
	return p
}
