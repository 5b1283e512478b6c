package chartfeed

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ToonNaToon/backtesting-right-side-of-v/services/engine"
)

func testResult() *engine.SymbolResult {
	base := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	bars := make([]engine.IndicatorBar, 3)
	for i := range bars {
		bars[i] = engine.IndicatorBar{Bar: engine.Bar{
			Timestamp: base.Add(time.Duration(i) * 2 * time.Minute),
			Open:      100, High: 101, Low: 99, Close: 100.5,
			Volume: 1000, VWAP: 100.2,
		}}
		bars[i].EMA9 = 100.1
	}
	bars[0].EMA9 = math.NaN() // warmup
	bars[2].Close = 99.5      // red bar

	trade := engine.Trade{
		Type:       engine.EntryVTurn,
		EntryTime:  bars[1].Timestamp,
		EntryPrice: 100.5,
		ExitTime:   bars[2].Timestamp,
		ExitPrice:  99.5,
		ExitReason: engine.ExitPrevCandleLow,
		Status:     engine.StatusClosed,
		PnlPct:     -0.99,
	}
	return &engine.SymbolResult{
		Symbol:     "AAPL",
		DataPoints: 3,
		Trades:     []engine.Trade{trade},
		Metrics:    engine.AggregateMetrics([]engine.Trade{trade}),
		Bars:       bars,
	}
}

func TestBuildSeries(t *testing.T) {
	p := Build(testResult())
	if len(p.OHLC) != 3 || len(p.Volume) != 3 {
		t.Fatalf("ohlc/volume = %d/%d, want 3/3", len(p.OHLC), len(p.Volume))
	}
	// warmup NaN dropped from the EMA series only
	if len(p.EMA) != 2 || len(p.VWAP) != 3 {
		t.Fatalf("ema/vwap = %d/%d, want 2/3", len(p.EMA), len(p.VWAP))
	}
	if p.Volume[0].Color != colorVolumeUp || p.Volume[2].Color != colorVolumeDown {
		t.Fatalf("volume colors = %q/%q", p.Volume[0].Color, p.Volume[2].Color)
	}
	if p.OHLC[0].Time != p.Volume[0].Time {
		t.Fatal("series must share epoch-second timestamps")
	}
}

func TestBuildMarkers(t *testing.T) {
	p := Build(testResult())
	if len(p.Markers) != 2 {
		t.Fatalf("markers = %d, want entry and exit", len(p.Markers))
	}
	entry, exit := p.Markers[0], p.Markers[1]
	if entry.Position != "belowBar" || entry.Shape != "arrowUp" || entry.Color != colorEntry {
		t.Fatalf("entry marker = %+v", entry)
	}
	if !strings.HasPrefix(entry.Text, "Buy v_turn @") {
		t.Fatalf("entry text = %q", entry.Text)
	}
	if exit.Position != "aboveBar" || exit.Color != colorExitLoss {
		t.Fatalf("exit marker = %+v", exit)
	}
	if !strings.Contains(exit.Text, "prev_candle_low") {
		t.Fatalf("exit text = %q", exit.Text)
	}
}
