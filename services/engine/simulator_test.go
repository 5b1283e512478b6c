package engine

import (
	"math"
	"testing"
	"time"
)

func simBars(n int) []IndicatorBar {
	bars := make([]IndicatorBar, n)
	for i := range bars {
		bars[i] = IndicatorBar{Bar: flatBar(i, 100)}
	}
	return bars
}

func oneTrigger(idx int, stop float64) []EntryTrigger {
	return []EntryTrigger{{BarIndex: idx, Type: EntryVTurn, StopLossPrice: stop}}
}

func TestSimulatorEveryTradeClosed(t *testing.T) {
	bars := simBars(40)
	trades := SimulateTrades(bars, oneTrigger(5, 98), DefaultParams())
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	if trades[0].Status != StatusClosed {
		t.Fatalf("status = %q, want closed", trades[0].Status)
	}
}

func TestSimulatorTrailingStopExit(t *testing.T) {
	bars := simBars(40)
	bars[5].Low = 99.4
	bars[6].Low = 99.5 // holds above the trigger bar's low
	bars[7].Low = 99.0 // below prev bar's 99.5 low
	bars[7].Open = 99.8

	trades := SimulateTrades(bars, oneTrigger(5, 98), DefaultParams())
	tr := trades[0]
	if tr.ExitReason != ExitPrevCandleLow {
		t.Fatalf("exit reason = %q, want prev_candle_low", tr.ExitReason)
	}
	// gap protection: fill at the worse of open and stop
	if tr.ExitPrice != 99.5 {
		t.Fatalf("exit = %v, want the trailed stop 99.5", tr.ExitPrice)
	}
	if tr.BarsHeld != 2 {
		t.Fatalf("bars held = %d, want 2", tr.BarsHeld)
	}
	wantPnl := (99.5 - 100) / 100 * 100
	if math.Abs(tr.PnlPct-wantPnl) > 1e-12 {
		t.Fatalf("pnl = %v, want %v", tr.PnlPct, wantPnl)
	}
}

func TestSimulatorGapBelowStopFillsAtOpen(t *testing.T) {
	bars := simBars(40)
	bars[5].Low = 99.4
	bars[6].Low = 99.5
	bars[7].Open = 98.7 // gaps through the 99.5 stop
	bars[7].Low = 98.5

	trades := SimulateTrades(bars, oneTrigger(5, 98), DefaultParams())
	if trades[0].ExitPrice != 98.7 {
		t.Fatalf("exit = %v, want the gap open 98.7", trades[0].ExitPrice)
	}
}

func TestSimulatorEODExit(t *testing.T) {
	bars := simBars(200) // 09:00 + 2m steps crosses 15:00 at bar 180
	trades := SimulateTrades(bars, oneTrigger(175, 98), DefaultParams())
	tr := trades[0]
	if tr.ExitReason != ExitEOD {
		t.Fatalf("exit reason = %q, want eod_1500", tr.ExitReason)
	}
	if tr.ExitTime.Hour() != 15 {
		t.Fatalf("exit hour = %d, want 15", tr.ExitTime.Hour())
	}
	if tr.ExitPrice != 100 {
		t.Fatalf("exit = %v, want the close 100", tr.ExitPrice)
	}
}

func TestSimulatorNextDayForceClose(t *testing.T) {
	bars := simBars(10)
	nextDay := testBase.Add(24 * time.Hour)
	for i := 7; i < 10; i++ {
		bars[i].Timestamp = nextDay.Add(time.Duration(i) * 2 * time.Minute)
	}
	bars[7].Open = 101.3

	trades := SimulateTrades(bars, oneTrigger(5, 98), DefaultParams())
	tr := trades[0]
	if tr.ExitReason != ExitNextDay {
		t.Fatalf("exit reason = %q, want next_day_force_close", tr.ExitReason)
	}
	if tr.ExitPrice != 101.3 {
		t.Fatalf("exit = %v, want the next-day open", tr.ExitPrice)
	}
	// the crossing bar does not count as held
	if tr.BarsHeld != 1 {
		t.Fatalf("bars held = %d, want 1", tr.BarsHeld)
	}
}

func TestSimulatorEndOfSliceExit(t *testing.T) {
	bars := simBars(12)
	bars[11].Close = 100.8
	trades := SimulateTrades(bars, oneTrigger(8, 98), DefaultParams())
	tr := trades[0]
	if tr.ExitReason != ExitEndOfSlice {
		t.Fatalf("exit reason = %q, want end_of_slice", tr.ExitReason)
	}
	if tr.ExitPrice != 100.8 {
		t.Fatalf("exit = %v, want the final close", tr.ExitPrice)
	}
}

func TestSimulatorDefaultStopWhenUndefined(t *testing.T) {
	bars := simBars(12)
	trig := []EntryTrigger{{BarIndex: 5, Type: EntryHigherLow, StopLossPrice: math.NaN()}}
	trades := SimulateTrades(bars, trig, DefaultParams())
	if got, want := trades[0].InitialStop, 100*(1-0.02); got != want {
		t.Fatalf("stop = %v, want %v", got, want)
	}
}

func TestSimulatorRiskFloor(t *testing.T) {
	bars := simBars(12)
	trades := SimulateTrades(bars, oneTrigger(5, 100), DefaultParams()) // stop at entry
	if got, want := trades[0].EntryRisk, 100*0.01; got != want {
		t.Fatalf("risk = %v, want floored %v", got, want)
	}
}
