package engine

import (
	"testing"
	"time"
)

// clusterSeries builds a quiet 80-bar series with a capitulation bar at
// index 20 and the pivot low at index 22. Tests then shape the bars after
// the pivot.
func clusterSeries() ([]IndicatorBar, []bool) {
	bars := make([]IndicatorBar, 80)
	flags := make([]bool, 80)
	for i := range bars {
		b := IndicatorBar{Bar: flatBar(i, 100)}
		b.EMA9 = 100
		bars[i] = b
	}
	flags[20] = true
	bars[22].Low = 95
	return bars, flags
}

// vTurnAt shapes bar i into a valid aggressive entry over a pivot at 95.
func vTurnAt(bars []IndicatorBar, i int) {
	bars[i].Open = 96
	bars[i].Close = 97
	bars[i].High = 97.2
	bars[i].Low = 95.8
	bars[i].EMA9 = 96.5
	bars[i].RelativeVolume = 2.0
}

func TestVTurnTrigger(t *testing.T) {
	bars, flags := clusterSeries()
	vTurnAt(bars, 25)

	triggers := FindEntryTriggers(bars, flags, DefaultParams())
	if len(triggers) != 1 {
		t.Fatalf("got %d triggers, want 1", len(triggers))
	}
	tr := triggers[0]
	if tr.BarIndex != 25 || tr.Type != EntryVTurn {
		t.Fatalf("trigger = %+v, want v_turn at bar 25", tr)
	}
	if tr.StopLossPrice != 95 {
		t.Fatalf("stop = %v, want the pivot low 95", tr.StopLossPrice)
	}
}

func TestVTurnRejectsExtendedEntry(t *testing.T) {
	bars, flags := clusterSeries()
	vTurnAt(bars, 25)
	// 2.5%+ above the pivot stop: (close-95)/close >= 0.025
	bars[25].Open = 97
	bars[25].Close = 98
	bars[25].EMA9 = 97.5

	if triggers := FindEntryTriggers(bars, flags, DefaultParams()); len(triggers) != 0 {
		t.Fatalf("got %d triggers, want 0 for an extended entry", len(triggers))
	}
}

func TestStopHuntInvalidatesCluster(t *testing.T) {
	bars, flags := clusterSeries()
	bars[45].Low = 94.5 // past the pivot window, takes out the 95 pivot
	vTurnAt(bars, 50)   // a later perfect pattern must not fire

	if triggers := FindEntryTriggers(bars, flags, DefaultParams()); len(triggers) != 0 {
		t.Fatalf("got %d triggers, want 0 after stop hunt", len(triggers))
	}
}

func TestHigherLowTrigger(t *testing.T) {
	bars, flags := clusterSeries()
	// red pullback bars hold above the pivot, then bar 28 breaks their high
	for i := 23; i <= 27; i++ {
		bars[i].Open = 96.5
		bars[i].Close = 96.3
		bars[i].High = 96.8
		bars[i].Low = 96
	}
	bars[28].Open = 96.9
	bars[28].Close = 97
	bars[28].High = 97.1
	bars[28].Low = 96.5

	triggers := FindEntryTriggers(bars, flags, DefaultParams())
	if len(triggers) != 1 {
		t.Fatalf("got %d triggers, want 1", len(triggers))
	}
	tr := triggers[0]
	if tr.BarIndex != 28 || tr.Type != EntryHigherLow {
		t.Fatalf("trigger = %+v, want higher_low at bar 28", tr)
	}
	if tr.StopLossPrice != 96 {
		t.Fatalf("stop = %v, want the pullback low 96", tr.StopLossPrice)
	}
}

func TestVTurnEvaluatedBeforeHigherLow(t *testing.T) {
	bars, flags := clusterSeries()
	for i := 23; i <= 27; i++ {
		bars[i].Open = 96.5
		bars[i].Close = 96.3
		bars[i].High = 96.8
		bars[i].Low = 96
	}
	// bar 28 satisfies both patterns at once
	bars[28].Open = 96.5
	bars[28].Close = 97
	bars[28].High = 97.1
	bars[28].Low = 96.3
	bars[28].EMA9 = 96.8
	bars[28].RelativeVolume = 2.0

	triggers := FindEntryTriggers(bars, flags, DefaultParams())
	if len(triggers) != 1 || triggers[0].Type != EntryVTurn {
		t.Fatalf("triggers = %+v, want the aggressive pattern to win", triggers)
	}
	if triggers[0].StopLossPrice != 95 {
		t.Fatalf("stop = %v, want the pivot low, not the pullback low", triggers[0].StopLossPrice)
	}
}

func TestNoEntryAtOrAfterEODHour(t *testing.T) {
	bars, flags := clusterSeries()
	vTurnAt(bars, 25)
	late := time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i].Timestamp = late.Add(time.Duration(i) * 2 * time.Minute)
	}

	if triggers := FindEntryTriggers(bars, flags, DefaultParams()); len(triggers) != 0 {
		t.Fatalf("got %d triggers, want 0 for a capitulation at/after 15:00", len(triggers))
	}
}

func TestNoEntryWithoutLookahead(t *testing.T) {
	bars, flags := clusterSeries()
	vTurnAt(bars, 25)
	short := bars[:45]
	flags = flags[:45]
	flags[44] = true // fewer than 20 bars remain ahead

	triggers := FindEntryTriggers(short, flags, DefaultParams())
	if len(triggers) != 1 || triggers[0].BarIndex != 25 {
		t.Fatalf("triggers = %+v, want only the bar-25 entry", triggers)
	}
}

func TestOneTriggerPerCluster(t *testing.T) {
	bars, flags := clusterSeries()
	flags[21] = true // same cluster, consumed by the first emission
	bars[21].RelativeVolume = 2.0
	bars[21].RSI = 30
	vTurnAt(bars, 25)
	vTurnAt(bars, 30) // second pattern match inside the consumed range

	triggers := FindEntryTriggers(bars, flags, DefaultParams())
	if len(triggers) != 1 {
		t.Fatalf("got %d triggers, want 1 per cluster", len(triggers))
	}
}
