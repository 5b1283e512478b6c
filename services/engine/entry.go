package engine

// EntryType distinguishes the two mutually exclusive entry patterns.
type EntryType string

const (
	EntryVTurn     EntryType = "v_turn"
	EntryHigherLow EntryType = "higher_low"
)

// EntryTrigger is an entry signal at a specific bar, carrying the stop the
// pattern implies.
type EntryTrigger struct {
	BarIndex      int       `json:"bar_index"`
	Type          EntryType `json:"entry_type"`
	StopLossPrice float64   `json:"stop_loss_price"`
}

// FindEntryTriggers scans forward from each capitulation cluster for a valid
// entry. Per cluster, phase 1 locates the pivot low over the next
// PivotSearchBars bars; phase 2 scans up to TriggerSearchBars past the pivot
// for either pattern, aborting the cluster outright if any bar's low takes
// out the pivot (stop hunt). The aggressive v_turn is evaluated before the
// conservative higher_low. On emission all bars from the capitulation bar
// through the entry bar are consumed, so at most one trigger stems from a
// cluster.
func FindEntryTriggers(bars []IndicatorBar, capitulation []bool, p Params) []EntryTrigger {
	var triggers []EntryTrigger
	consumed := make([]bool, len(bars))

	for capIdx := range bars {
		if !capitulation[capIdx] || consumed[capIdx] {
			continue
		}
		if bars[capIdx].Timestamp.Hour() >= p.EODHour {
			continue
		}
		if capIdx+p.PivotSearchBars >= len(bars) {
			continue
		}

		// Phase 1: pivot low over the search window, first occurrence wins
		pivotIdx := capIdx
		pivotPrice := bars[capIdx].Low
		for i := capIdx + 1; i < capIdx+p.PivotSearchBars; i++ {
			if bars[i].Low < pivotPrice {
				pivotPrice = bars[i].Low
				pivotIdx = i
			}
		}

		// Phase 2: trigger search past the pivot
		end := pivotIdx + p.TriggerSearchBars
		if end > len(bars) {
			end = len(bars)
		}
		for i := pivotIdx + 1; i < end; i++ {
			cur := bars[i]

			// Pivot violated: the pattern failed, abort this cluster
			if cur.Low < pivotPrice {
				break
			}

			distToStop := (cur.Close - pivotPrice) / cur.Close
			if cur.Close > cur.EMA9 &&
				cur.RelativeVolume > p.EntryRvolThreshold &&
				cur.Close > cur.Open &&
				distToStop < p.MaxRiskPct {
				triggers = append(triggers, EntryTrigger{BarIndex: i, Type: EntryVTurn, StopLossPrice: pivotPrice})
				consume(consumed, capIdx, i)
				break
			}

			// Higher low: a pullback holding above the pivot, then a break
			// of the pullback's high
			wStart := i - p.HigherLowWindow
			if wStart < pivotIdx {
				wStart = pivotIdx
			}
			if wStart > i-1 {
				continue
			}
			recentLow := bars[wStart].Low
			recentHigh := bars[wStart].High
			for j := wStart + 1; j <= i-1; j++ {
				if bars[j].Low < recentLow {
					recentLow = bars[j].Low
				}
				if bars[j].High > recentHigh {
					recentHigh = bars[j].High
				}
			}
			if recentLow > pivotPrice*p.HigherLowBuffer && cur.Close > recentHigh {
				triggers = append(triggers, EntryTrigger{BarIndex: i, Type: EntryHigherLow, StopLossPrice: recentLow})
				consume(consumed, capIdx, i)
				break
			}
		}
	}
	return triggers
}

func consume(consumed []bool, from, through int) {
	for i := from; i <= through; i++ {
		consumed[i] = true
	}
}
