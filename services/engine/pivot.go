package engine

// LocatePivotLows marks structural pivot lows among capitulation-flagged
// bars. The scan walks the capitulation subsequence by position, compares
// each bar's low against the minimum low inside a clamped window of
// subsequence positions, and stops at the first match.
//
// Known limitation, preserved deliberately: the scan terminates after the
// first pivot, so at most one bar is ever marked per run no matter how many
// capitulation clusters follow.
func LocatePivotLows(bars []IndicatorBar, capitulation []bool, p Params) []bool {
	pivots := make([]bool, len(bars))

	var capIdx []int
	for i, flagged := range capitulation {
		if flagged {
			capIdx = append(capIdx, i)
		}
	}

	for i := 1; i < len(capIdx); i++ {
		lo := i - p.PivotWindow
		if lo < 0 {
			lo = 0
		}
		hi := i + p.PivotWindow
		if hi > len(capIdx) {
			hi = len(capIdx)
		}
		lowest := bars[capIdx[lo]].Low
		for j := lo + 1; j < hi; j++ {
			if l := bars[capIdx[j]].Low; l < lowest {
				lowest = l
			}
		}
		if bars[capIdx[i]].Low == lowest {
			pivots[capIdx[i]] = true
			break
		}
	}
	return pivots
}
