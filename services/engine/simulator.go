package engine

import (
	"math"
	"time"
)

// TradeStatus is open while a simulated trade is live; every trade the
// simulator returns is closed.
type TradeStatus string

const (
	StatusOpen   TradeStatus = "open"
	StatusClosed TradeStatus = "closed"
)

// ExitReason records which risk rule closed a trade.
type ExitReason string

const (
	ExitPrevCandleLow ExitReason = "prev_candle_low"
	ExitEOD           ExitReason = "eod_1500"
	ExitNextDay       ExitReason = "next_day_force_close"
	ExitEndOfSlice    ExitReason = "end_of_slice"
)

// Trade is one simulated round trip. PnlPct is always
// (exit-entry)/entry*100.
type Trade struct {
	Symbol      string      `json:"symbol,omitempty"`
	Type        EntryType   `json:"type"`
	EntryTime   time.Time   `json:"entry_time"`
	EntryPrice  float64     `json:"entry_price"`
	InitialStop float64     `json:"initial_stop"`
	EntryRisk   float64     `json:"entry_risk"`
	ExitTime    time.Time   `json:"exit_time"`
	ExitPrice   float64     `json:"exit_price"`
	ExitReason  ExitReason  `json:"exit_reason"`
	Status      TradeStatus `json:"status"`
	PnlPct      float64     `json:"pnl_pct"`
	BarsHeld    int         `json:"bars_held"`
}

// SimulateTrades replays each entry trigger bar by bar under the mechanical
// risk rules: a trailing stop at the previous bar's low, a forced close at
// or after the EOD hour, a forced close at the open of the next session day,
// and an end-of-slice close when the bounded look-ahead runs out. Entries
// fill at the trigger bar's close.
func SimulateTrades(bars []IndicatorBar, triggers []EntryTrigger, p Params) []Trade {
	trades := make([]Trade, 0, len(triggers))

	for _, trig := range triggers {
		end := trig.BarIndex + p.MaxHoldBars
		if end > len(bars) {
			end = len(bars)
		}
		slice := bars[trig.BarIndex:end]
		entryBar := slice[0]

		entry := entryBar.Close
		stop := trig.StopLossPrice
		if !isDefined(stop) {
			stop = entry * (1 - p.DefaultStopPct)
		}
		// Informational only; risk never gates an entry
		risk := entry - stop
		if risk <= 0 {
			risk = entry * p.MinRiskPct
		}

		trade := Trade{
			Type:        trig.Type,
			EntryTime:   entryBar.Timestamp,
			EntryPrice:  entry,
			InitialStop: stop,
			EntryRisk:   risk,
			Status:      StatusOpen,
		}

		for i := 1; i < len(slice); i++ {
			cur := slice[i]

			// Held overnight: force-close at this bar's open
			if !sameDay(cur.Timestamp, entryBar.Timestamp) {
				trade.close(cur.Timestamp, cur.Open, ExitNextDay)
				break
			}

			trade.BarsHeld++

			// Trailing stop rides the previous bar's low
			stopPrice := slice[i-1].Low
			if cur.Low < stopPrice {
				trade.close(cur.Timestamp, math.Min(cur.Open, stopPrice), ExitPrevCandleLow)
				break
			}

			if cur.Timestamp.Hour() >= p.EODHour {
				trade.close(cur.Timestamp, cur.Close, ExitEOD)
				break
			}
		}

		// Look-ahead exhausted with the trade still open
		if trade.Status == StatusOpen {
			last := slice[len(slice)-1]
			trade.close(last.Timestamp, last.Close, ExitEndOfSlice)
		}

		trade.PnlPct = (trade.ExitPrice - trade.EntryPrice) / trade.EntryPrice * 100
		trades = append(trades, trade)
	}
	return trades
}

func (t *Trade) close(ts time.Time, price float64, reason ExitReason) {
	t.Status = StatusClosed
	t.ExitTime = ts
	t.ExitPrice = price
	t.ExitReason = reason
}
