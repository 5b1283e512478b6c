package engine

import (
	"encoding/json"
	"math"
)

// Metrics aggregates closed trades. MaxDrawdown is the single worst trade's
// pnl percentage, not a cumulative equity-curve drawdown; the name is kept
// for parity with the reports downstream consumers already read.
type Metrics struct {
	TotalTrades    int               `json:"total_trades"`
	WinRate        float64           `json:"win_rate"`
	AvgWin         float64           `json:"avg_win"`
	AvgLoss        float64           `json:"avg_loss"`
	ProfitFactor   float64           `json:"profit_factor"`
	TotalPnl       float64           `json:"total_pnl"`
	MaxDrawdown    float64           `json:"max_drawdown"`
	RecoveryFactor float64           `json:"recovery_factor"`
	AvgBarsHeld    float64           `json:"avg_bars_held"`
	LargestWin     float64           `json:"largest_win"`
	LargestLoss    float64           `json:"largest_loss"`
	TradesByType   map[EntryType]int `json:"trades_by_type"`
}

// AggregateMetrics reduces closed trades to summary statistics. An empty
// trade list yields a zero-valued Metrics with TotalTrades 0, never an
// error. ProfitFactor is +Inf when there are no losing trades;
// RecoveryFactor is +Inf when the worst trade did not lose.
func AggregateMetrics(trades []Trade) Metrics {
	m := Metrics{TradesByType: make(map[EntryType]int)}

	var closed []Trade
	for _, t := range trades {
		if t.Status == StatusClosed {
			closed = append(closed, t)
		}
	}
	if len(closed) == 0 {
		return m
	}

	var sumWins, sumLosses, totalPnl, barsHeld float64
	var nWins, nLosses int
	minPnl := closed[0].PnlPct
	maxPnl := closed[0].PnlPct
	for _, t := range closed {
		pnl := t.PnlPct
		totalPnl += pnl
		barsHeld += float64(t.BarsHeld)
		if pnl > 0 {
			sumWins += pnl
			nWins++
		} else if pnl < 0 {
			sumLosses += pnl
			nLosses++
		}
		if pnl < minPnl {
			minPnl = pnl
		}
		if pnl > maxPnl {
			maxPnl = pnl
		}
		m.TradesByType[t.Type]++
	}

	m.TotalTrades = len(closed)
	m.WinRate = float64(nWins) / float64(len(closed)) * 100
	if nWins > 0 {
		m.AvgWin = sumWins / float64(nWins)
	}
	if nLosses > 0 {
		m.AvgLoss = sumLosses / float64(nLosses)
	}
	if absLoss := math.Abs(sumLosses); absLoss > 0 {
		m.ProfitFactor = sumWins / absLoss
	} else {
		m.ProfitFactor = math.Inf(1)
	}
	m.TotalPnl = totalPnl
	m.MaxDrawdown = minPnl
	if minPnl < 0 {
		m.RecoveryFactor = sumWins / math.Abs(minPnl)
	} else {
		m.RecoveryFactor = math.Inf(1)
	}
	m.AvgBarsHeld = barsHeld / float64(len(closed))
	m.LargestWin = maxPnl
	m.LargestLoss = minPnl
	return m
}

// MarshalJSON encodes the non-finite ratios (profit factor with no losses,
// recovery factor with no drawdown) as null so every payload stays valid
// JSON.
func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"total_trades":    m.TotalTrades,
		"win_rate":        m.WinRate,
		"avg_win":         m.AvgWin,
		"avg_loss":        m.AvgLoss,
		"profit_factor":   finiteOrNil(m.ProfitFactor),
		"total_pnl":       m.TotalPnl,
		"max_drawdown":    m.MaxDrawdown,
		"recovery_factor": finiteOrNil(m.RecoveryFactor),
		"avg_bars_held":   m.AvgBarsHeld,
		"largest_win":     m.LargestWin,
		"largest_loss":    m.LargestLoss,
		"trades_by_type":  m.TradesByType,
	})
}

func finiteOrNil(v float64) any {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return v
}
