package engine

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func closedTrade(typ EntryType, pnl float64, held int) Trade {
	return Trade{Type: typ, Status: StatusClosed, PnlPct: pnl, BarsHeld: held}
}

func TestMetricsEmptyIsNeutral(t *testing.T) {
	m := AggregateMetrics(nil)
	if m.TotalTrades != 0 || m.WinRate != 0 || m.TotalPnl != 0 {
		t.Fatalf("empty metrics = %+v, want zero-valued", m)
	}
	if m.TradesByType == nil {
		t.Fatal("TradesByType should be non-nil even with no trades")
	}
}

func TestMetricsMixedTrades(t *testing.T) {
	trades := []Trade{
		closedTrade(EntryVTurn, 2.0, 4),
		closedTrade(EntryVTurn, -1.0, 2),
		closedTrade(EntryHigherLow, 4.0, 6),
		closedTrade(EntryHigherLow, -3.0, 8),
	}
	m := AggregateMetrics(trades)

	if m.TotalTrades != 4 {
		t.Fatalf("total = %d, want 4", m.TotalTrades)
	}
	if m.WinRate != 50 {
		t.Fatalf("win rate = %v, want 50", m.WinRate)
	}
	if m.AvgWin != 3 || m.AvgLoss != -2 {
		t.Fatalf("avg win/loss = %v/%v, want 3/-2", m.AvgWin, m.AvgLoss)
	}
	if m.ProfitFactor != 6.0/4.0 {
		t.Fatalf("profit factor = %v, want 1.5", m.ProfitFactor)
	}
	if m.TotalPnl != 2 {
		t.Fatalf("total pnl = %v, want 2", m.TotalPnl)
	}
	// worst single trade, not a cumulative equity drawdown
	if m.MaxDrawdown != -3 || m.LargestLoss != -3 {
		t.Fatalf("drawdown = %v, largest loss = %v, want -3", m.MaxDrawdown, m.LargestLoss)
	}
	if m.RecoveryFactor != 2 {
		t.Fatalf("recovery factor = %v, want 2", m.RecoveryFactor)
	}
	if m.LargestWin != 4 {
		t.Fatalf("largest win = %v, want 4", m.LargestWin)
	}
	if m.AvgBarsHeld != 5 {
		t.Fatalf("avg bars held = %v, want 5", m.AvgBarsHeld)
	}
	if m.TradesByType[EntryVTurn] != 2 || m.TradesByType[EntryHigherLow] != 2 {
		t.Fatalf("trades by type = %v", m.TradesByType)
	}
}

func TestMetricsNoLossesGivesInfiniteRatios(t *testing.T) {
	m := AggregateMetrics([]Trade{closedTrade(EntryVTurn, 1.5, 3)})
	if !math.IsInf(m.ProfitFactor, 1) {
		t.Fatalf("profit factor = %v, want +Inf", m.ProfitFactor)
	}
	if !math.IsInf(m.RecoveryFactor, 1) {
		t.Fatalf("recovery factor = %v, want +Inf", m.RecoveryFactor)
	}
}

func TestMetricsSkipsOpenTrades(t *testing.T) {
	trades := []Trade{
		closedTrade(EntryVTurn, 2.0, 4),
		{Type: EntryVTurn, Status: StatusOpen, PnlPct: -50},
	}
	if m := AggregateMetrics(trades); m.TotalTrades != 1 || m.TotalPnl != 2 {
		t.Fatalf("metrics = %+v, want the open trade ignored", m)
	}
}

func TestMetricsMarshalInfAsNull(t *testing.T) {
	m := AggregateMetrics([]Trade{closedTrade(EntryVTurn, 1.5, 3)})
	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `"profit_factor":null`) {
		t.Fatalf("profit_factor not null in %s", s)
	}
	if !strings.Contains(s, `"recovery_factor":null`) {
		t.Fatalf("recovery_factor not null in %s", s)
	}
}
