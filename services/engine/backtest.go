package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BarSource supplies ordered historical bars per symbol. Implementations
// must return bars sorted by timestamp carrying the vwap/rsi/relative_volume
// fields the upstream pipeline computes; the engine validates but never
// fills them.
type BarSource interface {
	Symbols(ctx context.Context) ([]string, error)
	Bars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error)
}

// SymbolResult bundles one symbol's full run: enriched bars, per-stage
// flags, simulated trades, and aggregated metrics. A failed symbol carries
// Error and zero counts; it is a well-formed empty result, not a fault of
// the batch.
type SymbolResult struct {
	Symbol             string  `json:"symbol"`
	DataPoints         int     `json:"data_points"`
	CapitulationPoints int     `json:"capitulation_points"`
	PivotLows          int     `json:"pivot_lows"`
	EntryTriggers      int     `json:"entry_triggers"`
	Trades             []Trade `json:"trades"`
	Metrics            Metrics `json:"metrics"`
	Error              string  `json:"error,omitempty"`

	Bars         []IndicatorBar `json:"-"`
	Capitulation []bool         `json:"-"`
	Pivots       []bool         `json:"-"`
	Triggers     []EntryTrigger `json:"-"`
	Events       *EventLog      `json:"-"`
}

// SuiteResult is a multi-symbol run: per-symbol results plus combined
// metrics over the union of all successful symbols' trades.
type SuiteResult struct {
	RunID           string                   `json:"run_id"`
	Results         map[string]*SymbolResult `json:"results"`
	CombinedMetrics Metrics                  `json:"combined_metrics"`
	TotalTrades     int                      `json:"total_trades"`
}

// Backtester sequences the detection and simulation stages per symbol and
// fans independent symbols out across workers. Per-symbol processing is a
// single ordered pass; nothing is shared between symbols except the result
// collector.
type Backtester struct {
	Source  BarSource
	Params  Params
	Workers int      // parallel symbols; <= 0 means GOMAXPROCS
	Session *Session // optional regular-hours filter, off by default
	Logger  *zap.Logger
}

func NewBacktester(src BarSource, params Params, logger *zap.Logger) *Backtester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backtester{Source: src, Params: params, Logger: logger}
}

// RunSymbol loads one symbol's bars and runs the full pipeline. Empty or
// missing data yields an empty result and a nil error; a load or validation
// fault returns a *StageError.
func (b *Backtester) RunSymbol(ctx context.Context, symbol string, from, to time.Time) (*SymbolResult, error) {
	bars, err := b.Source.Bars(ctx, symbol, from, to)
	if err != nil {
		return nil, &StageError{Stage: "load", Symbol: symbol, Err: err}
	}
	if b.Session != nil {
		bars = FilterSession(bars, *b.Session)
	}
	if len(bars) == 0 {
		return emptyResult(symbol), nil
	}
	if err := ValidateBars(bars); err != nil {
		return nil, &StageError{Stage: "validate", Symbol: symbol, Err: err}
	}

	ind := ComputeIndicators(bars, b.Params)
	capFlags := DetectCapitulation(ind, b.Params)
	pivots := LocatePivotLows(ind, capFlags, b.Params)
	triggers := FindEntryTriggers(ind, capFlags, b.Params)
	trades := SimulateTrades(ind, triggers, b.Params)
	for i := range trades {
		trades[i].Symbol = symbol
	}

	res := &SymbolResult{
		Symbol:       symbol,
		DataPoints:   len(bars),
		Trades:       trades,
		Metrics:      AggregateMetrics(trades),
		Bars:         ind,
		Capitulation: capFlags,
		Pivots:       pivots,
		Triggers:     triggers,
		Events:       buildEvents(symbol, ind, capFlags, pivots, triggers, trades),
	}
	for _, f := range capFlags {
		if f {
			res.CapitulationPoints++
		}
	}
	for _, f := range pivots {
		if f {
			res.PivotLows++
		}
	}
	res.EntryTriggers = len(triggers)

	b.Logger.Info("symbol backtest complete",
		zap.String("symbol", symbol),
		zap.Int("bars", res.DataPoints),
		zap.Int("capitulation_points", res.CapitulationPoints),
		zap.Int("entry_triggers", res.EntryTriggers),
		zap.Int("trades", len(trades)),
	)
	return res, nil
}

// RunSuite runs every symbol independently on a bounded worker pool and
// merges the results. A failed symbol is logged and reported as an empty
// result; it never aborts the batch and its trades are excluded from the
// combined metrics.
func (b *Backtester) RunSuite(ctx context.Context, symbols []string, from, to time.Time) (*SuiteResult, error) {
	if symbols == nil {
		var err error
		symbols, err = b.Source.Symbols(ctx)
		if err != nil {
			return nil, fmt.Errorf("list symbols: %w", err)
		}
	}

	workers := b.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(symbols) {
		workers = len(symbols)
	}

	jobs := make(chan string, len(symbols))
	out := make(chan *SymbolResult, len(symbols))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				res, err := b.RunSymbol(ctx, symbol, from, to)
				if err != nil {
					b.Logger.Warn("symbol skipped", zap.String("symbol", symbol), zap.Error(err))
					res = emptyResult(symbol)
					res.Error = err.Error()
				}
				out <- res
			}
		}()
	}
	for _, symbol := range symbols {
		jobs <- symbol
	}
	close(jobs)
	wg.Wait()
	close(out)

	suite := &SuiteResult{
		RunID:   uuid.New().String(),
		Results: make(map[string]*SymbolResult, len(symbols)),
	}
	for res := range out {
		suite.Results[res.Symbol] = res
	}

	// Combine in the caller's symbol order for deterministic output
	var combined []Trade
	for _, symbol := range symbols {
		if res, ok := suite.Results[symbol]; ok && res.Error == "" {
			combined = append(combined, res.Trades...)
		}
	}
	suite.CombinedMetrics = AggregateMetrics(combined)
	suite.TotalTrades = len(combined)

	b.Logger.Info("suite complete",
		zap.String("run_id", suite.RunID),
		zap.Int("symbols", len(symbols)),
		zap.Int("total_trades", suite.TotalTrades),
	)
	return suite, nil
}

func emptyResult(symbol string) *SymbolResult {
	return &SymbolResult{
		Symbol:  symbol,
		Trades:  []Trade{},
		Metrics: AggregateMetrics(nil),
		Events:  &EventLog{},
	}
}

func buildEvents(symbol string, bars []IndicatorBar, capFlags, pivots []bool, triggers []EntryTrigger, trades []Trade) *EventLog {
	log := &EventLog{}
	for i, b := range bars {
		if capFlags[i] {
			log.Append(Event{Ts: b.Timestamp, Type: EventCapitulation, Symbol: symbol})
		}
		if pivots[i] {
			log.Append(Event{Ts: b.Timestamp, Type: EventPivotLow, Symbol: symbol})
		}
	}
	for _, t := range triggers {
		log.Append(Event{
			Ts:     bars[t.BarIndex].Timestamp,
			Type:   EventEntryTrigger,
			Symbol: symbol,
			Details: map[string]string{
				"entry_type": string(t.Type),
				"stop":       fmt.Sprintf("%.4f", t.StopLossPrice),
			},
		})
	}
	for _, t := range trades {
		log.Append(Event{Ts: t.EntryTime, Type: EventTradeOpen, Symbol: symbol,
			Details: map[string]string{"entry_type": string(t.Type), "price": fmt.Sprintf("%.4f", t.EntryPrice)}})
		log.Append(Event{Ts: t.ExitTime, Type: EventTradeExit, Symbol: symbol,
			Details: map[string]string{"reason": string(t.ExitReason), "pnl_pct": fmt.Sprintf("%.2f", t.PnlPct)}})
	}
	return log
}
