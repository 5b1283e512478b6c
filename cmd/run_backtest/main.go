// Package main runs the right-side-of-V backtest suite from the command
// line, against either the ClickHouse bar store or a local CSV export, and
// prints the combined and per-symbol summaries.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	ch "github.com/ToonNaToon/backtesting-right-side-of-v/services/clickhouse"
	"github.com/ToonNaToon/backtesting-right-side-of-v/services/config"
	"github.com/ToonNaToon/backtesting-right-side-of-v/services/engine"
)

// csvSource serves a single symbol's bars from a local CSV file.
type csvSource struct {
	symbol string
	bars   []engine.Bar
}

func (s *csvSource) Symbols(context.Context) ([]string, error) { return []string{s.symbol}, nil }

func (s *csvSource) Bars(_ context.Context, symbol string, from, to time.Time) ([]engine.Bar, error) {
	if symbol != s.symbol {
		return nil, nil
	}
	var out []engine.Bar
	for _, b := range s.bars {
		if !from.IsZero() && b.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && b.Timestamp.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func main() {
	_ = godotenv.Load()

	csvPath := flag.String("csv", "", "Path to local bar CSV; if set, skips ClickHouse")
	symbolsFlag := flag.String("symbols", "", "Comma-separated symbols (default: all in store, or the CSV symbol)")
	symbolFlag := flag.String("symbol", "CSV", "Symbol name for -csv mode")
	from := flag.String("from", "", "Start date (YYYY-MM-DD), open-ended if empty")
	to := flag.String("to", "", "End date (YYYY-MM-DD), open-ended if empty")
	rth := flag.Bool("rth", false, "Restrict bars to the 08:30-15:00 regular session")
	rvol := flag.Float64("rvol", 1.5, "Capitulation relative-volume threshold")
	vwapDist := flag.Float64("vwap-dist", 0.5, "Capitulation vwap distance threshold (%)")
	atrDrop := flag.Float64("atr-drop", 3.0, "Capitulation drop threshold in ATRs")
	rsiMax := flag.Float64("rsi", 35, "Capitulation rsi oversold threshold")
	verbose := flag.Bool("verbose", false, "Print per-trade lines and the event log")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("resolve timezone", zap.Error(err))
	}

	params := engine.DefaultParams()
	params.RvolThreshold = *rvol
	params.VWAPDistanceThreshold = *vwapDist
	params.ATRDropMult = *atrDrop
	params.RSIOversold = *rsiMax

	var src engine.BarSource
	if *csvPath != "" {
		bars, err := engine.LoadCSV(*csvPath, loc)
		if err != nil {
			logger.Fatal("load csv", zap.String("path", *csvPath), zap.Error(err))
		}
		logger.Info("csv loaded", zap.String("path", *csvPath), zap.Int("bars", len(bars)))
		src = &csvSource{symbol: strings.ToUpper(*symbolFlag), bars: bars}
	} else {
		store, err := ch.Open(ch.Options{
			Addr:     cfg.ClickHouse.Addr,
			Database: cfg.ClickHouse.Database,
			Table:    cfg.ClickHouse.Table,
			Username: cfg.ClickHouse.User,
			Password: cfg.ClickHouse.Password,
		}, loc)
		if err != nil {
			logger.Fatal("open bar store", zap.Error(err))
		}
		defer store.Close()
		src = store
	}

	bt := engine.NewBacktester(src, params, logger)
	bt.Workers = cfg.Workers
	if *rth {
		session := engine.RegularSession()
		bt.Session = &session
	}

	var symbols []string
	if *symbolsFlag != "" {
		for _, s := range strings.Split(*symbolsFlag, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, strings.ToUpper(s))
			}
		}
	}

	fromT, err := parseDate(*from, loc)
	if err != nil {
		logger.Fatal("parse -from", zap.Error(err))
	}
	toT, err := parseDate(*to, loc)
	if err != nil {
		logger.Fatal("parse -to", zap.Error(err))
	}

	suite, err := bt.RunSuite(context.Background(), symbols, fromT, toT)
	if err != nil {
		logger.Fatal("suite run failed", zap.Error(err))
	}

	printSuite(suite, *verbose)
}

func parseDate(v string, loc *time.Location) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", v, loc)
}

func printSuite(suite *engine.SuiteResult, verbose bool) {
	sep := strings.Repeat("=", 60)
	fmt.Println(sep)
	fmt.Printf("COMBINED PERFORMANCE (%d total trades) run=%s\n", suite.TotalTrades, suite.RunID)
	fmt.Println(sep)
	printMetrics(suite.CombinedMetrics)
	fmt.Println(sep)

	symbols := make([]string, 0, len(suite.Results))
	for s := range suite.Results {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	for _, s := range symbols {
		res := suite.Results[s]
		if res.Error != "" {
			fmt.Printf("%s | SKIPPED: %s\n", s, res.Error)
			continue
		}
		fmt.Printf("%s (%d trades) | Win Rate: %.1f%% | P&L: %.2f%% | PF: %s | caps=%d pivots=%d triggers=%d\n",
			s, len(res.Trades), res.Metrics.WinRate, res.Metrics.TotalPnl,
			ratio(res.Metrics.ProfitFactor), res.CapitulationPoints, res.PivotLows, res.EntryTriggers)

		if verbose {
			for _, t := range res.Trades {
				fmt.Printf("  %s %s entry %.2f @ %s -> exit %.2f @ %s (%s) pnl %.2f%% held %d bars\n",
					t.Symbol, t.Type,
					t.EntryPrice, t.EntryTime.Format("2006-01-02 15:04"),
					t.ExitPrice, t.ExitTime.Format("2006-01-02 15:04"),
					t.ExitReason, t.PnlPct, t.BarsHeld)
			}
			for _, e := range res.Events.Events {
				fmt.Printf("  event %-13s %s %v\n", e.Type, e.Ts.Format("2006-01-02 15:04"), e.Details)
			}
		}
	}
	fmt.Println(sep)
}

func printMetrics(m engine.Metrics) {
	fmt.Printf("Win Rate: %.1f%%\n", m.WinRate)
	fmt.Printf("Profit Factor: %s\n", ratio(m.ProfitFactor))
	fmt.Printf("Total P&L: %.2f%%\n", m.TotalPnl)
	fmt.Printf("Max Drawdown: %.2f%%\n", m.MaxDrawdown)
	fmt.Printf("Recovery Factor: %s\n", ratio(m.RecoveryFactor))
	fmt.Printf("Avg Win: %.2f%%  Avg Loss: %.2f%%\n", m.AvgWin, m.AvgLoss)
	fmt.Printf("Avg Bars Held: %.1f\n", m.AvgBarsHeld)
	fmt.Printf("Largest Win: %.2f%%  Largest Loss: %.2f%%\n", m.LargestWin, m.LargestLoss)
	fmt.Printf("Trade Types: %v\n", m.TradesByType)
}

func ratio(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}
