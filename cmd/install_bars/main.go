// Package main is a one-shot installer: local bar CSV exports (one file per
// symbol) into the ClickHouse store, with schema bootstrap and deduplicated
// batched inserts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	ch "github.com/ToonNaToon/backtesting-right-side-of-v/services/clickhouse"
	"github.com/ToonNaToon/backtesting-right-side-of-v/services/config"
	"github.com/ToonNaToon/backtesting-right-side-of-v/services/engine"
)

func main() {
	_ = godotenv.Load()

	glob := flag.String("csv", "./data/*.csv", "Glob of bar CSV files; the file stem is the symbol")
	cadence := flag.Duration("cadence", 2*time.Minute, "Expected bar spacing, for gap reporting")
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

	paths, err := filepath.Glob(*glob)
	if err != nil {
		logger.Fatal("bad -csv glob", zap.Error(err))
	}
	if len(paths) == 0 {
		logger.Fatal("no csv files match", zap.String("glob", *glob))
	}

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

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("ensure schema", zap.Error(err))
	}

	installed := 0
	for _, path := range paths {
		symbol := strings.ToUpper(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		bars, err := engine.LoadCSV(path, loc)
		if err != nil {
			// Non-fatal: continue other files
			logger.Warn("csv load failed", zap.String("path", path), zap.Error(err))
			continue
		}
		if err := engine.ValidateBars(bars); err != nil {
			logger.Warn("csv rejected", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		if gaps := engine.DetectGaps(bars, *cadence); len(gaps) > 0 {
			logger.Info("gaps detected (normal for session data)",
				zap.String("symbol", symbol), zap.Int("gaps", len(gaps)))
		}
		if err := store.InsertBars(ctx, symbol, bars); err != nil {
			logger.Warn("insert failed", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		logger.Info("installed", zap.String("symbol", symbol), zap.Int("bars", len(bars)))
		installed++
	}

	fmt.Printf("==> done. %d/%d files installed into %s.%s\n",
		installed, len(paths), cfg.ClickHouse.Database, cfg.ClickHouse.Table)
}
