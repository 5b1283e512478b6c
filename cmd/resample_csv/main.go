// Package main resamples a bar CSV export to a coarser cadence, e.g. the
// 2-minute feed down to 10-minute candles for eyeballing in a charting tool.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ToonNaToon/backtesting-right-side-of-v/services/engine"
)

func main() {
	in := flag.String("in", "", "Input bar CSV")
	out := flag.String("out", "", "Output CSV path")
	dst := flag.Duration("dst", 10*time.Minute, "Target cadence")
	tz := flag.String("tz", "America/Chicago", "Timezone for wall-clock timestamps")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *in == "" || *out == "" {
		logger.Fatal("-in and -out are required")
	}
	loc, err := time.LoadLocation(*tz)
	if err != nil {
		logger.Fatal("bad -tz", zap.Error(err))
	}

	bars, err := engine.LoadCSV(*in, loc)
	if err != nil {
		logger.Fatal("load csv", zap.Error(err))
	}
	resampled, err := engine.Resample(bars, *dst)
	if err != nil {
		logger.Fatal("resample", zap.Error(err))
	}

	f, err := os.Create(*out)
	if err != nil {
		logger.Fatal("create output", zap.Error(err))
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "open", "high", "low", "close", "volume", "vwap", "rsi", "relative_volume"}); err != nil {
		logger.Fatal("write header", zap.Error(err))
	}
	for _, b := range resampled {
		rec := []string{
			strconv.FormatInt(b.Timestamp.UnixMilli(), 10),
			num(b.Open), num(b.High), num(b.Low), num(b.Close), num(b.Volume),
			num(b.VWAP), num(b.RSI), num(b.RelativeVolume),
		}
		if err := w.Write(rec); err != nil {
			logger.Fatal("write row", zap.Error(err))
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		logger.Fatal("flush output", zap.Error(err))
	}

	logger.Info("resampled",
		zap.String("in", *in), zap.String("out", *out),
		zap.Int("bars_in", len(bars)), zap.Int("bars_out", len(resampled)),
		zap.Duration("cadence", *dst))
}

// num leaves undefined values as empty cells so a reload round-trips them.
func num(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
