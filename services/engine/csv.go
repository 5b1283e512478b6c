package engine

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LoadCSV reads bars from a CSV export. The header row maps columns by name
// (pandas-style aliases like open_price are accepted), prices go through
// decimal for tolerant parsing, and the reader transparently strips UTF-8 or
// UTF-16 byte-order marks. Rows are sorted by timestamp; duplicate
// timestamps keep the last row.
//
// timestamp accepts epoch milliseconds, epoch seconds, or
// "2006-01-02 15:04:05" wall time; wall times and epoch conversions use loc,
// since the EOD rules are exchange-local.
func LoadCSV(path string, loc *time.Location) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, loc)
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(rd io.Reader, loc *time.Location) ([]Bar, error) {
	if loc == nil {
		loc = time.Local
	}
	decoded := transform.NewReader(bufio.NewReader(rd), unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	r := csv.NewReader(decoded)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	bars := make([]Bar, 0, 1_000)
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}

		ts, err := parseTimestamp(field(rec, cols.timestamp), loc)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		b := Bar{
			Timestamp:      ts,
			Open:           parsePrice(field(rec, cols.open)),
			High:           parsePrice(field(rec, cols.high)),
			Low:            parsePrice(field(rec, cols.low)),
			Close:          parsePrice(field(rec, cols.close)),
			Volume:         parsePrice(field(rec, cols.volume)),
			RelativeVolume: parsePrice(field(rec, cols.rvol)),
			RSI:            parsePrice(field(rec, cols.rsi)),
			VWAP:           parsePrice(field(rec, cols.vwap)),
		}
		bars = append(bars, b)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	uniq := bars[:0]
	for _, b := range bars {
		if len(uniq) > 0 && b.Timestamp.Equal(uniq[len(uniq)-1].Timestamp) {
			uniq[len(uniq)-1] = b
			continue
		}
		uniq = append(uniq, b)
	}
	return uniq, nil
}

type columnIndex struct {
	timestamp, open, high, low, close, volume, rvol, rsi, vwap int
}

var columnAliases = map[string][]string{
	"timestamp":       {"timestamp", "time", "open_time_ms", "open_time"},
	"open":            {"open", "open_price"},
	"high":            {"high", "high_price"},
	"low":             {"low", "low_price"},
	"close":           {"close", "close_price"},
	"volume":          {"volume", "vol"},
	"relative_volume": {"relative_volume", "rvol", "rel_volume"},
	"rsi":             {"rsi"},
	"vwap":            {"vwap"},
}

func mapColumns(header []string) (columnIndex, error) {
	find := func(key string) int {
		for _, alias := range columnAliases[key] {
			for i, h := range header {
				if strings.EqualFold(strings.TrimSpace(h), alias) {
					return i
				}
			}
		}
		return -1
	}
	ci := columnIndex{
		timestamp: find("timestamp"),
		open:      find("open"),
		high:      find("high"),
		low:       find("low"),
		close:     find("close"),
		volume:    find("volume"),
		rvol:      find("relative_volume"),
		rsi:       find("rsi"),
		vwap:      find("vwap"),
	}
	for _, required := range [...]struct {
		name string
		idx  int
	}{{"timestamp", ci.timestamp}, {"open", ci.open}, {"high", ci.high}, {"low", ci.low}, {"close", ci.close}} {
		if required.idx < 0 {
			return ci, fmt.Errorf("csv header: missing %s column", required.name)
		}
	}
	return ci, nil
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

// parsePrice returns NaN for empty or unparseable cells; validation decides
// later whether that is warmup or a missing column.
func parsePrice(s string) float64 {
	if s == "" {
		return undefined()
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return undefined()
	}
	return d.InexactFloat64()
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 { // epoch milliseconds
			return time.UnixMilli(n).In(loc), nil
		}
		return time.Unix(n, 0).In(loc), nil
	}
	for _, layout := range [...]string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
