package engine

import (
	"math"
	"testing"
	"time"
)

func TestResampleAggregatesBuckets(t *testing.T) {
	bars := flatSeries(4, 100) // 2m cadence
	bars[0].Open = 100
	bars[1].High = 103
	bars[1].Close = 102
	bars[1].Volume = 2000
	bars[2].Open = 102
	bars[3].Low = 98
	bars[3].Close = 99

	out, err := Resample(bars, 4*time.Minute)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d bars, want 2", len(out))
	}

	first := out[0]
	if !first.Timestamp.Equal(barAt(0)) {
		t.Fatalf("bucket time = %s, want %s", first.Timestamp, barAt(0))
	}
	if first.Open != 100 || first.High != 103 || first.Close != 102 {
		t.Fatalf("first bucket = %+v", first)
	}
	if first.Volume != 3000 {
		t.Fatalf("volume = %v, want summed 3000", first.Volume)
	}

	second := out[1]
	if second.Open != 102 || second.Low != 98 || second.Close != 99 {
		t.Fatalf("second bucket = %+v", second)
	}
}

func TestResampleVWAPVolumeWeighted(t *testing.T) {
	bars := flatSeries(2, 100)
	bars[0].VWAP = 100
	bars[0].Volume = 1000
	bars[1].VWAP = 102
	bars[1].Volume = 3000

	out, err := Resample(bars, 4*time.Minute)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	want := (100*1000 + 102*3000) / 4000.0
	if math.Abs(out[0].VWAP-want) > 1e-12 {
		t.Fatalf("vwap = %v, want %v", out[0].VWAP, want)
	}
}

func TestResampleUndefinedVWAPStaysUndefined(t *testing.T) {
	bars := flatSeries(2, 100)
	bars[0].VWAP = math.NaN()
	bars[1].VWAP = math.NaN()

	out, err := Resample(bars, 4*time.Minute)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if !math.IsNaN(out[0].VWAP) {
		t.Fatalf("vwap = %v, want NaN", out[0].VWAP)
	}
}

func TestResampleRejectsBadStep(t *testing.T) {
	if _, err := Resample(flatSeries(2, 100), 0); err == nil {
		t.Fatal("zero step should fail")
	}
}
