package bench

import (
	"math/rand"
	"testing"
	"time"

	"github.com/tickwire/tickbench/internal/stream"
)

func durations(ms ...int) []time.Duration {
	out := make([]time.Duration, len(ms))
	for i, v := range ms {
		out[i] = time.Duration(v) * time.Millisecond
	}
	return out
}

func TestPercentileFloorIndex(t *testing.T) {
	sorted := durations(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)

	tests := []struct {
		fraction float64
		want     time.Duration
	}{
		{0.5, 6 * time.Millisecond},   // floor(0.5*10) = index 5
		{0.95, 10 * time.Millisecond}, // floor(0.95*10) = index 9
		{0.99, 10 * time.Millisecond}, // floor(0.99*10) = index 9
		{0.0, 1 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := Percentile(sorted, tt.fraction); got != tt.want {
			t.Errorf("Percentile(%g) = %v, want %v", tt.fraction, got, tt.want)
		}
	}
}

func TestPercentileClampsToLastIndex(t *testing.T) {
	sorted := durations(7)
	if got := Percentile(sorted, 0.99); got != 7*time.Millisecond {
		t.Errorf("Percentile(0.99) on single sample = %v, want 7ms", got)
	}
	if got := Percentile(nil, 0.5); got != 0 {
		t.Errorf("Percentile on empty input = %v, want 0", got)
	}
}

func TestLatencyStats(t *testing.T) {
	report := &Report{Latencies: durations(5, 1, 3, 2, 4)}

	stats, ok := report.LatencyStats()
	if !ok {
		t.Fatal("LatencyStats() ok = false, want true")
	}
	if stats.Min != 1*time.Millisecond {
		t.Errorf("Min = %v, want 1ms", stats.Min)
	}
	if stats.Max != 5*time.Millisecond {
		t.Errorf("Max = %v, want 5ms", stats.Max)
	}
	if stats.Mean != 3*time.Millisecond {
		t.Errorf("Mean = %v, want 3ms", stats.Mean)
	}
	if stats.Median != 3*time.Millisecond {
		t.Errorf("Median = %v, want 3ms (floor(0.5*5) = index 2)", stats.Median)
	}
}

func TestLatencyStatsOrderIndependent(t *testing.T) {
	base := make([]time.Duration, 200)
	for i := range base {
		base[i] = time.Duration(i+1) * time.Millisecond
	}

	sortedReport := &Report{Latencies: append([]time.Duration(nil), base...)}
	want, ok := sortedReport.LatencyStats()
	if !ok {
		t.Fatal("LatencyStats() ok = false")
	}

	rnd := rand.New(rand.NewSource(1))
	for trial := 0; trial < 5; trial++ {
		shuffled := append([]time.Duration(nil), base...)
		rnd.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		got, ok := (&Report{Latencies: shuffled}).LatencyStats()
		if !ok {
			t.Fatal("LatencyStats() ok = false")
		}
		if got != want {
			t.Errorf("trial %d: shuffled stats = %+v, want %+v", trial, got, want)
		}
	}
}

func TestLatencyStatsDoesNotMutateInput(t *testing.T) {
	report := &Report{Latencies: durations(3, 1, 2)}
	if _, ok := report.LatencyStats(); !ok {
		t.Fatal("LatencyStats() ok = false")
	}
	if report.Latencies[0] != 3*time.Millisecond {
		t.Error("LatencyStats() must sort a copy, not the report's samples")
	}
}

func TestLatencyStatsEmpty(t *testing.T) {
	report := &Report{}
	if _, ok := report.LatencyStats(); ok {
		t.Error("LatencyStats() ok = true with no samples, want omission")
	}
}

func TestConnectStats(t *testing.T) {
	report := &Report{ConnectTimes: durations(10, 20, 30)}
	stats, ok := report.ConnectStats()
	if !ok {
		t.Fatal("ConnectStats() ok = false, want true")
	}
	if stats.Min != 10*time.Millisecond || stats.Mean != 20*time.Millisecond || stats.Max != 30*time.Millisecond {
		t.Errorf("ConnectStats() = %+v", stats)
	}

	if _, ok := (&Report{}).ConnectStats(); ok {
		t.Error("ConnectStats() ok = true with no successful connections")
	}
}

func TestMessageRates(t *testing.T) {
	report := &Report{
		Duration:  2 * time.Second,
		Connected: 3,
		Counts:    stream.Counts{Welcome: 3, Tick: 9},
	}

	if got := report.MessagesPerConnection(); got != 4 {
		t.Errorf("MessagesPerConnection() = %g, want 4", got)
	}
	if got := report.MessageRate(); got != 6 {
		t.Errorf("MessageRate() = %g, want 6", got)
	}

	empty := &Report{}
	if got := empty.MessagesPerConnection(); got != 0 {
		t.Errorf("MessagesPerConnection() with no connections = %g, want 0", got)
	}
	if got := empty.MessageRate(); got != 0 {
		t.Errorf("MessageRate() with no duration = %g, want 0", got)
	}
}
