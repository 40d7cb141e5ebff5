package bench

import (
	"sort"
	"time"
)

// LatencyStats summarizes the pooled receive latencies of a run.
type LatencyStats struct {
	Min    time.Duration
	Mean   time.Duration
	Median time.Duration
	P95    time.Duration
	P99    time.Duration
	Max    time.Duration
}

// ConnectStats summarizes handshake durations of successful connections.
type ConnectStats struct {
	Min  time.Duration
	Mean time.Duration
	Max  time.Duration
}

// Percentile returns the value at the floor(fraction*count) position of an
// ascending-sorted sequence. The caller must pass sorted input.
func Percentile(sorted []time.Duration, fraction float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)) * fraction)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

// LatencyStats computes the latency block. The second return is false when
// the run produced no samples, in which case the block is omitted from the
// report rather than rendered as zeros.
func (r *Report) LatencyStats() (LatencyStats, bool) {
	if len(r.Latencies) == 0 {
		return LatencyStats{}, false
	}

	sorted := make([]time.Duration, len(r.Latencies))
	copy(sorted, r.Latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}

	return LatencyStats{
		Min:    sorted[0],
		Mean:   sum / time.Duration(len(sorted)),
		Median: Percentile(sorted, 0.5),
		P95:    Percentile(sorted, 0.95),
		P99:    Percentile(sorted, 0.99),
		Max:    sorted[len(sorted)-1],
	}, true
}

// ConnectStats computes handshake statistics over successful connections
// only. The second return is false when no connection succeeded.
func (r *Report) ConnectStats() (ConnectStats, bool) {
	if len(r.ConnectTimes) == 0 {
		return ConnectStats{}, false
	}

	stats := ConnectStats{Min: r.ConnectTimes[0], Max: r.ConnectTimes[0]}
	var sum time.Duration
	for _, d := range r.ConnectTimes {
		if d < stats.Min {
			stats.Min = d
		}
		if d > stats.Max {
			stats.Max = d
		}
		sum += d
	}
	stats.Mean = sum / time.Duration(len(r.ConnectTimes))
	return stats, true
}

// MessagesPerConnection returns the mean message count over successful
// connections, zero when none succeeded.
func (r *Report) MessagesPerConnection() float64 {
	if r.Connected == 0 {
		return 0
	}
	return float64(r.Counts.Total()) / float64(r.Connected)
}

// MessageRate returns messages per second over the configured duration.
func (r *Report) MessageRate() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Counts.Total()) / r.Duration.Seconds()
}
