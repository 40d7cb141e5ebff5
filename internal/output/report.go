package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/tickwire/tickbench/internal/bench"
	"github.com/tickwire/tickbench/internal/stream"
)

const banner = "=================================================="

// PrintHeader writes the run banner before the benchmark starts.
func PrintHeader(w io.Writer, url string, duration time.Duration, connections int) {
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "WebSocket Benchmark - NTP Time JSON API")
	fmt.Fprintln(w, banner)
	fmt.Fprintf(w, "URL:              %s\n", url)
	fmt.Fprintf(w, "Duration:         %s\n", duration)
	fmt.Fprintf(w, "Connections:      %d\n", connections)
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "Running benchmark...")
	fmt.Fprintln(w)
}

// PrintReport writes the human-readable results block. Sections with no
// data are omitted rather than rendered as zeros.
func PrintReport(w io.Writer, r *bench.Report) {
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "Results")
	fmt.Fprintln(w, banner)
	fmt.Fprintf(w, "Run ID:            %s\n", r.RunID)

	if conn, ok := r.ConnectStats(); ok {
		fmt.Fprintln(w, "\nConnection Times:")
		fmt.Fprintf(w, "  Successful:      %d\n", r.Connected)
		fmt.Fprintf(w, "  Min:             %.6fs\n", conn.Min.Seconds())
		fmt.Fprintf(w, "  Avg:             %.6fs\n", conn.Mean.Seconds())
		fmt.Fprintf(w, "  Max:             %.6fs\n", conn.Max.Seconds())
	}
	if r.ConnectErrors > 0 {
		fmt.Fprintf(w, "  Errors:          %d\n", r.ConnectErrors)
	}
	if r.StreamErrors > 0 {
		fmt.Fprintf(w, "  Dropped streams: %d\n", r.StreamErrors)
	}

	if total := r.Counts.Total(); total > 0 {
		fmt.Fprintln(w, "\nMessages Received:")
		fmt.Fprintf(w, "  Total:           %d\n", total)
		fmt.Fprintf(w, "  Per connection:  %.1f\n", r.MessagesPerConnection())
		fmt.Fprintf(w, "  Rate:            %.1f msg/s\n", r.MessageRate())
	}

	fmt.Fprintln(w, "\nMessage Types:")
	fmt.Fprintf(w, "  Welcome:         %d\n", r.Counts.Welcome)
	fmt.Fprintf(w, "  Tick:            %d\n", r.Counts.Tick)
	fmt.Fprintf(w, "  Error:           %d\n", r.Counts.Error)
	if r.Counts.Unknown > 0 {
		fmt.Fprintf(w, "  Unknown:         %d\n", r.Counts.Unknown)
	}

	if lat, ok := r.LatencyStats(); ok {
		fmt.Fprintln(w, "\nMessage Latency (ms):")
		fmt.Fprintf(w, "  Min:             %.3f\n", ms(lat.Min))
		fmt.Fprintf(w, "  Avg:             %.3f\n", ms(lat.Mean))
		fmt.Fprintf(w, "  Median:          %.3f\n", ms(lat.Median))
		fmt.Fprintf(w, "  P95:             %.3f\n", ms(lat.P95))
		fmt.Fprintf(w, "  P99:             %.3f\n", ms(lat.P99))
		fmt.Fprintf(w, "  Max:             %.3f\n", ms(lat.Max))
	}

	if r.Counts.Malformed > 0 {
		fmt.Fprintf(w, "\nJSON Parse Errors: %d\n", r.Counts.Malformed)
	}

	fmt.Fprintln(w, banner)
}

// Summary is the JSON shape of a benchmark report. The connect and latency
// blocks are pointers so runs without data marshal without them.
type Summary struct {
	RunID         string        `json:"run_id"`
	URL           string        `json:"url"`
	DurationSecs  float64       `json:"duration_secs"`
	Connections   int           `json:"connections"`
	Connected     int           `json:"connected"`
	ConnectErrors int           `json:"connect_errors"`
	StreamErrors  int           `json:"stream_errors,omitempty"`
	Messages      stream.Counts `json:"messages"`
	TotalMessages int64         `json:"total_messages"`
	PerConnection float64       `json:"messages_per_connection"`
	RatePerSec    float64       `json:"messages_per_sec"`
	Connect       *ConnectBlock `json:"connect_ms,omitempty"`
	Latency       *LatencyBlock `json:"latency_ms,omitempty"`
}

type ConnectBlock struct {
	Min float64 `json:"min"`
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
}

type LatencyBlock struct {
	Min    float64 `json:"min"`
	Avg    float64 `json:"avg"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	Max    float64 `json:"max"`
}

// NewSummary converts a report into its JSON-friendly form.
func NewSummary(r *bench.Report) Summary {
	s := Summary{
		RunID:         r.RunID,
		URL:           r.URL,
		DurationSecs:  r.Duration.Seconds(),
		Connections:   r.Requested,
		Connected:     r.Connected,
		ConnectErrors: r.ConnectErrors,
		StreamErrors:  r.StreamErrors,
		Messages:      r.Counts,
		TotalMessages: r.Counts.Total(),
		PerConnection: r.MessagesPerConnection(),
		RatePerSec:    r.MessageRate(),
	}
	if conn, ok := r.ConnectStats(); ok {
		s.Connect = &ConnectBlock{
			Min: ms(conn.Min),
			Avg: ms(conn.Mean),
			Max: ms(conn.Max),
		}
	}
	if lat, ok := r.LatencyStats(); ok {
		s.Latency = &LatencyBlock{
			Min:    ms(lat.Min),
			Avg:    ms(lat.Mean),
			Median: ms(lat.Median),
			P95:    ms(lat.P95),
			P99:    ms(lat.P99),
			Max:    ms(lat.Max),
		}
	}
	return s
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, r *bench.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewSummary(r))
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
