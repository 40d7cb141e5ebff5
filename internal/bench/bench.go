package bench

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/tickwire/tickbench/internal/stream"
)

// Options configures a benchmark run.
type Options struct {
	URL         string
	Duration    time.Duration
	Connections int

	// ConnectRate paces connection establishment in dials per second.
	// Zero opens every connection at once.
	ConnectRate int

	HandshakeTimeout time.Duration
	Headers          http.Header

	// Counter, when set, receives live progress updates.
	Counter *LiveCounter

	// Tracer, when set, emits one span per run and per connection.
	Tracer trace.Tracer
}

func (o *Options) normalize() {
	if o.Connections < 1 {
		o.Connections = 1
	}
	if o.Duration <= 0 {
		o.Duration = 10 * time.Second
	}
}

// Report is the merge of every worker's ConnectionResult. It is built once
// after all workers have finished and consumed by the reporter.
type Report struct {
	RunID    string
	URL      string
	Duration time.Duration

	Requested     int
	Connected     int
	ConnectErrors int
	StreamErrors  int

	ConnectTimes []time.Duration
	Latencies    []time.Duration
	Counts       stream.Counts
}

// Run opens Options.Connections concurrent workers against the stream
// endpoint, lets each run to its own deadline, and merges their results.
// The only error conditions are startup failures; individual connection
// failures are tallied in the report, never fatal.
func Run(ctx context.Context, opt Options) (*Report, error) {
	target := strings.TrimSpace(opt.URL)
	if target == "" {
		return nil, errors.New("benchmark URL is required")
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid benchmark URL: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return nil, fmt.Errorf("benchmark URL must use ws or wss scheme, got %q", parsed.Scheme)
	}
	opt.normalize()
	opt.URL = target

	runID := ulid.Make().String()

	var runSpan trace.Span
	if opt.Tracer != nil {
		ctx, runSpan = opt.Tracer.Start(ctx, "tickbench.run",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("tickbench.run_id", runID),
				attribute.String("tickbench.url", target),
				attribute.Int("tickbench.connections", opt.Connections),
				attribute.String("tickbench.duration", opt.Duration.String()),
			),
		)
		defer runSpan.End()
	}

	var limiter *rate.Limiter
	if opt.ConnectRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opt.ConnectRate), 1)
	}

	results := make(chan ConnectionResult, opt.Connections)
	var wg sync.WaitGroup
	wg.Add(opt.Connections)
	for i := 0; i < opt.Connections; i++ {
		go func(id int) {
			defer wg.Done()
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					opt.Counter.ConnectFailed()
					results <- ConnectionResult{Err: err}
					return
				}
			}
			results <- runWithSpan(ctx, opt, id)
		}(i)
	}
	wg.Wait()
	close(results)

	report := &Report{
		RunID:    runID,
		URL:      target,
		Duration: opt.Duration,
	}
	for result := range results {
		report.merge(result)
	}

	if runSpan != nil {
		runSpan.SetAttributes(
			attribute.Int("tickbench.connected", report.Connected),
			attribute.Int("tickbench.connect_errors", report.ConnectErrors),
			attribute.Int64("tickbench.messages", report.Counts.Total()),
		)
		runSpan.SetStatus(codes.Ok, "")
	}

	return report, nil
}

func runWithSpan(ctx context.Context, opt Options, id int) ConnectionResult {
	var span trace.Span
	if opt.Tracer != nil {
		ctx, span = opt.Tracer.Start(ctx, "tickbench.connection",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.Int("tickbench.connection_id", id)),
		)
	}

	result := runConnection(ctx, opt, opt.Counter)

	if span != nil {
		span.SetAttributes(
			attribute.Int("tickbench.messages", len(result.Samples)),
			attribute.Int64("tickbench.malformed", result.Counts.Malformed),
		)
		if result.Err != nil {
			span.RecordError(result.Err)
			span.SetStatus(codes.Error, result.Err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
	return result
}

// merge folds one worker's result into the report. Every sample from every
// worker lands here exactly once, partial results from failed workers
// included.
func (r *Report) merge(result ConnectionResult) {
	r.Requested++
	if result.Connected {
		r.Connected++
		r.ConnectTimes = append(r.ConnectTimes, result.ConnectTime)
		if result.Err != nil {
			r.StreamErrors++
		}
	} else {
		r.ConnectErrors++
	}
	r.Latencies = append(r.Latencies, result.Samples...)
	r.Counts.Merge(result.Counts)
}
