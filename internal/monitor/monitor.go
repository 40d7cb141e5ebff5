// Package monitor implements a long-lived consumer of the time stream with
// automatic reconnection. Unlike the benchmark it keeps a single connection,
// reacts to each message as it arrives, and survives server restarts by
// backing off and redialing.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/tickwire/tickbench/internal/stream"
)

// State is the connection state of the monitor.
type State int

const (
	Disconnected State = iota
	Connected
)

// Options configures a Monitor.
type Options struct {
	URL string

	// ReconnectDelay is the fixed backoff between reconnect attempts in
	// continuous mode.
	ReconnectDelay time.Duration

	// ReceiveTimeout bounds each blocking receive so duration checks and
	// cancellation stay responsive.
	ReceiveTimeout time.Duration

	// Duration bounds the whole session; zero runs until cancelled.
	Duration time.Duration

	// Continuous reconnects after connection loss instead of stopping.
	Continuous bool

	HandshakeTimeout time.Duration
	Headers          http.Header

	// Out receives the per-message log lines. Defaults to io.Discard.
	Out io.Writer
}

// Monitor consumes the time stream and tracks a running view of it. All
// state is owned by the Run loop; accessors are meant for inspection after
// Run returns.
type Monitor struct {
	opt      Options
	state    State
	messages int64
	lastSeq  int64
	lastTick time.Time
	gaps     *hdrhistogram.Histogram
}

// New creates a Monitor with defaults applied.
func New(opt Options) *Monitor {
	if opt.ReconnectDelay <= 0 {
		opt.ReconnectDelay = 5 * time.Second
	}
	if opt.ReceiveTimeout <= 0 {
		opt.ReceiveTimeout = stream.DefaultReceiveTimeout
	}
	if opt.Out == nil {
		opt.Out = io.Discard
	}
	return &Monitor{
		opt: opt,
		// Inter-tick gaps from 1µs up to 60s with 3 significant figures.
		gaps: hdrhistogram.New(1, 60_000_000, 3),
	}
}

// Messages returns the lifetime count of well-formed frames. It persists
// across reconnects.
func (m *Monitor) Messages() int64 { return m.messages }

// LastSequence returns the sequence number of the most recent tick.
func (m *Monitor) LastSequence() int64 { return m.lastSeq }

// State returns the current connection state.
func (m *Monitor) State() State { return m.state }

// GapStats returns the median and p99 inter-tick arrival gap. ok is false
// until at least one gap has been observed.
func (m *Monitor) GapStats() (p50, p99 time.Duration, ok bool) {
	if m.gaps.TotalCount() == 0 {
		return 0, 0, false
	}
	p50 = time.Duration(m.gaps.ValueAtQuantile(50)) * time.Microsecond
	p99 = time.Duration(m.gaps.ValueAtQuantile(99)) * time.Microsecond
	return p50, p99, true
}

// Run drives the reconnect state machine until the duration bound expires,
// the context is cancelled, or (in single-run mode) the connection ends.
// The connection is closed on every exit path.
func (m *Monitor) Run(ctx context.Context) error {
	var deadline time.Time
	if m.opt.Duration > 0 {
		deadline = time.Now().Add(m.opt.Duration)
	}
	defer m.printSummary()

	for {
		if ctx.Err() != nil {
			return nil
		}

		client := stream.NewClient(stream.Config{
			URL:              m.opt.URL,
			Headers:          m.opt.Headers,
			HandshakeTimeout: m.opt.HandshakeTimeout,
		})

		if err := client.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(m.opt.Out, "Connection failed: %v\n", err)
			if !m.opt.Continuous {
				return err
			}
			if !m.backoff(ctx) {
				return nil
			}
			continue
		}

		m.state = Connected
		fmt.Fprintf(m.opt.Out, "Connected to %s\n", m.opt.URL)

		err := m.session(ctx, client, deadline)
		client.Close()
		m.state = Disconnected

		switch {
		case err == nil:
			// Duration bound reached.
			return nil
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, stream.ErrClosed):
			fmt.Fprintf(m.opt.Out, "Connection closed by server: %v\n", err)
			if !m.opt.Continuous {
				return nil
			}
			if !m.backoff(ctx) {
				return nil
			}
		default:
			return err
		}
	}
}

// session receives until the deadline passes, the transport closes, or the
// context is cancelled. Each blocking receive is bounded by ReceiveTimeout
// so the deadline and cancellation are observed within one interval.
func (m *Monitor) session(ctx context.Context, client *stream.Client, deadline time.Time) error {
	for {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return nil
		}

		data, _, err := client.Receive(ctx, m.opt.ReceiveTimeout)
		switch {
		case err == nil:
			m.handle(data)
		case errors.Is(err, stream.ErrReceiveTimeout):
			// Idle interval; loop re-checks the deadline.
		default:
			return err
		}
	}
}

func (m *Monitor) handle(data []byte) {
	switch msg := stream.Classify(data).(type) {
	case stream.Welcome:
		m.messages++
		fmt.Fprintf(m.opt.Out, "%s\n", msg.Text)
		fmt.Fprintf(m.opt.Out, "  Update interval: %dms\n", msg.UpdateIntervalMS)
		fmt.Fprintf(m.opt.Out, "  Max duration: %ds\n", msg.MaxDurationSecs)
	case stream.Tick:
		m.messages++
		m.lastSeq = msg.Sequence
		now := time.Now()
		if !m.lastTick.IsZero() {
			m.recordGap(now.Sub(m.lastTick))
		}
		m.lastTick = now
		fmt.Fprintf(m.opt.Out, "[%04d] %s %s (age: %.1fs)\n",
			msg.Sequence, staleIndicator(msg.IsStale), tickTime(msg), msg.StalenessSecs)
	case stream.ServerError:
		m.messages++
		fmt.Fprintf(m.opt.Out, "Server error: %s\n", msg.Text)
	case stream.Unknown:
		m.messages++
		fmt.Fprintf(m.opt.Out, "Unknown message type: %q\n", msg.RawType)
	case stream.Malformed:
		fmt.Fprintf(m.opt.Out, "Invalid JSON frame: %s\n", msg.Raw)
	}
}

func (m *Monitor) recordGap(gap time.Duration) {
	us := gap.Microseconds()
	if us < m.gaps.LowestTrackableValue() {
		us = m.gaps.LowestTrackableValue()
	}
	if us > m.gaps.HighestTrackableValue() {
		us = m.gaps.HighestTrackableValue()
	}
	_ = m.gaps.RecordValue(us)
}

// backoff waits the reconnect delay, returning false if the context was
// cancelled while waiting.
func (m *Monitor) backoff(ctx context.Context) bool {
	fmt.Fprintf(m.opt.Out, "Reconnecting in %s...\n", m.opt.ReconnectDelay)
	timer := time.NewTimer(m.opt.ReconnectDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (m *Monitor) printSummary() {
	fmt.Fprintf(m.opt.Out, "\nSession Statistics:\n")
	fmt.Fprintf(m.opt.Out, "  Messages received: %d\n", m.messages)
	if m.lastSeq > 0 {
		fmt.Fprintf(m.opt.Out, "  Last sequence:     %d\n", m.lastSeq)
	}
	if p50, p99, ok := m.GapStats(); ok {
		fmt.Fprintf(m.opt.Out, "  Tick gap p50:      %s\n", p50.Truncate(time.Millisecond))
		fmt.Fprintf(m.opt.Out, "  Tick gap p99:      %s\n", p99.Truncate(time.Millisecond))
	}
}

func staleIndicator(stale bool) string {
	if stale {
		return "STALE"
	}
	return "OK"
}

func tickTime(t stream.Tick) string {
	if t.EpochMS != nil {
		return time.UnixMilli(*t.EpochMS).UTC().Format("2006-01-02 15:04:05.000")
	}
	if t.ISO8601 != "" {
		return t.ISO8601
	}
	return "no timestamp"
}
