package bench

import (
	"context"
	"errors"
	"time"

	"github.com/tickwire/tickbench/internal/stream"
)

// ConnectionResult holds everything one worker gathered. A worker that
// fails mid-stream still returns the samples it collected before failing.
type ConnectionResult struct {
	// Connected reports whether the handshake succeeded. ConnectTime is
	// only meaningful when it did.
	Connected   bool
	ConnectTime time.Duration

	// Samples are per-frame receive latencies in arrival order.
	Samples []time.Duration
	Counts  stream.Counts

	// Err is the terminal failure, nil for a clean deadline exit.
	Err error
}

// TotalMessages returns the number of frames the worker received,
// malformed frames included.
func (r ConnectionResult) TotalMessages() int64 {
	return r.Counts.Total()
}

// runConnection owns one connection for the duration of the benchmark:
// dial, receive until the deadline, classify and time every frame. The
// connection is released on every exit path.
func runConnection(ctx context.Context, opt Options, counter *LiveCounter) ConnectionResult {
	var result ConnectionResult

	client := stream.NewClient(stream.Config{
		URL:              opt.URL,
		Headers:          opt.Headers,
		HandshakeTimeout: opt.HandshakeTimeout,
	})

	if err := client.Connect(ctx); err != nil {
		result.Err = err
		counter.ConnectFailed()
		return result
	}
	defer client.Close()

	result.Connected = true
	result.ConnectTime = client.ConnectDuration()
	counter.Connected()

	deadline := time.Now().Add(opt.Duration)

	// The deadline check sits at the loop top so a stream of back-to-back
	// frames cannot keep the worker alive past its duration.
	for time.Now().Before(deadline) {
		data, elapsed, err := client.ReceiveDeadline(ctx, deadline)
		switch {
		case err == nil:
			msg := stream.Classify(data)
			result.Counts.Add(msg)
			if _, bad := msg.(stream.Malformed); !bad {
				result.Samples = append(result.Samples, elapsed)
			}
			counter.Message()
		case errors.Is(err, stream.ErrReceiveTimeout):
			// Spurious wake before the deadline: keep waiting.
		default:
			// Mid-stream failure: keep partial results, record the reason.
			result.Err = err
			counter.StreamFailed()
			return result
		}
	}
	return result
}
