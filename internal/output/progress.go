package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/tickwire/tickbench/internal/bench"
)

// ProgressReporter displays a live one-line progress update while the
// benchmark runs, fed by the orchestrator's LiveCounter.
type ProgressReporter struct {
	counter  *bench.LiveCounter
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	start    time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(counter *bench.LiveCounter, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		counter:  counter,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
		start:    time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			snap := p.counter.Snapshot()
			elapsed := time.Since(p.start).Truncate(time.Second)
			rate := 0.0
			if secs := time.Since(p.start).Seconds(); secs > 0 {
				rate = float64(snap.Messages) / secs
			}
			line := fmt.Sprintf("\rConnections: %d | Messages: %d | Rate: %.1f msg/s | Elapsed: %s",
				snap.Connected, snap.Messages, rate, elapsed)
			if fails := snap.ConnectFails + snap.StreamFails; fails > 0 {
				line += fmt.Sprintf(" | Errors: %d", fails)
			}
			fmt.Fprint(p.writer, line)
		case <-p.done:
			return
		}
	}
}
