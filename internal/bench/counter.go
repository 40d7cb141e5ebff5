package bench

import "sync/atomic"

// LiveCounter publishes coarse run progress for the progress reporter.
// It carries no per-connection results; workers keep those in their own
// accumulators and the counter is only ever read for display.
type LiveCounter struct {
	connected int64
	failed    int64
	messages  int64
	streamErr int64
}

// Snapshot is a point-in-time view of a LiveCounter.
type Snapshot struct {
	Connected    int64
	ConnectFails int64
	Messages     int64
	StreamFails  int64
}

func (c *LiveCounter) Connected() {
	if c != nil {
		atomic.AddInt64(&c.connected, 1)
	}
}

func (c *LiveCounter) ConnectFailed() {
	if c != nil {
		atomic.AddInt64(&c.failed, 1)
	}
}

func (c *LiveCounter) Message() {
	if c != nil {
		atomic.AddInt64(&c.messages, 1)
	}
}

func (c *LiveCounter) StreamFailed() {
	if c != nil {
		atomic.AddInt64(&c.streamErr, 1)
	}
}

// Snapshot returns the current counter values.
func (c *LiveCounter) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	return Snapshot{
		Connected:    atomic.LoadInt64(&c.connected),
		ConnectFails: atomic.LoadInt64(&c.failed),
		Messages:     atomic.LoadInt64(&c.messages),
		StreamFails:  atomic.LoadInt64(&c.streamErr),
	}
}
