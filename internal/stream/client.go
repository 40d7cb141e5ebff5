package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrReceiveTimeout signals that no frame arrived within the wait window.
// It is a scheduling signal, not a transport failure: the connection stays
// usable and the caller decides whether the deadline has been reached.
var ErrReceiveTimeout = errors.New("receive timed out")

// ErrClosed signals that the transport closed the stream.
var ErrClosed = errors.New("connection closed")

const (
	// DefaultReceiveTimeout bounds a single blocking receive.
	DefaultReceiveTimeout = time.Second
	// MinReceiveWait is the floor applied to deadline-bounded waits so the
	// receive loop never busy-spins as the deadline approaches.
	MinReceiveWait = 100 * time.Millisecond
)

// Config configures the stream client.
type Config struct {
	URL              string
	Headers          http.Header
	HandshakeTimeout time.Duration
	MaxMessageSize   int64
}

// Client owns one WebSocket connection to the /stream endpoint. Frames are
// drained by a background reader so that a timed-out wait does not poison
// the connection for subsequent receives.
type Client struct {
	url     string
	headers http.Header
	dialer  *websocket.Dialer
	maxSize int64

	mu          sync.Mutex
	conn        *websocket.Conn
	frames      chan frame
	done        chan struct{}
	connectTime time.Duration
}

type frame struct {
	data []byte
	err  error
}

// NewClient creates a stream client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 30 * time.Second
	}
	if cfg.MaxMessageSize == 0 {
		cfg.MaxMessageSize = 1024 * 1024
	}

	dialer := &websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}

	return &Client{
		url:     cfg.URL,
		headers: cfg.Headers,
		dialer:  dialer,
		maxSize: cfg.MaxMessageSize,
	}
}

// Connect establishes the WebSocket connection and starts the frame reader.
// The time spent in the handshake is retained for reporting.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return fmt.Errorf("already connected")
	}

	start := time.Now()
	conn, resp, err := c.dialer.DialContext(ctx, c.url, c.headers)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	c.connectTime = time.Since(start)

	conn.SetReadLimit(c.maxSize)
	c.conn = conn
	c.frames = make(chan frame, 16)
	c.done = make(chan struct{})
	go c.readLoop(conn, c.frames, c.done)

	return nil
}

// readLoop drains the connection into the frame channel. Sends race the
// done channel so the goroutine exits even when the consumer stopped
// receiving and the buffer is full.
func (c *Client) readLoop(conn *websocket.Conn, frames chan<- frame, done <-chan struct{}) {
	defer close(frames)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case frames <- frame{err: err}:
			case <-done:
			}
			return
		}
		select {
		case frames <- frame{data: data}:
		case <-done:
			return
		}
	}
}

// ConnectDuration returns the time the handshake took. Zero before Connect.
func (c *Client) ConnectDuration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectTime
}

// Receive waits up to timeout for one frame. The returned elapsed time is
// measured strictly around the blocking wait, excluding any parsing done by
// the caller. Timeout yields ErrReceiveTimeout; a closed transport yields an
// error wrapping ErrClosed; context cancellation yields ctx.Err().
func (c *Client) Receive(ctx context.Context, timeout time.Duration) ([]byte, time.Duration, error) {
	c.mu.Lock()
	frames := c.frames
	c.mu.Unlock()

	if frames == nil {
		return nil, 0, fmt.Errorf("not connected")
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	start := time.Now()
	select {
	case f, ok := <-frames:
		elapsed := time.Since(start)
		if !ok {
			return nil, elapsed, ErrClosed
		}
		if f.err != nil {
			return nil, elapsed, fmt.Errorf("%w: %v", ErrClosed, f.err)
		}
		return f.data, elapsed, nil
	case <-timer.C:
		return nil, time.Since(start), ErrReceiveTimeout
	case <-ctx.Done():
		return nil, time.Since(start), ctx.Err()
	}
}

// ReceiveDeadline waits for one frame, bounding the wait by
// min(DefaultReceiveTimeout, time remaining until deadline) clamped to
// MinReceiveWait. Callers distinguish an idle timeout from the deadline by
// checking the clock after ErrReceiveTimeout.
func (c *Client) ReceiveDeadline(ctx context.Context, deadline time.Time) ([]byte, time.Duration, error) {
	wait := time.Until(deadline)
	if wait > DefaultReceiveTimeout {
		wait = DefaultReceiveTimeout
	}
	if wait < MinReceiveWait {
		wait = MinReceiveWait
	}
	return c.Receive(ctx, wait)
}

// Close sends a close frame and tears down the connection. Safe to call
// multiple times and from a goroutine other than the receiver.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(5*time.Second),
	)

	closeErr := c.conn.Close()
	close(c.done)
	c.conn = nil
	c.frames = nil
	c.done = nil

	if err != nil {
		return err
	}
	return closeErr
}
