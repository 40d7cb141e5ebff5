// Package timeapi provides thin client wrappers around the HTTP endpoints
// of the NTP Time JSON API. These are stateless request/response helpers
// with no retry or concurrency logic of their own.
package timeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const userAgent = "tickbench/1.0"

// TimeResponse is the envelope returned by GET /time.
type TimeResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    int64  `json:"data"` // epoch milliseconds
}

// PerformanceStats is the payload of GET /performance.
type PerformanceStats struct {
	TotalRequests   int64   `json:"total_requests"`
	SuccessRequests int64   `json:"success_requests"`
	CacheHitRate    float64 `json:"cache_hit_rate"`
	AvgLatencyUS    float64 `json:"avg_latency_us"`
}

// Client talks to the HTTP surface of the time API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Time fetches the current server time envelope.
func (c *Client) Time(ctx context.Context) (*TimeResponse, error) {
	var out TimeResponse
	if err := c.getJSON(ctx, "/time", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TimeMS returns the current server time as epoch milliseconds.
func (c *Client) TimeMS(ctx context.Context) (int64, error) {
	resp, err := c.Time(ctx)
	if err != nil {
		return 0, err
	}
	if resp.Status != http.StatusOK {
		return 0, fmt.Errorf("time endpoint returned status %d: %s", resp.Status, resp.Message)
	}
	return resp.Data, nil
}

// Healthz probes the liveness endpoint. A nil error means alive.
func (c *Client) Healthz(ctx context.Context) error {
	return c.probe(ctx, "/healthz")
}

// Readyz probes the readiness endpoint. A nil error means ready.
func (c *Client) Readyz(ctx context.Context) error {
	return c.probe(ctx, "/readyz")
}

// Performance fetches the server's performance counters.
func (c *Client) Performance(ctx context.Context) (*PerformanceStats, error) {
	var out PerformanceStats
	if err := c.getJSON(ctx, "/performance", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Metrics returns the Prometheus exposition text unmodified.
func (c *Client) Metrics(ctx context.Context) (string, error) {
	resp, err := c.get(ctx, "/metrics")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metrics endpoint returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read metrics body: %w", err)
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return c.http.Do(req)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("GET %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) probe(ctx context.Context, path string) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", path, resp.StatusCode)
	}
	return nil
}
