// Local stand-in for the NTP Time JSON API, used for manual testing of the
// tickbench commands. Serves the HTTP endpoints and a /stream WebSocket
// that emits a welcome frame followed by paced ticks.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type server struct {
	interval time.Duration
	maxSecs  int64
	requests int64
}

func main() {
	port := flag.Int("port", 8080, "Listening port")
	interval := flag.Duration("interval", 500*time.Millisecond, "Tick emission interval")
	maxDuration := flag.Duration("max-duration", 5*time.Minute, "Max stream session duration")
	flag.Parse()

	s := &server{interval: *interval, maxSecs: int64(maxDuration.Seconds())}

	mux := http.NewServeMux()
	mux.HandleFunc("/time", s.handleTime)
	mux.HandleFunc("/healthz", handleOK)
	mux.HandleFunc("/readyz", handleOK)
	mux.HandleFunc("/performance", s.handlePerformance)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/stream", s.handleStream)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("test server listening on %s (tick interval %s)", addr, *interval)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func handleOK(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *server) handleTime(w http.ResponseWriter, _ *http.Request) {
	atomic.AddInt64(&s.requests, 1)
	writeJSON(w, map[string]any{
		"status":  200,
		"message": "ok",
		"data":    time.Now().UnixMilli(),
	})
}

func (s *server) handlePerformance(w http.ResponseWriter, _ *http.Request) {
	total := atomic.AddInt64(&s.requests, 1)
	writeJSON(w, map[string]any{
		"total_requests":   total,
		"success_requests": total,
		"cache_hit_rate":   1.0,
		"avg_latency_us":   42.0,
	})
}

func (s *server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	total := atomic.LoadInt64(&s.requests)
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP testserver_requests_total Total HTTP requests.\n")
	fmt.Fprintf(w, "# TYPE testserver_requests_total counter\n")
	fmt.Fprintf(w, "testserver_requests_total %d\n", total)
}

func (s *server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	welcome := map[string]any{
		"type":               "welcome",
		"message":            "Connected to NTP Time Stream",
		"update_interval_ms": s.interval.Milliseconds(),
		"max_duration_secs":  s.maxSecs,
	}
	if err := conn.WriteJSON(welcome); err != nil {
		return
	}

	// Pace tick emission with a limiter so a slow client cannot make the
	// server burst to catch up.
	limiter := rate.NewLimiter(rate.Every(s.interval), 1)
	deadline := time.Now().Add(time.Duration(s.maxSecs) * time.Second)
	ctx, cancel := context.WithDeadline(r.Context(), deadline)
	defer cancel()

	var seq int64
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		seq++
		now := time.Now()
		tick := map[string]any{
			"type":           "tick",
			"epoch_ms":       now.UnixMilli(),
			"iso8601":        now.UTC().Format(time.RFC3339Nano),
			"sequence":       seq,
			"is_stale":       false,
			"staleness_secs": 0.0,
		}
		if err := conn.WriteJSON(tick); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
