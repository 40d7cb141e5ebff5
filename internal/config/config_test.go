package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Duration != 10*time.Second {
		t.Errorf("Duration = %s, want 10s", cfg.Duration)
	}
	if cfg.Connections != 1 {
		t.Errorf("Connections = %d, want 1", cfg.Connections)
	}
	if cfg.ReceiveTimeout != time.Second {
		t.Errorf("ReceiveTimeout = %s, want 1s", cfg.ReceiveTimeout)
	}
	if cfg.ReconnectDelay != 5*time.Second {
		t.Errorf("ReconnectDelay = %s, want 5s", cfg.ReconnectDelay)
	}
	if cfg.Tracing.Protocol != "grpc" {
		t.Errorf("Tracing.Protocol = %q, want grpc", cfg.Tracing.Protocol)
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("Tracing.SampleRate = %g, want 1.0", cfg.Tracing.SampleRate)
	}
}

func TestValidateBench(t *testing.T) {
	valid := Default()
	valid.URL = "ws://localhost:8080/stream"
	if err := valid.ValidateBench(); err != nil {
		t.Errorf("ValidateBench() error = %v, want nil", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing url", func(c *Config) { c.URL = "" }, "url is required"},
		{"http scheme", func(c *Config) { c.URL = "http://localhost:8080/stream" }, "ws or wss scheme"},
		{"zero connections", func(c *Config) { c.Connections = 0 }, "connections must be at least 1"},
		{"zero duration", func(c *Config) { c.Duration = 0 }, "duration must be positive"},
		{"negative rate", func(c *Config) { c.ConnectRate = -1 }, "connect-rate cannot be negative"},
		{"bad sample rate", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "sample_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.URL = "ws://localhost:8080/stream"
			tt.mutate(cfg)

			err := cfg.ValidateBench()
			if err == nil {
				t.Fatal("ValidateBench() error = nil, want validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want substring %q", err, tt.wantMsg)
			}
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("error type = %T, want ValidationError", err)
			}
		})
	}
}

func TestValidateBenchCollectsAllIssues(t *testing.T) {
	cfg := Default()
	cfg.Connections = 0
	cfg.Duration = 0

	err := cfg.ValidateBench()
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want ValidationError", err)
	}
	if got := len(verr.Issues()); got != 3 {
		t.Errorf("Issues() count = %d, want 3 (url, connections, duration): %v", got, verr.Issues())
	}
}

func TestValidateWatch(t *testing.T) {
	cfg := Default()
	cfg.URL = "wss://time.example.com/stream"
	if err := cfg.ValidateWatch(); err != nil {
		t.Errorf("ValidateWatch() error = %v, want nil", err)
	}

	cfg.ReconnectDelay = 0
	if err := cfg.ValidateWatch(); err == nil {
		t.Error("ValidateWatch() error = nil with zero reconnect delay")
	}
}

func TestValidateCheck(t *testing.T) {
	cfg := Default()
	cfg.URL = "http://localhost:8080"
	if err := cfg.ValidateCheck(); err != nil {
		t.Errorf("ValidateCheck() error = %v, want nil", err)
	}

	cfg.URL = "ws://localhost:8080"
	err := cfg.ValidateCheck()
	if err == nil {
		t.Fatal("ValidateCheck() error = nil with ws scheme")
	}
	if !strings.Contains(err.Error(), "http or https") {
		t.Errorf("error = %q, want scheme complaint", err)
	}
}

func TestTracingEnabled(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	var tc TracingConfig
	if tc.Enabled() {
		t.Error("Enabled() = true with no endpoint")
	}

	tc.Endpoint = "localhost:4317"
	if !tc.Enabled() {
		t.Error("Enabled() = false with explicit endpoint")
	}

	tc.Endpoint = ""
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	if !tc.Enabled() {
		t.Error("Enabled() = false with OTEL_EXPORTER_OTLP_ENDPOINT set")
	}
}
