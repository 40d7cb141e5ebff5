package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config holds every tunable shared by the tickbench commands. Fields are
// populated from defaults, then an optional YAML file, then CLI flags.
type Config struct {
	URL              string        `mapstructure:"url"`
	Duration         time.Duration `mapstructure:"duration"`
	Connections      int           `mapstructure:"connections"`
	ConnectRate      int           `mapstructure:"connect_rate"`
	ReceiveTimeout   time.Duration `mapstructure:"receive_timeout"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	ReconnectDelay   time.Duration `mapstructure:"reconnect_delay"`
	Once             bool          `mapstructure:"once"`
	JSONOutput       bool          `mapstructure:"json_output"`
	Timeout          time.Duration `mapstructure:"timeout"`
	ConfigFile       string        `mapstructure:"-"`
	Tracing          TracingConfig `mapstructure:"tracing"`
}

// TracingConfig controls optional OTLP trace export.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	ServiceName string  `mapstructure:"service_name"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Propagate   bool    `mapstructure:"propagate"`
}

// Enabled reports whether an export endpoint was configured, either
// directly or through the standard OTEL environment variable.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate reports whether W3C trace headers are injected into the
// WebSocket handshake.
func (t TracingConfig) ShouldPropagate() bool {
	return t.Propagate
}

// Default returns a Config with the built-in defaults applied.
func Default() *Config {
	return &Config{
		URL:              "",
		Duration:         10 * time.Second,
		Connections:      1,
		ReceiveTimeout:   time.Second,
		HandshakeTimeout: 30 * time.Second,
		ReconnectDelay:   5 * time.Second,
		Timeout:          5 * time.Second,
		Tracing: TracingConfig{
			Protocol:    "grpc",
			ServiceName: "tickbench",
			SampleRate:  1.0,
		},
	}
}

// ValidationError collects every issue found during validation.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// ValidateBench checks the fields the benchmark command depends on.
func (c Config) ValidateBench() error {
	issues := c.validateStreamURL()
	if c.Connections < 1 {
		issues = append(issues, "connections must be at least 1")
	}
	if c.Duration <= 0 {
		issues = append(issues, "duration must be positive")
	}
	if c.ConnectRate < 0 {
		issues = append(issues, "connect-rate cannot be negative")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		issues = append(issues, "tracing sample_rate must be between 0.0 and 1.0")
	}
	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// ValidateWatch checks the fields the monitor command depends on.
func (c Config) ValidateWatch() error {
	issues := c.validateStreamURL()
	if c.ReconnectDelay <= 0 {
		issues = append(issues, "reconnect-delay must be positive")
	}
	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// ValidateCheck checks the fields the smoke-check command depends on.
func (c Config) ValidateCheck() error {
	var issues []string
	target := strings.TrimSpace(c.URL)
	if target == "" {
		issues = append(issues, "url is required")
	} else if parsed, err := url.Parse(target); err != nil {
		issues = append(issues, fmt.Sprintf("invalid url: %v", err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		issues = append(issues, fmt.Sprintf("url must use http or https scheme, got %q", parsed.Scheme))
	}
	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func (c Config) validateStreamURL() []string {
	var issues []string
	target := strings.TrimSpace(c.URL)
	if target == "" {
		issues = append(issues, "url is required")
		return issues
	}
	parsed, err := url.Parse(target)
	if err != nil {
		issues = append(issues, fmt.Sprintf("invalid url: %v", err))
		return issues
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		issues = append(issues, fmt.Sprintf("url must use ws or wss scheme, got %q", parsed.Scheme))
	}
	return issues
}
