package config

import (
	"time"

	"github.com/spf13/cobra"
)

// RegisterBenchFlags registers the benchmark command's flags.
func RegisterBenchFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	registerCommonFlags(cmd)
	flags.DurationP("duration", "d", 10*time.Second, "How long to run the benchmark (e.g. 30s, 1m)")
	flags.IntP("connections", "c", 1, "Number of concurrent WebSocket connections")
	flags.Int("connect-rate", 0, "Connection dials per second (0 opens all at once)")
	flags.Bool("json-output", false, "Emit JSON formatted output")
	registerTracingFlags(cmd)
}

// RegisterWatchFlags registers the streaming monitor command's flags.
func RegisterWatchFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	registerCommonFlags(cmd)
	flags.DurationP("duration", "d", 0, "Overall monitoring duration (0 runs until interrupted)")
	flags.Bool("once", false, "Stop after the first session instead of reconnecting")
	flags.Duration("reconnect-delay", 5*time.Second, "Delay before reconnecting after connection loss")
}

// RegisterCheckFlags registers the smoke-check command's flags.
func RegisterCheckFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("url", "", "Base HTTP URL of the time API")
	flags.Duration("timeout", 5*time.Second, "Per-request timeout")
	flags.String("config", "", "Path to YAML configuration file")
}

func registerCommonFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("url", "", "WebSocket URL of the stream endpoint")
	flags.Duration("receive-timeout", time.Second, "Timeout for a single blocking receive")
	flags.Duration("handshake-timeout", 30*time.Second, "WebSocket handshake timeout")
	flags.String("config", "", "Path to YAML configuration file")
}

func registerTracingFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("trace-endpoint", "", "OTLP endpoint for trace export (empty disables tracing)")
	flags.String("trace-protocol", "grpc", "OTLP protocol: 'grpc' or 'http'")
	flags.String("trace-service-name", "tickbench", "Service name reported on trace spans")
	flags.Bool("trace-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("trace-sample-rate", 1.0, "Trace sampling ratio between 0.0 and 1.0")
	flags.Bool("trace-propagate", false, "Inject W3C trace context into the WebSocket handshake")
}
