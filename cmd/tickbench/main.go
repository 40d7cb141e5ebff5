package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/tickwire/tickbench/internal/bench"
	"github.com/tickwire/tickbench/internal/config"
	"github.com/tickwire/tickbench/internal/monitor"
	"github.com/tickwire/tickbench/internal/output"
	"github.com/tickwire/tickbench/internal/timeapi"
	"github.com/tickwire/tickbench/internal/tracing"
)

const progressInterval = time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tickbench",
		Short:         "Client toolkit and load generator for the NTP Time JSON API",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(os.Stdout)
	root.AddCommand(newBenchCmd(), newWatchCmd(), newCheckCmd())
	return root
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a concurrent WebSocket streaming benchmark",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.ValidateBench(); err != nil {
				return err
			}
			return runBench(cmd.Context(), cfg)
		},
	}
	config.RegisterBenchFlags(cmd)
	return cmd
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Continuously monitor the time stream with auto-reconnect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.ValidateWatch(); err != nil {
				return err
			}
			return runWatch(cmd.Context(), cfg)
		},
	}
	config.RegisterWatchFlags(cmd)
	return cmd
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run smoke probes against the HTTP endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.ValidateCheck(); err != nil {
				return err
			}
			return runCheck(cmd.Context(), cfg)
		},
	}
	config.RegisterCheckFlags(cmd)
	return cmd
}

func runBench(parent context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	headers := http.Header{}
	if provider.ShouldPropagate() {
		tracing.InjectHTTPHeaders(ctx, headers)
	}

	var tracer trace.Tracer
	if provider.Active() {
		tracer = provider.Tracer()
	}

	counter := &bench.LiveCounter{}
	opts := bench.Options{
		URL:              cfg.URL,
		Duration:         cfg.Duration,
		Connections:      cfg.Connections,
		ConnectRate:      cfg.ConnectRate,
		HandshakeTimeout: cfg.HandshakeTimeout,
		Headers:          headers,
		Counter:          counter,
		Tracer:           tracer,
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput {
		output.PrintHeader(os.Stdout, cfg.URL, cfg.Duration, cfg.Connections)
		progress = output.NewProgressReporter(counter, progressInterval, os.Stdout)
		progress.Start()
	}

	report, err := bench.Run(ctx, opts)
	if progress != nil {
		progress.Stop()
		fmt.Fprintln(os.Stdout)
	}
	if err != nil {
		return err
	}

	if cfg.JSONOutput {
		return output.PrintJSONReport(os.Stdout, report)
	}
	output.PrintReport(os.Stdout, report)
	return nil
}

func runWatch(parent context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mon := monitor.New(monitor.Options{
		URL:              cfg.URL,
		ReconnectDelay:   cfg.ReconnectDelay,
		ReceiveTimeout:   cfg.ReceiveTimeout,
		Duration:         cfg.Duration,
		Continuous:       !cfg.Once,
		HandshakeTimeout: cfg.HandshakeTimeout,
		Out:              os.Stdout,
	})

	fmt.Fprintf(os.Stdout, "Watching %s (press Ctrl+C to stop)\n", cfg.URL)
	return mon.Run(ctx)
}

func runCheck(parent context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := timeapi.NewClient(cfg.URL, cfg.Timeout)
	failures := 0

	probe := func(name string, fn func(context.Context) error) {
		if err := fn(ctx); err != nil {
			failures++
			fmt.Fprintf(os.Stdout, "%-8s FAIL  %v\n", name, err)
			return
		}
		fmt.Fprintf(os.Stdout, "%-8s OK\n", name)
	}

	probe("healthz", client.Healthz)
	probe("readyz", client.Readyz)

	if ms, err := client.TimeMS(ctx); err != nil {
		failures++
		fmt.Fprintf(os.Stdout, "%-8s FAIL  %v\n", "time", err)
	} else {
		fmt.Fprintf(os.Stdout, "%-8s OK    %s\n", "time",
			time.UnixMilli(ms).UTC().Format(time.RFC3339Nano))
	}

	if failures > 0 {
		return fmt.Errorf("%d of 3 probes failed", failures)
	}
	return nil
}
