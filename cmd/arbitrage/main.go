// Package main is the entry point for the BSC triangular arbitrage scanner.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fd1az/bsc-triarb/internal/apm"
	"github.com/fd1az/bsc-triarb/internal/config"
	"github.com/fd1az/bsc-triarb/internal/logger"
	"github.com/fd1az/bsc-triarb/internal/metrics"
	"github.com/fd1az/bsc-triarb/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var (
	configPath string
	cliMode    bool
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "triarb",
		Short:         "Triangular arbitrage scanner for PancakeSwap and Biswap on BSC",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file")

	root.AddCommand(runCmd(), scanCmd(), endpointsCmd(), versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "triarb %s (commit: %s, built: %s)\n", version, commit, buildDate)
		},
	}
}

// application is the subset of the monolith main drives.
type application interface {
	monolith.Monolith
	RegisterModules(modules ...monolith.Module) error
	StartModules(ctx context.Context) error
	Close() error
}

// runtime bundles what every command sets up before touching the chain.
type runtime struct {
	cfg  *config.Config
	log  *logger.Logger
	mono application

	traceProvider apm.TraceProvider
	meterProvider metrics.MetricProvider
	shutdownFns   []func(context.Context) error
}

// bootstrap loads configuration, builds the logger and, when enabled, the
// telemetry providers. Logs are discarded in TUI mode.
func bootstrap(ctx context.Context, tuiMode bool) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode

	var w io.Writer = os.Stderr
	if tuiMode {
		w = io.Discard
	}
	log := logger.New(w, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)

	rt := &runtime{cfg: cfg, log: log}

	if cfg.Telemetry.Enabled {
		if err := rt.initTelemetry(ctx); err != nil {
			return nil, err
		}
	}

	rt.mono = monolith.New(cfg, log)
	return rt, nil
}

func (rt *runtime) initTelemetry(ctx context.Context) error {
	tc := rt.cfg.Telemetry
	serviceName := tc.ServiceName
	if serviceName == "" {
		serviceName = rt.cfg.App.Name
	}

	tp, err := apm.NewTraceProvider(ctx, apm.Config{
		ServiceName: serviceName,
		Provider:    apm.Provider(tc.Exporter),
		Endpoint:    tc.OTLPEndpoint,
		Headers:     tc.OTLPHeaders,
		SampleRate:  tc.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	rt.traceProvider = tp

	opts := []metrics.OptionFn{
		metrics.WithServiceName(serviceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
	}
	if strings.HasPrefix(tc.Exporter, "otlp") && tc.OTLPEndpoint != "" {
		opts = append(opts, metrics.WithProviderConfig(
			metrics.NewOtelCollectorConfig(tc.OTLPEndpoint, apm.ParseHeaders(tc.OTLPHeaders), strings.HasPrefix(tc.OTLPEndpoint, "http://"))))
	}
	mp, err := metrics.NewMetricProvider(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}
	rt.meterProvider = mp

	port := tc.PrometheusPort
	if port == 0 {
		port = 9090
	}
	srv := metrics.ServePrometheusMetrics(ctx, rt.log, metrics.WithPort(strconv.Itoa(port)))
	rt.shutdownFns = append(rt.shutdownFns, srv.Shutdown)

	rt.log.Info(ctx, "telemetry initialized",
		"trace_exporter", tc.Exporter,
		"prometheus_port", port)
	return nil
}

// close releases modules first, then telemetry.
func (rt *runtime) close(ctx context.Context) {
	if err := rt.mono.Close(); err != nil {
		rt.log.Error(ctx, "error closing modules", "error", err)
	}
	for i := len(rt.shutdownFns) - 1; i >= 0; i-- {
		if err := rt.shutdownFns[i](context.WithoutCancel(ctx)); err != nil {
			rt.log.Warn(ctx, "shutdown", "error", err)
		}
	}
	if rt.meterProvider != nil {
		_ = rt.meterProvider.Shutdown(context.WithoutCancel(ctx))
	}
	if rt.traceProvider != nil {
		_ = rt.traceProvider.Stop()
	}
}
