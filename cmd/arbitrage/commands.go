package main

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fd1az/bsc-triarb/business/arbitrage"
	arbDI "github.com/fd1az/bsc-triarb/business/arbitrage/di"
	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	"github.com/fd1az/bsc-triarb/business/arbitrage/infra/httpapi"
	"github.com/fd1az/bsc-triarb/business/marketdata"
	"github.com/fd1az/bsc-triarb/business/network"
	networkDI "github.com/fd1az/bsc-triarb/business/network/di"
	"github.com/fd1az/bsc-triarb/business/rpcpool"
	poolDI "github.com/fd1az/bsc-triarb/business/rpcpool/di"
	poolDomain "github.com/fd1az/bsc-triarb/business/rpcpool/domain"
	"github.com/fd1az/bsc-triarb/internal/health"
	"github.com/fd1az/bsc-triarb/pkg/ui"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan continuously on the priority and standard cadences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), !cliMode)
		},
	}
	cmd.Flags().BoolVar(&cliMode, "cli", false, "log to stderr and print cycles instead of the TUI")
	return cmd
}

func run(ctx context.Context, tuiMode bool) error {
	rt, err := bootstrap(ctx, tuiMode)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	// Leaving the TUI stops the background loops before modules close.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := rt.log
	log.Info(ctx, "starting triangular arbitrage scanner",
		"version", version,
		"environment", rt.cfg.App.Environment,
		"triples", len(rt.cfg.Arbitrage.Triples))

	arb := &arbitrage.Module{}
	// Order matters: each module resolves services of the ones before it.
	if err := rt.mono.RegisterModules(&rpcpool.Module{}, &network.Module{}, &marketdata.Module{}, arb); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	startFunc := func() error {
		if err := rt.mono.StartModules(ctx); err != nil {
			return fmt.Errorf("failed to start modules: %w", err)
		}
		stop := serveAPI(ctx, rt)
		rt.shutdownFns = append(rt.shutdownFns, stop)
		arb.StartScanning(ctx, rt.mono)
		return nil
	}

	if tuiMode {
		return runTUI(ctx, startFunc)
	}

	if err := startFunc(); err != nil {
		return err
	}
	log.Info(ctx, "all modules started, scanning")
	<-ctx.Done()
	log.Info(ctx, "shutting down")
	return nil
}

// serveAPI starts the health server with the control routes mounted.
func serveAPI(ctx context.Context, rt *runtime) func(context.Context) error {
	sr := rt.mono.Services()
	pool := poolDI.GetPool(sr)
	monitor := networkDI.GetMonitor(sr)

	srv := health.NewServer(rt.cfg.API.Port, version, rt.log)
	srv.RegisterCheck("rpc", func(context.Context) (bool, string) {
		healthy := pool.HealthyCount()
		return healthy > 0, fmt.Sprintf("%d/%d endpoints healthy", healthy, len(pool.Snapshot()))
	})
	srv.RegisterCheck("network", func(context.Context) (bool, string) {
		h := monitor.Health()
		if !h.Healthy {
			return false, h.LastError
		}
		return true, "gas " + h.GasPriceGwei().StringFixed(2) + " gwei"
	})
	httpapi.New(arbDI.GetCoordinator(sr), pool, monitor, rt.log).Register(srv.Router())

	srv.Start(ctx)
	rt.log.Info(ctx, "api server started", "port", rt.cfg.API.Port)
	return srv.Stop
}

func runTUI(ctx context.Context, startFunc func() error) error {
	// Channel to receive the welcome-complete signal
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
		ui.Send(ui.StartupMsg{Step: "rpc", Status: "connecting"})
		if err := startFunc(); err != nil {
			ui.Send(ui.StartupMsg{Step: "rpc", Status: "failed"})
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		ui.Send(ui.StartupMsg{Step: "tokens", Status: "done"})

		<-ctx.Done()
		p.Quit()
		errCh <- nil
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

func scanCmd() *cobra.Command {
	var tierName string
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a single scan cycle and print the ranked opportunities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tier, err := domain.ParseTier(tierName)
			if err != nil {
				return err
			}
			return scanOnce(cmd.Context(), tier)
		},
	}
	cmd.Flags().StringVar(&tierName, "tier", "all", "triples to scan: all, priority or standard")
	return cmd
}

func scanOnce(ctx context.Context, tier domain.Tier) error {
	rt, err := bootstrap(ctx, false)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	if err := rt.mono.RegisterModules(&rpcpool.Module{}, &network.Module{}, &marketdata.Module{}, &arbitrage.Module{}); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := rt.mono.StartModules(ctx); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	// The console reporter prints the cycle as it is published.
	_, err = arbDI.GetCoordinator(rt.mono.Services()).RunCycle(ctx, tier)
	return err
}

func endpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints",
		Short: "Probe every RPC endpoint and print the pool state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.close(cmd.Context())

			if err := rt.mono.RegisterModules(&rpcpool.Module{}); err != nil {
				return err
			}
			pool := poolDI.GetPool(rt.mono.Services())
			pool.Probe(cmd.Context())
			printEndpoints(cmd.OutOrStdout(), pool.Snapshot())
			return nil
		},
	}
}

func printEndpoints(w io.Writer, eps []poolDomain.Status) {
	header := color.New(color.FgHiWhite, color.Bold)
	header.Fprintf(w, "%-3s %-40s %-10s %-12s %-10s %s\n", "", "ENDPOINT", "HEALTH", "BLOCK", "LATENCY", "ERROR")

	for _, e := range eps {
		marker := " "
		if e.Primary {
			marker = "P"
		}
		if e.Current {
			marker += "*"
		}

		c := color.New(color.FgGreen)
		if e.Health != poolDomain.HealthHealthy {
			c = color.New(color.FgRed)
		}
		fmt.Fprintf(w, "%-3s %-40s ", marker, e.URL)
		c.Fprintf(w, "%-10s ", e.Health)
		fmt.Fprintf(w, "%-12d %-10s %s\n", e.BlockNumber, e.ProbeLatency.Round(time.Millisecond), e.ProbeError)
	}
}
