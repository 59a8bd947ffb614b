// Package arbitrage implements the triangular arbitrage bounded context: the
// scanner, the profitability evaluator and the scan coordinator.
package arbitrage

import (
	"context"

	"github.com/fd1az/bsc-triarb/business/arbitrage/app"
	arbDI "github.com/fd1az/bsc-triarb/business/arbitrage/di"
	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	"github.com/fd1az/bsc-triarb/business/arbitrage/infra"
	"github.com/fd1az/bsc-triarb/business/arbitrage/infra/oracle"
	mdDI "github.com/fd1az/bsc-triarb/business/marketdata/di"
	networkDI "github.com/fd1az/bsc-triarb/business/network/di"
	poolDI "github.com/fd1az/bsc-triarb/business/rpcpool/di"
	"github.com/fd1az/bsc-triarb/internal/config"
	"github.com/fd1az/bsc-triarb/internal/di"
	"github.com/fd1az/bsc-triarb/internal/logger"
	"github.com/fd1az/bsc-triarb/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct {
	reporter app.Reporter
	cancel   context.CancelFunc
}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, arbDI.Oracle, func(sr di.ServiceRegistry) *oracle.Client {
		cfg := sr.Get(monolith.ConfigKey).(*config.Config)
		log := sr.Get(monolith.LoggerKey).(logger.LoggerInterface)

		client, err := oracle.New(poolDI.GetPool(sr), cfg.Contract.FlashArbitrageAddress(), log)
		if err != nil {
			panic("failed to create oracle client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, arbDI.Evaluator, func(sr di.ServiceRegistry) *app.Evaluator {
		cfg := sr.Get(monolith.ConfigKey).(*config.Config)
		log := sr.Get(monolith.LoggerKey).(logger.LoggerInterface)

		ev, err := app.NewEvaluator(
			EvaluatorConfig(cfg.Arbitrage),
			di.GetToken(sr, arbDI.Oracle),
			mdDI.GetService(sr),
			networkDI.GetMonitor(sr),
			log,
		)
		if err != nil {
			panic("failed to create evaluator: " + err.Error())
		}
		return ev
	})

	di.RegisterToken(c, arbDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		cfg := sr.Get(monolith.ConfigKey).(*config.Config)
		log := sr.Get(monolith.LoggerKey).(logger.LoggerInterface)

		return app.NewScanner(ScannerConfig(cfg.Arbitrage), mdDI.GetService(sr), arbDI.GetEvaluator(sr), log)
	})

	di.RegisterToken(c, arbDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get(monolith.ConfigKey).(*config.Config)
		log := sr.Get(monolith.LoggerKey).(logger.LoggerInterface)

		var reporters infra.MultiReporter
		if cfg.App.TUIMode {
			reporters = append(reporters, infra.NewTUIReporter())
		} else {
			reporters = append(reporters, infra.NewConsoleReporter(nil))
		}
		if cfg.Redis.Enabled {
			reporters = append(reporters, infra.NewRedisReporter(cfg.Redis, log))
		}
		m.reporter = reporters
		return reporters
	})

	di.RegisterToken(c, arbDI.Coordinator, func(sr di.ServiceRegistry) *app.Coordinator {
		cfg := sr.Get(monolith.ConfigKey).(*config.Config)
		log := sr.Get(monolith.LoggerKey).(logger.LoggerInterface)
		pool := poolDI.GetPool(sr)

		coord, err := app.NewCoordinator(
			CoordinatorConfig(cfg.Arbitrage),
			Triples(cfg.Arbitrage.Triples),
			app.NewScanGuard(),
			di.GetToken(sr, arbDI.Scanner),
			networkDI.GetMonitor(sr),
			di.GetToken(sr, arbDI.Oracle),
			arbDI.GetReporter(sr),
			log,
			app.WithEndpointStatus(pool),
		)
		if err != nil {
			panic("failed to create coordinator: " + err.Error())
		}
		return coord
	})

	return nil
}

// Triples maps validated configuration onto domain triples.
func Triples(in []config.TripleConfig) []domain.TokenTriple {
	out := make([]domain.TokenTriple, 0, len(in))
	for i := range in {
		tc := &in[i]
		out = append(out, domain.TokenTriple{
			Name:     tc.Name,
			Tokens:   tc.TokenAddresses(),
			PairsA:   tc.PairAddressesA(),
			PairsB:   tc.PairAddressesB(),
			Priority: tc.Priority,
			Amounts:  tc.AmountsDecimal(),
		})
	}
	return out
}

// EvaluatorConfig maps configuration onto the profitability policy.
func EvaluatorConfig(ac config.ArbitrageConfig) app.EvaluatorConfig {
	return app.EvaluatorConfig{
		GasLimit:           ac.GasLimit,
		GasBuffer:          ac.GasBufferDecimal(),
		MinProfitPct:       ac.MinProfitPctDecimal(),
		FeeRefreshInterval: ac.FeeRefreshInterval,
	}
}

// ScannerConfig maps configuration onto scan tuning.
func ScannerConfig(ac config.ArbitrageConfig) app.ScannerConfig {
	return app.ScannerConfig{
		GapThreshold: ac.GapThresholdDecimal(),
		SlippageBps:  ac.SlippageBps,
		Policy:       app.ParseDirectionPolicy(ac.DirectionPolicy),
		Concurrency:  ac.ScanConcurrency,
	}
}

// CoordinatorConfig maps configuration onto the scan cadences.
func CoordinatorConfig(ac config.ArbitrageConfig) app.CoordinatorConfig {
	return app.CoordinatorConfig{
		PriorityInterval: ac.PriorityInterval,
		StandardInterval: ac.StandardInterval,
		ScanOnStartup:    ac.ScanOnStartup,
	}
}

// Startup reads the fee parameters and starts the reporters. Cadences are
// started separately through StartScanning so one-shot commands can skip them.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	sr := mono.Services()

	ev := arbDI.GetEvaluator(sr)
	if err := ev.RefreshFees(ctx); err != nil {
		log.Warn(ctx, "fee parameters unavailable, estimates disabled until next refresh", "error", err)
	}

	reporter := arbDI.GetReporter(sr)
	if err := reporter.Start(ctx); err != nil {
		return err
	}
	reporter.UpdateConnectionStatus(poolDI.GetPool(sr).Snapshot(), networkDI.GetMonitor(sr).Health())

	coord := arbDI.GetCoordinator(sr)
	log.Info(ctx, "arbitrage module started",
		"triples", len(coord.Triples()),
		"policy", string(app.ParseDirectionPolicy(mono.Config().Arbitrage.DirectionPolicy)))
	return nil
}

// StartScanning runs the coordinator in the background until ctx is done or
// Close is called.
func (m *Module) StartScanning(ctx context.Context, mono monolith.Monolith) {
	ctx, m.cancel = context.WithCancel(ctx)
	go arbDI.GetCoordinator(mono.Services()).Start(ctx)
}

// Close stops the cadences and the reporters.
func (m *Module) Close() error {
	if m.cancel != nil {
		m.cancel()
	}
	if m.reporter != nil {
		return m.reporter.Stop()
	}
	return nil
}
