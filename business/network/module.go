// Package network implements the network condition bounded context: gas price
// sampling and the usable/unusable verdict that gates scan cycles.
package network

import (
	"context"

	"github.com/fd1az/bsc-triarb/business/network/app"
	networkDI "github.com/fd1az/bsc-triarb/business/network/di"
	poolDI "github.com/fd1az/bsc-triarb/business/rpcpool/di"
	"github.com/fd1az/bsc-triarb/internal/config"
	"github.com/fd1az/bsc-triarb/internal/di"
	"github.com/fd1az/bsc-triarb/internal/logger"
	"github.com/fd1az/bsc-triarb/internal/monolith"
)

// Module implements the network bounded context.
type Module struct {
	monitor *app.Monitor
}

// RegisterServices registers the monitor with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, networkDI.Monitor, func(sr di.ServiceRegistry) *app.Monitor {
		cfg := sr.Get(monolith.ConfigKey).(*config.Config)
		log := sr.Get(monolith.LoggerKey).(logger.LoggerInterface)
		pool := poolDI.GetPool(sr)

		mon, err := app.NewMonitor(MonitorConfig(cfg), pool, log)
		if err != nil {
			panic("failed to create network monitor: " + err.Error())
		}
		m.monitor = mon
		return mon
	})

	return nil
}

// MonitorConfig maps configuration onto monitor tuning.
func MonitorConfig(cfg *config.Config) app.Config {
	return app.Config{
		MaxGasPrice:      cfg.Network.MaxGasPriceWei(),
		FailureThreshold: cfg.Network.FailureThreshold,
		ReadinessMaxAge:  cfg.Network.ReadinessMaxAge,
		GasPriceTTL:      cfg.Network.GasPriceTTL,
		CheckInterval:    cfg.Network.CheckInterval,
	}
}

// Startup takes the first sample and starts the periodic check loop.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	mon := networkDI.GetMonitor(mono.Services())

	healthy := mon.CheckHealth(ctx)
	go mon.Start(ctx)

	h := mon.Health()
	log.Info(ctx, "network module started",
		"healthy", healthy,
		"gas_price_gwei", h.GasPriceGwei().String())
	return nil
}

// Close releases the monitor's cache.
func (m *Module) Close() error {
	if m.monitor != nil {
		m.monitor.Close()
	}
	return nil
}
