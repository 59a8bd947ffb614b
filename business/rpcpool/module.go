// Package rpcpool implements the endpoint pool bounded context: every chain
// read is routed through a health-tracked rotation of RPC endpoints.
package rpcpool

import (
	"context"
	"time"

	"github.com/fd1az/bsc-triarb/business/rpcpool/app"
	poolDI "github.com/fd1az/bsc-triarb/business/rpcpool/di"
	"github.com/fd1az/bsc-triarb/business/rpcpool/infra/ethereum"
	"github.com/fd1az/bsc-triarb/internal/apperror"
	"github.com/fd1az/bsc-triarb/internal/config"
	"github.com/fd1az/bsc-triarb/internal/di"
	"github.com/fd1az/bsc-triarb/internal/logger"
	"github.com/fd1az/bsc-triarb/internal/monolith"
	"github.com/fd1az/bsc-triarb/internal/retry"
)

const dialTimeout = 15 * time.Second

// Module implements the rpcpool bounded context.
type Module struct {
	pool *app.Pool
}

// RegisterServices registers the pool with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, poolDI.Pool, func(sr di.ServiceRegistry) *app.Pool {
		cfg := sr.Get(monolith.ConfigKey).(*config.Config)
		log := sr.Get(monolith.LoggerKey).(logger.LoggerInterface)

		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()

		pool, err := app.NewPool(ctx, PoolConfig(cfg.RPC), ethereum.Dial, log)
		if err != nil {
			panic("failed to create rpc pool: " + err.Error())
		}
		m.pool = pool
		return pool
	})

	return nil
}

// PoolConfig maps configuration onto pool tuning.
func PoolConfig(rc config.RPCConfig) app.Config {
	cfg := app.DefaultConfig(rc.URLs())
	cfg.FailureThreshold = rc.FailureThreshold
	cfg.Cooldown = rc.Cooldown
	cfg.MinUseInterval = rc.MinUseInterval
	cfg.CallTimeout = rc.Timeout
	cfg.ProbeTimeout = rc.ProbeTimeout
	cfg.ProbeInterval = rc.HealthCheckInterval
	cfg.Retry = retry.DefaultPolicy(rc.RetryCount)
	cfg.DefaultGasPrice = rc.DefaultGasPriceWei()
	return cfg
}

// Startup probes every endpoint and starts the periodic probe loop. No
// reachable endpoint is fatal.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	pool := poolDI.GetPool(mono.Services())

	healthy := pool.Probe(ctx)
	if healthy == 0 {
		return apperror.New(apperror.CodeNoHealthyEndpoint,
			apperror.WithContext("no rpc endpoint answered the startup probe"))
	}

	go pool.Start(ctx)

	log.Info(ctx, "rpcpool module started", "endpoints", len(pool.Snapshot()), "healthy", healthy)
	return nil
}

// Close releases every endpoint connection.
func (m *Module) Close() error {
	if m.pool != nil {
		m.pool.Close()
	}
	return nil
}
