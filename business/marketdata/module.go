// Package marketdata implements the market data bounded context: router quotes
// on both venues, token metadata and value-unit pricing.
package marketdata

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/bsc-triarb/business/marketdata/app"
	mdDI "github.com/fd1az/bsc-triarb/business/marketdata/di"
	"github.com/fd1az/bsc-triarb/business/marketdata/domain"
	"github.com/fd1az/bsc-triarb/business/marketdata/infra/binance"
	"github.com/fd1az/bsc-triarb/business/marketdata/infra/erc20"
	"github.com/fd1az/bsc-triarb/business/marketdata/infra/router"
	poolDI "github.com/fd1az/bsc-triarb/business/rpcpool/di"
	"github.com/fd1az/bsc-triarb/internal/asset"
	"github.com/fd1az/bsc-triarb/internal/config"
	"github.com/fd1az/bsc-triarb/internal/di"
	"github.com/fd1az/bsc-triarb/internal/logger"
	"github.com/fd1az/bsc-triarb/internal/monolith"
)

// Module implements the marketdata bounded context.
type Module struct {
	service *app.Service
}

// RegisterServices registers the market data service with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, mdDI.Service, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get(monolith.ConfigKey).(*config.Config)
		log := sr.Get(monolith.LoggerKey).(logger.LoggerInterface)
		registry := sr.Get(monolith.AssetRegistryKey).(*asset.Registry)
		pool := poolDI.GetPool(sr)

		quoter, err := router.NewQuoter(pool)
		if err != nil {
			panic("failed to create router quoter: " + err.Error())
		}
		reader, err := erc20.NewReader(pool, log)
		if err != nil {
			panic("failed to create erc20 reader: " + err.Error())
		}

		var opts []app.Option
		if cfg.Reference.Enabled {
			ticker, err := binance.NewTickerClient(binance.Config{
				BaseURL:           cfg.Reference.BaseURL,
				Symbol:            cfg.Reference.Symbol,
				Timeout:           cfg.Reference.Timeout,
				RequestsPerMinute: cfg.Reference.RequestsPerMinute,
			}, log)
			if err != nil {
				panic("failed to create reference ticker: " + err.Error())
			}
			opts = append(opts, app.WithReferenceSource(ticker))
		}

		svc, err := app.NewService(ServiceConfig(cfg), quoter, reader, registry, log, opts...)
		if err != nil {
			panic("failed to create market data service: " + err.Error())
		}
		m.service = svc
		return svc
	})

	return nil
}

// ServiceConfig maps configuration onto the market data service.
func ServiceConfig(cfg *config.Config) app.Config {
	return app.Config{
		VenueA: domain.Venue{
			Exchange: domain.ExchangeA,
			Name:     cfg.Exchanges.A.Name,
			Router:   cfg.Exchanges.A.RouterAddress(),
		},
		VenueB: domain.Venue{
			Exchange: domain.ExchangeB,
			Name:     cfg.Exchanges.B.Name,
			Router:   cfg.Exchanges.B.RouterAddress(),
		},
		Native:           cfg.Tokens.NativeAddress(),
		Stables:          cfg.Tokens.StableAddresses(),
		PriceTTL:         cfg.Market.PriceTTL,
		NativeRateMaxAge: cfg.Market.NativeRateMaxAge,
		QuoteTimeout:     cfg.Market.QuoteTimeout,
	}
}

// Startup resolves metadata for every configured token. Tokens that cannot be
// resolved are logged; triples using them are skipped when scanned.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	svc := mdDI.GetService(mono.Services())

	addrs := []common.Address{cfg.Tokens.NativeAddress()}
	addrs = append(addrs, cfg.Tokens.StableAddresses()...)
	for i := range cfg.Arbitrage.Triples {
		t := cfg.Arbitrage.Triples[i].TokenAddresses()
		addrs = append(addrs, t[:]...)
	}

	if err := svc.LoadTokens(ctx, addrs); err != nil {
		log.Warn(ctx, "some tokens could not be resolved", "error", err)
	}

	rate := svc.NativeRate(ctx)
	log.Info(ctx, "marketdata module started",
		"tokens", mono.AssetRegistry().Count(),
		"native_rate", rate.String())
	return nil
}

// Close releases the price cache.
func (m *Module) Close() error {
	if m.service != nil {
		m.service.Close()
	}
	return nil
}
