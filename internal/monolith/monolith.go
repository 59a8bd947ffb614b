// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/fd1az/bsc-triarb/internal/asset"
	"github.com/fd1az/bsc-triarb/internal/config"
	"github.com/fd1az/bsc-triarb/internal/di"
	"github.com/fd1az/bsc-triarb/internal/logger"
)

// Global service keys registered by New.
const (
	ConfigKey        = "config"
	LoggerKey        = "logger"
	AssetRegistryKey = "assetRegistry"
)

// Monolith gives modules access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
}

// Module is a bounded context that registers services and then starts up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// Closer is implemented by modules holding resources to release on shutdown.
type Closer interface {
	Close() error
}

type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	assetRegistry *asset.Registry
	container     di.Container
	modules       []Module
}

// New creates the application container. Chain connectivity is owned by the
// rpcpool module, so nothing here dials out.
func New(cfg *config.Config, log logger.LoggerInterface) *app {
	registry := asset.DefaultRegistry()

	container := di.NewContainer()
	container.Register(ConfigKey, cfg)
	container.Register(LoggerKey, log)
	container.Register(AssetRegistryKey, registry)

	return &app{
		config:        cfg,
		logger:        log,
		assetRegistry: registry,
		container:     container,
	}
}

func (a *app) Config() *config.Config         { return a.config }
func (a *app) Logger() logger.LoggerInterface { return a.logger }
func (a *app) AssetRegistry() *asset.Registry { return a.assetRegistry }
func (a *app) Services() di.ServiceRegistry   { return a.container }

// Container returns the DI container for registration.
func (a *app) Container() di.Container { return a.container }

// RegisterModules registers every module's services, in order.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
		a.modules = append(a.modules, m)
	}
	return nil
}

// StartModules starts modules in registration order.
func (a *app) StartModules(ctx context.Context) error {
	for _, m := range a.modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close releases module resources in reverse order.
func (a *app) Close() error {
	var first error
	for i := len(a.modules) - 1; i >= 0; i-- {
		if c, ok := a.modules[i].(Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
