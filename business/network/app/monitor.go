package app

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/bsc-triarb/business/network/domain"
	"github.com/fd1az/bsc-triarb/internal/cache"
	"github.com/fd1az/bsc-triarb/internal/logger"
)

const (
	tracerName = "github.com/fd1az/bsc-triarb/business/network"
	meterName  = "github.com/fd1az/bsc-triarb/business/network"

	gasSampleKey = "gas_price"
)

// Config holds monitor tuning.
type Config struct {
	MaxGasPrice      *big.Int
	FailureThreshold int
	ReadinessMaxAge  time.Duration
	GasPriceTTL      time.Duration
	CheckInterval    time.Duration
}

// DefaultConfig returns a 10 gwei ceiling.
func DefaultConfig() Config {
	return Config{
		MaxGasPrice:      big.NewInt(10_000_000_000),
		FailureThreshold: 3,
		ReadinessMaxAge:  5 * time.Minute,
		GasPriceTTL:      2 * time.Minute,
		CheckInterval:    time.Minute,
	}
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

type gasSample struct {
	wei *big.Int
	at  time.Time
}

type monitorMetrics struct {
	gasPriceGwei metric.Float64Gauge
	healthy      metric.Int64Gauge
	checks       metric.Int64Counter
}

// Monitor samples gas prices and keeps the chain usability verdict.
type Monitor struct {
	cfg    Config
	source GasPriceReader
	logger logger.LoggerInterface
	now    func() time.Time

	mu     sync.Mutex
	health domain.Health

	samples *cache.Cache[string, gasSample]

	tracer  trace.Tracer
	metrics *monitorMetrics
}

// NewMonitor creates a monitor. The verdict is unhealthy until the first
// successful sample.
func NewMonitor(cfg Config, source GasPriceReader, log logger.LoggerInterface, opts ...Option) (*Monitor, error) {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 3
	}

	m := &Monitor{
		cfg:     cfg,
		source:  source,
		logger:  log,
		now:     time.Now,
		samples: cache.New[string, gasSample](10 * time.Minute),
		tracer:  otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(m)
	}

	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return m, nil
}

func (m *Monitor) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	m.metrics = &monitorMetrics{}

	m.metrics.gasPriceGwei, err = meter.Float64Gauge(
		"network_gas_price_gwei",
		metric.WithDescription("Last sampled gas price in gwei"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	m.metrics.healthy, err = meter.Int64Gauge(
		"network_healthy",
		metric.WithDescription("1 when the network is usable for arbitrage"),
	)
	if err != nil {
		return err
	}

	m.metrics.checks, err = meter.Int64Counter(
		"network_health_checks_total",
		metric.WithDescription("Network health checks by outcome"),
	)
	return err
}

// CheckHealth samples the gas price and updates the verdict. A sample above
// the ceiling is unhealthy; sampling failures only force unhealthy once they
// reach the threshold.
func (m *Monitor) CheckHealth(ctx context.Context) bool {
	ctx, span := m.tracer.Start(ctx, "network.check_health")
	defer span.End()

	price, err := m.source.GasPrice(ctx)

	m.mu.Lock()
	now := m.now()
	h := &m.health
	h.LastCheck = now
	if err != nil {
		h.ConsecutiveFailures++
		h.LastError = err.Error()
		if h.ConsecutiveFailures >= m.cfg.FailureThreshold {
			h.Healthy = false
		}
	} else {
		h.ConsecutiveFailures = 0
		h.LastError = ""
		h.GasPrice = price
		h.Healthy = price.Cmp(m.cfg.MaxGasPrice) <= 0
		m.samples.Set(ctx, gasSampleKey, gasSample{wei: price, at: now}, m.cfg.GasPriceTTL)
	}
	snapshot := *h
	m.mu.Unlock()

	healthy := int64(0)
	if snapshot.Healthy {
		healthy = 1
	}
	m.metrics.healthy.Record(ctx, healthy)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gas price sample failed")
		m.metrics.checks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error")))
		m.logger.Warn(ctx, "network health check failed",
			"failures", snapshot.ConsecutiveFailures,
			"healthy", snapshot.Healthy,
			"error", err)
		return snapshot.Healthy
	}

	gwei, _ := snapshot.GasPriceGwei().Float64()
	m.metrics.gasPriceGwei.Record(ctx, gwei)
	m.metrics.checks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "ok")))
	span.SetAttributes(attribute.Float64("gas_price_gwei", gwei), attribute.Bool("healthy", snapshot.Healthy))

	if !snapshot.Healthy {
		m.logger.Warn(ctx, "gas price above ceiling",
			"gas_price_gwei", snapshot.GasPriceGwei().String(),
			"max_gwei", decimal.NewFromBigInt(m.cfg.MaxGasPrice, -9).String())
	}
	return snapshot.Healthy
}

// IsReadyForArbitrage returns the current verdict, re-checking first when it
// is older than the readiness window.
func (m *Monitor) IsReadyForArbitrage(ctx context.Context) bool {
	m.mu.Lock()
	last := m.health.LastCheck
	healthy := m.health.Healthy
	stale := last.IsZero() || m.now().Sub(last) > m.cfg.ReadinessMaxAge
	m.mu.Unlock()

	if stale {
		return m.CheckHealth(ctx)
	}
	return healthy
}

// GasPrice returns a recent gas price multiplied by buffer (rounded to two
// decimals). Samples are reused for GasPriceTTL; when sampling fails the
// source's default is used until the next health check succeeds.
func (m *Monitor) GasPrice(ctx context.Context, buffer decimal.Decimal) *big.Int {
	return domain.ApplyBuffer(m.basePrice(ctx), buffer)
}

func (m *Monitor) basePrice(ctx context.Context) *big.Int {
	now := m.now()
	if s, ok := m.samples.Get(ctx, gasSampleKey); ok && now.Sub(s.at) < m.cfg.GasPriceTTL {
		return s.wei
	}

	price := m.source.GasPriceOrDefault(ctx)
	m.samples.Set(ctx, gasSampleKey, gasSample{wei: price, at: now}, m.cfg.GasPriceTTL)
	return price
}

// Health returns a copy of the current verdict.
func (m *Monitor) Health() domain.Health {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.health
}

// Start checks health on the configured interval until ctx is done.
func (m *Monitor) Start(ctx context.Context) {
	if m.cfg.CheckInterval <= 0 {
		return
	}
	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckHealth(ctx)
		}
	}
}

// Close releases the sample cache.
func (m *Monitor) Close() {
	m.samples.Close()
}
