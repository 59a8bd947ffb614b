package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	"github.com/fd1az/bsc-triarb/internal/apperror"
	"github.com/fd1az/bsc-triarb/internal/logger"
)

// CoordinatorConfig holds the two scan cadences.
type CoordinatorConfig struct {
	PriorityInterval time.Duration
	StandardInterval time.Duration
	ScanOnStartup    bool
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorClock replaces time.Now.
func WithCoordinatorClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) { c.now = now }
}

// WithEndpointStatus forwards pool snapshots to the reporter after each cycle.
func WithEndpointStatus(es EndpointStatus) CoordinatorOption {
	return func(c *Coordinator) { c.endpoints = es }
}

type coordinatorMetrics struct {
	cycles        metric.Int64Counter
	cycleDuration metric.Float64Histogram
	opportunities metric.Int64Counter
}

// Coordinator runs scan cycles behind a single-flight guard shared by every
// trigger: startup, both cadences and manual requests.
type Coordinator struct {
	cfg       CoordinatorConfig
	triples   []domain.TokenTriple
	guard     *ScanGuard
	scanner   TripleScanner
	network   NetworkMonitor
	pause     PauseChecker
	reporter  Reporter
	endpoints EndpointStatus
	logger    logger.LoggerInterface
	now       func() time.Time

	mu   sync.RWMutex
	last *domain.CycleReport

	tracer  trace.Tracer
	metrics *coordinatorMetrics
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(
	cfg CoordinatorConfig,
	triples []domain.TokenTriple,
	guard *ScanGuard,
	scanner TripleScanner,
	network NetworkMonitor,
	pause PauseChecker,
	reporter Reporter,
	log logger.LoggerInterface,
	opts ...CoordinatorOption,
) (*Coordinator, error) {
	c := &Coordinator{
		cfg:      cfg,
		triples:  triples,
		guard:    guard,
		scanner:  scanner,
		network:  network,
		pause:    pause,
		reporter: reporter,
		logger:   log,
		now:      time.Now,
		tracer:   otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(c)
	}

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return c, nil
}

func (c *Coordinator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &coordinatorMetrics{}

	c.metrics.cycles, err = meter.Int64Counter(
		"arbitrage_cycles_total",
		metric.WithDescription("Scan cycles by tier and outcome"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return err
	}

	c.metrics.cycleDuration, err = meter.Float64Histogram(
		"arbitrage_cycle_duration_seconds",
		metric.WithDescription("Duration of completed scan cycles"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2, 5, 10, 20, 30, 60),
	)
	if err != nil {
		return err
	}

	c.metrics.opportunities, err = meter.Int64Counter(
		"arbitrage_opportunities_total",
		metric.WithDescription("Accepted opportunities"),
		metric.WithUnit("{opportunity}"),
	)
	return err
}

// Triples returns the configured triples.
func (c *Coordinator) Triples() []domain.TokenTriple {
	return c.triples
}

// LastReport returns the most recent completed cycle.
func (c *Coordinator) LastReport() (*domain.CycleReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.last != nil
}

// RunCycle scans the triples of tier. A busy guard, an unhealthy network or a
// paused contract skip the cycle: the skipped report is returned together with
// an error carrying the reason.
func (c *Coordinator) RunCycle(ctx context.Context, tier domain.Tier) (*domain.CycleReport, error) {
	report := &domain.CycleReport{
		ID:        uuid.NewString(),
		Tier:      tier,
		StartedAt: c.now(),
	}

	if !c.guard.TryAcquire() {
		return c.skip(ctx, report, domain.SkipScanInProgress,
			apperror.New(apperror.CodeScanInProgress, apperror.WithContextf("%s cycle", tier)))
	}
	defer c.guard.Release()

	ctx, span := c.tracer.Start(ctx, "arbitrage.cycle", trace.WithAttributes(
		attribute.String("cycle_id", report.ID),
		attribute.String("tier", tier.String()),
	))
	defer span.End()

	if !c.network.IsReadyForArbitrage(ctx) {
		return c.skip(ctx, report, domain.SkipNetworkUnhealthy,
			apperror.New(apperror.CodeNetworkUnhealthy))
	}

	paused, err := c.pause.Paused(ctx)
	if err != nil {
		return c.skip(ctx, report, domain.SkipPauseCheckFailed,
			apperror.New(apperror.CodeOracleCallFailed, apperror.WithContext("paused()"), apperror.WithCause(err)))
	}
	if paused {
		return c.skip(ctx, report, domain.SkipContractPaused,
			apperror.New(apperror.CodeContractPaused))
	}

	subset := c.selectTriples(tier)
	c.logger.Info(ctx, "scan cycle started", "cycle_id", report.ID, "tier", tier.String(), "triples", len(subset))

	res := c.scanner.Scan(ctx, subset)
	domain.Rank(res.Opportunities)

	report.Triples = len(subset)
	report.Evaluated = res.Evaluated
	report.Opportunities = res.Opportunities
	report.FinishedAt = c.now()

	c.mu.Lock()
	c.last = report
	c.mu.Unlock()

	attrs := metric.WithAttributes(attribute.String("tier", tier.String()), attribute.String("outcome", "completed"))
	c.metrics.cycles.Add(ctx, 1, attrs)
	c.metrics.cycleDuration.Record(ctx, report.Duration().Seconds(), metric.WithAttributes(attribute.String("tier", tier.String())))
	c.metrics.opportunities.Add(ctx, int64(len(report.Opportunities)), metric.WithAttributes(attribute.String("tier", tier.String())))
	span.SetAttributes(
		attribute.Int("evaluated", report.Evaluated),
		attribute.Int("accepted", len(report.Opportunities)),
	)

	kv := []any{
		"cycle_id", report.ID,
		"tier", tier.String(),
		"evaluated", report.Evaluated,
		"accepted", len(report.Opportunities),
		"duration", report.Duration().String(),
	}
	if best, ok := report.Best(); ok {
		kv = append(kv, "best_route", best.Route(), "best_pct", best.ProfitPct().StringFixed(4))
	}
	c.logger.Info(ctx, "scan cycle finished", kv...)

	c.publish(ctx, report)
	return report, nil
}

func (c *Coordinator) skip(ctx context.Context, report *domain.CycleReport, reason string, err error) (*domain.CycleReport, error) {
	report.Skipped = true
	report.SkipReason = reason
	report.FinishedAt = c.now()

	c.metrics.cycles.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tier", report.Tier.String()),
		attribute.String("outcome", "skipped"),
	))
	c.logger.Warn(ctx, "scan cycle skipped", "cycle_id", report.ID, "tier", report.Tier.String(), "reason", reason)

	c.publish(ctx, report)
	return report, err
}

func (c *Coordinator) publish(ctx context.Context, report *domain.CycleReport) {
	if c.reporter == nil {
		return
	}
	c.reporter.Report(ctx, report)
	if c.endpoints != nil {
		c.reporter.UpdateConnectionStatus(c.endpoints.Snapshot(), c.network.Health())
	}
}

func (c *Coordinator) selectTriples(tier domain.Tier) []domain.TokenTriple {
	out := make([]domain.TokenTriple, 0, len(c.triples))
	for _, t := range c.triples {
		if tier.Includes(t.Priority) {
			out = append(out, t)
		}
	}
	return out
}

// Start runs the optional startup scan and then both cadences until ctx is
// done. Cadence ticks landing on a busy guard are skipped, never queued.
func (c *Coordinator) Start(ctx context.Context) {
	if c.cfg.ScanOnStartup {
		_, _ = c.RunCycle(ctx, domain.TierAll)
	}

	var wg sync.WaitGroup
	for _, cadence := range []struct {
		tier     domain.Tier
		interval time.Duration
	}{
		{domain.TierPriority, c.cfg.PriorityInterval},
		{domain.TierStandard, c.cfg.StandardInterval},
	} {
		if cadence.interval <= 0 {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.loop(ctx, cadence.tier, cadence.interval)
		}()
	}
	wg.Wait()
}

func (c *Coordinator) loop(ctx context.Context, tier domain.Tier, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = c.RunCycle(ctx, tier)
		}
	}
}
