package app

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/bsc-triarb/business/rpcpool/domain"
	"github.com/fd1az/bsc-triarb/internal/apperror"
	"github.com/fd1az/bsc-triarb/internal/logger"
	"github.com/fd1az/bsc-triarb/internal/ratelimit"
	"github.com/fd1az/bsc-triarb/internal/retry"
)

const (
	tracerName = "github.com/fd1az/bsc-triarb/business/rpcpool"
	meterName  = "github.com/fd1az/bsc-triarb/business/rpcpool"
)

// Config holds pool tuning.
type Config struct {
	URLs             []string
	FailureThreshold int
	Cooldown         time.Duration
	MinUseInterval   time.Duration
	CallTimeout      time.Duration
	ProbeTimeout     time.Duration
	ProbeInterval    time.Duration
	Retry            retry.Policy
	DefaultGasPrice  *big.Int
}

// DefaultConfig returns the pool defaults for urls.
func DefaultConfig(urls []string) Config {
	return Config{
		URLs:             urls,
		FailureThreshold: 3,
		Cooldown:         60 * time.Second,
		MinUseInterval:   500 * time.Millisecond,
		CallTimeout:      10 * time.Second,
		ProbeTimeout:     5 * time.Second,
		ProbeInterval:    30 * time.Second,
		Retry:            retry.DefaultPolicy(3),
		DefaultGasPrice:  big.NewInt(5_000_000_000),
	}
}

// Option configures a Pool.
type Option func(*Pool)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) { p.now = now }
}

type slot struct {
	ep      *domain.Endpoint
	limiter *ratelimit.Limiter
	client  ChainClient
}

// Lease is an endpoint handed out by Acquire. Report its outcome with
// ReportSuccess or ReportFailure.
type Lease struct {
	Index  int
	Name   string
	Client ChainClient
}

type poolMetrics struct {
	calls     metric.Int64Counter
	failovers metric.Int64Counter
	resets    metric.Int64Counter
	probes    metric.Int64Counter
}

// Pool routes every chain read through a rotating set of endpoints.
type Pool struct {
	cfg    Config
	logger logger.LoggerInterface
	now    func() time.Time

	mu      sync.Mutex
	slots   []*slot
	current int

	tracer  trace.Tracer
	metrics *poolMetrics
}

// NewPool dials every URL. Endpoints that fail to dial start unhealthy; the
// pool fails only when none can be dialed.
func NewPool(ctx context.Context, cfg Config, dial Dialer, log logger.LoggerInterface, opts ...Option) (*Pool, error) {
	if len(cfg.URLs) == 0 {
		return nil, apperror.Validation(apperror.CodeNoHealthyEndpoint, "no rpc endpoints configured")
	}
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 3
	}
	if cfg.DefaultGasPrice == nil {
		cfg.DefaultGasPrice = big.NewInt(5_000_000_000)
	}

	p := &Pool{
		cfg:    cfg,
		logger: log,
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(p)
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	dialed := 0
	for i, u := range cfg.URLs {
		s := &slot{
			ep:      domain.NewEndpoint(i, u),
			limiter: ratelimit.NewInterval(cfg.MinUseInterval),
		}
		client, err := dial(ctx, u)
		if err != nil {
			s.ep.ApplyProbe(domain.ProbeResult{At: p.now(), Err: err.Error()})
			log.Warn(ctx, "rpc endpoint dial failed", "endpoint", s.ep.Masked(), "error", err)
		} else {
			s.client = client
			dialed++
		}
		p.slots = append(p.slots, s)
	}

	if dialed == 0 {
		return nil, apperror.New(apperror.CodeNoHealthyEndpoint,
			apperror.WithContextf("none of %d endpoints could be dialed", len(cfg.URLs)))
	}

	return p, nil
}

func (p *Pool) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &poolMetrics{}

	p.metrics.calls, err = meter.Int64Counter(
		"rpc_calls_total",
		metric.WithDescription("RPC calls by operation and outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	p.metrics.failovers, err = meter.Int64Counter(
		"rpc_failovers_total",
		metric.WithDescription("Endpoints tripped into cooldown"),
	)
	if err != nil {
		return err
	}

	p.metrics.resets, err = meter.Int64Counter(
		"rpc_forced_resets_total",
		metric.WithDescription("Selections that found no eligible endpoint"),
	)
	if err != nil {
		return err
	}

	p.metrics.probes, err = meter.Int64Counter(
		"rpc_probes_total",
		metric.WithDescription("Endpoint health probes by outcome"),
	)
	return err
}

// Acquire selects an endpoint. It never blocks and never fails. The minimum
// use interval is soft: when every usable endpoint was used inside it, the
// least recently used one is returned. Only when no endpoint is usable are the
// failure counts reset and the primary used.
func (p *Pool) Acquire() Lease {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	p.restoreCooledLocked(now)

	n := len(p.slots)
	chosen := -1
	for i := 0; i < n; i++ {
		idx := (p.current + i) % n
		s := p.slots[idx]
		if s.client != nil && s.ep.Usable(p.cfg.FailureThreshold) && s.limiter.ReadyAt(now) {
			chosen = idx
			break
		}
	}

	if chosen < 0 {
		chosen = p.leastRecentlyUsedLocked()
	}

	if chosen < 0 {
		for _, s := range p.slots {
			s.ep.Failures = 0
		}
		chosen = 0
		p.metrics.resets.Add(context.Background(), 1)
	}

	p.current = chosen
	s := p.slots[chosen]
	s.limiter.AllowAt(now)
	s.ep.LastUsed = now

	return Lease{Index: chosen, Name: s.ep.Masked(), Client: s.client}
}

func (p *Pool) leastRecentlyUsedLocked() int {
	chosen := -1
	for i, s := range p.slots {
		if s.client == nil || !s.ep.Usable(p.cfg.FailureThreshold) {
			continue
		}
		if chosen < 0 || s.ep.LastUsed.Before(p.slots[chosen].ep.LastUsed) {
			chosen = i
		}
	}
	return chosen
}

// ReportSuccess resets the endpoint's consecutive failures.
func (p *Pool) ReportSuccess(l Lease) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots[l.Index].ep.RecordSuccess()
}

// ReportFailure counts a failure. Reaching the threshold marks the endpoint
// unhealthy for the cooldown and advances rotation past it.
func (p *Pool) ReportFailure(ctx context.Context, l Lease, cause error) {
	p.mu.Lock()
	s := p.slots[l.Index]
	tripped := s.ep.RecordFailure(p.now(), p.cfg.FailureThreshold, p.cfg.Cooldown)
	failures := s.ep.Failures
	if tripped && p.current == l.Index {
		p.current = (p.current + 1) % len(p.slots)
	}
	p.mu.Unlock()

	if tripped {
		p.metrics.failovers.Add(ctx, 1)
		p.logger.Warn(ctx, "rpc endpoint marked unhealthy",
			"endpoint", l.Name,
			"failures", failures,
			"cooldown", p.cfg.Cooldown.String(),
			"error", cause)
		return
	}
	p.logger.Debug(ctx, "rpc endpoint failure", "endpoint", l.Name, "failures", failures, "error", cause)
}

func (p *Pool) restoreCooledLocked(now time.Time) {
	for _, s := range p.slots {
		if s.ep.RestoreIfCooled(now) {
			p.logger.Info(context.Background(), "rpc endpoint restored after cooldown", "endpoint", s.ep.Masked())
		}
	}
}

// Snapshot returns the state of every endpoint in configured order.
func (p *Pool) Snapshot() []domain.Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.restoreCooledLocked(p.now())

	out := make([]domain.Status, len(p.slots))
	for i, s := range p.slots {
		out[i] = s.ep.Status(i == p.current)
	}
	return out
}

// HealthyCount returns how many endpoints are currently eligible.
func (p *Pool) HealthyCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.restoreCooledLocked(p.now())

	n := 0
	for _, s := range p.slots {
		if s.client != nil && s.ep.Usable(p.cfg.FailureThreshold) {
			n++
		}
	}
	return n
}

// Probe queries every endpoint's block height concurrently and sets health
// from the outcome. It returns the number of endpoints that answered.
func (p *Pool) Probe(ctx context.Context) int {
	ctx, span := p.tracer.Start(ctx, "rpcpool.probe")
	defer span.End()

	p.mu.Lock()
	slots := append([]*slot(nil), p.slots...)
	p.mu.Unlock()

	results := make([]domain.ProbeResult, len(slots))
	var g errgroup.Group
	for i, s := range slots {
		g.Go(func() error {
			results[i] = p.probeOne(ctx, s)
			return nil
		})
	}
	_ = g.Wait()

	healthy := 0
	p.mu.Lock()
	for i, s := range slots {
		s.ep.ApplyProbe(results[i])
		if results[i].Err == "" {
			healthy++
		}
	}
	p.mu.Unlock()

	for i, s := range slots {
		outcome := "ok"
		if results[i].Err != "" {
			outcome = "error"
			p.logger.Warn(ctx, "rpc probe failed", "endpoint", s.ep.Masked(), "error", results[i].Err)
		}
		p.metrics.probes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}

	span.SetAttributes(attribute.Int("healthy", healthy), attribute.Int("total", len(slots)))
	return healthy
}

func (p *Pool) probeOne(ctx context.Context, s *slot) domain.ProbeResult {
	start := p.now()
	if s.client == nil {
		return domain.ProbeResult{At: start, Err: "not connected"}
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
	defer cancel()

	height, err := s.client.BlockNumber(ctx)
	res := domain.ProbeResult{At: start, BlockNumber: height, Latency: p.now().Sub(start)}
	if err != nil {
		res.Err = err.Error()
	}
	return res
}

// Start probes on the configured interval until ctx is done.
func (p *Pool) Start(ctx context.Context) {
	if p.cfg.ProbeInterval <= 0 {
		return
	}
	ticker := time.NewTicker(p.cfg.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}

// call runs fn against leased endpoints under the retry policy. Reverts are
// returned immediately and do not count against the endpoint.
func call[T any](ctx context.Context, p *Pool, op string, fn func(context.Context, ChainClient) (T, error)) (T, error) {
	ctx, span := p.tracer.Start(ctx, "rpcpool."+op)
	defer span.End()

	notify := func(err error, next time.Duration) {
		p.logger.Debug(ctx, "rpc call retry", "op", op, "wait", next.String(), "error", err)
	}

	v, err := retry.Do(ctx, p.cfg.Retry, func(ctx context.Context, attempt int) (T, error) {
		var zero T
		lease := p.Acquire()
		span.SetAttributes(attribute.String("endpoint", lease.Name), attribute.Int("attempt", attempt))
		if lease.Client == nil {
			err := apperror.New(apperror.CodeRPCConnectionFailed, apperror.WithContext(lease.Name))
			p.ReportFailure(ctx, lease, err)
			return zero, err
		}

		callCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
		defer cancel()

		out, err := fn(callCtx, lease.Client)
		switch {
		case err == nil:
			p.ReportSuccess(lease)
			p.metrics.calls.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op), attribute.String("outcome", "ok")))
			return out, nil
		case apperror.HasCode(err, apperror.CodeExecutionReverted):
			p.ReportSuccess(lease)
			p.metrics.calls.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op), attribute.String("outcome", "reverted")))
			return zero, retry.Permanent(err)
		default:
			p.ReportFailure(ctx, lease, err)
			p.metrics.calls.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op), attribute.String("outcome", "error")))
			return zero, err
		}
	}, notify)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		if apperror.IsAppError(err) {
			return v, err
		}
		return v, apperror.New(apperror.CodeRPCError, apperror.WithCause(err), apperror.WithContext(op))
	}
	return v, nil
}

// BlockNumber returns the chain height.
func (p *Pool) BlockNumber(ctx context.Context) (uint64, error) {
	return call(ctx, p, "block_number", func(ctx context.Context, c ChainClient) (uint64, error) {
		return c.BlockNumber(ctx)
	})
}

// GasPrice returns the node's suggested gas price in wei.
func (p *Pool) GasPrice(ctx context.Context) (*big.Int, error) {
	price, err := call(ctx, p, "gas_price", func(ctx context.Context, c ChainClient) (*big.Int, error) {
		return c.SuggestGasPrice(ctx)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeGasPriceUnavailable, apperror.WithCause(err))
	}
	return price, nil
}

// GasPriceOrDefault returns GasPrice, or the configured default once retries
// are exhausted.
func (p *Pool) GasPriceOrDefault(ctx context.Context) *big.Int {
	price, err := p.GasPrice(ctx)
	if err != nil {
		p.logger.Warn(ctx, "gas price unavailable, using default",
			"default_wei", p.cfg.DefaultGasPrice.String(), "error", err)
		return new(big.Int).Set(p.cfg.DefaultGasPrice)
	}
	return price
}

// CallContract performs an eth_call at the latest block.
func (p *Pool) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return call(ctx, p, "eth_call", func(ctx context.Context, c ChainClient) ([]byte, error) {
		return c.CallContract(ctx, msg, nil)
	})
}

// Close closes every client.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.slots {
		if s.client != nil {
			s.client.Close()
		}
	}
}
