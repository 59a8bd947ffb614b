package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	"github.com/fd1az/bsc-triarb/internal/logger"
)

const (
	tracerName = "github.com/fd1az/bsc-triarb/business/arbitrage"
	meterName  = "github.com/fd1az/bsc-triarb/business/arbitrage"
)

// EvaluatorConfig holds the profitability policy.
type EvaluatorConfig struct {
	GasLimit           uint64
	GasBuffer          decimal.Decimal
	MinProfitPct       decimal.Decimal
	FeeRefreshInterval time.Duration
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithEvaluatorClock replaces time.Now.
func WithEvaluatorClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) { e.now = now }
}

type evaluatorMetrics struct {
	evaluations metric.Int64Counter
	profitPct   metric.Float64Histogram
}

// Evaluator converts oracle output and gas into a common value unit and
// applies the profit threshold.
type Evaluator struct {
	cfg     EvaluatorConfig
	oracle  ProfitabilityOracle
	market  MarketData
	network NetworkMonitor
	logger  logger.LoggerInterface
	now     func() time.Time

	mu        sync.RWMutex
	fees      domain.FeeParameters
	haveFees  bool
	refreshMu sync.Mutex

	tracer  trace.Tracer
	metrics *evaluatorMetrics
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(cfg EvaluatorConfig, oracle ProfitabilityOracle, market MarketData, network NetworkMonitor, log logger.LoggerInterface, opts ...EvaluatorOption) (*Evaluator, error) {
	e := &Evaluator{
		cfg:     cfg,
		oracle:  oracle,
		market:  market,
		network: network,
		logger:  log,
		now:     time.Now,
		tracer:  otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(e)
	}

	if err := e.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return e, nil
}

func (e *Evaluator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	e.metrics = &evaluatorMetrics{}

	e.metrics.evaluations, err = meter.Int64Counter(
		"arbitrage_evaluations_total",
		metric.WithDescription("Candidate evaluations by outcome"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return err
	}

	e.metrics.profitPct, err = meter.Float64Histogram(
		"arbitrage_candidate_profit_pct",
		metric.WithDescription("Net profit percentage of evaluated candidates"),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(-5, -1, -0.5, 0, 0.25, 0.5, 1, 2, 5),
	)
	return err
}

// Evaluate prices a candidate. Failures yield a rejected result, never an error.
func (e *Evaluator) Evaluate(ctx context.Context, c *domain.Candidate) domain.ProfitabilityResult {
	ctx, span := e.tracer.Start(ctx, "arbitrage.evaluate", trace.WithAttributes(
		attribute.String("triple", c.Triple),
		attribute.Int("rotation", c.Rotation),
		attribute.String("direction", c.Direction.String()),
		attribute.String("amount_in", c.AmountIn.String()),
	))
	defer span.End()

	e.refreshIfStale(ctx)

	res := e.evaluate(ctx, c)

	outcome := "accepted"
	switch {
	case res.Reason != "" && !res.MeetsThreshold && res.LoanValue.IsZero():
		outcome = "failed"
	case !res.MeetsThreshold:
		outcome = "rejected"
	}
	e.metrics.evaluations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome != "failed" {
		e.metrics.profitPct.Record(ctx, res.ProfitPct.InexactFloat64())
	}
	span.SetAttributes(
		attribute.String("outcome", outcome),
		attribute.String("profit_pct", res.ProfitPct.StringFixed(4)),
	)
	if outcome == "failed" {
		span.SetStatus(codes.Error, res.Reason)
	}
	return res
}

func (e *Evaluator) evaluate(ctx context.Context, c *domain.Candidate) domain.ProfitabilityResult {
	start := c.Tokens[0]
	symbol := e.market.Symbol(start)

	quote, err := e.oracle.CheckProfitability(ctx, c.OracleParams(), c.AmountIn, c.Direction.StartsOnA())
	if err != nil {
		e.logger.Warn(ctx, "oracle rejected candidate", "candidate", c.String(), "error", err)
		return domain.Rejected("oracle call failed")
	}

	nativeRate := e.market.NativeRate(ctx)
	if !nativeRate.IsPositive() {
		e.logger.Warn(ctx, "native rate unavailable, candidate rejected", "candidate", c.String())
		return domain.Rejected("native rate unavailable")
	}
	gasPrice := e.network.GasPrice(ctx, e.cfg.GasBuffer)
	gas := domain.NewGasCost(e.cfg.GasLimit, gasPrice, nativeRate)

	loanValue := e.market.ToValue(ctx, start, c.AmountIn)
	if loanValue.IsZero() {
		e.logger.Warn(ctx, "start token unpriced, candidate rejected", "token", symbol, "candidate", c.String())
		return domain.Rejected("start token unpriced")
	}
	profitValue := decimal.Zero
	if quote.UserProfit != nil && quote.UserProfit.Sign() > 0 {
		profitValue = e.market.ToValue(ctx, start, quote.UserProfit)
	}

	res := domain.ComputeProfitability(profitValue, gas.Value, loanValue, e.cfg.MinProfitPct)
	res.Quote = quote
	res.GasCost = gas
	if fees, ok := e.FeeParameters(); ok {
		res.EstimatedSwapFee = fees.EstimateSwapFee(loanValue, c.Direction)
	}

	kv := []any{
		"triple", c.Triple,
		"rotation", c.Rotation,
		"direction", c.Direction.String(),
		"token", symbol,
		"loan_value", loanValue.StringFixed(2),
		"profit_value", profitValue.StringFixed(4),
		"gas_value", gas.Value.StringFixed(4),
		"profit_pct", res.ProfitPct.StringFixed(4),
	}
	if res.MeetsThreshold {
		e.logger.Info(ctx, "candidate accepted", kv...)
	} else {
		e.logger.Debug(ctx, "candidate below threshold", kv...)
	}
	return res
}

// FeeParameters returns the cached fee parameters, if any were ever read.
func (e *Evaluator) FeeParameters() (domain.FeeParameters, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fees, e.haveFees
}

// RefreshFees reads fee parameters from the oracle. On failure the previous
// values are kept.
func (e *Evaluator) RefreshFees(ctx context.Context) error {
	fees, err := e.oracle.FeeParameters(ctx)
	if err != nil {
		e.logger.Warn(ctx, "fee parameter refresh failed, keeping previous values", "error", err)
		return err
	}
	fees.FetchedAt = e.now()

	e.mu.Lock()
	e.fees = fees
	e.haveFees = true
	e.mu.Unlock()

	e.logger.Info(ctx, "fee parameters refreshed",
		"fee_a", fees.A.Rate().String(),
		"fee_b", fees.B.Rate().String())
	return nil
}

func (e *Evaluator) refreshIfStale(ctx context.Context) {
	if e.cfg.FeeRefreshInterval <= 0 {
		return
	}
	fees, ok := e.FeeParameters()
	if ok && e.now().Sub(fees.FetchedAt) < e.cfg.FeeRefreshInterval {
		return
	}
	if !e.refreshMu.TryLock() {
		return
	}
	defer e.refreshMu.Unlock()
	_ = e.RefreshFees(ctx)
}
