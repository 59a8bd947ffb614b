package app

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/bsc-triarb/business/marketdata/domain"
	"github.com/fd1az/bsc-triarb/internal/apperror"
	"github.com/fd1az/bsc-triarb/internal/asset"
	"github.com/fd1az/bsc-triarb/internal/cache"
	"github.com/fd1az/bsc-triarb/internal/logger"
)

const (
	tracerName = "github.com/fd1az/bsc-triarb/business/marketdata"
	meterName  = "github.com/fd1az/bsc-triarb/business/marketdata"
)

// Config holds the venues and pricing anchors.
type Config struct {
	VenueA           domain.Venue
	VenueB           domain.Venue
	Native           common.Address
	Stables          []common.Address
	PriceTTL         time.Duration
	NativeRateMaxAge time.Duration
	QuoteTimeout     time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithReferenceSource sets the off-chain fallback for the native rate.
func WithReferenceSource(ref ReferenceRateSource) Option {
	return func(s *Service) { s.reference = ref }
}

type serviceMetrics struct {
	quotes      metric.Int64Counter
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
	nativeRate  metric.Float64Gauge
}

// Service answers swap simulations and value-unit prices for both venues.
type Service struct {
	cfg       Config
	quoter    RouterQuoter
	metadata  TokenMetadataReader
	reference ReferenceRateSource
	registry  *asset.Registry
	logger    logger.LoggerInterface
	now       func() time.Time

	stables map[common.Address]bool
	prices  *cache.Cache[common.Address, asset.Price]

	tracer  trace.Tracer
	metrics *serviceMetrics
}

// NewService creates the market data service.
func NewService(cfg Config, quoter RouterQuoter, metadata TokenMetadataReader, registry *asset.Registry, log logger.LoggerInterface, opts ...Option) (*Service, error) {
	if len(cfg.Stables) == 0 {
		return nil, apperror.Validation(apperror.CodeConfigurationError, "at least one stable token is required")
	}

	s := &Service{
		cfg:      cfg,
		quoter:   quoter,
		metadata: metadata,
		registry: registry,
		logger:   log,
		now:      time.Now,
		stables:  make(map[common.Address]bool, len(cfg.Stables)),
		prices:   cache.New[common.Address, asset.Price](10 * time.Minute),
		tracer:   otel.Tracer(tracerName),
	}
	for _, st := range cfg.Stables {
		s.stables[st] = true
	}
	for _, o := range opts {
		o(s)
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return s, nil
}

func (s *Service) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &serviceMetrics{}

	s.metrics.quotes, err = meter.Int64Counter(
		"marketdata_quotes_total",
		metric.WithDescription("Router quotes by venue and outcome"),
		metric.WithUnit("{quote}"),
	)
	if err != nil {
		return err
	}

	s.metrics.cacheHits, err = meter.Int64Counter(
		"marketdata_price_cache_hits_total",
		metric.WithDescription("Value-unit price cache hits"),
	)
	if err != nil {
		return err
	}

	s.metrics.cacheMisses, err = meter.Int64Counter(
		"marketdata_price_cache_misses_total",
		metric.WithDescription("Value-unit price cache misses"),
	)
	if err != nil {
		return err
	}

	s.metrics.nativeRate, err = meter.Float64Gauge(
		"marketdata_native_rate",
		metric.WithDescription("Native asset rate in the value unit"),
	)
	return err
}

// Venue returns the venue bound to ex.
func (s *Service) Venue(ex domain.Exchange) domain.Venue {
	if ex == domain.ExchangeA {
		return s.cfg.VenueA
	}
	return s.cfg.VenueB
}

// QuoteRoute simulates a multi-hop swap along path on one venue and returns
// every intermediate amount.
func (s *Service) QuoteRoute(ctx context.Context, ex domain.Exchange, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, apperror.Validation(apperror.CodeInvalidQuote, "amount in must be positive")
	}
	if len(path) < 2 {
		return nil, apperror.Validation(apperror.CodeInvalidQuote, "path needs at least two tokens")
	}

	venue := s.Venue(ex)
	if s.cfg.QuoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QuoteTimeout)
		defer cancel()
	}

	amounts, err := s.quoter.GetAmountsOut(ctx, venue.Router, amountIn, path)
	outcome := "ok"
	defer func() {
		s.metrics.quotes.Add(ctx, 1, metric.WithAttributes(
			attribute.String("venue", venue.Name),
			attribute.String("outcome", outcome)))
	}()

	if err != nil {
		outcome = "error"
		return nil, err
	}
	if len(amounts) < len(path) {
		outcome = "short"
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContextf("%s returned %d amounts for %d tokens", venue.Name, len(amounts), len(path)))
	}
	for _, a := range amounts[1:] {
		if a == nil || a.Sign() <= 0 {
			outcome = "empty"
			return nil, apperror.New(apperror.CodeInsufficientLiquidity,
				apperror.WithContextf("%s returned a zero output", venue.Name))
		}
	}
	return amounts, nil
}

// QuoteHop simulates one swap.
func (s *Service) QuoteHop(ctx context.Context, ex domain.Exchange, amountIn *big.Int, tokenIn, tokenOut common.Address) (domain.Quote, error) {
	amounts, err := s.QuoteRoute(ctx, ex, amountIn, []common.Address{tokenIn, tokenOut})
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.Quote{
		Exchange:  ex,
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		AmountIn:  amountIn,
		AmountOut: amounts[len(amounts)-1],
	}, nil
}

// QuoteCycle runs the three hops tokens[0]→tokens[1]→tokens[2]→tokens[0]
// sequentially, hop i on venues[i], each output feeding the next.
func (s *Service) QuoteCycle(ctx context.Context, venues [3]domain.Exchange, amountIn *big.Int, tokens [3]common.Address) ([3]*big.Int, error) {
	var outs [3]*big.Int
	in := amountIn
	for i := 0; i < 3; i++ {
		q, err := s.QuoteHop(ctx, venues[i], in, tokens[i], tokens[(i+1)%3])
		if err != nil {
			return outs, fmt.Errorf("hop %d on %s: %w", i+1, s.Venue(venues[i]).Name, err)
		}
		outs[i] = q.AmountOut
		in = q.AmountOut
	}
	return outs, nil
}

// QuoteTriangularCycle runs the full cycle on a single venue and returns the
// final amount of tokens[0].
func (s *Service) QuoteTriangularCycle(ctx context.Context, ex domain.Exchange, amountIn *big.Int, tokens [3]common.Address) (*big.Int, error) {
	ctx, span := s.tracer.Start(ctx, "marketdata.quote_cycle", trace.WithAttributes(
		attribute.String("venue", s.Venue(ex).Name),
		attribute.String("amount_in", amountIn.String()),
	))
	defer span.End()

	outs, err := s.QuoteCycle(ctx, [3]domain.Exchange{ex, ex, ex}, amountIn, tokens)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cycle quote failed")
		return nil, err
	}
	return outs[2], nil
}

// Token returns the registered asset for addr.
func (s *Service) Token(addr common.Address) (*asset.Asset, bool) {
	return s.registry.Token(addr)
}

// Symbol returns a display symbol for addr.
func (s *Service) Symbol(addr common.Address) string {
	return s.registry.Symbol(addr)
}

// IsStable reports whether addr is valued at exactly one value unit.
func (s *Service) IsStable(addr common.Address) bool {
	return s.stables[addr]
}

// LoadTokens resolves metadata for every address the registry does not know.
// Failures, including metadata the registry cannot hold, are collected and
// logged; tokens that resolved are registered regardless.
func (s *Service) LoadTokens(ctx context.Context, addrs []common.Address) error {
	var errs []error
	seen := make(map[common.Address]bool, len(addrs))
	for _, addr := range addrs {
		if seen[addr] || s.registry.Has(addr) {
			continue
		}
		seen[addr] = true

		md, err := s.metadata.Metadata(ctx, addr)
		if err == nil && (md.Symbol == "" || md.Decimals > asset.MaxDecimals) {
			err = fmt.Errorf("unsupported metadata: symbol %q, decimals %d", md.Symbol, md.Decimals)
		}
		if err != nil {
			s.logger.Warn(ctx, "token skipped", "address", addr.Hex(), "error", err)
			errs = append(errs, apperror.New(apperror.CodeTokenMetadataFailed,
				apperror.WithContext(addr.Hex()), apperror.WithCause(err)))
			continue
		}
		s.registry.Register(asset.NewToken(s.registry.ChainID(), addr, md.Symbol, md.Name, md.Decimals))
		s.logger.Info(ctx, "token registered", "address", addr.Hex(), "symbol", md.Symbol, "decimals", md.Decimals)
	}
	return errors.Join(errs...)
}

// PriceInValueUnit returns the value-unit price of one whole token. Zero means
// the token could not be priced.
func (s *Service) PriceInValueUnit(ctx context.Context, token common.Address) decimal.Decimal {
	if s.IsStable(token) {
		return decimal.NewFromInt(1)
	}
	if token == s.cfg.Native {
		return s.NativeRate(ctx)
	}

	now := s.now()
	if p, ok := s.prices.Get(ctx, token); ok && !p.IsStale(now, s.cfg.PriceTTL) {
		s.metrics.cacheHits.Add(ctx, 1)
		return p.Rate()
	}
	s.metrics.cacheMisses.Add(ctx, 1)

	tok, ok := s.registry.Token(token)
	if !ok {
		s.logger.Warn(ctx, "cannot price unregistered token", "token", token.Hex())
		return decimal.Zero
	}

	rate, err := s.quoteToStable(ctx, tok, []common.Address{token}, []common.Address{token, s.cfg.Native})
	if err != nil {
		s.logger.Warn(ctx, "token unpriced", "token", tok.Symbol(), "error", err)
		return decimal.Zero
	}

	s.prices.Set(ctx, token, asset.NewPrice(tok, rate, now), s.cfg.PriceTTL)
	return rate
}

// NativeRate returns the native asset's value-unit rate, refreshed when older
// than NativeRateMaxAge. Refresh tries the chain, then the reference source,
// then falls back to the last known rate.
func (s *Service) NativeRate(ctx context.Context) decimal.Decimal {
	now := s.now()
	cached, haveCached := s.prices.Get(ctx, s.cfg.Native)
	if haveCached && !cached.IsStale(now, s.cfg.NativeRateMaxAge) {
		return cached.Rate()
	}

	ctx, span := s.tracer.Start(ctx, "marketdata.native_rate")
	defer span.End()

	native, ok := s.registry.Token(s.cfg.Native)
	if !ok {
		native = asset.WBNB
	}

	rate, err := s.quoteToStable(ctx, native, []common.Address{s.cfg.Native})
	source := "chain"
	if err != nil && s.reference != nil {
		s.logger.Warn(ctx, "on-chain native rate failed, using reference", "error", err)
		rate, err = s.reference.NativeRate(ctx)
		source = "reference"
	}
	if err != nil || !rate.IsPositive() {
		span.SetStatus(codes.Error, "native rate unavailable")
		if haveCached {
			s.logger.Warn(ctx, "native rate refresh failed, using stale value",
				"rate", cached.Rate().String(), "age", cached.Age(now).String(), "error", err)
			return cached.Rate()
		}
		s.logger.Error(ctx, "native rate unavailable", "error", err)
		return decimal.Zero
	}

	s.prices.Set(ctx, s.cfg.Native, asset.NewPrice(native, rate, now), 0)
	f, _ := rate.Float64()
	s.metrics.nativeRate.Record(ctx, f)
	span.SetAttributes(attribute.String("source", source), attribute.String("rate", rate.String()))
	return rate
}

// quoteToStable prices one whole unit of tok in the first stable. Each prefix
// is tried as a route ending in the stable, on A then B.
func (s *Service) quoteToStable(ctx context.Context, tok *asset.Asset, prefixes ...[]common.Address) (decimal.Decimal, error) {
	stable := s.cfg.Stables[0]
	stableDecimals := int32(18)
	if st, ok := s.registry.Token(stable); ok {
		stableDecimals = int32(st.Decimals())
	}

	unit := asset.OneUnit(tok).Raw()
	var lastErr error
	for _, ex := range []domain.Exchange{domain.ExchangeA, domain.ExchangeB} {
		for _, prefix := range prefixes {
			path := append(append([]common.Address(nil), prefix...), stable)
			amounts, err := s.QuoteRoute(ctx, ex, unit, path)
			if err != nil {
				lastErr = err
				continue
			}
			return decimal.NewFromBigInt(amounts[len(amounts)-1], -stableDecimals), nil
		}
	}
	return decimal.Zero, apperror.New(apperror.CodeUnpricedToken,
		apperror.WithContext(tok.Symbol()), apperror.WithCause(lastErr))
}

// ToValue converts raw base units of token into the value unit. Zero when the
// token is unknown or unpriced.
func (s *Service) ToValue(ctx context.Context, token common.Address, raw *big.Int) decimal.Decimal {
	tok, ok := s.registry.Token(token)
	if !ok || raw == nil {
		return decimal.Zero
	}
	price := s.PriceInValueUnit(ctx, token)
	if price.IsZero() {
		return decimal.Zero
	}
	return asset.NewAmount(tok, raw).ToDecimal().Mul(price)
}

// Close releases the price cache.
func (s *Service) Close() {
	s.prices.Close()
}
