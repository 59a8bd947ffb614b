package app

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	"github.com/fd1az/bsc-triarb/internal/asset"
	"github.com/fd1az/bsc-triarb/internal/logger"
)

// DirectionPolicy decides which directions a rotation is evaluated in.
type DirectionPolicy string

const (
	// PolicyGap evaluates both base directions, reversing each when the
	// unit-input price gap reaches the threshold.
	PolicyGap DirectionPolicy = "gap"
	// PolicyBoth evaluates both directions as-is and keeps the better one.
	PolicyBoth DirectionPolicy = "both"
)

// ParseDirectionPolicy maps a config value to a policy. Unknown values fall
// back to PolicyGap.
func ParseDirectionPolicy(s string) DirectionPolicy {
	if DirectionPolicy(s) == PolicyBoth {
		return PolicyBoth
	}
	return PolicyGap
}

// ScannerConfig tunes the scan.
type ScannerConfig struct {
	GapThreshold decimal.Decimal
	SlippageBps  int64
	Policy       DirectionPolicy
	Concurrency  int
}

// ScanResult is the flat outcome of scanning a set of triples.
type ScanResult struct {
	Opportunities []domain.Opportunity
	Evaluated     int
}

// Scanner enumerates rotations and directions, sweeps candidate amounts and
// keeps the best accepted candidate per rotation and direction.
type Scanner struct {
	cfg       ScannerConfig
	market    MarketData
	evaluator CandidateEvaluator
	logger    logger.LoggerInterface
	now       func() time.Time
	tracer    trace.Tracer
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithScannerClock replaces time.Now.
func WithScannerClock(now func() time.Time) ScannerOption {
	return func(s *Scanner) { s.now = now }
}

// NewScanner creates a Scanner.
func NewScanner(cfg ScannerConfig, market MarketData, evaluator CandidateEvaluator, log logger.LoggerInterface, opts ...ScannerOption) *Scanner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyGap
	}
	s := &Scanner{
		cfg:       cfg,
		market:    market,
		evaluator: evaluator,
		logger:    log,
		now:       time.Now,
		tracer:    otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type tripleResult struct {
	opps      []domain.Opportunity
	evaluated int
}

// Scan never fails: per-candidate problems are logged and discarded. Output
// keeps triple order.
func (s *Scanner) Scan(ctx context.Context, triples []domain.TokenTriple) ScanResult {
	ctx, span := s.tracer.Start(ctx, "arbitrage.scan", trace.WithAttributes(
		attribute.Int("triples", len(triples)),
		attribute.String("policy", string(s.cfg.Policy)),
	))
	defer span.End()

	results := make([]tripleResult, len(triples))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, t := range triples {
		g.Go(func() error {
			results[i] = s.scanTriple(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	var out ScanResult
	for _, r := range results {
		out.Opportunities = append(out.Opportunities, r.opps...)
		out.Evaluated += r.evaluated
	}
	span.SetAttributes(
		attribute.Int("evaluated", out.Evaluated),
		attribute.Int("accepted", len(out.Opportunities)),
	)
	return out
}

func (s *Scanner) scanTriple(ctx context.Context, t domain.TokenTriple) tripleResult {
	var res tripleResult
	for _, rot := range t.Rotations() {
		if ctx.Err() != nil {
			return res
		}
		opps, n := s.scanRotation(ctx, t, rot)
		res.opps = append(res.opps, opps...)
		res.evaluated += n
	}
	return res
}

func (s *Scanner) scanRotation(ctx context.Context, t domain.TokenTriple, rot domain.Rotation) ([]domain.Opportunity, int) {
	start, ok := s.market.Token(rot.Start())
	if !ok {
		s.logger.Warn(ctx, "start token metadata missing, rotation skipped",
			"triple", t.Name, "rotation", rot.Index, "token", rot.Start().Hex())
		return nil, 0
	}

	if s.cfg.Policy == PolicyBoth {
		var best *domain.Opportunity
		evaluated := 0
		for _, d := range domain.Directions {
			opp, n := s.sweep(ctx, t, rot, start, d, d, decimal.Zero)
			evaluated += n
			if opp != nil && (best == nil || opp.ProfitPct().GreaterThan(best.ProfitPct())) {
				best = opp
			}
		}
		if best == nil {
			return nil, evaluated
		}
		return []domain.Opportunity{*best}, evaluated
	}

	gap := s.PriceGap(ctx, rot, start)
	reverse := domain.ShouldReverse(gap, s.cfg.GapThreshold)
	if reverse {
		s.logger.Debug(ctx, "price gap reverses direction",
			"triple", t.Name, "rotation", rot.Index, "gap_pct", gap.StringFixed(2))
	}

	var opps []domain.Opportunity
	evaluated := 0
	for _, requested := range domain.Directions {
		d := requested
		if reverse {
			d = requested.Reverse()
		}
		opp, n := s.sweep(ctx, t, rot, start, requested, d, gap)
		evaluated += n
		if opp != nil {
			opps = append(opps, *opp)
		}
	}
	return opps, evaluated
}

// PriceGap quotes a unit of the rotation's start token around the full cycle
// on each exchange alone and returns the relative gap in percent.
func (s *Scanner) PriceGap(ctx context.Context, rot domain.Rotation, start *asset.Asset) decimal.Decimal {
	unit := asset.OneUnit(start).Raw()
	pA, errA := s.market.QuoteTriangularCycle(ctx, domain.DirectionStartOnA.Start(), unit, rot.Tokens)
	pB, errB := s.market.QuoteTriangularCycle(ctx, domain.DirectionStartOnB.Start(), unit, rot.Tokens)
	if errA != nil || errB != nil {
		return decimal.Zero
	}
	return domain.PriceGap(pA, pB)
}

// sweep evaluates every configured amount in direction d and returns the
// highest percentage candidate when it meets the threshold.
func (s *Scanner) sweep(ctx context.Context, t domain.TokenTriple, rot domain.Rotation, start *asset.Asset, requested, d domain.Direction, gap decimal.Decimal) (*domain.Opportunity, int) {
	flashPair := rot.FlashPair(d)
	if flashPair == (common.Address{}) {
		s.logger.Warn(ctx, "no flash pair configured, rotation skipped",
			"triple", t.Name, "rotation", rot.Index, "direction", d.String())
		return nil, 0
	}

	symbols := s.symbols(rot)
	hops := rot.Hops(d)

	var (
		best      *domain.Candidate
		bestRes   domain.ProfitabilityResult
		bestAmt   decimal.Decimal
		evaluated int
	)
	for _, amt := range t.Amounts {
		if ctx.Err() != nil {
			break
		}
		amountIn := toRaw(amt, start.Decimals())
		outs, err := s.market.QuoteCycle(ctx, d.Venues(), amountIn, rot.Tokens)
		if err != nil {
			s.logger.Debug(ctx, "amount infeasible",
				"triple", t.Name, "rotation", rot.Index, "direction", d.String(),
				"amount", amt.String(), "token", symbols[0], "error", err)
			continue
		}

		c := &domain.Candidate{
			Triple:     t.Name,
			Rotation:   rot.Index,
			Tokens:     rot.Tokens,
			Direction:  d,
			Requested:  requested,
			Gap:        gap,
			FlashPair:  flashPair,
			Hops:       hops,
			AmountIn:   amountIn,
			Outputs:    outs,
			MinOutputs: domain.MinimumOutputs(outs, s.cfg.SlippageBps),
		}
		if err := c.Validate(); err != nil {
			s.logger.Warn(ctx, "candidate discarded", "candidate", c.String(), "error", err)
			continue
		}

		res := s.evaluator.Evaluate(ctx, c)
		evaluated++
		if res.LoanValue.IsZero() {
			continue
		}
		if best == nil || res.ProfitPct.GreaterThan(bestRes.ProfitPct) {
			best, bestRes, bestAmt = c, res, amt
		}
	}

	if best == nil {
		return nil, evaluated
	}
	if !bestRes.MeetsThreshold {
		s.logger.Info(ctx, "best candidate below threshold",
			"triple", t.Name, "rotation", rot.Index, "direction", d.String(),
			"amount", bestAmt.String(), "token", symbols[0],
			"profit_pct", bestRes.ProfitPct.StringFixed(4))
		return nil, evaluated
	}

	opp := &domain.Opportunity{
		ID:         uuid.NewString(),
		DetectedAt: s.now(),
		Candidate:  *best,
		Symbols:    symbols,
		LoanAmount: bestAmt,
		Profit:     bestRes,
	}
	s.logger.Info(ctx, "opportunity found",
		"id", opp.ID,
		"route", opp.Route(),
		"direction", d.String(),
		"reversed", best.Reversed(),
		"amount", fmt.Sprintf("%s %s", bestAmt.String(), symbols[0]),
		"profit_pct", bestRes.ProfitPct.StringFixed(4))
	return opp, evaluated
}

func (s *Scanner) symbols(rot domain.Rotation) [3]string {
	return [3]string{
		s.market.Symbol(rot.Tokens[0]),
		s.market.Symbol(rot.Tokens[1]),
		s.market.Symbol(rot.Tokens[2]),
	}
}

func toRaw(amount decimal.Decimal, decimals uint8) *big.Int {
	return amount.Shift(int32(decimals)).BigInt()
}
