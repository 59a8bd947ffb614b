package app_test

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/bsc-triarb/business/arbitrage/app"
	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	mdDomain "github.com/fd1az/bsc-triarb/business/marketdata/domain"
	netDomain "github.com/fd1az/bsc-triarb/business/network/domain"
	poolDomain "github.com/fd1az/bsc-triarb/business/rpcpool/domain"
	"github.com/fd1az/bsc-triarb/internal/apperror"
	"github.com/fd1az/bsc-triarb/internal/asset"
)

var (
	tokX = common.HexToAddress("0x1000000000000000000000000000000000000001")
	tokY = common.HexToAddress("0x1000000000000000000000000000000000000002")
	tokZ = common.HexToAddress("0x1000000000000000000000000000000000000003")
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func e16(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e16))
}

func testTriple(name string, priority int, amounts ...int64) domain.TokenTriple {
	t := domain.TokenTriple{
		Name:     name,
		Tokens:   [3]common.Address{tokX, tokY, tokZ},
		PairsA:   [3]common.Address{common.HexToAddress("0xA1"), common.HexToAddress("0xA2"), common.HexToAddress("0xA3")},
		PairsB:   [3]common.Address{common.HexToAddress("0xB1"), common.HexToAddress("0xB2"), common.HexToAddress("0xB3")},
		Priority: priority,
	}
	for _, a := range amounts {
		t.Amounts = append(t.Amounts, decimal.NewFromInt(a))
	}
	return t
}

// fakeMarket prices every token at a fixed value and returns scripted cycle
// outputs.
type fakeMarket struct {
	mu         sync.Mutex
	tokens     map[common.Address]*asset.Asset
	prices     map[common.Address]decimal.Decimal
	nativeRate decimal.Decimal
	unitOut    map[mdDomain.Exchange]*big.Int
	cycle      func(venues [3]mdDomain.Exchange, amountIn *big.Int) ([3]*big.Int, error)
	cycleCalls int
}

func newFakeMarket() *fakeMarket {
	m := &fakeMarket{
		tokens:     map[common.Address]*asset.Asset{},
		prices:     map[common.Address]decimal.Decimal{},
		nativeRate: decimal.NewFromInt(500),
		unitOut: map[mdDomain.Exchange]*big.Int{
			mdDomain.ExchangeA: e18(1),
			mdDomain.ExchangeB: e18(1),
		},
	}
	for i, addr := range []common.Address{tokX, tokY, tokZ} {
		m.tokens[addr] = asset.NewToken(asset.ChainIDBSC, addr, []string{"XXX", "YYY", "ZZZ"}[i], "", 18)
		m.prices[addr] = decimal.NewFromInt(1)
	}
	// 1% gain per hop by default.
	m.cycle = func(_ [3]mdDomain.Exchange, amountIn *big.Int) ([3]*big.Int, error) {
		var outs [3]*big.Int
		cur := amountIn
		for i := range outs {
			next := new(big.Int).Mul(cur, big.NewInt(101))
			outs[i] = next.Quo(next, big.NewInt(100))
			cur = outs[i]
		}
		return outs, nil
	}
	return m
}

func (m *fakeMarket) QuoteCycle(_ context.Context, venues [3]mdDomain.Exchange, amountIn *big.Int, _ [3]common.Address) ([3]*big.Int, error) {
	m.mu.Lock()
	m.cycleCalls++
	m.mu.Unlock()
	return m.cycle(venues, amountIn)
}

func (m *fakeMarket) QuoteTriangularCycle(_ context.Context, ex mdDomain.Exchange, _ *big.Int, _ [3]common.Address) (*big.Int, error) {
	out, ok := m.unitOut[ex]
	if !ok {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity)
	}
	return out, nil
}

func (m *fakeMarket) Token(addr common.Address) (*asset.Asset, bool) {
	t, ok := m.tokens[addr]
	return t, ok
}

func (m *fakeMarket) Symbol(addr common.Address) string {
	if t, ok := m.tokens[addr]; ok {
		return t.Symbol()
	}
	return addr.Hex()
}

func (m *fakeMarket) ToValue(_ context.Context, token common.Address, raw *big.Int) decimal.Decimal {
	t, ok := m.tokens[token]
	price, priced := m.prices[token]
	if !ok || !priced || raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(t.Decimals())).Mul(price)
}

func (m *fakeMarket) NativeRate(context.Context) decimal.Decimal { return m.nativeRate }

func (m *fakeMarket) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cycleCalls
}

type fakeNetwork struct {
	ready    bool
	gasPrice *big.Int
}

func (n *fakeNetwork) IsReadyForArbitrage(context.Context) bool { return n.ready }

func (n *fakeNetwork) GasPrice(context.Context, decimal.Decimal) *big.Int { return n.gasPrice }

func (n *fakeNetwork) Health() netDomain.Health {
	return netDomain.Health{Healthy: n.ready, GasPrice: n.gasPrice}
}

// scriptedOracle returns a fixed quote and counts fee reads.
type scriptedOracle struct {
	mu        sync.Mutex
	quote     domain.OracleQuote
	quoteErr  error
	fees      domain.FeeParameters
	feesErr   error
	feeCalls  int
	paused    bool
	pausedErr error
}

func (o *scriptedOracle) CheckProfitability(context.Context, domain.OracleParams, *big.Int, bool) (domain.OracleQuote, error) {
	return o.quote, o.quoteErr
}

func (o *scriptedOracle) FeeParameters(context.Context) (domain.FeeParameters, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.feeCalls++
	return o.fees, o.feesErr
}

func (o *scriptedOracle) Paused(context.Context) (bool, error) { return o.paused, o.pausedErr }

// pctEvaluator accepts or rejects candidates by a percentage derived from
// the candidate itself.
type pctEvaluator struct {
	mu         sync.Mutex
	min        decimal.Decimal
	pct        func(c *domain.Candidate) decimal.Decimal
	candidates []domain.Candidate
}

func (e *pctEvaluator) Evaluate(_ context.Context, c *domain.Candidate) domain.ProfitabilityResult {
	e.mu.Lock()
	e.candidates = append(e.candidates, *c)
	e.mu.Unlock()

	pct := decimal.NewFromInt(1)
	if e.pct != nil {
		pct = e.pct(c)
	}
	loan := decimal.NewFromInt(1000)
	return domain.ComputeProfitability(loan.Mul(pct).Div(decimal.NewFromInt(100)), decimal.Zero, loan, e.min)
}

func (e *pctEvaluator) seen() []domain.Candidate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Candidate(nil), e.candidates...)
}

type fakeScanner struct {
	mu      sync.Mutex
	calls   int
	triples [][]domain.TokenTriple
	result  app.ScanResult
	started chan struct{}
	release chan struct{}
}

func (s *fakeScanner) Scan(_ context.Context, triples []domain.TokenTriple) app.ScanResult {
	s.mu.Lock()
	s.calls++
	s.triples = append(s.triples, triples)
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	out := app.ScanResult{Evaluated: s.result.Evaluated}
	out.Opportunities = append(out.Opportunities, s.result.Opportunities...)
	return out
}

func (s *fakeScanner) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingReporter struct {
	mu      sync.Mutex
	reports []*domain.CycleReport
	status  int
}

func (r *recordingReporter) Start(context.Context) error { return nil }

func (r *recordingReporter) Report(_ context.Context, report *domain.CycleReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
}

func (r *recordingReporter) UpdateConnectionStatus([]poolDomain.Status, netDomain.Health) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status++
}

func (r *recordingReporter) Stop() error { return nil }

func (r *recordingReporter) all() []*domain.CycleReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.CycleReport(nil), r.reports...)
}

type staticEndpoints []poolDomain.Status

func (s staticEndpoints) Snapshot() []poolDomain.Status { return s }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
