package app_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/bsc-triarb/business/marketdata/app"
	"github.com/fd1az/bsc-triarb/business/marketdata/domain"
	"github.com/fd1az/bsc-triarb/internal/apperror"
	"github.com/fd1az/bsc-triarb/internal/asset"
	"github.com/fd1az/bsc-triarb/internal/logger"
)

var (
	routerA = common.HexToAddress("0xA0")
	routerB = common.HexToAddress("0xB0")
)

type edge struct {
	router  common.Address
	in, out common.Address
}

// rateQuoter prices every hop as amount*num/den; unknown edges revert.
type rateQuoter struct {
	rates map[edge][2]int64
	calls int
}

func newRateQuoter() *rateQuoter {
	return &rateQuoter{rates: map[edge][2]int64{}}
}

func (q *rateQuoter) set(router, in, out common.Address, num, den int64) {
	q.rates[edge{router, in, out}] = [2]int64{num, den}
}

func (q *rateQuoter) GetAmountsOut(_ context.Context, router common.Address, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	q.calls++
	amounts := []*big.Int{new(big.Int).Set(amountIn)}
	cur := amountIn
	for i := 0; i+1 < len(path); i++ {
		r, ok := q.rates[edge{router, path[i], path[i+1]}]
		if !ok {
			return nil, apperror.New(apperror.CodeInsufficientLiquidity)
		}
		next := new(big.Int).Mul(cur, big.NewInt(r[0]))
		next.Quo(next, big.NewInt(r[1]))
		amounts = append(amounts, next)
		cur = next
	}
	return amounts, nil
}

type fakeMetadata map[common.Address]domain.TokenMetadata

func (f fakeMetadata) Metadata(_ context.Context, token common.Address) (domain.TokenMetadata, error) {
	md, ok := f[token]
	if !ok {
		return domain.TokenMetadata{}, errors.New("execution reverted")
	}
	return md, nil
}

type fakeReference struct {
	rate decimal.Decimal
	err  error
}

func (f *fakeReference) NativeRate(context.Context) (decimal.Decimal, error) {
	return f.rate, f.err
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(t *testing.T, q app.RouterQuoter, opts ...app.Option) *app.Service {
	t.Helper()
	cfg := app.Config{
		VenueA:           domain.Venue{Exchange: domain.ExchangeA, Name: "PancakeSwap", Router: routerA},
		VenueB:           domain.Venue{Exchange: domain.ExchangeB, Name: "Biswap", Router: routerB},
		Native:           asset.AddrWBNB,
		Stables:          []common.Address{asset.AddrBUSD, asset.AddrUSDT},
		PriceTTL:         5 * time.Minute,
		NativeRateMaxAge: 10 * time.Minute,
	}
	svc, err := app.NewService(cfg, q, fakeMetadata{}, asset.DefaultRegistry(), logger.Discard(), opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func TestQuoteCycle_AlternatesVenues(t *testing.T) {
	q := newRateQuoter()
	q.set(routerA, asset.AddrWBNB, asset.AddrBUSD, 600, 1)
	q.set(routerB, asset.AddrBUSD, asset.AddrCAKE, 2, 5)
	q.set(routerA, asset.AddrCAKE, asset.AddrWBNB, 1, 239)
	svc := newService(t, q)

	tokens := [3]common.Address{asset.AddrWBNB, asset.AddrBUSD, asset.AddrCAKE}
	venues := [3]domain.Exchange{domain.ExchangeA, domain.ExchangeB, domain.ExchangeA}
	outs, err := svc.QuoteCycle(context.Background(), venues, big.NewInt(1e18), tokens)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"600000000000000000000", "240000000000000000000", "1004184100418410041"}
	for i, w := range want {
		if outs[i].String() != w {
			t.Errorf("hop %d: expected %s, got %s", i+1, w, outs[i])
		}
	}
}

func TestQuoteCycle_MissingPoolFails(t *testing.T) {
	q := newRateQuoter()
	q.set(routerA, asset.AddrWBNB, asset.AddrBUSD, 600, 1)
	svc := newService(t, q)

	tokens := [3]common.Address{asset.AddrWBNB, asset.AddrBUSD, asset.AddrCAKE}
	_, err := svc.QuoteTriangularCycle(context.Background(), domain.ExchangeA, big.NewInt(1e18), tokens)
	if !apperror.HasCode(err, apperror.CodeInsufficientLiquidity) {
		t.Errorf("expected insufficient liquidity, got %v", err)
	}
}

func TestQuoteRoute_Validation(t *testing.T) {
	q := newRateQuoter()
	q.set(routerA, asset.AddrWBNB, asset.AddrBUSD, 0, 1)
	svc := newService(t, q)
	ctx := context.Background()

	tests := []struct {
		name   string
		amount *big.Int
		path   []common.Address
		code   apperror.Code
	}{
		{name: "zero amount", amount: big.NewInt(0), path: []common.Address{asset.AddrWBNB, asset.AddrBUSD}, code: apperror.CodeInvalidQuote},
		{name: "short path", amount: big.NewInt(1), path: []common.Address{asset.AddrWBNB}, code: apperror.CodeInvalidQuote},
		{name: "zero output", amount: big.NewInt(1e18), path: []common.Address{asset.AddrWBNB, asset.AddrBUSD}, code: apperror.CodeInsufficientLiquidity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.QuoteRoute(ctx, domain.ExchangeA, tt.amount, tt.path)
			if !apperror.HasCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestPriceInValueUnit(t *testing.T) {
	q := newRateQuoter()
	q.set(routerA, asset.AddrWBNB, asset.AddrBUSD, 600, 1)
	q.set(routerA, asset.AddrCAKE, asset.AddrBUSD, 5, 2)
	q.set(routerB, asset.AddrBSW, asset.AddrWBNB, 1, 100)
	q.set(routerB, asset.AddrWBNB, asset.AddrBUSD, 600, 1)
	svc := newService(t, q)
	ctx := context.Background()

	tests := []struct {
		name  string
		token common.Address
		want  string
	}{
		{name: "stable", token: asset.AddrUSDT, want: "1"},
		{name: "native", token: asset.AddrWBNB, want: "600"},
		{name: "direct pool", token: asset.AddrCAKE, want: "2.5"},
		{name: "via native on B", token: asset.AddrBSW, want: "6"},
		{name: "unpriced", token: asset.AddrETH, want: "0"},
		{name: "unregistered", token: common.HexToAddress("0x1234"), want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.PriceInValueUnit(ctx, tt.token)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestPriceInValueUnit_Cached(t *testing.T) {
	q := newRateQuoter()
	q.set(routerA, asset.AddrCAKE, asset.AddrBUSD, 5, 2)
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := newService(t, q, app.WithClock(clk.now))
	ctx := context.Background()

	svc.PriceInValueUnit(ctx, asset.AddrCAKE)
	svc.PriceInValueUnit(ctx, asset.AddrCAKE)
	if q.calls != 1 {
		t.Errorf("expected 1 quote while fresh, got %d", q.calls)
	}

	clk.t = clk.t.Add(6 * time.Minute)
	svc.PriceInValueUnit(ctx, asset.AddrCAKE)
	if q.calls != 2 {
		t.Errorf("expected a requote after the TTL, got %d calls", q.calls)
	}
}

func TestNativeRate_FallsBackToReference(t *testing.T) {
	ref := &fakeReference{rate: decimal.NewFromInt(612)}
	svc := newService(t, newRateQuoter(), app.WithReferenceSource(ref))

	got := svc.NativeRate(context.Background())
	if !got.Equal(decimal.NewFromInt(612)) {
		t.Errorf("expected reference rate 612, got %s", got)
	}
}

func TestNativeRate_KeepsStaleValue(t *testing.T) {
	q := newRateQuoter()
	q.set(routerA, asset.AddrWBNB, asset.AddrBUSD, 600, 1)
	ref := &fakeReference{err: errors.New("down")}
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := newService(t, q, app.WithClock(clk.now), app.WithReferenceSource(ref))
	ctx := context.Background()

	if got := svc.NativeRate(ctx); !got.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("expected 600, got %s", got)
	}

	delete(q.rates, edge{routerA, asset.AddrWBNB, asset.AddrBUSD})
	clk.t = clk.t.Add(time.Hour)

	if got := svc.NativeRate(ctx); !got.Equal(decimal.NewFromInt(600)) {
		t.Errorf("expected stale 600, got %s", got)
	}
}

func TestNativeRate_NeverKnown(t *testing.T) {
	svc := newService(t, newRateQuoter(), app.WithReferenceSource(&fakeReference{err: errors.New("down")}))

	if got := svc.NativeRate(context.Background()); !got.IsZero() {
		t.Errorf("expected 0, got %s", got)
	}
}

func TestToValue(t *testing.T) {
	q := newRateQuoter()
	q.set(routerA, asset.AddrCAKE, asset.AddrBUSD, 5, 2)
	svc := newService(t, q)

	raw, _ := new(big.Int).SetString("4000000000000000000", 10)
	if got := svc.ToValue(context.Background(), asset.AddrCAKE, raw); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected 10, got %s", got)
	}
}

func TestLoadTokens(t *testing.T) {
	known := common.HexToAddress("0x00000000000000000000000000000000000000AA")
	broken := common.HexToAddress("0x00000000000000000000000000000000000000BB")
	md := fakeMetadata{known: {Address: known, Symbol: "AAA", Name: "Token A", Decimals: 9}}

	registry := asset.DefaultRegistry()
	cfg := app.Config{
		VenueA:  domain.Venue{Exchange: domain.ExchangeA, Router: routerA},
		VenueB:  domain.Venue{Exchange: domain.ExchangeB, Router: routerB},
		Native:  asset.AddrWBNB,
		Stables: []common.Address{asset.AddrBUSD},
	}
	svc, err := app.NewService(cfg, newRateQuoter(), md, registry, logger.Discard())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close()

	err = svc.LoadTokens(context.Background(), []common.Address{asset.AddrWBNB, known, broken, known})
	if !apperror.HasCode(err, apperror.CodeTokenMetadataFailed) {
		t.Errorf("expected metadata failure for the broken token, got %v", err)
	}

	tok, ok := registry.Token(known)
	if !ok {
		t.Fatal("expected resolved token to be registered")
	}
	if tok.Symbol() != "AAA" || tok.Decimals() != 9 {
		t.Errorf("unexpected token %s/%d", tok.Symbol(), tok.Decimals())
	}
	if registry.Has(broken) {
		t.Error("broken token must not be registered")
	}
}

func TestLoadTokens_SkipsUnsupportedMetadata(t *testing.T) {
	odd := common.HexToAddress("0x00000000000000000000000000000000000000CC")
	blank := common.HexToAddress("0x00000000000000000000000000000000000000DD")
	good := common.HexToAddress("0x00000000000000000000000000000000000000EE")
	md := fakeMetadata{
		odd:   {Address: odd, Symbol: "ODD", Decimals: 77},
		blank: {Address: blank, Decimals: 18},
		good:  {Address: good, Symbol: "GOOD", Decimals: 18},
	}

	registry := asset.DefaultRegistry()
	cfg := app.Config{
		VenueA:  domain.Venue{Exchange: domain.ExchangeA, Router: routerA},
		VenueB:  domain.Venue{Exchange: domain.ExchangeB, Router: routerB},
		Native:  asset.AddrWBNB,
		Stables: []common.Address{asset.AddrBUSD},
	}
	svc, err := app.NewService(cfg, newRateQuoter(), md, registry, logger.Discard())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close()

	err = svc.LoadTokens(context.Background(), []common.Address{odd, blank, good})
	if !apperror.HasCode(err, apperror.CodeTokenMetadataFailed) {
		t.Errorf("expected metadata failure, got %v", err)
	}
	if registry.Has(odd) || registry.Has(blank) {
		t.Error("unsupported tokens must not be registered")
	}
	if !registry.Has(good) {
		t.Error("expected the valid token to be registered")
	}
}

func TestNewService_RequiresStable(t *testing.T) {
	_, err := app.NewService(app.Config{}, newRateQuoter(), fakeMetadata{}, asset.DefaultRegistry(), logger.Discard())
	if !apperror.HasCode(err, apperror.CodeConfigurationError) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
