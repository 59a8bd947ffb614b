package app_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/bsc-triarb/business/network/app"
	"github.com/fd1az/bsc-triarb/internal/logger"
)

func gwei(n int64) *big.Int { return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000)) }

type step struct {
	price *big.Int
	err   error
}

type scriptedSource struct {
	steps    []step
	calls    int
	fallback *big.Int
}

func (s *scriptedSource) GasPrice(context.Context) (*big.Int, error) {
	st := s.steps[len(s.steps)-1]
	if s.calls < len(s.steps) {
		st = s.steps[s.calls]
	}
	s.calls++
	return st.price, st.err
}

func (s *scriptedSource) GasPriceOrDefault(ctx context.Context) *big.Int {
	price, err := s.GasPrice(ctx)
	if err != nil {
		return s.fallback
	}
	return price
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newMonitor(t *testing.T, src *scriptedSource) (*app.Monitor, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m, err := app.NewMonitor(app.DefaultConfig(), src, logger.Discard(), app.WithClock(clk.now))
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	t.Cleanup(m.Close)
	return m, clk
}

func TestCheckHealth_Ceiling(t *testing.T) {
	tests := []struct {
		name  string
		price *big.Int
		want  bool
	}{
		{"below", gwei(3), true},
		{"at ceiling", gwei(10), true},
		{"above", gwei(11), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newMonitor(t, &scriptedSource{steps: []step{{price: tt.price}}})
			if got := m.CheckHealth(context.Background()); got != tt.want {
				t.Errorf("CheckHealth = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckHealth_FailureThreshold(t *testing.T) {
	boom := errors.New("rpc down")
	src := &scriptedSource{steps: []step{
		{price: gwei(3)},
		{err: boom},
		{err: boom},
		{err: boom},
		{price: gwei(4)},
	}}
	m, _ := newMonitor(t, src)
	ctx := context.Background()

	want := []bool{true, true, true, false, true}
	for i, w := range want {
		if got := m.CheckHealth(ctx); got != w {
			t.Errorf("check %d: healthy = %v, want %v", i+1, got, w)
		}
	}
	if m.Health().ConsecutiveFailures != 0 {
		t.Errorf("expected failures reset, got %d", m.Health().ConsecutiveFailures)
	}
}

func TestIsReadyForArbitrage_ReusesRecentVerdict(t *testing.T) {
	src := &scriptedSource{steps: []step{{price: gwei(3)}, {price: gwei(20)}}}
	m, clk := newMonitor(t, src)
	ctx := context.Background()

	if !m.IsReadyForArbitrage(ctx) {
		t.Fatal("expected ready after first sample")
	}
	clk.advance(4 * time.Minute)
	if !m.IsReadyForArbitrage(ctx) || src.calls != 1 {
		t.Errorf("expected cached verdict within 5 minutes, calls=%d", src.calls)
	}
	clk.advance(2 * time.Minute)
	if m.IsReadyForArbitrage(ctx) {
		t.Error("expected re-check to see the 20 gwei price")
	}
	if src.calls != 2 {
		t.Errorf("expected 2 samples, got %d", src.calls)
	}
}

func TestGasPrice_BufferAndReuse(t *testing.T) {
	src := &scriptedSource{steps: []step{{price: gwei(3)}, {price: gwei(6)}}}
	m, clk := newMonitor(t, src)
	ctx := context.Background()
	buffer := decimal.RequireFromString("1.1")

	if got := m.GasPrice(ctx, buffer); got.Cmp(big.NewInt(3_300_000_000)) != 0 {
		t.Errorf("expected 3.3 gwei, got %s", got)
	}
	clk.advance(time.Minute)
	if got := m.GasPrice(ctx, buffer); got.Cmp(big.NewInt(3_300_000_000)) != 0 || src.calls != 1 {
		t.Errorf("expected reused sample, got %s after %d calls", got, src.calls)
	}
	clk.advance(2 * time.Minute)
	if got := m.GasPrice(ctx, buffer); got.Cmp(big.NewInt(6_600_000_000)) != 0 {
		t.Errorf("expected fresh 6.6 gwei, got %s", got)
	}
}

func TestGasPrice_SourceFallbackOnFailure(t *testing.T) {
	src := &scriptedSource{steps: []step{{err: errors.New("down")}, {price: gwei(4)}}, fallback: gwei(7)}
	m, _ := newMonitor(t, src)
	ctx := context.Background()

	if got := m.GasPrice(ctx, decimal.NewFromInt(1)); got.Cmp(gwei(7)) != 0 {
		t.Errorf("expected the source's 7 gwei fallback, got %s", got)
	}

	m.CheckHealth(ctx)
	if got := m.GasPrice(ctx, decimal.NewFromInt(1)); got.Cmp(gwei(4)) != 0 {
		t.Errorf("expected the health check sample to replace the fallback, got %s", got)
	}
}
