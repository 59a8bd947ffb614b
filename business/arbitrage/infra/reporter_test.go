package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	netDomain "github.com/fd1az/bsc-triarb/business/network/domain"
	poolDomain "github.com/fd1az/bsc-triarb/business/rpcpool/domain"
	"github.com/fd1az/bsc-triarb/internal/config"
	"github.com/fd1az/bsc-triarb/internal/logger"
)

var testTokens = [3]common.Address{
	common.HexToAddress("0x01"),
	common.HexToAddress("0x02"),
	common.HexToAddress("0x03"),
}

func opportunity(id string, pct int64, d domain.Direction, requested domain.Direction) domain.Opportunity {
	rot := domain.Rotation{Triple: "WBNB-BUSD-CAKE", Tokens: testTokens}
	return domain.Opportunity{
		ID:         id,
		DetectedAt: time.Unix(1700000000, 0).UTC(),
		Symbols:    [3]string{"WBNB", "BUSD", "CAKE"},
		LoanAmount: decimal.NewFromInt(5),
		Candidate: domain.Candidate{
			Triple:     rot.Triple,
			Tokens:     rot.Tokens,
			Hops:       rot.Hops(d),
			Direction:  d,
			Requested:  requested,
			Gap:        decimal.NewFromInt(6),
			FlashPair:  common.HexToAddress("0xA1"),
			AmountIn:   big.NewInt(5),
			Outputs:    [3]*big.Int{big.NewInt(10), big.NewInt(20), big.NewInt(30)},
			MinOutputs: [3]*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)},
		},
		Profit: domain.ProfitabilityResult{
			Quote: domain.OracleQuote{
				ExpectedProfit: big.NewInt(900),
				PlatformFee:    big.NewInt(90),
				UserProfit:     big.NewInt(810),
			},
			ProfitPct:      decimal.NewFromInt(pct),
			NetValue:       decimal.NewFromInt(pct * 10),
			MeetsThreshold: true,
			GasCost:        domain.GasCost{Value: decimal.NewFromInt(2)},
		},
	}
}

func cycle(opps ...domain.Opportunity) *domain.CycleReport {
	now := time.Now()
	return &domain.CycleReport{
		ID:            "c1",
		Tier:          domain.TierPriority,
		StartedAt:     now.Add(-150 * time.Millisecond),
		FinishedAt:    now,
		Triples:       2,
		Evaluated:     36,
		Opportunities: opps,
	}
}

func TestConsoleReporter_Report(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	r.Report(context.Background(), cycle(
		opportunity("o1", 3, domain.DirectionStartOnB, domain.DirectionStartOnA),
	))

	out := buf.String()
	for _, want := range []string{
		"2 triples, 36 candidates evaluated, 1 accepted",
		"WBNB→BUSD→CAKE→WBNB",
		"B→A→B",
		"reversed from A→B→A",
		"Hop 2 [A]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleReporter_ReportSkipped(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	c := cycle()
	c.Skipped = true
	c.SkipReason = domain.SkipContractPaused
	r.Report(context.Background(), c)

	if !strings.Contains(buf.String(), "cycle skipped: contract paused") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestConsoleReporter_ConnectionTransitionsOnly(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	eps := []poolDomain.Status{{URL: "https://a.example", Health: poolDomain.HealthHealthy, BlockNumber: 7}}
	health := netDomain.Health{Healthy: true, GasPrice: big.NewInt(3_000_000_000)}

	r.UpdateConnectionStatus(eps, health)
	first := buf.Len()
	if !strings.Contains(buf.String(), "network ready, gas 3.00 gwei") {
		t.Errorf("unexpected output %q", buf.String())
	}

	r.UpdateConnectionStatus(eps, health)
	if buf.Len() != first {
		t.Errorf("unchanged status must not print, got %q", buf.String()[first:])
	}

	eps[0].Health = poolDomain.HealthUnhealthy
	eps[0].Failures = 3
	r.UpdateConnectionStatus(eps, health)
	if !strings.Contains(buf.String()[first:], "unhealthy (3 failures)") {
		t.Errorf("expected unhealthy transition, got %q", buf.String()[first:])
	}
}

type stubReporter struct {
	name    string
	log     *[]string
	startFn func() error
	stopErr error
}

func (s *stubReporter) Start(context.Context) error {
	*s.log = append(*s.log, s.name+":start")
	if s.startFn != nil {
		return s.startFn()
	}
	return nil
}

func (s *stubReporter) Report(context.Context, *domain.CycleReport) {
	*s.log = append(*s.log, s.name+":report")
}

func (s *stubReporter) UpdateConnectionStatus([]poolDomain.Status, netDomain.Health) {
	*s.log = append(*s.log, s.name+":status")
}

func (s *stubReporter) Stop() error {
	*s.log = append(*s.log, s.name+":stop")
	return s.stopErr
}

func TestMultiReporter_FansOut(t *testing.T) {
	var log []string
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	m := MultiReporter{
		&stubReporter{name: "a", log: &log, stopErr: errA},
		&stubReporter{name: "b", log: &log, stopErr: errB},
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Report(context.Background(), cycle())
	m.UpdateConnectionStatus(nil, netDomain.Health{})
	err := m.Stop()

	want := "a:start b:start a:report b:report a:status b:status a:stop b:stop"
	if got := strings.Join(log, " "); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both stop errors, got %v", err)
	}
}

func TestMultiReporter_StartStopsAtFirstFailure(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	m := MultiReporter{
		&stubReporter{name: "a", log: &log, startFn: func() error { return boom }},
		&stubReporter{name: "b", log: &log},
	}

	if err := m.Start(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if len(log) != 1 {
		t.Errorf("expected only a to start, got %v", log)
	}
}

func TestNewOpportunityMessage(t *testing.T) {
	msg := NewOpportunityMessage("c1", opportunity("o1", 2, domain.DirectionStartOnA, domain.DirectionStartOnA))

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	tests := []struct {
		field string
		want  any
	}{
		{"id", "o1"},
		{"cycle_id", "c1"},
		{"route", "WBNB→BUSD→CAKE→WBNB"},
		{"direction", "A→B→A"},
		{"reversed", false},
		{"loan", "5 WBNB"},
		{"amount_in", "5"},
		{"profit_pct", "2"},
		{"net_value", "20"},
		{"gas_value", "2"},
		{"triple", "WBNB-BUSD-CAKE"},
		{"expected_profit", "900"},
		{"platform_fee", "90"},
		{"user_profit", "810"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if decoded[tt.field] != tt.want {
				t.Errorf("expected %v, got %v", tt.want, decoded[tt.field])
			}
		})
	}

	mins, ok := decoded["min_outputs"].([]any)
	if !ok || len(mins) != 3 || mins[2] != "3" {
		t.Errorf("unexpected min_outputs %v", decoded["min_outputs"])
	}

	if msg.Tokens[1] != testTokens[1].Hex() {
		t.Errorf("unexpected tokens %v", msg.Tokens)
	}
	wantHops := []struct {
		exchange string
		in, out  common.Address
		amount   string
		min      string
	}{
		{"A", testTokens[0], testTokens[1], "10", "1"},
		{"B", testTokens[1], testTokens[2], "20", "2"},
		{"A", testTokens[2], testTokens[0], "30", "3"},
	}
	for i, want := range wantHops {
		h := msg.Hops[i]
		if h.Exchange != want.exchange || h.TokenIn != want.in.Hex() || h.TokenOut != want.out.Hex() {
			t.Errorf("hop %d: unexpected %+v", i+1, h)
		}
		if len(h.Path) != 2 || h.Path[0] != want.in.Hex() || h.Path[1] != want.out.Hex() {
			t.Errorf("hop %d: unexpected path %v", i+1, h.Path)
		}
		if h.AmountOut != want.amount || h.MinOut != want.min {
			t.Errorf("hop %d: expected %s/%s, got %s/%s", i+1, want.amount, want.min, h.AmountOut, h.MinOut)
		}
	}
}

// recordingHook captures pipelined commands without reaching a server.
type recordingHook struct {
	cmds [][]string
}

func (h *recordingHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *recordingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		h.record(cmd)
		return nil
	}
}

func (h *recordingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(_ context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			h.record(cmd)
		}
		return nil
	}
}

func (h *recordingHook) record(cmd redis.Cmder) {
	args := make([]string, 0, len(cmd.Args()))
	for _, a := range cmd.Args() {
		args = append(args, fmt.Sprint(a))
	}
	h.cmds = append(h.cmds, args)
}

func (h *recordingHook) names() []string {
	out := make([]string, len(h.cmds))
	for i, c := range h.cmds {
		out[i] = c[0]
	}
	return out
}

func TestRedisReporter_ReplacesSetEachCycle(t *testing.T) {
	tests := []struct {
		name   string
		report *domain.CycleReport
		want   []string
	}{
		{
			name: "opportunities",
			report: cycle(
				opportunity("low", 1, domain.DirectionStartOnA, domain.DirectionStartOnA),
				opportunity("high", 4, domain.DirectionStartOnB, domain.DirectionStartOnB),
			),
			want: []string{"multi", "del", "zadd", "publish", "zadd", "publish", "expire", "exec"},
		},
		{
			name:   "empty cycle clears",
			report: cycle(),
			want:   []string{"multi", "del", "exec"},
		},
		{
			name:   "skipped cycle untouched",
			report: &domain.CycleReport{ID: "c2", Skipped: true, SkipReason: domain.SkipNetworkUnhealthy},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook := &recordingHook{}
			client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
			client.AddHook(hook)

			cfg := config.RedisConfig{Key: "triarb:opportunities", Channel: "triarb", TTL: 5 * time.Minute}
			r := NewRedisReporterWithClient(client, cfg, logger.Discard())
			r.Report(context.Background(), tt.report)

			got := hook.names()
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			for _, c := range hook.cmds {
				if c[0] == "del" && c[1] != cfg.Key {
					t.Errorf("expected del of %s, got %v", cfg.Key, c)
				}
			}
		})
	}
}

func TestRedisReporter_WritesSortedSet(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	cfg := config.RedisConfig{Addr: addr, Key: "triarb:test:opportunities", Channel: "triarb:test", TTL: time.Minute}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Del(ctx, cfg.Key)

	r := NewRedisReporterWithClient(client, cfg, logger.Discard())
	if err := r.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer r.Stop()

	r.Report(ctx, cycle(
		opportunity("low", 1, domain.DirectionStartOnA, domain.DirectionStartOnA),
		opportunity("high", 4, domain.DirectionStartOnB, domain.DirectionStartOnB),
	))

	members, err := client.ZRevRange(ctx, cfg.Key, 0, -1).Result()
	if err != nil {
		t.Fatalf("zrevrange: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	var top OpportunityMessage
	if err := json.Unmarshal([]byte(members[0]), &top); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if top.ID != "high" {
		t.Errorf("expected high first, got %s", top.ID)
	}

	r.Report(ctx, cycle(opportunity("next", 2, domain.DirectionStartOnA, domain.DirectionStartOnA)))
	if n, err := client.ZCard(ctx, cfg.Key).Result(); err != nil || n != 1 {
		t.Errorf("expected the next cycle to replace the set, got %d members (%v)", n, err)
	}

	ttl, err := client.TTL(ctx, cfg.Key).Result()
	if err != nil || ttl <= 0 {
		t.Errorf("expected ttl, got %v (%v)", ttl, err)
	}
}
