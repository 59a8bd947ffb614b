package infra

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fd1az/bsc-triarb/business/arbitrage/app"
	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	netDomain "github.com/fd1az/bsc-triarb/business/network/domain"
	poolDomain "github.com/fd1az/bsc-triarb/business/rpcpool/domain"
	"github.com/fd1az/bsc-triarb/internal/apperror"
	"github.com/fd1az/bsc-triarb/internal/config"
	"github.com/fd1az/bsc-triarb/internal/logger"
)

var _ app.Reporter = (*RedisReporter)(nil)

const redisWriteTimeout = 2 * time.Second

// HopMessage is one swap of the cycle with the router path to submit.
type HopMessage struct {
	Exchange  string   `json:"exchange"`
	TokenIn   string   `json:"token_in"`
	TokenOut  string   `json:"token_out"`
	Path      []string `json:"path"`
	AmountOut string   `json:"amount_out"`
	MinOut    string   `json:"min_out"`
}

// OpportunityMessage is the payload stored and published per opportunity. It
// carries everything needed to submit the flash swap.
type OpportunityMessage struct {
	ID         string        `json:"id"`
	CycleID    string        `json:"cycle_id"`
	DetectedAt time.Time     `json:"detected_at"`
	Triple     string        `json:"triple"`
	Rotation   int           `json:"rotation"`
	Route      string        `json:"route"`
	Symbols    [3]string     `json:"symbols"`
	Tokens     [3]string     `json:"tokens"`
	Direction  string        `json:"direction"`
	Reversed   bool          `json:"reversed"`
	FlashPair  string        `json:"flash_pair"`
	Hops       [3]HopMessage `json:"hops"`
	Loan       string        `json:"loan"`
	AmountIn   string        `json:"amount_in"`
	MinOutputs [3]string     `json:"min_outputs"`

	ExpectedProfit string `json:"expected_profit"`
	PlatformFee    string `json:"platform_fee"`
	UserProfit     string `json:"user_profit"`

	ProfitPct string `json:"profit_pct"`
	NetValue  string `json:"net_value"`
	GasValue  string `json:"gas_value"`
}

// NewOpportunityMessage flattens an opportunity for external consumers.
func NewOpportunityMessage(cycleID string, o domain.Opportunity) OpportunityMessage {
	c := o.Candidate
	msg := OpportunityMessage{
		ID:             o.ID,
		CycleID:        cycleID,
		DetectedAt:     o.DetectedAt,
		Triple:         c.Triple,
		Rotation:       c.Rotation,
		Route:          o.Route(),
		Symbols:        o.Symbols,
		Direction:      c.Direction.String(),
		Reversed:       c.Reversed(),
		FlashPair:      c.FlashPair.Hex(),
		Loan:           o.LoanAmount.String() + " " + o.Symbols[0],
		AmountIn:       bigString(c.AmountIn),
		ExpectedProfit: bigString(o.Profit.Quote.ExpectedProfit),
		PlatformFee:    bigString(o.Profit.Quote.PlatformFee),
		UserProfit:     bigString(o.Profit.Quote.UserProfit),
		ProfitPct:      o.ProfitPct().String(),
		NetValue:       o.Profit.NetValue.String(),
		GasValue:       o.Profit.GasCost.Value.String(),
	}
	for i := range c.Tokens {
		msg.Tokens[i] = c.Tokens[i].Hex()
	}
	for i, h := range c.Hops {
		path := make([]string, 0, 2)
		for _, a := range h.Path() {
			path = append(path, a.Hex())
		}
		msg.Hops[i] = HopMessage{
			Exchange:  h.Exchange.String(),
			TokenIn:   h.TokenIn.Hex(),
			TokenOut:  h.TokenOut.Hex(),
			Path:      path,
			AmountOut: bigString(c.Outputs[i]),
			MinOut:    bigString(c.MinOutputs[i]),
		}
		msg.MinOutputs[i] = msg.Hops[i].MinOut
	}
	return msg
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

// RedisReporter keeps accepted opportunities in a sorted set scored by
// profit percentage and publishes each one on a channel.
type RedisReporter struct {
	client  redis.UniversalClient
	key     string
	channel string
	ttl     time.Duration
	logger  logger.LoggerInterface
}

// NewRedisReporter connects using cfg.
func NewRedisReporter(cfg config.RedisConfig, log logger.LoggerInterface) *RedisReporter {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisReporterWithClient(client, cfg, log)
}

// NewRedisReporterWithClient uses an existing client.
func NewRedisReporterWithClient(client redis.UniversalClient, cfg config.RedisConfig, log logger.LoggerInterface) *RedisReporter {
	return &RedisReporter{
		client:  client,
		key:     cfg.Key,
		channel: cfg.Channel,
		ttl:     cfg.TTL,
		logger:  log,
	}
}

// Start pings the server.
func (r *RedisReporter) Start(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisWriteTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return apperror.New(apperror.CodeServiceUnavailable,
			apperror.WithCause(err),
			apperror.WithContextf("redis %s unreachable", r.key))
	}
	return nil
}

// Report replaces the sorted set with the opportunities of a completed cycle,
// so the top member is always from the latest scan. A completed cycle with no
// opportunities clears it. Skipped cycles leave it to expire.
func (r *RedisReporter) Report(ctx context.Context, report *domain.CycleReport) {
	if report.Skipped {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), redisWriteTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key)
	written := 0
	for _, o := range report.Opportunities {
		payload, err := json.Marshal(NewOpportunityMessage(report.ID, o))
		if err != nil {
			r.logger.Error(ctx, "encode opportunity", "id", o.ID, "error", err)
			continue
		}
		score, _ := o.ProfitPct().Float64()
		pipe.ZAdd(ctx, r.key, redis.Z{Score: score, Member: payload})
		if r.channel != "" {
			pipe.Publish(ctx, r.channel, payload)
		}
		written++
	}
	if written > 0 && r.ttl > 0 {
		pipe.Expire(ctx, r.key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn(ctx, "redis write failed",
			"cycle", report.ID,
			"opportunities", len(report.Opportunities),
			"error", err)
	}
}

// UpdateConnectionStatus is a no-op; the sink only carries opportunities.
func (r *RedisReporter) UpdateConnectionStatus([]poolDomain.Status, netDomain.Health) {}

// Stop closes the client.
func (r *RedisReporter) Stop() error {
	return r.client.Close()
}
