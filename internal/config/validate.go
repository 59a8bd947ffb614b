package config

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/bsc-triarb/internal/apperror"
)

// Direction policies for the scanner.
const (
	DirectionPolicyGap  = "gap"
	DirectionPolicyBoth = "both"
)

// TripleConfig describes one token triangle and where its pairs live.
type TripleConfig struct {
	Name     string      `mapstructure:"name"`
	Tokens   []string    `mapstructure:"tokens"`
	Priority int         `mapstructure:"priority"`
	Amounts  []string    `mapstructure:"amounts"`
	Pairs    PairsConfig `mapstructure:"pairs"`
}

// PairsConfig lists, per exchange, the pair for edges tokens[0]-tokens[1],
// tokens[1]-tokens[2] and tokens[2]-tokens[0].
type PairsConfig struct {
	A []string `mapstructure:"a"`
	B []string `mapstructure:"b"`
}

// TokenAddresses returns the three tokens.
func (t *TripleConfig) TokenAddresses() [3]common.Address {
	var out [3]common.Address
	for i := range out {
		out[i] = common.HexToAddress(t.Tokens[i])
	}
	return out
}

// PairAddressesA returns the exchange A pairs by edge.
func (t *TripleConfig) PairAddressesA() [3]common.Address { return edges(t.Pairs.A) }

// PairAddressesB returns the exchange B pairs by edge.
func (t *TripleConfig) PairAddressesB() [3]common.Address { return edges(t.Pairs.B) }

// AmountsDecimal returns the candidate amounts in whole-token units.
func (t *TripleConfig) AmountsDecimal() []decimal.Decimal {
	out := make([]decimal.Decimal, len(t.Amounts))
	for i, a := range t.Amounts {
		out[i] = decimal.RequireFromString(a)
	}
	return out
}

func edges(in []string) [3]common.Address {
	var out [3]common.Address
	for i := 0; i < 3 && i < len(in); i++ {
		out[i] = common.HexToAddress(in[i])
	}
	return out
}

// Validate checks the configuration and normalizes address casing.
func (c *Config) Validate() error {
	var errs []error

	if c.RPC.Primary == "" {
		errs = append(errs, fmt.Errorf("rpc.primary is required"))
	}
	if c.RPC.ChainID == 0 {
		errs = append(errs, fmt.Errorf("rpc.chain_id is required"))
	}
	if c.RPC.FailureThreshold < 1 {
		errs = append(errs, fmt.Errorf("rpc.failure_threshold must be at least 1"))
	}
	if c.RPC.Timeout <= 0 || c.RPC.Cooldown <= 0 || c.RPC.HealthCheckInterval <= 0 || c.RPC.ProbeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("rpc timeouts and intervals must be positive"))
	}
	errs = append(errs, positiveDecimal("rpc.default_gas_price_gwei", c.RPC.DefaultGasPriceGwei))

	errs = append(errs, normalizeAddress("exchanges.a.router", &c.Exchanges.A.Router))
	errs = append(errs, normalizeAddress("exchanges.b.router", &c.Exchanges.B.Router))
	errs = append(errs, normalizeAddress("tokens.native", &c.Tokens.Native))
	if len(c.Tokens.Stables) == 0 {
		errs = append(errs, fmt.Errorf("tokens.stables cannot be empty"))
	}
	for i := range c.Tokens.Stables {
		errs = append(errs, normalizeAddress(fmt.Sprintf("tokens.stables[%d]", i), &c.Tokens.Stables[i]))
	}
	errs = append(errs, normalizeAddress("contract.flash_arbitrage", &c.Contract.FlashArbitrage))

	errs = append(errs, positiveDecimal("network.max_gas_price_gwei", c.Network.MaxGasPriceGwei))
	if c.Network.FailureThreshold < 1 {
		errs = append(errs, fmt.Errorf("network.failure_threshold must be at least 1"))
	}

	a := &c.Arbitrage
	errs = append(errs, nonNegativeDecimal("arbitrage.min_profit_pct", a.MinProfitPct))
	errs = append(errs, positiveDecimal("arbitrage.gas_buffer", a.GasBuffer))
	errs = append(errs, nonNegativeDecimal("arbitrage.gap_threshold_pct", a.GapThresholdPct))
	if a.GasLimit == 0 {
		errs = append(errs, fmt.Errorf("arbitrage.gas_limit must be positive"))
	}
	if a.SlippageBps < 0 || a.SlippageBps >= 10000 {
		errs = append(errs, fmt.Errorf("arbitrage.slippage_bps must be in [0, 10000)"))
	}
	if a.DirectionPolicy != DirectionPolicyGap && a.DirectionPolicy != DirectionPolicyBoth {
		errs = append(errs, fmt.Errorf("arbitrage.direction_policy must be %q or %q", DirectionPolicyGap, DirectionPolicyBoth))
	}
	if a.PriorityInterval <= 0 || a.StandardInterval <= 0 {
		errs = append(errs, fmt.Errorf("arbitrage scan intervals must be positive"))
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	return c.validateTriples()
}

func (c *Config) validateTriples() error {
	if len(c.Arbitrage.Triples) == 0 {
		return apperror.Validation(apperror.CodeInvalidTripleConfig, "arbitrage.triples cannot be empty")
	}

	seen := make(map[string]bool, len(c.Arbitrage.Triples))
	for i := range c.Arbitrage.Triples {
		t := &c.Arbitrage.Triples[i]
		if err := t.validate(); err != nil {
			return apperror.New(apperror.CodeInvalidTripleConfig,
				apperror.WithContextf("arbitrage.triples[%d] %s", i, t.Name), apperror.WithCause(err))
		}
		if seen[t.Name] {
			return apperror.Validation(apperror.CodeInvalidTripleConfig, fmt.Sprintf("duplicate triple name %q", t.Name))
		}
		seen[t.Name] = true
	}
	return nil
}

func (t *TripleConfig) validate() error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(t.Tokens) != 3 {
		return fmt.Errorf("exactly 3 tokens required, got %d", len(t.Tokens))
	}
	for i := range t.Tokens {
		if err := normalizeAddress(fmt.Sprintf("tokens[%d]", i), &t.Tokens[i]); err != nil {
			return err
		}
	}
	if t.Tokens[0] == t.Tokens[1] || t.Tokens[1] == t.Tokens[2] || t.Tokens[0] == t.Tokens[2] {
		return fmt.Errorf("tokens must be distinct")
	}
	if t.Priority < 1 {
		return fmt.Errorf("priority must be at least 1")
	}
	if len(t.Amounts) == 0 {
		return fmt.Errorf("at least one candidate amount is required")
	}
	for i, amt := range t.Amounts {
		if err := positiveDecimal(fmt.Sprintf("amounts[%d]", i), amt); err != nil {
			return err
		}
	}
	for name, pairs := range map[string][]string{"pairs.a": t.Pairs.A, "pairs.b": t.Pairs.B} {
		if len(pairs) != 3 {
			return fmt.Errorf("%s needs one pair per edge (3), got %d", name, len(pairs))
		}
		for i := range pairs {
			if err := normalizeAddress(fmt.Sprintf("%s[%d]", name, i), &pairs[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func normalizeAddress(field string, s *string) error {
	if !common.IsHexAddress(*s) {
		return fmt.Errorf("invalid %s: %q", field, *s)
	}
	addr := common.HexToAddress(*s)
	if addr == (common.Address{}) {
		return fmt.Errorf("%s cannot be the zero address", field)
	}
	*s = addr.Hex()
	return nil
}

func positiveDecimal(field, s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	if !d.IsPositive() {
		return fmt.Errorf("%s must be positive", field)
	}
	return nil
}

func nonNegativeDecimal(field, s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	if d.IsNegative() {
		return fmt.Errorf("%s cannot be negative", field)
	}
	return nil
}
