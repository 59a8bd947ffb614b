// Package oracle reads the flash-arbitrage contract: profitability quotes,
// exchange fee parameters and the paused flag.
package oracle

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/bsc-triarb/business/arbitrage/app"
	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	poolapp "github.com/fd1az/bsc-triarb/business/rpcpool/app"
	"github.com/fd1az/bsc-triarb/internal/apm"
	"github.com/fd1az/bsc-triarb/internal/apperror"
	"github.com/fd1az/bsc-triarb/internal/circuitbreaker"
	"github.com/fd1az/bsc-triarb/internal/logger"
)

const tracerName = "github.com/fd1az/bsc-triarb/business/arbitrage/infra/oracle"

// FlashArbitrageABI covers the read-only surface the scanner uses.
const FlashArbitrageABI = `[
	{
		"inputs": [
			{
				"components": [
					{"internalType": "address", "name": "flashPair", "type": "address"},
					{"internalType": "address[3]", "name": "tokens", "type": "address[3]"},
					{"internalType": "uint256[3]", "name": "minAmountsOut", "type": "uint256[3]"}
				],
				"internalType": "struct FlashArbitrage.Cycle",
				"name": "cycle",
				"type": "tuple"
			},
			{"internalType": "uint256", "name": "loanAmount", "type": "uint256"},
			{"internalType": "bool", "name": "startOnExchangeA", "type": "bool"}
		],
		"name": "checkArbitrageProfitability",
		"outputs": [
			{"internalType": "uint256", "name": "expectedProfit", "type": "uint256"},
			{"internalType": "uint256", "name": "expectedPlatformFee", "type": "uint256"},
			{"internalType": "uint256", "name": "expectedUserProfit", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{"inputs": [], "name": "pancakeSwapFeeNumerator", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "pancakeSwapFeeDenominator", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "biswapFeeNumerator", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "biswapFeeDenominator", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "paused", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "view", "type": "function"}
]`

var _ app.ProfitabilityOracle = (*Client)(nil)

// cycleArg mirrors the contract's Cycle tuple for ABI packing.
type cycleArg struct {
	FlashPair     common.Address
	Tokens        [3]common.Address
	MinAmountsOut [3]*big.Int
}

// Client calls the flash-arbitrage contract through the endpoint pool. Calls
// are guarded by a circuit breaker; reverts do not count as failures.
type Client struct {
	caller   poolapp.ContractCaller
	contract common.Address
	abi      abi.ABI
	cb       *circuitbreaker.CircuitBreaker[[]byte]
	tracer   apm.Tracer
	logger   logger.LoggerInterface
}

// New parses the ABI and binds the contract address.
func New(caller poolapp.ContractCaller, contract common.Address, log logger.LoggerInterface) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(FlashArbitrageABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse flash arbitrage ABI: %w", err)
	}

	cfg := circuitbreaker.DefaultConfig("flash-arbitrage")
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || apperror.HasCode(err, apperror.CodeExecutionReverted)
	}
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	}

	return &Client{
		caller:   caller,
		contract: contract,
		abi:      parsed,
		cb:       circuitbreaker.New[[]byte](cfg),
		tracer:   apm.NewTracer(tracerName),
		logger:   log,
	}, nil
}

// CheckProfitability asks the contract to simulate the cycle. A revert means
// the contract judged the cycle unexecutable.
func (c *Client) CheckProfitability(ctx context.Context, params domain.OracleParams, loanAmount *big.Int, startOnA bool) (domain.OracleQuote, error) {
	arg := cycleArg{
		FlashPair:     params.FlashPair,
		Tokens:        params.Tokens,
		MinAmountsOut: params.MinAmountsOut,
	}
	values, err := c.call(ctx, "checkArbitrageProfitability", arg, loanAmount, startOnA)
	if err != nil {
		return domain.OracleQuote{}, err
	}
	if len(values) != 3 {
		return domain.OracleQuote{}, apperror.New(apperror.CodeOracleCallFailed,
			apperror.WithContextf("expected 3 outputs, got %d", len(values)))
	}

	var out [3]*big.Int
	for i, v := range values {
		n, ok := v.(*big.Int)
		if !ok {
			return domain.OracleQuote{}, apperror.New(apperror.CodeOracleCallFailed,
				apperror.WithContextf("unexpected output type %T", v))
		}
		out[i] = n
	}
	return domain.OracleQuote{ExpectedProfit: out[0], PlatformFee: out[1], UserProfit: out[2]}, nil
}

// FeeParameters reads both exchanges' fee numerator and denominator.
func (c *Client) FeeParameters(ctx context.Context) (domain.FeeParameters, error) {
	names := [4]string{
		"pancakeSwapFeeNumerator",
		"pancakeSwapFeeDenominator",
		"biswapFeeNumerator",
		"biswapFeeDenominator",
	}
	var vals [4]*big.Int
	for i, name := range names {
		v, err := c.uint(ctx, name)
		if err != nil {
			return domain.FeeParameters{}, err
		}
		vals[i] = v
	}
	return domain.FeeParameters{
		A: domain.Fee{Numerator: vals[0], Denominator: vals[1]},
		B: domain.Fee{Numerator: vals[2], Denominator: vals[3]},
	}, nil
}

// Paused reports the contract's paused flag.
func (c *Client) Paused(ctx context.Context) (bool, error) {
	values, err := c.call(ctx, "paused")
	if err != nil {
		return false, err
	}
	p, ok := values[0].(bool)
	if !ok {
		return false, apperror.New(apperror.CodeOracleCallFailed, apperror.WithContextf("unexpected output type %T", values[0]))
	}
	return p, nil
}

func (c *Client) uint(ctx context.Context, method string) (*big.Int, error) {
	values, err := c.call(ctx, method)
	if err != nil {
		return nil, err
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, apperror.New(apperror.CodeOracleCallFailed, apperror.WithContextf("%s: unexpected output type %T", method, values[0]))
	}
	return v, nil
}

func (c *Client) call(ctx context.Context, method string, args ...any) ([]any, error) {
	ctx, span := c.tracer.StartSpanFromContext(ctx, "oracle."+method, trace.WithAttributes(
		attribute.String("contract", c.contract.Hex()),
	))
	defer span.End()

	values, err := c.execute(ctx, method, args...)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}
	span.SetOK()
	return values, nil
}

func (c *Client) execute(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}

	out, err := c.cb.Execute(func() ([]byte, error) {
		return c.caller.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data})
	})
	if err != nil {
		if circuitbreaker.IsOpen(err) {
			return nil, apperror.New(apperror.CodeCircuitOpen, apperror.WithContext(method), apperror.WithCause(err))
		}
		return nil, apperror.New(apperror.CodeOracleCallFailed, apperror.WithContext(method), apperror.WithCause(err))
	}
	if len(out) == 0 {
		return nil, apperror.New(apperror.CodeOracleCallFailed, apperror.WithContextf("%s: empty response", method))
	}

	values, err := c.abi.Unpack(method, out)
	if err != nil {
		return nil, apperror.New(apperror.CodeOracleCallFailed, apperror.WithContext(method), apperror.WithCause(err))
	}
	if len(values) == 0 {
		return nil, apperror.New(apperror.CodeOracleCallFailed, apperror.WithContextf("%s: no outputs", method))
	}
	return values, nil
}
