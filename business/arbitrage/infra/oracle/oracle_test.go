package oracle_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	"github.com/fd1az/bsc-triarb/business/arbitrage/infra/oracle"
	"github.com/fd1az/bsc-triarb/internal/apperror"
	"github.com/fd1az/bsc-triarb/internal/logger"
)

var contract = common.HexToAddress("0x5A8eE0850d22FfeF4169DbD348c1b0d7d5f5546F")

type cycle struct {
	FlashPair     common.Address
	Tokens        [3]common.Address
	MinAmountsOut [3]*big.Int
}

// fakeContract answers calls by method name.
type fakeContract struct {
	t       *testing.T
	abi     abi.ABI
	respond func(method string, args []any) ([]any, error)
	calls   int
}

func newFakeContract(t *testing.T, respond func(method string, args []any) ([]any, error)) *fakeContract {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(oracle.FlashArbitrageABI))
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	return &fakeContract{t: t, abi: parsed, respond: respond}
}

func (f *fakeContract) CallContract(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	f.calls++
	if *msg.To != contract {
		f.t.Errorf("call sent to %s", msg.To.Hex())
	}
	m, err := f.abi.MethodById(msg.Data[:4])
	if err != nil {
		f.t.Fatalf("unknown selector: %v", err)
	}
	args, err := m.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		f.t.Fatalf("decode %s: %v", m.Name, err)
	}
	outs, err := f.respond(m.Name, args)
	if err != nil {
		return nil, err
	}
	return m.Outputs.Pack(outs...)
}

func newClient(t *testing.T, f *fakeContract) *oracle.Client {
	t.Helper()
	c, err := oracle.New(f, contract, logger.Discard())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestCheckProfitability(t *testing.T) {
	params := domain.OracleParams{
		FlashPair:     common.HexToAddress("0x58F876857a02D6762E0101bb5C46A8c1ED44Dc16"),
		Tokens:        [3]common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x02"), common.HexToAddress("0x03")},
		MinAmountsOut: [3]*big.Int{big.NewInt(94), big.NewInt(89), big.NewInt(100)},
	}

	f := newFakeContract(t, func(method string, args []any) ([]any, error) {
		if method != "checkArbitrageProfitability" {
			t.Fatalf("unexpected method %s", method)
		}
		got := abi.ConvertType(args[0], new(cycle)).(*cycle)
		if got.FlashPair != params.FlashPair || got.Tokens != params.Tokens {
			t.Errorf("unexpected cycle %+v", got)
		}
		if got.MinAmountsOut[1].Int64() != 89 {
			t.Errorf("unexpected minimums %v", got.MinAmountsOut)
		}
		if args[1].(*big.Int).Int64() != 1000 {
			t.Errorf("unexpected loan %v", args[1])
		}
		if args[2].(bool) {
			t.Error("expected start on B")
		}
		return []any{big.NewInt(12), big.NewInt(2), big.NewInt(10)}, nil
	})

	q, err := newClient(t, f).CheckProfitability(context.Background(), params, big.NewInt(1000), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ExpectedProfit.Int64() != 12 || q.PlatformFee.Int64() != 2 || q.UserProfit.Int64() != 10 {
		t.Errorf("unexpected quote %+v", q)
	}
}

func TestCheckProfitability_Revert(t *testing.T) {
	f := newFakeContract(t, func(string, []any) ([]any, error) {
		return nil, apperror.New(apperror.CodeExecutionReverted, apperror.WithContext("unprofitable"))
	})
	c := newClient(t, f)

	for i := 0; i < 8; i++ {
		_, err := c.CheckProfitability(context.Background(), domain.OracleParams{
			MinAmountsOut: [3]*big.Int{big.NewInt(1), big.NewInt(1), big.NewInt(1)},
		}, big.NewInt(1), true)
		if !apperror.HasCode(err, apperror.CodeOracleCallFailed) {
			t.Fatalf("call %d: expected oracle failure, got %v", i, err)
		}
		if apperror.HasCode(err, apperror.CodeCircuitOpen) {
			t.Fatal("reverts must not open the breaker")
		}
	}
	if f.calls != 8 {
		t.Errorf("expected every call to reach the contract, got %d", f.calls)
	}
}

func TestBreakerOpensOnTransportErrors(t *testing.T) {
	f := newFakeContract(t, func(string, []any) ([]any, error) {
		return nil, errors.New("connection refused")
	})
	c := newClient(t, f)

	var err error
	for i := 0; i < 6; i++ {
		_, err = c.Paused(context.Background())
	}
	if !apperror.HasCode(err, apperror.CodeCircuitOpen) {
		t.Errorf("expected open breaker, got %v", err)
	}
	if f.calls != 5 {
		t.Errorf("expected 5 calls before opening, got %d", f.calls)
	}
}

func TestFeeParameters(t *testing.T) {
	values := map[string]int64{
		"pancakeSwapFeeNumerator":   25,
		"pancakeSwapFeeDenominator": 10000,
		"biswapFeeNumerator":        998,
		"biswapFeeDenominator":      1000,
	}
	f := newFakeContract(t, func(method string, _ []any) ([]any, error) {
		v, ok := values[method]
		if !ok {
			t.Fatalf("unexpected method %s", method)
		}
		return []any{big.NewInt(v)}, nil
	})

	fees, err := newClient(t, f).FeeParameters(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fees.A.Rate().String() != "0.0025" || fees.B.Rate().String() != "0.002" {
		t.Errorf("unexpected rates %s %s", fees.A.Rate(), fees.B.Rate())
	}
}

func TestPaused(t *testing.T) {
	f := newFakeContract(t, func(method string, _ []any) ([]any, error) {
		return []any{true}, nil
	})

	paused, err := newClient(t, f).Paused(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !paused {
		t.Error("expected paused")
	}
}
