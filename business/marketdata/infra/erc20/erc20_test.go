package erc20_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/bsc-triarb/business/marketdata/infra/erc20"
	"github.com/fd1az/bsc-triarb/internal/logger"
)

var (
	stringType, _ = abi.NewType("string", "", nil)
	uint8Type, _  = abi.NewType("uint8", "", nil)
)

type fakeToken struct {
	decimals uint8
	symbol   []byte
	name     []byte
	nameErr  error
}

func encodeString(s string) []byte {
	out, _ := abi.Arguments{{Type: stringType}}.Pack(s)
	return out
}

func (f *fakeToken) CallContract(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	selector := common.Bytes2Hex(msg.Data[:4])
	switch selector {
	case "313ce567": // decimals()
		return abi.Arguments{{Type: uint8Type}}.Pack(f.decimals)
	case "95d89b41": // symbol()
		return f.symbol, nil
	case "06fdde03": // name()
		if f.nameErr != nil {
			return nil, f.nameErr
		}
		return f.name, nil
	}
	return nil, errors.New("unknown selector " + selector)
}

func TestMetadata(t *testing.T) {
	bytes32 := make([]byte, 32)
	copy(bytes32, "MKR")

	tests := []struct {
		name     string
		token    *fakeToken
		wantSym  string
		wantName string
		wantDec  uint8
	}{
		{
			name:     "standard",
			token:    &fakeToken{decimals: 18, symbol: encodeString("CAKE"), name: encodeString("PancakeSwap Token")},
			wantSym:  "CAKE",
			wantName: "PancakeSwap Token",
			wantDec:  18,
		},
		{
			name:     "name reverts",
			token:    &fakeToken{decimals: 9, symbol: encodeString("SAFE"), nameErr: errors.New("execution reverted")},
			wantSym:  "SAFE",
			wantName: "SAFE",
			wantDec:  9,
		},
		{
			name:     "bytes32 symbol",
			token:    &fakeToken{decimals: 18, symbol: bytes32, name: encodeString("Maker")},
			wantSym:  "MKR",
			wantName: "Maker",
			wantDec:  18,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := erc20.NewReader(tt.token, logger.Discard())
			if err != nil {
				t.Fatalf("new reader: %v", err)
			}
			md, err := r.Metadata(context.Background(), common.HexToAddress("0x01"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if md.Symbol != tt.wantSym || md.Name != tt.wantName || md.Decimals != tt.wantDec {
				t.Errorf("got %s/%s/%d, want %s/%s/%d", md.Symbol, md.Name, md.Decimals, tt.wantSym, tt.wantName, tt.wantDec)
			}
		})
	}
}

func TestMetadata_DecimalsRequired(t *testing.T) {
	r, _ := erc20.NewReader(callerFunc(func() ([]byte, error) { return nil, errors.New("reverted") }), logger.Discard())
	if _, err := r.Metadata(context.Background(), common.HexToAddress("0x02")); err == nil {
		t.Error("expected error when decimals() fails")
	}
}

func TestMetadata_RejectsExcessiveDecimals(t *testing.T) {
	token := &fakeToken{decimals: 77, symbol: encodeString("ODD"), name: encodeString("Odd Token")}
	r, err := erc20.NewReader(token, logger.Discard())
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	if _, err := r.Metadata(context.Background(), common.HexToAddress("0x03")); err == nil {
		t.Error("expected error for 77 decimals")
	}
}

type callerFunc func() ([]byte, error)

func (f callerFunc) CallContract(context.Context, ethereum.CallMsg) ([]byte, error) { return f() }
