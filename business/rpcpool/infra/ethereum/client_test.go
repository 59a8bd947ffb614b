package ethereum_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fd1az/bsc-triarb/business/rpcpool/infra/ethereum"
)

type dataError struct{ msg string }

func (e dataError) Error() string          { return e.msg }
func (e dataError) ErrorData() interface{} { return "0x08c379a0" }

func TestIsRevert(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"message", errors.New("execution reverted: PancakeLibrary: INSUFFICIENT_LIQUIDITY"), true},
		{"data error", fmt.Errorf("call: %w", dataError{msg: "reverted"}), true},
		{"timeout", errors.New("context deadline exceeded"), false},
		{"http", errors.New("502 Bad Gateway"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ethereum.IsRevert(tt.err); got != tt.want {
				t.Errorf("IsRevert(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
