package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/bsc-triarb/internal/cache"
)

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := cache.New[common.Address, int](time.Minute)
	defer c.Close()

	addr := common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c")
	c.Set(ctx, addr, 42, time.Minute)

	got, ok := c.Get(ctx, addr)
	if !ok || got != 42 {
		t.Fatalf("expected 42, got %d (ok=%v)", got, ok)
	}

	c.Delete(ctx, addr)
	if _, ok := c.Get(ctx, addr); ok {
		t.Error("expected entry to be deleted")
	}
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := cache.New[string, string](time.Minute)
	defer c.Close()

	c.Set(ctx, "k", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestCache_Close(t *testing.T) {
	ctx := context.Background()
	c := cache.New[string, string](time.Minute)
	c.Set(ctx, "a", "1", 0)
	c.Set(ctx, "b", "2", 0)

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	c.Close()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after close, got %d", c.Len())
	}
}
