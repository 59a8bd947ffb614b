package di_test

import (
	"testing"

	"github.com/fd1az/bsc-triarb/internal/di"
)

type counter struct{ n int }

func TestRegisterToken_BuildsOnce(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken[*counter]("test.counter")

	builds := 0
	di.RegisterToken(c, tok, func(di.ServiceRegistry) *counter {
		builds++
		return &counter{n: 7}
	})

	first := di.GetToken(c, tok)
	second := di.GetToken(c, tok)

	if first != second {
		t.Error("expected the same instance on every resolve")
	}
	if builds != 1 {
		t.Errorf("expected 1 build, got %d", builds)
	}
	if first.n != 7 {
		t.Errorf("expected 7, got %d", first.n)
	}
}

func TestRegisterToken_ResolvesDependencies(t *testing.T) {
	c := di.NewContainer()
	c.Register("config", 3)
	tok := di.NewToken[*counter]("test.counter")

	di.RegisterToken(c, tok, func(sr di.ServiceRegistry) *counter {
		return &counter{n: sr.Get("config").(int) * 2}
	})

	if got := di.GetToken(c, tok).n; got != 6 {
		t.Errorf("expected 6, got %d", got)
	}
}

func TestGet_PanicsOnUnknownKey(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown key")
		}
	}()
	di.NewContainer().Get("missing")
}

func TestGet_PanicsOnCycle(t *testing.T) {
	c := di.NewContainer()
	a := di.NewToken[int]("a")
	b := di.NewToken[int]("b")
	di.RegisterToken(c, a, func(sr di.ServiceRegistry) int { return di.GetToken(sr, b) })
	di.RegisterToken(c, b, func(sr di.ServiceRegistry) int { return di.GetToken(sr, a) })

	defer func() {
		if recover() == nil {
			t.Error("expected panic on dependency cycle")
		}
	}()
	di.GetToken(c, a)
}
