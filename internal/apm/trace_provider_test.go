package apm_test

import (
	"context"
	"testing"

	"github.com/fd1az/bsc-triarb/internal/apm"
)

func TestParseHeaders(t *testing.T) {
	got := apm.ParseHeaders("x-honeycomb-team=abc, api-key=def,broken,=nokey")

	if len(got) != 2 {
		t.Fatalf("expected 2 headers, got %v", got)
	}
	if got["x-honeycomb-team"] != "abc" || got["api-key"] != "def" {
		t.Errorf("unexpected headers %v", got)
	}
}

func TestNewTraceProvider_Empty(t *testing.T) {
	tp, err := apm.NewTraceProvider(context.Background(), apm.Config{Provider: apm.EmptyProvider})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tp.Stop(); err != nil {
		t.Errorf("unexpected stop error: %v", err)
	}
}

func TestNewTraceProvider_Unknown(t *testing.T) {
	if _, err := apm.NewTraceProvider(context.Background(), apm.Config{Provider: "jaeger"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestTracer_NoopWithoutProvider(t *testing.T) {
	tracer := apm.NewTracer("test")
	ctx, span := tracer.StartSpanFromContext(context.Background(), "op")
	defer span.End()

	span.NoticeError(nil)
	if tracer.SpanFromContext(ctx) == nil {
		t.Error("expected span from context")
	}
}
