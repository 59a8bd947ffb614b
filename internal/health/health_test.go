package health_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/bsc-triarb/internal/health"
	"github.com/fd1az/bsc-triarb/internal/logger"
)

func TestHealth_AllHealthy(t *testing.T) {
	s := health.NewServer(0, "v1.2.3", logger.Discard())
	s.RegisterCheck("rpc", func(context.Context) (bool, string) { return true, "3/3 endpoints healthy" })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var status health.Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "ok" || status.Version != "v1.2.3" {
		t.Errorf("unexpected status %+v", status)
	}
	if !status.Checks["rpc"].Healthy {
		t.Error("expected rpc check to be healthy")
	}
}

func TestHealth_Degraded(t *testing.T) {
	s := health.NewServer(0, "dev", logger.Discard())
	s.RegisterCheck("rpc", func(context.Context) (bool, string) { return true, "" })
	s.RegisterCheck("network", func(context.Context) (bool, string) { return false, "gas above ceiling" })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected not ready, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected live, got %d", rec.Code)
	}
}

func TestRouter_AcceptsModuleRoutes(t *testing.T) {
	s := health.NewServer(0, "dev", logger.Discard())
	s.Router().HandleFunc("/endpoints", func(w http.ResponseWriter, _ *http.Request) {
		health.WriteJSON(w, http.StatusOK, []string{"primary"})
	}).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/endpoints", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/endpoints", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
