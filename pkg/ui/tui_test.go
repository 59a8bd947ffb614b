package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	poolDomain "github.com/fd1az/bsc-triarb/business/rpcpool/domain"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func report(pcts ...int64) *domain.CycleReport {
	r := &domain.CycleReport{
		ID:         "cycle",
		Tier:       domain.TierPriority,
		StartedAt:  time.Now().Add(-time.Second),
		FinishedAt: time.Now(),
		Evaluated:  10,
	}
	for _, p := range pcts {
		r.Opportunities = append(r.Opportunities, domain.Opportunity{
			Symbols:    [3]string{"WBNB", "BUSD", "CAKE"},
			LoanAmount: decimal.NewFromInt(1),
			Profit:     domain.ProfitabilityResult{ProfitPct: decimal.NewFromInt(p), MeetsThreshold: true},
		})
	}
	return r
}

func TestUpdate_CycleMovesToDashboard(t *testing.T) {
	m := New()
	m.phase = PhaseStartup

	m = update(t, m, CycleMsg{Report: report(3, 2)})

	if m.phase != PhaseDashboard {
		t.Errorf("expected dashboard, got %s", m.phase)
	}
	if m.opportunities.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", m.opportunities.Len())
	}
	s := m.stats.Stats()
	if s.Cycles != 1 || s.Evaluated != 10 || s.Opportunities != 2 {
		t.Errorf("unexpected stats %+v", s)
	}
	if !strings.Contains(m.View(), "WBNB→BUSD→CAKE→WBNB") {
		t.Error("expected route in view")
	}
}

func TestUpdate_SkippedCycleCounts(t *testing.T) {
	m := New()
	r := report()
	r.Skipped = true
	r.SkipReason = domain.SkipScanInProgress

	m = update(t, m, CycleMsg{Report: r})

	s := m.stats.Stats()
	if s.Skipped != 1 || s.Cycles != 0 || s.LastSkip != domain.SkipScanInProgress {
		t.Errorf("unexpected stats %+v", s)
	}
	if m.lastCycle != nil {
		t.Error("skipped cycle must not become the last cycle")
	}
}

func TestUpdate_FrozenKeepsRows(t *testing.T) {
	m := New()
	m.phase = PhaseDashboard
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = update(t, m, CycleMsg{Report: report(1)})

	if m.opportunities.Len() != 0 {
		t.Error("frozen view must not take new rows")
	}
}

func TestUpdate_EndpointsCompleteRPCStep(t *testing.T) {
	m := New()
	m = update(t, m, EndpointsMsg{Endpoints: []poolDomain.Status{{URL: "https://bsc.example", Health: poolDomain.HealthHealthy}}})

	if m.startupSteps["rpc"].Status != "connected" {
		t.Errorf("expected rpc step connected, got %s", m.startupSteps["rpc"].Status)
	}
}

func TestUpdate_ErrorsKeepLastThree(t *testing.T) {
	m := New()
	for i := 0; i < 5; i++ {
		m = update(t, m, ErrorMsg{Error: errors.New("boom")})
	}
	if len(m.errors) != 3 {
		t.Errorf("expected 3 errors, got %d", len(m.errors))
	}
	if m.stats.Stats().Errors != 5 {
		t.Errorf("expected error count 5, got %d", m.stats.Stats().Errors)
	}
}
